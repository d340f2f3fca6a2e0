package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirinyoku/gate-go/internal/domain"
	redisx "github.com/kirinyoku/gate-go/internal/redis"
	"github.com/kirinyoku/gate-go/internal/repository"
	postgresrepo "github.com/kirinyoku/gate-go/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/gate-go/internal/repository/redis"
	"github.com/kirinyoku/gate-go/internal/uow"
)

type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisx.EventsPubSub
	uow    *uow.UoW
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, pubsub *redisx.EventsPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
	}
}

func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	const op = "service.admin.ListEvents"

	events, err := s.store.Events().ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// CreateEvent creates an event record and returns its ID.
//
// Returns:
//   - error: admin.ErrMissingName when the event has no name.
func (s *Service) CreateEvent(ctx context.Context, e *domain.Event) (int64, error) {
	const op = "service.admin.CreateEvent"

	if e.Name == "" {
		return 0, fmt.Errorf("%s: %w", op, ErrMissingName)
	}

	var id int64
	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		var err error
		id, err = s.store.Events().With(tx).CreateEvent(ctx, e)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})

	return id, err
}

// UpdateEvent overwrites an event's fields.
//
// Returns:
//   - error: admin.ErrEventNotFound if the event does not exist.
func (s *Service) UpdateEvent(ctx context.Context, e *domain.Event) error {
	const op = "service.admin.UpdateEvent"

	if e.Name == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingName)
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Events().With(tx).UpdateEvent(ctx, e); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateStats(ctx, e.ID)
			_ = s.pubsub.PublishEventChanged(ctx, e.ID)
		})
		return nil
	})

	return err
}

func (s *Service) ListCategories(ctx context.Context, eventID int64) ([]domain.TicketCategory, error) {
	const op = "service.admin.ListCategories"

	cats, err := s.store.Events().ListCategories(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cats, nil
}

// CreateCategory creates a ticket category after validating it against the
// owning event: the positive total_limit values of all categories together
// must fit under the event's max_attendees ceiling when that ceiling is set.
//
// Returns:
//   - error: admin.ErrEventNotFound, admin.ErrMissingName,
//     admin.ErrInvalidIdentity, admin.ErrLimitsExceedEvent.
func (s *Service) CreateCategory(ctx context.Context, c *domain.TicketCategory) (int64, error) {
	const op = "service.admin.CreateCategory"

	if err := validateCategory(c); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var id int64
	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		event, err := s.store.Events().With(tx).GetEvent(ctx, c.EventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.checkLimitInvariant(ctx, tx, event, c, 0); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		id, err = s.store.Events().With(tx).CreateCategory(ctx, c)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})

	return id, err
}

// UpdateCategory overwrites a ticket category, re-validating the capacity
// invariant against the other categories of the same event.
func (s *Service) UpdateCategory(ctx context.Context, c *domain.TicketCategory) error {
	const op = "service.admin.UpdateCategory"

	if err := validateCategory(c); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		current, err := s.store.Events().With(tx).GetCategory(ctx, c.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrCategoryNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		c.EventID = current.EventID

		event, err := s.store.Events().With(tx).GetEvent(ctx, c.EventID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.checkLimitInvariant(ctx, tx, event, c, c.ID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.store.Events().With(tx).UpdateCategory(ctx, c); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateStats(ctx, c.EventID)
		})
		return nil
	})

	return err
}

func (s *Service) checkLimitInvariant(
	ctx context.Context,
	tx postgresrepo.DB,
	event *domain.Event,
	c *domain.TicketCategory,
	excludeID int64,
) error {
	if event.MaxAttendees <= 0 || c.TotalLimit <= 0 {
		return nil
	}

	others, err := s.store.Events().With(tx).SumCategoryLimits(ctx, event.ID, excludeID)
	if err != nil {
		return err
	}

	if others+int64(c.TotalLimit) > int64(event.MaxAttendees) {
		return ErrLimitsExceedEvent
	}

	return nil
}

func validateCategory(c *domain.TicketCategory) error {
	if c.Name == "" {
		return ErrMissingName
	}
	switch c.IdentityType {
	case domain.IdentityGeneral, domain.IdentityVIP:
	default:
		return ErrInvalidIdentity
	}
	return nil
}
