package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/gate-go/internal/domain"
	redisx "github.com/kirinyoku/gate-go/internal/redis"
	"github.com/kirinyoku/gate-go/internal/repository"
	postgresrepo "github.com/kirinyoku/gate-go/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/gate-go/internal/repository/redis"
)

type Config struct {
	StatsTTL time.Duration
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.StatsTTL <= 0 {
		cfg.StatsTTL = 15 * time.Second
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	const op = "service.query.ListEvents"

	events, err := s.store.Events().ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// GetEvent retrieves an event together with its ticket categories.
//
// Returns:
//   - error: query.ErrEventNotFound if the event is not found.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.EventWithCategories, error) {
	const op = "service.query.GetEvent"

	event, err := s.store.Events().GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cats, err := s.store.Events().ListCategories(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &domain.EventWithCategories{Event: *event, Categories: cats}, nil
}

// TicketsByPhone lists every ticket held by a phone number, newest first,
// with joined event/category display fields.
//
// Returns:
//   - error: query.ErrMissingPhone on empty input.
func (s *Service) TicketsByPhone(ctx context.Context, phone string) ([]domain.TicketDetails, error) {
	const op = "service.query.TicketsByPhone"

	if phone == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingPhone)
	}

	tickets, err := s.store.Tickets().ListByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tickets, nil
}

// TicketByToken resolves the private retrieval link.
//
// Returns:
//   - error: query.ErrTicketNotFound if no ticket carries the token.
func (s *Service) TicketByToken(ctx context.Context, tokenID string) (*domain.TicketDetails, error) {
	const op = "service.query.TicketByToken"

	ticket, err := s.store.Tickets().FindByTokenOrBarcode(ctx, tokenID, "")
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ticket, nil
}

// EventStats aggregates one event's issued/checked/pending counts, served
// from a short-TTL cache collapsed by singleflight.
func (s *Service) EventStats(ctx context.Context, eventID int64) (*domain.EventStats, error) {
	const op = "service.query.EventStats"

	load := func(ctx context.Context) (*domain.EventStats, error) {
		return s.store.Query().EventStats(ctx, eventID)
	}

	if s.cache == nil {
		stats, err := load(ctx)
		if err != nil {
			return nil, s.wrapStatsErr(op, err)
		}
		return stats, nil
	}

	stats, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisx.KeyEventStats(eventID), s.cfg.StatsTTL, load)
	if err != nil {
		return nil, s.wrapStatsErr(op, err)
	}

	return stats, nil
}

// StatsByEvents aggregates the per-event dashboard overview.
func (s *Service) StatsByEvents(ctx context.Context) ([]domain.EventStats, error) {
	const op = "service.query.StatsByEvents"

	load := func(ctx context.Context) ([]domain.EventStats, error) {
		return s.store.Query().StatsByEvents(ctx)
	}

	if s.cache == nil {
		return load(ctx)
	}

	stats, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisx.KeyStatsOverview(), s.cfg.StatsTTL, load)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}

func (s *Service) wrapStatsErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrEventNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
