package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/gate-go/internal/domain"
	"github.com/kirinyoku/gate-go/internal/notify"
	redisx "github.com/kirinyoku/gate-go/internal/redis"
	"github.com/kirinyoku/gate-go/internal/repository"
	redisrepo "github.com/kirinyoku/gate-go/internal/repository/redis"
)

// Store is the persistence surface of the review workflow. Exec runs fn
// inside one atomically-applied unit so the pending-entry transition and its
// consequences commit together.
type Store interface {
	Exec(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ListOpen(ctx context.Context) ([]domain.PendingEntryDetails, error)
}

type Tx interface {
	GetEntry(ctx context.Context, id int64) (*domain.PendingEntry, error)
	// MarkReviewed transitions the entry out of pending conditionally; false
	// means it was already processed.
	MarkReviewed(ctx context.Context, id int64, status domain.PendingStatus, reviewedBy int64, notes string, at time.Time) (bool, error)
	InsertTicket(ctx context.Context, t *domain.Ticket) error
	SetRegistrationStatus(ctx context.Context, regID int64, status domain.RegistrationStatus) error
}

type Config struct {
	CollectionBaseURL string
	MintAttempts      int
}

type Service struct {
	store    Store
	cache    *redisrepo.Cache
	pubsub   *redisx.EventsPubSub
	notifier notify.Notifier
	cfg      Config
	now      func() time.Time
}

func New(
	store Store,
	cache *redisrepo.Cache,
	pubsub *redisx.EventsPubSub,
	notifier notify.Notifier,
	cfg Config,
) *Service {
	if cfg.MintAttempts <= 0 {
		cfg.MintAttempts = 3
	}

	return &Service{
		store:    store,
		cache:    cache,
		pubsub:   pubsub,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Pending lists the open review queue with event/category display names.
func (s *Service) Pending(ctx context.Context) ([]domain.PendingEntryDetails, error) {
	const op = "service.review.Pending"

	entries, err := s.store.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}

// Approve issues a ticket for a queued registration. Approval is an
// authoritative override: capacity gates are not re-checked.
//
// Returns:
//   - *domain.Ticket: the issued ticket.
//   - error: review.ErrEntryNotFound if the entry does not exist.
//   - error: review.ErrAlreadyProcessed if the entry left pending before.
func (s *Service) Approve(ctx context.Context, entryID, adminID int64, notes string) (*domain.Ticket, error) {
	const op = "service.review.Approve"

	var ticket *domain.Ticket
	var eventID int64

	err := s.store.Exec(ctx, func(ctx context.Context, tx Tx) error {
		entry, err := tx.GetEntry(ctx, entryID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEntryNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		eventID = entry.EventID

		ok, err := tx.MarkReviewed(ctx, entryID, domain.PendingApproved, adminID, notes, s.now())
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return fmt.Errorf("%s: %w", op, ErrAlreadyProcessed)
		}

		t := &domain.Ticket{
			RegistrationID:   entry.RegistrationID,
			EventID:          entry.EventID,
			CategoryID:       entry.CategoryID,
			Phone:            entry.Phone,
			CheckinStatus:    domain.CheckinUnchecked,
			CollectionMethod: domain.CollectionAdmin,
		}

		for attempt := 0; attempt < s.cfg.MintAttempts; attempt++ {
			t.TokenID = domain.NewTokenID()
			t.Barcode = domain.NewBarcode()

			err = tx.InsertTicket(ctx, t)
			if err == nil {
				break
			}
			if !errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := tx.SetRegistrationStatus(ctx, entry.RegistrationID, domain.RegistrationConfirmed); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.TicketReady(ctx, "", ticket.Phone, s.collectionLink(ticket.TokenID))
	}
	if s.cache != nil {
		_ = s.cache.InvalidateStats(ctx, eventID)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, eventID)
	}

	return ticket, nil
}

// Reject closes a queued registration without issuing anything.
//
// Returns:
//   - error: review.ErrEntryNotFound if the entry does not exist.
//   - error: review.ErrAlreadyProcessed if the entry left pending before.
func (s *Service) Reject(ctx context.Context, entryID, adminID int64, notes string) error {
	const op = "service.review.Reject"

	var eventID int64

	err := s.store.Exec(ctx, func(ctx context.Context, tx Tx) error {
		entry, err := tx.GetEntry(ctx, entryID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEntryNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		eventID = entry.EventID

		ok, err := tx.MarkReviewed(ctx, entryID, domain.PendingRejected, adminID, notes, s.now())
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return fmt.Errorf("%s: %w", op, ErrAlreadyProcessed)
		}

		if err := tx.SetRegistrationStatus(ctx, entry.RegistrationID, domain.RegistrationRejected); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateStats(ctx, eventID)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, eventID)
	}

	return nil
}

func (s *Service) collectionLink(tokenID string) string {
	if s.cfg.CollectionBaseURL == "" {
		return "/checkin/" + tokenID
	}
	return s.cfg.CollectionBaseURL + "/checkin/" + tokenID
}
