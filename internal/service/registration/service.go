package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/gate-go/internal/domain"
	"github.com/kirinyoku/gate-go/internal/metrics"
	"github.com/kirinyoku/gate-go/internal/notify"
	redisx "github.com/kirinyoku/gate-go/internal/redis"
	"github.com/kirinyoku/gate-go/internal/repository"
	redisrepo "github.com/kirinyoku/gate-go/internal/repository/redis"
)

type Config struct {
	// CollectionBaseURL prefixes the ticket retrieval link sent to the
	// attendee, e.g. https://example.com -> https://example.com/checkin/<token>.
	CollectionBaseURL string
	// MintAttempts bounds the retries on a token/barcode uniqueness collision.
	MintAttempts int
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

type Request struct {
	EventID    int64
	CategoryID int64
	Name       string
	Email      string
	Phone      string
	ExternalID string
}

// Result is the terminal decision of the eligibility engine for one attempt.
// Success is true only for an issued outcome; a queued outcome additionally
// carries RequiresReview so the caller can tell "handled later" apart from
// "permanently rejected".
type Result struct {
	Outcome        Outcome
	Reason         Reason
	Message        string
	RequiresReview bool
	RegistrationID int64
	Ticket         *domain.Ticket
	CollectionLink string
}

func (r *Result) Success() bool {
	return r.Outcome == OutcomeIssued
}

// Register runs a registration attempt through the eligibility engine.
//
// Gates in order: required fields, event/category existence, force-review
// policy, per-identity phone ceiling (rejects), collection window and web
// collection switch (queues), category and event capacity (queues). An
// issue-now decision mints the ticket synchronously before returning.
//
// Returns:
//   - *Result: the terminal decision, always non-nil on a nil error.
//   - error: registration.ErrMissingFields on incomplete input.
//   - error: registration.ErrEventNotFound, registration.ErrCategoryNotFound.
func (s *Service) Register(ctx context.Context, req Request) (*Result, error) {
	const op = "service.registration.Register"

	if req.EventID == 0 || req.CategoryID == 0 ||
		req.Name == "" || req.Email == "" || req.Phone == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingFields)
	}

	var res *Result

	err := s.store.Exec(ctx, func(ctx context.Context, tx Tx) error {
		event, err := tx.GetEvent(ctx, req.EventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		cat, err := tx.GetCategory(ctx, req.CategoryID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrCategoryNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		if cat.EventID != event.ID {
			return fmt.Errorf("%s: %w", op, ErrCategoryNotFound)
		}

		userID, err := tx.UpsertUser(ctx, domain.User{
			Name:       req.Name,
			Email:      req.Email,
			Phone:      req.Phone,
			ExternalID: req.ExternalID,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		regID, err := tx.CreateRegistration(ctx, domain.Registration{
			UserID:     userID,
			EventID:    event.ID,
			CategoryID: cat.ID,
			Phone:      req.Phone,
			Status:     domain.RegistrationPending,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		queue := func(reason Reason) error {
			if _, err := tx.CreatePendingEntry(ctx, domain.PendingEntry{
				RegistrationID: regID,
				Name:           req.Name,
				Email:          req.Email,
				Phone:          req.Phone,
				EventID:        event.ID,
				CategoryID:     cat.ID,
				Status:         domain.PendingOpen,
			}); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			res = &Result{
				Outcome:        OutcomeQueued,
				Reason:         reason,
				Message:        reason.Message(),
				RequiresReview: true,
				RegistrationID: regID,
			}
			return nil
		}

		// Force-review categories always queue; this is a policy override,
		// not a capacity statement.
		if cat.RequiresReview {
			return queue(ReasonForceReview)
		}
		if !cat.AllowCollection {
			return queue(ReasonNotCollectable)
		}

		// A still-undecided pending entry reserves capacity against the same
		// per-phone ceiling as an issued ticket.
		if limit := event.PhoneLimit(cat.IdentityType); limit > 0 {
			issued, err := tx.PhoneIdentityIssued(ctx, event.ID, req.Phone, cat.IdentityType)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			pending, err := tx.PhoneIdentityPending(ctx, event.ID, req.Phone, cat.IdentityType)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			if issued+pending >= int64(limit) {
				if err := tx.SetRegistrationStatus(ctx, regID, domain.RegistrationRejected); err != nil {
					return fmt.Errorf("%s: %w", op, err)
				}
				res = &Result{
					Outcome:        OutcomeRejected,
					Reason:         ReasonPhoneLimit,
					Message:        ReasonPhoneLimit.Message(),
					RegistrationID: regID,
				}
				return nil
			}
		}

		if reason := collectionWindow(event, s.now()); reason != ReasonNone {
			return queue(reason)
		}

		if cat.TotalLimit > 0 {
			issued, err := tx.CategoryIssued(ctx, cat.ID)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			if issued >= int64(cat.TotalLimit) {
				return queue(ReasonSoldOut)
			}
		}

		if event.MaxAttendees > 0 {
			issued, err := tx.EventIssued(ctx, event.ID)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			if issued >= int64(event.MaxAttendees) {
				return queue(ReasonEventFull)
			}
		}

		ticket, err := s.issue(ctx, tx, event, cat, regID, userID, req.Phone)
		if err != nil {
			if errors.Is(err, repository.ErrCapacityExhausted) {
				// Lost the capacity race at commit time.
				return queue(ReasonSoldOut)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := tx.SetRegistrationStatus(ctx, regID, domain.RegistrationConfirmed); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		res = &Result{
			Outcome:        OutcomeIssued,
			Reason:         ReasonNone,
			Message:        ReasonNone.Message(),
			RegistrationID: regID,
			Ticket:         ticket,
			CollectionLink: s.collectionLink(ticket.TokenID),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterDecision(ctx, req, res)

	return res, nil
}

// issue mints identifiers and writes the ticket, re-minting on a uniqueness
// collision a bounded number of times.
func (s *Service) issue(
	ctx context.Context,
	tx Tx,
	event *domain.Event,
	cat *domain.TicketCategory,
	regID, userID int64,
	phone string,
) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		RegistrationID:   regID,
		UserID:           &userID,
		EventID:          event.ID,
		CategoryID:       cat.ID,
		Phone:            phone,
		CheckinStatus:    domain.CheckinUnchecked,
		CollectionMethod: domain.CollectionWeb,
	}

	var err error
	for attempt := 0; attempt < s.cfg.MintAttempts; attempt++ {
		ticket.TokenID = domain.NewTokenID()
		ticket.Barcode = domain.NewBarcode()

		err = tx.InsertTicket(ctx, ticket, cat.TotalLimit, event.MaxAttendees)
		if err == nil {
			return ticket, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
	}

	return nil, err
}

func (s *Service) afterDecision(ctx context.Context, req Request, res *Result) {
	metrics.ObserveRegistration(string(res.Outcome), string(res.Reason))

	if res.Outcome != OutcomeIssued {
		return
	}

	if s.notifier != nil {
		s.notifier.TicketReady(ctx, req.Email, req.Phone, res.CollectionLink)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateStats(ctx, req.EventID)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, req.EventID)
	}
}

func (s *Service) collectionLink(tokenID string) string {
	if s.cfg.CollectionBaseURL == "" {
		return "/checkin/" + tokenID
	}
	return s.cfg.CollectionBaseURL + "/checkin/" + tokenID
}
