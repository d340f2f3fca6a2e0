package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/gate-go/internal/domain"
	"github.com/kirinyoku/gate-go/internal/metrics"
	redisx "github.com/kirinyoku/gate-go/internal/redis"
	"github.com/kirinyoku/gate-go/internal/repository"
	redisrepo "github.com/kirinyoku/gate-go/internal/repository/redis"
)

// Store is the persistence surface of the check-in state machine.
// MarkChecked must apply the unchecked -> checked transition conditionally:
// it returns false, without touching the row, when the ticket is already
// checked.
type Store interface {
	FindTicket(ctx context.Context, tokenID, barcode string) (*domain.TicketDetails, error)
	MarkChecked(ctx context.Context, ticketID int64, at time.Time) (bool, error)
}

type Service struct {
	store  Store
	cache  *redisrepo.Cache
	pubsub *redisx.EventsPubSub
	now    func() time.Time
}

func New(store Store, cache *redisrepo.Cache, pubsub *redisx.EventsPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		now:    time.Now,
	}
}

// Result reports the outcome of a scan. A repeated scan of an already
// checked ticket is not an error: Success is false, Message explains, and
// Ticket carries the unchanged state.
type Result struct {
	Success bool
	Message string
	Ticket  *domain.TicketDetails
}

// CheckIn transitions a ticket from unchecked to checked, looked up by token
// id or barcode (either matching), gated by the owning event's check-in
// window.
//
// Returns:
//   - *Result: the scan outcome, non-nil on a nil error.
//   - error: checkin.ErrMissingIdentifier when both identifiers are empty.
//   - error: checkin.ErrTicketNotFound if no ticket matches.
//   - error: checkin.ErrNotOpen, checkin.ErrClosed outside the window.
func (s *Service) CheckIn(ctx context.Context, tokenID, barcode string) (*Result, error) {
	const op = "service.checkin.CheckIn"

	if tokenID == "" && barcode == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingIdentifier)
	}

	ticket, err := s.store.FindTicket(ctx, tokenID, barcode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ticket.CheckinStatus == domain.CheckinChecked {
		metrics.ObserveCheckin("repeat")
		return &Result{
			Success: false,
			Message: "ticket already checked in",
			Ticket:  ticket,
		}, nil
	}

	now := s.now()
	if ticket.CheckinStart != nil && now.Before(*ticket.CheckinStart) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotOpen)
	}
	if ticket.CheckinEnd != nil && now.After(*ticket.CheckinEnd) {
		return nil, fmt.Errorf("%s: %w", op, ErrClosed)
	}

	ok, err := s.store.MarkChecked(ctx, ticket.ID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		// Lost a concurrent scan of the same ticket; report the winner's
		// state instead of failing.
		current, err := s.store.FindTicket(ctx, tokenID, barcode)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		metrics.ObserveCheckin("repeat")
		return &Result{
			Success: false,
			Message: "ticket already checked in",
			Ticket:  current,
		}, nil
	}

	ticket.CheckinStatus = domain.CheckinChecked
	ticket.CheckinTime = &now

	metrics.ObserveCheckin("checked")

	if s.cache != nil {
		_ = s.cache.InvalidateStats(ctx, ticket.EventID)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, ticket.EventID)
	}

	return &Result{
		Success: true,
		Message: "check-in complete",
		Ticket:  ticket,
	}, nil
}
