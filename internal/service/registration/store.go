package registration

import (
	"context"

	"github.com/kirinyoku/gate-go/internal/domain"
)

// Store is the persistence surface the registration flow needs. Exec runs fn
// so that every read and write inside it observes and mutates one consistent
// snapshot; the capacity counts and the subsequent ticket or pending-entry
// insert are therefore a single atomically-applied operation.
type Store interface {
	Exec(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the transaction-scoped method set of a registration attempt.
type Tx interface {
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	GetCategory(ctx context.Context, id int64) (*domain.TicketCategory, error)
	UpsertUser(ctx context.Context, u domain.User) (int64, error)
	CreateRegistration(ctx context.Context, reg domain.Registration) (int64, error)
	SetRegistrationStatus(ctx context.Context, id int64, status domain.RegistrationStatus) error

	CategoryIssued(ctx context.Context, categoryID int64) (int64, error)
	EventIssued(ctx context.Context, eventID int64) (int64, error)
	PhoneIdentityIssued(ctx context.Context, eventID int64, phone string, it domain.IdentityType) (int64, error)
	PhoneIdentityPending(ctx context.Context, eventID int64, phone string, it domain.IdentityType) (int64, error)

	// InsertTicket writes the ticket only while the category and event
	// ceilings still hold; repository.ErrCapacityExhausted reports a lost
	// capacity race, repository.ErrConflict a token/barcode collision.
	InsertTicket(ctx context.Context, t *domain.Ticket, categoryLimit, eventLimit int) error
	CreatePendingEntry(ctx context.Context, p domain.PendingEntry) (int64, error)
}
