package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kirinyoku/gate-go/internal/domain"
	"github.com/kirinyoku/gate-go/internal/service/checkin"
	"github.com/kirinyoku/gate-go/internal/service/registration"
	"github.com/kirinyoku/gate-go/internal/service/review"
)

// txAttempts bounds serialization-failure retries inside a flow. Each retry
// re-runs the whole closure against a fresh snapshot.
const txAttempts = 3

// RegistrationFlow adapts the store to the registration service: every
// attempt runs as one Serializable transaction, retried on serialization
// failures, so the capacity reads and the conditional insert commit together
// or not at all.
type RegistrationFlow struct {
	store *Store
}

func NewRegistrationFlow(store *Store) *RegistrationFlow {
	return &RegistrationFlow{store: store}
}

func (f *RegistrationFlow) Exec(ctx context.Context, fn func(ctx context.Context, tx registration.Tx) error) error {
	return runSerializable(ctx, f.store, func(ctx context.Context, db DB) error {
		return fn(ctx, &regTx{store: f.store, db: db})
	})
}

type regTx struct {
	store *Store
	db    DB
}

func (t *regTx) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	return t.store.Events().With(t.db).GetEvent(ctx, id)
}

func (t *regTx) GetCategory(ctx context.Context, id int64) (*domain.TicketCategory, error) {
	return t.store.Events().With(t.db).GetCategory(ctx, id)
}

func (t *regTx) UpsertUser(ctx context.Context, u domain.User) (int64, error) {
	return t.store.Registrations().With(t.db).UpsertUser(ctx, u)
}

func (t *regTx) CreateRegistration(ctx context.Context, reg domain.Registration) (int64, error) {
	return t.store.Registrations().With(t.db).CreateRegistration(ctx, reg)
}

func (t *regTx) SetRegistrationStatus(ctx context.Context, id int64, status domain.RegistrationStatus) error {
	return t.store.Registrations().With(t.db).SetStatus(ctx, id, status)
}

func (t *regTx) CategoryIssued(ctx context.Context, categoryID int64) (int64, error) {
	return t.store.Tickets().With(t.db).CategoryIssued(ctx, categoryID)
}

func (t *regTx) EventIssued(ctx context.Context, eventID int64) (int64, error) {
	return t.store.Tickets().With(t.db).EventIssued(ctx, eventID)
}

func (t *regTx) PhoneIdentityIssued(ctx context.Context, eventID int64, phone string, it domain.IdentityType) (int64, error) {
	return t.store.Tickets().With(t.db).PhoneIdentityIssued(ctx, eventID, phone, it)
}

func (t *regTx) PhoneIdentityPending(ctx context.Context, eventID int64, phone string, it domain.IdentityType) (int64, error) {
	return t.store.Pending().With(t.db).PhoneIdentityPending(ctx, eventID, phone, it)
}

func (t *regTx) InsertTicket(ctx context.Context, tk *domain.Ticket, categoryLimit, eventLimit int) error {
	return insertWithSavepoint(ctx, t.db, func() error {
		return t.store.Tickets().With(t.db).InsertIfCapacity(ctx, tk, categoryLimit, eventLimit)
	})
}

func (t *regTx) CreatePendingEntry(ctx context.Context, p domain.PendingEntry) (int64, error) {
	return t.store.Pending().With(t.db).Create(ctx, p)
}

// ReviewFlow adapts the store to the review workflow.
type ReviewFlow struct {
	store *Store
}

func NewReviewFlow(store *Store) *ReviewFlow {
	return &ReviewFlow{store: store}
}

func (f *ReviewFlow) Exec(ctx context.Context, fn func(ctx context.Context, tx review.Tx) error) error {
	return runSerializable(ctx, f.store, func(ctx context.Context, db DB) error {
		return fn(ctx, &reviewTx{store: f.store, db: db})
	})
}

func (f *ReviewFlow) ListOpen(ctx context.Context) ([]domain.PendingEntryDetails, error) {
	return f.store.Pending().ListOpen(ctx)
}

type reviewTx struct {
	store *Store
	db    DB
}

func (t *reviewTx) GetEntry(ctx context.Context, id int64) (*domain.PendingEntry, error) {
	return t.store.Pending().With(t.db).Get(ctx, id)
}

func (t *reviewTx) MarkReviewed(
	ctx context.Context,
	id int64,
	status domain.PendingStatus,
	reviewedBy int64,
	notes string,
	at time.Time,
) (bool, error) {
	return t.store.Pending().With(t.db).MarkReviewed(ctx, id, status, reviewedBy, notes, at)
}

func (t *reviewTx) InsertTicket(ctx context.Context, tk *domain.Ticket) error {
	return insertWithSavepoint(ctx, t.db, func() error {
		return t.store.Tickets().With(t.db).Insert(ctx, tk)
	})
}

func (t *reviewTx) SetRegistrationStatus(ctx context.Context, regID int64, status domain.RegistrationStatus) error {
	return t.store.Registrations().With(t.db).SetStatus(ctx, regID, status)
}

// CheckinStore adapts the ticket repository to the check-in state machine.
// No explicit transaction is needed: the conditional update is atomic on its
// own.
type CheckinStore struct {
	store *Store
}

func NewCheckinStore(store *Store) *CheckinStore {
	return &CheckinStore{store: store}
}

func (s *CheckinStore) FindTicket(ctx context.Context, tokenID, barcode string) (*domain.TicketDetails, error) {
	return s.store.Tickets().FindByTokenOrBarcode(ctx, tokenID, barcode)
}

func (s *CheckinStore) MarkChecked(ctx context.Context, ticketID int64, at time.Time) (bool, error) {
	return s.store.Tickets().MarkChecked(ctx, ticketID, at)
}

// insertWithSavepoint runs the ticket insert under a savepoint. A unique
// violation aborts the whole Postgres transaction; rolling back to the
// savepoint keeps it usable, so the caller can re-mint identifiers and try
// again inside the same transaction.
func insertWithSavepoint(ctx context.Context, db DB, insert func() error) error {
	if _, err := db.Exec(ctx, "SAVEPOINT mint_ticket"); err != nil {
		return err
	}

	if err := insert(); err != nil {
		if _, rbErr := db.Exec(ctx, "ROLLBACK TO SAVEPOINT mint_ticket"); rbErr != nil {
			return fmt.Errorf("rollback to savepoint: %v: %w", rbErr, err)
		}
		return err
	}

	_, err := db.Exec(ctx, "RELEASE SAVEPOINT mint_ticket")
	return err
}

func runSerializable(ctx context.Context, store *Store, fn func(ctx context.Context, db DB) error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = store.RunTx(ctx, &pgx.TxOptions{
			IsoLevel:   pgx.Serializable,
			AccessMode: pgx.ReadWrite,
		}, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}
	return err
}

var (
	_ registration.Store = (*RegistrationFlow)(nil)
	_ review.Store       = (*ReviewFlow)(nil)
	_ checkin.Store      = (*CheckinStore)(nil)
)
