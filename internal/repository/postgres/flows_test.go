package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/gate-go/internal/domain"
	"github.com/kirinyoku/gate-go/internal/repository"
)

// scriptDB records every statement and serves scripted row results, acting
// like a Postgres transaction: after an uncaught unique violation every
// later statement fails with 25P02 until a rollback to the savepoint.
type scriptDB struct {
	stmts   []string
	rowErrs []error
	aborted bool
}

var errTxAborted = &pgconn.PgError{
	Code:    "25P02",
	Message: "current transaction is aborted, commands ignored until end of transaction block",
}

func (d *scriptDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if d.aborted && !strings.HasPrefix(sql, "ROLLBACK TO SAVEPOINT") {
		return pgconn.CommandTag{}, errTxAborted
	}
	if strings.HasPrefix(sql, "ROLLBACK TO SAVEPOINT") {
		d.aborted = false
	}
	d.stmts = append(d.stmts, sql)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (d *scriptDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errTxAborted
}

func (d *scriptDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if d.aborted {
		return scriptRow{err: errTxAborted}
	}
	d.stmts = append(d.stmts, sql)

	var err error
	if len(d.rowErrs) > 0 {
		err = d.rowErrs[0]
		d.rowErrs = d.rowErrs[1:]
	}

	var pgErr *pgconn.PgError
	if e, ok := err.(*pgconn.PgError); ok {
		pgErr = e
	}
	if pgErr != nil && pgErr.Code == "23505" {
		d.aborted = true
	}

	return scriptRow{err: err}
}

func (d *scriptDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

type scriptRow struct {
	err error
}

func (r scriptRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if id, ok := dest[0].(*int64); ok {
		*id = 1
	}
	if len(dest) > 1 {
		if ts, ok := dest[1].(*time.Time); ok {
			*ts = time.Now()
		}
	}
	return nil
}

func mintTicket() *domain.Ticket {
	return &domain.Ticket{
		TokenID:          domain.NewTokenID(),
		Barcode:          domain.NewBarcode(),
		RegistrationID:   100,
		EventID:          5,
		CategoryID:       10,
		Phone:            "5550100",
		CheckinStatus:    domain.CheckinUnchecked,
		CollectionMethod: domain.CollectionWeb,
	}
}

func TestRegTxInsertTicket_ConflictKeepsTransactionUsable(t *testing.T) {
	db := &scriptDB{rowErrs: []error{
		&pgconn.PgError{Code: "23505", ConstraintName: "tickets_barcode_key"},
	}}
	tx := &regTx{store: NewStore(nil), db: db}
	ctx := context.Background()

	// First attempt loses the barcode race; the surrounding transaction
	// must survive it.
	err := tx.InsertTicket(ctx, mintTicket(), 0, 0)
	require.ErrorIs(t, err, repository.ErrConflict)

	// Second attempt with fresh identifiers goes through in the same
	// transaction instead of failing with 25P02.
	tk := mintTicket()
	err = tx.InsertTicket(ctx, tk, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tk.ID)

	var savepoints, rollbacks, releases int
	for _, s := range db.stmts {
		switch {
		case strings.HasPrefix(s, "ROLLBACK TO SAVEPOINT"):
			rollbacks++
		case strings.HasPrefix(s, "RELEASE SAVEPOINT"):
			releases++
		case strings.HasPrefix(s, "SAVEPOINT"):
			savepoints++
		}
	}
	assert.Equal(t, 2, savepoints)
	assert.Equal(t, 1, rollbacks)
	assert.Equal(t, 1, releases)
}

func TestRegTxInsertTicket_CapacityMissDoesNotAbort(t *testing.T) {
	db := &scriptDB{rowErrs: []error{pgx.ErrNoRows}}
	tx := &regTx{store: NewStore(nil), db: db}

	err := tx.InsertTicket(context.Background(), mintTicket(), 1, 0)
	require.ErrorIs(t, err, repository.ErrCapacityExhausted)
	assert.False(t, db.aborted)
}

func TestReviewTxInsertTicket_ConflictKeepsTransactionUsable(t *testing.T) {
	db := &scriptDB{rowErrs: []error{
		&pgconn.PgError{Code: "23505", ConstraintName: "tickets_token_id_key"},
	}}
	tx := &reviewTx{store: NewStore(nil), db: db}
	ctx := context.Background()

	err := tx.InsertTicket(ctx, mintTicket())
	require.ErrorIs(t, err, repository.ErrConflict)

	tk := mintTicket()
	require.NoError(t, tx.InsertTicket(ctx, tk))
	assert.Equal(t, int64(1), tk.ID)
}
