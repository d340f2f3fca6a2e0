package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/gate-go/internal/domain"
)

type PendingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *PendingRepo) With(db DB) *PendingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *PendingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *PendingRepo) Create(ctx context.Context, p domain.PendingEntry) (int64, error) {
	const op = "postgres.PendingRepo.Create"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO pending_entries
			(registration_id, name, email, phone, event_id, category_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.RegistrationID, p.Name, p.Email, p.Phone, p.EventID, p.CategoryID,
		string(p.Status),
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// Get retrieves a pending entry by its ID.
//
// Returns:
//   - error: repository.ErrNotFound if the entry is not found.
func (r *PendingRepo) Get(ctx context.Context, id int64) (*domain.PendingEntry, error) {
	const op = "postgres.PendingRepo.Get"

	db := r.handle()

	var p domain.PendingEntry
	var status string
	if err := db.QueryRow(ctx,
		`SELECT id, registration_id, name, email, phone, event_id, category_id,
				status, admin_notes, reviewed_by, reviewed_at, created_at
		 FROM pending_entries WHERE id = $1`,
		id,
	).Scan(
		&p.ID, &p.RegistrationID, &p.Name, &p.Email, &p.Phone, &p.EventID,
		&p.CategoryID, &status, &p.AdminNotes, &p.ReviewedBy, &p.ReviewedAt,
		&p.CreatedAt,
	); err != nil {
		return nil, wrapDBErr(op, err)
	}
	p.Status = domain.PendingStatus(status)

	return &p, nil
}

// MarkReviewed moves an entry out of pending as a single conditional update.
// A false result means the entry was already processed.
func (r *PendingRepo) MarkReviewed(
	ctx context.Context,
	id int64,
	status domain.PendingStatus,
	reviewedBy int64,
	notes string,
	at time.Time,
) (bool, error) {
	const op = "postgres.PendingRepo.MarkReviewed"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE pending_entries
		 SET status = $2, reviewed_by = $3, reviewed_at = $4, admin_notes = $5
		 WHERE id = $1 AND status = $6`,
		id, string(status), reviewedBy, at, notes, string(domain.PendingOpen),
	)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return tag.RowsAffected() == 1, nil
}

// PhoneIdentityPending counts a phone's still-undecided entries in an event
// for the given identity class. An undecided entry reserves capacity against
// the same per-phone ceiling as an issued ticket.
func (r *PendingRepo) PhoneIdentityPending(
	ctx context.Context,
	eventID int64,
	phone string,
	it domain.IdentityType,
) (int64, error) {
	const op = "postgres.PendingRepo.PhoneIdentityPending"

	db := r.handle()

	var n int64
	if err := db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM pending_entries p
		 JOIN ticket_categories c ON c.id = p.category_id
		 WHERE p.event_id = $1 AND p.phone = $2 AND p.status = $3
		   AND c.identity_type = $4`,
		eventID, phone, string(domain.PendingOpen), string(it),
	).Scan(&n); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

func (r *PendingRepo) ListOpen(ctx context.Context) ([]domain.PendingEntryDetails, error) {
	const op = "postgres.PendingRepo.ListOpen"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT p.id, p.registration_id, p.name, p.email, p.phone, p.event_id,
				p.category_id, p.status, p.admin_notes, p.reviewed_by,
				p.reviewed_at, p.created_at, e.name, c.name
		 FROM pending_entries p
		 JOIN events e ON e.id = p.event_id
		 JOIN ticket_categories c ON c.id = p.category_id
		 WHERE p.status = $1
		 ORDER BY p.created_at DESC`,
		string(domain.PendingOpen),
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.PendingEntryDetails
	for rows.Next() {
		var d domain.PendingEntryDetails
		var status string
		if err := scanPendingDetails(rows, &d, &status); err != nil {
			return nil, wrapDBErr(op, err)
		}
		d.Status = domain.PendingStatus(status)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func scanPendingDetails(row pgx.Row, d *domain.PendingEntryDetails, status *string) error {
	return row.Scan(
		&d.ID, &d.RegistrationID, &d.Name, &d.Email, &d.Phone, &d.EventID,
		&d.CategoryID, status, &d.AdminNotes, &d.ReviewedBy, &d.ReviewedAt,
		&d.CreatedAt, &d.EventName, &d.CategoryName,
	)
}
