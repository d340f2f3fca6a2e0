package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/gate-go/internal/domain"
	"github.com/kirinyoku/gate-go/internal/repository"
)

type TicketRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TicketRepo) With(db DB) *TicketRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TicketRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// InsertIfCapacity writes a ticket only while both ceilings still hold at
// commit time: the category total_limit and the event max_attendees (zero
// disables a ceiling). The guard lives in the statement itself, so the count
// and the insert are one atomically-applied operation.
//
// Returns:
//   - error: repository.ErrCapacityExhausted if a ceiling was reached.
//   - error: repository.ErrConflict on a token/barcode uniqueness violation.
func (r *TicketRepo) InsertIfCapacity(
	ctx context.Context,
	t *domain.Ticket,
	categoryLimit, eventLimit int,
) error {
	const op = "postgres.TicketRepo.InsertIfCapacity"

	db := r.handle()

	row := db.QueryRow(ctx,
		`INSERT INTO tickets
			(token_id, barcode, registration_id, user_id, event_id, category_id,
			 phone, checkin_status, collection_method)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		 WHERE ($10 <= 0 OR
				(SELECT COUNT(*) FROM tickets WHERE category_id = $6) < $10)
		   AND ($11 <= 0 OR
				(SELECT COUNT(*) FROM tickets WHERE event_id = $5) < $11)
		 RETURNING id, created_at`,
		t.TokenID, t.Barcode, t.RegistrationID, t.UserID, t.EventID,
		t.CategoryID, t.Phone, string(t.CheckinStatus), string(t.CollectionMethod),
		categoryLimit, eventLimit,
	)

	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return wrapDBErr(op, repository.ErrCapacityExhausted)
		}
		return wrapDBErr(op, err)
	}

	return nil
}

// Insert writes a ticket unconditionally. Used by the review workflow, where
// an admin approval is an authoritative override of the capacity gates.
//
// Returns:
//   - error: repository.ErrConflict on a token/barcode uniqueness violation.
func (r *TicketRepo) Insert(ctx context.Context, t *domain.Ticket) error {
	const op = "postgres.TicketRepo.Insert"

	db := r.handle()

	if err := db.QueryRow(ctx,
		`INSERT INTO tickets
			(token_id, barcode, registration_id, user_id, event_id, category_id,
			 phone, checkin_status, collection_method)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		t.TokenID, t.Barcode, t.RegistrationID, t.UserID, t.EventID,
		t.CategoryID, t.Phone, string(t.CheckinStatus), string(t.CollectionMethod),
	).Scan(&t.ID, &t.CreatedAt); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// CategoryIssued counts tickets ever issued in a category. The count is
// global, not time-scoped.
func (r *TicketRepo) CategoryIssued(ctx context.Context, categoryID int64) (int64, error) {
	const op = "postgres.TicketRepo.CategoryIssued"

	db := r.handle()

	var n int64
	if err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE category_id = $1`,
		categoryID,
	).Scan(&n); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

func (r *TicketRepo) EventIssued(ctx context.Context, eventID int64) (int64, error) {
	const op = "postgres.TicketRepo.EventIssued"

	db := r.handle()

	var n int64
	if err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE event_id = $1`,
		eventID,
	).Scan(&n); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

// PhoneIdentityIssued counts a phone's tickets in an event whose category
// belongs to the given identity class.
func (r *TicketRepo) PhoneIdentityIssued(
	ctx context.Context,
	eventID int64,
	phone string,
	it domain.IdentityType,
) (int64, error) {
	const op = "postgres.TicketRepo.PhoneIdentityIssued"

	db := r.handle()

	var n int64
	if err := db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM tickets t
		 JOIN ticket_categories c ON c.id = t.category_id
		 WHERE t.event_id = $1 AND t.phone = $2 AND c.identity_type = $3`,
		eventID, phone, string(it),
	).Scan(&n); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

const ticketDetailsJoin = `
	SELECT t.id, t.token_id, t.barcode, t.registration_id, t.user_id,
		   t.event_id, t.category_id, t.phone, t.checkin_status,
		   t.checkin_time, t.collection_method, t.created_at,
		   e.name, e.event_date, e.checkin_start, e.checkin_end,
		   c.name, COALESCE(u.name, ''), COALESCE(u.email, '')
	FROM tickets t
	JOIN events e ON e.id = t.event_id
	JOIN ticket_categories c ON c.id = t.category_id
	LEFT JOIN users u ON u.id = t.user_id`

func scanTicketDetails(row pgx.Row, d *domain.TicketDetails) error {
	var checkin, collection string
	if err := row.Scan(
		&d.ID, &d.TokenID, &d.Barcode, &d.RegistrationID, &d.UserID,
		&d.EventID, &d.CategoryID, &d.Phone, &checkin,
		&d.CheckinTime, &collection, &d.CreatedAt,
		&d.EventName, &d.EventDate, &d.CheckinStart, &d.CheckinEnd,
		&d.CategoryName, &d.UserName, &d.UserEmail,
	); err != nil {
		return err
	}
	d.CheckinStatus = domain.CheckinStatus(checkin)
	d.CollectionMethod = domain.CollectionMethod(collection)
	return nil
}

// FindByTokenOrBarcode resolves a ticket by token id or barcode, either
// matching. Empty arguments never match.
//
// Returns:
//   - error: repository.ErrNotFound if no ticket matches.
func (r *TicketRepo) FindByTokenOrBarcode(ctx context.Context, tokenID, barcode string) (*domain.TicketDetails, error) {
	const op = "postgres.TicketRepo.FindByTokenOrBarcode"

	db := r.handle()

	var d domain.TicketDetails
	row := db.QueryRow(ctx,
		ticketDetailsJoin+`
		 WHERE ($1 <> '' AND t.token_id = $1) OR ($2 <> '' AND t.barcode = $2)`,
		tokenID, barcode,
	)
	if err := scanTicketDetails(row, &d); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &d, nil
}

// MarkChecked performs the unchecked -> checked transition as a single
// conditional update. A false result means the ticket was already checked;
// checkin_time stays untouched in that case.
func (r *TicketRepo) MarkChecked(ctx context.Context, ticketID int64, at time.Time) (bool, error) {
	const op = "postgres.TicketRepo.MarkChecked"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE tickets
		 SET checkin_status = $2, checkin_time = $3
		 WHERE id = $1 AND checkin_status = $4`,
		ticketID, string(domain.CheckinChecked), at, string(domain.CheckinUnchecked),
	)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *TicketRepo) ListByPhone(ctx context.Context, phone string) ([]domain.TicketDetails, error) {
	const op = "postgres.TicketRepo.ListByPhone"

	db := r.handle()

	rows, err := db.Query(ctx,
		ticketDetailsJoin+`
		 WHERE t.phone = $1
		 ORDER BY t.created_at DESC`,
		phone,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.TicketDetails
	for rows.Next() {
		var d domain.TicketDetails
		if err := scanTicketDetails(rows, &d); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
