package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/gate-go/internal/domain"
)

type EventRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const eventColumns = `id, name, description, location, event_date,
	collection_start, collection_end, checkin_start, checkin_end,
	allow_web_collection, max_attendees, general_phone_limit, vip_phone_limit,
	created_at`

func scanEvent(row pgx.Row, e *domain.Event) error {
	return row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Location, &e.EventDate,
		&e.CollectionStart, &e.CollectionEnd, &e.CheckinStart, &e.CheckinEnd,
		&e.AllowWebCollection, &e.MaxAttendees, &e.GeneralPhoneLimit,
		&e.VIPPhoneLimit, &e.CreatedAt,
	)
}

const categoryColumns = `id, event_id, name, description, total_limit,
	daily_limit, identity_type, requires_review, allow_collection, sort_order,
	created_at`

func scanCategory(row pgx.Row, c *domain.TicketCategory) error {
	var identity string
	if err := row.Scan(
		&c.ID, &c.EventID, &c.Name, &c.Description, &c.TotalLimit,
		&c.DailyLimit, &identity, &c.RequiresReview, &c.AllowCollection,
		&c.SortOrder, &c.CreatedAt,
	); err != nil {
		return err
	}
	c.IdentityType = domain.IdentityType(identity)
	return nil
}

// GetEvent retrieves an event by its ID.
//
// Returns:
//   - *domain.Event: the event when found.
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.GetEvent"

	db := r.handle()

	var e domain.Event
	row := db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if err := scanEvent(row, &e); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &e, nil
}

// GetCategory retrieves a ticket category by its ID.
//
// Returns:
//   - *domain.TicketCategory: the category when found.
//   - error: repository.ErrNotFound if the category is not found.
func (r *EventRepo) GetCategory(ctx context.Context, id int64) (*domain.TicketCategory, error) {
	const op = "postgres.EventRepo.GetCategory"

	db := r.handle()

	var c domain.TicketCategory
	row := db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM ticket_categories WHERE id = $1`, id)
	if err := scanCategory(row, &c); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &c, nil
}

func (r *EventRepo) ListEvents(ctx context.Context) ([]domain.Event, error) {
	const op = "postgres.EventRepo.ListEvents"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY event_date DESC NULLS LAST, id DESC`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *EventRepo) ListCategories(ctx context.Context, eventID int64) ([]domain.TicketCategory, error) {
	const op = "postgres.EventRepo.ListCategories"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+categoryColumns+`
		 FROM ticket_categories
		 WHERE event_id = $1
		 ORDER BY sort_order, id`,
		eventID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.TicketCategory
	for rows.Next() {
		var c domain.TicketCategory
		if err := scanCategory(rows, &c); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *EventRepo) CreateEvent(ctx context.Context, e *domain.Event) (int64, error) {
	const op = "postgres.EventRepo.CreateEvent"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO events
			(name, description, location, event_date, collection_start,
			 collection_end, checkin_start, checkin_end, allow_web_collection,
			 max_attendees, general_phone_limit, vip_phone_limit)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		e.Name, e.Description, e.Location, e.EventDate, e.CollectionStart,
		e.CollectionEnd, e.CheckinStart, e.CheckinEnd, e.AllowWebCollection,
		e.MaxAttendees, e.GeneralPhoneLimit, e.VIPPhoneLimit,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// UpdateEvent overwrites all mutable fields of an event.
//
// Returns:
//   - error: repository.ErrNotFound if the event does not exist.
func (r *EventRepo) UpdateEvent(ctx context.Context, e *domain.Event) error {
	const op = "postgres.EventRepo.UpdateEvent"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE events
		 SET name = $2, description = $3, location = $4, event_date = $5,
			 collection_start = $6, collection_end = $7, checkin_start = $8,
			 checkin_end = $9, allow_web_collection = $10, max_attendees = $11,
			 general_phone_limit = $12, vip_phone_limit = $13
		 WHERE id = $1`,
		e.ID, e.Name, e.Description, e.Location, e.EventDate,
		e.CollectionStart, e.CollectionEnd, e.CheckinStart, e.CheckinEnd,
		e.AllowWebCollection, e.MaxAttendees, e.GeneralPhoneLimit,
		e.VIPPhoneLimit,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (r *EventRepo) CreateCategory(ctx context.Context, c *domain.TicketCategory) (int64, error) {
	const op = "postgres.EventRepo.CreateCategory"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO ticket_categories
			(event_id, name, description, total_limit, daily_limit,
			 identity_type, requires_review, allow_collection, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		c.EventID, c.Name, c.Description, c.TotalLimit, c.DailyLimit,
		string(c.IdentityType), c.RequiresReview, c.AllowCollection, c.SortOrder,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *EventRepo) UpdateCategory(ctx context.Context, c *domain.TicketCategory) error {
	const op = "postgres.EventRepo.UpdateCategory"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE ticket_categories
		 SET name = $2, description = $3, total_limit = $4, daily_limit = $5,
			 identity_type = $6, requires_review = $7, allow_collection = $8,
			 sort_order = $9
		 WHERE id = $1`,
		c.ID, c.Name, c.Description, c.TotalLimit, c.DailyLimit,
		string(c.IdentityType), c.RequiresReview, c.AllowCollection, c.SortOrder,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

// SumCategoryLimits sums the positive total_limit values of an event's
// categories, excluding one category id (0 excludes nothing). Used to
// validate the event max_attendees invariant on category writes.
func (r *EventRepo) SumCategoryLimits(ctx context.Context, eventID, excludeID int64) (int64, error) {
	const op = "postgres.EventRepo.SumCategoryLimits"

	db := r.handle()

	var sum int64
	if err := db.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_limit), 0)
		 FROM ticket_categories
		 WHERE event_id = $1 AND total_limit > 0 AND id <> $2`,
		eventID, excludeID,
	).Scan(&sum); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return sum, nil
}
