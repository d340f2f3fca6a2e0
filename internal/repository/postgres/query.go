package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/gate-go/internal/domain"
)

type QueryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *QueryRepo) With(db DB) *QueryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *QueryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// EventStats aggregates one event's issued/checked counts plus its open
// review-queue length.
//
// Returns:
//   - error: repository.ErrNotFound if the event is not found.
func (r *QueryRepo) EventStats(ctx context.Context, eventID int64) (*domain.EventStats, error) {
	const op = "postgres.QueryRepo.EventStats"

	db := r.handle()

	var s domain.EventStats
	if err := db.QueryRow(ctx,
		`SELECT e.id, e.name, e.event_date, e.max_attendees,
			COALESCE((SELECT COUNT(*) FROM tickets t WHERE t.event_id = e.id), 0),
			COALESCE((SELECT COUNT(*) FROM tickets t
					  WHERE t.event_id = e.id AND t.checkin_status = 'checked'), 0),
			COALESCE((SELECT COUNT(*) FROM pending_entries p
					  WHERE p.event_id = e.id AND p.status = 'pending'), 0)
		 FROM events e
		 WHERE e.id = $1`,
		eventID,
	).Scan(
		&s.EventID, &s.EventName, &s.EventDate, &s.MaxAttendees,
		&s.Total, &s.Checked, &s.PendingCount,
	); err != nil {
		return nil, wrapDBErr(op, err)
	}

	s.Unchecked = s.Total - s.Checked

	return &s, nil
}

// StatsByEvents aggregates the dashboard overview across every event.
func (r *QueryRepo) StatsByEvents(ctx context.Context) ([]domain.EventStats, error) {
	const op = "postgres.QueryRepo.StatsByEvents"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT e.id, e.name, e.event_date, e.max_attendees,
			COALESCE((SELECT COUNT(*) FROM tickets t WHERE t.event_id = e.id), 0),
			COALESCE((SELECT COUNT(*) FROM tickets t
					  WHERE t.event_id = e.id AND t.checkin_status = 'checked'), 0),
			COALESCE((SELECT COUNT(*) FROM pending_entries p
					  WHERE p.event_id = e.id AND p.status = 'pending'), 0)
		 FROM events e
		 ORDER BY e.event_date DESC NULLS LAST, e.id DESC`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.EventStats
	for rows.Next() {
		var s domain.EventStats
		if err := rows.Scan(
			&s.EventID, &s.EventName, &s.EventDate, &s.MaxAttendees,
			&s.Total, &s.Checked, &s.PendingCount,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		s.Unchecked = s.Total - s.Checked
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
