package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/gate-go/internal/domain"
)

type RegistrationRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *RegistrationRepo) With(db DB) *RegistrationRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *RegistrationRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// UpsertUser creates the user keyed by phone, or overwrites name/email (and
// the external identity reference, when present) on an existing one.
//
// Returns:
//   - int64: the user ID.
func (r *RegistrationRepo) UpsertUser(ctx context.Context, u domain.User) (int64, error) {
	const op = "postgres.RegistrationRepo.UpsertUser"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO users (name, email, phone, external_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (phone) DO UPDATE
		 SET name = EXCLUDED.name,
			 email = EXCLUDED.email,
			 external_id = CASE
				 WHEN EXCLUDED.external_id <> '' THEN EXCLUDED.external_id
				 ELSE users.external_id
			 END
		 RETURNING id`,
		u.Name, u.Email, u.Phone, u.ExternalID,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *RegistrationRepo) CreateRegistration(ctx context.Context, reg domain.Registration) (int64, error) {
	const op = "postgres.RegistrationRepo.CreateRegistration"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO registrations (user_id, event_id, category_id, phone, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		reg.UserID, reg.EventID, reg.CategoryID, reg.Phone, string(reg.Status),
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// SetStatus updates a registration's status. The update is idempotent: a
// repeated call with the same status affects the row again and succeeds.
//
// Returns:
//   - error: repository.ErrNotFound if the registration does not exist.
func (r *RegistrationRepo) SetStatus(ctx context.Context, id int64, status domain.RegistrationStatus) error {
	const op = "postgres.RegistrationRepo.SetStatus"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE registrations SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}
