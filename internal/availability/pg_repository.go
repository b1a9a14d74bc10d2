package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinichub/clinic-scheduling/internal/schedule"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const availabilityColumns = `id, doctor_id, center_id, weekday, start_min, end_min, duration_id, recurring, active, created_at, updated_at`

func scanAvailability(row pgx.Row) (*Availability, error) {
	var (
		a                Availability
		weekday          int
		startMin, endMin int
	)

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.CenterID,
		&weekday,
		&startMin,
		&endMin,
		&a.DurationID,
		&a.Recurring,
		&a.Active,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAvailabilityNotFound
		}
		return nil, err
	}

	a.Weekday = time.Weekday(weekday)
	a.Window = schedule.Window{Start: schedule.TimeOfDay(startMin), End: schedule.TimeOfDay(endMin)}
	return &a, nil
}

func (r *PgRepository) GetAvailabilityByID(ctx context.Context, id uuid.UUID) (*Availability, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+availabilityColumns+`
		FROM doctor_availability
		WHERE id = $1
	`, id)
	return scanAvailability(row)
}

func (r *PgRepository) ListActiveForConflict(ctx context.Context, doctorID, centerID uuid.UUID, weekday time.Weekday, excludeID *uuid.UUID) ([]Availability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+availabilityColumns+`
		FROM doctor_availability
		WHERE doctor_id = $1
		  AND center_id = $2
		  AND weekday = $3
		  AND active = true
		  AND ($4::uuid IS NULL OR id <> $4)
	`, doctorID, centerID, int(weekday), excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAvailabilities(rows)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Availability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+availabilityColumns+`
		FROM doctor_availability
		WHERE doctor_id = $1
		ORDER BY weekday, start_min
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAvailabilities(rows)
}

func collectAvailabilities(rows pgx.Rows) ([]Availability, error) {
	var result []Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) CreateAvailability(ctx context.Context, a *Availability) (*Availability, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctor_availability
			(id, doctor_id, center_id, weekday, start_min, end_min, duration_id, recurring, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+availabilityColumns+`
	`, a.ID, a.DoctorID, a.CenterID, int(a.Weekday), a.Window.Start.Minutes(), a.Window.End.Minutes(),
		a.DurationID, a.Recurring, a.Active)
	return scanAvailability(row)
}

func (r *PgRepository) UpdateAvailability(ctx context.Context, a *Availability) (*Availability, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctor_availability
		SET doctor_id = $2,
		    center_id = $3,
		    weekday = $4,
		    start_min = $5,
		    end_min = $6,
		    duration_id = $7,
		    recurring = $8,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+availabilityColumns+`
	`, a.ID, a.DoctorID, a.CenterID, int(a.Weekday), a.Window.Start.Minutes(), a.Window.End.Minutes(),
		a.DurationID, a.Recurring)
	return scanAvailability(row)
}

func (r *PgRepository) SetAvailabilityActive(ctx context.Context, id uuid.UUID, active bool) (*Availability, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctor_availability
		SET active = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+availabilityColumns+`
	`, id, active)
	return scanAvailability(row)
}

func (r *PgRepository) DeleteAvailability(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM doctor_availability
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAvailabilityNotFound
	}
	return nil
}
