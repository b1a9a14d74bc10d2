package directory

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

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)

	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)

	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) GetHealthCenterByID(ctx context.Context, id uuid.UUID) (*HealthCenter, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, address, created_at, updated_at
		FROM health_centers
		WHERE id = $1
	`, id)

	var c HealthCenter
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCenterNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PgRepository) GetConsultationDurationByID(ctx context.Context, id uuid.UUID) (*ConsultationDuration, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, minutes
		FROM consultation_durations
		WHERE id = $1
	`, id)

	var d ConsultationDuration
	err := row.Scan(&d.ID, &d.Minutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDurationNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *PgRepository) GetRoomByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, center_id, name, status, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`, id)

	var rm Room
	err := row.Scan(&rm.ID, &rm.CenterID, &rm.Name, &rm.Status, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, room_id, weekday, open_min, close_min
		FROM room_openings
		WHERE room_id = $1
		ORDER BY weekday, open_min
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o                 RoomOpening
			weekday           int
			openMin, closeMin int
		)
		if err := rows.Scan(&o.ID, &o.RoomID, &weekday, &openMin, &closeMin); err != nil {
			return nil, err
		}
		o.Weekday = time.Weekday(weekday)
		o.Window = schedule.Window{Start: schedule.TimeOfDay(openMin), End: schedule.TimeOfDay(closeMin)}
		rm.Openings = append(rm.Openings, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &rm, nil
}
