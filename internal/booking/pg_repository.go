package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinichub/clinic-scheduling/internal/schedule"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same queries
// run inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db   querier
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: pool, pool: pool}
}

// WithTx runs fn against a repository bound to a single transaction and
// commits only if fn returns nil.
func (r *PgRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(&PgRepository{db: tx, pool: r.pool}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Helpers

const slotColumns = `id, doctor_id, room_id, date, weekday, start_min, end_min, status, recurring, created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var (
		s                Slot
		weekday          int
		startMin, endMin int
	)

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.RoomID,
		&s.Date,
		&weekday,
		&startMin,
		&endMin,
		&s.Status,
		&s.Recurring,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.Weekday = time.Weekday(weekday)
	s.Window = schedule.Window{Start: schedule.TimeOfDay(startMin), End: schedule.TimeOfDay(endMin)}
	return &s, nil
}

func collectSlots(rows pgx.Rows) ([]Slot, error) {
	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

const appointmentColumns = `id, patient_id, slot_id, status, reason, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.SlotID,
		&a.Status,
		&a.Reason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Slots

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) GetSlotByIDForUpdate(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) CreateSlot(ctx context.Context, s *Slot) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO slots
			(id, doctor_id, room_id, date, weekday, start_min, end_min, status, recurring, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+slotColumns+`
	`, s.ID, s.DoctorID, s.RoomID, s.Date, int(s.Weekday), s.Window.Start.Minutes(), s.Window.End.Minutes(),
		s.Status, s.Recurring)
	return scanSlot(row)
}

func (r *PgRepository) UpdateSlot(ctx context.Context, s *Slot) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE slots
		SET doctor_id = $2,
		    room_id = $3,
		    date = $4,
		    weekday = $5,
		    start_min = $6,
		    end_min = $7,
		    status = $8,
		    recurring = $9,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+slotColumns+`
	`, s.ID, s.DoctorID, s.RoomID, s.Date, int(s.Weekday), s.Window.Start.Minutes(), s.Window.End.Minutes(),
		s.Status, s.Recurring)
	return scanSlot(row)
}

func (r *PgRepository) UpdateSlotStatus(ctx context.Context, id uuid.UUID, from, to SlotStatus) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE slots
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+slotColumns+`
	`, id, to, from)

	s, err := scanSlot(row)
	if errors.Is(err, ErrSlotNotFound) {
		// Row exists but the guard status no longer holds, or the slot is
		// gone. Either way the caller lost the race.
		return nil, ErrSlotStatusChanged
	}
	return s, err
}

func (r *PgRepository) UpdateSlotDate(ctx context.Context, id uuid.UUID, date time.Time, weekday time.Weekday) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE slots
		SET date = $2,
		    weekday = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+slotColumns+`
	`, id, date, int(weekday))
	return scanSlot(row)
}

func (r *PgRepository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM slots
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) ListSlotsByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE doctor_id = $1
		  AND date >= $2
		  AND date <= $3
		ORDER BY date, start_min
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func (r *PgRepository) ListDoctorSlotsOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time, excludeID *uuid.UUID) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE doctor_id = $1
		  AND date = $2
		  AND ($3::uuid IS NULL OR id <> $3)
	`, doctorID, date, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func (r *PgRepository) ListRoomSlotsOnDate(ctx context.Context, roomID uuid.UUID, date time.Time, excludeID *uuid.UUID) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE room_id = $1
		  AND date = $2
		  AND ($3::uuid IS NULL OR id <> $3)
	`, roomID, date, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func (r *PgRepository) ListRecurringDoctorSlots(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday, excludeID *uuid.UUID) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE doctor_id = $1
		  AND weekday = $2
		  AND recurring = true
		  AND ($3::uuid IS NULL OR id <> $3)
	`, doctorID, int(weekday), excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func (r *PgRepository) ListRecurringRoomSlots(ctx context.Context, roomID uuid.UUID, weekday time.Weekday, excludeID *uuid.UUID) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE room_id = $1
		  AND weekday = $2
		  AND recurring = true
		  AND ($3::uuid IS NULL OR id <> $3)
	`, roomID, int(weekday), excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func (r *PgRepository) ExpireDueSlots(ctx context.Context, today time.Time, nowMin int) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE slots
		SET status = $1,
		    updated_at = now()
		WHERE status IN ($2, $3)
		  AND (date < $4 OR (date = $4 AND end_min < $5))
	`, SlotExpired, SlotAvailable, SlotReserved, today, nowMin)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Appointments

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByPatientAndSlot(ctx context.Context, patientID, slotID uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		  AND slot_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, patientID, slotID)
	return scanAppointment(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, slot_id, status, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING `+appointmentColumns+`
	`, a.ID, a.PatientID, a.SlotID, a.Status, a.Reason)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET slot_id = $2,
		    reason = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, a.ID, a.SlotID, a.Reason)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	a, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, ErrAppointmentStatusChanged
	}
	return a, err
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM appointments
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
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

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	return err
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
