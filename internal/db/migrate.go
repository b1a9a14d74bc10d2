package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS health_centers (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		address    TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id         UUID PRIMARY KEY,
		center_id  UUID NOT NULL REFERENCES health_centers(id),
		name       TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'available',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS room_openings (
		id        UUID PRIMARY KEY,
		room_id   UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		weekday   SMALLINT NOT NULL CHECK (weekday BETWEEN 0 AND 6),
		open_min  SMALLINT NOT NULL,
		close_min SMALLINT NOT NULL,
		CHECK (open_min < close_min)
	)`,
	`CREATE TABLE IF NOT EXISTS doctors (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		specialty  TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS consultation_durations (
		id      UUID PRIMARY KEY,
		minutes SMALLINT NOT NULL CHECK (minutes > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS doctor_availability (
		id          UUID PRIMARY KEY,
		doctor_id   UUID NOT NULL REFERENCES doctors(id),
		center_id   UUID NOT NULL REFERENCES health_centers(id),
		weekday     SMALLINT NOT NULL CHECK (weekday BETWEEN 0 AND 6),
		start_min   SMALLINT NOT NULL,
		end_min     SMALLINT NOT NULL,
		duration_id UUID NOT NULL REFERENCES consultation_durations(id),
		recurring   BOOLEAN NOT NULL DEFAULT true,
		active      BOOLEAN NOT NULL DEFAULT true,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (start_min < end_min)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_availability_doctor_center_weekday
		ON doctor_availability (doctor_id, center_id, weekday) WHERE active`,
	`CREATE TABLE IF NOT EXISTS slots (
		id         UUID PRIMARY KEY,
		doctor_id  UUID NOT NULL REFERENCES doctors(id),
		room_id    UUID NOT NULL REFERENCES rooms(id),
		date       DATE NOT NULL,
		weekday    SMALLINT NOT NULL CHECK (weekday BETWEEN 0 AND 6),
		start_min  SMALLINT NOT NULL,
		end_min    SMALLINT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'available',
		recurring  BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (start_min < end_min)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_slots_doctor_date ON slots (doctor_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_slots_room_date ON slots (room_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_slots_status_date ON slots (status, date)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id         UUID PRIMARY KEY,
		patient_id UUID NOT NULL REFERENCES patients(id),
		slot_id    UUID NOT NULL REFERENCES slots(id),
		status     TEXT NOT NULL DEFAULT 'pending',
		reason     TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_live_slot
		ON appointments (slot_id) WHERE status IN ('pending', 'confirmed')`,
	`CREATE TABLE IF NOT EXISTS event_logs (
		id             BIGSERIAL PRIMARY KEY,
		event_type     TEXT NOT NULL,
		appointment_id UUID,
		payload        JSONB,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the schema. Every statement is idempotent so re-running is
// safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
