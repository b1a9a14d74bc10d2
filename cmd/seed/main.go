package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduling/internal/db"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Str("service", "seed").Logger()

func main() {
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}

	gofakeit.Seed(time.Now().UnixNano())

	centerIDs, err := seedCenters(context.Background(), pool, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("seed centers")
	}
	roomIDs, err := seedRooms(context.Background(), pool, centerIDs, 4)
	if err != nil {
		log.Fatal().Err(err).Msg("seed rooms")
	}
	doctorIDs, err := seedDoctors(context.Background(), pool, 50)
	if err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	durationIDs, err := seedDurations(context.Background(), pool)
	if err != nil {
		log.Fatal().Err(err).Msg("seed durations")
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedAvailability(context.Background(), pool, doctorIDs, centerIDs, durationIDs); err != nil {
		log.Fatal().Err(err).Msg("seed availability")
	}

	log.Info().Int("rooms", len(roomIDs)).Msg("seed complete")
}

func seedCenters(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Info().Int("count", count).Msg("seeding health centers")

	ids := make([]uuid.UUID, 0, count)
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO health_centers (id, name, address, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, gofakeit.Company()+" Medical Center", gofakeit.Address().Address)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit(ctx)
}

func seedRooms(ctx context.Context, pool *pgxpool.Pool, centerIDs []uuid.UUID, perCenter int) ([]uuid.UUID, error) {
	log.Info().Int("per_center", perCenter).Msg("seeding rooms")

	var ids []uuid.UUID
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for _, centerID := range centerIDs {
		for i := 0; i < perCenter; i++ {
			id := uuid.New()
			_, err := tx.Exec(ctx, `
				INSERT INTO rooms (id, center_id, name, status, created_at, updated_at)
				VALUES ($1, $2, $3, 'available', now(), now())
			`, id, centerID, gofakeit.LetterN(1)+"-"+gofakeit.DigitN(3))
			if err != nil {
				return nil, err
			}

			// Weekday opening hours 08:00-18:00
			for weekday := 1; weekday <= 5; weekday++ {
				_, err := tx.Exec(ctx, `
					INSERT INTO room_openings (id, room_id, weekday, open_min, close_min)
					VALUES ($1, $2, $3, $4, $5)
				`, uuid.New(), id, weekday, 8*60, 18*60)
				if err != nil {
					return nil, err
				}
			}

			ids = append(ids, id)
		}
	}

	return ids, tx.Commit(ctx)
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Info().Int("count", count).Msg("seeding doctors")

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	ids := make([]uuid.UUID, 0, count)
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, "Dr. "+gofakeit.Name(), spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit(ctx)
}

func seedDurations(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	minutes := []int{15, 20, 30, 45, 60}
	ids := make([]uuid.UUID, 0, len(minutes))

	for _, m := range minutes {
		id := uuid.New()
		_, err := pool.Exec(ctx, `
			INSERT INTO consultation_durations (id, minutes)
			VALUES ($1, $2)
		`, id, m)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Info().Int("done", end).Int("total", count).Msg("patients seeded")
	}

	return nil
}

func seedAvailability(ctx context.Context, pool *pgxpool.Pool, doctorIDs, centerIDs, durationIDs []uuid.UUID) error {
	log.Info().Msg("seeding doctor availability")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, doctorID := range doctorIDs {
		centerID := centerIDs[gofakeit.Number(0, len(centerIDs)-1)]
		durationID := durationIDs[gofakeit.Number(0, len(durationIDs)-1)]

		// Two morning windows per doctor on distinct weekdays.
		first := gofakeit.Number(1, 4)
		for _, weekday := range []int{first, first + 1} {
			_, err := tx.Exec(ctx, `
				INSERT INTO doctor_availability
					(id, doctor_id, center_id, weekday, start_min, end_min, duration_id, recurring, active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, true, true, now(), now())
			`, uuid.New(), doctorID, centerID, weekday, 8*60, 12*60, durationID)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}
