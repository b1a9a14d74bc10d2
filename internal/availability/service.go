package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduling/internal/directory"
	"github.com/clinichub/clinic-scheduling/internal/domain"
	"github.com/clinichub/clinic-scheduling/internal/schedule"
)

var ErrAvailabilityOverlap = fmt.Errorf("%w: availability overlaps an existing active window", domain.ErrConflict)

type Service struct {
	repo Repository
	dir  directory.Repository
	log  zerolog.Logger
}

func NewService(repo Repository, dir directory.Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		dir:  dir,
		log:  log.With().Str("component", "availability").Logger(),
	}
}

// Params carries the caller-supplied fields of a weekly window.
type Params struct {
	DoctorID   uuid.UUID
	CenterID   uuid.UUID
	Weekday    time.Weekday
	Start      schedule.TimeOfDay
	End        schedule.TimeOfDay
	DurationID uuid.UUID
	Recurring  bool
}

// CreateAvailability declares a new active weekly window for a doctor at a
// center. It fails if the referenced doctor, center, or consultation duration
// is missing, or if the window overlaps another active window for the same
// doctor+center+weekday.
func (s *Service) CreateAvailability(ctx context.Context, p Params) (*Availability, error) {
	win, err := s.validate(ctx, p)
	if err != nil {
		return nil, err
	}

	if err := s.checkConflicts(ctx, p, win, nil); err != nil {
		return nil, err
	}

	a := &Availability{
		ID:         uuid.New(),
		DoctorID:   p.DoctorID,
		CenterID:   p.CenterID,
		Weekday:    p.Weekday,
		Window:     win,
		DurationID: p.DurationID,
		Recurring:  p.Recurring,
		Active:     true,
	}

	created, err := s.repo.CreateAvailability(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create availability: %w", err)
	}

	s.log.Info().
		Str("availability_id", created.ID.String()).
		Str("doctor_id", p.DoctorID.String()).
		Stringer("weekday", p.Weekday).
		Str("window", win.String()).
		Msg("availability created")

	return created, nil
}

// UpdateAvailability re-runs the create validations, excluding the window
// itself from the conflict query.
func (s *Service) UpdateAvailability(ctx context.Context, id uuid.UUID, p Params) (*Availability, error) {
	existing, err := s.repo.GetAvailabilityByID(ctx, id)
	if err != nil {
		return nil, err
	}

	win, err := s.validate(ctx, p)
	if err != nil {
		return nil, err
	}

	if err := s.checkConflicts(ctx, p, win, &id); err != nil {
		return nil, err
	}

	existing.DoctorID = p.DoctorID
	existing.CenterID = p.CenterID
	existing.Weekday = p.Weekday
	existing.Window = win
	existing.DurationID = p.DurationID
	existing.Recurring = p.Recurring

	updated, err := s.repo.UpdateAvailability(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("update availability: %w", err)
	}
	return updated, nil
}

// ToggleAvailabilityStatus flips the active flag. Slots already materialized
// from the window are unaffected.
func (s *Service) ToggleAvailabilityStatus(ctx context.Context, id uuid.UUID) (*Availability, error) {
	existing, err := s.repo.GetAvailabilityByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.SetAvailabilityActive(ctx, id, !existing.Active)
	if err != nil {
		return nil, fmt.Errorf("toggle availability: %w", err)
	}

	s.log.Info().
		Str("availability_id", id.String()).
		Bool("active", updated.Active).
		Msg("availability toggled")

	return updated, nil
}

// DeleteAvailability removes the window unconditionally. Slots created from
// it are independent once materialized and are deliberately not guarded.
func (s *Service) DeleteAvailability(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetAvailabilityByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteAvailability(ctx, id); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}

func (s *Service) GetAvailability(ctx context.Context, id uuid.UUID) (*Availability, error) {
	return s.repo.GetAvailabilityByID(ctx, id)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Availability, error) {
	list, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list availability by doctor: %w", err)
	}
	return list, nil
}

func (s *Service) validate(ctx context.Context, p Params) (schedule.Window, error) {
	win, err := schedule.NewWindow(p.Start, p.End)
	if err != nil {
		return schedule.Window{}, err
	}
	if p.Weekday < time.Sunday || p.Weekday > time.Saturday {
		return schedule.Window{}, fmt.Errorf("%w: weekday %d out of range", domain.ErrValidation, p.Weekday)
	}

	if _, err := s.dir.GetDoctorByID(ctx, p.DoctorID); err != nil {
		return schedule.Window{}, err
	}
	if _, err := s.dir.GetHealthCenterByID(ctx, p.CenterID); err != nil {
		return schedule.Window{}, err
	}
	if _, err := s.dir.GetConsultationDurationByID(ctx, p.DurationID); err != nil {
		return schedule.Window{}, err
	}

	return win, nil
}

func (s *Service) checkConflicts(ctx context.Context, p Params, win schedule.Window, excludeID *uuid.UUID) error {
	others, err := s.repo.ListActiveForConflict(ctx, p.DoctorID, p.CenterID, p.Weekday, excludeID)
	if err != nil {
		return fmt.Errorf("check availability conflicts: %w", err)
	}
	for _, other := range others {
		if win.Overlaps(other.Window) {
			return fmt.Errorf("%w with %s %s", ErrAvailabilityOverlap, other.Weekday, other.Window)
		}
	}
	return nil
}
