package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduling/internal/availability"
	"github.com/clinichub/clinic-scheduling/internal/clock"
	"github.com/clinichub/clinic-scheduling/internal/directory"
	"github.com/clinichub/clinic-scheduling/internal/domain"
	"github.com/clinichub/clinic-scheduling/internal/schedule"
)

var (
	ErrSlotInPast           = fmt.Errorf("%w: slot date is in the past", domain.ErrValidation)
	ErrRoomUnavailable      = fmt.Errorf("%w: room is not available", domain.ErrConflict)
	ErrOutsideRoomHours     = fmt.Errorf("%w: slot falls outside the room's opening hours", domain.ErrValidation)
	ErrNoActiveAvailability = fmt.Errorf("%w: no active availability window covers the slot", domain.ErrConflict)
	ErrSlotOverlap          = fmt.Errorf("%w: slot overlaps an existing slot", domain.ErrConflict)
	ErrSlotBooked           = fmt.Errorf("%w: slot has a booking and cannot be deleted", domain.ErrState)
)

// SlotService carves concrete bookable units out of declared availability and
// room hours, and runs the expiration sweep.
type SlotService struct {
	repo  Repository
	dir   directory.Repository
	avail availability.Repository
	clk   clock.Clock
	log   zerolog.Logger
}

func NewSlotService(repo Repository, dir directory.Repository, avail availability.Repository, clk clock.Clock, log zerolog.Logger) *SlotService {
	return &SlotService{
		repo:  repo,
		dir:   dir,
		avail: avail,
		clk:   clk,
		log:   log.With().Str("component", "slot").Logger(),
	}
}

// SlotParams carries the caller-supplied fields of a slot. Weekday is never
// accepted from the caller; it is derived from Date.
type SlotParams struct {
	DoctorID  uuid.UUID
	RoomID    uuid.UUID
	Date      time.Time
	Start     schedule.TimeOfDay
	End       schedule.TimeOfDay
	Recurring bool
	// Status optionally overrides the initial status. Empty means AVAILABLE.
	Status SlotStatus
}

// CreateSlot validates the slot against room hours, doctor availability and
// every overlap dimension, then persists it.
func (s *SlotService) CreateSlot(ctx context.Context, p SlotParams) (*Slot, error) {
	slot, err := s.buildSlot(ctx, p, nil)
	if err != nil {
		return nil, err
	}

	slot.ID = uuid.New()
	slot.Status = p.Status
	if slot.Status == "" {
		slot.Status = SlotAvailable
	}

	created, err := s.repo.CreateSlot(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.log.Info().
		Str("slot_id", created.ID.String()).
		Str("doctor_id", created.DoctorID.String()).
		Str("room_id", created.RoomID.String()).
		Time("date", created.Date).
		Str("window", created.Window.String()).
		Bool("recurring", created.Recurring).
		Msg("slot created")

	return created, nil
}

// UpdateSlot re-runs the create validations, excluding the slot itself from
// every conflict query.
func (s *SlotService) UpdateSlot(ctx context.Context, id uuid.UUID, p SlotParams) (*Slot, error) {
	existing, err := s.repo.GetSlotByID(ctx, id)
	if err != nil {
		return nil, err
	}

	slot, err := s.buildSlot(ctx, p, &id)
	if err != nil {
		return nil, err
	}

	slot.ID = existing.ID
	slot.Status = existing.Status
	if p.Status != "" {
		slot.Status = p.Status
	}

	updated, err := s.repo.UpdateSlot(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("update slot: %w", err)
	}
	return updated, nil
}

// DeleteSlot removes an unbooked slot. Reserved or otherwise consumed slots
// stay put.
func (s *SlotService) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	slot, err := s.repo.GetSlotByID(ctx, id)
	if err != nil {
		return err
	}
	if slot.Status != SlotAvailable {
		return ErrSlotBooked
	}
	if err := s.repo.DeleteSlot(ctx, id); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

func (s *SlotService) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.repo.GetSlotByID(ctx, id)
}

func (s *SlotService) ListSlotsByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Slot, error) {
	slots, err := s.repo.ListSlotsByDoctor(ctx, doctorID, schedule.DateOnly(from), schedule.DateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("list slots by doctor: %w", err)
	}
	return slots, nil
}

// ExpireDueSlots retires every AVAILABLE or RESERVED slot whose window has
// already closed. One filtered bulk update; safe to re-run.
func (s *SlotService) ExpireDueSlots(ctx context.Context) (int64, error) {
	now := s.clk.Now()
	today := schedule.DateOnly(now)
	nowMin := now.Hour()*60 + now.Minute()

	n, err := s.repo.ExpireDueSlots(ctx, today, nowMin)
	if err != nil {
		return 0, fmt.Errorf("expire due slots: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("expired", n).Time("as_of", now).Msg("expiration sweep complete")
	}
	return n, nil
}

// buildSlot runs the full validation ladder and returns an unsaved slot with
// the weekday derived from the date.
func (s *SlotService) buildSlot(ctx context.Context, p SlotParams, excludeID *uuid.UUID) (*Slot, error) {
	win, err := schedule.NewWindow(p.Start, p.End)
	if err != nil {
		return nil, err
	}

	date := schedule.DateOnly(p.Date)
	today := schedule.DateOnly(s.clk.Now())
	if date.Before(today) {
		return nil, ErrSlotInPast
	}

	weekday := date.Weekday()

	room, err := s.dir.GetRoomByID(ctx, p.RoomID)
	if err != nil {
		return nil, err
	}
	if room.Status != directory.RoomAvailable {
		return nil, ErrRoomUnavailable
	}

	if openings := room.OpeningsOn(weekday); len(openings) > 0 {
		contained := false
		for _, o := range openings {
			if o.Contains(win) {
				contained = true
				break
			}
		}
		if !contained {
			return nil, ErrOutsideRoomHours
		}
	}

	if err := s.checkAvailabilityCoverage(ctx, p.DoctorID, room.CenterID, weekday, win); err != nil {
		return nil, err
	}

	if err := s.checkSlotConflicts(ctx, p, date, weekday, win, excludeID); err != nil {
		return nil, err
	}

	return &Slot{
		DoctorID:  p.DoctorID,
		RoomID:    p.RoomID,
		Date:      date,
		Weekday:   weekday,
		Window:    win,
		Recurring: p.Recurring,
	}, nil
}

// checkAvailabilityCoverage requires an active weekly window of the doctor at
// the room's center that fully contains the slot.
func (s *SlotService) checkAvailabilityCoverage(ctx context.Context, doctorID, centerID uuid.UUID, weekday time.Weekday, win schedule.Window) error {
	windows, err := s.avail.ListActiveForConflict(ctx, doctorID, centerID, weekday, nil)
	if err != nil {
		return fmt.Errorf("load doctor availability: %w", err)
	}
	for _, a := range windows {
		if a.Window.Contains(win) {
			return nil
		}
	}
	return ErrNoActiveAvailability
}

func (s *SlotService) checkSlotConflicts(ctx context.Context, p SlotParams, date time.Time, weekday time.Weekday, win schedule.Window, excludeID *uuid.UUID) error {
	doctorSlots, err := s.repo.ListDoctorSlotsOnDate(ctx, p.DoctorID, date, excludeID)
	if err != nil {
		return fmt.Errorf("load doctor slots: %w", err)
	}
	if conflict := firstOverlap(doctorSlots, win); conflict != nil {
		return fmt.Errorf("%w: doctor already has slot %s on %s", ErrSlotOverlap, conflict.Window, date.Format("2006-01-02"))
	}

	roomSlots, err := s.repo.ListRoomSlotsOnDate(ctx, p.RoomID, date, excludeID)
	if err != nil {
		return fmt.Errorf("load room slots: %w", err)
	}
	if conflict := firstOverlap(roomSlots, win); conflict != nil {
		return fmt.Errorf("%w: room already has slot %s on %s", ErrSlotOverlap, conflict.Window, date.Format("2006-01-02"))
	}

	if !p.Recurring {
		return nil
	}

	// Recurring slots additionally conflict per weekday, independent of the
	// reference date chosen.
	recDoctor, err := s.repo.ListRecurringDoctorSlots(ctx, p.DoctorID, weekday, excludeID)
	if err != nil {
		return fmt.Errorf("load recurring doctor slots: %w", err)
	}
	if conflict := firstOverlap(recDoctor, win); conflict != nil {
		return fmt.Errorf("%w: doctor already has recurring slot %s on %s", ErrSlotOverlap, conflict.Window, weekday)
	}

	recRoom, err := s.repo.ListRecurringRoomSlots(ctx, p.RoomID, weekday, excludeID)
	if err != nil {
		return fmt.Errorf("load recurring room slots: %w", err)
	}
	if conflict := firstOverlap(recRoom, win); conflict != nil {
		return fmt.Errorf("%w: room already has recurring slot %s on %s", ErrSlotOverlap, conflict.Window, weekday)
	}

	return nil
}

func firstOverlap(slots []Slot, win schedule.Window) *Slot {
	for i := range slots {
		if slots[i].Window.Overlaps(win) {
			return &slots[i]
		}
	}
	return nil
}
