package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduling/internal/clock"
	"github.com/clinichub/clinic-scheduling/internal/directory"
	"github.com/clinichub/clinic-scheduling/internal/domain"
	redisclient "github.com/clinichub/clinic-scheduling/internal/redis"
	"github.com/clinichub/clinic-scheduling/internal/schedule"
)

const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentConfirmed   = "APPOINTMENT_CONFIRMED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentDeleted     = "APPOINTMENT_DELETED"
	EventSlotExpiredOnAccess    = "SLOT_EXPIRED_ON_ACCESS"
)

var (
	ErrSlotNotAvailable = fmt.Errorf("%w: slot is not available for booking", domain.ErrConflict)
	ErrSlotBeingBooked  = fmt.Errorf("%w: slot is currently being booked, please retry", domain.ErrConflict)
	ErrDuplicateBooking = fmt.Errorf("%w: patient already booked this slot", domain.ErrConflict)

	ErrSlotTimePassed         = fmt.Errorf("%w: slot time has already passed", domain.ErrState)
	ErrAlreadyConfirmed       = fmt.Errorf("%w: appointment is already confirmed", domain.ErrState)
	ErrAlreadyCancelled       = fmt.Errorf("%w: appointment is cancelled", domain.ErrState)
	ErrAlreadyCompleted       = fmt.Errorf("%w: appointment is completed", domain.ErrState)
	ErrNotConfirmed           = fmt.Errorf("%w: appointment must be confirmed first", domain.ErrState)
	ErrUpdateRequiresPending  = fmt.Errorf("%w: only pending appointments can be updated, cancel first", domain.ErrState)
	ErrDeleteForbidden        = fmt.Errorf("%w: confirmed or completed appointments cannot be deleted", domain.ErrState)
	ErrTargetSlotNotAvailable = fmt.Errorf("%w: target slot is not available", domain.ErrState)
)

// AppointmentService owns the joint slot/appointment state machine. Every
// mutating operation runs its guards and writes in one transaction; booking
// additionally serializes on a per-slot distributed lock so two concurrent
// attempts on the same slot cannot both succeed.
type AppointmentService struct {
	repo   Repository
	dir    directory.Repository
	locker redisclient.Locker
	clk    clock.Clock
	log    zerolog.Logger
}

func NewAppointmentService(repo Repository, dir directory.Repository, locker redisclient.Locker, clk clock.Clock, log zerolog.Logger) *AppointmentService {
	return &AppointmentService{
		repo:   repo,
		dir:    dir,
		locker: locker,
		clk:    clk,
		log:    log.With().Str("component", "appointment").Logger(),
	}
}

// BookAppointment reserves an AVAILABLE slot for a patient and creates a
// PENDING appointment. Recurring slots have their reference date advanced to
// the next occurrence on or after today before the booking proceeds.
func (s *AppointmentService) BookAppointment(ctx context.Context, patientID, slotID uuid.UUID, reason string) (*Appointment, error) {
	if _, err := s.dir.GetPatientByID(ctx, patientID); err != nil {
		return nil, err
	}

	slot, err := s.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != SlotAvailable {
		return nil, ErrSlotNotAvailable
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, slotID, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(tx Repository) error {
			locked, err := tx.GetSlotByIDForUpdate(lockCtx, slotID)
			if err != nil {
				return err
			}
			if locked.Status != SlotAvailable {
				return ErrSlotNotAvailable
			}

			if err := s.rollForwardOrReject(lockCtx, tx, locked); err != nil {
				return err
			}

			existing, err := tx.GetAppointmentByPatientAndSlot(lockCtx, patientID, slotID)
			if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
				return fmt.Errorf("check duplicate booking: %w", err)
			}
			if existing != nil && existing.Status != StatusCancelled {
				return ErrDuplicateBooking
			}

			appt := &Appointment{
				ID:        uuid.New(),
				PatientID: patientID,
				SlotID:    slotID,
				Status:    StatusPending,
				Reason:    reason,
			}
			created, err = tx.CreateAppointment(lockCtx, appt)
			if err != nil {
				return fmt.Errorf("create appointment: %w", err)
			}

			if _, err := tx.UpdateSlotStatus(lockCtx, slotID, SlotAvailable, SlotReserved); err != nil {
				return fmt.Errorf("reserve slot: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, created.ID, EventAppointmentBooked, map[string]any{
		"slot_id":    slotID.String(),
		"patient_id": patientID.String(),
	})

	return created, nil
}

// ConfirmAppointment moves a pending appointment to confirmed. The slot stays
// reserved.
func (s *AppointmentService) ConfirmAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, slot, err := s.loadForTransition(ctx, id)
	if err != nil {
		return nil, err
	}

	switch appt.Status {
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	case StatusCompleted:
		return nil, ErrAlreadyCompleted
	case StatusConfirmed:
		return nil, ErrAlreadyConfirmed
	}

	if err := s.guardSlotExpiry(ctx, slot); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("confirm appointment: %w", err)
	}

	s.logEvent(ctx, id, EventAppointmentConfirmed, map[string]any{})
	return updated, nil
}

// TerminateAppointment completes a confirmed appointment and frees the slot
// for reuse.
func (s *AppointmentService) TerminateAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, slot, err := s.loadForTransition(ctx, id)
	if err != nil {
		return nil, err
	}

	switch appt.Status {
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	case StatusCompleted:
		return nil, ErrAlreadyCompleted
	case StatusPending:
		return nil, ErrNotConfirmed
	}

	if err := s.guardSlotExpiry(ctx, slot); err != nil {
		return nil, err
	}

	var updated *Appointment
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		u, err := tx.UpdateAppointmentStatus(ctx, id, StatusConfirmed, StatusCompleted)
		if err != nil {
			return fmt.Errorf("complete appointment: %w", err)
		}
		updated = u
		if _, err := tx.UpdateSlotStatus(ctx, slot.ID, SlotReserved, SlotAvailable); err != nil {
			return fmt.Errorf("release slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, id, EventAppointmentCompleted, map[string]any{})
	return updated, nil
}

// CancelAppointment cancels a pending or confirmed appointment and frees the
// slot for reuse.
func (s *AppointmentService) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, slot, err := s.loadForTransition(ctx, id)
	if err != nil {
		return nil, err
	}

	switch appt.Status {
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	case StatusCompleted:
		return nil, ErrAlreadyCompleted
	}

	if err := s.guardSlotExpiry(ctx, slot); err != nil {
		return nil, err
	}

	var updated *Appointment
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		u, err := tx.UpdateAppointmentStatus(ctx, id, appt.Status, StatusCancelled)
		if err != nil {
			return fmt.Errorf("cancel appointment: %w", err)
		}
		updated = u
		if _, err := tx.UpdateSlotStatus(ctx, slot.ID, SlotReserved, SlotAvailable); err != nil {
			return fmt.Errorf("release slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, id, EventAppointmentCancelled, map[string]any{})
	return updated, nil
}

// UpdateParams carries the optional fields of an appointment update. Nil
// means keep the current value.
type UpdateParams struct {
	SlotID *uuid.UUID
	Reason *string
}

// UpdateAppointment changes the reason and/or moves a pending appointment to
// another slot. Confirmed, completed, or cancelled appointments reject the
// update; callers must cancel first.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, id uuid.UUID, p UpdateParams) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusPending {
		return nil, ErrUpdateRequiresPending
	}

	if p.Reason != nil {
		appt.Reason = *p.Reason
	}

	if p.SlotID == nil || *p.SlotID == appt.SlotID {
		updated, err := s.repo.UpdateAppointment(ctx, appt)
		if err != nil {
			return nil, fmt.Errorf("update appointment: %w", err)
		}
		return updated, nil
	}

	newSlotID := *p.SlotID
	oldSlotID := appt.SlotID

	var updated *Appointment
	err = s.locker.WithSlotLock(ctx, newSlotID, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(tx Repository) error {
			target, err := tx.GetSlotByIDForUpdate(lockCtx, newSlotID)
			if err != nil {
				return err
			}
			if target.Status != SlotAvailable {
				return ErrTargetSlotNotAvailable
			}
			if err := s.rollForwardOrReject(lockCtx, tx, target); err != nil {
				return err
			}

			if _, err := tx.UpdateSlotStatus(lockCtx, oldSlotID, SlotReserved, SlotAvailable); err != nil {
				return fmt.Errorf("release old slot: %w", err)
			}
			if _, err := tx.UpdateSlotStatus(lockCtx, newSlotID, SlotAvailable, SlotReserved); err != nil {
				return fmt.Errorf("reserve new slot: %w", err)
			}

			appt.SlotID = newSlotID
			u, err := tx.UpdateAppointment(lockCtx, appt)
			if err != nil {
				return fmt.Errorf("update appointment: %w", err)
			}
			updated = u
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, id, EventAppointmentRescheduled, map[string]any{
		"old_slot_id": oldSlotID.String(),
		"new_slot_id": newSlotID.String(),
	})
	return updated, nil
}

// DeleteAppointment removes a pending or cancelled appointment, releasing the
// slot first when it is still reserved.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}
	if appt.Status == StatusConfirmed || appt.Status == StatusCompleted {
		return ErrDeleteForbidden
	}

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		if appt.Status == StatusPending {
			if _, err := tx.UpdateSlotStatus(ctx, appt.SlotID, SlotReserved, SlotAvailable); err != nil {
				return fmt.Errorf("release slot: %w", err)
			}
		}
		if err := tx.DeleteAppointment(ctx, id); err != nil {
			return fmt.Errorf("delete appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logEvent(ctx, id, EventAppointmentDeleted, map[string]any{
		"slot_id": appt.SlotID.String(),
	})
	return nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *AppointmentService) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	appts, err := s.repo.ListAppointmentsByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appts, nil
}

func (s *AppointmentService) loadForTransition(ctx context.Context, id uuid.UUID) (*Appointment, *Slot, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	slot, err := s.repo.GetSlotByID(ctx, appt.SlotID)
	if err != nil {
		return nil, nil, err
	}
	return appt, slot, nil
}

// guardSlotExpiry flips an overdue slot to UNAVAILABLE and persists that
// transition before failing the calling operation. A user action can land on
// the same calendar day after the slot's end time but before the sweep runs,
// so the durable flip is intentional even though the call errors.
func (s *AppointmentService) guardSlotExpiry(ctx context.Context, slot *Slot) error {
	if !slot.IsPast(s.clk.Now()) {
		return nil
	}

	if _, err := s.repo.UpdateSlotStatus(ctx, slot.ID, slot.Status, SlotUnavailable); err != nil {
		s.log.Warn().Err(err).Str("slot_id", slot.ID.String()).Msg("failed to mark overdue slot unavailable")
	} else {
		s.logEvent(ctx, uuid.Nil, EventSlotExpiredOnAccess, map[string]any{
			"slot_id": slot.ID.String(),
		})
	}
	return ErrSlotTimePassed
}

// rollForwardOrReject applies recurring-date advancement inside the booking
// transaction, or rejects a non-recurring slot whose time has passed.
func (s *AppointmentService) rollForwardOrReject(ctx context.Context, tx Repository, slot *Slot) error {
	now := s.clk.Now()
	today := schedule.DateOnly(now)

	if slot.Recurring {
		if slot.Date.Before(today) {
			next := slot.NextOccurrenceFrom(today)
			if _, err := tx.UpdateSlotDate(ctx, slot.ID, next, next.Weekday()); err != nil {
				return fmt.Errorf("advance recurring slot: %w", err)
			}
			slot.Date = next
		}
		return nil
	}

	if slot.IsPast(now) {
		return ErrSlotTimePassed
	}
	return nil
}

func (s *AppointmentService) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	ev := EventLog{
		EventType: eventType,
		Payload:   data,
		CreatedAt: s.clk.Now(),
	}
	if appointmentID != uuid.Nil {
		id := appointmentID
		ev.AppointmentID = &id
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("failed to insert event log")
	}
}
