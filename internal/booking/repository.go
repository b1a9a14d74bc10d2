package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduling/internal/domain"
)

var (
	ErrSlotNotFound        = fmt.Errorf("%w: slot", domain.ErrNotFound)
	ErrAppointmentNotFound = fmt.Errorf("%w: appointment", domain.ErrNotFound)

	// ErrSlotStatusChanged signals a lost compare-and-swap on slot status:
	// another writer moved the slot between the guard read and the update.
	ErrSlotStatusChanged = fmt.Errorf("%w: slot status changed concurrently", domain.ErrConflict)

	// ErrAppointmentStatusChanged is the appointment-side CAS loss.
	ErrAppointmentStatusChanged = fmt.Errorf("%w: appointment status changed concurrently", domain.ErrConflict)
)

// Repository contains all DB interactions needed by the slot and appointment
// services. WithTx runs fn against a repository bound to one transaction so a
// guard read and its dependent writes commit together or not at all.
type Repository interface {
	WithTx(ctx context.Context, fn func(Repository) error) error

	// Slots
	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	// GetSlotByIDForUpdate row-locks the slot for the rest of the transaction.
	GetSlotByIDForUpdate(ctx context.Context, id uuid.UUID) (*Slot, error)
	CreateSlot(ctx context.Context, s *Slot) (*Slot, error)
	UpdateSlot(ctx context.Context, s *Slot) (*Slot, error)
	// UpdateSlotStatus is a CAS update: it fails with ErrSlotStatusChanged
	// unless the slot is still in the from status.
	UpdateSlotStatus(ctx context.Context, id uuid.UUID, from, to SlotStatus) (*Slot, error)
	UpdateSlotDate(ctx context.Context, id uuid.UUID, date time.Time, weekday time.Weekday) (*Slot, error)
	DeleteSlot(ctx context.Context, id uuid.UUID) error
	ListSlotsByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Slot, error)

	// Conflict queries. excludeID removes the slot itself on update paths.
	ListDoctorSlotsOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time, excludeID *uuid.UUID) ([]Slot, error)
	ListRoomSlotsOnDate(ctx context.Context, roomID uuid.UUID, date time.Time, excludeID *uuid.UUID) ([]Slot, error)
	ListRecurringDoctorSlots(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday, excludeID *uuid.UUID) ([]Slot, error)
	ListRecurringRoomSlots(ctx context.Context, roomID uuid.UUID, weekday time.Weekday, excludeID *uuid.UUID) ([]Slot, error)

	// ExpireDueSlots bulk-flips every AVAILABLE or RESERVED slot whose window
	// closed before (today, nowMin) to EXPIRED and returns the count.
	ExpireDueSlots(ctx context.Context, today time.Time, nowMin int) (int64, error)

	// Appointments
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentByPatientAndSlot(ctx context.Context, patientID, slotID uuid.UUID) (*Appointment, error)
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	// UpdateAppointmentStatus is the appointment-side CAS update.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
