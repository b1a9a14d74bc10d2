package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduling/internal/schedule"
)

type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotReserved    SlotStatus = "reserved"
	SlotUnavailable SlotStatus = "unavailable"
	SlotExpired     SlotStatus = "expired"
	SlotCancelled   SlotStatus = "cancelled"
	SlotCompleted   SlotStatus = "completed"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Slot is a concrete bookable time window for one doctor in one room on one
// calendar date. Weekday is always derived from Date; it is persisted only so
// recurring conflict queries can filter on it.
type Slot struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	RoomID    uuid.UUID
	Date      time.Time
	Weekday   time.Weekday
	Window    schedule.Window
	Status    SlotStatus
	Recurring bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EndAt is the absolute instant the slot's window closes on its date.
func (s *Slot) EndAt() time.Time {
	return s.Window.End.OnDate(s.Date)
}

// IsPast reports whether the slot's end has already passed.
func (s *Slot) IsPast(now time.Time) bool {
	return s.EndAt().Before(now)
}

// NextOccurrenceFrom returns the first date ≥ today reachable from the slot's
// reference date in 7-day steps. The weekday never changes.
func (s *Slot) NextOccurrenceFrom(today time.Time) time.Time {
	d := s.Date
	for d.Before(today) {
		d = d.AddDate(0, 0, 7)
	}
	return d
}

type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	SlotID    uuid.UUID
	Status    AppointmentStatus
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventLog is an audit record of a booking lifecycle transition.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
