package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduling/internal/availability"
	"github.com/clinichub/clinic-scheduling/internal/booking"
)

type CreateAvailabilityRequest struct {
	DoctorID   string `json:"doctor_id" validate:"required,uuid"`
	CenterID   string `json:"center_id" validate:"required,uuid"`
	Weekday    int    `json:"weekday" validate:"min=0,max=6"`
	Start      string `json:"start" validate:"required"`
	End        string `json:"end" validate:"required"`
	DurationID string `json:"duration_id" validate:"required,uuid"`
	Recurring  bool   `json:"recurring"`
}

type AvailabilityResponse struct {
	ID         uuid.UUID `json:"id"`
	DoctorID   uuid.UUID `json:"doctor_id"`
	CenterID   uuid.UUID `json:"center_id"`
	Weekday    string    `json:"weekday"`
	Start      string    `json:"start"`
	End        string    `json:"end"`
	DurationID uuid.UUID `json:"duration_id"`
	Recurring  bool      `json:"recurring"`
	Active     bool      `json:"active"`
}

func toAvailabilityResponse(a *availability.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		ID:         a.ID,
		DoctorID:   a.DoctorID,
		CenterID:   a.CenterID,
		Weekday:    a.Weekday.String(),
		Start:      a.Window.Start.String(),
		End:        a.Window.End.String(),
		DurationID: a.DurationID,
		Recurring:  a.Recurring,
		Active:     a.Active,
	}
}

type CreateSlotRequest struct {
	DoctorID  string `json:"doctor_id" validate:"required,uuid"`
	RoomID    string `json:"room_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Start     string `json:"start" validate:"required"`
	End       string `json:"end" validate:"required"`
	Recurring bool   `json:"recurring"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=available reserved unavailable"`
}

type SlotResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	RoomID    uuid.UUID `json:"room_id"`
	Date      string    `json:"date"`
	Weekday   string    `json:"weekday"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Status    string    `json:"status"`
	Recurring bool      `json:"recurring"`
}

func toSlotResponse(s *booking.Slot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		RoomID:    s.RoomID,
		Date:      s.Date.Format("2006-01-02"),
		Weekday:   s.Weekday.String(),
		Start:     s.Window.Start.String(),
		End:       s.Window.End.String(),
		Status:    string(s.Status),
		Recurring: s.Recurring,
	}
}

type BookAppointmentRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
	SlotID    string `json:"slot_id" validate:"required,uuid"`
	Reason    string `json:"reason"`
}

type UpdateAppointmentRequest struct {
	SlotID *string `json:"slot_id,omitempty" validate:"omitempty,uuid"`
	Reason *string `json:"reason,omitempty"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	SlotID    uuid.UUID `json:"slot_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		PatientID: a.PatientID,
		SlotID:    a.SlotID,
		Status:    string(a.Status),
		Reason:    a.Reason,
		CreatedAt: a.CreatedAt,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
