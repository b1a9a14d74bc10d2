package directory

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduling/internal/schedule"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomMaintenance RoomStatus = "maintenance"
	RoomClosed      RoomStatus = "closed"
)

type HealthCenter struct {
	ID        uuid.UUID
	Name      string
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomOpening is a declared opening window of a room on one weekday.
type RoomOpening struct {
	ID      uuid.UUID
	RoomID  uuid.UUID
	Weekday time.Weekday
	Window  schedule.Window
}

type Room struct {
	ID        uuid.UUID
	CenterID  uuid.UUID
	Name      string
	Status    RoomStatus
	Openings  []RoomOpening
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OpeningsOn returns the room's declared windows for one weekday.
// Empty means the room declares no hours for that day and is treated
// as open all day by the slot allocator.
func (r *Room) OpeningsOn(day time.Weekday) []schedule.Window {
	var out []schedule.Window
	for _, o := range r.Openings {
		if o.Weekday == day {
			out = append(out, o.Window)
		}
	}
	return out
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ConsultationDuration struct {
	ID      uuid.UUID
	Minutes int
}
