package availability

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduling/internal/schedule"
)

// Availability is a recurring weekly window during which a doctor may be
// scheduled at a given health center. Windows are administrative templates:
// toggling or deleting one never touches slots already carved out of it.
type Availability struct {
	ID         uuid.UUID
	DoctorID   uuid.UUID
	CenterID   uuid.UUID
	Weekday    time.Weekday
	Window     schedule.Window
	DurationID uuid.UUID
	Recurring  bool
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
