package schedule

import (
	"fmt"
	"time"

	"github.com/clinichub/clinic-scheduling/internal/domain"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// It is date-free so the same value describes a weekly window and a
// concrete slot on a given date.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24-hour).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: time %q must be HH:MM", domain.ErrValidation, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: time %q out of range", domain.ErrValidation, s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Minutes returns the raw minutes-since-midnight value for persistence.
func (t TimeOfDay) Minutes() int { return int(t) }

// OnDate anchors the time of day to a calendar date in the date's location.
func (t TimeOfDay) OnDate(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, date.Location())
}

// DateOnly truncates t to midnight in its location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
