package schedule

import (
	"fmt"

	"github.com/clinichub/clinic-scheduling/internal/domain"
)

// Window is a half-open time-of-day interval [Start, End).
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewWindow validates that start < end.
func NewWindow(start, end TimeOfDay) (Window, error) {
	if start >= end {
		return Window{}, fmt.Errorf("%w: start time %s must be before end time %s",
			domain.ErrValidation, start, end)
	}
	return Window{Start: start, End: end}, nil
}

// Overlaps reports whether two windows on the same reference day share any
// instant. Half-open semantics: touching endpoints do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start < other.End && w.End > other.Start
}

// Contains reports whether other lies fully inside w.
func (w Window) Contains(other Window) bool {
	return w.Start <= other.Start && other.End <= w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%s-%s", w.Start, w.End)
}
