package clock

import "time"

// Clock abstracts current-time reads so expiry and past-date checks are
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by time.Now.
func System() Clock { return systemClock{} }

// Fixed is a Clock pinned to a settable instant. Zero value is usable.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

// Advance moves the fixed instant forward.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
