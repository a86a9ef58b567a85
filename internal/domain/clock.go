package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so row timestamps and the parcel
// enrichment's sale-age math can be tested against a frozen "now". The
// scorer takes its own clockwork.Clock instead. Production code uses the
// real clock; tests inject a fake via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source behind Now. Pass nil to reset to the real
// clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time according to the package clock.
func Now() time.Time {
	return clock.Now()
}
