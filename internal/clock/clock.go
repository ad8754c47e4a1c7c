// Package clock provides the monotonic tick source consumed by the control loop.
package clock

import (
	"time"

	"github.com/sweeney/moto-lights/internal/logic"
)

// DefaultHz is the default tick frequency. At 1 MHz the 32-bit counter
// wraps roughly every 71.6 minutes.
const DefaultHz = 1_000_000

// BlinkPeriodMs is the fixed indicator on time and off time.
const BlinkPeriodMs = 1000

// Source supplies ticks and converts milliseconds to ticks.
type Source interface {
	// Now returns the current tick count. It wraps at 2^32.
	Now() logic.Timestamp

	// MsToTicks converts a duration in milliseconds to ticks.
	MsToTicks(ms uint32) uint32
}

// Monotonic derives ticks from the Go runtime's monotonic clock.
type Monotonic struct {
	epoch time.Time
	hz    uint64
}

// NewMonotonic creates a tick source running at hz, starting from zero now.
func NewMonotonic(hz uint64) *Monotonic {
	return &Monotonic{epoch: time.Now(), hz: hz}
}

// Now returns the ticks elapsed since the source was created, truncated to 32 bits.
func (m *Monotonic) Now() logic.Timestamp {
	return logic.Timestamp(durationToTicks(time.Since(m.epoch), m.hz))
}

// MsToTicks converts milliseconds to ticks at the configured frequency.
func (m *Monotonic) MsToTicks(ms uint32) uint32 {
	return msToTicks(ms, m.hz)
}

// Hz returns the configured tick frequency.
func (m *Monotonic) Hz() uint64 {
	return m.hz
}

// BlinkTiming returns the indicator timing for src: one second on, one second off.
func BlinkTiming(src Source) logic.Blink {
	t := src.MsToTicks(BlinkPeriodMs)
	return logic.Blink{On: t, Off: t}
}

// durationToTicks splits the conversion so d*hz cannot overflow 64 bits.
func durationToTicks(d time.Duration, hz uint64) uint64 {
	ns := uint64(d)
	sec := ns / uint64(time.Second)
	rem := ns % uint64(time.Second)
	return sec*hz + rem*hz/uint64(time.Second)
}

func msToTicks(ms uint32, hz uint64) uint32 {
	return uint32(uint64(ms) * hz / 1000)
}
