package clock

import "github.com/sweeney/moto-lights/internal/logic"

// Fake is a manually advanced tick source for tests.
type Fake struct {
	// T is the tick returned by Now.
	T logic.Timestamp

	// Hz is used by MsToTicks.
	Hz uint64

	// Step, if non-zero, is added to T after every call to Now.
	Step uint32
}

// NewFake creates a Fake at tick start running at hz.
func NewFake(start logic.Timestamp, hz uint64) *Fake {
	return &Fake{T: start, Hz: hz}
}

// Now returns the current tick and then applies Step.
func (f *Fake) Now() logic.Timestamp {
	t := f.T
	f.T += logic.Timestamp(f.Step)
	return t
}

// MsToTicks converts milliseconds to ticks at Hz.
func (f *Fake) MsToTicks(ms uint32) uint32 {
	return msToTicks(ms, f.Hz)
}

// Advance moves the clock forward by ticks, wrapping at 2^32.
func (f *Fake) Advance(ticks uint32) {
	f.T += logic.Timestamp(ticks)
}
