package gpio

import (
	"errors"

	"github.com/sweeney/moto-lights/internal/logic"
)

// FakeLine is a test double for a single GPIO line.
type FakeLine struct {
	// Level is the current line level. Value returns it; SetValue replaces it.
	Level int

	// Writes records every value passed to SetValue.
	Writes []int

	// ReadError, if set, will be returned by Value().
	ReadError error

	// WriteError, if set, will be returned by SetValue().
	WriteError error
}

// Value returns the current level.
func (l *FakeLine) Value() (int, error) {
	if l.ReadError != nil {
		return 0, l.ReadError
	}
	return l.Level, nil
}

// SetValue records and applies the level.
func (l *FakeLine) SetValue(value int) error {
	if l.WriteError != nil {
		return l.WriteError
	}
	l.Writes = append(l.Writes, value)
	l.Level = value
	return nil
}

// FakeCollector is a test double that returns scripted input samples.
type FakeCollector struct {
	// Samples contains scripted snapshots to return.
	// Each call to Sample() consumes the next one.
	Samples []logic.Input

	// index tracks current position in Samples
	index int

	// Calls counts calls to Sample().
	Calls int

	// SampleError, if set, will be returned by Sample()
	SampleError error
}

// NewFakeCollector creates a FakeCollector with the given samples.
func NewFakeCollector(samples []logic.Input) *FakeCollector {
	return &FakeCollector{Samples: samples}
}

// Sample returns the next scripted snapshot.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeCollector) Sample() (logic.Input, error) {
	f.Calls++
	if f.SampleError != nil {
		return logic.Input{}, f.SampleError
	}
	if len(f.Samples) == 0 {
		return logic.Input{}, errors.New("no samples configured")
	}

	in := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return in, nil
}

// Reset rewinds to the first sample.
func (f *FakeCollector) Reset() {
	f.index = 0
	f.Calls = 0
}

// FakeSink records applied intent sets for test assertions.
type FakeSink struct {
	// Applied contains every intent set passed to Apply, in order.
	Applied []logic.Intents

	// ApplyError, if set, will be returned by Apply.
	ApplyError error
}

// NewFakeSink creates a FakeSink.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

// Apply records the intents.
func (f *FakeSink) Apply(intents logic.Intents) error {
	if f.ApplyError != nil {
		return f.ApplyError
	}
	f.Applied = append(f.Applied, intents)
	return nil
}

// Last returns the most recently applied intents and whether any exist.
func (f *FakeSink) Last() (logic.Intents, bool) {
	if len(f.Applied) == 0 {
		return logic.Intents{}, false
	}
	return f.Applied[len(f.Applied)-1], true
}
