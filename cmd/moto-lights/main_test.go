package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/moto-lights/internal/clock"
	"github.com/sweeney/moto-lights/internal/gpio"
	"github.com/sweeney/moto-lights/internal/logging"
	"github.com/sweeney/moto-lights/internal/logic"
	"github.com/sweeney/moto-lights/internal/supervisor"
)

// --- runLoop tests ---

// step is one loop stimulus: a tick, or a command when cmd is set.
type step struct {
	cmd supervisor.Command
}

var tick = step{}

func ticks(n int) []step {
	return make([]step, n)
}

func repeat(sample logic.Input, n int) []logic.Input {
	out := make([]logic.Input, n)
	for i := range out {
		out[i] = sample
	}
	return out
}

// newTestClock returns a 1 kHz clock advancing 250 ticks (a quarter of the
// blink on time) per read.
func newTestClock() *clock.Fake {
	c := clock.NewFake(0, 1000)
	c.Step = 250
	return c
}

// runRunLoop drives runLoop through steps and then a signal, returning the
// loop's error. Channels are unbuffered so every step is consumed in order.
func runRunLoop(t *testing.T, collector gpio.Collector, sink gpio.Sink, clk clock.Source, sup *supervisor.Supervisor, steps []step, signal os.Signal) error {
	t.Helper()
	tickCh := make(chan time.Time)
	cmdCh := make(chan supervisor.Command)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(context.Background(), collector, sink, clk, sup, cmdCh, logging.Nop(), tickCh, sig)
	}()

	for _, s := range steps {
		if s.cmd != "" {
			select {
			case cmdCh <- s.cmd:
			case err := <-errCh:
				return err
			}
			continue
		}
		select {
		case tickCh <- time.Time{}:
		case err := <-errCh:
			return err
		}
	}
	sig <- signal

	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("runLoop did not return")
		return nil
	}
}

func TestRunLoopDrivesIntents(t *testing.T) {
	in := logic.Input{Ignition: true, LightOn: true, BrakeRear: true}
	collector := gpio.NewFakeCollector(repeat(in, 3))
	sink := gpio.NewFakeSink()

	err := runRunLoop(t, collector, sink, newTestClock(), supervisor.New(false, logging.Nop()), ticks(3), syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	// 3 cycles + all off at shutdown
	if len(sink.Applied) != 4 {
		t.Fatalf("expected 4 applies, got %d", len(sink.Applied))
	}
	for i := 0; i < 3; i++ {
		got := sink.Applied[i]
		if !got.LowBeam || !got.Rear || !got.Brake {
			t.Errorf("cycle %d: expected low beam, rear and brake, got %+v", i, got)
		}
		if got.Parking || got.FullBeam {
			t.Errorf("cycle %d: unexpected parking or full beam: %+v", i, got)
		}
	}
	if last, _ := sink.Last(); last != (logic.Intents{}) {
		t.Errorf("expected all off at shutdown, got %+v", last)
	}
}

func TestRunLoopBlinksLeft(t *testing.T) {
	// Clock reads 0, 250, 500, ... at 1 kHz; blink is 1000 on, 1000 off.
	in := logic.Input{Ignition: true, TurnLeft: true}
	collector := gpio.NewFakeCollector(repeat(in, 10))
	sink := gpio.NewFakeSink()

	err := runRunLoop(t, collector, sink, newTestClock(), supervisor.New(false, logging.Nop()), ticks(10), syscall.SIGINT)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	want := []bool{true, true, true, true, false, false, false, false, true, true}
	for i, w := range want {
		got := sink.Applied[i]
		if got.TurnLeftFront != w || got.TurnLeftRear != w {
			t.Errorf("cycle %d: expected left=%v, got front=%v rear=%v", i, w, got.TurnLeftFront, got.TurnLeftRear)
		}
		if got.TurnRightFront || got.TurnRightRear {
			t.Errorf("cycle %d: right indicator should be off", i)
		}
	}
}

func TestRunLoopStartLockedDoesNotSample(t *testing.T) {
	collector := gpio.NewFakeCollector([]logic.Input{{Ignition: true, LightOn: true}})
	sink := gpio.NewFakeSink()

	err := runRunLoop(t, collector, sink, newTestClock(), supervisor.New(true, logging.Nop()), ticks(5), syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if collector.Calls != 0 {
		t.Errorf("expected no samples while locked, got %d", collector.Calls)
	}
	// all off at start + all off at shutdown
	if len(sink.Applied) != 2 {
		t.Fatalf("expected 2 applies, got %d", len(sink.Applied))
	}
	for i, got := range sink.Applied {
		if got != (logic.Intents{}) {
			t.Errorf("apply %d: expected all off, got %+v", i, got)
		}
	}
}

func TestRunLoopLockUnlock(t *testing.T) {
	in := logic.Input{Ignition: true, Hazard: true}
	collector := gpio.NewFakeCollector(repeat(in, 4))
	sink := gpio.NewFakeSink()
	clk := newTestClock()
	sup := supervisor.New(false, logging.Nop())

	steps := []step{
		tick, tick,
		{cmd: supervisor.CommandLock},
		tick, tick, tick,
		{cmd: supervisor.CommandLock}, // no-op
		{cmd: supervisor.CommandUnlock},
		tick, tick,
	}
	err := runRunLoop(t, collector, sink, clk, sup, steps, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if collector.Calls != 4 {
		t.Errorf("expected 4 samples (locked ticks skipped), got %d", collector.Calls)
	}
	// 2 cycles, all off on lock, 2 cycles, all off at shutdown
	if len(sink.Applied) != 6 {
		t.Fatalf("expected 6 applies, got %d", len(sink.Applied))
	}
	if sink.Applied[2] != (logic.Intents{}) {
		t.Errorf("expected all off on lock, got %+v", sink.Applied[2])
	}
	// Hazard kept its activation tick 0 across the lock; clock reads 500 and
	// 750 after unlock, both in the first on phase.
	for _, i := range []int{3, 4} {
		got := sink.Applied[i]
		if !got.TurnLeftFront || !got.TurnRightFront {
			t.Errorf("apply %d: expected hazard on, got %+v", i, got)
		}
	}
	if !sup.Active() {
		t.Error("expected active after unlock")
	}
}

func TestRunLoopSampleErrorIsFatal(t *testing.T) {
	collector := gpio.NewFakeCollector([]logic.Input{{}})
	collector.SampleError = errors.New("mux fault")
	sink := gpio.NewFakeSink()

	err := runRunLoop(t, collector, sink, newTestClock(), supervisor.New(false, logging.Nop()), ticks(3), syscall.SIGTERM)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "mux fault") {
		t.Errorf("expected wrapped sample error, got %v", err)
	}
	if collector.Calls != 1 {
		t.Errorf("expected loop to stop after first failure, got %d samples", collector.Calls)
	}
	if len(sink.Applied) != 0 {
		t.Errorf("expected no applies, got %d", len(sink.Applied))
	}
}

func TestRunLoopApplyErrorIsFatal(t *testing.T) {
	collector := gpio.NewFakeCollector([]logic.Input{{Ignition: true}})
	sink := gpio.NewFakeSink()
	sink.ApplyError = errors.New("line busy")

	err := runRunLoop(t, collector, sink, newTestClock(), supervisor.New(false, logging.Nop()), ticks(2), syscall.SIGTERM)
	if err == nil || !strings.Contains(err.Error(), "line busy") {
		t.Fatalf("expected apply error, got %v", err)
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	collector := gpio.NewFakeCollector([]logic.Input{{Ignition: true, Horn: true}})
	sink := gpio.NewFakeSink()

	err := runRunLoop(t, collector, sink, newTestClock(), supervisor.New(false, logging.Nop()), ticks(1), syscall.SIGINT)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if len(sink.Applied) != 2 {
		t.Fatalf("expected 2 applies, got %d", len(sink.Applied))
	}
	if !sink.Applied[0].Horn {
		t.Error("expected horn on during cycle")
	}
	if sink.Applied[1] != (logic.Intents{}) {
		t.Errorf("expected all off at shutdown, got %+v", sink.Applied[1])
	}
}

// --- print-state ---

func TestFormatInput(t *testing.T) {
	out := formatInput(logic.Input{Ignition: true, Hazard: true})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 11 {
		t.Fatalf("expected 11 lines, got %d:\n%s", len(lines), out)
	}
	for _, want := range []string{"IGNITION:    ON", "HAZARD:      ON", "HORN:        OFF", "KILL_SWITCH: OFF"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

// --- lamp-test ---

func newTestSink(t *testing.T) (*gpio.ChannelSink, [gpio.NumChannels]*gpio.FakeLine) {
	t.Helper()
	var fakes [gpio.NumChannels]*gpio.FakeLine
	var lines [gpio.NumChannels]gpio.OutputLine
	for i := range fakes {
		fakes[i] = &gpio.FakeLine{}
		lines[i] = fakes[i]
	}
	sink, err := gpio.NewChannelSink(gpio.DefaultChannelTable, lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return sink, fakes
}

func immediate(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestLampTestSequence(t *testing.T) {
	sink, fakes := newTestSink(t)
	var out bytes.Buffer

	if err := lampTest(sink, defaultDwell, &out, immediate, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for ch, l := range fakes {
		// on, off, then all off
		want := []int{1, 0, 0}
		if len(l.Writes) != len(want) {
			t.Fatalf("channel %d: expected writes %v, got %v", ch, want, l.Writes)
		}
		for i := range want {
			if l.Writes[i] != want[i] {
				t.Errorf("channel %d: expected writes %v, got %v", ch, want, l.Writes)
				break
			}
		}
	}
	if !strings.Contains(out.String(), "channel  0: low_beam") {
		t.Errorf("expected channel 0 routed to low beam, got:\n%s", out.String())
	}
	if n := strings.Count(out.String(), "\n"); n != gpio.NumChannels {
		t.Errorf("expected %d lines, got %d", gpio.NumChannels, n)
	}
}

func TestLampTestAbortLeavesAllOff(t *testing.T) {
	sink, fakes := newTestSink(t)
	var out bytes.Buffer
	sig := make(chan os.Signal, 1)
	sig <- syscall.SIGINT

	never := func(time.Duration) <-chan time.Time { return nil }
	if err := lampTest(sink, defaultDwell, &out, never, sig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for ch, l := range fakes {
		if l.Level != 0 {
			t.Errorf("channel %d: expected off after abort, got %d", ch, l.Level)
		}
	}
	if fakes[0].Writes[0] != 1 {
		t.Error("expected channel 0 energized before abort")
	}
	if fakes[1].Writes[0] != 0 || len(fakes[1].Writes) != 1 {
		t.Errorf("expected channel 1 untouched until all off, got %v", fakes[1].Writes)
	}
	if !strings.Contains(out.String(), "aborting") {
		t.Errorf("expected abort message, got:\n%s", out.String())
	}
}

func TestLampTestWriteError(t *testing.T) {
	sink, fakes := newTestSink(t)
	fakes[3].WriteError = errors.New("short")

	err := lampTest(sink, defaultDwell, &bytes.Buffer{}, immediate, nil)
	if err == nil || !strings.Contains(err.Error(), "short") {
		t.Fatalf("expected write error, got %v", err)
	}
}
