package clock

import (
	"testing"
	"time"

	"github.com/sweeney/moto-lights/internal/logic"
)

func TestMsToTicks(t *testing.T) {
	tests := []struct {
		ms   uint32
		hz   uint64
		want uint32
	}{
		{1000, 1_000_000, 1_000_000},
		{1, 1_000_000, 1000},
		{1000, 72_000_000, 72_000_000},
		{250, 1000, 250},
		{0, 1_000_000, 0},
	}
	for _, tt := range tests {
		if got := msToTicks(tt.ms, tt.hz); got != tt.want {
			t.Errorf("msToTicks(%d, %d): expected %d, got %d", tt.ms, tt.hz, tt.want, got)
		}
	}
}

func TestDurationToTicks(t *testing.T) {
	tests := []struct {
		d    time.Duration
		hz   uint64
		want uint64
	}{
		{time.Second, 1_000_000, 1_000_000},
		{1500 * time.Millisecond, 1000, 1500},
		{time.Microsecond, 1_000_000, 1},
		// 10 hours at 1 MHz: naive d*hz would overflow 64 bits.
		{10 * time.Hour, 1_000_000, 36_000_000_000},
	}
	for _, tt := range tests {
		if got := durationToTicks(tt.d, tt.hz); got != tt.want {
			t.Errorf("durationToTicks(%v, %d): expected %d, got %d", tt.d, tt.hz, tt.want, got)
		}
	}
}

func TestTickTruncationWraps(t *testing.T) {
	// 36e9 ticks truncated to 32 bits
	got := logic.Timestamp(durationToTicks(10*time.Hour, 1_000_000))
	want := logic.Timestamp(36_000_000_000 % (1 << 32))
	if got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestMonotonicAdvances(t *testing.T) {
	m := NewMonotonic(DefaultHz)
	a := m.Now()
	time.Sleep(2 * time.Millisecond)
	b := m.Now()
	if b.Since(a) < 1000 {
		t.Errorf("expected at least 1000 ticks after 2ms, got %d", b.Since(a))
	}
	if m.Hz() != DefaultHz {
		t.Errorf("expected Hz=%d, got %d", DefaultHz, m.Hz())
	}
}

func TestBlinkTiming(t *testing.T) {
	b := BlinkTiming(NewFake(0, 8_000_000))
	if b.On != 8_000_000 || b.Off != 8_000_000 {
		t.Errorf("expected 1s on/off at 8MHz, got %+v", b)
	}
}

func TestFake(t *testing.T) {
	f := NewFake(logic.MaxTick, 1000)
	if f.Now() != logic.MaxTick {
		t.Fatal("expected start tick")
	}
	f.Advance(1)
	if f.Now() != 0 {
		t.Errorf("expected wrap to 0, got %d", f.T)
	}

	f.Step = 5
	first := f.Now()
	second := f.Now()
	if second.Since(first) != 5 {
		t.Errorf("expected step of 5, got %d", second.Since(first))
	}
}
