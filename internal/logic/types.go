// Package logic contains the pure decision core of the lighting controller.
// This package has NO external dependencies (no GPIO, MQTT, OS, or wall clock).
// Time is always injected as a Timestamp parameter.
package logic

import "math"

// Timestamp is a monotonic tick count that wraps at 2^32.
type Timestamp uint32

// MaxTick is the last tick value before the counter wraps to zero.
const MaxTick = Timestamp(math.MaxUint32)

// Since returns the number of ticks from earlier to t.
// Wrapping subtraction keeps the result correct across one counter overflow.
func (t Timestamp) Since(earlier Timestamp) uint32 {
	return uint32(t - earlier)
}

// SignalState is the activation state of one monitored signal.
// It is either Active or Inactive; no other implementations exist.
type SignalState interface {
	isSignalState()
}

// Active means the signal has been commanded on continuously since Since.
type Active struct {
	Since Timestamp
}

// Inactive means the signal is not commanded.
type Inactive struct{}

func (Active) isSignalState()   {}
func (Inactive) isSignalState() {}

// activeSince reports whether s is Active and, if so, its activation tick.
// A nil state counts as Inactive.
func activeSince(s SignalState) (Timestamp, bool) {
	a, ok := s.(Active)
	return a.Since, ok
}

// IsActive reports whether s is the Active variant.
func IsActive(s SignalState) bool {
	_, ok := activeSince(s)
	return ok
}

// SystemState is the state carried from one control cycle to the next.
type SystemState struct {
	TurnLeft  SignalState
	TurnRight SignalState
	Hazard    SignalState
}

// NewSystemState returns the startup state with every signal inactive.
func NewSystemState() SystemState {
	return SystemState{
		TurnLeft:  Inactive{},
		TurnRight: Inactive{},
		Hazard:    Inactive{},
	}
}

// Input is one sample of the driver controls.
type Input struct {
	Ignition   bool
	BrakeFront bool
	BrakeRear  bool
	TurnLeft   bool
	TurnRight  bool
	Hazard     bool
	LightOn    bool
	FullBeam   bool
	Horn       bool
	KillSwitch bool // true when the kill switch is on KILL
	SideStand  bool // true when the side stand is out
}

// Intent identifies one logical lighting/accessory output.
type Intent int

const (
	IntentTurnLeftFront Intent = iota
	IntentTurnLeftRear
	IntentTurnRightFront
	IntentTurnRightRear
	IntentParking
	IntentLowBeam
	IntentFullBeam
	IntentRear
	IntentBrake
	IntentHorn
	IntentReserved0
	IntentReserved1

	// NumIntents is the number of logical outputs.
	NumIntents = 12
)

var intentNames = [NumIntents]string{
	"turn_left_front",
	"turn_left_rear",
	"turn_right_front",
	"turn_right_rear",
	"parking",
	"low_beam",
	"full_beam",
	"rear",
	"brake",
	"horn",
	"reserved0",
	"reserved1",
}

func (i Intent) String() string {
	if i < 0 || int(i) >= NumIntents {
		return "unknown"
	}
	return intentNames[i]
}

// Intents is the full set of output decisions for one cycle.
type Intents struct {
	TurnLeftFront  bool
	TurnLeftRear   bool
	TurnRightFront bool
	TurnRightRear  bool
	Parking        bool
	LowBeam        bool
	FullBeam       bool
	Rear           bool
	Brake          bool
	Horn           bool
	Reserved0      bool
	Reserved1      bool
}

// Get returns the decision for a single intent. Unknown intents are off.
func (s Intents) Get(i Intent) bool {
	switch i {
	case IntentTurnLeftFront:
		return s.TurnLeftFront
	case IntentTurnLeftRear:
		return s.TurnLeftRear
	case IntentTurnRightFront:
		return s.TurnRightFront
	case IntentTurnRightRear:
		return s.TurnRightRear
	case IntentParking:
		return s.Parking
	case IntentLowBeam:
		return s.LowBeam
	case IntentFullBeam:
		return s.FullBeam
	case IntentRear:
		return s.Rear
	case IntentBrake:
		return s.Brake
	case IntentHorn:
		return s.Horn
	case IntentReserved0:
		return s.Reserved0
	case IntentReserved1:
		return s.Reserved1
	}
	return false
}

// TurnSignals holds the four turn indicator decisions.
type TurnSignals struct {
	LeftFront  bool
	LeftRear   bool
	RightFront bool
	RightRear  bool
}

// Lights holds the head and rear light decisions.
type Lights struct {
	Parking  bool
	LowBeam  bool
	FullBeam bool
	Rear     bool
}

// Blink is the on/off duration of the indicator square wave, in ticks.
type Blink struct {
	On  uint32
	Off uint32
}
