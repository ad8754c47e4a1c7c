package logic

// Signal names a monitored signal in a Change.
type Signal string

const (
	SignalTurnLeft  Signal = "TURN_LEFT"
	SignalTurnRight Signal = "TURN_RIGHT"
	SignalHazard    Signal = "HAZARD"
)

// Change reports an activation edge of one signal between two cycles.
type Change struct {
	Signal Signal
	Active bool
	Since  Timestamp // activation tick; zero when Active is false
}

// UpdateSignal advances a single signal.
// An on-input keeps an existing activation tick, so the activation edge
// anchors the blink phase. Any off-input resets to Inactive.
func UpdateSignal(prev SignalState, on bool, now Timestamp) SignalState {
	if !on {
		return Inactive{}
	}
	if since, ok := activeSince(prev); ok {
		return Active{Since: since}
	}
	return Active{Since: now}
}

// Advance returns the state after applying one input sample.
// Each signal is tracked independently, even though hazard overrides
// the turn signals when outputs are resolved.
func Advance(prev SystemState, in Input, now Timestamp) SystemState {
	return SystemState{
		TurnLeft:  UpdateSignal(prev.TurnLeft, in.TurnLeft, now),
		TurnRight: UpdateSignal(prev.TurnRight, in.TurnRight, now),
		Hazard:    UpdateSignal(prev.Hazard, in.Hazard, now),
	}
}

// Changes lists the signals whose activation differs between prev and next,
// in the order hazard, left, right.
func Changes(prev, next SystemState) []Change {
	var changes []Change
	pairs := []struct {
		sig        Signal
		prev, next SignalState
	}{
		{SignalHazard, prev.Hazard, next.Hazard},
		{SignalTurnLeft, prev.TurnLeft, next.TurnLeft},
		{SignalTurnRight, prev.TurnRight, next.TurnRight},
	}
	for _, p := range pairs {
		wasActive := IsActive(p.prev)
		since, isActive := activeSince(p.next)
		if wasActive == isActive {
			continue
		}
		changes = append(changes, Change{Signal: p.sig, Active: isActive, Since: since})
	}
	return changes
}
