package logic

// IsOn reports whether a signal's indicator is lit at now.
// The square wave starts lit at the activation tick: on for onTicks,
// then off for offTicks, repeating. Inactive signals are never lit.
func IsOn(s SignalState, now Timestamp, onTicks, offTicks uint32) bool {
	since, ok := activeSince(s)
	if !ok {
		return false
	}
	period := uint64(onTicks) + uint64(offTicks)
	if period == 0 {
		return false
	}
	phase := uint64(now.Since(since)) % period
	return phase < uint64(onTicks)
}

func (b Blink) isOn(s SignalState, now Timestamp) bool {
	return IsOn(s, now, b.On, b.Off)
}

// ResolveTurnSignals decides the four indicators.
//
// Priority:
//   - Hazard: all four follow the hazard's own phase; turn inputs are ignored.
//   - Left:   left pair follows the left phase, right pair off.
//   - Right:  right pair follows the right phase, left pair off.
//   - None:   all off.
func ResolveTurnSignals(state SystemState, now Timestamp, blink Blink) TurnSignals {
	switch {
	case IsActive(state.Hazard):
		on := blink.isOn(state.Hazard, now)
		return TurnSignals{LeftFront: on, LeftRear: on, RightFront: on, RightRear: on}
	case IsActive(state.TurnLeft):
		on := blink.isOn(state.TurnLeft, now)
		return TurnSignals{LeftFront: on, LeftRear: on}
	case IsActive(state.TurnRight):
		on := blink.isOn(state.TurnRight, now)
		return TurnSignals{RightFront: on, RightRear: on}
	}
	return TurnSignals{}
}

// ResolveLights decides head and rear lights from the driver controls.
//
// With ignition on, the light switch enables low beam and rear light, and
// full beam follows its switch. With ignition off, the light switch enables
// only parking and rear light; full beam is never available.
func ResolveLights(in Input) Lights {
	if in.Ignition {
		if !in.LightOn {
			return Lights{}
		}
		return Lights{LowBeam: true, Rear: true, FullBeam: in.FullBeam}
	}
	if in.LightOn {
		return Lights{Parking: true, Rear: true}
	}
	return Lights{}
}

// BuildIntents assembles the complete output decision for one cycle.
func BuildIntents(state SystemState, in Input, now Timestamp, blink Blink) Intents {
	out := Intents{
		Brake: in.BrakeFront || in.BrakeRear,
		Horn:  in.Horn,
	}

	turn := ResolveTurnSignals(state, now, blink)
	out.TurnLeftFront = turn.LeftFront
	out.TurnLeftRear = turn.LeftRear
	out.TurnRightFront = turn.RightFront
	out.TurnRightRear = turn.RightRear

	lights := ResolveLights(in)
	out.Parking = lights.Parking
	out.LowBeam = lights.LowBeam
	out.FullBeam = lights.FullBeam
	out.Rear = lights.Rear

	return out
}

// Tick runs one control cycle: it advances the state with the new sample and
// computes the intents from the advanced state. The returned state replaces
// the one passed in.
func Tick(in Input, state SystemState, now Timestamp, blink Blink) (SystemState, Intents) {
	next := Advance(state, in, now)
	return next, BuildIntents(next, in, now, blink)
}
