package gpio

import (
	"fmt"

	"github.com/sweeney/moto-lights/internal/logic"
)

// InputPos locates a driver control on a multiplexer channel.
type InputPos struct {
	Mux     int
	Channel int
}

// InputMap places each driver control on the input harness.
type InputMap struct {
	Ignition   InputPos
	BrakeFront InputPos
	BrakeRear  InputPos
	TurnLeft   InputPos
	TurnRight  InputPos
	Hazard     InputPos
	LightOn    InputPos
	FullBeam   InputPos
	Horn       InputPos
	KillSwitch InputPos
	SideStand  InputPos
}

// DefaultInputMap is the harness wiring of the controller board.
var DefaultInputMap = InputMap{
	KillSwitch: InputPos{0, 0},
	Ignition:   InputPos{0, 1},
	SideStand:  InputPos{0, 2},
	LightOn:    InputPos{0, 3},
	FullBeam:   InputPos{0, 4},
	TurnLeft:   InputPos{0, 5},
	TurnRight:  InputPos{0, 6},
	Hazard:     InputPos{0, 7},
	BrakeFront: InputPos{1, 0},
	BrakeRear:  InputPos{1, 1},
	Horn:       InputPos{1, 2},
}

// MuxCollector samples the driver controls through a set of multiplexers.
type MuxCollector struct {
	muxes []*Mux
	m     InputMap
}

// NewMuxCollector creates a collector reading through muxes using map m.
func NewMuxCollector(m InputMap, muxes ...*Mux) *MuxCollector {
	return &MuxCollector{muxes: muxes, m: m}
}

// Sample reads every control in turn. Any read failure aborts the sample.
func (c *MuxCollector) Sample() (logic.Input, error) {
	var in logic.Input
	reads := []struct {
		name string
		pos  InputPos
		dst  *bool
	}{
		{"ignition", c.m.Ignition, &in.Ignition},
		{"brake_front", c.m.BrakeFront, &in.BrakeFront},
		{"brake_rear", c.m.BrakeRear, &in.BrakeRear},
		{"turn_left", c.m.TurnLeft, &in.TurnLeft},
		{"turn_right", c.m.TurnRight, &in.TurnRight},
		{"hazard", c.m.Hazard, &in.Hazard},
		{"light_on", c.m.LightOn, &in.LightOn},
		{"full_beam", c.m.FullBeam, &in.FullBeam},
		{"horn", c.m.Horn, &in.Horn},
		{"kill_switch", c.m.KillSwitch, &in.KillSwitch},
		{"side_stand", c.m.SideStand, &in.SideStand},
	}
	for _, r := range reads {
		if r.pos.Mux < 0 || r.pos.Mux >= len(c.muxes) {
			return logic.Input{}, fmt.Errorf("%s: no mux %d", r.name, r.pos.Mux)
		}
		v, err := c.muxes[r.pos.Mux].ReadChannel(r.pos.Channel)
		if err != nil {
			return logic.Input{}, fmt.Errorf("%s: %w", r.name, err)
		}
		*r.dst = v
	}
	return in, nil
}
