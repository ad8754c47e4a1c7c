// Package mqtt provides a remote driver-control panel over MQTT for bench
// testing without a wiring harness, plus lock/unlock commands.
package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sweeney/moto-lights/internal/logic"
	"github.com/sweeney/moto-lights/internal/supervisor"
)

// TopicControls carries driver-control snapshots.
const TopicControls = "moto/lights/controls"

// TopicCommand carries supervisory commands ("lock", "unlock").
const TopicCommand = "moto/lights/command"

// DefaultCommandQueue is the number of commands buffered for the control loop.
const DefaultCommandQueue = 8

// Payload represents the controls message structure.
type Payload struct {
	Controls ControlsPayload `json:"controls"`
}

// ControlsPayload contains one driver-control snapshot. Missing fields are false.
type ControlsPayload struct {
	Ignition   bool `json:"ignition"`
	BrakeFront bool `json:"brake_front"`
	BrakeRear  bool `json:"brake_rear"`
	TurnLeft   bool `json:"turn_left"`
	TurnRight  bool `json:"turn_right"`
	Hazard     bool `json:"hazard"`
	LightOn    bool `json:"light_on"`
	FullBeam   bool `json:"full_beam"`
	Horn       bool `json:"horn"`
	KillSwitch bool `json:"kill_switch"`
	SideStand  bool `json:"side_stand"`
}

// ParsePayload decodes a controls message.
func ParsePayload(data []byte) (logic.Input, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return logic.Input{}, fmt.Errorf("decode controls: %w", err)
	}
	c := p.Controls
	return logic.Input{
		Ignition:   c.Ignition,
		BrakeFront: c.BrakeFront,
		BrakeRear:  c.BrakeRear,
		TurnLeft:   c.TurnLeft,
		TurnRight:  c.TurnRight,
		Hazard:     c.Hazard,
		LightOn:    c.LightOn,
		FullBeam:   c.FullBeam,
		Horn:       c.Horn,
		KillSwitch: c.KillSwitch,
		SideStand:  c.SideStand,
	}, nil
}

// Panel holds the latest remote snapshot and queues commands.
// Message handlers run on MQTT client goroutines; Sample and Commands are
// read by the control loop.
type Panel struct {
	mu       sync.Mutex
	latest   logic.Input
	received bool

	commands chan supervisor.Command
	log      *zap.SugaredLogger
}

// NewPanel creates a Panel with a command queue of the given size.
func NewPanel(queue int, log *zap.SugaredLogger) *Panel {
	if queue <= 0 {
		queue = DefaultCommandQueue
	}
	return &Panel{
		commands: make(chan supervisor.Command, queue),
		log:      log,
	}
}

// HandleControls stores a controls message. Malformed messages are dropped
// and the previous snapshot is kept.
func (p *Panel) HandleControls(payload []byte) {
	in, err := ParsePayload(payload)
	if err != nil {
		p.log.Warnf("mqtt: ignoring controls message: %v", err)
		return
	}
	p.mu.Lock()
	p.latest = in
	p.received = true
	p.mu.Unlock()
}

// HandleCommand queues a command message. Unknown commands are dropped,
// as are commands arriving while the queue is full.
func (p *Panel) HandleCommand(payload []byte) {
	cmd, err := supervisor.ParseCommand(string(payload))
	if err != nil {
		p.log.Warnf("mqtt: ignoring command message: %v", err)
		return
	}
	select {
	case p.commands <- cmd:
	default:
		p.log.Warnf("mqtt: command queue full, dropping %s", cmd)
	}
}

// Reset returns the panel to the safe default of all controls off.
func (p *Panel) Reset() {
	p.mu.Lock()
	p.latest = logic.Input{}
	p.received = false
	p.mu.Unlock()
}

// Sample returns the latest snapshot, or all controls off if none has
// arrived. It never fails.
func (p *Panel) Sample() (logic.Input, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, nil
}

// Received reports whether a snapshot has arrived since start or Reset.
func (p *Panel) Received() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.received
}

// Commands returns the queue of supervisory commands.
func (p *Panel) Commands() <-chan supervisor.Command {
	return p.commands
}
