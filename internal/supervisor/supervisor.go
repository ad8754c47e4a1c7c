// Package supervisor gates the control cycle with a locked/active state machine.
// While locked, the control loop neither samples inputs nor advances state.
package supervisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

const (
	StateLocked = "locked"
	StateActive = "active"

	EventLock   = "lock"
	EventUnlock = "unlock"
)

// Command is a supervisory request from outside the control loop.
type Command string

const (
	CommandLock   Command = EventLock
	CommandUnlock Command = EventUnlock
)

// ParseCommand accepts "lock" or "unlock", ignoring case and surrounding space.
func ParseCommand(s string) (Command, error) {
	switch c := Command(strings.ToLower(strings.TrimSpace(s))); c {
	case CommandLock, CommandUnlock:
		return c, nil
	}
	return "", fmt.Errorf("unknown command %q", s)
}

// Supervisor tracks whether the controller is locked or active.
type Supervisor struct {
	fsm *fsm.FSM
	log *zap.SugaredLogger
}

// New creates a Supervisor. It starts locked when startLocked is set.
func New(startLocked bool, log *zap.SugaredLogger) *Supervisor {
	s := &Supervisor{log: log}

	initial := StateActive
	if startLocked {
		initial = StateLocked
	}

	events := fsm.Events{
		{Name: EventLock, Src: []string{StateActive}, Dst: StateLocked},
		{Name: EventUnlock, Src: []string{StateLocked}, Dst: StateActive},
	}
	callbacks := fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			s.log.Infof("supervisor: %s -> %s (%s)", e.Src, e.Dst, e.Event)
		},
	}

	s.fsm = fsm.NewFSM(initial, events, callbacks)
	return s
}

// State returns the current state name.
func (s *Supervisor) State() string {
	return s.fsm.Current()
}

// Active reports whether control cycles should run.
func (s *Supervisor) Active() bool {
	return s.fsm.Is(StateActive)
}

// Handle applies a command. It reports whether the state changed.
// Repeating the command for the current state is a no-op.
func (s *Supervisor) Handle(ctx context.Context, cmd Command) (bool, error) {
	switch cmd {
	case CommandLock, CommandUnlock:
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}

	if !s.fsm.Can(string(cmd)) {
		s.log.Debugf("supervisor: %s ignored in state %s", cmd, s.fsm.Current())
		return false, nil
	}
	if err := s.fsm.Event(ctx, string(cmd)); err != nil {
		return false, fmt.Errorf("%s: %w", cmd, err)
	}
	return true, nil
}
