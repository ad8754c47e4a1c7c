package gpio

import (
	"fmt"

	"github.com/sweeney/moto-lights/internal/logic"
)

// ChannelTable routes a logical intent to each power channel, indexed by
// channel number.
type ChannelTable [NumChannels]logic.Intent

// DefaultChannelTable is the power board wiring. Every intent has exactly
// one channel.
var DefaultChannelTable = ChannelTable{
	0:  logic.IntentLowBeam,
	1:  logic.IntentFullBeam,
	2:  logic.IntentParking,
	3:  logic.IntentTurnLeftFront,
	4:  logic.IntentTurnLeftRear,
	5:  logic.IntentTurnRightFront,
	6:  logic.IntentTurnRightRear,
	7:  logic.IntentRear,
	8:  logic.IntentBrake,
	9:  logic.IntentHorn,
	10: logic.IntentReserved0,
	11: logic.IntentReserved1,
}

// Validate checks that every intent is routed to exactly one channel.
func (t ChannelTable) Validate() error {
	var seen [logic.NumIntents]int
	for ch, intent := range t {
		if intent < 0 || int(intent) >= logic.NumIntents {
			return fmt.Errorf("channel %d: unknown intent %d", ch, intent)
		}
		if seen[intent] != 0 {
			return fmt.Errorf("channel %d: %s already routed to channel %d", ch, intent, seen[intent]-1)
		}
		seen[intent] = ch + 1
	}
	return nil
}

// Channel returns the channel an intent is routed to, or -1.
func (t ChannelTable) Channel(intent logic.Intent) int {
	for ch, i := range t {
		if i == intent {
			return ch
		}
	}
	return -1
}

// ChannelSink drives power channels through a channel table.
type ChannelSink struct {
	lines [NumChannels]OutputLine
	table ChannelTable
}

// NewChannelSink creates a sink for the given channel lines.
func NewChannelSink(table ChannelTable, lines [NumChannels]OutputLine) (*ChannelSink, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("channel table: %w", err)
	}
	return &ChannelSink{lines: lines, table: table}, nil
}

// Apply drives every channel from its routed intent, in channel order.
func (s *ChannelSink) Apply(intents logic.Intents) error {
	for ch, intent := range s.table {
		if err := s.SetChannel(ch, intents.Get(intent)); err != nil {
			return err
		}
	}
	return nil
}

// SetChannel drives a single channel directly, bypassing the table.
func (s *ChannelSink) SetChannel(ch int, on bool) error {
	if ch < 0 || ch >= NumChannels {
		return fmt.Errorf("power channel %d out of range", ch)
	}
	if err := s.lines[ch].SetValue(level(on)); err != nil {
		return fmt.Errorf("set channel %d (%s)=%v: %w", ch, s.table[ch], on, err)
	}
	return nil
}

// Table returns the channel table in use.
func (s *ChannelSink) Table() ChannelTable {
	return s.table
}
