package gpio

import "fmt"

// MuxChannels is the number of inputs behind one multiplexer.
const MuxChannels = 8

// Selector is the select-line pattern that routes one multiplexer input
// to the data line.
type Selector struct {
	S0, S1, S2 bool
}

// Selectors maps logical channel index to select-line pattern. The harness
// connector order differs from the chip's Y numbering, see the 74HC4051
// datasheet and the board schematic.
var Selectors = [MuxChannels]Selector{
	{S0: true, S1: true, S2: false},   // Y3 -> channel 0
	{S0: false, S1: false, S2: false}, // Y0 -> channel 1
	{S0: true, S1: false, S2: false},  // Y1 -> channel 2
	{S0: false, S1: true, S2: false},  // Y2 -> channel 3
	{S0: true, S1: false, S2: true},   // Y5 -> channel 4
	{S0: true, S1: true, S2: true},    // Y7 -> channel 5
	{S0: false, S1: true, S2: true},   // Y6 -> channel 6
	{S0: false, S1: false, S2: true},  // Y4 -> channel 7
}

// Mux reads one 8-channel analog multiplexer through three select lines
// and one data line.
type Mux struct {
	sel  [3]OutputLine
	data InputLine
}

// NewMux creates a Mux from its select lines (S0, S1, S2) and data line.
func NewMux(s0, s1, s2 OutputLine, data InputLine) *Mux {
	return &Mux{sel: [3]OutputLine{s0, s1, s2}, data: data}
}

// ReadChannel selects channel idx and returns whether its input is high.
func (m *Mux) ReadChannel(idx int) (bool, error) {
	if idx < 0 || idx >= MuxChannels {
		return false, fmt.Errorf("mux channel %d out of range", idx)
	}
	s := Selectors[idx]
	for i, on := range []bool{s.S0, s.S1, s.S2} {
		if err := m.sel[i].SetValue(level(on)); err != nil {
			return false, fmt.Errorf("set select %d for channel %d: %w", i, idx, err)
		}
	}
	v, err := m.data.Value()
	if err != nil {
		return false, fmt.Errorf("read channel %d: %w", idx, err)
	}
	return v != 0, nil
}
