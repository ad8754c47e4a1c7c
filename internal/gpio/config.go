package gpio

import "fmt"

// Config describes the line offsets used by Open.
type Config struct {
	// Chip is the gpiochip device name, e.g. "gpiochip0".
	Chip string

	// Mux0 and Mux1 hold select0, select1, select2 and data offsets.
	Mux0 []int
	Mux1 []int

	// Outputs holds the offset of each power channel, by channel number.
	Outputs []int

	Inputs InputMap
	Table  ChannelTable
}

// DefaultConfig returns the controller board wiring.
func DefaultConfig() Config {
	return Config{
		Chip:    DefaultChip,
		Mux0:    append([]int(nil), DefaultMux0...),
		Mux1:    append([]int(nil), DefaultMux1...),
		Outputs: append([]int(nil), DefaultOutputs...),
		Inputs:  DefaultInputMap,
		Table:   DefaultChannelTable,
	}
}

// Validate checks line counts, offset uniqueness and the channel table.
func (c Config) Validate() error {
	if c.Chip == "" {
		return fmt.Errorf("gpio chip is required")
	}
	if len(c.Mux0) != 4 {
		return fmt.Errorf("mux0: expected 4 lines, got %d", len(c.Mux0))
	}
	if len(c.Mux1) != 4 {
		return fmt.Errorf("mux1: expected 4 lines, got %d", len(c.Mux1))
	}
	if len(c.Outputs) != NumChannels {
		return fmt.Errorf("outputs: expected %d lines, got %d", NumChannels, len(c.Outputs))
	}

	used := make(map[int]string)
	check := func(name string, offsets []int) error {
		for i, off := range offsets {
			if off < 0 {
				return fmt.Errorf("%s[%d]: negative line offset %d", name, i, off)
			}
			if prev, ok := used[off]; ok {
				return fmt.Errorf("%s[%d]: line %d already used by %s", name, i, off, prev)
			}
			used[off] = fmt.Sprintf("%s[%d]", name, i)
		}
		return nil
	}
	if err := check("mux0", c.Mux0); err != nil {
		return err
	}
	if err := check("mux1", c.Mux1); err != nil {
		return err
	}
	if err := check("outputs", c.Outputs); err != nil {
		return err
	}
	return c.Table.Validate()
}
