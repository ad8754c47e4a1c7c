// Package gpio provides the driver-control input collector and the power
// output sink with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

import "github.com/sweeney/moto-lights/internal/logic"

// Collector samples the driver controls.
type Collector interface {
	// Sample returns the current state of all eleven driver controls.
	// An error means the hardware could not be read; the caller treats it as fatal.
	Sample() (logic.Input, error)
}

// Sink commits output decisions to the power channels.
type Sink interface {
	// Apply drives every power channel from the given intents.
	Apply(intents logic.Intents) error
}

// InputLine is a readable GPIO line. *gpiocdev.Line satisfies it.
type InputLine interface {
	Value() (int, error)
}

// OutputLine is a writable GPIO line. *gpiocdev.Line satisfies it.
type OutputLine interface {
	SetValue(value int) error
}

// NumChannels is the number of power output channels.
const NumChannels = 12

// DefaultChip is the gpiochip holding the board's lines.
const DefaultChip = "gpiochip0"

// Default line offsets on DefaultChip (BCM numbering on a Raspberry Pi header).
var (
	// DefaultMux0 holds select0, select1, select2 and data for input channels 0-7.
	DefaultMux0 = []int{5, 6, 13, 19}

	// DefaultMux1 holds select0, select1, select2 and data for input channels 8-15.
	DefaultMux1 = []int{12, 16, 20, 26}

	// DefaultOutputs holds the line offset of power channels 0-11.
	DefaultOutputs = []int{4, 17, 27, 22, 23, 24, 25, 18, 8, 7, 9, 10}
)

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
