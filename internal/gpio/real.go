//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

const consumer = "moto-lights"

// Hardware owns the GPIO lines of the controller board.
type Hardware struct {
	chip      *gpiocdev.Chip
	lines     []*gpiocdev.Line
	outputs   [NumChannels]*gpiocdev.Line
	Collector *MuxCollector
	Sink      *ChannelSink
}

// Open requests every line described by cfg. Power channels start low.
func Open(cfg Config) (*Hardware, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chip, err := gpiocdev.NewChip(cfg.Chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}
	h := &Hardware{chip: chip}

	muxes := make([]*Mux, 0, 2)
	for i, offsets := range [][]int{cfg.Mux0, cfg.Mux1} {
		m, err := h.openMux(offsets)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("mux%d: %w", i, err)
		}
		muxes = append(muxes, m)
	}

	var outs [NumChannels]OutputLine
	for ch, off := range cfg.Outputs {
		l, err := h.request(off, gpiocdev.AsOutput(0))
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("power channel %d: %w", ch, err)
		}
		h.outputs[ch] = l
		outs[ch] = l
	}

	sink, err := NewChannelSink(cfg.Table, outs)
	if err != nil {
		h.Close()
		return nil, err
	}
	h.Sink = sink
	h.Collector = NewMuxCollector(cfg.Inputs, muxes...)
	return h, nil
}

func (h *Hardware) openMux(offsets []int) (*Mux, error) {
	var sel [3]OutputLine
	for i := 0; i < 3; i++ {
		l, err := h.request(offsets[i], gpiocdev.AsOutput(0))
		if err != nil {
			return nil, fmt.Errorf("select %d: %w", i, err)
		}
		sel[i] = l
	}
	// The multiplexer drives the data line; no pull needed.
	data, err := h.request(offsets[3], gpiocdev.AsInput)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	return NewMux(sel[0], sel[1], sel[2], data), nil
}

func (h *Hardware) request(offset int, opts ...gpiocdev.LineReqOption) (*gpiocdev.Line, error) {
	l, err := h.chip.RequestLine(offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request line %d: %w", offset, err)
	}
	h.lines = append(h.lines, l)
	return l, nil
}

// Close drives all power channels low and releases GPIO resources.
// Output lines are reconfigured as pulled-down inputs before release so
// the power stage stays off while nothing owns them.
func (h *Hardware) Close() error {
	var err error
	for ch, l := range h.outputs {
		if l == nil {
			continue
		}
		if e := l.SetValue(0); e != nil {
			err = multierr.Append(err, fmt.Errorf("drive channel %d low: %w", ch, e))
		}
		if e := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); e != nil {
			err = multierr.Append(err, fmt.Errorf("reconfigure channel %d: %w", ch, e))
		}
	}
	for _, l := range h.lines {
		if e := l.Close(); e != nil {
			err = multierr.Append(err, fmt.Errorf("close line %d: %w", l.Offset(), e))
		}
	}
	h.lines = nil
	h.outputs = [NumChannels]*gpiocdev.Line{}
	if h.chip != nil {
		if e := h.chip.Close(); e != nil {
			err = multierr.Append(err, fmt.Errorf("close chip: %w", e))
		}
		h.chip = nil
	}
	return err
}
