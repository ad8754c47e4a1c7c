//go:build !linux

package gpio

import "errors"

// Hardware is not available on non-Linux platforms.
type Hardware struct {
	Collector *MuxCollector
	Sink      *ChannelSink
}

// Open returns an error on non-Linux platforms.
func Open(cfg Config) (*Hardware, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Close is a no-op on non-Linux platforms.
func (h *Hardware) Close() error {
	return nil
}
