package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/moto-lights/internal/gpio"
	"github.com/sweeney/moto-lights/internal/logic"
)

const defaultDwell = 500 * time.Millisecond

// channelDriver drives power channels one at a time.
type channelDriver interface {
	SetChannel(ch int, on bool) error
	Apply(intents logic.Intents) error
	Table() gpio.ChannelTable
}

func newLampTestCommand(a *app) *cobra.Command {
	dwell := defaultDwell
	cmd := &cobra.Command{
		Use:   "lamp-test",
		Short: "Energize each power channel in turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dwell <= 0 {
				return fmt.Errorf("dwell must be positive, got %v", dwell)
			}
			hw, err := gpio.Open(a.opts.GPIOConfig())
			if err != nil {
				return fmt.Errorf("init gpio: %w", err)
			}
			defer hw.Close()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			return lampTest(hw.Sink, dwell, cmd.OutOrStdout(), time.After, sigCh)
		},
	}
	cmd.Flags().DurationVar(&dwell, "dwell", dwell, "Time each channel stays on.")
	return cmd
}

// lampTest switches each channel on for dwell, then off, in channel order.
// A signal aborts the sequence. All channels are off on return.
func lampTest(d channelDriver, dwell time.Duration, out io.Writer, after func(time.Duration) <-chan time.Time, sig <-chan os.Signal) (err error) {
	defer func() {
		if e := d.Apply(logic.Intents{}); e != nil && err == nil {
			err = fmt.Errorf("outputs off: %w", e)
		}
	}()

	table := d.Table()
	for ch := 0; ch < gpio.NumChannels; ch++ {
		fmt.Fprintf(out, "channel %2d: %s\n", ch, table[ch])
		if err := d.SetChannel(ch, true); err != nil {
			return err
		}
		select {
		case s := <-sig:
			fmt.Fprintf(out, "received %v, aborting\n", s)
			return nil
		case <-after(dwell):
		}
		if err := d.SetChannel(ch, false); err != nil {
			return err
		}
	}
	return nil
}
