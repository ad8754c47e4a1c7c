// Command moto-lights drives motorcycle lamps, indicators and horn from the
// rider's controls.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sweeney/moto-lights/internal/clock"
	"github.com/sweeney/moto-lights/internal/config"
	"github.com/sweeney/moto-lights/internal/gpio"
	"github.com/sweeney/moto-lights/internal/logging"
	"github.com/sweeney/moto-lights/internal/logic"
	"github.com/sweeney/moto-lights/internal/mqtt"
	"github.com/sweeney/moto-lights/internal/supervisor"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	opts    *config.Options
	cfgFile string
	log     *zap.SugaredLogger
}

func newRootCommand() *cobra.Command {
	a := &app{opts: config.NewOptions(), log: logging.Nop()}

	root := &cobra.Command{
		Use:           "moto-lights",
		Short:         "Motorcycle lighting and signal controller",
		Long:          "moto-lights samples the rider's controls every poll period and drives the lamp, indicator and horn power channels.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
		RunE: a.run,
	}

	fs := root.PersistentFlags()
	fs.StringVar(&a.cfgFile, "config", "", "Path to a YAML config file.")
	a.opts.AddFlags(fs)

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the control loop (default)",
			Args:  cobra.NoArgs,
			RunE:  a.run,
		},
		&cobra.Command{
			Use:   "print-state",
			Short: "Sample the controls once and print them",
			Args:  cobra.NoArgs,
			RunE:  a.printState,
		},
		newLampTestCommand(a),
	)

	return root
}

// setup resolves options and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.Load(a.opts, cmd.Flags(), a.cfgFile); err != nil {
		return err
	}
	if err := a.opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	l, err := logging.New(a.opts.Log)
	if err != nil {
		return err
	}
	a.log = l
	return nil
}

func (a *app) run(cmd *cobra.Command, _ []string) error {
	// Initialize GPIO
	hw, err := gpio.Open(a.opts.GPIOConfig())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := hw.Close(); err != nil {
			a.log.Errorf("release gpio: %v", err)
		}
	}()

	var collector gpio.Collector = hw.Collector
	var commands <-chan supervisor.Command

	// Initialize MQTT bench panel
	if a.opts.MQTT.Broker != "" {
		panel := mqtt.NewPanel(a.opts.MQTT.CommandQueue, a.log)
		sub, err := mqtt.NewSubscriber(a.opts.SubscriberOptions(), panel, a.log)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer sub.Close()

		commands = panel.Commands()
		if a.opts.Input == config.InputMQTT {
			collector = panel
		}
	}

	clk := clock.NewMonotonic(a.opts.ClockHz)
	sup := supervisor.New(a.opts.StartLocked, a.log)

	a.log.Infof("started: input=%s poll=%v clock=%dHz state=%s", a.opts.Input, a.opts.Poll, clk.Hz(), sup.State())

	ticker := time.NewTicker(a.opts.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return runLoop(cmd.Context(), collector, hw.Sink, clk, sup, commands, a.log, ticker.C, sigCh)
}

// runLoop runs one control cycle per tick until a signal arrives or I/O fails.
// It owns the system state; nothing else reads or writes it.
func runLoop(ctx context.Context, collector gpio.Collector, sink gpio.Sink, clk clock.Source, sup *supervisor.Supervisor, commands <-chan supervisor.Command, log *zap.SugaredLogger, tick <-chan time.Time, sig <-chan os.Signal) error {
	start := time.Now()
	state := logic.NewSystemState()
	blink := clock.BlinkTiming(clk)
	var cycles uint64

	if !sup.Active() {
		if err := sink.Apply(logic.Intents{}); err != nil {
			return fmt.Errorf("outputs off: %w", err)
		}
	}

	for {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down: uptime=%s cycles=%d", s, logging.Uptime(time.Since(start)), cycles)
			if err := sink.Apply(logic.Intents{}); err != nil {
				return fmt.Errorf("outputs off: %w", err)
			}
			return nil

		case cmd := <-commands:
			changed, err := sup.Handle(ctx, cmd)
			if err != nil {
				log.Warnf("command %s: %v", cmd, err)
				continue
			}
			if changed && !sup.Active() {
				if err := sink.Apply(logic.Intents{}); err != nil {
					return fmt.Errorf("outputs off: %w", err)
				}
			}

		case <-tick:
			if !sup.Active() {
				continue
			}

			in, err := collector.Sample()
			if err != nil {
				return fmt.Errorf("sample inputs: %w", err)
			}
			now := clk.Now()

			next, intents := logic.Tick(in, state, now, blink)
			for _, c := range logic.Changes(state, next) {
				if c.Active {
					log.Infof("signal: %s on at tick %d", c.Signal, c.Since)
				} else {
					log.Infof("signal: %s off at tick %d", c.Signal, now)
				}
			}
			state = next

			if err := sink.Apply(intents); err != nil {
				return fmt.Errorf("apply outputs: %w", err)
			}
			cycles++
		}
	}
}

func (a *app) printState(cmd *cobra.Command, _ []string) error {
	hw, err := gpio.Open(a.opts.GPIOConfig())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer hw.Close()

	in, err := hw.Collector.Sample()
	if err != nil {
		return fmt.Errorf("sample inputs: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatInput(in))
	return nil
}

// formatInput renders a snapshot one control per line.
func formatInput(in logic.Input) string {
	controls := []struct {
		name string
		on   bool
	}{
		{"IGNITION", in.Ignition},
		{"KILL_SWITCH", in.KillSwitch},
		{"SIDE_STAND", in.SideStand},
		{"LIGHT_ON", in.LightOn},
		{"FULL_BEAM", in.FullBeam},
		{"TURN_LEFT", in.TurnLeft},
		{"TURN_RIGHT", in.TurnRight},
		{"HAZARD", in.Hazard},
		{"BRAKE_FRONT", in.BrakeFront},
		{"BRAKE_REAR", in.BrakeRear},
		{"HORN", in.Horn},
	}
	var out string
	for _, c := range controls {
		out += fmt.Sprintf("%-12s %s\n", c.name+":", stateString(c.on))
	}
	return out
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
