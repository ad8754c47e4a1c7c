// Package config holds the controller's runtime options and loads them from
// flags, MOTO_LIGHTS_* environment variables and an optional YAML file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/sweeney/moto-lights/internal/clock"
	"github.com/sweeney/moto-lights/internal/gpio"
	"github.com/sweeney/moto-lights/internal/logging"
	"github.com/sweeney/moto-lights/internal/mqtt"
)

// EnvPrefix is prepended to environment variable names, e.g. MOTO_LIGHTS_POLL.
const EnvPrefix = "MOTO_LIGHTS"

// Input sources.
const (
	InputGPIO = "gpio"
	InputMQTT = "mqtt"
)

const (
	minClockHz = 1_000
	maxClockHz = 1 << 31
)

// Options is the full option tree.
type Options struct {
	// Poll is the control cycle period.
	Poll time.Duration `json:"poll" mapstructure:"poll"`

	// ClockHz is the tick frequency of the timestamp counter.
	ClockHz uint64 `json:"clock-hz" mapstructure:"clock-hz"`

	// Input selects where driver controls come from: gpio or mqtt.
	Input string `json:"input" mapstructure:"input"`

	// StartLocked starts the supervisor locked; an unlock command is then
	// needed before any output is driven.
	StartLocked bool `json:"start-locked" mapstructure:"start-locked"`

	GPIO *GPIOOptions     `json:"gpio" mapstructure:"gpio"`
	MQTT *MQTTOptions     `json:"mqtt" mapstructure:"mqtt"`
	Log  *logging.Options `json:"log" mapstructure:"log"`
}

// GPIOOptions names the chip and line offsets of the controller board.
type GPIOOptions struct {
	Chip    string `json:"chip" mapstructure:"chip"`
	Mux0    []int  `json:"mux0" mapstructure:"mux0"`
	Mux1    []int  `json:"mux1" mapstructure:"mux1"`
	Outputs []int  `json:"outputs" mapstructure:"outputs"`
}

// MQTTOptions configures the bench panel connection. An empty broker
// disables MQTT unless the input source is mqtt.
type MQTTOptions struct {
	Broker         string        `json:"broker" mapstructure:"broker"`
	ClientID       string        `json:"client-id" mapstructure:"client-id"`
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	CommandQueue   int           `json:"command-queue" mapstructure:"command-queue"`
}

// NewOptions returns Options with default values.
func NewOptions() *Options {
	def := gpio.DefaultConfig()
	return &Options{
		Poll:    time.Millisecond,
		ClockHz: clock.DefaultHz,
		Input:   InputGPIO,
		GPIO: &GPIOOptions{
			Chip:    def.Chip,
			Mux0:    def.Mux0,
			Mux1:    def.Mux1,
			Outputs: def.Outputs,
		},
		MQTT: &MQTTOptions{
			ClientID:       "moto-lights",
			ConnectTimeout: 10 * time.Second,
			CommandQueue:   mqtt.DefaultCommandQueue,
		},
		Log: logging.NewOptions(),
	}
}

// AddFlags registers every option on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&o.Poll, "poll", o.Poll, "Control cycle period.")
	fs.Uint64Var(&o.ClockHz, "clock-hz", o.ClockHz, "Tick frequency of the timestamp counter.")
	fs.StringVar(&o.Input, "input", o.Input, "Driver control source (gpio or mqtt).")
	fs.BoolVar(&o.StartLocked, "start-locked", o.StartLocked, "Start locked until an unlock command arrives.")

	fs.StringVar(&o.GPIO.Chip, "gpio.chip", o.GPIO.Chip, "GPIO chip device name.")
	fs.IntSliceVar(&o.GPIO.Mux0, "gpio.mux0", o.GPIO.Mux0, "Mux 0 lines: select0,select1,select2,data.")
	fs.IntSliceVar(&o.GPIO.Mux1, "gpio.mux1", o.GPIO.Mux1, "Mux 1 lines: select0,select1,select2,data.")
	fs.IntSliceVar(&o.GPIO.Outputs, "gpio.outputs", o.GPIO.Outputs, "Power channel lines, channel 0 first.")

	fs.StringVar(&o.MQTT.Broker, "mqtt.broker", o.MQTT.Broker, "MQTT broker address for the bench panel (empty to disable).")
	fs.StringVar(&o.MQTT.ClientID, "mqtt.client-id", o.MQTT.ClientID, "MQTT client ID.")
	fs.DurationVar(&o.MQTT.ConnectTimeout, "mqtt.connect-timeout", o.MQTT.ConnectTimeout, "MQTT connect timeout.")
	fs.IntVar(&o.MQTT.CommandQueue, "mqtt.command-queue", o.MQTT.CommandQueue, "Pending lock/unlock commands before new ones are dropped.")

	o.Log.AddFlags(fs)
}

// Validate checks every option and returns all problems found.
func (o *Options) Validate() error {
	var errs []error

	if o.Poll <= 0 {
		errs = append(errs, fmt.Errorf("poll: must be positive, got %v", o.Poll))
	}
	if o.ClockHz < minClockHz || o.ClockHz > maxClockHz {
		errs = append(errs, fmt.Errorf("clock-hz: must be between %d and %d, got %d", minClockHz, uint64(maxClockHz), o.ClockHz))
	}
	switch o.Input {
	case InputGPIO:
	case InputMQTT:
		if o.MQTT.Broker == "" {
			errs = append(errs, fmt.Errorf("mqtt.broker: required when input is %s", InputMQTT))
		}
	default:
		errs = append(errs, fmt.Errorf("input: must be %s or %s, got %q", InputGPIO, InputMQTT, o.Input))
	}
	if o.MQTT.CommandQueue <= 0 {
		errs = append(errs, fmt.Errorf("mqtt.command-queue: must be positive, got %d", o.MQTT.CommandQueue))
	}
	if err := o.GPIOConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("gpio: %w", err))
	}
	errs = append(errs, o.Log.Validate()...)

	return multierr.Combine(errs...)
}

// GPIOConfig converts the GPIO options to a gpio.Config using the
// board's fixed input map and channel table.
func (o *Options) GPIOConfig() gpio.Config {
	cfg := gpio.DefaultConfig()
	cfg.Chip = o.GPIO.Chip
	cfg.Mux0 = o.GPIO.Mux0
	cfg.Mux1 = o.GPIO.Mux1
	cfg.Outputs = o.GPIO.Outputs
	return cfg
}

// SubscriberOptions converts the MQTT options for the bench panel subscriber.
func (o *Options) SubscriberOptions() mqtt.Options {
	return mqtt.Options{
		Broker:         o.MQTT.Broker,
		ClientID:       o.MQTT.ClientID,
		ConnectTimeout: o.MQTT.ConnectTimeout,
		Controls:       o.Input == InputMQTT,
	}
}

// Load resolves o from the flags in fs, the environment and, when file is
// set, a config file. Explicit flags win over the environment, which wins
// over the file.
func Load(o *Options, fs *pflag.FlagSet, file string) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", file, err)
		}
	}

	if err := v.Unmarshal(o); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
