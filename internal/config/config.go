// Package config loads the controller configuration from a TOML file,
// falling back to built-in defaults for anything unset.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultConfigFile is looked for in the working directory when no path is
// given on the command line.
const DefaultConfigFile = "controller.toml"

// Device describes one relay-driven device.
type Device struct {
	Name               string `toml:"name"`
	Channel            int    `toml:"channel"`
	MaxDurationSeconds int    `toml:"max_duration_seconds"`
}

// Config is the full controller configuration.
type Config struct {
	HTTPAddr string `toml:"http_addr"`
	Broker   string `toml:"broker"` // MQTT broker URL, empty disables publishing

	GPIO struct {
		Chip      string `toml:"chip"`
		RelayPins []int  `toml:"relay_pins"` // one pin per relay channel, in channel order
	} `toml:"gpio"`

	I2C struct {
		Bus  string `toml:"bus"` // "" selects the first available bus
		Addr int    `toml:"addr"`
	} `toml:"i2c"`

	Servo struct {
		Channel     int `toml:"channel"`
		MinPulseUS  int `toml:"min_pulse_us"`
		MaxPulseUS  int `toml:"max_pulse_us"`
		FrequencyHz int `toml:"frequency_hz"`
	} `toml:"servo"`

	Tasks struct {
		File                 string `toml:"file"`
		Max                  int    `toml:"max"`
		CheckIntervalSeconds int    `toml:"check_interval_seconds"`
	} `toml:"tasks"`

	AutoOff struct {
		// MaxDurationSeconds caps the ?duration= parameter on relay requests.
		MaxDurationSeconds int `toml:"max_duration_seconds"`
		// Supersede makes a newer auto-off timer for a channel suppress
		// older pending ones. Off by default for compatibility with the
		// historical no-supersession behavior.
		Supersede bool `toml:"supersede"`
	} `toml:"auto_off"`

	Devices []Device `toml:"devices"`
}

// Default returns the built-in configuration: four relays (three pumps and
// a DC motor) and one servo valve.
func Default() *Config {
	cfg := &Config{
		HTTPAddr: ":80",
	}
	cfg.GPIO.Chip = "gpiochip0"
	cfg.GPIO.RelayPins = []int{14, 25, 26, 27}
	cfg.I2C.Addr = 0x40
	cfg.Servo.Channel = 0
	cfg.Servo.MinPulseUS = 500
	cfg.Servo.MaxPulseUS = 2500
	cfg.Servo.FrequencyHz = 50
	cfg.Tasks.File = "tasks.json"
	cfg.Tasks.Max = 20
	cfg.Tasks.CheckIntervalSeconds = 60
	cfg.AutoOff.MaxDurationSeconds = 300
	cfg.Devices = []Device{
		{Name: "pump1", Channel: 0, MaxDurationSeconds: 3600},
		{Name: "pump2", Channel: 1, MaxDurationSeconds: 3600},
		{Name: "pump3", Channel: 2, MaxDurationSeconds: 3600},
		{Name: "dcmotor", Channel: 3, MaxDurationSeconds: 7200},
	}
	return cfg
}

// Load reads the configuration. With an explicit path the file must exist;
// otherwise DefaultConfigFile is used if present, and the defaults alone if
// not.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return cfg, nil
		}
		path = DefaultConfigFile
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	if len(c.GPIO.RelayPins) == 0 {
		return fmt.Errorf("no relay pins configured")
	}
	if c.Servo.MinPulseUS <= 0 || c.Servo.MinPulseUS >= c.Servo.MaxPulseUS {
		return fmt.Errorf("invalid servo pulse bounds %d-%dus", c.Servo.MinPulseUS, c.Servo.MaxPulseUS)
	}
	if c.Servo.FrequencyHz <= 0 {
		return fmt.Errorf("invalid servo frequency %d Hz", c.Servo.FrequencyHz)
	}
	if c.AutoOff.MaxDurationSeconds <= 0 {
		return fmt.Errorf("invalid auto-off ceiling %d", c.AutoOff.MaxDurationSeconds)
	}
	seen := map[string]bool{}
	for _, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("device with empty name")
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate device %q", d.Name)
		}
		seen[d.Name] = true
		if d.Channel < 0 || d.Channel >= len(c.GPIO.RelayPins) {
			return fmt.Errorf("device %q: channel %d out of range (have %d pins)",
				d.Name, d.Channel, len(c.GPIO.RelayPins))
		}
	}
	return nil
}

// DeviceByName looks up a relay device by its tag.
func (c *Config) DeviceByName(name string) (Device, bool) {
	for _, d := range c.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}

// DeviceNames returns the device tag for each relay channel, in channel
// order. Channels without a configured device get a generic name.
func (c *Config) DeviceNames() []string {
	names := make([]string, len(c.GPIO.RelayPins))
	for i := range names {
		names[i] = fmt.Sprintf("relay%d", i)
	}
	for _, d := range c.Devices {
		if d.Channel >= 0 && d.Channel < len(names) {
			names[d.Channel] = d.Name
		}
	}
	return names
}
