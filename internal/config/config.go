package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/flightdyn/internal/dynamo"
)

const (
	DefaultDt        = 0.01
	DefaultEndTime   = 60.0
	DefaultTickHz    = 100.0
	DefaultRetention = 120.0
	DefaultAirspeed  = 50.0
	DefaultAltitude  = 1500.0
	DefaultMaxAccel  = 20 * 9.80665
	DefaultMaxMoment = 5e5
)

type Config struct {
	Aircraft    string            `yaml:"aircraft"`
	Integrator  IntegratorConfig  `yaml:"integrator"`
	Limits      LimitsConfig      `yaml:"limits"`
	Trim        TrimConfig        `yaml:"trim"`
	Environment EnvironmentConfig `yaml:"environment"`
	Files       FilesConfig       `yaml:"files"`
	Autopilot   AutopilotConfig   `yaml:"autopilot"`
	Log         LogConfig         `yaml:"log"`
}

type IntegratorConfig struct {
	Method           string  `yaml:"method"`
	StartTime        float64 `yaml:"start_time"`
	Dt               float64 `yaml:"dt"`
	EndTime          float64 `yaml:"end_time"`
	Unlimited        bool    `yaml:"unlimited"`
	Realtime         bool    `yaml:"realtime"`
	TickHz           float64 `yaml:"tick_hz"`
	RetentionSeconds float64 `yaml:"retention_seconds"`
}

type LimitsConfig struct {
	MaxAccel  float64 `yaml:"max_accel"`
	MaxMoment float64 `yaml:"max_moment"`
}

// TrimConfig is the flight condition trimmed for at start. Heading is degrees.
type TrimConfig struct {
	Airspeed float64 `yaml:"airspeed"`
	Altitude float64 `yaml:"altitude"`
	Heading  float64 `yaml:"heading"`
}

type EnvironmentConfig struct {
	GroundElevation float64 `yaml:"ground_elevation"`
	Latitude        float64 `yaml:"latitude"`
	Longitude       float64 `yaml:"longitude"`
}

// FilesConfig points at optional input files. Empty paths use built-ins.
type FilesConfig struct {
	Aircraft          string `yaml:"aircraft"`
	InitialConditions string `yaml:"initial_conditions"`
	InitialControls   string `yaml:"initial_controls"`
}

// AutopilotConfig engages holds on the starting altitude and heading.
type AutopilotConfig struct {
	AltitudeHold bool `yaml:"altitude_hold"`
	HeadingHold  bool `yaml:"heading_hold"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Aircraft: "trainer",
		Integrator: IntegratorConfig{
			Method:           "rk4",
			Dt:               DefaultDt,
			EndTime:          DefaultEndTime,
			TickHz:           DefaultTickHz,
			RetentionSeconds: DefaultRetention,
		},
		Limits: LimitsConfig{
			MaxAccel:  DefaultMaxAccel,
			MaxMoment: DefaultMaxMoment,
		},
		Trim: TrimConfig{
			Airspeed: DefaultAirspeed,
			Altitude: DefaultAltitude,
		},
		Log: LogConfig{Level: "info"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	in := c.Integrator
	switch {
	case in.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %v", dynamo.ErrParameterBounds, in.Dt)
	case !in.Unlimited && in.EndTime <= in.StartTime:
		return fmt.Errorf("%w: end_time %v not after start_time %v", dynamo.ErrParameterBounds, in.EndTime, in.StartTime)
	case in.Realtime && in.TickHz <= 0:
		return fmt.Errorf("%w: tick_hz must be positive in real-time mode", dynamo.ErrParameterBounds)
	case c.Trim.Airspeed <= 0:
		return fmt.Errorf("%w: trim airspeed must be positive", dynamo.ErrParameterBounds)
	}
	return nil
}

// Ticks is the number of integration steps between start and end time.
func (c *Config) Ticks() int {
	in := c.Integrator
	if in.Unlimited || in.Dt <= 0 {
		return 0
	}
	return int((in.EndTime-in.StartTime)/in.Dt + 0.5)
}
