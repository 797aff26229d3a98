package config

import (
	"fmt"
	"math"
	"os"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/setpoint/internal/control"
	"github.com/san-kum/setpoint/internal/integrators"
	"github.com/san-kum/setpoint/internal/mechanism"
	"github.com/san-kum/setpoint/internal/profile"
	"github.com/san-kum/setpoint/internal/setpoint"
)

const (
	DefaultCycle    = 0.02
	DefaultDuration = 6.0
)

type Config struct {
	Name       string                `yaml:"name,omitempty"`
	Mechanism  string                `yaml:"mechanism"`
	Integrator string                `yaml:"integrator"`
	Cycle      float64               `yaml:"cycle"`
	Duration   float64               `yaml:"duration"`
	Profile    ProfileConfig         `yaml:"profile"`
	Arbiter    control.ArbiterConfig `yaml:"arbiter"`
	PID        PIDConfig             `yaml:"pid"`
	Plant      mechanism.Params      `yaml:"plant"`
	Input      InputConfig           `yaml:"input"`
	Script     []Event               `yaml:"script,omitempty"`
}

type ProfileConfig struct {
	Enabled             bool `yaml:"enabled"`
	profile.Constraints `yaml:",inline"`
}

type PIDConfig struct {
	Kp            float64 `yaml:"kp"`
	Ki            float64 `yaml:"ki"`
	Kd            float64 `yaml:"kd"`
	IntegralLimit float64 `yaml:"integral_limit"`
}

// InputConfig feeds setpoint.Validator.
type InputConfig struct {
	Deadband  float64 `yaml:"deadband"`
	SensorMin float64 `yaml:"sensor_min"`
	SensorMax float64 `yaml:"sensor_max"`
}

// Event is one scripted bench action at time At. Unset fields leave the
// corresponding input alone.
type Event struct {
	At        float64  `yaml:"at"`
	Target    *float64 `yaml:"target,omitempty"`
	Human     *float64 `yaml:"human,omitempty"`
	Calibrate bool     `yaml:"calibrate,omitempty"`
}

func (c *Config) Validator() setpoint.Validator {
	return setpoint.Validator{
		Deadband: c.Input.Deadband,
		Min:      c.Input.SensorMin,
		Max:      c.Input.SensorMax,
	}
}

func (c *Config) NewPID() *control.PID {
	pid := control.NewPID(c.PID.Kp, c.PID.Ki, c.PID.Kd)
	pid.IntegralLimit = c.PID.IntegralLimit
	pid.OutputLimit = c.Arbiter.MaxMachinePower
	return pid
}

// Steps is the number of control cycles in a run.
func (c *Config) Steps() int {
	return int(math.Round(c.Duration / c.Cycle))
}

func (c *Config) Validate() error {
	switch {
	case !(c.Cycle > 0) || math.IsInf(c.Cycle, 0):
		return pkgerrors.Wrapf(ErrInvalidConfig, "cycle %v", c.Cycle)
	case !(c.Duration > 0) || math.IsInf(c.Duration, 0):
		return pkgerrors.Wrapf(ErrInvalidConfig, "duration %v", c.Duration)
	case c.Input.Deadband < 0 || c.Input.Deadband >= 1:
		return pkgerrors.Wrapf(ErrInvalidConfig, "deadband %v", c.Input.Deadband)
	case c.Input.SensorMin > c.Input.SensorMax:
		return pkgerrors.Wrapf(ErrInvalidConfig, "sensor range [%v, %v]", c.Input.SensorMin, c.Input.SensorMax)
	}

	if !contains(mechanism.Kinds(), c.Mechanism) {
		return pkgerrors.Wrapf(ErrInvalidConfig, "unknown mechanism %q", c.Mechanism)
	}
	if !contains(integrators.Names(), c.Integrator) {
		return pkgerrors.Wrapf(ErrInvalidConfig, "unknown integrator %q", c.Integrator)
	}
	if c.Profile.Enabled {
		if err := c.Profile.Constraints.Validate(); err != nil {
			return invalid(err)
		}
	}
	if err := c.Arbiter.Validate(); err != nil {
		return invalid(err)
	}
	if err := c.Plant.Validate(); err != nil {
		return invalid(err)
	}
	for i, ev := range c.Script {
		if math.IsNaN(ev.At) || ev.At < 0 {
			return pkgerrors.Wrapf(ErrInvalidConfig, "script event %d at %v", i, ev.At)
		}
	}
	return nil
}

// invalid keeps both ErrInvalidConfig and the component's own sentinel
// visible to errors.Is.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// DefaultConfig is the arm stow move.
func DefaultConfig() *Config {
	return armBase()
}

// Load reads path over the defaults for the mechanism it names, so a file
// only needs the fields it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read config %s", path)
	}

	var head struct {
		Mechanism string `yaml:"mechanism"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, pkgerrors.Wrapf(err, "parse config %s", path)
	}

	cfg := DefaultConfig()
	if base := Base(head.Mechanism); base != nil {
		cfg = base
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, pkgerrors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, pkgerrors.WithMessage(err, path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return pkgerrors.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return pkgerrors.Wrapf(err, "write config %s", path)
	}
	return nil
}
