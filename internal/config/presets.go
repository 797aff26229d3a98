package config

import (
	"sort"

	"github.com/san-kum/setpoint/internal/control"
	"github.com/san-kum/setpoint/internal/mechanism"
	"github.com/san-kum/setpoint/internal/plant"
	"github.com/san-kum/setpoint/internal/profile"
)

func ptr(v float64) *float64 { return &v }

func armBase() *Config {
	arb := control.DefaultArbiterConfig()
	arb.Tolerance = 0.02
	return &Config{
		Mechanism:  mechanism.KindArm,
		Integrator: "rk4",
		Cycle:      DefaultCycle,
		Duration:   DefaultDuration,
		Profile: ProfileConfig{
			Enabled:     true,
			Constraints: profile.Constraints{MaxVelocity: 1.5, MaxAcceleration: 3},
		},
		Arbiter: arb,
		PID:     PIDConfig{Kp: 2.5, Ki: 0.5, Kd: 0.15, IntegralLimit: 0.5},
		Plant: mechanism.Params{
			Motor: plant.MotorParams{
				Inertia:       0.2,
				StallTorque:   4,
				Damping:       0.5,
				Gravity:       plant.GravityCosine,
				GravityTorque: 1,
				MinPosition:   -1.2,
				MaxPosition:   1.8,
			},
			Tolerance:       0.02,
			StartPosition:   -1.2,
			StartCalibrated: true,
		},
		Input: InputConfig{Deadband: 0.02},
		Script: []Event{
			{At: 0.5, Target: ptr(1.2)},
		},
	}
}

func elevatorBase() *Config {
	arb := control.DefaultArbiterConfig()
	arb.Tolerance = 0.01
	return &Config{
		Mechanism:  mechanism.KindElevator,
		Integrator: "rk4",
		Cycle:      DefaultCycle,
		Duration:   DefaultDuration,
		Profile: ProfileConfig{
			Enabled:     true,
			Constraints: profile.Constraints{MaxVelocity: 1, MaxAcceleration: 2},
		},
		Arbiter: arb,
		PID:     PIDConfig{Kp: 6, Ki: 2, Kd: 0.2, IntegralLimit: 0.2},
		Plant: mechanism.Params{
			Motor: plant.MotorParams{
				Inertia:       1,
				StallTorque:   40,
				Damping:       4,
				Gravity:       plant.GravityConstant,
				GravityTorque: 10,
				MinPosition:   0,
				MaxPosition:   1.5,
			},
			Tolerance:       0.01,
			EncoderOffset:   0.3,
			ReferenceSwitch: true,
			ReferenceValue:  0,
		},
		Input: InputConfig{Deadband: 0.02, SensorMin: -0.5, SensorMax: 2},
		Script: []Event{
			{At: 0.5, Target: ptr(1.0)},
		},
	}
}

func scorerBase() *Config {
	arb := control.DefaultArbiterConfig()
	arb.Tolerance = 5
	arb.MaxMachinePower = 1
	return &Config{
		Mechanism:  mechanism.KindScorer,
		Integrator: "euler",
		Cycle:      DefaultCycle,
		Duration:   DefaultDuration,
		Arbiter:    arb,
		PID:        PIDConfig{Kp: 0.004, Ki: 0.03, IntegralLimit: 25},
		Plant: mechanism.Params{
			Motor: plant.MotorParams{
				Inertia:     0.002,
				StallTorque: 0.5,
				Damping:     0.001,
			},
			Tolerance: 5,
		},
		Input: InputConfig{Deadband: 0.02},
		Script: []Event{
			{At: 0.2, Target: ptr(300)},
		},
	}
}

// Base returns the defaults for a mechanism kind, or nil.
func Base(kind string) *Config {
	switch kind {
	case mechanism.KindArm:
		return armBase()
	case mechanism.KindElevator:
		return elevatorBase()
	case mechanism.KindScorer:
		return scorerBase()
	}
	return nil
}

func preset(base func() *Config, name string, mutate func(*Config)) *Config {
	cfg := base()
	cfg.Name = name
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

var Presets = map[string]map[string]*Config{
	mechanism.KindArm: {
		"stow": preset(armBase, "stow", nil),
		"handoff": preset(armBase, "handoff", func(c *Config) {
			c.Script = []Event{
				{At: 0.5, Target: ptr(1.2)},
				{At: 1.2, Human: ptr(-0.6)},
				{At: 2.0, Human: ptr(0)},
				{At: 3.0, Target: ptr(0.8)},
			}
		}),
		"relative-encoder": preset(armBase, "relative-encoder", func(c *Config) {
			c.Plant.StartCalibrated = false
			c.Plant.EncoderOffset = 0.4
			c.Script = []Event{
				{At: 0.5, Target: ptr(1.2)},
				{At: 1.5, Calibrate: true},
				{At: 2.0, Target: ptr(0.6)},
			}
		}),
		"no-profile": preset(armBase, "no-profile", func(c *Config) {
			c.Profile.Enabled = false
		}),
	},
	mechanism.KindElevator: {
		"lift": preset(elevatorBase, "lift", nil),
		"home": preset(elevatorBase, "home", func(c *Config) {
			c.Plant.StartPosition = 0.8
			c.Script = []Event{
				{At: 2.0, Target: ptr(1.2)},
			}
		}),
		"manual": preset(elevatorBase, "manual", func(c *Config) {
			c.Script = []Event{
				{At: 0.2, Human: ptr(0.5)},
				{At: 1.0, Human: ptr(0.12)},
				{At: 1.4, Human: ptr(0)},
				{At: 3.0, Target: ptr(0.4)},
			}
		}),
	},
	mechanism.KindScorer: {
		"spinup": preset(scorerBase, "spinup", nil),
		"recover": preset(scorerBase, "recover", func(c *Config) {
			c.Script = []Event{
				{At: 0.2, Target: ptr(300)},
				{At: 3.0, Target: ptr(150)},
				{At: 4.5, Target: ptr(0)},
			}
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(mech, name string) *Config {
	mechPresets, ok := Presets[mech]
	if !ok {
		return nil
	}
	cfg, ok := mechPresets[name]
	if !ok {
		return nil
	}
	c := *cfg
	c.Script = append([]Event(nil), cfg.Script...)
	return &c
}

func ListPresets(mech string) []string {
	mechPresets, ok := Presets[mech]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(mechPresets))
	for name := range mechPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
