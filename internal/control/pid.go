package control

import (
	"math"

	pkgerrors "github.com/pkg/errors"
)

type PID struct {
	Kp float64
	Ki float64
	Kd float64
	// IntegralLimit bounds the accumulated error; 0 disables the bound.
	IntegralLimit float64
	// OutputLimit bounds the returned power; 0 disables the bound.
	OutputLimit float64

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		first: true,
	}
}

// Update returns the control output for err (target minus measurement)
// observed at time t.
func (p *PID) Update(err, t float64) float64 {
	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.limit(p.Kp * err)
	}

	dt := t - p.prevT
	if dt > 0 {
		p.integral += err * dt
		if p.IntegralLimit > 0 {
			p.integral = clamp(p.integral, -p.IntegralLimit, p.IntegralLimit)
		}
		derivative := (err - p.prevErr) / dt

		u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative

		p.prevErr = err
		p.prevT = t

		return p.limit(u)
	}
	return p.limit(p.Kp*err + p.Ki*p.integral)
}

func (p *PID) limit(u float64) float64 {
	if p.OutputLimit > 0 {
		return clamp(u, -p.OutputLimit, p.OutputLimit)
	}
	return u
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":            p.Kp,
		"Ki":            p.Ki,
		"Kd":            p.Kd,
		"IntegralLimit": p.IntegralLimit,
		"OutputLimit":   p.OutputLimit,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return pkgerrors.Wrapf(ErrParameterBounds, "%s = %v", name, value)
	}
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "IntegralLimit":
		p.IntegralLimit = value
	case "OutputLimit":
		p.OutputLimit = value
	default:
		return pkgerrors.Wrapf(ErrUnknownParam, "%q", name)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}
