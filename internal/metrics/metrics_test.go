package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/setpoint/internal/bench"
	"github.com/san-kum/setpoint/internal/control"
)

func sample(t, reading, target float64, kind control.Kind, power float64) bench.Sample {
	return bench.Sample{
		Time:       t,
		Reading:    reading,
		Target:     target,
		Reference:  target,
		Kind:       kind,
		Power:      power,
		Calibrated: true,
	}
}

func feed(m bench.Metric, samples ...bench.Sample) float64 {
	m.Reset()
	for _, s := range samples {
		m.Observe(s)
	}
	return m.Value()
}

func TestControlEffort(t *testing.T) {
	got := feed(NewControlEffort(),
		sample(0, 0, 1, control.MachineControl, 0.5),
		sample(1, 0, 1, control.MachineControl, -0.3),
		sample(2, 1, 1, control.Coast, 0),
	)
	if math.Abs(got-0.8/3) > 1e-12 {
		t.Errorf("expected mean |power| %.4f, got %.4f", 0.8/3, got)
	}
	if NewControlEffort().Value() != 0 {
		t.Error("empty metric should read 0")
	}
}

func TestControlEffortBreakdown(t *testing.T) {
	c := NewControlEffort()
	feed(c,
		sample(0, 0, 1, control.MachineControl, 0.6),
		sample(1, 0, 1, control.HumanControl, -0.2),
		sample(2, 1, 1, control.Coast, 0),
	)
	if got := c.Share(control.MachineControl); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("expected machine share 0.75, got %v", got)
	}
	if got := c.Share(control.HumanControl); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("expected human share 0.25, got %v", got)
	}
	if c.Peak() != 0.6 {
		t.Errorf("expected peak 0.6, got %v", c.Peak())
	}

	c.Reset()
	if c.Value() != 0 || c.Peak() != 0 || c.Share(control.MachineControl) != 0 {
		t.Error("reset should clear every total")
	}
}

func TestTrackingErrorIgnoresHumanCycles(t *testing.T) {
	got := feed(NewTrackingError(),
		sample(0, 0, 3, control.MachineControl, 1),
		sample(1, 0, 4, control.HumanControl, 1),
		sample(2, 0, 4, control.UncalibratedFallback, 0),
		sample(3, 4, 4, control.Coast, 0),
	)
	// sqrt((9 + 0) / 2)
	if math.Abs(got-math.Sqrt(4.5)) > 1e-12 {
		t.Errorf("expected rms %.4f, got %.4f", math.Sqrt(4.5), got)
	}
}

func TestMachineShare(t *testing.T) {
	got := feed(NewMachineShare(),
		sample(0, 0, 1, control.MachineControl, 1),
		sample(1, 0, 1, control.HumanControl, 1),
		sample(2, 0, 1, control.MachineControl, 1),
		sample(3, 1, 1, control.Coast, 0),
	)
	if got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestSettleTime(t *testing.T) {
	tests := []struct {
		name     string
		readings []float64
		expected float64
	}{
		{"never left", []float64{1, 1, 1}, 0},
		{"settles", []float64{0, 0.5, 1, 1}, 2},
		{"overshoot resets", []float64{0, 1, 1.2, 1, 1}, 3},
		{"never settles", []float64{0, 0.2, 0.4}, 2},
	}

	for _, tt := range tests {
		samples := make([]bench.Sample, len(tt.readings))
		for i, r := range tt.readings {
			samples[i] = sample(float64(i), r, 1, control.MachineControl, 0)
		}
		if got := feed(NewSettleTime(0.05), samples...); got != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, got)
		}
	}
}

func TestStabilitySkipsUncalibrated(t *testing.T) {
	uncal := sample(0, 5, 1, control.UncalibratedFallback, 0)
	uncal.Calibrated = false

	got := feed(NewStability(0.1),
		uncal,
		sample(1, 1, 1, control.Coast, 0),
		sample(2, 0.5, 1, control.MachineControl, 1),
	)
	if got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestDefaultNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, n := range Names() {
		if seen[n] {
			t.Errorf("duplicate metric name %s", n)
		}
		seen[n] = true
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 metrics, got %d", len(seen))
	}
}
