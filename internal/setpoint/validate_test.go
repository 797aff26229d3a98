package setpoint

import (
	"math"
	"testing"
)

func TestValidReading(t *testing.T) {
	v := Validator{Min: -1, Max: 1}
	tests := []struct {
		x    float64
		want bool
	}{
		{0, true},
		{1, true},
		{1.5, false},
		{math.NaN(), false},
		{math.Inf(-1), false},
	}
	for _, tt := range tests {
		if got := v.ValidReading(tt.x); got != tt.want {
			t.Errorf("ValidReading(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}

	if !DefaultValidator().ValidReading(1e6) {
		t.Error("default validator should not range-check")
	}
}

func TestTargetScreening(t *testing.T) {
	v := Validator{Min: -1, Max: 1}
	tests := []struct {
		name string
		in   float64
		want float64
		ok   bool
	}{
		{"inside", 0.5, 0.5, true},
		{"above range", 4, 1, true},
		{"below range", -2, -1, true},
		{"nan", math.NaN(), 0, false},
		{"infinite", math.Inf(1), 0, false},
	}
	for _, tt := range tests {
		got, ok := v.Target(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s: Target(%v) = %v, %v, want %v, %v", tt.name, tt.in, got, ok, tt.want, tt.ok)
		}
	}

	if got, ok := DefaultValidator().Target(1e6); !ok || got != 1e6 {
		t.Errorf("default validator should not clamp targets, got %v", got)
	}
}

func TestHumanSanitising(t *testing.T) {
	v := DefaultValidator()
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"nan", math.NaN(), 0},
		{"deadband", 0.01, 0},
		{"negative deadband", -0.019, 0},
		{"passes", 0.5, 0.5},
		{"clamped high", 3, 1},
		{"clamped low", -2, -1},
	}
	for _, tt := range tests {
		if got := v.Human(tt.in); got != tt.want {
			t.Errorf("%s: Human(%v) = %v, want %v", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestGenericHelpers(t *testing.T) {
	type meters float64
	if e := Error(meters(3), meters(1)); e != 2 {
		t.Errorf("Error = %v", e)
	}
	if m := Magnitude(meters(-0.5)); m != 0.5 {
		t.Errorf("Magnitude = %v", m)
	}
	if !WithinTolerance(meters(1), meters(1.004), 0.005) {
		t.Error("expected values within tolerance")
	}
	if WithinTolerance(meters(1), meters(1.1), 0.005) {
		t.Error("expected values outside tolerance")
	}
}
