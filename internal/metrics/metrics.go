// Package metrics scores bench runs. Every metric implements bench.Metric
// and is reset at the start of each run.
package metrics

import "github.com/san-kum/setpoint/internal/bench"

// Default returns the standard scorecard for a mechanism whose "at target"
// tolerance is tolerance.
func Default(tolerance float64) []bench.Metric {
	return []bench.Metric{
		NewTrackingError(),
		NewSettleTime(tolerance),
		NewStability(tolerance),
		NewControlEffort(),
		NewMachineShare(),
	}
}

// Names lists the metrics Default produces, for flag validation.
func Names() []string {
	ms := Default(1)
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name()
	}
	return names
}
