// Package control decides who drives a mechanism each control cycle.
//
//   - [PID]: closed-loop controller with integral and output clamps
//   - [Arbiter]: per-cycle human/machine arbitration with a hysteresis
//     latch on human input and a calibration veto
//
// # Usage
//
//	pid := control.NewPID(4.0, 0.0, 0.2)
//	arb, err := control.NewArbiter(control.DefaultArbiterConfig(), pid)
//	if err != nil {
//	    return err
//	}
//	// every cycle
//	d := arb.Decide(control.Input{Error: target - current, Human: stick, Calibrated: gate.IsCalibrated()}, now)
//	motor.SetPower(d.Power)
//
// The arbiter holds no state besides the latch, the last [State] and the
// PID memory. It never returns an error at run time; configuration
// problems are reported by [NewArbiter].
package control
