// Package mechanism provides simulated mechanisms that implement
// [setpoint.Subsystem]: a pivoting [Arm], a linear [Elevator] and a
// flywheel [Scorer].
//
// Each one owns a [plant.Motor], an integrator and a [calibration.Gate].
// The sensor reports the true position shifted by an unknown encoder
// offset until the gate is calibrated, which is what makes the
// uncalibrated veto observable on the bench.
//
// # Usage
//
//	arm, err := mechanism.NewArm(params, integrators.NewRK4(), clk)
//	cmd := setpoint.NewCommand[units.Radians]("arm", arm, arbiter)
//	for {
//		cmd.Execute(clk.Now())
//		arm.Step(0.02)
//	}
package mechanism
