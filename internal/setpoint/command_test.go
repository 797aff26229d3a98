package setpoint_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/setpoint/internal/clock"
	"github.com/san-kum/setpoint/internal/control"
	"github.com/san-kum/setpoint/internal/profile"
	"github.com/san-kum/setpoint/internal/setpoint"
	"github.com/san-kum/setpoint/internal/units"
)

var _ = Describe("Command", func() {
	var (
		arm   *fakeArm
		arb   *control.Arbiter
		human float64
		t     float64
	)

	newCommand := func(opts ...setpoint.Option) *setpoint.Command[units.Radians] {
		opts = append([]setpoint.Option{
			setpoint.WithLogger(quietLogger()),
			setpoint.WithHumanInput(setpoint.HumanInputFunc(func() float64 { return human })),
		}, opts...)
		return setpoint.NewCommand[units.Radians]("arm", arm, arb, opts...)
	}

	step := func(cmd *setpoint.Command[units.Radians]) control.Decision {
		t += 0.02
		return cmd.Execute(t)
	}

	BeforeEach(func() {
		arm = &fakeArm{calibrated: true, tolerance: 0.01}
		cfg := control.DefaultArbiterConfig()
		cfg.MinHumanPower = 0
		cfg.MaxMachinePower = 0.5
		var err error
		arb, err = control.NewArbiter(cfg, control.NewPID(2, 0, 0))
		Expect(err).NotTo(HaveOccurred())
		human = 0
		t = 0
	})

	It("coasts once the mechanism is at its target", func() {
		arm.current, arm.target = 1.0, 1.005
		cmd := newCommand()
		d := step(cmd)
		Expect(d.Kind).To(Equal(control.Coast))
		Expect(arm.power).To(BeZero())
		Expect(cmd.Last().State).To(Equal(control.Coasting))
	})

	It("drives toward a distant target with clamped power", func() {
		arm.current, arm.target = 0, 2
		d := step(newCommand())
		Expect(d.Kind).To(Equal(control.MachineControl))
		Expect(arm.power).To(BeNumerically("==", 0.5))
	})

	DescribeTable("fails closed on a bad reading",
		func(current, target float64) {
			arm.current, arm.target = units.Radians(current), units.Radians(target)
			cmd := newCommand()
			human = 1
			d := step(cmd)
			Expect(d.Kind).To(Equal(control.Coast))
			Expect(arm.power).To(BeZero())
			Expect(cmd.Last().SensorFault).To(BeTrue())
		},
		Entry("NaN reading", math.NaN(), 1.0),
		Entry("infinite reading", math.Inf(1), 1.0),
		Entry("NaN target", 0.0, math.NaN()),
	)

	It("treats readings outside the validator range as faults", func() {
		arm.current, arm.target = 4, 0
		cmd := newCommand(setpoint.WithValidator(setpoint.Validator{Min: -math.Pi, Max: math.Pi}))
		Expect(step(cmd).Kind).To(Equal(control.Coast))
		Expect(cmd.Last().SensorFault).To(BeTrue())
	})

	It("clamps an out-of-range target instead of faulting", func() {
		arm.current, arm.target = 3, 10
		cmd := newCommand(setpoint.WithValidator(setpoint.Validator{Min: -math.Pi, Max: math.Pi}))
		Expect(step(cmd).Kind).To(Equal(control.MachineControl))
		Expect(cmd.Last().SensorFault).To(BeFalse())
		Expect(cmd.Last().Target).To(BeNumerically("==", math.Pi))

		arm.current = units.Radians(math.Pi)
		Expect(step(cmd).Kind).To(Equal(control.Coast))
		Expect(cmd.Last().SensorFault).To(BeFalse())
	})

	It("recovers once the reading is valid again", func() {
		arm.current, arm.target = units.Radians(math.NaN()), 1
		cmd := newCommand()
		step(cmd)
		arm.current = 0
		Expect(step(cmd).Kind).To(Equal(control.MachineControl))
		Expect(cmd.Last().SensorFault).To(BeFalse())
	})

	It("never closes the loop while uncalibrated", func() {
		arm.calibrated = false
		arm.current, arm.target = 0, 3
		cmd := newCommand()
		for i := 0; i < 20; i++ {
			Expect(step(cmd).Kind).To(Equal(control.UncalibratedFallback))
		}
		for _, p := range arm.powers {
			Expect(p).To(BeZero())
		}
	})

	It("hands the mechanism to the human and holds where it was released", func() {
		arm.current, arm.target = 0, 2
		cmd := newCommand()
		human = 0.6
		Expect(step(cmd).Kind).To(Equal(control.HumanControl))
		Expect(arm.power).To(BeNumerically(">", 0))

		arm.current = 0.7
		step(cmd)
		Expect(arm.target).To(BeNumerically("==", 0.7))

		human = 0
		Expect(step(cmd).Kind).To(Equal(control.Coast))
	})

	It("keeps the target during human control when hold is disabled", func() {
		arm.current, arm.target = 0, 2
		cmd := newCommand(setpoint.WithHoldOnRelease(false))
		human = -0.9
		step(cmd)
		Expect(arm.target).To(BeNumerically("==", 2))
	})

	Describe("CalibrateHere", func() {
		It("calibrates and moves the target to the current reading", func() {
			arm.calibrated = false
			arm.current, arm.target = 0.4, 2
			cmd := newCommand()
			Expect(cmd.CalibrateHere()).To(BeTrue())
			Expect(arm.calibrated).To(BeTrue())
			Expect(arm.target).To(BeNumerically("==", 0.4))
			Expect(step(cmd).Kind).To(Equal(control.Coast))
		})

		It("reports false for mechanisms without an override", func() {
			cmd := setpoint.NewCommand[units.Radians]("fixed", &fixedArm{}, arb, setpoint.WithLogger(quietLogger()))
			Expect(cmd.CalibrateHere()).To(BeFalse())
		})
	})

	Describe("with a motion profile", func() {
		var (
			clk  *clock.Manual
			prof *profile.Profile
		)

		BeforeEach(func() {
			clk = clock.NewManual(0)
			var err error
			prof, err = profile.New("arm", profile.Constraints{MaxVelocity: 1, MaxAcceleration: 1}, 0, clk)
			Expect(err).NotTo(HaveOccurred())
		})

		It("chases the recommendation rather than the raw target", func() {
			arm.current, arm.target = 0, 2
			cmd := newCommand(setpoint.WithProfile(prof))
			clk.Advance(0.5)
			step(cmd)
			Expect(cmd.Last().Reference).To(BeNumerically("<", 0.2))
			Expect(cmd.Last().Target).To(BeNumerically("==", 2))
		})

		It("re-anchors on the mechanism after human control", func() {
			arm.current, arm.target = 0, 2
			cmd := newCommand(setpoint.WithProfile(prof))
			human = 0.8
			arm.current, arm.velocity = 1.2, 0.3
			step(cmd)
			Expect(prof.Initial().Position).To(BeNumerically("==", 1.2))
			Expect(prof.Initial().Velocity).To(BeNumerically("==", 0.3))

			human = 0
			arm.target = 1.8
			step(cmd)
			Expect(prof.Goal().Position).To(BeNumerically("==", 1.8))
			Expect(cmd.Last().Reference).To(BeNumerically("~", 1.2, 1e-9))
		})

		It("re-anchors on the new frame after a reference calibrates the mechanism", func() {
			arm.calibrated = false
			arm.current, arm.target = 0, 0
			cmd := newCommand(setpoint.WithProfile(prof))
			step(cmd)

			arm.calibrated = true
			arm.current, arm.target = 0.5, 0.5
			Expect(step(cmd).Kind).To(Equal(control.Coast))
			Expect(cmd.Last().Reference).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("pins the profile when calibrated here", func() {
			arm.current, arm.target = 0.9, 0.9
			cmd := newCommand(setpoint.WithProfile(prof))
			cmd.CalibrateHere()
			Expect(prof.RecommendedPosition()).To(BeNumerically("==", 0.9))
			Expect(prof.IsFinished()).To(BeTrue())
		})
	})

	It("stops the mechanism on End", func() {
		arm.current, arm.target = 0, 2
		cmd := newCommand()
		step(cmd)
		cmd.End()
		Expect(arm.power).To(BeZero())
	})
})
