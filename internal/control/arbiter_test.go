package control_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/setpoint/internal/control"
)

var _ = Describe("Arbiter", func() {
	var (
		cfg control.ArbiterConfig
		arb *control.Arbiter
		t   float64
	)

	decide := func(err, human float64, calibrated bool) control.Decision {
		t += 0.02
		return arb.Decide(control.Input{Error: err, Human: human, Calibrated: calibrated}, t)
	}

	BeforeEach(func() {
		cfg = control.DefaultArbiterConfig()
		cfg.AssertThreshold = 0.2
		cfg.ReleaseThreshold = 0.1
		cfg.MinHumanPower = 0.0
		cfg.MaxHumanPower = 1.0
		cfg.MaxMachinePower = 0.5
		cfg.Tolerance = 0.05

		var err error
		arb, err = control.NewArbiter(cfg, control.NewPID(4, 0, 0))
		Expect(err).NotTo(HaveOccurred())
		t = 0
	})

	It("starts uncalibrated", func() {
		Expect(arb.State()).To(Equal(control.Uncalibrated))
		Expect(arb.HumanLatched()).To(BeFalse())
	})

	Describe("calibration veto", func() {
		DescribeTable("never yields machine control while uncalibrated",
			func(err, human float64) {
				d := decide(err, human, false)
				Expect(d.Kind).To(Equal(control.UncalibratedFallback))
				Expect(arb.State()).To(Equal(control.Uncalibrated))
			},
			Entry("large error, no human", 10.0, 0.0),
			Entry("small error, no human", 0.01, 0.0),
			Entry("large error, full stick", 10.0, 1.0),
			Entry("negative error, reverse stick", -3.0, -0.5),
		)

		It("coasts when the fallback is coast", func() {
			cfg.Fallback = control.FallbackCoast
			arb, _ = control.NewArbiter(cfg, control.NewPID(4, 0, 0))
			Expect(decide(1, 1, false).Power).To(BeZero())
		})

		It("clamps human power to the safe band", func() {
			cfg.Fallback = control.FallbackClampedHuman
			cfg.SafePower = 0.25
			arb, _ = control.NewArbiter(cfg, control.NewPID(4, 0, 0))
			Expect(decide(1, 1, false).Power).To(BeNumerically("==", 0.25))
			Expect(decide(1, -1, false).Power).To(BeNumerically("==", -0.25))
			Expect(decide(1, 0, false).Power).To(BeZero())
		})
	})

	Describe("human control", func() {
		It("asserts above the assert threshold", func() {
			d := decide(0, 0.5, true)
			Expect(d.Kind).To(Equal(control.HumanControl))
			Expect(d.Power).To(BeNumerically("~", 0.5, 1e-9))
			Expect(arb.State()).To(Equal(control.HumanControlled))
		})

		It("does not assert inside the hysteresis band", func() {
			d := decide(1, 0.15, true)
			Expect(d.Kind).To(Equal(control.MachineControl))
		})

		It("holds human control between the release and assert thresholds", func() {
			Expect(decide(1, 0.3, true).Kind).To(Equal(control.HumanControl))
			for _, h := range []float64{0.19, 0.15, 0.11, -0.12, 0.1, -0.1} {
				Expect(decide(1, h, true).Kind).To(Equal(control.HumanControl), "input %v", h)
			}
			Expect(decide(1, 0.09, true).Kind).To(Equal(control.MachineControl))
			Expect(arb.HumanLatched()).To(BeFalse())
		})

		It("scales power between the configured bounds", func() {
			cfg.MinHumanPower = 0.1
			cfg.MaxHumanPower = 0.6
			arb, _ = control.NewArbiter(cfg, control.NewPID(4, 0, 0))
			Expect(decide(0, 1, true).Power).To(BeNumerically("~", 0.6, 1e-9))
			Expect(decide(0, -0.5, true).Power).To(BeNumerically("~", -0.35, 1e-9))
		})

		It("overrides coast when the mechanism is already at target", func() {
			Expect(decide(0, -0.9, true).Kind).To(Equal(control.HumanControl))
		})
	})

	Describe("machine control", func() {
		It("coasts with zero power inside tolerance", func() {
			d := decide(0.04, 0.05, true)
			Expect(d).To(Equal(control.Decision{Kind: control.Coast}))
			Expect(arb.State()).To(Equal(control.Coasting))
		})

		It("drives toward the target and clamps power", func() {
			d := decide(0.1, 0, true)
			Expect(d.Kind).To(Equal(control.MachineControl))
			Expect(d.Power).To(BeNumerically("~", 0.4, 1e-9))

			d = decide(-2, 0, true)
			Expect(d.Power).To(BeNumerically("==", -0.5))
			Expect(arb.State()).To(Equal(control.MachineControlled))
		})

		It("resets the PID when leaving machine control", func() {
			pid := control.NewPID(1, 10, 0)
			arb, _ = control.NewArbiter(cfg, pid)
			decide(0.2, 0, true)
			decide(0.2, 0, true)
			decide(0, 0, true)

			d := decide(0.1, 0, true)
			Expect(d.Power).To(BeNumerically("~", 0.1, 1e-9))
		})
	})

	It("maps every input combination to exactly one decision", func() {
		for _, cal := range []bool{false, true} {
			for _, h := range []float64{-1, -0.15, 0, 0.15, 1} {
				for _, e := range []float64{-5, 0, 0.01, 5} {
					d := decide(e, h, cal)
					Expect([]control.Kind{control.Coast, control.HumanControl, control.MachineControl, control.UncalibratedFallback}).To(ContainElement(d.Kind))
					Expect(d.Power).To(And(BeNumerically(">=", -1), BeNumerically("<=", 1)))
				}
			}
		}
	})

	Describe("configuration", func() {
		DescribeTable("rejects inconsistent settings",
			func(mutate func(*control.ArbiterConfig)) {
				c := control.DefaultArbiterConfig()
				mutate(&c)
				_, err := control.NewArbiter(c, control.NewPID(1, 0, 0))
				Expect(err).To(MatchError(control.ErrInvalidArbiterConfig))
			},
			Entry("release above assert", func(c *control.ArbiterConfig) { c.ReleaseThreshold = 0.5; c.AssertThreshold = 0.2 }),
			Entry("zero assert", func(c *control.ArbiterConfig) { c.AssertThreshold = 0; c.ReleaseThreshold = 0 }),
			Entry("zero release", func(c *control.ArbiterConfig) { c.ReleaseThreshold = 0 }),
			Entry("min above max", func(c *control.ArbiterConfig) { c.MinHumanPower = 0.9; c.MaxHumanPower = 0.5 }),
			Entry("machine power above one", func(c *control.ArbiterConfig) { c.MaxMachinePower = 1.5 }),
			Entry("zero tolerance", func(c *control.ArbiterConfig) { c.Tolerance = 0 }),
			Entry("unknown fallback", func(c *control.ArbiterConfig) { c.Fallback = "brake" }),
		)

		It("rejects a nil PID", func() {
			_, err := control.NewArbiter(control.DefaultArbiterConfig(), nil)
			Expect(err).To(MatchError(control.ErrInvalidArbiterConfig))
		})
	})
})
