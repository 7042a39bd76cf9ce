package sim_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/casim/internal/control"
	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/sim"
)

var _ = Describe("Episode", func() {
	var cfg sim.Config

	BeforeEach(func() {
		cfg = sim.DefaultConfig()
		cfg.Controller.Gains = control.Gains{Kp: 1.0, Ki: 0.1, Kd: 0.05}
		cfg.Turbulence.Sigma = 0
	})

	Context("nominal PID on a calm 30x30 lattice", func() {
		It("tracks the step without crashing", func() {
			res, err := sim.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(sim.StatusCompleted))
			Expect(res.Trace).To(HaveLen(cfg.Horizon))

			s := metrics.Summarize(res, cfg.Reference, metrics.DefaultRecovery())
			Expect(s.Crash).To(BeFalse())
			Expect(s.Recovered()).To(BeTrue())
			Expect(s.TimeToRecover).To(BeNumerically("<", cfg.Horizon))
			Expect(s.Overshoot).To(BeNumerically("<", 0.1))

			last := res.Trace[len(res.Trace)-1]
			Expect(last.Attitude).To(BeNumerically("~", cfg.Reference.Step, 0.01))
		})
	})

	Context("attitude limit below the commanded step", func() {
		It("crashes before the horizon", func() {
			cfg.Limits.Attitude = 0.5 * cfg.Reference.Step

			res, err := sim.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Crashed()).To(BeTrue())
			Expect(len(res.Trace)).To(BeNumerically("<", cfg.Horizon))
			Expect(res.CrashTick).To(Equal(len(res.Trace) - 1))

			s := metrics.Summarize(res, cfg.Reference, metrics.DefaultRecovery())
			Expect(s.Crash).To(BeTrue())
		})
	})

	Context("failure window covering the whole episode", func() {
		It("applies nothing and spends no effort", func() {
			cfg.Failure.Start, cfg.Failure.End = 0, cfg.Horizon

			res, err := sim.Run(cfg)
			Expect(err).NotTo(HaveOccurred())

			s := metrics.Summarize(res, cfg.Reference, metrics.DefaultRecovery())
			Expect(s.ControlEffort).To(BeZero())
			Expect(s.Recovered()).To(BeFalse())

			open := cfg
			open.Failure = sim.Failure{SaturationScale: 1}
			open.Controller = control.Config{Kind: control.KindNone}
			want, err := sim.Run(open)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Trace.Attitudes()).To(Equal(want.Trace.Attitudes()))
		})
	})

	Context("model-based controllers", func() {
		DescribeTable("recover from the step",
			func(kind control.Kind) {
				cfg.Controller.Kind = kind
				res, err := sim.Run(cfg)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Crashed()).To(BeFalse())

				last := res.Trace[len(res.Trace)-1]
				Expect(math.Abs(last.Attitude - cfg.Reference.Step)).To(BeNumerically("<", 0.02))
			},
			Entry("lqr", control.KindLQR),
			Entry("mpc", control.KindMPC),
		)
	})

	Context("determinism", func() {
		It("reproduces a turbulent episode from its seed", func() {
			cfg.Turbulence.Sigma = 0.05
			cfg.Seed = 11

			a, err := sim.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			b, err := sim.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(a).To(Equal(b))

			cfg.Seed = 12
			c, err := sim.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Trace.Disturbances()).NotTo(Equal(a.Trace.Disturbances()))
		})
	})

	Context("invalid configuration", func() {
		It("fails at construction with a typed error", func() {
			cfg.Failure.Start, cfg.Failure.End = 100, 50

			_, err := sim.NewEpisode(cfg)
			Expect(err).To(MatchError(sim.ErrInvalidConfig))

			var ce *sim.ConfigError
			Expect(err).To(BeAssignableToTypeOf(ce))
		})
	})
})
