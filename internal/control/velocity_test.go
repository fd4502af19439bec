package control_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/velctl/internal/agent"
	"github.com/san-kum/velctl/internal/control"
	"github.com/san-kum/velctl/internal/dynamo"
)

func ptr(v float64) *float64 { return &v }

// shapeShifter reports a velocity batch of a different shape once wrong is set.
type shapeShifter struct {
	*agent.Agent
	wrong dynamo.Batch
}

func (s *shapeShifter) Velocity() dynamo.Batch {
	if s.wrong.Rows > 0 {
		return s.wrong
	}
	return s.Agent.Velocity()
}

func newAgent(envs, dim int) *agent.Agent {
	return agent.New("test", envs, dim, 1.0)
}

func mustController(a control.Agent, dt float64, params [3]float64, form control.Form) *control.VelocityController {
	c, err := control.NewVelocityController(a, dt, params, form)
	Expect(err).NotTo(HaveOccurred())
	return c
}

func step(a *agent.Agent, c *control.VelocityController, env int, desired, current []float64) dynamo.Batch {
	Expect(a.SetDesired(env, desired)).To(Succeed())
	Expect(a.SetVelocity(env, current)).To(Succeed())
	Expect(c.ProcessForce()).To(Succeed())
	return a.Force()
}

var _ = Describe("VelocityController", func() {
	Describe("construction", func() {
		It("reads standard form parameters directly", func() {
			c := mustController(newAgent(1, 1), 0.1, [3]float64{2, 5, 0.5}, control.FormStandard)
			Expect(c.Gain()).To(Equal(2.0))
			Expect(c.IntegralTimeConstant()).To(Equal(5.0))
			Expect(c.DerivativeTimeConstant()).To(Equal(0.5))
			Expect(c.UsesIntegrator()).To(BeTrue())
		})

		It("converts parallel form gains into time constants", func() {
			c := mustController(newAgent(1, 1), 0.1, [3]float64{2, 0.5, 1}, control.FormParallel)
			Expect(c.IntegralTimeConstant()).To(Equal(4.0))
			Expect(c.DerivativeTimeConstant()).To(Equal(0.5))
		})

		It("disables the integrator when kI is zero in parallel form", func() {
			c := mustController(newAgent(1, 1), 0.1, [3]float64{2, 0, 1}, control.FormParallel)
			Expect(c.UsesIntegrator()).To(BeFalse())
			Expect(c.IntegralTimeConstant()).To(BeZero())
			Expect(c.WindupLimit()).To(BeZero())
		})

		It("sizes the windup limit from the default force limit", func() {
			c := mustController(newAgent(1, 1), 0.1, [3]float64{1, 1, 0}, control.FormStandard)
			Expect(c.WindupLimit()).To(BeNumerically("~", 0.5*control.DefaultForceLimit*1/(0.1*1), 1e-12))
		})

		It("sizes the windup limit from the agent max force", func() {
			a := newAgent(1, 1).WithMaxForce(ptr(4))
			c := mustController(a, 0.5, [3]float64{2, 3, 0}, control.FormStandard)
			Expect(c.WindupLimit()).To(BeNumerically("~", 0.5*4*3/(0.5*2), 1e-12))
		})

		It("rejects unknown forms", func() {
			_, err := control.NewVelocityController(newAgent(1, 1), 0.1, [3]float64{1, 0, 0}, control.Form("series"))
			Expect(err).To(MatchError(control.ErrInvalidConfiguration))
		})

		DescribeTable("rejects form names that are not exactly canonical",
			func(form control.Form) {
				c, err := control.NewVelocityController(newAgent(1, 1), 0.1, [3]float64{2, 0.5, 1}, form)
				Expect(err).To(MatchError(control.ErrInvalidConfiguration))
				Expect(c).To(BeNil())
			},
			Entry("capitalized", control.Form("Parallel")),
			Entry("upper case", control.Form("STANDARD")),
			Entry("padded", control.Form(" standard")),
			Entry("empty", control.Form("")),
		)

		DescribeTable("rejects a negative gain or integral time with the integrator on",
			func(params [3]float64, form control.Form) {
				_, err := control.NewVelocityController(newAgent(1, 1), 0.1, params, form)
				Expect(err).To(MatchError(control.ErrDegenerateGain))
			},
			Entry("negative kP, standard", [3]float64{-1, 2, 0}, control.FormStandard),
			Entry("negative Ti, standard", [3]float64{1, -2, 0}, control.FormStandard),
			Entry("negative kI, parallel", [3]float64{1, -0.5, 0}, control.FormParallel),
			Entry("negative kP, parallel", [3]float64{-1, 0.5, 0}, control.FormParallel),
		)

		It("allows a negative gain without an integrator", func() {
			c := mustController(newAgent(1, 1), 0.1, [3]float64{-1, 0, 0}, control.FormStandard)
			Expect(c.UsesIntegrator()).To(BeFalse())
		})

		It("rejects non-positive dt", func() {
			_, err := control.NewVelocityController(newAgent(1, 1), 0, [3]float64{1, 0, 0}, control.FormStandard)
			Expect(err).To(MatchError(control.ErrInvalidConfiguration))
		})

		It("rejects non-finite parameters", func() {
			_, err := control.NewVelocityController(newAgent(1, 1), 0.1, [3]float64{math.NaN(), 0, 0}, control.FormStandard)
			Expect(err).To(MatchError(control.ErrInvalidConfiguration))
		})

		It("rejects a zero gain in parallel form", func() {
			_, err := control.NewVelocityController(newAgent(1, 1), 0.1, [3]float64{0, 1, 1}, control.FormParallel)
			Expect(err).To(MatchError(control.ErrDegenerateGain))
		})

		It("rejects a zero gain with an integrator in standard form", func() {
			_, err := control.NewVelocityController(newAgent(1, 1), 0.1, [3]float64{0, 2, 0}, control.FormStandard)
			Expect(err).To(MatchError(control.ErrDegenerateGain))
		})

		It("starts with zeroed state shaped like the agent velocity", func() {
			c := mustController(newAgent(3, 2), 0.1, [3]float64{1, 1, 1}, control.FormStandard)
			acc := c.AccumulatedError()
			prev := c.PreviousError()
			Expect(acc.Rows).To(Equal(3))
			Expect(acc.Cols).To(Equal(2))
			Expect(acc.MaxAbs()).To(BeZero())
			Expect(prev.SameShape(acc)).To(BeTrue())
			Expect(prev.MaxAbs()).To(BeZero())
		})
	})

	Describe("ProcessForce", func() {
		It("reproduces the worked step example", func() {
			a := newAgent(1, 1)
			c := mustController(a, 0.1, [3]float64{1, 5, 0}, control.FormStandard)

			f := step(a, c, 0, []float64{1}, []float64{0})
			Expect(f.Data[0]).To(BeNumerically("~", 1.02, 1e-12))
			Expect(c.AccumulatedError().Data[0]).To(BeNumerically("~", 0.1, 1e-12))
		})

		It("scales the force by mass", func() {
			a := agent.New("heavy", 1, 2, 3.0)
			c := mustController(a, 0.1, [3]float64{2, 0, 0}, control.FormStandard)
			f := step(a, c, 0, []float64{1, -1}, []float64{0, 0})
			Expect(f.Data).To(Equal([]float64{6, -6}))
		})

		It("adds the derivative of the error", func() {
			a := newAgent(1, 1)
			c := mustController(a, 0.5, [3]float64{1, 0, 2}, control.FormStandard)

			f := step(a, c, 0, []float64{1}, []float64{0})
			Expect(f.Data[0]).To(BeNumerically("~", 1+2*(1-0)/0.5, 1e-12))

			f = step(a, c, 0, []float64{1}, []float64{0.5})
			Expect(f.Data[0]).To(BeNumerically("~", 0.5+2*(0.5-1)/0.5, 1e-12))
		})

		It("stays at zero when velocity already matches", func() {
			a := newAgent(2, 2)
			c := mustController(a, 0.1, [3]float64{1, 2, 0.5}, control.FormStandard)
			for i := 0; i < 50; i++ {
				step(a, c, 0, []float64{0.3, -0.2}, []float64{0.3, -0.2})
				f := step(a, c, 1, []float64{1, 1}, []float64{1, 1})
				Expect(f.MaxAbs()).To(BeZero())
				Expect(c.AccumulatedError().MaxAbs()).To(BeZero())
			}
		})

		It("bounds the accumulated error by the windup limit", func() {
			a := newAgent(1, 2)
			c := mustController(a, 0.1, [3]float64{1, 1, 0}, control.FormStandard)
			limit := c.WindupLimit()

			for i := 0; i < 200; i++ {
				step(a, c, 0, []float64{5, -5}, []float64{0, 0})
				acc := c.AccumulatedError()
				Expect(acc.MaxAbs()).To(BeNumerically("<=", limit))
			}
			Expect(c.IntegratorSaturated()).To(BeTrue())
			Expect(c.AccumulatedError().Data).To(Equal([]float64{limit, -limit}))
		})

		It("keeps the integrator pinned until the error reverses", func() {
			a := newAgent(1, 1)
			c := mustController(a, 0.1, [3]float64{1, 1, 0}, control.FormStandard)
			limit := c.WindupLimit()

			for i := 0; i < 200; i++ {
				step(a, c, 0, []float64{5}, []float64{0})
			}
			Expect(c.AccumulatedError().Data[0]).To(Equal(limit))

			step(a, c, 0, []float64{0}, []float64{1})
			Expect(c.AccumulatedError().Data[0]).To(BeNumerically("~", limit-0.1, 1e-12))
			Expect(c.IntegratorSaturated()).To(BeFalse())
		})

		It("updates the previous error even without a derivative term", func() {
			a := newAgent(1, 2)
			c := mustController(a, 0.1, [3]float64{1, 0, 0}, control.FormStandard)

			step(a, c, 0, []float64{1, 2}, []float64{0, 0})
			step(a, c, 0, []float64{3, 1}, []float64{1, 0})
			Expect(c.PreviousError().Data).To(Equal([]float64{2, 1}))
		})

		It("leaves the integral state untouched when the integrator is off", func() {
			a := newAgent(1, 1)
			c := mustController(a, 0.1, [3]float64{1, 0, 0}, control.FormStandard)
			for i := 0; i < 10; i++ {
				step(a, c, 0, []float64{1}, []float64{0})
			}
			Expect(c.AccumulatedError().Data[0]).To(BeZero())
			Expect(c.IntegratorSaturated()).To(BeFalse())
		})

		It("applies the norm clamp before the range clamp", func() {
			a := newAgent(1, 2).WithMaxForce(ptr(2)).WithForceRange(ptr(1))
			c := mustController(a, 0.1, [3]float64{1, 0, 0}, control.FormStandard)

			f := step(a, c, 0, []float64{10, 1}, []float64{0, 0})
			Expect(f.Data[0]).To(Equal(1.0))
			Expect(f.Data[1]).To(BeNumerically("~", 2/math.Sqrt(101), 1e-12))

			// the opposite order would leave (1, 1)
			Expect(f.Data[1]).NotTo(BeNumerically("~", 1.0, 1e-3))
		})

		It("clamps each batch row by its own norm", func() {
			a := newAgent(2, 2).WithMaxForce(ptr(1))
			c := mustController(a, 0.1, [3]float64{1, 0, 0}, control.FormStandard)
			Expect(a.SetDesired(0, []float64{3, 4})).To(Succeed())
			Expect(a.SetDesired(1, []float64{0.3, 0.4})).To(Succeed())
			Expect(c.ProcessForce()).To(Succeed())

			f := a.Force()
			Expect(f.RowNorm(0)).To(BeNumerically("~", 1, 1e-12))
			Expect(f.Row(1)[0]).To(BeNumerically("~", 0.3, 1e-12))
			Expect(f.Row(1)[1]).To(BeNumerically("~", 0.4, 1e-12))
		})

		It("fails without mutating state when the agent shape changes", func() {
			a := &shapeShifter{Agent: newAgent(1, 2)}
			c := mustController(a, 0.1, [3]float64{1, 1, 1}, control.FormStandard)
			Expect(a.SetDesired(0, []float64{1, 1})).To(Succeed())
			Expect(c.ProcessForce()).To(Succeed())
			acc, prev := c.AccumulatedError(), c.PreviousError()

			a.wrong = dynamo.NewBatch(2, 2)
			Expect(c.ProcessForce()).To(MatchError(dynamo.ErrDimensionMismatch))
			Expect(c.AccumulatedError().Data).To(Equal(acc.Data))
			Expect(c.PreviousError().Data).To(Equal(prev.Data))
		})
	})

	Describe("Reset", func() {
		It("makes the next tick match a fresh controller", func() {
			a := newAgent(1, 2)
			c := mustController(a, 0.1, [3]float64{1.5, 2, 0.7}, control.FormStandard)
			for i := 0; i < 20; i++ {
				step(a, c, 0, []float64{float64(i), 1}, []float64{0, float64(-i)})
			}
			c.Reset()
			Expect(c.AccumulatedError().MaxAbs()).To(BeZero())
			Expect(c.PreviousError().MaxAbs()).To(BeZero())
			c.Reset()

			got := step(a, c, 0, []float64{2, 3}, []float64{1, 1}).Clone()

			fresh := newAgent(1, 2)
			fc := mustController(fresh, 0.1, [3]float64{1.5, 2, 0.7}, control.FormStandard)
			want := step(fresh, fc, 0, []float64{2, 3}, []float64{1, 1})
			Expect(got.Data).To(Equal(want.Data))
		})
	})

	Describe("form equivalence", func() {
		DescribeTable("standard [kP, Ti, Td] matches parallel [kP, kP/Ti, kP*Td]",
			func(kp, ti, td float64) {
				sa, pa := newAgent(1, 2), newAgent(1, 2)
				sc := mustController(sa, 0.1, [3]float64{kp, ti, td}, control.FormStandard)
				pc := mustController(pa, 0.1, [3]float64{kp, kp / ti, kp * td}, control.FormParallel)

				Expect(pc.IntegralTimeConstant()).To(Equal(sc.IntegralTimeConstant()))
				Expect(pc.DerivativeTimeConstant()).To(Equal(sc.DerivativeTimeConstant()))
				Expect(pc.WindupLimit()).To(Equal(sc.WindupLimit()))

				for i := 0; i < 30; i++ {
					d := []float64{math.Sin(float64(i) / 3), 2}
					v := []float64{0, math.Cos(float64(i) / 5)}
					sf := step(sa, sc, 0, d, v)
					pf := step(pa, pc, 0, d, v)
					Expect(pf.Data).To(Equal(sf.Data))
				}
			},
			Entry("unit gain", 1.0, 4.0, 0.5),
			Entry("gain 2", 2.0, 4.0, 0.25),
			Entry("fractional gain", 0.5, 2.0, 0.125),
		)
	})

	Describe("batching", func() {
		It("keeps environment histories independent", func() {
			params := [3]float64{1.2, 0.5, 0.3}
			shared := newAgent(2, 2).WithMaxForce(ptr(3))
			sc := mustController(shared, 0.1, params, control.FormStandard)

			solo := []*agent.Agent{newAgent(1, 2).WithMaxForce(ptr(3)), newAgent(1, 2).WithMaxForce(ptr(3))}
			soloCtrl := []*control.VelocityController{
				mustController(solo[0], 0.1, params, control.FormStandard),
				mustController(solo[1], 0.1, params, control.FormStandard),
			}

			for tick := 0; tick < 60; tick++ {
				histories := [2][2][]float64{
					{{4, 0}, {0, float64(tick) * 0.05}},
					{{math.Sin(float64(tick)), -1}, {0.5, 0.5}},
				}
				for env := 0; env < 2; env++ {
					Expect(shared.SetDesired(env, histories[env][0])).To(Succeed())
					Expect(shared.SetVelocity(env, histories[env][1])).To(Succeed())
				}
				Expect(sc.ProcessForce()).To(Succeed())

				for env := 0; env < 2; env++ {
					f := step(solo[env], soloCtrl[env], 0, histories[env][0], histories[env][1])
					Expect(shared.Force().Row(env)).To(Equal(f.Row(0)), "tick %d env %d", tick, env)
				}
			}
		})
	})
})
