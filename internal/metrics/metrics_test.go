package metrics

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/velctl/internal/agent"
	"github.com/san-kum/velctl/internal/control"
)

func ptr(v float64) *float64 { return &v }

func tick(g *WithT, a *agent.Agent, c *control.VelocityController, desired ...[]float64) {
	for env, d := range desired {
		g.Expect(a.SetDesired(env, d)).To(Succeed())
	}
	g.Expect(c.ProcessForce()).To(Succeed())
}

func TestControlEffort(t *testing.T) {
	g := NewWithT(t)

	a := agent.New("a", 2, 2, 1)
	c, err := control.NewVelocityController(a, 0.1, [3]float64{1, 0, 0}, control.FormStandard)
	g.Expect(err).NotTo(HaveOccurred())

	m := NewControlEffort()
	g.Expect(m.Value()).To(BeZero())

	tick(g, a, c, []float64{3, 4}, []float64{0, 0})
	m.Observe(0, 0, a, c)
	tick(g, a, c, []float64{0, 1}, []float64{0, 1})
	m.Observe(1, 0.1, a, c)

	g.Expect(m.Value()).To(BeNumerically("~", (5+0+1+1)/4.0, 1e-12))
	g.Expect(m.Name()).To(Equal("control_effort"))

	m.Reset()
	g.Expect(m.Value()).To(BeZero())
}

func TestSaturation(t *testing.T) {
	g := NewWithT(t)

	a := agent.New("a", 2, 2, 1).WithMaxForce(ptr(2))
	c, err := control.NewVelocityController(a, 0.1, [3]float64{1, 0, 0}, control.FormStandard)
	g.Expect(err).NotTo(HaveOccurred())

	m := NewSaturation()
	tick(g, a, c, []float64{10, 0}, []float64{0.5, 0})
	m.Observe(0, 0, a, c)
	g.Expect(m.Value()).To(Equal(0.5))
}

func TestSaturation_Range(t *testing.T) {
	g := NewWithT(t)

	a := agent.New("a", 1, 2, 1).WithForceRange(ptr(1))
	c, err := control.NewVelocityController(a, 0.1, [3]float64{1, 0, 0}, control.FormStandard)
	g.Expect(err).NotTo(HaveOccurred())

	m := NewSaturation()
	tick(g, a, c, []float64{0.2, -3})
	m.Observe(0, 0, a, c)
	tick(g, a, c, []float64{0.2, 0.1})
	m.Observe(1, 0.1, a, c)
	g.Expect(m.Value()).To(Equal(0.5))
}

func TestIntegratorSaturation(t *testing.T) {
	g := NewWithT(t)

	a := agent.New("a", 1, 1, 1)
	c, err := control.NewVelocityController(a, 0.1, [3]float64{1, 1, 0}, control.FormStandard)
	g.Expect(err).NotTo(HaveOccurred())

	m := NewIntegratorSaturation()
	for i := 0; i < 10; i++ {
		tick(g, a, c, []float64{50})
		m.Observe(i, float64(i)*0.1, a, c)
	}
	// windup limit 10 reached on the second tick (0.1*50 per tick)
	g.Expect(m.Value()).To(Equal(0.9))
}

func TestTrackingError(t *testing.T) {
	g := NewWithT(t)

	a := agent.New("a", 2, 2, 1)
	c, err := control.NewVelocityController(a, 0.1, [3]float64{1, 0, 0}, control.FormStandard)
	g.Expect(err).NotTo(HaveOccurred())

	m := NewTrackingError()
	tick(g, a, c, []float64{3, 4}, []float64{0, 0})
	m.Observe(0, 0, a, c)
	g.Expect(m.Value()).To(BeNumerically("~", math.Sqrt(25.0/2), 1e-12))
}

func TestExporter(t *testing.T) {
	g := NewWithT(t)

	a := agent.New("a", 1, 2, 1).WithMaxForce(ptr(1))
	c, err := control.NewVelocityController(a, 0.1, [3]float64{1, 1, 0}, control.FormStandard)
	g.Expect(err).NotTo(HaveOccurred())

	e := NewExporter()
	for i := 0; i < 3; i++ {
		tick(g, a, c, []float64{5, 0})
		e.OnStep(i, float64(i)*0.1, []*agent.Agent{a}, []*control.VelocityController{c})
	}

	g.Expect(testutil.ToFloat64(e.ticks)).To(Equal(3.0))
	g.Expect(testutil.ToFloat64(e.forceNorm.WithLabelValues("a"))).To(BeNumerically("~", 1, 1e-12))
	g.Expect(testutil.ToFloat64(e.forceSaturated.WithLabelValues("a"))).To(Equal(3.0))
	g.Expect(testutil.ToFloat64(e.accumulatedError.WithLabelValues("a"))).To(BeNumerically("~", 1.5, 1e-12))

	path := filepath.Join(t.TempDir(), "velctl.prom")
	g.Expect(e.WriteTextfile(path)).To(Succeed())
	data, err := os.ReadFile(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(data)).To(ContainSubstring(`velctl_force_saturated_total{agent="a"} 3`))
	g.Expect(e.Registry()).NotTo(BeNil())
}
