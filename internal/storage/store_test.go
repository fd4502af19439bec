package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	. "github.com/onsi/gomega"

	"github.com/san-kum/velctl/internal/config"
	"github.com/san-kum/velctl/internal/sim"
)

func runPreset(g *WithT, name string) (*config.Config, *sim.Result) {
	cfg := config.GetPreset(name)
	r := sim.New(logr.Discard())
	for _, m := range sim.DefaultMetrics() {
		r.AddMetric(m)
	}
	result, err := r.Run(context.Background(), cfg, nil)
	g.Expect(err).NotTo(HaveOccurred())
	return cfg, result
}

func metaFor(cfg *config.Config) RunMetadata {
	return RunMetadata{Scenario: cfg.Name, Source: "preset", Dt: cfg.Dt, Envs: cfg.Envs, Dim: cfg.Dim}
}

func TestStoreSaveLoad(t *testing.T) {
	g := NewWithT(t)

	st := New(t.TempDir())
	g.Expect(st.Init()).To(Succeed())

	cfg, result := runPreset(g, "swarm")
	runID, err := st.Save(metaFor(cfg), result)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runID).To(HavePrefix("swarm_"))

	meta, err := st.Load(runID)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(meta.Ticks).To(Equal(cfg.Ticks))
	g.Expect(meta.Agents).To(Equal([]string{"leader", "heavy", "damped"}))
	g.Expect(meta.Metrics["leader"]).To(HaveKey("control_effort"))
	g.Expect(meta.Controllers["damped"]).To(HaveKeyWithValue("Ti", 8.0))

	_, loaded, err := st.LoadResult(runID)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(loaded.Times).To(Equal(result.Times))
	for i := range result.Agents {
		for tick := range result.Forces[i] {
			g.Expect(loaded.Forces[i][tick].Data).To(Equal(result.Forces[i][tick].Data))
		}
	}
}

func TestStoreSaveLoad_SubMicrosecondDt(t *testing.T) {
	g := NewWithT(t)

	st := New(t.TempDir())
	g.Expect(st.Init()).To(Succeed())

	cfg := config.GetPreset("step")
	cfg.Dt = 1e-7
	cfg.Ticks = 20
	r := sim.New(logr.Discard())
	result, err := r.Run(context.Background(), cfg, nil)
	g.Expect(err).NotTo(HaveOccurred())

	runID, err := st.Save(metaFor(cfg), result)
	g.Expect(err).NotTo(HaveOccurred())

	_, loaded, err := st.LoadResult(runID)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(loaded.Times).To(Equal(result.Times))
	g.Expect(loaded.Times[1]).To(Equal(1e-7))
}

func TestStoreList(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	st := New(dir)
	g.Expect(st.Init()).To(Succeed())

	runs, err := st.List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(BeEmpty())

	cfg, result := runPreset(g, "step")
	_, err = st.Save(metaFor(cfg), result)
	g.Expect(err).NotTo(HaveOccurred())
	cfg, result = runPreset(g, "clamp")
	_, err = st.Save(metaFor(cfg), result)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(os.MkdirAll(filepath.Join(dir, "junk"), 0755)).To(Succeed())

	runs, err = st.List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(HaveLen(2))
}

func TestStoreList_MissingDir(t *testing.T) {
	g := NewWithT(t)

	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(BeEmpty())
}

func TestStoreLoad_NotFound(t *testing.T) {
	g := NewWithT(t)

	_, err := New(t.TempDir()).Load("missing")
	g.Expect(err).To(HaveOccurred())
}
