package viz

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	. "github.com/onsi/gomega"

	"github.com/san-kum/velctl/internal/config"
	"github.com/san-kum/velctl/internal/sim"
)

func newReplay(g *WithT) Replay {
	result, err := sim.New(logr.Discard()).Run(context.Background(), config.GetPreset("windup"), nil)
	g.Expect(err).NotTo(HaveOccurred())
	return NewReplay("windup_test", result, 0)
}

func key(m Replay, k string) Replay {
	var msg tea.KeyMsg
	switch k {
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	return next.(Replay)
}

func TestReplay_Playback(t *testing.T) {
	g := NewWithT(t)

	m := newReplay(g)
	g.Expect(m.fps).To(Equal(30))
	g.Expect(m.envs).To(Equal(4))

	next, cmd := m.Update(TickMsg{})
	m = next.(Replay)
	g.Expect(cmd).NotTo(BeNil())
	g.Expect(m.tick).To(Equal(1))

	m = key(m, "+")
	next, _ = m.Update(TickMsg{})
	m = next.(Replay)
	g.Expect(m.tick).To(Equal(3))

	m = key(m, "space")
	g.Expect(m.running).To(BeFalse())
	m = key(m, "right")
	g.Expect(m.tick).To(Equal(4))
	m = key(m, "left")
	m = key(m, "left")
	g.Expect(m.tick).To(Equal(2))
	m = key(m, "down")
	g.Expect(m.env).To(Equal(1))
}

func TestReplay_StopsAtEnd(t *testing.T) {
	g := NewWithT(t)

	m := newReplay(g)
	for i := 0; i < 10; i++ {
		m = key(m, "+")
	}
	for i := 0; i < 20; i++ {
		next, _ := m.Update(TickMsg{})
		m = next.(Replay)
	}
	g.Expect(m.tick).To(Equal(len(m.result.Times) - 1))
	g.Expect(m.running).To(BeFalse())
}

func TestReplay_View(t *testing.T) {
	g := NewWithT(t)

	m := newReplay(g)
	for i := 0; i < 5; i++ {
		next, _ := m.Update(TickMsg{})
		m = next.(Replay)
	}
	view := m.View()
	g.Expect(view).To(ContainSubstring("windup_test"))
	g.Expect(view).To(ContainSubstring("saturated"))
	g.Expect(view).To(ContainSubstring("f1"))
}

func TestBar(t *testing.T) {
	g := NewWithT(t)

	g.Expect(Bar(0, 1, 10)).To(Equal("     │     "))
	g.Expect(strings.Count(Bar(1, 1, 10), "█")).To(Equal(5))
	g.Expect(strings.Count(Bar(-5, 1, 10), "█")).To(Equal(5))
	g.Expect(strings.Count(Bar(0.4, 1, 10), "█")).To(Equal(2))
}
