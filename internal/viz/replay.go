package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/velctl/internal/sim"
)

const (
	barWidth    = 40
	graphWidth  = 60
	graphHeight = 8
)

type TickMsg time.Time

// Replay steps through a recorded run.
type Replay struct {
	result  *sim.Result
	runID   string
	tick    int
	env     int
	envs    int
	speed   int
	running bool
	fps     int
	scale   float64
}

func NewReplay(runID string, result *sim.Result, fps int) Replay {
	envs := 0
	scale := 0.0
	for _, series := range result.Forces {
		for _, f := range series {
			envs = f.Rows
			if m := f.MaxAbs(); m > scale {
				scale = m
			}
		}
	}
	if fps <= 0 {
		fps = 30
	}
	return Replay{
		result:  result,
		runID:   runID,
		envs:    envs,
		speed:   1,
		running: true,
		fps:     fps,
		scale:   scale,
	}
}

func (m Replay) Init() tea.Cmd {
	return m.nextFrame()
}

func (m Replay) nextFrame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	last := len(m.result.Times) - 1

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "right", "l":
			if !m.running && m.tick < last {
				m.tick++
			}
		case "left", "h":
			if !m.running && m.tick > 0 {
				m.tick--
			}
		case "up", "k":
			if m.env > 0 {
				m.env--
			}
		case "down", "j":
			if m.env < m.envs-1 {
				m.env++
			}
		case "+", "=":
			m.speed = min(m.speed*2, 64)
		case "-":
			m.speed = max(m.speed/2, 1)
		case "home":
			m.tick = 0
		}
		return m, nil

	case TickMsg:
		if m.running {
			m.tick = min(m.tick+m.speed, last)
			if m.tick == last {
				m.running = false
			}
		}
		return m, m.nextFrame()
	}

	return m, nil
}

func (m Replay) View() string {
	if len(m.result.Times) == 0 {
		return "empty run\n"
	}

	var sb strings.Builder

	status := StatusPaused.Render("⏸ paused")
	if m.running {
		status = StatusRunning.Render("▶ playing")
	}
	sb.WriteString(Title.Render(fmt.Sprintf("velctl replay  %s", m.runID)))
	sb.WriteString("  " + status + "\n")
	sb.WriteString(Subtle.Render(fmt.Sprintf("tick %d/%d  t=%.3fs  env %d/%d  speed %dx",
		m.tick, len(m.result.Times)-1, m.result.Times[m.tick], m.env, m.envs-1, m.speed)))
	sb.WriteString("\n\n")

	var panels []string
	for i, name := range m.result.Agents {
		row := m.result.Forces[i][m.tick].Row(m.env)
		var lines []string
		lines = append(lines, Title.Render(name))
		for k, v := range row {
			lines = append(lines, fmt.Sprintf("f%d %+8.3f %s", k, v, Bar(v, m.scale, barWidth)))
		}

		norms := m.result.ForceNormSeries(i, m.env)[:m.tick+1]
		if len(norms) > 1 {
			lines = append(lines, asciigraph.Plot(norms,
				asciigraph.Height(graphHeight),
				asciigraph.Width(graphWidth),
				asciigraph.Caption("|F|"),
			))
		}
		panels = append(panels, Panel.Render(strings.Join(lines, "\n")))
	}
	sb.WriteString(strings.Join(panels, "\n"))
	sb.WriteString("\n")
	sb.WriteString(KeyHint.Render("space pause · ←/→ step · ↑/↓ env · +/- speed · home rewind · q quit"))
	sb.WriteString("\n")
	return sb.String()
}

// RunReplay starts the replay viewer on the terminal.
func RunReplay(runID string, result *sim.Result, fps int) error {
	p := tea.NewProgram(NewReplay(runID, result, fps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
