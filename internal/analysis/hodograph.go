package analysis

import (
	"strings"

	"github.com/san-kum/velctl/internal/sim"
)

type Point struct{ X, Y float64 }

// Hodograph is the path traced by two force components of one agent env.
type Hodograph struct {
	Agent        string
	Env          int
	XAxis, YAxis int
	Points       []Point
}

func ForceHodograph(result *sim.Result, agentIdx, env, xAxis, yAxis int) *Hodograph {
	if agentIdx < 0 || agentIdx >= len(result.Forces) || len(result.Forces[agentIdx]) == 0 {
		return nil
	}
	first := result.Forces[agentIdx][0]
	if env < 0 || env >= first.Rows || xAxis < 0 || yAxis < 0 || xAxis >= first.Cols || yAxis >= first.Cols {
		return nil
	}

	h := &Hodograph{
		Agent:  result.Agents[agentIdx],
		Env:    env,
		XAxis:  xAxis,
		YAxis:  yAxis,
		Points: make([]Point, 0, len(result.Forces[agentIdx])),
	}
	for _, f := range result.Forces[agentIdx] {
		row := f.Row(env)
		h.Points = append(h.Points, Point{X: row[xAxis], Y: row[yAxis]})
	}
	return h
}

// ToASCII rasterizes the hodograph with axes through the origin.
func (h *Hodograph) ToASCII(width, height int) string {
	if h == nil || len(h.Points) == 0 || width < 1 || height < 1 {
		return ""
	}

	minX, maxX := h.Points[0].X, h.Points[0].X
	minY, maxY := h.Points[0].Y, h.Points[0].Y
	for _, p := range h.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	// symmetric bounds keep the origin centered
	spanX := max(-minX, maxX, 1e-9) * 1.1
	spanY := max(-minY, maxY, 1e-9) * 1.1

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	col := func(x float64) int { return int((x + spanX) / (2 * spanX) * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y+spanY)/(2*spanY)*float64(height-1)) }

	c0, r0 := col(0), row(0)
	for r := 0; r < height; r++ {
		canvas[r][c0] = '│'
	}
	for c := 0; c < width; c++ {
		canvas[r0][c] = '─'
	}
	canvas[r0][c0] = '┼'

	for _, p := range h.Points {
		r, c := row(p.Y), col(p.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			canvas[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, line := range canvas {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}
