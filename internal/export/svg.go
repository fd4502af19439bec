package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/velctl/internal/analysis"
)

// HodographSVG draws the force hodograph as a single path with axes through
// the origin. An empty string is returned for fewer than two points.
func HodographSVG(h *analysis.Hodograph, width, height int, strokeColor string) string {
	if h == nil || len(h.Points) < 2 {
		return ""
	}

	spanX, spanY := 1e-9, 1e-9
	for _, p := range h.Points {
		spanX = max(spanX, p.X, -p.X)
		spanY = max(spanY, p.Y, -p.Y)
	}
	spanX *= 1.1
	spanY *= 1.1

	toX := func(x float64) float64 { return (x/spanX + 1) / 2 * float64(width) }
	toY := func(y float64) float64 { return float64(height) - (y/spanY+1)/2*float64(height) }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#444466"/>
<line x1="%.1f" y1="0" x2="%.1f" y2="%d" stroke="#444466"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height,
		toY(0), width, toY(0),
		toX(0), toX(0), height,
		strokeColor)

	for i, p := range h.Points {
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", toX(p.X), toY(p.Y))
	}

	fmt.Fprintf(&sb, `"/>
<text x="4" y="14" fill="#888899" font-family="monospace" font-size="12">%s env %d: f%d vs f%d</text>
</svg>`, h.Agent, h.Env, h.XAxis, h.YAxis)
	return sb.String()
}

// SeriesSVG draws a time series as a polyline scaled to fit the canvas.
func SeriesSVG(times, values []float64, width, height int, strokeColor string) string {
	n := min(len(times), len(values))
	if n < 2 {
		return ""
	}

	minY, maxY := values[0], values[0]
	for _, v := range values[:n] {
		minY, maxY = min(minY, v), max(maxY, v)
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	t0, span := times[0], times[n-1]-times[0]
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<polyline fill="none" stroke="%s" stroke-width="1.5" points="`,
		width, height, width, height, strokeColor)

	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		x := (times[i] - t0) / span * float64(width)
		y := float64(height) - (values[i]-minY)/rangeY*float64(height)
		fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
