package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/casim/internal/sim"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D holds the vehicle attitude (X) against its rate of
// change (Y).
type PhasePortrait2D struct {
	Points []Point
}

// NewPhasePortrait differentiates the attitude column of a trace. Non-finite
// samples, such as the last tick of a diverged episode, are dropped.
func NewPhasePortrait(trace sim.Trace, dt float64) *PhasePortrait2D {
	portrait := &PhasePortrait2D{
		Points: make([]Point, 0, len(trace)),
	}
	if dt <= 0 {
		return portrait
	}

	for k := 1; k < len(trace); k++ {
		a := trace[k].Attitude
		rate := (a - trace[k-1].Attitude) / dt
		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			continue
		}
		portrait.Points = append(portrait.Points, Point{X: a, Y: rate})
	}
	return portrait
}

// ReferenceCrossings returns the ticks at which the attitude crosses the
// reference upward. More than one crossing after a step means the loop
// rings.
func ReferenceCrossings(trace sim.Trace) []int {
	var ticks []int
	for k := 1; k < len(trace); k++ {
		prev := trace[k-1].Attitude - trace[k-1].Reference
		curr := trace[k].Attitude - trace[k].Reference
		if prev < 0 && curr >= 0 {
			ticks = append(ticks, trace[k].Tick)
		}
	}
	return ticks
}

// ASCII renders the portrait on a width x height character canvas.
func (p *PhasePortrait2D) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Zero-rate axis
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
