package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/casim/internal/sim"
)

// TraceSVG draws the reference and vehicle attitude of a trace against the
// tick index. Non-finite samples break the attitude line.
func TraceSVG(trace sim.Trace, width, height int) string {
	if len(trace) < 2 || width < 1 || height < 1 {
		return ""
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, r := range trace {
		for _, v := range []float64{r.Reference, r.Attitude} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			minY, maxY = math.Min(minY, v), math.Max(maxY, v)
		}
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	last := float64(len(trace) - 1)
	point := func(i int, v float64) (float64, float64) {
		return float64(i) / last * float64(width), float64(height) - (v-minY)/rangeY*float64(height)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	series := []struct {
		color string
		value func(sim.Record) float64
	}{
		{"#666688", func(r sim.Record) float64 { return r.Reference }},
		{"#00ffff", func(r sim.Record) float64 { return r.Attitude }},
	}
	for _, s := range series {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, s.color))
		pen := false
		for i, r := range trace {
			v := s.value(r)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				pen = false
				continue
			}
			x, y := point(i, v)
			if pen {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" M%.1f,%.1f", x, y))
				pen = true
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
