package viz

import (
	"math"
	"strings"

	"github.com/san-kum/casim/internal/ca"
)

var shades = []rune{' ', '░', '▒', '▓', '█'}

// Lattice renders |attitude| of every cell relative to limit, one rune per
// cell. The vehicle cell is drawn as ◆ and non-finite cells as ×.
func Lattice(g *ca.Grid, limit float64) string {
	shape := g.Shape()
	vr, vc := g.VehicleIndex()
	if !(limit > 0) {
		limit = 1
	}

	var sb strings.Builder
	for r := 0; r < shape.Rows; r++ {
		for c := 0; c < shape.Cols; c++ {
			cell := g.At(r, c)
			switch {
			case r == vr && c == vc:
				sb.WriteRune('◆')
			case !cell.IsFinite():
				sb.WriteRune('×')
			default:
				level := math.Abs(cell.A) / limit
				idx := int(level * float64(len(shades)-1))
				sb.WriteRune(shades[max(0, min(idx, len(shades)-1))])
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
