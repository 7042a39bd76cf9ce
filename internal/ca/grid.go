package ca

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

const minSide = 3

type Shape struct {
	Rows int `yaml:"rows" json:"rows"`
	Cols int `yaml:"cols" json:"cols"`
}

// ParseShape reads a "ROWSxCOLS" label such as "30x30".
func ParseShape(s string) (Shape, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return Shape{}, fmt.Errorf("grid shape %q: want ROWSxCOLS", s)
	}
	rows, err := strconv.Atoi(parts[0])
	if err != nil {
		return Shape{}, fmt.Errorf("grid shape %q: rows: %w", s, err)
	}
	cols, err := strconv.Atoi(parts[1])
	if err != nil {
		return Shape{}, fmt.Errorf("grid shape %q: cols: %w", s, err)
	}
	shape := Shape{Rows: rows, Cols: cols}
	return shape, shape.Validate()
}

func (s Shape) Validate() error {
	if s.Rows < minSide || s.Cols < minSide {
		return fmt.Errorf("grid shape %dx%d: each side must be >= %d", s.Rows, s.Cols, minSide)
	}
	return nil
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}

func (s Shape) Cells() int { return s.Rows * s.Cols }

// Init is the initial condition of a fresh lattice.
type Init struct {
	Attitude  float64 `yaml:"attitude" json:"attitude"`
	Stability float64 `yaml:"stability" json:"stability"`
	Speed     float64 `yaml:"speed" json:"speed"`
	Jitter    float64 `yaml:"jitter" json:"jitter"`
}

func DefaultInit() Init {
	return Init{
		Attitude:  0,
		Stability: 0.8,
		Speed:     1.0,
		Jitter:    0.01,
	}
}

func (in Init) Validate() error {
	if in.Jitter < 0 || math.IsNaN(in.Jitter) {
		return fmt.Errorf("init jitter must be >= 0, got %v", in.Jitter)
	}
	if in.Stability < 0 || in.Stability > 1 {
		return fmt.Errorf("init stability must be in [0, 1], got %v", in.Stability)
	}
	for _, v := range []float64{in.Attitude, in.Speed} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("init fields must be finite")
		}
	}
	return nil
}

// Cell is a snapshot of one lattice site.
type Cell struct {
	A float64 `json:"a"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

func (c Cell) IsFinite() bool {
	for _, x := range [...]float64{c.A, c.S, c.V} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Grid is a double-buffered lattice. Fields are stored row-major.
type Grid struct {
	shape   Shape
	vehicle int

	a, s, v    []float64
	na, ns, nv []float64
}

// New builds a lattice from the initial condition. Jitter is drawn from rng;
// the vehicle cell attitude is set exactly to init.Attitude.
func New(shape Shape, init Init, rng *rand.Rand) (*Grid, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if err := init.Validate(); err != nil {
		return nil, err
	}
	if init.Jitter > 0 && rng == nil {
		return nil, fmt.Errorf("random source is required for jittered init")
	}

	n := shape.Cells()
	g := &Grid{
		shape:   shape,
		vehicle: (shape.Rows/2)*shape.Cols + shape.Cols/2,
		a:       make([]float64, n),
		s:       make([]float64, n),
		v:       make([]float64, n),
		na:      make([]float64, n),
		ns:      make([]float64, n),
		nv:      make([]float64, n),
	}

	for i := 0; i < n; i++ {
		g.a[i] = init.Attitude + jitter(rng, init.Jitter)
		g.s[i] = clamp01(init.Stability + jitter(rng, init.Jitter))
		g.v[i] = init.Speed + jitter(rng, init.Jitter)
	}
	g.a[g.vehicle] = init.Attitude

	return g, nil
}

func jitter(rng *rand.Rand, scale float64) float64 {
	if scale == 0 {
		return 0
	}
	return rng.NormFloat64() * scale
}

func (g *Grid) Shape() Shape { return g.shape }

// VehicleIndex returns the (row, col) of the driven cell.
func (g *Grid) VehicleIndex() (int, int) {
	return g.vehicle / g.shape.Cols, g.vehicle % g.shape.Cols
}

func (g *Grid) Vehicle() Cell {
	return Cell{A: g.a[g.vehicle], S: g.s[g.vehicle], V: g.v[g.vehicle]}
}

func (g *Grid) At(row, col int) Cell {
	i := row*g.shape.Cols + col
	return Cell{A: g.a[i], S: g.s[i], V: g.v[i]}
}

// Mean returns the lattice-wide mean of each field.
func (g *Grid) Mean() Cell {
	var m Cell
	for i := range g.a {
		m.A += g.a[i]
		m.S += g.s[i]
		m.V += g.v[i]
	}
	n := float64(len(g.a))
	return Cell{A: m.A / n, S: m.S / n, V: m.V / n}
}

// IsFinite reports whether every field of every cell is finite.
func (g *Grid) IsFinite() bool {
	for i := range g.a {
		if !(Cell{A: g.a[i], S: g.s[i], V: g.v[i]}).IsFinite() {
			return false
		}
	}
	return true
}

func (g *Grid) swap() {
	g.a, g.na = g.na, g.a
	g.s, g.ns = g.ns, g.s
	g.v, g.nv = g.nv, g.v
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
