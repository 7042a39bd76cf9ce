package control

import "math"

// MPC picks, every tick, the constant input that minimises
//
//	sum_k Kp*e_k^2 + Kd*N*(u - u_prev)^2,  k = 1..N
//
// over the plant prediction e_k = Pole^k*e0 + (c - Gain*u)*s_k. The offset c
// is tracked by an observer with gain Ki/(1+Ki), which removes steady-state
// error without an explicit integrator.
type MPC struct {
	Gains   Gains
	Horizon int
	plant   Plant

	powers []float64
	sums   []float64

	offset float64
	ePrev  float64
	uPrev  float64
	first  bool
	off    bool
}

func NewMPC(g Gains, horizon int, plant Plant) *MPC {
	m := &MPC{
		Gains:   g,
		Horizon: horizon,
		plant:   plant,
		powers:  make([]float64, horizon),
		sums:    make([]float64, horizon),
		first:   true,
	}
	pk, sk := 1.0, 0.0
	for k := 0; k < horizon; k++ {
		sk += pk
		pk *= plant.Pole
		m.powers[k] = pk
		m.sums[k] = sk
	}
	return m
}

func (m *MPC) observerGain() float64 {
	return m.Gains.Ki / (1 + m.Gains.Ki)
}

func (m *MPC) Update(err, dt float64) float64 {
	if m.off {
		m.ePrev = err
		m.uPrev = 0
		m.first = false
		return 0
	}

	if !m.first {
		predicted := m.plant.Pole*m.ePrev + m.offset - m.plant.Gain*m.uPrev
		m.offset += m.observerGain() * (err - predicted)
	}

	q := m.Gains.Kp
	rho := m.Gains.Kd * float64(m.Horizon)
	num := rho * m.uPrev
	den := rho
	for k := range m.powers {
		h := m.powers[k]*err + m.offset*m.sums[k]
		g := m.plant.Gain * m.sums[k]
		num += q * g * h
		den += q * g * g
	}

	u := num / den
	if math.IsNaN(u) || math.IsInf(u, 0) {
		u = 0
	}

	m.ePrev = err
	m.uPrev = u
	m.first = false
	return u
}

// Offset returns the observer's disturbance estimate.
func (m *MPC) Offset() float64 { return m.offset }

func (m *MPC) Suppress(active bool) { m.off = active }

func (m *MPC) Reset() {
	m.offset = 0
	m.ePrev = 0
	m.uPrev = 0
	m.first = true
	m.off = false
}

func (m *MPC) Params() map[string]float64 {
	return map[string]float64{
		"Kp":      m.Gains.Kp,
		"Ki":      m.Gains.Ki,
		"Kd":      m.Gains.Kd,
		"Horizon": float64(m.Horizon),
	}
}
