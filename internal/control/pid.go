package control

type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Limit    float64
	integral float64
	prevErr  float64
	first    bool
	off      bool
}

func NewPID(g Gains, integralLimit float64) *PID {
	return &PID{
		Kp:    g.Kp,
		Ki:    g.Ki,
		Kd:    g.Kd,
		Limit: integralLimit,
		first: true,
	}
}

func (p *PID) Update(err, dt float64) float64 {
	if p.off {
		// Integral frozen; remembering the error avoids a derivative kick
		// when the window closes.
		p.prevErr = err
		p.first = false
		return 0
	}

	p.integral = clamp(p.integral+err*dt, p.Limit)

	derivative := 0.0
	if !p.first && dt > 0 {
		derivative = (err - p.prevErr) / dt
	}
	p.prevErr = err
	p.first = false

	return p.Kp*err + p.Ki*p.integral + p.Kd*derivative
}

func (p *PID) Suppress(active bool) { p.off = active }

// Integral exposes the accumulator for inspection.
func (p *PID) Integral() float64 { return p.integral }

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
	p.off = false
}

func (p *PID) Params() map[string]float64 {
	return map[string]float64{
		"Kp":            p.Kp,
		"Ki":            p.Ki,
		"Kd":            p.Kd,
		"IntegralLimit": p.Limit,
	}
}
