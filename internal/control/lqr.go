package control

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const (
	riccatiMaxIter = 10000
	riccatiTol     = 1e-10
)

// LQR regulates the augmented state [e, ∫e] with a static gain from the
// discrete algebraic Riccati equation.
type LQR struct {
	Gains Gains
	Limit float64
	K     [2]float64

	z   float64
	off bool
}

func NewLQR(g Gains, integralLimit float64, plant Plant) (*LQR, error) {
	k, err := SolveLQR(plant, g)
	if err != nil {
		return nil, err
	}
	return &LQR{Gains: g, Limit: integralLimit, K: k}, nil
}

// SolveLQR iterates the Riccati recursion for A = [[Pole, 0], [Dt, 1]],
// B = [[-Gain], [0]], Q = diag(Kp, Ki), R = [Kd] and returns K with u = -K x.
func SolveLQR(plant Plant, g Gains) ([2]float64, error) {
	A := mat.NewDense(2, 2, []float64{plant.Pole, 0, plant.Dt, 1})
	B := mat.NewDense(2, 1, []float64{-plant.Gain, 0})
	Q := mat.NewDense(2, 2, []float64{g.Kp, 0, 0, g.Ki})
	R := mat.NewDense(1, 1, []float64{g.Kd})

	P := mat.DenseCopyOf(Q)
	var K mat.Dense
	for i := 0; i < riccatiMaxIter; i++ {
		var btp, s, btpa mat.Dense
		btp.Mul(B.T(), P)
		s.Mul(&btp, B)
		s.Add(&s, R)
		btpa.Mul(&btp, A)
		if err := K.Solve(&s, &btpa); err != nil {
			return [2]float64{}, fmt.Errorf("lqr: riccati step %d: %w", i, err)
		}

		var atp, next, corr mat.Dense
		atp.Mul(A.T(), P)
		next.Mul(&atp, A)
		corr.Mul(btpa.T(), &K)
		next.Sub(&next, &corr)
		next.Add(&next, Q)

		if mat.EqualApprox(&next, P, riccatiTol) {
			return [2]float64{K.At(0, 0), K.At(0, 1)}, nil
		}
		P = &next
	}
	return [2]float64{}, fmt.Errorf("lqr: riccati recursion did not converge in %d iterations", riccatiMaxIter)
}

func (l *LQR) Update(err, dt float64) float64 {
	if l.off {
		return 0
	}
	l.z = clamp(l.z+err*dt, l.Limit)
	return -(l.K[0]*err + l.K[1]*l.z)
}

func (l *LQR) Suppress(active bool) { l.off = active }

func (l *LQR) Reset() {
	l.z = 0
	l.off = false
}

func (l *LQR) Params() map[string]float64 {
	return map[string]float64{
		"Kp": l.Gains.Kp,
		"Ki": l.Gains.Ki,
		"Kd": l.Gains.Kd,
		"K0": l.K[0],
		"K1": l.K[1],
	}
}
