// sesans.go - Spin-Echo SANS (SESANS) Projektion
package resolution

import (
	"fmt"
	"math"

	"github.com/sasview/sasmodels/kernel"
)

// SESANS berechnet die Polarisation P(delta) aus I(q) per Hankel-
// Transformation:
//
//	G(delta) = 2 pi sum_q J0(q delta) I(q) q dq
//	P(delta) = exp(t lambda^2 / (4 pi^2) (G(delta) - G(0)))
//
// Spin-Echo-Laengen und Wellenlaenge in Ang, q in 1/Ang, I(q) in 1/cm und
// die Probendicke t in cm.
type SESANS struct {
	spinEcho   []float64
	wavelength float64
	thickness  float64
	q          []float64

	// hankel[i][j] = 2 pi J0(q_j delta_i) q_j dq
	hankel [][]float64
	g0     []float64
}

// MaxSESANSPoints begrenzt das Berechnungsgitter der Transformation
const MaxSESANSPoints = 100_000

// SESANSGrid gibt das Berechnungsgitter arange(dq, qmax, dq) mit
// dq = 0.1 * 2 pi / rmax zurueck
func SESANSGrid(qmax, rmax float64) ([]float64, error) {
	dq := 0.1 * 2 * math.Pi / rmax
	n := math.Ceil(qmax/dq) - 1
	if math.IsNaN(n) || n > MaxSESANSPoints {
		return nil, fmt.Errorf("sesans q grid for qmax=%v and rmax=%v exceeds %d points", qmax, rmax, MaxSESANSPoints)
	}

	q := make([]float64, 0, max(int(n), 0))
	for i := 1; float64(i)*dq < qmax; i++ {
		q = append(q, float64(i)*dq)
	}
	return q, nil
}

// NewSESANS erzeugt die SESANS-Transformation fuer die Spin-Echo-Laengen
// spinEcho. qmax und rmax legen das Berechnungsgitter fest.
func NewSESANS(spinEcho []float64, wavelength, thickness, qmax, rmax float64) (*SESANS, error) {
	if !(rmax > 0) || !(qmax > 0) || math.IsInf(qmax, 0) {
		return nil, fmt.Errorf("sesans needs positive qmax and rmax, got %v and %v", qmax, rmax)
	}

	q, err := SESANSGrid(qmax, rmax)
	if err != nil {
		return nil, err
	}
	if len(q) < 2 {
		return nil, fmt.Errorf("sesans q grid has %d points; increase qmax or rmax", len(q))
	}
	dq := q[1] - q[0]

	s := &SESANS{
		spinEcho:   spinEcho,
		wavelength: wavelength,
		thickness:  thickness,
		q:          q,
		hankel:     make([][]float64, len(spinEcho)),
		g0:         make([]float64, len(q)),
	}
	for j, qj := range q {
		s.g0[j] = 2 * math.Pi * qj * dq
	}
	for i, delta := range spinEcho {
		h := make([]float64, len(q))
		for j, qj := range q {
			h[j] = 2 * math.Pi * math.J0(qj*delta) * qj * dq
		}
		s.hankel[i] = h
	}

	return s, nil
}

func (s *SESANS) QCalc() kernel.Q {
	return kernel.Q1D(s.q)
}

// Apply gibt P(delta) fuer jede Spin-Echo-Laenge zurueck
func (s *SESANS) Apply(theory []float64) ([]float64, error) {
	if len(theory) != len(s.q) {
		return nil, fmt.Errorf("theory has %d values, expected %d", len(theory), len(s.q))
	}

	var g0 float64
	for j, v := range theory {
		g0 += s.g0[j] * v
	}

	factor := s.thickness * s.wavelength * s.wavelength / (4 * math.Pi * math.Pi)
	out := make([]float64, len(s.spinEcho))
	for i, h := range s.hankel {
		var g float64
		for j, v := range theory {
			g += h[j] * v
		}
		out[i] = math.Exp(factor * (g - g0))
	}
	return out, nil
}
