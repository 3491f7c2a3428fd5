// pinhole2d.go - Gausssche Aufloesung fuer orientierte 2D Daten
package resolution

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sasview/sasmodels/kernel"
)

const (
	// stencilPoints ist die Stuetzstellenzahl je Richtung
	stencilPoints = 5

	// stencilSigma ist die halbe Breite der Schablone in Sigma
	stencilSigma = 2.5
)

// NewPinhole2D erzeugt eine 2D Aufloesung mit radialer Breite dqr und
// tangentialer Breite dqphi (beide in 1/Ang) pro Punkt. Jeder Punkt wird
// mit einer 5x5 Gauss-Schablone in Polarkoordinaten um (qx, qy) gefaltet;
// QCalc enthaelt alle Schablonenpunkte.
func NewPinhole2D(qx, qy, dqr, dqphi []float64) (Resolution, error) {
	if err := (kernel.Q2D(qx, qy)).Validate(); err != nil {
		return nil, err
	}
	if err := validWidths(qx, dqr); err != nil {
		return nil, err
	}
	if err := validWidths(qx, dqphi); err != nil {
		return nil, err
	}

	offsets := floats.Span(make([]float64, stencilPoints), -stencilSigma, stencilSigma)
	unit := distuv.UnitNormal
	stencil := make([]float64, stencilPoints)
	for k, z := range offsets {
		stencil[k] = unit.Prob(z)
	}

	var calcX, calcY []float64
	rows := make([]row, len(qx))
	for i := range qx {
		r := &rows[i]
		q := math.Hypot(qx[i], qy[i])

		// radiale und tangentiale Einheitsvektoren
		ex, ey := 1.0, 0.0
		if q > 0 {
			ex, ey = qx[i]/q, qy[i]/q
		}
		tx, ty := -ey, ex

		nr, nphi := stencilPoints, stencilPoints
		if dqr[i] == 0 {
			nr = 1
		}
		if dqphi[i] == 0 {
			nphi = 1
		}

		for a := range nr {
			dr, wr := 0.0, 1.0
			if nr > 1 {
				dr, wr = offsets[a]*dqr[i], stencil[a]
			}
			for b := range nphi {
				dt, wt := 0.0, 1.0
				if nphi > 1 {
					dt, wt = offsets[b]*dqphi[i], stencil[b]
				}
				r.add(len(calcX), wr*wt)
				calcX = append(calcX, qx[i]+dr*ex+dt*tx)
				calcY = append(calcY, qy[i]+dr*ey+dt*ty)
			}
		}
		r.normalize()
	}

	return &matrix{qcalc: kernel.Q2D(calcX, calcY), rows: rows}, nil
}
