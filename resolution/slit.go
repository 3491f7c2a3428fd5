// slit.go - Spalt-Aufloesung fuer 1D Daten
package resolution

import (
	"math"
	"slices"

	"github.com/sasview/sasmodels/kernel"
)

// slitSamples ist die Anzahl der Stuetzstellen je Spaltrichtung
const slitSamples = 25

// NewSlit1D erzeugt eine Spalt-Aufloesung. width ist die halbe Breite in
// Q-Richtung (gleichverteilt ueber [-width, width]), height die Hoehe
// senkrecht dazu (gleichverteilt ueber [0, height]):
//
//	I_s(q) = 1/(2 w h) * int du int dv I(sqrt((q+u)^2 + v^2))
//
// Die Stuetzstellen werden linear auf das Berechnungsgitter interpoliert;
// ausserhalb des Gitters wird auf den Randpunkt geklemmt.
func NewSlit1D(q []float64, width, height float64) (Resolution, error) {
	widths := make([]float64, len(q))
	heights := make([]float64, len(q))
	for i := range q {
		widths[i], heights[i] = width, height
	}
	return NewSlit1DVarying(q, widths, heights)
}

// NewSlit1DVarying ist NewSlit1D mit Spaltmassen pro Punkt
func NewSlit1DVarying(q, width, height []float64) (Resolution, error) {
	if err := validWidths(q, width); err != nil {
		return nil, err
	}
	if err := validWidths(q, height); err != nil {
		return nil, err
	}
	if len(q) == 0 || (slices.Max(width) == 0 && slices.Max(height) == 0) {
		return NewPerfect(kernel.Q1D(q)), nil
	}

	sorted := calcGrid(q)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	for i := range q {
		lo = math.Min(lo, q[i]-width[i])
		hi = math.Max(hi, math.Hypot(q[i]+width[i], height[i]))
	}
	if lo <= 0 && sorted[0] > 0 {
		lo = sorted[0] * minimumAbsoluteQ
	}

	step := spacing(sorted)
	if step == 0 {
		step = (hi - lo) / 20
	}
	first, last := sorted[0], sorted[len(sorted)-1]
	grid := calcGrid(q, extend(lo, first, step), extend(last, hi, step), []float64{math.Min(lo, first), math.Max(hi, last)})

	rows := make([]row, len(q))
	for i, qi := range q {
		r := &rows[i]
		nu, nv := slitSamples, slitSamples
		if width[i] == 0 {
			nu = 1
		}
		if height[i] == 0 {
			nv = 1
		}

		for a := range nu {
			u := 0.0
			if nu > 1 {
				u = -width[i] + (float64(a)+0.5)*2*width[i]/float64(nu)
			}
			for b := range nv {
				v := 0.0
				if nv > 1 {
					v = (float64(b) + 0.5) * height[i] / float64(nv)
				}
				r.interpolate(grid, math.Hypot(qi+u, v), 1)
			}
		}
		r.normalize()
	}

	return &matrix{qcalc: kernel.Q1D(grid), rows: rows}, nil
}
