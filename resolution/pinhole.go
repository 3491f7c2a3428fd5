// pinhole.go - Gausssche Lochblenden-Aufloesung fuer 1D Daten
package resolution

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sasview/sasmodels/kernel"
)

const (
	// pinholeExtend ist die Erweiterung des Berechnungsgitters in Sigma
	pinholeExtend = 3.0

	// pinholeCutoff begrenzt die Zeilen der Matrix in Sigma
	pinholeCutoff = 6.0

	// minimumAbsoluteQ ist der kleinste Q-Wert relativ zum kleinsten
	// positiven Datenpunkt, wenn die Erweiterung unter 0 reichen wuerde
	minimumAbsoluteQ = 0.02
)

// NewPinhole1D erzeugt eine Lochblenden-Aufloesung mit Gauss-Breite dq pro
// Punkt. Das Berechnungsgitter wird um 3 Sigma nach unten und oben
// erweitert; jede Zeile integriert die Gauss-Dichte ueber die Bins des
// Gitters. Punkte mit dq = 0 werden nicht verschmiert.
func NewPinhole1D(q, dq []float64) (Resolution, error) {
	if err := validWidths(q, dq); err != nil {
		return nil, err
	}
	if len(q) == 0 || slices.Max(dq) == 0 {
		return NewPerfect(kernel.Q1D(q)), nil
	}

	sorted := calcGrid(q)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range q {
		lo = math.Min(lo, q[i]-pinholeExtend*dq[i])
		hi = math.Max(hi, q[i]+pinholeExtend*dq[i])
	}
	// das Gitter reicht nie unter 0 oder unter den kleinsten Datenpunkt
	if lo <= 0 {
		lo = sorted[0]
		if j := slices.IndexFunc(sorted, func(v float64) bool { return v > 0 }); j >= 0 {
			lo = sorted[j] * minimumAbsoluteQ
		}
	}

	step := spacing(sorted)
	if step == 0 {
		step = (hi - lo) / 20
	}
	first, last := sorted[0], sorted[len(sorted)-1]
	grid := calcGrid(q, extend(lo, first, step), extend(last, hi, step), []float64{math.Min(lo, first), math.Max(hi, last)})
	edges := binEdges(grid)

	rows := make([]row, len(q))
	for i, qi := range q {
		r := &rows[i]
		if dq[i] == 0 {
			j, _ := slices.BinarySearch(grid, qi)
			r.add(j, 1)
			continue
		}

		g := distuv.Normal{Mu: qi, Sigma: dq[i]}
		start, _ := slices.BinarySearch(edges, qi-pinholeCutoff*dq[i])
		start = max(start-1, 0)
		for k := start; k < len(grid) && edges[k] <= qi+pinholeCutoff*dq[i]; k++ {
			r.add(k, g.CDF(edges[k+1])-g.CDF(edges[k]))
		}
		if len(r.cols) == 0 {
			j, _ := slices.BinarySearch(grid, qi)
			r.add(j, 1)
		}
		r.normalize()
	}

	return &matrix{qcalc: kernel.Q1D(grid), rows: rows}, nil
}
