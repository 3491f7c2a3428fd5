// Package resolution - Aufloesungsfaltung der Modell-Intensitaet
//
// Eine Resolution ist parameterunabhaengig: sie wird einmal pro Q-Satz
// und Verschmierung berechnet und kann fuer beliebig viele Auswertungen
// wiederverwendet werden. Das Modell wird auf QCalc ausgewertet, Apply
// bildet daraus die Intensitaet an den gemessenen Punkten.
package resolution

import (
	"fmt"
	"math"
	"slices"

	"github.com/sasview/sasmodels/kernel"
)

// Resolution faltet eine Theorie-Kurve mit der Instrumentaufloesung
type Resolution interface {
	// QCalc sind die Punkte, an denen das Modell ausgewertet werden muss
	QCalc() kernel.Q

	// Apply bildet die Theorie auf QCalc auf die gemessenen Punkte ab
	Apply(theory []float64) ([]float64, error)
}

// row ist eine duenn besetzte Zeile der Faltungsmatrix
type row struct {
	cols    []int
	weights []float64
}

// normalize skaliert die Zeile auf Gewichtssumme 1
func (r *row) normalize() {
	var sum float64
	for _, w := range r.weights {
		sum += w
	}
	if sum > 0 {
		for i := range r.weights {
			r.weights[i] /= sum
		}
	}
}

// add addiert w auf Spalte col; benachbarte Eintraege werden zusammengefasst
func (r *row) add(col int, w float64) {
	if w == 0 {
		return
	}
	if i, ok := slices.BinarySearch(r.cols, col); ok {
		r.weights[i] += w
	} else {
		r.cols = slices.Insert(r.cols, i, col)
		r.weights = slices.Insert(r.weights, i, w)
	}
}

// matrix ist eine lineare Resolution mit duenn besetzten Zeilen
type matrix struct {
	qcalc kernel.Q
	rows  []row
}

func (m *matrix) QCalc() kernel.Q {
	return m.qcalc
}

func (m *matrix) Apply(theory []float64) ([]float64, error) {
	if len(theory) != m.qcalc.Len() {
		return nil, fmt.Errorf("theory has %d values, expected %d", len(theory), m.qcalc.Len())
	}

	out := make([]float64, len(m.rows))
	for i, r := range m.rows {
		var sum float64
		for k, col := range r.cols {
			sum += r.weights[k] * theory[col]
		}
		out[i] = sum
	}
	return out, nil
}

// ============================================================================
// Perfekte Aufloesung
// ============================================================================

// Perfect ist die Identitaet: QCalc ist der gemessene Q-Satz
type Perfect struct {
	q kernel.Q
}

// NewPerfect erzeugt eine Identitaets-Aufloesung
func NewPerfect(q kernel.Q) *Perfect {
	return &Perfect{q: q}
}

func (p *Perfect) QCalc() kernel.Q {
	return p.q
}

func (p *Perfect) Apply(theory []float64) ([]float64, error) {
	if len(theory) != p.q.Len() {
		return nil, fmt.Errorf("theory has %d values, expected %d", len(theory), p.q.Len())
	}
	return slices.Clone(theory), nil
}

// ============================================================================
// Hilfsfunktionen fuer 1D Gitter
// ============================================================================

// calcGrid bildet das sortierte, eindeutige Berechnungsgitter aus q und
// zusaetzlichen Punkten
func calcGrid(q []float64, extra ...[]float64) []float64 {
	grid := slices.Clone(q)
	for _, e := range extra {
		grid = append(grid, e...)
	}
	slices.Sort(grid)
	return slices.Compact(grid)
}

// extend gibt Punkte mit dem Abstand step zwischen lo und hi zurueck
// (ohne die Endpunkte)
func extend(lo, hi, step float64) []float64 {
	if !(step > 0) || hi <= lo {
		return nil
	}
	n := int(math.Ceil((hi - lo) / step))
	if n > 1000 {
		n = 1000
		step = (hi - lo) / float64(n)
	}
	out := make([]float64, 0, n)
	for i := 1; i < n; i++ {
		out = append(out, lo+float64(i)*step)
	}
	return out
}

// spacing ist der mittlere Punktabstand eines sortierten Gitters
func spacing(sorted []float64) float64 {
	if len(sorted) < 2 {
		return 0
	}
	return (sorted[len(sorted)-1] - sorted[0]) / float64(len(sorted)-1)
}

// binEdges gibt die Kanten der Bins um die Gitterpunkte zurueck
func binEdges(x []float64) []float64 {
	edges := make([]float64, len(x)+1)
	if len(x) == 1 {
		edges[0], edges[1] = x[0], x[0]
		return edges
	}
	for i := 1; i < len(x); i++ {
		edges[i] = 0.5 * (x[i-1] + x[i])
	}
	edges[0] = x[0] - 0.5*(x[1]-x[0])
	edges[len(x)] = x[len(x)-1] + 0.5*(x[len(x)-1]-x[len(x)-2])
	return edges
}

// interpolate verteilt w linear auf die beiden Nachbarn von x im Gitter;
// ausserhalb des Gitters wird auf den Randpunkt geklemmt
func (r *row) interpolate(grid []float64, x, w float64) {
	n := len(grid)
	switch {
	case x <= grid[0]:
		r.add(0, w)
	case x >= grid[n-1]:
		r.add(n-1, w)
	default:
		j, _ := slices.BinarySearch(grid, x)
		if grid[j] == x {
			r.add(j, w)
			return
		}
		f := (x - grid[j-1]) / (grid[j] - grid[j-1])
		r.add(j-1, w*(1-f))
		r.add(j, w*f)
	}
}

func validWidths(q, dq []float64) error {
	if len(dq) != len(q) {
		return fmt.Errorf("q has %d values but resolution width has %d", len(q), len(dq))
	}
	for i, w := range dq {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("resolution width %d is %v", i, w)
		}
	}
	return nil
}
