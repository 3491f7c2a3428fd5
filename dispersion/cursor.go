// cursor.go - Lazy kartesisches Produkt und gewichtete Summe
package dispersion

import "math"

// Cursor iteriert wie ein Kilometerzaehler ueber das kartesische Produkt
// mehrerer Gewichtssaetze; der letzte Satz laeuft am schnellsten. Der
// Speicherbedarf ist O(Summe der Satzgroessen).
type Cursor struct {
	sets    []WeightSet
	idx     []int
	started bool
	done    bool
}

// NewCursor erzeugt einen Cursor; leere Saetze ergeben keine Kombination
func NewCursor(sets []WeightSet) *Cursor {
	c := &Cursor{sets: sets, idx: make([]int, len(sets))}
	for _, s := range sets {
		if s.Len() == 0 {
			c.done = true
		}
	}
	return c
}

// Total gibt die Anzahl aller Kombinationen zurueck
func Total(sets []WeightSet) int {
	n := 1
	for _, s := range sets {
		n *= s.Len()
	}
	return n
}

// Next rueckt zur naechsten Kombination vor und meldet, ob es eine gibt
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}
	if !c.started {
		c.started = true
		return true
	}

	for k := len(c.idx) - 1; k >= 0; k-- {
		c.idx[k]++
		if c.idx[k] < c.sets[k].Len() {
			return true
		}
		c.idx[k] = 0
	}

	c.done = true
	return false
}

// Value gibt den aktuellen Wert des Satzes k zurueck
func (c *Cursor) Value(k int) float64 {
	return c.sets[k].Values[c.idx[k]]
}

// Index gibt die aktuelle Position im Satz k zurueck
func (c *Cursor) Index(k int) int {
	return c.idx[k]
}

// Weight gibt das Produkt der aktuellen Gewichte zurueck
func (c *Cursor) Weight() float64 {
	w := 1.0
	for k, s := range c.sets {
		w *= s.Weights[c.idx[k]]
	}
	return w
}

// SphericalCorrection ist der Jacobi-Faktor fuer eine Dispersion des
// Polarwinkels theta (in Grad)
func SphericalCorrection(thetaDegrees float64) float64 {
	return math.Max(math.Abs(math.Cos(thetaDegrees*math.Pi/180)), 1e-6)
}

// Accumulator bildet die gewichtete Summe ueber Dispersionspunkte:
// ret += w*I (bzw. w*I/V bei Volumennormierung, V <= 0 wird uebersprungen),
// norm += w und als Ergebnis scale*ret/norm + background.
type Accumulator struct {
	sum             []float64
	norm            float64
	normalizeVolume bool
}

// NewAccumulator erzeugt einen Akkumulator fuer n Q-Punkte
func NewAccumulator(n int, normalizeVolume bool) *Accumulator {
	return &Accumulator{sum: make([]float64, n), normalizeVolume: normalizeVolume}
}

// Add addiert die Intensitaeten eines Dispersionspunktes
func (a *Accumulator) Add(weight, volume float64, iq []float64) {
	if weight == 0 {
		return
	}
	f := weight
	if a.normalizeVolume {
		if !(volume > 0) {
			return
		}
		f /= volume
	}
	for i, v := range iq {
		a.sum[i] += f * v
	}
	a.norm += weight
}

// Norm gibt die bisherige Gewichtssumme zurueck
func (a *Accumulator) Norm() float64 {
	return a.norm
}

// Result schreibt scale*ret/norm + background nach dst (oder in einen
// neuen Slice, wenn dst nil ist). Ohne Gewicht bleibt nur background.
func (a *Accumulator) Result(scale, background float64, dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(a.sum))
	}
	for i, v := range a.sum {
		if a.norm == 0 {
			dst[i] = background
		} else {
			dst[i] = scale*v/a.norm + background
		}
	}
	return dst
}
