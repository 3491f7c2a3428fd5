// layout.go - Speicherlayout des Wertevektors und Packen von Aufrufen
//
// Der gepackte Wertevektor ist fuer Host und Geraet identisch:
//
//	[0]              scale
//	[1]              background
//	[2 .. 2+n)       Tabellenparameter in Tabellenreihenfolge
//	[mag ..)         pro SLD-Parameter mx, my, mz (nur magnetische Modelle)
//	[spin .. spin+8) Gewichte der sechs Spin-Kanaele, cos und sin des
//	                 Spin-Winkels
//
// Dispergiert werden in 1D die Volumenparameter, in 2D zusaetzlich die
// Orientierungswinkel (in dieser Reihenfolge).
package generate

import (
	"fmt"
	"math"
	"slices"

	"github.com/sasview/sasmodels/dispersion"
	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/model"
)

const (
	SlotScale      = 0
	SlotBackground = 1

	tableOffset = 2

	// spinSlots ist die Groesse des Spin-Blocks
	spinSlots = 8
)

// Layout ordnet die Parameter eines Modells den Plaetzen im
// Wertevektor zu
type Layout struct {
	info *model.Info

	n          int
	magOffset  int
	spinOffset int

	iq     []int
	volume []int
	orient []int
	sld    []int
	theta  int
}

// NewLayout berechnet das Layout fuer info
func NewLayout(info *model.Info) *Layout {
	l := &Layout{info: info, magOffset: -1, spinOffset: -1, theta: -1}

	for k, p := range info.Parameters {
		switch p.Kind {
		case model.KindVolume:
			l.volume = append(l.volume, k)
		case model.KindOrientation:
			l.orient = append(l.orient, k)
			if p.Name == "theta" {
				l.theta = k
			}
		case model.KindSLD:
			l.sld = append(l.sld, k)
		}
		if p.Kind != model.KindOrientation {
			l.iq = append(l.iq, k)
		}
	}

	l.n = tableOffset + len(info.Parameters)
	if len(l.sld) > 0 {
		l.magOffset = l.n
		l.spinOffset = l.magOffset + 3*len(l.sld)
		l.n = l.spinOffset + spinSlots
	}
	return l
}

// Info gibt die Modell-Beschreibung zurueck
func (l *Layout) Info() *model.Info {
	return l.info
}

// Len ist die Laenge des gepackten Wertevektors
func (l *Layout) Len() int {
	return l.n
}

// Slot gibt den Platz des Tabellenparameters k zurueck
func (l *Layout) Slot(k int) int {
	return tableOffset + k
}

// Dispersed gibt die dispergierbaren Tabellenindizes zurueck
func (l *Layout) Dispersed(twoD bool) []int {
	if !twoD {
		return l.volume
	}
	return append(slices.Clone(l.volume), l.orient...)
}

// ThetaPosition gibt die Position von theta in Dispersed(twoD) zurueck
// oder -1; nur diese Dimension erhaelt die Kugelkorrektur
func (l *Layout) ThetaPosition(twoD bool) int {
	if l.theta < 0 {
		return -1
	}
	return slices.Index(l.Dispersed(twoD), l.theta)
}

func gather(values []float64, table []int, dst []float64) []float64 {
	dst = dst[:0]
	for _, k := range table {
		dst = append(dst, values[tableOffset+k])
	}
	return dst
}

// IqArgs sammelt die Argumente von Iq aus einem gepackten Vektor
func (l *Layout) IqArgs(values, dst []float64) []float64 {
	return gather(values, l.iq, dst)
}

// IqxyArgs sammelt alle Tabellenparameter (Argumente von Iqxy)
func (l *Layout) IqxyArgs(values, dst []float64) []float64 {
	return append(dst[:0], values[tableOffset:tableOffset+len(l.info.Parameters)]...)
}

// VolumeArgs sammelt die Argumente von form_volume
func (l *Layout) VolumeArgs(values, dst []float64) []float64 {
	return gather(values, l.volume, dst)
}

// HostIqxy gibt host.Iqxy zurueck oder synthetisiert es aus Iq mit
// |q| = sqrt(qx^2 + qy^2). Die synthetisierte Funktion besitzt einen
// Argumentpuffer und darf nicht von mehreren Goroutinen benutzt werden;
// jeder Aufruf von HostIqxy liefert einen neuen Puffer.
func (l *Layout) HostIqxy(host *model.HostKernel) func(qx, qy float64, pars []float64) float64 {
	if host.Iqxy != nil {
		return host.Iqxy
	}

	args := make([]float64, 0, len(l.iq))
	return func(qx, qy float64, pars []float64) float64 {
		args = args[:0]
		for _, k := range l.iq {
			args = append(args, pars[k])
		}
		return host.Iq(math.Sqrt(qx*qx+qy*qy), args)
	}
}

// =============================================================================
// Packen
// =============================================================================

// Packed ist ein Aufruf im gemeinsamen Speicherlayout
type Packed struct {
	Values []float64

	// Magnetic ist gesetzt, wenn Q zweidimensional ist und mindestens ein
	// magnetisches Moment ungleich null ist
	Magnetic bool

	// Dispersed sind die Tabellenindizes der Schleifendimensionen,
	// Sets die zugehoerigen Gewichtssaetze
	Dispersed []int
	Sets      []dispersion.WeightSet

	theta int
}

// Pack bringt call in das Layout. twoD waehlt die Dispersionsdimensionen.
func (l *Layout) Pack(call kernel.Call, twoD bool) (*Packed, error) {
	all := l.info.AllParameters()
	if len(call.Values) != len(all) {
		return nil, fmt.Errorf("%s: expected %d parameter values, got %d", l.info.Name, len(all), len(call.Values))
	}

	ntable := len(l.info.Parameters)
	if n := len(call.Dispersion); n != 0 && n != ntable {
		return nil, fmt.Errorf("%s: expected %d dispersion sets, got %d", l.info.Name, ntable, n)
	}

	p := &Packed{Values: make([]float64, l.n), theta: -1}
	copy(p.Values, call.Values[:tableOffset+ntable])

	dispersable := l.Dispersed(true)
	for k, set := range call.Dispersion {
		if len(set.Values) != len(set.Weights) {
			return nil, fmt.Errorf("%s: parameter %q has %d dispersion values but %d weights",
				l.info.Name, l.info.Parameters[k].Name, len(set.Values), len(set.Weights))
		}
		if set.Len() > 1 && !slices.Contains(dispersable, k) {
			return nil, fmt.Errorf("%s: parameter %q cannot be dispersed", l.info.Name, l.info.Parameters[k].Name)
		}
	}

	for _, k := range l.Dispersed(twoD) {
		set := dispersion.Point(call.Values[tableOffset+k])
		if len(call.Dispersion) > 0 && call.Dispersion[k].Len() > 0 {
			set = call.Dispersion[k]
		}
		if k == l.theta && set.Len() > 1 {
			p.theta = len(p.Sets)
		}
		p.Dispersed = append(p.Dispersed, k)
		p.Sets = append(p.Sets, set)
	}

	if l.magOffset >= 0 {
		raw := call.Values[tableOffset+ntable:]
		active := false
		for s := range l.sld {
			m0, mtheta, mphi := raw[3*s], raw[3*s+1], raw[3*s+2]
			if m0 != 0 {
				active = true
			}
			mx, my, mz := MagneticVector(m0, mtheta, mphi)
			copy(p.Values[l.magOffset+3*s:], []float64{mx, my, mz})
		}

		spin := raw[3*len(l.sld):]
		w := SpinWeights(spin[0], spin[1])
		copy(p.Values[l.spinOffset:], w[:])
		sn, cn := math.Sincos(-spin[2] * math.Pi / 180)
		p.Values[l.spinOffset+6] = cn
		p.Values[l.spinOffset+7] = sn

		p.Magnetic = twoD && active
	}

	return p, nil
}

// Points gibt die Anzahl der Dispersionskombinationen zurueck
func (p *Packed) Points() int {
	return dispersion.Total(p.Sets)
}

// Each ruft fn fuer jede Dispersionskombination mit eingesetzten Werten und
// dem Produktgewicht auf. values wird zwischen den Aufrufen wiederverwendet.
func (p *Packed) Each(fn func(values []float64, weight float64) error) error {
	values := slices.Clone(p.Values)
	c := dispersion.NewCursor(p.Sets)
	for c.Next() {
		w := c.Weight()
		for k, idx := range p.Dispersed {
			values[tableOffset+idx] = c.Value(k)
		}
		if p.theta >= 0 {
			w *= dispersion.SphericalCorrection(c.Value(p.theta))
		}
		if err := fn(values, w); err != nil {
			return err
		}
	}
	return nil
}

// Flatten gibt die Dispersion im Format der Geraete-Kernel zurueck:
// Laenge und Offset pro Dimension sowie verkettete Werte und Gewichte
func (p *Packed) Flatten() (lens, offsets []int32, values, weights []float64) {
	for _, s := range p.Sets {
		lens = append(lens, int32(s.Len()))
		offsets = append(offsets, int32(len(values)))
		values = append(values, s.Values...)
		weights = append(weights, s.Weights...)
	}

	// leere Puffer sind fuer OpenCL nicht erlaubt
	if len(lens) == 0 {
		lens, offsets = []int32{0}, []int32{0}
	}
	if len(values) == 0 {
		values, weights = []float64{0}, []float64{0}
	}
	return lens, offsets, values, weights
}
