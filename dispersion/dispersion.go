// Package dispersion - Polydispersitaets- und Orientierungsgewichte
//
// Ein Spec beschreibt die Verteilung eines Parameters um seinen Wert.
// Weights erzeugt daraus einen WeightSet (Stuetzstellen und Gewichte),
// Cursor iteriert lazy ueber das kartesische Produkt mehrerer Saetze
// und Accumulator bildet die gewichtete, normierte Summe.
package dispersion

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// =============================================================================
// Verteilungsformen
// =============================================================================

// Shape ist die Form einer Verteilung
type Shape string

const (
	Gaussian  Shape = "gaussian"
	Rectangle Shape = "rectangle"
	LogNormal Shape = "lognormal"
	Schulz    Shape = "schulz"
	Boltzmann Shape = "boltzmann"
	Array     Shape = "array"
)

// Shapes gibt alle bekannten Formen zurueck
func Shapes() []Shape {
	return []Shape{Gaussian, Rectangle, LogNormal, Schulz, Boltzmann, Array}
}

// ParseShape prueft einen Formnamen
func ParseShape(s string) (Shape, error) {
	if s == "" {
		return Gaussian, nil
	}
	if sh := Shape(s); slices.Contains(Shapes(), sh) {
		return sh, nil
	}
	return "", fmt.Errorf("unknown dispersion shape %q", s)
}

// =============================================================================
// Spezifikation
// =============================================================================

// Spec beschreibt die Verteilung eines Parameters. Der Mittelpunkt wird
// beim Aufruf von Weights uebergeben.
type Spec struct {
	Shape Shape `json:"type,omitempty"`

	// Width ist relativ zum Mittelpunkt, wenn Relative gesetzt ist
	// (Volumenparameter), sonst absolut (Orientierung in Grad)
	Width    float64 `json:"width"`
	N        int     `json:"npts,omitempty"`
	NSigma   float64 `json:"nsigmas,omitempty"`
	Relative bool    `json:"relative,omitempty"`

	// Values und Weights werden nur fuer Shape Array verwendet
	Values  []float64 `json:"values,omitempty"`
	Weights []float64 `json:"weights,omitempty"`
}

// MaxPoints begrenzt die Stuetzstellen einer Verteilung
const MaxPoints = 1000

// MaxCombinations begrenzt das Produkt der Stuetzstellen eines Aufrufs
const MaxCombinations = 1_000_000

// Default gibt die Standard-Stuetzstellenzahl und Breite in Sigma fuer
// eine Form zurueck
func Default(shape Shape) Spec {
	switch shape {
	case Rectangle:
		return Spec{Shape: shape, N: 35, NSigma: 1.73205}
	case LogNormal, Schulz:
		return Spec{Shape: shape, N: 80, NSigma: 8}
	case Array:
		return Spec{Shape: shape}
	}
	return Spec{Shape: shape, N: 35, NSigma: 3}
}

// Active meldet, ob die Verteilung mehr als einen Punkt erzeugt
func (s Spec) Active() bool {
	if s.Shape == Array {
		return len(s.Values) > 0
	}
	return s.N > 1 && s.Width != 0
}

// =============================================================================
// Gewichtssaetze
// =============================================================================

// WeightSet sind die Stuetzstellen eines Parameters und ihre Gewichte.
// Ein erzeugter Satz ist nie leer; die Gewichte sind nicht negativ und
// summieren sich zu 1.
type WeightSet struct {
	Values  []float64 `json:"values"`
	Weights []float64 `json:"weights"`
}

// Point ist der Einzelpunktsatz {v, 1}
func Point(v float64) WeightSet {
	return WeightSet{Values: []float64{v}, Weights: []float64{1}}
}

// Len gibt die Anzahl der Stuetzstellen zurueck
func (w WeightSet) Len() int {
	return len(w.Values)
}

// Weights erzeugt den Gewichtssatz fuer einen Parameter mit Mittelpunkt
// center und Grenzen limits
func Weights(center float64, spec Spec, limits [2]float64) (WeightSet, error) {
	if spec.Shape == "" {
		spec.Shape = Gaussian
	}
	if spec.Shape == Array {
		return arrayWeights(center, spec, limits)
	}

	if spec.N > MaxPoints {
		return WeightSet{}, fmt.Errorf("%d dispersion points exceed the limit of %d", spec.N, MaxPoints)
	}
	if math.IsInf(spec.NSigma, 0) || math.IsNaN(spec.NSigma) {
		return WeightSet{}, fmt.Errorf("dispersion nsigmas must be finite, got %v", spec.NSigma)
	}

	density, err := densityFor(spec.Shape)
	if err != nil {
		return WeightSet{}, err
	}

	sigma := spec.Width
	if spec.Relative {
		sigma *= center
	}
	sigma = math.Abs(sigma)
	if spec.N <= 1 || sigma == 0 || math.IsNaN(sigma) {
		return Point(center), nil
	}

	nsigma := spec.NSigma
	if nsigma <= 0 {
		nsigma = Default(spec.Shape).NSigma
	}

	lo, hi := limits[0], limits[1]
	if spec.Shape == LogNormal || spec.Shape == Schulz {
		// beide Dichten sind nur fuer x > 0 definiert
		lo = math.Max(lo, math.SmallestNonzeroFloat64)
	}

	grid := floats.Span(make([]float64, spec.N), center-nsigma*sigma, center+nsigma*sigma)
	set := WeightSet{Values: make([]float64, 0, spec.N), Weights: make([]float64, 0, spec.N)}
	for _, x := range grid {
		if x < lo || x > hi {
			continue
		}
		w := density(center, sigma, x)
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		set.Values = append(set.Values, x)
		set.Weights = append(set.Weights, w)
	}

	if set.Len() == 0 {
		return Point(center), nil
	}
	normalize(set.Weights)
	return set, nil
}

func arrayWeights(center float64, spec Spec, limits [2]float64) (WeightSet, error) {
	if len(spec.Values) != len(spec.Weights) {
		return WeightSet{}, fmt.Errorf("array dispersion has %d values but %d weights", len(spec.Values), len(spec.Weights))
	}

	var set WeightSet
	for i, x := range spec.Values {
		w := spec.Weights[i]
		if w < 0 || math.IsNaN(w) {
			return WeightSet{}, fmt.Errorf("array dispersion weight %d is %v", i, w)
		}
		if x < limits[0] || x > limits[1] || w == 0 {
			continue
		}
		set.Values = append(set.Values, x)
		set.Weights = append(set.Weights, w)
	}

	if set.Len() == 0 {
		return Point(center), nil
	}
	normalize(set.Weights)
	return set, nil
}

func normalize(w []float64) {
	if sum := floats.Sum(w); sum > 0 {
		floats.Scale(1/sum, w)
	}
}

// =============================================================================
// Dichten
// =============================================================================

type density func(center, sigma, x float64) float64

func densityFor(shape Shape) (density, error) {
	switch shape {
	case Gaussian:
		return func(c, s, x float64) float64 {
			return distuv.Normal{Mu: c, Sigma: s}.Prob(x)
		}, nil

	case Rectangle:
		return func(c, s, x float64) float64 {
			half := s * math.Sqrt(3)
			return distuv.Uniform{Min: c - half*(1+1e-12), Max: c + half*(1+1e-12)}.Prob(x)
		}, nil

	case LogNormal:
		return func(c, s, x float64) float64 {
			return distuv.LogNormal{Mu: math.Log(c), Sigma: s / c}.Prob(x)
		}, nil

	case Schulz:
		return func(c, s, x float64) float64 {
			z := (c / s) * (c / s)
			return distuv.Gamma{Alpha: z + 1, Beta: (z + 1) / c}.Prob(x)
		}, nil

	case Boltzmann:
		return func(c, s, x float64) float64 {
			return distuv.Laplace{Mu: c, Scale: s}.Prob(x)
		}, nil
	}

	return nil, fmt.Errorf("unknown dispersion shape %q", shape)
}
