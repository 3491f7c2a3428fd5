// dispersion_test.go - Tests fuer Gewichtssaetze, Cursor und Akkumulator
package dispersion

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var positive = [2]float64{0, math.Inf(1)}
var unbounded = [2]float64{math.Inf(-1), math.Inf(1)}

func checkNormalized(t *testing.T, set WeightSet) {
	t.Helper()
	var sum float64
	for i, w := range set.Weights {
		if w < 0 {
			t.Errorf("Gewicht %d negativ: %g", i, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("Gewichtssumme = %.15g, erwartet 1", sum)
	}
}

func mean(set WeightSet) float64 {
	var m float64
	for i, v := range set.Values {
		m += v * set.Weights[i]
	}
	return m
}

func TestSinglePoint(t *testing.T) {
	cases := map[string]struct {
		center float64
		spec   Spec
	}{
		"n=1":              {20, Spec{Shape: Gaussian, Width: 0.1, N: 1, NSigma: 3, Relative: true}},
		"n=0":              {20, Spec{Shape: Gaussian, Width: 0.1, NSigma: 3, Relative: true}},
		"width=0":          {20, Spec{Shape: Gaussian, N: 35, NSigma: 3}},
		"center=0 relativ": {0, Spec{Shape: Schulz, Width: 0.1, N: 80, NSigma: 8, Relative: true}},
		"ausserhalb":       {50, Spec{Shape: Gaussian, Width: 1, N: 35, NSigma: 3, Relative: false}},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			limits := positive
			if name == "ausserhalb" {
				limits = [2]float64{0, 10}
			}
			set, err := Weights(tt.center, tt.spec, limits)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(Point(tt.center), set); diff != "" {
				t.Errorf("erwartet Einzelpunkt (-erwartet +erhalten):\n%s", diff)
			}
		})
	}
}

func TestShapes(t *testing.T) {
	for _, shape := range []Shape{Gaussian, Rectangle, LogNormal, Schulz, Boltzmann} {
		t.Run(string(shape), func(t *testing.T) {
			spec := Default(shape)
			spec.Width = 0.1
			spec.Relative = true

			set, err := Weights(100, spec, positive)
			if err != nil {
				t.Fatal(err)
			}
			if set.Len() < 2 || set.Len() > spec.N {
				t.Fatalf("Anzahl Stuetzstellen = %d", set.Len())
			}
			checkNormalized(t, set)

			for _, v := range set.Values {
				if v <= 0 {
					t.Errorf("Stuetzstelle %g ausserhalb der Grenzen", v)
				}
			}
			if m := mean(set); math.Abs(m-100) > 2 {
				t.Errorf("Mittelwert = %g, erwartet ~100", m)
			}
		})
	}
}

func TestGaussianSymmetric(t *testing.T) {
	set, err := Weights(0, Spec{Shape: Gaussian, Width: 5, N: 35, NSigma: 3}, unbounded)
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 35 {
		t.Fatalf("Anzahl = %d, erwartet 35", set.Len())
	}

	n := set.Len()
	for i := range n / 2 {
		if math.Abs(set.Values[i]+set.Values[n-1-i]) > 1e-12 {
			t.Errorf("Stuetzstellen nicht symmetrisch bei %d", i)
		}
		if math.Abs(set.Weights[i]-set.Weights[n-1-i]) > 1e-15 {
			t.Errorf("Gewichte nicht symmetrisch bei %d", i)
		}
	}
	if math.Abs(set.Values[0]+15) > 1e-12 || math.Abs(set.Values[n-1]-15) > 1e-12 {
		t.Errorf("Bereich = [%g, %g], erwartet [-15, 15]", set.Values[0], set.Values[n-1])
	}
}

func TestRectangleUniform(t *testing.T) {
	set, err := Weights(10, Spec{Shape: Rectangle, Width: 0.2, N: 11, NSigma: 1.73205, Relative: true}, positive)
	if err != nil {
		t.Fatal(err)
	}

	expect := make([]float64, 11)
	for i := range expect {
		expect[i] = 1.0 / 11
	}
	if diff := cmp.Diff(expect, set.Weights, cmpopts.EquateApprox(1e-12, 0)); diff != "" {
		t.Errorf("Gewichte nicht gleichverteilt (-erwartet +erhalten):\n%s", diff)
	}
}

func TestClipping(t *testing.T) {
	set, err := Weights(10, Spec{Shape: Gaussian, Width: 0.5, N: 35, NSigma: 3, Relative: true}, positive)
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() >= 35 {
		t.Errorf("negative Stuetzstellen nicht abgeschnitten: %d", set.Len())
	}
	for _, v := range set.Values {
		if v < 0 {
			t.Errorf("Stuetzstelle %g < 0", v)
		}
	}
	checkNormalized(t, set)
}

func TestArray(t *testing.T) {
	spec := Spec{Shape: Array, Values: []float64{-1, 10, 20, 30}, Weights: []float64{1, 1, 2, 1}}
	set, err := Weights(15, spec, positive)
	if err != nil {
		t.Fatal(err)
	}

	expect := WeightSet{Values: []float64{10, 20, 30}, Weights: []float64{0.25, 0.5, 0.25}}
	if diff := cmp.Diff(expect, set); diff != "" {
		t.Errorf("Array (-erwartet +erhalten):\n%s", diff)
	}

	if _, err := Weights(15, Spec{Shape: Array, Values: []float64{1}}, positive); err == nil {
		t.Error("ungleiche Laengen sollten fehlschlagen")
	}
}

func TestPointLimit(t *testing.T) {
	set, err := Weights(50, Spec{Shape: Gaussian, Width: 0.1, N: MaxPoints, NSigma: 3, Relative: true}, positive)
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != MaxPoints {
		t.Errorf("Len = %d, erwartet %d", set.Len(), MaxPoints)
	}

	for _, spec := range []Spec{
		{Shape: Gaussian, Width: 0.1, N: MaxPoints + 1, Relative: true},
		{Shape: Gaussian, Width: 0.1, N: 10, NSigma: math.Inf(1), Relative: true},
		{Shape: Gaussian, Width: 0.1, N: 10, NSigma: math.NaN(), Relative: true},
	} {
		if _, err := Weights(50, spec, positive); err == nil {
			t.Errorf("Weights(%+v) sollte fehlschlagen", spec)
		}
	}
}

func TestUnknownShape(t *testing.T) {
	if _, err := Weights(1, Spec{Shape: "cauchy", Width: 1, N: 5}, unbounded); err == nil {
		t.Error("unbekannte Form sollte fehlschlagen")
	}
	if _, err := ParseShape("cauchy"); err == nil {
		t.Error("ParseShape sollte fehlschlagen")
	}
	if s, err := ParseShape(""); err != nil || s != Gaussian {
		t.Errorf("ParseShape leer = %v, %v", s, err)
	}
}

func TestCursor(t *testing.T) {
	sets := []WeightSet{
		{Values: []float64{1, 2}, Weights: []float64{0.25, 0.75}},
		Point(5),
		{Values: []float64{10, 20, 30}, Weights: []float64{0.2, 0.3, 0.5}},
	}

	var got [][3]float64
	var total float64
	c := NewCursor(sets)
	for c.Next() {
		got = append(got, [3]float64{c.Value(0), c.Value(1), c.Value(2)})
		total += c.Weight()
	}

	expect := [][3]float64{
		{1, 5, 10}, {1, 5, 20}, {1, 5, 30},
		{2, 5, 10}, {2, 5, 20}, {2, 5, 30},
	}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Errorf("Reihenfolge (-erwartet +erhalten):\n%s", diff)
	}
	if Total(sets) != 6 {
		t.Errorf("Total = %d, erwartet 6", Total(sets))
	}
	if math.Abs(total-1) > 1e-15 {
		t.Errorf("Gewichtssumme = %g, erwartet 1", total)
	}
	if c.Next() {
		t.Error("Cursor nach Ende nicht erschoepft")
	}
}

func TestCursorEmpty(t *testing.T) {
	c := NewCursor(nil)
	if !c.Next() || c.Weight() != 1 || c.Next() {
		t.Error("leeres Produkt sollte genau eine Kombination liefern")
	}

	if NewCursor([]WeightSet{{}}).Next() {
		t.Error("leerer Satz sollte keine Kombination liefern")
	}
}

func TestAccumulator(t *testing.T) {
	acc := NewAccumulator(2, true)
	acc.Add(0.5, 2, []float64{4, 8})
	acc.Add(0.5, 4, []float64{4, 8})
	acc.Add(1, 0, []float64{100, 100})
	acc.Add(1, -1, []float64{100, 100})

	// (0.5*4/2 + 0.5*4/4)/1 = 1.5 und 3
	got := acc.Result(2, 0.1, nil)
	if diff := cmp.Diff([]float64{3.1, 6.1}, got, cmpopts.EquateApprox(1e-15, 0)); diff != "" {
		t.Errorf("Result (-erwartet +erhalten):\n%s", diff)
	}
	if acc.Norm() != 1 {
		t.Errorf("Norm = %g, erwartet 1", acc.Norm())
	}
}

func TestAccumulatorBackgroundOnly(t *testing.T) {
	acc := NewAccumulator(3, true)
	acc.Add(1, 0, []float64{1, 2, 3})

	if diff := cmp.Diff([]float64{0.5, 0.5, 0.5}, acc.Result(1, 0.5, nil)); diff != "" {
		t.Errorf("ohne Gewicht nur background (-erwartet +erhalten):\n%s", diff)
	}
}

func TestSphericalCorrection(t *testing.T) {
	if got := SphericalCorrection(60); math.Abs(got-0.5) > 1e-15 {
		t.Errorf("SphericalCorrection(60) = %g", got)
	}
	if got := SphericalCorrection(90); got != 1e-6 {
		t.Errorf("SphericalCorrection(90) = %g, erwartet 1e-6", got)
	}
}
