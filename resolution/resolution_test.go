// resolution_test.go - Tests fuer die Aufloesungsfaltung
package resolution

import (
	"math"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/floats"

	"github.com/sasview/sasmodels/kernel"
)

func linspace(lo, hi float64, n int) []float64 {
	return floats.Span(make([]float64, n), lo, hi)
}

func eval(res Resolution, f func(q float64) float64) []float64 {
	q := res.QCalc()
	theory := make([]float64, q.Len())
	for i := range theory {
		if q.Is2D() {
			theory[i] = f(math.Hypot(q.Qx[i], q.Qy[i]))
		} else {
			theory[i] = f(q.Q[i])
		}
	}
	out, err := res.Apply(theory)
	if err != nil {
		panic(err)
	}
	return out
}

func TestPerfect(t *testing.T) {
	q := []float64{0.1, 0.2, 0.3}
	res := NewPerfect(kernel.Q1D(q))

	out, err := res.Apply([]float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{1, 2, 3}, out); diff != "" {
		t.Errorf("Identitaet verletzt:\n%s", diff)
	}
	if _, err := res.Apply([]float64{1}); err == nil {
		t.Error("falsche Laenge sollte fehlschlagen")
	}
}

// Verschwindende Breite ergibt die Identitaet
func TestZeroWidthIdentity(t *testing.T) {
	q := linspace(0.01, 0.2, 20)
	zero := make([]float64, len(q))
	theory := make([]float64, len(q))
	for i, v := range q {
		theory[i] = 1 / (1 + v*v*1e4)
	}

	cases := map[string]func() (Resolution, error){
		"pinhole": func() (Resolution, error) { return NewPinhole1D(q, zero) },
		"slit":    func() (Resolution, error) { return NewSlit1D(q, 0, 0) },
		"2d":      func() (Resolution, error) { return NewPinhole2D(q, zero, zero, zero) },
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := build()
			if err != nil {
				t.Fatal(err)
			}
			if res.QCalc().Len() != len(q) {
				t.Fatalf("QCalc hat %d Punkte, erwartet %d", res.QCalc().Len(), len(q))
			}
			out, err := res.Apply(theory)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(theory, out); diff != "" {
				t.Errorf("Identitaet verletzt (-erwartet +erhalten):\n%s", diff)
			}
		})
	}
}

func TestPinhole1D(t *testing.T) {
	q := linspace(0.01, 0.2, 191)
	dq := make([]float64, len(q))
	for i := range dq {
		dq[i] = 0.002
	}

	res, err := NewPinhole1D(q, dq)
	if err != nil {
		t.Fatal(err)
	}
	if res.QCalc().Len() <= len(q) {
		t.Errorf("Berechnungsgitter nicht erweitert: %d Punkte", res.QCalc().Len())
	}

	// Zeilen summieren zu 1
	constant := eval(res, func(float64) float64 { return 2.5 })
	for i, v := range constant {
		if math.Abs(v-2.5) > 1e-12 {
			t.Fatalf("Punkt %d: %g, erwartet 2.5", i, v)
		}
	}

	// symmetrischer Kern reproduziert lineare Funktionen im Inneren
	linear := eval(res, func(q float64) float64 { return q })
	for i := 20; i < len(q)-20; i++ {
		if math.Abs(linear[i]-q[i]) > 1e-9 {
			t.Errorf("Punkt %d: %g, erwartet %g", i, linear[i], q[i])
		}
	}

	// Verschmierung glaettet eine konvexe Funktion nach oben
	convex := eval(res, func(q float64) float64 { return q * q })
	mid := len(q) / 2
	if expect := q[mid]*q[mid] + dq[mid]*dq[mid]; math.Abs(convex[mid]-expect) > 1e-3*expect {
		t.Errorf("q^2 verschmiert = %g, erwartet ~%g", convex[mid], expect)
	}
}

func TestPinhole1DMixed(t *testing.T) {
	q := []float64{0.05, 0.1, 0.15}
	res, err := NewPinhole1D(q, []float64{0.005, 0, 0.005})
	if err != nil {
		t.Fatal(err)
	}

	f := func(q float64) float64 { return math.Exp(-q * 20) }
	out := eval(res, f)
	if math.Abs(out[1]-f(0.1)) > 1e-15 {
		t.Errorf("Punkt ohne Breite verschmiert: %g vs %g", out[1], f(0.1))
	}
	if out[0] <= f(0.05) {
		t.Errorf("konvexe Funktion nicht angehoben: %g <= %g", out[0], f(0.05))
	}
}

func TestPinhole1DLowQ(t *testing.T) {
	cases := map[string]struct {
		q, dq []float64
		min   float64
	}{
		"wide":     {[]float64{0.01, 0.02, 0.05}, []float64{0.01, 0.01, 0.01}, 0.01 * minimumAbsoluteQ},
		"zero":     {[]float64{0, 0.01, 0.05}, []float64{0.005, 0.005, 0.005}, 0},
		"negative": {[]float64{-0.01, 0.02, 0.05}, []float64{0.01, 0.01, 0.01}, -0.01},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := NewPinhole1D(tt.q, tt.dq)
			if err != nil {
				t.Fatal(err)
			}
			grid := res.QCalc().Q
			if grid[0] != tt.min {
				t.Errorf("kleinster Gitterpunkt = %g, erwartet %g", grid[0], tt.min)
			}
			for _, v := range grid {
				if v < 0 && !slices.Contains(tt.q, v) {
					t.Errorf("Gitterpunkt %g unter 0", v)
				}
			}

			out := eval(res, func(float64) float64 { return 1 })
			for i, v := range out {
				if math.Abs(v-1) > 1e-12 {
					t.Errorf("Punkt %d: %g, erwartet 1", i, v)
				}
			}
		})
	}
}

func TestPinhole1DInvalid(t *testing.T) {
	if _, err := NewPinhole1D([]float64{0.1, 0.2}, []float64{0.01}); err == nil {
		t.Error("ungleiche Laengen sollten fehlschlagen")
	}
	if _, err := NewPinhole1D([]float64{0.1}, []float64{-0.01}); err == nil {
		t.Error("negative Breite sollte fehlschlagen")
	}
}

func TestSlit1D(t *testing.T) {
	q := linspace(0.01, 0.1, 91)
	const height = 0.01

	res, err := NewSlit1D(q, 0, height)
	if err != nil {
		t.Fatal(err)
	}

	constant := eval(res, func(float64) float64 { return 1 })
	if diff := cmp.Diff(make1(len(q)), constant, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Zeilensumme verletzt:\n%s", diff)
	}

	// (1/h) int_0^h (q^2 + v^2) dv = q^2 + h^2/3
	square := eval(res, func(q float64) float64 { return q * q })
	for _, i := range []int{10, 40, 70} {
		expect := q[i]*q[i] + height*height/3
		if math.Abs(square[i]-expect) > 1e-6 {
			t.Errorf("q=%g: %g, erwartet %g", q[i], square[i], expect)
		}
	}
}

func TestSlit1DWidth(t *testing.T) {
	q := linspace(0.02, 0.1, 81)
	res, err := NewSlit1D(q, 0.005, 0)
	if err != nil {
		t.Fatal(err)
	}

	// gleichverteilte Breite ist symmetrisch: lineare Funktionen bleiben
	linear := eval(res, func(q float64) float64 { return q })
	for _, i := range []int{20, 40, 60} {
		if math.Abs(linear[i]-q[i]) > 1e-9 {
			t.Errorf("q=%g: %g", q[i], linear[i])
		}
	}
}

func TestPinhole2D(t *testing.T) {
	qx := []float64{0.05, -0.03, 0}
	qy := []float64{0.02, 0.04, 0}
	dqr := []float64{0.004, 0.004, 0.004}
	dqphi := []float64{0.002, 0.002, 0.002}

	res, err := NewPinhole2D(qx, qy, dqr, dqphi)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.QCalc().Len(); got != 3*stencilPoints*stencilPoints {
		t.Errorf("QCalc = %d Punkte", got)
	}

	constant := eval(res, func(float64) float64 { return 3 })
	if diff := cmp.Diff([]float64{3, 3, 3}, constant, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Zeilensumme verletzt:\n%s", diff)
	}

	if _, err := NewPinhole2D(qx, qy[:2], dqr, dqphi); err == nil {
		t.Error("ungleiche Laengen sollten fehlschlagen")
	}
}

func TestSESANS(t *testing.T) {
	spinEcho := []float64{0, 100, 500, 2000}
	s, err := NewSESANS(spinEcho, 2.0, 0.2, 0.2, 5000)
	if err != nil {
		t.Fatal(err)
	}

	q := s.QCalc()
	if q.Is2D() || q.Len() < 100 || q.Q[0] <= 0 {
		t.Fatalf("ungueltiges Gitter: %d Punkte", q.Len())
	}

	zero, err := s.Apply(make([]float64, q.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{1, 1, 1, 1}, zero); diff != "" {
		t.Errorf("ohne Streuung P != 1:\n%s", diff)
	}

	theory := make([]float64, q.Len())
	for i, v := range q.Q {
		theory[i] = 100 / (1 + v*v*1e4)
	}
	p, err := s.Apply(theory)
	if err != nil {
		t.Fatal(err)
	}
	if p[0] != 1 {
		t.Errorf("P(0) = %g, erwartet 1", p[0])
	}
	for i := 1; i < len(p); i++ {
		if !(p[i] < 1 && p[i] > 0) {
			t.Errorf("P(%g) = %g ausserhalb (0, 1)", spinEcho[i], p[i])
		}
	}
	if p[1] <= p[3] {
		t.Errorf("Depolarisation sollte mit delta zunehmen: %v", p)
	}

	if _, err := NewSESANS(spinEcho, 2, 0.2, 0.2, 0); err == nil {
		t.Error("rmax = 0 sollte fehlschlagen")
	}
}

func TestSESANSGridLimit(t *testing.T) {
	spinEcho := []float64{0, 100}
	for _, rmax := range []float64{1e12, math.Inf(1)} {
		if _, err := NewSESANS(spinEcho, 2, 0.2, 0.2, rmax); err == nil {
			t.Errorf("rmax = %g sollte fehlschlagen", rmax)
		}
	}
	if _, err := NewSESANS(spinEcho, 2, 0.2, math.Inf(1), 5000); err == nil {
		t.Error("qmax = inf sollte fehlschlagen")
	}

	q, err := SESANSGrid(0.2, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if len(q) == 0 || len(q) > MaxSESANSPoints || q[len(q)-1] >= 0.2 {
		t.Errorf("Gitter mit %d Punkten, letzter %g", len(q), q[len(q)-1])
	}
}

func make1(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
