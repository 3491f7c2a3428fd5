// reference_test.go - Tests fuer das Referenz-Backend
package reference

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sasview/sasmodels/dispersion"
	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/model"
	_ "github.com/sasview/sasmodels/model/models"
)

// call baut einen Aufruf aus den Defaults von info und den Werten in pars
func call(info *model.Info, pars map[string]float64) kernel.Call {
	all := info.AllParameters()
	values := make([]float64, len(all))
	for i, p := range all {
		values[i] = p.Default
		if v, ok := pars[p.Name]; ok {
			values[i] = v
		}
	}
	return kernel.Call{Values: values}
}

func eval(t *testing.T, name string, q kernel.Q, c kernel.Call) []float64 {
	t.Helper()

	info, err := model.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}

	b, _ := New()
	k, err := b.Compile(info, kernel.Double)
	if err != nil {
		t.Fatal(err)
	}
	defer k.Close()

	e, err := k.Bind(q)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	out, err := e.Eval(c)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func relClose(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(math.Abs(b), 1e-300)
}

func TestCatalogReferenceValues(t *testing.T) {
	for _, info := range model.List() {
		for i, tc := range info.Tests {
			t.Run(info.Name, func(t *testing.T) {
				q := kernel.Q1D(tc.Q)
				if tc.Is2D() {
					q = kernel.Q2D(tc.Qx, tc.Qy)
				}

				got := eval(t, info.Name, q, call(info, tc.Pars))
				for j, expect := range tc.Expected {
					if !relClose(got[j], expect, 1e-6) {
						t.Errorf("Test %d Punkt %d: I = %.15g, erwartet %.15g", i, j, got[j], expect)
					}
				}
			})
		}
	}
}

func TestSinglePointDispersion(t *testing.T) {
	info, _ := model.Lookup("cylinder")
	q := kernel.Q1D([]float64{0.01, 0.05, 0.2})

	plain := call(info, nil)
	expect := eval(t, "cylinder", q, plain)

	withSets := call(info, nil)
	withSets.Dispersion = make([]dispersion.WeightSet, len(info.Parameters))
	withSets.Dispersion[2] = dispersion.WeightSet{Values: []float64{20}, Weights: []float64{3}}

	got := eval(t, "cylinder", q, withSets)
	if diff := cmp.Diff(expect, got, cmpopts.EquateApprox(1e-12, 0)); diff != "" {
		t.Errorf("Einzelpunkt-Dispersion weicht ab (-erwartet +erhalten):\n%s", diff)
	}
}

func TestVolumeScaling(t *testing.T) {
	q := kernel.Q1D([]float64{1e-6})

	info, _ := model.Lookup("sphere")
	small := eval(t, "sphere", q, call(info, map[string]float64{"radius": 20}))
	large := eval(t, "sphere", q, call(info, map[string]float64{"radius": 40}))

	if ratio := large[0] / small[0]; !relClose(ratio, 8, 1e-6) {
		t.Errorf("I(0) Verhaeltnis = %v, erwartet 8", ratio)
	}
}

func TestZeroVolumeGivesBackground(t *testing.T) {
	info, _ := model.Lookup("sphere")
	got := eval(t, "sphere", kernel.Q1D([]float64{0.01, 0.1}), call(info, map[string]float64{"radius": 0, "background": 0.5}))

	if diff := cmp.Diff([]float64{0.5, 0.5}, got); diff != "" {
		t.Errorf("ohne Volumen erwartet nur Untergrund:\n%s", diff)
	}
}

func TestNaNReported(t *testing.T) {
	info, _ := model.Lookup("lamellar")

	b, _ := New()
	k, err := b.Compile(info, kernel.Double)
	if err != nil {
		t.Fatal(err)
	}
	e, err := k.Bind(kernel.Q1D([]float64{0.1, 0}))
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.Eval(call(info, nil))
	var eerr *kernel.EvaluationError
	if !errors.As(err, &eerr) {
		t.Fatalf("erwartet EvaluationError, erhalten %v", err)
	}
	if eerr.Index != 1 || !errors.Is(err, kernel.ErrNaN) {
		t.Errorf("Fehler = %v, erwartet NaN an Punkt 1", err)
	}
}

func TestMagneticParallelMoment(t *testing.T) {
	info, _ := model.Lookup("sphere")

	// Moment entlang x und q entlang x: keine senkrechte Komponente,
	// der down-down Kanal sieht die nukleare Streulaengendichte
	pars := map[string]float64{"sld_M0": 1}
	got := eval(t, "sphere", kernel.Q2D([]float64{0.05}, []float64{0}), call(info, pars))
	expect := eval(t, "sphere", kernel.Q1D([]float64{0.05}), call(info, nil))

	if !relClose(got[0], expect[0], 1e-12) {
		t.Errorf("I = %v, erwartet %v", got[0], expect[0])
	}
}

func TestPrecisionRounding(t *testing.T) {
	info, _ := model.Lookup("sphere")

	b, _ := New()
	k, err := b.Compile(info, kernel.Half)
	if err != nil {
		t.Fatal(err)
	}
	e, _ := k.Bind(kernel.Q1D(info.Tests[0].Q))
	got, err := e.Eval(call(info, nil))
	if err != nil {
		t.Fatal(err)
	}

	for i, expect := range info.Tests[0].Expected {
		if !relClose(got[i], expect, kernel.Half.Tolerance()) {
			t.Errorf("Punkt %d: I = %v, erwartet %v", i, got[i], expect)
		}
		if got[i] != kernel.Half.Round(got[i]) {
			t.Errorf("Punkt %d nicht auf half gerundet: %v", i, got[i])
		}
	}
}

func TestErrors(t *testing.T) {
	b, _ := New()

	noHost := &model.Info{Name: "nohost", Source: []model.Fragment{{Name: "x.c", Text: "double Iq(double q) { return q; }"}}}
	_, err := b.Compile(noHost, kernel.Double)
	var berr *kernel.BuildError
	if !errors.As(err, &berr) || !errors.Is(err, kernel.ErrNoHostKernel) {
		t.Errorf("Compile ohne Host = %v, erwartet BuildError", err)
	}

	info, _ := model.Lookup("sphere")
	k, _ := b.Compile(info, kernel.Double)
	e, _ := k.Bind(kernel.Q1D([]float64{0.1}))

	if _, err := e.Eval(kernel.Call{Values: []float64{1}}); err == nil {
		t.Error("erwartet Fehler fuer falsche Wertezahl")
	}

	k.Close()
	if _, err := e.Eval(call(info, nil)); !errors.Is(err, kernel.ErrClosed) {
		t.Errorf("Eval nach Close = %v, erwartet ErrClosed", err)
	}
	if _, err := k.Bind(kernel.Q1D([]float64{0.1})); !errors.Is(err, kernel.ErrClosed) {
		t.Errorf("Bind nach Close = %v, erwartet ErrClosed", err)
	}
}

func TestConcurrentEvaluators(t *testing.T) {
	info, _ := model.Lookup("sphere")
	b, _ := New()
	k, err := b.Compile(info, kernel.Double)
	if err != nil {
		t.Fatal(err)
	}
	defer k.Close()

	q := kernel.Q2D([]float64{0.01, 0.03, 0.05, 0.1}, []float64{0.02, 0, 0.04, 0.1})
	radii := []float64{20, 80}
	expect := make([][]float64, len(radii))
	for i, r := range radii {
		expect[i] = eval(t, "sphere", q, call(info, map[string]float64{"radius": r}))
	}

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := k.Bind(q)
			if err != nil {
				t.Error(err)
				return
			}
			defer e.Close()

			for n := range 50 {
				i := (g + n) % len(radii)
				got, err := e.Eval(call(info, map[string]float64{"radius": radii[i]}))
				if err != nil {
					t.Error(err)
					return
				}
				if d := cmp.Diff(expect[i], got); d != "" {
					t.Errorf("Goroutine %d, radius %g (-want +got):\n%s", g, radii[i], d)
					return
				}
			}
		}()
	}
	wg.Wait()
}
