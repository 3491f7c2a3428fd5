// core_test.go - Tests fuer Parameter, Backend-Auswahl und Auswertung
package core

import (
	"context"
	"errors"
	"maps"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sasview/sasmodels/dispersion"
	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/model"
	_ "github.com/sasview/sasmodels/model/models"
	"github.com/sasview/sasmodels/resolution"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func lookup(t *testing.T, name string) *model.Info {
	t.Helper()
	info, err := model.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	return info
}

// =============================================================================
// Parameter
// =============================================================================

func TestParseFlat(t *testing.T) {
	info := lookup(t, "cylinder")

	p, err := ParseFlat(info, info.Demo)
	if err != nil {
		t.Fatal(err)
	}

	if p.Values["radius"] != 20 || p.Values["sld"] != 6 {
		t.Errorf("Values = %v", p.Values)
	}

	expect := map[string]dispersion.Spec{
		"radius": {Shape: dispersion.Gaussian, Width: 0.2, N: 9, NSigma: 3, Relative: true},
		"length": {Shape: dispersion.Gaussian, Width: 0.2, N: 10, NSigma: 3, Relative: true},
		"theta":  {Shape: dispersion.Gaussian, Width: 10, N: 5, NSigma: 3},
		"phi":    {Shape: dispersion.Gaussian, Width: 10, N: 5, NSigma: 3},
	}
	if diff := cmp.Diff(expect, p.Dispersion); diff != "" {
		t.Errorf("Dispersion (-erwartet +erhalten):\n%s", diff)
	}
}

func TestParseFlatTypes(t *testing.T) {
	info := lookup(t, "sphere")

	p, err := ParseFlat(info, map[string]any{
		"radius":           "60",
		"radius_pd":        0.1,
		"radius_pd_type":   "schulz",
		"radius_pd_nsigma": 4,
	})
	if err != nil {
		t.Fatal(err)
	}

	spec := p.Dispersion["radius"]
	if p.Values["radius"] != 60 || spec.Shape != dispersion.Schulz || spec.N != 80 || spec.NSigma != 4 {
		t.Errorf("ParseFlat = %+v", p)
	}
}

func TestParseFlatErrors(t *testing.T) {
	info := lookup(t, "sphere")

	cases := map[string]struct {
		flat       map[string]any
		parameter  string
		suggestion string
	}{
		"typo":       {map[string]any{"raduis": 1.0}, "raduis", "radius"},
		"typo pd":    {map[string]any{"raduis_pd": 0.1}, "raduis_pd", "radius"},
		"bad shape":  {map[string]any{"radius_pd_type": "triangle"}, "radius_pd_type", ""},
		"bad number": {map[string]any{"radius": "big"}, "radius", ""},
		"bad type":   {map[string]any{"radius": true}, "radius", ""},
		"huge npts":  {map[string]any{"radius_pd_n": 1e10}, "radius_pd_n", ""},
		"frac npts":  {map[string]any{"radius_pd_n": 2.5}, "radius_pd_n", ""},
		"neg npts":   {map[string]any{"radius_pd_n": -3}, "radius_pd_n", ""},
		"nan width":  {map[string]any{"radius_pd": math.NaN()}, "radius_pd", ""},
		"inf nsigma": {map[string]any{"radius_pd_nsigma": math.Inf(1)}, "radius_pd_nsigma", ""},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFlat(info, tt.flat)
			var derr *model.DescriptorError
			if !errors.As(err, &derr) {
				t.Fatalf("erwartet DescriptorError, erhalten %v", err)
			}
			if derr.Parameter != tt.parameter || derr.Suggestion != tt.suggestion {
				t.Errorf("Fehler = %+v", derr)
			}
		})
	}
}

func TestResolveCombinationLimit(t *testing.T) {
	info := lookup(t, "cylinder")

	p, err := ParseFlat(info, map[string]any{
		"radius_pd": 0.1, "radius_pd_n": 1000,
		"length_pd": 0.1, "length_pd_n": 1000,
		"theta_pd": 10, "theta_pd_n": 10,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Resolve(info)
	var derr *model.DescriptorError
	if !errors.As(err, &derr) {
		t.Fatalf("Resolve = %v, erwartet DescriptorError", err)
	}
	if !strings.Contains(derr.Reason, "evaluations per point") {
		t.Errorf("Grund = %q", derr.Reason)
	}

	p.Dispersion["theta"] = dispersion.Spec{}
	if _, err := p.Resolve(info); err != nil {
		t.Errorf("1000 x 1000 Punkte sollten erlaubt sein: %v", err)
	}
}

func TestResolve(t *testing.T) {
	info := lookup(t, "cylinder")

	call, err := Parameters{}.Set("radius", 30).Resolve(info)
	if err != nil {
		t.Fatal(err)
	}
	if len(call.Values) != len(info.AllParameters()) || call.Values[4] != 30 || call.Values[0] != 1 {
		t.Errorf("Values = %v", call.Values)
	}
	if call.Dispersion != nil {
		t.Errorf("Dispersion ohne Angaben = %v", call.Dispersion)
	}

	call, err = Parameters{}.Disperse("length", dispersion.Spec{Width: 0.1, N: 7, NSigma: 3, Relative: true}).Resolve(info)
	if err != nil {
		t.Fatal(err)
	}
	if got := call.Dispersion[3].Len(); got != 7 {
		t.Errorf("length Stuetzstellen = %d, erwartet 7", got)
	}
	if got := call.Dispersion[2].Len(); got != 0 {
		t.Errorf("radius Stuetzstellen = %d, erwartet 0", got)
	}

	for name, p := range map[string]Parameters{
		"unknown":      Parameters{}.Set("raduis", 1),
		"sld disperse": Parameters{}.Disperse("sld", dispersion.Spec{Width: 0.1, N: 5}),
		"scale":        Parameters{}.Disperse("scale", dispersion.Spec{Width: 0.1, N: 5}),
	} {
		if _, err := p.Resolve(info); err == nil {
			t.Errorf("%s: erwartet Fehler", name)
		}
	}
}

// =============================================================================
// Auswertung
// =============================================================================

func TestEvaluateReferenceValues(t *testing.T) {
	e := newEngine(t, WithBackend(kernel.Reference), WithPrecision(kernel.Double))
	ctx := context.Background()

	got, err := e.Evaluate(ctx, "cylinder", kernel.Q1D([]float64{0.2}), Parameters{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got[0]-0.041761386790780453) > 1e-6*0.041761386790780453 {
		t.Errorf("cylinder 1D = %.17g", got[0])
	}

	q := kernel.Q2D([]float64{0.2 * math.Cos(2.5)}, []float64{0.2 * math.Sin(2.5)})
	got, err = e.Evaluate(ctx, "cylinder", q, Parameters{}.Set("theta", 10).Set("phi", 10))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got[0]-0.03414647218513852) > 1e-6*0.03414647218513852 {
		t.Errorf("cylinder 2D = %.17g", got[0])
	}
}

func TestEvaluateUnknownModel(t *testing.T) {
	e := newEngine(t, WithBackend(kernel.Reference))
	_, err := e.Evaluate(context.Background(), "cylindr", kernel.Q1D([]float64{0.1}), Parameters{})
	if !errors.Is(err, model.ErrUnknownModel) {
		t.Errorf("Evaluate = %v, erwartet ErrUnknownModel", err)
	}
}

func TestCrossBackendAgreement(t *testing.T) {
	e := newEngine(t, WithPrecision(kernel.Double))
	ctx := context.Background()

	q1 := kernel.Q1D([]float64{0.001, 0.01, 0.05, 0.1, 0.2, 0.4})
	q2 := kernel.Q2D([]float64{0.01, -0.05, 0.1, 0.2}, []float64{0.02, 0.05, -0.1, 0.03})
	magnetic := map[string]any{
		"sld_M0": 2.0, "sld_mtheta": 30.0, "sld_mphi": 45.0,
		"up_frac_i": 0.3, "up_frac_f": 0.8, "up_angle": 20.0,
	}

	cases := []struct {
		name      string
		model     string
		q         kernel.Q
		pars      map[string]any
		precision kernel.Precision
	}{
		{"cylinder/1d", "cylinder", q1, nil, kernel.Double},
		{"cylinder/2d", "cylinder", q2, nil, kernel.Double},
		{"sphere/1d", "sphere", q1, nil, kernel.Double},
		{"sphere/2d", "sphere", q2, nil, kernel.Double},
		{"triaxial_ellipsoid/1d", "triaxial_ellipsoid", q1, nil, kernel.Double},
		{"triaxial_ellipsoid/2d", "triaxial_ellipsoid", q2, nil, kernel.Double},
		{"lamellar/1d", "lamellar", q1, nil, kernel.Double},
		{"broad_peak/1d", "broad_peak", q1, nil, kernel.Double},
		{"cylinder/magnetic", "cylinder", q2, merge(magnetic, map[string]any{"theta_pd": 5.0, "theta_pd_n": 5.0}), kernel.Double},
		{"sphere/magnetic", "sphere", q2, magnetic, kernel.Double},
		{"cylinder/1d/single", "cylinder", q1, nil, kernel.Single},
		{"cylinder/2d/single", "cylinder", q2, nil, kernel.Single},
		{"sphere/magnetic/single", "sphere", q2, magnetic, kernel.Single},
	}

	for _, tt := range cases {
		info := lookup(t, tt.model)
		params, err := ParseFlat(info, merge(info.Demo, tt.pars))
		if err != nil {
			t.Fatal(err)
		}

		expect, err := e.Evaluate(ctx, tt.model, tt.q, params, OnBackend(kernel.Reference))
		if err != nil {
			t.Fatal(err)
		}

		tol := math.Max(tt.precision.Tolerance(), 1e-5)
		for _, caps := range e.Backends() {
			if caps.Name == kernel.Reference || !caps.Supports(tt.precision) {
				continue
			}
			t.Run(tt.name+"/"+string(caps.Name), func(t *testing.T) {
				got, err := e.Evaluate(ctx, tt.model, tt.q, params, OnBackend(caps.Name), AtPrecision(tt.precision))
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(expect, got, cmpopts.EquateApprox(tol, 0)); diff != "" {
					t.Errorf("Backends weichen ab (-reference +%s):\n%s", caps.Name, diff)
				}
			})
		}
	}
}

// merge gibt eine Kopie von base mit den Werten aus over zurueck
func merge(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	maps.Copy(out, base)
	maps.Copy(out, over)
	return out
}

func TestSinglePointIdentity(t *testing.T) {
	e := newEngine(t, WithBackend(kernel.Reference))
	ctx := context.Background()
	q := kernel.Q1D([]float64{0.01, 0.1, 0.3})

	expect, err := e.Evaluate(ctx, "cylinder", q, Parameters{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := e.Evaluate(ctx, "cylinder", q, Parameters{}.Disperse("radius", dispersion.Spec{Width: 0.3, N: 1}))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Errorf("N=1 veraendert das Ergebnis:\n%s", diff)
	}
}

func TestVolumeScaling(t *testing.T) {
	e := newEngine(t, WithBackend(kernel.Reference))
	ctx := context.Background()
	pd := dispersion.Spec{Width: 0.1, N: 11, NSigma: 3, Relative: true}

	q := []float64{0.005, 0.02, 0.08}
	half := make([]float64, len(q))
	for i, v := range q {
		half[i] = v / 2
	}

	small, err := e.Evaluate(ctx, "sphere", kernel.Q1D(q), Parameters{}.Set("radius", 40).Disperse("radius", pd))
	if err != nil {
		t.Fatal(err)
	}
	large, err := e.Evaluate(ctx, "sphere", kernel.Q1D(half), Parameters{}.Set("radius", 80).Disperse("radius", pd))
	if err != nil {
		t.Fatal(err)
	}

	for i := range q {
		if ratio := large[i] / small[i]; math.Abs(ratio-8) > 1e-9 {
			t.Errorf("Punkt %d: Verhaeltnis %v, erwartet 8", i, ratio)
		}
	}
}

func TestZeroWidthResolution(t *testing.T) {
	e := newEngine(t, WithBackend(kernel.Reference))
	ctx := context.Background()
	q := []float64{0.01, 0.05, 0.1}

	res, err := resolution.NewPinhole1D(q, make([]float64, len(q)))
	if err != nil {
		t.Fatal(err)
	}

	expect, _ := e.Evaluate(ctx, "sphere", kernel.Q1D(q), Parameters{})
	got, err := e.Evaluate(ctx, "sphere", kernel.Q1D(nil), Parameters{}, WithResolution(res))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(expect, got, cmpopts.EquateApprox(1e-12, 0)); diff != "" {
		t.Errorf("Aufloesung ohne Breite veraendert das Ergebnis:\n%s", diff)
	}
}

func TestDeterministic(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	info := lookup(t, "cylinder")
	params, _ := ParseFlat(info, info.Demo)
	q := kernel.Q1D([]float64{0.01, 0.1, 0.2})

	first, err := e.Evaluate(ctx, "cylinder", q, params)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := e.Evaluate(ctx, "cylinder", q, params)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("wiederholte Auswertung weicht ab:\n%s", diff)
	}
}

func TestContextCanceled(t *testing.T) {
	e := newEngine(t, WithBackend(kernel.Reference))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Evaluate(ctx, "sphere", kernel.Q1D([]float64{0.1}), Parameters{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Evaluate = %v, erwartet context.Canceled", err)
	}
}

// =============================================================================
// Backend-Auswahl und Cache
// =============================================================================

func TestBackendUnavailable(t *testing.T) {
	info := &model.Info{
		Name:       "source_only",
		Parameters: []model.Parameter{{Name: "a", Default: 1, Limits: model.Unbounded()}},
		Source:     []model.Fragment{{Name: "source_only.c", Text: "double Iq(double q, double a) { return a*q; }"}},
	}

	e := newEngine(t, WithBackend(kernel.Reference))
	_, err := e.EvaluateInfo(context.Background(), info, kernel.Q1D([]float64{0.1}), Parameters{})

	var uerr *BackendUnavailableError
	if !errors.As(err, &uerr) {
		t.Fatalf("erwartet BackendUnavailableError, erhalten %v", err)
	}
	if len(uerr.Attempts) != 1 || uerr.Attempts[0].Backend != kernel.Reference {
		t.Errorf("Attempts = %v", uerr.Attempts)
	}
	if !errors.Is(err, kernel.ErrNoHostKernel) {
		t.Errorf("Ursache fehlt: %v", err)
	}
}

func TestEnvBackend(t *testing.T) {
	t.Setenv("SAS_BACKEND", "reference")
	e := newEngine(t)
	if caps := e.Backends(); len(caps) != 1 || caps[0].Name != kernel.Reference {
		t.Errorf("Backends = %v", caps)
	}

	t.Setenv("SAS_BACKEND", "cuda")
	if _, err := New(); err == nil {
		t.Error("erwartet Fehler fuer unbekanntes Backend")
	}
}

func TestKernelCache(t *testing.T) {
	e := newEngine(t, WithBackend(kernel.Reference))
	info := lookup(t, "sphere")

	var wg sync.WaitGroup
	kernels := make([]kernel.Kernel, 8)
	for i := range kernels {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kernels[i], _ = e.Kernel(info, kernel.Double)
		}()
	}
	wg.Wait()

	for i, k := range kernels {
		if k == nil || k != kernels[0] {
			t.Errorf("Kernel %d = %v, erwartet gemeinsamen Kernel", i, k)
		}
	}

	single, _ := e.Kernel(info, kernel.Single)
	if single == kernels[0] || single.Precision() != kernel.Single {
		t.Error("Praezision ist nicht Teil des Cache-Schluessels")
	}
}

// =============================================================================
// Effektiver Radius und Selbsttest
// =============================================================================

func TestEffectiveRadius(t *testing.T) {
	e := newEngine(t, WithBackend(kernel.Reference))

	r, err := e.EffectiveRadius("cylinder", Parameters{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r-73.34013315261608) > 1e-9 {
		t.Errorf("ER = %.17g", r)
	}

	// lineares ER: symmetrische Gauss-Gewichte erhalten den Mittelwert
	r, err = e.EffectiveRadius("sphere", Parameters{}.Disperse("radius", dispersion.Spec{Width: 0.1, N: 21, NSigma: 3, Relative: true}))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r-50) > 1e-9 {
		t.Errorf("sphere ER = %v, erwartet 50", r)
	}

	if _, err := e.EffectiveRadius("lamellar", Parameters{}); !errors.Is(err, ErrNoEffectiveRadius) {
		t.Errorf("lamellar ER = %v, erwartet ErrNoEffectiveRadius", err)
	}
}

func TestSelfTest(t *testing.T) {
	e := newEngine(t)

	for _, p := range []kernel.Precision{kernel.Double, kernel.Single} {
		results, err := e.SelfTest(context.Background(), model.List(), p)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) == 0 {
			t.Fatal("keine Ergebnisse")
		}
		for _, r := range results {
			if !r.Passed() {
				t.Errorf("%s/%s/%s Test %d: Fehler %v, %v", r.Backend, r.Model, r.Precision, r.Index, r.MaxError, r.Err)
			}
		}
	}
}
