// selftest.go - Pruefung der Referenzwerte aller Modelle auf allen Backends
package core

import (
	"context"
	"errors"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/model"
)

// TestResult ist das Ergebnis eines Referenztests auf einem Backend
type TestResult struct {
	Model     string           `json:"model"`
	Backend   kernel.Name      `json:"backend"`
	Precision kernel.Precision `json:"precision"`
	Index     int              `json:"index"`
	Expected  []float64        `json:"expected,omitempty"`
	Got       []float64        `json:"got,omitempty"`

	// MaxError ist der groesste relative Fehler
	MaxError float64 `json:"max_error"`

	// Skipped ist gesetzt, wenn das Backend das Modell nicht ausfuehren kann
	Skipped bool  `json:"skipped,omitempty"`
	Err     error `json:"-"`
}

// Passed meldet, ob der Test innerhalb der Toleranz der Praezision liegt
func (r TestResult) Passed() bool {
	return r.Skipped || (r.Err == nil && r.MaxError <= r.Precision.Tolerance())
}

// SelfTest wertet die Tests aller infos auf allen Backends aus. Jede
// Kombination aus Backend und Modell laeuft mit eigenem Evaluator parallel.
func (e *Engine) SelfTest(ctx context.Context, infos []*model.Info, p kernel.Precision) ([]TestResult, error) {
	type job struct {
		backend kernel.Backend
		info    *model.Info
		offset  int
	}

	var jobs []job
	n := 0
	for _, b := range e.backends {
		for _, info := range infos {
			jobs = append(jobs, job{b, info, n})
			n += len(info.Tests)
		}
	}

	results := make([]TestResult, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, j := range jobs {
		g.Go(func() error {
			return e.runTests(ctx, j.backend, j.info, p, results[j.offset:j.offset+len(j.info.Tests)])
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runTests fuellt out mit den Ergebnissen der Tests von info auf b. Nur
// Abbruch des Kontexts ist ein Fehler; alles andere steht im Ergebnis.
func (e *Engine) runTests(ctx context.Context, b kernel.Backend, info *model.Info, p kernel.Precision, out []TestResult) error {
	for i, tc := range info.Tests {
		out[i] = TestResult{Model: info.Name, Backend: b.Name(), Precision: p, Index: i, Expected: tc.Expected}
	}

	skip := func() error {
		for i := range out {
			out[i].Skipped = true
		}
		return nil
	}
	if !b.Capabilities().Supports(p) {
		return skip()
	}

	k, err := e.compile(b, info, p)
	var perr *kernel.PrecisionError
	if errors.Is(err, kernel.ErrNoHostKernel) || errors.As(err, &perr) {
		return skip()
	}

	for i, tc := range info.Tests {
		if err := ctx.Err(); err != nil {
			return err
		}
		if k == nil {
			out[i].Err = err
			continue
		}
		out[i].Got, out[i].MaxError, out[i].Err = runTest(k, tc)
	}
	return nil
}

func runTest(k kernel.Kernel, tc model.Test) ([]float64, float64, error) {
	q := kernel.Q1D(tc.Q)
	if tc.Is2D() {
		q = kernel.Q2D(tc.Qx, tc.Qy)
	}

	call, err := Parameters{Values: tc.Pars}.Resolve(k.Info())
	if err != nil {
		return nil, 0, err
	}

	ev, err := k.Bind(q)
	if err != nil {
		return nil, 0, err
	}
	defer ev.Close()

	got, err := ev.Eval(call)
	if err != nil {
		return nil, 0, err
	}

	var worst float64
	for i, expect := range tc.Expected {
		rel := math.Abs(got[i]-expect) / math.Max(math.Abs(expect), 1e-300)
		if math.IsNaN(rel) {
			rel = math.Inf(1)
		}
		worst = math.Max(worst, rel)
	}
	return got, worst, nil
}
