// MODUL: core
// ZWECK: Einstiegspunkt fuer Auswertungen: Backend-Auswahl, Kernel-Cache,
//        Parameteraufloesung, Aufloesungsfaltung und Selbsttest
// INPUT: Modellname oder model.Info, Q-Vektoren, Parameters
// OUTPUT: I(Q) bzw. Selbsttest-Ergebnisse
// NEBENEFFEKTE: Oeffnet Backends (Geraete, Compiler) und haelt Kernel
// ABHAENGIGKEITEN: kernel (+ reference, native, opencl), resolution,
//                  dispersion, x/sync (singleflight, errgroup)
// HINWEISE: Die automatische Auswahl faellt bei Build-Fehlern auf das
//           naechste Backend zurueck

// Package core waehlt Backends aus und fuehrt Modelle aus.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sasview/sasmodels/envconfig"
	"github.com/sasview/sasmodels/kernel"
	_ "github.com/sasview/sasmodels/kernel/native"
	_ "github.com/sasview/sasmodels/kernel/opencl"
	_ "github.com/sasview/sasmodels/kernel/reference"
	"github.com/sasview/sasmodels/model"
	"github.com/sasview/sasmodels/resolution"
)

// =============================================================================
// Optionen
// =============================================================================

type options struct {
	backends  []kernel.Name
	precision kernel.Precision
}

// Option konfiguriert New
type Option func(*options)

// WithBackend beschraenkt die Auswahl auf names in dieser Reihenfolge
func WithBackend(names ...kernel.Name) Option {
	return func(o *options) {
		o.backends = names
	}
}

// WithPrecision setzt die Standard-Praezision (sonst SAS_PRECISION)
func WithPrecision(p kernel.Precision) Option {
	return func(o *options) {
		o.precision = p
	}
}

// =============================================================================
// Engine
// =============================================================================

type cacheKey struct {
	model     string
	precision kernel.Precision
	backend   kernel.Name
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.backend, k.model, k.precision)
}

// Engine fuehrt Modelle auf dem besten verfuegbaren Backend aus. Engine
// ist thread-safe; Evaluatoren sind es nicht.
type Engine struct {
	precision   kernel.Precision
	backends    []kernel.Backend
	unavailable []Attempt

	mu      sync.RWMutex
	kernels map[cacheKey]kernel.Kernel
	group   singleflight.Group
}

// New oeffnet die Backends. Ohne WithBackend gilt SAS_BACKEND, sonst die
// Reihenfolge opencl, native, reference.
func New(opts ...Option) (*Engine, error) {
	o := options{precision: kernel.DefaultPrecision()}
	for _, opt := range opts {
		opt(&o)
	}

	if len(o.backends) == 0 {
		o.backends = kernel.DefaultPriority()
		if s := envconfig.Backend(); s != "" && s != "auto" {
			name, err := kernel.ParseName(s)
			if err != nil {
				return nil, fmt.Errorf("SAS_BACKEND: %w", err)
			}
			o.backends = []kernel.Name{name}
		}
	}

	e := &Engine{precision: o.precision, kernels: make(map[cacheKey]kernel.Kernel)}
	for _, name := range o.backends {
		b, err := kernel.Open(name)
		if err != nil {
			slog.Debug("backend unavailable", "backend", name, "error", err)
			e.unavailable = append(e.unavailable, Attempt{Backend: name, Err: err})
			continue
		}
		slog.Debug("backend available", "backend", name, "capabilities", b.Capabilities())
		e.backends = append(e.backends, b)
	}

	if len(e.backends) == 0 {
		return nil, &BackendUnavailableError{Attempts: e.unavailable}
	}
	return e, nil
}

// Precision gibt die Standard-Praezision zurueck
func (e *Engine) Precision() kernel.Precision {
	return e.precision
}

// Backends gibt die Faehigkeiten der geoeffneten Backends zurueck
func (e *Engine) Backends() []kernel.Capabilities {
	caps := make([]kernel.Capabilities, len(e.backends))
	for i, b := range e.backends {
		caps[i] = b.Capabilities()
	}
	return caps
}

// Unavailable gibt die Backends zurueck, die nicht geoeffnet werden konnten
func (e *Engine) Unavailable() []Attempt {
	return e.unavailable
}

func (e *Engine) backend(name kernel.Name) (kernel.Backend, bool) {
	for _, b := range e.backends {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

// compile gibt den gecachten Kernel von b zurueck oder baut ihn; parallele
// Anfragen fuer denselben Schluessel bauen nur einmal
func (e *Engine) compile(b kernel.Backend, info *model.Info, p kernel.Precision) (kernel.Kernel, error) {
	key := cacheKey{model: info.Name, precision: p, backend: b.Name()}

	e.mu.RLock()
	k, ok := e.kernels[key]
	e.mu.RUnlock()
	if ok {
		return k, nil
	}

	v, err, _ := e.group.Do(key.String(), func() (any, error) {
		e.mu.RLock()
		k, ok := e.kernels[key]
		e.mu.RUnlock()
		if ok {
			return k, nil
		}

		k, err := b.Compile(info, p)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		e.kernels[key] = k
		e.mu.Unlock()
		slog.Debug("compiled kernel", "key", key)
		return k, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(kernel.Kernel), nil
}

// Kernel gibt einen Kernel fuer info in Praezision p zurueck. Backends, die
// p nicht unterstuetzen oder beim Bau scheitern, werden uebersprungen.
func (e *Engine) Kernel(info *model.Info, p kernel.Precision) (kernel.Kernel, error) {
	var attempts []Attempt
	for _, b := range e.backends {
		if !b.Capabilities().Supports(p) {
			attempts = append(attempts, Attempt{Backend: b.Name(), Err: &kernel.PrecisionError{Backend: b.Name(), Precision: p, Reason: "not supported by device"}})
			continue
		}

		k, err := e.compile(b, info, p)
		if err == nil {
			return k, nil
		}

		var berr *kernel.BuildError
		var perr *kernel.PrecisionError
		if !errors.As(err, &berr) && !errors.As(err, &perr) {
			return nil, err
		}
		slog.Debug("backend cannot run model, trying next", "backend", b.Name(), "model", info.Name, "error", err)
		attempts = append(attempts, Attempt{Backend: b.Name(), Err: err})
	}
	return nil, &BackendUnavailableError{Model: info.Name, Precision: p, Attempts: attempts}
}

// Close schliesst alle Kernel und Backends
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for key, k := range e.kernels {
		errs = append(errs, k.Close())
		delete(e.kernels, key)
	}
	for _, b := range e.backends {
		errs = append(errs, b.Close())
	}
	e.backends = nil
	return errors.Join(errs...)
}

// =============================================================================
// Auswertung
// =============================================================================

type evalOptions struct {
	resolution resolution.Resolution
	precision  kernel.Precision
	backend    kernel.Name
}

// EvalOption konfiguriert eine einzelne Auswertung
type EvalOption func(*evalOptions)

// WithResolution wertet auf res.QCalc() aus und faltet das Ergebnis; der
// q-Parameter von Evaluate wird dann ignoriert
func WithResolution(res resolution.Resolution) EvalOption {
	return func(o *evalOptions) {
		o.resolution = res
	}
}

// AtPrecision ueberschreibt die Standard-Praezision der Engine
func AtPrecision(p kernel.Precision) EvalOption {
	return func(o *evalOptions) {
		o.precision = p
	}
}

// OnBackend erzwingt ein bestimmtes geoeffnetes Backend
func OnBackend(name kernel.Name) EvalOption {
	return func(o *evalOptions) {
		o.backend = name
	}
}

// Evaluate wertet das registrierte Modell name aus
func (e *Engine) Evaluate(ctx context.Context, name string, q kernel.Q, params Parameters, opts ...EvalOption) ([]float64, error) {
	info, err := model.Lookup(name)
	if err != nil {
		return nil, err
	}
	return e.EvaluateInfo(ctx, info, q, params, opts...)
}

// EvaluateInfo wertet info aus
func (e *Engine) EvaluateInfo(ctx context.Context, info *model.Info, q kernel.Q, params Parameters, opts ...EvalOption) ([]float64, error) {
	o := evalOptions{precision: e.precision}
	for _, opt := range opts {
		opt(&o)
	}

	if o.resolution != nil {
		q = o.resolution.QCalc()
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	call, err := params.Resolve(info)
	if err != nil {
		return nil, err
	}

	var k kernel.Kernel
	if o.backend != "" {
		b, ok := e.backend(o.backend)
		if !ok {
			return nil, &BackendUnavailableError{Model: info.Name, Precision: o.precision, Attempts: []Attempt{{Backend: o.backend, Err: kernel.ErrUnavailable}}}
		}
		k, err = e.compile(b, info, o.precision)
	} else {
		k, err = e.Kernel(info, o.precision)
	}
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ev, err := k.Bind(q)
	if err != nil {
		return nil, err
	}
	defer ev.Close()

	result, err := ev.Eval(call)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if o.resolution != nil {
		return o.resolution.Apply(result)
	}
	return result, nil
}
