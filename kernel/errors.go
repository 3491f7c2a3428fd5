// errors.go - Fehlertypen der Backends
package kernel

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoHostKernel meldet ein Modell ohne Go-Implementierung
	ErrNoHostKernel = errors.New("model has no host implementation")

	// ErrClosed meldet die Nutzung eines geschlossenen Kernels
	ErrClosed = errors.New("kernel is closed")
)

// BuildError meldet einen Fehler bei Quelltext-Erzeugung oder Kompilierung.
// Diagnostics enthaelt das Compiler- bzw. Build-Log.
type BuildError struct {
	Backend     Name
	Model       string
	Precision   Precision
	Diagnostics string
	Err         error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: build %s (%s): %v", e.Backend, e.Model, e.Precision, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// PrecisionError meldet eine vom Backend nicht unterstuetzte Praezision
type PrecisionError struct {
	Backend   Name
	Precision Precision
	Reason    string
}

func (e *PrecisionError) Error() string {
	return fmt.Sprintf("%s: %s precision not supported: %s", e.Backend, e.Precision, e.Reason)
}

// EvaluationError meldet einen Laufzeitfehler einer Auswertung.
// Index ist der erste betroffene Q-Punkt oder -1.
type EvaluationError struct {
	Backend Name
	Model   string
	Index   int
	Err     error
}

func (e *EvaluationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: evaluate %s at point %d: %v", e.Backend, e.Model, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: evaluate %s: %v", e.Backend, e.Model, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// ErrNaN wird in EvaluationError fuer NaN-Ergebnisse verwendet
var ErrNaN = errors.New("result is NaN")

// CheckFinite meldet das erste NaN in result als *EvaluationError
func CheckFinite(backend Name, model string, result []float64) error {
	for i, v := range result {
		if math.IsNaN(v) {
			return &EvaluationError{Backend: backend, Model: model, Index: i, Err: ErrNaN}
		}
	}
	return nil
}
