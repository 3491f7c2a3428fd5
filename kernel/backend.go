// backend.go - Backend-Interfaces und Registrierung
package kernel

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sasview/sasmodels/model"
)

// Name identifiziert ein Backend
type Name string

const (
	OpenCL    Name = "opencl"
	Native    Name = "native"
	Reference Name = "reference"
)

// DefaultPriority ist die Praeferenzreihenfolge der automatischen Auswahl
func DefaultPriority() []Name {
	return []Name{OpenCL, Native, Reference}
}

// ParseName prueft einen Backend-Namen
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !slices.Contains(DefaultPriority(), n) {
		return "", fmt.Errorf("unknown backend %q", s)
	}
	return n, nil
}

// Capabilities beschreibt, was ein Backend auf diesem Host leisten kann
type Capabilities struct {
	Name     Name     `json:"name"`
	Double   bool     `json:"double"`
	Half     bool     `json:"half"`
	Device   string   `json:"device,omitempty"`
	Compiler string   `json:"compiler,omitempty"`
	Features []string `json:"features,omitempty"`
}

// Supports meldet, ob die Praezision unterstuetzt wird
func (c Capabilities) Supports(p Precision) bool {
	switch p {
	case Half:
		return c.Half
	case Double:
		return c.Double
	}
	return true
}

// Backend uebersetzt Modell-Beschreibungen in ausfuehrbare Kernel
type Backend interface {
	Name() Name
	Capabilities() Capabilities

	// Compile erzeugt einen Kernel fuer info in Praezision p.
	// Fehler sind *BuildError oder *PrecisionError.
	Compile(info *model.Info, p Precision) (Kernel, error)

	// Close gibt Geraete-Ressourcen frei
	Close() error
}

// Kernel ist ein kompiliertes Modell in einer Praezision
type Kernel interface {
	Info() *model.Info
	Precision() Precision

	// Bind bindet den Kernel an einen festen Q-Satz
	Bind(q Q) (Evaluator, error)

	// Close ist idempotent
	Close() error
}

// Evaluator ist ein an Q gebundener Kernel. Evaluatoren sind nicht
// thread-safe; unabhaengige Evaluatoren duerfen parallel laufen.
type Evaluator interface {
	Eval(call Call) ([]float64, error)
	Close() error
}

// ============================================================================
// Registrierung
// ============================================================================

// ErrUnavailable markiert Backends, die auf diesem Host nicht laufen
var ErrUnavailable = errors.New("backend unavailable")

// Factory oeffnet ein Backend
type Factory func() (Backend, error)

var factories = struct {
	sync.RWMutex
	m map[Name]Factory
}{m: make(map[Name]Factory)}

// Register registriert eine Backend-Factory
func Register(name Name, f Factory) {
	factories.Lock()
	defer factories.Unlock()

	if _, ok := factories.m[name]; ok {
		panic("kernel: backend already registered: " + string(name))
	}
	factories.m[name] = f
}

// Open oeffnet das Backend name
func Open(name Name) (Backend, error) {
	factories.RLock()
	f, ok := factories.m[name]
	factories.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s is not compiled in", ErrUnavailable, name)
	}
	return f()
}

// Registered gibt die registrierten Backends in Prioritaetsreihenfolge zurueck
func Registered() []Name {
	factories.RLock()
	defer factories.RUnlock()

	var names []Name
	for _, n := range DefaultPriority() {
		if _, ok := factories.m[n]; ok {
			names = append(names, n)
		}
	}
	return names
}
