// Modul: discover.go
// Beschreibung: Erkennung der Ausfuehrungsumgebung fuer die Backends.
// Enthaelt den gecachten Bootstrap der Compiler-Erkennung und Refresh.

package discover

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sasview/sasmodels/envconfig"
)

// ErrNoCompiler wird gemeldet, wenn kein C-Compiler gefunden wurde
var ErrNoCompiler = errors.New("no C compiler found")

var (
	compilerMu   sync.Mutex
	compilers    []Compiler
	bootstrapped bool
)

// probeTimeout begrenzt die Dauer eines einzelnen Compiler-Aufrufs
const probeTimeout = 10 * time.Second

// Compilers gibt alle nutzbaren C-Compiler zurueck. Die erste Erkennung
// wird gecacht; Refresh erzwingt eine neue.
func Compilers(ctx context.Context) []Compiler {
	compilerMu.Lock()
	defer compilerMu.Unlock()

	if bootstrapped {
		return append([]Compiler{}, compilers...)
	}

	start := time.Now()
	defer func() {
		slog.Debug("compiler discovery took", "duration", time.Since(start))
	}()

	overrideWarnings()

	compilers = nil
	seen := make(map[string]bool)
	for _, name := range candidates() {
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		c, err := probeCompiler(ctx, name)
		cancel()
		if err != nil {
			slog.Debug("skipping compiler", "name", name, "error", err)
			continue
		}

		// cc ist oft nur ein Link auf gcc oder clang
		if seen[c.Path] {
			slog.Debug("dropping duplicate compiler", "name", name, "path", c.Path)
			continue
		}
		seen[c.Path] = true
		compilers = append(compilers, c)
	}

	bootstrapped = true
	return append([]Compiler{}, compilers...)
}

// FindCompiler gibt den bevorzugten C-Compiler zurueck
func FindCompiler(ctx context.Context) (Compiler, error) {
	cs := Compilers(ctx)
	if len(cs) == 0 {
		if name := envconfig.Compiler(); name != "" {
			return Compiler{}, errors.Join(ErrNoCompiler, errors.New("SAS_CC="+name+" is not usable"))
		}
		return Compiler{}, ErrNoCompiler
	}
	return cs[0], nil
}

// Refresh verwirft das Ergebnis der letzten Erkennung
func Refresh() {
	compilerMu.Lock()
	defer compilerMu.Unlock()
	bootstrapped = false
	compilers = nil
}

func overrideWarnings() {
	anyFound := false
	m := envconfig.AsMap()
	for _, k := range []string{"SAS_CC", "SAS_CFLAGS", "SAS_BACKEND"} {
		if e, found := m[k]; found && e.Value != "" {
			anyFound = true
			slog.Info("user override of backend detection", k, e.Value)
		}
	}
	if anyFound {
		slog.Info("if kernels fail to build, unset the overrides and try again")
	}
}
