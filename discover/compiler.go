// Modul: compiler.go
// Beschreibung: Erkennung von C-Compilern fuer das native Backend.
// Enthaelt Kandidatenliste, Versionsabfrage und Build-Flags.

package discover

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sasview/sasmodels/envconfig"
)

// Compiler ist ein nutzbarer C-Compiler
type Compiler struct {
	// Name ist der Aufrufname (z.B. "gcc")
	Name string `json:"name"`

	// Path ist der aufgeloeste absolute Pfad
	Path string `json:"path"`

	// Version ist die erste Zeile von --version
	Version string `json:"version"`
}

func (c Compiler) String() string {
	if c.Version == "" {
		return c.Name
	}
	return c.Version
}

// candidates gibt die zu pruefenden Compiler in Prioritaetsreihenfolge
// zurueck; SAS_CC ersetzt die Standardliste
func candidates() []string {
	if name := envconfig.Compiler(); name != "" {
		return []string{name}
	}
	if runtime.GOOS == "darwin" {
		return []string{"cc", "clang", "gcc"}
	}
	return []string{"cc", "gcc", "clang"}
}

func probeCompiler(ctx context.Context, name string) (Compiler, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return Compiler{}, err
	}
	if eval, err := filepath.EvalSymlinks(path); err == nil {
		path = eval
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return Compiler{}, fmt.Errorf("%s --version: %w", name, err)
	}

	version, _, _ := strings.Cut(strings.TrimSpace(out.String()), "\n")
	return Compiler{Name: name, Path: path, Version: strings.TrimSpace(version)}, nil
}

// SharedFlags sind die Flags zum Bau einer ladbaren Bibliothek
func SharedFlags() []string {
	flags := []string{"-O2", "-std=c99", "-fPIC"}
	if runtime.GOOS == "darwin" {
		return append(flags, "-dynamiclib")
	}
	return append(flags, "-shared")
}

// LibraryExt ist die Dateiendung ladbarer Bibliotheken
func LibraryExt() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	}
	return ".so"
}
