//go:build cgo && !windows

// compile.go - Bau ladbarer Bibliotheken mit dem System-C-Compiler
package native

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sasview/sasmodels/buildcache"
	"github.com/sasview/sasmodels/discover"
	"github.com/sasview/sasmodels/envconfig"
	"github.com/sasview/sasmodels/generate"
	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/logutil"
)

// compileTimeout begrenzt einen einzelnen Compiler-Lauf
const compileTimeout = 2 * time.Minute

// rename verschiebt eine fertige Bibliothek an ihren Zielpfad
var rename = os.Rename

// flags gibt die vollstaendigen Compiler-Flags ohne Ein- und Ausgabe zurueck
func flags() []string {
	f := discover.SharedFlags()
	f = append(f, strings.Fields(envconfig.CFlags())...)
	if envconfig.Vectorize() {
		f = append(f, discover.VectorFlags(discover.HostCPU())...)
	}
	return f
}

// libraryKey identifiziert eine Bibliothek aus Quelltext, Compiler und Flags
func libraryKey(src *generate.Source, cc discover.Compiler, flags []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n%s\n%s", src.Hash, cc.Path, cc.Version, strings.Join(flags, " "))
	return hex.EncodeToString(h.Sum(nil))
}

// build gibt den Pfad einer Bibliothek fuer src zurueck und baut sie bei
// Bedarf. Jeder Fehler wird als *kernel.BuildError gemeldet.
func (b *Backend) build(ctx context.Context, src *generate.Source, p kernel.Precision) (string, error) {
	f := flags()
	key := libraryKey(src, b.compiler, f)

	if b.cache != nil {
		e, ok, err := b.cache.Lookup(key)
		if err != nil {
			slog.Warn("build cache lookup failed", "model", src.Model, "error", err)
		} else if ok {
			slog.Debug("using cached kernel library", "model", src.Model, "target", src.Target, "file", e.File)
			return e.File, nil
		}
	}

	fail := func(err error, diagnostics string) error {
		return &kernel.BuildError{
			Backend:     kernel.Native,
			Model:       src.Model,
			Precision:   p,
			Diagnostics: diagnostics,
			Err:         err,
		}
	}

	dst := filepath.Join(b.workDir, key+discover.LibraryExt())
	if b.cache != nil {
		dst = b.cache.Path(key, discover.LibraryExt())
	}

	// Gebaut wird im Zielverzeichnis, damit rename nie Dateisysteme wechselt
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fail(err, "")
	}
	tmp, err := os.MkdirTemp(filepath.Dir(dst), ".build-*")
	if err != nil {
		return "", fail(err, "")
	}
	defer os.RemoveAll(tmp)

	srcPath := filepath.Join(tmp, src.Model+".c")
	logutil.Trace("kernel source", "model", src.Model, "target", src.Target, "code", src.Code)
	if err := os.WriteFile(srcPath, []byte(src.Code), 0o644); err != nil {
		return "", fail(err, "")
	}

	out := filepath.Join(tmp, src.Model+discover.LibraryExt())
	args := append(f, "-o", out, srcPath, "-lm")

	ctx, cancel := context.WithTimeout(ctx, compileTimeout)
	defer cancel()

	start := time.Now()
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.compiler.Path, args...)
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fail(fmt.Errorf("%s: %w", b.compiler.Name, err), stderr.String())
	}
	slog.Debug("compiled kernel library", "model", src.Model, "target", src.Target, "duration", time.Since(start))

	if err := rename(out, dst); err != nil {
		return "", fail(err, "")
	}

	if b.cache != nil {
		err := b.cache.Store(buildcache.Entry{
			Hash:     key,
			Model:    src.Model,
			Target:   src.Target.String(),
			Compiler: b.compiler.String(),
			File:     dst,
		})
		if err != nil {
			slog.Warn("unable to record kernel library", "model", src.Model, "error", err)
		}
	}
	return dst, nil
}
