//go:build cgo && !windows

// MODUL: native
// ZWECK: Backend, das Modelle mit dem System-C-Compiler zu ladbaren
//        Bibliotheken uebersetzt und per dlopen ausfuehrt
// INPUT: model.Info mit Kernel-Quelltext, Praezision single oder double
// OUTPUT: I(Q) ueber die Einsprungpunkte NAME_Iq_S, NAME_Iqxy_S,
//         NAME_Imagnetic_S und NAME_form_volume_S
// NEBENEFFEKTE: Startet den Compiler, schreibt in den Build-Cache oder
//               ein temporaeres Verzeichnis
// ABHAENGIGKEITEN: generate, buildcache, discover, cgo (libdl)
// HINWEISE: Die Dispersionsschleife laeuft in Go; pro Dispersionspunkt
//           wird die Bibliothek einmal fuer alle Q-Punkte aufgerufen

package native

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"unsafe"

	"github.com/sasview/sasmodels/buildcache"
	"github.com/sasview/sasmodels/discover"
	"github.com/sasview/sasmodels/dispersion"
	"github.com/sasview/sasmodels/envconfig"
	"github.com/sasview/sasmodels/generate"
	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/model"
)

func init() {
	kernel.Register(kernel.Native, New)
}

// Backend uebersetzt Modelle mit einem C-Compiler
type Backend struct {
	compiler discover.Compiler
	cache    *buildcache.Cache

	// workDir nimmt Bibliotheken ohne Cache auf und wird bei Close geloescht
	workDir string
}

// New oeffnet das native Backend. Ohne C-Compiler ist es nicht verfuegbar.
func New() (kernel.Backend, error) {
	cc, err := discover.FindCompiler(context.Background())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kernel.ErrUnavailable, err)
	}

	workDir, err := os.MkdirTemp("", "sasmodels-*")
	if err != nil {
		return nil, err
	}

	b := &Backend{compiler: cc, workDir: workDir}
	if !envconfig.NoCache() {
		b.cache = buildcache.Open(envconfig.CacheDir())
	}

	slog.Debug("native backend", "compiler", cc.Path, "version", cc.Version, "cache", b.cache != nil)
	return b, nil
}

func (b *Backend) Name() kernel.Name {
	return kernel.Native
}

func (b *Backend) Capabilities() kernel.Capabilities {
	return kernel.Capabilities{
		Name:     kernel.Native,
		Double:   true,
		Device:   "host",
		Compiler: b.compiler.String(),
		Features: discover.HostCPU().Features,
	}
}

// Compile erzeugt den C-Quelltext, baut und laedt die Bibliothek
func (b *Backend) Compile(info *model.Info, p kernel.Precision) (kernel.Kernel, error) {
	if p == kernel.Half {
		return nil, &kernel.PrecisionError{Backend: kernel.Native, Precision: p, Reason: "C has no half precision arithmetic"}
	}

	src, err := generate.Generate(info, generate.Target{Lang: generate.LangC, Precision: p, Loop: generate.LoopHost})
	if err != nil {
		return nil, &kernel.BuildError{Backend: kernel.Native, Model: info.Name, Precision: p, Err: err}
	}

	path, err := b.build(context.Background(), src, p)
	if err != nil {
		return nil, err
	}

	lib, err := openLibrary(path, src.Entries)
	if err != nil {
		return nil, &kernel.BuildError{Backend: kernel.Native, Model: info.Name, Precision: p, Err: err}
	}

	return &Kernel{info: info, precision: p, layout: src.Layout, lib: lib}, nil
}

// Close entfernt nicht gecachte Bibliotheken. Geladene Kernel bleiben
// gueltig, bis sie geschlossen werden.
func (b *Backend) Close() error {
	var err error
	if b.cache != nil {
		err = b.cache.Close()
	}
	if rerr := os.RemoveAll(b.workDir); err == nil {
		err = rerr
	}
	return err
}

// =============================================================================
// Kernel
// =============================================================================

// Kernel ist eine geladene Bibliothek eines Modells
type Kernel struct {
	info      *model.Info
	precision kernel.Precision
	layout    *generate.Layout

	// mu schuetzt lib gegen Close waehrend laufender Auswertungen
	mu  sync.RWMutex
	lib *library
}

func (k *Kernel) Info() *model.Info {
	return k.info
}

func (k *Kernel) Precision() kernel.Precision {
	return k.precision
}

// Bind kopiert q in die Praezision des Kernels
func (k *Kernel) Bind(q kernel.Q) (kernel.Evaluator, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.lib == nil {
		return nil, kernel.ErrClosed
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	e := &Evaluator{kernel: k, q: q, n: q.Len()}
	if k.precision == kernel.Single {
		e.q32 = toSingle(q.Q, nil)
		e.qx32 = toSingle(q.Qx, nil)
		e.qy32 = toSingle(q.Qy, nil)
	}
	return e, nil
}

func (k *Kernel) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.lib != nil {
		k.lib.close()
		k.lib = nil
	}
	return nil
}

// =============================================================================
// Evaluator
// =============================================================================

// Evaluator ruft die Bibliothek fuer jeden Dispersionspunkt auf
type Evaluator struct {
	kernel *Kernel
	q      kernel.Q
	n      int
	closed bool

	q32, qx32, qy32 []float32

	iq     []float64
	iq32   []float32
	vals32 []float32
}

func toSingle(v []float64, dst []float32) []float32 {
	if v == nil {
		return nil
	}
	dst = dst[:0]
	for _, x := range v {
		dst = append(dst, float32(x))
	}
	return dst
}

func (e *Evaluator) Eval(call kernel.Call) ([]float64, error) {
	k := e.kernel
	k.mu.RLock()
	defer k.mu.RUnlock()
	if e.closed || k.lib == nil {
		return nil, kernel.ErrClosed
	}

	twoD := e.q.Is2D()
	packed, err := k.layout.Pack(call, twoD)
	if err != nil {
		return nil, &kernel.EvaluationError{Backend: kernel.Native, Model: k.info.Name, Index: -1, Err: err}
	}

	if cap(e.iq) < e.n {
		e.iq = make([]float64, e.n)
		e.iq32 = make([]float32, e.n)
	}
	e.iq, e.iq32 = e.iq[:e.n], e.iq32[:e.n]

	fn := k.lib.iqxy
	if packed.Magnetic {
		fn = k.lib.imagnetic
	}

	acc := dispersion.NewAccumulator(e.n, k.info.NormalizeVolume)
	err = packed.Each(func(values []float64, weight float64) error {
		if weight == 0 {
			return nil
		}
		volume := e.call(values, twoD, fn)
		acc.Add(weight, volume, e.iq)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := acc.Result(packed.Values[generate.SlotScale], packed.Values[generate.SlotBackground], nil)
	if k.precision == kernel.Single {
		for i, v := range result {
			result[i] = float64(float32(v))
		}
	}

	if err := kernel.CheckFinite(kernel.Native, k.info.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// call wertet einen Dispersionspunkt aus, schreibt I(Q) nach e.iq und
// gibt das Formvolumen zurueck
func (e *Evaluator) call(values []float64, twoD bool, fn unsafe.Pointer) float64 {
	lib := e.kernel.lib

	if e.kernel.precision == kernel.Single {
		e.vals32 = toSingle(values, e.vals32)
		volume := lib.volumeSingle(e.vals32)
		if e.n > 0 {
			if twoD {
				lib.iqxySingle(fn, e.qx32, e.qy32, e.iq32, e.vals32)
			} else {
				lib.iqSingle(e.q32, e.iq32, e.vals32)
			}
		}
		for i, v := range e.iq32 {
			e.iq[i] = float64(v)
		}
		return volume
	}

	volume := lib.volumeDouble(values)
	if e.n > 0 {
		if twoD {
			lib.iqxyDouble(fn, e.q.Qx, e.q.Qy, e.iq, values)
		} else {
			lib.iqDouble(e.q.Q, e.iq, values)
		}
	}
	return volume
}

func (e *Evaluator) Close() error {
	e.closed = true
	return nil
}
