// MODUL: reference
// ZWECK: Reines Go-Backend fuer Modelle mit Host-Implementierung
// INPUT: model.Info mit HostKernel, Q-Vektoren, kernel.Call
// OUTPUT: I(Q) in float64, optional auf die Zielpraezision gerundet
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: kernel, generate (Layout, Packen, Magnetismus), dispersion
// HINWEISE: Rechnet immer in float64; dient als Vergleichsbasis der
//           anderen Backends

// Package reference wertet Modelle ueber ihre Go-Implementierung aus.
package reference

import (
	"sync/atomic"

	"github.com/sasview/sasmodels/dispersion"
	"github.com/sasview/sasmodels/generate"
	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/model"
)

func init() {
	kernel.Register(kernel.Reference, New)
}

// Backend ist das Referenz-Backend. Es ist zustandslos.
type Backend struct{}

// New oeffnet das Referenz-Backend; es ist immer verfuegbar
func New() (kernel.Backend, error) {
	return &Backend{}, nil
}

func (b *Backend) Name() kernel.Name {
	return kernel.Reference
}

func (b *Backend) Capabilities() kernel.Capabilities {
	return kernel.Capabilities{Name: kernel.Reference, Double: true, Half: true, Device: "host"}
}

// Compile prueft nur, ob info eine Host-Implementierung besitzt
func (b *Backend) Compile(info *model.Info, p kernel.Precision) (kernel.Kernel, error) {
	if info.Host == nil || info.Host.Iq == nil {
		return nil, &kernel.BuildError{Backend: kernel.Reference, Model: info.Name, Precision: p, Err: kernel.ErrNoHostKernel}
	}
	if info.NormalizeVolume && info.Host.FormVolume == nil {
		return nil, &kernel.BuildError{Backend: kernel.Reference, Model: info.Name, Precision: p, Err: kernel.ErrNoHostKernel}
	}

	layout := generate.NewLayout(info)
	return &Kernel{
		info:      info,
		precision: p,
		layout:    layout,
	}, nil
}

func (b *Backend) Close() error {
	return nil
}

// =============================================================================
// Kernel
// =============================================================================

// Kernel ist ein Modell mit Host-Implementierung
type Kernel struct {
	info      *model.Info
	precision kernel.Precision
	layout    *generate.Layout
	closed    atomic.Bool
}

func (k *Kernel) Info() *model.Info {
	return k.info
}

func (k *Kernel) Precision() kernel.Precision {
	return k.precision
}

// Bind bindet den Kernel an q; q wird nicht kopiert
func (k *Kernel) Bind(q kernel.Q) (kernel.Evaluator, error) {
	if k.closed.Load() {
		return nil, kernel.ErrClosed
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{kernel: k, q: q, iqxy: k.layout.HostIqxy(k.info.Host)}, nil
}

func (k *Kernel) Close() error {
	k.closed.Store(true)
	return nil
}

// =============================================================================
// Evaluator
// =============================================================================

// Evaluator wertet einen Kernel fuer einen festen Q-Satz aus
type Evaluator struct {
	kernel *Kernel
	q      kernel.Q
	closed bool

	// iqxy gehoert dem Evaluator, das aus Iq abgeleitete Iqxy haelt
	// einen eigenen Argumentpuffer
	iqxy func(qx, qy float64, pars []float64) float64

	// Puffer fuer wiederholte Auswertungen
	iq   []float64
	args []float64
	vol  []float64
}

// Eval summiert I(Q) ueber alle Dispersionspunkte von call
func (e *Evaluator) Eval(call kernel.Call) ([]float64, error) {
	k := e.kernel
	if e.closed || k.closed.Load() {
		return nil, kernel.ErrClosed
	}

	twoD := e.q.Is2D()
	packed, err := k.layout.Pack(call, twoD)
	if err != nil {
		return nil, &kernel.EvaluationError{Backend: kernel.Reference, Model: k.info.Name, Index: -1, Err: err}
	}

	n := e.q.Len()
	if cap(e.iq) < n {
		e.iq = make([]float64, n)
	}
	e.iq = e.iq[:n]

	host := k.info.Host
	acc := dispersion.NewAccumulator(n, k.info.NormalizeVolume)
	err = packed.Each(func(values []float64, weight float64) error {
		volume := 1.0
		if k.info.NormalizeVolume {
			e.vol = k.layout.VolumeArgs(values, e.vol)
			volume = host.FormVolume(e.vol)
		}

		switch {
		case packed.Magnetic:
			for i := range n {
				e.iq[i] = k.layout.MagneticIqxy(values, e.q.Qx[i], e.q.Qy[i], e.iqxy)
			}
		case twoD:
			e.args = k.layout.IqxyArgs(values, e.args)
			for i := range n {
				e.iq[i] = e.iqxy(e.q.Qx[i], e.q.Qy[i], e.args)
			}
		default:
			e.args = k.layout.IqArgs(values, e.args)
			for i := range n {
				e.iq[i] = host.Iq(e.q.Q[i], e.args)
			}
		}

		acc.Add(weight, volume, e.iq)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := acc.Result(packed.Values[generate.SlotScale], packed.Values[generate.SlotBackground], nil)
	if k.precision != kernel.Double {
		for i, v := range result {
			result[i] = k.precision.Round(v)
		}
	}

	if err := kernel.CheckFinite(kernel.Reference, k.info.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Evaluator) Close() error {
	e.closed = true
	return nil
}
