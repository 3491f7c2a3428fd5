//go:build opencl

// MODUL: opencl
// ZWECK: Backend, das Modelle als OpenCL-Programme auf einem Geraet ausfuehrt
// INPUT: model.Info mit Kernel-Quelltext, Praezision half, single oder double
// OUTPUT: I(Q), ein Work-Item pro Q-Punkt mit Dispersionsschleife im Kernel
// NEBENEFFEKTE: Haelt Kontext, Queue und Programme auf dem Geraet
// ABHAENGIGKEITEN: generate, discover (Geraeteauswahl), go-opencl
// HINWEISE: Gebaut nur mit -tags opencl; double benoetigt cl_khr_fp64

package opencl

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"github.com/sasview/sasmodels/discover"
	"github.com/sasview/sasmodels/envconfig"
	"github.com/sasview/sasmodels/generate"
	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/model"
)

func init() {
	kernel.Register(kernel.OpenCL, New)
}

// Backend haelt Kontext und Queue eines Geraets. Alle Queue-Zugriffe
// laufen unter mu.
type Backend struct {
	device  discover.Device
	cldev   *cl.Device
	context *cl.Context

	mu    sync.Mutex
	queue *cl.CommandQueue
}

// Devices zaehlt alle OpenCL-Geraete auf (GPUs zuerst)
func Devices() ([]discover.Device, []*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, nil, err
	}

	var (
		devices []discover.Device
		handles []*cl.Device
	)
	for _, typ := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			ds, derr := p.GetDevices(typ)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				slog.Debug("skipping OpenCL platform", "platform", p.Name(), "error", derr)
				continue
			}
			for _, d := range ds {
				devices = append(devices, discover.Device{
					Index:      len(devices),
					Platform:   p.Name(),
					Name:       d.Name(),
					GPU:        typ == cl.DeviceTypeGPU,
					Extensions: discover.ParseExtensions(d.Extensions()),
				})
				handles = append(handles, d)
			}
		}
	}
	return devices, handles, nil
}

// New oeffnet das durch SAS_OPENCL_DEVICE gewaehlte Geraet
func New() (kernel.Backend, error) {
	devices, handles, err := Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kernel.ErrUnavailable, err)
	}

	dev, err := discover.SelectDevice(devices, envconfig.OpenCLDevice())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kernel.ErrUnavailable, err)
	}
	cldev := handles[dev.Index]

	context, err := cl.CreateContext([]*cl.Device{cldev})
	if err != nil {
		return nil, fmt.Errorf("%w: create context: %v", kernel.ErrUnavailable, err)
	}
	queue, err := context.CreateCommandQueue(cldev, 0)
	if err != nil {
		context.Release()
		return nil, fmt.Errorf("%w: create queue: %v", kernel.ErrUnavailable, err)
	}

	slog.Info("opencl device", "device", dev.Name, "platform", dev.Platform, "double", dev.HasDouble())
	return &Backend{device: dev, cldev: cldev, context: context, queue: queue}, nil
}

func (b *Backend) Name() kernel.Name {
	return kernel.OpenCL
}

func (b *Backend) Capabilities() kernel.Capabilities {
	return kernel.Capabilities{
		Name:     kernel.OpenCL,
		Double:   b.device.HasDouble(),
		Half:     true,
		Device:   b.device.String(),
		Features: b.device.Extensions,
	}
}

// Compile erzeugt und baut das Programm fuer info
func (b *Backend) Compile(info *model.Info, p kernel.Precision) (kernel.Kernel, error) {
	if p == kernel.Double && !b.device.HasDouble() {
		return nil, &kernel.PrecisionError{Backend: kernel.OpenCL, Precision: p, Reason: b.device.Name + " lacks cl_khr_fp64"}
	}

	src, err := generate.Generate(info, generate.Target{Lang: generate.LangOpenCL, Precision: p, Loop: generate.LoopKernel})
	if err != nil {
		return nil, &kernel.BuildError{Backend: kernel.OpenCL, Model: info.Name, Precision: p, Err: err}
	}

	program, err := b.context.CreateProgramWithSource([]string{src.Code})
	if err != nil {
		return nil, &kernel.BuildError{Backend: kernel.OpenCL, Model: info.Name, Precision: p, Err: err}
	}

	if err := program.BuildProgram([]*cl.Device{b.cldev}, strings.Join(src.Options, " ")); err != nil {
		program.Release()
		berr := &kernel.BuildError{Backend: kernel.OpenCL, Model: info.Name, Precision: p, Err: errors.New("build program failed")}
		if log, ok := err.(cl.BuildError); ok {
			berr.Diagnostics = string(log)
		} else {
			berr.Err = err
		}
		return nil, berr
	}

	k := &Kernel{backend: b, info: info, precision: p, layout: src.Layout, program: program}
	for _, entry := range []struct {
		name string
		dst  **cl.Kernel
	}{
		{src.Entries.Iq, &k.iq},
		{src.Entries.Iqxy, &k.iqxy},
		{src.Entries.Imagnetic, &k.imagnetic},
	} {
		if entry.name == "" {
			continue
		}
		ck, err := program.CreateKernel(entry.name)
		if err != nil {
			k.Close()
			return nil, &kernel.BuildError{Backend: kernel.OpenCL, Model: info.Name, Precision: p, Err: fmt.Errorf("create kernel %s: %w", entry.name, err)}
		}
		*entry.dst = ck
	}
	return k, nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.context != nil {
		b.context.Release()
		b.context = nil
	}
	return nil
}

// =============================================================================
// Kernel
// =============================================================================

// Kernel ist ein gebautes Programm mit seinen Einsprungpunkten
type Kernel struct {
	backend   *Backend
	info      *model.Info
	precision kernel.Precision
	layout    *generate.Layout

	mu        sync.RWMutex
	program   *cl.Program
	iq        *cl.Kernel
	iqxy      *cl.Kernel
	imagnetic *cl.Kernel
}

func (k *Kernel) Info() *model.Info {
	return k.info
}

func (k *Kernel) Precision() kernel.Precision {
	return k.precision
}

// Bind laedt q auf das Geraet
func (k *Kernel) Bind(q kernel.Q) (kernel.Evaluator, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.program == nil {
		return nil, kernel.ErrClosed
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	e := &Evaluator{kernel: k, n: q.Len(), twoD: q.Is2D()}
	if e.n == 0 {
		return e, nil
	}

	b := k.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	upload := func(v []float64) *cl.MemObject {
		if err != nil {
			return nil
		}
		var buf *cl.MemObject
		buf, err = b.upload(qData(k.precision, v), cl.MemReadOnly)
		return buf
	}
	if q.Is2D() {
		e.qx = upload(q.Qx)
		e.qy = upload(q.Qy)
	} else {
		e.q = upload(q.Q)
	}
	if err == nil {
		e.result, err = b.context.CreateEmptyBuffer(cl.MemWriteOnly, e.n*k.precision.Size())
	}
	if err != nil {
		e.release()
		return nil, &kernel.EvaluationError{Backend: kernel.OpenCL, Model: k.info.Name, Index: -1, Err: err}
	}
	return e, nil
}

func (k *Kernel) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, ck := range []**cl.Kernel{&k.iq, &k.iqxy, &k.imagnetic} {
		if *ck != nil {
			(*ck).Release()
			*ck = nil
		}
	}
	if k.program != nil {
		k.program.Release()
		k.program = nil
	}
	return nil
}

// =============================================================================
// Host-Puffer
// =============================================================================

// hostData ist ein Host-Speicherbereich fuer Transfers; data haelt den
// Slice am Leben
type hostData struct {
	ptr  unsafe.Pointer
	size int
	data any
}

func float64Data(v []float64) hostData {
	return hostData{unsafe.Pointer(&v[0]), len(v) * 8, v}
}

func float32Data(v []float64) hostData {
	f := make([]float32, len(v))
	for i, x := range v {
		f[i] = float32(x)
	}
	return hostData{unsafe.Pointer(&f[0]), len(f) * 4, f}
}

func int32Data(v []int32) hostData {
	return hostData{unsafe.Pointer(&v[0]), len(v) * 4, v}
}

// qData bringt Q-Vektoren in das Speicherformat der Praezision
func qData(p kernel.Precision, v []float64) hostData {
	switch p {
	case kernel.Half:
		h := kernel.HalfBits(v)
		return hostData{unsafe.Pointer(&h[0]), len(h) * 2, h}
	case kernel.Single:
		return float32Data(v)
	}
	return float64Data(v)
}

// realData bringt Werte und Gewichte in den Typ von "double" im Kernel
func realData(p kernel.Precision, v []float64) hostData {
	if p == kernel.Double {
		return float64Data(v)
	}
	return float32Data(v)
}

// upload erzeugt einen Geraete-Puffer mit dem Inhalt von d; mu ist gehalten
func (b *Backend) upload(d hostData, flags cl.MemFlag) (*cl.MemObject, error) {
	buf, err := b.context.CreateEmptyBuffer(flags, d.size)
	if err != nil {
		return nil, err
	}
	if _, err := b.queue.EnqueueWriteBuffer(buf, true, 0, d.size, d.ptr, nil); err != nil {
		buf.Release()
		return nil, err
	}
	return buf, nil
}

// =============================================================================
// Evaluator
// =============================================================================

// Evaluator haelt die Q- und Ergebnis-Puffer auf dem Geraet
type Evaluator struct {
	kernel *Kernel
	n      int
	twoD   bool

	q      *cl.MemObject
	qx, qy *cl.MemObject
	result *cl.MemObject
	closed bool
}

func (e *Evaluator) Eval(call kernel.Call) ([]float64, error) {
	k := e.kernel
	k.mu.RLock()
	defer k.mu.RUnlock()
	if e.closed || k.program == nil {
		return nil, kernel.ErrClosed
	}

	twoD := e.twoD
	packed, err := k.layout.Pack(call, twoD)
	if err != nil {
		return nil, &kernel.EvaluationError{Backend: kernel.OpenCL, Model: k.info.Name, Index: -1, Err: err}
	}
	if e.n == 0 {
		return []float64{}, nil
	}

	result, err := e.run(packed, twoD)
	if err != nil {
		return nil, &kernel.EvaluationError{Backend: kernel.OpenCL, Model: k.info.Name, Index: -1, Err: err}
	}

	if err := kernel.CheckFinite(kernel.OpenCL, k.info.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Evaluator) run(packed *generate.Packed, twoD bool) ([]float64, error) {
	k := e.kernel
	b := k.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.queue == nil {
		return nil, kernel.ErrClosed
	}

	lens, offsets, pdValues, pdWeights := packed.Flatten()

	var bufs []*cl.MemObject
	defer func() {
		for _, buf := range bufs {
			buf.Release()
		}
	}()
	for _, d := range []hostData{
		realData(k.precision, packed.Values),
		int32Data(lens),
		int32Data(offsets),
		realData(k.precision, pdValues),
		realData(k.precision, pdWeights),
	} {
		buf, err := b.upload(d, cl.MemReadOnly)
		if err != nil {
			return nil, err
		}
		bufs = append(bufs, buf)
	}

	ck, args := k.iq, []*cl.MemObject{e.q}
	if twoD {
		ck, args = k.iqxy, []*cl.MemObject{e.qx, e.qy}
		if packed.Magnetic {
			ck = k.imagnetic
		}
	}
	args = append(args, e.result)
	args = append(args, bufs...)

	if err := ck.SetArgInt32(0, int32(e.n)); err != nil {
		return nil, err
	}
	for i, buf := range args {
		if err := ck.SetArgBuffer(i+1, buf); err != nil {
			return nil, fmt.Errorf("set argument %d: %w", i+1, err)
		}
	}

	if _, err := b.queue.EnqueueNDRangeKernel(ck, nil, []int{e.n}, nil, nil); err != nil {
		return nil, fmt.Errorf("enqueue kernel: %w", err)
	}
	return e.read()
}

// read liest den Ergebnis-Puffer blockierend zurueck; mu ist gehalten
func (e *Evaluator) read() ([]float64, error) {
	q := e.kernel.backend.queue
	size := e.n * e.kernel.precision.Size()

	switch e.kernel.precision {
	case kernel.Half:
		raw := make([]uint16, e.n)
		if _, err := q.EnqueueReadBuffer(e.result, true, 0, size, unsafe.Pointer(&raw[0]), nil); err != nil {
			return nil, err
		}
		return kernel.FromHalfBits(raw), nil
	case kernel.Single:
		raw := make([]float32, e.n)
		if _, err := q.EnqueueReadBuffer(e.result, true, 0, size, unsafe.Pointer(&raw[0]), nil); err != nil {
			return nil, err
		}
		out := make([]float64, e.n)
		for i, v := range raw {
			out[i] = float64(v)
		}
		return out, nil
	}

	out := make([]float64, e.n)
	if _, err := q.EnqueueReadBuffer(e.result, true, 0, size, unsafe.Pointer(&out[0]), nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Evaluator) release() {
	for _, buf := range []**cl.MemObject{&e.q, &e.qx, &e.qy, &e.result} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
}

func (e *Evaluator) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.release()
	return nil
}
