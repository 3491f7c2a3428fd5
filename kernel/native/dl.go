//go:build cgo && !windows

package native

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

double _volume_d(void* fn, const double* values) {
	return ((double (*)(const double*)) fn)(values);
}

float _volume_f(void* fn, const float* values) {
	return ((float (*)(const float*)) fn)(values);
}

void _iq_d(void* fn, int nq, const double* q, double* result, const double* values) {
	((void (*)(int, const double*, double*, const double*)) fn)(nq, q, result, values);
}

void _iq_f(void* fn, int nq, const float* q, float* result, const float* values) {
	((void (*)(int, const float*, float*, const float*)) fn)(nq, q, result, values);
}

void _iqxy_d(void* fn, int nq, const double* qx, const double* qy, double* result, const double* values) {
	((void (*)(int, const double*, const double*, double*, const double*)) fn)(nq, qx, qy, result, values);
}

void _iqxy_f(void* fn, int nq, const float* qx, const float* qy, float* result, const float* values) {
	((void (*)(int, const float*, const float*, float*, const float*)) fn)(nq, qx, qy, result, values);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/sasview/sasmodels/generate"
)

// library ist eine geladene Kernel-Bibliothek
type library struct {
	dll       unsafe.Pointer
	volume    unsafe.Pointer
	iq        unsafe.Pointer
	iqxy      unsafe.Pointer
	imagnetic unsafe.Pointer
}

func dlerror() string {
	if msg := C.dlerror(); msg != nil {
		return C.GoString(msg)
	}
	return "unknown error"
}

func dlsym(h unsafe.Pointer, name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	fn := C.dlsym(h, cname)
	if fn == nil {
		return nil, fmt.Errorf("unable to load %s: %s", name, dlerror())
	}
	return fn, nil
}

// openLibrary laedt path und loest die Einsprungpunkte aus entries auf
func openLibrary(path string, entries generate.Entries) (*library, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	h := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_LOCAL)
	if h == nil {
		return nil, fmt.Errorf("unable to load %s: %s", path, dlerror())
	}

	lib := &library{dll: h}
	var errs []error
	for _, sym := range []struct {
		name string
		dst  *unsafe.Pointer
	}{
		{entries.FormVolume, &lib.volume},
		{entries.Iq, &lib.iq},
		{entries.Iqxy, &lib.iqxy},
		{entries.Imagnetic, &lib.imagnetic},
	} {
		if sym.name == "" {
			continue
		}
		fn, err := dlsym(h, sym.name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*sym.dst = fn
	}

	if err := errors.Join(errs...); err != nil {
		C.dlclose(h)
		return nil, err
	}
	return lib, nil
}

func (l *library) close() {
	if l.dll != nil {
		C.dlclose(l.dll)
		l.dll = nil
	}
}

// =============================================================================
// Aufrufe
// =============================================================================

func (l *library) volumeDouble(values []float64) float64 {
	return float64(C._volume_d(l.volume, (*C.double)(unsafe.Pointer(&values[0]))))
}

func (l *library) volumeSingle(values []float32) float64 {
	return float64(C._volume_f(l.volume, (*C.float)(unsafe.Pointer(&values[0]))))
}

func (l *library) iqDouble(q, result, values []float64) {
	C._iq_d(l.iq, C.int(len(q)),
		(*C.double)(unsafe.Pointer(&q[0])),
		(*C.double)(unsafe.Pointer(&result[0])),
		(*C.double)(unsafe.Pointer(&values[0])))
}

func (l *library) iqSingle(q, result, values []float32) {
	C._iq_f(l.iq, C.int(len(q)),
		(*C.float)(unsafe.Pointer(&q[0])),
		(*C.float)(unsafe.Pointer(&result[0])),
		(*C.float)(unsafe.Pointer(&values[0])))
}

// iqxyDouble ruft fn (Iqxy oder Imagnetic) auf
func (l *library) iqxyDouble(fn unsafe.Pointer, qx, qy, result, values []float64) {
	C._iqxy_d(fn, C.int(len(qx)),
		(*C.double)(unsafe.Pointer(&qx[0])),
		(*C.double)(unsafe.Pointer(&qy[0])),
		(*C.double)(unsafe.Pointer(&result[0])),
		(*C.double)(unsafe.Pointer(&values[0])))
}

func (l *library) iqxySingle(fn unsafe.Pointer, qx, qy, result, values []float32) {
	C._iqxy_f(fn, C.int(len(qx)),
		(*C.float)(unsafe.Pointer(&qx[0])),
		(*C.float)(unsafe.Pointer(&qy[0])),
		(*C.float)(unsafe.Pointer(&result[0])),
		(*C.float)(unsafe.Pointer(&values[0])))
}
