//go:build !opencl

package opencl

import (
	"fmt"

	"github.com/sasview/sasmodels/kernel"
)

func init() {
	kernel.Register(kernel.OpenCL, New)
}

// New meldet das OpenCL-Backend als nicht verfuegbar; es wird nur mit
// -tags opencl gebaut
func New() (kernel.Backend, error) {
	return nil, fmt.Errorf("%w: built without opencl tag", kernel.ErrUnavailable)
}
