//go:build !cgo || windows

package native

import (
	"fmt"

	"github.com/sasview/sasmodels/kernel"
)

func init() {
	kernel.Register(kernel.Native, New)
}

// New meldet das native Backend als nicht verfuegbar; es benoetigt cgo
// und dlopen
func New() (kernel.Backend, error) {
	return nil, fmt.Errorf("%w: built without cgo", kernel.ErrUnavailable)
}
