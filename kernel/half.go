// half.go - Konvertierung von und nach IEEE 754 half precision
package kernel

import (
	"github.com/x448/float16"
)

// HalfBits wandelt Werte in half-Bitmuster um (Speicherformat von
// vload_half/vstore_half)
func HalfBits(v []float64) []uint16 {
	out := make([]uint16, len(v))
	for i, x := range v {
		out[i] = float16.Fromfloat32(float32(x)).Bits()
	}
	return out
}

// FromHalfBits wandelt half-Bitmuster zurueck in float64
func FromHalfBits(b []uint16) []float64 {
	out := make([]float64, len(b))
	for i, x := range b {
		out[i] = float64(float16.Frombits(x).Float32())
	}
	return out
}

// Round rundet v auf die Darstellung der Praezision p
func (p Precision) Round(v float64) float64 {
	switch p {
	case Half:
		return float64(float16.Fromfloat32(float32(v)).Float32())
	case Single:
		return float64(float32(v))
	}
	return v
}
