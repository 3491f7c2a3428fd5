// broad_peak_test.go - Referenzwerte des BroadPeak-Modells
package broadpeak

import (
	"math"
	"testing"
)

func TestIq(t *testing.T) {
	pars := []float64{1, 10, 0.05, 2, 1}
	cases := []struct {
		q, expect float64
	}{
		{0.05, 1},
		{0.1, 0.8},
		{0.2, 0.3076923076923076},
	}

	for _, tt := range cases {
		if got := iq(tt.q, pars); math.Abs(got-tt.expect) > 1e-12 {
			t.Errorf("Iq(%g) = %.17g, erwartet %.17g", tt.q, got, tt.expect)
		}
	}
}

func TestNoVolume(t *testing.T) {
	if Info.NormalizeVolume || len(Info.VolumeParameters()) != 0 {
		t.Error("BroadPeak hat kein Partikelvolumen")
	}
}
