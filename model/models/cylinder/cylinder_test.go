// cylinder_test.go - Referenzwerte des Zylinder-Modells
package cylinder

import (
	"math"
	"testing"
)

func relErr(got, expect float64) float64 {
	return math.Abs(got-expect) / math.Abs(expect)
}

func TestIq(t *testing.T) {
	// Defaults: sld=4, solvent_sld=1, radius=20, length=400
	pars := []float64{4, 1, 20, 400}
	got := iq(0.2, pars) / formVolume(pars[2:])

	if e := relErr(got, 0.041761386790780453); e > 1e-6 {
		t.Errorf("Iq(0.2)/V = %.17g, relativer Fehler %g", got, e)
	}
}

func TestIqxy(t *testing.T) {
	pars := []float64{4, 1, 20, 400, 10, 10}
	qx, qy := 0.2*math.Cos(2.5), 0.2*math.Sin(2.5)
	got := iqxy(qx, qy, pars) / formVolume(pars[2:4])

	if e := relErr(got, 0.03414647218513852); e > 1e-6 {
		t.Errorf("Iqxy/V = %.17g, relativer Fehler %g", got, e)
	}
}

func TestIqxyOrigin(t *testing.T) {
	pars := []float64{4, 1, 20, 400, 10, 10}
	s := 3 * formVolume(pars[2:4])

	if got, expect := iqxy(0, 0, pars), 1e-4*s*s; relErr(got, expect) > 1e-12 {
		t.Errorf("Iqxy(0,0) = %g, erwartet %g", got, expect)
	}
}

func TestER(t *testing.T) {
	if got := er([]float64{20, 400}); relErr(got, 73.34013315261608) > 1e-12 {
		t.Errorf("ER = %.17g", got)
	}
}

func TestRegistered(t *testing.T) {
	if err := Info.Validate(); err != nil {
		t.Fatal(err)
	}
	if got := len(Info.VolumeParameters()); got != 2 {
		t.Errorf("Volumenparameter = %d, erwartet 2", got)
	}
}
