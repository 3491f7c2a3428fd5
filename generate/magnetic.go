// magnetic.go - Polarisierte Streuung
//
// Host-Seite der magnetischen Auswertung: Umrechnung der Momente in
// kartesische Komponenten, Gewichte der Spin-Kanaele und die effektive
// Streulaengendichte pro Kanal. Der erzeugte Kernel-Quelltext rechnet
// dieselben Formeln (siehe _mag_sld im Praeambel-Template).
package generate

import "math"

// Spin-Kanaele in der Reihenfolge des Spin-Blocks
const (
	XSDownDown = iota
	XSDownUpReal
	XSUpDownReal
	XSUpUp
	XSDownUpImag
	XSUpDownImag

	nCrossSections
)

// xsCutoff ist das Mindestgewicht eines ausgewerteten Spin-Kanals
const xsCutoff = 1e-8

// MagneticVector rechnet Betrag und Winkel (Grad) eines Moments in
// kartesische Komponenten um
func MagneticVector(m0, mtheta, mphi float64) (mx, my, mz float64) {
	st, ct := math.Sincos(mtheta * math.Pi / 180)
	sp, cp := math.Sincos(mphi * math.Pi / 180)
	return m0 * ct * cp, m0 * st, -m0 * ct * sp
}

// SpinWeights gibt die Gewichte der sechs Spin-Kanaele fuer die
// Spin-up Anteile vor (in) und nach (out) der Probe zurueck
func SpinWeights(in, out float64) [nCrossSections]float64 {
	in = max(0, min(1, in))
	out = max(0, min(1, out))

	var w [nCrossSections]float64
	w[XSDownDown] = (1 - in) * (1 - out)
	w[XSDownUpReal] = (1 - in) * out
	w[XSUpDownReal] = in * (1 - out)
	w[XSUpUp] = in * out
	w[XSDownUpImag] = w[XSDownUpReal]
	w[XSUpDownImag] = w[XSUpDownReal]
	return w
}

// MagneticSLD ist die effektive Streulaengendichte im Kanal xs
func MagneticSLD(xs int, qx, qy, px, py, sld, mx, my, mz float64) float64 {
	perp := qy*mx - qx*my
	switch xs {
	case XSDownDown:
		return sld - px*perp
	case XSDownUpReal, XSUpDownReal:
		return py * perp
	case XSUpUp:
		return sld + px*perp
	case XSDownUpImag:
		return -mz
	}
	return mz
}

// MagneticIqxy summiert iqxy ueber die Spin-Kanaele. values ist ein
// gepackter Wertevektor mit eingesetzten Dispersionswerten.
func (l *Layout) MagneticIqxy(values []float64, qx, qy float64, iqxy func(qx, qy float64, pars []float64) float64) float64 {
	pars := l.IqxyArgs(values, nil)
	work := make([]float64, len(pars))

	spin := values[l.spinOffset : l.spinOffset+spinSlots]
	cs, sn := spin[6], spin[7]

	var px, py float64
	if qsq := qx*qx + qy*qy; qsq > 1e-16 {
		px = (qy*cs + qx*sn) / qsq
		py = (qy*sn - qx*cs) / qsq
	}

	var total float64
	for xs := range nCrossSections {
		w := spin[xs]
		if !(w > xsCutoff) {
			continue
		}

		copy(work, pars)
		for s, k := range l.sld {
			m := values[l.magOffset+3*s:]
			work[k] = MagneticSLD(xs, qx, qy, px, py, pars[k], m[0], m[1], m[2])
		}
		total += w * iqxy(qx, qy, work)
	}
	return total
}
