// Package cylinder - Zylinder mit homogener Streulaengendichte
//
// Der Formfaktor ist auf das Partikelvolumen normiert. Im 1D-Fall wird
// ueber die Orientierung alpha in [0, pi/2] mit Gauss-76 integriert.
package cylinder

import (
	_ "embed"
	"math"

	"github.com/sasview/sasmodels/model"
	"github.com/sasview/sasmodels/model/lib"
)

//go:embed cylinder.c
var source string

// Info ist die Beschreibung des Zylinder-Modells
var Info = &model.Info{
	Name:  "cylinder",
	Title: "Right circular cylinder with uniform scattering length density.",
	Description: `P(q,alpha) = scale/V*f(q,alpha)^2 + background
with f(q,alpha) = 2*(sld - solvent_sld)*V*sin(qL/2 cos(alpha))/(qL/2 cos(alpha))*J1(qR sin(alpha))/(qR sin(alpha)).
For 1D data the orientation is averaged over alpha in [0, pi/2].`,
	Category: "shape:cylinder",
	Parameters: []model.Parameter{
		{Name: "sld", Units: "1e-6/Ang^2", Default: 4, Limits: model.Unbounded(), Kind: model.KindSLD, Description: "Cylinder scattering length density"},
		{Name: "solvent_sld", Units: "1e-6/Ang^2", Default: 1, Limits: model.Unbounded(), Kind: model.KindSLD, Description: "Solvent scattering length density"},
		{Name: "radius", Units: "Ang", Default: 20, Limits: model.Positive(), Kind: model.KindVolume, Description: "Cylinder radius"},
		{Name: "length", Units: "Ang", Default: 400, Limits: model.Positive(), Kind: model.KindVolume, Description: "Cylinder length"},
		{Name: "theta", Units: "degrees", Default: 60, Limits: model.Unbounded(), Kind: model.KindOrientation, Description: "In plane angle"},
		{Name: "phi", Units: "degrees", Default: 60, Limits: model.Unbounded(), Kind: model.KindOrientation, Description: "Out of plane angle"},
	},
	Source: []model.Fragment{
		model.Lib("sas_J1.c"),
		model.Lib("sinc.c"),
		model.Lib("gauss76.c"),
		{Name: "cylinder.c", Text: source},
	},
	Host: &model.HostKernel{
		Iq:         iq,
		Iqxy:       iqxy,
		FormVolume: formVolume,
	},
	ER: er,
	Demo: map[string]any{
		"scale": 1.0, "background": 0.0,
		"sld": 6.0, "solvent_sld": 1.0,
		"radius": 20.0, "length": 300.0,
		"theta": 60.0, "phi": 60.0,
		"radius_pd": 0.2, "radius_pd_n": 9.0,
		"length_pd": 0.2, "length_pd_n": 10.0,
		"theta_pd": 10.0, "theta_pd_n": 5.0,
		"phi_pd": 10.0, "phi_pd_n": 5.0,
	},
	Tests: []model.Test{
		{Q: []float64{0.2}, Expected: []float64{0.041761386790780453}},
		{
			Pars:     map[string]float64{"theta": 10, "phi": 10},
			Qx:       []float64{0.2 * math.Cos(2.5)},
			Qy:       []float64{0.2 * math.Sin(2.5)},
			Expected: []float64{0.03414647218513852},
		},
	},
	NormalizeVolume: true,
}

func init() {
	model.MustRegister(Info)
}

func formVolume(v []float64) float64 {
	radius, length := v[0], v[1]
	return math.Pi * radius * radius * length
}

func amplitude(q, sn, cn, radius, length float64) float64 {
	return lib.J1c(q*radius*sn) * lib.Sinc(0.5*q*length*cn)
}

func iq(q float64, p []float64) float64 {
	sld, solventSLD, radius, length := p[0], p[1], p[2], p[3]

	const zm, zb = math.Pi / 4, math.Pi / 4
	z, w := lib.Gauss76()

	var total float64
	for i := range z {
		sn, cn := math.Sincos(z[i]*zm + zb)
		fq := amplitude(q, sn, cn, radius, length)
		total += w[i] * fq * fq * sn
	}

	s := (sld - solventSLD) * formVolume(p[2:4])
	return 1e-4 * s * s * total * zm
}

func iqxy(qx, qy float64, p []float64) float64 {
	sld, solventSLD, radius, length, theta, phi := p[0], p[1], p[2], p[3], p[4], p[5]

	sn, cn := math.Sincos(theta * math.Pi / 180)
	q := math.Hypot(qx, qy)
	cosVal := 1.0
	if q != 0 {
		cosVal = (cn*math.Cos(phi*math.Pi/180)*qx + sn*qy) / q
	}
	sn, cn = math.Sincos(math.Acos(max(-1, min(1, cosVal))))

	s := (sld - solventSLD) * formVolume(p[2:4]) * amplitude(q, sn, cn, radius, length)
	return 1e-4 * s * s
}

// er ist der Radius einer Kugel mit demselben zweiten Virialkoeffizienten
func er(v []float64) float64 {
	radius, length := v[0], v[1]
	ddd := 0.75 * radius * (2*radius*length + (length+radius)*(length+math.Pi*radius))
	return 0.5 * math.Cbrt(ddd)
}
