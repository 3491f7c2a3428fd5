// Package triaxialellipsoid - Ellipsoid mit drei unabhaengigen Halbachsen
package triaxialellipsoid

import (
	_ "embed"
	"math"

	"github.com/sasview/sasmodels/model"
	"github.com/sasview/sasmodels/model/lib"
)

//go:embed triaxial_ellipsoid.c
var source string

// Info ist die Beschreibung des triaxialen Ellipsoids
var Info = &model.Info{
	Name:  "triaxial_ellipsoid",
	Title: "Ellipsoid of uniform scattering length density with three independent axes.",
	Description: `Note: During fitting ensure that the inequality req_minor < req_major < rpolar
is not violated. Otherwise the calculation will not be correct.`,
	Category: "shape:ellipsoid",
	Parameters: []model.Parameter{
		{Name: "sld", Units: "1e-6/Ang^2", Default: 4, Limits: model.Unbounded(), Kind: model.KindSLD, Description: "Ellipsoid scattering length density"},
		{Name: "solvent_sld", Units: "1e-6/Ang^2", Default: 1, Limits: model.Unbounded(), Kind: model.KindSLD, Description: "Solvent scattering length density"},
		{Name: "req_minor", Units: "Ang", Default: 20, Limits: model.Positive(), Kind: model.KindVolume, Description: "Minor equatorial radius"},
		{Name: "req_major", Units: "Ang", Default: 400, Limits: model.Positive(), Kind: model.KindVolume, Description: "Major equatorial radius"},
		{Name: "rpolar", Units: "Ang", Default: 10, Limits: model.Positive(), Kind: model.KindVolume, Description: "Polar radius"},
		{Name: "theta", Units: "degrees", Default: 60, Limits: model.Unbounded(), Kind: model.KindOrientation, Description: "In plane angle"},
		{Name: "phi", Units: "degrees", Default: 60, Limits: model.Unbounded(), Kind: model.KindOrientation, Description: "Out of plane angle"},
		{Name: "psi", Units: "degrees", Default: 60, Limits: model.Unbounded(), Kind: model.KindOrientation, Description: "Out of plane angle"},
	},
	Source: []model.Fragment{
		model.Lib("sph_j1c.c"),
		model.Lib("gauss76.c"),
		{Name: "triaxial_ellipsoid.c", Text: source},
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
		"theta": 10.0, "phi": 20.0, "psi": 30.0,
		"req_minor": 25.0, "req_major": 36.0, "rpolar": 50.0,
		"req_minor_pd": 0.2, "req_minor_pd_n": 15.0,
		"theta_pd": 15.0, "theta_pd_n": 5.0,
	},
	Tests: []model.Test{
		{Q: []float64{0.05}, Expected: []float64{22.559208785788666}},
	},
	NormalizeVolume: true,
}

func init() {
	model.MustRegister(Info)
}

func formVolume(v []float64) float64 {
	return 4.0 / 3.0 * math.Pi * v[0] * v[1] * v[2]
}

func iq(q float64, p []float64) float64 {
	sld, solventSLD, a, b, c := p[0], p[1], p[2], p[3], p[4]

	const zm, zb = 0.5, 0.5
	z, w := lib.Gauss76()
	c2 := c * c

	var outer float64
	for i := range z {
		sn, cn := math.Sincos(math.Pi / 2 * (z[i]*zm + zb))
		acosx2 := a * a * cn * cn
		bsinx2 := b * b * sn * sn

		var inner float64
		for j := range z {
			y := z[j]*zm + zb
			ysq := y * y
			fq := lib.SphJ1c(q * math.Sqrt(acosx2+bsinx2*(1-ysq)+c2*ysq))
			inner += w[j] * fq * fq
		}
		outer += w[i] * zm * inner
	}

	s := (sld - solventSLD) * formVolume(p[2:5])
	return 1e-4 * s * s * outer * zm
}

func iqxy(qx, qy float64, p []float64) float64 {
	sld, solventSLD, a, b, c := p[0], p[1], p[2], p[3], p[4]
	theta, phi, psi := p[5], p[6], p[7]

	s := (sld - solventSLD) * formVolume(p[2:5])
	q := math.Hypot(qx, qy)
	if q == 0 {
		return 1e-4 * s * s
	}

	const rad = math.Pi / 180
	stheta, ctheta := math.Sincos(theta * rad)
	sphi, cphi := math.Sincos(phi * rad)
	spsi, cpsi := math.Sincos(psi * rad)
	qxhat, qyhat := qx/q, qy/q

	calpha := ctheta*cphi*qxhat + stheta*qyhat
	cnu := (-cphi*spsi*stheta+sphi*cpsi)*qxhat + spsi*ctheta*qyhat
	cmu := (-stheta*cpsi*cphi-spsi*sphi)*qxhat + ctheta*cpsi*qyhat
	t := q * math.Sqrt(a*a*cnu*cnu+b*b*cmu*cmu+c*c*calpha*calpha)

	f := s * lib.SphJ1c(t)
	return 1e-4 * f * f
}

// er ist der Radius der volumengleichen Kugel
func er(v []float64) float64 {
	return math.Cbrt(v[0] * v[1] * v[2])
}
