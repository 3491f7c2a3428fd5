// Package sphere - Kugel mit homogener Streulaengendichte
package sphere

import (
	_ "embed"
	"math"

	"github.com/sasview/sasmodels/model"
	"github.com/sasview/sasmodels/model/lib"
)

//go:embed sphere.c
var source string

// Info ist die Beschreibung des Kugel-Modells
var Info = &model.Info{
	Name:        "sphere",
	Title:       "Spheres with uniform scattering length density",
	Description: "P(q) = (scale/V)*[3V(sld-solvent_sld)*(sin(qr)-qr cos(qr))/(qr)^3]^2 + background",
	Category:    "shape:sphere",
	Parameters: []model.Parameter{
		{Name: "sld", Units: "1e-6/Ang^2", Default: 1, Limits: model.Unbounded(), Kind: model.KindSLD, Description: "Layer scattering length density"},
		{Name: "solvent_sld", Units: "1e-6/Ang^2", Default: 6, Limits: model.Unbounded(), Kind: model.KindSLD, Description: "Solvent scattering length density"},
		{Name: "radius", Units: "Ang", Default: 50, Limits: model.Positive(), Kind: model.KindVolume, Description: "Sphere radius"},
	},
	Source: []model.Fragment{
		model.Lib("sph_j1c.c"),
		{Name: "sphere.c", Text: source},
	},
	Host: &model.HostKernel{
		Iq:         iq,
		FormVolume: formVolume,
	},
	ER: func(v []float64) float64 { return v[0] },
	Demo: map[string]any{
		"scale": 1.0, "background": 0.0,
		"sld": 6.0, "solvent_sld": 1.0,
		"radius": 120.0,
		"radius_pd": 0.2, "radius_pd_n": 45.0,
	},
	Tests: []model.Test{
		{Q: []float64{0.01, 0.1}, Expected: []float64{1244.932413726658, 4.260940009082657}},
	},
	NormalizeVolume: true,
}

func init() {
	model.MustRegister(Info)
}

func formVolume(v []float64) float64 {
	return 4.0 / 3.0 * math.Pi * v[0] * v[0] * v[0]
}

func iq(q float64, p []float64) float64 {
	sld, solventSLD, radius := p[0], p[1], p[2]
	fq := lib.SphJ1c(q*radius) * (sld - solventSLD) * formVolume(p[2:3])
	return 1e-4 * fq * fq
}
