// Package lamellar - Lamellare Phase ohne Strukturfaktor
//
// Die Intensitaet ist nicht auf ein Partikelvolumen normiert; die
// Dicke ist dennoch dispergierbar. Bei q = 0 divergiert I(q) wie 1/q^2.
package lamellar

import (
	_ "embed"
	"math"

	"github.com/sasview/sasmodels/model"
)

//go:embed lamellar.c
var source string

// Info ist die Beschreibung des Lamellen-Modells
var Info = &model.Info{
	Name:        "lamellar",
	Title:       "Lyotropic lamellar phase with uniform SLD and random distribution",
	Description: "I(q) = 2*pi*P(q)/(delta*q^2) with P(q) = 2*(sld-solvent_sld)^2/q^2*(1-cos(q*delta))",
	Category:    "shape:lamellae",
	Parameters: []model.Parameter{
		{Name: "sld", Units: "1e-6/Ang^2", Default: 1, Limits: model.Unbounded(), Kind: model.KindSLD, Description: "Layer scattering length density"},
		{Name: "solvent_sld", Units: "1e-6/Ang^2", Default: 6, Limits: model.Unbounded(), Kind: model.KindSLD, Description: "Solvent scattering length density"},
		{Name: "thickness", Units: "Ang", Default: 50, Limits: model.Positive(), Kind: model.KindVolume, Description: "Bilayer thickness"},
	},
	Source: []model.Fragment{{Name: "lamellar.c", Text: source}},
	Host:   &model.HostKernel{Iq: iq},
	Demo: map[string]any{
		"scale": 1.0, "background": 0.0,
		"sld": 6.0, "solvent_sld": 1.0,
		"thickness": 40.0,
		"thickness_pd": 0.2, "thickness_pd_n": 40.0,
	},
	Tests: []model.Test{
		{Q: []float64{0.05}, Expected: []float64{181.0707056211969}},
	},
}

func init() {
	model.MustRegister(Info)
}

func iq(q float64, p []float64) float64 {
	sld, solventSLD, thickness := p[0], p[1], p[2]
	sub := sld - solventSLD
	qsq := q * q
	return 1e-4 * sub * sub * 4 * math.Pi * (1 - math.Cos(q*thickness)) / (thickness * qsq * qsq)
}
