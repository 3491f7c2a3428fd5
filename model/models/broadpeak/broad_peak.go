// Package broadpeak - Breiter Korrelationspeak (SASfit BroadPeak)
package broadpeak

import (
	_ "embed"
	"math"

	"github.com/sasview/sasmodels/model"
)

//go:embed broad_peak.c
var source string

// Info ist die Beschreibung des BroadPeak-Modells
var Info = &model.Info{
	Name:        "broad_peak",
	Title:       "Broad Lorentzian type peak on top of a power law decay",
	Description: "I(q) = I0/(1 + (|q - Q0|*XI)^M)^P",
	Category:    "shape-independent",
	Parameters: []model.Parameter{
		{Name: "I0", Units: "1/cm", Default: 1, Limits: model.Unbounded(), Description: "Peak intensity"},
		{Name: "XI", Units: "Ang", Default: 10, Limits: model.Positive(), Description: "Correlation length"},
		{Name: "Q0", Units: "1/Ang", Default: 0.05, Limits: model.Positive(), Description: "Peak position"},
		{Name: "M", Default: 2, Limits: model.Unbounded(), Description: "Peak width exponent"},
		{Name: "P", Default: 1, Limits: model.Unbounded(), Description: "Peak decay exponent"},
	},
	Source: []model.Fragment{{Name: "broad_peak.c", Text: source}},
	Host:   &model.HostKernel{Iq: iq},
	Demo: map[string]any{
		"scale": 1.0, "background": 0.0,
		"I0": 10.0, "XI": 20.0, "Q0": 0.1, "M": 2.0, "P": 1.5,
	},
	Tests: []model.Test{
		{Q: []float64{0.1, 0.2}, Expected: []float64{0.8, 0.3076923076923076}},
	},
}

func init() {
	model.MustRegister(Info)
}

func iq(q float64, p []float64) float64 {
	i0, xi, q0, m, pp := p[0], p[1], p[2], p[3], p[4]
	return i0 / math.Pow(1+math.Pow(math.Abs(q-q0)*xi, m), pp)
}
