// Package model - Modell-Beschreibungen fuer Streukernel
//
// Dieses Paket definiert die deklarative Beschreibung eines Streumodells:
// eine geordnete Parametertabelle, die Kernel-Quelltext-Fragmente und
// optional eine Go-Implementierung fuer das Referenz-Backend.
//
// Hauptkomponenten:
// - Info: Die Modell-Beschreibung (Name, Parameter, Quelltext, Tests)
// - Parameter: Ein Eintrag der Parametertabelle
// - Register/Lookup/List: Globale Modell-Registry
// - LoadDir/LoadFile: Deklarative Modelle aus .hcl Dateien
package model

import (
	"math"
	"slices"
)

// =============================================================================
// Parameter-Arten
// =============================================================================

// Kind klassifiziert einen Parameter
type Kind string

const (
	// KindPlain ist ein gewoehnlicher skalarer Parameter
	KindPlain Kind = ""

	// KindSLD ist eine Streulaengendichte; sie erhaelt im magnetischen
	// Modus einen effektiven Wert pro Spin-Kanal
	KindSLD Kind = "sld"

	// KindVolume beeinflusst das Partikelvolumen und ist dispergierbar
	KindVolume Kind = "volume"

	// KindOrientation ist ein Orientierungswinkel in Grad (nur 2D)
	KindOrientation Kind = "orientation"
)

// Valid meldet, ob k eine bekannte Parameter-Art ist
func (k Kind) Valid() bool {
	switch k {
	case KindPlain, KindSLD, KindVolume, KindOrientation:
		return true
	}
	return false
}

// Parameter ist ein Eintrag der Parametertabelle
type Parameter struct {
	Name        string     `json:"name"`
	Units       string     `json:"units,omitempty"`
	Default     float64    `json:"default"`
	Limits      [2]float64 `json:"limits"`
	Kind        Kind       `json:"kind,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Unbounded gibt die Grenzen (-inf, +inf) zurueck
func Unbounded() [2]float64 {
	return [2]float64{math.Inf(-1), math.Inf(1)}
}

// Positive gibt die Grenzen [0, +inf) zurueck
func Positive() [2]float64 {
	return [2]float64{0, math.Inf(1)}
}

// =============================================================================
// Kernel-Quelltext und Host-Implementierung
// =============================================================================

// Fragment ist ein benanntes Stueck Kernel-Quelltext.
// Namen mit Praefix "lib/" und leerem Text werden aus der gemeinsamen
// Bibliothek aufgeloest.
type Fragment struct {
	Name string
	Text string
}

// Lib referenziert ein Fragment der gemeinsamen Bibliothek
func Lib(name string) Fragment {
	return Fragment{Name: "lib/" + name}
}

// HostKernel ist die Go-Implementierung eines Modells.
//
// Iq erhaelt alle Parameter ausser den Orientierungswinkeln in
// Tabellenreihenfolge, Iqxy erhaelt alle Tabellenparameter und
// FormVolume nur die Volumenparameter.
type HostKernel struct {
	Iq         func(q float64, pars []float64) float64
	Iqxy       func(qx, qy float64, pars []float64) float64
	FormVolume func(volume []float64) float64
}

// Test ist ein Referenzwert eines Modells.
// Entweder Q (1D) oder Qx/Qy (2D) ist gesetzt.
type Test struct {
	Pars     map[string]float64 `json:"pars,omitempty"`
	Q        []float64          `json:"q,omitempty"`
	Qx       []float64          `json:"qx,omitempty"`
	Qy       []float64          `json:"qy,omitempty"`
	Expected []float64          `json:"expected"`
}

// Is2D meldet, ob der Test orientierte Q-Vektoren verwendet
func (t Test) Is2D() bool {
	return len(t.Qx) > 0
}

// =============================================================================
// Modell-Beschreibung
// =============================================================================

// Info beschreibt ein Streumodell. Nach Validate ist Info unveraenderlich;
// die Identitaet ist Name.
type Info struct {
	Name        string
	Title       string
	Description string
	Category    string

	Parameters []Parameter
	Source     []Fragment

	// Host ist optional; ohne Host kann das Referenz-Backend das Modell
	// nicht auswerten.
	Host *HostKernel

	// ER berechnet den effektiven Radius aus den Volumenparametern
	ER func(volume []float64) float64

	// Demo enthaelt Beispielwerte im flachen Schluesselformat
	// (z.B. "radius_pd": 0.2, "radius_pd_type": "gaussian")
	Demo map[string]any

	Tests []Test

	// NormalizeVolume teilt jeden Dispersionspunkt durch form_volume
	NormalizeVolume bool
}

// Common sind die Parameter, die jedes Modell implizit besitzt
var Common = []Parameter{
	{Name: "scale", Default: 1, Limits: Positive(), Description: "Source intensity"},
	{Name: "background", Units: "1/cm", Default: 0, Limits: Unbounded(), Description: "Source background"},
}

// Magnetic sind die globalen Polarisations-Parameter magnetischer Modelle
var Magnetic = []Parameter{
	{Name: "up_frac_i", Default: 0, Limits: [2]float64{0, 1}, Description: "Fraction of spin up incident"},
	{Name: "up_frac_f", Default: 0, Limits: [2]float64{0, 1}, Description: "Fraction of spin up final"},
	{Name: "up_angle", Units: "degrees", Default: 0, Limits: [2]float64{0, 360}, Description: "Spin up angle"},
}

// MagneticSuffixes sind die Endungen der magnetischen Parameter je SLD
var MagneticSuffixes = []string{"_M0", "_mtheta", "_mphi"}

func (i *Info) filter(keep func(Parameter) bool) []Parameter {
	var out []Parameter
	for _, p := range i.Parameters {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// VolumeParameters gibt die Volumenparameter in Tabellenreihenfolge zurueck
func (i *Info) VolumeParameters() []Parameter {
	return i.filter(func(p Parameter) bool { return p.Kind == KindVolume })
}

// OrientationParameters gibt die Orientierungswinkel zurueck
func (i *Info) OrientationParameters() []Parameter {
	return i.filter(func(p Parameter) bool { return p.Kind == KindOrientation })
}

// SLDParameters gibt die magnetisch faehigen Parameter zurueck
func (i *Info) SLDParameters() []Parameter {
	return i.filter(func(p Parameter) bool { return p.Kind == KindSLD })
}

// IqParameters gibt die Argumente von Iq zurueck (alles ausser Orientierung)
func (i *Info) IqParameters() []Parameter {
	return i.filter(func(p Parameter) bool { return p.Kind != KindOrientation })
}

// IsMagnetic meldet, ob das Modell magnetische Parameter besitzt
func (i *Info) IsMagnetic() bool {
	return slices.ContainsFunc(i.Parameters, func(p Parameter) bool { return p.Kind == KindSLD })
}

// Index gibt die Tabellenposition von name zurueck oder -1
func (i *Info) Index(name string) int {
	return slices.IndexFunc(i.Parameters, func(p Parameter) bool { return p.Name == name })
}

// MagneticParameters gibt die abgeleiteten magnetischen Parameter zurueck:
// pro SLD-Parameter M0, mtheta, mphi und danach die globalen Spin-Parameter.
func (i *Info) MagneticParameters() []Parameter {
	slds := i.SLDParameters()
	if len(slds) == 0 {
		return nil
	}

	out := make([]Parameter, 0, 3*len(slds)+len(Magnetic))
	for _, p := range slds {
		out = append(out,
			Parameter{Name: p.Name + "_M0", Units: "1e-6/Ang^2", Limits: Unbounded(), Description: "Magnetic amplitude of " + p.Name},
			Parameter{Name: p.Name + "_mtheta", Units: "degrees", Limits: [2]float64{-90, 90}, Description: "Magnetic latitude of " + p.Name},
			Parameter{Name: p.Name + "_mphi", Units: "degrees", Limits: [2]float64{-180, 180}, Description: "Magnetic longitude of " + p.Name},
		)
	}
	return append(out, Magnetic...)
}

// AllParameters gibt scale, background, die Tabelle und ggf. die
// magnetischen Parameter in dieser Reihenfolge zurueck
func (i *Info) AllParameters() []Parameter {
	out := slices.Clone(Common)
	out = append(out, i.Parameters...)
	return append(out, i.MagneticParameters()...)
}

// Parameter sucht einen Parameter in AllParameters
func (i *Info) Parameter(name string) (Parameter, bool) {
	for _, p := range i.AllParameters() {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}
