// MODUL: kernel
// ZWECK: Einheitlicher Vertrag fuer alle Auswertungs-Backends
// INPUT: Modell-Beschreibung, Praezision, Q-Vektoren, aufgeloeste Parameter
// OUTPUT: Intensitaeten I(Q)
// NEBENEFFEKTE: Keine (Backends verwalten eigene Ressourcen)
// ABHAENGIGKEITEN: model, dispersion
// HINWEISE: Backends registrieren sich per Register in init()

// Package kernel definiert Praezision, Q-Vektoren, Auswertungsaufrufe und
// die Schnittstellen Backend, Kernel und Evaluator.
package kernel

import (
	"fmt"
	"strings"

	"github.com/sasview/sasmodels/dispersion"
	"github.com/sasview/sasmodels/envconfig"
)

// ============================================================================
// Praezision
// ============================================================================

// Precision ist die numerische Praezision eines kompilierten Kernels
type Precision string

const (
	Half   Precision = "half"
	Single Precision = "single"
	Double Precision = "double"
)

// ParsePrecision liest eine Praezision; akzeptiert auch numpy-Kuerzel
// ("float16", "float32", "float64", "f", "d")
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "half", "float16", "f16":
		return Half, nil
	case "single", "float", "float32", "f32", "f":
		return Single, nil
	case "double", "float64", "f64", "d", "":
		return Double, nil
	}
	return "", fmt.Errorf("unknown precision %q", s)
}

// DefaultPrecision gibt die per SAS_PRECISION gesetzte Praezision zurueck
// (Default: double)
func DefaultPrecision() Precision {
	p, err := ParsePrecision(envconfig.Precision())
	if err != nil {
		return Double
	}
	return p
}

// Size gibt die Speichergroesse eines Wertes in Bytes zurueck
func (p Precision) Size() int {
	switch p {
	case Half:
		return 2
	case Single:
		return 4
	}
	return 8
}

// Suffix ist die Endung der Einsprungpunkte nativer Kernel
func (p Precision) Suffix() string {
	switch p {
	case Half:
		return "h"
	case Single:
		return "f"
	}
	return "d"
}

// Tolerance ist die relative Genauigkeit, die ein Kernel dieser
// Praezision gegenueber Referenzwerten einhalten soll
func (p Precision) Tolerance() float64 {
	switch p {
	case Half:
		return 5e-2
	case Single:
		return 5e-5
	}
	return 1e-6
}

// ============================================================================
// Q-Vektoren
// ============================================================================

// Q ist ein unveraenderlicher Satz von Streuvektoren: entweder 1D (Q) oder
// 2D (Qx, Qy)
type Q struct {
	Q  []float64
	Qx []float64
	Qy []float64
}

// Q1D erzeugt einen 1D Satz
func Q1D(q []float64) Q {
	return Q{Q: q}
}

// Q2D erzeugt einen 2D Satz
func Q2D(qx, qy []float64) Q {
	return Q{Qx: qx, Qy: qy}
}

// Is2D meldet, ob Qx/Qy gesetzt sind
func (q Q) Is2D() bool {
	return q.Qx != nil || q.Qy != nil
}

// Len gibt die Anzahl der Punkte zurueck
func (q Q) Len() int {
	if q.Is2D() {
		return len(q.Qx)
	}
	return len(q.Q)
}

// Validate prueft die Konsistenz des Satzes
func (q Q) Validate() error {
	if q.Is2D() {
		if len(q.Q) > 0 {
			return fmt.Errorf("q vector mixes 1D and 2D values")
		}
		if len(q.Qx) != len(q.Qy) {
			return fmt.Errorf("qx has %d values but qy has %d", len(q.Qx), len(q.Qy))
		}
	}
	return nil
}

// ============================================================================
// Auswertungsaufruf
// ============================================================================

// Call ist eine vollstaendig aufgeloeste Auswertung.
//
// Values enthaelt einen Wert pro Eintrag von model.Info.AllParameters in
// dieser Reihenfolge. Dispersion enthaelt pro Tabellenparameter einen
// Gewichtssatz; ein leerer Satz bedeutet den Einzelpunkt des Wertes.
type Call struct {
	Values     []float64
	Dispersion []dispersion.WeightSet
}
