// MODUL: generate
// ZWECK: Erzeugt aus einer Modell-Beschreibung kompilierbaren Kernel-Quelltext
// INPUT: model.Info, Target (Sprache, Praezision, Schleifenform)
// OUTPUT: Source mit Quelltext, Einsprungpunkten und Build-Optionen
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: model, model/lib, kernel, dispersion, regexp2
// HINWEISE: Layout legt die Reihenfolge des Wertevektors fest, den Host
//           und Geraet teilen

// Package generate baut Kernel-Quelltext fuer OpenCL und C und definiert
// das gemeinsame Speicherlayout von Parametern und Dispersion.
package generate

import (
	"fmt"

	"github.com/sasview/sasmodels/kernel"
)

// Lang ist die Zielsprache des erzeugten Quelltexts
type Lang string

const (
	LangC      Lang = "c"
	LangOpenCL Lang = "opencl"
)

// Loop bestimmt, wo die Dispersionsschleife laeuft
type Loop int

const (
	// LoopKernel erzeugt einen Kernel pro Q-Punkt, der ueber alle
	// Dispersionspunkte summiert (GPU)
	LoopKernel Loop = iota

	// LoopHost erzeugt Einsprungpunkte fuer einen einzelnen
	// Parametersatz; der Host summiert ueber die Dispersion
	LoopHost
)

func (l Loop) String() string {
	if l == LoopHost {
		return "host"
	}
	return "kernel"
}

// Target beschreibt, wofuer Quelltext erzeugt wird
type Target struct {
	Lang      Lang
	Precision kernel.Precision
	Loop      Loop
}

// Validate prueft die Kombination von Sprache und Praezision
func (t Target) Validate() error {
	switch t.Lang {
	case LangC, LangOpenCL:
	default:
		return fmt.Errorf("unknown target language %q", t.Lang)
	}

	switch t.Precision {
	case kernel.Half:
		if t.Lang != LangOpenCL {
			return fmt.Errorf("half precision requires OpenCL")
		}
	case kernel.Single, kernel.Double:
	default:
		return fmt.Errorf("unknown precision %q", t.Precision)
	}
	return nil
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s/%s", t.Lang, t.Precision, t.Loop)
}

// ParseTarget liest ein Target aus Sprache, Praezision und Schleifenart.
// Ohne Angabe gilt opencl/double mit Schleife im Kernel, fuer C laeuft die
// Schleife per Default auf dem Host.
func ParseTarget(lang, precision, loop string) (Target, error) {
	t := Target{Lang: LangOpenCL, Loop: LoopKernel}
	if lang != "" {
		t.Lang = Lang(lang)
	}
	if t.Lang == LangC {
		t.Loop = LoopHost
	}

	switch loop {
	case "":
	case "kernel":
		t.Loop = LoopKernel
	case "host":
		t.Loop = LoopHost
	default:
		return t, fmt.Errorf("unknown loop %q", loop)
	}

	p, err := kernel.ParsePrecision(precision)
	if err != nil {
		return t, err
	}
	t.Precision = p

	return t, t.Validate()
}
