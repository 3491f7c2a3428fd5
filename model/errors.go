// errors.go - Fehlertypen fuer Modell-Beschreibungen
//
// Dieses Modul enthaelt:
// - DescriptorError: Ungueltige Modell-Beschreibung
// - ErrUnknownModel: Modell nicht registriert
// - Suggest: Naechstgelegener Name per Levenshtein-Distanz
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrUnknownModel wird von Lookup zurueckgegeben
var ErrUnknownModel = errors.New("unknown model")

// DescriptorError meldet eine ungueltige Modell-Beschreibung
type DescriptorError struct {
	Model      string
	Parameter  string
	Reason     string
	Suggestion string
}

func (e *DescriptorError) Error() string {
	var b strings.Builder
	b.WriteString("model")
	if e.Model != "" {
		fmt.Fprintf(&b, " %s", e.Model)
	}
	if e.Parameter != "" {
		fmt.Fprintf(&b, ": parameter %q", e.Parameter)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
	}
	return b.String()
}

// Suggest gibt den Kandidaten mit der kleinsten Editierdistanz zu name
// zurueck, sofern er nah genug ist; sonst "".
func Suggest(name string, candidates []string) string {
	best, score := "", len(name)/3+2
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < score {
			best, score = c, d
		}
	}
	return best
}

func unknownModel(name string, known []string) error {
	if s := Suggest(name, known); s != "" {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownModel, name, s)
	}
	return fmt.Errorf("%w %q", ErrUnknownModel, name)
}
