// errors.go - Fehler der Backend-Auswahl
package core

import (
	"fmt"
	"strings"

	"github.com/sasview/sasmodels/kernel"
)

// Attempt ist ein gescheiterter Versuch, ein Backend zu nutzen
type Attempt struct {
	Backend kernel.Name `json:"backend"`
	Err     error       `json:"-"`
}

func (a Attempt) String() string {
	return fmt.Sprintf("%s: %v", a.Backend, a.Err)
}

// BackendUnavailableError meldet, dass kein Backend ein Modell in der
// gewuenschten Praezision ausfuehren kann
type BackendUnavailableError struct {
	Model     string
	Precision kernel.Precision
	Attempts  []Attempt
}

func (e *BackendUnavailableError) Error() string {
	var b strings.Builder
	b.WriteString("no backend available")
	if e.Model != "" {
		fmt.Fprintf(&b, " for %s (%s)", e.Model, e.Precision)
	}
	for i, a := range e.Attempts {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(a.String())
	}
	return b.String()
}

// Unwrap gibt die Fehler aller Versuche zurueck
func (e *BackendUnavailableError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}
