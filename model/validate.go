// validate.go - Pruefung von Modell-Beschreibungen
package model

import (
	"math"
	"regexp"
	"strings"
)

var (
	modelName  = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	identifier = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

// Reserved meldet, ob name fuer abgeleitete Parameter reserviert ist
func Reserved(name string) bool {
	switch name {
	case "q", "qx", "qy":
		return true
	}
	for _, p := range Common {
		if p.Name == name {
			return true
		}
	}
	for _, p := range Magnetic {
		if p.Name == name {
			return true
		}
	}
	if strings.Contains(name, "_pd") {
		return true
	}
	for _, s := range MagneticSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// Validate prueft die Beschreibung und gibt den ersten Fehler als
// *DescriptorError zurueck
func (i *Info) Validate() error {
	fail := func(param, reason string) error {
		return &DescriptorError{Model: i.Name, Parameter: param, Reason: reason}
	}

	if !modelName.MatchString(i.Name) {
		return fail("", "name must be a lower case identifier")
	}

	seen := make(map[string]bool, len(i.Parameters))
	for _, p := range i.Parameters {
		switch {
		case Reserved(p.Name):
			return fail(p.Name, "name is reserved")
		case !identifier.MatchString(p.Name):
			return fail(p.Name, "name must be a C identifier")
		case seen[p.Name]:
			return fail(p.Name, "duplicate parameter")
		case !p.Kind.Valid():
			return fail(p.Name, "unknown kind "+string(p.Kind))
		case math.IsNaN(p.Limits[0]) || math.IsNaN(p.Limits[1]) || p.Limits[0] > p.Limits[1]:
			return fail(p.Name, "limits are not ordered")
		case p.Default < p.Limits[0] || p.Default > p.Limits[1]:
			return fail(p.Name, "default outside limits")
		}
		seen[p.Name] = true
	}

	if len(i.Source) == 0 && i.Host == nil {
		return fail("", "neither kernel source nor host implementation")
	}
	for _, f := range i.Source {
		if f.Name == "" {
			return fail("", "source fragment without name")
		}
	}

	if i.Host != nil {
		if i.Host.Iq == nil {
			return fail("", "host implementation without Iq")
		}
		if i.NormalizeVolume && i.Host.FormVolume == nil {
			return fail("", "volume normalisation requires FormVolume")
		}
	}

	names := make([]string, 0, len(i.Parameters)+len(Common))
	for _, p := range i.AllParameters() {
		names = append(names, p.Name)
	}
	for _, t := range i.Tests {
		for name := range t.Pars {
			if _, ok := i.Parameter(name); !ok {
				return &DescriptorError{Model: i.Name, Parameter: name, Reason: "test uses undeclared parameter", Suggestion: Suggest(name, names)}
			}
		}
		n := len(t.Q)
		if t.Is2D() {
			if len(t.Q) > 0 || len(t.Qx) != len(t.Qy) {
				return fail("", "test mixes 1D and 2D points")
			}
			n = len(t.Qx)
		}
		if n == 0 || n != len(t.Expected) {
			return fail("", "test has mismatched q and expected values")
		}
	}

	return nil
}
