// Package lib - Gemeinsame Kernel-Bibliothek
//
// Jede Funktion existiert zweimal: als C-Fragment fuer die kompilierenden
// Backends (OpenCL, nativ) und als Go-Zwilling fuer das Referenz-Backend.
// Die Gauss-Legendre Tabelle wird aus gonum erzeugt, damit Host und Geraet
// dieselben Stuetzstellen verwenden.
package lib

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"slices"
	"strings"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
)

//go:embed *.c
var sources embed.FS

// ErrUnknownFragment wird fuer unbekannte Bibliotheks-Fragmente gemeldet
var ErrUnknownFragment = errors.New("unknown library fragment")

// Gauss76N ist die Anzahl der Stuetzstellen der Orientierungsquadratur
const Gauss76N = 76

const gauss76Name = "gauss76.c"

// Source gibt den Quelltext eines Bibliotheks-Fragments zurueck.
// name ist ohne "lib/" Praefix anzugeben.
func Source(name string) (string, error) {
	if name == gauss76Name {
		return gauss76Source(), nil
	}

	b, err := sources.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: lib/%s", ErrUnknownFragment, name)
	} else if err != nil {
		return "", err
	}
	return string(b), nil
}

// Names gibt alle verfuegbaren Fragmente sortiert zurueck
func Names() []string {
	names := []string{gauss76Name}
	entries, _ := sources.ReadDir(".")
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

// =============================================================================
// Gauss-Legendre 76
// =============================================================================

var gauss76 = sync.OnceValues(func() ([]float64, []float64) {
	z := make([]float64, Gauss76N)
	w := make([]float64, Gauss76N)
	quad.Legendre{}.FixedLocations(z, w, -1, 1)
	return z, w
})

// Gauss76 gibt Stuetzstellen und Gewichte auf [-1, 1] zurueck.
// Die Slices sind geteilt und duerfen nicht veraendert werden.
func Gauss76() (z, w []float64) {
	return gauss76()
}

func gauss76Source() string {
	z, w := Gauss76()

	var b strings.Builder
	b.WriteString("// Gauss-Legendre 76 point quadrature on [-1, 1]\n")
	writeTable := func(name string, values []float64) {
		fmt.Fprintf(&b, "constant double %s[%d] = {\n", name, len(values))
		for _, v := range values {
			fmt.Fprintf(&b, "    %.17g,\n", v)
		}
		b.WriteString("};\n")
	}
	writeTable("Gauss76Z", z)
	writeTable("Gauss76Wt", w)
	return b.String()
}

// =============================================================================
// Go-Zwillinge
// =============================================================================

// J1c ist 2 J1(x)/x mit Grenzwert 1 bei x = 0
func J1c(x float64) float64 {
	if x == 0 {
		return 1
	}
	return 2 * math.J1(x) / x
}

// SphJ1c ist 3 j1(x)/x mit Grenzwert 1 bei x = 0
func SphJ1c(x float64) float64 {
	if math.Abs(x) < 1e-4 {
		return 1 - x*x/10
	}
	sn, cn := math.Sincos(x)
	return 3 * (sn - x*cn) / (x * x * x)
}

// Sinc ist sin(x)/x mit Grenzwert 1 bei x = 0
func Sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(x) / x
}
