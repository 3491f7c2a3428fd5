// config_features.go - Backend-, Compiler- und Praezisions-Konfiguration
//
// Dieses Modul enthaelt:
// - Backend-Auswahl (SAS_BACKEND, SAS_PRECISION)
// - Compiler-Einstellungen fuer das native Backend (SAS_CC, SAS_CFLAGS)
// - OpenCL-Geraeteauswahl (SAS_OPENCL_DEVICE)
package envconfig

// =============================================================================
// Backend-Auswahl
// =============================================================================

var (
	// Backend erzwingt ein Backend ("opencl", "native", "reference").
	// Leer oder "auto" bedeutet automatische Auswahl.
	Backend = String("SAS_BACKEND")

	// Precision setzt die Standard-Praezision ("half", "single", "double")
	Precision = String("SAS_PRECISION")
)

// =============================================================================
// Natives Backend
// =============================================================================

var (
	// Compiler ueberschreibt die Compiler-Erkennung (z.B. "gcc-13")
	Compiler = String("SAS_CC")

	// CFlags sind zusaetzliche Flags fuer den C-Compiler
	CFlags = String("SAS_CFLAGS")

	// NoCache deaktiviert den persistenten Build-Cache
	NoCache = Bool("SAS_NOCACHE")

	// Vectorize erlaubt host-spezifische Vektor-Flags (z.B. -mavx2)
	Vectorize = Bool("SAS_VECTORIZE")
)

// =============================================================================
// OpenCL
// =============================================================================

var (
	// OpenCLDevice waehlt ein Geraet per Index oder Namensteil aus
	OpenCLDevice = String("SAS_OPENCL_DEVICE")
)
