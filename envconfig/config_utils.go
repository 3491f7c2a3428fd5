// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String: String-Getter
// - Uint: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// =============================================================================
// Boolean-Getter
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// =============================================================================
// String-Getter
// =============================================================================

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// =============================================================================
// Integer-Getter
// =============================================================================

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export-Strukturen und -Funktionen
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"SAS_DEBUG":         {"SAS_DEBUG", LogLevel(), "Show additional debug information (e.g. SAS_DEBUG=1)"},
		"SAS_HOST":          {"SAS_HOST", Host(), "IP Address for the sasmodels server (default 127.0.0.1:8765)"},
		"SAS_ORIGINS":       {"SAS_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"SAS_MODELS":        {"SAS_MODELS", Models(), "Directory with additional .hcl model descriptors"},
		"SAS_CACHE_DIR":     {"SAS_CACHE_DIR", CacheDir(), "Directory for compiled kernel libraries"},
		"SAS_NOCACHE":       {"SAS_NOCACHE", NoCache(), "Do not reuse compiled kernel libraries across runs"},
		"SAS_BACKEND":       {"SAS_BACKEND", Backend(), "Force a backend (opencl, native, reference) instead of autodetection"},
		"SAS_PRECISION":     {"SAS_PRECISION", Precision(), "Default numeric precision (half, single, double)"},
		"SAS_CC":            {"SAS_CC", Compiler(), "C compiler used by the native backend"},
		"SAS_CFLAGS":        {"SAS_CFLAGS", CFlags(), "Extra flags for the C compiler"},
		"SAS_VECTORIZE":     {"SAS_VECTORIZE", Vectorize(), "Allow host specific vector instructions in native kernels"},
		"SAS_OPENCL_DEVICE": {"SAS_OPENCL_DEVICE", OpenCLDevice(), "OpenCL device index or name substring"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
