// config_test.go - Unit Tests fuer die Environment-Konfiguration
package envconfig

import (
	"log/slog"
	"path/filepath"
	"testing"
)

// TestHost testet das Parsen von SAS_HOST
func TestHost(t *testing.T) {
	cases := map[string]struct {
		value  string
		expect string
	}{
		"empty":        {"", "127.0.0.1:8765"},
		"only address": {"1.2.3.4", "1.2.3.4:8765"},
		"only port":    {":1234", ":1234"},
		"address+port": {"1.2.3.4:1234", "1.2.3.4:1234"},
		"hostname":     {"example.com", "example.com:8765"},
		"http scheme":  {"http://example.com", "example.com:80"},
		"bad port":     {"1.2.3.4:99999", "1.2.3.4:8765"},
		"quoted":       {"\"1.2.3.4\"", "1.2.3.4:8765"},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("SAS_HOST", tt.value)
			if host := Host(); host.Host != tt.expect {
				t.Errorf("Host() = %q, erwartet %q", host.Host, tt.expect)
			}
		})
	}
}

// TestLogLevel testet die Auswertung von SAS_DEBUG
func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"false": slog.LevelInfo,
		"0":     slog.LevelInfo,
		"1":     slog.LevelDebug,
		"true":  slog.LevelDebug,
		"2":     slog.Level(-8),
	}

	for value, expect := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("SAS_DEBUG", value)
			if level := LogLevel(); level != expect {
				t.Errorf("LogLevel() = %v, erwartet %v", level, expect)
			}
		})
	}
}

// TestBool testet Bool-Getter inklusive ungueltiger Werte
func TestBool(t *testing.T) {
	cases := map[string]bool{
		"":      false,
		"true":  true,
		"false": false,
		"1":     true,
		"0":     false,
		"yes":   true, // ungueltig, wird als gesetzt interpretiert
	}

	for value, expect := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("SAS_NOCACHE", value)
			if b := NoCache(); b != expect {
				t.Errorf("NoCache() = %v, erwartet %v", b, expect)
			}
		})
	}
}

// TestCacheDir testet Override und Default des Cache-Verzeichnisses
func TestCacheDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SAS_CACHE_DIR", dir)
	if got := CacheDir(); got != dir {
		t.Errorf("CacheDir() = %q, erwartet %q", got, dir)
	}

	t.Setenv("SAS_CACHE_DIR", "")
	if got := CacheDir(); filepath.Base(got) != "sasmodels" {
		t.Errorf("CacheDir() = %q, erwartet Endung sasmodels", got)
	}
}

// TestUint testet den Integer-Getter mit Default
func TestUint(t *testing.T) {
	get := Uint("SAS_TEST_UINT", 7)

	t.Setenv("SAS_TEST_UINT", "")
	if got := get(); got != 7 {
		t.Errorf("Uint leer = %d, erwartet 7", got)
	}

	t.Setenv("SAS_TEST_UINT", "42")
	if got := get(); got != 42 {
		t.Errorf("Uint = %d, erwartet 42", got)
	}

	t.Setenv("SAS_TEST_UINT", "abc")
	if got := get(); got != 7 {
		t.Errorf("Uint ungueltig = %d, erwartet 7", got)
	}
}
