// config.go - Haupt-Konfigurationsfunktionen fuer sasmodels
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host des HTTP-Servers zurueck (SAS_HOST)
// - AllowedOrigins: Gibt erlaubte Origins zurueck (SAS_ORIGINS)
// - Models: Gibt das Verzeichnis fuer .hcl Modell-Beschreibungen zurueck (SAS_MODELS)
// - CacheDir: Gibt das Build-Cache-Verzeichnis zurueck (SAS_CACHE_DIR)
// - LogLevel: Gibt Log-Level zurueck (SAS_DEBUG)
//
// Weitere Konfigurationen sind ausgelagert:
// - config_features.go: Backend-, Compiler- und Praezisions-Variablen
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Host gibt Scheme und Host zurueck
// Konfigurierbar via SAS_HOST
// Default: http://127.0.0.1:8765
func Host() *url.URL {
	defaultPort := "8765"

	s := strings.TrimSpace(Var("SAS_HOST"))
	scheme, hostport, ok := strings.Cut(s, "://")
	switch {
	case !ok:
		scheme, hostport = "http", s
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   path,
	}
}

// AllowedOrigins gibt erlaubte Origins zurueck
// Konfigurierbar via SAS_ORIGINS (komma-separiert)
// Enthaelt Standard-Origins fuer localhost
func AllowedOrigins() (origins []string) {
	if s := Var("SAS_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	return origins
}

// Models gibt das Verzeichnis mit zusaetzlichen Modell-Beschreibungen zurueck.
// Konfigurierbar via SAS_MODELS; leer bedeutet: nur eingebaute Modelle.
func Models() string {
	return Var("SAS_MODELS")
}

// CacheDir gibt das Verzeichnis fuer kompilierte Kernel zurueck
// Konfigurierbar via SAS_CACHE_DIR
// Default: <user cache dir>/sasmodels
func CacheDir() string {
	if s := Var("SAS_CACHE_DIR"); s != "" {
		return s
	}

	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sasmodels")
	}

	return filepath.Join(dir, "sasmodels")
}

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via SAS_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("SAS_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
