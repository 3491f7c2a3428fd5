// types.go - Anfrage- und Antwort-Typen der HTTP-API
// Enthaelt: StatusError, Bound, Modell-, Backend-, Auswertungs- und Quelltext-Typen
package api

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/sasview/sasmodels/kernel"
)

// StatusError is an error with an HTTP status code and message.
type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string `json:"error"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		return "something went wrong, please see the sasmodels server logs for details"
	}
}

// ============================================================================
// Modelle
// ============================================================================

// Bound ist eine Parametergrenze. JSON kennt kein Unendlich, daher werden
// +/-Inf als "inf" und "-inf" kodiert.
type Bound float64

func (b Bound) MarshalJSON() ([]byte, error) {
	switch {
	case math.IsInf(float64(b), 1):
		return []byte(`"inf"`), nil
	case math.IsInf(float64(b), -1):
		return []byte(`"-inf"`), nil
	}
	return json.Marshal(float64(b))
}

func (b *Bound) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "inf", "+inf":
			*b = Bound(math.Inf(1))
		case "-inf":
			*b = Bound(math.Inf(-1))
		default:
			return fmt.Errorf("invalid bound %q", s)
		}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*b = Bound(f)
	return nil
}

// Parameter ist die JSON-Form eines Tabelleneintrags
type Parameter struct {
	Name        string   `json:"name"`
	Units       string   `json:"units,omitempty"`
	Default     float64  `json:"default"`
	Limits      [2]Bound `json:"limits"`
	Kind        string   `json:"kind,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ModelSummary ist ein Eintrag der Modell-Liste
type ModelSummary struct {
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	Category   string `json:"category,omitempty"`
	Parameters int    `json:"parameters"`
	Magnetic   bool   `json:"magnetic"`
	Host       bool   `json:"host"`
}

// ListResponse ist die Antwort auf GET /api/models
type ListResponse struct {
	Models []ModelSummary `json:"models"`
}

// ShowResponse ist die Antwort auf GET /api/models/:name
type ShowResponse struct {
	Name            string         `json:"name"`
	Title           string         `json:"title,omitempty"`
	Description     string         `json:"description,omitempty"`
	Category        string         `json:"category,omitempty"`
	Parameters      []Parameter    `json:"parameters"`
	Magnetic        []Parameter    `json:"magnetic,omitempty"`
	Demo            map[string]any `json:"demo,omitempty"`
	Tests           int            `json:"tests"`
	NormalizeVolume bool           `json:"normalize_volume"`
	EffectiveRadius bool           `json:"effective_radius"`
}

// ============================================================================
// Backends
// ============================================================================

// UnavailableBackend nennt ein Backend, das nicht geoeffnet werden konnte
type UnavailableBackend struct {
	Name  kernel.Name `json:"name"`
	Error string      `json:"error"`
}

// BackendsResponse ist die Antwort auf GET /api/backends
type BackendsResponse struct {
	Precision   kernel.Precision      `json:"precision"`
	Backends    []kernel.Capabilities `json:"backends"`
	Unavailable []UnavailableBackend  `json:"unavailable,omitempty"`
}

// ============================================================================
// Auswertung
// ============================================================================

// Resolution beschreibt die Instrumentaufloesung einer Auswertung.
// Genau eine Variante ist gesetzt: DQ (Pinhole), SlitWidth/SlitHeight
// (Spalt), DQr/DQphi (2D Pinhole) oder SESANS.
type Resolution struct {
	DQ         []float64 `json:"dq,omitempty"`
	SlitWidth  float64   `json:"slit_width,omitempty"`
	SlitHeight float64   `json:"slit_height,omitempty"`
	DQr        []float64 `json:"dqr,omitempty"`
	DQphi      []float64 `json:"dqphi,omitempty"`
	SESANS     *SESANS   `json:"sesans,omitempty"`
}

// SESANS beschreibt eine Spin-Echo-Messung; Q der Anfrage enthaelt dann
// die Spin-Echo-Laengen in Angstrom.
type SESANS struct {
	Wavelength float64 `json:"wavelength"`
	Thickness  float64 `json:"thickness"`
	QMax       float64 `json:"qmax"`
	RMax       float64 `json:"rmax"`
}

// EvalRequest ist die Anfrage an POST /api/eval. Params verwendet das
// flache Schluesselformat ("radius", "radius_pd", "radius_pd_type", ...).
type EvalRequest struct {
	Model      string         `json:"model"`
	Q          []float64      `json:"q,omitempty"`
	Qx         []float64      `json:"qx,omitempty"`
	Qy         []float64      `json:"qy,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
	Precision  string         `json:"precision,omitempty"`
	Backend    string         `json:"backend,omitempty"`
	Resolution *Resolution    `json:"resolution,omitempty"`
}

// EvalResponse enthaelt I(Q) in der Reihenfolge der angefragten Punkte
type EvalResponse struct {
	Model         string           `json:"model"`
	Precision     kernel.Precision `json:"precision"`
	Intensity     []float64        `json:"intensity"`
	TotalDuration time.Duration    `json:"total_duration,omitempty"`
}

// RadiusRequest ist die Anfrage an POST /api/radius
type RadiusRequest struct {
	Model  string         `json:"model"`
	Params map[string]any `json:"params,omitempty"`
}

// RadiusResponse enthaelt den gewichteten effektiven Radius
type RadiusResponse struct {
	Model  string  `json:"model"`
	Radius float64 `json:"radius"`
}

// ============================================================================
// Quelltext und Selbsttest
// ============================================================================

// SourceRequest ist die Anfrage an POST /api/source
type SourceRequest struct {
	Model     string `json:"model"`
	Lang      string `json:"lang,omitempty"`
	Precision string `json:"precision,omitempty"`
	Loop      string `json:"loop,omitempty"`
}

// SourceResponse enthaelt den erzeugten Kernel-Quelltext
type SourceResponse struct {
	Model   string   `json:"model"`
	Target  string   `json:"target"`
	Hash    string   `json:"hash"`
	Options []string `json:"options,omitempty"`
	Code    string   `json:"code"`
}

// TestRequest ist die Anfrage an POST /api/test. Ohne Models werden alle
// registrierten Modelle geprueft.
type TestRequest struct {
	Models    []string `json:"models,omitempty"`
	Precision string   `json:"precision,omitempty"`
}

// TestResult ist ein einzelnes Selbsttest-Ergebnis
type TestResult struct {
	Model     string           `json:"model"`
	Backend   kernel.Name      `json:"backend"`
	Precision kernel.Precision `json:"precision"`
	Index     int              `json:"index"`
	MaxError  float64          `json:"max_error"`
	Skipped   bool             `json:"skipped,omitempty"`
	Passed    bool             `json:"passed"`
	Error     string           `json:"error,omitempty"`
}

// TestResponse ist die Antwort auf POST /api/test
type TestResponse struct {
	Results []TestResult `json:"results"`
	Failed  int          `json:"failed"`
}
