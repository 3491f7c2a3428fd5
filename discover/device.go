// Modul: device.go
// Beschreibung: Beschreibung und Auswahl von OpenCL-Geraeten.
// Die Aufzaehlung selbst liegt im OpenCL-Backend; hier liegt nur die
// treiberunabhaengige Logik.

package discover

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Device ist ein OpenCL-Geraet
type Device struct {
	Index      int      `json:"index"`
	Platform   string   `json:"platform"`
	Name       string   `json:"name"`
	GPU        bool     `json:"gpu"`
	Extensions []string `json:"extensions,omitempty"`
}

func (d Device) String() string {
	return fmt.Sprintf("%d: %s (%s)", d.Index, d.Name, d.Platform)
}

// HasDouble meldet Unterstuetzung fuer double precision
func (d Device) HasDouble() bool {
	return slices.Contains(d.Extensions, "cl_khr_fp64") || slices.Contains(d.Extensions, "cl_amd_fp64")
}

// HasHalf meldet Unterstuetzung fuer half precision
func (d Device) HasHalf() bool {
	return slices.Contains(d.Extensions, "cl_khr_fp16")
}

// ParseExtensions zerlegt die Leerzeichen-getrennte Extension-Liste
func ParseExtensions(s string) []string {
	return strings.Fields(s)
}

// SelectDevice waehlt ein Geraet. sel ist ein Index, ein Teil des
// Geraete- oder Plattformnamens (ohne Gross-/Kleinschreibung) oder leer;
// leer bevorzugt die erste GPU.
func SelectDevice(devices []Device, sel string) (Device, error) {
	if len(devices) == 0 {
		return Device{}, fmt.Errorf("no OpenCL devices")
	}

	sel = strings.TrimSpace(sel)
	if sel == "" {
		if i := slices.IndexFunc(devices, func(d Device) bool { return d.GPU }); i >= 0 {
			return devices[i], nil
		}
		return devices[0], nil
	}

	if n, err := strconv.Atoi(sel); err == nil {
		for _, d := range devices {
			if d.Index == n {
				return d, nil
			}
		}
		return Device{}, fmt.Errorf("OpenCL device %d not found (have %d devices)", n, len(devices))
	}

	lower := strings.ToLower(sel)
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), lower) || strings.Contains(strings.ToLower(d.Platform), lower) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("no OpenCL device matches %q", sel)
}
