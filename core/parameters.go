// parameters.go - Parameterwerte und Dispersionsangaben eines Aufrufs
//
// Dieses Modul enthaelt:
// - Parameters: Werte und Dispersion pro Parametername
// - ParseFlat: Liest das flache Schluesselformat (radius_pd, radius_pd_n, ...)
// - Resolve: Bildet daraus einen kernel.Call in Layout-Reihenfolge
package core

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/sasview/sasmodels/dispersion"
	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/model"
)

// Parameters sind die Eingaben einer Auswertung. Fehlende Werte werden mit
// den Defaults des Modells belegt.
type Parameters struct {
	Values     map[string]float64         `json:"values,omitempty"`
	Dispersion map[string]dispersion.Spec `json:"dispersion,omitempty"`
}

// Set setzt einen Wert und gibt p fuer Verkettung zurueck
func (p Parameters) Set(name string, v float64) Parameters {
	if p.Values == nil {
		p.Values = make(map[string]float64)
	}
	p.Values[name] = v
	return p
}

// Disperse setzt die Dispersion eines Parameters
func (p Parameters) Disperse(name string, spec dispersion.Spec) Parameters {
	if p.Dispersion == nil {
		p.Dispersion = make(map[string]dispersion.Spec)
	}
	p.Dispersion[name] = spec
	return p
}

// Suffixe des flachen Formats
const (
	suffixPD     = "_pd"
	suffixN      = "_pd_n"
	suffixNSigma = "_pd_nsigma"
	suffixType   = "_pd_type"
)

// ParseFlat liest Parameter im flachen Format. Zahlen duerfen als float64,
// int, json.Number oder String vorliegen; _pd_type ist ein Formname.
func ParseFlat(info *model.Info, flat map[string]any) (Parameters, error) {
	known := make(map[string]model.Parameter)
	var names []string
	for _, p := range info.AllParameters() {
		known[p.Name] = p
		names = append(names, p.Name)
	}

	p := Parameters{Values: make(map[string]float64), Dispersion: make(map[string]dispersion.Spec)}
	specs := make(map[string]dispersion.Spec)
	set := make(map[string]map[string]bool)

	// Schluessel sortiert, damit Fehlermeldungen stabil sind
	for _, key := range slices.Sorted(maps.Keys(flat)) {
		raw := flat[key]

		base, suffix := key, ""
		for _, s := range []string{suffixNSigma, suffixType, suffixN, suffixPD} {
			if b, ok := strings.CutSuffix(key, s); ok {
				if _, isParam := known[key]; !isParam {
					base, suffix = b, s
				}
				break
			}
		}

		par, ok := known[base]
		if !ok {
			return Parameters{}, &model.DescriptorError{
				Model:      info.Name,
				Parameter:  key,
				Reason:     "unknown parameter",
				Suggestion: model.Suggest(base, names),
			}
		}

		if suffix == suffixType {
			s, ok := raw.(string)
			if !ok {
				return Parameters{}, &model.DescriptorError{Model: info.Name, Parameter: key, Reason: fmt.Sprintf("expected a shape name, got %T", raw)}
			}
			shape, err := dispersion.ParseShape(s)
			if err != nil {
				return Parameters{}, &model.DescriptorError{Model: info.Name, Parameter: key, Reason: err.Error()}
			}
			spec := specs[base]
			spec.Shape = shape
			specs[base] = spec
			markSet(set, base, suffix)
			continue
		}

		v, err := toFloat(raw)
		if err != nil {
			return Parameters{}, &model.DescriptorError{Model: info.Name, Parameter: key, Reason: err.Error()}
		}

		if suffix != "" && (math.IsNaN(v) || math.IsInf(v, 0)) {
			return Parameters{}, &model.DescriptorError{Model: info.Name, Parameter: key, Reason: fmt.Sprintf("must be finite, got %v", v)}
		}

		spec := specs[base]
		switch suffix {
		case "":
			p.Values[base] = v
			continue
		case suffixPD:
			spec.Width = v
		case suffixN:
			if v < 0 || v > dispersion.MaxPoints || v != math.Trunc(v) {
				return Parameters{}, &model.DescriptorError{Model: info.Name, Parameter: key, Reason: fmt.Sprintf("must be an integer in [0, %d], got %v", dispersion.MaxPoints, v)}
			}
			spec.N = int(v)
		case suffixNSigma:
			spec.NSigma = v
		}
		spec.Relative = par.Kind == model.KindVolume
		specs[base] = spec
		markSet(set, base, suffix)
	}

	for name, spec := range specs {
		def := dispersion.Default(spec.Shape)
		if spec.Shape == "" {
			def = dispersion.Default(dispersion.Gaussian)
			spec.Shape = dispersion.Gaussian
		}
		if !set[name][suffixN] {
			spec.N = def.N
		}
		if !set[name][suffixNSigma] {
			spec.NSigma = def.NSigma
		}
		spec.Relative = known[name].Kind == model.KindVolume
		p.Dispersion[name] = spec
	}
	return p, nil
}

func markSet(set map[string]map[string]bool, name, suffix string) {
	if set[name] == nil {
		set[name] = make(map[string]bool)
	}
	set[name][suffix] = true
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

// Resolve bildet einen kernel.Call. Unbekannte Namen werden als
// *model.DescriptorError gemeldet, ebenso Dispersion nicht dispergierbarer
// Parameter.
func (p Parameters) Resolve(info *model.Info) (kernel.Call, error) {
	all := info.AllParameters()
	index := make(map[string]int, len(all))
	var names []string
	for i, par := range all {
		index[par.Name] = i
		names = append(names, par.Name)
	}

	values := make([]float64, len(all))
	for i, par := range all {
		values[i] = par.Default
	}
	for _, name := range slices.Sorted(maps.Keys(p.Values)) {
		i, ok := index[name]
		if !ok {
			return kernel.Call{}, &model.DescriptorError{Model: info.Name, Parameter: name, Reason: "unknown parameter", Suggestion: model.Suggest(name, names)}
		}
		values[i] = p.Values[name]
	}

	call := kernel.Call{Values: values}
	if len(p.Dispersion) == 0 {
		return call, nil
	}

	ntable := len(info.Parameters)
	call.Dispersion = make([]dispersion.WeightSet, ntable)
	combinations := 1
	for _, name := range slices.Sorted(maps.Keys(p.Dispersion)) {
		spec := p.Dispersion[name]
		i, ok := index[name]
		if !ok || i < len(model.Common) || i >= len(model.Common)+ntable {
			return kernel.Call{}, &model.DescriptorError{Model: info.Name, Parameter: name, Reason: "unknown table parameter", Suggestion: model.Suggest(name, names)}
		}
		if !spec.Active() {
			continue
		}

		par := all[i]
		if par.Kind != model.KindVolume && par.Kind != model.KindOrientation {
			return kernel.Call{}, &model.DescriptorError{Model: info.Name, Parameter: name, Reason: "cannot be dispersed"}
		}

		set, err := dispersion.Weights(values[i], spec, par.Limits)
		if err != nil {
			return kernel.Call{}, &model.DescriptorError{Model: info.Name, Parameter: name, Reason: err.Error()}
		}
		call.Dispersion[i-len(model.Common)] = set

		combinations *= set.Len()
		if combinations > dispersion.MaxCombinations {
			return kernel.Call{}, &model.DescriptorError{Model: info.Name, Parameter: name, Reason: fmt.Sprintf("dispersion needs more than %d evaluations per point", dispersion.MaxCombinations)}
		}
	}
	return call, nil
}
