// hcl.go - Deklarative Modelle aus .hcl Dateien
//
// Eine Datei kann mehrere model-Bloecke enthalten:
//
//	model "disc" {
//	  title            = "Thin disc"
//	  normalize_volume = true
//	  source           = ["lib/sas_J1.c"]
//	  kernel_file      = "disc.c"
//
//	  parameter "radius" {
//	    units   = "Ang"
//	    default = 20
//	    min     = 0
//	    kind    = "volume"
//	  }
//
//	  test {
//	    q        = [0.1]
//	    expected = [1.5]
//	  }
//	}
//
// Fehlende min/max Grenzen bedeuten -inf/+inf. HCL-Modelle haben keine
// Host-Implementierung und laufen nur auf den kompilierenden Backends.
package model

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

type hclRoot struct {
	Models []*hclModel `hcl:"model,block"`
}

type hclModel struct {
	Name            string          `hcl:"name,label"`
	Title           string          `hcl:"title,optional"`
	Description     string          `hcl:"description,optional"`
	Category        string          `hcl:"category,optional"`
	NormalizeVolume *bool           `hcl:"normalize_volume,optional"`
	Source          []string        `hcl:"source,optional"`
	Kernel          string          `hcl:"kernel,optional"`
	KernelFile      string          `hcl:"kernel_file,optional"`
	Demo            cty.Value       `hcl:"demo,optional"`
	Parameters      []*hclParameter `hcl:"parameter,block"`
	Tests           []*hclTest      `hcl:"test,block"`
}

type hclParameter struct {
	Name        string   `hcl:"name,label"`
	Units       string   `hcl:"units,optional"`
	Default     float64  `hcl:"default"`
	Min         *float64 `hcl:"min,optional"`
	Max         *float64 `hcl:"max,optional"`
	Kind        string   `hcl:"kind,optional"`
	Description string   `hcl:"description,optional"`
}

type hclTest struct {
	Pars     map[string]float64 `hcl:"pars,optional"`
	Q        []float64          `hcl:"q,optional"`
	Qx       []float64          `hcl:"qx,optional"`
	Qy       []float64          `hcl:"qy,optional"`
	Expected []float64          `hcl:"expected"`
}

// LoadFile liest alle model-Bloecke einer .hcl Datei und validiert sie.
// Die Modelle werden nicht registriert.
func LoadFile(path string) ([]*Info, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, diags)
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode model file %s: %w", path, diags)
	}

	infos := make([]*Info, 0, len(root.Models))
	for _, m := range root.Models {
		info, err := m.info(filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := info.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		infos = append(infos, info)
	}

	return infos, nil
}

// LoadDir liest alle .hcl Dateien eines Verzeichnisses und registriert
// die enthaltenen Modelle
func LoadDir(dir string) ([]*Info, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.hcl"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var loaded []*Info
	for _, path := range paths {
		infos, err := LoadFile(path)
		if err != nil {
			return loaded, err
		}
		for _, info := range infos {
			if err := Register(info); err != nil {
				return loaded, fmt.Errorf("%s: %w", path, err)
			}
			loaded = append(loaded, info)
		}
		slog.Debug("loaded model file", "path", path, "models", len(infos))
	}

	return loaded, nil
}

func (m *hclModel) info(dir string) (*Info, error) {
	info := &Info{
		Name:            m.Name,
		Title:           m.Title,
		Description:     m.Description,
		Category:        m.Category,
		NormalizeVolume: m.NormalizeVolume == nil || *m.NormalizeVolume,
	}

	for _, p := range m.Parameters {
		limits := Unbounded()
		if p.Min != nil {
			limits[0] = *p.Min
		}
		if p.Max != nil {
			limits[1] = *p.Max
		}
		info.Parameters = append(info.Parameters, Parameter{
			Name:        p.Name,
			Units:       p.Units,
			Default:     p.Default,
			Limits:      limits,
			Kind:        Kind(p.Kind),
			Description: p.Description,
		})
	}

	for _, name := range m.Source {
		if filepath.Dir(name) == "lib" {
			info.Source = append(info.Source, Fragment{Name: name})
			continue
		}
		text, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		info.Source = append(info.Source, Fragment{Name: name, Text: string(text)})
	}

	if m.KernelFile != "" {
		text, err := os.ReadFile(filepath.Join(dir, m.KernelFile))
		if err != nil {
			return nil, err
		}
		info.Source = append(info.Source, Fragment{Name: m.KernelFile, Text: string(text)})
	}
	if m.Kernel != "" {
		info.Source = append(info.Source, Fragment{Name: m.Name + ".c", Text: m.Kernel})
	}

	demo, err := demoValues(m.Demo)
	if err != nil {
		return nil, &DescriptorError{Model: m.Name, Reason: err.Error()}
	}
	info.Demo = demo

	for _, t := range m.Tests {
		info.Tests = append(info.Tests, Test{Pars: t.Pars, Q: t.Q, Qx: t.Qx, Qy: t.Qy, Expected: t.Expected})
	}

	return info, nil
}

// demoValues wandelt ein HCL-Objekt in flache Demo-Werte um
func demoValues(v cty.Value) (map[string]any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("demo must be an object")
	}

	out := make(map[string]any)
	for it := v.ElementIterator(); it.Next(); {
		k, e := it.Element()
		switch {
		case e.IsNull():
			continue
		case e.Type().Equals(cty.Number):
			f, _ := e.AsBigFloat().Float64()
			if math.IsInf(f, 0) {
				return nil, fmt.Errorf("demo value %s out of range", k.AsString())
			}
			out[k.AsString()] = f
		case e.Type().Equals(cty.String):
			out[k.AsString()] = e.AsString()
		default:
			return nil, fmt.Errorf("demo value %s must be a number or string", k.AsString())
		}
	}
	return out, nil
}
