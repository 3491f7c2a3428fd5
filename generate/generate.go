// generate.go - Quelltext-Erzeugung fuer OpenCL und C
package generate

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/model"
	"github.com/sasview/sasmodels/model/lib"
)

//go:embed templates/*.gotmpl
var templatesFS embed.FS

var templates = sync.OnceValues(func() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.gotmpl")
})

// Entries sind die Namen der Einsprungpunkte im erzeugten Quelltext.
// Leere Namen existieren nicht.
type Entries struct {
	Iq         string
	Iqxy       string
	Imagnetic  string
	FormVolume string
}

// Source ist der erzeugte Quelltext eines Modells fuer ein Target
type Source struct {
	Model   string
	Target  Target
	Code    string
	Options []string
	Entries Entries
	Layout  *Layout

	// Hash identifiziert Quelltext und Target, z.B. fuer Build-Caches
	Hash string
}

// binding ordnet einen Parameternamen einem Platz im Wertevektor zu
type binding struct {
	Name string
	Slot int
}

type entry2D struct {
	Name string
	Sum  string
}

type view struct {
	Name      string
	Target    string
	OpenCL    bool
	Double    bool
	Single    bool
	Half      bool
	Normalize bool
	Magnetic  bool
	SynthIqxy bool
	Suffix    string
	QType     string

	Fragments []model.Fragment
	SLD       []binding

	SpinSlot int
	CosSlot  int
	SinSlot  int

	Locals     string
	TableDecl  string
	TableCall  string
	IqCall     string
	MagCall    string
	VolumeArgs string

	Sum1D     string
	Entries2D []entry2D
}

// Generate erzeugt den Quelltext von info fuer target. Fehler in der
// Modell-Beschreibung werden als *model.DescriptorError gemeldet.
func Generate(info *model.Info, target Target) (*Source, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	fragments, modelCode, err := resolveFragments(info)
	if err != nil {
		return nil, err
	}

	if err := checkPrototypes(info, modelCode); err != nil {
		return nil, err
	}
	found, _ := prototypes(info, modelCode)
	_, hasIqxy := found["Iqxy"]

	layout := NewLayout(info)
	v := &view{
		Name:      info.Name,
		Target:    target.String(),
		OpenCL:    target.Lang == LangOpenCL,
		Double:    target.Precision == kernel.Double,
		Single:    target.Precision == kernel.Single,
		Half:      target.Precision == kernel.Half,
		Normalize: info.NormalizeVolume,
		Magnetic:  info.IsMagnetic(),
		SynthIqxy: !hasIqxy,
		Suffix:    target.Precision.Suffix(),
		QType:     "double",
		Fragments: fragments,
	}
	if v.Half {
		v.QType = "half"
	}

	var locals, tableDecl, tableCall, magCall, iqCall []string
	for k, p := range info.Parameters {
		locals = append(locals, fmt.Sprintf("    double %s = _values[%d];", p.Name, layout.Slot(k)))
		tableDecl = append(tableDecl, ", double "+p.Name)
		tableCall = append(tableCall, ", "+p.Name)
		if p.Kind == model.KindSLD {
			magCall = append(magCall, ", _m_"+p.Name)
		} else {
			magCall = append(magCall, ", "+p.Name)
		}
		if p.Kind != model.KindOrientation {
			iqCall = append(iqCall, ", "+p.Name)
		}
	}
	v.Locals = strings.Join(locals, "\n")
	v.TableDecl = strings.Join(tableDecl, "")
	v.TableCall = strings.Join(tableCall, "")
	v.MagCall = strings.Join(magCall, "")
	v.IqCall = strings.Join(iqCall, "")
	v.VolumeArgs = strings.Join(names(info.VolumeParameters()), ", ")

	if v.Magnetic {
		for s, k := range layout.sld {
			v.SLD = append(v.SLD, binding{Name: info.Parameters[k].Name, Slot: layout.magOffset + 3*s})
		}
		v.SpinSlot = layout.spinOffset
		v.CosSlot = layout.spinOffset + 6
		v.SinSlot = layout.spinOffset + 7
	}

	src := &Source{Model: info.Name, Target: target, Layout: layout}

	name := "host"
	switch target.Loop {
	case LoopKernel:
		name = "kernel"
		v.Sum1D = sumBlock(info, layout.Dispersed(false), layout.ThetaPosition(false), "Iq(_qi"+v.IqCall+")")
		v.Entries2D = append(v.Entries2D, entry2D{
			Name: "Iqxy",
			Sum:  sumBlock(info, layout.Dispersed(true), layout.ThetaPosition(true), "Iqxy(_qxi, _qyi"+v.TableCall+")"),
		})
		src.Entries = Entries{Iq: info.Name + "_Iq", Iqxy: info.Name + "_Iqxy"}
		if v.Magnetic {
			v.Entries2D = append(v.Entries2D, entry2D{
				Name: "Imagnetic",
				Sum:  sumBlock(info, layout.Dispersed(true), layout.ThetaPosition(true), "_magnetic_Iqxy(_qxi, _qyi, _values"+v.TableCall+")"),
			})
			src.Entries.Imagnetic = info.Name + "_Imagnetic"
		}
	case LoopHost:
		suffix := "_" + v.Suffix
		src.Entries = Entries{
			Iq:         info.Name + "_Iq" + suffix,
			Iqxy:       info.Name + "_Iqxy" + suffix,
			FormVolume: info.Name + "_form_volume" + suffix,
		}
		if v.Magnetic {
			src.Entries.Imagnetic = info.Name + "_Imagnetic" + suffix
		}
	default:
		return nil, fmt.Errorf("unknown loop %d", target.Loop)
	}

	tmpl, err := templates()
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, name, v); err != nil {
		return nil, fmt.Errorf("generate %s: %w", info.Name, err)
	}
	src.Code = b.String()

	if target.Lang == LangOpenCL && target.Precision != kernel.Double {
		src.Options = []string{"-cl-single-precision-constant"}
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s", target, src.Code)
	src.Hash = hex.EncodeToString(h.Sum(nil))

	return src, nil
}

// resolveFragments loest "lib/" Referenzen auf und entfernt Duplikate.
// modelCode enthaelt nur die modell-eigenen Fragmente.
func resolveFragments(info *model.Info) ([]model.Fragment, string, error) {
	if len(info.Source) == 0 {
		return nil, "", &model.DescriptorError{Model: info.Name, Reason: "model has no kernel source"}
	}

	var (
		out       []model.Fragment
		modelCode strings.Builder
		seen      = make(map[string]bool)
	)
	for _, f := range info.Source {
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true

		if name, ok := strings.CutPrefix(f.Name, "lib/"); ok && f.Text == "" {
			text, err := lib.Source(name)
			if err != nil {
				return nil, "", &model.DescriptorError{Model: info.Name, Reason: err.Error()}
			}
			out = append(out, model.Fragment{Name: f.Name, Text: text})
			continue
		}

		out = append(out, f)
		modelCode.WriteString(f.Text)
		modelCode.WriteByte('\n')
	}
	return out, modelCode.String(), nil
}

// sumBlock erzeugt die verschachtelten Dispersionsschleifen eines
// Geraete-Kernels und die gewichtete Summe von expr
func sumBlock(info *model.Info, dims []int, theta int, expr string) string {
	var b strings.Builder
	indent := "    "

	weight := "1.0"
	for k, idx := range dims {
		name := info.Parameters[idx].Name
		fmt.Fprintf(&b, "%sfor (int _i%d = 0; _i%d < _pd_len[%d]; _i%d++) {\n", indent, k, k, k, k)
		indent += "    "
		fmt.Fprintf(&b, "%s%s = _pd_value[_pd_off[%d] + _i%d];\n", indent, name, k, k)

		w := fmt.Sprintf("_pd_weight[_pd_off[%d] + _i%d]", k, k)
		if k > 0 {
			w = weight + "*" + w
		}
		fmt.Fprintf(&b, "%sdouble _w%d = %s;\n", indent, k, w)
		if k == theta {
			fmt.Fprintf(&b, "%sif (_pd_len[%d] > 1) _w%d *= fmax(fabs(cos(%s*M_PI_180)), 1.0e-6);\n", indent, k, k, name)
		}
		weight = fmt.Sprintf("_w%d", k)
	}

	fmt.Fprintf(&b, "%sconst double _w = %s;\n", indent, weight)
	if info.NormalizeVolume {
		fmt.Fprintf(&b, "%sconst double _vol = form_volume(%s);\n", indent, strings.Join(names(info.VolumeParameters()), ", "))
		fmt.Fprintf(&b, "%sif (_vol > 0.0) {\n", indent)
		fmt.Fprintf(&b, "%s    _ret += _w*%s/_vol;\n", indent, expr)
		fmt.Fprintf(&b, "%s    _norm += _w;\n", indent)
		fmt.Fprintf(&b, "%s}\n", indent)
	} else {
		fmt.Fprintf(&b, "%s_ret += _w*%s;\n", indent, expr)
		fmt.Fprintf(&b, "%s_norm += _w;\n", indent)
	}

	for range dims {
		indent = indent[4:]
		fmt.Fprintf(&b, "%s}\n", indent)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
