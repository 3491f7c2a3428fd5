// prototype.go - Pruefung der Kernel-Signaturen gegen die Parametertabelle
package generate

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/sasview/sasmodels/model"
)

var (
	commentPattern = regexp2.MustCompile(`/\*.*?\*/|//[^\n]*`, regexp2.Singleline)

	// nur Definitionen (gefolgt von "{"), keine Vorwaertsdeklarationen
	definitionPattern = regexp2.MustCompile(
		`\bdouble\s+(?<name>form_volume|Iqxy|Iq)\s*\((?<args>[^)]*)\)\s*(?=\{)`, regexp2.None)
)

// stripComments ersetzt Kommentare durch Leerzeichen.
// regexp2 liefert Positionen in Runen, nicht in Bytes.
func stripComments(code string) string {
	runes := []rune(code)

	var b strings.Builder
	last := 0
	for m, _ := commentPattern.FindStringMatch(code); m != nil; m, _ = commentPattern.FindNextMatch(m) {
		b.WriteString(string(runes[last:m.Index]))
		b.WriteByte(' ')
		last = m.Index + m.Length
	}
	b.WriteString(string(runes[last:]))
	return b.String()
}

// prototypes liest die Argumentnamen von Iq, Iqxy und form_volume
func prototypes(info *model.Info, code string) (map[string][]string, error) {
	code = stripComments(code)

	found := make(map[string][]string)
	for m, _ := definitionPattern.FindStringMatch(code); m != nil; m, _ = definitionPattern.FindNextMatch(m) {
		name := m.GroupByName("name").String()
		if _, ok := found[name]; ok {
			return nil, &model.DescriptorError{Model: info.Name, Reason: name + " is defined twice"}
		}

		args := []string{}
		if text := strings.TrimSpace(m.GroupByName("args").String()); text != "" && text != "void" {
			for _, arg := range strings.Split(text, ",") {
				fields := strings.Fields(arg)
				if len(fields) == 0 {
					return nil, &model.DescriptorError{Model: info.Name, Reason: name + " has an empty argument"}
				}
				typ := strings.Join(fields[:len(fields)-1], " ")
				if typ != "double" && typ != "const double" {
					return nil, &model.DescriptorError{Model: info.Name, Parameter: fields[len(fields)-1],
						Reason: fmt.Sprintf("%s argument must be double, not %q", name, typ)}
				}
				args = append(args, fields[len(fields)-1])
			}
		}
		found[name] = args
	}
	return found, nil
}

func names(ps []model.Parameter) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

// checkPrototypes stellt sicher, dass die Kernel-Funktionen genau die
// Parameter der Tabelle in Tabellenreihenfolge erwarten
func checkPrototypes(info *model.Info, code string) error {
	found, err := prototypes(info, code)
	if err != nil {
		return err
	}

	want := map[string][]string{
		"Iq":          append([]string{"q"}, names(info.IqParameters())...),
		"Iqxy":        append([]string{"qx", "qy"}, names(info.Parameters)...),
		"form_volume": names(info.VolumeParameters()),
	}

	if _, ok := found["Iq"]; !ok {
		return &model.DescriptorError{Model: info.Name, Reason: "kernel source does not define Iq"}
	}
	if _, ok := found["form_volume"]; !ok && info.NormalizeVolume {
		return &model.DescriptorError{Model: info.Name, Reason: "volume normalisation requires form_volume in kernel source"}
	}

	for _, fn := range []string{"form_volume", "Iq", "Iqxy"} {
		got, ok := found[fn]
		if !ok {
			continue
		}
		if err := compareArgs(info, fn, got, want[fn]); err != nil {
			return err
		}
	}
	return nil
}

func compareArgs(info *model.Info, fn string, got, want []string) error {
	declared := names(info.Parameters)

	for k := range max(len(got), len(want)) {
		switch {
		case k >= len(got):
			return &model.DescriptorError{Model: info.Name, Parameter: want[k],
				Reason: fmt.Sprintf("%s is missing argument %d", fn, k+1)}
		case k >= len(want):
			return &model.DescriptorError{Model: info.Name, Parameter: got[k],
				Reason: fmt.Sprintf("%s has unexpected argument %d", fn, k+1), Suggestion: model.Suggest(got[k], declared)}
		case got[k] == want[k]:
			continue
		case info.Index(got[k]) < 0 && !model.Reserved(got[k]):
			return &model.DescriptorError{Model: info.Name, Parameter: got[k],
				Reason: fmt.Sprintf("%s argument is not a declared parameter", fn), Suggestion: model.Suggest(got[k], declared)}
		default:
			return &model.DescriptorError{Model: info.Name, Parameter: got[k],
				Reason: fmt.Sprintf("%s argument %d must be %q", fn, k+1, want[k])}
		}
	}
	return nil
}
