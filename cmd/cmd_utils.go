// cmd_utils.go - Hilfsfunktionen fuer die CLI
// Hauptfunktionen: parseFloats, parseAssignments, qRange, newTable, newEngine
package cmd

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sasview/sasmodels/core"
	"github.com/sasview/sasmodels/kernel"
)

// parseFloats liest eine komma- oder leerzeichengetrennte Zahlenliste
func parseFloats(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseAssignments liest key=value Argumente in das flache Parameterformat.
// Zahlen bleiben Strings; core.ParseFlat wandelt sie um.
func parseAssignments(args []string) (map[string]any, error) {
	flat := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		flat[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return flat, nil
}

// qRange erzeugt n Punkte zwischen lo und hi, logarithmisch oder linear
func qRange(lo, hi float64, n int, log bool) ([]float64, error) {
	switch {
	case n < 1:
		return nil, fmt.Errorf("need at least one q point, got %d", n)
	case !(hi >= lo):
		return nil, fmt.Errorf("qmax %g is below qmin %g", hi, lo)
	case log && lo <= 0:
		return nil, fmt.Errorf("log spacing needs qmin > 0, got %g", lo)
	}

	q := make([]float64, n)
	if n == 1 {
		q[0] = lo
		return q, nil
	}
	for i := range q {
		t := float64(i) / float64(n-1)
		if log {
			q[i] = lo * math.Pow(hi/lo, t)
		} else {
			q[i] = lo + t*(hi-lo)
		}
	}
	return q, nil
}

// newTable erstellt eine Tabelle im Stil von "list"
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	if len(header) > 0 {
		table.SetHeader(header)
	}
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

// addEngineFlags registriert --backend und --precision
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", "", "Backend to use (opencl, native, reference); default SAS_BACKEND or automatic")
	cmd.Flags().String("precision", "", "Numeric precision (half, single, double); default SAS_PRECISION")
}

// newEngine oeffnet eine Engine gemaess --backend und --precision
func newEngine(cmd *cobra.Command) (*core.Engine, error) {
	var opts []core.Option

	if s, _ := cmd.Flags().GetString("backend"); s != "" && s != "auto" {
		name, err := kernel.ParseName(s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithBackend(name))
	}

	if s, _ := cmd.Flags().GetString("precision"); s != "" {
		p, err := kernel.ParsePrecision(s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithPrecision(p))
	}

	return core.New(opts...)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
