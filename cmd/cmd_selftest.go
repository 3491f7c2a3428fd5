// cmd_selftest.go - Test Command (Referenzwerte aller Modelle)
// Hauptfunktionen: SelfTestHandler
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sasview/sasmodels/model"
)

// SelfTestHandler - Prueft die Referenzwerte der Modelle auf allen Backends
func SelfTestHandler(cmd *cobra.Command, args []string) error {
	infos := model.List()
	if len(args) > 0 {
		infos = nil
		for _, name := range args {
			info, err := model.Lookup(name)
			if err != nil {
				return err
			}
			infos = append(infos, info)
		}
	}

	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.SelfTest(cmd.Context(), infos, engine.Precision())
	if err != nil {
		return err
	}

	failed := 0
	table := newTable(cmd.OutOrStdout(), "MODEL", "BACKEND", "PRECISION", "TEST", "MAX ERROR", "STATUS")
	for _, r := range results {
		status := "ok"
		switch {
		case r.Skipped:
			status = "skipped"
		case r.Err != nil:
			status = "FAIL: " + r.Err.Error()
		case !r.Passed():
			status = "FAIL"
		}
		if !r.Passed() {
			failed++
		}

		maxErr := "-"
		if !r.Skipped && r.Err == nil {
			maxErr = strconv.FormatFloat(r.MaxError, 'e', 2, 64)
		}
		table.Append([]string{r.Model, string(r.Backend), string(r.Precision), strconv.Itoa(r.Index), maxErr, status})
	}
	table.Render()

	if failed > 0 {
		return fmt.Errorf("%d of %d tests failed", failed, len(results))
	}
	return nil
}

// newSelfTestCmd - Erstellt den test Command
func newSelfTestCmd() *cobra.Command {
	testCmd := &cobra.Command{
		Use:   "test [MODEL ...]",
		Short: "Check the reference values of models on every available backend",
		RunE:  SelfTestHandler,
	}
	addEngineFlags(testCmd)
	return testCmd
}
