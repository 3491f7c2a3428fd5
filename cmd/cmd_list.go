// cmd_list.go - List und Backends Commands
// Hauptfunktionen: ListHandler, BackendsHandler
package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sasview/sasmodels/model"
)

// ListHandler - Listet alle registrierten Modelle auf
func ListHandler(cmd *cobra.Command, args []string) error {
	var data [][]string

	for _, info := range model.List() {
		if len(args) == 0 || strings.HasPrefix(info.Name, strings.ToLower(args[0])) {
			host := "-"
			if info.Host != nil {
				host = "yes"
			}
			data = append(data, []string{info.Name, info.Category, strconv.Itoa(len(info.Parameters)), host, info.Title})
		}
	}

	table := newTable(cmd.OutOrStdout(), "NAME", "CATEGORY", "PARAMETERS", "HOST", "TITLE")
	table.AppendBulk(data)
	table.Render()

	return nil
}

// BackendsHandler - Zeigt die geoeffneten und nicht verfuegbaren Backends
func BackendsHandler(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}

	table := newTable(cmd.OutOrStdout(), "BACKEND", "DOUBLE", "HALF", "DEVICE", "COMPILER", "STATUS")
	for _, c := range engine.Backends() {
		table.Append([]string{string(c.Name), yesNo(c.Double), yesNo(c.Half), c.Device, c.Compiler, "available"})
	}
	for _, a := range engine.Unavailable() {
		table.Append([]string{string(a.Backend), "-", "-", "-", "-", a.Err.Error()})
	}
	table.Render()

	return nil
}

// newListCmd - Erstellt den list Command
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list [PREFIX]",
		Aliases: []string{"ls"},
		Short:   "List models",
		Args:    cobra.MaximumNArgs(1),
		RunE:    ListHandler,
	}
}

// newBackendsCmd - Erstellt den backends Command
func newBackendsCmd() *cobra.Command {
	backendsCmd := &cobra.Command{
		Use:   "backends",
		Short: "Show the compute backends available on this host",
		Args:  cobra.ExactArgs(0),
		RunE:  BackendsHandler,
	}
	addEngineFlags(backendsCmd)
	return backendsCmd
}
