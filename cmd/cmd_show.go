// cmd_show.go - Show Command
// Hauptfunktionen: ShowHandler, showInfo
package cmd

import (
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sasview/sasmodels/model"
)

// ShowHandler - Zeigt Parametertabelle und Metadaten eines Modells
func ShowHandler(cmd *cobra.Command, args []string) error {
	info, err := model.Lookup(args[0])
	if err != nil {
		return err
	}

	if demo, _ := cmd.Flags().GetBool("demo"); demo {
		table := newTable(cmd.OutOrStdout())
		for _, key := range slices.Sorted(maps.Keys(info.Demo)) {
			table.Append([]string{key, fmt.Sprint(info.Demo[key])})
		}
		table.Render()
		return nil
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	return showInfo(info, verbose, cmd.OutOrStdout())
}

func showInfo(info *model.Info, verbose bool, w io.Writer) error {
	tableRender := func(header string, columns []string, rows func() [][]string) {
		fmt.Fprintln(w, " ", header)
		table := newTable(w, columns...)
		table.AppendBulk(rows())
		table.Render()
		fmt.Fprintln(w)
	}

	tableRender("Model", nil, func() (rows [][]string) {
		rows = append(rows, []string{"", "name", info.Name})
		if info.Title != "" {
			rows = append(rows, []string{"", "title", info.Title})
		}
		if info.Category != "" {
			rows = append(rows, []string{"", "category", info.Category})
		}
		rows = append(rows, []string{"", "normalized", strconv.FormatBool(info.NormalizeVolume)})
		rows = append(rows, []string{"", "effective radius", strconv.FormatBool(info.ER != nil)})
		rows = append(rows, []string{"", "host kernel", strconv.FormatBool(info.Host != nil)})
		rows = append(rows, []string{"", "tests", strconv.Itoa(len(info.Tests))})
		return
	})

	parameters := func(ps []model.Parameter) func() [][]string {
		return func() (rows [][]string) {
			for _, p := range ps {
				rows = append(rows, []string{"", p.Name, formatFloat(p.Default), p.Units, string(p.Kind), formatLimits(p.Limits), p.Description})
			}
			return
		}
	}

	columns := []string{"", "NAME", "DEFAULT", "UNITS", "KIND", "LIMITS", "DESCRIPTION"}
	tableRender("Parameters", columns, parameters(append(append([]model.Parameter{}, model.Common...), info.Parameters...)))

	if verbose && info.IsMagnetic() {
		tableRender("Magnetic parameters", columns, parameters(info.MagneticParameters()))
	}

	if verbose && info.Description != "" {
		fmt.Fprintln(w, " ", "Description")
		fmt.Fprintln(w, "   ", info.Description)
		fmt.Fprintln(w)
	}

	return nil
}

func formatLimits(l [2]float64) string {
	bound := func(v float64) string {
		switch {
		case math.IsInf(v, 1):
			return "inf"
		case math.IsInf(v, -1):
			return "-inf"
		}
		return formatFloat(v)
	}
	return "[" + bound(l[0]) + ", " + bound(l[1]) + "]"
}

// newShowCmd - Erstellt den show Command
func newShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show MODEL",
		Short: "Show information for a model",
		Args:  cobra.ExactArgs(1),
		RunE:  ShowHandler,
	}

	showCmd.Flags().Bool("demo", false, "Show the demo parameters of a model")
	showCmd.Flags().BoolP("verbose", "v", false, "Show magnetic parameters and the description")

	return showCmd
}
