// cmd_source.go - Source Command
// Hauptfunktionen: SourceHandler
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sasview/sasmodels/generate"
	"github.com/sasview/sasmodels/model"
)

// SourceHandler - Gibt den erzeugten Kernel-Quelltext eines Modells aus
func SourceHandler(cmd *cobra.Command, args []string) error {
	info, err := model.Lookup(args[0])
	if err != nil {
		return err
	}

	lang, _ := cmd.Flags().GetString("lang")
	precision, _ := cmd.Flags().GetString("precision")
	loop, _ := cmd.Flags().GetString("loop")
	target, err := generate.ParseTarget(lang, precision, loop)
	if err != nil {
		return err
	}

	src, err := generate.Generate(info, target)
	if err != nil {
		return err
	}

	if hash, _ := cmd.Flags().GetBool("hash"); hash {
		fmt.Fprintln(cmd.OutOrStdout(), src.Hash)
		return nil
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := os.WriteFile(output, []byte(src.Code), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s, %s)\n", output, target, src.Hash[:12])
		return nil
	}

	if len(src.Options) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "// build options: %s\n", strings.Join(src.Options, " "))
	}
	fmt.Fprint(cmd.OutOrStdout(), src.Code)
	return nil
}

// newSourceCmd - Erstellt den source Command
func newSourceCmd() *cobra.Command {
	sourceCmd := &cobra.Command{
		Use:   "source MODEL",
		Short: "Print the generated kernel source of a model",
		Args:  cobra.ExactArgs(1),
		RunE:  SourceHandler,
	}

	sourceCmd.Flags().String("lang", "opencl", "Target language (opencl, c)")
	sourceCmd.Flags().String("precision", "double", "Numeric precision (half, single, double)")
	sourceCmd.Flags().String("loop", "", "Where the dispersion loop runs (kernel, host); default depends on --lang")
	sourceCmd.Flags().StringP("output", "o", "", "Write the source to a file")
	sourceCmd.Flags().Bool("hash", false, "Only print the source hash")

	return sourceCmd
}
