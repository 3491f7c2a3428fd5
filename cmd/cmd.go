// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs, loadModels
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/containerd/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sasview/sasmodels/envconfig"
	"github.com/sasview/sasmodels/logutil"
	"github.com/sasview/sasmodels/model"
	_ "github.com/sasview/sasmodels/model/models"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// loadModels - Registriert die .hcl Beschreibungen aus SAS_MODELS
func loadModels(cmd *cobra.Command, _ []string) error {
	slog.SetDefault(logutil.NewLogger(cmd.ErrOrStderr(), envconfig.LogLevel()))

	dir := envconfig.Models()
	if dir == "" {
		return nil
	}

	infos, err := model.LoadDir(dir)
	if err != nil {
		return fmt.Errorf("SAS_MODELS: %w", err)
	}
	slog.Debug("loaded model descriptors", "dir", dir, "count", len(infos))
	return nil
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	if runtime.GOOS == "windows" && term.IsTerminal(int(os.Stdout.Fd())) {
		console.ConsoleFromFile(os.Stdin) //nolint:errcheck
	}

	rootCmd := &cobra.Command{
		Use:               "sasmodels",
		Short:             "Small angle scattering model engine",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadModels,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	// Commands erstellen
	evalCmd := newEvalCmd()
	listCmd := newListCmd()
	showCmd := newShowCmd()
	sourceCmd := newSourceCmd()
	backendsCmd := newBackendsCmd()
	selftestCmd := newSelfTestCmd()
	cacheCmd := newCacheCmd()
	serveCmd := newServeCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()
	engineEnvs := []envconfig.EnvVar{
		envVars["SAS_DEBUG"],
		envVars["SAS_MODELS"],
		envVars["SAS_BACKEND"],
		envVars["SAS_PRECISION"],
		envVars["SAS_CC"],
		envVars["SAS_CFLAGS"],
		envVars["SAS_VECTORIZE"],
		envVars["SAS_OPENCL_DEVICE"],
		envVars["SAS_CACHE_DIR"],
		envVars["SAS_NOCACHE"],
	}

	for _, cmd := range []*cobra.Command{
		evalCmd,
		listCmd,
		showCmd,
		sourceCmd,
		backendsCmd,
		selftestCmd,
		cacheCmd,
		serveCmd,
	} {
		switch cmd {
		case evalCmd:
			appendEnvDocs(cmd, append([]envconfig.EnvVar{envVars["SAS_HOST"]}, engineEnvs...))
		case serveCmd:
			appendEnvDocs(cmd, append([]envconfig.EnvVar{envVars["SAS_HOST"], envVars["SAS_ORIGINS"]}, engineEnvs...))
		case listCmd, showCmd, sourceCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{envVars["SAS_MODELS"]})
		case cacheCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{envVars["SAS_CACHE_DIR"]})
		default:
			appendEnvDocs(cmd, engineEnvs)
		}
	}

	rootCmd.AddCommand(
		serveCmd,
		evalCmd,
		listCmd,
		showCmd,
		sourceCmd,
		backendsCmd,
		selftestCmd,
		cacheCmd,
	)

	return rootCmd
}
