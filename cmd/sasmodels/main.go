// MODUL: sasmodels/main
// ZWECK: Einstiegspunkt der sasmodels CLI
// INPUT: CLI-Argumente, SAS_* Umgebungsvariablen
// OUTPUT: Exit-Code, Fehlermeldung auf stderr
// NEBENEFFEKTE: Siehe Subcommands (Server, Build-Cache)
// ABHAENGIGKEITEN: cmd
// HINWEISE: Beendet sich bei SIGINT ueber den Kontext

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sasview/sasmodels/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.NewCLI().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
