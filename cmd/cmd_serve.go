// cmd_serve.go - Serve Command
// Hauptfunktionen: RunServer
package cmd

import (
	"errors"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/sasview/sasmodels/envconfig"
	"github.com/sasview/sasmodels/server"
)

// RunServer - Startet den sasmodels-Server auf SAS_HOST
func RunServer(_ *cobra.Command, _ []string) error {
	ln, err := net.Listen("tcp", envconfig.Host().Host)
	if err != nil {
		return err
	}

	err = server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// newServeCmd - Erstellt den serve Command
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the sasmodels HTTP server",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}
}
