// routes_serve.go - Server-Start und Lifecycle-Management
// Enthaelt: Serve() - Hauptfunktion zum Starten des HTTP-Servers

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sasview/sasmodels/core"
	"github.com/sasview/sasmodels/envconfig"
	"github.com/sasview/sasmodels/logutil"
	"github.com/sasview/sasmodels/model"
)

// Serve oeffnet die Backends und bedient ln bis SIGINT oder SIGTERM
func Serve(ln net.Listener) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	engine, err := core.New()
	if err != nil {
		return err
	}
	defer engine.Close()

	for _, b := range engine.Backends() {
		slog.Info("backend available", "name", b.Name, "double", b.Double, "half", b.Half, "device", b.Device, "compiler", b.Compiler)
	}
	for _, a := range engine.Unavailable() {
		slog.Info("backend unavailable", "name", a.Backend, "error", a.Err)
	}

	s := New(ln.Addr(), engine)
	srvr := &http.Server{Handler: s.GenerateRoutes()}

	ctx, done := context.WithCancel(context.Background())

	// listen for a ctrl+c and release devices and compiled kernels
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		srvr.Close()
		done()
	}()

	slog.Info(fmt.Sprintf("Listening on %s (%d models)", ln.Addr(), len(model.Names())))
	err = srvr.Serve(ln)
	// If server is closed from the signal handler, wait for the ctx to be done
	// otherwise error out quickly
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-ctx.Done()
	return nil
}
