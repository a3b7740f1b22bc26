package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Acid-base/researcher/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Starts the research HTTP API: search, process, retrieve, generate and workflow endpoints plus the report archive and the ingestion log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		scfg := server.Config{
			Host:           a.cfg.Server.Host,
			Port:           a.cfg.Server.Port,
			AllowAll:       a.cfg.Server.AllowAllOrigins,
			RequestTimeout: seconds(a.cfg.Server.RequestTimeoutSeconds),
			Version:        Version,
		}
		if cmd.Flags().Changed("host") {
			scfg.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			scfg.Port = servePort
		}

		srv := server.New(scfg, a.svc, a.reports, a.ingestions, a.logger)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server: %w", err)
		case <-ctx.Done():
		}

		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "listen address (overrides server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 5000, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
