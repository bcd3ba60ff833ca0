package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/pawpilot/pawpilot/sdk/go/cmd/pawpilot/cmdutil"
	"github.com/pawpilot/pawpilot/sdk/go/guard"
	"github.com/pawpilot/pawpilot/sdk/go/internal/webui"
	"github.com/pawpilot/pawpilot/sdk/go/metrics"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local web UI",
	Long: `Serve a small browser UI for signing in and browsing your pets.
Every page goes through the route guard; Prometheus metrics are exposed
at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cmdutil.LoadConfig()
		if err != nil {
			return err
		}
		app, err := cmdutil.Open(cmd.Context(), cfg, routes.AppHome, cmdutil.Options{LogOutput: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer app.Close()

		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

		ui := webui.New(webui.Config{
			Guard:    guard.Default(),
			Sessions: app.Session,
			Pets:     app.Client.Pets,
			Metrics:  metrics.Handler(app.Registry),
			Logger:   app.Logger,
		})
		srv := &http.Server{
			Addr:              cfg.Serve.Listen,
			Handler:           ui,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			app.Logger.Info().Str("addr", srv.Addr).Msg("serving UI")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-cmd.Context().Done():
		}

		app.Logger.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Address to listen on (default 127.0.0.1:8080)")
}
