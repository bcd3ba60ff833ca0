// Package cmdutil wires the SDK for pawpilot commands.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
	"github.com/pawpilot/pawpilot/sdk/go/auth"
	"github.com/pawpilot/pawpilot/sdk/go/guard"
	"github.com/pawpilot/pawpilot/sdk/go/internal/config"
	"github.com/pawpilot/pawpilot/sdk/go/kvstore"
	"github.com/pawpilot/pawpilot/sdk/go/logging"
	"github.com/pawpilot/pawpilot/sdk/go/metrics"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

// ErrNotLoggedIn is returned by commands that need a signed-in user.
var ErrNotLoggedIn = fmt.Errorf("%w. Run 'pawpilot login' first", sdk.ErrNotSignedIn)

// App is one command's view of the SDK: a resolved session, a router
// positioned on the command's view and a gateway client.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Collector
	Store    kvstore.Store
	Identity *auth.Client
	Session  *sdk.SessionProvider
	Router   *guard.Controller
	Client   *sdk.Client

	closers []func()
}

// Options adjust Open for tests and the serve command.
type Options struct {
	// Store replaces the on-disk store under Config.DataDir.
	Store kvstore.Store
	// LogOutput replaces stderr.
	LogOutput io.Writer
	// HTTPClient is used for both the backend and the identity service.
	HTTPClient *http.Client
}

// Open builds an App positioned on view and waits for the session to resolve.
func Open(ctx context.Context, cfg *config.Config, view string, opts Options) (*App, error) {
	logOut := opts.LogOutput
	if logOut == nil {
		logOut = os.Stderr
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logOut})
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	app.Metrics = metrics.NewCollector(app.Registry)
	telemetry := logging.Hooks(logger).Merge(app.Metrics.Hooks())

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	app.Store = opts.Store
	if app.Store == nil {
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		badger, err := kvstore.OpenBadger(filepath.Join(cfg.DataDir, "kv"))
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		app.Store = badger
		app.closers = append(app.closers, func() {
			if err := badger.Close(); err != nil {
				logger.Warn().Err(err).Msg("close local store")
			}
		})
	}

	app.Identity, err = auth.NewClient(auth.Config{
		BaseURL:    cfg.Identity.URL,
		APIKey:     cfg.Identity.APIKey,
		HTTPClient: httpClient,
		UserAgent:  "pawpilot-cli/" + sdk.Version,
		Store:      app.Store,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, app.Identity.Close)

	app.Session = sdk.NewSessionProvider(app.Identity, app.Store,
		sdk.WithSessionTelemetry(telemetry),
		sdk.WithCredentialTimeout(cfg.Timeout),
	)
	if err := app.Session.Start(ctx); err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, app.Session.Stop)

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if _, err := app.Session.WaitResolved(waitCtx); err != nil {
		app.Close()
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	app.Router = guard.NewController(guard.Default(), app.Session, view, expiryNotice{logger: logger})
	app.closers = append(app.closers, app.Router.Close)

	app.Client, err = sdk.NewClientWithSession(app.Session, app.Store, app.Router,
		sdk.WithBaseURL(cfg.APIURL),
		sdk.WithHTTPClient(httpClient),
		sdk.WithTelemetry(telemetry),
	)
	if err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// RequireSession fails when the router has sent the user to sign in.
func (a *App) RequireSession() error {
	if a.Router.Path() == routes.AppLogin || a.Session.Snapshot().Identity == nil {
		return ErrNotLoggedIn
	}
	return nil
}

// Close releases everything Open acquired, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// CommandError turns SDK errors into messages fit for a terminal.
func CommandError(err error) error {
	if err == nil {
		return nil
	}
	var authErr sdk.AuthError
	switch {
	case sdk.IsUnauthorized(err):
		return errors.New("session expired. Run 'pawpilot login' to sign in again")
	case errors.As(err, &authErr):
		return errors.New(authErr.Message)
	}
	return err
}

// expiryNotice tells the terminal user when the router is sent to sign in.
type expiryNotice struct {
	logger zerolog.Logger
}

func (n expiryNotice) Redirect(path string) {
	if path == routes.AppLogin {
		n.logger.Warn().Msg("not signed in, run `pawpilot login`")
		return
	}
	n.logger.Debug().Str("path", path).Msg("redirect")
}
