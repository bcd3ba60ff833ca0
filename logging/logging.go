// Package logging builds the zerolog logger used by the CLI and adapts it to
// the SDK's telemetry hooks.
package logging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
)

// Formats accepted by New.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects level, format and destination.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// New returns a logger for cfg. Empty fields mean info, console and stderr.
func New(cfg Config) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if s := strings.TrimSpace(cfg.Level); s != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("logging: invalid level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("logging: invalid format %q", cfg.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// Hooks forwards SDK log entries and HTTP activity to logger.
func Hooks(logger zerolog.Logger) sdk.TelemetryHooks {
	return sdk.TelemetryHooks{
		OnLogEntry: func(_ context.Context, entry sdk.LogEntry) {
			ev := logger.WithLevel(levelOf(entry.Level))
			if len(entry.Fields) > 0 {
				ev = ev.Fields(entry.Fields)
			}
			ev.Msg(entry.Message)
		},
		OnHTTPResponse: func(_ context.Context, req *http.Request, resp *http.Response, err error, latency time.Duration) {
			ev := logger.Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Dur("latency", latency)
			if err != nil {
				ev = logger.Warn().Err(err).Str("method", req.Method).Str("path", req.URL.Path)
			} else if resp != nil {
				ev = ev.Int("status", resp.StatusCode)
			}
			ev.Msg("backend call")
		},
	}
}

func levelOf(l sdk.LogLevel) zerolog.Level {
	switch l {
	case sdk.LogLevelDebug:
		return zerolog.DebugLevel
	case sdk.LogLevelWarn:
		return zerolog.WarnLevel
	case sdk.LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
