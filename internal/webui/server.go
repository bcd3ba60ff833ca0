// Package webui serves the local browser UI behind the route guard.
package webui

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
	"github.com/pawpilot/pawpilot/sdk/go/auth"
	"github.com/pawpilot/pawpilot/sdk/go/guard"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Sessions is the part of the session provider the UI drives.
type Sessions interface {
	guard.SessionSource
	SignIn(ctx context.Context, email, password string) (*auth.Identity, error)
	SignUp(ctx context.Context, email, password string) (*auth.Identity, error)
	SignOut(ctx context.Context) error
}

// Pets lists the signed-in owner's pets.
type Pets interface {
	List(ctx context.Context) ([]sdk.Pet, error)
}

// Config wires a Server.
type Config struct {
	Guard    guard.Guard
	Sessions Sessions
	Pets     Pets
	// Metrics is mounted at routes.AppMetrics when set.
	Metrics http.Handler
	Logger  zerolog.Logger
}

// Server is the local UI.
type Server struct {
	cfg    Config
	router chi.Router
}

// New builds the UI router.
func New(cfg Config) *Server {
	s := &Server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(traceContext)
	r.Use(s.accessLog)
	r.Use(guard.Middleware(cfg.Guard, cfg.Sessions))

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, routes.AppMetrics, cfg.Metrics)
	}
	r.Get(routes.AppLogin, s.authForm(routes.AppLogin, "Sign in"))
	r.Post(routes.AppLogin, s.authSubmit(routes.AppLogin, "Sign in", cfg.Sessions.SignIn))
	r.Get(routes.AppSignup, s.authForm(routes.AppSignup, "Create account"))
	r.Post(routes.AppSignup, s.authSubmit(routes.AppSignup, "Create account", cfg.Sessions.SignUp))
	r.Post(routes.AppLogout, s.logout)
	r.Get(routes.AppHome, s.dashboard)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// traceContext continues a caller's trace so backend calls made while
// serving the request carry the same traceparent.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.cfg.Logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("ui request")
	})
}

type formPage struct {
	Title  string
	Action string
	Email  string
	Error  string
	Alt    string
	AltURL string
}

func (s *Server) authForm(action, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, "auth.html", newFormPage(action, title))
	}
}

func (s *Server) authSubmit(action, title string, submit func(context.Context, string, string) (*auth.Identity, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		page := newFormPage(action, title)
		page.Email = strings.TrimSpace(r.PostFormValue("email"))

		if _, err := submit(r.Context(), page.Email, r.PostFormValue("password")); err != nil {
			page.Error = "Something went wrong. Try again."
			var authErr sdk.AuthError
			if errors.As(err, &authErr) {
				page.Error = authErr.Message
			}
			s.render(w, http.StatusUnprocessableEntity, "auth.html", page)
			return
		}
		http.Redirect(w, r, s.cfg.Guard.Home(), http.StatusSeeOther)
	}
}

func newFormPage(action, title string) formPage {
	p := formPage{Title: title, Action: action}
	if action == routes.AppLogin {
		p.Alt, p.AltURL = "Create an account", routes.AppSignup
	} else {
		p.Alt, p.AltURL = "Already have an account? Sign in", routes.AppLogin
	}
	return p
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Sessions.SignOut(r.Context()); err != nil {
		s.cfg.Logger.Warn().Err(err).Msg("sign out")
	}
	http.Redirect(w, r, s.cfg.Guard.Login(), http.StatusSeeOther)
}

type dashboardPage struct {
	Name string
	Pets []sdk.Pet
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	pets, err := s.cfg.Pets.List(r.Context())
	if err != nil {
		if sdk.IsUnauthorized(err) {
			http.Redirect(w, r, s.cfg.Guard.Login(), http.StatusSeeOther)
			return
		}
		s.cfg.Logger.Error().Err(err).Msg("list pets")
		http.Error(w, "could not load pets", http.StatusBadGateway)
		return
	}
	page := dashboardPage{Pets: pets}
	if id := s.cfg.Sessions.Snapshot().Identity; id != nil {
		page.Name = id.DisplayName
		if page.Name == "" {
			page.Name = id.Email
		}
	}
	s.render(w, http.StatusOK, "dashboard.html", page)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.cfg.Logger.Error().Err(err).Str("template", name).Msg("render")
	}
}
