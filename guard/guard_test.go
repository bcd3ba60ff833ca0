package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
	"github.com/pawpilot/pawpilot/sdk/go/auth"
)

var (
	unresolved = sdk.Session{Loading: true}
	anonymous  = sdk.Session{}
	signedIn   = sdk.Session{Identity: &auth.Identity{UID: "u1"}, Credential: "tok"}
)

func TestDecide(t *testing.T) {
	g := Default()

	tests := []struct {
		name    string
		path    string
		session sdk.Session
		want    Decision
	}{
		{"unresolved protected", "/", unresolved, Decision{Action: ActionLoading}},
		{"unresolved login", "/login", unresolved, Decision{Action: ActionLoading}},
		{"anonymous protected", "/diagnosis", anonymous, Decision{Action: ActionRedirect, Target: "/login"}},
		{"anonymous home", "/", anonymous, Decision{Action: ActionRedirect, Target: "/login"}},
		{"anonymous login", "/login", anonymous, Decision{Action: ActionRender}},
		{"anonymous register", "/register/", anonymous, Decision{Action: ActionRender}},
		{"anonymous public", "/metrics", anonymous, Decision{Action: ActionRender}},
		{"signed in login", "/login?next=%2F", signedIn, Decision{Action: ActionRedirect, Target: "/"}},
		{"signed in register", "/register", signedIn, Decision{Action: ActionRedirect, Target: "/"}},
		{"signed in protected", "/vets", signedIn, Decision{Action: ActionRender}},
		{"identity without credential", "/vets", sdk.Session{Identity: &auth.Identity{UID: "u1"}}, Decision{Action: ActionRender}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Decide(tt.path, tt.session))
		})
	}
}

func TestZeroGuardUsesDefaultRoutes(t *testing.T) {
	var g Guard
	assert.Equal(t, Decision{Action: ActionRedirect, Target: "/login"}, g.Decide("/pets", anonymous))
	assert.Equal(t, Decision{Action: ActionRedirect, Target: "/"}, g.Decide("/login", signedIn))
}

type staticSource struct {
	mu sync.Mutex
	s  sdk.Session
}

func (s *staticSource) Snapshot() sdk.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s
}

func (s *staticSource) set(session sdk.Session) {
	s.mu.Lock()
	s.s = session
	s.mu.Unlock()
}

func TestMiddleware(t *testing.T) {
	src := &staticSource{s: unresolved}
	view := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("view:" + r.URL.Path))
	})
	h := Middleware(Default(), src)(view)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Loading")
	assert.NotContains(t, rec.Body.String(), "view:")

	src.set(anonymous)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "view:/login", rec.Body.String())

	src.set(signedIn)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nutrition", nil))
	assert.Equal(t, "view:/nutrition", rec.Body.String())
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Redirect(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *recordingNavigator) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func newProvider(t *testing.T, mock *sdk.MockIdentityService) *sdk.SessionProvider {
	t.Helper()
	p := sdk.NewSessionProvider(mock, nil)
	require.NoError(t, p.Start(context.Background()))
	t.Cleanup(p.Stop)
	return p
}

func TestControllerRedirectsToLoginOnceResolvedAnonymous(t *testing.T) {
	mock := sdk.NewMockIdentityService()
	p := newProvider(t, mock)
	out := &recordingNavigator{}

	c := NewController(Default(), p, "/", out)
	defer c.Close()

	assert.Equal(t, ActionLoading, c.Decision().Action)
	assert.Equal(t, "/", c.Path())
	assert.Empty(t, out.all(), "no redirect while unresolved")

	mock.Emit(nil)

	assert.Equal(t, "/login", c.Path())
	assert.Equal(t, ActionRender, c.Decision().Action)
	assert.Equal(t, []string{"/login"}, out.all())
}

func TestControllerSendsSignedInUserHome(t *testing.T) {
	mock := sdk.NewMockIdentityService().WithCredential("tok")
	p := newProvider(t, mock)
	mock.Emit(nil)
	out := &recordingNavigator{}

	c := NewController(Default(), p, "/login", out)
	defer c.Close()
	require.Equal(t, ActionRender, c.Decision().Action)

	mock.Emit(&auth.Identity{UID: "u1"})

	assert.Equal(t, "/", c.Path())
	assert.Equal(t, []string{"/"}, out.all())
}

func TestControllerFollowsGatewayRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	mock := sdk.NewMockIdentityService().WithCredential("stale")
	p := newProvider(t, mock)
	mock.Emit(&auth.Identity{UID: "u1"})

	c := NewController(Default(), p, "/vets", nil)
	defer c.Close()
	require.Equal(t, ActionRender, c.Decision().Action)

	client, err := sdk.NewClientWithSession(p, nil, c, sdk.WithBaseURL(srv.URL), sdk.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = client.Places.Nearby(context.Background(), sdk.PlaceSearch{Lat: 1, Lng: 1})
	require.True(t, sdk.IsUnauthorized(err))
	assert.Equal(t, "/login", c.Path())
	assert.Equal(t, ActionRender, c.Decision().Action)
}

func TestControllerCloseStopsFollowing(t *testing.T) {
	mock := sdk.NewMockIdentityService()
	p := newProvider(t, mock)
	out := &recordingNavigator{}
	c := NewController(Default(), p, "/", out)
	c.Close()
	c.Close()

	mock.Emit(nil)
	assert.Empty(t, out.all())
	assert.Equal(t, "/", c.Path())
}
