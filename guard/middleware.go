package guard

import (
	"net/http"
)

const loadingPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="1">
<title>PawPilot</title>
</head>
<body><p>Loading&hellip;</p></body>
</html>
`

// Middleware applies g to every request using the session reported by src.
// Unresolved sessions get a self-refreshing placeholder, redirects use 303.
func Middleware(g Guard, src SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Decide(r.URL.Path, src.Snapshot())
			switch d.Action {
			case ActionLoading:
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Header().Set("Cache-Control", "no-store")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(loadingPage))
			case ActionRedirect:
				http.Redirect(w, r, d.Target, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
