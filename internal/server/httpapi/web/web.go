// Package web serves the embedded single-page front end: login and
// registration forms plus a placeholder dashboard. Access to the dashboard
// is gated client-side on the mere presence of a stored token; the pages
// never verify the token nor attach it to API calls.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var static embed.FS

// Handler returns a file server rooted at the embedded static assets.
func Handler() http.Handler {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// static is compiled in; a missing subtree is a build defect
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
