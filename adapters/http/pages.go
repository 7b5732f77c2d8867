package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/artpar/zacre/app"
	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/artpar/zacre/web"
	"github.com/rs/zerolog"
)

// pageHandler serves public files and assembled pages for every path
// not claimed by the API.
type pageHandler struct {
	assembler *app.Assembler
	logger    zerolog.Logger
	static    http.Handler
	staticDir string
}

func (p *pageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if p.serveStatic(w, r) {
		return
	}

	start := time.Now()
	m := p.assembler.Match(r.URL.Path)

	if m != nil && m.Page.Role != "" {
		s := web.SessionFrom(r.Context())
		if s == nil {
			http.Redirect(w, r, "/sign-in", http.StatusFound)
			return
		}
		if s.Role != m.Page.Role {
			envelope.WriteErrorMessage(w, http.StatusForbidden, "Forbidden")
			return
		}
	}

	doc, err := p.assembler.AssembleMatch(r.Context(), m, registry.Request{
		Query: r.URL.Query(),
		User:  web.SessionFrom(r.Context()),
		Path:  r.URL.Path,
	}, start)
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("page assembly failed")
		envelope.WriteErrorMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !doc.Found {
		w.WriteHeader(http.StatusNotFound)
	}
	w.Write(doc.HTML)
}

// serveStatic serves r from the public directory when it names a regular
// file there.
func (p *pageHandler) serveStatic(w http.ResponseWriter, r *http.Request) bool {
	if p.static == nil || p.staticDir == "" || r.URL.Path == "/" {
		return false
	}
	name := filepath.Join(p.staticDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		return false
	}
	p.static.ServeHTTP(w, r)
	return true
}
