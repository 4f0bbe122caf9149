package handler

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// mountStatic serves the web client: index.html at "/" and everything else under /static/.
func mountStatic(r chi.Router, dir string) {
	if dir == "" {
		return
	}

	index := filepath.Join(dir, "index.html")
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, index)
	})

	fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
	r.Get("/static/*", fileServer.ServeHTTP)
}
