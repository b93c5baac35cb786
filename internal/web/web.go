// Package web serves the embedded annotation page and its assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

var assets = func() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}()

// RegisterRoutes mounts the annotation page at / and its assets under
// /static/.
func RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", serveIndex)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(assets)))
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(assets, "index.html")
	if err != nil {
		http.Error(w, "annotation page not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
