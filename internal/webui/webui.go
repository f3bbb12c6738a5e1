package webui

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// ErrNoIndex is returned when the UI directory has no index.html.
var ErrNoIndex = errors.New("webui: index.html not found")

// Handler returns an http.Handler serving the UI build in dir.
func Handler(dir string) (http.Handler, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("webui: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("webui: %s is not a directory", dir)
	}
	return FSHandler(os.DirFS(dir))
}

// FSHandler serves the UI from fsys, which must contain index.html at its
// root.
func FSHandler(fsys fs.FS) (http.Handler, error) {
	if _, err := fs.Stat(fsys, "index.html"); err != nil {
		return nil, ErrNoIndex
	}
	fileServer := http.FileServer(http.FS(fsys))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Bundled chunks are content-hashed; index.html must always revalidate.
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		upath := path.Clean(r.URL.Path)
		if upath == "." || upath == "/" {
			fileServer.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(upath, "/api/") {
			http.NotFound(w, r)
			return
		}

		if _, err := fs.Stat(fsys, strings.TrimPrefix(upath, "/")); err != nil {
			r.URL.Path = "/"
		}
		fileServer.ServeHTTP(w, r)
	}), nil
}
