package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/yegors/livescribe/pkg/logger"
)

// StaticFileHandler serves the page and its assets. Unknown paths without a
// file extension fall back to index.html.
type StaticFileHandler struct {
	staticDir  string
	production bool
	logger     *logger.Logger
}

// NewStaticFileHandler creates a new static file handler
func NewStaticFileHandler(staticDir string, production bool, logger *logger.Logger) *StaticFileHandler {
	return &StaticFileHandler{
		staticDir:  staticDir,
		production: production,
		logger:     logger.Named("static-handler"),
	}
}

// ServeHTTP serves a static file
func (h *StaticFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Clean the path to prevent directory traversal attacks
	path := strings.TrimPrefix(filepath.Clean("/"+r.URL.Path), "/")
	if path == "" {
		path = "index.html"
	}

	absStaticDir, err := filepath.Abs(h.staticDir)
	if err != nil {
		h.logger.Error("Failed to get absolute path for static directory", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}

	fullPath := filepath.Join(absStaticDir, path)
	if fullPath != absStaticDir && !strings.HasPrefix(fullPath, absStaticDir+string(filepath.Separator)) {
		h.logger.Warn("Attempted directory traversal attack",
			logger.String("requested_path", r.URL.Path),
			logger.String("full_path", fullPath))
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	fileInfo, err := os.Stat(fullPath)
	if err == nil && fileInfo.IsDir() {
		fullPath = filepath.Join(fullPath, "index.html")
		fileInfo, err = os.Stat(fullPath)
	}
	if err != nil {
		if !os.IsNotExist(err) {
			h.logger.Error("Failed to stat file", logger.Error(err), logger.String("path", fullPath))
			WriteError(w, http.StatusInternalServerError, "Something went wrong!")
			return
		}
		// Client-side routes have no extension; missing assets are real 404s
		if filepath.Ext(path) != "" {
			h.logger.Debug("File not found", logger.String("path", fullPath))
			http.NotFound(w, r)
			return
		}
		fullPath = filepath.Join(absStaticDir, "index.html")
		if _, err := os.Stat(fullPath); err != nil {
			http.NotFound(w, r)
			return
		}
	}

	h.setCacheHeaders(w, fullPath)

	h.logger.Debug("Serving static file",
		logger.String("requested_path", r.URL.Path),
		logger.String("file_path", fullPath))

	http.ServeFile(w, r, fullPath)
}

func (h *StaticFileHandler) setCacheHeaders(w http.ResponseWriter, fullPath string) {
	if strings.EqualFold(filepath.Ext(fullPath), ".html") {
		w.Header().Set("Cache-Control", "no-cache")
		return
	}
	if h.production {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=0")
	}
}
