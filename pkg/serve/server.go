// Package serve implements the HTTP file server: static file delivery,
// directory listings, and on-demand archive downloads of directory subtrees.
package serve

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Snider/Larder/pkg/archive"
)

// Server serves one directory tree. Every request gets its own enumeration
// and encoder; the only state shared between requests is the immutable
// configuration and the policy derived from it.
type Server struct {
	cfg    Config
	root   string
	policy archive.Policy
	log    *slog.Logger
}

// NewServer validates the configured root and builds a Server.
//
// Example:
//
//	srv, err := serve.NewServer(serve.Config{Root: ".", Port: "8080"}, log)
//	if err != nil {
//		// handle error
//	}
//	err = srv.Start()
func NewServer(cfg Config, log *slog.Logger) (*Server, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", cfg.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", root)
	}

	return &Server{
		cfg:    cfg,
		root:   root,
		policy: cfg.Policy(),
		log:    log,
	}, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s
}

// Start begins serving HTTP requests and blocks.
func (s *Server) Start() error {
	return http.ListenAndServe(net.JoinHostPort(s.cfg.Interface, s.cfg.Port), s.Handler())
}

// URL returns the address the server is reachable on.
func (s *Server) URL() string {
	host := s.cfg.Interface
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, s.cfg.Port))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fsPath, err := s.resolve(r.URL.Path)
	if err != nil {
		s.log.Debug("rejected request path", "path", r.URL.Path, "err", err)
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	info, err := os.Stat(fsPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if !info.IsDir() {
		// Plain files are served regardless of the indexing flag; only
		// browsing and archiving disappear with it.
		http.ServeFile(w, r, fsPath)
		return
	}

	if value := r.URL.Query().Get("download"); value != "" {
		format, ok := archive.ParseFormat(value)
		if !ok {
			http.Error(w, "unknown archive format", http.StatusBadRequest)
			return
		}
		s.handleDownload(w, r, fsPath, format)
		return
	}

	if !strings.HasSuffix(r.URL.Path, "/") {
		http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
		return
	}

	if s.cfg.DisableIndexing {
		http.NotFound(w, r)
		return
	}
	s.handleListing(w, r, fsPath)
}

// handleDownload gates the request through the access policy and streams the
// archive. Once streaming starts the 200 is committed: every later failure
// is logged and surfaces to the client only as a short or empty body.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, fsPath string, format archive.Format) {
	switch s.policy.Decide(format) {
	case archive.NotFound:
		http.NotFound(w, r)
		return
	case archive.Forbidden:
		w.WriteHeader(http.StatusForbidden)
		return
	}

	name := filepath.Base(fsPath)
	if name == string(filepath.Separator) || name == "." {
		name = filepath.Base(s.root)
	}

	w.Header().Set("Content-Type", format.MediaType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+format.Extension()))

	s.log.Debug("streaming archive", "path", fsPath, "format", format)
	if err := archive.Stream(r.Context(), w, fsPath, format, s.log); err != nil {
		s.log.Error("archive generation failed", "path", fsPath, "format", format, "err", err)
	}
}
