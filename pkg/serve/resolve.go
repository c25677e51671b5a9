package serve

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// ErrTraversal marks a request path that tries to escape the served root.
var ErrTraversal = errors.New("path escapes the served root")

// resolve maps a request URL path onto a filesystem path under the served
// root. The raw path is checked for ".." segments before any cleaning, so an
// escape attempt is rejected rather than silently normalized away.
func (s *Server) resolve(urlPath string) (string, error) {
	for _, segment := range strings.Split(urlPath, "/") {
		if segment == ".." {
			return "", ErrTraversal
		}
	}

	cleaned := path.Clean("/" + urlPath)
	fsPath := filepath.Join(s.root, filepath.FromSlash(cleaned))

	if fsPath != s.root && !strings.HasPrefix(fsPath, s.root+string(filepath.Separator)) {
		return "", ErrTraversal
	}
	return fsPath, nil
}
