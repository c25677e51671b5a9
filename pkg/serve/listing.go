package serve

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"sort"

	"github.com/Snider/Larder/pkg/archive"
)

const listingHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Index of {{.Path}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { padding: 0.25em 1.5em 0.25em 0; text-align: left; }
.downloads a { margin-right: 1em; }
</style>
</head>
<body>
<h1>Index of {{.Path}}</h1>
{{if .Downloads}}<p class="downloads">{{range .Downloads}}<a href="{{.Href}}">{{.Label}}</a>{{end}}</p>{{end}}
<table>
<tr><th>Name</th><th>Size</th></tr>
{{if .Parent}}<tr><td><a href="../">../</a></td><td></td></tr>{{end}}
{{range .Entries}}<tr><td><a href="{{.Href}}">{{.Name}}</a></td><td>{{.Size}}</td></tr>
{{end}}</table>
</body>
</html>
`

var listingTemplate = template.Must(template.New("listing").Parse(listingHTML))

type listingEntry struct {
	Name string
	Href string
	Size string
}

type downloadLink struct {
	Href  string
	Label string
}

type listingData struct {
	Path      string
	Parent    bool
	Entries   []listingEntry
	Downloads []downloadLink
}

// handleListing renders the directory index page. Download links are
// rendered through the same policy decision that gates actual downloads, so
// a link is shown exactly when following it would succeed.
func (s *Server) handleListing(w http.ResponseWriter, r *http.Request, fsPath string) {
	children, err := os.ReadDir(fsPath)
	if err != nil {
		s.log.Error("reading directory for listing", "path", fsPath, "err", err)
		http.Error(w, "failed to read directory", http.StatusInternalServerError)
		return
	}

	// Directories first, then lexical. os.ReadDir is already sorted by name.
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].IsDir() && !children[j].IsDir()
	})

	data := listingData{
		Path:   r.URL.Path,
		Parent: r.URL.Path != "/",
	}

	for _, format := range archive.Formats {
		if s.policy.Decide(format) != archive.Allowed {
			continue
		}
		data.Downloads = append(data.Downloads, downloadLink{
			Href:  "?download=" + string(format),
			Label: "Download " + format.Extension(),
		})
	}

	for _, child := range children {
		entry := listingEntry{
			Name: child.Name(),
			Href: url.PathEscape(child.Name()),
		}
		if child.IsDir() {
			entry.Name += "/"
			entry.Href += "/"
		} else if info, err := child.Info(); err == nil {
			entry.Size = formatSize(info.Size())
		}
		data.Entries = append(data.Entries, entry)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := listingTemplate.Execute(w, data); err != nil {
		s.log.Error("rendering listing", "path", fsPath, "err", err)
	}
}

// formatSize renders a byte count with a binary unit suffix.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
