package archive

import (
	"io/fs"
	"time"
)

// Format identifies one of the supported archive container formats. Its
// string value matches the `download` query parameter used by the HTTP
// layer.
type Format string

const (
	FormatTarGz Format = "tar_gz"
	FormatTar   Format = "tar"
	FormatZip   Format = "zip"
)

// Formats lists every supported format in the order download links are
// rendered.
var Formats = []Format{FormatTarGz, FormatTar, FormatZip}

// ParseFormat maps a `download` query value to a Format. The second return
// value reports whether the value named a known format.
//
// Example:
//
//	format, ok := archive.ParseFormat(r.URL.Query().Get("download"))
//	if !ok {
//		// reject the request
//	}
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatTarGz, FormatTar, FormatZip:
		return Format(s), true
	}
	return "", false
}

// Extension returns the file name suffix for the format, including the
// leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatTarGz:
		return ".tar.gz"
	case FormatTar:
		return ".tar"
	case FormatZip:
		return ".zip"
	}
	return ""
}

// MediaType returns the Content-Type value served with a download of this
// format.
func (f Format) MediaType() string {
	switch f {
	case FormatTarGz:
		return "application/gzip"
	case FormatTar:
		return "application/x-tar"
	case FormatZip:
		return "application/zip"
	}
	return "application/octet-stream"
}

// Kind classifies a filesystem object queued for archiving.
type Kind int

const (
	// KindFile is a regular file, or a valid symlink resolved to one when
	// the walk follows links.
	KindFile Kind = iota
	// KindDir is a directory, or a valid symlink resolved to one when the
	// walk follows links.
	KindDir
	// KindSymlink is a symbolic link surfaced as itself. When Broken is set
	// the target could not be resolved.
	KindSymlink
)

// Entry describes one filesystem object produced by Walk. Paths always use
// forward slashes and are rooted at the archived directory's base name; they
// never contain ".." segments or a backslash.
type Entry struct {
	Path       string
	Kind       Kind
	Size       int64
	Mode       fs.FileMode
	ModTime    time.Time
	FSPath     string
	LinkTarget string
	Broken     bool
}
