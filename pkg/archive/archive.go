// Package archive streams directory subtrees into tar, gzip-compressed tar,
// or zip containers without ever materializing the whole archive. Each
// format keeps its own partial-failure behavior: tar skips broken symlinks
// and truncates on read errors, tar.gz abandons a member nothing was encoded
// into, and zip refuses to emit a single byte for a tree it cannot archive
// completely. Those differences are deliberate and load-bearing for clients.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrBrokenSymlink marks a tree that cannot be encoded because a symbolic
// link's target is missing, unreadable, or cyclic.
var ErrBrokenSymlink = errors.New("broken symbolic link")

// encoder is the contract shared by the three format encoders: push one
// entry at a time, then finalize whatever trailer the container mandates.
type encoder interface {
	Accept(Entry) error
	Finalize() error
}

var (
	_ encoder = (*tarEncoder)(nil)
	_ encoder = (*zipEncoder)(nil)
)

// Stream walks root and writes it to w in the requested format. Bytes reach
// w in enumeration order as entries are encoded; backpressure from w blocks
// the walk, so memory stays bounded by one entry's content. The encoder owns
// at most one open file handle at any moment.
//
// Stream never retries. Once it returns, partially written output is
// whatever it is; a fresh call starts a fresh enumeration.
//
// Example:
//
//	err := archive.Stream(r.Context(), w, "/srv/files/photos", archive.FormatZip, log)
//	if err != nil {
//		// status is already committed; the failure only shapes the body
//	}
func Stream(ctx context.Context, w io.Writer, root string, format Format, log *slog.Logger) error {
	switch format {
	case FormatTar:
		return streamTar(ctx, w, root, log)
	case FormatTarGz:
		return streamTarGz(ctx, w, root, log)
	case FormatZip:
		return streamZip(ctx, w, root, log)
	}
	return fmt.Errorf("unknown archive format %q", format)
}
