package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/flate"
)

// zipEncoder writes entries as a zip stream: local headers and content
// first, central directory on Finalize. Valid symlinks never reach it as
// KindSymlink because the zip walk follows links, materializing a link to a
// file as that file's content under the link's own path.
type zipEncoder struct {
	zw  *zip.Writer
	log *slog.Logger
}

func newZipEncoder(w io.Writer, log *slog.Logger) *zipEncoder {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
	return &zipEncoder{zw: zw, log: log}
}

func (e *zipEncoder) Accept(entry Entry) error {
	switch entry.Kind {
	case KindDir:
		hdr := &zip.FileHeader{Name: entry.Path + "/", Modified: entry.ModTime}
		hdr.SetMode(entry.Mode)
		if _, err := e.zw.CreateHeader(hdr); err != nil {
			return fmt.Errorf("writing directory entry %q: %w", entry.Path, err)
		}
		return nil

	case KindFile:
		hdr := &zip.FileHeader{
			Name:     entry.Path,
			Method:   zip.Deflate,
			Modified: entry.ModTime,
		}
		hdr.SetMode(entry.Mode)
		fw, err := e.zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("writing file entry %q: %w", entry.Path, err)
		}
		f, err := os.Open(entry.FSPath)
		if err != nil {
			return fmt.Errorf("opening %q: %w", entry.FSPath, err)
		}
		_, err = io.Copy(fw, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("streaming %q: %w", entry.Path, err)
		}
		return nil

	case KindSymlink:
		// The validation pass rejects broken links before any byte is
		// written; hitting one here means the tree changed underneath us.
		return fmt.Errorf("%w: %s", ErrBrokenSymlink, entry.Path)
	}

	return fmt.Errorf("unsupported entry kind %d for %q", entry.Kind, entry.Path)
}

// Finalize writes the central directory and the end-of-central-directory
// record.
func (e *zipEncoder) Finalize() error {
	return e.zw.Close()
}

// validateZipTree walks the tree without producing output. A zip archive is
// only valid with a complete central directory, so any broken symlink or
// unreadable subtree has to abort the download before the first byte; this
// pass finds them while the response body is still empty.
func validateZipTree(ctx context.Context, root string) error {
	return Walk(ctx, root, WalkOptions{FollowLinks: true}, func(entry Entry) error {
		if entry.Kind == KindSymlink && entry.Broken {
			return fmt.Errorf("%w: %s", ErrBrokenSymlink, entry.Path)
		}
		return nil
	})
}

// streamZip drives a zip download: validate first, then stream for real.
// The two passes keep memory bounded by one entry at a time while still
// guaranteeing the all-or-nothing body the format's closing invariant
// demands. A filesystem change between the passes degrades to a truncated
// body, the same surface as any other post-commit failure.
func streamZip(ctx context.Context, w io.Writer, root string, log *slog.Logger) error {
	if err := validateZipTree(ctx, root); err != nil {
		return err
	}

	enc := newZipEncoder(w, log)
	if err := Walk(ctx, root, WalkOptions{FollowLinks: true}, enc.Accept); err != nil {
		return err
	}
	return enc.Finalize()
}
