package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// tarEncoder writes entries as a USTAR-compatible stream. Broken symlinks
// are skipped without error: tar entries are independent, so one unreadable
// link never costs the client the rest of the archive.
type tarEncoder struct {
	tw      *tar.Writer
	log     *slog.Logger
	written int
	skipped int
}

func newTarEncoder(w io.Writer, log *slog.Logger) *tarEncoder {
	return &tarEncoder{tw: tar.NewWriter(w), log: log}
}

func (e *tarEncoder) Accept(entry Entry) error {
	switch entry.Kind {
	case KindDir:
		hdr := &tar.Header{
			Typeflag: tar.TypeDir,
			Name:     entry.Path + "/",
			Mode:     int64(entry.Mode.Perm()),
			ModTime:  entry.ModTime,
		}
		if err := e.tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing directory header %q: %w", entry.Path, err)
		}
		e.written++
		return nil

	case KindSymlink:
		if entry.Broken {
			e.log.Debug("skipping broken symlink", "path", entry.Path)
			e.skipped++
			return nil
		}
		hdr := &tar.Header{
			Typeflag: tar.TypeSymlink,
			Name:     entry.Path,
			Linkname: entry.LinkTarget,
			Mode:     0777,
			ModTime:  entry.ModTime,
		}
		if err := e.tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing symlink header %q: %w", entry.Path, err)
		}
		e.written++
		return nil

	case KindFile:
		hdr := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     entry.Path,
			Size:     entry.Size,
			Mode:     int64(entry.Mode.Perm()),
			ModTime:  entry.ModTime,
		}
		if err := e.tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing file header %q: %w", entry.Path, err)
		}
		e.written++

		f, err := os.Open(entry.FSPath)
		if err != nil {
			return fmt.Errorf("opening %q: %w", entry.FSPath, err)
		}
		_, err = io.Copy(e.tw, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("streaming %q: %w", entry.Path, err)
		}
		return nil
	}

	return fmt.Errorf("unsupported entry kind %d for %q", entry.Kind, entry.Path)
}

// Finalize writes the two terminating zero blocks.
func (e *tarEncoder) Finalize() error {
	return e.tw.Close()
}

// encodeTarEntries emits the archived root's own directory header followed
// by every descendant. Symlinks are stored as link headers, not followed.
func encodeTarEntries(ctx context.Context, enc *tarEncoder, root string) error {
	info, err := os.Lstat(root)
	if err != nil {
		return fmt.Errorf("reading archive root %q: %w", root, err)
	}

	rootEntry := Entry{
		Path:    filepath.Base(filepath.Clean(root)),
		Kind:    KindDir,
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}
	if err := enc.Accept(rootEntry); err != nil {
		return err
	}
	return Walk(ctx, root, WalkOptions{}, enc.Accept)
}

// streamTar drives a plain tar download. A failure mid-stream still gets a
// best-effort trailer: the status line is long gone by then, so a truncated
// body is all the client can be given.
func streamTar(ctx context.Context, w io.Writer, root string, log *slog.Logger) error {
	enc := newTarEncoder(w, log)
	err := encodeTarEntries(ctx, enc, root)
	if ferr := enc.Finalize(); err == nil {
		err = ferr
	}
	return err
}
