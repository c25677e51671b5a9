package archive

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WalkOptions controls how Walk treats symbolic links.
type WalkOptions struct {
	// FollowLinks resolves valid symlinks into the file or directory they
	// point at, descending into linked directories. When false, valid
	// symlinks are surfaced as KindSymlink entries carrying their raw
	// target. Broken symlinks are surfaced as data either way.
	FollowLinks bool
}

// WalkFunc receives one entry at a time. Returning an error stops the walk
// and propagates the error to the caller.
type WalkFunc func(Entry) error

// Walk enumerates the tree under root depth-first, siblings in lexical
// order, and calls fn for every entry. The root directory itself is not
// emitted; entry paths are prefixed with root's base name. The walk holds no
// file handles open: entries carry the filesystem path needed to open their
// content later.
//
// A directory that cannot be read terminates the walk with an error. A
// broken symlink does not: it is passed to fn with Broken set, and the
// consumer decides what to do with it.
func Walk(ctx context.Context, root string, opts WalkOptions, fn WalkFunc) error {
	base := filepath.Base(filepath.Clean(root))
	onStack := make(map[string]struct{})
	if real, err := filepath.EvalSymlinks(root); err == nil {
		onStack[real] = struct{}{}
	}
	return walkDir(ctx, root, base, opts, fn, onStack)
}

func walkDir(ctx context.Context, dir, prefix string, opts WalkOptions, fn WalkFunc, onStack map[string]struct{}) error {
	children, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %q: %w", dir, err)
	}

	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return err
		}

		full := filepath.Join(dir, child.Name())
		rel := prefix + "/" + child.Name()

		info, err := child.Info()
		if err != nil {
			return fmt.Errorf("reading metadata for %q: %w", full, err)
		}

		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			if err := walkLink(ctx, full, rel, info, opts, fn, onStack); err != nil {
				return err
			}
		case child.IsDir():
			if err := fn(Entry{Path: rel, Kind: KindDir, Mode: info.Mode(), ModTime: info.ModTime()}); err != nil {
				return err
			}
			if err := walkDir(ctx, full, rel, opts, fn, onStack); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			entry := Entry{
				Path:    rel,
				Kind:    KindFile,
				Size:    info.Size(),
				Mode:    info.Mode(),
				ModTime: info.ModTime(),
				FSPath:  full,
			}
			if err := fn(entry); err != nil {
				return err
			}
		default:
			// Sockets, pipes and devices have no archive representation.
		}
	}

	return nil
}

// walkLink classifies one symlink. Dangling targets, unreadable targets and
// link cycles all count as broken.
func walkLink(ctx context.Context, full, rel string, info fs.FileInfo, opts WalkOptions, fn WalkFunc, onStack map[string]struct{}) error {
	broken := Entry{Path: rel, Kind: KindSymlink, ModTime: info.ModTime(), Broken: true}

	target, err := os.Readlink(full)
	if err != nil {
		return fn(broken)
	}
	resolved, err := os.Stat(full)
	if err != nil {
		return fn(broken)
	}

	if !opts.FollowLinks {
		entry := Entry{
			Path:       rel,
			Kind:       KindSymlink,
			Mode:       info.Mode(),
			ModTime:    info.ModTime(),
			LinkTarget: target,
		}
		return fn(entry)
	}

	if resolved.IsDir() {
		real, err := filepath.EvalSymlinks(full)
		if err != nil {
			return fn(broken)
		}
		if _, ok := onStack[real]; ok {
			// A link back into an ancestor would never terminate.
			return fn(broken)
		}
		onStack[real] = struct{}{}
		defer delete(onStack, real)

		if err := fn(Entry{Path: rel, Kind: KindDir, Mode: resolved.Mode(), ModTime: resolved.ModTime()}); err != nil {
			return err
		}
		return walkDir(ctx, full, rel, opts, fn, onStack)
	}

	if !resolved.Mode().IsRegular() {
		return nil
	}

	// A valid link to a regular file is archived as the file it points at,
	// stored under the link's own path.
	entry := Entry{
		Path:    rel,
		Kind:    KindFile,
		Size:    resolved.Size(),
		Mode:    resolved.Mode(),
		ModTime: resolved.ModTime(),
		FSPath:  full,
	}
	return fn(entry)
}
