package archive

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"log/slog"

	"github.com/klauspost/compress/flate"
)

// gzipHeader is a complete rfc1952 member header: magic, deflate method, no
// flags, no mtime, no extra flags, unknown OS. It goes on the wire before
// the compressor sees a single byte, so a stream torn down with nothing
// encoded leaves the client exactly these 10 bytes.
var gzipHeader = [10]byte{0x1f, 0x8b, 8, 0, 0, 0, 0, 0, 0, 0xff}

// gzipWriter frames a single gzip member by hand: eager header, deflate
// body, CRC32 + uncompressed-length trailer on Close. The stock gzip writers
// emit their header lazily and a Flush would append a sync block, which
// would break the header-only degenerate stream.
type gzipWriter struct {
	w    io.Writer
	fw   *flate.Writer
	crc  hash.Hash32
	size uint32
}

func newGzipWriter(w io.Writer) (*gzipWriter, error) {
	if _, err := w.Write(gzipHeader[:]); err != nil {
		return nil, fmt.Errorf("writing gzip header: %w", err)
	}
	fw, err := flate.NewWriter(w, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	return &gzipWriter{w: w, fw: fw, crc: crc32.NewIEEE()}, nil
}

func (g *gzipWriter) Write(p []byte) (int, error) {
	g.crc.Write(p)
	g.size += uint32(len(p))
	return g.fw.Write(p)
}

// Close flushes the final deflate block and writes the member trailer.
func (g *gzipWriter) Close() error {
	if err := g.fw.Close(); err != nil {
		return err
	}
	var trailer [8]byte
	binary.LittleEndian.PutUint32(trailer[0:4], g.crc.Sum32())
	binary.LittleEndian.PutUint32(trailer[4:8], g.size)
	_, err := g.w.Write(trailer[:])
	return err
}

// streamTarGz drives a gzip-compressed tar download. The member is
// abandoned when every child entry was suppressed before anything besides
// the root header could be encoded, whether by a failed walk or by
// broken-symlink skips; until finalize the tar blocks sit in the deflate
// window, so tearing the stream down leaves nothing but the 10 header bytes
// on the wire. A genuinely empty directory is a normal run and finalizes
// into a complete, trailer-terminated stream.
func streamTarGz(ctx context.Context, w io.Writer, root string, log *slog.Logger) error {
	gz, err := newGzipWriter(w)
	if err != nil {
		return err
	}

	enc := newTarEncoder(gz, log)
	err = encodeTarEntries(ctx, enc, root)

	if enc.written <= 1 && (err != nil || enc.skipped > 0) {
		// Children existed but none could be encoded. Abandon the member
		// rather than shipping an archive that hides what was lost.
		return err
	}
	if err != nil {
		// Mid-stream failure with entries already encoded: close out
		// best-effort so the client holds a valid gzip of a truncated tar.
		enc.Finalize()
		gz.Close()
		return err
	}

	if err := enc.Finalize(); err != nil {
		return err
	}
	return gz.Close()
}
