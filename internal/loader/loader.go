// Package loader reads log files into an ordered slice of lines.
// Files are decoded according to their extension and concatenated in
// argument order.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Decoder wraps a raw file stream with a decompressing reader.
type Decoder func(r io.Reader) (io.ReadCloser, error)

// Loader dispatches files to decoders by extension. Files with no
// registered decoder are read as plain text.
type Loader struct {
	decoders    map[string]Decoder // extension -> decoder
	concurrency int
}

// New creates a Loader that understands gzip (".gz") input and reads up to
// concurrency files at once.
func New(concurrency int) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	l := &Loader{
		decoders:    make(map[string]Decoder),
		concurrency: concurrency,
	}
	l.Register(".gz", func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	})
	return l
}

// Register adds or replaces the decoder for ext (including the dot).
func (l *Loader) Register(ext string, dec Decoder) {
	l.decoders[strings.ToLower(ext)] = dec
}

// ReadFile returns the lines of a single file.
func (l *Loader) ReadFile(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if dec, ok := l.decoders[strings.ToLower(filepath.Ext(path))]; ok {
		rc, err := dec(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		defer rc.Close()
		r = rc
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return SplitLines(string(data)), nil
}

// ReadFiles reads all paths concurrently and concatenates their lines in the
// order the paths were given. The first error aborts the read.
func (l *Loader) ReadFiles(ctx context.Context, paths []string) ([]string, error) {
	parts := make([][]string, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			lines, err := l.ReadFile(ctx, path)
			if err != nil {
				return err
			}
			log.Debug().Str("path", path).Int("lines", len(lines)).Msg("Loaded log file")
			parts[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]string, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}
