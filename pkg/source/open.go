package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Open returns a Buffer that owns the file at path. Files ending in .gz or
// .zst are decompressed on the fly and are therefore read forward-only.
func Open(path string) (*Buffer, error) {
	rc, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return New(rc, true), nil
}

// OpenFile opens path for reading, transparently decompressing .gz and .zst
// files. Closing the returned reader closes the file as well.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		return &compressedFile{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening zstd stream %s: %w", path, err)
		}
		rc := zr.IOReadCloser()
		return &compressedFile{Reader: rc, closers: []io.Closer{rc, f}}, nil
	}
	return f, nil
}

// TrimCompressionExt strips a trailing .gz or .zst extension from path.
func TrimCompressionExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".zst":
		return path[:len(path)-len(filepath.Ext(path))]
	}
	return path
}

// compressedFile hides the Seek method of the underlying file so that the
// Buffer treats the decompressed stream as forward-only.
type compressedFile struct {
	io.Reader
	closers []io.Closer
}

func (c *compressedFile) Close() error {
	var errs []error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
