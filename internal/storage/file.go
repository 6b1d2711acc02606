package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalFile is a data file on the local filesystem holding one or more
// data units at known offsets.
type LocalFile struct {
	Path string
}

// ReadRegion reads exactly n bytes starting at off.
func (lf LocalFile) ReadRegion(off int64, n int) ([]byte, error) {
	if off < 0 || n < 0 {
		return nil, ErrInvalidRange
	}
	f, err := os.Open(lf.Path)
	if err != nil {
		return nil, err
	}
	defer CloseFile(f)

	buf := make([]byte, n)
	got, err := f.ReadAt(buf, off)
	if err != nil && !(errors.Is(err, io.EOF) && got == n) {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: want %d bytes at %d, got %d",
				ErrShortRead, lf.Path, n, off, got)
		}
		return nil, err
	}
	return buf, nil
}

// NonEmpty reports whether path exists with a size other than zero.
func NonEmpty(path string) (bool, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return st.Size() != 0, nil
}

// Create opens path for writing, truncating it. Parent directories are
// created as needed.
func Create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, FileMode0755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, FileMode0644)
}

// CloseFile closes f, logging instead of returning the error. Use it for
// read-only handles where a close failure cannot lose data.
func CloseFile(f *os.File) {
	if err := f.Close(); err != nil {
		slog.Warn("storage: close failed", "path", f.Name(), "err", err)
	}
}

// WriteFile writes the output of fn to path and reports the first error
// of fn or of closing the file.
func WriteFile(path string, fn func(w io.Writer) error) (err error) {
	f, err := Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
