package pod5

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/meigma/pod5/internal/platform"
)

// File wraps a Container with its underlying file handle.
// Close must be called to release file resources.
type File struct {
	*Container
	file    *os.File
	mapping *platform.Mapping
}

// Close unmaps and closes the underlying file. Tables returned by
// TableBytes for a mapped file must not be used afterwards.
func (f *File) Close() error {
	if f.file == nil {
		return nil
	}
	var errs []error
	if f.mapping != nil {
		errs = append(errs, f.mapping.Close())
		f.mapping = nil
	}
	errs = append(errs, f.file.Close())
	f.file = nil
	return errors.Join(errs...)
}

// OpenFile opens the POD5 file at path.
//
// With WithMmap(true) the file is memory-mapped on Unix, and tables are
// returned without copying. Otherwise, or where mapping is unavailable,
// reads go through the file handle. The returned File must be closed.
func OpenFile(path string, opts ...Option) (*File, error) {
	var cfg Container
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	fs, err := newFileSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	var (
		src     ByteSource = fs
		mapping *platform.Mapping
	)
	if cfg.mmap {
		ms, err := newMappedSource(fs)
		switch {
		case err == nil:
			src, mapping = ms, ms.mapping
		case errors.Is(err, platform.ErrUnsupported):
			cfg.log().Debug("memory mapping unavailable, using reads", "path", path)
		default:
			f.Close()
			return nil, err
		}
	}

	c, err := New(src, opts...)
	if err != nil {
		if mapping != nil {
			_ = mapping.Close()
		}
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &File{Container: c, file: f, mapping: mapping}, nil
}

// Interface compliance.
var _ io.Closer = (*File)(nil)
