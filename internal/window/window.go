// Package window provides bounds-checked, read-only access to container bytes.
//
// Every offset the container packages use passes through a Window, which
// validates it against the source size before touching the source.
package window

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/meigma/pod5/internal/pod5type"
)

// Source is the random-access byte source behind a Window.
type Source interface {
	io.ReaderAt
	Size() int64
}

// byteSource is implemented by sources whose whole content is addressable
// in memory (byte slices, mapped files).
type byteSource interface {
	Bytes() []byte
}

// Window is a read-only view over a Source.
//
// A Window is immutable and safe for concurrent use when its Source is.
type Window struct {
	src  Source
	data []byte
	size int64
}

// New creates a Window over src.
//
// Sources that expose their backing slice through a Bytes() []byte method
// are sliced without copying.
func New(src Source) (*Window, error) {
	size := src.Size()
	if size < 0 {
		return nil, fmt.Errorf("%w: negative source size %d", pod5type.ErrTruncated, size)
	}
	w := &Window{src: src, size: size}
	if bs, ok := src.(byteSource); ok {
		if data := bs.Bytes(); int64(len(data)) == size {
			w.data = data
		}
	}
	return w, nil
}

// FromBytes creates a Window over an in-memory buffer.
// The buffer must not be modified while the Window is in use.
func FromBytes(data []byte) *Window {
	return &Window{src: bytes.NewReader(data), data: data, size: int64(len(data))}
}

// Size returns the total number of bytes in the window.
func (w *Window) Size() int64 {
	return w.size
}

// InMemory reports whether slices alias the source instead of copying.
func (w *Window) InMemory() bool {
	return w.data != nil
}

// Check reports whether [off, off+length) lies within the window.
func (w *Window) Check(off, length int64) error {
	if off < 0 || length < 0 || off > w.size || length > w.size-off {
		return fmt.Errorf("%w: range [%d, +%d) in %d bytes", pod5type.ErrOffsetOutOfBounds, off, length, w.size)
	}
	return nil
}

// CheckUint64 is Check for unsigned ranges, as recorded in the footer.
func (w *Window) CheckUint64(off, length uint64) (int64, int64, error) {
	if off > math.MaxInt64 || length > math.MaxInt64 {
		return 0, 0, fmt.Errorf("%w: range [%d, +%d) in %d bytes", pod5type.ErrOffsetOutOfBounds, off, length, w.size)
	}
	o, l := int64(off), int64(length)
	if err := w.Check(o, l); err != nil {
		return 0, 0, err
	}
	return o, l, nil
}

// Slice returns the bytes in [off, off+length).
//
// For in-memory sources the result aliases the source and must be treated
// as read-only. Other sources are read into a new buffer.
func (w *Window) Slice(off, length int64) ([]byte, error) {
	if err := w.Check(off, length); err != nil {
		return nil, err
	}
	if w.data != nil {
		end := off + length
		return w.data[off:end:end], nil
	}
	if length > math.MaxInt {
		return nil, fmt.Errorf("%w: range of %d bytes", pod5type.ErrOffsetOutOfBounds, length)
	}
	buf := make([]byte, length)
	n, err := w.src.ReadAt(buf, off)
	if n == len(buf) {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("%w: read %d bytes at %d: %v", pod5type.ErrTruncated, length, off, err)
}

// Section returns a reader bounded to [off, off+length).
func (w *Window) Section(off, length int64) (*io.SectionReader, error) {
	if err := w.Check(off, length); err != nil {
		return nil, err
	}
	return io.NewSectionReader(w.src, off, length), nil
}

// Uint64 reads a little-endian uint64 at off.
func (w *Window) Uint64(off int64) (uint64, error) {
	b, err := w.Slice(off, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Equal reports whether the bytes at off match want.
func (w *Window) Equal(off int64, want []byte) (bool, error) {
	b, err := w.Slice(off, int64(len(want)))
	if err != nil {
		return false, err
	}
	return bytes.Equal(b, want), nil
}
