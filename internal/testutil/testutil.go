// Package testutil builds POD5 containers and byte sources for tests.
package testutil

import (
	"io"
)

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data []byte
	id   string
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data, id: "mock"}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// SourceID returns a fixed identifier.
func (m *MockByteSource) SourceID() string {
	return m.id
}

// Bytes returns the backing slice for tests that need to mutate data.
func (m *MockByteSource) Bytes() []byte {
	return m.data
}

// ReaderOnly hides every method of a source except ReadAt, Size and
// SourceID, forcing readers onto the copying path.
type ReaderOnly struct {
	src *MockByteSource
}

// NewReaderOnly wraps data in a source without a Bytes method.
func NewReaderOnly(data []byte) *ReaderOnly {
	return &ReaderOnly{src: NewMockByteSource(data)}
}

// ReadAt reads from the backing data.
func (r *ReaderOnly) ReadAt(p []byte, off int64) (int, error) {
	return r.src.ReadAt(p, off)
}

// Size returns the total size of the backing data.
func (r *ReaderOnly) Size() int64 {
	return r.src.Size()
}

// SourceID returns a fixed identifier.
func (r *ReaderOnly) SourceID() string {
	return "reader-only"
}

// LyingSource reports a size larger than its data, so reads near the end
// come back short.
type LyingSource struct {
	*ReaderOnly
	size int64
}

// NewLyingSource wraps data and claims size bytes.
func NewLyingSource(data []byte, size int64) *LyingSource {
	return &LyingSource{ReaderOnly: NewReaderOnly(data), size: size}
}

// Size returns the claimed size.
func (l *LyingSource) Size() int64 {
	return l.size
}
