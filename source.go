package pod5

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/meigma/pod5/internal/platform"
)

// memSource serves a container held in memory. Its SourceID is a hash of
// the content, so identical buffers share an ID.
type memSource struct {
	*bytes.Reader
	data []byte
	id   string
}

func newMemSource(data []byte) *memSource {
	return &memSource{
		Reader: bytes.NewReader(data),
		data:   data,
		id:     "mem:" + strconv.FormatUint(xxhash.Sum64(data), 16),
	}
}

// Bytes returns the backing slice; the window slices it without copying.
func (m *memSource) Bytes() []byte {
	return m.data
}

// SourceID returns a content hash.
func (m *memSource) SourceID() string {
	return m.id
}

// fileSource wraps *os.File to implement ByteSource.
// os.File has ReadAt but not Size, so we cache the size at construction.
type fileSource struct {
	file *os.File
	size int64
	id   string
}

// newFileSource creates a fileSource from an open file.
func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.Name(), err)
	}
	return &fileSource{
		file: f,
		size: info.Size(),
		id:   fmt.Sprintf("file:%s:%d:%d", f.Name(), info.Size(), info.ModTime().UnixNano()),
	}, nil
}

// ReadAt implements io.ReaderAt.
func (fs *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return fs.file.ReadAt(p, off)
}

// Size returns the total size of the file.
func (fs *fileSource) Size() int64 {
	return fs.size
}

// SourceID identifies the file by name, size and modification time.
func (fs *fileSource) SourceID() string {
	return fs.id
}

// mappedSource serves a memory-mapped file.
type mappedSource struct {
	*bytes.Reader
	mapping *platform.Mapping
	id      string
}

func newMappedSource(fs *fileSource) (*mappedSource, error) {
	m, err := platform.Map(fs.file, fs.size)
	if err != nil {
		return nil, err
	}
	return &mappedSource{
		Reader:  bytes.NewReader(m.Bytes()),
		mapping: m,
		id:      fs.id,
	}, nil
}

// Bytes returns the mapped file.
func (m *mappedSource) Bytes() []byte {
	return m.mapping.Bytes()
}

// SourceID returns the ID of the mapped file.
func (m *mappedSource) SourceID() string {
	return m.id
}

// Interface compliance.
var (
	_ ByteSource = (*memSource)(nil)
	_ ByteSource = (*fileSource)(nil)
	_ ByteSource = (*mappedSource)(nil)
)
