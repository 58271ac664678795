//go:build unix

package platform

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// Map maps the first size bytes of f read-only. An empty file maps to an
// empty Mapping without a system call.
func Map(f *os.File, size int64) (*Mapping, error) {
	if size < 0 || size > math.MaxInt {
		return nil, fmt.Errorf("mmap %s: invalid size %d", f.Name(), size)
	}
	if size == 0 {
		return &Mapping{data: []byte{}}, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED) //nolint:gosec // fd fits in int
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", f.Name(), err)
	}
	return &Mapping{data: data}, nil
}

// Close unmaps the file. It is safe to call more than once.
func (m *Mapping) Close() error {
	if len(m.data) == 0 {
		m.data = nil
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}
