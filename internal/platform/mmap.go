// Package platform wraps operating-system specific file access.
package platform

import "errors"

// ErrUnsupported is returned by Map on platforms without memory mapping.
var ErrUnsupported = errors.New("platform: memory mapping not supported")

// Mapping is a read-only memory mapping of a whole file.
type Mapping struct {
	data []byte
}

// Bytes returns the mapped bytes. They must not be modified, and must not be
// used after Close.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Len returns the mapped length.
func (m *Mapping) Len() int {
	return len(m.data)
}
