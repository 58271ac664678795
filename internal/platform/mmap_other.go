//go:build !unix

package platform

import "os"

// Map always returns ErrUnsupported on non-Unix systems.
func Map(_ *os.File, _ int64) (*Mapping, error) {
	return nil, ErrUnsupported
}

// Close releases the mapping.
func (m *Mapping) Close() error {
	m.data = nil
	return nil
}
