package cache

import (
	"errors"
	"io"
)

// ByteSource provides random access to data for block caching.
type ByteSource interface {
	io.ReaderAt
	Size() int64
	SourceID() string
}

// Errors returned by Wrap.
var (
	ErrNilSource     = errors.New("cache: source is nil")
	ErrEmptySourceID = errors.New("cache: source id is empty")
	ErrBlockSize     = errors.New("cache: block size must be > 0")
)

// DefaultBlockSize is the default block size.
const DefaultBlockSize int64 = 64 << 10

// DefaultMaxBlocksPerRead caps cached blocks per ReadAt. Larger reads go
// straight to the source.
const DefaultMaxBlocksPerRead = 16

// DefaultMaxBytes is the default cache capacity.
const DefaultMaxBytes int64 = 64 << 20

// WrapConfig controls how a source is wrapped.
type WrapConfig struct {
	BlockSize        int64
	MaxBlocksPerRead int
}

// DefaultWrapConfig returns the default wrap configuration.
func DefaultWrapConfig() WrapConfig {
	return WrapConfig{
		BlockSize:        DefaultBlockSize,
		MaxBlocksPerRead: DefaultMaxBlocksPerRead,
	}
}

// WrapOption configures Wrap.
type WrapOption func(*WrapConfig)

// WithBlockSize sets the block size used for caching.
func WithBlockSize(n int64) WrapOption {
	return func(cfg *WrapConfig) {
		cfg.BlockSize = n
	}
}

// WithMaxBlocksPerRead bypasses caching when a ReadAt spans more than n blocks.
// Values <= 0 disable the limit.
func WithMaxBlocksPerRead(n int) WrapOption {
	return func(cfg *WrapConfig) {
		cfg.MaxBlocksPerRead = n
	}
}
