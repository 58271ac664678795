package cache

import (
	"container/list"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// BlockCache holds fixed-size blocks of wrapped sources in memory and evicts
// the least recently used block when full. It is safe for concurrent use
// and may be shared by any number of wrapped sources.
type BlockCache struct {
	maxBytes int64
	logger   *slog.Logger

	mu     sync.Mutex
	size   int64
	lru    *list.List
	blocks map[blockKey]*list.Element

	fetchGroup singleflight.Group
}

type blockKey struct {
	source uint64
	size   int64
	index  int64
}

type block struct {
	key  blockKey
	data []byte
}

// Option configures a BlockCache.
type Option func(*BlockCache)

// WithMaxBytes sets the cache capacity. Values <= 0 disable the limit.
func WithMaxBytes(n int64) Option {
	return func(c *BlockCache) {
		c.maxBytes = n
	}
}

// WithLogger sets the logger for eviction debugging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *BlockCache) {
		c.logger = logger
	}
}

// NewBlockCache creates an empty block cache.
func NewBlockCache(opts ...Option) *BlockCache {
	c := &BlockCache{
		maxBytes: DefaultMaxBytes,
		lru:      list.New(),
		blocks:   make(map[blockKey]*list.Element),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *BlockCache) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// Wrap returns a ByteSource that serves reads from cached blocks.
func (c *BlockCache) Wrap(src ByteSource, opts ...WrapOption) (ByteSource, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	cfg := DefaultWrapConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BlockSize <= 0 || cfg.BlockSize > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d", ErrBlockSize, cfg.BlockSize)
	}
	id := src.SourceID()
	if id == "" {
		return nil, ErrEmptySourceID
	}
	return &cachedSource{
		src:              src,
		cache:            c,
		sourceID:         id,
		sourceKey:        xxhash.Sum64String(id),
		blockSize:        cfg.BlockSize,
		maxBlocksPerRead: cfg.MaxBlocksPerRead,
	}, nil
}

// MaxBytes returns the configured capacity (0 = unlimited).
func (c *BlockCache) MaxBytes() int64 {
	if c.maxBytes < 0 {
		return 0
	}
	return c.maxBytes
}

// SizeBytes returns the number of cached bytes.
func (c *BlockCache) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached blocks.
func (c *BlockCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Prune evicts blocks until the cache holds at most targetBytes and returns
// the number of bytes freed.
func (c *BlockCache) Prune(targetBytes int64) int64 {
	targetBytes = max(targetBytes, 0)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictLocked(targetBytes)
}

func (c *BlockCache) evictLocked(targetBytes int64) int64 {
	var freed int64
	for c.size > targetBytes {
		el := c.lru.Back()
		if el == nil {
			break
		}
		b := c.lru.Remove(el).(*block) //nolint:errcheck // list only holds *block
		delete(c.blocks, b.key)
		c.size -= int64(len(b.data))
		freed += int64(len(b.data))
	}
	return freed
}

func (c *BlockCache) lookup(key blockKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.blocks[key]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(el)
	return el.Value.(*block).data, true //nolint:errcheck // list only holds *block
}

func (c *BlockCache) store(key blockKey, data []byte) {
	n := int64(len(data))
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.blocks[key]; ok {
		return
	}
	if c.maxBytes > 0 {
		if n > c.maxBytes {
			return
		}
		if freed := c.evictLocked(c.maxBytes - n); freed > 0 {
			c.log().Debug("evicted blocks", "freed", freed, "size", c.size)
		}
	}
	c.blocks[key] = c.lru.PushFront(&block{key: key, data: data})
	c.size += n
}

// getBlock returns the cached block or fetches it once for all concurrent
// callers.
func (c *BlockCache) getBlock(key blockKey, blockLen int64, fetch func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.lookup(key); ok {
		return data, nil
	}
	var kb [24]byte
	binary.LittleEndian.PutUint64(kb[0:], key.source)
	binary.LittleEndian.PutUint64(kb[8:], uint64(key.size))   //nolint:gosec // block size validated > 0
	binary.LittleEndian.PutUint64(kb[16:], uint64(key.index)) //nolint:gosec // block index is never negative
	result, err, _ := c.fetchGroup.Do(string(kb[:]), func() (any, error) {
		if data, ok := c.lookup(key); ok {
			return data, nil
		}
		data, err := fetch()
		if err != nil {
			return nil, err
		}
		if int64(len(data)) != blockLen {
			return nil, io.ErrUnexpectedEOF
		}
		c.store(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

// cachedSource wraps a ByteSource with block-level caching.
type cachedSource struct {
	src              ByteSource
	cache            *BlockCache
	sourceID         string
	sourceKey        uint64
	blockSize        int64
	maxBlocksPerRead int
}

func (s *cachedSource) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	size := s.src.Size()
	if off >= size {
		return 0, io.EOF
	}

	expected := min(int64(len(p)), size-off)
	startBlock := off / s.blockSize
	endBlock := (off + expected - 1) / s.blockSize

	if s.maxBlocksPerRead > 0 && endBlock-startBlock+1 > int64(s.maxBlocksPerRead) {
		return s.src.ReadAt(p, off)
	}

	var n int64
	for index := startBlock; index <= endBlock; index++ {
		blockStart := index * s.blockSize
		blockEnd := min(blockStart+s.blockSize, size)
		blockLen := blockEnd - blockStart

		key := blockKey{source: s.sourceKey, size: s.blockSize, index: index}
		data, err := s.cache.getBlock(key, blockLen, func() ([]byte, error) {
			return s.readBlock(blockStart, blockLen)
		})
		if err != nil {
			return int(n), err
		}

		copyStart := max(off, blockStart)
		copyEnd := min(off+expected, blockEnd)
		n += int64(copy(p[copyStart-off:copyEnd-off], data[copyStart-blockStart:copyEnd-blockStart]))
	}

	if expected < int64(len(p)) {
		return int(n), io.EOF
	}
	return int(n), nil
}

func (s *cachedSource) Size() int64 {
	return s.src.Size()
}

func (s *cachedSource) SourceID() string {
	return s.sourceID
}

func (s *cachedSource) readBlock(off, length int64) ([]byte, error) {
	buf := make([]byte, length)
	n, err := s.src.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if int64(n) != length {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}
