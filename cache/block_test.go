package cache

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	data     []byte
	sourceID string
	reads    atomic.Int64
	err      error
}

func (s *countingSource) ReadAt(p []byte, off int64) (int, error) {
	s.reads.Add(1)
	if s.err != nil {
		return 0, s.err
	}
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *countingSource) Size() int64 {
	return int64(len(s.data))
}

func (s *countingSource) SourceID() string {
	return s.sourceID
}

func newSource() *countingSource {
	return &countingSource{data: []byte("abcdefghijklmnopqrstuvwxyz"), sourceID: "source:test"}
}

func TestReadAtReusesBlocks(t *testing.T) {
	t.Parallel()

	src := newSource()
	c := NewBlockCache()
	cached, err := c.Wrap(src, WithBlockSize(8))
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := cached.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, "cdef", string(buf[:n]))
	assert.EqualValues(t, 1, src.reads.Load())

	buf = make([]byte, 3)
	n, err = cached.ReadAt(buf, 5)
	require.NoError(t, err)
	assert.Equal(t, "fgh", string(buf[:n]))
	assert.EqualValues(t, 1, src.reads.Load(), "same block should be a hit")

	buf = make([]byte, 2)
	n, err = cached.ReadAt(buf, 9)
	require.NoError(t, err)
	assert.Equal(t, "jk", string(buf[:n]))
	assert.EqualValues(t, 2, src.reads.Load())

	assert.Equal(t, 2, c.Len())
	assert.EqualValues(t, 16, c.SizeBytes())
	assert.Equal(t, "source:test", cached.SourceID())
	assert.EqualValues(t, 26, cached.Size())
}

func TestReadAtSpansBlocks(t *testing.T) {
	t.Parallel()

	src := newSource()
	cached, err := NewBlockCache().Wrap(src, WithBlockSize(5))
	require.NoError(t, err)

	buf := make([]byte, 12)
	n, err := cached.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, "defghijklmno", string(buf[:n]))
	assert.EqualValues(t, 3, src.reads.Load())
}

func TestReadAtEOF(t *testing.T) {
	t.Parallel()

	cached, err := NewBlockCache().Wrap(newSource(), WithBlockSize(8))
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := cached.ReadAt(buf, 20)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "uvwxyz", string(buf[:n]))

	n, err = cached.ReadAt(buf, 26)
	require.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	_, err = cached.ReadAt(buf, -1)
	require.Error(t, err)

	n, err = cached.ReadAt(nil, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReadAtBypassesLargeReads(t *testing.T) {
	t.Parallel()

	src := newSource()
	c := NewBlockCache()
	cached, err := c.Wrap(src, WithBlockSize(4), WithMaxBlocksPerRead(2))
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := cached.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijklmnop", string(buf[:n]))
	assert.Zero(t, c.Len())
}

func TestEviction(t *testing.T) {
	t.Parallel()

	src := newSource()
	c := NewBlockCache(WithMaxBytes(8))
	cached, err := c.Wrap(src, WithBlockSize(4))
	require.NoError(t, err)

	buf := make([]byte, 1)
	for _, off := range []int64{0, 4, 8} {
		_, err := cached.ReadAt(buf, off)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
	assert.EqualValues(t, 8, c.SizeBytes())

	// Block 0 was evicted first.
	before := src.reads.Load()
	_, err = cached.ReadAt(buf, 8)
	require.NoError(t, err)
	assert.Equal(t, before, src.reads.Load())
	_, err = cached.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, before+1, src.reads.Load())

	assert.EqualValues(t, 8, c.Prune(0))
	assert.Zero(t, c.Len())
	assert.EqualValues(t, 8, c.MaxBytes())
}

func TestOversizedBlockNotCached(t *testing.T) {
	t.Parallel()

	c := NewBlockCache(WithMaxBytes(4))
	cached, err := c.Wrap(newSource(), WithBlockSize(8))
	require.NoError(t, err)

	buf := make([]byte, 2)
	_, err = cached.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestSharedAcrossSources(t *testing.T) {
	t.Parallel()

	c := NewBlockCache()
	a := newSource()
	b := &countingSource{data: []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ"), sourceID: "source:other"}
	ca, err := c.Wrap(a, WithBlockSize(8))
	require.NoError(t, err)
	cb, err := c.Wrap(b, WithBlockSize(8))
	require.NoError(t, err)

	buf := make([]byte, 3)
	_, err = ca.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf))
	_, err = cb.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(buf))

	// A second wrapper over the same source shares its blocks.
	again, err := c.Wrap(a, WithBlockSize(8))
	require.NoError(t, err)
	_, err = again.ReadAt(buf, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 1, a.reads.Load())
}

func TestSourceErrorNotCached(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := newSource()
	src.err = boom
	c := NewBlockCache()
	cached, err := c.Wrap(src, WithBlockSize(8))
	require.NoError(t, err)

	_, err = cached.ReadAt(make([]byte, 2), 0)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())
}

func TestWrapErrors(t *testing.T) {
	t.Parallel()

	c := NewBlockCache()
	_, err := c.Wrap(nil)
	require.ErrorIs(t, err, ErrNilSource)

	_, err = c.Wrap(&countingSource{data: []byte("x")})
	require.ErrorIs(t, err, ErrEmptySourceID)

	_, err = c.Wrap(newSource(), WithBlockSize(0))
	require.ErrorIs(t, err, ErrBlockSize)
}

func TestConcurrentReads(t *testing.T) {
	t.Parallel()

	src := newSource()
	c := NewBlockCache()
	cached, err := c.Wrap(src, WithBlockSize(8))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			off := int64(i % 20)
			buf := make([]byte, 6)
			n, err := cached.ReadAt(buf, off)
			assert.NoError(t, err)
			assert.Equal(t, string(src.data[off:off+6]), string(buf[:n]))
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, src.reads.Load(), int64(32))
	assert.LessOrEqual(t, c.Len(), 4)
}
