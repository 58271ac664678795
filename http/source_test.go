package http_test

import (
	"bytes"
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pod5"
	pod5http "github.com/meigma/pod5/http"
	"github.com/meigma/pod5/svb16"
)

// countingServer serves data with range support and counts GET requests.
func countingServer(t *testing.T, data []byte, etag string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var gets atomic.Int64
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method == nethttp.MethodGet {
			gets.Add(1)
		}
		if etag != "" {
			w.Header().Set("ETag", etag)
		}
		nethttp.ServeContent(w, r, "data", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)
	return server, &gets
}

func TestSourceReadAt(t *testing.T) {
	t.Parallel()

	data := []byte("hello world")
	server, _ := countingServer(t, data, "")

	for _, tail := range []int64{0, 4, pod5http.DefaultTailSize} {
		src, err := pod5http.NewSource(context.Background(), server.URL, pod5http.WithTailSize(tail))
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), src.Size())

		buf := make([]byte, 5)
		n, err := src.ReadAt(buf, 6)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, "world", string(buf))

		edge := make([]byte, 10)
		n, err = src.ReadAt(edge, int64(len(data)-3))
		assert.Equal(t, io.EOF, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, "rld", string(edge[:n]))

		_, err = src.ReadAt(buf, int64(len(data)))
		assert.Equal(t, io.EOF, err)
		_, err = src.ReadAt(buf, -1)
		require.Error(t, err)
	}
}

func TestSourceRangeUnsupported(t *testing.T) {
	t.Parallel()

	data := []byte("range unsupported")
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method == nethttp.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)

	_, err := pod5http.NewSource(context.Background(), server.URL)
	require.ErrorIs(t, err, pod5http.ErrRangeUnsupported)
}

func TestSourceServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	_, err := pod5http.NewSource(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSourceHeaders(t *testing.T) {
	t.Parallel()

	data := []byte("authorized bytes")
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Header.Get("Authorization") != "Bearer token" || r.Header.Get("X-Trace") != "1" {
			w.WriteHeader(nethttp.StatusUnauthorized)
			return
		}
		nethttp.ServeContent(w, r, "data", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)

	src, err := pod5http.NewSource(context.Background(), server.URL,
		pod5http.WithClient(server.Client()),
		pod5http.WithHeaders(nethttp.Header{"Authorization": {"Bearer token"}}),
		pod5http.WithHeader("X-Trace", "1"),
		pod5http.WithTailSize(0),
	)
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, err = src.ReadAt(buf, 11)
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(buf))
}

func TestSourceID(t *testing.T) {
	t.Parallel()

	data := []byte("identified content")
	a, _ := countingServer(t, data, `"v1"`)
	b, _ := countingServer(t, data, `"v2"`)

	srcA1, err := pod5http.NewSource(context.Background(), a.URL)
	require.NoError(t, err)
	srcA2, err := pod5http.NewSource(context.Background(), a.URL)
	require.NoError(t, err)
	srcB, err := pod5http.NewSource(context.Background(), b.URL)
	require.NoError(t, err)

	assert.Equal(t, srcA1.SourceID(), srcA2.SourceID())
	assert.NotEqual(t, srcA1.SourceID(), srcB.SourceID())
}

func TestSourceContainer(t *testing.T) {
	t.Parallel()

	rows := [][]int16{{100, 101, 99, 98}, {7, 7, 7}}
	vbz := svb16.NewVBZ()
	var (
		body   []byte
		cells  []pod5.Span
		counts []int
	)
	body = append(body, bytes.Repeat([]byte{0xaa}, 200<<10)...)
	for _, row := range rows {
		enc, err := vbz.Encode(row)
		require.NoError(t, err)
		cells = append(cells, pod5.Span{Offset: int64(len(body)), Length: int64(len(enc))})
		counts = append(counts, len(row))
		body = append(body, enc...)
	}

	var buf bytes.Buffer
	w, err := pod5.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.WriteTable(pod5.ContentSignalTable, body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	server, gets := countingServer(t, buf.Bytes(), `"pod5"`)
	src, err := pod5http.NewSource(context.Background(), server.URL)
	require.NoError(t, err)

	before := gets.Load()
	c, err := pod5.New(src)
	require.NoError(t, err)
	// Only the lead is outside the prefetched tail.
	assert.Equal(t, int64(1), gets.Load()-before)
	assert.Equal(t, src.SourceID(), c.SourceID())

	e, err := c.Table(pod5.RoleSignal)
	require.NoError(t, err)
	got, err := c.DecodeSignalColumn(e, cells, counts)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestSourceContextCanceled(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("z"), 1024)
	server, _ := countingServer(t, data, "")

	ctx, cancel := context.WithCancel(context.Background())
	src, err := pod5http.NewSource(ctx, server.URL, pod5http.WithTailSize(16))
	require.NoError(t, err)
	cancel()

	buf := make([]byte, 8)
	_, err = src.ReadAt(buf, 0)
	require.ErrorIs(t, err, context.Canceled)

	// The tail is still served from memory.
	n, err := src.ReadAt(buf, 1024-8)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}
