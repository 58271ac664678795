// Package http provides a pod5.ByteSource backed by HTTP range requests,
// so containers can be inspected and decoded without downloading them.
//
// A POD5 reader touches the start of the file once and the end several
// times (trailer, footer length, footer). The Source fetches the tail of
// the file in one request at construction and serves those reads from
// memory; everything else becomes a single range request per ReadAt.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultTailSize is how many trailing bytes NewSource prefetches. It covers
// the trailer and a footer listing a few hundred tables.
const DefaultTailSize = 64 << 10

// ErrRangeUnsupported is returned when the server ignores range requests.
var ErrRangeUnsupported = errors.New("http: range requests not supported")

// Source implements random access reads via HTTP range requests.
// It satisfies pod5.ByteSource.
//
// A Source is safe for concurrent use.
type Source struct {
	ctx          context.Context
	url          string
	client       *nethttp.Client
	headers      nethttp.Header
	size         int64
	etag         string
	lastModified string
	tailSize     int64
	tail         []byte
	tailOff      int64
	logger       *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(s *Source) {
		if headers == nil {
			return
		}
		s.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// WithTailSize sets how many trailing bytes are prefetched.
// Zero disables prefetching.
func WithTailSize(n int64) Option {
	return func(s *Source) {
		s.tailSize = n
	}
}

// WithLogger sets the logger for request debugging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (s *Source) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// NewSource creates a Source backed by HTTP range requests.
//
// It probes the remote for its size and validators, then prefetches the
// tail. ctx bounds the probe and every later ReadAt; cancel it to abort
// outstanding reads.
func NewSource(ctx context.Context, url string, opts ...Option) (*Source, error) {
	s := &Source{
		ctx:      ctx,
		url:      url,
		client:   nethttp.DefaultClient,
		tailSize: DefaultTailSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = nethttp.DefaultClient
	}

	size, etag, lastModified, err := s.fetchMetadata()
	if err != nil {
		return nil, err
	}
	s.size = size
	s.etag = etag
	s.lastModified = lastModified

	if err := s.prefetchTail(); err != nil {
		return nil, err
	}
	s.log().Debug("opened http source", "url", url, "size", size, "etag", etag, "tail", len(s.tail))
	return s, nil
}

// Size returns the total size of the remote content.
func (s *Source) Size() int64 {
	return s.size
}

// SourceID identifies the remote content by URL and validator.
func (s *Source) SourceID() string {
	validator := s.etag
	if validator == "" {
		validator = s.lastModified
	}
	h := xxhash.New()
	_, _ = h.WriteString(s.url)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(validator)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.FormatInt(s.size, 10))
	return "http:" + strconv.FormatUint(h.Sum64(), 16)
}

// ReadAt reads data from the remote at the given offset using HTTP range
// requests. Reads that fall inside the prefetched tail are served from
// memory.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	expected := len(p)
	if int64(expected) > s.size-off {
		expected = int(s.size - off)
	}

	var (
		n   int
		err error
	)
	if s.tail != nil && off >= s.tailOff {
		n = copy(p[:expected], s.tail[off-s.tailOff:])
	} else {
		n, err = s.fetch(p[:expected], off)
		if err != nil {
			return n, err
		}
	}
	if expected < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// prefetchTail reads the last tailSize bytes.
func (s *Source) prefetchTail() error {
	if s.tailSize <= 0 || s.size == 0 {
		return nil
	}
	n := min(s.tailSize, s.size)
	buf := make([]byte, n)
	off := s.size - n
	if _, err := s.fetch(buf, off); err != nil {
		return fmt.Errorf("prefetch tail: %w", err)
	}
	s.tail = buf
	s.tailOff = off
	return nil
}

// fetch reads exactly len(p) bytes at off with one range request.
func (s *Source) fetch(p []byte, off int64) (int, error) {
	end := off + int64(len(p)) - 1
	req, err := s.newRequest(nethttp.MethodGet)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, end))

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		// ok
	case nethttp.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	case nethttp.StatusOK:
		return 0, ErrRangeUnsupported
	default:
		return 0, fmt.Errorf("range request failed: %s", resp.Status)
	}

	s.log().Debug("range request", "off", off, "length", len(p))
	return io.ReadFull(resp.Body, p)
}

func (s *Source) fetchMetadata() (int64, string, string, error) {
	size := int64(-1)
	etag := ""
	lastModified := ""

	if resp, err := s.doHead(); err == nil {
		size = resp.ContentLength
		etag = resp.Header.Get("ETag")
		lastModified = resp.Header.Get("Last-Modified")
		resp.Body.Close()
	}

	rangeSize, rangeETag, rangeLastModified, err := s.rangeProbe()
	if err != nil {
		return 0, "", "", err
	}
	if size > 0 && size != rangeSize {
		return 0, "", "", fmt.Errorf("content size mismatch: head=%d range=%d", size, rangeSize)
	}
	if etag == "" {
		etag = rangeETag
	}
	if lastModified == "" {
		lastModified = rangeLastModified
	}
	return rangeSize, etag, lastModified, nil
}

func (s *Source) rangeProbe() (int64, string, string, error) {
	req, err := s.newRequest(nethttp.MethodGet)
	if err != nil {
		return 0, "", "", err
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", "", err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		// ok
	case nethttp.StatusRequestedRangeNotSatisfiable:
		// An empty resource cannot satisfy any range.
		return 0, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
	case nethttp.StatusOK:
		return 0, "", "", ErrRangeUnsupported
	default:
		return 0, "", "", fmt.Errorf("range probe failed: %s", resp.Status)
	}

	crange := resp.Header.Get("Content-Range")
	if crange == "" {
		return 0, "", "", errors.New("range probe missing Content-Range")
	}
	size, err := parseContentRange(crange)
	if err != nil {
		return 0, "", "", err
	}

	return size, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
}

func (s *Source) doHead() (*nethttp.Response, error) {
	req, err := s.newRequest(nethttp.MethodHead)
	if err != nil {
		return nil, err
	}
	return s.client.Do(req)
}

func (s *Source) newRequest(method string) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(s.ctx, method, s.url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	if method == nethttp.MethodGet {
		if s.etag != "" && req.Header.Get("If-Match") == "" {
			req.Header.Set("If-Match", s.etag)
		}
		if s.lastModified != "" && req.Header.Get("If-Unmodified-Since") == "" {
			req.Header.Set("If-Unmodified-Since", s.lastModified)
		}
	}
	return req, nil
}

func parseContentRange(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "bytes ") {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	parts := strings.SplitN(strings.TrimPrefix(value, "bytes "), "/", 2)
	if len(parts) != 2 || parts[1] == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return size, nil
}
