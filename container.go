package pod5

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/google/uuid"

	"github.com/meigma/pod5/internal/envelope"
	"github.com/meigma/pod5/internal/pod5type"
	"github.com/meigma/pod5/internal/toc"
	"github.com/meigma/pod5/internal/window"
	"github.com/meigma/pod5/svb16"
)

// Container provides random access to the tables of a POD5 file.
//
// A Container is immutable after New returns and is safe for concurrent use
// when its ByteSource is.
type Container struct {
	src    ByteSource
	win    *window.Window
	env    *envelope.Envelope
	toc    *toc.TOC
	signal signalDecoder

	workers          int
	compression      SignalCompression
	layout           svb16.Layout
	maxDecoderMemory uint64
	mmap             bool
	logger           *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Container) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// New opens the container held by src.
//
// New validates the leading and trailing signatures, locates and parses the
// footer, and checks every table range against the source size. It stops
// at the first failure.
func New(src ByteSource, opts ...Option) (*Container, error) {
	c := &Container{
		src:              src,
		workers:          runtime.GOMAXPROCS(0),
		compression:      SignalVBZ,
		layout:           svb16.LayoutBit,
		maxDecoderMemory: DefaultMaxDecoderMemory,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = 1
	}

	win, err := window.New(src)
	if err != nil {
		return nil, err
	}
	env, err := envelope.Parse(win)
	if err != nil {
		return nil, err
	}
	t, err := toc.Load(env.Data, uint64(win.Size())) //nolint:gosec // window sizes are non-negative
	if err != nil {
		return nil, err
	}

	signal, err := newSignalDecoder(c.compression, c.layout, c.maxDecoderMemory)
	if err != nil {
		return nil, err
	}

	c.win = win
	c.env = env
	c.toc = t
	c.signal = signal

	c.log().Debug("opened container",
		"source", src.SourceID(),
		"size", win.Size(),
		"footer_offset", env.Footer.Offset,
		"footer_length", env.Footer.Length,
		"entries", t.Len(),
		"in_memory", win.InMemory())
	for _, e := range t.Entries() {
		if e.Role == RoleUnknown {
			c.log().Debug("entry without a known role", "name", e.Name, "offset", e.Offset, "length", e.Length)
		}
	}
	return c, nil
}

// NewFromBytes opens a container held in memory. Tables are returned
// without copying, so data must not be modified while the Container is in
// use.
func NewFromBytes(data []byte, opts ...Option) (*Container, error) {
	return New(newMemSource(data), opts...)
}

// Size returns the size of the container in bytes.
func (c *Container) Size() int64 {
	return c.win.Size()
}

// SourceID returns the identifier of the underlying source.
func (c *Container) SourceID() string {
	return c.src.SourceID()
}

// SectionMarker returns the per-file marker that separates tables.
func (c *Container) SectionMarker() uuid.UUID {
	return uuid.UUID(c.env.Marker)
}

// Footer returns the absolute byte range of the footer.
func (c *Container) Footer() Span {
	return Span{Offset: c.env.Footer.Offset, Length: c.env.Footer.Length}
}

// FooterBytes returns the raw FlatBuffers footer.
func (c *Container) FooterBytes() []byte {
	return c.toc.Data()
}

// FileIdentifier returns the file identifier recorded by the writer.
func (c *Container) FileIdentifier() string {
	return c.toc.FileIdentifier()
}

// Software returns the name of the software that wrote the file.
func (c *Container) Software() string {
	return c.toc.Software()
}

// Pod5Version returns the format version recorded by the writer.
func (c *Container) Pod5Version() string {
	return c.toc.Pod5Version()
}

// Entries returns every table of contents entry in footer order, including
// duplicates and entries with unknown content types.
func (c *Container) Entries() []Entry {
	return c.toc.Entries()
}

// EntriesByRole returns the entries with the given role in footer order.
func (c *Container) EntriesByRole(role Role) []Entry {
	return c.toc.ByRole(role)
}

// Table returns the first entry with the given role.
// It returns ErrTableMissing if there is none.
func (c *Container) Table(role Role) (Entry, error) {
	e, ok := c.toc.First(role)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", pod5type.ErrTableMissing, role)
	}
	return e, nil
}

// TableSection returns a reader over the bytes of e.
func (c *Container) TableSection(e Entry) (*io.SectionReader, error) {
	off, length, err := c.win.CheckUint64(e.Offset, e.Length)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	return c.win.Section(off, length)
}

// TableBytes returns the bytes of e. For in-memory and memory-mapped
// sources the result aliases the source and must not be modified.
func (c *Container) TableBytes(e Entry) ([]byte, error) {
	off, length, err := c.win.CheckUint64(e.Offset, e.Length)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	b, err := c.win.Slice(off, length)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	return b, nil
}
