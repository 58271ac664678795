package pod5

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/meigma/pod5/internal/envelope"
	"github.com/meigma/pod5/internal/pod5type"
	"github.com/meigma/pod5/internal/toc"
)

// Defaults written to the footer.
const (
	DefaultSoftware    = "pod5-go"
	DefaultPod5Version = "0.3.10"
)

// Writer writes a POD5 container to an io.Writer.
//
// Tables are written in the order they are added; the footer is written by
// Close and is always the last thing in the file. A Writer is not safe for
// concurrent use.
type Writer struct {
	dst     io.Writer
	pos     int64
	marker  uuid.UUID
	meta    toc.Metadata
	records []toc.Record
	entries []Entry
	seen    map[ContentType]bool
	open    *TableWriter
	closed  bool
	err     error // sticky write error
	logger  *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// NewWriter writes the file signature and section marker to dst and
// returns a Writer for the tables that follow.
func NewWriter(dst io.Writer, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		dst:    dst,
		marker: uuid.New(),
		meta: toc.Metadata{
			FileIdentifier: uuid.NewString(),
			Software:       DefaultSoftware,
			Pod5Version:    DefaultPod5Version,
		},
		seen: make(map[ContentType]bool),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.write(envelope.Signature[:]); err != nil {
		return nil, fmt.Errorf("write signature: %w", err)
	}
	if err := w.write(w.marker[:]); err != nil {
		return nil, fmt.Errorf("write section marker: %w", err)
	}
	return w, nil
}

// write writes p to dst, tracking the position and keeping the first error.
func (w *Writer) write(p []byte) error {
	if w.err != nil {
		return w.err
	}
	n, err := w.dst.Write(p)
	w.pos += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	w.err = err
	return err
}

func (w *Writer) check() error {
	switch {
	case w.closed:
		return ErrWriterClosed
	case w.err != nil:
		return w.err
	case w.open != nil:
		return fmt.Errorf("%w: %s", ErrTableOpen, w.open.ct)
	}
	return nil
}

// SectionMarker returns the marker written between tables.
func (w *Writer) SectionMarker() uuid.UUID {
	return w.marker
}

// Entries returns the tables written so far.
func (w *Writer) Entries() []Entry {
	return slices.Clone(w.entries)
}

// WriteTable writes one complete table and returns its entry.
func (w *Writer) WriteTable(ct ContentType, data []byte) (Entry, error) {
	tw, err := w.BeginTable(ct)
	if err != nil {
		return Entry{}, err
	}
	if _, err := tw.Write(data); err != nil {
		return Entry{}, err
	}
	if err := tw.Close(); err != nil {
		return Entry{}, err
	}
	return tw.Entry(), nil
}

// BeginTable starts a table whose bytes are streamed through the returned
// TableWriter. No other table may be written until it is closed.
//
// Signal, reads and run info tables may each be written once; a second
// one returns ErrDuplicateTable. Index tables and unknown content types may
// repeat.
func (w *Writer) BeginTable(ct ContentType) (*TableWriter, error) {
	if err := w.check(); err != nil {
		return nil, err
	}
	if ct.Unique() && w.seen[ct] {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, ct)
	}
	w.seen[ct] = true
	w.open = &TableWriter{w: w, ct: ct, start: w.pos}
	return w.open, nil
}

// endTable pads to an 8-byte boundary, writes the section marker and
// records the table.
func (w *Writer) endTable(t *TableWriter) error {
	length := w.pos - t.start
	if pad := (8 - w.pos%8) % 8; pad > 0 {
		if err := w.write(make([]byte, pad)); err != nil {
			return fmt.Errorf("pad %s: %w", t.ct, err)
		}
	}
	if err := w.write(w.marker[:]); err != nil {
		return fmt.Errorf("write section marker: %w", err)
	}

	t.entry = Entry{
		Name:        t.ct.String(),
		ContentType: t.ct,
		Role:        t.ct.Role(),
		Format:      pod5type.FormatFeatherV2,
		Offset:      uint64(t.start), //nolint:gosec // positions are non-negative
		Length:      uint64(length),  //nolint:gosec // positions are non-negative
	}
	w.records = append(w.records, toc.RecordFromEntry(t.entry))
	w.entries = append(w.entries, t.entry)
	w.open = nil
	w.log().Debug("wrote table", "name", t.entry.Name, "offset", t.entry.Offset, "length", t.entry.Length)
	return nil
}

// Close writes the footer magic, the footer, its length, the section marker
// and the closing signature. It does not close the underlying writer.
//
// Close fails with ErrTableOpen while a streamed table is open. Any further
// call returns ErrWriterClosed.
func (w *Writer) Close() error {
	if err := w.check(); err != nil {
		return err
	}
	w.closed = true

	footer := toc.Build(w.meta, w.records)
	trailer := make([]byte, 0, envelope.FooterMagicSize+len(footer)+envelope.LengthSize+envelope.TrailSize)
	trailer = append(trailer, envelope.FooterMagic[:]...)
	trailer = append(trailer, footer...)
	trailer = binary.LittleEndian.AppendUint64(trailer, uint64(len(footer)))
	trailer = append(trailer, w.marker[:]...)
	trailer = append(trailer, envelope.Signature[:]...)
	if err := w.write(trailer); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	w.log().Debug("wrote footer", "tables", len(w.records), "footer_length", len(footer), "size", w.pos)
	return nil
}

// TableWriter streams the bytes of one table.
type TableWriter struct {
	w     *Writer
	ct    ContentType
	start int64
	entry Entry
	done  bool
}

// Write appends p to the table.
func (t *TableWriter) Write(p []byte) (int, error) {
	if t.done {
		return 0, fmt.Errorf("%w: %s table", ErrWriterClosed, t.ct)
	}
	before := t.w.pos
	err := t.w.write(p)
	return int(t.w.pos - before), err
}

// Close finishes the table. It does not close the Writer.
func (t *TableWriter) Close() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.w.endTable(t)
}

// Entry returns the table's entry. It is valid after Close.
func (t *TableWriter) Entry() Entry {
	return t.entry
}
