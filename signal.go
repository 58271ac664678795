package pod5

import (
	"context"
	"fmt"
	"iter"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/pod5/internal/pod5type"
	"github.com/meigma/pod5/svb16"
)

// SignalCompression identifies how signal cells are compressed.
type SignalCompression uint8

const (
	// SignalVBZ is svb16 inside zstd, the encoding POD5 files use.
	SignalVBZ SignalCompression = iota

	// SignalSvb16 is a bare svb16 stream.
	SignalSvb16
)

func (s SignalCompression) String() string {
	switch s {
	case SignalVBZ:
		return "vbz"
	case SignalSvb16:
		return "svb16"
	default:
		return "SignalCompression(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseSignalCompression parses a name returned by SignalCompression.String.
func ParseSignalCompression(s string) (SignalCompression, error) {
	switch s {
	case "vbz":
		return SignalVBZ, nil
	case "svb16":
		return SignalSvb16, nil
	default:
		return 0, fmt.Errorf("pod5: unknown signal compression %q", s)
	}
}

// signalDecoder is implemented by svb16.Codec and *svb16.VBZ.
type signalDecoder interface {
	Decode(src []byte, n int) ([]int16, error)
	Chunks(src []byte, n, size int) iter.Seq2[[]int16, error]
}

func newSignalDecoder(sc SignalCompression, layout svb16.Layout, maxMemory uint64) (signalDecoder, error) {
	switch sc {
	case SignalVBZ:
		return svb16.NewVBZ(svb16.WithLayout(layout), svb16.WithDecoderMaxMemory(maxMemory)), nil
	case SignalSvb16:
		return svb16.Codec{Layout: layout}, nil
	default:
		return nil, fmt.Errorf("pod5: unknown signal compression %d", sc)
	}
}

// cellBytes returns the bytes of cell within table e.
func (c *Container) cellBytes(e Entry, cell Span) ([]byte, error) {
	off, length, err := c.win.CheckUint64(e.Offset, e.Length)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	if cell.Offset < 0 || cell.Length < 0 || cell.Offset > length || cell.Length > length-cell.Offset {
		return nil, fmt.Errorf("%w: cell [%d, +%d) in %d-byte %s",
			pod5type.ErrOffsetOutOfBounds, cell.Offset, cell.Length, length, e.Name)
	}
	return c.win.Slice(off+cell.Offset, cell.Length)
}

// DecodeSignal decodes one signal cell holding count samples. cell is
// relative to the start of table e.
func (c *Container) DecodeSignal(e Entry, cell Span, count int) ([]int16, error) {
	src, err := c.cellBytes(e, cell)
	if err != nil {
		return nil, err
	}
	return c.signal.Decode(src, count)
}

// SignalChunks decodes one signal cell lazily in batches of at most size
// samples. The yielded slice is reused between batches.
func (c *Container) SignalChunks(e Entry, cell Span, count, size int) iter.Seq2[[]int16, error] {
	src, err := c.cellBytes(e, cell)
	if err != nil {
		return func(yield func([]int16, error) bool) {
			yield(nil, err)
		}
	}
	return c.signal.Chunks(src, count, size)
}

// DecodeSignalColumn decodes a whole signal column. cells and counts are
// the cell locations and sample counts of each row, as read from the signal
// table by a columnar reader, and must have the same length.
//
// Rows are decoded concurrently, at most WithWorkers at a time. The first
// failure is returned wrapped with its row index; remaining rows are
// skipped.
func (c *Container) DecodeSignalColumn(e Entry, cells []Span, counts []int) ([][]int16, error) {
	if len(cells) != len(counts) {
		return nil, fmt.Errorf("%w: %d cells, %d counts", pod5type.ErrColumnMismatch, len(cells), len(counts))
	}
	if _, _, err := c.win.CheckUint64(e.Offset, e.Length); err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}

	rows := make([][]int16, len(cells))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(c.workers)
	for i := range cells {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			samples, err := c.DecodeSignal(e, cells[i], counts[i])
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			rows[i] = samples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.log().Debug("decoded signal column",
		"table", e.Name,
		"rows", len(rows),
		"compression", c.compression,
		"workers", c.workers)
	return rows, nil
}
