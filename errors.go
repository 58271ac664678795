package pod5

import (
	"errors"

	"github.com/meigma/pod5/internal/pod5type"
	"github.com/meigma/pod5/svb16"
)

// Sentinel errors re-exported from internal/pod5type.
var (
	// ErrTruncated is returned when the source is shorter than the envelope
	// requires or a read comes back short.
	ErrTruncated = pod5type.ErrTruncated

	// ErrBadSignature is returned when a signature, section marker, or the
	// footer magic does not match.
	ErrBadSignature = pod5type.ErrBadSignature

	// ErrBadFooterLength is returned when the footer length field points
	// outside the file.
	ErrBadFooterLength = pod5type.ErrBadFooterLength

	// ErrMalformedFooter is returned when the footer is not a valid table of
	// contents.
	ErrMalformedFooter = pod5type.ErrMalformedFooter

	// ErrOffsetOutOfBounds is returned when a byte range does not fit in the
	// container or its table.
	ErrOffsetOutOfBounds = pod5type.ErrOffsetOutOfBounds

	// ErrTableMissing is returned when the container has no table for a role.
	ErrTableMissing = pod5type.ErrTableMissing

	// ErrColumnMismatch is returned when cell and count columns differ in length.
	ErrColumnMismatch = pod5type.ErrColumnMismatch
)

// Codec errors re-exported from svb16.
var (
	// ErrUnderflow is returned when a signal cell ends before all samples
	// are decoded.
	ErrUnderflow = svb16.ErrUnderflow

	// ErrOverflow is returned when a sample count is negative or too large.
	ErrOverflow = svb16.ErrOverflow

	// ErrDecompression is returned when the zstd stage of a cell fails.
	ErrDecompression = svb16.ErrDecompression
)

// Sentinel errors specific to writing.
var (
	// ErrDuplicateTable is returned when a second signal, reads or run info
	// table is written.
	ErrDuplicateTable = errors.New("pod5: duplicate table")

	// ErrWriterClosed is returned by writes after Close.
	ErrWriterClosed = errors.New("pod5: writer closed")

	// ErrTableOpen is returned when a table is written or the writer closed
	// while a streamed table is still open.
	ErrTableOpen = errors.New("pod5: table still open")
)
