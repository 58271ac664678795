package pod5type

import "errors"

// Sentinel errors for container operations.
var (
	// ErrTruncated is returned when the source is shorter than the envelope
	// requires or a read comes back short.
	ErrTruncated = errors.New("pod5: truncated container")

	// ErrBadSignature is returned when a signature, section marker, or the
	// footer magic does not match.
	ErrBadSignature = errors.New("pod5: bad signature")

	// ErrBadFooterLength is returned when the footer length field points
	// outside the file.
	ErrBadFooterLength = errors.New("pod5: bad footer length")

	// ErrMalformedFooter is returned when the footer is not a valid
	// table of contents.
	ErrMalformedFooter = errors.New("pod5: malformed footer")

	// ErrOffsetOutOfBounds is returned when a byte range does not fit in the
	// container.
	ErrOffsetOutOfBounds = errors.New("pod5: offset out of bounds")

	// ErrTableMissing is returned when the container has no table for a role.
	ErrTableMissing = errors.New("pod5: table missing")

	// ErrColumnMismatch is returned when cell and count columns differ in length.
	ErrColumnMismatch = errors.New("pod5: column length mismatch")
)
