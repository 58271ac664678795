package pod5

import (
	"io"

	"github.com/meigma/pod5/internal/pod5type"
)

// Re-export types from internal/pod5type for public API.
type (
	// Entry describes one embedded table in the container.
	Entry = pod5type.Entry

	// Span locates a byte range relative to the start of a table.
	Span = pod5type.Span

	// ContentType identifies what an embedded table holds.
	ContentType = pod5type.ContentType

	// Role classifies a table by how a reader uses it.
	Role = pod5type.Role

	// Format identifies the encoding of an embedded table.
	Format = pod5type.Format
)

// Re-export content type constants.
const (
	ContentReadsTable   = pod5type.ContentReadsTable
	ContentSignalTable  = pod5type.ContentSignalTable
	ContentReadIDIndex  = pod5type.ContentReadIDIndex
	ContentOtherIndex   = pod5type.ContentOtherIndex
	ContentRunInfoTable = pod5type.ContentRunInfoTable
)

// Re-export role constants.
const (
	RoleUnknown = pod5type.RoleUnknown
	RoleSignal  = pod5type.RoleSignal
	RoleReads   = pod5type.RoleReads
	RoleRunInfo = pod5type.RoleRunInfo
)

// FormatFeatherV2 is the Arrow IPC file format.
const FormatFeatherV2 = pod5type.FormatFeatherV2

// ByteSource provides random access to container bytes.
//
// Implementations exist for local files, memory-mapped files, byte slices
// and HTTP range requests. SourceID must return a stable identifier for the
// underlying content.
type ByteSource interface {
	io.ReaderAt
	Size() int64
	SourceID() string
}
