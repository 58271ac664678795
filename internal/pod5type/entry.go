// Package pod5type holds the types and errors shared by the container
// packages.
package pod5type

import "strconv"

// ContentType identifies what an embedded table holds.
// Values match the footer schema's ContentType enum.
type ContentType int16

const (
	ContentReadsTable ContentType = iota
	ContentSignalTable
	ContentReadIDIndex
	ContentOtherIndex
	ContentRunInfoTable
)

// String returns the schema name of the content type.
func (c ContentType) String() string {
	switch c {
	case ContentReadsTable:
		return "ReadsTable"
	case ContentSignalTable:
		return "SignalTable"
	case ContentReadIDIndex:
		return "ReadIdIndex"
	case ContentOtherIndex:
		return "OtherIndex"
	case ContentRunInfoTable:
		return "RunInfoTable"
	default:
		return "ContentType(" + strconv.Itoa(int(c)) + ")"
	}
}

// Role maps the content type onto the closed set of roles a reader acts on.
func (c ContentType) Role() Role {
	switch c {
	case ContentSignalTable:
		return RoleSignal
	case ContentReadsTable:
		return RoleReads
	case ContentRunInfoTable:
		return RoleRunInfo
	default:
		return RoleUnknown
	}
}

// Unique reports whether a container may hold at most one table of this type.
func (c ContentType) Unique() bool {
	return c.Role() != RoleUnknown
}

// Role classifies a table by how a reader uses it.
//
// RoleUnknown covers index tables and content types newer than this reader;
// such entries are kept so callers can decide whether to ignore them.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleSignal
	RoleReads
	RoleRunInfo
)

// String returns the human-readable name of the role.
func (r Role) String() string {
	switch r {
	case RoleSignal:
		return "signal"
	case RoleReads:
		return "reads"
	case RoleRunInfo:
		return "run_info"
	default:
		return "unknown"
	}
}

// Format identifies the encoding of an embedded table.
type Format int16

// FormatFeatherV2 is the Arrow IPC file format, the only one POD5 defines.
const FormatFeatherV2 Format = 0

// String returns the schema name of the format.
func (f Format) String() string {
	if f == FormatFeatherV2 {
		return "FeatherV2"
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// Entry describes one embedded table in the container.
type Entry struct {
	// Name is the content type name, e.g. "SignalTable".
	Name string

	// ContentType is the raw content type recorded in the footer.
	ContentType ContentType

	// Role is derived from ContentType.
	Role Role

	// Format is the table encoding recorded in the footer.
	Format Format

	// Offset is the absolute byte offset of the table in the container.
	Offset uint64

	// Length is the size of the table in bytes.
	Length uint64
}

// Span locates a byte range relative to the start of a table.
type Span struct {
	Offset int64
	Length int64
}
