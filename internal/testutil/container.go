package testutil

import (
	"encoding/binary"
	"testing"

	"github.com/meigma/pod5/internal/envelope"
	"github.com/meigma/pod5/internal/pod5type"
	"github.com/meigma/pod5/internal/toc"
)

// Marker is the section marker used by BuildContainer.
var Marker = envelope.SectionMarker{
	0x6f, 0x0e, 0x4c, 0x1e, 0x8a, 0x2b, 0x47, 0x3d,
	0x9c, 0x31, 0x55, 0x02, 0xa7, 0xe4, 0x10, 0x88,
}

// Table is a table to embed in a test container.
type Table struct {
	ContentType pod5type.ContentType
	Data        []byte
}

// Layout records where BuildContainer placed things.
type Layout struct {
	Tables       []pod5type.Entry
	FooterOffset int64
	FooterLength int64
}

// Meta is the footer metadata BuildContainer writes.
var Meta = toc.Metadata{
	FileIdentifier: "7c5b8d0a-4c39-4c46-9f0e-0e3e7d4e2a51",
	Software:       "pod5-testutil",
	Pod5Version:    "0.3.10",
}

// BuildContainer assembles a well-formed container holding tables in order.
func BuildContainer(tb testing.TB, tables ...Table) ([]byte, Layout) {
	tb.Helper()

	buf := appendLead(nil, Marker)
	var layout Layout
	records := make([]toc.Record, 0, len(tables))
	for _, t := range tables {
		off := len(buf)
		buf = append(buf, t.Data...)
		buf = appendPadding(buf)
		buf = append(buf, Marker[:]...)
		records = append(records, toc.Record{
			ContentType: t.ContentType,
			Offset:      int64(off),
			Length:      int64(len(t.Data)),
		})
		layout.Tables = append(layout.Tables, pod5type.Entry{
			Name:        t.ContentType.String(),
			ContentType: t.ContentType,
			Role:        t.ContentType.Role(),
			Offset:      uint64(off),
			Length:      uint64(len(t.Data)),
		})
	}

	footer := toc.Build(Meta, records)
	buf, layout.FooterOffset = AppendTrailer(buf, Marker, footer)
	layout.FooterLength = int64(len(footer))
	return buf, layout
}

// BuildRaw frames body and footer as a container without any checks,
// for tests that need malformed footers. body follows the leading
// signature and section marker.
func BuildRaw(body, footer []byte) []byte {
	buf := appendLead(nil, Marker)
	buf = append(buf, body...)
	buf, _ = AppendTrailer(buf, Marker, footer)
	return buf
}

// AppendTrailer appends the footer magic, footer, length field, section
// marker and signature. It returns the footer offset.
func AppendTrailer(buf []byte, marker envelope.SectionMarker, footer []byte) ([]byte, int64) {
	buf = append(buf, envelope.FooterMagic[:]...)
	off := int64(len(buf))
	buf = append(buf, footer...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(footer)))
	buf = append(buf, marker[:]...)
	buf = append(buf, envelope.Signature[:]...)
	return buf, off
}

func appendLead(buf []byte, marker envelope.SectionMarker) []byte {
	buf = append(buf, envelope.Signature[:]...)
	return append(buf, marker[:]...)
}

func appendPadding(buf []byte) []byte {
	for len(buf)%8 != 0 {
		buf = append(buf, 0)
	}
	return buf
}
