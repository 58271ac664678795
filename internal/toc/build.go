package toc

import (
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/meigma/pod5/internal/fb"
	"github.com/meigma/pod5/internal/pod5type"
)

// Metadata holds the footer's descriptive strings.
type Metadata struct {
	FileIdentifier string
	Software       string
	Pod5Version    string
}

// Record is one embedded file as written to the footer.
// Offsets are signed to match the schema.
type Record struct {
	ContentType pod5type.ContentType
	Format      pod5type.Format
	Offset      int64
	Length      int64
}

// Build encodes a footer. Records keep their order.
func Build(meta Metadata, records []Record) []byte {
	builder := flatbuffers.NewBuilder(256 + 32*len(records))

	// Build records in reverse order (FlatBuffers requirement)
	offsets := make([]flatbuffers.UOffsetT, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		fb.EmbeddedFileStart(builder)
		fb.EmbeddedFileAddOffset(builder, r.Offset)
		fb.EmbeddedFileAddLength(builder, r.Length)
		fb.EmbeddedFileAddFormat(builder, fb.Format(r.Format))
		fb.EmbeddedFileAddContentType(builder, fb.ContentType(r.ContentType))
		offsets[i] = fb.EmbeddedFileEnd(builder)
	}

	fb.FooterStartContentsVector(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	contents := builder.EndVector(len(offsets))

	fileID := builder.CreateString(meta.FileIdentifier)
	software := builder.CreateString(meta.Software)
	version := builder.CreateString(meta.Pod5Version)

	fb.FooterStart(builder)
	fb.FooterAddFileIdentifier(builder, fileID)
	fb.FooterAddSoftware(builder, software)
	fb.FooterAddPod5Version(builder, version)
	fb.FooterAddContents(builder, contents)
	fb.FinishFooterBuffer(builder, fb.FooterEnd(builder))
	return builder.FinishedBytes()
}

// RecordFromEntry converts a parsed entry back into a footer record.
func RecordFromEntry(e pod5type.Entry) Record {
	return Record{
		ContentType: e.ContentType,
		Format:      e.Format,
		Offset:      int64(e.Offset), //nolint:gosec // entries are validated against an int64 file size
		Length:      int64(e.Length), //nolint:gosec // entries are validated against an int64 file size
	}
}
