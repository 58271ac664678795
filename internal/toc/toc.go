// Package toc parses the FlatBuffers footer of a POD5 container into its
// table of contents.
//
// The footer is verified structurally before any generated accessor runs,
// and every entry's byte range is checked against the container length, so
// callers can hand entries to readers without further validation.
package toc

import (
	"fmt"
	"slices"

	"github.com/meigma/pod5/internal/fb"
	"github.com/meigma/pod5/internal/pod5type"
)

// TOC is the parsed table of contents. It is immutable after Load.
type TOC struct {
	data           []byte
	entries        []pod5type.Entry
	fileIdentifier string
	software       string
	pod5Version    string
}

// Load parses a footer blob belonging to a container of fileSize bytes.
//
// The provided data is retained by the TOC; callers must not modify it
// after calling Load.
func Load(data []byte, fileSize uint64) (t *TOC, err error) {
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = fmt.Errorf("%w: %v", pod5type.ErrMalformedFooter, r)
		}
	}()
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty footer", pod5type.ErrMalformedFooter)
	}

	hasContents, err := verifyFooter(data)
	if err != nil {
		return nil, err
	}
	if !hasContents {
		return nil, fmt.Errorf("%w: missing list of embedded files", pod5type.ErrMalformedFooter)
	}

	root := fb.GetRootAsFooter(data, 0)
	n := root.ContentsLength()
	entries := make([]pod5type.Entry, 0, n)
	var file fb.EmbeddedFile
	for i := range n {
		if !root.Contents(&file, i) {
			return nil, fmt.Errorf("%w: contents[%d] unreadable", pod5type.ErrMalformedFooter, i)
		}
		entry, err := entryFromFlatBuffers(&file, fileSize)
		if err != nil {
			return nil, fmt.Errorf("contents[%d]: %w", i, err)
		}
		entries = append(entries, entry)
	}

	return &TOC{
		data:           data,
		entries:        entries,
		fileIdentifier: string(root.FileIdentifier()),
		software:       string(root.Software()),
		pod5Version:    string(root.Pod5Version()),
	}, nil
}

// entryFromFlatBuffers converts and bounds-checks one embedded file record.
func entryFromFlatBuffers(file *fb.EmbeddedFile, fileSize uint64) (pod5type.Entry, error) {
	ct := pod5type.ContentType(file.ContentType())
	offset, length := file.Offset(), file.Length()
	if offset < 0 || length < 0 {
		return pod5type.Entry{}, fmt.Errorf("%w: %s at %d, %d bytes", pod5type.ErrOffsetOutOfBounds, ct, offset, length)
	}
	// Both halves are below 2^63, so the sum cannot wrap.
	end := uint64(offset) + uint64(length)
	if end > fileSize {
		return pod5type.Entry{}, fmt.Errorf("%w: %s ends at %d in %d-byte file", pod5type.ErrOffsetOutOfBounds, ct, end, fileSize)
	}
	return pod5type.Entry{
		Name:        ct.String(),
		ContentType: ct,
		Role:        ct.Role(),
		Format:      pod5type.Format(file.Format()),
		Offset:      uint64(offset),
		Length:      uint64(length),
	}, nil
}

// Len returns the number of entries.
func (t *TOC) Len() int {
	return len(t.entries)
}

// Entries returns a copy of all entries in footer order, including
// duplicates and entries with unknown content types.
func (t *TOC) Entries() []pod5type.Entry {
	return slices.Clone(t.entries)
}

// ByRole returns the entries with the given role in footer order.
func (t *TOC) ByRole(role pod5type.Role) []pod5type.Entry {
	var out []pod5type.Entry
	for _, e := range t.entries {
		if e.Role == role {
			out = append(out, e)
		}
	}
	return out
}

// First returns the first entry with the given role.
func (t *TOC) First(role pod5type.Role) (pod5type.Entry, bool) {
	for _, e := range t.entries {
		if e.Role == role {
			return e, true
		}
	}
	return pod5type.Entry{}, false
}

// FileIdentifier returns the file identifier recorded by the writer.
func (t *TOC) FileIdentifier() string {
	return t.fileIdentifier
}

// Software returns the name of the software that wrote the file.
func (t *TOC) Software() string {
	return t.software
}

// Pod5Version returns the format version recorded by the writer.
func (t *TOC) Pod5Version() string {
	return t.pod5Version
}

// Data returns the raw footer bytes.
func (t *TOC) Data() []byte {
	return t.data
}
