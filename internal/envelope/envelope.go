// Package envelope validates the POD5 binary envelope and locates the footer.
//
// Layout, with L the file length and F the footer length:
//
//	[0, 8)          signature
//	[8, 24)         section marker
//	...             tables
//	[fo-8, fo)      footer magic
//	[fo, fo+F)      footer (FlatBuffers)
//	[L-32, L-24)    F, little-endian int64
//	[L-24, L-8)     section marker
//	[L-8, L)        signature
package envelope

import (
	"bytes"
	"fmt"

	"github.com/meigma/pod5/internal/pod5type"
	"github.com/meigma/pod5/internal/window"
)

// Signature opens and closes every POD5 file.
var Signature = [SignatureSize]byte{0x8b, 'P', 'O', 'D', '\r', '\n', 0x1a, '\n'}

// FooterMagic precedes the footer.
var FooterMagic = [FooterMagicSize]byte{'F', 'O', 'O', 'T', 'E', 'R', 0, 0}

const (
	SignatureSize     = 8
	SectionMarkerSize = 16
	FooterMagicSize   = 8
	LengthSize        = 8

	// LeadSize is the signature plus section marker at the start of the file.
	LeadSize = SignatureSize + SectionMarkerSize

	// TrailSize is the section marker plus signature at the end of the file.
	TrailSize = SectionMarkerSize + SignatureSize

	// MinSize is the smallest file that can hold an envelope.
	MinSize = LeadSize + FooterMagicSize + LengthSize + TrailSize
)

// SectionMarker separates tables; it is unique per file.
type SectionMarker [SectionMarkerSize]byte

// Footer locates the footer blob.
type Footer struct {
	Offset int64
	Length int64
}

// Envelope is the validated framing of a container.
type Envelope struct {
	Marker SectionMarker
	Footer Footer

	// Data is the footer blob. It aliases the window for in-memory sources.
	Data []byte
}

// Parse validates both signatures, locates the footer, checks the footer
// magic and returns the footer bytes. It stops at the first failure.
func Parse(w *window.Window) (*Envelope, error) {
	marker, err := ValidateSignatures(w)
	if err != nil {
		return nil, err
	}
	footer, err := Locate(w)
	if err != nil {
		return nil, err
	}
	if err := ValidateFooterMagic(w, footer); err != nil {
		return nil, err
	}
	data, err := w.Slice(footer.Offset, footer.Length)
	if err != nil {
		return nil, err
	}
	return &Envelope{Marker: marker, Footer: footer, Data: data}, nil
}

// ValidateSignatures checks the leading and trailing signatures and that
// both section markers agree. It returns the section marker.
func ValidateSignatures(w *window.Window) (SectionMarker, error) {
	var marker SectionMarker
	size := w.Size()
	if size < MinSize {
		return marker, fmt.Errorf("%w: %d bytes, need at least %d", pod5type.ErrTruncated, size, MinSize)
	}
	lead, err := w.Slice(0, LeadSize)
	if err != nil {
		return marker, err
	}
	trail, err := w.Slice(size-TrailSize, TrailSize)
	if err != nil {
		return marker, err
	}
	if !bytes.Equal(lead[:SignatureSize], Signature[:]) {
		return marker, fmt.Errorf("%w: leading signature %x", pod5type.ErrBadSignature, lead[:SignatureSize])
	}
	if !bytes.Equal(trail[SectionMarkerSize:], Signature[:]) {
		return marker, fmt.Errorf("%w: trailing signature %x", pod5type.ErrBadSignature, trail[SectionMarkerSize:])
	}
	if !bytes.Equal(lead[SignatureSize:], trail[:SectionMarkerSize]) {
		return marker, fmt.Errorf("%w: section markers differ", pod5type.ErrBadSignature)
	}
	copy(marker[:], lead[SignatureSize:])
	return marker, nil
}

// Locate reads the footer length field and computes the footer range.
//
// The footer must end at the length field and leave room for the leading
// signature, section marker and footer magic before it.
func Locate(w *window.Window) (Footer, error) {
	size := w.Size()
	if size < MinSize {
		return Footer{}, fmt.Errorf("%w: %d bytes, need at least %d", pod5type.ErrTruncated, size, MinSize)
	}
	lengthOff := size - TrailSize - LengthSize
	raw, err := w.Uint64(lengthOff)
	if err != nil {
		return Footer{}, err
	}
	length := int64(raw) //nolint:gosec // negative values are rejected below
	if length < 0 || length > lengthOff-LeadSize-FooterMagicSize {
		return Footer{}, fmt.Errorf("%w: %d in %d-byte file", pod5type.ErrBadFooterLength, length, size)
	}
	return Footer{Offset: lengthOff - length, Length: length}, nil
}

// ValidateFooterMagic checks the magic immediately before the footer.
func ValidateFooterMagic(w *window.Window, f Footer) error {
	ok, err := w.Equal(f.Offset-FooterMagicSize, FooterMagic[:])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: footer magic at %d", pod5type.ErrBadSignature, f.Offset-FooterMagicSize)
	}
	return nil
}
