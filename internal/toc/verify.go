package toc

import (
	"encoding/binary"
	"fmt"

	"github.com/meigma/pod5/internal/pod5type"
)

// Field slots of the footer schema.
const (
	footerFileIdentifier = 0
	footerSoftware       = 1
	footerPod5Version    = 2
	footerContents       = 3

	fileOffset      = 0
	fileLength      = 1
	fileFormat      = 2
	fileContentType = 3
)

// verifier walks the FlatBuffers structure of a footer and checks every
// offset the generated accessors will follow. Positions are uint64 so that
// attacker-controlled 32-bit offsets cannot wrap.
type verifier struct {
	buf []byte
}

// tableHeader is a verified table and its vtable.
type tableHeader struct {
	pos    uint64
	vtable uint64
	vtSize uint64
	size   uint64
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{pod5type.ErrMalformedFooter}, args...)...)
}

func (v *verifier) has(pos, n uint64) bool {
	return pos <= uint64(len(v.buf)) && n <= uint64(len(v.buf))-pos
}

func (v *verifier) u32(pos uint64) (uint64, error) {
	if !v.has(pos, 4) {
		return 0, malformed("offset %d past end of %d-byte footer", pos, len(v.buf))
	}
	return uint64(binary.LittleEndian.Uint32(v.buf[pos:])), nil
}

func (v *verifier) u16(pos uint64) (uint64, error) {
	if !v.has(pos, 2) {
		return 0, malformed("offset %d past end of %d-byte footer", pos, len(v.buf))
	}
	return uint64(binary.LittleEndian.Uint16(v.buf[pos:])), nil
}

// table verifies the table header and vtable at pos.
func (v *verifier) table(pos uint64) (tableHeader, error) {
	raw, err := v.u32(pos)
	if err != nil {
		return tableHeader{}, err
	}
	soff := int64(int32(uint32(raw))) //nolint:gosec // reinterpreting the signed vtable offset
	vt := int64(pos) - soff           //nolint:gosec // pos is bounded by len(buf)
	if vt < 0 {
		return tableHeader{}, malformed("vtable offset %d before start", vt)
	}
	vtSize, err := v.u16(uint64(vt))
	if err != nil {
		return tableHeader{}, err
	}
	size, err := v.u16(uint64(vt) + 2)
	if err != nil {
		return tableHeader{}, err
	}
	if vtSize < 4 || vtSize%2 != 0 || !v.has(uint64(vt), vtSize) {
		return tableHeader{}, malformed("vtable size %d at %d", vtSize, vt)
	}
	if size < 4 || !v.has(pos, size) {
		return tableHeader{}, malformed("table size %d at %d", size, pos)
	}
	return tableHeader{pos: pos, vtable: uint64(vt), vtSize: vtSize, size: size}, nil
}

// field returns the absolute position of a field and whether it is present.
// width is the inline size of the field.
func (v *verifier) field(t tableHeader, slot int, width uint64) (uint64, bool, error) {
	entry := 4 + 2*uint64(slot) //nolint:gosec // slot is a schema constant
	if entry+2 > t.vtSize {
		return 0, false, nil
	}
	off, err := v.u16(t.vtable + entry)
	if err != nil {
		return 0, false, err
	}
	if off == 0 {
		return 0, false, nil
	}
	if off+width > t.size {
		return 0, false, malformed("field %d overruns table at %d", slot, t.pos)
	}
	return t.pos + off, true, nil
}

// indirect follows the uoffset stored at pos.
func (v *verifier) indirect(pos uint64) (uint64, error) {
	rel, err := v.u32(pos)
	if err != nil {
		return 0, err
	}
	target := pos + rel
	if !v.has(target, 4) {
		return 0, malformed("reference %d past end", target)
	}
	return target, nil
}

// str verifies an optional string field.
func (v *verifier) str(t tableHeader, slot int) error {
	pos, ok, err := v.field(t, slot, 4)
	if err != nil || !ok {
		return err
	}
	target, err := v.indirect(pos)
	if err != nil {
		return err
	}
	n, err := v.u32(target)
	if err != nil {
		return err
	}
	if !v.has(target+4, n) {
		return malformed("string of %d bytes at %d", n, target)
	}
	return nil
}

// scalar verifies an optional inline scalar field.
func (v *verifier) scalar(t tableHeader, slot int, width uint64) error {
	_, _, err := v.field(t, slot, width)
	return err
}

// verifyFooter checks the footer structure. It reports whether the
// contents vector is present.
func verifyFooter(buf []byte) (bool, error) {
	v := &verifier{buf: buf}
	root, err := v.u32(0)
	if err != nil {
		return false, err
	}
	footer, err := v.table(root)
	if err != nil {
		return false, err
	}
	for _, slot := range []int{footerFileIdentifier, footerSoftware, footerPod5Version} {
		if err := v.str(footer, slot); err != nil {
			return false, err
		}
	}

	pos, ok, err := v.field(footer, footerContents, 4)
	if err != nil || !ok {
		return false, err
	}
	vec, err := v.indirect(pos)
	if err != nil {
		return false, err
	}
	n, err := v.u32(vec)
	if err != nil {
		return false, err
	}
	if !v.has(vec+4, n*4) {
		return false, malformed("contents vector of %d entries at %d", n, vec)
	}
	for i := range n {
		elem, err := v.indirect(vec + 4 + i*4)
		if err != nil {
			return false, err
		}
		if err := verifyEmbeddedFile(v, elem); err != nil {
			return false, fmt.Errorf("contents[%d]: %w", i, err)
		}
	}
	return true, nil
}

func verifyEmbeddedFile(v *verifier, pos uint64) error {
	t, err := v.table(pos)
	if err != nil {
		return err
	}
	if err := v.scalar(t, fileOffset, 8); err != nil {
		return err
	}
	if err := v.scalar(t, fileLength, 8); err != nil {
		return err
	}
	if err := v.scalar(t, fileFormat, 2); err != nil {
		return err
	}
	return v.scalar(t, fileContentType, 2)
}
