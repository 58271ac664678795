package svb16

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Sentinel errors.
var (
	// ErrUnderflow is returned when the input ends before all samples are
	// decoded.
	ErrUnderflow = errors.New("svb16: input exhausted")

	// ErrOverflow is returned when a sample count is negative or too large
	// to address.
	ErrOverflow = errors.New("svb16: sample count overflow")

	// ErrDecompression is returned when the zstd stage of VBZ fails.
	ErrDecompression = errors.New("svb16: zstd decompression failed")

	// ErrLayout is returned for an unknown selector layout.
	ErrLayout = errors.New("svb16: unknown layout")
)

// Layout selects how width selectors are packed into control bytes.
type Layout uint8

const (
	// LayoutBit packs eight 1-bit selectors per control byte.
	LayoutBit Layout = iota

	// LayoutQuad packs four 2-bit selectors per control byte.
	LayoutQuad
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case LayoutBit:
		return "bit"
	case LayoutQuad:
		return "quad"
	default:
		return "Layout(" + strconv.Itoa(int(l)) + ")"
	}
}

// ParseLayout parses a layout name as returned by String.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "bit":
		return LayoutBit, nil
	case "quad":
		return LayoutQuad, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrLayout, s)
	}
}

// shift is log2 of the selectors per control byte.
func (l Layout) shift() (uint, error) {
	switch l {
	case LayoutBit:
		return 3, nil
	case LayoutQuad:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrLayout, l)
	}
}

// ControlSize returns the number of control bytes for n samples.
// It returns 0 for n <= 0 or an unknown layout.
func (l Layout) ControlSize(n int) int {
	s, err := l.shift()
	if err != nil || n <= 0 {
		return 0
	}
	per := 1 << s
	return n>>s + (n&(per-1)+per-1)>>s
}

// MaxEncodedLen returns the largest encoding Encode produces for n samples.
func (l Layout) MaxEncodedLen(n int) int {
	if n <= 0 {
		return 0
	}
	return l.ControlSize(n) + 2*n
}

// Codec encodes and decodes svb16 streams with a fixed layout.
// The zero value uses LayoutBit.
type Codec struct {
	Layout Layout
}

// Decode decodes exactly n samples from src using LayoutBit.
func Decode(src []byte, n int) ([]int16, error) {
	return Codec{}.Decode(src, n)
}

// Encode encodes samples using LayoutBit.
func Encode(samples []int16) []byte {
	return Codec{}.Encode(samples)
}

// Decode decodes exactly n samples from src. Bytes after the last sample
// are ignored.
//
// The returned slice is newly allocated and owned by the caller.
func (c Codec) Decode(src []byte, n int) ([]int16, error) {
	d, err := c.newDecoder(src, n)
	if err != nil {
		return nil, err
	}
	out := make([]int16, n)
	if _, err := d.fill(out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkCount validates n against src before anything is allocated. Every
// sample needs at least one data byte, so a stream shorter than the control
// bytes plus n cannot hold n samples.
func checkCount(l Layout, src []byte, n int) (int, error) {
	if _, err := l.shift(); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d samples", ErrOverflow, n)
	}
	ctrl := l.ControlSize(n)
	if ctrl > math.MaxInt-n {
		return 0, fmt.Errorf("%w: %d samples", ErrOverflow, n)
	}
	if ctrl+n > len(src) {
		return 0, fmt.Errorf("%w: %d samples need at least %d bytes, have %d", ErrUnderflow, n, ctrl+n, len(src))
	}
	return ctrl, nil
}
