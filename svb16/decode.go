package svb16

import (
	"encoding/binary"
	"fmt"
)

// decoder walks a stream element by element. It holds no reference to the
// output, so a fill can stop at any chunk boundary and resume.
type decoder struct {
	layout Layout
	ctrl   []byte
	data   []byte
	n      int
	next   int
	pos    int
	acc    uint16
}

func (c Codec) newDecoder(src []byte, n int) (*decoder, error) {
	ctrl, err := checkCount(c.Layout, src, n)
	if err != nil {
		return nil, err
	}
	return &decoder{
		layout: c.Layout,
		ctrl:   src[:ctrl],
		data:   src[ctrl:],
		n:      n,
	}, nil
}

// remaining returns the number of samples not yet decoded.
func (d *decoder) remaining() int {
	return d.n - d.next
}

// width returns the data byte count of element i.
func (d *decoder) width(i int) int {
	if d.layout == LayoutQuad {
		return 1 + int(d.ctrl[i>>2]>>(uint(i&3)*2)&3)
	}
	return 1 + int(d.ctrl[i>>3]>>uint(i&7)&1)
}

// fill decodes up to len(dst) samples into dst and returns how many it
// wrote.
func (d *decoder) fill(dst []int16) (int, error) {
	k := min(len(dst), d.remaining())
	for j := range k {
		w := d.width(d.next)
		if w > len(d.data)-d.pos {
			return j, fmt.Errorf("%w: sample %d needs %d bytes, %d left", ErrUnderflow, d.next, w, len(d.data)-d.pos)
		}
		b := d.data[d.pos : d.pos+w]
		var u uint32
		switch w {
		case 1:
			u = uint32(b[0])
		case 2:
			u = uint32(binary.LittleEndian.Uint16(b))
		case 3:
			u = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
		default:
			u = binary.LittleEndian.Uint32(b)
		}
		d.pos += w

		// Undo the zigzag mapping; the accumulator wraps at 16 bits.
		delta := (u >> 1) ^ -(u & 1)
		d.acc += uint16(delta) //nolint:gosec // truncation is the wraparound
		dst[j] = int16(d.acc)  //nolint:gosec // reinterpreting two's complement
		d.next++
	}
	return k, nil
}
