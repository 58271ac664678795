package svb16

// Encode encodes samples. Each sample is stored as the zigzagged difference
// from its predecessor in the narrowest width that holds it.
//
// Encode(x) always decodes back to x, but its bytes need not match other
// encoders.
func (c Codec) Encode(samples []int16) []byte {
	return c.AppendEncode(make([]byte, 0, c.Layout.MaxEncodedLen(len(samples))), samples)
}

// AppendEncode appends the encoding of samples to dst.
// An unknown layout encodes as LayoutBit.
func (c Codec) AppendEncode(dst []byte, samples []int16) []byte {
	layout := c.Layout
	if _, err := layout.shift(); err != nil {
		layout = LayoutBit
	}
	n := len(samples)
	ctrlSize := layout.ControlSize(n)
	start := len(dst)
	for range ctrlSize {
		dst = append(dst, 0)
	}

	var prev uint16
	for i, s := range samples {
		delta := int16(uint16(s) - prev)          //nolint:gosec // 16-bit wraparound
		prev = uint16(s)                          //nolint:gosec // reinterpreting two's complement
		u := uint16(delta<<1) ^ uint16(delta>>15) //nolint:gosec // zigzag
		if u <= 0xff {
			dst = append(dst, byte(u))
			continue
		}
		// Two bytes: bit 1 in LayoutBit, selector 1 in LayoutQuad.
		if layout == LayoutQuad {
			dst[start+i>>2] |= 1 << (uint(i&3) * 2)
		} else {
			dst[start+i>>3] |= 1 << uint(i&7)
		}
		dst = append(dst, byte(u), byte(u>>8))
	}
	return dst
}
