// Package svb16 implements the 16-bit variable-byte signal codec used by
// POD5 signal tables.
//
// Samples are delta coded against the previous sample (the first against
// zero), zigzag mapped to unsigned values, and packed with a per-element
// width selector. The selectors for all elements come first, as control
// bytes, followed by the little-endian data bytes.
//
// Two selector layouts are supported:
//
//	LayoutBit   one bit per element, eight per control byte; a set bit
//	            means two data bytes, a clear bit one. POD5 files use this.
//	LayoutQuad  two bits per element, four per control byte; selector w
//	            means w+1 data bytes.
//
// Within a control byte, selectors are read from the least significant
// bits first.
//
// In POD5 files the packed stream is further compressed with zstd. [VBZ]
// handles both stages.
//
// Decoding never panics on malformed input. Running out of data returns
// [ErrUnderflow]; a sample count that cannot be addressed returns
// [ErrOverflow].
package svb16
