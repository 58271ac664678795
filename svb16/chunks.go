package svb16

import "iter"

// DefaultChunkSize is the batch size Chunks uses when size <= 0.
const DefaultChunkSize = 4096

// Chunks decodes n samples from src lazily, yielding batches of at most
// size samples. A decoding error is yielded once with a nil batch and ends
// the sequence.
//
// The yielded slice is reused between batches; copy it to keep it. Ranging
// over the sequence again restarts from the beginning of src.
func (c Codec) Chunks(src []byte, n, size int) iter.Seq2[[]int16, error] {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return func(yield func([]int16, error) bool) {
		d, err := c.newDecoder(src, n)
		if err != nil {
			yield(nil, err)
			return
		}
		buf := make([]int16, min(size, n))
		for d.remaining() > 0 {
			k, err := d.fill(buf)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(buf[:k], nil) {
				return
			}
		}
	}
}
