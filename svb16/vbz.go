package svb16

import (
	"fmt"
	"iter"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// streamSlack is how far a decompressed stream may exceed
// Layout.MaxEncodedLen before it is rejected. Trailing bytes are ignored.
const streamSlack = 64

// VBZ is svb16 wrapped in zstd, the encoding of POD5 signal cells.
//
// zstd decoders and encoders are pooled. A VBZ is safe for concurrent use.
type VBZ struct {
	codec     Codec
	maxMemory uint64
	level     zstd.EncoderLevel
	decoders  sync.Pool
	encoders  sync.Pool
}

// VBZOption configures a VBZ.
type VBZOption func(*VBZ)

// WithLayout sets the selector layout of the inner stream.
// The default is LayoutBit.
func WithLayout(l Layout) VBZOption {
	return func(v *VBZ) {
		v.codec.Layout = l
	}
}

// WithDecoderMaxMemory bounds the memory a single zstd decoder may
// allocate, and so the largest cell it will decompress.
// Zero keeps the zstd default.
func WithDecoderMaxMemory(n uint64) VBZOption {
	return func(v *VBZ) {
		v.maxMemory = n
	}
}

// WithEncoderLevel sets the zstd level used by Encode.
// The default is zstd.SpeedFastest.
func WithEncoderLevel(level zstd.EncoderLevel) VBZOption {
	return func(v *VBZ) {
		v.level = level
	}
}

// NewVBZ creates a VBZ codec.
func NewVBZ(opts ...VBZOption) *VBZ {
	v := &VBZ{level: zstd.SpeedFastest}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Layout returns the selector layout of the inner stream.
func (v *VBZ) Layout() Layout {
	return v.codec.Layout
}

// Decode decompresses src and decodes exactly n samples from it.
// A stream that decompresses to more than an n-sample encoding can occupy
// is rejected without decoding it in full.
func (v *VBZ) Decode(src []byte, n int) ([]int16, error) {
	limit, err := v.StreamLimit(n)
	if err != nil {
		return nil, err
	}
	raw, err := v.Decompress(src, limit)
	if err != nil {
		return nil, err
	}
	return v.codec.Decode(raw, n)
}

// StreamLimit returns the largest decompressed stream accepted for n samples.
func (v *VBZ) StreamLimit(n int) (int, error) {
	if _, err := v.codec.Layout.shift(); err != nil {
		return 0, err
	}
	if n < 0 || n > (math.MaxInt-streamSlack)/3 {
		return 0, fmt.Errorf("%w: %d samples", ErrOverflow, n)
	}
	return v.codec.Layout.MaxEncodedLen(n) + streamSlack, nil
}

// Chunks decompresses src once and decodes it lazily; see Codec.Chunks.
func (v *VBZ) Chunks(src []byte, n, size int) iter.Seq2[[]int16, error] {
	return func(yield func([]int16, error) bool) {
		limit, err := v.StreamLimit(n)
		if err != nil {
			yield(nil, err)
			return
		}
		raw, err := v.Decompress(src, limit)
		if err != nil {
			yield(nil, err)
			return
		}
		for chunk, err := range v.codec.Chunks(raw, n, size) {
			if !yield(chunk, err) {
				return
			}
		}
	}
}

// Encode encodes samples and compresses the result.
func (v *VBZ) Encode(samples []int16) ([]byte, error) {
	enc, err := v.getEncoder()
	if err != nil {
		return nil, err
	}
	defer v.encoders.Put(enc)

	// EncodeAll is stateless, so a pooled encoder can be shared this way.
	return enc.EncodeAll(v.codec.Encode(samples), nil), nil
}

// Decompress returns the svb16 stream inside src. With limit > 0 the
// stream may not exceed limit bytes; frames that declare a larger content
// size are rejected before anything is decoded. Otherwise only the decoder
// memory limit applies.
func (v *VBZ) Decompress(src []byte, limit int) ([]byte, error) {
	if limit > 0 {
		var h zstd.Header
		if err := h.Decode(src); err == nil && h.HasFCS && h.FrameContentSize > uint64(limit) {
			return nil, fmt.Errorf("%w: frame holds %d bytes, limit is %d", ErrDecompression, h.FrameContentSize, limit)
		}
	}

	dec, err := v.getDecoder()
	if err != nil {
		return nil, err
	}
	defer v.decoders.Put(dec)

	var dst []byte
	if limit > 0 {
		if v.maxMemory > 0 && uint64(limit) > v.maxMemory {
			limit = int(v.maxMemory) //nolint:gosec // bounded by limit
		}
		dst = make([]byte, 0, limit)
	}
	// Pooled decoders are shared between bounded and unbounded calls.
	if err := dec.ResetWithOptions(nil, zstd.WithDecodeAllCapLimit(limit > 0)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompression, err)
	}
	// A failed DecodeAll leaves the decoder reusable.
	raw, err := dec.DecodeAll(src, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompression, err)
	}
	return raw, nil
}

func (v *VBZ) getDecoder() (*zstd.Decoder, error) {
	if dec, ok := v.decoders.Get().(*zstd.Decoder); ok {
		return dec, nil
	}
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if v.maxMemory > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(v.maxMemory))
	}
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return dec, nil
}

func (v *VBZ) getEncoder() (*zstd.Encoder, error) {
	if enc, ok := v.encoders.Get().(*zstd.Encoder); ok {
		return enc, nil
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(v.level),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return enc, nil
}
