package svb16_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pod5/svb16"
)

func TestVBZRoundTrip(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 5000)
	for i := range samples {
		samples[i] = int16(400 + (i*7)%90)
	}

	for _, layout := range []svb16.Layout{svb16.LayoutBit, svb16.LayoutQuad} {
		t.Run(layout.String(), func(t *testing.T) {
			t.Parallel()
			v := svb16.NewVBZ(svb16.WithLayout(layout), svb16.WithEncoderLevel(zstd.SpeedDefault))
			assert.Equal(t, layout, v.Layout())

			enc, err := v.Encode(samples)
			require.NoError(t, err)
			assert.Less(t, len(enc), len(samples))

			got, err := v.Decode(enc, len(samples))
			require.NoError(t, err)
			assert.Equal(t, samples, got)

			raw, err := v.Decompress(enc, 0)
			require.NoError(t, err)
			assert.Equal(t, svb16.Codec{Layout: layout}.Encode(samples), raw)
		})
	}
}

func TestVBZReferenceStream(t *testing.T) {
	t.Parallel()

	// The reference fixture compressed by a plain zstd encoder.
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte{0b10101010, 10, 0xd2, 0x04, 20, 0x29, 0x09, 30}, nil)
	require.NoError(t, enc.Close())

	got, err := svb16.NewVBZ().Decode(compressed, 5)
	require.NoError(t, err)
	assert.Equal(t, []int16{5, 622, 632, -541, -526}, got)
}

func TestVBZChunks(t *testing.T) {
	t.Parallel()

	samples := []int16{9, 8, 7, 6, 5, 4, 3, 2, 1}
	v := svb16.NewVBZ()
	enc, err := v.Encode(samples)
	require.NoError(t, err)

	var got []int16
	batches := 0
	for chunk, err := range v.Chunks(enc, len(samples), 4) {
		require.NoError(t, err)
		got = append(got, chunk...)
		batches++
	}
	assert.Equal(t, samples, got)
	assert.Equal(t, 3, batches)
}

func TestVBZCorrupt(t *testing.T) {
	t.Parallel()

	v := svb16.NewVBZ(svb16.WithDecoderMaxMemory(1 << 20))

	_, err := v.Decode([]byte("definitely not zstd"), 4)
	require.ErrorIs(t, err, svb16.ErrDecompression)

	for _, err := range v.Chunks([]byte("still not zstd"), 4, 2) {
		require.ErrorIs(t, err, svb16.ErrDecompression)
	}

	// Valid zstd wrapping too few bytes for the sample count.
	enc, err := v.Encode([]int16{1, 2})
	require.NoError(t, err)
	_, err = v.Decode(enc, 50)
	require.ErrorIs(t, err, svb16.ErrUnderflow)
}

func TestVBZRejectsOversizedStream(t *testing.T) {
	t.Parallel()

	v := svb16.NewVBZ()
	bomb := make([]byte, 1<<20)

	// EncodeAll records the content size in the frame header.
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	sized := enc.EncodeAll(bomb, nil)
	require.NoError(t, enc.Close())

	// A streamed frame has no content size and is caught while decoding.
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(bomb)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	streamed := buf.Bytes()

	tests := []struct {
		name string
		src  []byte
	}{
		{name: "content size", src: sized},
		{name: "streamed", src: streamed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := v.Decode(tt.src, 10)
			require.ErrorIs(t, err, svb16.ErrDecompression)

			for _, err := range v.Chunks(tt.src, 10, 4) {
				require.ErrorIs(t, err, svb16.ErrDecompression)
			}

			// The same frame is fine when the count allows for it.
			raw, err := v.Decompress(tt.src, 0)
			require.NoError(t, err)
			assert.Len(t, raw, len(bomb))
		})
	}
}

func TestVBZStreamLimit(t *testing.T) {
	t.Parallel()

	v := svb16.NewVBZ()
	limit, err := v.StreamLimit(16)
	require.NoError(t, err)
	assert.Equal(t, svb16.LayoutBit.MaxEncodedLen(16)+64, limit)

	limit, err = v.StreamLimit(0)
	require.NoError(t, err)
	assert.Equal(t, 64, limit)

	_, err = v.StreamLimit(-1)
	require.ErrorIs(t, err, svb16.ErrOverflow)

	_, err = v.StreamLimit(math.MaxInt)
	require.ErrorIs(t, err, svb16.ErrOverflow)

	_, err = v.Decode(nil, math.MaxInt)
	require.ErrorIs(t, err, svb16.ErrOverflow)
}

func TestVBZConcurrent(t *testing.T) {
	t.Parallel()

	v := svb16.NewVBZ()
	samples := []int16{100, -100, 200, -200, 300, -300}
	enc, err := v.Encode(samples)
	require.NoError(t, err)

	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 50 {
				got, err := v.Decode(enc, len(samples))
				assert.NoError(t, err)
				assert.Equal(t, samples, got)
			}
		}()
	}
	for range 8 {
		<-done
	}
}
