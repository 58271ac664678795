package svb16_test

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pod5/svb16"
)

// zigzag maps a signed delta the way the encoder does.
func zigzag(d int16) uint16 {
	return uint16(d<<1) ^ uint16(d>>15)
}

func TestDecodeReferenceFixture(t *testing.T) {
	t.Parallel()

	// Control byte 0b10101010 marks elements 1 and 3 as two bytes wide.
	src := []byte{0b10101010, 10, 0xd2, 0x04, 20, 0x29, 0x09, 30}

	got, err := svb16.Decode(src, 5)
	require.NoError(t, err)

	// The stored values are zigzagged deltas; rebuild the expected samples.
	var want []int16
	var acc int16
	for _, u := range []uint16{10, 1234, 20, 2345, 30} {
		d := int16(u>>1) ^ -int16(u&1)
		acc += d
		want = append(want, acc)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, []int16{5, 622, 632, -541, -526}, got)
}

func TestBitLayoutFixtures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     []byte
		samples []int16
	}{
		{name: "empty", src: []byte{}, samples: []int16{}},
		{name: "one narrow", src: []byte{0x00, 0x06}, samples: []int16{3}},
		{name: "one wide", src: []byte{0x01, 0x57, 0x02}, samples: []int16{-300}},
		{
			name:    "four",
			src:     []byte{0x04, 2, 3, 0x92, 0x01, 0},
			samples: []int16{1, -1, 200, 200},
		},
		{
			name:    "eight fills one control byte",
			src:     []byte{0x80, 0, 2, 2, 2, 2, 2, 2, 0xc4, 0x07},
			samples: []int16{0, 1, 2, 3, 4, 5, 6, 1000},
		},
		{
			name:    "nine needs a second control byte",
			src:     []byte{0x80, 0x01, 0, 2, 2, 2, 2, 2, 2, 0xc4, 0x07, 0x9f, 0x0f},
			samples: []int16{0, 1, 2, 3, 4, 5, 6, 1000, -1000},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := svb16.Decode(tt.src, len(tt.samples))
			require.NoError(t, err)
			assert.Equal(t, tt.samples, got)

			assert.Equal(t, tt.src, svb16.Encode(tt.samples))
		})
	}
}

func TestDecodeQuadFixture(t *testing.T) {
	t.Parallel()

	// Selectors 0, 1, 2, 3 in one control byte: 0b11_10_01_00.
	src := []byte{
		0b11100100,
		0x02,
		0x04, 0x01,
		0x06, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
	}
	got, err := svb16.Codec{Layout: svb16.LayoutQuad}.Decode(src, 4)
	require.NoError(t, err)
	// Deltas: 2→+1, 0x104→+130, 6→+3, 1→-1.
	assert.Equal(t, []int16{1, 131, 134, 133}, got)
}

func TestDecodeWideSelectorWraps(t *testing.T) {
	t.Parallel()

	// A 4-byte zigzag value keeps only its low 16 bits of delta.
	src := []byte{0b00000011, 0x02, 0x00, 0x02, 0x00}
	got, err := svb16.Codec{Layout: svb16.LayoutQuad}.Decode(src, 1)
	require.NoError(t, err)
	assert.Equal(t, []int16{1}, got)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	random := make([]int16, 1000)
	for i := range random {
		random[i] = int16(rng.IntN(1 << 16)) //nolint:gosec // wraps into int16 range
	}
	smooth := make([]int16, 1000)
	for i := range smooth {
		smooth[i] = int16(500 + i%40 - 20)
	}

	tests := []struct {
		name    string
		samples []int16
	}{
		{name: "empty", samples: []int16{}},
		{name: "one", samples: []int16{42}},
		{name: "three", samples: []int16{1, -1, 300}},
		{name: "four", samples: []int16{0, 0, 0, 0}},
		{name: "five", samples: []int16{10, 1234, 20, 2345, 30}},
		{name: "eight", samples: []int16{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "nine", samples: []int16{-1, -2, -3, -4, -5, -6, -7, -8, -9}},
		{name: "extremes", samples: []int16{math.MinInt16, math.MaxInt16, math.MinInt16, 0, math.MaxInt16}},
		{name: "smooth", samples: smooth},
		{name: "random", samples: random},
	}
	for _, tt := range tests {
		for _, layout := range []svb16.Layout{svb16.LayoutBit, svb16.LayoutQuad} {
			t.Run(tt.name+"/"+layout.String(), func(t *testing.T) {
				t.Parallel()
				c := svb16.Codec{Layout: layout}
				enc := c.Encode(tt.samples)
				assert.LessOrEqual(t, len(enc), layout.MaxEncodedLen(len(tt.samples)))

				got, err := c.Decode(enc, len(tt.samples))
				require.NoError(t, err)
				assert.Equal(t, tt.samples, got)
			})
		}
	}
}

func TestEncodeWidths(t *testing.T) {
	t.Parallel()

	// Deltas 10, -5, 200 zigzag to 20, 9, 400: one, one and two bytes.
	got := svb16.Encode([]int16{10, 5, 205})
	assert.Equal(t, []byte{0b00000100, 20, 9, 0x90, 0x01}, got)
	assert.Equal(t, uint16(400), zigzag(200))

	quad := svb16.Codec{Layout: svb16.LayoutQuad}.Encode([]int16{10, 5, 205})
	assert.Equal(t, []byte{0b00010000, 20, 9, 0x90, 0x01}, quad)
}

func TestAppendEncode(t *testing.T) {
	t.Parallel()

	prefix := []byte{0xde, 0xad}
	out := svb16.Codec{}.AppendEncode(prefix, []int16{1, 2})
	assert.Equal(t, []byte{0xde, 0xad, 0x00, 2, 2}, out)
}

func TestDecodeTrailingBytesIgnored(t *testing.T) {
	t.Parallel()

	enc := svb16.Encode([]int16{3, 1, 4, 1, 5})
	enc = append(enc, 0xff, 0xff, 0xff)

	got, err := svb16.Decode(enc, 5)
	require.NoError(t, err)
	assert.Equal(t, []int16{3, 1, 4, 1, 5}, got)
}

func TestDecodeUnderflow(t *testing.T) {
	t.Parallel()

	full := svb16.Encode([]int16{1000, -1000, 1000, -1000})

	tests := []struct {
		name string
		src  []byte
		n    int
	}{
		{name: "empty input", src: nil, n: 1},
		{name: "control bytes only", src: full[:1], n: 4},
		{name: "short data", src: full[:len(full)-1], n: 4},
		{name: "more samples than bytes", src: full, n: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := svb16.Decode(tt.src, tt.n)
			require.ErrorIs(t, err, svb16.ErrUnderflow)
			assert.Nil(t, got)
		})
	}
}

func TestDecodeOverflow(t *testing.T) {
	t.Parallel()

	for _, n := range []int{-1, math.MinInt, math.MaxInt} {
		_, err := svb16.Decode([]byte{0}, n)
		require.ErrorIs(t, err, svb16.ErrOverflow, "n=%d", n)
	}
}

func TestDecodeZero(t *testing.T) {
	t.Parallel()

	got, err := svb16.Decode(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnknownLayout(t *testing.T) {
	t.Parallel()

	_, err := svb16.Codec{Layout: 9}.Decode([]byte{0, 1}, 1)
	require.ErrorIs(t, err, svb16.ErrLayout)

	_, err = svb16.ParseLayout("octal")
	require.ErrorIs(t, err, svb16.ErrLayout)

	l, err := svb16.ParseLayout("quad")
	require.NoError(t, err)
	assert.Equal(t, svb16.LayoutQuad, l)
}

func TestControlSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		bit  int
		quad int
	}{
		{n: 0, bit: 0, quad: 0},
		{n: 1, bit: 1, quad: 1},
		{n: 4, bit: 1, quad: 1},
		{n: 5, bit: 1, quad: 2},
		{n: 8, bit: 1, quad: 2},
		{n: 9, bit: 2, quad: 3},
		{n: 17, bit: 3, quad: 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.bit, svb16.LayoutBit.ControlSize(tt.n), "bit n=%d", tt.n)
		assert.Equal(t, tt.quad, svb16.LayoutQuad.ControlSize(tt.n), "quad n=%d", tt.n)
	}
}

func TestDecodeConcurrent(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 10000)
	for i := range samples {
		samples[i] = int16(i * 37) //nolint:gosec // wraparound is intended
	}
	enc := svb16.Encode(samples)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svb16.Decode(enc, len(samples))
			assert.NoError(t, err)
			assert.Equal(t, samples, got)
		}()
	}
	wg.Wait()
}
