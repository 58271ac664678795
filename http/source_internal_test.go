package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  int64
		ok    bool
	}{
		{value: "bytes 0-0/1234", want: 1234, ok: true},
		{value: "  bytes 0-0/7 ", want: 7, ok: true},
		{value: "bytes 0-0/*"},
		{value: "bytes 0-0"},
		{value: "items 0-0/10"},
		{value: "bytes 0-0/-5"},
		{value: "bytes 0-0/ten"},
	}
	for _, tt := range tests {
		got, err := parseContentRange(tt.value)
		if !tt.ok {
			require.Error(t, err, tt.value)
			continue
		}
		require.NoError(t, err, tt.value)
		assert.Equal(t, tt.want, got)
	}
}
