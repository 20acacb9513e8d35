package flowtx

import (
	"errors"
	"testing"

	"github.com/onflow/flow-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"30", "30.00"},
		{"30.0", "30.00"},
		{"30.456", "30.46"},
		{"30.455", "30.46"},
		{"30.454", "30.45"},
		{"0.005", "0.01"},
		{"0.004", "0.00"},
		{"0", "0.00"},
		{".5", "0.50"},
		{"7.", "7.00"},
		{" 12.3 ", "12.30"},
		{"99.995", "100.00"},
		{"184467440737.09", "184467440737.09"},
	}
	for _, c := range cases {
		got, err := FormatAmount(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestFormatAmountRejects(t *testing.T) {
	for _, in := range []string{"", "-1", "abc", "1e3", "1,5", "1.2.3", "0x10", "184467440737.1", "1/3"} {
		_, err := FormatAmount(in)
		assert.True(t, errors.Is(err, ErrInvalidAmount), "input %q: %v", in, err)
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0xf8d6e0586b0a20c7")
	require.NoError(t, err)
	assert.Equal(t, flow.HexToAddress("f8d6e0586b0a20c7"), addr)

	addr, err = ParseAddress("1cf0e2f2f715450")
	require.NoError(t, err)
	assert.Equal(t, "0x01cf0e2f2f715450", addr.HexWithPrefix())

	for _, in := range []string{"", "0x", "not-an-address", "0x0123456789abcdef01"} {
		_, err := ParseAddress(in)
		assert.ErrorIs(t, err, ErrInvalidAddress, in)
	}
}
