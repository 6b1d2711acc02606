package checksum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum_Words(t *testing.T) {
	data := []byte{0, 1, 0, 2, 0, 3, 0, 4}
	require.Equal(t, uint32(0x00040006), Sum(data, 0))
}

func TestSum_EndAroundCarry(t *testing.T) {
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x01, 0x00, 0x01}
	// both halves overflow to 0x10000 and fold into each other
	require.Equal(t, uint32(0x00010001), Sum(data, 0))
}

func TestSum_Incremental(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 7)
	}
	whole := Sum(data, 0)
	part := Sum(data[:1024], 0)
	part = Sum(data[1024:], part)
	require.Equal(t, whole, part)
}

func TestSum_ZeroPaddingIsNeutral(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	padded := append(append([]byte{}, data...), make([]byte, 2872)...)
	require.Equal(t, Sum(data, 0), Sum(padded, 0))

	// a trailing partial word counts as zero padded
	require.Equal(t, Sum([]byte{9, 9, 0, 0}, 0), Sum([]byte{9, 9}, 0))
}

func TestEncode_Vectors(t *testing.T) {
	require.Equal(t, "0000000000000000", Encode(0, false))
	require.Equal(t, "orrrrooooooooooo", Encode(0, true))
	require.Equal(t, Encode(0xFFFFFFFF, false), Encode(0, true))
}

func TestEncode_AvoidsPunctuation(t *testing.T) {
	for _, v := range []uint32{0x3a3a3a3a, 0xE8E8E8E8, 0x12345678, 0x7f7f7f7f} {
		s := Encode(v, false)
		require.Len(t, s, 16)
		for _, c := range []byte(s) {
			require.NotContains(t, excluded, c, "value %#x -> %q", v, s)
		}
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult(4294967295)
	require.Equal(t, uint32(4294967295), r.Sum)
	require.Equal(t, "4294967295", r.Text)
}
