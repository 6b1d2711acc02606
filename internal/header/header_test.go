package header

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeader_SetGetDelete(t *testing.T) {
	h := New(
		Card{Key: "XTENSION", Value: "BINTABLE"},
		Card{Key: "NAXIS1", Value: 8},
	)
	h.Set("naxis2", 3)
	h.Set("NAXIS1", 12)

	n, ok := h.Int("NAXIS1")
	require.True(t, ok)
	require.Equal(t, int64(12), n)
	require.Equal(t, int64(3), h.IntOr("NAXIS2", 0))
	require.Equal(t, int64(7), h.IntOr("THEAP", 7))
	require.Equal(t, []string{"XTENSION", "NAXIS1", "NAXIS2"}, h.Keys())

	h.SetAfter("PCOUNT", 0, "NAXIS1")
	require.Equal(t, []string{"XTENSION", "NAXIS1", "PCOUNT", "NAXIS2"}, h.Keys())

	require.True(t, h.Delete("PCOUNT"))
	require.False(t, h.Delete("PCOUNT"))

	h.Set("TTYPE1", "A")
	h.Set("TFORM1", "J")
	removed := h.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, "T") })
	require.Equal(t, 2, removed)
	require.Equal(t, 3, h.Len())
}

func TestHeader_Extend(t *testing.T) {
	a := New(Card{Key: "A", Value: 1}, Card{Key: "B", Value: 2})
	b := New(Card{Key: "B", Value: 20}, Card{Key: "C", Value: 30})

	keep := a.Copy()
	keep.Extend(b, false)
	require.Equal(t, int64(2), keep.IntOr("B", 0))
	require.Equal(t, int64(30), keep.IntOr("C", 0))

	upd := a.Copy()
	upd.Extend(b, true)
	require.Equal(t, int64(20), upd.IntOr("B", 0))

	// the original is untouched by copies
	require.False(t, a.Has("C"))
}

func TestCard_Image(t *testing.T) {
	c := Card{Key: "TTYPE1", Value: "FLUX", Comment: "label"}
	img := c.Image()
	require.Len(t, img, 80)
	require.True(t, strings.HasPrefix(img, "TTYPE1  = 'FLUX    '"))

	n := Card{Key: "NAXIS1", Value: int64(12)}.Image()
	require.Equal(t, "NAXIS1  = ", n[:10])
	require.Equal(t, "12", strings.TrimSpace(n[10:30]))
}

func TestText_RoundTrip(t *testing.T) {
	h := New(
		Card{Key: "XTENSION", Value: "BINTABLE", Comment: "binary table extension"},
		Card{Key: "NAXIS1", Value: 12},
		Card{Key: "TSCAL1", Value: 0.5},
		Card{Key: "EXTNAME", Value: "it's"},
		Card{Key: "SIMPLE", Value: true},
		Card{Key: "HISTORY", Comment: "made by a test"},
	)

	var buf bytes.Buffer
	require.NoError(t, h.WriteText(&buf))

	got, err := ReadText(&buf)
	require.NoError(t, err)
	require.Equal(t, h.Cards(), got.Cards())
}

func TestReadText_StopsAtEnd(t *testing.T) {
	src := "NAXIS   =                    2\nEND\nNAXIS1  =                    4\n"
	h, err := ReadText(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 1, h.Len())
}

func TestParseCard_Errors(t *testing.T) {
	_, err := ParseCard("KEY     = 'open")
	require.ErrorIs(t, err, ErrBadCard)

	_, err = ParseCard("KEY     = what")
	require.ErrorIs(t, err, ErrBadCard)

	c, err := ParseCard("DBL     = 1.5D2")
	require.NoError(t, err)
	require.Equal(t, 150.0, c.Value)
}
