package table

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novafits/internal/column"
)

func TestExtension_Lazy(t *testing.T) {
	raw, h := writeAll(t, newScenario(t))
	h.Set("EXTNAME", "EVENTS")

	e := NewExtension(h, raw)
	assert.False(t, e.Loaded())

	s := e.Summary()
	assert.Equal(t, "EVENTS", s.Name)
	assert.Equal(t, "BINTABLE", s.Type)
	assert.Equal(t, "4R x 2C", s.Dims)
	assert.Equal(t, []string{"J", "PE(2)"}, s.Formats)
	assert.Contains(t, s.String(), "4R x 2C")
	assert.False(t, e.Loaded())

	tb, err := e.Table()
	require.NoError(t, err)
	assert.True(t, e.Loaded())
	again, err := e.Table()
	require.NoError(t, err)
	assert.Same(t, tb, again)

	var buf bytes.Buffer
	_, err = e.WriteData(&buf)
	require.NoError(t, err)
	assert.Equal(t, raw, buf.Bytes())

	sum, err := e.Datasum()
	require.NoError(t, err)
	assert.Equal(t, tb.Datasum(), sum)
}

func TestExtension_SetTable(t *testing.T) {
	tb := newScenario(t)
	e := FromTable(tb, nil)
	n := e.Header.Len()

	// same table: nothing changes
	e.Header.Set("NAXIS2", 99)
	e.SetTable(tb)
	rows, _ := e.Header.Int("NAXIS2")
	assert.Equal(t, int64(99), rows)
	assert.Equal(t, n, e.Header.Len())

	other, err := New(Binary, []*column.Column{
		{Name: "X", Format: "D", Array: []float64{1, 2}},
	}, Options{})
	require.NoError(t, err)
	e.SetTable(other)

	rows, _ = e.Header.Int("NAXIS2")
	assert.Equal(t, int64(2), rows)
	assert.False(t, e.Header.Has("TTYPE2"))
	name, _ := e.Header.String("TTYPE1")
	assert.Equal(t, "X", name)
	assert.Same(t, other.Field(0), other.Columns().Column(0).Bound())
}

func TestExtension_Copy(t *testing.T) {
	e := FromTable(newScenario(t), nil)
	cp, err := e.Copy()
	require.NoError(t, err)

	orig, _ := e.Table()
	dup, _ := cp.Table()
	assert.NotSame(t, orig, dup)
	require.NoError(t, dup.Field(0).SetValue(0, 7))
	assert.Equal(t, int64(1), orig.Field(0).Int(0))
	assert.NotEqual(t, orig.Datasum(), dup.Datasum())

	require.NoError(t, dup.Field(0).SetValue(0, 1))
	assert.Equal(t, orig.Datasum(), dup.Datasum())
}

func TestExtension_OpenError(t *testing.T) {
	_, h := writeAll(t, newScenario(t))
	_, err := NewExtension(h, nil).Table()
	assert.Error(t, err)
}
