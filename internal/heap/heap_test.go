package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_AppendRowMajor(t *testing.T) {
	l := NewLayout()

	// field 1: float32 rows [1], [2], [0]
	assert.Equal(t, Descriptor{Len: 1, Offset: 0}, l.Append(1, 1, 4))
	assert.Equal(t, Descriptor{Len: 2, Offset: 4}, l.Append(1, 2, 4))
	assert.Equal(t, Descriptor{Len: 0, Offset: 0}, l.Append(1, 0, 4))

	// field 0 after field 1: offsets keep growing
	assert.Equal(t, Descriptor{Len: 3, Offset: 12}, l.Append(0, 3, 8))

	assert.Equal(t, int64(36), l.Size())
	assert.Equal(t, []int{1, 0}, l.Fields())
	assert.Len(t, l.Descriptors(1), 3)
	assert.Equal(t, 2, l.MaxLen(1))
	assert.Equal(t, 3, l.MaxLen(0))
	assert.Equal(t, 0, l.MaxLen(5))
}

func TestDescriptor_PutRead(t *testing.T) {
	d := Descriptor{Len: 3, Offset: 0x0102}

	short := make([]byte, Size(false))
	Put(short, false, d)
	assert.Equal(t, []byte{0, 0, 0, 3, 0, 0, 1, 2}, short)
	assert.Equal(t, d, Read(short, false))

	long := make([]byte, Size(true))
	Put(long, true, d)
	assert.Equal(t, byte(3), long[7])
	assert.Equal(t, byte(2), long[15])
	assert.Equal(t, d, Read(long, true))
}

func TestDescriptor_Check(t *testing.T) {
	require.NoError(t, Descriptor{Len: 2, Offset: 4}.Check(4, 12))
	require.NoError(t, Descriptor{}.Check(8, 0))

	assert.ErrorIs(t, Descriptor{Len: 2, Offset: 8}.Check(4, 12), ErrOutOfRange)
	assert.ErrorIs(t, Descriptor{Len: -1}.Check(4, 12), ErrOutOfRange)
}
