package renderer

import (
	"encoding/binary"
	"testing"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendBufferDataAlignsToElement(t *testing.T) {
	dst := make([]byte, 32)
	var written uint64

	off, err := AppendBufferData(dst, &written, []uint8{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), off)
	assert.Equal(t, uint64(3), written)

	off, err = AppendBufferData(dst, &written, []uint32{0xdeadbeef})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), off)
	assert.Equal(t, uint64(8), written)
	assert.Equal(t, uint32(0xdeadbeef), binary.LittleEndian.Uint32(dst[4:8]))

	off, err = AppendBufferData(dst, &written, [][2]float32{{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, uint64(8), off)
	assert.Equal(t, uint64(16), written)
}

func TestAppendBufferDataEmpty(t *testing.T) {
	written := uint64(5)
	off, err := AppendBufferData(make([]byte, 8), &written, []uint64(nil))
	require.NoError(t, err)
	assert.Zero(t, off)
	assert.Equal(t, uint64(5), written)
}

func TestAppendBufferDataOverflowWritesNothing(t *testing.T) {
	dst := make([]byte, 10)
	written := uint64(2)

	_, err := AppendBufferData(dst, &written, []uint32{1, 2})
	assert.ErrorIs(t, err, core.ErrCapacityExceeded)
	assert.Equal(t, uint64(2), written)
	assert.Equal(t, make([]byte, 10), dst)

	// Exactly filling the buffer is fine.
	off, err := AppendBufferData(dst, &written, []uint16{7, 7, 7, 7})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), off)
	assert.Equal(t, uint64(10), written)
}

func TestAppendBufferDataRejectsPaddedElements(t *testing.T) {
	type padded struct {
		A uint8
		B uint32
	}
	var written uint64

	_, err := AppendBufferData(make([]byte, 64), &written, []padded{{1, 2}})
	assert.ErrorIs(t, err, core.ErrUnpackableElement)

	_, err = AppendBufferData(make([]byte, 64), &written, []string{"mesh"})
	assert.ErrorIs(t, err, core.ErrUnpackableElement)
	assert.Zero(t, written)
}

func TestBufferBuilderSharesCursor(t *testing.T) {
	dst := make([]byte, 64)
	var written uint64
	b := NewBufferBuilder(dst, &written)

	a, err := Append(b, []uint16{1})
	require.NoError(t, err)
	c, err := Append(b, []float32{2.5})
	require.NoError(t, err)

	assert.Equal(t, uint64(0), a)
	assert.Equal(t, uint64(4), c)
	assert.Equal(t, uint64(8), b.Written())
	assert.Equal(t, written, b.Written())
}
