package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-4, 0, 10))
	assert.Equal(t, 10, Clamp(14, 0, 10))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		operand, granularity, want uint64
	}{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 8, 8},
		{257, 256, 512},
		{7, 1, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlignUp(tt.operand, tt.granularity))
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	assert.False(t, IsPowerOfTwo(uint32(0)))
	assert.True(t, IsPowerOfTwo(uint32(1)))
	assert.True(t, IsPowerOfTwo(uint64(256)))
	assert.False(t, IsPowerOfTwo(uint(12)))
}

func TestMaxOf(t *testing.T) {
	assert.Equal(t, uint32(0), MaxOf([]uint32{}))
	assert.Equal(t, uint32(9), MaxOf([]uint32{3, 9, 1}))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "2.00 KiB", FormatBytes(2048))
	assert.Equal(t, "64.00 KiB", FormatBytes(64*1024))
	assert.Equal(t, "1.50 MiB", FormatBytes(3<<19))
}
