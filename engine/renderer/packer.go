package renderer

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
)

// AppendBufferData copies data into dst at the first offset past *written
// aligned to the natural alignment of T, advances *written past the copied
// bytes and returns the offset. Empty input returns 0 and leaves *written
// alone. Nothing is written when the data does not fit.
func AppendBufferData[T any](dst []byte, written *uint64, data []T) (uint64, error) {
	if len(data) == 0 {
		return 0, nil
	}

	var zero T
	alignment := uint64(unsafe.Alignof(zero))
	if !math.IsPowerOfTwo(alignment) {
		return 0, fmt.Errorf("%T has alignment %d: %w", zero, alignment, core.ErrInvalidAlignment)
	}
	elemSize := uint64(unsafe.Sizeof(zero))
	if binary.Size(zero) != int(elemSize) {
		return 0, fmt.Errorf("%T: %w", zero, core.ErrUnpackableElement)
	}

	start := math.AlignUp(*written, alignment)
	n := elemSize * uint64(len(data))
	end := start + n
	if start < *written || end < start || end > uint64(len(dst)) {
		return 0, fmt.Errorf("appending %d bytes at offset %d to a %d byte buffer: %w", n, start, len(dst), core.ErrCapacityExceeded)
	}

	if _, err := binary.Encode(dst[start:end], binary.LittleEndian, data); err != nil {
		return 0, err
	}
	*written = end
	return start, nil
}

// BufferBuilder appends typed arrays to a byte region, tracking the cursor.
type BufferBuilder struct {
	dst     []byte
	written *uint64
}

func NewBufferBuilder(dst []byte, written *uint64) *BufferBuilder {
	return &BufferBuilder{dst: dst, written: written}
}

func (b *BufferBuilder) Written() uint64 {
	return *b.written
}

// Append adds data to the builder. It is a function rather than a method
// because methods cannot take type parameters.
func Append[T any](b *BufferBuilder, data []T) (uint64, error) {
	return AppendBufferData(b.dst, b.written, data)
}
