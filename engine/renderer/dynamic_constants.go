package renderer

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const (
	DynamicConstantsSizeBytes           uint64 = 1024 * 1024 * 16
	MaxDynamicConstantsBytesPerDispatch uint64 = 16384
	DynamicConstantsAlignment           uint64 = 256

	// Frames the CPU may record ahead of the GPU. Each gets its own region.
	FramesInFlight uint64 = 2
)

// DynamicConstants is a ring of uniform memory split into one region per
// frame in flight. Pushes within a frame are bump allocated.
type DynamicConstants struct {
	buffer           *SharedBuffer
	frameOffsetBytes uint64
	frameParity      uint64
}

func NewDynamicConstants(device Device) (*DynamicConstants, error) {
	buf, err := device.CreateBuffer(metadata.BufferDesc{
		Size:     DynamicConstantsSizeBytes,
		Usage:    metadata.BufferUsageUniform,
		Location: metadata.MemoryLocationCpuToGpu,
	}, "dynamic constants", nil)
	if err != nil {
		return nil, fmt.Errorf("creating dynamic constants buffer: %w", err)
	}
	return &DynamicConstants{buffer: NewSharedBuffer(buf)}, nil
}

func (d *DynamicConstants) regionSize() uint64 {
	return d.buffer.Size() / FramesInFlight
}

// AdvanceFrame switches to the next region and resets its cursor.
func (d *DynamicConstants) AdvanceFrame() {
	d.frameParity = (d.frameParity + 1) % FramesInFlight
	d.frameOffsetBytes = 0
}

// CurrentOffset is the buffer offset the next push will land at.
func (d *DynamicConstants) CurrentOffset() uint32 {
	return uint32(d.frameParity*d.regionSize() + math.AlignUp(d.frameOffsetBytes, DynamicConstantsAlignment))
}

func (d *DynamicConstants) Buffer() *SharedBuffer {
	return d.buffer
}

// PushConstants copies value into the current frame region and returns its
// offset from the start of the buffer.
func PushConstants[T any](d *DynamicConstants, value T) (uint32, error) {
	return PushConstantsSlice(d, []T{value})
}

func PushConstantsSlice[T any](d *DynamicConstants, values []T) (uint32, error) {
	var zero T
	if n := uint64(len(values)) * uint64(unsafe.Sizeof(zero)); n > MaxDynamicConstantsBytesPerDispatch {
		return 0, fmt.Errorf("pushing %d bytes of constants in one go, limit is %d: %w", n, MaxDynamicConstantsBytesPerDispatch, core.ErrCapacityExceeded)
	}

	w, err := d.buffer.BorrowMut()
	if err != nil {
		return 0, err
	}
	defer w.Release()

	size := d.regionSize()
	regionStart := d.frameParity * size
	region := w.Bytes[regionStart : regionStart+size]

	written := math.AlignUp(d.frameOffsetBytes, DynamicConstantsAlignment)
	offset, err := AppendBufferData(region, &written, values)
	if err != nil {
		return 0, err
	}
	d.frameOffsetBytes = written
	return uint32(regionStart + offset), nil
}
