package renderer

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// MaxGpuMeshes is the default number of slots in the mesh descriptor table.
const MaxGpuMeshes = 1024

// GpuMesh locates the streams of one mesh in the geometry arena. Shaders
// index the mesh descriptor table with the mesh slot.
type GpuMesh struct {
	VertexCoreOffset uint32
	VertexUVOffset   uint32
	VertexMatOffset  uint32
	VertexAuxOffset  uint32
	MatDataOffset    uint32
	IndexOffset      uint32
}

const gpuMeshSize = uint64(unsafe.Sizeof(GpuMesh{}))

func gpuMeshFromOffsets(o MeshStreamOffsets) GpuMesh {
	return GpuMesh{
		VertexCoreOffset: uint32(o.VertexCore),
		VertexUVOffset:   uint32(o.VertexUV),
		VertexMatOffset:  uint32(o.VertexMat),
		VertexAuxOffset:  uint32(o.VertexAux),
		MatDataOffset:    uint32(o.MatData),
		IndexOffset:      uint32(o.Index),
	}
}

// MeshTable is the fixed size array of GpuMesh records in GPU visible memory.
type MeshTable struct {
	buffer   *SharedBuffer
	capacity uint32
}

func NewMeshTable(device Device, capacity uint32) (*MeshTable, error) {
	buf, err := device.CreateBuffer(metadata.BufferDesc{
		Size:     uint64(capacity) * gpuMeshSize,
		Usage:    metadata.BufferUsageStorage,
		Location: metadata.MemoryLocationCpuToGpu,
	}, "mesh descriptor table", nil)
	if err != nil {
		return nil, fmt.Errorf("creating mesh descriptor table: %w", err)
	}
	return &MeshTable{buffer: NewSharedBuffer(buf), capacity: capacity}, nil
}

func (t *MeshTable) Capacity() uint32 {
	return t.capacity
}

func (t *MeshTable) Buffer() *SharedBuffer {
	return t.buffer
}

// Write stores the record for slot.
func (t *MeshTable) Write(slot uint32, mesh GpuMesh) error {
	if slot >= t.capacity {
		return fmt.Errorf("mesh slot %d of %d: %w", slot, t.capacity, core.ErrCapacityExceeded)
	}
	w, err := t.buffer.BorrowMut()
	if err != nil {
		return err
	}
	defer w.Release()

	written := uint64(slot) * gpuMeshSize
	_, err = AppendBufferData(w.Bytes, &written, []GpuMesh{mesh})
	return err
}

// Read returns the record stored for slot.
func (t *MeshTable) Read(slot uint32) (GpuMesh, error) {
	if slot >= t.capacity {
		return GpuMesh{}, fmt.Errorf("mesh slot %d of %d: %w", slot, t.capacity, core.ErrPrecondition)
	}
	out := make([]GpuMesh, 1)
	if err := ReadAt(t.buffer, uint64(slot)*gpuMeshSize, out); err != nil {
		return GpuMesh{}, err
	}
	return out[0], nil
}
