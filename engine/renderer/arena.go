package renderer

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// VertexBufferCapacity is the default size of the geometry arena.
const VertexBufferCapacity uint64 = 1024 * 1024 * 128

// MeshStreamOffsets are the byte offsets of each stream of one mesh within
// the geometry arena.
type MeshStreamOffsets struct {
	Index      uint64
	VertexCore uint64
	VertexUV   uint64
	VertexMat  uint64
	VertexAux  uint64
	MatData    uint64
}

// GeometryArena is a bump allocated device buffer holding the index, vertex
// and material streams of every mesh.
type GeometryArena struct {
	buffer  *SharedBuffer
	written uint64
}

func NewGeometryArena(device Device, capacity uint64) (*GeometryArena, error) {
	buf, err := device.CreateBuffer(metadata.BufferDesc{
		Size: capacity,
		Usage: metadata.BufferUsageStorage |
			metadata.BufferUsageShaderDeviceAddress |
			metadata.BufferUsageIndex |
			metadata.BufferUsageAccelerationStructureBuildInput,
		Location: metadata.MemoryLocationCpuToGpu,
	}, "geometry arena", nil)
	if err != nil {
		return nil, fmt.Errorf("creating geometry arena: %w", err)
	}
	return &GeometryArena{buffer: NewSharedBuffer(buf)}, nil
}

// AppendMeshStreams appends indices, positions, uvs, material ids, colors and
// materials, in that order. The cursor only moves if every stream fits.
func (a *GeometryArena) AppendMeshStreams(mesh *metadata.PackedTriangleMesh) (MeshStreamOffsets, error) {
	w, err := a.buffer.BorrowMut()
	if err != nil {
		return MeshStreamOffsets{}, err
	}
	defer w.Release()

	written := a.written
	b := NewBufferBuilder(w.Bytes, &written)

	var offsets MeshStreamOffsets
	if offsets.Index, err = Append(b, mesh.Indices); err != nil {
		return MeshStreamOffsets{}, fmt.Errorf("index stream: %w", err)
	}
	if offsets.VertexCore, err = Append(b, mesh.Verts); err != nil {
		return MeshStreamOffsets{}, fmt.Errorf("vertex stream: %w", err)
	}
	if offsets.VertexUV, err = Append(b, mesh.Uvs); err != nil {
		return MeshStreamOffsets{}, fmt.Errorf("uv stream: %w", err)
	}
	if offsets.VertexMat, err = Append(b, mesh.MaterialIDs); err != nil {
		return MeshStreamOffsets{}, fmt.Errorf("material id stream: %w", err)
	}
	if offsets.VertexAux, err = Append(b, mesh.Colors); err != nil {
		return MeshStreamOffsets{}, fmt.Errorf("color stream: %w", err)
	}
	if offsets.MatData, err = Append(b, mesh.Materials); err != nil {
		return MeshStreamOffsets{}, fmt.Errorf("material stream: %w", err)
	}

	a.written = written
	return offsets, nil
}

// Truncate moves the cursor back to mark and zeroes everything appended since.
// Marks past the cursor are ignored.
func (a *GeometryArena) Truncate(mark uint64) {
	if mark >= a.written {
		return
	}
	if w, err := a.buffer.BorrowMut(); err == nil {
		clear(w.Bytes[mark:a.written])
		w.Release()
	}
	a.written = mark
}

// DeviceAddress is the device address of the first byte of the arena.
func (a *GeometryArena) DeviceAddress() uint64 {
	return a.buffer.DeviceAddress()
}

// Written is the number of bytes used so far.
func (a *GeometryArena) Written() uint64 {
	return a.written
}

func (a *GeometryArena) Capacity() uint64 {
	return a.buffer.Size()
}

func (a *GeometryArena) Buffer() *SharedBuffer {
	return a.buffer
}
