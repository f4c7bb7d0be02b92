package renderer

import (
	"testing"
	"unsafe"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/rg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryArenaStreamOrder(t *testing.T) {
	arena, err := NewGeometryArena(newTestDevice(t), 4096)
	require.NoError(t, err)
	mesh := triangleMesh(3)

	o, err := arena.AppendMeshStreams(mesh)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), o.Index)
	assert.Equal(t, uint64(12), o.VertexCore)
	assert.Equal(t, o.VertexCore+3*uint64(unsafe.Sizeof(metadata.PackedVertex{})), o.VertexUV)
	assert.Equal(t, o.VertexUV+3*8, o.VertexMat)
	assert.Equal(t, o.VertexMat+3*4, o.VertexAux)
	assert.Equal(t, o.VertexAux+3*16, o.MatData)
	assert.Equal(t, o.MatData+uint64(unsafe.Sizeof(metadata.MeshMaterial{})), arena.Written())

	ids := make([]uint32, 3)
	require.NoError(t, ReadAt(arena.Buffer(), o.VertexMat, ids))
	assert.Equal(t, []uint32{3, 3, 3}, ids)

	verts := make([]metadata.PackedVertex, 3)
	require.NoError(t, ReadAt(arena.Buffer(), o.VertexCore, verts))
	assert.Equal(t, mesh.Verts, verts)
}

func TestGeometryArenaSecondMeshFollowsFirst(t *testing.T) {
	arena, err := NewGeometryArena(newTestDevice(t), 4096)
	require.NoError(t, err)

	_, err = arena.AppendMeshStreams(triangleMesh(0))
	require.NoError(t, err)
	first := arena.Written()

	o, err := arena.AppendMeshStreams(triangleMesh(1))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, o.Index, first)
	assert.Zero(t, o.Index%4)
}

func TestGeometryArenaFullAppendLeavesCursor(t *testing.T) {
	arena, err := NewGeometryArena(newTestDevice(t), 64)
	require.NoError(t, err)

	_, err = arena.AppendMeshStreams(triangleMesh(0))
	assert.ErrorIs(t, err, core.ErrCapacityExceeded)
	assert.Zero(t, arena.Written())

	// The borrow was released on the error path.
	requireSharedBufferFree(t, arena.Buffer())
}

func TestGeometryArenaRefusesWritesWhileLeased(t *testing.T) {
	arena, err := NewGeometryArena(newTestDevice(t), 4096)
	require.NoError(t, err)

	g := rg.New()
	_, err = arena.Buffer().Import(g, metadata.AccessAnyShaderReadOther)
	require.NoError(t, err)
	assert.Equal(t, 1, arena.Buffer().Leases())

	_, err = arena.AppendMeshStreams(triangleMesh(0))
	assert.ErrorIs(t, err, core.ErrBufferAliased)

	_, err = g.Retire()
	require.NoError(t, err)
	assert.Zero(t, arena.Buffer().Leases())

	_, err = arena.AppendMeshStreams(triangleMesh(0))
	assert.NoError(t, err)
}

func TestSharedBufferExclusiveWriter(t *testing.T) {
	arena, err := NewGeometryArena(newTestDevice(t), 256)
	require.NoError(t, err)
	s := arena.Buffer()

	w, err := s.BorrowMut()
	require.NoError(t, err)

	_, err = s.BorrowMut()
	assert.ErrorIs(t, err, core.ErrBufferAliased)
	_, err = s.Lease()
	assert.ErrorIs(t, err, core.ErrBufferAliased)

	w.Release()
	w.Release()

	lease, err := s.Lease()
	require.NoError(t, err)
	lease.Release()
	lease.Release()
	assert.Zero(t, s.Leases())
}

func TestSharedBufferNotMapped(t *testing.T) {
	buf, err := newTestDevice(t).CreateBuffer(metadata.BufferDesc{
		Size:     16,
		Usage:    metadata.BufferUsageStorage,
		Location: metadata.MemoryLocationGpuOnly,
	}, "device local", nil)
	require.NoError(t, err)

	_, err = NewSharedBuffer(buf).BorrowMut()
	assert.ErrorIs(t, err, core.ErrNotMapped)
}
