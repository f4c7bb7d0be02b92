package renderer

import (
	"testing"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeshTableWriteRead(t *testing.T) {
	table, err := NewMeshTable(newTestDevice(t), 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4)*gpuMeshSize, table.Buffer().Size())

	want := GpuMesh{
		VertexCoreOffset: 16,
		VertexUVOffset:   64,
		VertexMatOffset:  88,
		VertexAuxOffset:  100,
		MatDataOffset:    148,
		IndexOffset:      0,
	}
	require.NoError(t, table.Write(3, want))

	got, err := table.Read(3)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	untouched, err := table.Read(2)
	require.NoError(t, err)
	assert.Zero(t, untouched)
}

func TestMeshTableBounds(t *testing.T) {
	table, err := NewMeshTable(newTestDevice(t), 2)
	require.NoError(t, err)

	assert.ErrorIs(t, table.Write(2, GpuMesh{}), core.ErrCapacityExceeded)
	_, err = table.Read(2)
	assert.ErrorIs(t, err, core.ErrPrecondition)
}

func TestGpuMeshFromOffsets(t *testing.T) {
	m := gpuMeshFromOffsets(MeshStreamOffsets{Index: 1, VertexCore: 2, VertexUV: 3, VertexMat: 4, VertexAux: 5, MatData: 6})
	assert.Equal(t, GpuMesh{
		VertexCoreOffset: 2,
		VertexUVOffset:   3,
		VertexMatOffset:  4,
		VertexAuxOffset:  5,
		MatDataOffset:    6,
		IndexOffset:      1,
	}, m)
}
