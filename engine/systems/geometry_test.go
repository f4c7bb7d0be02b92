package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every triangle must wind counter-clockwise around the normal of its vertices.
func assertWinding(t *testing.T, mesh *metadata.PackedTriangleMesh) {
	t.Helper()
	for i := 0; i < len(mesh.Indices); i += 3 {
		a := mgl32.Vec3(mesh.Verts[mesh.Indices[i]].Pos)
		b := mgl32.Vec3(mesh.Verts[mesh.Indices[i+1]].Pos)
		c := mgl32.Vec3(mesh.Verts[mesh.Indices[i+2]].Pos)
		face := b.Sub(a).Cross(c.Sub(a)).Normalize()
		normal := metadata.UnpackNormal(mesh.Verts[mesh.Indices[i]].Normal)
		assert.InDelta(t, 1, face.Dot(normal), 1e-3, "triangle %d", i/3)
	}
}

func assertStreams(t *testing.T, mesh *metadata.PackedTriangleMesh, verts, indices int) {
	t.Helper()
	require.Len(t, mesh.Verts, verts)
	assert.Len(t, mesh.Uvs, verts)
	assert.Len(t, mesh.Colors, verts)
	assert.Len(t, mesh.MaterialIDs, verts)
	assert.Len(t, mesh.Indices, indices)
	assert.Equal(t, []metadata.MeshMaterial{DefaultMaterial}, mesh.Materials)
}

func TestGenerateCube(t *testing.T) {
	mesh := GenerateCube(2, 4, 6, 1, 1)
	assertStreams(t, mesh, 24, 36)
	assertWinding(t, mesh)

	for _, v := range mesh.Verts {
		assert.InDelta(t, 1, abs(v.Pos[0]), 1e-6)
		assert.InDelta(t, 2, abs(v.Pos[1]), 1e-6)
		assert.InDelta(t, 3, abs(v.Pos[2]), 1e-6)
	}
}

func TestGeneratePlane(t *testing.T) {
	mesh := GeneratePlane(4, 2, 2, 3, 2, 1)
	assertStreams(t, mesh, 2*3*4, 2*3*6)
	assertWinding(t, mesh)

	for _, v := range mesh.Verts {
		assert.Zero(t, v.Pos[1])
		assert.LessOrEqual(t, abs(v.Pos[0]), float32(2))
		assert.LessOrEqual(t, abs(v.Pos[2]), float32(1))
	}
	assert.Equal(t, [2]float32{2, 1}, mesh.Uvs[len(mesh.Uvs)-3])
}

func TestGenerateDefaultsZeroSizes(t *testing.T) {
	mesh := GeneratePlane(0, 0, 0, 0, 0, 0)
	assertStreams(t, mesh, 4, 6)
}

func TestTranslateMesh(t *testing.T) {
	mesh := GenerateCube(1, 1, 1, 1, 1)
	TranslateMesh(mesh, mgl32.Vec3{0, 0.5, 0})
	for _, v := range mesh.Verts {
		assert.GreaterOrEqual(t, v.Pos[1], float32(0))
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
