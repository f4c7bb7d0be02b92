package renderer

import (
	"testing"

	"github.com/spaghettifunk/lumen/engine/renderer/headless"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/stretchr/testify/require"
)

var _ Device = (*headless.Device)(nil)

func newTestDevice(t *testing.T) *headless.Device {
	t.Helper()
	d := headless.New()
	t.Cleanup(func() { _ = d.Destroy() })
	return d
}

func triangleMesh(material uint32) *metadata.PackedTriangleMesh {
	return &metadata.PackedTriangleMesh{
		Verts: []metadata.PackedVertex{
			{Pos: [3]float32{0, 0, 0}},
			{Pos: [3]float32{1, 0, 0}},
			{Pos: [3]float32{0, 1, 0}},
		},
		Uvs:         [][2]float32{{0, 0}, {1, 0}, {0, 1}},
		Colors:      [][4]float32{{1, 1, 1, 1}, {1, 1, 1, 1}, {1, 1, 1, 1}},
		Indices:     []uint32{0, 1, 2},
		MaterialIDs: []uint32{material, material, material},
		Materials: []metadata.MeshMaterial{{
			BaseColorMult: [4]float32{1, 1, 1, 1},
			RoughnessMult: 1,
		}},
	}
}

func requireSharedBufferFree(t *testing.T, s *SharedBuffer) {
	t.Helper()
	w, err := s.BorrowMut()
	require.NoError(t, err)
	w.Release()
}
