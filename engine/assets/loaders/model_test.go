package loaders

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func libraries(libs map[string]string) func(string) (io.ReadCloser, error) {
	return func(name string) (io.ReadCloser, error) {
		src, ok := libs[name]
		if !ok {
			return nil, os.ErrNotExist
		}
		return io.NopCloser(strings.NewReader(src)), nil
	}
}

func TestParseOBJQuad(t *testing.T) {
	src := `
# unit quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`
	model, err := ParseOBJ(strings.NewReader(src), "quad.obj", nil)
	require.NoError(t, err)

	mesh := model.Mesh
	assert.Len(t, mesh.Verts, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Indices)
	assert.Equal(t, [2]float32{0, 1}, mesh.Uvs[0])
	assert.Equal(t, [2]float32{1, 0}, mesh.Uvs[2])
	assert.Equal(t, []uint32{0, 0, 0, 0}, mesh.MaterialIDs)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, mesh.Colors[0])

	require.Len(t, mesh.Materials, 1)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, mesh.Materials[0].BaseColorMult)
	assert.InDelta(t, 1, metadata.UnpackNormal(mesh.Verts[0].Normal).Z(), 1e-4)
}

func TestParseOBJSharesVertices(t *testing.T) {
	src := `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3
f 1 3 4
`
	model, err := ParseOBJ(strings.NewReader(src), "shared.obj", nil)
	require.NoError(t, err)
	assert.Len(t, model.Mesh.Verts, 4)
	assert.Len(t, model.Mesh.Indices, 6)
}

func TestParseOBJGeneratesNormals(t *testing.T) {
	src := `
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	model, err := ParseOBJ(strings.NewReader(src), "tri.obj", nil)
	require.NoError(t, err)

	for _, v := range model.Mesh.Verts {
		n := metadata.UnpackNormal(v.Normal)
		assert.InDelta(t, 1, n.Z(), 1e-4)
	}
}

func TestParseOBJNegativeIndicesAndColors(t *testing.T) {
	src := `
v 0 0 0 1 0 0
v 1 0 0 0 1 0
v 0 1 0 0 0 1
vn 0 0 1
f -3//-1 -2//-1 -1//-1
`
	model, err := ParseOBJ(strings.NewReader(src), "neg.obj", nil)
	require.NoError(t, err)
	assert.Equal(t, [3]float32{0, 0, 0}, model.Mesh.Verts[0].Pos)
	assert.Equal(t, [3]float32{0, 1, 0}, model.Mesh.Verts[2].Pos)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, model.Mesh.Colors[0])
	assert.Equal(t, [4]float32{0, 0, 1, 1}, model.Mesh.Colors[2])
}

func TestParseOBJMaterials(t *testing.T) {
	mtl := `
newmtl red
Kd 1 0 0
map_Kd red.png
newmtl blue
Kd 0 0 1
`
	src := `
mtllib scene.mtl
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
usemtl blue
f 1 2 3
usemtl red
f 2 4 3
usemtl blue
f 1 3 4
`
	model, err := ParseOBJ(strings.NewReader(src), "scene.obj", libraries(map[string]string{"scene.mtl": mtl}))
	require.NoError(t, err)

	require.Len(t, model.Materials, 2)
	assert.Equal(t, "blue", model.Materials[0].Name)
	assert.Equal(t, "red", model.Materials[1].Name)
	assert.Equal(t, "red.png", model.Materials[1].Maps[MapAlbedo])
	assert.Equal(t, [4]float32{1, 0, 0, 1}, model.Mesh.Materials[1].BaseColorMult)

	ids := model.Mesh.MaterialIDs
	for i, index := range model.Mesh.Indices {
		want := uint32(0)
		if i/3 == 1 {
			want = 1
		}
		assert.Equal(t, want, ids[index], "triangle %d", i/3)
	}
}

func TestParseOBJErrors(t *testing.T) {
	cases := map[string]struct {
		src  string
		want string
	}{
		"unknown material": {src: "v 0 0 0\nusemtl nope\n", want: `undefined material with name "nope"`},
		"index out of range": {src: "v 0 0 0\nf 1 2 3\n", want: "out of bounds"},
		"short face":         {src: "v 0 0 0\nv 1 0 0\nf 1 2\n", want: "expected at least 3 vertices"},
		"bad coordinate":     {src: "v 0 zero 0\n", want: "bad.obj:1"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(tc.src), "bad.obj", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	_, err := ParseOBJ(strings.NewReader("v 0 0 0\n"), "empty.obj", nil)
	assert.ErrorIs(t, err, core.ErrPrecondition)
}

func TestModelLoaderReadsLibraryNextToModel(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "box.mtl"), []byte("newmtl box\nKd 0.5 0.5 0.5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "box.obj"), []byte("mtllib box.mtl\nusemtl box\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644))

	loader := &ModelLoader{}
	res, err := loader.Load(filepath.Join(dir, "box.obj"), nil)
	require.NoError(t, err)

	assert.Equal(t, "box", res.Name)
	assert.Equal(t, ResourceTypeModel, res.Type)
	model := res.Data.(*Model)
	assert.Equal(t, dir, model.Dir)
	require.Len(t, model.Materials, 1)
	assert.Equal(t, "box", model.Materials[0].Name)
}
