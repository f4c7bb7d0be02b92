package assets

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAssets(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "textures"), 0o755))

	f, err := os.Create(filepath.Join(root, "textures", "white.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, f.Close())

	obj := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "tri.obj"), []byte(obj), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o644))
	return root
}

func TestAssetManagerIndexesLoadableFiles(t *testing.T) {
	root := writeAssets(t)
	am, err := NewAssetManager(root)
	require.NoError(t, err)

	all := am.Assets(loaders.ResourceTypeNone)
	require.Len(t, all, 2)
	assert.Equal(t, filepath.Join(root, "textures", "white.png"), all[0].Path)
	assert.Equal(t, loaders.ResourceTypeImage, all[0].Type)
	assert.Len(t, am.Assets(loaders.ResourceTypeModel), 1)
}

func TestAssetManagerLoads(t *testing.T) {
	root := writeAssets(t)
	am, err := NewAssetManager(root)
	require.NoError(t, err)

	img, err := am.LoadImage("textures/white.png", metadata.ImageResourceParams{})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), img.Width)

	model, err := am.LoadModel("tri.obj")
	require.NoError(t, err)
	assert.Len(t, model.Mesh.Indices, 3)

	// Absolute paths bypass the root.
	model, err = am.LoadModel(filepath.Join(root, "tri.obj"))
	require.NoError(t, err)
	assert.Equal(t, root, model.Dir)
}

func TestAssetManagerRejectsWrongTypes(t *testing.T) {
	am, err := NewAssetManager(writeAssets(t))
	require.NoError(t, err)

	_, err = am.LoadImage("tri.obj", metadata.ImageResourceParams{})
	assert.ErrorIs(t, err, core.ErrPrecondition)

	_, err = am.LoadModel("notes.txt")
	assert.ErrorIs(t, err, core.ErrPrecondition)

	_, err = am.LoadAsset("notes.txt", nil)
	assert.ErrorIs(t, err, core.ErrPrecondition)
}

func TestNewAssetManagerRequiresDirectory(t *testing.T) {
	root := writeAssets(t)
	_, err := NewAssetManager(filepath.Join(root, "tri.obj"))
	assert.ErrorIs(t, err, core.ErrPrecondition)

	_, err = NewAssetManager(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestDetermineAssetType(t *testing.T) {
	assert.Equal(t, loaders.ResourceTypeImage, determineAssetType("a/B.PNG"))
	assert.Equal(t, loaders.ResourceTypeImage, determineAssetType("x.webp"))
	assert.Equal(t, loaders.ResourceTypeModel, determineAssetType("x.obj"))
	assert.Equal(t, loaders.ResourceTypeNone, determineAssetType("x.mtl"))
}
