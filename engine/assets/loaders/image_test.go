package loaders

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func TestImageLoaderDecodesRGBA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gradient.png")
	writePNG(t, path, gradient(4, 2))

	loader := &ImageLoader{}
	res, err := loader.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "gradient", res.Name)
	assert.Equal(t, ResourceTypeImage, res.Type)
	data := res.Data.(*metadata.ImageResourceData)
	assert.Equal(t, uint32(4), data.Width)
	assert.Equal(t, uint32(2), data.Height)
	assert.Equal(t, uint8(4), data.ChannelCount)
	assert.Len(t, data.Pixels, 4*2*4)
	assert.Equal(t, uint64(len(data.Pixels)), res.DataSize)
	// Pixel (3, 1).
	assert.Equal(t, []uint8{3, 1, 7, 255}, data.Pixels[(1*4+3)*4:(1*4+3)*4+4])
}

func TestImageLoaderFlipY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flip.png")
	writePNG(t, path, gradient(2, 3))

	loader := &ImageLoader{}
	res, err := loader.Load(path, &metadata.ImageResourceParams{FlipY: true})
	require.NoError(t, err)

	data := res.Data.(*metadata.ImageResourceData)
	// The first row now holds source row 2.
	assert.Equal(t, uint8(2), data.Pixels[1])
}

func TestImageLoaderRejectsUnknownParams(t *testing.T) {
	loader := &ImageLoader{}
	_, err := loader.Load("unused.png", 42)
	assert.ErrorContains(t, err, "unexpected parameters int")
}

func TestToImageResourceDataDownscales(t *testing.T) {
	data := ToImageResourceData(gradient(64, 16), metadata.ImageResourceParams{MaxDimension: 16})
	assert.Equal(t, uint32(16), data.Width)
	assert.Equal(t, uint32(4), data.Height)
	assert.Len(t, data.Pixels, 16*4*4)

	data = ToImageResourceData(gradient(8, 8), metadata.ImageResourceParams{MaxDimension: 16})
	assert.Equal(t, uint32(8), data.Width)
}
