package loaders

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	// Decoders registered with image.Decode.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type ImageLoader struct{}

func (il *ImageLoader) Load(path string, params interface{}) (*Resource, error) {
	typedParams := metadata.ImageResourceParams{}
	switch p := params.(type) {
	case nil:
	case metadata.ImageResourceParams:
		typedParams = p
	case *metadata.ImageResourceParams:
		typedParams = *p
	default:
		return nil, fmt.Errorf("image loader: unexpected parameters %T", params)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	core.LogDebug("decoded %s image %s (%dx%d)", format, path, img.Bounds().Dx(), img.Bounds().Dy())

	data := ToImageResourceData(img, typedParams)
	return &Resource{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FullPath: path,
		Type:     ResourceTypeImage,
		DataSize: uint64(len(data.Pixels)),
		Data:     data,
	}, nil
}

// ToImageResourceData converts any decoded image into tightly packed RGBA8
// pixels, downscaling it first if it exceeds params.MaxDimension.
func ToImageResourceData(img image.Image, params metadata.ImageResourceParams) *metadata.ImageResourceData {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if m := int(params.MaxDimension); m > 0 && (w > m || h > m) {
		if w >= h {
			w, h = m, max(1, h*m/w)
		} else {
			w, h = max(1, w*m/h), m
		}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), img, b, draw.Src, nil)
	}

	if params.FlipY {
		stride := rgba.Stride
		row := make([]byte, stride)
		for y := 0; y < h/2; y++ {
			top := rgba.Pix[y*stride : (y+1)*stride]
			bottom := rgba.Pix[(h-1-y)*stride : (h-y)*stride]
			copy(row, top)
			copy(top, bottom)
			copy(bottom, row)
		}
	}

	return &metadata.ImageResourceData{
		ChannelCount: 4,
		Width:        uint32(w),
		Height:       uint32(h),
		Pixels:       rgba.Pix,
	}
}
