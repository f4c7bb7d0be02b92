package renderer

import (
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/rg"
)

// ImageLutComputer produces a lookup table image on the GPU.
type ImageLutComputer interface {
	// Create allocates the image the table is computed into.
	Create(device metadata.ImageAllocator) (*metadata.Image, error)
	// Compute records the passes filling img into the graph.
	Compute(g *rg.RenderGraph, img rg.Handle[metadata.Image])
}

// ImageLut pairs a lookup table image with the computer which fills it.
type ImageLut struct {
	Image    *metadata.Image
	computer ImageLutComputer
}

func NewImageLut(device metadata.ImageAllocator, computer ImageLutComputer) (*ImageLut, error) {
	img, err := computer.Create(device)
	if err != nil {
		return nil, err
	}
	return &ImageLut{Image: img, computer: computer}, nil
}

// Compute imports the table image, records its compute passes and exports it
// for sampling.
func (l *ImageLut) Compute(g *rg.RenderGraph) {
	dst := g.ImportImage(l.Image, metadata.AccessNothing)
	l.computer.Compute(g, dst)
	g.ExportImage(dst, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer)
}
