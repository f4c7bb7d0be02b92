package passes

import (
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/rg"
)

// BrdfFgLutSize is the resolution of the split-sum BRDF table.
const BrdfFgLutSize uint32 = 64

// BrdfFgLutComputer integrates the specular BRDF over the hemisphere for the
// split-sum approximation. X is n.v, Y is roughness.
type BrdfFgLutComputer struct{}

func (BrdfFgLutComputer) Create(device metadata.ImageAllocator) (*metadata.Image, error) {
	return device.CreateImage(
		metadata.NewImageDesc2D(metadata.FormatR16G16Sfloat, [2]uint32{BrdfFgLutSize, BrdfFgLutSize}).
			WithUsage(metadata.ImageUsageStorage|metadata.ImageUsageSampled),
		nil,
	)
}

func (BrdfFgLutComputer) Compute(g *rg.RenderGraph, img rg.Handle[metadata.Image]) {
	g.AddPass("brdf_fg lut", rg.PassKindCompute).
		Shader("lut/brdf_fg").
		Write(img, metadata.AccessComputeShaderWrite).
		Extent(divUp(BrdfFgLutSize, 8), divUp(BrdfFgLutSize, 8), 1)
}
