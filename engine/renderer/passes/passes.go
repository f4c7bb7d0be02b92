package passes

import (
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/rg"
)

// Set index the bindless descriptor set is bound at.
const bindlessSetIndex uint32 = 1

// UploadedTriMesh locates the indices of a registered mesh in the geometry arena.
type UploadedTriMesh struct {
	IndexBufferOffset uint64
	IndexCount        uint32
}

// RasterMeshesData is what the raster pass needs to draw every registered mesh.
type RasterMeshesData struct {
	Meshes       []UploadedTriMesh
	VertexBuffer rg.Handle[metadata.Buffer]
	MeshTable    rg.Handle[metadata.Buffer]
	BindlessSet  metadata.DescriptorSet
}

func divUp(a, b uint32) uint32 {
	return (a + b - 1) / b
}

func CreateImage(g *rg.RenderGraph, desc metadata.ImageDesc) rg.Handle[metadata.Image] {
	return g.CreateImage(desc)
}

func ClearDepth(g *rg.RenderGraph, img rg.Handle[metadata.Image]) {
	g.AddPass("clear depth", rg.PassKindTransfer).
		Write(img, metadata.AccessTransferWrite).
		Clear([4]float32{0, 0, 0, 0})
}

func ClearColor(g *rg.RenderGraph, img rg.Handle[metadata.Image], color [4]float32) {
	g.AddPass("clear color", rg.PassKindTransfer).
		Write(img, metadata.AccessTransferWrite).
		Clear(color)
}

// RasterMeshes draws every mesh into the g-buffer, depth tested.
func RasterMeshes(
	g *rg.RenderGraph,
	renderPass *metadata.RenderPass,
	depth rg.Handle[metadata.Image],
	gbuffer rg.Handle[metadata.Image],
	data RasterMeshesData,
) {
	extent := g.ImageDesc(gbuffer).Extent
	meshes := make([]UploadedTriMesh, len(data.Meshes))
	copy(meshes, data.Meshes)

	g.AddPass("raster meshes", rg.PassKindRaster).
		Shader("raster_simple").
		RenderPass(renderPass).
		Read(data.VertexBuffer, metadata.AccessAnyShaderReadOther).
		Read(data.MeshTable, metadata.AccessAnyShaderReadOther).
		Write(depth, metadata.AccessDepthStencilAttachmentWrite).
		Write(gbuffer, metadata.AccessColorAttachmentWrite).
		BindDescriptorSet(bindlessSetIndex, data.BindlessSet).
		Extent(extent[0], extent[1], 1).
		Payload(meshes)
}

// TraceSunShadowMask traces one shadow ray per depth sample and returns the mask.
func TraceSunShadowMask(
	g *rg.RenderGraph,
	depth rg.Handle[metadata.Image],
	tlas rg.Handle[metadata.AccelerationStructure],
) rg.Handle[metadata.Image] {
	extent := g.ImageDesc(depth).Extent2D()
	mask := g.CreateImage(metadata.NewImageDesc2D(metadata.FormatR8Unorm, extent).
		WithUsage(metadata.ImageUsageStorage | metadata.ImageUsageSampled))

	g.AddPass("trace sun shadow mask", rg.PassKindRayTracing).
		Shader("rt/trace_sun_shadow_mask").
		Read(depth, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer).
		Read(tlas, metadata.AccessAnyShaderReadOther).
		Write(mask, metadata.AccessAnyShaderWrite).
		Extent(extent[0], extent[1], 1)

	return mask
}

// LightGbuffer shades the g-buffer into output.
func LightGbuffer(
	g *rg.RenderGraph,
	gbuffer rg.Handle[metadata.Image],
	depth rg.Handle[metadata.Image],
	sunShadowMask rg.Handle[metadata.Image],
	output rg.Handle[metadata.Image],
	bindless metadata.DescriptorSet,
) {
	extent := g.ImageDesc(output).Extent

	g.AddPass("light gbuffer", rg.PassKindCompute).
		Shader("light_gbuffer").
		Read(gbuffer, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer).
		Read(depth, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer).
		Read(sunShadowMask, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer).
		Write(output, metadata.AccessComputeShaderWrite).
		BindDescriptorSet(bindlessSetIndex, bindless).
		Extent(divUp(extent[0], 8), divUp(extent[1], 8), 1)
}

// ReferencePathTrace adds one path traced sample per pixel to accum.
func ReferencePathTrace(
	g *rg.RenderGraph,
	accum rg.Handle[metadata.Image],
	bindless metadata.DescriptorSet,
	tlas rg.Handle[metadata.AccelerationStructure],
) {
	extent := g.ImageDesc(accum).Extent

	g.AddPass("reference path trace", rg.PassKindRayTracing).
		Shader("rt/reference_path_trace").
		Read(tlas, metadata.AccessAnyShaderReadOther).
		Write(accum, metadata.AccessAnyShaderWrite).
		BindDescriptorSet(bindlessSetIndex, bindless).
		Extent(extent[0], extent[1], 1)
}

// NormalizeAccum divides the accumulated radiance by the sample count.
func NormalizeAccum(g *rg.RenderGraph, accum rg.Handle[metadata.Image], format metadata.Format) rg.Handle[metadata.Image] {
	extent := g.ImageDesc(accum).Extent2D()
	out := g.CreateImage(metadata.NewImageDesc2D(format, extent).
		WithUsage(metadata.ImageUsageStorage | metadata.ImageUsageSampled))

	g.AddPass("normalize accum", rg.PassKindCompute).
		Shader("normalize_accum").
		Read(accum, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer).
		Write(out, metadata.AccessComputeShaderWrite).
		Extent(divUp(extent[0], 8), divUp(extent[1], 8), 1)

	return out
}
