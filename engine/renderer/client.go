package renderer

import (
	"fmt"
	stdmath "math"
	"slices"
	"strings"
	"unsafe"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/passes"
	"github.com/spaghettifunk/lumen/engine/renderer/rg"
)

type RenderMode uint8

const (
	// Rasterized g-buffer lit with ray traced sun shadows.
	RenderModeStandard RenderMode = iota
	// Progressive path tracing into the accumulation image.
	RenderModeReference
)

func (m RenderMode) String() string {
	switch m {
	case RenderModeStandard:
		return "standard"
	case RenderModeReference:
		return "reference"
	default:
		return "unknown"
	}
}

func ParseRenderMode(s string) (RenderMode, error) {
	switch strings.ToLower(s) {
	case "standard":
		return RenderModeStandard, nil
	case "reference":
		return RenderModeReference, nil
	default:
		return RenderModeStandard, fmt.Errorf("unknown render mode %q", s)
	}
}

// ClientConfig sizes the fixed capacity resources of a RenderClient.
type ClientConfig struct {
	ArenaCapacity      uint64
	MaxMeshes          uint32
	MaxBindlessImages  uint32
	AccumulationExtent [2]uint32
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ArenaCapacity:      VertexBufferCapacity,
		MaxMeshes:          MaxGpuMeshes,
		MaxBindlessImages:  MaxBindlessDescriptorCount,
		AccumulationExtent: [2]uint32{1280, 720},
	}
}

// RenderClient owns the renderer's GPU resources and turns every frame into
// a render graph.
type RenderClient struct {
	device                 Device
	rasterSimpleRenderPass *metadata.RenderPass
	accumImg               *TemporalImage

	// One-shot request to clear the accumulation image on the next reference frame.
	ResetReferenceAccumulation bool

	meshes   []passes.UploadedTriMesh
	meshBlas []*metadata.AccelerationStructure
	tlas     *metadata.AccelerationStructure

	meshTable      *MeshTable
	arena          *GeometryArena
	bindless       *BindlessTable
	bindlessImages []*metadata.Image
	imageLuts      []*ImageLut

	RenderMode RenderMode
	frameIdx   uint32
}

func NewRenderClient(device Device, cfg ClientConfig) (*RenderClient, error) {
	if cfg.ArenaCapacity == 0 || cfg.ArenaCapacity > stdmath.MaxUint32 {
		return nil, fmt.Errorf("arena capacity %d must fit 32-bit offsets: %w", cfg.ArenaCapacity, core.ErrPrecondition)
	}
	if cfg.MaxMeshes == 0 {
		return nil, fmt.Errorf("mesh table needs at least one slot: %w", core.ErrPrecondition)
	}

	depth := metadata.NewRenderPassAttachmentDesc(metadata.FormatD24UnormS8Uint)
	rasterSimpleRenderPass, err := device.CreateRenderPass(metadata.RenderPassDesc{
		ColorAttachments: []metadata.RenderPassAttachmentDesc{
			metadata.NewRenderPassAttachmentDesc(metadata.FormatR32G32B32A32Sfloat).GarbageInput(),
		},
		DepthAttachment: &depth,
	})
	if err != nil {
		return nil, fmt.Errorf("creating raster render pass: %w", err)
	}

	meshTable, err := NewMeshTable(device, cfg.MaxMeshes)
	if err != nil {
		return nil, err
	}
	arena, err := NewGeometryArena(device, cfg.ArenaCapacity)
	if err != nil {
		return nil, err
	}
	bindless, err := NewBindlessTable(device, meshTable.Buffer(), arena.Buffer(), cfg.MaxBindlessImages)
	if err != nil {
		return nil, err
	}

	accum, err := device.CreateImage(
		metadata.NewImageDesc2D(metadata.FormatR32G32B32A32Sfloat, cfg.AccumulationExtent).
			WithUsage(metadata.ImageUsageSampled|metadata.ImageUsageStorage|metadata.ImageUsageTransferDst),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("creating accumulation image: %w", err)
	}

	core.LogInfo("render client created on %s device (arena %s, %d mesh slots, %d bindless images)",
		device.Name(), math.FormatBytes(cfg.ArenaCapacity), cfg.MaxMeshes, cfg.MaxBindlessImages)

	return &RenderClient{
		device:                 device,
		rasterSimpleRenderPass: rasterSimpleRenderPass,
		accumImg:               NewTemporalImage(accum),
		meshTable:              meshTable,
		arena:                  arena,
		bindless:               bindless,
		RenderMode:             RenderModeStandard,
	}, nil
}

func (c *RenderClient) registerImage(image *metadata.Image) (BindlessImageHandle, error) {
	view, err := c.device.CreateImageView(image)
	if err != nil {
		return 0, fmt.Errorf("creating view of %q: %w", image.Name, err)
	}
	return c.bindless.RegisterImageView(view)
}

// AddImageLut registers a lookup table. id is the bindless handle shaders
// expect the table at; registering out of order is an error.
func (c *RenderClient) AddImageLut(computer ImageLutComputer, id uint32) error {
	lut, err := NewImageLut(c.device, computer)
	if err != nil {
		return fmt.Errorf("creating lookup table %d: %w", id, err)
	}
	handle, err := c.registerImage(lut.Image)
	if err != nil {
		return err
	}
	if uint32(handle) != id {
		return fmt.Errorf("lookup table registered at %d, expected %d: %w", handle, id, core.ErrHandleMismatch)
	}
	c.imageLuts = append(c.imageLuts, lut)
	return nil
}

// AddImage uploads an RGBA8 image and makes it available to shaders.
func (c *RenderClient) AddImage(src *metadata.ImageResourceData, params metadata.TexParams) (BindlessImageHandle, error) {
	if src.ChannelCount != 4 || uint64(len(src.Pixels)) != uint64(src.Width)*uint64(src.Height)*4 {
		return 0, fmt.Errorf("image %dx%d with %d channels has %d bytes, expected tightly packed RGBA8: %w",
			src.Width, src.Height, src.ChannelCount, len(src.Pixels), core.ErrPrecondition)
	}

	format := metadata.FormatR8G8B8A8Unorm
	if params.Gamma == metadata.TexGammaSrgb {
		format = metadata.FormatR8G8B8A8Srgb
	}

	image, err := c.device.CreateImage(
		metadata.NewImageDesc2D(format, src.Dimensions()).WithUsage(metadata.ImageUsageSampled),
		[]metadata.ImageSubresourceData{{
			Data:     src.Pixels,
			RowPitch: src.Width * 4,
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("creating image: %w", err)
	}

	handle, err := c.registerImage(image)
	if err != nil {
		return 0, err
	}
	c.bindlessImages = append(c.bindlessImages, image)
	return handle, nil
}

// AddMesh appends the mesh to the geometry arena, records it in the mesh
// descriptor table and builds its bottom level acceleration structure. The
// returned slot is also the mesh's instance index in the top level structure.
func (c *RenderClient) AddMesh(mesh *metadata.PackedTriangleMesh) (uint32, error) {
	slot := uint32(len(c.meshes))
	if slot >= c.meshTable.Capacity() {
		return 0, fmt.Errorf("mesh %d of %d: %w", slot, c.meshTable.Capacity(), core.ErrCapacityExceeded)
	}
	if len(mesh.Indices) == 0 {
		return 0, fmt.Errorf("mesh %d has no indices: %w", slot, core.ErrPrecondition)
	}
	if len(mesh.Indices)%3 != 0 {
		return 0, fmt.Errorf("mesh %d has %d indices, not a whole number of triangles: %w", slot, len(mesh.Indices), core.ErrPrecondition)
	}
	maxVertex := math.MaxOf(mesh.Indices)
	if uint64(maxVertex) >= uint64(len(mesh.Verts)) {
		return 0, fmt.Errorf("mesh %d indexes vertex %d of %d: %w", slot, maxVertex, len(mesh.Verts), core.ErrPrecondition)
	}

	mark := c.arena.Written()
	offsets, err := c.arena.AppendMeshStreams(mesh)
	if err != nil {
		return 0, fmt.Errorf("uploading mesh %d: %w", slot, err)
	}

	base := c.arena.DeviceAddress()
	blas, err := c.device.CreateBottomAcceleration(metadata.RayTracingBottomAccelerationDesc{
		Geometries: []metadata.RayTracingGeometryDesc{{
			GeometryType: metadata.RayTracingGeometryTriangle,
			VertexBuffer: base + offsets.VertexCore,
			IndexBuffer:  base + offsets.Index,
			VertexFormat: metadata.FormatR32G32B32Sfloat,
			VertexStride: uint64(unsafe.Sizeof(metadata.PackedVertex{})),
			Parts: []metadata.RayTracingGeometryPart{{
				IndexCount:  uint32(len(mesh.Indices)),
				IndexOffset: 0,
				MaxVertex:   maxVertex,
			}},
		}},
	})
	if err != nil {
		c.arena.Truncate(mark)
		return 0, fmt.Errorf("building bottom level acceleration for mesh %d: %w", slot, err)
	}

	if err := c.meshTable.Write(slot, gpuMeshFromOffsets(offsets)); err != nil {
		c.arena.Truncate(mark)
		return 0, err
	}

	c.meshes = append(c.meshes, passes.UploadedTriMesh{
		IndexBufferOffset: offsets.Index,
		IndexCount:        uint32(len(mesh.Indices)),
	})
	c.meshBlas = append(c.meshBlas, blas)

	core.LogDebug("mesh %d: %d triangles, arena at %d bytes", slot, len(mesh.Indices)/3, c.arena.Written())
	return slot, nil
}

// BuildTopLevelAcceleration instances every registered mesh, in slot order,
// replacing any previous top level structure.
func (c *RenderClient) BuildTopLevelAcceleration() error {
	tlas, err := c.device.CreateTopAcceleration(metadata.RayTracingTopAccelerationDesc{
		Instances: slices.Clone(c.meshBlas),
	})
	if err != nil {
		return fmt.Errorf("building top level acceleration: %w", err)
	}
	c.tlas = tlas
	return nil
}

func (c *RenderClient) ResetFrameIndex() {
	c.frameIdx = 0
}

func (c *RenderClient) FrameIndex() uint32 {
	return c.frameIdx
}

// RequestAccumulationReset clears the accumulation image on the next
// reference mode frame.
func (c *RenderClient) RequestAccumulationReset() {
	c.ResetReferenceAccumulation = true
}

// PrepareRenderGraph records the frame into g and returns the image to
// present. The previous frame's graph must have been retired first.
func (c *RenderClient) PrepareRenderGraph(g *rg.RenderGraph, fs *metadata.FrameState) (rg.ExportedImage, error) {
	if c.tlas == nil {
		return rg.ExportedImage{}, fmt.Errorf("top level acceleration not built: %w", core.ErrPrecondition)
	}
	if c.accumImg.LastRgHandle != nil {
		core.LogWarn("preparing frame %d before the previous graph retired, accumulation access state is stale", c.frameIdx)
	}

	g.PredefinedDescriptorSetLayouts[BindlessDescriptorSetIndex] = rg.PredefinedDescriptorSet{
		Bindings: BindlessDescriptorSetLayout(),
	}

	for _, lut := range c.imageLuts {
		lut.Compute(g)
	}

	switch c.RenderMode {
	case RenderModeReference:
		return c.prepareRenderGraphReference(g, fs)
	default:
		return c.prepareRenderGraphStandard(g, fs)
	}
}

// importSharedBuffers leases the mesh table and arena to the graph. They stay
// read-only until it retires. Either both leases are taken or neither is.
func (c *RenderClient) importSharedBuffers(g *rg.RenderGraph) (rg.Handle[metadata.Buffer], rg.Handle[metadata.Buffer], error) {
	arenaLease, err := c.arena.Buffer().Lease()
	if err != nil {
		return rg.Handle[metadata.Buffer]{}, rg.Handle[metadata.Buffer]{}, err
	}
	tableLease, err := c.meshTable.Buffer().Lease()
	if err != nil {
		arenaLease.Release()
		return rg.Handle[metadata.Buffer]{}, rg.Handle[metadata.Buffer]{}, err
	}
	g.OnRetire(arenaLease.Release)
	g.OnRetire(tableLease.Release)
	return g.ImportBuffer(arenaLease.Buffer(), metadata.AccessAnyShaderReadOther),
		g.ImportBuffer(tableLease.Buffer(), metadata.AccessAnyShaderReadOther), nil
}

func (c *RenderClient) prepareRenderGraphStandard(g *rg.RenderGraph, fs *metadata.FrameState) (rg.ExportedImage, error) {
	dims := fs.Window.Dims()

	depth := passes.CreateImage(g, metadata.NewImageDesc2D(metadata.FormatD24UnormS8Uint, dims))
	passes.ClearDepth(g, depth)

	gbuffer := passes.CreateImage(g, metadata.NewImageDesc2D(metadata.FormatR32G32B32A32Sfloat, dims))
	passes.ClearColor(g, gbuffer, [4]float32{0, 0, 0, 0})

	vertexBuffer, meshTable, err := c.importSharedBuffers(g)
	if err != nil {
		return rg.ExportedImage{}, err
	}
	passes.RasterMeshes(g, c.rasterSimpleRenderPass, depth, gbuffer, passes.RasterMeshesData{
		Meshes:       c.meshes,
		VertexBuffer: vertexBuffer,
		MeshTable:    meshTable,
		BindlessSet:  c.bindless.Set(),
	})

	tlas := g.ImportAcceleration(c.tlas, metadata.AccessAnyShaderReadOther)
	sunShadowMask := passes.TraceSunShadowMask(g, depth, tlas)

	lit := passes.CreateImage(g, metadata.NewImageDesc2D(metadata.FormatR16G16B16A16Sfloat, dims))
	passes.ClearColor(g, lit, [4]float32{0, 0, 0, 0})
	passes.LightGbuffer(g, gbuffer, depth, sunShadowMask, lit, c.bindless.Set())

	return g.ExportImage(lit, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer), nil
}

func (c *RenderClient) prepareRenderGraphReference(g *rg.RenderGraph, _ *metadata.FrameState) (rg.ExportedImage, error) {
	if _, _, err := c.importSharedBuffers(g); err != nil {
		return rg.ExportedImage{}, err
	}

	accum := g.ImportImage(c.accumImg.Resource, c.accumImg.AccessType)

	if c.ResetReferenceAccumulation {
		c.ResetReferenceAccumulation = false
		passes.ClearColor(g, accum, [4]float32{0, 0, 0, 0})
	}

	tlas := g.ImportAcceleration(c.tlas, metadata.AccessAnyShaderReadOther)
	passes.ReferencePathTrace(g, accum, c.bindless.Set(), tlas)

	lit := passes.NormalizeAccum(g, accum, metadata.FormatR16G16B16A16Sfloat)

	exported := g.ExportImage(accum, metadata.AccessNothing)
	c.accumImg.LastRgHandle = &exported

	return g.ExportImage(lit, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer), nil
}

// PrepareFrameConstants pushes this frame's FrameConstants and returns their offset.
func (c *RenderClient) PrepareFrameConstants(dc *DynamicConstants, fs *metadata.FrameState) (uint32, error) {
	return PushConstants(dc, FrameConstants{
		ViewConstants: NewViewConstantsBuilder(fs.CameraMatrices, fs.Window.Width, fs.Window.Height).Build(),
		Mouse:         shaderMouseState(fs),
		FrameIndex:    c.frameIdx,
	})
}

// RetireRenderGraph picks up the accumulation image's final access from the
// retired graph and advances the frame index, wrapping on overflow.
func (c *RenderClient) RetireRenderGraph(retired *rg.RetiredRenderGraph) error {
	if handle := c.accumImg.LastRgHandle; handle != nil {
		_, access, err := retired.GetImage(*handle)
		if err != nil {
			return err
		}
		c.accumImg.AccessType = access
		c.accumImg.LastRgHandle = nil
	}

	c.frameIdx++
	return nil
}

// MeshDescriptor reads back the descriptor table record of a mesh slot.
func (c *RenderClient) MeshDescriptor(slot uint32) (GpuMesh, error) {
	return c.meshTable.Read(slot)
}

func (c *RenderClient) MeshCount() int {
	return len(c.meshes)
}

func (c *RenderClient) Meshes() []passes.UploadedTriMesh {
	return c.meshes
}

func (c *RenderClient) BindlessImageCount() uint32 {
	return c.bindless.Count()
}

func (c *RenderClient) ArenaBytesWritten() uint64 {
	return c.arena.Written()
}

func (c *RenderClient) TopLevelAcceleration() *metadata.AccelerationStructure {
	return c.tlas
}

func (c *RenderClient) AccumulationImage() *TemporalImage {
	return c.accumImg
}
