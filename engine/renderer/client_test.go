package renderer

import (
	"testing"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/passes"
	"github.com/spaghettifunk/lumen/engine/renderer/rg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClientConfig() ClientConfig {
	return ClientConfig{
		ArenaCapacity:      64 * 1024,
		MaxMeshes:          4,
		MaxBindlessImages:  8,
		AccumulationExtent: [2]uint32{64, 32},
	}
}

func newTestClient(t *testing.T) *RenderClient {
	t.Helper()
	c, err := NewRenderClient(newTestDevice(t), testClientConfig())
	require.NoError(t, err)
	return c
}

func testFrameState() *metadata.FrameState {
	return &metadata.FrameState{
		Window:         metadata.WindowConfig{Width: 64, Height: 32},
		CameraMatrices: testCameraMatrices(),
	}
}

// sceneClient has a single triangle and a built top level structure.
func sceneClient(t *testing.T) *RenderClient {
	t.Helper()
	c := newTestClient(t)
	_, err := c.AddMesh(triangleMesh(0))
	require.NoError(t, err)
	require.NoError(t, c.BuildTopLevelAcceleration())
	return c
}

func passNames(g *rg.RenderGraph) []string {
	var names []string
	for _, p := range g.Passes() {
		names = append(names, p.Name)
	}
	return names
}

func TestParseRenderMode(t *testing.T) {
	m, err := ParseRenderMode("Reference")
	require.NoError(t, err)
	assert.Equal(t, RenderModeReference, m)
	assert.Equal(t, "standard", RenderModeStandard.String())

	_, err = ParseRenderMode("wireframe")
	assert.Error(t, err)
}

func TestNewRenderClientValidatesConfig(t *testing.T) {
	cfg := testClientConfig()
	cfg.ArenaCapacity = 1 << 33
	_, err := NewRenderClient(newTestDevice(t), cfg)
	assert.ErrorIs(t, err, core.ErrPrecondition)

	cfg = testClientConfig()
	cfg.MaxMeshes = 0
	_, err = NewRenderClient(newTestDevice(t), cfg)
	assert.ErrorIs(t, err, core.ErrPrecondition)
}

func TestAddMeshRecordsDescriptor(t *testing.T) {
	c := newTestClient(t)

	first, err := c.AddMesh(triangleMesh(0))
	require.NoError(t, err)
	second, err := c.AddMesh(triangleMesh(1))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), first)
	assert.Equal(t, uint32(1), second)

	d0, err := c.MeshDescriptor(0)
	require.NoError(t, err)
	d1, err := c.MeshDescriptor(1)
	require.NoError(t, err)

	assert.Equal(t, uint32(0), d0.IndexOffset)
	assert.Greater(t, d1.IndexOffset, d0.MatDataOffset)
	assert.Equal(t, []passes.UploadedTriMesh{
		{IndexBufferOffset: 0, IndexCount: 3},
		{IndexBufferOffset: uint64(d1.IndexOffset), IndexCount: 3},
	}, c.Meshes())

	ids := make([]uint32, 3)
	require.NoError(t, ReadAt(c.arena.Buffer(), uint64(d1.VertexMatOffset), ids))
	assert.Equal(t, []uint32{1, 1, 1}, ids)
}

func TestAddMeshErrors(t *testing.T) {
	c := newTestClient(t)

	_, err := c.AddMesh(&metadata.PackedTriangleMesh{})
	assert.ErrorIs(t, err, core.ErrPrecondition)
	assert.Zero(t, c.MeshCount())
	assert.Zero(t, c.ArenaBytesWritten())

	for range testClientConfig().MaxMeshes {
		_, err := c.AddMesh(triangleMesh(0))
		require.NoError(t, err)
	}
	written := c.ArenaBytesWritten()

	_, err = c.AddMesh(triangleMesh(0))
	assert.ErrorIs(t, err, core.ErrCapacityExceeded)
	assert.Equal(t, written, c.ArenaBytesWritten())
}

func TestAddMeshRejectsBadIndicesBeforeUpload(t *testing.T) {
	c := newTestClient(t)
	_, err := c.AddMesh(triangleMesh(0))
	require.NoError(t, err)
	written := c.ArenaBytesWritten()

	partial := triangleMesh(0)
	partial.Indices = []uint32{0, 1, 2, 0}
	_, err = c.AddMesh(partial)
	assert.ErrorIs(t, err, core.ErrPrecondition)

	outOfRange := triangleMesh(0)
	outOfRange.Indices = []uint32{0, 1, 3}
	_, err = c.AddMesh(outOfRange)
	assert.ErrorIs(t, err, core.ErrPrecondition)

	assert.Equal(t, written, c.ArenaBytesWritten())
	assert.Equal(t, 1, c.MeshCount())
	assert.Len(t, c.meshBlas, 1)
}

func TestAddMeshRollsBackArenaWhenTableWriteFails(t *testing.T) {
	c := newTestClient(t)
	_, err := c.AddMesh(triangleMesh(0))
	require.NoError(t, err)
	written := c.ArenaBytesWritten()

	w, err := c.meshTable.Buffer().BorrowMut()
	require.NoError(t, err)
	_, err = c.AddMesh(triangleMesh(1))
	w.Release()
	assert.ErrorIs(t, err, core.ErrBufferAliased)

	assert.Equal(t, written, c.ArenaBytesWritten())
	assert.Equal(t, 1, c.MeshCount())
	assert.Len(t, c.meshBlas, 1)

	tail := make([]uint32, 16)
	require.NoError(t, ReadAt(c.arena.Buffer(), written, tail))
	assert.Equal(t, make([]uint32, 16), tail)

	slot, err := c.AddMesh(triangleMesh(1))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), slot)
}

func TestBuildTopLevelAccelerationReplacesPrevious(t *testing.T) {
	c := newTestClient(t)

	var prev *metadata.AccelerationStructure
	for n := range 3 {
		if n > 0 {
			_, err := c.AddMesh(triangleMesh(uint32(n)))
			require.NoError(t, err)
		}
		require.NoError(t, c.BuildTopLevelAcceleration())

		tlas := c.TopLevelAcceleration()
		require.NotNil(t, tlas)
		assert.Equal(t, n, tlas.InstanceCount())
		if prev != nil {
			assert.NotSame(t, prev, tlas)
		}
		prev = tlas
	}
}

func TestBuildTopLevelAccelerationInstancesMeshes(t *testing.T) {
	c := newTestClient(t)
	for i := range 3 {
		_, err := c.AddMesh(triangleMesh(uint32(i)))
		require.NoError(t, err)
	}
	require.NoError(t, c.BuildTopLevelAcceleration())

	tlas := c.TopLevelAcceleration()
	require.NotNil(t, tlas)
	require.Equal(t, 3, tlas.InstanceCount())
	for i, blas := range c.meshBlas {
		assert.Same(t, blas, tlas.Instances[i])
	}
}

func TestAddImage(t *testing.T) {
	c := newTestClient(t)
	src := &metadata.ImageResourceData{ChannelCount: 4, Width: 2, Height: 2, Pixels: make([]byte, 16)}

	h0, err := c.AddImage(src, metadata.TexParams{Gamma: metadata.TexGammaSrgb})
	require.NoError(t, err)
	h1, err := c.AddImage(src, metadata.TexParams{Gamma: metadata.TexGammaLinear})
	require.NoError(t, err)

	assert.Equal(t, BindlessImageHandle(0), h0)
	assert.Equal(t, BindlessImageHandle(1), h1)
	assert.Equal(t, metadata.FormatR8G8B8A8Srgb, c.bindlessImages[0].Desc.Format)
	assert.Equal(t, metadata.FormatR8G8B8A8Unorm, c.bindlessImages[1].Desc.Format)
	assert.Equal(t, uint32(2), c.BindlessImageCount())

	_, err = c.AddImage(&metadata.ImageResourceData{ChannelCount: 3, Width: 2, Height: 2, Pixels: make([]byte, 12)}, metadata.TexParams{})
	assert.ErrorIs(t, err, core.ErrPrecondition)
}

func TestAddImageLutHandleCheck(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.AddImageLut(passes.BrdfFgLutComputer{}, 0))

	err := c.AddImageLut(passes.BrdfFgLutComputer{}, 5)
	assert.ErrorIs(t, err, core.ErrHandleMismatch)
	assert.Len(t, c.imageLuts, 1)
}

func TestMismatchedImageLutIsNotComputed(t *testing.T) {
	c := sceneClient(t)
	err := c.AddImageLut(passes.BrdfFgLutComputer{}, 7)
	require.ErrorIs(t, err, core.ErrHandleMismatch)
	assert.Empty(t, c.imageLuts)

	g := rg.New()
	_, err = c.PrepareRenderGraph(g, testFrameState())
	require.NoError(t, err)
	assert.NotContains(t, passNames(g), "brdf_fg lut")

	retired, err := g.Retire()
	require.NoError(t, err)
	require.NoError(t, c.RetireRenderGraph(retired))
}

func TestFailedPrepareLeavesNoLeases(t *testing.T) {
	c := sceneClient(t)

	w, err := c.meshTable.Buffer().BorrowMut()
	require.NoError(t, err)
	_, err = c.PrepareRenderGraph(rg.New(), testFrameState())
	w.Release()
	require.ErrorIs(t, err, core.ErrBufferAliased)

	// The graph is dropped without retiring it.
	assert.Zero(t, c.arena.Buffer().Leases())
	assert.Zero(t, c.meshTable.Buffer().Leases())

	_, err = c.AddMesh(triangleMesh(1))
	assert.NoError(t, err)
}

func TestPrepareRequiresTopLevelAcceleration(t *testing.T) {
	c := newTestClient(t)
	_, err := c.PrepareRenderGraph(rg.New(), testFrameState())
	assert.ErrorIs(t, err, core.ErrPrecondition)
}

func TestStandardFrame(t *testing.T) {
	c := sceneClient(t)
	require.NoError(t, c.AddImageLut(passes.BrdfFgLutComputer{}, 0))

	g := rg.New()
	out, err := c.PrepareRenderGraph(g, testFrameState())
	require.NoError(t, err)

	layout, ok := g.PredefinedDescriptorSetLayouts[BindlessDescriptorSetIndex]
	require.True(t, ok)
	assert.Equal(t, BindlessDescriptorSetLayout(), layout.Bindings)

	assert.Equal(t, []string{
		"brdf_fg lut",
		"clear depth",
		"clear color",
		"raster meshes",
		"trace sun shadow mask",
		"clear color",
		"light gbuffer",
	}, passNames(g))

	// The graph holds read leases on the shared buffers until it retires.
	_, err = c.AddMesh(triangleMesh(0))
	assert.ErrorIs(t, err, core.ErrBufferAliased)

	retired, err := g.Retire()
	require.NoError(t, err)
	require.NoError(t, c.RetireRenderGraph(retired))

	img, access, err := retired.GetImage(out)
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{64, 32, 1}, img.Desc.Extent)
	assert.Equal(t, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer, access)
	assert.Equal(t, uint32(1), c.FrameIndex())

	_, err = c.AddMesh(triangleMesh(0))
	assert.NoError(t, err)
}

func TestReferenceFrameTracksAccumulation(t *testing.T) {
	c := sceneClient(t)
	c.RenderMode = RenderModeReference
	c.RequestAccumulationReset()

	g := rg.New()
	_, err := c.PrepareRenderGraph(g, testFrameState())
	require.NoError(t, err)
	assert.Equal(t, []string{"clear color", "reference path trace", "normalize accum"}, passNames(g))
	assert.False(t, c.ResetReferenceAccumulation)
	require.NotNil(t, c.AccumulationImage().LastRgHandle)

	retired, err := g.Retire()
	require.NoError(t, err)
	require.NoError(t, c.RetireRenderGraph(retired))

	accum := c.AccumulationImage()
	assert.Nil(t, accum.LastRgHandle)
	assert.Equal(t, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer, accum.AccessType)

	// The reset was consumed, so the next frame accumulates on top.
	g = rg.New()
	_, err = c.PrepareRenderGraph(g, testFrameState())
	require.NoError(t, err)
	assert.Equal(t, []string{"reference path trace", "normalize accum"}, passNames(g))

	pt := g.Passes()[0]
	require.Len(t, pt.Writes, 1)
	assert.Equal(t, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer, pt.Writes[0].PreviousAccess)
}

func TestRetireRejectsForeignGraph(t *testing.T) {
	c := sceneClient(t)
	c.RenderMode = RenderModeReference

	_, err := c.PrepareRenderGraph(rg.New(), testFrameState())
	require.NoError(t, err)

	other, err := rg.New().Retire()
	require.NoError(t, err)
	assert.ErrorIs(t, c.RetireRenderGraph(other), core.ErrPrecondition)
	assert.Equal(t, uint32(0), c.FrameIndex())
	assert.NotNil(t, c.AccumulationImage().LastRgHandle)
}

func TestFrameIndexWraps(t *testing.T) {
	c := sceneClient(t)
	c.frameIdx = ^uint32(0)

	retired, err := rg.New().Retire()
	require.NoError(t, err)
	require.NoError(t, c.RetireRenderGraph(retired))
	assert.Equal(t, uint32(0), c.FrameIndex())

	c.frameIdx = 9
	c.ResetFrameIndex()
	assert.Equal(t, uint32(0), c.FrameIndex())
}

func TestPrepareFrameConstants(t *testing.T) {
	c := sceneClient(t)
	c.frameIdx = 41
	dc, err := NewDynamicConstants(newTestDevice(t))
	require.NoError(t, err)

	fs := testFrameState()
	fs.Input.Mouse.X = 32
	fs.Input.Mouse.Y = 8

	off, err := c.PrepareFrameConstants(dc, fs)
	require.NoError(t, err)

	out := make([]FrameConstants, 1)
	require.NoError(t, ReadAt(dc.Buffer(), uint64(off), out))
	assert.Equal(t, uint32(41), out[0].FrameIndex)
	assert.Equal(t, [4]float32{0.5, 0.25, 0, 1}, out[0].Mouse)
	assert.Equal(t, fs.CameraMatrices.WorldToView, out[0].ViewConstants.WorldToView)
}

func TestModeSwitchKeepsFrameIndex(t *testing.T) {
	c := sceneClient(t)

	for _, mode := range []RenderMode{RenderModeReference, RenderModeStandard, RenderModeReference} {
		c.RenderMode = mode
		g := rg.New()
		_, err := c.PrepareRenderGraph(g, testFrameState())
		require.NoError(t, err)
		retired, err := g.Retire()
		require.NoError(t, err)
		require.NoError(t, c.RetireRenderGraph(retired))
	}
	assert.Equal(t, uint32(3), c.FrameIndex())

	c.RenderMode = RenderModeStandard
	c.ResetFrameIndex()
	assert.Equal(t, uint32(0), c.FrameIndex())
}
