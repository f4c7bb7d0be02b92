package rg

import (
	"testing"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportNothingKeepsLastAccess(t *testing.T) {
	g := New()
	img := &metadata.Image{Desc: metadata.NewImageDesc2D(metadata.FormatR32G32B32A32Sfloat, [2]uint32{4, 4})}

	h := g.ImportImage(img, metadata.AccessNothing)
	g.AddPass("write", PassKindCompute).Write(h, metadata.AccessComputeShaderWrite)
	g.AddPass("read", PassKindCompute).Read(h, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer)
	exported := g.ExportImage(h, metadata.AccessNothing)

	retired, err := g.Retire()
	require.NoError(t, err)

	got, access, err := retired.GetImage(exported)
	require.NoError(t, err)
	assert.Same(t, img, got)
	assert.Equal(t, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer, access)
	assert.Equal(t, 2, retired.PassCount())
}

func TestExportWithAccessTransitions(t *testing.T) {
	g := New()
	h := g.CreateImage(metadata.NewImageDesc2D(metadata.FormatR16G16B16A16Sfloat, [2]uint32{8, 8}))
	g.AddPass("fill", PassKindCompute).Write(h, metadata.AccessComputeShaderWrite)
	exported := g.ExportImage(h, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer)

	retired, err := g.Retire()
	require.NoError(t, err)

	img, access, err := retired.GetImage(exported)
	require.NoError(t, err)
	assert.Equal(t, metadata.FormatR16G16B16A16Sfloat, img.Desc.Format)
	assert.Equal(t, metadata.AccessAnyShaderReadSampledImageOrUniformTexelBuffer, access)
}

func TestPassRecordsPreviousAccess(t *testing.T) {
	g := New()
	h := g.ImportImage(&metadata.Image{}, metadata.AccessTransferWrite)
	p := g.AddPass("read", PassKindRaster).Read(h, metadata.AccessAnyShaderReadOther).Pass()

	require.Len(t, p.Reads, 1)
	assert.Equal(t, metadata.AccessTransferWrite, p.Reads[0].PreviousAccess)
	assert.Equal(t, metadata.AccessAnyShaderReadOther, g.Access(h))
}

func TestRetireRunsHooksOnce(t *testing.T) {
	g := New()
	calls := 0
	g.OnRetire(func() { calls++ })

	_, err := g.Retire()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = g.Retire()
	assert.ErrorIs(t, err, core.ErrPrecondition)
	assert.Equal(t, 1, calls)
}

func TestGetImageRejectsForeignHandle(t *testing.T) {
	a := New()
	b := New()

	h := a.CreateImage(metadata.NewImageDesc2D(metadata.FormatR8Unorm, [2]uint32{1, 1}))
	exported := a.ExportImage(h, metadata.AccessNothing)

	retired, err := b.Retire()
	require.NoError(t, err)

	_, _, err = retired.GetImage(exported)
	assert.ErrorIs(t, err, core.ErrPrecondition)
}
