package rg

import (
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type PassKind uint8

const (
	PassKindCompute PassKind = iota
	PassKindRaster
	PassKindRayTracing
	PassKindTransfer
)

func (k PassKind) String() string {
	switch k {
	case PassKindCompute:
		return "compute"
	case PassKindRaster:
		return "raster"
	case PassKindRayTracing:
		return "ray tracing"
	case PassKindTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// PassResource is one resource use declared by a pass.
type PassResource struct {
	Resource int
	Access   metadata.AccessType
	// The access the resource was in right before this pass.
	PreviousAccess metadata.AccessType
}

// Pass is a recorded unit of GPU work.
type Pass struct {
	Name   string
	Kind   PassKind
	Shader string
	Reads  []PassResource
	Writes []PassResource
	// Sets bound in addition to the ones reflected from the shader, keyed by set index.
	DescriptorSets map[uint32]metadata.DescriptorSet
	RenderPass     *metadata.RenderPass
	ClearValue     [4]float32
	// Workgroup count for compute passes, launch size for ray tracing passes.
	Extent [3]uint32
	// Free-form payload consumed by the backend when executing the pass.
	Payload interface{}
}

// PassBuilder declares the resources and parameters of a pass.
type PassBuilder struct {
	rg   *RenderGraph
	pass *Pass
}

func (pb *PassBuilder) use(ref ResourceRef, access metadata.AccessType) PassResource {
	pb.rg.checkOwned(ref)
	res := pb.rg.resources[ref.resourceIndex()]
	use := PassResource{
		Resource:       ref.resourceIndex(),
		Access:         access,
		PreviousAccess: res.lastAccess,
	}
	res.lastAccess = access
	return use
}

func (pb *PassBuilder) Read(ref ResourceRef, access metadata.AccessType) *PassBuilder {
	pb.pass.Reads = append(pb.pass.Reads, pb.use(ref, access))
	return pb
}

func (pb *PassBuilder) Write(ref ResourceRef, access metadata.AccessType) *PassBuilder {
	pb.pass.Writes = append(pb.pass.Writes, pb.use(ref, access))
	return pb
}

func (pb *PassBuilder) Shader(name string) *PassBuilder {
	pb.pass.Shader = name
	return pb
}

func (pb *PassBuilder) BindDescriptorSet(index uint32, set metadata.DescriptorSet) *PassBuilder {
	if pb.pass.DescriptorSets == nil {
		pb.pass.DescriptorSets = make(map[uint32]metadata.DescriptorSet)
	}
	pb.pass.DescriptorSets[index] = set
	return pb
}

func (pb *PassBuilder) RenderPass(rp *metadata.RenderPass) *PassBuilder {
	pb.pass.RenderPass = rp
	return pb
}

func (pb *PassBuilder) Clear(value [4]float32) *PassBuilder {
	pb.pass.ClearValue = value
	return pb
}

func (pb *PassBuilder) Extent(x, y, z uint32) *PassBuilder {
	pb.pass.Extent = [3]uint32{x, y, z}
	return pb
}

func (pb *PassBuilder) Payload(p interface{}) *PassBuilder {
	pb.pass.Payload = p
	return pb
}

func (pb *PassBuilder) Pass() *Pass {
	return pb.pass
}
