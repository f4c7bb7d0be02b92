package rg

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type resourceKind uint8

const (
	resourceImage resourceKind = iota
	resourceBuffer
	resourceAcceleration
)

type graphResource struct {
	kind     resourceKind
	imported bool
	image    *metadata.Image
	buffer   *metadata.Buffer
	accel    *metadata.AccelerationStructure
	// The access the resource is in when the graph starts.
	initialAccess metadata.AccessType
	// The access of the last pass touching the resource.
	lastAccess metadata.AccessType
}

type exportInfo struct {
	resource int
	access   metadata.AccessType
}

// PredefinedDescriptorSet is a descriptor set layout every pipeline built by
// the graph agrees on, rather than one reflected from shaders.
type PredefinedDescriptorSet struct {
	Bindings metadata.DescriptorSetLayout
}

// RenderGraph records the resources and passes of one frame. Execution is
// left to the backend, the graph only tracks access state.
type RenderGraph struct {
	ID uuid.UUID

	// Descriptor set layouts keyed by set index.
	PredefinedDescriptorSetLayouts map[uint32]PredefinedDescriptorSet

	resources []*graphResource
	passes    []*Pass
	exports   []exportInfo
	onRetire  []func()
	retired   bool
}

func New() *RenderGraph {
	return &RenderGraph{
		ID:                             uuid.New(),
		PredefinedDescriptorSetLayouts: make(map[uint32]PredefinedDescriptorSet),
	}
}

func (rg *RenderGraph) addResource(r *graphResource) int {
	rg.resources = append(rg.resources, r)
	return len(rg.resources) - 1
}

// CreateImage declares a transient image owned by the graph.
func (rg *RenderGraph) CreateImage(desc metadata.ImageDesc) Handle[metadata.Image] {
	raw := rg.addResource(&graphResource{
		kind:  resourceImage,
		image: &metadata.Image{Desc: desc, Name: fmt.Sprintf("rg transient %d", len(rg.resources))},
	})
	return Handle[metadata.Image]{graph: rg.ID, raw: raw}
}

// ImportImage brings a persistent image into the graph. access must be the
// access the image was left in by its previous user.
func (rg *RenderGraph) ImportImage(image *metadata.Image, access metadata.AccessType) Handle[metadata.Image] {
	raw := rg.addResource(&graphResource{
		kind:          resourceImage,
		imported:      true,
		image:         image,
		initialAccess: access,
		lastAccess:    access,
	})
	return Handle[metadata.Image]{graph: rg.ID, raw: raw}
}

func (rg *RenderGraph) ImportBuffer(buffer *metadata.Buffer, access metadata.AccessType) Handle[metadata.Buffer] {
	raw := rg.addResource(&graphResource{
		kind:          resourceBuffer,
		imported:      true,
		buffer:        buffer,
		initialAccess: access,
		lastAccess:    access,
	})
	return Handle[metadata.Buffer]{graph: rg.ID, raw: raw}
}

func (rg *RenderGraph) ImportAcceleration(accel *metadata.AccelerationStructure, access metadata.AccessType) Handle[metadata.AccelerationStructure] {
	raw := rg.addResource(&graphResource{
		kind:          resourceAcceleration,
		imported:      true,
		accel:         accel,
		initialAccess: access,
		lastAccess:    access,
	})
	return Handle[metadata.AccelerationStructure]{graph: rg.ID, raw: raw}
}

// ExportImage marks an image as outliving the graph. AccessNothing leaves the
// image in whatever access its last pass used; any other access transitions it.
func (rg *RenderGraph) ExportImage(h Handle[metadata.Image], access metadata.AccessType) ExportedImage {
	rg.checkOwned(h)
	rg.exports = append(rg.exports, exportInfo{resource: h.raw, access: access})
	return ExportedImage{graph: rg.ID, raw: h.raw}
}

// OnRetire registers a hook run when the graph retires, after the final
// access states are resolved.
func (rg *RenderGraph) OnRetire(fn func()) {
	rg.onRetire = append(rg.onRetire, fn)
}

// AddPass starts recording a new pass.
func (rg *RenderGraph) AddPass(name string, kind PassKind) *PassBuilder {
	p := &Pass{Name: name, Kind: kind}
	rg.passes = append(rg.passes, p)
	return &PassBuilder{rg: rg, pass: p}
}

func (rg *RenderGraph) Passes() []*Pass {
	return rg.passes
}

// ImageDesc returns the description of an image tracked by the graph.
func (rg *RenderGraph) ImageDesc(h Handle[metadata.Image]) metadata.ImageDesc {
	rg.checkOwned(h)
	return rg.resources[h.raw].image.Desc
}

// Access returns the access of the last recorded use of a resource.
func (rg *RenderGraph) Access(ref ResourceRef) metadata.AccessType {
	rg.checkOwned(ref)
	return rg.resources[ref.resourceIndex()].lastAccess
}

func (rg *RenderGraph) checkOwned(ref ResourceRef) {
	if ref.Graph() != rg.ID {
		core.LogFatal("render graph %s: resource belongs to graph %s", rg.ID, ref.Graph())
	}
}

// Retire resolves the final access state of every exported resource and runs
// the retirement hooks. A graph can only be retired once.
func (rg *RenderGraph) Retire() (*RetiredRenderGraph, error) {
	if rg.retired {
		return nil, fmt.Errorf("render graph %s already retired: %w", rg.ID, core.ErrPrecondition)
	}
	rg.retired = true

	retired := &RetiredRenderGraph{
		ID:       rg.ID,
		exported: make(map[int]retiredResource, len(rg.exports)),
		passes:   len(rg.passes),
	}
	for _, e := range rg.exports {
		res := rg.resources[e.resource]
		final := e.access
		if final == metadata.AccessNothing {
			final = res.lastAccess
		}
		retired.exported[e.resource] = retiredResource{image: res.image, access: final}
	}

	for _, fn := range rg.onRetire {
		fn()
	}
	rg.onRetire = nil

	return retired, nil
}
