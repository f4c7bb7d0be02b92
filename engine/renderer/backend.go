package renderer

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Device is the graphics device abstraction the render client allocates its
// resources from.
type Device interface {
	metadata.ImageAllocator

	Name() string
	CreateBuffer(desc metadata.BufferDesc, name string, initialData []byte) (*metadata.Buffer, error)
	CreateImageView(image *metadata.Image) (*metadata.ImageView, error)
	CreateRenderPass(desc metadata.RenderPassDesc) (*metadata.RenderPass, error)
	// CreateBindlessDescriptorSet creates a set for layout whose bindless
	// bindings can hold up to bindlessCapacity descriptors.
	CreateBindlessDescriptorSet(layout metadata.DescriptorSetLayout, bindlessCapacity uint32) (metadata.DescriptorSet, error)
	CreateBottomAcceleration(desc metadata.RayTracingBottomAccelerationDesc) (*metadata.AccelerationStructure, error)
	CreateTopAcceleration(desc metadata.RayTracingTopAccelerationDesc) (*metadata.AccelerationStructure, error)
	Destroy() error
}

type RendererType uint8

const (
	Headless RendererType = iota
	Vulkan
)

func (t RendererType) String() string {
	switch t {
	case Headless:
		return "headless"
	case Vulkan:
		return "vulkan"
	default:
		return "unknown"
	}
}

func ParseRendererType(s string) (RendererType, error) {
	switch strings.ToLower(s) {
	case "headless":
		return Headless, nil
	case "vulkan":
		return Vulkan, nil
	default:
		return Headless, fmt.Errorf("unknown renderer backend %q", s)
	}
}
