// Package vulkan implements the renderer device on top of Vulkan. Buffers get
// virtual device addresses shared with the headless backend, and acceleration
// structures are built on the host from persistently mapped geometry.
package vulkan

import (
	"fmt"
	"sync"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/accel"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type Options struct {
	AppName string
	// Enables the validation layer and the debug report callback.
	Debug bool
	// Extensions required by the windowing system, if any.
	InstanceExtensions []string
	// vkGetInstanceProcAddr as exposed by the platform loader.
	GetInstanceProcAddr unsafe.Pointer
	Requirements        VulkanPhysicalDeviceRequirements
}

func DefaultRequirements() VulkanPhysicalDeviceRequirements {
	return VulkanPhysicalDeviceRequirements{
		Graphics:          true,
		Compute:           true,
		SamplerAnisotropy: false,
		DiscreteGPU:       false,
	}
}

type VulkanRenderer struct {
	mu        sync.Mutex
	context   *VulkanContext
	addresses *accel.AddressSpace

	buffers        []*VulkanBuffer
	images         []*VulkanImage
	renderPasses   []*VulkanRenderpass
	descriptorSets []*VulkanDescriptorSet
	accelerations  int
	destroyed      bool
}

func New(opts Options) (*VulkanRenderer, error) {
	vr := &VulkanRenderer{
		context: &VulkanContext{
			Allocator: nil,
			Locks:     NewVulkanLockPool(),
		},
		addresses: accel.NewAddressSpace(),
	}

	if err := createInstance(vr.context, opts); err != nil {
		destroyInstance(vr.context)
		return nil, err
	}
	if err := DeviceCreate(vr.context, opts.Requirements); err != nil {
		DeviceDestroy(vr.context)
		destroyInstance(vr.context)
		return nil, err
	}

	core.LogInfo("Vulkan renderer initialized successfully on %s.", vr.context.Device.Name)
	return vr, nil
}

func (vr *VulkanRenderer) Name() string {
	return vr.context.Device.Name
}

func (vr *VulkanRenderer) checkAlive() error {
	if vr.destroyed {
		return fmt.Errorf("vulkan device used after destroy: %w", core.ErrPrecondition)
	}
	return nil
}

func (vr *VulkanRenderer) CreateBuffer(desc metadata.BufferDesc, name string, initialData []byte) (*metadata.Buffer, error) {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	if err := vr.checkAlive(); err != nil {
		return nil, err
	}
	vb, err := createMetadataBuffer(vr.context, desc, initialData)
	if err != nil {
		return nil, fmt.Errorf("buffer %q: %w", name, err)
	}
	vr.buffers = append(vr.buffers, vb)

	buffer := &metadata.Buffer{
		Desc:         desc,
		Name:         name,
		Mapped:       vb.Mapped,
		InternalData: vb,
	}
	if desc.Usage&metadata.BufferUsageShaderDeviceAddress != 0 {
		// Only mapped memory can back host side acceleration builds.
		if vb.Mapped != nil {
			buffer.DeviceAddress = vr.addresses.Map(name, vb.Mapped)
		} else {
			buffer.DeviceAddress = vr.addresses.Reserve()
		}
	}

	core.LogDebug("vulkan buffer %q: %d bytes at %#x", name, desc.Size, buffer.DeviceAddress)
	return buffer, nil
}

// Resolve returns the mapped memory backing [address, address+size).
func (vr *VulkanRenderer) Resolve(address, size uint64) ([]byte, error) {
	return vr.addresses.Resolve(address, size)
}

func (vr *VulkanRenderer) CreateImage(desc metadata.ImageDesc, initialData []metadata.ImageSubresourceData) (*metadata.Image, error) {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	if err := vr.checkAlive(); err != nil {
		return nil, err
	}
	if len(initialData) > int(desc.MipLevels) {
		return nil, fmt.Errorf("%d subresources for %d mip levels: %w", len(initialData), desc.MipLevels, core.ErrPrecondition)
	}

	vi, err := ImageCreate(vr.context, desc)
	if err != nil {
		return nil, err
	}
	if len(initialData) > 0 {
		if len(initialData) > 1 {
			core.LogWarn("vulkan image: uploading the top of %d mip levels only", len(initialData))
		}
		if err := vi.Upload(vr.context, initialData[0]); err != nil {
			vi.Destroy(vr.context)
			return nil, err
		}
	}
	vr.images = append(vr.images, vi)

	return &metadata.Image{
		Desc:         desc,
		Name:         fmt.Sprintf("image-%d", len(vr.images)),
		InternalData: vi,
	}, nil
}

func (vr *VulkanRenderer) CreateImageView(image *metadata.Image) (*metadata.ImageView, error) {
	if image == nil {
		return nil, fmt.Errorf("image view of nil image: %w", core.ErrPrecondition)
	}
	vi, ok := image.InternalData.(*VulkanImage)
	if !ok {
		return nil, fmt.Errorf("image %q was not created by the Vulkan backend: %w", image.Name, core.ErrPrecondition)
	}

	vr.mu.Lock()
	defer vr.mu.Unlock()

	view, err := vi.CreateView(vr.context)
	if err != nil {
		return nil, err
	}
	return &metadata.ImageView{Image: image, InternalData: view}, nil
}

func (vr *VulkanRenderer) CreateRenderPass(desc metadata.RenderPassDesc) (*metadata.RenderPass, error) {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	if err := vr.checkAlive(); err != nil {
		return nil, err
	}
	rp, err := RenderpassCreate(vr.context, desc)
	if err != nil {
		return nil, err
	}
	vr.renderPasses = append(vr.renderPasses, rp)
	return &metadata.RenderPass{Desc: desc, InternalData: rp}, nil
}

func (vr *VulkanRenderer) CreateBindlessDescriptorSet(layout metadata.DescriptorSetLayout, bindlessCapacity uint32) (metadata.DescriptorSet, error) {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	if err := vr.checkAlive(); err != nil {
		return nil, err
	}
	set, err := DescriptorSetCreate(vr.context, layout, bindlessCapacity)
	if err != nil {
		return nil, err
	}
	vr.descriptorSets = append(vr.descriptorSets, set)
	return set, nil
}

func (vr *VulkanRenderer) CreateBottomAcceleration(desc metadata.RayTracingBottomAccelerationDesc) (*metadata.AccelerationStructure, error) {
	blas, err := accel.BuildBottom(vr, desc)
	if err != nil {
		return nil, err
	}
	vr.assignAccelerationAddress(blas)
	return blas, nil
}

func (vr *VulkanRenderer) CreateTopAcceleration(desc metadata.RayTracingTopAccelerationDesc) (*metadata.AccelerationStructure, error) {
	tlas, err := accel.BuildTop(desc)
	if err != nil {
		return nil, err
	}
	vr.assignAccelerationAddress(tlas)
	return tlas, nil
}

func (vr *VulkanRenderer) assignAccelerationAddress(a *metadata.AccelerationStructure) {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	a.DeviceAddress = vr.addresses.Reserve()
	vr.accelerations++
}

// Stats reports the number of live objects of each kind.
func (vr *VulkanRenderer) Stats() map[string]int {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	return map[string]int{
		"buffers":          len(vr.buffers),
		"images":           len(vr.images),
		"render passes":    len(vr.renderPasses),
		"descriptor sets":  len(vr.descriptorSets),
		"accel structures": vr.accelerations,
	}
}

func (vr *VulkanRenderer) Destroy() error {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	if vr.destroyed {
		return nil
	}
	vr.destroyed = true

	if vr.context.Device != nil && vr.context.Device.LogicalDevice != nil {
		if err := checkResult("vkDeviceWaitIdle", vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)); err != nil {
			core.LogWarn("destroying Vulkan resources without an idle device")
		}
	}

	core.LogDebug("Destroying Vulkan resources...")
	for _, set := range vr.descriptorSets {
		set.Destroy()
	}
	for _, rp := range vr.renderPasses {
		rp.RenderpassDestroy(vr.context)
	}
	for _, img := range vr.images {
		img.Destroy(vr.context)
	}
	for _, b := range vr.buffers {
		b.Destroy(vr.context)
	}
	vr.descriptorSets, vr.renderPasses, vr.images, vr.buffers = nil, nil, nil, nil
	vr.addresses.Reset()

	DeviceDestroy(vr.context)
	destroyInstance(vr.context)
	core.LogInfo("Vulkan renderer destroyed.")
	return nil
}
