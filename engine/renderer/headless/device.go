// Package headless implements the renderer device in host memory. Buffers get
// virtual device addresses so everything that consumes addresses, such as
// acceleration builds and mesh descriptors, behaves as on a GPU.
package headless

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/accel"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// ImageStorage is the InternalData of images created by the headless device.
type ImageStorage struct {
	ID    uuid.UUID
	Texel []byte
}

type Device struct {
	mu        sync.Mutex
	addresses *accel.AddressSpace
	buffers   []*metadata.Buffer

	images         int
	renderPasses   int
	descriptorSets int
	accelerations  int
	destroyed      bool
}

func New() *Device {
	return &Device{addresses: accel.NewAddressSpace()}
}

func (d *Device) Name() string {
	return "headless"
}

func (d *Device) checkAlive() error {
	if d.destroyed {
		return fmt.Errorf("headless device used after destroy: %w", core.ErrPrecondition)
	}
	return nil
}

func (d *Device) CreateBuffer(desc metadata.BufferDesc, name string, initialData []byte) (*metadata.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkAlive(); err != nil {
		return nil, err
	}
	if desc.Size == 0 {
		return nil, fmt.Errorf("buffer %q has zero size: %w", name, core.ErrPrecondition)
	}
	if uint64(len(initialData)) > desc.Size {
		return nil, fmt.Errorf("buffer %q: %d bytes of initial data exceed size %d: %w", name, len(initialData), desc.Size, core.ErrPrecondition)
	}

	storage := make([]byte, desc.Size)
	copy(storage, initialData)

	buffer := &metadata.Buffer{
		Desc: desc,
		Name: name,
	}
	if desc.Location.IsHostVisible() {
		buffer.Mapped = storage
	}

	if desc.Usage&metadata.BufferUsageShaderDeviceAddress != 0 {
		buffer.DeviceAddress = d.addresses.Map(name, storage)
	}
	buffer.InternalData = storage
	d.buffers = append(d.buffers, buffer)

	core.LogDebug("headless buffer %q: %d bytes at %#x", name, desc.Size, buffer.DeviceAddress)
	return buffer, nil
}

// Resolve returns the host storage backing [address, address+size).
func (d *Device) Resolve(address, size uint64) ([]byte, error) {
	return d.addresses.Resolve(address, size)
}

func (d *Device) CreateImage(desc metadata.ImageDesc, initialData []metadata.ImageSubresourceData) (*metadata.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkAlive(); err != nil {
		return nil, err
	}
	if desc.Extent[0] == 0 || desc.Extent[1] == 0 || desc.Extent[2] == 0 {
		return nil, fmt.Errorf("image extent %v has a zero dimension: %w", desc.Extent, core.ErrPrecondition)
	}
	if desc.MipLevels == 0 {
		return nil, fmt.Errorf("image without mip levels: %w", core.ErrPrecondition)
	}
	if len(initialData) > int(desc.MipLevels) {
		return nil, fmt.Errorf("%d subresources for %d mip levels: %w", len(initialData), desc.MipLevels, core.ErrPrecondition)
	}

	storage := &ImageStorage{ID: uuid.New()}
	if len(initialData) > 0 {
		top := initialData[0]
		rowBytes := desc.Extent[0] * desc.Format.BytesPerPixel()
		if top.RowPitch < rowBytes {
			return nil, fmt.Errorf("row pitch %d smaller than a row of %d bytes: %w", top.RowPitch, rowBytes, core.ErrPrecondition)
		}
		need := uint64(top.RowPitch) * uint64(desc.Extent[1]) * uint64(desc.Extent[2])
		if uint64(len(top.Data)) < need {
			return nil, fmt.Errorf("image data is %d bytes, need %d: %w", len(top.Data), need, core.ErrPrecondition)
		}
		storage.Texel = append([]byte(nil), top.Data[:need]...)
	}

	d.images++
	return &metadata.Image{
		Desc:         desc,
		Name:         fmt.Sprintf("image-%d", d.images),
		InternalData: storage,
	}, nil
}

func (d *Device) CreateImageView(image *metadata.Image) (*metadata.ImageView, error) {
	if image == nil {
		return nil, fmt.Errorf("image view of nil image: %w", core.ErrPrecondition)
	}
	return &metadata.ImageView{Image: image}, nil
}

func (d *Device) CreateRenderPass(desc metadata.RenderPassDesc) (*metadata.RenderPass, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(desc.ColorAttachments) == 0 && desc.DepthAttachment == nil {
		return nil, fmt.Errorf("render pass without attachments: %w", core.ErrPrecondition)
	}
	if desc.DepthAttachment != nil && !desc.DepthAttachment.Format.IsDepth() {
		return nil, fmt.Errorf("depth attachment format %s: %w", desc.DepthAttachment.Format, core.ErrPrecondition)
	}
	d.renderPasses++
	return &metadata.RenderPass{Desc: desc}, nil
}

func (d *Device) CreateBindlessDescriptorSet(layout metadata.DescriptorSetLayout, bindlessCapacity uint32) (metadata.DescriptorSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkAlive(); err != nil {
		return nil, err
	}
	d.descriptorSets++
	return newDescriptorSet(layout, bindlessCapacity), nil
}

func (d *Device) CreateBottomAcceleration(desc metadata.RayTracingBottomAccelerationDesc) (*metadata.AccelerationStructure, error) {
	blas, err := accel.BuildBottom(d, desc)
	if err != nil {
		return nil, err
	}
	d.assignAccelerationAddress(blas)
	return blas, nil
}

func (d *Device) CreateTopAcceleration(desc metadata.RayTracingTopAccelerationDesc) (*metadata.AccelerationStructure, error) {
	tlas, err := accel.BuildTop(desc)
	if err != nil {
		return nil, err
	}
	d.assignAccelerationAddress(tlas)
	return tlas, nil
}

func (d *Device) assignAccelerationAddress(a *metadata.AccelerationStructure) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a.DeviceAddress = d.addresses.Reserve()
	d.accelerations++
}

// Stats reports the number of live objects of each kind.
func (d *Device) Stats() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return map[string]int{
		"buffers":          len(d.buffers),
		"images":           d.images,
		"render passes":    d.renderPasses,
		"descriptor sets":  d.descriptorSets,
		"accel structures": d.accelerations,
	}
}

func (d *Device) Destroy() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.destroyed {
		return nil
	}
	for _, b := range d.buffers {
		b.Mapped = nil
	}
	d.buffers = nil
	d.addresses.Reset()
	d.destroyed = true
	core.LogDebug("headless device destroyed")
	return nil
}
