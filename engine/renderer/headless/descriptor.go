package headless

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// DescriptorSet records every write so tests and tools can inspect it.
type DescriptorSet struct {
	mu               sync.Mutex
	layout           metadata.DescriptorSetLayout
	bindlessCapacity uint32
	buffers          map[uint32]*metadata.Buffer
	images           map[uint32]map[uint32]*metadata.ImageView
}

func newDescriptorSet(layout metadata.DescriptorSetLayout, bindlessCapacity uint32) *DescriptorSet {
	return &DescriptorSet{
		layout:           layout,
		bindlessCapacity: bindlessCapacity,
		buffers:          make(map[uint32]*metadata.Buffer),
		images:           make(map[uint32]map[uint32]*metadata.ImageView),
	}
}

func (s *DescriptorSet) Layout() metadata.DescriptorSetLayout {
	return s.layout
}

func (s *DescriptorSet) binding(binding uint32, want metadata.DescriptorType) (metadata.DescriptorInfo, error) {
	info, ok := s.layout[binding]
	if !ok {
		return info, fmt.Errorf("binding %d not in layout: %w", binding, core.ErrPrecondition)
	}
	if info.Type != want {
		return info, fmt.Errorf("binding %d is %s, not %s: %w", binding, info.Type, want, core.ErrPrecondition)
	}
	return info, nil
}

func (s *DescriptorSet) WriteStorageBuffer(binding uint32, buffer *metadata.Buffer) error {
	if _, err := s.binding(binding, metadata.DescriptorTypeStorageBuffer); err != nil {
		return err
	}
	if buffer.Desc.Usage&metadata.BufferUsageStorage == 0 {
		return fmt.Errorf("buffer %q lacks storage usage: %w", buffer.Name, core.ErrPrecondition)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers[binding] = buffer
	return nil
}

func (s *DescriptorSet) WriteSampledImage(binding, arrayElement uint32, view *metadata.ImageView) error {
	info, err := s.binding(binding, metadata.DescriptorTypeSampledImage)
	if err != nil {
		return err
	}
	limit := info.Count
	if info.IsBindless {
		limit = min(limit, s.bindlessCapacity)
	}
	if arrayElement >= limit {
		return fmt.Errorf("binding %d element %d of %d: %w", binding, arrayElement, limit, core.ErrCapacityExceeded)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	elements, ok := s.images[binding]
	if !ok {
		elements = make(map[uint32]*metadata.ImageView)
		s.images[binding] = elements
	}
	elements[arrayElement] = view
	return nil
}

// StorageBuffer returns the buffer written at binding, if any.
func (s *DescriptorSet) StorageBuffer(binding uint32) *metadata.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffers[binding]
}

// SampledImage returns the view written at binding[arrayElement], if any.
func (s *DescriptorSet) SampledImage(binding, arrayElement uint32) *metadata.ImageView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images[binding][arrayElement]
}
