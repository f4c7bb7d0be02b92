// Package accel builds acceleration structures on the host. Backends without
// hardware ray tracing use it to validate build inputs and compute the bounds
// and primitive counts a device build would produce.
package accel

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// MemoryResolver maps a device address range to host visible bytes.
type MemoryResolver interface {
	Resolve(address, size uint64) ([]byte, error)
}

const (
	indexSize    = 4
	positionSize = 12
)

type bounds struct {
	min, max [3]float32
}

func emptyBounds() bounds {
	inf := float32(math.Inf(1))
	return bounds{
		min: [3]float32{inf, inf, inf},
		max: [3]float32{-inf, -inf, -inf},
	}
}

func (b *bounds) grow(p [3]float32) {
	for i := range p {
		b.min[i] = min(b.min[i], p[i])
		b.max[i] = max(b.max[i], p[i])
	}
}

func (b *bounds) union(o bounds) {
	b.grow(o.min)
	b.grow(o.max)
}

// BuildBottom reads the index and vertex streams of every geometry part and
// returns a bottom level structure covering them.
func BuildBottom(mem MemoryResolver, desc metadata.RayTracingBottomAccelerationDesc) (*metadata.AccelerationStructure, error) {
	if len(desc.Geometries) == 0 {
		return nil, fmt.Errorf("bottom level acceleration without geometry: %w", core.ErrPrecondition)
	}

	box := emptyBounds()
	var primitives uint32

	for gi, geometry := range desc.Geometries {
		if geometry.GeometryType != metadata.RayTracingGeometryTriangle {
			return nil, fmt.Errorf("geometry %d: only triangle geometry is supported: %w", gi, core.ErrPrecondition)
		}
		if geometry.VertexFormat != metadata.FormatR32G32B32Sfloat {
			return nil, fmt.Errorf("geometry %d: vertex format %s: %w", gi, geometry.VertexFormat, core.ErrPrecondition)
		}
		if geometry.VertexStride < positionSize {
			return nil, fmt.Errorf("geometry %d: vertex stride %d smaller than a position: %w", gi, geometry.VertexStride, core.ErrPrecondition)
		}

		for pi, part := range geometry.Parts {
			n, err := buildPart(mem, geometry, part, &box)
			if err != nil {
				return nil, fmt.Errorf("geometry %d part %d: %w", gi, pi, err)
			}
			primitives += n
		}
	}

	return &metadata.AccelerationStructure{
		Kind:           metadata.AccelerationStructureBottomLevel,
		PrimitiveCount: primitives,
		BoundsMin:      box.min,
		BoundsMax:      box.max,
	}, nil
}

func buildPart(mem MemoryResolver, geometry metadata.RayTracingGeometryDesc, part metadata.RayTracingGeometryPart, box *bounds) (uint32, error) {
	if part.IndexCount == 0 || part.IndexCount%3 != 0 {
		return 0, fmt.Errorf("index count %d is not a whole number of triangles: %w", part.IndexCount, core.ErrPrecondition)
	}

	raw, err := mem.Resolve(geometry.IndexBuffer+uint64(part.IndexOffset)*indexSize, uint64(part.IndexCount)*indexSize)
	if err != nil {
		return 0, fmt.Errorf("index stream: %w", err)
	}
	indices := make([]uint32, part.IndexCount)
	if _, err := binary.Decode(raw, binary.LittleEndian, indices); err != nil {
		return 0, err
	}

	vertexBytes := uint64(part.MaxVertex)*geometry.VertexStride + positionSize
	verts, err := mem.Resolve(geometry.VertexBuffer, vertexBytes)
	if err != nil {
		return 0, fmt.Errorf("vertex stream: %w", err)
	}

	for _, idx := range indices {
		if idx > part.MaxVertex {
			return 0, fmt.Errorf("index %d exceeds max vertex %d: %w", idx, part.MaxVertex, core.ErrPrecondition)
		}
		var pos [3]float32
		if _, err := binary.Decode(verts[uint64(idx)*geometry.VertexStride:], binary.LittleEndian, &pos); err != nil {
			return 0, err
		}
		box.grow(pos)
	}

	return part.IndexCount / 3, nil
}

// BuildTop instances the given bottom level structures with identity
// transforms. Instance i is desc.Instances[i].
func BuildTop(desc metadata.RayTracingTopAccelerationDesc) (*metadata.AccelerationStructure, error) {
	box := emptyBounds()
	instances := make([]*metadata.AccelerationStructure, len(desc.Instances))

	for i, blas := range desc.Instances {
		if blas == nil || blas.Kind != metadata.AccelerationStructureBottomLevel {
			return nil, fmt.Errorf("instance %d is not a bottom level structure: %w", i, core.ErrPrecondition)
		}
		box.union(bounds{min: blas.BoundsMin, max: blas.BoundsMax})
		instances[i] = blas
	}

	return &metadata.AccelerationStructure{
		Kind:           metadata.AccelerationStructureTopLevel,
		PrimitiveCount: uint32(len(instances)),
		Instances:      instances,
		BoundsMin:      box.min,
		BoundsMax:      box.max,
	}, nil
}
