package metadata

type RayTracingGeometryType uint8

const (
	RayTracingGeometryTriangle RayTracingGeometryType = iota
	RayTracingGeometryBoundingBox
)

/** @brief A range of triangles within a ray tracing geometry. */
type RayTracingGeometryPart struct {
	/** @brief The number of indices, three per triangle. */
	IndexCount uint32
	/** @brief The offset of the first index, in indices. */
	IndexOffset uint32
	/** @brief The highest vertex index referenced by this part. */
	MaxVertex uint32
}

/**
 * @brief Triangle geometry addressed through device addresses. The backend
 * reads vertices and indices straight out of the buffers those addresses point into.
 */
type RayTracingGeometryDesc struct {
	GeometryType RayTracingGeometryType
	/** @brief Device address of the first vertex position. */
	VertexBuffer uint64
	/** @brief Device address of the first 32-bit index. */
	IndexBuffer  uint64
	VertexFormat Format
	/** @brief Distance in bytes between two consecutive vertex positions. */
	VertexStride uint64
	Parts        []RayTracingGeometryPart
}

type RayTracingBottomAccelerationDesc struct {
	Geometries []RayTracingGeometryDesc
}

type RayTracingTopAccelerationDesc struct {
	/** @brief The instanced bottom level structures, in instance order. */
	Instances []*AccelerationStructure
}

type AccelerationStructureKind uint8

const (
	AccelerationStructureBottomLevel AccelerationStructureKind = iota
	AccelerationStructureTopLevel
)

/** @brief A compiled ray tracing acceleration structure. */
type AccelerationStructure struct {
	Kind AccelerationStructureKind
	/** @brief The number of triangles (bottom level) or instances (top level). */
	PrimitiveCount uint32
	/** @brief The bottom level structures referenced by a top level structure, in instance order. */
	Instances []*AccelerationStructure
	/** @brief Axis aligned bounds, min then max. */
	BoundsMin [3]float32
	BoundsMax [3]float32
	/** @brief The device address of the structure. */
	DeviceAddress uint64
	/** @brief The backend specific data. */
	InternalData interface{}
}

func (a *AccelerationStructure) InstanceCount() int {
	return len(a.Instances)
}
