package metadata

/**
 * @brief A vertex position with a packed normal. The position is read by
 * ray tracing geometry as R32G32B32_SFLOAT with a stride of the whole struct.
 */
type PackedVertex struct {
	Pos [3]float32
	/** @brief Octahedral-encoded normal, 16 bits per component. */
	Normal uint32
}

/** @brief Material parameters stored next to a mesh's vertex data. */
type MeshMaterial struct {
	BaseColorMult   [4]float32
	/** @brief Bindless image handles: albedo, normal, roughness/metalness, emissive. */
	Maps            [4]uint32
	RoughnessMult   float32
	MetalnessFactor float32
	Emissive        [3]float32
	Flags           uint32
}

/**
 * @brief A triangle mesh ready to be appended to the geometry arena. All the
 * per-vertex streams have the same length as Verts.
 */
type PackedTriangleMesh struct {
	Verts       []PackedVertex
	Uvs         [][2]float32
	Colors      [][4]float32
	Indices     []uint32
	MaterialIDs []uint32
	Materials   []MeshMaterial
}
