package systems

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// DefaultMaterial is the single material of generated meshes.
var DefaultMaterial = metadata.MeshMaterial{
	BaseColorMult: [4]float32{0.8, 0.8, 0.8, 1},
	RoughnessMult: 1,
}

type quad struct {
	// Corners in the order min/min, max/max, min/max, max/min.
	positions [4]mgl32.Vec3
	normal    mgl32.Vec3
}

func appendQuad(mesh *metadata.PackedTriangleMesh, q quad, uvMin, uvMax [2]float32) {
	base := uint32(len(mesh.Verts))
	uvs := [4][2]float32{
		{uvMin[0], uvMin[1]},
		{uvMax[0], uvMax[1]},
		{uvMin[0], uvMax[1]},
		{uvMax[0], uvMin[1]},
	}
	for i, p := range q.positions {
		mesh.Verts = append(mesh.Verts, metadata.NewPackedVertex(p, q.normal))
		mesh.Uvs = append(mesh.Uvs, uvs[i])
		mesh.Colors = append(mesh.Colors, [4]float32{1, 1, 1, 1})
		mesh.MaterialIDs = append(mesh.MaterialIDs, 0)
	}
	mesh.Indices = append(mesh.Indices, base+0, base+1, base+2, base+0, base+3, base+1)
}

func newGeneratedMesh() *metadata.PackedTriangleMesh {
	return &metadata.PackedTriangleMesh{Materials: []metadata.MeshMaterial{DefaultMaterial}}
}

// GeneratePlane builds a segmented plane on the XZ axes facing +Y, centered
// on the origin. Zero sizes and tiling default to one.
func GeneratePlane(width, depth float32, xSegmentCount, zSegmentCount uint32, tileX, tileY float32) *metadata.PackedTriangleMesh {
	if width == 0 {
		core.LogWarn("Width must be nonzero. Defaulting to one.")
		width = 1.0
	}
	if depth == 0 {
		core.LogWarn("Depth must be nonzero. Defaulting to one.")
		depth = 1.0
	}
	if xSegmentCount < 1 {
		core.LogWarn("xSegmentCount must be a positive number. Defaulting to one.")
		xSegmentCount = 1
	}
	if zSegmentCount < 1 {
		core.LogWarn("zSegmentCount must be a positive number. Defaulting to one.")
		zSegmentCount = 1
	}
	if tileX == 0 {
		core.LogWarn("tileX must be nonzero. Defaulting to one.")
		tileX = 1.0
	}
	if tileY == 0 {
		core.LogWarn("tileY must be nonzero. Defaulting to one.")
		tileY = 1.0
	}

	mesh := newGeneratedMesh()
	segWidth := width / float32(xSegmentCount)
	segDepth := depth / float32(zSegmentCount)
	halfWidth := width * 0.5
	halfDepth := depth * 0.5
	up := mgl32.Vec3{0, 1, 0}

	for z := uint32(0); z < zSegmentCount; z++ {
		for x := uint32(0); x < xSegmentCount; x++ {
			minX := float32(x)*segWidth - halfWidth
			// Rows advance towards -Z so the quads wind counter-clockwise seen from above.
			minZ := halfDepth - float32(z)*segDepth
			maxX := minX + segWidth
			maxZ := minZ - segDepth

			uvMin := [2]float32{float32(x) / float32(xSegmentCount) * tileX, float32(z) / float32(zSegmentCount) * tileY}
			uvMax := [2]float32{float32(x+1) / float32(xSegmentCount) * tileX, float32(z+1) / float32(zSegmentCount) * tileY}

			appendQuad(mesh, quad{
				positions: [4]mgl32.Vec3{
					{minX, 0, minZ},
					{maxX, 0, maxZ},
					{minX, 0, maxZ},
					{maxX, 0, minZ},
				},
				normal: up,
			}, uvMin, uvMax)
		}
	}
	return mesh
}

// GenerateCube builds an axis aligned box centered on the origin with one
// quad per face.
func GenerateCube(width, height, depth, tileX, tileY float32) *metadata.PackedTriangleMesh {
	if width == 0 {
		core.LogWarn("Width must be nonzero. Defaulting to one.")
		width = 1.0
	}
	if height == 0 {
		core.LogWarn("Height must be nonzero. Defaulting to one.")
		height = 1.0
	}
	if depth == 0 {
		core.LogWarn("Depth must be nonzero. Defaulting to one.")
		depth = 1
	}
	if tileX == 0 {
		core.LogWarn("tileX must be nonzero. Defaulting to one.")
		tileX = 1.0
	}
	if tileY == 0 {
		core.LogWarn("tileY must be nonzero. Defaulting to one.")
		tileY = 1.0
	}

	minX, maxX := -width*0.5, width*0.5
	minY, maxY := -height*0.5, height*0.5
	minZ, maxZ := -depth*0.5, depth*0.5

	faces := []quad{
		// Front face
		{positions: [4]mgl32.Vec3{{minX, minY, maxZ}, {maxX, maxY, maxZ}, {minX, maxY, maxZ}, {maxX, minY, maxZ}}, normal: mgl32.Vec3{0, 0, 1}},
		// Back face
		{positions: [4]mgl32.Vec3{{maxX, minY, minZ}, {minX, maxY, minZ}, {maxX, maxY, minZ}, {minX, minY, minZ}}, normal: mgl32.Vec3{0, 0, -1}},
		// Left
		{positions: [4]mgl32.Vec3{{minX, minY, minZ}, {minX, maxY, maxZ}, {minX, maxY, minZ}, {minX, minY, maxZ}}, normal: mgl32.Vec3{-1, 0, 0}},
		// Right face
		{positions: [4]mgl32.Vec3{{maxX, minY, maxZ}, {maxX, maxY, minZ}, {maxX, maxY, maxZ}, {maxX, minY, minZ}}, normal: mgl32.Vec3{1, 0, 0}},
		// Bottom face
		{positions: [4]mgl32.Vec3{{maxX, minY, maxZ}, {minX, minY, minZ}, {maxX, minY, minZ}, {minX, minY, maxZ}}, normal: mgl32.Vec3{0, -1, 0}},
		// Top face
		{positions: [4]mgl32.Vec3{{minX, maxY, maxZ}, {maxX, maxY, minZ}, {minX, maxY, minZ}, {maxX, maxY, maxZ}}, normal: mgl32.Vec3{0, 1, 0}},
	}

	mesh := newGeneratedMesh()
	for _, f := range faces {
		appendQuad(mesh, f, [2]float32{0, 0}, [2]float32{tileX, tileY})
	}
	return mesh
}

// TranslateMesh moves every vertex of mesh by offset.
func TranslateMesh(mesh *metadata.PackedTriangleMesh, offset mgl32.Vec3) {
	for i := range mesh.Verts {
		p := mgl32.Vec3(mesh.Verts[i].Pos).Add(offset)
		mesh.Verts[i].Pos = p
	}
}
