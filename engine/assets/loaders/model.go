package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Model is a triangle mesh read from a Wavefront file. Materials[i] describes
// material id i of the mesh; its texture paths are relative to Dir.
type Model struct {
	Mesh      *metadata.PackedTriangleMesh
	Materials []Material
	Dir       string
}

type ModelLoader struct{}

func (ml *ModelLoader) Load(path string, params interface{}) (*Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dir := filepath.Dir(path)
	model, err := ParseOBJ(file, path, func(name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dir, name))
	})
	if err != nil {
		return nil, err
	}
	model.Dir = dir

	mesh := model.Mesh
	core.LogDebug("parsed %s: %d vertices, %d triangles, %d materials", path, len(mesh.Verts), len(mesh.Indices)/3, len(mesh.Materials))

	return &Resource{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FullPath: path,
		Type:     ResourceTypeModel,
		DataSize: meshDataSize(mesh),
		Data:     model,
	}, nil
}

func meshDataSize(m *metadata.PackedTriangleMesh) uint64 {
	return uint64(len(m.Verts))*16 + uint64(len(m.Uvs))*8 + uint64(len(m.Colors))*16 +
		uint64(len(m.Indices))*4 + uint64(len(m.MaterialIDs))*4 + uint64(len(m.Materials))*64
}

type objVertexKey struct {
	position, uv, normal int
	material             uint32
}

type objReader struct {
	file    string
	openLib func(name string) (io.ReadCloser, error)

	positions []mgl32.Vec3
	colors    [][4]float32
	normals   []mgl32.Vec3
	uvs       [][2]float32

	library   []Material
	materials []Material
	// Material id of each library entry already in use.
	used        map[string]uint32
	curMaterial int

	vertices map[objVertexKey]uint32
	// Accumulated face normals of vertices without an explicit normal.
	generated map[uint32]mgl32.Vec3
	mesh      *metadata.PackedTriangleMesh
}

// ParseOBJ reads a Wavefront model into a single mesh. Polygons are
// triangulated as fans, vertices missing a normal get the area weighted
// normal of their faces, and v coordinates are flipped to a top-left origin.
// openLib opens material libraries named by mtllib statements.
func ParseOBJ(r io.Reader, file string, openLib func(name string) (io.ReadCloser, error)) (*Model, error) {
	or := &objReader{
		file:        file,
		openLib:     openLib,
		used:        make(map[string]uint32),
		curMaterial: -1,
		vertices:    make(map[objVertexKey]uint32),
		generated:   make(map[uint32]mgl32.Vec3),
		mesh:        &metadata.PackedTriangleMesh{},
	}
	if err := or.parse(r); err != nil {
		return nil, err
	}
	if len(or.mesh.Indices) == 0 {
		return nil, fmt.Errorf("%s: model contains no faces: %w", file, core.ErrPrecondition)
	}

	for index, n := range or.generated {
		or.mesh.Verts[index].Normal = metadata.PackNormal(n)
	}
	for _, m := range or.materials {
		or.mesh.Materials = append(or.mesh.Materials, m.Params)
	}
	return &Model{Mesh: or.mesh, Materials: or.materials}, nil
}

func (or *objReader) emitError(line int, err error) error {
	return fmt.Errorf("%s:%d: %w", or.file, line, err)
}

func (or *objReader) parse(r io.Reader) error {
	lineNum := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return or.emitError(lineNum, err)
			}
			color := [4]float32{1, 1, 1, 1}
			// Vertex colors extension: v x y z r g b
			if len(lineTokens) == 7 {
				rgb, err := parseVec3(lineTokens[3:])
				if err != nil {
					return or.emitError(lineNum, err)
				}
				copy(color[:3], rgb[:])
			}
			or.positions = append(or.positions, v)
			or.colors = append(or.colors, color)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return or.emitError(lineNum, err)
			}
			or.normals = append(or.normals, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return or.emitError(lineNum, err)
			}
			or.uvs = append(or.uvs, [2]float32{v[0], 1 - v[1]})
		case "mtllib":
			if len(lineTokens) != 2 {
				return or.emitError(lineNum, fmt.Errorf(`unsupported syntax for "mtllib"; expected 1 argument; got %d`, len(lineTokens)-1))
			}
			if err := or.loadLibrary(lineTokens[1]); err != nil {
				return or.emitError(lineNum, err)
			}
		case "usemtl":
			if len(lineTokens) != 2 {
				return or.emitError(lineNum, fmt.Errorf(`unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1))
			}
			if err := or.useMaterial(lineTokens[1]); err != nil {
				return or.emitError(lineNum, err)
			}
		case "f":
			if err := or.parseFace(lineTokens); err != nil {
				return or.emitError(lineNum, err)
			}
		}
	}
	return scanner.Err()
}

func (or *objReader) loadLibrary(name string) error {
	if or.openLib == nil {
		return fmt.Errorf("material library %q referenced without a library opener", name)
	}
	f, err := or.openLib(name)
	if err != nil {
		return err
	}
	defer f.Close()

	lib, err := ParseMaterialLibrary(f, name)
	if err != nil {
		return err
	}
	or.library = append(or.library, lib...)
	return nil
}

func (or *objReader) useMaterial(name string) error {
	if index, ok := or.used[name]; ok {
		or.curMaterial = int(index)
		return nil
	}
	for _, m := range or.library {
		if m.Name == name {
			or.materials = append(or.materials, m)
			or.curMaterial = len(or.materials) - 1
			or.used[name] = uint32(or.curMaterial)
			return nil
		}
	}
	return fmt.Errorf(`undefined material with name "%s": %w`, name, core.ErrPrecondition)
}

func (or *objReader) materialID() uint32 {
	if or.curMaterial < 0 {
		// Faces before any usemtl share a default material.
		index, ok := or.used[""]
		if !ok {
			or.materials = append(or.materials, DefaultMaterial(""))
			index = uint32(len(or.materials) - 1)
			or.used[""] = index
		}
		or.curMaterial = int(index)
	}
	return uint32(or.curMaterial)
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// offset into the coord list. Negative indices count from the end.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	offset := int(index) - 1
	if index < 0 {
		offset = coordListLen + int(index)
	}
	if offset < 0 || offset >= coordListLen {
		return -1, fmt.Errorf("index %d out of bounds for %d elements", index, coordListLen)
	}
	return offset, nil
}

func (or *objReader) parseFace(lineTokens []string) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected at least 3 vertices; got %d`, len(lineTokens)-1)
	}
	material := or.materialID()

	corners := make([]uint32, 0, len(lineTokens)-1)
	for arg, token := range lineTokens[1:] {
		vTokens := strings.Split(token, "/")
		if len(vTokens) > 3 || vTokens[0] == "" {
			return fmt.Errorf("face argument %d: malformed vertex %q", arg, token)
		}

		key := objVertexKey{uv: -1, normal: -1, material: material}
		var err error
		if key.position, err = selectFaceCoordIndex(vTokens[0], len(or.positions)); err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %w", arg, err)
		}
		if len(vTokens) > 1 && vTokens[1] != "" {
			if key.uv, err = selectFaceCoordIndex(vTokens[1], len(or.uvs)); err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %w", arg, err)
			}
		}
		if len(vTokens) > 2 && vTokens[2] != "" {
			if key.normal, err = selectFaceCoordIndex(vTokens[2], len(or.normals)); err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %w", arg, err)
			}
		}
		corners = append(corners, or.vertex(key))
	}

	for i := 1; i+1 < len(corners); i++ {
		tri := [3]uint32{corners[0], corners[i], corners[i+1]}
		or.mesh.Indices = append(or.mesh.Indices, tri[:]...)

		p0 := mgl32.Vec3(or.mesh.Verts[tri[0]].Pos)
		p1 := mgl32.Vec3(or.mesh.Verts[tri[1]].Pos)
		p2 := mgl32.Vec3(or.mesh.Verts[tri[2]].Pos)
		// Cross product length is twice the area, which gives the weighting.
		faceNormal := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, index := range tri {
			if n, ok := or.generated[index]; ok {
				or.generated[index] = n.Add(faceNormal)
			}
		}
	}
	return nil
}

func (or *objReader) vertex(key objVertexKey) uint32 {
	if index, ok := or.vertices[key]; ok {
		return index
	}

	index := uint32(len(or.mesh.Verts))
	or.vertices[key] = index

	pos := or.positions[key.position]
	vertex := metadata.PackedVertex{Pos: pos}
	if key.normal >= 0 {
		vertex.Normal = metadata.PackNormal(or.normals[key.normal])
	} else {
		or.generated[index] = mgl32.Vec3{}
	}
	uv := [2]float32{}
	if key.uv >= 0 {
		uv = or.uvs[key.uv]
	}

	or.mesh.Verts = append(or.mesh.Verts, vertex)
	or.mesh.Uvs = append(or.mesh.Uvs, uv)
	or.mesh.Colors = append(or.mesh.Colors, or.colors[key.position])
	or.mesh.MaterialIDs = append(or.mesh.MaterialIDs, key.material)
	return index
}
