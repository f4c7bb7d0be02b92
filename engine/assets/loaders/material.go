package loaders

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Indices into MeshMaterial.Maps.
const (
	MapAlbedo = iota
	MapNormal
	MapRoughnessMetalness
	MapEmissive
	MapCount
)

// Material is a parsed Wavefront material. Maps holds texture paths as
// written in the library, empty when the map is absent.
type Material struct {
	Name   string
	Params metadata.MeshMaterial
	Maps   [MapCount]string
}

func DefaultMaterial(name string) Material {
	return Material{
		Name: name,
		Params: metadata.MeshMaterial{
			BaseColorMult: [4]float32{1, 1, 1, 1},
			RoughnessMult: 1,
		},
	}
}

// ParseMaterialLibrary reads a Wavefront .mtl library. Unknown statements
// are skipped.
func ParseMaterialLibrary(r io.Reader, file string) ([]Material, error) {
	var materials []Material
	var current *Material

	lineNum := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		if lineTokens[0] == "newmtl" {
			if len(lineTokens) != 2 {
				return nil, fmt.Errorf(`%s:%d: unsupported syntax for "newmtl"; expected 1 argument; got %d`, file, lineNum, len(lineTokens)-1)
			}
			for _, m := range materials {
				if m.Name == lineTokens[1] {
					return nil, fmt.Errorf(`%s:%d: material "%s" already defined`, file, lineNum, m.Name)
				}
			}
			materials = append(materials, DefaultMaterial(lineTokens[1]))
			current = &materials[len(materials)-1]
			continue
		}
		if current == nil {
			return nil, fmt.Errorf(`%s:%d: got "%s" without a "newmtl"`, file, lineNum, lineTokens[0])
		}

		var err error
		switch lineTokens[0] {
		case "Kd":
			var kd [3]float32
			kd, err = parseVec3(lineTokens)
			copy(current.Params.BaseColorMult[:3], kd[:])
		case "d":
			current.Params.BaseColorMult[3], err = parseFloat32(lineTokens)
		case "Tr":
			var tr float32
			tr, err = parseFloat32(lineTokens)
			current.Params.BaseColorMult[3] = 1 - tr
		case "Ke":
			current.Params.Emissive, err = parseVec3(lineTokens)
		case "Pr":
			current.Params.RoughnessMult, err = parseFloat32(lineTokens)
		case "Pm":
			current.Params.MetalnessFactor, err = parseFloat32(lineTokens)
		case "map_Kd":
			err = setMap(current, MapAlbedo, lineTokens)
		case "map_normal", "norm", "map_bump", "bump":
			err = setMap(current, MapNormal, lineTokens)
		case "map_Pr", "map_Pm":
			err = setMap(current, MapRoughnessMetalness, lineTokens)
		case "map_Ke":
			err = setMap(current, MapEmissive, lineTokens)
		default:
			core.LogDebug("%s:%d: skipping unsupported statement %q", file, lineNum, lineTokens[0])
		}
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", file, lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return materials, nil
}

// The texture path is the last token, options such as -bm come before it.
func setMap(m *Material, slot int, lineTokens []string) error {
	if len(lineTokens) < 2 {
		return fmt.Errorf(`unsupported syntax for "%s"; expected a texture path`, lineTokens[0])
	}
	if m.Maps[slot] == "" {
		m.Maps[slot] = lineTokens[len(lineTokens)-1]
	}
	return nil
}

func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}
	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}
	return float32(val), nil
}

func parseVec3(lineTokens []string) ([3]float32, error) {
	var v [3]float32
	if len(lineTokens) < 4 {
		return v, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}
	for i := range v {
		coord, err := strconv.ParseFloat(lineTokens[i+1], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(coord)
	}
	return v, nil
}

func parseVec2(lineTokens []string) ([2]float32, error) {
	var v [2]float32
	if len(lineTokens) < 3 {
		return v, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}
	for i := range v {
		coord, err := strconv.ParseFloat(lineTokens[i+1], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(coord)
	}
	return v, nil
}
