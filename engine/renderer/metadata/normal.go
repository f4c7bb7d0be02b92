package metadata

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func signNotZero(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

// PackNormal octahedral-encodes a direction into two 16 bit unorm components,
// x in the low half. The input does not need to be normalized.
func PackNormal(n mgl32.Vec3) uint32 {
	l1 := float32(math.Abs(float64(n[0])) + math.Abs(float64(n[1])) + math.Abs(float64(n[2])))
	if l1 == 0 {
		n, l1 = mgl32.Vec3{0, 0, 1}, 1
	}
	x, y := n[0]/l1, n[1]/l1
	if n[2] < 0 {
		x, y = (1-abs32(y))*signNotZero(x), (1-abs32(x))*signNotZero(y)
	}

	quantize := func(v float32) uint32 {
		return uint32(math.Round(float64((mgl32.Clamp(v, -1, 1)*0.5 + 0.5) * 65535)))
	}
	return quantize(x) | quantize(y)<<16
}

// UnpackNormal decodes a direction encoded by PackNormal.
func UnpackNormal(packed uint32) mgl32.Vec3 {
	x := float32(packed&0xffff)/65535*2 - 1
	y := float32(packed>>16)/65535*2 - 1
	z := 1 - abs32(x) - abs32(y)
	if z < 0 {
		x, y = (1-abs32(y))*signNotZero(x), (1-abs32(x))*signNotZero(y)
	}
	return mgl32.Vec3{x, y, z}.Normalize()
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

func NewPackedVertex(pos, normal mgl32.Vec3) PackedVertex {
	return PackedVertex{Pos: pos, Normal: PackNormal(normal)}
}
