package components

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const (
	// 89 degrees, keeps the view away from gimbal lock.
	pitchLimit float32 = 1.55334306

	defaultNear float32 = 0.01
	defaultFar  float32 = 1000
)

/**
 * @brief A perspective camera driven by a position and yaw/pitch angles.
 * The view faces -Z when both angles are zero.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position mgl32.Vec3
	/**
	 * @brief The rotation of this camera using Euler angles (pitch, yaw, roll).
	 * NOTE: Do not set this directly, use SetEulerRotation() instead
	 * so the view matrix is recalculated when needed.
	 */
	EulerRotation mgl32.Vec3
	/** @brief Vertical field of view, in degrees. */
	FovY float32
	Near float32
	Far  float32

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/** @brief The camera-to-world transform, valid when not dirty. */
	viewToWorld mgl32.Mat4
	/** @brief Set by every transform change, cleared by TakeMoved. */
	moved bool
}

func NewCamera(position, target mgl32.Vec3, fovY float32) *Camera {
	camera := &Camera{
		FovY: fovY,
		Near: defaultNear,
		Far:  defaultFar,
	}
	camera.Reset()
	camera.Position = position
	camera.LookAt(target)
	return camera
}

func (c *Camera) Reset() {
	c.EulerRotation = mgl32.Vec3{}
	c.Position = mgl32.Vec3{}
	c.viewToWorld = mgl32.Ident4()
	c.IsDirty = false
	c.moved = true
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.Position = position
	c.touch()
}

func (c *Camera) SetEulerRotation(rotation mgl32.Vec3) {
	c.EulerRotation = rotation
	c.EulerRotation[0] = math.Clamp(c.EulerRotation[0], -pitchLimit, pitchLimit)
	c.touch()
}

// LookAt turns the camera towards target. Roll is reset.
func (c *Camera) LookAt(target mgl32.Vec3) {
	d := target.Sub(c.Position)
	if d.Len() == 0 {
		core.LogWarn("camera asked to look at its own position")
		return
	}
	d = d.Normalize()
	pitch := float32(gomath.Asin(float64(math.Clamp(d.Y(), -1, 1))))
	yaw := float32(gomath.Atan2(float64(-d.X()), float64(-d.Z())))
	c.SetEulerRotation(mgl32.Vec3{pitch, yaw, 0})
}

func (c *Camera) touch() {
	c.IsDirty = true
	c.moved = true
}

// TakeMoved reports whether the camera moved since the last call.
func (c *Camera) TakeMoved() bool {
	moved := c.moved
	c.moved = false
	return moved
}

func (c *Camera) rotation() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(c.EulerRotation[1]).
		Mul4(mgl32.HomogRotate3DX(c.EulerRotation[0])).
		Mul4(mgl32.HomogRotate3DZ(c.EulerRotation[2]))
}

func (c *Camera) ViewToWorld() mgl32.Mat4 {
	if c.IsDirty {
		c.viewToWorld = mgl32.Translate3D(c.Position.X(), c.Position.Y(), c.Position.Z()).Mul4(c.rotation())
		c.IsDirty = false
	}
	return c.viewToWorld
}

func (c *Camera) GetView() mgl32.Mat4 {
	return c.ViewToWorld().Inv()
}

func (c *Camera) Forward() mgl32.Vec3 {
	return c.rotation().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
}

func (c *Camera) Backward() mgl32.Vec3 {
	return c.Forward().Mul(-1)
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.rotation().Mul4x1(mgl32.Vec4{1, 0, 0, 0}).Vec3()
}

func (c *Camera) Left() mgl32.Vec3 {
	return c.Right().Mul(-1)
}

func (c *Camera) move(direction mgl32.Vec3, amount float32) {
	c.Position = c.Position.Add(direction.Mul(amount))
	c.touch()
}

func (c *Camera) MoveForward(amount float32)  { c.move(c.Forward(), amount) }
func (c *Camera) MoveBackward(amount float32) { c.move(c.Backward(), amount) }
func (c *Camera) MoveLeft(amount float32)     { c.move(c.Left(), amount) }
func (c *Camera) MoveRight(amount float32)    { c.move(c.Right(), amount) }
func (c *Camera) MoveUp(amount float32)       { c.move(mgl32.Vec3{0, 1, 0}, amount) }
func (c *Camera) MoveDown(amount float32)     { c.move(mgl32.Vec3{0, -1, 0}, amount) }

func (c *Camera) Yaw(amount float32) {
	c.EulerRotation[1] += amount
	c.touch()
}

func (c *Camera) Pitch(amount float32) {
	c.EulerRotation[0] = math.Clamp(c.EulerRotation[0]+amount, -pitchLimit, pitchLimit)
	c.touch()
}

// Matrices returns the transforms of the camera for a viewport of the given
// aspect ratio.
func (c *Camera) Matrices(aspect float32) metadata.CameraMatrices {
	viewToClip := mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
	viewToWorld := c.ViewToWorld()
	return metadata.CameraMatrices{
		ViewToClip:  viewToClip,
		ClipToView:  viewToClip.Inv(),
		WorldToView: viewToWorld.Inv(),
		ViewToWorld: viewToWorld,
	}
}
