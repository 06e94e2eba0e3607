package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ViewportHeight is the world-space height of the image plane.
const ViewportHeight float32 = 2.0

type CameraController struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Up       bool
	Down     bool

	Speed float32
}

// Camera is a pinhole camera. Up does not need to be orthogonal to Direction,
// but the two must not be parallel.
type Camera struct {
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	Up          mgl32.Vec3
	FocalLength float32

	Controller CameraController
}

func NewCamera() *Camera {
	return &Camera{
		Position:    mgl32.Vec3{0, 0, 0},
		Direction:   mgl32.Vec3{0, 0, -1},
		Up:          mgl32.Vec3{0, 1, 0},
		FocalLength: 1.0,
		Controller: CameraController{
			Speed: 2.0,
		},
	}
}

// UpdateMovement integrates the controller flags over dt seconds.
func (c *Camera) UpdateMovement(dt float32) {
	step := c.Controller.Speed * dt
	side := c.Up.Cross(c.Direction)

	if c.Controller.Forward {
		c.Position = c.Position.Add(c.Direction.Mul(step))
	}
	if c.Controller.Backward {
		c.Position = c.Position.Sub(c.Direction.Mul(step))
	}
	if c.Controller.Left {
		c.Position = c.Position.Add(side.Mul(step))
	}
	if c.Controller.Right {
		c.Position = c.Position.Sub(side.Mul(step))
	}
	if c.Controller.Up {
		c.Position = c.Position.Add(c.Up.Mul(step))
	}
	if c.Controller.Down {
		c.Position = c.Position.Sub(c.Up.Mul(step))
	}
}

// RenderParams projects the camera onto a viewport of width x height pixels.
//
// The basis is w = -direction, u = up x w, v = w x u. A degenerate camera
// (up parallel to direction) yields NaN components; nothing checks for it.
func (c *Camera) RenderParams(width, height uint32) CameraRenderParams {
	fw, fh := float32(width), float32(height)
	aspect := fw / fh

	viewportHeight := ViewportHeight
	viewportWidth := viewportHeight * aspect

	w := c.Direction.Mul(-1).Normalize()
	u := c.Up.Cross(w).Normalize()
	v := w.Cross(u)

	viewportU := u.Mul(viewportWidth)
	viewportV := v.Mul(-viewportHeight)

	pixelDeltaU := div(viewportU, fw)
	pixelDeltaV := div(viewportV, fh)

	upperLeft := c.Position.
		Sub(w.Mul(c.FocalLength)).
		Sub(viewportU.Mul(0.5)).
		Sub(viewportV.Mul(0.5))

	return CameraRenderParams{
		Position:    c.Position,
		UpperLeft:   upperLeft,
		PixelDeltaU: pixelDeltaU,
		PixelDeltaV: pixelDeltaV,
	}
}

func div(v mgl32.Vec3, s float32) mgl32.Vec3 {
	return mgl32.Vec3{v[0] / s, v[1] / s, v[2] / s}
}
