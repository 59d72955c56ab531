package preview

import (
	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera looking at Center.
type Camera struct {
	Eye    fauxgl.Vector
	Center fauxgl.Vector
	Up     fauxgl.Vector
	FovY   float64
	Near   float64
	Far    float64
}

func newCamera(x, y, z, fovy float64) Camera {
	return Camera{
		Eye:    fauxgl.V(x, y, z),
		Center: fauxgl.V(0, 0, 0),
		Up:     fauxgl.V(0, 1, 0),
		FovY:   fovy,
		Near:   0.1,
		Far:    100,
	}
}

// Orbit swings the eye around the vertical axis through Center.
func (c Camera) Orbit(degrees float64) Camera {
	if degrees == 0 {
		return c
	}
	rel := c.Eye.Sub(c.Center)
	r := mgl64.Rotate3DY(mgl64.DegToRad(degrees)).Mul3x1(mgl64.Vec3{rel.X, rel.Y, rel.Z})
	c.Eye = c.Center.Add(fauxgl.V(r[0], r[1], r[2]))
	return c
}

// Matrix is the combined view-projection matrix for a viewport of the
// given aspect ratio.
func (c Camera) Matrix(aspect float64) fauxgl.Matrix {
	return fauxgl.LookAt(c.Eye, c.Center, c.Up).Perspective(c.FovY, aspect, c.Near, c.Far)
}
