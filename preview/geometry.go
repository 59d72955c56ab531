package preview

import (
	"math"

	"github.com/fogleman/fauxgl"
)

// frustum builds an open or capped truncated cone centred on the origin,
// axis along +Y. u runs around the circumference and v from bottom (0) to
// top (1).
func frustum(radiusTop, radiusBottom, height float64, segments int, openEnded bool) *fauxgl.Mesh {
	half := height / 2
	slope := (radiusBottom - radiusTop) / height
	var tris []*fauxgl.Triangle

	ring := func(i int, r, y float64) fauxgl.Vertex {
		u := float64(i) / float64(segments)
		theta := u * 2 * math.Pi
		sin, cos := math.Sincos(theta)
		v := 0.0
		if y > 0 {
			v = 1
		}
		return fauxgl.Vertex{
			Position: fauxgl.V(r*sin, y, r*cos),
			Normal:   fauxgl.V(sin, slope, cos).Normalize(),
			Texture:  fauxgl.V(u, v, 0),
		}
	}

	for i := 0; i < segments; i++ {
		a := ring(i, radiusTop, half)
		b := ring(i, radiusBottom, -half)
		c := ring(i+1, radiusBottom, -half)
		d := ring(i+1, radiusTop, half)
		tris = append(tris, fauxgl.NewTriangle(a, b, c), fauxgl.NewTriangle(a, c, d))
	}

	if !openEnded {
		tris = append(tris, capTriangles(radiusTop, half, segments, true)...)
		tris = append(tris, capTriangles(radiusBottom, -half, segments, false)...)
	}
	return fauxgl.NewTriangleMesh(tris)
}

func capTriangles(radius, y float64, segments int, top bool) []*fauxgl.Triangle {
	if radius <= 0 {
		return nil
	}
	normal := fauxgl.V(0, 1, 0)
	sign := 1.0
	if !top {
		normal = fauxgl.V(0, -1, 0)
		sign = -1
	}
	vertex := func(i int) fauxgl.Vertex {
		theta := float64(i) / float64(segments) * 2 * math.Pi
		sin, cos := math.Sincos(theta)
		return fauxgl.Vertex{
			Position: fauxgl.V(radius*sin, y, radius*cos),
			Normal:   normal,
			Texture:  fauxgl.V(cos*0.5+0.5, sin*0.5*sign+0.5, 0),
		}
	}
	center := fauxgl.Vertex{Position: fauxgl.V(0, y, 0), Normal: normal, Texture: fauxgl.V(0.5, 0.5, 0)}

	tris := make([]*fauxgl.Triangle, 0, segments)
	for i := 0; i < segments; i++ {
		if top {
			tris = append(tris, fauxgl.NewTriangle(center, vertex(i), vertex(i+1)))
		} else {
			tris = append(tris, fauxgl.NewTriangle(center, vertex(i+1), vertex(i)))
		}
	}
	return tris
}

// plane builds a width×height grid in the XY plane facing +Z.
func plane(width, height float64, segX, segY int) *fauxgl.Mesh {
	vertex := func(ix, iy int) fauxgl.Vertex {
		u := float64(ix) / float64(segX)
		v := float64(iy) / float64(segY)
		return fauxgl.Vertex{
			Position: fauxgl.V((u-0.5)*width, (v-0.5)*height, 0),
			Normal:   fauxgl.V(0, 0, 1),
			Texture:  fauxgl.V(u, v, 0),
		}
	}
	tris := make([]*fauxgl.Triangle, 0, segX*segY*2)
	for iy := 0; iy < segY; iy++ {
		for ix := 0; ix < segX; ix++ {
			a := vertex(ix, iy)
			b := vertex(ix+1, iy)
			c := vertex(ix+1, iy+1)
			d := vertex(ix, iy+1)
			tris = append(tris, fauxgl.NewTriangle(a, b, c), fauxgl.NewTriangle(a, c, d))
		}
	}
	return fauxgl.NewTriangleMesh(tris)
}

// annularSector builds the flat ring segment a filter tip is cut from,
// between the two radii and angles, facing +Z. UVs span its bounding box.
func annularSector(inner, outer, start, end float64, segments int) *fauxgl.Mesh {
	point := func(r float64, i int) fauxgl.Vector {
		a := start + (end-start)*float64(i)/float64(segments)
		sin, cos := math.Sincos(a)
		return fauxgl.V(r*cos, r*sin, 0)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i <= segments; i++ {
		for _, p := range []fauxgl.Vector{point(inner, i), point(outer, i)} {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	w, h := math.Max(maxX-minX, 1e-9), math.Max(maxY-minY, 1e-9)
	vertex := func(p fauxgl.Vector) fauxgl.Vertex {
		return fauxgl.Vertex{
			Position: p,
			Normal:   fauxgl.V(0, 0, 1),
			Texture:  fauxgl.V((p.X-minX)/w, (p.Y-minY)/h, 0),
		}
	}

	tris := make([]*fauxgl.Triangle, 0, segments*2)
	for i := 0; i < segments; i++ {
		in0, in1 := vertex(point(inner, i)), vertex(point(inner, i+1))
		out0, out1 := vertex(point(outer, i)), vertex(point(outer, i+1))
		tris = append(tris, fauxgl.NewTriangle(in0, out0, out1), fauxgl.NewTriangle(in0, out1, in1))
	}
	return fauxgl.NewTriangleMesh(tris)
}

// Transform is a position, XYZ Euler rotation (radians) and scale, applied
// scale first.
type Transform struct {
	Position fauxgl.Vector
	Rotation fauxgl.Vector
	Scale    fauxgl.Vector
}

func at(x, y, z float64) Transform {
	return Transform{Position: fauxgl.V(x, y, z), Scale: fauxgl.V(1, 1, 1)}
}

func (t Transform) Rotated(x, y, z float64) Transform {
	t.Rotation = fauxgl.V(x, y, z)
	return t
}

func (t Transform) Scaled(x, y, z float64) Transform {
	t.Scale = fauxgl.V(x, y, z)
	return t
}

func (t Transform) Matrix() fauxgl.Matrix {
	return fauxgl.Identity().
		Scale(t.Scale).
		Rotate(fauxgl.V(0, 0, 1), t.Rotation.Z).
		Rotate(fauxgl.V(0, 1, 0), t.Rotation.Y).
		Rotate(fauxgl.V(1, 0, 0), t.Rotation.X).
		Translate(t.Position)
}

// place moves mesh by the local transform and then by each parent group,
// innermost first.
func place(mesh *fauxgl.Mesh, local Transform, groups ...Transform) *fauxgl.Mesh {
	m := local.Matrix()
	for _, g := range groups {
		m = g.Matrix().Mul(m)
	}
	mesh.Transform(m)
	return mesh
}
