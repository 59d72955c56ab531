package preview

import (
	"math"

	"github.com/fogleman/fauxgl"

	"github.com/solfactory/cone-renderer/texture"
)

// Object is one mesh of a preview and the material it is drawn with.
type Object struct {
	Name     string
	Mesh     *fauxgl.Mesh
	Material Material
}

// Material is a small subset of a physically based material. Colors are
// sRGB; the shader linearizes them.
type Material struct {
	Color             fauxgl.Color
	Map               *texture.Resource
	Roughness         float64
	Metalness         float64
	Emissive          fauxgl.Color
	EmissiveIntensity float64
	Opacity           float64
	DoubleSided       bool
}

// flat is an untextured, fully opaque material.
func flat(hex string, roughness, metalness float64) Material {
	return Material{
		Color:     fauxgl.HexColor(hex),
		Roughness: roughness,
		Metalness: metalness,
		Opacity:   1,
	}
}

// Lighting is an ambient term plus one directional light.
type Lighting struct {
	Ambient   float64
	Direction fauxgl.Vector
	Intensity float64
}

// materialShader implements fauxgl.Shader with Lambert diffuse and a
// Blinn-Phong highlight whose size and strength follow roughness and
// metalness.
type materialShader struct {
	matrix   fauxgl.Matrix
	light    fauxgl.Vector
	eye      fauxgl.Vector
	lighting Lighting
	mat      Material

	base      fauxgl.Color
	emissive  fauxgl.Color
	shininess float64
	specular  float64
}

func newMaterialShader(matrix fauxgl.Matrix, eye fauxgl.Vector, lighting Lighting, mat Material) *materialShader {
	rough := clamp01(mat.Roughness)
	metal := clamp01(mat.Metalness)
	if mat.Opacity <= 0 {
		mat.Opacity = 1
	}
	return &materialShader{
		matrix:    matrix,
		light:     lighting.Direction.Normalize(),
		eye:       eye,
		lighting:  lighting,
		mat:       mat,
		base:      texture.ToLinear(mat.Color),
		emissive:  texture.ToLinear(mat.Emissive).MulScalar(mat.EmissiveIntensity),
		shininess: 2 + (1-rough)*(1-rough)*126,
		specular:  (1 - rough) * (0.04 + 0.96*metal),
	}
}

func (s *materialShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	v.Output = s.matrix.MulPositionW(v.Position)
	return v
}

func (s *materialShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	albedo := s.base
	alpha := 1.0
	if s.mat.Map != nil {
		// A map disposed mid-frame draws as flat color.
		if t, ok := s.mat.Map.BilinearLookup(v.Texture.X, v.Texture.Y); ok {
			albedo = fauxgl.Color{R: albedo.R * t.R, G: albedo.G * t.G, B: albedo.B * t.B}
			alpha = t.A
		}
	}

	n := v.Normal.Normalize()
	view := s.eye.Sub(v.Position).Normalize()
	if n.Dot(view) < 0 && s.mat.DoubleSided {
		n = n.Negate()
	}

	metal := clamp01(s.mat.Metalness)
	diffuse := math.Max(n.Dot(s.light), 0) * s.lighting.Intensity
	shade := s.lighting.Ambient + diffuse*(1-metal)
	out := fauxgl.Color{R: albedo.R * shade, G: albedo.G * shade, B: albedo.B * shade}

	if diffuse > 0 && s.specular > 0 {
		half := s.light.Add(view).Normalize()
		spec := math.Pow(math.Max(n.Dot(half), 0), s.shininess) * s.specular * s.lighting.Intensity
		tint := fauxgl.Color{
			R: 1 + (albedo.R-1)*metal,
			G: 1 + (albedo.G-1)*metal,
			B: 1 + (albedo.B-1)*metal,
		}
		out = fauxgl.Color{R: out.R + tint.R*spec, G: out.G + tint.G*spec, B: out.B + tint.B*spec}
	}

	out = fauxgl.Color{R: out.R + s.emissive.R, G: out.G + s.emissive.G, B: out.B + s.emissive.B}
	out = texture.ToSRGB(fauxgl.Color{R: clamp01(out.R), G: clamp01(out.G), B: clamp01(out.B)})
	out.A = alpha * s.mat.Opacity
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
