// Package texture loads, caches and generates the surface maps used by the
// cone previews. Base resources are owned by a process-wide Store; meshes
// sample from clones that carry their own tiling.
package texture

import (
	"image"
	"math"
	"sync"
	"sync/atomic"

	"github.com/fogleman/fauxgl"
)

type Wrap int

const (
	WrapClamp Wrap = iota
	WrapRepeat
)

type ColorSpace int

const (
	ColorSpaceSRGB ColorSpace = iota
	ColorSpaceLinear
)

// Config is the sampling state of a resource. A base resource gets
// DefaultConfig when it is decoded; clones copy it and may change repeat.
type Config struct {
	WrapS      Wrap
	WrapT      Wrap
	RepeatU    float64
	RepeatV    float64
	ColorSpace ColorSpace
}

// DefaultConfig is applied to every decoded or generated base resource.
func DefaultConfig() Config {
	return Config{
		WrapS:      WrapRepeat,
		WrapT:      WrapRepeat,
		RepeatU:    1,
		RepeatV:    1,
		ColorSpace: ColorSpaceSRGB,
	}
}

// pixels is the decoded image shared between a base resource and its clones.
type pixels struct {
	mu  sync.RWMutex
	img *image.NRGBA
}

func (p *pixels) get() *image.NRGBA {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.img
}

func (p *pixels) release() {
	p.mu.Lock()
	p.img = nil
	p.mu.Unlock()
}

// Resource is a sampled surface map. It is safe to sample concurrently;
// SetRepeat must not race with sampling on the same resource.
type Resource struct {
	key      string
	px       *pixels
	cfg      Config
	source   *Resource
	disposed atomic.Bool
}

// NewResource wraps img as a base resource with DefaultConfig.
func NewResource(key string, img *image.NRGBA) *Resource {
	return &Resource{
		key: key,
		px:  &pixels{img: img},
		cfg: DefaultConfig(),
	}
}

// Key is the URL, or the procedural key, the resource was built from.
func (r *Resource) Key() string { return r.key }

func (r *Resource) Config() Config { return r.cfg }

// Source returns the base resource of a clone, or nil for a base resource.
func (r *Resource) Source() *Resource { return r.source }

// Size returns the pixel dimensions, or zero once the pixels are released.
func (r *Resource) Size() (int, int) {
	img := r.px.get()
	if img == nil {
		return 0, 0
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

// Clone returns a resource that shares r's pixels with an independent
// config. Cloning a clone still points Source at the base.
func (r *Resource) Clone() *Resource {
	base := r
	if r.source != nil {
		base = r.source
	}
	return &Resource{
		key:    r.key,
		px:     r.px,
		cfg:    r.cfg,
		source: base,
	}
}

func (r *Resource) SetRepeat(u, v float64) {
	r.cfg.RepeatU = u
	r.cfg.RepeatV = v
}

// Dispose marks r unusable. Disposing a base resource releases the pixels
// for every clone of it; disposing a clone leaves the base untouched.
func (r *Resource) Dispose() {
	if !r.disposed.CompareAndSwap(false, true) {
		return
	}
	if r.source == nil {
		r.px.release()
	}
}

func (r *Resource) Disposed() bool { return r.disposed.Load() }

func (r *Resource) image() *image.NRGBA {
	if r.disposed.Load() {
		return nil
	}
	if r.source != nil && r.source.disposed.Load() {
		return nil
	}
	return r.px.get()
}

func wrap(t float64, mode Wrap) float64 {
	if mode == WrapRepeat {
		return t - math.Floor(t)
	}
	return math.Max(0, math.Min(1, t))
}

func (r *Resource) uv(u, v float64) (float64, float64) {
	u = wrap(u*r.cfg.RepeatU, r.cfg.WrapS)
	v = wrap(v*r.cfg.RepeatV, r.cfg.WrapT)
	return u, 1 - v
}

func (r *Resource) texel(img *image.NRGBA, x, y int) fauxgl.Color {
	b := img.Bounds()
	if x >= b.Dx() {
		x = b.Dx() - 1
	}
	if y >= b.Dy() {
		y = b.Dy() - 1
	}
	c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
	col := fauxgl.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
	if r.cfg.ColorSpace == ColorSpaceSRGB {
		col = ToLinear(col)
	}
	return col
}

// Sample returns the nearest texel in linear space.
func (r *Resource) Sample(u, v float64) fauxgl.Color {
	img := r.image()
	if img == nil {
		return fauxgl.Transparent
	}
	u, v = r.uv(u, v)
	b := img.Bounds()
	return r.texel(img, int(u*float64(b.Dx())), int(v*float64(b.Dy())))
}

// BilinearSample blends the four texels around (u, v) in linear space.
func (r *Resource) BilinearSample(u, v float64) fauxgl.Color {
	c, _ := r.BilinearLookup(u, v)
	return c
}

// BilinearLookup is BilinearSample that also reports whether pixels were
// available. It is false once r or its source has been disposed.
func (r *Resource) BilinearLookup(u, v float64) (fauxgl.Color, bool) {
	img := r.image()
	if img == nil {
		return fauxgl.Transparent, false
	}
	u, v = r.uv(u, v)
	b := img.Bounds()
	x := u * float64(b.Dx()-1)
	y := v * float64(b.Dy()-1)
	x0, y0 := int(x), int(y)
	x -= float64(x0)
	y -= float64(y0)
	c00 := r.texel(img, x0, y0)
	c01 := r.texel(img, x0, y0+1)
	c10 := r.texel(img, x0+1, y0)
	c11 := r.texel(img, x0+1, y0+1)
	c := c00.MulScalar((1 - x) * (1 - y))
	c = c.Add(c10.MulScalar(x * (1 - y)))
	c = c.Add(c01.MulScalar((1 - x) * y))
	c = c.Add(c11.MulScalar(x * y))
	return c, true
}

// ToLinear converts an sRGB color to linear light, keeping alpha.
func ToLinear(c fauxgl.Color) fauxgl.Color {
	return fauxgl.Color{R: srgbToLinear(c.R), G: srgbToLinear(c.G), B: srgbToLinear(c.B), A: c.A}
}

// ToSRGB is the inverse of ToLinear.
func ToSRGB(c fauxgl.Color) fauxgl.Color {
	return fauxgl.Color{R: linearToSRGB(c.R), G: linearToSRGB(c.G), B: linearToSRGB(c.B), A: c.A}
}

func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linearToSRGB(v float64) float64 {
	if v <= 0 {
		return 0
	}
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}
