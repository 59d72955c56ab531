package texture

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/solfactory/cone-renderer/customization"
	"github.com/solfactory/cone-renderer/internal/logging"
)

// ProceduralSize is the edge length of generated paper textures.
const ProceduralSize = 256

// Generator synthesizes paper textures for papers that have no uploaded
// image. Each paper type is generated once and the same Resource is
// returned from then on.
type Generator struct {
	size int

	mu   sync.Mutex
	memo map[customization.PaperType]*Resource
}

func NewGenerator() *Generator {
	return &Generator{size: ProceduralSize, memo: make(map[customization.PaperType]*Resource)}
}

// Generate returns the memoized texture for p. Empty or unknown types share
// the hemp texture.
func (g *Generator) Generate(p customization.PaperType) *Resource {
	p = customization.PaperOrDefault(p)

	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.memo[p]; ok {
		return r
	}
	r := NewResource("procedural:"+string(p), Synthesize(p, g.size))
	g.memo[p] = r
	logging.Logger().Debug("procedural texture generated", "paper", p)
	return r
}

// Clear disposes every generated texture.
func (g *Generator) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.memo {
		r.Dispose()
	}
	g.memo = make(map[customization.PaperType]*Resource)
}

// Synthesize draws the pattern for p at size×size. It is a pure function of
// p and the pixel coordinates.
func Synthesize(p customization.PaperType, size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	shade := shaders[customization.PaperOrDefault(p)]
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			u := float64(x) / float64(size)
			v := float64(y) / float64(size)
			r, g, b := shade(x, y, u, v)
			img.SetNRGBA(x, y, color.NRGBA{R: clamp8(r), G: clamp8(g), B: clamp8(b), A: 255})
		}
	}
	return img
}

type shader func(x, y int, u, v float64) (r, g, b float64)

var shaders = map[customization.PaperType]shader{
	customization.PaperUnbleached: unbleachedFibres,
	customization.PaperHemp:       hempStrands,
	customization.PaperBleached:   bleachedGrain,
	customization.PaperColored:    coloredMottle,
	customization.PaperRice:       riceSpeckle,
	customization.PaperBamboo:     bambooNodes,
}

// Patterns are tinted toward white so the material color still dominates
// once the two are multiplied.

func unbleachedFibres(x, y int, u, v float64) (float64, float64, float64) {
	fibre := math.Sin(v*2*math.Pi*40+math.Sin(u*2*math.Pi*3)*2) * 0.5
	flecks := 0.0
	if hash(x/2, y/2) > 0.97 {
		flecks = -40
	}
	base := 226 + fibre*14 + (hash(x, y)-0.5)*16 + flecks
	return base, base - 10, base - 26
}

func hempStrands(x, y int, u, v float64) (float64, float64, float64) {
	strand := math.Sin(v*2*math.Pi*24+math.Sin(u*2*math.Pi*6)*1.5)*0.6 + math.Sin(v*2*math.Pi*70)*0.2
	knot := 0.0
	if hash(x/4, y/8) > 0.985 {
		knot = -30
	}
	base := 220 + strand*18 + (hash(x, y)-0.5)*12 + knot
	return base - 8, base, base - 14
}

func bleachedGrain(x, y int, u, v float64) (float64, float64, float64) {
	grain := (hash(x, y)-0.5)*10 + math.Sin((u+v)*2*math.Pi*12)*2
	base := 246 + grain
	return base, base, base + 2
}

func coloredMottle(x, y int, u, v float64) (float64, float64, float64) {
	cloud := math.Sin(u*2*math.Pi*3+math.Cos(v*2*math.Pi*2)*1.7)*0.5 +
		math.Cos(v*2*math.Pi*5+math.Sin(u*2*math.Pi*4))*0.5
	base := 228 + cloud*16 + (hash(x, y)-0.5)*8
	return base, base, base
}

func riceSpeckle(x, y int, u, v float64) (float64, float64, float64) {
	base := 244 + (hash(x, y)-0.5)*6
	if hash(x/3, y/3) > 0.94 {
		base -= 18
	}
	base += math.Sin(u*2*math.Pi*8) * math.Sin(v*2*math.Pi*8) * 3
	return base, base, base - 4
}

func bambooNodes(x, y int, u, v float64) (float64, float64, float64) {
	fibre := math.Sin(u*2*math.Pi*48) * 0.4
	node := 0.0
	if d := math.Abs(math.Mod(v*6, 1) - 0.5); d < 0.03 {
		node = -34 * (1 - d/0.03)
	}
	base := 232 + fibre*14 + node + (hash(x, y)-0.5)*10
	return base, base - 6, base - 22
}

// hash maps integer coordinates to [0, 1) deterministically.
func hash(x, y int) float64 {
	h := uint32(x)*374761393 + uint32(y)*668265263
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float64(h) / float64(math.MaxUint32+1)
}

func clamp8(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
