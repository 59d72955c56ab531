package preview

import (
	"context"
	"sync"

	"github.com/fogleman/fauxgl"

	"github.com/solfactory/cone-renderer/customization"
	"github.com/solfactory/cone-renderer/internal/logging"
)

// FocusStep is the wizard step currently being edited. The cone view
// highlights the part that step controls.
type FocusStep string

const (
	FocusPaper  FocusStep = "paper"
	FocusFilter FocusStep = "filter"
	FocusSize   FocusStep = "size"
	FocusLot    FocusStep = "lot"
)

// ConePresenter shows the assembled cone: a paper frustum over a short
// filter tip.
type ConePresenter struct {
	mu     sync.Mutex
	surf   *surfaces
	focus  FocusStep
	angle  float64
	closed bool

	paperMesh, filterMesh *fauxgl.Mesh
	paperLen, filterLen   float64
	paperSlot, filterSlot Slot
}

func NewConePresenter(tex Textures) *ConePresenter {
	return &ConePresenter{surf: newSurfaces(tex)}
}

func (c *ConePresenter) Update(state customization.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	change := c.surf.update(state, state.PaperTextureURL, state.FilterTextureURL)
	if change.Has(customization.SizeChanged) || c.paperMesh == nil {
		c.build(customization.SizeScale(state.ConeSize))
	}
	logging.Logger().Debug("cone preview updated", "change", uint8(change))
}

func (c *ConePresenter) build(s float64) {
	c.paperLen = 2.4 * s
	c.filterLen = 0.6 * s
	group := at(0, 0, 0).Scaled(1.15, 1.15, 1.15)

	paperY := 0.6 * s
	c.paperMesh = place(frustum(0.22*s, 0.12*s, c.paperLen, 80, true), at(0, paperY, 0), group)

	filterY := paperY - c.paperLen/2 - c.filterLen/2
	c.filterMesh = place(frustum(0.12*s, 0.14*s, c.filterLen, 48, false), at(0, filterY, 0), group)
}

func (c *ConePresenter) Configure(opts Options) {
	c.mu.Lock()
	c.focus = opts.FocusStep
	c.angle = opts.Angle
	c.mu.Unlock()
}

func (c *ConePresenter) Wait(ctx context.Context) error {
	return c.surf.wait(ctx)
}

func (c *ConePresenter) Objects() []*Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.paperMesh == nil {
		return nil
	}
	state := c.surf.state

	paperHex := customization.ResolvePaperColor(state)
	paperType := customization.PaperOrDefault(state.PaperType)
	paper := Material{
		Color:             hex(paperHex),
		Map:               c.paperSlot.Sync(c.surf.paperBase(), 1, customization.VRepeat(c.paperLen)),
		Roughness:         customization.PaperRoughness(paperType),
		Metalness:         customization.PaperMetalness(paperType),
		Emissive:          hex(paperHex),
		EmissiveIntensity: 0.08,
		Opacity:           customization.PaperOpacity(paperType),
		DoubleSided:       true,
	}
	if c.focus == FocusPaper {
		paper.EmissiveIntensity = 0.35
	}

	filterHex := customization.ResolveFilterColor(state)
	filterMap := c.filterSlot.Sync(c.surf.filterBase(), 1, customization.VRepeat(c.filterLen*1.5))
	filter := Material{
		Color:             hex(filterHex),
		Map:               filterMap,
		Roughness:         customization.FilterRoughness(filterMap != nil),
		Metalness:         customization.FilterMetalness(state.FilterType),
		Emissive:          hex("#000000"),
		EmissiveIntensity: 0.04,
		Opacity:           customization.FilterOpacity(state.FilterType),
	}
	if c.focus == FocusFilter {
		filter.Emissive = hex(filterHex)
		filter.EmissiveIntensity = 0.35
	}

	return []*Object{
		{Name: "paper", Mesh: c.paperMesh, Material: paper},
		{Name: "filter", Mesh: c.filterMesh, Material: filter},
	}
}

func (c *ConePresenter) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stage{
		Camera:     newCamera(2.2, 1.4, 2.2, 40).Orbit(c.angle),
		Lighting:   Lighting{Ambient: 0.4, Direction: fauxgl.V(4, 6, 3), Intensity: 1.1},
		Background: studioBackground,
	}
}

// PaperSlot and FilterSlot expose the per-mesh texture clones.
func (c *ConePresenter) PaperSlot() *Slot  { return &c.paperSlot }
func (c *ConePresenter) FilterSlot() *Slot { return &c.filterSlot }

func (c *ConePresenter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.paperSlot.Release()
	c.filterSlot.Release()
	c.surf.close()
}
