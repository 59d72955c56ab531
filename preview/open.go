package preview

import (
	"context"
	"math"
	"sync"

	"github.com/fogleman/fauxgl"

	"github.com/solfactory/cone-renderer/customization"
)

// OpenPresenter shows the parts before rolling: the paper as a flat sheet
// and the filter as a long open tube in front of it.
type OpenPresenter struct {
	mu     sync.Mutex
	surf   *surfaces
	angle  float64
	closed bool

	scale                 float64
	paperMesh, filterMesh *fauxgl.Mesh
	paperSlot, filterSlot Slot
}

func NewOpenPresenter(tex Textures) *OpenPresenter {
	return &OpenPresenter{surf: newSurfaces(tex)}
}

func (o *OpenPresenter) Update(state customization.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	change := o.surf.update(state, state.PaperTextureURL, state.FilterTextureURL)
	if change.Has(customization.SizeChanged) || o.paperMesh == nil {
		o.build(customization.SizeScale(state.ConeSize))
	}
}

func (o *OpenPresenter) build(s float64) {
	o.scale = s
	group := at(0, 0, 0).Scaled(s, s, s)
	tilt := -math.Pi / 2.4
	o.paperMesh = place(plane(3.1, 2.0, 24, 4), at(0, 0.05, 0).Rotated(tilt, 0, 0), group)
	o.filterMesh = place(frustum(0.22, 0.22, 2.6, 64, true), at(0, 0.15, 0.95).Rotated(tilt, 0, 0), group)
}

func (o *OpenPresenter) Configure(opts Options) {
	o.mu.Lock()
	o.angle = opts.Angle
	o.mu.Unlock()
}

func (o *OpenPresenter) Wait(ctx context.Context) error {
	return o.surf.wait(ctx)
}

func (o *OpenPresenter) Objects() []*Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.paperMesh == nil {
		return nil
	}
	state := o.surf.state

	paperType := customization.PaperOrDefault(state.PaperType)
	paper := Material{
		Color:       hex(customization.ResolvePaperColor(state)),
		Map:         o.paperSlot.Sync(o.surf.paperBase(), 1, customization.VRepeat(2.0*o.scale)),
		Roughness:   customization.PaperRoughness(paperType),
		Metalness:   customization.PaperMetalness(paperType),
		Opacity:     customization.PaperOpacity(paperType),
		DoubleSided: true,
	}

	filterMap := o.filterSlot.Sync(o.surf.filterBase(), 1, customization.VRepeat(2.6*o.scale))
	filter := Material{
		Color:       hex(customization.ResolveFilterColor(state)),
		Map:         filterMap,
		Roughness:   customization.FilterRoughness(filterMap != nil),
		Metalness:   customization.FilterMetalness(state.FilterType),
		Opacity:     customization.FilterOpacity(state.FilterType),
		DoubleSided: true,
	}

	return []*Object{
		{Name: "paper", Mesh: o.paperMesh, Material: paper},
		{Name: "filter", Mesh: o.filterMesh, Material: filter},
	}
}

func (o *OpenPresenter) Stage() Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Stage{
		Camera:     newCamera(1.7, 1.6, 3.7, 45).Orbit(o.angle),
		Lighting:   Lighting{Ambient: 0.65, Direction: fauxgl.V(4, 5, 3), Intensity: 1.1},
		Background: studioBackground,
	}
}

func (o *OpenPresenter) PaperSlot() *Slot  { return &o.paperSlot }
func (o *OpenPresenter) FilterSlot() *Slot { return &o.filterSlot }

func (o *OpenPresenter) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	o.paperSlot.Release()
	o.filterSlot.Release()
	o.surf.close()
}
