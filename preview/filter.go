package preview

import (
	"context"
	"math"
	"sync"

	"github.com/fogleman/fauxgl"

	"github.com/solfactory/cone-renderer/customization"
)

// FilterPresenter shows the filter on its own: the flat paper template it is
// cut from, the roll it becomes, or a ceramic tip.
type FilterPresenter struct {
	mu     sync.Mutex
	surf   *surfaces
	slot   Slot
	angle  float64
	closed bool

	transitioning bool
	progress      float64
	completed     bool
	onComplete    func()
}

func NewFilterPresenter(tex Textures) *FilterPresenter {
	return &FilterPresenter{surf: newSurfaces(tex)}
}

func (f *FilterPresenter) Update(state customization.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	url := state.FilterTextureURL
	if state.FilterType == customization.FilterCeramic {
		url = ""
	}
	change := f.surf.update(state, "", url)
	if f.transitioning && change.Has(customization.FilterChanged|customization.FilterTextureChanged|customization.SizeChanged) {
		f.progress = 0
		f.completed = false
	}
}

func (f *FilterPresenter) Configure(opts Options) {
	f.mu.Lock()
	f.angle = opts.Angle
	f.mu.Unlock()
	f.SetTransition(opts.Transition, opts.Progress)
}

// OnTransitionComplete registers fn to run once when a transition reaches
// the end.
func (f *FilterPresenter) OnTransitionComplete(fn func()) {
	f.mu.Lock()
	f.onComplete = fn
	f.mu.Unlock()
}

// SetTransition drives the roll into the cone. progress is clamped to
// [0, 1]. Leaving the transition resets it.
func (f *FilterPresenter) SetTransition(active bool, progress float64) {
	f.mu.Lock()
	if !active {
		f.transitioning, f.progress, f.completed = false, 0, false
		f.mu.Unlock()
		return
	}
	if !f.transitioning {
		f.completed = false
	}
	f.transitioning = true
	f.progress = clamp01(progress)
	var fire func()
	if f.progress >= 1 && !f.completed {
		f.completed = true
		fire = f.onComplete
	}
	f.mu.Unlock()
	if fire != nil {
		fire()
	}
}

// Progress is the current transition progress.
func (f *FilterPresenter) Progress() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progress
}

func (f *FilterPresenter) Wait(ctx context.Context) error {
	return f.surf.wait(ctx)
}

func (f *FilterPresenter) Objects() []*Object {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	state := f.surf.state
	s := customization.SizeScale(state.ConeSize)
	group := at(0, 0, 0).Scaled(s, s, s)
	if state.FilterType != customization.FilterCeramic {
		group = group.Rotated(0, f.angle*math.Pi/180, 0)
	}

	if state.FilterType == customization.FilterCeramic {
		f.slot.Sync(nil, 1, 1)
		return f.ceramic(group)
	}

	filterMap := f.slot.Sync(f.surf.filterBase(), 1, 1)
	paper := Material{
		Color:       hex(customization.ResolveFilterColor(state)),
		Map:         filterMap,
		Roughness:   customization.FilterRoughness(filterMap != nil),
		Metalness:   customization.FilterMetalness(state.FilterType),
		Opacity:     customization.FilterOpacity(state.FilterType),
		DoubleSided: true,
	}

	p := f.progress
	switch {
	case state.FilterType == "":
		mesh := place(plane(2.2, 0.6, 1, 1), at(0, 0, 0).Rotated(-math.Pi/2.3, 0, 0), group)
		return []*Object{{Name: "strip", Mesh: mesh, Material: paper}}
	case f.transitioning:
		if p <= 0.1 {
			return nil
		}
		k := 0.15 + (1-p)*0.85
		local := at(0.6*p, -1.2*p, 0).Rotated(-math.Pi/2, 0, 0).Scaled(k, k, p)
		mesh := place(frustum(0.12, 0.12, 0.35, 32, false), local, group)
		return []*Object{{Name: "roll", Mesh: mesh, Material: paper}}
	default:
		mesh := place(annularSector(0.3, 1.2, 0, math.Pi*0.6, 48), at(0, 0, 0).Rotated(-math.Pi/2.2, 0, 0), group)
		return []*Object{{Name: "template", Mesh: mesh, Material: paper}}
	}
}

// ceramic is a capped tip with four vents on its top face. It shrinks into
// the cone during a transition.
func (f *FilterPresenter) ceramic(outer Transform) []*Object {
	p := f.progress
	tip := at(0, 0, 0).Rotated(-math.Pi/2.2, 0, 0)
	radius := 0.26
	if f.transitioning {
		k := 0.15 + (1-p)*0.85
		tip = at(0.6*p, -1.2*p, 0).Rotated(-math.Pi/2.2, 0, 0).Scaled(k, k, 1)
		radius *= 1 - p
	}

	body := Material{Color: hex("#f7f7f5"), Roughness: 0.55, Opacity: 1}
	objects := []*Object{{
		Name:     "ceramic",
		Mesh:     place(frustum(radius, radius, 0.9, 64, false), at(0, 0, 0), tip, outer),
		Material: body,
	}}
	for i := 0; i < 4; i++ {
		a := float64(i) / 4 * 2 * math.Pi
		vent := at(math.Cos(a)*0.11, 0.45, math.Sin(a)*0.11)
		objects = append(objects, &Object{
			Name:     "vent",
			Mesh:     place(frustum(0.025, 0.025, 0.08, 24, false), vent, tip, outer),
			Material: flat("#000000", 0.5, 0),
		})
	}
	return objects
}

func (f *FilterPresenter) Stage() Stage {
	return Stage{
		Camera:     newCamera(1.5, 1.3, 3.2, 45),
		Lighting:   Lighting{Ambient: 0.65, Direction: fauxgl.V(4, 5, 3), Intensity: 1.1},
		Background: studioBackground,
	}
}

// Slot exposes the filter's texture clone.
func (f *FilterPresenter) Slot() *Slot { return &f.slot }

func (f *FilterPresenter) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.slot.Release()
	f.surf.close()
}
