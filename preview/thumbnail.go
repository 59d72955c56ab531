package preview

import (
	"context"
	"math"
	"sync"

	"github.com/fogleman/fauxgl"

	"github.com/solfactory/cone-renderer/customization"
)

// ThumbnailKind picks which part a thumbnail shows.
type ThumbnailKind string

const (
	ThumbnailPaper  ThumbnailKind = "paper"
	ThumbnailFilter ThumbnailKind = "filter"
)

// ThumbnailPresenter is the small spinning preview of one part. It shows
// nothing until that part has been chosen.
type ThumbnailPresenter struct {
	mu       sync.Mutex
	kind     ThumbnailKind
	surf     *surfaces
	slot     Slot
	angle    float64
	expanded bool
	onToggle func(expanded bool)
	closed   bool
}

func NewThumbnailPresenter(tex Textures, kind ThumbnailKind) *ThumbnailPresenter {
	return &ThumbnailPresenter{kind: kind, surf: newSurfaces(tex)}
}

func (t *ThumbnailPresenter) Kind() ThumbnailKind { return t.kind }

func (t *ThumbnailPresenter) Update(state customization.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.kind == ThumbnailPaper {
		t.surf.update(state, state.PaperTextureURL, "")
		return
	}
	url := state.FilterTextureURL
	if state.FilterType == customization.FilterCeramic {
		url = ""
	}
	t.surf.update(state, "", url)
}

func (t *ThumbnailPresenter) Configure(opts Options) {
	t.mu.Lock()
	t.angle = opts.Angle
	t.mu.Unlock()
	t.SetExpanded(opts.Expanded)
}

// OnToggle registers fn to run whenever the expanded state flips.
func (t *ThumbnailPresenter) OnToggle(fn func(expanded bool)) {
	t.mu.Lock()
	t.onToggle = fn
	t.mu.Unlock()
}

func (t *ThumbnailPresenter) SetExpanded(expanded bool) {
	t.mu.Lock()
	if t.expanded == expanded {
		t.mu.Unlock()
		return
	}
	t.expanded = expanded
	fn := t.onToggle
	t.mu.Unlock()
	if fn != nil {
		fn(expanded)
	}
}

func (t *ThumbnailPresenter) Expanded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expanded
}

func (t *ThumbnailPresenter) Wait(ctx context.Context) error {
	return t.surf.wait(ctx)
}

func (t *ThumbnailPresenter) Objects() []*Object {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	state := t.surf.state
	spin := at(0, 0, 0).Rotated(0, t.angle*math.Pi/180, 0)

	if t.kind == ThumbnailPaper {
		if state.PaperType == "" {
			t.slot.Sync(nil, 1, 1)
			return nil
		}
		return t.paperRoll(state, spin)
	}

	if state.FilterType == "" || state.FilterType == customization.FilterCeramic {
		t.slot.Sync(nil, 1, 1)
		if state.FilterType == "" {
			return nil
		}
		return ceramicTip(spin)
	}

	filterMap := t.slot.Sync(t.surf.filterBase(), 1, 1)
	mat := Material{
		Color:       hex(customization.ResolveFilterColor(state)),
		Map:         filterMap,
		Roughness:   customization.FilterRoughness(filterMap != nil),
		Metalness:   customization.FilterMetalness(state.FilterType),
		Opacity:     customization.FilterOpacity(state.FilterType),
		DoubleSided: true,
	}

	switch state.FilterType {
	case customization.FilterFolded:
		return foldedLayers(mat, spin)
	case customization.FilterSpiral:
		return spiralLayers(mat, spin)
	default:
		mesh := place(frustum(0.26, 0.14, 0.85, 64, true), at(0, 0, 0).Rotated(-math.Pi/2.2, 0, 0), spin)
		return []*Object{{Name: "glass", Mesh: mesh, Material: mat}}
	}
}

func (t *ThumbnailPresenter) paperRoll(state customization.State, spin Transform) []*Object {
	paperType := customization.PaperOrDefault(state.PaperType)
	mat := Material{
		Color:     hex(customization.ResolvePaperColor(state)),
		Map:       t.slot.Sync(t.surf.paperBase(), 1, 1),
		Roughness: customization.PaperRoughness(paperType),
		Metalness: customization.PaperMetalness(paperType),
		Opacity:   customization.PaperOpacity(paperType),
	}
	mesh := place(frustum(0.15, 0.15, 0.4, 32, false), at(0, 0, 0).Rotated(-math.Pi/2, 0, 0), spin)
	return []*Object{{Name: "roll", Mesh: mesh, Material: mat}}
}

func foldedLayers(mat Material, spin Transform) []*Object {
	objects := make([]*Object, 0, 5)
	for i := 0; i < 5; i++ {
		r := float64(i) / 5
		mesh := frustum(0.22+r*0.15, 0.45+r*0.2, 1.8+r*0.12, 72, true)
		objects = append(objects, &Object{
			Name:     "layer",
			Mesh:     place(mesh, at(0, 0, 0).Rotated(-math.Pi/2.1, 0, 0), spin),
			Material: mat,
		})
	}
	return objects
}

func spiralLayers(mat Material, spin Transform) []*Object {
	objects := make([]*Object, 0, 9)
	for i := 0; i < 6; i++ {
		r := float64(i) / 6
		mesh := frustum(0.18+r*0.18, 0.45+r*0.22, 1.8+r*0.12, 100, true)
		objects = append(objects, &Object{
			Name:     "layer",
			Mesh:     place(mesh, at(0, 0, 0).Rotated(-math.Pi/2.1, r*math.Pi*0.3, 0), spin),
			Material: mat,
		})
	}
	for i := 0; i < 3; i++ {
		a := float64(i) / 5 * 2 * math.Pi
		tilt := 0.35
		if i%2 == 1 {
			tilt = -tilt
		}
		local := at(math.Cos(a)*0.06, 0.06, math.Sin(a)*0.06).Rotated(-math.Pi/2.1, a+tilt*0.2, 0)
		objects = append(objects, &Object{
			Name:     "zig",
			Mesh:     place(plane(0.76, 0.26, 6, 8), local, spin),
			Material: mat,
		})
	}
	return objects
}

// ceramicTip is the catalog ceramic filter: a capped cylinder with five
// vents on its top face. It never shows a printed texture.
func ceramicTip(spin Transform) []*Object {
	tilt := at(0, 0, 0).Rotated(-math.Pi/2.2, 0, 0)
	objects := []*Object{{
		Name:     "ceramic",
		Mesh:     place(frustum(0.28, 0.28, 0.9, 64, false), at(0, 0, 0), tilt, spin),
		Material: Material{Color: hex("#f7f7f5"), Roughness: 0.55, Opacity: 1},
	}}
	for i := 0; i < 5; i++ {
		a := float64(i) / 5 * 2 * math.Pi
		objects = append(objects, &Object{
			Name:     "vent",
			Mesh:     place(frustum(0.025, 0.025, 0.08, 24, false), at(math.Cos(a)*0.11, 0.45, math.Sin(a)*0.11), tilt, spin),
			Material: flat("#020617", 0.5, 0),
		})
	}
	return objects
}

func (t *ThumbnailPresenter) Stage() Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	z, fov := 0.8, 50.0
	switch {
	case t.expanded:
		z, fov = 1.5, 40
	case t.kind == ThumbnailFilter:
		z, fov = 4.0, 35
	}
	return Stage{
		Camera:     newCamera(0, 0, z, fov),
		Lighting:   Lighting{Ambient: 0.8, Direction: fauxgl.V(2, 2, 2), Intensity: 1},
		Background: fauxgl.Transparent,
	}
}

func (t *ThumbnailPresenter) Slot() *Slot { return &t.slot }

func (t *ThumbnailPresenter) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.slot.Release()
	t.surf.close()
}
