// Package preview turns a customization.State into the meshes and
// materials of the cone previews and rasterizes them with fauxgl.
package preview

import (
	"context"
	"errors"
	"fmt"

	"github.com/fogleman/fauxgl"
	"golang.org/x/sync/errgroup"

	"github.com/solfactory/cone-renderer/customization"
	"github.com/solfactory/cone-renderer/texture"
)

var ErrUnknownView = errors.New("unknown preview view")

// Textures is the shared texture machinery presenters resolve against.
type Textures struct {
	Cache     texture.Cache
	Generator *texture.Generator
}

// Presenter keeps one preview in step with the customer's selections.
//
// Update applies a new state; Objects is the per-frame step that brings
// every mesh's texture clone up to date and returns what to draw. Wait
// returns ctx's error if a texture was still loading when ctx ended.
type Presenter interface {
	Update(state customization.State)
	Configure(opts Options)
	Wait(ctx context.Context) error
	Objects() []*Object
	Stage() Stage
	Close()
}

type View string

const (
	ViewCone      View = "cone"
	ViewFilter    View = "filter"
	ViewOpen      View = "open"
	ViewThumbnail View = "thumbnail"
)

// Options are the per-view knobs that are not part of the customization.
type Options struct {
	FocusStep  FocusStep     `json:"FocusStep,omitempty"`
	Kind       ThumbnailKind `json:"Kind,omitempty"`
	Expanded   bool          `json:"Expanded,omitempty"`
	Transition bool          `json:"Transition,omitempty"`
	Progress   float64       `json:"Progress,omitempty"`
	Angle      float64       `json:"Angle,omitempty"`
}

// New builds the presenter for view and applies opts.
func New(view View, tex Textures, opts Options) (Presenter, error) {
	var p Presenter
	switch view {
	case ViewCone:
		p = NewConePresenter(tex)
	case ViewFilter:
		p = NewFilterPresenter(tex)
	case ViewOpen:
		p = NewOpenPresenter(tex)
	case ViewThumbnail:
		kind := opts.Kind
		if kind == "" {
			kind = ThumbnailPaper
		}
		if kind != ThumbnailPaper && kind != ThumbnailFilter {
			return nil, fmt.Errorf("thumbnail kind %q: %w", kind, ErrUnknownView)
		}
		p = NewThumbnailPresenter(tex, kind)
	default:
		return nil, fmt.Errorf("%q: %w", view, ErrUnknownView)
	}
	p.Configure(opts)
	return p, nil
}

// surfaces resolves the paper and filter base textures for a presenter.
// When both point at the same URL only the paper binding loads it.
type surfaces struct {
	tex     Textures
	state   customization.State
	started bool
	paper   *texture.Binding
	filter  *texture.Binding
	shared  bool
}

func newSurfaces(tex Textures) *surfaces {
	return &surfaces{
		tex:    tex,
		paper:  texture.NewBinding(tex.Cache, ""),
		filter: texture.NewBinding(tex.Cache, ""),
	}
}

// update re-targets the bindings and reports what changed. filterURL lets
// a presenter ignore the filter image for variants that cannot show it.
func (s *surfaces) update(state customization.State, paperURL, filterURL string) customization.Change {
	change := state.Diff(s.state)
	if !s.started {
		change = ^customization.Change(0)
		s.started = true
	}
	s.state = state
	s.shared = paperURL != "" && paperURL == filterURL
	s.paper.Set(paperURL)
	if s.shared {
		s.filter.Set("")
	} else {
		s.filter.Set(filterURL)
	}
	return change
}

// paperBase is the uploaded paper image when one is set (nil while it loads
// or after it failed), else the procedural texture for the paper type.
func (s *surfaces) paperBase() *texture.Resource {
	if s.state.PaperTextureURL != "" {
		return s.paper.Resource()
	}
	if s.tex.Generator == nil {
		return nil
	}
	return s.tex.Generator.Generate(s.state.PaperType)
}

// filterBase has no procedural fallback.
func (s *surfaces) filterBase() *texture.Resource {
	if s.shared {
		return s.paper.Resource()
	}
	return s.filter.Resource()
}

func (s *surfaces) wait(ctx context.Context) error {
	var g errgroup.Group
	for name, b := range map[string]*texture.Binding{"paper": s.paper, "filter": s.filter} {
		g.Go(func() error {
			b.Wait(ctx)
			if b.State() == texture.Loading && ctx.Err() != nil {
				return fmt.Errorf("%s texture still loading: %w", name, ctx.Err())
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *surfaces) close() {
	s.paper.Close()
	s.filter.Close()
}

// Stage is everything about a view that is not a mesh.
type Stage struct {
	Camera     Camera
	Lighting   Lighting
	Background fauxgl.Color
}

var studioBackground = fauxgl.HexColor("#020617")

func hex(s string) fauxgl.Color {
	return fauxgl.HexColor(s)
}
