package preview

import (
	"bytes"
	"context"
	"image"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"

	"github.com/solfactory/cone-renderer/internal/logging"
)

// Scene rasterizes at Size×Scale and downsamples to Size.
type Scene struct {
	Size  int
	Scale int
}

func NewScene(size, scale int) Scene {
	if size <= 0 {
		size = 512
	}
	if scale <= 0 {
		scale = 1
	}
	return Scene{Size: size, Scale: scale}
}

// Render draws objects under stage. Opaque objects go first so translucent
// ones blend over them.
func (s Scene) Render(stage Stage, objects []*Object) image.Image {
	px := s.Size * s.Scale
	ctx := fauxgl.NewContext(px, px)
	ctx.ClearColor = stage.Background
	ctx.ClearColorBuffer()
	ctx.ClearDepthBuffer()
	ctx.Cull = fauxgl.CullNone

	matrix := stage.Camera.Matrix(1)
	ordered := make([]*Object, 0, len(objects))
	for _, o := range objects {
		if o == nil || o.Mesh == nil {
			logging.Logger().Debug("skipping object without mesh")
			continue
		}
		ordered = append(ordered, o)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return opaque(ordered[i]) && !opaque(ordered[j])
	})

	for _, o := range ordered {
		ctx.Shader = newMaterialShader(matrix, stage.Camera.Eye, stage.Lighting, o.Material)
		ctx.DrawMesh(o.Mesh)
	}

	img := ctx.Image()
	if s.Scale > 1 {
		img = resize.Resize(uint(s.Size), uint(s.Size), img, resize.Bilinear)
	}
	return img
}

func opaque(o *Object) bool {
	return o.Material.Opacity <= 0 || o.Material.Opacity >= 1
}

// Snapshot waits for p's textures (bounded by ctx), syncs its meshes and
// renders one frame. Textures still loading at the deadline are drawn as
// flat color.
func (s Scene) Snapshot(ctx context.Context, p Presenter) image.Image {
	if err := p.Wait(ctx); err != nil {
		logging.Logger().Warn("rendering before textures settled", "err", err)
	}
	return s.Render(p.Stage(), p.Objects())
}

// EncodePNG encodes a rendered frame.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
