package texture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
)

// fakeDecoder counts decodes per URL. URLs listed in fail return an error;
// when gate is non-nil every decode blocks until it is closed.
type fakeDecoder struct {
	mu    sync.Mutex
	calls map[string]int
	total atomic.Int32
	fail  map[string]bool
	gate  chan struct{}
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{calls: map[string]int{}, fail: map[string]bool{}}
}

func (d *fakeDecoder) Decode(ctx context.Context, url string) (image.Image, error) {
	d.mu.Lock()
	d.calls[url]++
	gate := d.gate
	fail := d.fail[url]
	d.mu.Unlock()
	d.total.Add(1)

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("broken image")
	}
	return solid(4, 4, color.NRGBA{R: 200, G: 100, B: 50, A: 255}), nil
}

func (d *fakeDecoder) count(url string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[url]
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
