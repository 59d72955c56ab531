package texture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/vincent-petithory/dataurl"
)

var (
	ErrEmptyURL          = errors.New("empty texture url")
	ErrUnsupportedScheme = errors.New("unsupported texture url scheme")
	ErrHTTPStatus        = errors.New("unexpected http status")
	ErrDecode            = errors.New("texture decode failed")
)

// Decoder turns a texture URL into pixels.
type Decoder interface {
	Decode(ctx context.Context, url string) (image.Image, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, url string) (image.Image, error)

func (f DecoderFunc) Decode(ctx context.Context, url string) (image.Image, error) {
	return f(ctx, url)
}

// URLDecoder decodes data URLs (customer uploads), http(s) URLs (CDN
// assets) and, when FileRoot is set, file:// URLs relative to that root.
type URLDecoder struct {
	Client       *http.Client
	MaxDimension int
	FileRoot     string
}

func NewURLDecoder(client *http.Client, maxDimension int) *URLDecoder {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &URLDecoder{Client: client, MaxDimension: maxDimension}
}

func (d *URLDecoder) Decode(ctx context.Context, rawURL string) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	switch {
	case rawURL == "":
		return nil, ErrEmptyURL
	case strings.HasPrefix(rawURL, "data:"):
		img, err = d.decodeDataURL(rawURL)
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		img, err = d.decodeRemote(ctx, rawURL)
	case strings.HasPrefix(rawURL, "file://") && d.FileRoot != "":
		img, err = d.decodeFile(rawURL)
	default:
		return nil, fmt.Errorf("%s: %w", truncate(rawURL), ErrUnsupportedScheme)
	}
	if err != nil {
		return nil, err
	}
	if d.MaxDimension > 0 {
		b := img.Bounds()
		if b.Dx() > d.MaxDimension || b.Dy() > d.MaxDimension {
			img = imaging.Fit(img, d.MaxDimension, d.MaxDimension, imaging.Lanczos)
		}
	}
	return img, nil
}

func (d *URLDecoder) decodeDataURL(raw string) (image.Image, error) {
	du, err := dataurl.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: data url: %v", ErrDecode, err)
	}
	img, err := imaging.Decode(bytes.NewReader(du.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: data url (%s): %v", ErrDecode, du.ContentType(), err)
	}
	return img, nil
}

func (d *URLDecoder) decodeRemote(ctx context.Context, rawURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %w: %d", rawURL, ErrHTTPStatus, resp.StatusCode)
	}
	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, rawURL, err)
	}
	return img, nil
}

func (d *URLDecoder) decodeFile(rawURL string) (image.Image, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rawURL, err)
	}
	rel := filepath.Clean("/" + u.Host + u.Path)
	img, err := imaging.Open(filepath.Join(d.FileRoot, rel), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, rawURL, err)
	}
	return img, nil
}

// truncate keeps data URLs out of logs and error strings.
func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
