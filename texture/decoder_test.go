package texture

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, solid(w, h, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), imaging.PNG))
	return buf.Bytes()
}

func TestDecodeDataURL(t *testing.T) {
	raw := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 8, 4))
	img, err := NewURLDecoder(nil, 0).Decode(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestDecodeDataURLGarbage(t *testing.T) {
	raw := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png"))
	_, err := NewURLDecoder(nil, 0).Decode(context.Background(), raw)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeRemoteFitsLargeImages(t *testing.T) {
	body := pngBytes(t, 64, 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	d := NewURLDecoder(srv.Client(), 16)
	img, err := d.Decode(context.Background(), srv.URL+"/paper.png")
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())

	_, err = d.Decode(context.Background(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrHTTPStatus)
}

func TestDecodeFileNeedsRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hemp.png"), pngBytes(t, 2, 2), 0o644))

	d := NewURLDecoder(nil, 0)
	_, err := d.Decode(context.Background(), "file:///hemp.png")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	d.FileRoot = dir
	img, err := d.Decode(context.Background(), "file:///hemp.png")
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())

	_, err = d.Decode(context.Background(), "file:///../../etc/passwd")
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownScheme(t *testing.T) {
	d := NewURLDecoder(nil, 0)
	_, err := d.Decode(context.Background(), "ftp://x/y.png")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
	_, err = d.Decode(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyURL)
}
