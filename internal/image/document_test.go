package image

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func writeImage(t *testing.T, name string, encode func(f *os.File, img image.Image) error) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestLoadPlainPathAndFileURL(t *testing.T) {
	path := writeImage(t, "plan.png", func(f *os.File, img image.Image) error { return png.Encode(f, img) })

	doc, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "png", doc.Format)
	assert.Equal(t, 40, doc.Width())
	assert.Equal(t, 30, doc.Height())
	assert.Equal(t, 40.0, doc.Size().Width)

	doc, err = Load(context.Background(), "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
}

func TestLoadExtraFormats(t *testing.T) {
	path := writeImage(t, "plan.bmp", func(f *os.File, img image.Image) error { return bmp.Encode(f, img) })
	doc, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "bmp", doc.Format)

	path = writeImage(t, "plan.tif", func(f *os.File, img image.Image) error { return tiff.Encode(f, img, nil) })
	doc, err = Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "tiff", doc.Format)
	assert.InDelta(t, 72.0, doc.DPI, 1e-9)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(context.Background(), "https://example.com/a.png")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	junk := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))
	_, err = Load(context.Background(), junk)
	assert.ErrorContains(t, err, "decode")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Load(ctx, junk)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("a/B.TIFF"))
	assert.True(t, IsSupportedFormat("x.webp"))
	assert.False(t, IsSupportedFormat("x.pdf"))
}
