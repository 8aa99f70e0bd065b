// Package image loads blueprint images for the review canvas.
package image

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"blueprint-review/pkg/geometry"
)

// ErrUnsupportedScheme is returned for image URLs that are not local files.
var ErrUnsupportedScheme = errors.New("unsupported image url scheme")

// Document is a decoded blueprint image.
type Document struct {
	URL    string      // As requested
	Path   string      // Resolved file path
	Image  image.Image // Decoded image data
	Format string      // Decoder name, e.g. "png"
	DPI    float64     // From TIFF metadata, 0 when unknown
}

// Width returns the image width in pixels.
func (d *Document) Width() int {
	if d == nil || d.Image == nil {
		return 0
	}
	return d.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (d *Document) Height() int {
	if d == nil || d.Image == nil {
		return 0
	}
	return d.Image.Bounds().Dy()
}

// Size returns the image dimensions.
func (d *Document) Size() geometry.Size {
	return geometry.Size{
		Width:  float64(d.Width()),
		Height: float64(d.Height()),
	}
}

// ResolvePath turns a plain path or file:// URL into a file path.
func ResolvePath(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse image url: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

// Decode decodes any registered format: png, jpeg, gif, tiff, bmp or webp.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// Load reads and decodes the image at a path or file:// URL. The context is
// checked before the file is read and before decoding.
func Load(ctx context.Context, raw string) (*Document, error) {
	path, err := ResolvePath(raw)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, format, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	doc := &Document{URL: raw, Path: path, Image: img, Format: format}
	if format == "tiff" {
		if dpi, err := tiffDPI(bytes.NewReader(data)); err == nil {
			doc.DPI = dpi
		}
	}
	return doc, nil
}

// tiffDPI extracts the resolution from a TIFF header.
func tiffDPI(r io.ReadSeeker) (float64, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, err
	}

	var order binary.ByteOrder
	switch {
	case header[0] == 'I' && header[1] == 'I':
		order = binary.LittleEndian
	case header[0] == 'M' && header[1] == 'M':
		order = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	if _, err := r.Seek(int64(order.Uint32(header[4:8])), io.SeekStart); err != nil {
		return 0, err
	}
	var numEntries uint16
	if err := binary.Read(r, order, &numEntries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var resUnit uint16 = 2 // inches
	entry := make([]byte, 12)
	for i := uint16(0); i < numEntries; i++ {
		if _, err := io.ReadFull(r, entry); err != nil {
			return 0, err
		}
		tag := order.Uint16(entry[0:2])
		fieldType := order.Uint16(entry[2:4])
		value := order.Uint32(entry[8:12])

		switch tag {
		case 282: // XResolution
			if fieldType == 5 {
				xRes = readRational(r, int64(value), order)
			}
		case 283: // YResolution
			if fieldType == 5 {
				yRes = readRational(r, int64(value), order)
			}
		case 296: // ResolutionUnit
			if fieldType == 3 {
				resUnit = order.Uint16(entry[8:10])
			}
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}
	if resUnit == 3 {
		dpi *= 2.54
	}
	return dpi, nil
}

// readRational reads a RATIONAL at offset and restores the read position.
func readRational(r io.ReadSeeker, offset int64, order binary.ByteOrder) float64 {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0
	}
	defer r.Seek(pos, io.SeekStart)

	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0
	}
	var num, denom uint32
	if binary.Read(r, order, &num) != nil || binary.Read(r, order, &denom) != nil || denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// SupportedFormats returns the file extensions the loader understands.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
