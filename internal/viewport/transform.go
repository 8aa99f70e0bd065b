// Package viewport maps between image space and screen space and owns the
// zoom/pan state of the overlay.
package viewport

import "blueprint-review/pkg/geometry"

// Transform is an immutable snapshot of the image-to-screen mapping. The image
// is centred in the container, offset by Pan, and scaled about the container
// centre:
//
//	screenX = containerCenterX + pan.x + (imageX - imageCenterX) * scale
type Transform struct {
	Scale     float64
	Pan       geometry.Point2D
	Container geometry.Rect // on-screen rectangle of the viewer
	Image     geometry.Size // natural image size
}

// valid reports whether the transform can be applied without dividing by zero.
func (t Transform) valid() bool {
	return t.Scale > 0 && !t.Container.IsEmpty()
}

func (t Transform) containerCenter() geometry.Point2D {
	return t.Container.Center()
}

func (t Transform) imageCenter() geometry.Point2D {
	return geometry.Point2D{X: t.Image.Width / 2, Y: t.Image.Height / 2}
}

// ToScreen maps an image point to screen space. A degenerate transform is
// the identity.
func (t Transform) ToScreen(p geometry.Point2D) geometry.Point2D {
	if !t.valid() {
		return p
	}
	return t.containerCenter().Add(t.Pan).Add(p.Sub(t.imageCenter()).Scale(t.Scale))
}

// ToImage maps a screen point to image space. A degenerate transform is
// the identity.
func (t Transform) ToImage(p geometry.Point2D) geometry.Point2D {
	if !t.valid() {
		return p
	}
	return p.Sub(t.containerCenter()).Sub(t.Pan).Scale(1 / t.Scale).Add(t.imageCenter())
}

// ToScreenLen converts an image-space length to screen pixels.
func (t Transform) ToScreenLen(d float64) float64 {
	if !t.valid() {
		return d
	}
	return d * t.Scale
}

// ToImageLen converts a screen-space length to image pixels. Handles use it
// to stay a constant on-screen size.
func (t Transform) ToImageLen(d float64) float64 {
	if !t.valid() {
		return d
	}
	return d / t.Scale
}

// RectToScreen maps an image-space rectangle to screen space.
func (t Transform) RectToScreen(r geometry.Rect) geometry.Rect {
	return geometry.RectFromCorners(t.ToScreen(r.TopLeft()), t.ToScreen(r.BottomRight()))
}

// PolygonToScreen maps every vertex of a polygon to screen space.
func (t Transform) PolygonToScreen(p geometry.Polygon) geometry.Polygon {
	out := make(geometry.Polygon, len(p))
	for i, pt := range p {
		out[i] = t.ToScreen(pt)
	}
	return out
}

// Origin returns the screen position of the image's top-left corner.
func (t Transform) Origin() geometry.Point2D {
	return t.ToScreen(geometry.Point2D{})
}
