// Package render draws the annotation overlay into a raster: the image under
// the current viewport, every visible shape with its label, edit handles,
// draft previews, and the scan-mode selection box.
package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"blueprint-review/internal/annotation"
	"blueprint-review/internal/interaction"
	"blueprint-review/internal/scanbox"
	"blueprint-review/internal/viewport"
	"blueprint-review/pkg/colorutil"
	"blueprint-review/pkg/geometry"
)

// Style controls stroke widths and opacities.
type Style struct {
	StrokeWidth   int
	SelectedWidth int
	FillOpacity   float64
	HandleSize    float64 // screen units
	Labels        bool
}

// DefaultStyle returns the stock overlay style.
func DefaultStyle() Style {
	return Style{
		StrokeWidth:   2,
		SelectedWidth: 4,
		FillOpacity:   0.15,
		HandleSize:    8,
		Labels:        true,
	}
}

const (
	dashLength = 6
	dimOpacity = 0.45
)

// Scene is everything one frame needs.
type Scene struct {
	Image       image.Image // nil shows Placeholder
	Placeholder string
	Transform   viewport.Transform

	// PixelRatio converts transform (screen) units to raster pixels.
	PixelRatio float64

	Props interaction.Props
	State interaction.State
	Draft interaction.Draft
	Style Style
}

// NewImage renders the scene into a new w x h raster.
func NewImage(w, h int, s Scene) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	Render(dst, s)
	return dst
}

// Render draws the scene into dst.
func Render(dst *image.RGBA, s Scene) {
	if s.PixelRatio <= 0 {
		s.PixelRatio = 1
	}
	fill(dst, colorutil.Backing)

	if s.Image == nil {
		text := s.Placeholder
		if text == "" {
			text = "No image"
		}
		c := dst.Bounds().Size()
		drawText(dst, text, c.X/2-textWidth(text)/2, c.Y/2-glyphHeight/2, colorutil.Gray)
		return
	}

	r := renderer{dst: dst, s: s}
	r.image()
	r.annotations()
	r.draft()
	r.selectionBox()
}

type renderer struct {
	dst *image.RGBA
	s   Scene
}

// px maps an image-space point to raster pixels.
func (r renderer) px(p geometry.Point2D) geometry.Point2D {
	return r.s.Transform.ToScreen(p).Scale(r.s.PixelRatio)
}

func (r renderer) pxPolygon(poly geometry.Polygon) []geometry.Point2D {
	out := make([]geometry.Point2D, len(poly))
	for i, p := range poly {
		out[i] = r.px(p)
	}
	return out
}

func (r renderer) pxRect(rect geometry.Rect) image.Rectangle {
	a := r.px(rect.TopLeft())
	b := r.px(rect.BottomRight())
	return image.Rect(round(a.X), round(a.Y), round(b.X), round(b.Y))
}

// image draws the source image under the viewport transform.
func (r renderer) image() {
	t := r.s.Transform
	if t.Scale <= 0 {
		return
	}
	k := r.s.PixelRatio
	o := t.Origin()
	origin := r.s.Image.Bounds().Min
	sc := t.Scale * k
	m := f64.Aff3{
		sc, 0, o.X*k - sc*float64(origin.X),
		0, sc, o.Y*k - sc*float64(origin.Y),
	}
	draw.ApproxBiLinear.Transform(r.dst, m, r.s.Image, r.s.Image.Bounds(), draw.Over, nil)
}

// visible returns the annotations to draw, with the selected one last so it
// sits on top.
func (r renderer) visible() []annotation.Annotation {
	p := r.s.Props
	var out []annotation.Annotation
	var sel *annotation.Annotation
	for i := range p.Annotations {
		a := p.Annotations[i]
		if !a.Renderable() {
			continue
		}
		if a.ID == p.SelectedID {
			sel = &p.Annotations[i]
			continue
		}
		if p.ShowAll {
			out = append(out, a)
		}
	}
	if sel != nil {
		out = append(out, *sel)
	}
	return out
}

func (r renderer) annotations() {
	st := r.s.Style
	for _, a := range r.visible() {
		col := annotation.StrokeColor(a)
		pts := r.pxPolygon(a.Polygon)
		selected := a.ID == r.s.Props.SelectedID

		fillPolygon(r.dst, pts, col, st.FillOpacity)
		if selected {
			strokePolygon(r.dst, pts, col, r.width(st.SelectedWidth), dashLength)
		} else {
			strokePolygon(r.dst, pts, col, r.width(st.StrokeWidth), 0)
		}

		if st.Labels {
			if text := labelFor(a); text != "" {
				c := r.px(a.Center())
				drawLabel(r.dst, text, round(c.X), round(c.Y), col)
			}
		}
		if selected && r.s.Props.Editable {
			r.handles(a, col)
		}
	}
}

// handles draws the vertex handles, plus edge handles for rectangles, at a
// constant on-screen size.
func (r renderer) handles(a annotation.Annotation, col color.RGBA) {
	size := r.handleSize()
	for _, v := range a.Polygon {
		drawHandle(r.dst, r.px(v), size, col)
	}
	if a.Kind() == annotation.ShapeRectangle {
		for _, e := range geometry.Edges {
			drawHandle(r.dst, r.px(geometry.EdgeMidpoint(a.Polygon, e)), size, col)
		}
	}
}

func (r renderer) draft() {
	st := r.s.Style
	d := r.s.Draft
	col := colorutil.Blue
	switch r.s.State {
	case interaction.StateDrawingRectangle:
		pts := r.pxPolygon(geometry.RectanglePolygon(d.Rect()))
		fillPolygon(r.dst, pts, col, st.FillOpacity)
		strokePolygon(r.dst, pts, col, r.width(st.StrokeWidth), dashLength)
	case interaction.StateDrawingPolygon:
		if len(d.Points) == 0 {
			return
		}
		pts := r.pxPolygon(d.Points)
		if len(pts) >= 3 {
			fillPolygon(r.dst, pts, col, st.FillOpacity)
		}
		strokePath(r.dst, pts, col, r.width(st.StrokeWidth), 0)
		if d.HasHover {
			last := pts[len(pts)-1]
			strokePath(r.dst, []geometry.Point2D{last, r.px(d.Hover)}, col, 1, dashLength)
		}
		size := r.handleSize()
		for _, p := range pts {
			drawHandle(r.dst, p, size, col)
		}
	}
}

func (r renderer) selectionBox() {
	p := r.s.Props
	if !p.ScanMode || p.SelectionBox.IsEmpty() {
		return
	}
	box := r.pxRect(p.SelectionBox)
	dimOutside(r.dst, box, dimOpacity)
	pts := r.pxPolygon(geometry.RectanglePolygon(p.SelectionBox))
	strokePolygon(r.dst, pts, colorutil.Amber, r.width(r.s.Style.StrokeWidth), dashLength)
	size := r.handleSize()
	for _, hp := range scanbox.HandlePoints(p.SelectionBox) {
		drawHandle(r.dst, r.px(hp), size, colorutil.Amber)
	}
}

func (r renderer) width(w int) int {
	return max(1, int(math.Round(float64(w)*r.s.PixelRatio)))
}

func (r renderer) handleSize() int {
	hs := r.s.Style.HandleSize
	if hs <= 0 {
		hs = DefaultStyle().HandleSize
	}
	return max(3, int(math.Round(hs*r.s.PixelRatio)))
}

// labelFor is the text drawn on a shape: its label, else its judgment.
func labelFor(a annotation.Annotation) string {
	if a.Label != "" {
		return a.Label
	}
	return a.Judgment.String()
}
