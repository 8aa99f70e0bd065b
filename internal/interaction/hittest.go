package interaction

import (
	"math"

	"blueprint-review/internal/annotation"
	"blueprint-review/internal/scanbox"
	"blueprint-review/pkg/geometry"
)

// HitKind classifies what lies under the pointer.
type HitKind int

const (
	HitNone HitKind = iota
	HitScanHandle
	HitVertex
	HitEdge
	HitShape
)

// Hit describes the result of a hit test.
type Hit struct {
	Kind   HitKind
	ID     string
	Vertex int
	Edge   geometry.Edge
	Handle scanbox.Handle
}

// HitTest finds what lies under screen point p, in priority order:
// selection-box handles, handles of the selected editable shape, then shapes
// from topmost to bottommost.
func (c *Controller) HitTest(p geometry.Point2D) Hit {
	t := c.vp.Transform()
	tol := c.handleTolerance()

	if c.props.ScanMode && !c.props.SelectionBox.IsEmpty() {
		for _, h := range scanbox.Handles {
			if near(t.ToScreen(scanbox.HandlePoint(c.props.SelectionBox, h)), p, tol) {
				return Hit{Kind: HitScanHandle, Handle: h}
			}
		}
	}

	if sel, ok := c.editableSelection(); ok {
		for i, v := range sel.Polygon {
			if near(t.ToScreen(v), p, tol) {
				return Hit{Kind: HitVertex, ID: sel.ID, Vertex: i}
			}
		}
		if sel.Kind() == annotation.ShapeRectangle {
			for _, e := range geometry.Edges {
				if near(t.ToScreen(geometry.EdgeMidpoint(sel.Polygon, e)), p, tol) {
					return Hit{Kind: HitEdge, ID: sel.ID, Edge: e}
				}
			}
			// The whole edge line grabs too, with the narrower hit tolerance.
			for _, e := range geometry.Edges {
				a, b, _ := geometry.EdgeSegment(sel.Polygon, e)
				if geometry.DistanceToSegment(p, t.ToScreen(a), t.ToScreen(b)) <= c.opts.HitTolerance {
					return Hit{Kind: HitEdge, ID: sel.ID, Edge: e}
				}
			}
		}
	}

	img := t.ToImage(p)
	if sel, ok := c.selected(); ok && sel.Renderable() && geometry.PointInPolygon(img, sel.Polygon) {
		return Hit{Kind: HitShape, ID: sel.ID}
	}
	if !c.props.ShowAll {
		return Hit{}
	}
	for i := len(c.props.Annotations) - 1; i >= 0; i-- {
		a := c.props.Annotations[i]
		if a.Renderable() && geometry.PointInPolygon(img, a.Polygon) {
			return Hit{Kind: HitShape, ID: a.ID}
		}
	}
	return Hit{}
}

func (c *Controller) handleTolerance() float64 {
	return math.Max(c.opts.HandleSize/2, c.opts.HitTolerance)
}

// near compares screen points with a square tolerance.
func near(a, b geometry.Point2D, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// selected returns the annotation named by SelectedID.
func (c *Controller) selected() (annotation.Annotation, bool) {
	if c.props.SelectedID == "" {
		return annotation.Annotation{}, false
	}
	return c.find(c.props.SelectedID)
}

func (c *Controller) find(id string) (annotation.Annotation, bool) {
	for _, a := range c.props.Annotations {
		if a.ID == id {
			return a, true
		}
	}
	return annotation.Annotation{}, false
}

// editableSelection returns the selected annotation when its handles are shown.
func (c *Controller) editableSelection() (annotation.Annotation, bool) {
	if !c.props.Editable {
		return annotation.Annotation{}, false
	}
	a, ok := c.selected()
	if !ok || !a.Renderable() {
		return annotation.Annotation{}, false
	}
	return a, true
}
