package interaction

import (
	"fmt"
	"math"

	"blueprint-review/internal/annotation"
	"blueprint-review/internal/scanbox"
	"blueprint-review/internal/viewport"
	"blueprint-review/pkg/geometry"
	"blueprint-review/pkg/log"
)

// Props is the caller-owned data the overlay displays. The controller never
// modifies it; changes are requested through Callbacks.
type Props struct {
	Annotations  []annotation.Annotation
	SelectedID   string
	Editable     bool
	ShowAll      bool
	ScanMode     bool
	SelectionBox geometry.Rect
}

// Callbacks receive the mutations the user asks for. Any may be nil.
type Callbacks struct {
	OnSelect             func(id string)
	OnUpdate             func(id string, patch annotation.Patch)
	OnCreate             func(draft annotation.Draft)
	OnDelete             func(id string)
	OnSelectionBoxChange func(box geometry.Rect)
	OnToolChange         func(tool Tool)
}

// Options are the gesture thresholds.
type Options struct {
	MinShapeSize float64 // image px
	HandleSize   float64 // screen px
	HitTolerance float64 // screen px
	ScanMinSize  float64 // image px
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		MinShapeSize: 10,
		HandleSize:   8,
		HitTolerance: 6,
		ScanMinSize:  scanbox.DefaultMinSize,
	}
}

// Draft is the in-progress shape shown while drawing. Coordinates are image space.
type Draft struct {
	Kind     annotation.ShapeKind
	Start    geometry.Point2D
	End      geometry.Point2D
	Points   geometry.Polygon
	Hover    geometry.Point2D
	HasHover bool
}

// Rect returns the rectangle spanned by a rectangle draft.
func (d Draft) Rect() geometry.Rect {
	return geometry.RectFromCorners(d.Start, d.End)
}

// drag is the bookkeeping of a pointer gesture between down and up.
type drag struct {
	id         string
	vertex     int
	edge       geometry.Edge
	handle     scanbox.Handle
	startImage geometry.Point2D
	lastScreen geometry.Point2D
	start      geometry.Polygon
	current    geometry.Polygon
	startBox   geometry.Rect
	box        geometry.Rect
}

// Controller turns pointer and key events into viewport changes and
// annotation callbacks.
type Controller struct {
	vp    *viewport.Viewport
	opts  Options
	props Props
	cb    Callbacks

	tool  Tool
	state State
	draft Draft
	drag  drag
	hover Hit

	// closedAt is the screen point of a click that closed a polygon on its
	// first vertex. The second press of a double-click there is swallowed.
	closedAt   geometry.Point2D
	justClosed bool
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinShapeSize <= 0 {
		o.MinShapeSize = d.MinShapeSize
	}
	if o.HandleSize <= 0 {
		o.HandleSize = d.HandleSize
	}
	if o.HitTolerance <= 0 {
		o.HitTolerance = d.HitTolerance
	}
	if o.ScanMinSize <= 0 {
		o.ScanMinSize = d.ScanMinSize
	}
	return o
}

// NewController creates a controller driving vp.
func NewController(vp *viewport.Viewport, opts Options, cb Callbacks) *Controller {
	return &Controller{vp: vp, opts: opts.withDefaults(), cb: cb}
}

// Viewport returns the driven viewport.
func (c *Controller) Viewport() *viewport.Viewport { return c.vp }

// SetCallbacks replaces the callbacks.
func (c *Controller) SetCallbacks(cb Callbacks) { c.cb = cb }

// Options returns the gesture thresholds.
func (c *Controller) Options() Options { return c.opts }

// SetOptions replaces the gesture thresholds.
func (c *Controller) SetOptions(opts Options) {
	c.opts = opts.withDefaults()
}

// Props returns the current props.
func (c *Controller) Props() Props { return c.props }

// Tool returns the active tool.
func (c *Controller) Tool() Tool { return c.tool }

// State returns the gesture in progress.
func (c *Controller) State() State { return c.state }

// Draft returns the shape being drawn. It is only meaningful while State is a
// drawing state.
func (c *Controller) Draft() Draft {
	d := c.draft
	d.Points = d.Points.Clone()
	return d
}

// SetProps replaces the displayed data. Losing edit rights cancels any
// drawing or shape drag and drops back to the select tool.
func (c *Controller) SetProps(p Props) {
	c.props = p
	if p.Editable {
		return
	}
	switch c.state {
	case StateDrawingRectangle, StateDrawingPolygon,
		StateDraggingVertex, StateDraggingEdge, StateDraggingWholeShape:
		c.reset()
	}
	if c.tool.Draws() {
		c.setTool(ToolSelect)
	}
}

// SetTool switches tools. Drawing tools are refused when not editable.
// Switching cancels a drawing in progress.
func (c *Controller) SetTool(t Tool) bool {
	if t.Draws() && !c.props.Editable {
		return false
	}
	if c.state.Drawing() {
		c.reset()
	}
	c.setTool(t)
	return true
}

func (c *Controller) setTool(t Tool) {
	if c.tool == t {
		return
	}
	c.tool = t
	if fn := c.cb.OnToolChange; fn != nil {
		c.emit("tool", func() { fn(t) })
	}
}

// effectiveTool is the tool that actually handles input.
func (c *Controller) effectiveTool() Tool {
	if c.tool.Draws() && !c.props.Editable {
		return ToolSelect
	}
	return c.tool
}

// PointerDown handles a primary button press at screen point p.
func (c *Controller) PointerDown(p geometry.Point2D) {
	img := c.vp.ToImage(p)

	if c.justClosed {
		c.justClosed = false
		if c.state == StateIdle && near(c.closedAt, p, c.handleTolerance()) {
			return
		}
	}

	if c.state == StateDrawingPolygon {
		c.addPolygonPoint(p, img)
		return
	}
	if c.state != StateIdle {
		return
	}

	switch c.effectiveTool() {
	case ToolPan:
		c.startPan(p)
	case ToolRectangle:
		c.state = StateDrawingRectangle
		c.draft = Draft{Kind: annotation.ShapeRectangle, Start: img, End: img}
	case ToolPolygon:
		c.state = StateDrawingPolygon
		c.draft = Draft{Kind: annotation.ShapePolygon, Points: geometry.Polygon{img}, Hover: img, HasHover: true}
	default:
		c.selectDown(p, img)
	}
}

func (c *Controller) selectDown(p, img geometry.Point2D) {
	hit := c.HitTest(p)
	switch hit.Kind {
	case HitScanHandle:
		c.state = StateResizingSelectionBox
		c.drag = drag{handle: hit.Handle, startImage: img, startBox: c.props.SelectionBox, box: c.props.SelectionBox}
	case HitVertex, HitEdge:
		sel, _ := c.selected()
		c.drag = drag{id: sel.ID, vertex: hit.Vertex, edge: hit.Edge, startImage: img,
			start: sel.Polygon.Clone(), current: sel.Polygon.Clone()}
		if hit.Kind == HitVertex {
			c.state = StateDraggingVertex
		} else {
			c.state = StateDraggingEdge
		}
	case HitShape:
		if hit.ID != c.props.SelectedID {
			c.props.SelectedID = hit.ID
			if fn := c.cb.OnSelect; fn != nil {
				id := hit.ID
				c.emit("select", func() { fn(id) })
			}
		}
		if !c.props.Editable {
			return
		}
		a, ok := c.find(hit.ID)
		if !ok {
			return
		}
		c.state = StateDraggingWholeShape
		c.drag = drag{id: a.ID, startImage: img, start: a.Polygon.Clone(), current: a.Polygon.Clone()}
	default:
		if !c.props.Editable {
			c.startPan(p)
		}
	}
}

func (c *Controller) startPan(p geometry.Point2D) {
	c.state = StatePanning
	c.drag = drag{lastScreen: p}
}

// addPolygonPoint appends a vertex, skipping points that repeat the previous
// one on screen. Clicking the first vertex with three or more points closes
// the polygon.
func (c *Controller) addPolygonPoint(p, img geometry.Point2D) {
	t := c.vp.Transform()
	pts := c.draft.Points
	if n := len(pts); n > 0 && t.ToScreen(pts[n-1]).Distance(p) <= c.opts.HitTolerance {
		return
	}
	if len(pts) >= 3 && near(t.ToScreen(pts[0]), p, c.handleTolerance()) {
		c.commitPolygon()
		c.closedAt, c.justClosed = p, true
		return
	}
	c.draft.Points = append(pts, img)
}

// PointerMove handles pointer motion, with or without a button held.
func (c *Controller) PointerMove(p geometry.Point2D) {
	img := c.vp.ToImage(p)
	switch c.state {
	case StateIdle:
		c.hover = c.HitTest(p)
	case StatePanning:
		d := p.Sub(c.drag.lastScreen)
		c.drag.lastScreen = p
		c.vp.PanBy(d.X, d.Y)
	case StateDrawingRectangle:
		c.draft.End = img
	case StateDrawingPolygon:
		c.draft.Hover = img
		c.draft.HasHover = true
	case StateDraggingVertex:
		c.updateShape(c.moveVertex(img.Sub(c.drag.startImage)))
	case StateDraggingEdge:
		c.updateShape(c.resizeEdge(img.Sub(c.drag.startImage)))
	case StateDraggingWholeShape:
		d := img.Sub(c.drag.startImage)
		c.updateShape(geometry.MoveByDelta(c.drag.start, d.X, d.Y))
	case StateResizingSelectionBox:
		box, ok := scanbox.Resize(c.drag.startBox, c.drag.handle, img.Sub(c.drag.startImage),
			c.opts.ScanMinSize, c.vp.ImageSize())
		if !ok || box == c.drag.box {
			return
		}
		c.drag.box = box
		c.props.SelectionBox = box
		if fn := c.cb.OnSelectionBoxChange; fn != nil {
			c.emit("selectionBox", func() { fn(box) })
		}
	}
}

// moveVertex shifts the dragged vertex by d. Drags work from the press point,
// so a press and release without motion reproduces the start polygon exactly.
func (c *Controller) moveVertex(d geometry.Point2D) geometry.Polygon {
	i := c.drag.vertex
	if i < 0 || i >= len(c.drag.start) {
		return c.drag.start
	}
	return geometry.MoveVertex(c.drag.start, i, c.drag.start[i].Add(d))
}

// resizeEdge moves the dragged edge, keeping at least MinShapeSize between
// it and the opposite edge.
func (c *Controller) resizeEdge(d geometry.Point2D) geometry.Polygon {
	bb := geometry.BoundingBox(c.drag.start)
	minSize := c.opts.MinShapeSize
	var coord float64
	switch c.drag.edge {
	case geometry.EdgeTop:
		coord = math.Min(bb.Y+d.Y, bb.Bottom()-minSize)
	case geometry.EdgeBottom:
		coord = math.Max(bb.Bottom()+d.Y, bb.Y+minSize)
	case geometry.EdgeLeft:
		coord = math.Min(bb.X+d.X, bb.Right()-minSize)
	case geometry.EdgeRight:
		coord = math.Max(bb.Right()+d.X, bb.X+minSize)
	}
	return geometry.ResizeRectangleEdge(c.drag.start, c.drag.edge, coord)
}

// updateShape reports a new polygon for the dragged shape if it changed.
func (c *Controller) updateShape(poly geometry.Polygon) {
	if samePolygon(poly, c.drag.current) {
		return
	}
	c.drag.current = poly
	if fn := c.cb.OnUpdate; fn != nil {
		id := c.drag.id
		patch := annotation.Patch{Polygon: poly.Clone()}
		c.emit("update", func() { fn(id, patch) })
	}
}

// PointerUp ends the current gesture. It is safe to call more than once.
func (c *Controller) PointerUp(p geometry.Point2D) {
	switch c.state {
	case StateDrawingRectangle:
		c.draft.End = c.vp.ToImage(p)
		r := c.draft.Rect()
		c.reset()
		if r.Width > c.opts.MinShapeSize && r.Height > c.opts.MinShapeSize {
			draft := annotation.Draft{Polygon: geometry.RectanglePolygon(r), Kind: annotation.ShapeRectangle}
			if fn := c.cb.OnCreate; fn != nil {
				c.emit("create", func() { fn(draft) })
			}
		}
	case StateDrawingPolygon, StateIdle:
	default:
		c.reset()
	}
}

// DoubleClick finishes a polygon draft when it has three or more points.
// A draft holding only the double-click's own point is dropped.
func (c *Controller) DoubleClick(p geometry.Point2D) {
	if c.state != StateDrawingPolygon {
		return
	}
	c.draft.Points = dedupe(c.draft.Points, c.vp.Transform().ToImageLen(c.opts.HitTolerance))
	if len(c.draft.Points) < 2 {
		c.reset()
		return
	}
	if len(c.draft.Points) < 3 {
		return
	}
	c.commitPolygon()
}

func (c *Controller) commitPolygon() {
	draft := annotation.Draft{Polygon: c.draft.Points.Clone(), Kind: annotation.ShapePolygon}
	c.reset()
	if fn := c.cb.OnCreate; fn != nil {
		c.emit("create", func() { fn(draft) })
	}
}

// KeyDown handles a key press. textFocused reports whether a text input has
// keyboard focus, in which case editing shortcuts are ignored. It returns
// true when the key was consumed.
func (c *Controller) KeyDown(k Key, textFocused bool) bool {
	if k == KeyEscape {
		if c.state.Drawing() {
			c.reset()
			return true
		}
		return false
	}
	if textFocused {
		return false
	}
	switch k {
	case KeyDelete, KeyBackspace:
		sel, ok := c.selected()
		if !c.props.Editable || !ok {
			return false
		}
		if c.drag.id == sel.ID {
			c.reset()
		}
		if fn := c.cb.OnDelete; fn != nil {
			c.emit("delete", func() { fn(sel.ID) })
		}
		return true
	case KeySelectTool, KeyPanTool, KeyRectTool, KeyPolygonTool:
		if !c.props.Editable {
			return false
		}
		return c.SetTool(toolForKey(k))
	case KeyZoomIn:
		c.vp.ZoomBy(c.vp.Limits().ZoomStep)
		return true
	case KeyZoomOut:
		c.vp.ZoomBy(1 / c.vp.Limits().ZoomStep)
		return true
	case KeyFit:
		c.vp.FitToContainer()
		return true
	}
	return false
}

func toolForKey(k Key) Tool {
	switch k {
	case KeyPanTool:
		return ToolPan
	case KeyRectTool:
		return ToolRectangle
	case KeyPolygonTool:
		return ToolPolygon
	default:
		return ToolSelect
	}
}

// Wheel zooms by notches around screen point p. Positive notches zoom in.
func (c *Controller) Wheel(notches float64, p geometry.Point2D) {
	if notches == 0 {
		return
	}
	c.vp.ZoomAt(notches, p)
}

// Cursor returns the pointer shape for the current state and hover target.
func (c *Controller) Cursor() Cursor {
	switch c.state {
	case StatePanning, StateDraggingWholeShape:
		return CursorMove
	case StateDrawingRectangle, StateDrawingPolygon, StateDraggingVertex:
		return CursorCrosshair
	case StateDraggingEdge:
		return edgeCursor(c.drag.edge)
	case StateResizingSelectionBox:
		return handleCursor(c.drag.handle)
	}
	switch c.effectiveTool() {
	case ToolPan:
		return CursorMove
	case ToolRectangle, ToolPolygon:
		return CursorCrosshair
	}
	switch c.hover.Kind {
	case HitScanHandle:
		return handleCursor(c.hover.Handle)
	case HitVertex:
		return CursorCrosshair
	case HitEdge:
		return edgeCursor(c.hover.Edge)
	case HitShape:
		return CursorPointer
	}
	return CursorDefault
}

func edgeCursor(e geometry.Edge) Cursor {
	if e == geometry.EdgeTop || e == geometry.EdgeBottom {
		return CursorResizeV
	}
	return CursorResizeH
}

func handleCursor(h scanbox.Handle) Cursor {
	switch h {
	case scanbox.HandleN, scanbox.HandleS:
		return CursorResizeV
	case scanbox.HandleE, scanbox.HandleW:
		return CursorResizeH
	default:
		return CursorCrosshair
	}
}

// Cancel abandons any gesture in progress without emitting callbacks.
func (c *Controller) Cancel() {
	c.reset()
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.draft = Draft{}
	c.drag = drag{}
}

// emit runs a callback after the controller's own state is settled. A
// panicking callback is logged and swallowed.
func (c *Controller) emit(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.Fields{"callback": name, "panic": fmt.Sprint(r)}, "Overlay: callback panicked")
		}
	}()
	fn()
}

func samePolygon(a, b geometry.Polygon) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// dedupe drops consecutive points closer than tol, including a closing point
// that repeats the first.
func dedupe(pts geometry.Polygon, tol float64) geometry.Polygon {
	out := make(geometry.Polygon, 0, len(pts))
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].Distance(p) <= tol {
			continue
		}
		out = append(out, p)
	}
	if n := len(out); n > 3 && out[0].Distance(out[n-1]) <= tol {
		out = out[:n-1]
	}
	return out
}
