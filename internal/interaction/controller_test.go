package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blueprint-review/internal/annotation"
	"blueprint-review/internal/viewport"
	"blueprint-review/pkg/geometry"
)

type update struct {
	id    string
	patch annotation.Patch
}

type recorder struct {
	selected []string
	updates  []update
	created  []annotation.Draft
	deleted  []string
	boxes    []geometry.Rect
	tools    []Tool
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnSelect:             func(id string) { r.selected = append(r.selected, id) },
		OnUpdate:             func(id string, p annotation.Patch) { r.updates = append(r.updates, update{id, p}) },
		OnCreate:             func(d annotation.Draft) { r.created = append(r.created, d) },
		OnDelete:             func(id string) { r.deleted = append(r.deleted, id) },
		OnSelectionBoxChange: func(b geometry.Rect) { r.boxes = append(r.boxes, b) },
		OnToolChange:         func(t Tool) { r.tools = append(r.tools, t) },
	}
}

// newTestController shows a 1000x750 image in an 800x600 container.
func newTestController(t *testing.T, opts Options) (*Controller, *recorder) {
	t.Helper()
	vp := viewport.New(viewport.DefaultLimits())
	vp.SetImageSize(geometry.Size{Width: 1000, Height: 750})
	vp.SetContainer(geometry.Rect{Width: 800, Height: 600})
	rec := &recorder{}
	return NewController(vp, opts, rec.callbacks()), rec
}

func at(c *Controller, x, y float64) geometry.Point2D {
	return c.Viewport().ToScreen(geometry.Point2D{X: x, Y: y})
}

func rectAnnotation(id string, x, y, w, h float64) annotation.Annotation {
	r := geometry.Rect{X: x, Y: y, Width: w, Height: h}
	return annotation.Annotation{ID: id, Polygon: geometry.RectanglePolygon(r), BoundingBox: r}
}

func assertPolygon(t *testing.T, want, got geometry.Polygon) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-6, "vertex %d x", i)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-6, "vertex %d y", i)
	}
}

func TestRectangleDrawCreatesCanonicalPolygon(t *testing.T) {
	c, rec := newTestController(t, Options{})
	c.SetProps(Props{Editable: true, ShowAll: true})
	require.True(t, c.SetTool(ToolRectangle))

	c.PointerDown(at(c, 300, 250))
	assert.Equal(t, StateDrawingRectangle, c.State())
	c.PointerMove(at(c, 200, 180))
	c.PointerUp(at(c, 100, 100))

	require.Len(t, rec.created, 1)
	assert.Equal(t, annotation.ShapeRectangle, rec.created[0].Kind)
	assertPolygon(t, geometry.Polygon{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 300, Y: 250}, {X: 100, Y: 250}}, rec.created[0].Polygon)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, ToolRectangle, c.Tool(), "tool stays active after a commit")
}

func TestRectangleBelowMinSizeIsDiscarded(t *testing.T) {
	c, rec := newTestController(t, Options{MinShapeSize: 20})
	c.SetProps(Props{Editable: true})
	c.SetTool(ToolRectangle)

	c.PointerDown(at(c, 10, 10))
	c.PointerMove(at(c, 15, 12))
	c.PointerUp(at(c, 15, 12))

	assert.Empty(t, rec.created)
	assert.Equal(t, StateIdle, c.State())
}

func TestPolygonDoubleClickCommits(t *testing.T) {
	c, rec := newTestController(t, Options{})
	c.SetProps(Props{Editable: true})
	c.SetTool(ToolPolygon)

	c.PointerDown(at(c, 100, 100))
	c.PointerUp(at(c, 100, 100))
	c.PointerDown(at(c, 200, 100))
	c.PointerUp(at(c, 200, 100))

	c.DoubleClick(at(c, 200, 100))
	assert.Empty(t, rec.created, "two points are not enough")
	assert.Equal(t, StateDrawingPolygon, c.State())

	c.PointerMove(at(c, 180, 190))
	assert.True(t, c.Draft().HasHover)

	// The presses that make up a double-click land on the same spot.
	c.PointerDown(at(c, 200, 200))
	c.PointerUp(at(c, 200, 200))
	c.PointerDown(at(c, 200, 200))
	c.DoubleClick(at(c, 200, 200))

	require.Len(t, rec.created, 1)
	assert.Equal(t, annotation.ShapePolygon, rec.created[0].Kind)
	assertPolygon(t, geometry.Polygon{{X: 100, Y: 100}, {X: 200, Y: 100}, {X: 200, Y: 200}}, rec.created[0].Polygon)
	assert.Equal(t, StateIdle, c.State())
}

func TestPolygonClosesOnFirstVertex(t *testing.T) {
	c, rec := newTestController(t, Options{})
	c.SetProps(Props{Editable: true})
	c.SetTool(ToolPolygon)

	for _, p := range []geometry.Point2D{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 200, Y: 300}, {X: 100, Y: 100}} {
		c.PointerDown(at(c, p.X, p.Y))
		c.PointerUp(at(c, p.X, p.Y))
	}

	require.Len(t, rec.created, 1)
	assert.Len(t, rec.created[0].Polygon, 3)
}

func TestDoubleClickOnFirstVertexClosesOnce(t *testing.T) {
	c, rec := newTestController(t, Options{})
	c.SetProps(Props{Editable: true})
	c.SetTool(ToolPolygon)

	for _, p := range []geometry.Point2D{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 200, Y: 300}} {
		c.PointerDown(at(c, p.X, p.Y))
		c.PointerUp(at(c, p.X, p.Y))
	}

	first := at(c, 100, 100)
	c.PointerDown(first)
	c.PointerUp(first)
	c.PointerDown(first)
	c.PointerUp(first)
	c.DoubleClick(first)

	require.Len(t, rec.created, 1)
	assert.Len(t, rec.created[0].Polygon, 3)
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Draft().Points)

	// The next press elsewhere starts a fresh polygon.
	c.PointerDown(at(c, 500, 500))
	assert.Equal(t, StateDrawingPolygon, c.State())
	assert.Len(t, c.Draft().Points, 1)
}

func TestDoubleClickDropsSinglePointDraft(t *testing.T) {
	c, rec := newTestController(t, Options{})
	c.SetProps(Props{Editable: true})
	c.SetTool(ToolPolygon)

	p := at(c, 400, 400)
	c.PointerDown(p)
	c.PointerUp(p)
	c.PointerDown(p)
	c.DoubleClick(p)

	assert.Empty(t, rec.created)
	assert.Equal(t, StateIdle, c.State())
}

func TestEscapeCancelsDraft(t *testing.T) {
	c, rec := newTestController(t, Options{})
	c.SetProps(Props{Editable: true})
	c.SetTool(ToolPolygon)
	c.PointerDown(at(c, 100, 100))
	c.PointerDown(at(c, 200, 100))

	assert.True(t, c.KeyDown(KeyEscape, false))
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Draft().Points)
	assert.False(t, c.KeyDown(KeyEscape, false), "nothing left to cancel")

	c.DoubleClick(at(c, 200, 100))
	assert.Empty(t, rec.created)
}

func TestDeleteKey(t *testing.T) {
	a := rectAnnotation("a", 100, 100, 200, 150)

	c, rec := newTestController(t, Options{})
	c.SetProps(Props{Annotations: []annotation.Annotation{a}, SelectedID: "a", Editable: true})

	assert.False(t, c.KeyDown(KeyDelete, true), "text input has focus")
	assert.Empty(t, rec.deleted)

	assert.True(t, c.KeyDown(KeyBackspace, false))
	assert.Equal(t, []string{"a"}, rec.deleted)

	c.SetProps(Props{Annotations: []annotation.Annotation{a}, SelectedID: "a"})
	assert.False(t, c.KeyDown(KeyDelete, false), "read-only overlay")
	assert.Len(t, rec.deleted, 1)

	c.SetProps(Props{Annotations: []annotation.Annotation{a}, Editable: true})
	assert.False(t, c.KeyDown(KeyDelete, false), "nothing selected")
}

func TestToolShortcutsRequireEditable(t *testing.T) {
	c, rec := newTestController(t, Options{})
	c.SetProps(Props{Editable: true})

	assert.True(t, c.KeyDown(KeyForRune('r'), false))
	assert.Equal(t, ToolRectangle, c.Tool())
	assert.True(t, c.KeyDown(KeyForRune('p'), false))
	assert.True(t, c.KeyDown(KeyForRune('h'), false))
	assert.Equal(t, ToolPan, c.Tool())
	assert.False(t, c.KeyDown(KeyForRune('v'), true))
	assert.Equal(t, []Tool{ToolRectangle, ToolPolygon, ToolPan}, rec.tools)

	c.SetTool(ToolRectangle)
	c.SetProps(Props{})
	assert.Equal(t, ToolSelect, c.Tool(), "drawing tool falls back when read-only")
	assert.False(t, c.KeyDown(KeyForRune('r'), false))
	assert.False(t, c.SetTool(ToolPolygon))
	assert.True(t, c.SetTool(ToolPan))
}

func TestVertexDrag(t *testing.T) {
	a := rectAnnotation("a", 100, 100, 200, 150)
	c, rec := newTestController(t, Options{})
	c.SetProps(Props{Annotations: []annotation.Annotation{a}, SelectedID: "a", Editable: true, ShowAll: true})

	c.PointerDown(at(c, 300, 250))
	require.Equal(t, StateDraggingVertex, c.State())

	c.PointerMove(at(c, 300, 250))
	assert.Empty(t, rec.updates, "no movement, no update")

	c.PointerMove(at(c, 350, 300))
	c.PointerMove(at(c, 360, 310))
	c.PointerUp(at(c, 360, 310))

	require.Len(t, rec.updates, 2)
	assert.Equal(t, "a", rec.updates[1].id)
	assertPolygon(t, geometry.Polygon{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 360, Y: 310}, {X: 100, Y: 250}}, rec.updates[1].patch.Polygon)
	assert.Equal(t, StateIdle, c.State())
}

func TestEdgeDragClampsToMinimumSize(t *testing.T) {
	a := rectAnnotation("a", 100, 100, 200, 150)
	c, rec := newTestController(t, Options{MinShapeSize: 10})
	c.SetProps(Props{Annotations: []annotation.Annotation{a}, SelectedID: "a", Editable: true})

	c.PointerDown(at(c, 200, 100))
	require.Equal(t, StateDraggingEdge, c.State())

	c.PointerMove(at(c, 200, 80))
	require.Len(t, rec.updates, 1)
	assertPolygon(t, geometry.Polygon{{X: 100, Y: 80}, {X: 300, Y: 80}, {X: 300, Y: 250}, {X: 100, Y: 250}}, rec.updates[0].patch.Polygon)

	c.PointerMove(at(c, 200, 400))
	require.Len(t, rec.updates, 2)
	assertPolygon(t, geometry.Polygon{{X: 100, Y: 240}, {X: 300, Y: 240}, {X: 300, Y: 250}, {X: 100, Y: 250}}, rec.updates[1].patch.Polygon)
}

func TestWholeShapeDragSelectsAndMoves(t *testing.T) {
	a := rectAnnotation("a", 100, 100, 200, 150)
	c, rec := newTestController(t, Options{})
	c.SetProps(Props{Annotations: []annotation.Annotation{a}, Editable: true, ShowAll: true})

	c.PointerDown(at(c, 200, 175))
	assert.Equal(t, []string{"a"}, rec.selected)
	require.Equal(t, StateDraggingWholeShape, c.State())

	c.PointerMove(at(c, 210, 195))
	c.PointerUp(at(c, 210, 195))
	c.PointerUp(at(c, 210, 195))

	require.Len(t, rec.updates, 1)
	assertPolygon(t, geometry.Polygon{{X: 110, Y: 120}, {X: 310, Y: 120}, {X: 310, Y: 270}, {X: 110, Y: 270}}, rec.updates[0].patch.Polygon)
	assert.Equal(t, StateIdle, c.State())
}

func TestReadOnlySelectsAndPans(t *testing.T) {
	a := rectAnnotation("a", 100, 100, 200, 150)
	c, rec := newTestController(t, Options{})
	c.SetProps(Props{Annotations: []annotation.Annotation{a}, ShowAll: true})

	c.PointerDown(at(c, 200, 175))
	c.PointerMove(at(c, 250, 175))
	c.PointerUp(at(c, 250, 175))
	assert.Equal(t, []string{"a"}, rec.selected)
	assert.Empty(t, rec.updates)

	pan := c.Viewport().Pan()
	c.PointerDown(geometry.Point2D{X: 700, Y: 500})
	require.Equal(t, StatePanning, c.State())
	c.PointerMove(geometry.Point2D{X: 710, Y: 505})
	c.PointerUp(geometry.Point2D{X: 710, Y: 505})
	assert.InDelta(t, pan.X+10, c.Viewport().Pan().X, 1e-9)
	assert.InDelta(t, pan.Y+5, c.Viewport().Pan().Y, 1e-9)
}

func TestSelectionBoxResize(t *testing.T) {
	box := geometry.Rect{X: 100, Y: 100, Width: 400, Height: 300}
	c, rec := newTestController(t, Options{ScanMinSize: 50})
	c.SetProps(Props{ScanMode: true, SelectionBox: box})

	c.PointerDown(at(c, 500, 400))
	require.Equal(t, StateResizingSelectionBox, c.State())

	c.PointerMove(at(c, 1100, 1000))
	require.Len(t, rec.boxes, 1)
	assert.Equal(t, geometry.Rect{X: 100, Y: 100, Width: 900, Height: 650}, rec.boxes[0], "clamped to the image")

	c.PointerMove(at(c, 120, 120))
	assert.Len(t, rec.boxes, 1, "undersized box is rejected")
	assert.Equal(t, rec.boxes[0], c.Props().SelectionBox)

	c.PointerUp(at(c, 120, 120))
	assert.Equal(t, StateIdle, c.State())
}

func TestHitTestOrder(t *testing.T) {
	a := rectAnnotation("a", 100, 100, 200, 150)
	b := rectAnnotation("b", 150, 120, 200, 150)
	c, _ := newTestController(t, Options{})

	c.SetProps(Props{Annotations: []annotation.Annotation{a, b}, ShowAll: true})
	assert.Equal(t, Hit{Kind: HitShape, ID: "b"}, c.HitTest(at(c, 200, 175)), "topmost wins")

	c.SetProps(Props{Annotations: []annotation.Annotation{a, b}, ShowAll: true, SelectedID: "a"})
	assert.Equal(t, "a", c.HitTest(at(c, 200, 175)).ID, "selected shape wins")

	c.SetProps(Props{Annotations: []annotation.Annotation{a, b}, SelectedID: "a", Editable: true})
	assert.Equal(t, Hit{Kind: HitVertex, ID: "a", Vertex: 0}, c.HitTest(at(c, 100, 100)))
	assert.Equal(t, HitEdge, c.HitTest(at(c, 300, 175)).Kind)
	assert.Equal(t, HitNone, c.HitTest(at(c, 340, 260)).Kind, "only the selected shape is hit when ShowAll is off")

	c.SetProps(Props{Annotations: []annotation.Annotation{a}, SelectedID: "a", Editable: true,
		ScanMode: true, SelectionBox: geometry.Rect{X: 100, Y: 100, Width: 500, Height: 500}})
	assert.Equal(t, HitScanHandle, c.HitTest(at(c, 100, 100)).Kind, "selection box handles come first")
}

func TestPanickingCallbackIsContained(t *testing.T) {
	c, _ := newTestController(t, Options{})
	c.SetCallbacks(Callbacks{OnCreate: func(annotation.Draft) { panic("boom") }})
	c.SetProps(Props{Editable: true})
	c.SetTool(ToolRectangle)

	assert.NotPanics(t, func() {
		c.PointerDown(at(c, 100, 100))
		c.PointerUp(at(c, 300, 300))
	})
	assert.Equal(t, StateIdle, c.State())
}

func TestWheelAndZoomKeys(t *testing.T) {
	c, _ := newTestController(t, Options{})
	p := geometry.Point2D{X: 250, Y: 150}
	before := c.Viewport().ToImage(p)

	c.Wheel(2, p)
	after := c.Viewport().ToImage(p)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)

	s := c.Viewport().Scale()
	assert.True(t, c.KeyDown(KeyZoomIn, false))
	assert.InDelta(t, s*1.1, c.Viewport().Scale(), 1e-9)
	assert.True(t, c.KeyDown(KeyFit, false))
	assert.InDelta(t, 0.72, c.Viewport().Scale(), 1e-9)
	assert.False(t, c.KeyDown(KeyZoomOut, true))
}

func TestCursor(t *testing.T) {
	a := rectAnnotation("a", 100, 100, 200, 150)
	c, _ := newTestController(t, Options{})
	c.SetProps(Props{Annotations: []annotation.Annotation{a}, ShowAll: true})

	c.PointerMove(at(c, 200, 175))
	assert.Equal(t, CursorPointer, c.Cursor())
	c.PointerMove(at(c, 900, 700))
	assert.Equal(t, CursorDefault, c.Cursor())

	c.SetTool(ToolPan)
	assert.Equal(t, CursorMove, c.Cursor())
}
