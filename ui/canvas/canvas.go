// Package canvas provides the annotation overlay widget: the blueprint image
// and its findings drawn under a pan/zoom viewport and edited with the mouse.
package canvas

import (
	"context"
	"fmt"
	"image"
	"sync"

	"blueprint-review/internal/annotation"
	bpimage "blueprint-review/internal/image"
	"blueprint-review/internal/interaction"
	"blueprint-review/internal/render"
	"blueprint-review/internal/viewport"
	"blueprint-review/pkg/geometry"
	"blueprint-review/pkg/log"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// OverlayCanvas displays one image with its annotations. The caller owns the
// annotation data: it pushes props in with SetProps and receives edits
// through the callbacks set with SetCallbacks.
type OverlayCanvas struct {
	widget.BaseWidget

	// mu guards the viewport, the controller and the fields below. Callbacks
	// raised by the controller are queued and delivered after it is released.
	mu          sync.Mutex
	vp          *viewport.Viewport
	ctrl        *interaction.Controller
	style       render.Style
	img         image.Image
	placeholder string
	size        fyne.Size
	last        geometry.Point2D
	cb          interaction.Callbacks
	queued      []func()

	raster *fynecanvas.Raster
	loader *bpimage.Loader

	onImage      func(bpimage.Snapshot)
	onViewChange func(scale float64)
}

var (
	_ fyne.Widget         = (*OverlayCanvas)(nil)
	_ fyne.Draggable      = (*OverlayCanvas)(nil)
	_ fyne.Scrollable     = (*OverlayCanvas)(nil)
	_ fyne.DoubleTappable = (*OverlayCanvas)(nil)
	_ fyne.Focusable      = (*OverlayCanvas)(nil)
	_ desktop.Mouseable   = (*OverlayCanvas)(nil)
	_ desktop.Hoverable   = (*OverlayCanvas)(nil)
	_ desktop.Cursorable  = (*OverlayCanvas)(nil)
)

// NewOverlayCanvas creates an overlay widget. A nil loader decodes from the
// local filesystem.
func NewOverlayCanvas(limits viewport.Limits, opts interaction.Options, style render.Style, loader *bpimage.Loader) *OverlayCanvas {
	if loader == nil {
		loader = bpimage.NewLoader(nil)
	}
	oc := &OverlayCanvas{
		vp:     viewport.New(limits),
		style:  style,
		loader: loader,
	}
	oc.style.HandleSize = opts.HandleSize
	oc.ctrl = interaction.NewController(oc.vp, opts, oc.queuedCallbacks())

	oc.raster = fynecanvas.NewRaster(oc.draw)
	oc.raster.ScaleMode = fynecanvas.ImageScalePixels
	oc.raster.SetMinSize(fyne.NewSize(200, 150))

	loader.OnChange(oc.imageChanged)

	oc.ExtendBaseWidget(oc)
	return oc
}

// queuedCallbacks returns controller callbacks that defer delivery until the
// lock is released, so a listener may call straight back into the widget.
func (oc *OverlayCanvas) queuedCallbacks() interaction.Callbacks {
	return interaction.Callbacks{
		OnSelect: func(id string) {
			if fn := oc.cb.OnSelect; fn != nil {
				oc.enqueue(func() { fn(id) })
			}
		},
		OnUpdate: func(id string, patch annotation.Patch) {
			if fn := oc.cb.OnUpdate; fn != nil {
				oc.enqueue(func() { fn(id, patch) })
			}
		},
		OnCreate: func(d annotation.Draft) {
			if fn := oc.cb.OnCreate; fn != nil {
				oc.enqueue(func() { fn(d) })
			}
		},
		OnDelete: func(id string) {
			if fn := oc.cb.OnDelete; fn != nil {
				oc.enqueue(func() { fn(id) })
			}
		},
		OnSelectionBoxChange: func(box geometry.Rect) {
			if fn := oc.cb.OnSelectionBoxChange; fn != nil {
				oc.enqueue(func() { fn(box) })
			}
		},
		OnToolChange: func(t interaction.Tool) {
			if fn := oc.cb.OnToolChange; fn != nil {
				oc.enqueue(func() { fn(t) })
			}
		},
	}
}

func (oc *OverlayCanvas) enqueue(fn func()) {
	oc.queued = append(oc.queued, fn)
}

// update runs fn under the lock, then delivers queued callbacks and redraws.
func (oc *OverlayCanvas) update(fn func(c *interaction.Controller)) {
	oc.mu.Lock()
	before := oc.vp.Scale()
	fn(oc.ctrl)
	after := oc.vp.Scale()
	queued := oc.queued
	oc.queued = nil
	onView := oc.onViewChange
	oc.mu.Unlock()

	for _, q := range queued {
		deliver(q)
	}
	oc.raster.Refresh()
	if onView != nil && before != after {
		onView(after)
	}
}

func deliver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.Fields{"panic": fmt.Sprint(r)}, "Overlay: callback panicked")
		}
	}()
	fn()
}

// SetCallbacks sets the receivers of user edits.
func (oc *OverlayCanvas) SetCallbacks(cb interaction.Callbacks) {
	oc.mu.Lock()
	oc.cb = cb
	oc.mu.Unlock()
}

// SetProps replaces the displayed annotations and flags.
func (oc *OverlayCanvas) SetProps(p interaction.Props) {
	oc.update(func(c *interaction.Controller) { c.SetProps(p) })
}

// SetTool switches the active tool. Drawing tools are refused when the
// props are read-only.
func (oc *OverlayCanvas) SetTool(t interaction.Tool) bool {
	var ok bool
	oc.update(func(c *interaction.Controller) { ok = c.SetTool(t) })
	return ok
}

// Tool returns the active tool.
func (oc *OverlayCanvas) Tool() interaction.Tool {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.ctrl.Tool()
}

// SetOptions replaces gesture thresholds.
func (oc *OverlayCanvas) SetOptions(opts interaction.Options) {
	oc.update(func(c *interaction.Controller) {
		c.SetOptions(opts)
		oc.style.HandleSize = c.Options().HandleSize
	})
}

// SetStyle replaces the render style. The handle size follows the options.
func (oc *OverlayCanvas) SetStyle(s render.Style) {
	oc.update(func(c *interaction.Controller) {
		s.HandleSize = c.Options().HandleSize
		oc.style = s
	})
}

// SetLimits replaces the zoom policy.
func (oc *OverlayCanvas) SetLimits(l viewport.Limits) {
	oc.update(func(*interaction.Controller) { oc.vp.SetLimits(l) })
}

// Scale returns the current zoom factor.
func (oc *OverlayCanvas) Scale() float64 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.vp.Scale()
}

// OnViewChange registers a callback for zoom changes.
func (oc *OverlayCanvas) OnViewChange(fn func(scale float64)) {
	oc.mu.Lock()
	oc.onViewChange = fn
	oc.mu.Unlock()
}

// ZoomIn zooms one step around the container centre.
func (oc *OverlayCanvas) ZoomIn() {
	oc.update(func(c *interaction.Controller) { c.KeyDown(interaction.KeyZoomIn, false) })
}

// ZoomOut zooms one step around the container centre.
func (oc *OverlayCanvas) ZoomOut() {
	oc.update(func(c *interaction.Controller) { c.KeyDown(interaction.KeyZoomOut, false) })
}

// FitToWindow fits the whole image into the widget.
func (oc *OverlayCanvas) FitToWindow() {
	oc.update(func(c *interaction.Controller) { c.KeyDown(interaction.KeyFit, false) })
}

// FocusAnnotation zooms to a. Repeated calls for the same id are ignored
// until ResetFocus.
func (oc *OverlayCanvas) FocusAnnotation(a annotation.Annotation) {
	box := a.BoundingBox
	if box.IsEmpty() {
		box = geometry.BoundingBox(a.Polygon)
	}
	oc.update(func(*interaction.Controller) { oc.vp.FocusAnnotation(a.ID, box) })
}

// ResetFocus lets the next FocusAnnotation zoom even for the same id.
func (oc *OverlayCanvas) ResetFocus() {
	oc.mu.Lock()
	oc.vp.ResetFocus()
	oc.mu.Unlock()
}

// HandleKey feeds a key from outside the widget, such as a window-level
// shortcut. It returns true when the key was consumed.
func (oc *OverlayCanvas) HandleKey(k interaction.Key, textFocused bool) bool {
	var used bool
	oc.update(func(c *interaction.Controller) { used = c.KeyDown(k, textFocused) })
	return used
}

// LoadImage requests url through the loader. An empty url clears the image.
func (oc *OverlayCanvas) LoadImage(ctx context.Context, url string) {
	oc.loader.Request(ctx, url)
}

// OnImageChange registers a callback for loader state changes. It may run
// on the loading goroutine.
func (oc *OverlayCanvas) OnImageChange(fn func(bpimage.Snapshot)) {
	oc.mu.Lock()
	oc.onImage = fn
	oc.mu.Unlock()
}

// ImageState returns the loader's current snapshot.
func (oc *OverlayCanvas) ImageState() bpimage.Snapshot {
	return oc.loader.Snapshot()
}

func (oc *OverlayCanvas) imageChanged(snap bpimage.Snapshot) {
	oc.update(func(c *interaction.Controller) {
		switch snap.State {
		case bpimage.StateLoaded:
			oc.img = snap.Doc.Image
			oc.placeholder = ""
			oc.vp.ResetFocus()
			oc.vp.SetImageSize(snap.Doc.Size())
		case bpimage.StateLoading:
			oc.img = nil
			oc.placeholder = "Loading image..."
			c.Cancel()
			oc.vp.ClearImage()
		default:
			oc.img = nil
			oc.placeholder = ""
			c.Cancel()
			oc.vp.ClearImage()
		}
	})

	oc.mu.Lock()
	fn := oc.onImage
	oc.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// RenderView renders the current view at the widget's size, one pixel per
// unit. It returns nil before the first layout.
func (oc *OverlayCanvas) RenderView() *image.RGBA {
	s, size := oc.scene()
	w, h := int(size.Width), int(size.Height)
	if w <= 0 || h <= 0 {
		return nil
	}
	s.PixelRatio = 1
	return render.NewImage(w, h, s)
}

// scene captures everything the renderer needs under the lock.
func (oc *OverlayCanvas) scene() (render.Scene, fyne.Size) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return render.Scene{
		Image:       oc.img,
		Placeholder: oc.placeholder,
		Transform:   oc.vp.Transform(),
		Props:       oc.ctrl.Props(),
		State:       oc.ctrl.State(),
		Draft:       oc.ctrl.Draft(),
		Style:       oc.style,
	}, oc.size
}

// draw is the raster drawing function. w and h are device pixels.
func (oc *OverlayCanvas) draw(w, h int) image.Image {
	s, size := oc.scene()
	if size.Width > 0 {
		s.PixelRatio = float64(w) / float64(size.Width)
	}
	return render.NewImage(w, h, s)
}

func (oc *OverlayCanvas) resized(size fyne.Size) {
	oc.mu.Lock()
	oc.size = size
	oc.vp.SetContainer(geometry.Rect{Width: float64(size.Width), Height: float64(size.Height)})
	oc.mu.Unlock()
}

func point(p fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
}

func (oc *OverlayCanvas) requestFocus() {
	a := fyne.CurrentApp()
	if a == nil {
		return
	}
	if c := a.Driver().CanvasForObject(oc); c != nil && c.Focused() != oc {
		c.Focus(oc)
	}
}

// MouseDown implements desktop.Mouseable.
func (oc *OverlayCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	oc.requestFocus()
	p := point(ev.Position)
	oc.update(func(c *interaction.Controller) {
		oc.last = p
		c.PointerDown(p)
	})
}

// MouseUp implements desktop.Mouseable.
func (oc *OverlayCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	p := point(ev.Position)
	oc.update(func(c *interaction.Controller) {
		oc.last = p
		c.PointerUp(p)
	})
}

// Dragged implements fyne.Draggable.
func (oc *OverlayCanvas) Dragged(ev *fyne.DragEvent) {
	p := point(ev.Position)
	oc.update(func(c *interaction.Controller) {
		oc.last = p
		c.PointerMove(p)
	})
}

// DragEnd implements fyne.Draggable. The release may arrive here or in
// MouseUp; the controller ignores the second one.
func (oc *OverlayCanvas) DragEnd() {
	oc.update(func(c *interaction.Controller) { c.PointerUp(oc.last) })
}

// MouseIn implements desktop.Hoverable.
func (oc *OverlayCanvas) MouseIn(ev *desktop.MouseEvent) {
	oc.MouseMoved(ev)
}

// MouseMoved implements desktop.Hoverable.
func (oc *OverlayCanvas) MouseMoved(ev *desktop.MouseEvent) {
	p := point(ev.Position)
	oc.update(func(c *interaction.Controller) {
		oc.last = p
		c.PointerMove(p)
	})
}

// MouseOut implements desktop.Hoverable.
func (oc *OverlayCanvas) MouseOut() {}

// DoubleTapped implements fyne.DoubleTappable.
func (oc *OverlayCanvas) DoubleTapped(ev *fyne.PointEvent) {
	p := point(ev.Position)
	oc.update(func(c *interaction.Controller) { c.DoubleClick(p) })
}

// Scrolled implements fyne.Scrollable. The wheel zooms around the pointer.
func (oc *OverlayCanvas) Scrolled(ev *fyne.ScrollEvent) {
	var notches float64
	switch {
	case ev.Scrolled.DY > 0:
		notches = 1
	case ev.Scrolled.DY < 0:
		notches = -1
	default:
		return
	}
	p := point(ev.Position)
	oc.update(func(c *interaction.Controller) { c.Wheel(notches, p) })
}

// FocusGained implements fyne.Focusable.
func (oc *OverlayCanvas) FocusGained() {}

// FocusLost implements fyne.Focusable.
func (oc *OverlayCanvas) FocusLost() {}

// TypedRune implements fyne.Focusable.
func (oc *OverlayCanvas) TypedRune(r rune) {
	if k := interaction.KeyForRune(r); k != interaction.KeyOther {
		oc.HandleKey(k, false)
	}
}

// TypedKey implements fyne.Focusable. Printable keys arrive through TypedRune.
func (oc *OverlayCanvas) TypedKey(ev *fyne.KeyEvent) {
	if k := KeyForName(ev.Name); k != interaction.KeyOther {
		oc.HandleKey(k, false)
	}
}

// KeyForName maps the non-printable keys the overlay understands.
func KeyForName(name fyne.KeyName) interaction.Key {
	switch name {
	case fyne.KeyEscape:
		return interaction.KeyEscape
	case fyne.KeyDelete:
		return interaction.KeyDelete
	case fyne.KeyBackspace:
		return interaction.KeyBackspace
	default:
		return interaction.KeyOther
	}
}

// Cursor implements desktop.Cursorable.
func (oc *OverlayCanvas) Cursor() desktop.Cursor {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return cursorFor(oc.ctrl.Cursor())
}

func cursorFor(c interaction.Cursor) desktop.Cursor {
	switch c {
	case interaction.CursorPointer, interaction.CursorMove:
		return desktop.PointerCursor
	case interaction.CursorCrosshair:
		return desktop.CrosshairCursor
	case interaction.CursorResizeH:
		return desktop.HResizeCursor
	case interaction.CursorResizeV:
		return desktop.VResizeCursor
	default:
		return desktop.DefaultCursor
	}
}

// CreateRenderer implements fyne.Widget.
func (oc *OverlayCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &overlayRenderer{canvas: oc}
}

type overlayRenderer struct {
	canvas *OverlayCanvas
}

func (r *overlayRenderer) Layout(size fyne.Size) {
	r.canvas.resized(size)
	r.canvas.raster.Resize(size)
}

func (r *overlayRenderer) MinSize() fyne.Size {
	return r.canvas.raster.MinSize()
}

func (r *overlayRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *overlayRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *overlayRenderer) Destroy() {}
