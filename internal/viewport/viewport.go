package viewport

import (
	"math"

	"blueprint-review/pkg/geometry"
)

// Limits bounds zoom and controls fitting. Zero values are replaced by
// DefaultLimits on construction.
type Limits struct {
	MinScale       float64
	MaxScale       float64
	FocusMaxScale  float64 // tighter cap used by zoom-to-box
	FitMargin      float64
	ZoomStep       float64 // factor per wheel notch
	FocusPadding   float64 // image px added around a focused box
	FocusMinExtent float64 // focused boxes are never treated as smaller than this
}

// DefaultLimits returns the zoom policy: [0.1, 5] general, 4x focus cap,
// 0.9 fit margin, 1.1x per notch.
func DefaultLimits() Limits {
	return Limits{
		MinScale:       0.1,
		MaxScale:       5,
		FocusMaxScale:  4,
		FitMargin:      0.9,
		ZoomStep:       1.1,
		FocusPadding:   50,
		FocusMinExtent: 100,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MinScale <= 0 {
		l.MinScale = d.MinScale
	}
	if l.MaxScale < l.MinScale {
		l.MaxScale = math.Max(d.MaxScale, l.MinScale)
	}
	if l.FocusMaxScale <= 0 {
		l.FocusMaxScale = math.Min(d.FocusMaxScale, l.MaxScale)
	}
	if l.FitMargin <= 0 {
		l.FitMargin = d.FitMargin
	}
	if l.ZoomStep <= 1 {
		l.ZoomStep = d.ZoomStep
	}
	if l.FocusPadding < 0 {
		l.FocusPadding = 0
	}
	return l
}

// Viewport owns the scale and pan of the overlay. It never reads or writes
// annotation data.
type Viewport struct {
	limits    Limits
	scale     float64
	pan       geometry.Point2D
	image     geometry.Size
	container geometry.Rect

	pendingFit  bool
	lastFocusID string
}

// New creates a viewport at scale 1 with no image.
func New(limits Limits) *Viewport {
	return &Viewport{limits: limits.withDefaults(), scale: 1}
}

// SetLimits replaces the zoom policy and re-clamps the current scale.
func (v *Viewport) SetLimits(l Limits) {
	v.limits = l.withDefaults()
	v.scale = v.clamp(v.scale, v.limits.MaxScale)
}

// Limits returns the active zoom policy.
func (v *Viewport) Limits() Limits { return v.limits }

// Transform returns the current image/screen mapping.
func (v *Viewport) Transform() Transform {
	return Transform{Scale: v.scale, Pan: v.pan, Container: v.container, Image: v.image}
}

// Scale returns the current scale.
func (v *Viewport) Scale() float64 { return v.scale }

// Pan returns the current pan offset in screen pixels.
func (v *Viewport) Pan() geometry.Point2D { return v.pan }

// ImageSize returns the natural size of the current image.
func (v *Viewport) ImageSize() geometry.Size { return v.image }

// Container returns the on-screen container rectangle.
func (v *Viewport) Container() geometry.Rect { return v.container }

// ToScreen maps an image point to screen space with the current state.
func (v *Viewport) ToScreen(p geometry.Point2D) geometry.Point2D {
	return v.Transform().ToScreen(p)
}

// ToImage maps a screen point to image space with the current state.
func (v *Viewport) ToImage(p geometry.Point2D) geometry.Point2D {
	return v.Transform().ToImage(p)
}

// SetImageSize records a newly loaded image and fits it. If the container has
// no size yet the fit is deferred until SetContainer provides one.
func (v *Viewport) SetImageSize(size geometry.Size) {
	v.image = size
	v.lastFocusID = ""
	v.pendingFit = true
	v.applyPendingFit()
}

// ClearImage forgets the current image.
func (v *Viewport) ClearImage() {
	v.image = geometry.Size{}
	v.pendingFit = false
	v.lastFocusID = ""
}

// SetContainer updates the container geometry. Scale and pan are left alone,
// so a resize in the middle of a drag does not move the image, except for a
// fit still pending from an image load.
func (v *Viewport) SetContainer(r geometry.Rect) {
	v.container = r
	v.applyPendingFit()
}

func (v *Viewport) applyPendingFit() {
	if v.pendingFit && !v.container.IsEmpty() && !v.image.IsZero() {
		v.pendingFit = false
		v.FitToContainer()
	}
}

// FitToContainer scales the whole image into the container with the fit
// margin and resets pan. It is a no-op without an image or container.
func (v *Viewport) FitToContainer() {
	if v.image.IsZero() || v.container.IsEmpty() {
		return
	}
	s := math.Min(v.container.Width/v.image.Width, v.container.Height/v.image.Height) * v.limits.FitMargin
	v.scale = v.clamp(s, v.limits.MaxScale)
	v.pan = geometry.Point2D{}
}

// ZoomAt zooms by ZoomStep^notches keeping the image point under anchor fixed.
func (v *Viewport) ZoomAt(notches float64, anchor geometry.Point2D) {
	v.zoomAround(math.Pow(v.limits.ZoomStep, notches), anchor)
}

// ZoomBy zooms by factor around the container centre.
func (v *Viewport) ZoomBy(factor float64) {
	v.zoomAround(factor, v.container.Center())
}

// SetScale sets an absolute scale around the container centre.
func (v *Viewport) SetScale(scale float64) {
	if v.scale <= 0 {
		return
	}
	v.zoomAround(scale/v.scale, v.container.Center())
}

func (v *Viewport) zoomAround(factor float64, anchor geometry.Point2D) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	t := v.Transform()
	if !t.valid() {
		return
	}
	target := t.ToImage(anchor)
	v.scale = v.clamp(v.scale*factor, v.limits.MaxScale)
	v.solvePan(target, anchor)
}

// solvePan sets pan so that image point img lands on screen point screen.
func (v *Viewport) solvePan(img, screen geometry.Point2D) {
	c := v.container.Center()
	ic := geometry.Point2D{X: v.image.Width / 2, Y: v.image.Height / 2}
	v.pan = screen.Sub(c).Sub(img.Sub(ic).Scale(v.scale))
}

// PanBy translates the view by a screen-space delta.
func (v *Viewport) PanBy(dx, dy float64) {
	v.pan = v.pan.Add(geometry.Point2D{X: dx, Y: dy})
}

// ZoomToBoundingBox centres box in the container at the largest scale that
// shows box plus padding, capped at FocusMaxScale. It reports whether the
// view was changed; nothing happens before the container has a size.
func (v *Viewport) ZoomToBoundingBox(box geometry.Rect, padding float64) bool {
	if v.container.IsEmpty() {
		return false
	}
	w := math.Max(box.Width+2*padding, v.limits.FocusMinExtent)
	h := math.Max(box.Height+2*padding, v.limits.FocusMinExtent)
	if w <= 0 || h <= 0 {
		return false
	}
	s := math.Min(v.container.Width/w, v.container.Height/h)
	v.scale = v.clamp(s, v.limits.FocusMaxScale)
	v.solvePan(box.Center(), v.container.Center())
	return true
}

// FocusAnnotation zooms to box for annotation id, but only when id differs
// from the last focused id. It reports whether the view changed.
func (v *Viewport) FocusAnnotation(id string, box geometry.Rect) bool {
	if id == "" || id == v.lastFocusID {
		return false
	}
	if !v.ZoomToBoundingBox(box, v.limits.FocusPadding) {
		return false
	}
	v.lastFocusID = id
	return true
}

// LastFocusID returns the id most recently focused.
func (v *Viewport) LastFocusID() string { return v.lastFocusID }

// ResetFocus forgets the last focused id so the next FocusAnnotation zooms.
func (v *Viewport) ResetFocus() { v.lastFocusID = "" }

func (v *Viewport) clamp(s, upper float64) float64 {
	if math.IsNaN(s) || s <= 0 {
		return v.limits.MinScale
	}
	return math.Max(v.limits.MinScale, math.Min(s, upper))
}
