// Package scanbox implements the single resizable region that scopes a scan job.
package scanbox

import (
	"math"

	"blueprint-review/pkg/geometry"
)

// DefaultMinSize is the smallest width or height a box may be resized to.
const DefaultMinSize = 50

// DefaultMargin is the fraction of the image trimmed from each side of the
// initial box.
const DefaultMargin = 0.05

// Handle identifies one of the eight resize handles.
type Handle int

const (
	HandleNone Handle = iota
	HandleN
	HandleS
	HandleE
	HandleW
	HandleNE
	HandleNW
	HandleSE
	HandleSW
)

// Handles lists the eight resize handles.
var Handles = []Handle{HandleNW, HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW}

func (h Handle) String() string {
	switch h {
	case HandleN:
		return "n"
	case HandleS:
		return "s"
	case HandleE:
		return "e"
	case HandleW:
		return "w"
	case HandleNE:
		return "ne"
	case HandleNW:
		return "nw"
	case HandleSE:
		return "se"
	case HandleSW:
		return "sw"
	default:
		return "none"
	}
}

func (h Handle) movesTop() bool    { return h == HandleN || h == HandleNE || h == HandleNW }
func (h Handle) movesBottom() bool { return h == HandleS || h == HandleSE || h == HandleSW }
func (h Handle) movesLeft() bool   { return h == HandleW || h == HandleNW || h == HandleSW }
func (h Handle) movesRight() bool  { return h == HandleE || h == HandleNE || h == HandleSE }

// Default returns the initial box for an image: its bounds minus margin on
// every side.
func Default(image geometry.Size, margin float64) geometry.Rect {
	if image.IsZero() {
		return geometry.Rect{}
	}
	mx := image.Width * margin
	my := image.Height * margin
	return geometry.Rect{
		X:      mx,
		Y:      my,
		Width:  image.Width - 2*mx,
		Height: image.Height - 2*my,
	}
}

// Resize applies an image-space drag delta to the edges named by handle.
// The result is kept inside bounds when bounds is non-zero. If the result
// would be smaller than minSize in either dimension, ok is false and the
// caller keeps its last valid box.
func Resize(start geometry.Rect, h Handle, delta geometry.Point2D, minSize float64, bounds geometry.Size) (geometry.Rect, bool) {
	if h == HandleNone {
		return start, false
	}
	left, top := start.X, start.Y
	right, bottom := start.Right(), start.Bottom()

	if h.movesLeft() {
		left += delta.X
	}
	if h.movesRight() {
		right += delta.X
	}
	if h.movesTop() {
		top += delta.Y
	}
	if h.movesBottom() {
		bottom += delta.Y
	}

	if !bounds.IsZero() {
		left = math.Max(left, 0)
		top = math.Max(top, 0)
		right = math.Min(right, bounds.Width)
		bottom = math.Min(bottom, bounds.Height)
	}

	if right-left < minSize || bottom-top < minSize {
		return start, false
	}
	return geometry.Rect{X: left, Y: top, Width: right - left, Height: bottom - top}, true
}

// HandlePoint returns the image-space centre of a handle on box.
func HandlePoint(box geometry.Rect, h Handle) geometry.Point2D {
	cx, cy := box.X+box.Width/2, box.Y+box.Height/2
	x, y := cx, cy
	if h.movesLeft() {
		x = box.X
	}
	if h.movesRight() {
		x = box.Right()
	}
	if h.movesTop() {
		y = box.Y
	}
	if h.movesBottom() {
		y = box.Bottom()
	}
	return geometry.Point2D{X: x, Y: y}
}

// HandlePoints returns the centres of all eight handles, in Handles order.
func HandlePoints(box geometry.Rect) []geometry.Point2D {
	out := make([]geometry.Point2D, len(Handles))
	for i, h := range Handles {
		out[i] = HandlePoint(box, h)
	}
	return out
}
