package render

import (
	"image"
	"image/color"
	"sort"

	"blueprint-review/pkg/colorutil"
	"blueprint-review/pkg/geometry"
)

// fill paints every pixel of dst with col.
func fill(dst *image.RGBA, col color.RGBA) {
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i+0] = col.R
		dst.Pix[i+1] = col.G
		dst.Pix[i+2] = col.B
		dst.Pix[i+3] = col.A
	}
}

// blendPixel mixes col over the pixel at (x, y) with the given opacity.
func blendPixel(dst *image.RGBA, x, y int, col color.RGBA, opacity float64) {
	if !(image.Point{X: x, Y: y}.In(dst.Bounds())) {
		return
	}
	dst.SetRGBA(x, y, colorutil.Blend(dst.RGBAAt(x, y), col, opacity))
}

func setPixel(dst *image.RGBA, x, y int, col color.RGBA) {
	if image.Pt(x, y).In(dst.Bounds()) {
		dst.SetRGBA(x, y, col)
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
// dash > 0 leaves alternating gaps of dash pixels.
func drawLine(dst *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness, dash int) {
	if thickness < 1 {
		thickness = 1
	}
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	lo, hi := -(thickness-1)/2, thickness/2
	for step := 0; ; step++ {
		if dash <= 0 || (step/dash)%2 == 0 {
			for t := lo; t <= hi; t++ {
				for s := lo; s <= hi; s++ {
					setPixel(dst, x1+s, y1+t, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// strokePolygon outlines a closed polygon given in pixel coordinates.
func strokePolygon(dst *image.RGBA, pts []geometry.Point2D, col color.RGBA, thickness, dash int) {
	n := len(pts)
	for i := 0; i < n; i++ {
		p1 := pts[i]
		p2 := pts[(i+1)%n]
		drawLine(dst, round(p1.X), round(p1.Y), round(p2.X), round(p2.Y), col, thickness, dash)
	}
}

// strokePath draws an open polyline.
func strokePath(dst *image.RGBA, pts []geometry.Point2D, col color.RGBA, thickness, dash int) {
	for i := 0; i+1 < len(pts); i++ {
		p1, p2 := pts[i], pts[i+1]
		drawLine(dst, round(p1.X), round(p1.Y), round(p2.X), round(p2.Y), col, thickness, dash)
	}
}

// fillPolygon blends col into the interior of a polygon using a scanline fill.
func fillPolygon(dst *image.RGBA, pts []geometry.Point2D, col color.RGBA, opacity float64) {
	if len(pts) < 3 || opacity <= 0 {
		return
	}
	bounds := dst.Bounds()
	bb := geometry.BoundingBox(pts)
	minY := max(int(bb.Y), bounds.Min.Y)
	maxY := min(int(bb.Bottom()), bounds.Max.Y-1)

	xs := make([]float64, 0, 8)
	n := len(pts)
	for y := minY; y <= maxY; y++ {
		// Sample at the pixel centre.
		fy := float64(y) + 0.5
		xs = xs[:0]
		for i := 0; i < n; i++ {
			p1 := pts[i]
			p2 := pts[(i+1)%n]
			if (p1.Y <= fy && p2.Y > fy) || (p2.Y <= fy && p1.Y > fy) {
				t := (fy - p1.Y) / (p2.Y - p1.Y)
				xs = append(xs, p1.X+t*(p2.X-p1.X))
			}
		}
		sort.Float64s(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			x1 := max(round(xs[i]), bounds.Min.X)
			x2 := min(round(xs[i+1]), bounds.Max.X-1)
			for x := x1; x <= x2; x++ {
				blendPixel(dst, x, y, col, opacity)
			}
		}
	}
}

// fillRect blends col into an axis-aligned pixel rectangle.
func fillRect(dst *image.RGBA, r image.Rectangle, col color.RGBA, opacity float64) {
	r = r.Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			blendPixel(dst, x, y, col, opacity)
		}
	}
}

// drawHandle draws a square handle of the given pixel size centred on p.
func drawHandle(dst *image.RGBA, p geometry.Point2D, size int, border color.RGBA) {
	half := size / 2
	cx, cy := round(p.X), round(p.Y)
	r := image.Rect(cx-half, cy-half, cx-half+size, cy-half+size)
	fillRect(dst, r, colorutil.White, 1)
	for x := r.Min.X; x < r.Max.X; x++ {
		setPixel(dst, x, r.Min.Y, border)
		setPixel(dst, x, r.Max.Y-1, border)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		setPixel(dst, r.Min.X, y, border)
		setPixel(dst, r.Max.X-1, y, border)
	}
}

// dimOutside darkens everything outside r.
func dimOutside(dst *image.RGBA, r image.Rectangle, opacity float64) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !(image.Point{X: x, Y: y}.In(r)) {
				blendPixel(dst, x, y, colorutil.Black, opacity)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func round(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
