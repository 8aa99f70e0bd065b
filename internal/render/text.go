package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"blueprint-review/pkg/colorutil"
)

const (
	labelPad    = 3
	glyphHeight = 13
	glyphAscent = 11
)

// textWidth returns the rendered width of s in pixels.
func textWidth(s string) int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	return d.MeasureString(s).Ceil()
}

// drawText draws s with its top-left corner at (x, y).
func drawText(dst *image.RGBA, s string, x, y int, col color.RGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y+glyphAscent),
	}
	d.DrawString(s)
}

// drawLabel draws s centred on (cx, cy) over a translucent backing box.
func drawLabel(dst *image.RGBA, s string, cx, cy int, accent color.RGBA) {
	if s == "" {
		return
	}
	w := textWidth(s)
	x := cx - w/2
	y := cy - glyphHeight/2
	box := image.Rect(x-labelPad, y-labelPad, x+w+labelPad, y+glyphHeight+labelPad)
	fillRect(dst, box, colorutil.Backing, 0.75)
	fillRect(dst, image.Rect(box.Min.X, box.Max.Y-2, box.Max.X, box.Max.Y), accent, 1)
	drawText(dst, s, x, y, colorutil.White)
}
