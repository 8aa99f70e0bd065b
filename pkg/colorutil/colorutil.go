// Package colorutil provides shared overlay colors for the blueprint review application.
package colorutil

import (
	"image/color"
)

// Overlay colors. Judgment and element-type palettes are looked up from these.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Gray    = color.RGBA{R: 0x6B, G: 0x72, B: 0x80, A: 255}
	Green   = color.RGBA{R: 0x22, G: 0xC5, B: 0x5E, A: 255}
	Red     = color.RGBA{R: 0xEF, G: 0x44, B: 0x44, A: 255}
	Amber   = color.RGBA{R: 0xF5, G: 0x9E, B: 0x0B, A: 255}
	Blue    = color.RGBA{R: 0x3B, G: 0x82, B: 0xF6, A: 255}
	Purple  = color.RGBA{R: 0xA8, G: 0x55, B: 0xF7, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Backing = color.RGBA{R: 0x1F, G: 0x29, B: 0x37, A: 255}
)

// WithAlpha returns c with its alpha channel replaced.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

// Blend mixes src over dst with the given opacity in [0,1] and returns an
// opaque color.
func Blend(dst, src color.RGBA, opacity float64) color.RGBA {
	if opacity <= 0 {
		return dst
	}
	if opacity >= 1 {
		return color.RGBA{R: src.R, G: src.G, B: src.B, A: 255}
	}
	inv := 1 - opacity
	return color.RGBA{
		R: uint8(float64(src.R)*opacity + float64(dst.R)*inv),
		G: uint8(float64(src.G)*opacity + float64(dst.G)*inv),
		B: uint8(float64(src.B)*opacity + float64(dst.B)*inv),
		A: 255,
	}
}
