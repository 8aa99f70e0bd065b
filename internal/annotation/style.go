package annotation

import (
	"image/color"

	"blueprint-review/pkg/colorutil"
)

// judgmentColors takes precedence over elementColors.
var judgmentColors = map[Judgment]color.RGBA{
	JudgmentOK:      colorutil.Green,
	JudgmentNG:      colorutil.Red,
	JudgmentWarning: colorutil.Amber,
}

var elementColors = map[ElementType]color.RGBA{
	ElementText:   colorutil.Blue,
	ElementTable:  colorutil.Purple,
	ElementFigure: colorutil.Amber,
}

// DefaultColor is used when neither judgment nor element type has a color.
var DefaultColor = colorutil.Blue

// StrokeColor returns the overlay color for an annotation: judgment first,
// then element type, then the default.
func StrokeColor(a Annotation) color.RGBA {
	if c, ok := judgmentColors[a.Judgment]; ok {
		return c
	}
	if c, ok := elementColors[a.ElementType]; ok {
		return c
	}
	return DefaultColor
}
