package app

import (
	"image/color"

	"blueprint-review/pkg/colorutil"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// BlueprintTheme tints the default theme in drafting blue. Success, warning
// and error use the overlay's judgment colours so the review buttons match
// the shapes they act on.
type BlueprintTheme struct{}

var _ fyne.Theme = (*BlueprintTheme)(nil)

func (t *BlueprintTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameHyperlink:
		return colorutil.Blue
	case theme.ColorNameSelection:
		return colorutil.WithAlpha(colorutil.Blue, 0x50)
	case theme.ColorNameFocus:
		return colorutil.WithAlpha(colorutil.Amber, 0x80)
	case theme.ColorNameSuccess:
		return colorutil.Green
	case theme.ColorNameWarning:
		return colorutil.Amber
	case theme.ColorNameError:
		return colorutil.Red
	case theme.ColorNameBackground:
		if variant == theme.VariantDark {
			return colorutil.Backing
		}
	}
	return theme.DefaultTheme().Color(name, variant)
}

func (t *BlueprintTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *BlueprintTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *BlueprintTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameScrollBar {
		return 14
	}
	return theme.DefaultTheme().Size(name)
}
