package config

import (
	"blueprint-review/internal/interaction"
	"blueprint-review/internal/render"
	"blueprint-review/internal/viewport"
)

// ViewportLimits returns the zoom policy for the overlay viewport.
func (c Config) ViewportLimits() viewport.Limits {
	v := c.Viewport
	return viewport.Limits{
		MinScale:       v.MinScale,
		MaxScale:       v.MaxScale,
		FocusMaxScale:  v.FocusMaxScale,
		FitMargin:      v.FitMargin,
		ZoomStep:       v.ZoomStep,
		FocusPadding:   v.FocusPadding,
		FocusMinExtent: v.FocusMinExtent,
	}
}

// InteractionOptions returns the gesture thresholds.
func (c Config) InteractionOptions() interaction.Options {
	return interaction.Options{
		MinShapeSize: c.Interaction.MinShapeSize,
		HandleSize:   c.Interaction.HandleSize,
		HitTolerance: c.Interaction.HitTolerance,
		ScanMinSize:  c.ScanBox.MinSize,
	}
}

// RenderStyle returns the overlay drawing style.
func (c Config) RenderStyle() render.Style {
	return render.Style{
		StrokeWidth:   c.Render.StrokeWidth,
		SelectedWidth: c.Render.SelectedWidth,
		FillOpacity:   c.Render.FillOpacity,
		HandleSize:    c.Interaction.HandleSize,
		Labels:        c.Render.Labels,
	}
}
