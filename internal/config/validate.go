package config

import (
	"fmt"
	"strings"
)

var envReplacer = strings.NewReplacer(".", "_")

// Validate rejects configurations the overlay cannot work with.
func (c Config) Validate() error {
	vp := c.Viewport
	if vp.MinScale <= 0 || vp.MaxScale < vp.MinScale {
		return fmt.Errorf("invalid zoom bounds [%g, %g]", vp.MinScale, vp.MaxScale)
	}
	if vp.FocusMaxScale < vp.MinScale || vp.FocusMaxScale > vp.MaxScale {
		return fmt.Errorf("focus_max_scale %g outside [%g, %g]", vp.FocusMaxScale, vp.MinScale, vp.MaxScale)
	}
	if vp.FitMargin <= 0 || vp.FitMargin > 1 {
		return fmt.Errorf("fit_margin %g must be in (0, 1]", vp.FitMargin)
	}
	if vp.ZoomStep <= 1 {
		return fmt.Errorf("zoom_step %g must be greater than 1", vp.ZoomStep)
	}
	if c.Interaction.MinShapeSize < 0 || c.Interaction.HandleSize <= 0 {
		return fmt.Errorf("invalid interaction thresholds")
	}
	if c.ScanBox.MinSize <= 0 || c.ScanBox.Margin < 0 || c.ScanBox.Margin >= 0.5 {
		return fmt.Errorf("invalid scan box settings")
	}
	return nil
}
