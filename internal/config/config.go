// Package config loads the tunables of the review application from defaults,
// an optional YAML file, and BLUEPRINT_ environment variables.
package config

// Config is the full application configuration.
type Config struct {
	Viewport    ViewportConfig    `mapstructure:"viewport"`
	Interaction InteractionConfig `mapstructure:"interaction"`
	ScanBox     ScanBoxConfig     `mapstructure:"scanbox"`
	Render      RenderConfig      `mapstructure:"render"`
	Log         LogConfig         `mapstructure:"log"`
}

// ViewportConfig bounds zoom and controls fitting.
type ViewportConfig struct {
	MinScale       float64 `mapstructure:"min_scale"`
	MaxScale       float64 `mapstructure:"max_scale"`
	FocusMaxScale  float64 `mapstructure:"focus_max_scale"`
	FitMargin      float64 `mapstructure:"fit_margin"`
	ZoomStep       float64 `mapstructure:"zoom_step"`
	FocusPadding   float64 `mapstructure:"focus_padding"`
	FocusMinExtent float64 `mapstructure:"focus_min_extent"`
}

// InteractionConfig holds gesture thresholds.
type InteractionConfig struct {
	MinShapeSize float64 `mapstructure:"min_shape_size"` // image px
	HandleSize   float64 `mapstructure:"handle_size"`    // screen px
	HitTolerance float64 `mapstructure:"hit_tolerance"`  // screen px
}

// ScanBoxConfig controls the scan-mode selection box.
type ScanBoxConfig struct {
	MinSize float64 `mapstructure:"min_size"`
	Margin  float64 `mapstructure:"margin"`
}

// RenderConfig controls overlay drawing.
type RenderConfig struct {
	StrokeWidth   int     `mapstructure:"stroke_width"`
	SelectedWidth int     `mapstructure:"selected_width"`
	FillOpacity   float64 `mapstructure:"fill_opacity"`
	Labels        bool    `mapstructure:"labels"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Viewport: ViewportConfig{
			MinScale:       0.1,
			MaxScale:       5,
			FocusMaxScale:  4,
			FitMargin:      0.9,
			ZoomStep:       1.1,
			FocusPadding:   50,
			FocusMinExtent: 100,
		},
		Interaction: InteractionConfig{
			MinShapeSize: 10,
			HandleSize:   8,
			HitTolerance: 6,
		},
		ScanBox: ScanBoxConfig{
			MinSize: 50,
			Margin:  0.05,
		},
		Render: RenderConfig{
			StrokeWidth:   2,
			SelectedWidth: 4,
			FillOpacity:   0.15,
			Labels:        true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
