package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a config manager and loads the initial config.
// An empty cfgFile searches ./blueprint.yaml and the user config directory;
// a missing file is not an error.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{v: viper.New()}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up defaults, env binding and the config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	d := DefaultConfig()

	v.SetDefault("viewport.min_scale", d.Viewport.MinScale)
	v.SetDefault("viewport.max_scale", d.Viewport.MaxScale)
	v.SetDefault("viewport.focus_max_scale", d.Viewport.FocusMaxScale)
	v.SetDefault("viewport.fit_margin", d.Viewport.FitMargin)
	v.SetDefault("viewport.zoom_step", d.Viewport.ZoomStep)
	v.SetDefault("viewport.focus_padding", d.Viewport.FocusPadding)
	v.SetDefault("viewport.focus_min_extent", d.Viewport.FocusMinExtent)
	v.SetDefault("interaction.min_shape_size", d.Interaction.MinShapeSize)
	v.SetDefault("interaction.handle_size", d.Interaction.HandleSize)
	v.SetDefault("interaction.hit_tolerance", d.Interaction.HitTolerance)
	v.SetDefault("scanbox.min_size", d.ScanBox.MinSize)
	v.SetDefault("scanbox.margin", d.ScanBox.Margin)
	v.SetDefault("render.stroke_width", d.Render.StrokeWidth)
	v.SetDefault("render.selected_width", d.Render.SelectedWidth)
	v.SetDefault("render.fill_opacity", d.Render.FillOpacity)
	v.SetDefault("render.labels", d.Render.Labels)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)

	// BLUEPRINT_VIEWPORT_MAX_SCALE=8 etc.
	v.SetEnvPrefix("BLUEPRINT")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("blueprint")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/blueprint-review")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a validated Config.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the file the configuration was read from, if any.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of the config file. Invalid edits are
// ignored and the previous configuration stays active.
func (cm *Manager) WatchConfig() {
	if cm.v.ConfigFileUsed() == "" {
		return
	}
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}
