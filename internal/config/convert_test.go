package config

import (
	"testing"

	"blueprint-review/internal/interaction"
	"blueprint-review/internal/render"
	"blueprint-review/internal/viewport"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsMatchPackageDefaults(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, viewport.DefaultLimits(), c.ViewportLimits())
	assert.Equal(t, interaction.DefaultOptions(), c.InteractionOptions())
	assert.Equal(t, render.DefaultStyle(), c.RenderStyle())
}
