package main

import (
	"context"
	"fmt"
	"image"
	"strings"

	"blueprint-review/internal/annotation"
	"blueprint-review/internal/app"
	"blueprint-review/internal/config"
	bpimage "blueprint-review/internal/image"
	"blueprint-review/internal/job"
	"blueprint-review/internal/render"
	"blueprint-review/internal/viewport"
	"blueprint-review/pkg/geometry"
	"blueprint-review/pkg/log"
)

// renderOptions selects what to draw.
type renderOptions struct {
	JobID     string
	Focus     string   // annotation id to zoom to and select
	Judgments []string // OK, NG, WARNING; empty shows all
	Width     int
	Height    int
	NoLabels  bool
}

// renderJob draws a job's findings over its drawing the way the review
// window shows them after opening the job.
func renderJob(ctx context.Context, store *job.Store, cfg *config.Config, opts renderOptions, fetch bpimage.FetchFunc) (*image.RGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", opts.Width, opts.Height)
	}
	if fetch == nil {
		fetch = bpimage.Load
	}

	state := app.NewState(store)
	state.SetScanMargin(cfg.ScanBox.Margin)
	if err := state.OpenJob(opts.JobID); err != nil {
		return nil, err
	}
	j, _ := state.Job()

	doc, err := fetch(ctx, j.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load drawing %s: %w", j.ImageURL, err)
	}
	state.SetImageSize(doc.Size())

	if len(opts.Judgments) > 0 {
		f, err := judgmentFilter(opts.Judgments)
		if err != nil {
			return nil, err
		}
		state.SetFilter(f)
	}

	vp := viewport.New(cfg.ViewportLimits())
	vp.SetContainer(geometry.Rect{Width: float64(opts.Width), Height: float64(opts.Height)})
	vp.SetImageSize(doc.Size())

	if opts.Focus != "" {
		a, ok := state.Annotations.Get(opts.Focus)
		if !ok {
			return nil, fmt.Errorf("annotation %q not found in job %s", opts.Focus, j.ID)
		}
		state.Select(a.ID)
		box := a.BoundingBox
		if box.IsEmpty() {
			box = geometry.BoundingBox(a.Polygon)
		}
		vp.FocusAnnotation(a.ID, box)
	}

	style := cfg.RenderStyle()
	if opts.NoLabels {
		style.Labels = false
	}

	log.Debug(log.Fields{
		"job":    j.ID,
		"shapes": len(state.Visible()),
		"scale":  vp.Scale(),
	}, "Render: drawing overlay")

	return render.NewImage(opts.Width, opts.Height, render.Scene{
		Image:      doc.Image,
		Transform:  vp.Transform(),
		PixelRatio: 1,
		Props:      state.OverlayProps(),
		Style:      style,
	}), nil
}

func judgmentFilter(names []string) (annotation.Filter, error) {
	f := annotation.Filter{Judgments: make(map[annotation.Judgment]bool)}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		var j annotation.Judgment
		if err := j.UnmarshalText([]byte(n)); err != nil {
			return annotation.Filter{}, err
		}
		f.Judgments[j] = true
	}
	return f, nil
}
