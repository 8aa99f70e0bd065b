package canvas

import (
	"context"
	"image"
	"testing"
	"time"

	"blueprint-review/internal/annotation"
	bpimage "blueprint-review/internal/image"
	"blueprint-review/internal/interaction"
	"blueprint-review/internal/render"
	"blueprint-review/internal/viewport"
	"blueprint-review/pkg/geometry"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLoadedCanvas returns an 800x600 overlay showing a blank 1000x750 image,
// fitted at scale 0.72.
func newLoadedCanvas(t *testing.T) *OverlayCanvas {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	loader := bpimage.NewLoader(func(ctx context.Context, url string) (*bpimage.Document, error) {
		return &bpimage.Document{URL: url, Image: image.NewRGBA(image.Rect(0, 0, 1000, 750))}, nil
	})
	oc := NewOverlayCanvas(viewport.DefaultLimits(), interaction.DefaultOptions(), render.DefaultStyle(), loader)
	oc.Resize(fyne.NewSize(800, 600))

	loaded := make(chan struct{}, 1)
	oc.OnImageChange(func(s bpimage.Snapshot) {
		if s.State == bpimage.StateLoaded {
			loaded <- struct{}{}
		}
	})
	oc.LoadImage(context.Background(), "sheet.png")
	select {
	case <-loaded:
	case <-time.After(2 * time.Second):
		t.Fatal("image did not load")
	}
	require.InDelta(t, 0.72, oc.Scale(), 1e-9)
	return oc
}

func press(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func TestOverlayCanvasDrawsRectangle(t *testing.T) {
	oc := newLoadedCanvas(t)

	var created []annotation.Draft
	oc.SetCallbacks(interaction.Callbacks{
		OnCreate: func(d annotation.Draft) { created = append(created, d) },
	})
	oc.SetProps(interaction.Props{Editable: true, ShowAll: true})
	require.True(t, oc.SetTool(interaction.ToolRectangle))

	// Image (100,100) and (300,250) on screen.
	oc.MouseDown(press(112, 102))
	oc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(256, 210)}})
	oc.DragEnd()
	oc.MouseUp(press(256, 210))

	require.Len(t, created, 1)
	want := geometry.Polygon{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 300, Y: 250}, {X: 100, Y: 250}}
	require.Len(t, created[0].Polygon, 4)
	for i, p := range created[0].Polygon {
		assert.InDelta(t, want[i].X, p.X, 1e-6)
		assert.InDelta(t, want[i].Y, p.Y, 1e-6)
	}
}

func TestOverlayCanvasCallbackMayReenter(t *testing.T) {
	oc := newLoadedCanvas(t)

	props := interaction.Props{
		Annotations: []annotation.Annotation{{
			ID:      "f-1",
			Polygon: geometry.Polygon{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 300, Y: 250}, {X: 100, Y: 250}},
		}},
		ShowAll: true,
	}
	var selected []string
	oc.SetCallbacks(interaction.Callbacks{
		OnSelect: func(id string) {
			selected = append(selected, id)
			props.SelectedID = id
			oc.SetProps(props)
		},
	})
	oc.SetProps(props)

	oc.MouseDown(press(184, 156))
	oc.MouseUp(press(184, 156))

	assert.Equal(t, []string{"f-1"}, selected)
}

func TestOverlayCanvasWheelZooms(t *testing.T) {
	oc := newLoadedCanvas(t)

	var scales []float64
	oc.OnViewChange(func(s float64) { scales = append(scales, s) })

	oc.Scrolled(&fyne.ScrollEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(400, 300)},
		Scrolled:   fyne.NewDelta(0, 10),
	})
	require.Len(t, scales, 1)
	assert.InDelta(t, 0.72*1.1, scales[0], 1e-9)

	oc.FitToWindow()
	assert.InDelta(t, 0.72, oc.Scale(), 1e-9)
}

func TestOverlayCanvasRenderView(t *testing.T) {
	oc := newLoadedCanvas(t)
	img := oc.RenderView()
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 800, 600), img.Bounds())
}

func TestKeyForName(t *testing.T) {
	assert.Equal(t, interaction.KeyEscape, KeyForName(fyne.KeyEscape))
	assert.Equal(t, interaction.KeyDelete, KeyForName(fyne.KeyDelete))
	assert.Equal(t, interaction.KeyBackspace, KeyForName(fyne.KeyBackspace))
	assert.Equal(t, interaction.KeyOther, KeyForName(fyne.KeyV))
}

func TestCursorFor(t *testing.T) {
	tests := []struct {
		in   interaction.Cursor
		want desktop.Cursor
	}{
		{interaction.CursorDefault, desktop.DefaultCursor},
		{interaction.CursorPointer, desktop.PointerCursor},
		{interaction.CursorCrosshair, desktop.CrosshairCursor},
		{interaction.CursorResizeH, desktop.HResizeCursor},
		{interaction.CursorResizeV, desktop.VResizeCursor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cursorFor(tt.in))
	}
}
