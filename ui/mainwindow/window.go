// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"blueprint-review/internal/app"
	"blueprint-review/internal/config"
	bpimage "blueprint-review/internal/image"
	"blueprint-review/internal/interaction"
	"blueprint-review/internal/job"
	"blueprint-review/internal/version"
	"blueprint-review/pkg/log"
	"blueprint-review/ui/canvas"
	"blueprint-review/ui/panels"
	"blueprint-review/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyLastDir   = "lastDirectory"
	prefKeyLastJob   = "lastJob"
	prefKeySplit     = "sidePanelOffset"
	prefKeyWinWidth  = "windowWidth"
	prefKeyWinHeight = "windowHeight"
)

const title = "Blueprint Review"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.OverlayCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	zoomLabel *widget.Label
	split     *container.Split

	toolButtons map[interaction.Tool]*widget.Button
	saveButton  *widget.Button

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, cfg *config.Config, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(title)

	ctx, cancel := context.WithCancel(context.Background())
	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
		ctx:    ctx,
		cancel: cancel,
	}

	mw.setupUI(cfg)
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()

	mw.Resize(fyne.NewSize(
		float32(p.FloatWithFallback(prefKeyWinWidth, 1280)),
		float32(p.FloatWithFallback(prefKeyWinHeight, 820)),
	))
	mw.SetCloseIntercept(mw.onClose)

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI(cfg *config.Config) {
	mw.canvas = canvas.NewOverlayCanvas(cfg.ViewportLimits(), cfg.InteractionOptions(), cfg.RenderStyle(), nil)

	cb := mw.state.OverlayCallbacks()
	cb.OnToolChange = func(interaction.Tool) { mw.updateToolButtons() }
	mw.canvas.SetCallbacks(cb)
	mw.canvas.OnImageChange(mw.onImageChange)

	mw.zoomLabel = widget.NewLabel("100%")
	mw.canvas.OnViewChange(func(scale float64) {
		mw.zoomLabel.SetText(fmt.Sprintf("%.0f%%", scale*100))
	})

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas, func(j job.Job) { mw.openJob(j.ID) })
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,   // top
		nil,       // bottom
		nil,       // left
		nil,       // right
		mw.canvas, // center
	)

	mw.split = container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	mw.split.SetOffset(mw.prefs.FloatWithFallback(prefKeySplit, 0.28))

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.split,                          // center
	)

	mw.SetContent(content)
	mw.updateToolButtons()
}

// createToolbar creates the toolbar with tool and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	mw.toolButtons = make(map[interaction.Tool]*widget.Button)
	tools := []struct {
		tool  interaction.Tool
		label string
	}{
		{interaction.ToolSelect, "Select (V)"},
		{interaction.ToolPan, "Pan (H)"},
		{interaction.ToolRectangle, "Rectangle (R)"},
		{interaction.ToolPolygon, "Polygon (P)"},
	}
	toolBox := container.NewHBox(widget.NewLabel("Tool:"))
	for _, t := range tools {
		tool := t.tool
		btn := widget.NewButton(t.label, func() { mw.onSelectTool(tool) })
		mw.toolButtons[tool] = btn
		toolBox.Add(btn)
	}

	zoomOutBtn := widget.NewButton("-", mw.canvas.ZoomOut)
	zoomInBtn := widget.NewButton("+", mw.canvas.ZoomIn)
	fitBtn := widget.NewButton("Fit", mw.canvas.FitToWindow)

	mw.saveButton = widget.NewButton("Save Review", mw.onSave)
	mw.saveButton.Importance = widget.HighImportance
	mw.saveButton.Disable()

	return container.NewHBox(
		toolBox,
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
		mw.zoomLabel,
		widget.NewSeparator(),
		mw.saveButton,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Jobs", mw.sidePanel.ShowJobs),
		fyne.NewMenuItem("Close Job", mw.onCloseJob),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Review", mw.onSave),
		fyne.NewMenuItem("Export View as PNG...", mw.onExportView),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Delete Selected Shape", func() { mw.canvas.HandleKey(interaction.KeyDelete, false) }),
		fyne.NewMenuItem("Cancel Drawing", func() { mw.canvas.HandleKey(interaction.KeyEscape, false) }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.canvas.FitToWindow),
		fyne.NewMenuItem("Zoom to Selection", mw.onZoomToSelection),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Toggle All Shapes", func() { mw.state.SetShowAll(!mw.state.ShowAll()) }),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Select", func() { mw.onSelectTool(interaction.ToolSelect) }),
		fyne.NewMenuItem("Pan", func() { mw.onSelectTool(interaction.ToolPan) }),
		fyne.NewMenuItem("Rectangle", func() { mw.onSelectTool(interaction.ToolRectangle) }),
		fyne.NewMenuItem("Polygon", func() { mw.onSelectTool(interaction.ToolPolygon) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, toolsMenu, helpMenu))
}

// setupShortcuts routes keys typed while no widget has focus to the overlay.
// A focused text entry receives its own keys, so shortcuts never fire while
// the user is typing.
func (mw *MainWindow) setupShortcuts() {
	mw.Canvas().SetOnTypedRune(func(r rune) {
		if k := interaction.KeyForRune(r); k != interaction.KeyOther {
			mw.canvas.HandleKey(k, false)
		}
	})
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if k := canvas.KeyForName(ev.Name); k != interaction.KeyOther {
			mw.canvas.HandleKey(k, false)
		}
	})
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventJobOpened, func(data interface{}) {
		j, ok := data.(job.Job)
		if !ok {
			return
		}
		mw.SetTitle(title + " - " + j.Name)
		mw.saveButton.Disable()
		mw.prefs.SetString(prefKeyLastJob, j.ID)
		mw.syncOverlay()
		mw.updateToolButtons()
		mw.canvas.LoadImage(mw.ctx, j.ImageURL)

		mode := "editable"
		switch {
		case j.ScanMode():
			mode = "scan region"
		case !j.Editable():
			mode = "read-only"
		}
		mw.updateStatus(fmt.Sprintf("Opened %s (%s, %s)", j.Name, j.Type.Label(), mode))
	})

	mw.state.On(app.EventJobClosed, func(interface{}) {
		mw.SetTitle(title)
		mw.saveButton.Disable()
		mw.canvas.LoadImage(mw.ctx, "")
		mw.syncOverlay()
		mw.updateToolButtons()
		mw.updateStatus("Ready")
	})

	sync := func(interface{}) { mw.syncOverlay() }
	mw.state.On(app.EventAnnotationsChanged, sync)
	mw.state.On(app.EventSelectionChanged, sync)
	mw.state.On(app.EventFilterChanged, sync)
	mw.state.On(app.EventSelectionBoxChanged, sync)

	mw.state.On(app.EventModified, func(data interface{}) {
		modified, _ := data.(bool)
		t := title
		if j, ok := mw.state.Job(); ok {
			t += " - " + j.Name
		}
		if modified {
			t += " *"
			mw.saveButton.Enable()
		} else {
			mw.saveButton.Disable()
		}
		mw.SetTitle(t)
	})

	mw.state.On(app.EventReviewSaved, func(interface{}) {
		mw.updateStatus("Review saved")
	})
}

// syncOverlay pushes the session's current view of the job into the overlay.
func (mw *MainWindow) syncOverlay() {
	mw.canvas.SetProps(mw.state.OverlayProps())
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// updateToolButtons highlights the active tool and disables drawing tools
// on read-only jobs.
func (mw *MainWindow) updateToolButtons() {
	active := mw.canvas.Tool()
	editable := mw.state.Editable()
	for tool, btn := range mw.toolButtons {
		if tool == active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		if tool.Draws() && !editable {
			btn.Disable()
		} else {
			btn.Enable()
		}
		btn.Refresh()
	}
}

func (mw *MainWindow) onImageChange(snap bpimage.Snapshot) {
	switch snap.State {
	case bpimage.StateLoading:
		mw.updateStatus("Loading drawing " + snap.URL + "...")
	case bpimage.StateLoaded:
		mw.state.SetImageSize(snap.Doc.Size())
		mw.updateStatus(fmt.Sprintf("Loaded %s (%dx%d)", filepath.Base(snap.Doc.Path), snap.Doc.Width(), snap.Doc.Height()))
	case bpimage.StateFailed:
		mw.updateStatus("Failed to load drawing: " + snap.Err.Error())
	}
}

// RestoreLastJob reopens the job from the previous session, if any.
func (mw *MainWindow) RestoreLastJob() {
	id := mw.prefs.String(prefKeyLastJob)
	if id == "" {
		return
	}
	if err := mw.state.OpenJob(id); err != nil {
		log.Info(log.Fields{"job": id, "error": err.Error()}, "Main window: last job not restored")
	}
}

// OpenJob opens a job by id and shows an error dialog on failure.
func (mw *MainWindow) OpenJob(id string) {
	mw.openJob(id)
}

func (mw *MainWindow) openJob(id string) {
	if cur, ok := mw.state.Job(); ok && cur.ID == id {
		mw.sidePanel.ShowFindings()
		return
	}
	open := func() {
		if err := mw.state.OpenJob(id); err != nil {
			if errors.Is(err, job.ErrNotReady) {
				err = fmt.Errorf("job is not finished yet: %w", err)
			}
			dialog.ShowError(err, mw.Window)
		}
	}
	if mw.state.Modified() {
		dialog.ShowConfirm("Unsaved Review",
			"Discard unsaved changes to the current job?",
			func(discard bool) {
				if discard {
					open()
				}
			}, mw.Window)
		return
	}
	open()
}

// Menu action handlers

func (mw *MainWindow) onSelectTool(t interaction.Tool) {
	if !mw.canvas.SetTool(t) {
		mw.updateStatus("Drawing tools are unavailable for this job")
	}
	mw.updateToolButtons()
}

func (mw *MainWindow) onSave() {
	if err := mw.state.Save(); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onCloseJob() {
	if _, ok := mw.state.Job(); !ok {
		return
	}
	if !mw.state.Modified() {
		mw.state.CloseJob()
		return
	}
	dialog.ShowConfirm("Unsaved Review",
		"Discard unsaved changes to the current job?",
		func(discard bool) {
			if discard {
				mw.state.CloseJob()
			}
		}, mw.Window)
}

func (mw *MainWindow) onZoomToSelection() {
	a, ok := mw.state.Selected()
	if !ok {
		mw.updateStatus("Nothing selected")
		return
	}
	mw.canvas.ResetFocus()
	mw.canvas.FocusAnnotation(a)
}

func (mw *MainWindow) onExportView() {
	img := mw.canvas.RenderView()
	if img == nil {
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		if err := png.Encode(writer, img); err != nil {
			dialog.ShowError(fmt.Errorf("failed to write png: %w", err), mw.Window)
			return
		}
		mw.saveLastDir(writer.URI().Path())
		mw.updateStatus("Exported " + writer.URI().Name())
	}, mw.Window)
	fd.SetFileName("overlay.png")
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefKeyLastDir, filepath.Dir(filePath))
}

func (mw *MainWindow) onClose() {
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefKeyWinWidth, float64(size.Width))
	mw.prefs.SetFloat(prefKeyWinHeight, float64(size.Height))
	mw.prefs.SetFloat(prefKeySplit, mw.split.Offset)
	if err := mw.prefs.SaveIfChanged(); err != nil {
		log.Warn(log.Fields{"path": mw.prefs.Path(), "error": err.Error()}, "Main window: failed to save preferences")
	}
	mw.cancel()
	mw.Close()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+title,
		fmt.Sprintf("%s v%s\n\n"+
			"Review AI findings on construction drawings.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			title, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// ApplyConfig applies a reloaded configuration to the overlay.
func (mw *MainWindow) ApplyConfig(cfg *config.Config) {
	mw.canvas.SetLimits(cfg.ViewportLimits())
	mw.canvas.SetOptions(cfg.InteractionOptions())
	mw.canvas.SetStyle(cfg.RenderStyle())
	mw.state.SetScanMargin(cfg.ScanBox.Margin)
	log.SetLevel(cfg.Log.Level)
	log.Info(nil, "Main window: configuration reloaded")
}
