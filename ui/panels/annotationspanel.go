package panels

import (
	"fmt"

	"blueprint-review/internal/annotation"
	"blueprint-review/internal/app"
	"blueprint-review/ui/canvas"
	"blueprint-review/ui/dialogs"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// AnnotationsPanel lists the open job's findings as cards, with filters and
// the review actions for the selected card.
type AnnotationsPanel struct {
	state     *app.State
	canvas    *canvas.OverlayCanvas
	window    fyne.Window
	container fyne.CanvasObject

	items []annotation.Annotation
	list  *widget.List

	summaryLabel    *widget.Label
	scopeLabel      *widget.Label
	judgmentChecks  *widget.CheckGroup
	elementChecks   *widget.CheckGroup
	actionChecks    *widget.CheckGroup
	confidence      *widget.Slider
	confidenceLabel *widget.Label
	showAllCheck    *widget.Check

	// Selected card
	titleLabel   *widget.Label
	aiComment    *widget.Label
	confirmBtn   *widget.Button
	needsFixBtn  *widget.Button
	revertBtn    *widget.Button
	detailsBtn   *widget.Button
	commentEntry *widget.Entry
	commentBtn   *widget.Button

	// syncing is set while the list follows a selection made elsewhere.
	syncing bool
	// detailID is the annotation the detail section shows. The comment
	// entry is reloaded only when it changes, so typing survives review
	// actions on the same card.
	detailID string
}

// NewAnnotationsPanel creates the findings panel.
func NewAnnotationsPanel(state *app.State, cvs *canvas.OverlayCanvas) *AnnotationsPanel {
	ap := &AnnotationsPanel{
		state:  state,
		canvas: cvs,
	}

	ap.summaryLabel = widget.NewLabel("No job open")
	ap.scopeLabel = widget.NewLabel("")
	ap.scopeLabel.Wrapping = fyne.TextWrapWord
	ap.scopeLabel.Hide()

	// Filters
	ap.judgmentChecks = widget.NewCheckGroup(judgmentOptions, func([]string) { ap.applyFilter() })
	ap.judgmentChecks.Horizontal = true
	ap.elementChecks = widget.NewCheckGroup(elementOptions, func([]string) { ap.applyFilter() })
	ap.elementChecks.Horizontal = true
	ap.actionChecks = widget.NewCheckGroup(actionOptions, func([]string) { ap.applyFilter() })
	ap.actionChecks.Horizontal = true

	ap.confidenceLabel = widget.NewLabel("Min confidence: 0%")
	ap.confidence = widget.NewSlider(0, 1)
	ap.confidence.Step = 0.05
	ap.confidence.OnChanged = func(v float64) {
		ap.confidenceLabel.SetText(fmt.Sprintf("Min confidence: %.0f%%", v*100))
	}
	ap.confidence.OnChangeEnded = func(float64) { ap.applyFilter() }

	ap.showAllCheck = widget.NewCheck("Show all shapes", func(on bool) {
		state.SetShowAll(on)
	})
	ap.showAllCheck.SetChecked(true)

	filters := widget.NewAccordion(
		widget.NewAccordionItem("Filters", container.NewVBox(
			widget.NewLabel("Judgment"),
			ap.judgmentChecks,
			widget.NewLabel("Element"),
			ap.elementChecks,
			widget.NewLabel("Review"),
			ap.actionChecks,
			ap.confidenceLabel,
			ap.confidence,
		)),
	)

	// Card list
	ap.list = widget.NewList(
		func() int { return len(ap.items) },
		func() fyne.CanvasObject {
			swatch := fynecanvas.NewRectangle(annotation.DefaultColor)
			swatch.SetMinSize(fyne.NewSize(6, 32))
			title := widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
			detail := widget.NewLabel("")
			return container.NewBorder(nil, nil, swatch, nil, container.NewVBox(title, detail))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(ap.items) {
				return
			}
			a := ap.items[id]
			row := obj.(*fyne.Container)
			body := row.Objects[0].(*fyne.Container)
			swatch := row.Objects[1].(*fynecanvas.Rectangle)
			body.Objects[0].(*widget.Label).SetText(cardTitle(a))
			body.Objects[1].(*widget.Label).SetText(cardDetail(a))
			swatch.FillColor = annotation.StrokeColor(a)
			swatch.Refresh()
		},
	)
	ap.list.OnSelected = func(id widget.ListItemID) {
		if id < 0 || id >= len(ap.items) {
			return
		}
		a := ap.items[id]
		state.Select(a.ID)
		if !ap.syncing {
			ap.canvas.FocusAnnotation(a)
		}
	}

	// Selected card actions
	ap.titleLabel = widget.NewLabelWithStyle("Nothing selected", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	ap.aiComment = widget.NewLabel("")
	ap.aiComment.Wrapping = fyne.TextWrapWord
	ap.confirmBtn = widget.NewButton("Confirm", func() { ap.setAction(annotation.ActionConfirmed) })
	ap.confirmBtn.Importance = widget.SuccessImportance
	ap.needsFixBtn = widget.NewButton("Needs Fix", func() { ap.setAction(annotation.ActionNeedsFix) })
	ap.needsFixBtn.Importance = widget.WarningImportance
	ap.revertBtn = widget.NewButton("Revert", ap.revert)
	ap.detailsBtn = widget.NewButton("Details...", ap.showDetails)
	ap.commentEntry = widget.NewMultiLineEntry()
	ap.commentEntry.SetPlaceHolder("Reviewer comment")
	ap.commentEntry.SetMinRowsVisible(2)
	ap.commentBtn = widget.NewButton("Save Comment", ap.saveComment)

	detail := container.NewVBox(
		widget.NewSeparator(),
		ap.titleLabel,
		ap.aiComment,
		container.NewGridWithColumns(2, ap.confirmBtn, ap.needsFixBtn),
		ap.commentEntry,
		container.NewGridWithColumns(3, ap.commentBtn, ap.revertBtn, ap.detailsBtn),
	)

	top := container.NewVBox(ap.summaryLabel, ap.scopeLabel, ap.showAllCheck, filters)
	ap.container = container.NewBorder(top, detail, nil, nil, ap.list)

	state.On(app.EventJobOpened, func(_ interface{}) { ap.resetFilters(); ap.Refresh() })
	state.On(app.EventJobClosed, func(_ interface{}) { ap.Refresh() })
	state.On(app.EventAnnotationsChanged, func(_ interface{}) { ap.Refresh() })
	state.On(app.EventFilterChanged, func(_ interface{}) { ap.Refresh() })
	state.On(app.EventSelectionBoxChanged, func(_ interface{}) { ap.Refresh() })
	state.On(app.EventReviewSaved, func(_ interface{}) { ap.Refresh() })
	state.On(app.EventSelectionChanged, func(_ interface{}) { ap.syncSelection() })

	ap.updateDetail()
	return ap
}

// Container returns the panel container.
func (ap *AnnotationsPanel) Container() fyne.CanvasObject {
	return ap.container
}

// SetWindow sets the parent window for dialogs.
func (ap *AnnotationsPanel) SetWindow(w fyne.Window) {
	ap.window = w
}

// Refresh reloads the cards from the session.
func (ap *AnnotationsPanel) Refresh() {
	ap.items = ap.state.InScope()
	ap.list.Refresh()

	if _, ok := ap.state.Job(); !ok {
		ap.summaryLabel.SetText("No job open")
	} else {
		ap.summaryLabel.SetText(countsSummary(ap.items))
	}
	if ap.state.ScanMode() {
		box := ap.state.SelectionBox()
		ap.scopeLabel.SetText(fmt.Sprintf("Scan region %.0f x %.0f at (%.0f, %.0f)", box.Width, box.Height, box.X, box.Y))
		ap.scopeLabel.Show()
	} else {
		ap.scopeLabel.Hide()
	}
	ap.showAllCheck.SetChecked(ap.state.ShowAll())
	ap.syncSelection()
}

func (ap *AnnotationsPanel) resetFilters() {
	ap.judgmentChecks.SetSelected(nil)
	ap.elementChecks.SetSelected(nil)
	ap.actionChecks.SetSelected(nil)
	ap.confidence.SetValue(0)
}

func (ap *AnnotationsPanel) applyFilter() {
	f := filterFromSelections(ap.judgmentChecks.Selected, ap.elementChecks.Selected, ap.actionChecks.Selected, ap.confidence.Value)
	ap.state.SetFilter(f)
}

// syncSelection follows the session's selection without zooming the canvas.
func (ap *AnnotationsPanel) syncSelection() {
	ap.syncing = true
	defer func() { ap.syncing = false }()

	id := ap.state.SelectedID()
	idx := -1
	for i, a := range ap.items {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx >= 0 {
		ap.list.Select(idx)
		ap.list.ScrollTo(idx)
	} else {
		ap.list.UnselectAll()
	}
	ap.updateDetail()
}

func (ap *AnnotationsPanel) updateDetail() {
	a, ok := ap.state.Selected()
	buttons := []*widget.Button{ap.confirmBtn, ap.needsFixBtn, ap.revertBtn, ap.detailsBtn, ap.commentBtn}
	if !ok {
		ap.detailID = ""
		ap.titleLabel.SetText("Nothing selected")
		ap.aiComment.SetText("")
		ap.commentEntry.SetText("")
		ap.commentEntry.Disable()
		for _, b := range buttons {
			b.Disable()
		}
		return
	}
	ap.titleLabel.SetText(cardTitle(a))
	ap.aiComment.SetText(a.AIComment)
	if a.ID != ap.detailID {
		ap.detailID = a.ID
		ap.commentEntry.SetText(a.UserComment)
	}
	ap.commentEntry.Enable()
	for _, b := range buttons {
		b.Enable()
	}
}

func (ap *AnnotationsPanel) setAction(action annotation.UserAction) {
	id := ap.state.SelectedID()
	if id == "" {
		return
	}
	ap.report(ap.state.SetUserAction(id, action))
}

func (ap *AnnotationsPanel) saveComment() {
	id := ap.state.SelectedID()
	if id == "" {
		return
	}
	ap.report(ap.state.SetComment(id, ap.commentEntry.Text))
}

func (ap *AnnotationsPanel) revert() {
	id := ap.state.SelectedID()
	if id == "" {
		return
	}
	if err := ap.state.Revert(id); err != nil {
		ap.report(err)
		return
	}
	if a, ok := ap.state.Annotations.Get(id); ok {
		ap.commentEntry.SetText(a.UserComment)
	}
}

func (ap *AnnotationsPanel) showDetails() {
	a, ok := ap.state.Selected()
	if !ok || ap.window == nil {
		return
	}
	dialogs.NewAnnotationDialog(a, ap.window, ap.state.Editable(),
		func(r dialogs.Review) {
			ap.report(ap.state.UpdateAnnotation(a.ID, annotation.Patch{UserAction: &r.Action, UserComment: &r.Comment}))
		},
		func() { ap.report(ap.state.Revert(a.ID)) },
		func() { ap.report(ap.state.DeleteAnnotation(a.ID)) },
	).Show()
}

func (ap *AnnotationsPanel) report(err error) {
	if err == nil {
		return
	}
	if ap.window != nil {
		dialog.ShowError(err, ap.window)
	}
}
