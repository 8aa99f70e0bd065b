package dialogs

import (
	"fmt"

	"blueprint-review/internal/annotation"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// Review dispositions as shown in the action radio group.
var actionChoices = []string{"Unconfirmed", "Confirmed", "Needs fix"}

var actionValues = map[string]annotation.UserAction{
	"Unconfirmed": annotation.ActionUnconfirmed,
	"Confirmed":   annotation.ActionConfirmed,
	"Needs fix":   annotation.ActionNeedsFix,
}

// Review is the reviewer's input from the annotation dialog.
type Review struct {
	Action  annotation.UserAction
	Comment string
}

// AnnotationDialog shows one finding and lets the reviewer record a
// disposition and comment.
type AnnotationDialog struct {
	ann      annotation.Annotation
	window   fyne.Window
	editable bool

	actionGroup  *widget.RadioGroup
	commentEntry *widget.Entry

	// Callbacks
	onSave   func(Review)
	onRevert func()
	onDelete func()
}

// NewAnnotationDialog creates a finding dialog. Delete is offered only when
// editable is set.
func NewAnnotationDialog(ann annotation.Annotation, window fyne.Window, editable bool,
	onSave func(Review), onRevert func(), onDelete func()) *AnnotationDialog {
	return &AnnotationDialog{
		ann:      ann,
		window:   window,
		editable: editable,
		onSave:   onSave,
		onRevert: onRevert,
		onDelete: onDelete,
	}
}

// Show displays the dialog.
func (d *AnnotationDialog) Show() {
	content := d.createContent()

	var dlg dialog.Dialog

	saveBtn := widget.NewButton("Save", func() {
		if d.onSave != nil {
			d.onSave(d.review())
		}
		dlg.Hide()
	})
	saveBtn.Importance = widget.HighImportance

	cancelBtn := widget.NewButton("Cancel", func() {
		dlg.Hide()
	})

	revertBtn := widget.NewButton("Revert", func() {
		if d.onRevert != nil {
			d.onRevert()
		}
		dlg.Hide()
	})

	left := container.NewHBox(revertBtn)
	if d.editable {
		deleteBtn := widget.NewButton("Delete", func() {
			dialog.ShowConfirm("Delete Finding",
				fmt.Sprintf("Delete finding %s?", d.ann.ID),
				func(confirmed bool) {
					if confirmed {
						if d.onDelete != nil {
							d.onDelete()
						}
						dlg.Hide()
					}
				}, d.window)
		})
		deleteBtn.Importance = widget.DangerImportance
		left.Add(deleteBtn)
	}

	buttons := container.NewBorder(nil, nil, left, container.NewHBox(cancelBtn, saveBtn))
	dlg = dialog.NewCustomWithoutButtons("Finding: "+d.ann.ID, container.NewBorder(nil, buttons, nil, nil, content), d.window)
	dlg.Resize(fyne.NewSize(480, 520))
	dlg.Show()
}

func (d *AnnotationDialog) createContent() fyne.CanvasObject {
	a := d.ann

	info := widget.NewForm(
		widget.NewFormItem("Label", widget.NewLabel(orDash(a.Label))),
		widget.NewFormItem("Judgment", widget.NewLabel(orDash(a.Judgment.String()))),
		widget.NewFormItem("Element", widget.NewLabel(orDash(a.ElementType.String()))),
		widget.NewFormItem("Confidence", widget.NewLabel(fmt.Sprintf("%.0f%%", a.Confidence*100))),
		widget.NewFormItem("Vertices", widget.NewLabel(fmt.Sprintf("%d (%s)", len(a.Polygon), a.Kind()))),
	)

	aiComment := widget.NewLabel(orDash(a.AIComment))
	aiComment.Wrapping = fyne.TextWrapWord

	d.actionGroup = widget.NewRadioGroup(actionChoices, nil)
	d.actionGroup.Horizontal = true
	d.actionGroup.Required = true
	d.actionGroup.SetSelected(actionChoices[a.UserAction])

	d.commentEntry = widget.NewMultiLineEntry()
	d.commentEntry.SetText(a.UserComment)
	d.commentEntry.SetPlaceHolder("Reviewer comment")
	d.commentEntry.SetMinRowsVisible(4)

	return container.NewVBox(
		info,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("AI Comment", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		aiComment,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Review", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		d.actionGroup,
		d.commentEntry,
	)
}

func (d *AnnotationDialog) review() Review {
	return Review{
		Action:  actionValues[d.actionGroup.Selected],
		Comment: d.commentEntry.Text,
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
