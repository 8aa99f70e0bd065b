// Package dialogs provides application dialogs.
package dialogs

import (
	"errors"
	"fmt"
	"strings"

	bpimage "blueprint-review/internal/image"
	"blueprint-review/internal/job"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// NewJobDialog collects the fields of a new analysis job.
type NewJobDialog struct {
	window fyne.Window

	nameEntry  *widget.Entry
	typeSelect *widget.Select
	imageEntry *widget.Entry
	queryEntry *widget.Entry

	// onCreate returns an error to keep the dialog open.
	onCreate func(job.NewJob) error
}

// NewNewJobDialog creates a job creation dialog.
func NewNewJobDialog(window fyne.Window, onCreate func(job.NewJob) error) *NewJobDialog {
	return &NewJobDialog{
		window:   window,
		onCreate: onCreate,
	}
}

// Show displays the dialog.
func (d *NewJobDialog) Show() {
	content := d.createContent()

	var dlg dialog.Dialog

	createBtn := widget.NewButton("Create", func() {
		n, err := d.values()
		if err == nil && d.onCreate != nil {
			err = d.onCreate(n)
		}
		if err != nil {
			dialog.ShowError(err, d.window)
			return
		}
		dlg.Hide()
	})
	createBtn.Importance = widget.HighImportance

	cancelBtn := widget.NewButton("Cancel", func() {
		dlg.Hide()
	})

	buttons := container.NewHBox(container.NewHBox(), cancelBtn, createBtn)
	dlg = dialog.NewCustomWithoutButtons("New Job", container.NewBorder(nil, buttons, nil, nil, content), d.window)
	dlg.Resize(fyne.NewSize(520, 320))
	dlg.Show()
}

func (d *NewJobDialog) createContent() fyne.CanvasObject {
	d.nameEntry = widget.NewEntry()
	d.nameEntry.SetPlaceHolder("e.g., Level 2 floor plan")

	labels := make([]string, len(job.Types))
	for i, t := range job.Types {
		labels[i] = t.Label()
	}
	d.queryEntry = widget.NewEntry()
	d.queryEntry.SetPlaceHolder("Text or symbol to find")
	d.queryEntry.Disable()
	d.typeSelect = widget.NewSelect(labels, func(label string) {
		if label == job.TypeSearch.Label() {
			d.queryEntry.Enable()
		} else {
			d.queryEntry.Disable()
		}
	})
	d.typeSelect.SetSelected(job.TypeInspection.Label())

	d.imageEntry = widget.NewEntry()
	d.imageEntry.SetPlaceHolder("Path or file:// URL")
	browseBtn := widget.NewButton("Browse...", d.browse)

	return widget.NewForm(
		widget.NewFormItem("Name", d.nameEntry),
		widget.NewFormItem("Type", d.typeSelect),
		widget.NewFormItem("Drawing", container.NewBorder(nil, nil, nil, browseBtn, d.imageEntry)),
		widget.NewFormItem("Query", d.queryEntry),
	)
}

func (d *NewJobDialog) browse() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		d.imageEntry.SetText(reader.URI().String())
	}, d.window)
	fd.SetFilter(storage.NewExtensionFileFilter(bpimage.SupportedFormats()))
	fd.Show()
}

// values reads the form. Field rules are enforced by the job store.
func (d *NewJobDialog) values() (job.NewJob, error) {
	var t job.Type
	for _, known := range job.Types {
		if known.Label() == d.typeSelect.Selected {
			t = known
		}
	}
	if t == "" {
		return job.NewJob{}, errors.New("choose a job type")
	}
	n := job.NewJob{
		Name:     strings.TrimSpace(d.nameEntry.Text),
		Type:     t,
		ImageURL: strings.TrimSpace(d.imageEntry.Text),
	}
	if t == job.TypeSearch {
		n.Query = strings.TrimSpace(d.queryEntry.Text)
	}
	if n.ImageURL != "" && !bpimage.IsSupportedFormat(n.ImageURL) {
		return job.NewJob{}, fmt.Errorf("unsupported drawing format: %s", n.ImageURL)
	}
	return n, nil
}
