package panels

import (
	"errors"
	"fmt"

	"blueprint-review/internal/app"
	"blueprint-review/internal/job"
	"blueprint-review/pkg/log"
	"blueprint-review/ui/dialogs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// JobsPanel lists analysis jobs and drives the mock pipeline.
type JobsPanel struct {
	state     *app.State
	window    fyne.Window
	container fyne.CanvasObject

	jobs     []job.Job
	selected int
	list     *widget.List

	searchEntry  *widget.Entry
	typeSelect   *widget.Select
	statusSelect *widget.Select

	openBtn    *widget.Button
	advanceBtn *widget.Button
	failBtn    *widget.Button

	onOpen func(job.Job)
}

// NewJobsPanel creates the job list. onOpen is called when the user opens a job.
func NewJobsPanel(state *app.State, onOpen func(job.Job)) *JobsPanel {
	jp := &JobsPanel{
		state:    state,
		selected: -1,
		onOpen:   onOpen,
	}

	jp.searchEntry = widget.NewEntry()
	jp.searchEntry.SetPlaceHolder("Search jobs")
	jp.searchEntry.OnChanged = func(string) { jp.Refresh() }

	jp.typeSelect = widget.NewSelect(typeOptions(true), nil)
	jp.typeSelect.SetSelected(allOption)
	jp.typeSelect.OnChanged = func(string) { jp.Refresh() }
	jp.statusSelect = widget.NewSelect(statusOptions, nil)
	jp.statusSelect.SetSelected(allOption)
	jp.statusSelect.OnChanged = func(string) { jp.Refresh() }

	jp.list = widget.NewList(
		func() int { return len(jp.jobs) },
		func() fyne.CanvasObject {
			name := widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
			meta := widget.NewLabel("")
			return container.NewVBox(name, meta)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(jp.jobs) {
				return
			}
			j := jp.jobs[id]
			box := obj.(*fyne.Container)
			box.Objects[0].(*widget.Label).SetText(j.Name)
			box.Objects[1].(*widget.Label).SetText(fmt.Sprintf("%s | %s | %s", j.Type.Label(), jobStatusText(j), j.CreatedAt.Format("2006-01-02 15:04")))
		},
	)
	jp.list.OnSelected = func(id widget.ListItemID) {
		jp.selected = id
		jp.updateButtons()
	}
	jp.list.OnUnselected = func(widget.ListItemID) {
		jp.selected = -1
		jp.updateButtons()
	}

	newBtn := widget.NewButton("New Job...", jp.showNewJob)
	newBtn.Importance = widget.HighImportance
	jp.openBtn = widget.NewButton("Open", jp.openSelected)
	jp.advanceBtn = widget.NewButton("Advance", jp.advanceSelected)
	jp.failBtn = widget.NewButton("Fail...", jp.failSelected)
	jp.failBtn.Importance = widget.DangerImportance

	top := container.NewVBox(
		jp.searchEntry,
		container.NewGridWithColumns(2, jp.typeSelect, jp.statusSelect),
	)
	bottom := container.NewVBox(
		newBtn,
		container.NewGridWithColumns(3, jp.openBtn, jp.advanceBtn, jp.failBtn),
	)
	jp.container = container.NewBorder(top, bottom, nil, nil, jp.list)

	state.On(app.EventJobsChanged, func(_ interface{}) { jp.Refresh() })

	jp.Refresh()
	return jp
}

// Container returns the panel container.
func (jp *JobsPanel) Container() fyne.CanvasObject {
	return jp.container
}

// SetWindow sets the parent window for dialogs.
func (jp *JobsPanel) SetWindow(w fyne.Window) {
	jp.window = w
}

// Filter returns the list filter from the search and select widgets.
func (jp *JobsPanel) Filter() job.Filter {
	return job.Filter{
		Type:   typeForLabel(jp.typeSelect.Selected),
		Status: statusForLabel(jp.statusSelect.Selected),
		Query:  jp.searchEntry.Text,
	}
}

// Refresh reloads the job list, keeping the selection when it is still listed.
func (jp *JobsPanel) Refresh() {
	var keep string
	if j, ok := jp.selectedJob(); ok {
		keep = j.ID
	}

	jp.jobs = jp.state.Jobs.List(jp.Filter())
	jp.selected = -1
	jp.list.UnselectAll()
	jp.list.Refresh()
	for i, j := range jp.jobs {
		if j.ID == keep {
			jp.list.Select(i)
			break
		}
	}
	jp.updateButtons()
}

func (jp *JobsPanel) selectedJob() (job.Job, bool) {
	if jp.selected < 0 || jp.selected >= len(jp.jobs) {
		return job.Job{}, false
	}
	return jp.jobs[jp.selected], true
}

func (jp *JobsPanel) updateButtons() {
	j, ok := jp.selectedJob()
	setEnabled(jp.openBtn, ok)
	setEnabled(jp.advanceBtn, ok && !j.Status.Finished())
	setEnabled(jp.failBtn, ok && !j.Status.Finished())
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

func (jp *JobsPanel) showNewJob() {
	if jp.window == nil {
		return
	}
	dialogs.NewNewJobDialog(jp.window, func(n job.NewJob) error {
		j, err := jp.state.Jobs.Create(n)
		if err != nil {
			return err
		}
		jp.state.Emit(app.EventJobsChanged, j)
		return nil
	}).Show()
}

func (jp *JobsPanel) openSelected() {
	j, ok := jp.selectedJob()
	if !ok || jp.onOpen == nil {
		return
	}
	jp.onOpen(j)
}

func (jp *JobsPanel) advanceSelected() {
	j, ok := jp.selectedJob()
	if !ok {
		return
	}
	updated, err := jp.state.Jobs.Advance(j.ID)
	if err != nil {
		jp.report(err)
		return
	}
	jp.state.Emit(app.EventJobsChanged, updated)
}

func (jp *JobsPanel) failSelected() {
	j, ok := jp.selectedJob()
	if !ok || jp.window == nil {
		return
	}
	reason := widget.NewEntry()
	reason.SetPlaceHolder("Reason")
	dialog.ShowForm("Fail Job: "+j.Name, "Fail", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Reason", reason)},
		func(confirmed bool) {
			if !confirmed {
				return
			}
			updated, err := jp.state.Jobs.Fail(j.ID, reason.Text)
			if err != nil {
				jp.report(err)
				return
			}
			jp.state.Emit(app.EventJobsChanged, updated)
		}, jp.window)
}

func (jp *JobsPanel) report(err error) {
	if errors.Is(err, job.ErrFinished) {
		log.Warn(log.Fields{"error": err.Error()}, "Jobs: job already finished")
	}
	if jp.window != nil {
		dialog.ShowError(err, jp.window)
	}
}
