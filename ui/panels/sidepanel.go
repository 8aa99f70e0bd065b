// Package panels provides UI panels for the application.
package panels

import (
	"blueprint-review/internal/app"
	"blueprint-review/internal/job"
	"blueprint-review/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	// Tab content
	jobsPanel        *JobsPanel
	annotationsPanel *AnnotationsPanel

	jobsTab     *container.TabItem
	findingsTab *container.TabItem
}

// NewSidePanel creates a new side panel. onOpen is called when a job is
// opened from the job list.
func NewSidePanel(state *app.State, cvs *canvas.OverlayCanvas, onOpen func(job.Job)) *SidePanel {
	sp := &SidePanel{
		state: state,
	}

	sp.jobsPanel = NewJobsPanel(state, onOpen)
	sp.annotationsPanel = NewAnnotationsPanel(state, cvs)

	sp.jobsTab = container.NewTabItem("Jobs", sp.jobsPanel.Container())
	sp.findingsTab = container.NewTabItem("Findings", sp.annotationsPanel.Container())
	sp.container = container.NewAppTabs(sp.jobsTab, sp.findingsTab)

	state.On(app.EventJobOpened, func(_ interface{}) { sp.ShowFindings() })

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.jobsPanel.SetWindow(w)
	sp.annotationsPanel.SetWindow(w)
}

// ShowJobs switches to the job list.
func (sp *SidePanel) ShowJobs() {
	sp.container.Select(sp.jobsTab)
}

// ShowFindings switches to the findings of the open job.
func (sp *SidePanel) ShowFindings() {
	sp.container.Select(sp.findingsTab)
}

// Jobs returns the job list panel.
func (sp *SidePanel) Jobs() *JobsPanel {
	return sp.jobsPanel
}

// Findings returns the findings panel.
func (sp *SidePanel) Findings() *AnnotationsPanel {
	return sp.annotationsPanel
}
