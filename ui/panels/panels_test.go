package panels

import (
	"testing"

	"blueprint-review/internal/annotation"
	"blueprint-review/internal/app"
	"blueprint-review/internal/interaction"
	"blueprint-review/internal/job"
	"blueprint-review/internal/render"
	"blueprint-review/internal/viewport"
	"blueprint-review/ui/canvas"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(t *testing.T) (*app.State, *job.Store) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	store, err := job.NewMockStore()
	require.NoError(t, err)
	return app.NewState(store), store
}

func TestJobsPanelFiltersAndOpens(t *testing.T) {
	state, _ := newState(t)

	var opened []string
	jp := NewJobsPanel(state, func(j job.Job) { opened = append(opened, j.ID) })
	require.Len(t, jp.jobs, 5)

	jp.typeSelect.SetSelected(job.TypeScan.Label())
	require.Len(t, jp.jobs, 1)
	assert.Equal(t, "job-scan-003", jp.jobs[0].ID)

	jp.list.Select(0)
	assert.False(t, jp.openBtn.Disabled())
	assert.True(t, jp.advanceBtn.Disabled(), "completed jobs cannot advance")

	jp.openSelected()
	assert.Equal(t, []string{"job-scan-003"}, opened)
}

func TestJobsPanelAdvance(t *testing.T) {
	state, store := newState(t)
	jp := NewJobsPanel(state, nil)

	jp.statusSelect.SetSelected(string(job.StatusQueued))
	require.Len(t, jp.jobs, 1)
	assert.Equal(t, "job-insp-005", jp.jobs[0].ID)

	jp.list.Select(0)
	jp.advanceSelected()

	j, err := store.Get("job-insp-005")
	require.NoError(t, err)
	assert.Equal(t, job.StatusProcessing, j.Status)
	assert.Empty(t, jp.jobs, "advanced job no longer matches the queued filter")
}

func newFindingsPanel(t *testing.T) (*AnnotationsPanel, *app.State) {
	t.Helper()
	state, _ := newState(t)
	cvs := canvas.NewOverlayCanvas(viewport.DefaultLimits(), interaction.DefaultOptions(), render.DefaultStyle(), nil)
	ap := NewAnnotationsPanel(state, cvs)
	require.NoError(t, state.OpenJob("job-insp-001"))
	return ap, state
}

func TestAnnotationsPanelListsFindings(t *testing.T) {
	ap, _ := newFindingsPanel(t)

	require.Len(t, ap.items, 5)
	assert.Equal(t, "5 findings: 2 OK, 1 NG, 2 WARNING", ap.summaryLabel.Text)
	assert.True(t, ap.confirmBtn.Disabled())
}

func TestAnnotationsPanelFilter(t *testing.T) {
	ap, _ := newFindingsPanel(t)

	ap.judgmentChecks.SetSelected([]string{"WARNING"})
	ap.applyFilter()

	require.Len(t, ap.items, 2)
	for _, a := range ap.items {
		assert.Equal(t, annotation.JudgmentWarning, a.Judgment)
	}
	assert.Equal(t, "2 findings: 2 WARNING", ap.summaryLabel.Text)
}

func TestAnnotationsPanelSelectionSync(t *testing.T) {
	ap, state := newFindingsPanel(t)

	state.Select("f-004")
	a, ok := state.Selected()
	require.True(t, ok)
	assert.Equal(t, cardTitle(a), ap.titleLabel.Text)
	assert.False(t, ap.confirmBtn.Disabled())

	ap.list.Select(0)
	assert.Equal(t, ap.items[0].ID, state.SelectedID())
}

func TestAnnotationsPanelReviewActions(t *testing.T) {
	ap, state := newFindingsPanel(t)

	state.Select("f-002")
	ap.setAction(annotation.ActionConfirmed)

	a, ok := state.Annotations.Get("f-002")
	require.True(t, ok)
	assert.Equal(t, annotation.ActionConfirmed, a.UserAction)
	assert.True(t, state.Modified())

	ap.commentEntry.SetText("checked on site")
	ap.saveComment()
	a, _ = state.Annotations.Get("f-002")
	assert.Equal(t, "checked on site", a.UserComment)

	ap.revert()
	a, _ = state.Annotations.Get("f-002")
	assert.Equal(t, annotation.ActionUnconfirmed, a.UserAction)
	assert.Empty(t, a.UserComment)
	assert.False(t, state.Modified())
}

func TestAnnotationsPanelKeepsTypedComment(t *testing.T) {
	ap, state := newFindingsPanel(t)

	state.Select("f-002")
	ap.commentEntry.SetText("draft note")
	ap.setAction(annotation.ActionNeedsFix)

	a, _ := state.Annotations.Get("f-002")
	assert.Equal(t, annotation.ActionNeedsFix, a.UserAction)
	assert.Equal(t, "draft note", ap.commentEntry.Text, "unsaved comment survives a review action")

	state.Select("f-001")
	a, _ = state.Annotations.Get("f-001")
	assert.Equal(t, a.UserComment, ap.commentEntry.Text, "selecting another card loads its comment")

	state.Select("f-002")
	ap.commentEntry.SetText("another draft")
	ap.revert()
	assert.Empty(t, ap.commentEntry.Text, "revert restores the stored comment")
}
