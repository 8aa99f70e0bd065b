package panels

import (
	"testing"

	"blueprint-review/internal/annotation"
	"blueprint-review/internal/job"

	"github.com/stretchr/testify/assert"
)

func TestFilterFromSelections(t *testing.T) {
	f := filterFromSelections([]string{"NG", "None"}, nil, []string{"Needs fix"}, 0.5)

	assert.Equal(t, map[annotation.Judgment]bool{annotation.JudgmentNG: true, annotation.JudgmentNone: true}, f.Judgments)
	assert.Nil(t, f.ElementTypes)
	assert.Equal(t, map[annotation.UserAction]bool{annotation.ActionNeedsFix: true}, f.UserActions)
	assert.Equal(t, 0.5, f.MinConfidence)

	assert.True(t, f.Match(annotation.Annotation{Judgment: annotation.JudgmentNG, UserAction: annotation.ActionNeedsFix, Confidence: 0.9}))
	assert.False(t, f.Match(annotation.Annotation{Judgment: annotation.JudgmentOK, UserAction: annotation.ActionNeedsFix, Confidence: 0.9}))
	assert.False(t, f.Match(annotation.Annotation{Judgment: annotation.JudgmentNG, UserAction: annotation.ActionConfirmed, Confidence: 0.9}))
}

func TestFilterFromSelectionsEmptyMatchesAll(t *testing.T) {
	f := filterFromSelections(nil, nil, nil, 0)
	assert.True(t, f.Match(annotation.Annotation{Judgment: annotation.JudgmentWarning, ElementType: annotation.ElementTable}))
}

func TestCardText(t *testing.T) {
	a := annotation.Annotation{ID: "f-1", Label: "Door schedule", Judgment: annotation.JudgmentNG, Confidence: 0.87}
	assert.Equal(t, "[NG] Door schedule", cardTitle(a))
	assert.Equal(t, "Unconfirmed | 87%", cardDetail(a))

	b := annotation.Annotation{ID: "s-2", ElementType: annotation.ElementTable, UserAction: annotation.ActionConfirmed, UserComment: "ok"}
	assert.Equal(t, "[Table] s-2", cardTitle(b))
	assert.Equal(t, "Confirmed | commented", cardDetail(b))
}

func TestCountsSummary(t *testing.T) {
	assert.Equal(t, "No findings", countsSummary(nil))
	assert.Equal(t, "1 finding", countsSummary([]annotation.Annotation{{ID: "a"}}))
	assert.Equal(t, "3 findings: 1 OK, 2 NG", countsSummary([]annotation.Annotation{
		{Judgment: annotation.JudgmentNG},
		{Judgment: annotation.JudgmentOK},
		{Judgment: annotation.JudgmentNG},
	}))
}

func TestJobOptions(t *testing.T) {
	opts := typeOptions(true)
	assert.Equal(t, allOption, opts[0])
	assert.Len(t, opts, len(job.Types)+1)
	assert.Equal(t, job.TypeScan, typeForLabel(job.TypeScan.Label()))
	assert.Equal(t, job.Type(""), typeForLabel(allOption))

	assert.Equal(t, job.Status(""), statusForLabel(allOption))
	assert.Equal(t, job.StatusFailed, statusForLabel("failed"))

	assert.Equal(t, "processing 50%", jobStatusText(job.Job{Status: job.StatusProcessing, Progress: 50}))
	assert.Equal(t, "failed: timeout", jobStatusText(job.Job{Status: job.StatusFailed, Error: "timeout"}))
	assert.Equal(t, "completed", jobStatusText(job.Job{Status: job.StatusCompleted}))
}
