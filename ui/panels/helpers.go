package panels

import (
	"fmt"
	"strings"

	"blueprint-review/internal/annotation"
	"blueprint-review/internal/job"
)

// Filter option labels, in display order.
var (
	judgmentOptions = []string{"OK", "NG", "WARNING", "None"}
	elementOptions  = []string{"Text", "Table", "Figure", "Other"}
	actionOptions   = []string{"Unconfirmed", "Confirmed", "Needs fix"}
)

const allOption = "All"

func judgmentLabel(j annotation.Judgment) string {
	if j == annotation.JudgmentNone {
		return "None"
	}
	return j.String()
}

func elementLabel(e annotation.ElementType) string {
	switch e {
	case annotation.ElementText:
		return "Text"
	case annotation.ElementTable:
		return "Table"
	case annotation.ElementFigure:
		return "Figure"
	default:
		return "Other"
	}
}

func actionLabel(a annotation.UserAction) string {
	switch a {
	case annotation.ActionConfirmed:
		return "Confirmed"
	case annotation.ActionNeedsFix:
		return "Needs fix"
	default:
		return "Unconfirmed"
	}
}

// filterFromSelections builds an annotation filter from the checked labels.
// Nothing checked in a group means no restriction for that group.
func filterFromSelections(judgments, elements, actions []string, minConfidence float64) annotation.Filter {
	f := annotation.Filter{MinConfidence: minConfidence}
	if len(judgments) > 0 {
		f.Judgments = make(map[annotation.Judgment]bool)
		for _, j := range []annotation.Judgment{annotation.JudgmentNone, annotation.JudgmentOK, annotation.JudgmentNG, annotation.JudgmentWarning} {
			if contains(judgments, judgmentLabel(j)) {
				f.Judgments[j] = true
			}
		}
	}
	if len(elements) > 0 {
		f.ElementTypes = make(map[annotation.ElementType]bool)
		for _, e := range []annotation.ElementType{annotation.ElementNone, annotation.ElementText, annotation.ElementTable, annotation.ElementFigure} {
			if contains(elements, elementLabel(e)) {
				f.ElementTypes[e] = true
			}
		}
	}
	if len(actions) > 0 {
		f.UserActions = make(map[annotation.UserAction]bool)
		for _, a := range []annotation.UserAction{annotation.ActionUnconfirmed, annotation.ActionConfirmed, annotation.ActionNeedsFix} {
			if contains(actions, actionLabel(a)) {
				f.UserActions[a] = true
			}
		}
	}
	return f
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// cardTitle is the first line of an annotation card.
func cardTitle(a annotation.Annotation) string {
	name := a.Label
	if name == "" {
		name = a.ID
	}
	if a.Judgment != annotation.JudgmentNone {
		return fmt.Sprintf("[%s] %s", a.Judgment, name)
	}
	if a.ElementType != annotation.ElementNone {
		return fmt.Sprintf("[%s] %s", elementLabel(a.ElementType), name)
	}
	return name
}

// cardDetail is the second line of an annotation card.
func cardDetail(a annotation.Annotation) string {
	parts := []string{actionLabel(a.UserAction)}
	if a.Confidence > 0 {
		parts = append(parts, fmt.Sprintf("%.0f%%", a.Confidence*100))
	}
	if a.UserComment != "" {
		parts = append(parts, "commented")
	}
	return strings.Join(parts, " | ")
}

// countsSummary describes a list of findings, e.g. "5 findings: 2 OK, 3 NG".
func countsSummary(list []annotation.Annotation) string {
	if len(list) == 0 {
		return "No findings"
	}
	noun := "findings"
	if len(list) == 1 {
		noun = "finding"
	}
	counts := annotation.Counts(list)
	var parts []string
	for _, j := range []annotation.Judgment{annotation.JudgmentOK, annotation.JudgmentNG, annotation.JudgmentWarning} {
		if n := counts[j]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, j))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d %s", len(list), noun)
	}
	return fmt.Sprintf("%d %s: %s", len(list), noun, strings.Join(parts, ", "))
}

func jobStatusText(j job.Job) string {
	switch j.Status {
	case job.StatusProcessing:
		return fmt.Sprintf("processing %d%%", j.Progress)
	case job.StatusFailed:
		if j.Error != "" {
			return "failed: " + j.Error
		}
	}
	return string(j.Status)
}

// typeOptions lists the job type labels, optionally led by allOption.
func typeOptions(withAll bool) []string {
	var out []string
	if withAll {
		out = append(out, allOption)
	}
	for _, t := range job.Types {
		out = append(out, t.Label())
	}
	return out
}

// typeForLabel maps a type label back to its job type. allOption and
// unknown labels return "".
func typeForLabel(label string) job.Type {
	for _, t := range job.Types {
		if t.Label() == label {
			return t
		}
	}
	return ""
}

var statusOptions = []string{allOption, string(job.StatusQueued), string(job.StatusProcessing), string(job.StatusCompleted), string(job.StatusFailed)}

func statusForLabel(label string) job.Status {
	if label == allOption {
		return ""
	}
	return job.Status(label)
}
