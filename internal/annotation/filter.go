package annotation

import "blueprint-review/pkg/geometry"

// Filter selects annotations for display. Empty sets match everything.
type Filter struct {
	Judgments     map[Judgment]bool
	ElementTypes  map[ElementType]bool
	UserActions   map[UserAction]bool
	MinConfidence float64
	Box           *geometry.Rect // centroid must fall inside when set
}

// Match reports whether a passes every criterion of the filter.
func (f Filter) Match(a Annotation) bool {
	if len(f.Judgments) > 0 && !f.Judgments[a.Judgment] {
		return false
	}
	if len(f.ElementTypes) > 0 && !f.ElementTypes[a.ElementType] {
		return false
	}
	if len(f.UserActions) > 0 && !f.UserActions[a.UserAction] {
		return false
	}
	if a.Confidence < f.MinConfidence {
		return false
	}
	if f.Box != nil && !InsideBox(a, *f.Box) {
		return false
	}
	return true
}

// Apply returns the annotations matching the filter, preserving order.
func (f Filter) Apply(list []Annotation) []Annotation {
	out := make([]Annotation, 0, len(list))
	for _, a := range list {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// Counts tallies annotations per judgment, used by the panel summary.
func Counts(list []Annotation) map[Judgment]int {
	out := make(map[Judgment]int)
	for _, a := range list {
		out[a.Judgment]++
	}
	return out
}
