// Package annotation models AI findings and user-drawn regions, the
// authoritative per-job store that owns them, and the filters the review
// panels apply to them.
package annotation

import (
	"fmt"
	"strings"

	"blueprint-review/pkg/geometry"
)

// Judgment is the AI's classification of an inspection finding.
type Judgment int

const (
	JudgmentNone Judgment = iota
	JudgmentOK
	JudgmentNG
	JudgmentWarning
)

var judgmentNames = map[Judgment]string{
	JudgmentNone:    "",
	JudgmentOK:      "OK",
	JudgmentNG:      "NG",
	JudgmentWarning: "WARNING",
}

func (j Judgment) String() string {
	return judgmentNames[j]
}

// MarshalText implements encoding.TextMarshaler.
func (j Judgment) MarshalText() ([]byte, error) {
	return []byte(j.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (j *Judgment) UnmarshalText(text []byte) error {
	s := strings.ToUpper(strings.TrimSpace(string(text)))
	for k, name := range judgmentNames {
		if name == s {
			*j = k
			return nil
		}
	}
	return fmt.Errorf("unknown judgment %q", string(text))
}

// ElementType is the kind of drawing element a scan/search result refers to.
type ElementType int

const (
	ElementNone ElementType = iota
	ElementText
	ElementTable
	ElementFigure
)

var elementNames = map[ElementType]string{
	ElementNone:   "",
	ElementText:   "text",
	ElementTable:  "table",
	ElementFigure: "figure",
}

func (e ElementType) String() string {
	return elementNames[e]
}

// MarshalText implements encoding.TextMarshaler.
func (e ElementType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *ElementType) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for k, name := range elementNames {
		if name == s {
			*e = k
			return nil
		}
	}
	return fmt.Errorf("unknown element type %q", string(text))
}

// UserAction is the reviewer's disposition of a finding.
type UserAction int

const (
	ActionUnconfirmed UserAction = iota
	ActionConfirmed
	ActionNeedsFix
)

func (a UserAction) String() string {
	switch a {
	case ActionConfirmed:
		return "confirmed"
	case ActionNeedsFix:
		return "needs_fix"
	default:
		return "unconfirmed"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a UserAction) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. "pending" is accepted as
// a synonym for unconfirmed.
func (a *UserAction) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "unconfirmed", "pending":
		*a = ActionUnconfirmed
	case "confirmed":
		*a = ActionConfirmed
	case "needs_fix":
		*a = ActionNeedsFix
	default:
		return fmt.Errorf("unknown user action %q", string(text))
	}
	return nil
}

// ShapeKind distinguishes canonical rectangles, which support edge resizing,
// from free polygons.
type ShapeKind int

const (
	ShapePolygon ShapeKind = iota
	ShapeRectangle
)

func (k ShapeKind) String() string {
	if k == ShapeRectangle {
		return "rectangle"
	}
	return "polygon"
}

// Annotation is one AI finding or user-drawn region.
type Annotation struct {
	ID          string           `json:"id" validate:"required"`
	Polygon     geometry.Polygon `json:"polygon" validate:"min=3"`
	BoundingBox geometry.Rect    `json:"boundingBox"`
	Judgment    Judgment         `json:"judgment,omitempty"`
	ElementType ElementType      `json:"elementType,omitempty"`
	UserAction  UserAction       `json:"userAction"`
	Confidence  float64          `json:"confidence" validate:"gte=0,lte=1"`
	Label       string           `json:"label,omitempty"`
	AIComment   string           `json:"aiComment,omitempty"`
	UserComment string           `json:"userComment,omitempty"`
}

// Kind reports whether the annotation is a canonical rectangle.
func (a Annotation) Kind() ShapeKind {
	if geometry.IsCanonicalRectangle(a.Polygon) {
		return ShapeRectangle
	}
	return ShapePolygon
}

// Renderable reports whether the shape can be drawn.
func (a Annotation) Renderable() bool {
	return a.Polygon.Renderable()
}

// Center returns the label anchor: the vertex mean of the polygon.
func (a Annotation) Center() geometry.Point2D {
	return geometry.Centroid(a.Polygon)
}

// Clone returns a deep copy.
func (a Annotation) Clone() Annotation {
	a.Polygon = a.Polygon.Clone()
	return a
}

// InsideBox reports whether the annotation's centroid lies inside box.
// This is a centroid test, not polygon containment.
func InsideBox(a Annotation, box geometry.Rect) bool {
	if len(a.Polygon) == 0 {
		return false
	}
	return box.Contains(a.Center())
}

// Draft is a newly drawn shape before it is assigned an id.
type Draft struct {
	Polygon geometry.Polygon
	Kind    ShapeKind
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Polygon     geometry.Polygon
	UserAction  *UserAction
	UserComment *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Polygon == nil && p.UserAction == nil && p.UserComment == nil
}
