package annotation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"blueprint-review/pkg/geometry"
)

var (
	// ErrNotFound is returned when an id is not in the store.
	ErrNotFound = errors.New("annotation not found")
	// ErrInvalid is returned for records that cannot be rendered or edited.
	ErrInvalid = errors.New("invalid annotation")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize validates an incoming record and returns the form the store
// keeps: 4-point axis-aligned rectangles reordered to TL, TR, BR, BL, and
// the bounding box re-derived from the polygon.
func Normalize(a Annotation) (Annotation, error) {
	if err := validate.Struct(a); err != nil {
		return a, fmt.Errorf("%w: %s: %v", ErrInvalid, a.ID, err)
	}
	if !a.Polygon.IsFinite() {
		return a, fmt.Errorf("%w: %s: non-finite coordinates", ErrInvalid, a.ID)
	}
	out := a.Clone()
	if rect, ok := geometry.NormalizeRectangle(out.Polygon); ok {
		out.Polygon = rect
	}
	out.BoundingBox = geometry.BoundingBox(out.Polygon)
	return out, nil
}

// NormalizePolygon applies the ingest rules to a bare polygon, as used for
// drafts and geometry patches.
func NormalizePolygon(p geometry.Polygon) (geometry.Polygon, error) {
	if !p.Renderable() {
		return nil, fmt.Errorf("%w: polygon needs at least 3 finite points", ErrInvalid)
	}
	if rect, ok := geometry.NormalizeRectangle(p); ok {
		return rect, nil
	}
	return p.Clone(), nil
}
