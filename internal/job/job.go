// Package job is the in-memory mock of the analysis backend: jobs, their
// status tracking, and the findings each completed job produced.
package job

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"blueprint-review/internal/annotation"
	"blueprint-review/pkg/geometry"
)

var (
	// ErrNotFound is returned for unknown job ids.
	ErrNotFound = errors.New("job not found")
	// ErrNotReady is returned when results are requested before completion.
	ErrNotReady = errors.New("job results not ready")
	// ErrFinished is returned when advancing a completed or failed job.
	ErrFinished = errors.New("job already finished")
	// ErrInvalid wraps validation failures on job creation.
	ErrInvalid = errors.New("invalid job")
)

// Type is the kind of analysis a job runs.
type Type string

const (
	TypeInspection Type = "inspection"
	TypeBOM        Type = "bom"
	TypeSearch     Type = "search"
	TypeScan       Type = "scan"
)

// Types lists every job type in display order.
var Types = []Type{TypeInspection, TypeBOM, TypeSearch, TypeScan}

// Label returns a human-readable name.
func (t Type) Label() string {
	switch t {
	case TypeInspection:
		return "Inspection"
	case TypeBOM:
		return "Bill of materials"
	case TypeSearch:
		return "Drawing search"
	case TypeScan:
		return "Region scan"
	default:
		return string(t)
	}
}

// ParseType parses a type name, case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalid, s)
}

// Status is a job's progress through the pipeline.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Finished reports whether the status is terminal.
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one analysis request.
type Job struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      Type      `json:"type"`
	Status    Status    `json:"status"`
	ImageURL  string    `json:"imageUrl"`
	Query     string    `json:"query,omitempty"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ScanMode reports whether the job reviews a selection box.
func (j Job) ScanMode() bool { return j.Type == TypeScan }

// Editable reports whether reviewers may edit the job's shapes. Scan results
// are scoped by the selection box instead.
func (j Job) Editable() bool {
	return j.Status == StatusCompleted && j.Type != TypeScan
}

// NewJob is the input to Store.Create.
type NewJob struct {
	Name     string `validate:"required,max=120"`
	Type     Type   `validate:"required,oneof=inspection bom search scan"`
	ImageURL string `validate:"required"`
	Query    string `validate:"required_if=Type search,max=200"`
}

// Result is the output of a completed job.
type Result struct {
	JobID        string                  `json:"jobId"`
	Summary      string                  `json:"summary"`
	Annotations  []annotation.Annotation `json:"annotations"`
	SelectionBox *geometry.Rect          `json:"selectionBox,omitempty"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Type   Type
	Status Status
	Query  string // case-insensitive substring of the name
}

// Match reports whether j passes the filter.
func (f Filter) Match(j Job) bool {
	if f.Type != "" && j.Type != f.Type {
		return false
	}
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(j.Name), strings.ToLower(f.Query)) {
		return false
	}
	return true
}
