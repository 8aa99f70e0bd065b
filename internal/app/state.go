// Package app holds the review session state that sits between the job
// store and the overlay: the open job, its annotations, selection, filters
// and the scan selection box, plus the event bus the UI listens on.
package app

import (
	"errors"
	"fmt"
	"sync"

	"blueprint-review/internal/annotation"
	"blueprint-review/internal/interaction"
	"blueprint-review/internal/job"
	"blueprint-review/internal/scanbox"
	"blueprint-review/pkg/geometry"
	"blueprint-review/pkg/log"
)

// ErrNoJob is returned by operations that need an open job.
var ErrNoJob = errors.New("no job open")

// EventType identifies different application events.
type EventType int

const (
	EventJobsChanged EventType = iota
	EventJobOpened
	EventJobClosed
	EventAnnotationsChanged
	EventSelectionChanged
	EventFilterChanged
	EventSelectionBoxChanged
	EventModified
	EventReviewSaved
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State is the page container of the review window. It owns the canonical
// annotation list and hands the overlay read-only props plus callbacks.
type State struct {
	mu sync.RWMutex

	Jobs        *job.Store
	Annotations *annotation.Store

	job          *job.Job
	imageSize    geometry.Size
	selectedID   string
	filter       annotation.Filter
	showAll      bool
	selectionBox geometry.Rect
	scanMargin   float64
	modified     bool

	listeners map[EventType][]EventListener
}

// NewState creates a session backed by jobs.
func NewState(jobs *job.Store) *State {
	return &State{
		Jobs:        jobs,
		Annotations: annotation.NewStore(),
		showAll:     true,
		scanMargin:  scanbox.DefaultMargin,
		listeners:   make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetScanMargin sets the margin used for a job's default selection box.
func (s *State) SetScanMargin(margin float64) {
	s.mu.Lock()
	s.scanMargin = margin
	s.mu.Unlock()
}

// OpenJob loads a job and, when it has completed, its findings.
func (s *State) OpenJob(id string) error {
	j, err := s.Jobs.Get(id)
	if err != nil {
		return err
	}
	var result job.Result
	if j.Status == job.StatusCompleted {
		if result, err = s.Jobs.Results(id); err != nil {
			return fmt.Errorf("failed to load results: %w", err)
		}
	}

	skipped := s.Annotations.Load(result.Annotations)
	if skipped > 0 {
		log.Warn(log.Fields{"job": id, "skipped": skipped}, "Review: some findings could not be shown")
	}

	s.mu.Lock()
	s.job = &j
	s.imageSize = geometry.Size{}
	s.selectedID = ""
	s.filter = annotation.Filter{}
	s.showAll = true
	s.modified = false
	s.selectionBox = geometry.Rect{}
	if result.SelectionBox != nil {
		s.selectionBox = *result.SelectionBox
	}
	s.mu.Unlock()

	log.Info(log.Fields{"job": id, "annotations": s.Annotations.Len()}, "Review: job opened")
	s.Emit(EventJobOpened, j)
	return nil
}

// CloseJob forgets the open job.
func (s *State) CloseJob() {
	s.mu.Lock()
	s.job = nil
	s.selectedID = ""
	s.selectionBox = geometry.Rect{}
	s.modified = false
	s.mu.Unlock()
	s.Annotations.Load(nil)
	s.Emit(EventJobClosed, nil)
}

// Job returns the open job.
func (s *State) Job() (job.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.job == nil {
		return job.Job{}, false
	}
	return *s.job, true
}

// Editable reports whether the open job's shapes may be edited.
func (s *State) Editable() bool {
	j, ok := s.Job()
	return ok && j.Editable()
}

// ScanMode reports whether the open job is reviewed through a selection box.
func (s *State) ScanMode() bool {
	j, ok := s.Job()
	return ok && j.ScanMode()
}

// SetImageSize records the loaded image size. A scan job without a
// selection box gets the default box for that image.
func (s *State) SetImageSize(size geometry.Size) {
	s.mu.Lock()
	s.imageSize = size
	var box *geometry.Rect
	if s.job != nil && s.job.ScanMode() && s.selectionBox.IsEmpty() && !size.IsZero() {
		b := scanbox.Default(size, s.scanMargin)
		s.selectionBox = b
		box = &b
	}
	s.mu.Unlock()
	if box != nil {
		s.Emit(EventSelectionBoxChanged, *box)
	}
}

// Visible returns the annotations that pass the current filter.
func (s *State) Visible() []annotation.Annotation {
	s.mu.RLock()
	f := s.filter
	s.mu.RUnlock()
	return f.Apply(s.Annotations.List())
}

// InScope returns the visible annotations a scan job covers: those whose
// centroid lies inside the selection box. Other jobs return Visible.
func (s *State) InScope() []annotation.Annotation {
	visible := s.Visible()
	if !s.ScanMode() {
		return visible
	}
	box := s.SelectionBox()
	return annotation.Filter{Box: &box}.Apply(visible)
}

// Select changes the selected annotation. An empty id clears it.
func (s *State) Select(id string) {
	s.mu.Lock()
	if s.selectedID == id {
		s.mu.Unlock()
		return
	}
	s.selectedID = id
	s.mu.Unlock()
	s.Emit(EventSelectionChanged, id)
}

// SelectedID returns the selected annotation id.
func (s *State) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// Selected returns the selected annotation.
func (s *State) Selected() (annotation.Annotation, bool) {
	id := s.SelectedID()
	if id == "" {
		return annotation.Annotation{}, false
	}
	return s.Annotations.Get(id)
}

// SetFilter replaces the display filter. A selection the filter hides is cleared.
func (s *State) SetFilter(f annotation.Filter) {
	s.mu.Lock()
	s.filter = f
	sel := s.selectedID
	s.mu.Unlock()
	s.Emit(EventFilterChanged, f)

	if a, ok := s.Annotations.Get(sel); ok && !f.Match(a) {
		s.Select("")
	}
}

// Filter returns the display filter.
func (s *State) Filter() annotation.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SetShowAll toggles between all shapes and the selected shape only.
func (s *State) SetShowAll(show bool) {
	s.mu.Lock()
	changed := s.showAll != show
	s.showAll = show
	s.mu.Unlock()
	if changed {
		s.Emit(EventFilterChanged, s.Filter())
	}
}

// ShowAll reports whether every visible shape is drawn.
func (s *State) ShowAll() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.showAll
}

// SetSelectionBox replaces the scan selection box.
func (s *State) SetSelectionBox(box geometry.Rect) {
	s.mu.Lock()
	if s.selectionBox == box {
		s.mu.Unlock()
		return
	}
	s.selectionBox = box
	s.mu.Unlock()
	s.Emit(EventSelectionBoxChanged, box)
}

// SelectionBox returns the scan selection box.
func (s *State) SelectionBox() geometry.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectionBox
}

// Modified reports whether there are unsaved review changes.
func (s *State) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

func (s *State) setModified(modified bool) {
	s.mu.Lock()
	changed := s.modified != modified
	s.modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// UpdateAnnotation applies a patch from the overlay or the panel.
func (s *State) UpdateAnnotation(id string, patch annotation.Patch) error {
	if !s.Editable() && patch.Polygon != nil {
		return fmt.Errorf("%w: job is read-only", annotation.ErrInvalid)
	}
	if _, err := s.Annotations.Update(id, patch); err != nil {
		return err
	}
	s.setModified(true)
	s.Emit(EventAnnotationsChanged, id)
	return nil
}

// CreateAnnotation stores a newly drawn shape and selects it.
func (s *State) CreateAnnotation(d annotation.Draft) (annotation.Annotation, error) {
	if !s.Editable() {
		return annotation.Annotation{}, fmt.Errorf("%w: job is read-only", annotation.ErrInvalid)
	}
	a, err := s.Annotations.Create(d)
	if err != nil {
		return annotation.Annotation{}, err
	}
	log.Info(log.Fields{"id": a.ID, "kind": d.Kind}, "Review: shape created")
	s.setModified(true)
	s.Emit(EventAnnotationsChanged, a.ID)
	s.Select(a.ID)
	return a, nil
}

// DeleteAnnotation removes a shape, clearing the selection if it pointed there.
func (s *State) DeleteAnnotation(id string) error {
	if !s.Editable() {
		return fmt.Errorf("%w: job is read-only", annotation.ErrInvalid)
	}
	if err := s.Annotations.Delete(id); err != nil {
		return err
	}
	s.setModified(true)
	s.Emit(EventAnnotationsChanged, id)
	if s.SelectedID() == id {
		s.Select("")
	}
	return nil
}

// SetUserAction records the reviewer's disposition of a finding.
func (s *State) SetUserAction(id string, action annotation.UserAction) error {
	return s.UpdateAnnotation(id, annotation.Patch{UserAction: &action})
}

// SetComment records the reviewer's comment on a finding.
func (s *State) SetComment(id, comment string) error {
	return s.UpdateAnnotation(id, annotation.Patch{UserComment: &comment})
}

// Revert restores a finding to its AI version.
func (s *State) Revert(id string) error {
	if _, err := s.Annotations.Revert(id); err != nil {
		return err
	}
	s.setModified(len(s.Annotations.Changed()) > 0)
	s.Emit(EventAnnotationsChanged, id)
	return nil
}

// Save writes the reviewed annotations back to the job store.
func (s *State) Save() error {
	j, ok := s.Job()
	if !ok {
		return ErrNoJob
	}
	if err := s.Jobs.SaveAnnotations(j.ID, s.Annotations.List()); err != nil {
		return err
	}
	s.Annotations.Load(s.Annotations.List())
	s.setModified(false)
	s.Emit(EventReviewSaved, j.ID)
	return nil
}

// OverlayProps builds the overlay's props from the session.
func (s *State) OverlayProps() interaction.Props {
	return interaction.Props{
		Annotations:  s.Visible(),
		SelectedID:   s.SelectedID(),
		Editable:     s.Editable(),
		ShowAll:      s.ShowAll(),
		ScanMode:     s.ScanMode(),
		SelectionBox: s.SelectionBox(),
	}
}

// OverlayCallbacks routes overlay requests into the session. Failures are
// logged; the overlay redraws from the unchanged props.
func (s *State) OverlayCallbacks() interaction.Callbacks {
	return interaction.Callbacks{
		OnSelect: s.Select,
		OnUpdate: func(id string, patch annotation.Patch) {
			if err := s.UpdateAnnotation(id, patch); err != nil {
				log.Warn(log.Fields{"id": id, "error": err.Error()}, "Review: update rejected")
			}
		},
		OnCreate: func(d annotation.Draft) {
			if _, err := s.CreateAnnotation(d); err != nil {
				log.Warn(log.Fields{"error": err.Error()}, "Review: create rejected")
			}
		},
		OnDelete: func(id string) {
			if err := s.DeleteAnnotation(id); err != nil {
				log.Warn(log.Fields{"id": id, "error": err.Error()}, "Review: delete rejected")
			}
		},
		OnSelectionBoxChange: s.SetSelectionBox,
	}
}
