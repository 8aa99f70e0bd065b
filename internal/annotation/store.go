package annotation

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"blueprint-review/pkg/geometry"
	"blueprint-review/pkg/log"
)

// Provenance records where the current version of a record came from.
type Provenance int

const (
	ProvenanceOriginal Provenance = iota
	ProvenanceEdited
	ProvenanceCreated
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceEdited:
		return "edited"
	case ProvenanceCreated:
		return "created"
	default:
		return "original"
	}
}

// Record is the store's view of one annotation.
type Record struct {
	Annotation Annotation
	Provenance Provenance
	original   *Annotation
}

// Store is the single authoritative map from id to current record. It
// replaces a base list plus a separate layer of local overrides.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Load replaces the store contents with base records. Records that fail
// validation are logged and skipped; the number skipped is returned.
func (s *Store) Load(base []Annotation) int {
	records := make(map[string]*Record, len(base))
	order := make([]string, 0, len(base))
	skipped := 0

	for _, a := range base {
		norm, err := Normalize(a)
		if err != nil {
			log.Warn(log.Fields{"id": a.ID, "error": err.Error()}, "Annotation store: skipping record")
			skipped++
			continue
		}
		if _, dup := records[norm.ID]; dup {
			log.Warn(log.Fields{"id": norm.ID}, "Annotation store: duplicate id, keeping first")
			skipped++
			continue
		}
		orig := norm.Clone()
		records[norm.ID] = &Record{Annotation: norm, Provenance: ProvenanceOriginal, original: &orig}
		order = append(order, norm.ID)
	}

	s.mu.Lock()
	s.records = records
	s.order = order
	s.mu.Unlock()
	return skipped
}

// Get returns the current version of the annotation with id.
func (s *Store) Get(id string) (Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return Annotation{}, false
	}
	return r.Annotation.Clone(), true
}

// Record returns the record with provenance for id.
func (s *Store) Record(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return Record{Annotation: r.Annotation.Clone(), Provenance: r.Provenance}, true
}

// List returns all annotations in insertion order.
func (s *Store) List() []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Annotation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Annotation.Clone())
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Update applies a patch to the record with id and returns the new version.
func (s *Store) Update(id string, patch Patch) (Annotation, error) {
	if patch.IsEmpty() {
		a, ok := s.Get(id)
		if !ok {
			return Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return a, nil
	}

	if patch.Polygon != nil {
		norm, err := NormalizePolygon(patch.Polygon)
		if err != nil {
			return Annotation{}, err
		}
		patch.Polygon = norm
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	a := r.Annotation.Clone()
	if patch.Polygon != nil {
		a.Polygon = patch.Polygon
		a.BoundingBox = geometry.BoundingBox(a.Polygon)
	}
	if patch.UserAction != nil {
		a.UserAction = *patch.UserAction
	}
	if patch.UserComment != nil {
		a.UserComment = *patch.UserComment
	}
	r.Annotation = a
	if r.Provenance == ProvenanceOriginal {
		r.Provenance = ProvenanceEdited
	}
	return a.Clone(), nil
}

// Create adds a user-drawn shape with a fresh id.
func (s *Store) Create(d Draft) (Annotation, error) {
	poly, err := NormalizePolygon(d.Polygon)
	if err != nil {
		return Annotation{}, err
	}
	a := Annotation{
		ID:         uuid.NewString(),
		Polygon:    poly,
		UserAction: ActionUnconfirmed,
		Confidence: 1,
	}
	a.BoundingBox = geometry.BoundingBox(a.Polygon)

	s.mu.Lock()
	s.records[a.ID] = &Record{Annotation: a, Provenance: ProvenanceCreated}
	s.order = append(s.order, a.ID)
	s.mu.Unlock()
	return a.Clone(), nil
}

// Delete removes the record with id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.records, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Revert restores an edited record to its original version.
func (s *Store) Revert(id string) (Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if r.original != nil {
		r.Annotation = r.original.Clone()
		r.Provenance = ProvenanceOriginal
	}
	return r.Annotation.Clone(), nil
}

// Changed returns records that were edited or created since Load.
func (s *Store) Changed() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, id := range s.order {
		r := s.records[id]
		if r.Provenance != ProvenanceOriginal {
			out = append(out, Record{Annotation: r.Annotation.Clone(), Provenance: r.Provenance})
		}
	}
	return out
}
