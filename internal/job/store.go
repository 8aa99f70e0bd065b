package job

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"blueprint-review/internal/annotation"
	"blueprint-review/pkg/log"
)

//go:embed fixtures/jobs.json
var fixtures embed.FS

var validate = validator.New(validator.WithRequiredStructEnabled())

type fixtureFile struct {
	Jobs    []Job    `json:"jobs"`
	Results []Result `json:"results"`
}

// Store is the in-memory job backend.
type Store struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	results map[string]Result
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		jobs:    make(map[string]*Job),
		results: make(map[string]Result),
		now:     time.Now,
	}
}

// NewMockStore creates a store seeded with the embedded fixtures.
func NewMockStore() (*Store, error) {
	data, err := fixtures.ReadFile("fixtures/jobs.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	s := NewStore()
	if err := s.LoadJSON(data); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadJSON adds the jobs and results of a fixture document.
func (s *Store) LoadJSON(data []byte) error {
	var f fixtureFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse fixtures: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range f.Jobs {
		j := f.Jobs[i]
		s.jobs[j.ID] = &j
	}
	for _, r := range f.Results {
		if _, ok := s.jobs[r.JobID]; !ok {
			log.Warn(log.Fields{"job": r.JobID}, "Job store: result for unknown job")
			continue
		}
		s.results[r.JobID] = r
	}
	log.Debug(log.Fields{"jobs": len(f.Jobs), "results": len(f.Results)}, "Job store: fixtures loaded")
	return nil
}

// List returns the jobs matching f, newest first.
func (s *Store) List(f Filter) []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if f.Match(*j) {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID < out[b].ID
	})
	return out
}

// Get returns a job by id.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *j, nil
}

// Create validates and queues a new job.
func (s *Store) Create(n NewJob) (Job, error) {
	if err := validate.Struct(n); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	now := s.now()
	j := Job{
		ID:        uuid.NewString(),
		Name:      n.Name,
		Type:      n.Type,
		Status:    StatusQueued,
		ImageURL:  n.ImageURL,
		Query:     n.Query,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.jobs[j.ID] = &j
	s.mu.Unlock()

	log.Info(log.Fields{"job": j.ID, "type": j.Type}, "Job store: job created")
	return j, nil
}

// Advance moves a job one step: queued to processing, processing to
// completed. A completed job gets an empty result if none was recorded.
func (s *Store) Advance(id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	switch j.Status {
	case StatusQueued:
		j.Status = StatusProcessing
		j.Progress = 50
	case StatusProcessing:
		j.Status = StatusCompleted
		j.Progress = 100
		if _, ok := s.results[id]; !ok {
			s.results[id] = Result{JobID: id, Summary: "No findings"}
		}
	default:
		return *j, fmt.Errorf("%w: %s is %s", ErrFinished, id, j.Status)
	}
	j.UpdatedAt = s.now()
	log.Info(log.Fields{"job": id, "status": j.Status}, "Job store: job advanced")
	return *j, nil
}

// Fail marks an unfinished job as failed.
func (s *Store) Fail(id, reason string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if j.Status.Finished() {
		return *j, fmt.Errorf("%w: %s is %s", ErrFinished, id, j.Status)
	}
	j.Status = StatusFailed
	j.Error = reason
	j.UpdatedAt = s.now()
	return *j, nil
}

// Results returns a copy of a completed job's result.
func (s *Store) Results(id string) (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if j.Status != StatusCompleted {
		return Result{}, fmt.Errorf("%w: %s is %s", ErrNotReady, id, j.Status)
	}
	return cloneResult(s.results[id]), nil
}

// SaveAnnotations replaces the findings of a completed job with reviewed ones.
func (s *Store) SaveAnnotations(id string, list []annotation.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if j.Status != StatusCompleted {
		return fmt.Errorf("%w: %s is %s", ErrNotReady, id, j.Status)
	}
	r := s.results[id]
	r.JobID = id
	r.Annotations = cloneAnnotations(list)
	s.results[id] = r
	j.UpdatedAt = s.now()
	log.Info(log.Fields{"job": id, "annotations": len(list)}, "Job store: review saved")
	return nil
}

func cloneResult(r Result) Result {
	r.Annotations = cloneAnnotations(r.Annotations)
	if r.SelectionBox != nil {
		box := *r.SelectionBox
		r.SelectionBox = &box
	}
	return r
}

func cloneAnnotations(list []annotation.Annotation) []annotation.Annotation {
	if list == nil {
		return nil
	}
	out := make([]annotation.Annotation, len(list))
	for i, a := range list {
		out[i] = a.Clone()
	}
	return out
}
