package api

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/internal/ingest"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the job can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// IngestRequest is the body of POST /v1/ingest. Exactly one of Paths and
// Remote must be set.
type IngestRequest struct {
	Paths  []string `json:"paths,omitempty"`
	Remote bool     `json:"remote,omitempty"`
	// Books limits a remote run to these OSIS ids; empty means all 27.
	Books []string `json:"books,omitempty"`
	Jobs  int      `json:"jobs,omitempty"`
}

// Job is an asynchronous ingestion run.
type Job struct {
	ID          string            `json:"id"`
	Status      JobStatus         `json:"status"`
	Sources     []string          `json:"sources"`
	Verses      int               `json:"verses"`
	Words       int               `json:"words"`
	Result      *ingest.RunReport `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`

	cancel    context.CancelFunc
	perSource map[string]ingest.Progress
}

// JobStore keeps jobs in memory. Get and List return copies.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewJobStore creates a new job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job), now: func() time.Time { return time.Now().UTC() }}
}

// Create registers a pending job over the named sources.
func (s *JobStore) Create(sources []string, cancel context.CancelFunc) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		Sources:   slices.Clone(sources),
		CreatedAt: now,
		UpdatedAt: now,
		cancel:    cancel,
	}
	s.jobs[job.ID] = job
	return job.snapshot()
}

func (j *Job) snapshot() Job {
	c := *j
	c.Sources = slices.Clone(j.Sources)
	c.cancel = nil
	c.perSource = nil
	return c
}

// Get retrieves a job by ID.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.snapshot(), true
}

// List returns all jobs, newest first.
func (s *JobStore) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.snapshot())
	}
	slices.SortFunc(jobs, func(a, b Job) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return jobs
}

// update applies fn to a job that is not finished yet.
func (s *JobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	fn(job)
	job.UpdatedAt = s.now()
	if job.Status.Terminal() {
		t := job.UpdatedAt
		job.CompletedAt = &t
		job.cancel = nil
	}
}

func (s *JobStore) start(id string) {
	s.update(id, func(j *Job) { j.Status = JobStatusRunning })
}

// progress records a source's running counts and refreshes the job totals.
func (s *JobStore) progress(id string, pr ingest.Progress) {
	s.update(id, func(j *Job) {
		if j.perSource == nil {
			j.perSource = make(map[string]ingest.Progress)
		}
		j.perSource[pr.Source] = pr
		j.Verses, j.Words = 0, 0
		for _, p := range j.perSource {
			j.Verses += p.Verses
			j.Words += p.Words
		}
	})
}

func (s *JobStore) finish(id string, rr *ingest.RunReport, err error) {
	s.update(id, func(j *Job) {
		j.Result = rr
		switch {
		case errors.Is(err, context.Canceled):
			j.Status = JobStatusCancelled
			j.Error = "job cancelled"
		case err != nil:
			j.Status = JobStatusFailed
			j.Error = err.Error()
		default:
			j.Status = JobStatusCompleted
		}
	})
}

// Cancel stops a pending or running job.
func (s *JobStore) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return errors.NewNotFound("job", id)
	}
	if job.Status.Terminal() {
		return errors.NewValidation("status", fmt.Sprintf("job cannot be cancelled (status: %s)", job.Status))
	}
	if job.cancel != nil {
		job.cancel()
		job.cancel = nil
	}
	now := s.now()
	job.Status = JobStatusCancelled
	job.UpdatedAt = now
	job.CompletedAt = &now
	return nil
}

// Prune drops finished jobs older than maxAge.
func (s *JobStore) Prune(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	n := 0
	for id, job := range s.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}
