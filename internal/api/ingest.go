package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/internal/ingest"
	"github.com/santapalabra/scripture/internal/logging"
)

// maxIngestPaths bounds the files one job may name.
const maxIngestPaths = 64

// sources turns an ingestion request into pipeline sources.
func (s *Server) sources(ctx context.Context, req IngestRequest) ([]ingest.Source, error) {
	switch {
	case req.Remote && len(req.Paths) > 0:
		return nil, errors.NewValidation("paths", "paths and remote are mutually exclusive")
	case req.Remote:
		return s.remoteSources(req.Books)
	case len(req.Paths) == 0:
		return nil, errors.NewValidation("paths", "paths or remote is required")
	case len(req.Paths) > maxIngestPaths:
		return nil, errors.NewValidation("paths", fmt.Sprintf("at most %d paths per job", maxIngestPaths))
	}

	out := make([]ingest.Source, 0, len(req.Paths))
	for _, p := range req.Paths {
		full, err := ResolveCorpusPath(s.cfg.CorpusDir, p)
		if err != nil {
			if errors.Is(err, ErrPathTraversal) {
				logging.SecurityEvent("path_traversal_attempt", "api", "path", p)
			} else {
				logging.WarnContext(ctx, "rejected ingest path", "path", p, "error", err)
			}
			return nil, errors.NewValidation("paths", err.Error())
		}
		out = append(out, ingest.FileSource{Path: full})
	}
	return out, nil
}

func (s *Server) remoteSources(books []string) ([]ingest.Source, error) {
	if s.cfg.Remote.BaseURL == "" {
		return nil, errors.NewValidation("remote", "no remote source is configured")
	}
	opts := s.cfg.Remote
	opts.Retry = s.cfg.Retry
	return ingest.SBLGNTBookSources(s.linker.Registry(), opts, books)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sources, err := s.sources(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.store.CheckSchema(r.Context()); err != nil {
		s.respondErr(w, r, err)
		return
	}

	jobs := s.cfg.IngestJobs
	if req.Jobs > 0 {
		jobs = min(req.Jobs, max(s.cfg.IngestJobs, 1)*4)
	}

	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.Name()
	}

	s.jobs.Prune(jobRetention)
	ctx, cancel := context.WithCancel(s.jobCtx)
	job := s.jobs.Create(names, cancel)
	logging.InfoContext(r.Context(), "ingest job queued", "job_id", job.ID, "sources", len(names), "jobs", jobs)

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		defer cancel()
		s.runJob(ctx, job.ID, sources, jobs)
	}()

	w.Header().Set("Location", "/v1/jobs/"+job.ID)
	respond(w, http.StatusAccepted, job)
}

// runJob ingests sources for a job and reports progress to the hub. A
// progress message goes out each time a source starts a new chapter.
func (s *Server) runJob(ctx context.Context, id string, sources []ingest.Source, jobs int) {
	s.jobs.start(id)
	s.hub.Broadcast(ProgressMessage{Type: "started", JobID: id, Message: fmt.Sprintf("ingesting %d sources", len(sources))})

	p := ingest.New(s.store,
		ingest.WithRegistry(s.linker.Registry()),
		ingest.WithLogger(s.logger.With("job_id", id)),
		ingest.WithRetry(s.cfg.Retry),
		ingest.WithProgress(func(pr ingest.Progress) {
			s.jobs.progress(id, pr)
			if pr.Verse.Verse != 1 {
				return
			}
			s.hub.Broadcast(ProgressMessage{
				Type:   "progress",
				JobID:  id,
				RunID:  pr.RunID,
				Source: pr.Source,
				Verse:  pr.Verse.String(),
				Verses: pr.Verses,
				Words:  pr.Words,
			})
		}),
	)

	rr, err := p.IngestAll(ctx, sources, jobs)
	if err == nil && rr.Fatal() {
		err = fmt.Errorf("ingest failed: %s", rr.Totals().FatalMessage)
	}
	s.jobs.finish(id, rr, err)
	if err != nil {
		s.logger.Warn("ingest job failed", "job_id", id, "error", err)
		s.hub.Broadcast(ProgressMessage{Type: "error", JobID: id, RunID: rr.RunID, Message: err.Error()})
		return
	}

	t := rr.Totals()
	s.logger.Info("ingest job completed", "job_id", id, "run_id", rr.RunID, "verses", t.Verses, "words", t.Words)
	s.hub.Broadcast(ProgressMessage{
		Type:    "complete",
		JobID:   id,
		RunID:   rr.RunID,
		Verses:  t.Verses,
		Words:   t.Words,
		Message: t.String(),
		Data: map[string]any{
			"flush_errors":   t.FlushErrors,
			"failed_sources": rr.FailedSources(),
			"duration":       rr.Duration.String(),
		},
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	status := JobStatus(r.URL.Query().Get("status"))
	jobs := s.jobs.List()
	if status != "" {
		jobs = slices.DeleteFunc(jobs, func(j Job) bool { return j.Status != status })
	}
	respondList(w, jobs, len(jobs))
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.jobs.Get(id)
	if !ok {
		s.respondErr(w, r, errors.NewNotFound("job", id))
		return
	}
	respond(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.jobs.Cancel(id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	job, _ := s.jobs.Get(id)
	s.hub.Broadcast(ProgressMessage{Type: "cancelled", JobID: id})
	respond(w, http.StatusOK, job)
}
