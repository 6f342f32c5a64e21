package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// IngestAll runs every source under one run id, at most jobs at a time.
// Each source gets its own State, so verses never span sources. A source
// that cannot be read is marked failed in its report and the others go on;
// only a halting error (see Halts) cancels the sources still running or
// queued and is returned. The run report always has one entry per source,
// in input order.
func (p *Pipeline) IngestAll(ctx context.Context, sources []Source, jobs int) (*RunReport, error) {
	if jobs < 1 {
		jobs = 1
	}
	start := time.Now()
	rr := &RunReport{RunID: uuid.NewString(), Sources: make([]*Report, len(sources))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				r := &Report{RunID: rr.RunID, Source: src.Name()}
				r.stop(err)
				rr.Sources[i] = r
				return nil
			}
			report, err := p.run(gctx, rr.RunID, src)
			rr.Sources[i] = report
			if err != nil && Halts(err) {
				return err
			}
			return nil
		})
	}
	err := g.Wait()
	rr.Duration = time.Since(start)
	return rr, err
}
