// Package ingest loads MorphGNT word records into a corpus store.
//
// A source is read line by line; consecutive records sharing a
// (book, chapter, verse) key are folded into one verse by State, and each
// finished verse is flushed to the store as a unit. Malformed lines and
// unknown book numbers are counted and skipped. A store without the corpus
// schema aborts the run.
package ingest

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/santapalabra/scripture/core/canon"
	"github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/core/morph"
	"github.com/santapalabra/scripture/internal/corpus"
	"github.com/santapalabra/scripture/internal/logging"
	"github.com/santapalabra/scripture/internal/metrics"
)

// Sink is the part of the store the pipeline writes to.
type Sink interface {
	CheckSchema(ctx context.Context) error
	FlushVerse(ctx context.Context, v *corpus.Verse) error
}

// Progress is reported after every flushed verse.
type Progress struct {
	RunID  string     `json:"run_id"`
	Source string     `json:"source"`
	Verse  corpus.Key `json:"verse"`
	Verses int        `json:"verses"`
	Words  int        `json:"words"`
}

// Pipeline ingests sources into a Sink. It is safe for concurrent use;
// each run keeps its own state.
type Pipeline struct {
	sink     Sink
	registry *canon.Registry
	logger   *slog.Logger
	retry    Retry
	progress func(Progress)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRegistry maps book numbers through reg instead of the default canon.
func WithRegistry(reg *canon.Registry) Option {
	return func(p *Pipeline) { p.registry = reg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithRetry sets the flush retry policy.
func WithRetry(r Retry) Option {
	return func(p *Pipeline) { p.retry = r }
}

// WithProgress registers a callback invoked after each flushed verse. It
// runs on the ingesting goroutine and must not block.
func WithProgress(fn func(Progress)) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// New returns a pipeline writing to sink.
func New(sink Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		sink:     sink,
		registry: canon.Default(),
		retry:    DefaultRetry,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.Or(p.logger)
	return p
}

// Run ingests one source under a fresh run id.
func (p *Pipeline) Run(ctx context.Context, src Source) (*Report, error) {
	return p.run(ctx, uuid.NewString(), src)
}

func (p *Pipeline) run(ctx context.Context, runID string, src Source) (*Report, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		report := &Report{RunID: runID, Source: src.Name()}
		report.stop(err)
		p.logger.Error("cannot open source", "run_id", runID, "source", src.Name(), "error", err)
		metrics.RecordIngestRun(report.result(), 0)
		return report, err
	}
	defer rc.Close()
	return p.ingest(ctx, runID, src.Name(), rc)
}

// Ingest reads records from r. The returned error is non-nil when the
// source could not be read to its end or the run was halted; per-line and
// per-verse failures are counted in the report.
func (p *Pipeline) Ingest(ctx context.Context, name string, r io.Reader) (*Report, error) {
	return p.ingest(ctx, uuid.NewString(), name, r)
}

func (p *Pipeline) ingest(ctx context.Context, runID, name string, r io.Reader) (report *Report, err error) {
	start := time.Now()
	report = &Report{RunID: runID, Source: name}
	log := p.logger.With("run_id", runID, "source", name)

	defer func() {
		report.Duration = time.Since(start)
		if err != nil {
			report.stop(err)
			if report.Fatal {
				log.Error("ingest halted", "error", err)
			} else {
				log.Error("source failed", "error", err)
			}
		}
		metrics.RecordSkipped("malformed", report.Skipped)
		metrics.RecordSkipped("unmapped", report.Unmapped)
		metrics.RecordIngestRun(report.result(), report.Duration)
		logging.IngestFinished(p.logger, runID, name, report.Verses, report.Words,
			report.Skipped+report.Unmapped, report.FlushErrors, report.Duration, "fatal", report.Fatal)
	}()

	if err := p.sink.CheckSchema(ctx); err != nil {
		return report, errors.Wrap(err, "store preflight")
	}
	logging.IngestStarted(p.logger, runID, name)

	hasher := blake3.New()
	sc := morph.NewScanner(io.TeeReader(r, hasher), name)

	var state State
	for sc.Next() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rec, perr := sc.Record()
		if perr != nil {
			report.Skipped++
			log.Debug("skipping malformed line", "error", perr)
			continue
		}
		book, ok := p.registry.ByNumber(rec.BookNumber)
		if !ok {
			report.Unmapped++
			log.Debug("skipping unmapped book number", "line", rec.Line, "book_number", rec.BookNumber)
			continue
		}

		var done *corpus.Verse
		state, done = state.Step(rec, book)
		if done != nil {
			if err := p.flush(ctx, log, report, done); err != nil {
				return report, err
			}
		}
	}
	report.Lines = sc.Line()
	report.Blank = sc.Blank()

	// Verses already flushed stay, so the one in progress is kept too.
	if last := state.Finish(); last != nil {
		if err := p.flush(ctx, log, report, last); err != nil {
			return report, err
		}
	}
	if err := sc.Err(); err != nil {
		return report, err
	}
	report.Digest = hex.EncodeToString(hasher.Sum(nil))
	return report, nil
}

// flush writes one verse with retries. Only a missing schema or a finished
// context is returned; other failures are counted and the run goes on.
func (p *Pipeline) flush(ctx context.Context, log *slog.Logger, report *Report, v *corpus.Verse) error {
	attempts, err := p.retry.Do(ctx, func() error {
		return p.sink.FlushVerse(ctx, v)
	}, func(attempt int, err error) {
		metrics.RecordFlushRetry()
		log.Warn("retrying verse flush", "verse", v.Key().String(), "attempt", attempt, "error", err)
	})

	switch {
	case err == nil:
		report.Verses++
		report.Words += len(v.Words)
		metrics.RecordFlush(report.Source, len(v.Words))
		if p.progress != nil {
			p.progress(Progress{
				RunID:  report.RunID,
				Source: report.Source,
				Verse:  v.Key(),
				Verses: report.Verses,
				Words:  report.Words,
			})
		}
		return nil
	case errors.Is(err, errors.ErrSchemaMissing):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	}

	report.addFlushError(errors.Wrapf(err, "flush %s", v.Key()))
	metrics.RecordFlushError()
	logging.FlushFailed(log, v.Key().String(), attempts, err)
	return nil
}
