package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ulikunitz/xz"
	"golang.org/x/text/unicode/norm"

	"github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/core/refs"
	"github.com/santapalabra/scripture/internal/config"
	"github.com/santapalabra/scripture/internal/corpus"
	"github.com/santapalabra/scripture/internal/ingest"
	"github.com/santapalabra/scripture/internal/lexicon"
	"github.com/santapalabra/scripture/internal/logging"
	"github.com/santapalabra/scripture/internal/store"
)

func retryPolicy(cfg config.Config) ingest.Retry {
	return ingest.Retry{Attempts: cfg.Ingest.FlushAttempts, Backoff: cfg.Ingest.FlushBackoff}
}

// IngestCmd ingests local files or the remote SBLGNT corpus.
type IngestCmd struct {
	Paths   []string `arg:"" optional:"" help:"MorphGNT files (.txt or .xz)" type:"path"`
	Remote  bool     `help:"Fetch the SBLGNT files from the configured source URL"`
	Books   []string `help:"With --remote, only these OSIS book ids (e.g. John,Rev)"`
	Jobs    int      `short:"j" help:"Books ingested in parallel (default from config)"`
	Migrate bool     `help:"Apply schema migrations first"`
	JSON    bool     `name:"json" help:"Print the run report as JSON"`
}

func (c *IngestCmd) Run(ctx context.Context, g *Globals) error {
	if c.Remote == (len(c.Paths) > 0) {
		return errors.NewValidation("paths", "give either file paths or --remote")
	}
	if len(c.Books) > 0 && !c.Remote {
		return errors.NewValidation("books", "--books only applies to --remote")
	}

	st, cfg, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if c.Migrate {
		if _, err := st.Migrate(); err != nil {
			return err
		}
	}

	var sources []ingest.Source
	if c.Remote {
		sources, err = ingest.SBLGNTBookSources(refs.Default().Registry(), ingest.RemoteOptions{
			BaseURL:   cfg.Ingest.SourceBaseURL,
			PerSecond: cfg.Ingest.FetchPerSecond,
			Retry:     retryPolicy(cfg),
		}, c.Books)
		if err != nil {
			return err
		}
	} else {
		for _, p := range c.Paths {
			sources = append(sources, ingest.FileSource{Path: p})
		}
	}

	jobs := c.Jobs
	if jobs <= 0 {
		jobs = cfg.Ingest.Jobs
	}
	p := ingest.New(st, ingest.WithRetry(retryPolicy(cfg)), ingest.WithLogger(logging.GetLogger()))
	rr, runErr := p.IngestAll(ctx, sources, jobs)

	if c.JSON {
		enc := json.NewEncoder(g.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rr); err != nil {
			return err
		}
	} else {
		for _, r := range rr.Sources {
			g.printf("%s\n", r)
		}
		total := rr.Totals()
		g.printf("%s in %s\n", &total, rr.Duration.Round(time.Millisecond))
		if failed := rr.FailedSources(); len(failed) > 0 {
			g.printf("%d sources could not be read: %s\n", len(failed), strings.Join(failed, ", "))
		}
	}

	if runErr != nil {
		return runErr
	}
	if rr.Fatal() {
		return fmt.Errorf("ingest halted: %s", rr.Totals().FatalMessage)
	}
	return nil
}

// MigrateCmd applies the schema migrations.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx context.Context, g *Globals) error {
	st, cfg, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	v, err := st.Migrate()
	if err != nil {
		return err
	}
	g.printf("%s schema at version %d\n", cfg.Database.Driver, v)
	return nil
}

// LexiconLoadCmd loads lemma definitions.
type LexiconLoadCmd struct {
	Path       string `arg:"" help:"Strong's Greek dictionary XML (.xml or .xml.xz)" type:"existingfile"`
	Overwrite  bool   `help:"Replace definitions that already exist"`
	CorpusOnly bool   `name:"corpus-only" help:"Only load lemmas that occur in the corpus"`
}

func (c *LexiconLoadCmd) Run(ctx context.Context, g *Globals) error {
	f, err := os.Open(c.Path)
	if err != nil {
		return errors.NewIO("open", c.Path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(c.Path), ".xz") {
		zr, err := xz.NewReader(f)
		if err != nil {
			return &errors.ParseError{Format: "xz", Path: c.Path, Message: err.Error(), Err: err}
		}
		r = zr
	}

	st, _, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.CheckSchema(ctx); err != nil {
		return err
	}

	res, err := lexicon.Load(ctx, st, r, lexicon.Options{
		Overwrite:  c.Overwrite,
		CorpusOnly: c.CorpusOnly,
		Logger:     logging.GetLogger(),
	})
	if err != nil {
		return err
	}
	g.printf("read %d entries: %d written, %d already defined, %d not in corpus, %d invalid\n",
		res.Read, res.Written, res.SkippedExisting, res.NotInCorpus, res.Invalid)
	return nil
}

// passage resolves a reference given as OSIS ("John.1.1-3") or as a
// citation ("Jn 1:1-3").
func passage(text string) (refs.Reference, error) {
	linker := refs.Default()
	if ref, err := linker.ParseOSIS(text); err == nil {
		return ref, nil
	}
	found := linker.Extract(text)
	if len(found) == 0 {
		return refs.Reference{}, errors.NewValidation("reference", fmt.Sprintf("no scripture reference in %q", text))
	}
	ref := found[0]
	if ref.Chapter > ref.Book.Chapters {
		return refs.Reference{}, errors.NewValidation("chapter",
			fmt.Sprintf("%s has %d chapters", ref.Book.Name, ref.Book.Chapters))
	}
	return ref, nil
}

// ReadCmd prints verses from the corpus.
type ReadCmd struct {
	Reference []string `arg:"" help:"Passage, e.g. 'John 1:1-3' or John.1"`
	Words     bool     `short:"w" help:"Print each word with its lemma and parsing (single verse)"`
}

func (c *ReadCmd) Run(ctx context.Context, g *Globals) error {
	ref, err := passage(strings.Join(c.Reference, " "))
	if err != nil {
		return err
	}

	st, _, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if c.Words && ref.HasVerse() {
		v, err := st.Verse(ctx, ref.Book.ID, ref.Chapter, ref.VerseStart.Number)
		if err != nil {
			return err
		}
		g.printf("%s %d:%d %s\n", ref.Book.Name, v.Chapter, v.Verse, v.TextContent)
		tw := tabwriter.NewWriter(g.out, 0, 4, 2, ' ', 0)
		for _, w := range v.Words {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", w.WordOrder, w.Text, w.Lemma, w.PartOfSpeech, w.Morphology)
		}
		return tw.Flush()
	}

	var verses []corpus.Verse
	for ch := ref.Chapter; ch <= max(ref.ChapterEnd, ref.Chapter); ch++ {
		chapter, err := st.Chapter(ctx, ref.Book.ID, ch)
		if err != nil {
			return err
		}
		for _, v := range chapter {
			if ref.HasVerse() && (v.Verse < ref.VerseStart.Number || v.Verse > ref.EndVerse()) {
				continue
			}
			verses = append(verses, v)
		}
	}
	if len(verses) == 0 {
		return errors.NewNotFound("passage", ref.OSIS())
	}
	for _, v := range verses {
		g.printf("%s %d:%d %s\n", ref.Book.Name, v.Chapter, v.Verse, v.TextContent)
	}
	return nil
}

// SearchCmd finds verses containing a word.
type SearchCmd struct {
	Term  string `arg:"" help:"Lemma or surface form (Greek)"`
	Field string `short:"f" enum:"lemma,text" default:"lemma" help:"Match the lemma or the surface form (${enum})"`
	Limit int    `short:"n" default:"20" help:"Maximum number of verses"`
}

func (c *SearchCmd) Run(ctx context.Context, g *Globals) error {
	st, _, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	hits, err := st.SearchWords(ctx, store.WordQuery{
		Field: store.SearchField(c.Field),
		Term:  norm.NFC.String(c.Term),
		Limit: c.Limit,
	})
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		g.printf("no verses contain %q\n", c.Term)
		return nil
	}

	reg := refs.Default().Registry()
	tw := tabwriter.NewWriter(g.out, 0, 4, 2, ' ', 0)
	for _, h := range hits {
		name := h.BookID
		if b, ok := reg.ByID(h.BookID); ok {
			name = b.Name
		}
		fmt.Fprintf(tw, "%s %d:%d\t%s\t%s\n", name, h.Chapter, h.Verse, h.MatchingWord, h.TextContent)
	}
	return tw.Flush()
}

// DefineCmd prints a lemma's definition.
type DefineCmd struct {
	Lemma string `arg:"" help:"Greek lemma"`
	Full  bool   `help:"Print the full gloss as well"`
}

func (c *DefineCmd) Run(ctx context.Context, g *Globals) error {
	st, _, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	d, err := st.Definition(ctx, norm.NFC.String(strings.TrimSpace(c.Lemma)))
	if err != nil {
		return err
	}
	if d.StrongCode != "" {
		g.printf("%s (%s): %s\n", d.Lemma, d.StrongCode, d.ShortGloss)
	} else {
		g.printf("%s: %s\n", d.Lemma, d.ShortGloss)
	}
	if c.Full {
		g.printf("%s\n", d.FullGloss)
	}
	return nil
}

// WatchCmd re-ingests corpus files as they change.
type WatchCmd struct {
	Paths    []string      `arg:"" help:"Files or directories to watch" type:"path"`
	Debounce time.Duration `default:"500ms" help:"Quiet period before a changed file is re-ingested"`
	Migrate  bool          `help:"Apply schema migrations first"`
}

func (c *WatchCmd) Run(ctx context.Context, g *Globals) error {
	st, cfg, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if c.Migrate {
		if _, err := st.Migrate(); err != nil {
			return err
		}
	}
	if err := st.CheckSchema(ctx); err != nil {
		return err
	}

	p := ingest.New(st, ingest.WithRetry(retryPolicy(cfg)), ingest.WithLogger(logging.GetLogger()))
	w := ingest.NewWatcher(p, c.Debounce, func(r *ingest.Report, err error) {
		if err != nil {
			logging.Error("re-ingest failed", "error", err)
		}
		if r != nil {
			g.printf("%s\n", r)
		}
	})
	return w.Run(ctx, c.Paths...)
}
