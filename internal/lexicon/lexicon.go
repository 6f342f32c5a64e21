// Package lexicon loads Greek lemma definitions from the Strong's Greek
// dictionary XML into a corpus store.
//
// The expected layout is the one published as strongsgreek.xml:
//
//	<strongsdictionary><entries>
//	  <entry strongs="00746">
//	    <strongs>746</strongs>
//	    <greek BETA="A)RXH/" unicode="ἀρχή" translit="archḗ"/>
//	    <strongs_def>(properly abstract) a commencement, ...</strongs_def>
//	    <kjv_def>:--beginning, corner, (at the, the) first (estate), ...</kjv_def>
//	  </entry>
//	</entries></strongsdictionary>
package lexicon

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/text/unicode/norm"

	"github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/internal/corpus"
	"github.com/santapalabra/scripture/internal/logging"
)

// Source is recorded on every definition loaded by this package.
const Source = "strongs"

// EntryPath selects one dictionary entry in the stream.
const EntryPath = "/strongsdictionary/entries/entry"

// Placeholders stored when an entry has no usable gloss.
const (
	NoShortGloss = "No definition found"
	NoFullGloss  = "No details found"
)

var (
	lemmaExpr  = xpath.MustCompile("string(greek/@unicode)")
	numberExpr = xpath.MustCompile("normalize-space(strongs)")
	attrExpr   = xpath.MustCompile("string(@strongs)")
	defExpr    = xpath.MustCompile("normalize-space(strongs_def)")
	kjvExpr    = xpath.MustCompile("normalize-space(kjv_def)")
)

// Reader streams definitions out of a dictionary document without loading
// it whole.
type Reader struct {
	sp *xmlquery.StreamParser
}

// NewReader starts parsing r.
func NewReader(r io.Reader) (*Reader, error) {
	sp, err := xmlquery.CreateStreamParser(r, EntryPath)
	if err != nil {
		return nil, errors.Wrap(err, "create lexicon parser")
	}
	return &Reader{sp: sp}, nil
}

// Next returns the next entry, or io.EOF after the last one. Entries
// without a Greek headword come back with an empty Lemma.
func (r *Reader) Next() (corpus.Definition, error) {
	n, err := r.sp.Read()
	if err != nil {
		if err == io.EOF {
			return corpus.Definition{}, io.EOF
		}
		return corpus.Definition{}, &errors.ParseError{Format: "Strong's XML", Message: err.Error(), Err: err}
	}
	return entryDefinition(n), nil
}

func entryDefinition(n *xmlquery.Node) corpus.Definition {
	d := corpus.Definition{
		Lemma:      norm.NFC.String(strings.TrimSpace(eval(n, lemmaExpr))),
		FullGloss:  eval(n, defExpr),
		ShortGloss: kjvGloss(eval(n, kjvExpr)),
		StrongCode: strongCode(eval(n, numberExpr), eval(n, attrExpr)),
		Source:     Source,
	}
	if d.ShortGloss == "" {
		d.ShortGloss = firstClause(d.FullGloss)
	}
	if d.ShortGloss == "" {
		d.ShortGloss = NoShortGloss
	}
	if d.FullGloss == "" {
		d.FullGloss = NoFullGloss
	}
	return d
}

func eval(n *xmlquery.Node, e *xpath.Expr) string {
	s, _ := e.Evaluate(xmlquery.CreateXPathNavigator(n)).(string)
	return s
}

// kjvGloss strips the ":--" lead-in and the closing period.
func kjvGloss(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), ":--"))
	return strings.TrimSuffix(s, ".")
}

func firstClause(s string) string {
	if i := strings.IndexAny(s, ";:"); i > 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// strongCode renders "G746" from the <strongs> element, falling back to the
// zero-padded entry attribute.
func strongCode(number, attr string) string {
	for _, s := range []string{number, attr} {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			return "G" + strconv.Itoa(n)
		}
	}
	return ""
}

// Store is the part of the corpus store the loader needs.
type Store interface {
	HasDefinition(ctx context.Context, lemma string) (bool, error)
	UpsertDefinition(ctx context.Context, d corpus.Definition) error
	DistinctLemmas(ctx context.Context) ([]string, error)
}

// Options controls which entries Load writes.
type Options struct {
	// Overwrite replaces existing definitions instead of skipping them.
	Overwrite bool
	// CorpusOnly limits loading to lemmas that occur in the corpus.
	CorpusOnly bool
	Logger     *slog.Logger
}

// Result counts what Load did.
type Result struct {
	Read            int `json:"read"`
	Written         int `json:"written"`
	SkippedExisting int `json:"skipped_existing"`
	NotInCorpus     int `json:"not_in_corpus"`
	Invalid         int `json:"invalid"`
}

// Load reads a dictionary document and upserts its definitions.
func Load(ctx context.Context, st Store, r io.Reader, opts Options) (Result, error) {
	var res Result
	log := logging.Or(opts.Logger)

	var wanted map[string]bool
	if opts.CorpusOnly {
		lemmas, err := st.DistinctLemmas(ctx)
		if err != nil {
			return res, errors.Wrap(err, "list corpus lemmas")
		}
		wanted = make(map[string]bool, len(lemmas))
		for _, l := range lemmas {
			wanted[norm.NFC.String(l)] = true
		}
	}

	lr, err := NewReader(r)
	if err != nil {
		return res, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		d, err := lr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, err
		}
		res.Read++

		switch {
		case d.Lemma == "":
			res.Invalid++
			log.Debug("skipping lexicon entry without headword", "strong_code", d.StrongCode)
			continue
		case wanted != nil && !wanted[d.Lemma]:
			res.NotInCorpus++
			continue
		}

		if !opts.Overwrite {
			exists, err := st.HasDefinition(ctx, d.Lemma)
			if err != nil {
				return res, err
			}
			if exists {
				res.SkippedExisting++
				continue
			}
		}
		if err := st.UpsertDefinition(ctx, d); err != nil {
			return res, err
		}
		res.Written++
	}

	log.Info("lexicon loaded", "read", res.Read, "written", res.Written,
		"skipped_existing", res.SkippedExisting, "not_in_corpus", res.NotInCorpus, "invalid", res.Invalid)
	return res, nil
}
