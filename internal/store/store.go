// Package store persists the Greek corpus and serves the reader queries.
//
// Two adapters implement Store: SQLStore over SQLite or PostgreSQL (via
// sqlx), and MemoryStore for tests and ephemeral runs. Both replace a
// verse's words atomically.
package store

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/internal/corpus"
)

// Table names.
const (
	TableVerses      = "greek_bible_verses"
	TableWords       = "greek_bible_words"
	TableDefinitions = "greek_definitions"
)

// Tables lists every table the store needs, in creation order.
var Tables = []string{TableVerses, TableWords, TableDefinitions}

// DefaultSearchLimit caps word search results when the query sets no limit.
const DefaultSearchLimit = 20

// MaxSearchLimit is the largest accepted word search limit.
const MaxSearchLimit = 200

// SearchField selects the word column a search matches.
type SearchField string

// Search fields.
const (
	ByLemma SearchField = "lemma"
	ByText  SearchField = "text"
)

// WordQuery is a word search: one matching word per verse, up to Limit
// verses.
type WordQuery struct {
	Field SearchField
	Term  string
	Limit int
}

// Normalize validates q and fills defaults.
func (q WordQuery) Normalize() (WordQuery, error) {
	q.Term = strings.TrimSpace(q.Term)
	if q.Term == "" {
		return q, errors.NewValidation("q", "search term is required")
	}
	switch q.Field {
	case "":
		q.Field = ByLemma
	case ByLemma, ByText:
	default:
		return q, errors.NewValidation("field", fmt.Sprintf("unknown search field %q", q.Field))
	}
	if q.Limit <= 0 {
		q.Limit = DefaultSearchLimit
	}
	if q.Limit > MaxSearchLimit {
		q.Limit = MaxSearchLimit
	}
	return q, nil
}

// caseVariants returns the spellings a case-insensitive match must accept:
// the term as typed, all lowercase, and capitalized. SQLite folds only ASCII,
// so Greek matching cannot rely on LOWER or LIKE.
func caseVariants(term string) []string {
	lower := strings.ToLower(term)
	variants := []string{term, lower}
	if r, size := utf8.DecodeRuneInString(lower); r != utf8.RuneError {
		variants = append(variants, string(unicode.ToUpper(r))+lower[size:])
	}

	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, v := range variants {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Stats counts stored rows.
type Stats struct {
	Verses      int `json:"verses" db:"verses"`
	Words       int `json:"words" db:"words"`
	Definitions int `json:"definitions" db:"definitions"`
}

// Store is the persistence contract for ingestion and reading.
type Store interface {
	// CheckSchema returns an error matching errors.ErrSchemaMissing when a
	// required table is absent.
	CheckSchema(ctx context.Context) error

	// FlushVerse upserts v on (book_id, chapter, verse) and replaces its
	// words in one atomic step. It sets v.ID and each word's VerseID.
	FlushVerse(ctx context.Context, v *corpus.Verse) error

	// Chapter returns a chapter's verses ordered by verse number, without words.
	Chapter(ctx context.Context, bookID string, chapter int) ([]corpus.Verse, error)

	// Verse returns one verse with its words in word order.
	Verse(ctx context.Context, bookID string, chapter, verse int) (*corpus.Verse, error)

	// SearchWords finds verses containing a word by lemma or surface form.
	SearchWords(ctx context.Context, q WordQuery) ([]corpus.WordHit, error)

	Definition(ctx context.Context, lemma string) (*corpus.Definition, error)
	HasDefinition(ctx context.Context, lemma string) (bool, error)

	// UpsertDefinition inserts d or overwrites the entry for d.Lemma.
	UpsertDefinition(ctx context.Context, d corpus.Definition) error

	// DistinctLemmas returns every non-empty lemma in the corpus, sorted.
	DistinctLemmas(ctx context.Context) ([]string, error)

	Stats(ctx context.Context) (Stats, error)
	Close() error
}
