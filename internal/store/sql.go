package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/internal/corpus"
)

// Dialect selects SQL placeholders and migrations.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect maps a configured driver name to a dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	}
	return "", errors.NewValidation("database.driver", fmt.Sprintf("unsupported driver %q", driver))
}

// bindDriver is the driver name sqlx uses to pick placeholders.
func (d Dialect) bindDriver() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite3"
}

const (
	upsertVerseSQL = `INSERT INTO greek_bible_verses (book_id, chapter, verse, text_content)
VALUES (?, ?, ?, ?)
ON CONFLICT (book_id, chapter, verse) DO UPDATE SET text_content = excluded.text_content
RETURNING id`

	deleteWordsSQL = `DELETE FROM greek_bible_words WHERE verse_id = ?`

	insertWordsSQL = `INSERT INTO greek_bible_words
(verse_id, text, lemma, normalized, part_of_speech, morphology, word_order)
VALUES (:verse_id, :text, :lemma, :normalized, :part_of_speech, :morphology, :word_order)`

	chapterSQL = `SELECT id, book_id, chapter, verse, text_content FROM greek_bible_verses
WHERE book_id = ? AND chapter = ? ORDER BY verse`

	verseSQL = `SELECT id, book_id, chapter, verse, text_content FROM greek_bible_verses
WHERE book_id = ? AND chapter = ? AND verse = ?`

	verseWordsSQL = `SELECT id, verse_id, text, lemma, normalized, part_of_speech, morphology, word_order
FROM greek_bible_words WHERE verse_id = ? ORDER BY word_order`

	// searchSQL keeps the first matching word of each verse. %s is a
	// whitelisted column name.
	searchSQL = `SELECT v.book_id, v.chapter, v.verse, v.text_content, w.text, w.lemma
FROM greek_bible_words w JOIN greek_bible_verses v ON v.id = w.verse_id
WHERE w.id IN (
	SELECT MIN(w2.id) FROM greek_bible_words w2 WHERE w2.%s IN (?) GROUP BY w2.verse_id
)
ORDER BY v.id
LIMIT ?`

	definitionSQL = `SELECT id, lemma, definition_short, definition_full, strong_code, source
FROM greek_definitions WHERE lemma = ?`

	hasDefinitionSQL = `SELECT COUNT(*) FROM greek_definitions WHERE lemma = ?`

	upsertDefinitionSQL = `INSERT INTO greek_definitions (lemma, definition_short, definition_full, strong_code, source)
VALUES (:lemma, :definition_short, :definition_full, :strong_code, :source)
ON CONFLICT (lemma) DO UPDATE SET
	definition_short = excluded.definition_short,
	definition_full = excluded.definition_full,
	strong_code = excluded.strong_code,
	source = excluded.source`

	lemmasSQL = `SELECT DISTINCT lemma FROM greek_bible_words WHERE lemma <> '' ORDER BY lemma`

	statsSQL = `SELECT
	(SELECT COUNT(*) FROM greek_bible_verses) AS verses,
	(SELECT COUNT(*) FROM greek_bible_words) AS words,
	(SELECT COUNT(*) FROM greek_definitions) AS definitions`
)

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewSQL wraps an open database. The caller keeps ownership of opening it;
// Close closes it.
func NewSQL(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: sqlx.NewDb(db, dialect.bindDriver()), dialect: dialect}
}

// Dialect returns the store's SQL dialect.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// DB returns the underlying handle.
func (s *SQLStore) DB() *sql.DB {
	return s.db.DB
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// CheckSchema probes each table.
func (s *SQLStore) CheckSchema(ctx context.Context) error {
	for _, table := range Tables {
		rows, err := s.db.QueryContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1")
		if err != nil {
			return classify(table, err)
		}
		rows.Close()
	}
	return nil
}

// FlushVerse upserts the verse, deletes its words and inserts the new ones
// inside one transaction.
func (s *SQLStore) FlushVerse(ctx context.Context, v *corpus.Verse) (err error) {
	if err := v.Validate(); err != nil {
		return errors.NewValidation("verse", err.Error())
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify("", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var id int64
	if err = tx.QueryRowxContext(ctx, s.db.Rebind(upsertVerseSQL),
		v.BookID, v.Chapter, v.Verse, strings.TrimSpace(v.TextContent)).Scan(&id); err != nil {
		return errors.Wrapf(classify(TableVerses, err), "upsert verse %s", v.Key())
	}

	if _, err = tx.ExecContext(ctx, s.db.Rebind(deleteWordsSQL), id); err != nil {
		return errors.Wrapf(classify(TableWords, err), "delete words of %s", v.Key())
	}

	words := make([]corpus.Word, len(v.Words))
	for i, w := range v.Words {
		w.VerseID = id
		words[i] = w
	}
	if len(words) > 0 {
		if _, err = tx.NamedExecContext(ctx, insertWordsSQL, words); err != nil {
			return errors.Wrapf(classify(TableWords, err), "insert words of %s", v.Key())
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrapf(classify("", err), "commit %s", v.Key())
	}

	v.ID = id
	v.Words = words
	return nil
}

// Chapter returns the verses of one chapter.
func (s *SQLStore) Chapter(ctx context.Context, bookID string, chapter int) ([]corpus.Verse, error) {
	var verses []corpus.Verse
	if err := s.db.SelectContext(ctx, &verses, s.db.Rebind(chapterSQL), bookID, chapter); err != nil {
		return nil, classify(TableVerses, err)
	}
	return verses, nil
}

// Verse returns one verse with its words.
func (s *SQLStore) Verse(ctx context.Context, bookID string, chapter, verse int) (*corpus.Verse, error) {
	var v corpus.Verse
	if err := s.db.GetContext(ctx, &v, s.db.Rebind(verseSQL), bookID, chapter, verse); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("verse", fmt.Sprintf("%s.%d.%d", bookID, chapter, verse))
		}
		return nil, classify(TableVerses, err)
	}
	if err := s.db.SelectContext(ctx, &v.Words, s.db.Rebind(verseWordsSQL), v.ID); err != nil {
		return nil, classify(TableWords, err)
	}
	return &v, nil
}

// SearchWords matches a lemma or surface form case-insensitively.
func (s *SQLStore) SearchWords(ctx context.Context, q WordQuery) ([]corpus.WordHit, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	query, args, err := sqlx.In(fmt.Sprintf(searchSQL, q.Field), caseVariants(q.Term), q.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "build search query")
	}

	var hits []corpus.WordHit
	if err := s.db.SelectContext(ctx, &hits, s.db.Rebind(query), args...); err != nil {
		return nil, classify(TableWords, err)
	}
	return hits, nil
}

// Definition looks up a lemma.
func (s *SQLStore) Definition(ctx context.Context, lemma string) (*corpus.Definition, error) {
	var d corpus.Definition
	if err := s.db.GetContext(ctx, &d, s.db.Rebind(definitionSQL), lemma); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("definition", lemma)
		}
		return nil, classify(TableDefinitions, err)
	}
	return &d, nil
}

// HasDefinition reports whether a lemma has an entry.
func (s *SQLStore) HasDefinition(ctx context.Context, lemma string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(hasDefinitionSQL), lemma); err != nil {
		return false, classify(TableDefinitions, err)
	}
	return n > 0, nil
}

// UpsertDefinition writes d keyed by lemma.
func (s *SQLStore) UpsertDefinition(ctx context.Context, d corpus.Definition) error {
	if strings.TrimSpace(d.Lemma) == "" {
		return errors.NewValidation("lemma", "lemma is required")
	}
	if _, err := s.db.NamedExecContext(ctx, upsertDefinitionSQL, d); err != nil {
		return errors.Wrapf(classify(TableDefinitions, err), "upsert definition %s", d.Lemma)
	}
	return nil
}

// DistinctLemmas lists the corpus lemmas.
func (s *SQLStore) DistinctLemmas(ctx context.Context) ([]string, error) {
	var lemmas []string
	if err := s.db.SelectContext(ctx, &lemmas, lemmasSQL); err != nil {
		return nil, classify(TableWords, err)
	}
	return lemmas, nil
}

// Stats counts rows in each table.
func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.GetContext(ctx, &st, statsSQL); err != nil {
		return Stats{}, classify("", err)
	}
	return st, nil
}

// transientSQLite are SQLite error fragments worth retrying.
var transientSQLite = []string{"database is locked", "SQLITE_BUSY", "database table is locked"}

// transientPGClasses are PostgreSQL SQLSTATE classes worth retrying:
// connection exceptions, insufficient resources, operator intervention and
// transaction rollbacks (serialization failures, deadlocks).
var transientPGClasses = map[pq.ErrorClass]bool{"08": true, "53": true, "57": true, "40": true}

// classify maps driver errors onto the error taxonomy: missing tables become
// SchemaError, retryable failures are marked transient, the rest pass
// through unchanged.
func classify(table string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "42P01":
			return errors.NewSchema(table, err)
		case transientPGClasses[pqErr.Code.Class()]:
			return errors.Transient(err)
		}
		return err
	}

	msg := err.Error()
	if i := strings.Index(msg, "no such table: "); i >= 0 {
		missing := strings.Fields(msg[i+len("no such table: "):])
		if len(missing) > 0 {
			table = strings.TrimRight(missing[0], ",;)")
		}
		return errors.NewSchema(table, err)
	}
	for _, frag := range transientSQLite {
		if strings.Contains(msg, frag) {
			return errors.Transient(err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) {
		return errors.Transient(err)
	}
	return err
}
