package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/internal/corpus"
)

// MemoryStore keeps the corpus in maps. A single mutex makes each flush
// atomic with respect to readers.
type MemoryStore struct {
	mu          sync.RWMutex
	nextID      int64
	verses      map[corpus.Key]*corpus.Verse
	order       []corpus.Key
	definitions map[string]corpus.Definition
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		verses:      make(map[corpus.Key]*corpus.Verse),
		definitions: make(map[string]corpus.Definition),
	}
}

// CheckSchema always succeeds.
func (m *MemoryStore) CheckSchema(ctx context.Context) error {
	return ctx.Err()
}

// FlushVerse replaces the verse and its words under the write lock.
func (m *MemoryStore) FlushVerse(ctx context.Context, v *corpus.Verse) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.Validate(); err != nil {
		return errors.NewValidation("verse", err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := v.Key()
	stored, ok := m.verses[key]
	if !ok {
		m.nextID++
		stored = &corpus.Verse{ID: m.nextID, BookID: v.BookID, Chapter: v.Chapter, Verse: v.Verse}
		m.verses[key] = stored
		m.order = append(m.order, key)
	}
	stored.TextContent = strings.TrimSpace(v.TextContent)

	words := make([]corpus.Word, len(v.Words))
	for i, w := range v.Words {
		m.nextID++
		w.ID = m.nextID
		w.VerseID = stored.ID
		words[i] = w
	}
	stored.Words = words

	v.ID = stored.ID
	v.Words = append([]corpus.Word(nil), words...)
	return nil
}

// Chapter returns the verses of one chapter ordered by verse.
func (m *MemoryStore) Chapter(ctx context.Context, bookID string, chapter int) ([]corpus.Verse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []corpus.Verse
	for key, v := range m.verses {
		if key.BookID == bookID && key.Chapter == chapter {
			cp := *v
			cp.Words = nil
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Verse < out[j].Verse })
	return out, nil
}

// Verse returns a copy of one verse with its words.
func (m *MemoryStore) Verse(ctx context.Context, bookID string, chapter, verse int) (*corpus.Verse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := corpus.Key{BookID: bookID, Chapter: chapter, Verse: verse}
	v, ok := m.verses[key]
	if !ok {
		return nil, errors.NewNotFound("verse", key.String())
	}
	cp := *v
	cp.Words = append([]corpus.Word(nil), v.Words...)
	return &cp, nil
}

// SearchWords returns the first matching word of each verse in insertion
// order.
func (m *MemoryStore) SearchWords(ctx context.Context, q WordQuery) ([]corpus.WordHit, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	accept := make(map[string]bool)
	for _, v := range caseVariants(q.Term) {
		accept[v] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []corpus.WordHit
	for _, key := range m.order {
		v := m.verses[key]
		for _, w := range v.Words {
			field := w.Lemma
			if q.Field == ByText {
				field = w.Text
			}
			if !accept[field] {
				continue
			}
			hits = append(hits, corpus.WordHit{
				BookID:       v.BookID,
				Chapter:      v.Chapter,
				Verse:        v.Verse,
				TextContent:  v.TextContent,
				MatchingWord: w.Text,
				Lemma:        w.Lemma,
			})
			break
		}
		if len(hits) == q.Limit {
			break
		}
	}
	return hits, nil
}

// Definition looks up a lemma.
func (m *MemoryStore) Definition(ctx context.Context, lemma string) (*corpus.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.definitions[lemma]
	if !ok {
		return nil, errors.NewNotFound("definition", lemma)
	}
	return &d, nil
}

// HasDefinition reports whether a lemma has an entry.
func (m *MemoryStore) HasDefinition(ctx context.Context, lemma string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.definitions[lemma]
	return ok, nil
}

// UpsertDefinition writes d keyed by lemma.
func (m *MemoryStore) UpsertDefinition(ctx context.Context, d corpus.Definition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Lemma) == "" {
		return errors.NewValidation("lemma", "lemma is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.definitions[d.Lemma]; ok {
		d.ID = existing.ID
	} else {
		m.nextID++
		d.ID = m.nextID
	}
	m.definitions[d.Lemma] = d
	return nil
}

// DistinctLemmas lists the corpus lemmas, sorted.
func (m *MemoryStore) DistinctLemmas(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var lemmas []string
	for _, v := range m.verses {
		for _, w := range v.Words {
			if w.Lemma != "" && !seen[w.Lemma] {
				seen[w.Lemma] = true
				lemmas = append(lemmas, w.Lemma)
			}
		}
	}
	sort.Strings(lemmas)
	return lemmas, nil
}

// Stats counts stored rows.
func (m *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{Verses: len(m.verses), Definitions: len(m.definitions)}
	for _, v := range m.verses {
		st.Words += len(v.Words)
	}
	return st, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
)
