package ingest

import (
	"strings"

	"github.com/santapalabra/scripture/core/canon"
	"github.com/santapalabra/scripture/core/morph"
	"github.com/santapalabra/scripture/internal/corpus"
)

// State is the verse being accumulated from consecutive records. The zero
// value is an empty cursor. Each Step returns the next state; callers
// replace theirs with it.
type State struct {
	active bool
	key    corpus.Key
	texts  []string
	words  []corpus.Word
}

// Active reports whether a verse is being accumulated.
func (s State) Active() bool {
	return s.active
}

// Key returns the key of the verse being accumulated.
func (s State) Key() corpus.Key {
	return s.key
}

// Len returns the number of words accumulated so far.
func (s State) Len() int {
	return len(s.words)
}

// Step folds one record into the state. When the record starts a new verse,
// the finished verse is returned alongside the new state.
func (s State) Step(rec morph.Record, book *canon.Book) (State, *corpus.Verse) {
	key := corpus.Key{BookID: book.ID, Chapter: rec.Chapter, Verse: rec.Verse}

	var done *corpus.Verse
	if s.active && s.key != key {
		done = s.verse()
		s = State{}
	}
	if !s.active {
		s = State{active: true, key: key}
	}

	s.texts = append(s.texts, rec.Text)
	s.words = append(s.words, corpus.Word{
		Text:         rec.Text,
		Lemma:        rec.Lemma,
		Normalized:   rec.Normalized,
		PartOfSpeech: rec.PartOfSpeech,
		Morphology:   rec.Morphology,
		WordOrder:    len(s.words) + 1,
	})
	return s, done
}

// Finish returns the verse in progress, or nil when nothing was
// accumulated.
func (s State) Finish() *corpus.Verse {
	if !s.active {
		return nil
	}
	return s.verse()
}

func (s State) verse() *corpus.Verse {
	return &corpus.Verse{
		BookID:      s.key.BookID,
		Chapter:     s.key.Chapter,
		Verse:       s.key.Verse,
		TextContent: strings.TrimSpace(strings.Join(s.texts, " ")),
		Words:       append([]corpus.Word(nil), s.words...),
	}
}
