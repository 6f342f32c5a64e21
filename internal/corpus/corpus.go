// Package corpus defines the persisted Greek New Testament model: verses,
// their ordered words, and lemma definitions.
package corpus

import (
	"fmt"
	"strings"
)

// Verse is one verse of the corpus, keyed by (BookID, Chapter, Verse).
// A verse exclusively owns its words; replacing a verse replaces them all.
type Verse struct {
	ID          int64  `json:"id,omitempty" db:"id"`
	BookID      string `json:"book_id" db:"book_id"`
	Chapter     int    `json:"chapter" db:"chapter"`
	Verse       int    `json:"verse" db:"verse"`
	TextContent string `json:"text_content" db:"text_content"`
	Words       []Word `json:"words,omitempty" db:"-"`
}

// Word is one token of a verse. WordOrder is 1-based and contiguous.
type Word struct {
	ID           int64  `json:"id,omitempty" db:"id"`
	VerseID      int64  `json:"verse_id,omitempty" db:"verse_id"`
	Text         string `json:"text" db:"text"`
	Lemma        string `json:"lemma" db:"lemma"`
	Normalized   string `json:"normalized" db:"normalized"`
	PartOfSpeech string `json:"part_of_speech" db:"part_of_speech"`
	Morphology   string `json:"morphology" db:"morphology"`
	WordOrder    int    `json:"word_order" db:"word_order"`
}

// Definition is a lexicon entry for one lemma.
type Definition struct {
	ID         int64  `json:"id,omitempty" db:"id"`
	Lemma      string `json:"lemma" db:"lemma"`
	ShortGloss string `json:"definition_short" db:"definition_short"`
	FullGloss  string `json:"definition_full" db:"definition_full"`
	StrongCode string `json:"strong_code,omitempty" db:"strong_code"`
	Source     string `json:"source,omitempty" db:"source"`
}

// WordHit is one word search result: the matching word and its verse.
type WordHit struct {
	BookID       string `json:"book_id" db:"book_id"`
	Chapter      int    `json:"chapter" db:"chapter"`
	Verse        int    `json:"verse" db:"verse"`
	TextContent  string `json:"text_content" db:"text_content"`
	MatchingWord string `json:"matching_word" db:"text"`
	Lemma        string `json:"lemma" db:"lemma"`
}

// Key identifies a verse.
type Key struct {
	BookID  string
	Chapter int
	Verse   int
}

func (k Key) String() string {
	return fmt.Sprintf("%s.%d.%d", k.BookID, k.Chapter, k.Verse)
}

// Key returns the verse's composite key.
func (v *Verse) Key() Key {
	return Key{BookID: v.BookID, Chapter: v.Chapter, Verse: v.Verse}
}

// Validate checks the invariants a store relies on before writing.
func (v *Verse) Validate() error {
	if v.BookID == "" {
		return fmt.Errorf("verse has no book id")
	}
	if v.Chapter < 1 || v.Verse < 1 {
		return fmt.Errorf("%s: chapter and verse must be positive", v.Key())
	}
	for i, w := range v.Words {
		if w.WordOrder != i+1 {
			return fmt.Errorf("%s: word %d has word_order %d", v.Key(), i+1, w.WordOrder)
		}
	}
	return nil
}

// JoinText builds a verse's text content from its words' surface forms.
func JoinText(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, w.Text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
