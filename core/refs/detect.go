package refs

import (
	"github.com/santapalabra/scripture/core/canon"
)

// Detector guesses the language of a text. It reports false when it has no
// opinion.
type Detector interface {
	Detect(text string) (Language, bool)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(text string) (Language, bool)

// Detect calls f.
func (f DetectorFunc) Detect(text string) (Language, bool) {
	return f(text)
}

// Resolve asks d for the language of text and falls back when d is nil,
// has no opinion, or returns a language this package does not support. An
// empty fallback means English.
func Resolve(d Detector, text string, fallback Language) Language {
	if fallback == "" {
		fallback = English
	}
	if d == nil {
		return fallback
	}
	lang, ok := d.Detect(text)
	if !ok {
		return fallback
	}
	if _, known := versionCodes[lang]; !known {
		return fallback
	}
	return lang
}

// KeywordSet is one language's marker words.
type KeywordSet struct {
	Language Language
	Words    []string
}

// DefaultKeywords are checked in order; the first language with a matching
// word wins. Spanish precedes Portuguese, so "lucas" alone reads as Spanish.
// English spellings ("genesis", "exodus") are not German markers.
var DefaultKeywords = []KeywordSet{
	{Spanish, []string{"génesis", "éxodo", "mateo", "marcos", "lucas", "juan"}},
	{Italian, []string{"genesi", "esodo", "matteo", "marco", "luca", "giovanni"}},
	{French, []string{"genèse", "exode", "matthieu", "marc", "luc", "jean"}},
	{German, []string{"matthäus", "markus", "lukas", "johannes"}},
	{Portuguese, []string{"gênesis", "êxodo", "mateus", "marcos", "lucas", "joão"}},
	{Greek, []string{"λόγος", "ἀγάπη", "πίστις"}},
	{Latin, []string{"verbum", "agape", "fides"}},
}

// KeywordDetector matches whole words of the text against ordered keyword
// sets. Matching is case-insensitive and Unicode-normalized.
type KeywordDetector struct {
	order []Language
	sets  map[Language]map[string]bool
}

// NewKeywordDetector builds a detector from sets, or DefaultKeywords when
// sets is empty.
func NewKeywordDetector(sets ...KeywordSet) *KeywordDetector {
	if len(sets) == 0 {
		sets = DefaultKeywords
	}
	d := &KeywordDetector{sets: make(map[Language]map[string]bool)}
	for _, s := range sets {
		words, ok := d.sets[s.Language]
		if !ok {
			words = make(map[string]bool)
			d.sets[s.Language] = words
			d.order = append(d.order, s.Language)
		}
		for _, w := range s.Words {
			words[canon.Fold(w)] = true
		}
	}
	return d
}

// Detect implements Detector.
func (d *KeywordDetector) Detect(text string) (Language, bool) {
	tokens := canon.Tokens(text)
	if len(tokens) == 0 {
		return "", false
	}
	present := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		present[t] = true
	}
	for _, lang := range d.order {
		for w := range d.sets[lang] {
			if present[w] {
				return lang, true
			}
		}
	}
	return "", false
}
