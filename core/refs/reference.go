// Package refs finds scripture citations in free text and rewrites them as
// links to an online Bible for the reader's language.
//
// The resolver is pure: no I/O, no shared mutable state after construction,
// and no failure mode. Text it cannot understand comes back unchanged.
package refs

import (
	"strconv"
	"strings"

	"github.com/santapalabra/scripture/core/canon"
)

// Language is a rendering language for links.
type Language string

// Supported rendering languages.
const (
	English    Language = "english"
	Spanish    Language = "spanish"
	Italian    Language = "italian"
	French     Language = "french"
	German     Language = "german"
	Portuguese Language = "portuguese"
	Latin      Language = "latin"
	Greek      Language = "greek"
)

var languages = []Language{English, Spanish, Italian, French, German, Portuguese, Latin, Greek}

// Languages returns every supported language.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// ParseLanguage accepts a language name ("Spanish") or its ISO 639-1 code
// ("es").
func ParseLanguage(s string) (Language, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "en":
		return English, true
	case "es":
		return Spanish, true
	case "it":
		return Italian, true
	case "fr":
		return French, true
	case "de":
		return German, true
	case "pt":
		return Portuguese, true
	case "la":
		return Latin, true
	case "el", "grc":
		return Greek, true
	}
	for _, l := range languages {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// VerseNum is a verse number with an optional sub-verse letter ("18b").
// A zero Number with a Sub is a bare-letter range end ("18a-b").
type VerseNum struct {
	Number int    `json:"number,omitempty"`
	Sub    string `json:"sub,omitempty"`
}

// IsZero reports whether v is absent.
func (v VerseNum) IsZero() bool {
	return v.Number == 0 && v.Sub == ""
}

func (v VerseNum) String() string {
	if v.Number == 0 {
		return v.Sub
	}
	return strconv.Itoa(v.Number) + v.Sub
}

// Reference is one citation found in a text. Start and End are byte offsets
// of MatchedText in the scanned string.
type Reference struct {
	Book        *canon.Book
	Chapter     int
	ChapterEnd  int
	VerseStart  VerseNum
	VerseEnd    VerseNum
	MatchedText string
	Start       int
	End         int
}

// HasVerse reports whether the reference names a verse.
func (r Reference) HasVerse() bool {
	return !r.VerseStart.IsZero()
}

// EndVerse returns the numeric last verse of the reference, or 0 when it
// names no verse. A bare-letter end stays within the start verse.
func (r Reference) EndVerse() int {
	if r.VerseEnd.Number > 0 {
		return r.VerseEnd.Number
	}
	return r.VerseStart.Number
}

// String renders the reference with the book's canonical name and a colon
// separator, whatever the source text used ("Luke 7:18b-23").
func (r Reference) String() string {
	if r.Book == nil {
		return r.MatchedText
	}
	var sb strings.Builder
	sb.WriteString(r.Book.Name)
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(r.Chapter))
	switch {
	case r.HasVerse():
		sb.WriteByte(':')
		sb.WriteString(r.VerseStart.String())
		if !r.VerseEnd.IsZero() {
			sb.WriteByte('-')
			sb.WriteString(r.VerseEnd.String())
		}
	case r.ChapterEnd > 0:
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(r.ChapterEnd))
	}
	return sb.String()
}

// OSIS renders the reference as an OSIS id ("Luke.7.18b-23"). It is the
// inverse of ParseOSIS.
func (r Reference) OSIS() string {
	if r.Book == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(r.Book.ID)
	sb.WriteByte('.')
	sb.WriteString(strconv.Itoa(r.Chapter))
	switch {
	case r.HasVerse():
		sb.WriteByte('.')
		sb.WriteString(r.VerseStart.String())
		if r.VerseEnd.Number > 0 {
			sb.WriteByte('-')
			sb.WriteString(r.VerseEnd.String())
		}
	case r.ChapterEnd > 0:
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(r.ChapterEnd))
	}
	return sb.String()
}
