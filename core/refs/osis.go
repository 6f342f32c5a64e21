package refs

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/santapalabra/scripture/core/errors"
)

// osisGrammar parses dotted OSIS references.
// Examples: "John.3", "John.3-4", "John.3.16", "Luke.7.18b-23", "1John.4.8"
//
//nolint:govet // participle grammar tags are not standard struct tags
type osisGrammar struct {
	BookPrefix string       `@Int?`
	BookName   string       `@Ident`
	Chapter    *osisChapter `"." @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type osisChapter struct {
	Number     int        `@Int`
	Verse      *osisVerse `( "." @@ )?`
	ChapterEnd *int       `( "-" @Int )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type osisVerse struct {
	Number int      `@Int`
	Sub    *string  `@SubVerse?`
	End    *osisEnd `( "-" @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type osisEnd struct {
	Number int     `@Int`
	Sub    *string `@SubVerse?`
}

// Book ids start with an uppercase letter so a lone lowercase letter is
// always a sub-verse marker.
var osisLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Z][A-Za-z]*`},
	{Name: "SubVerse", Pattern: `[a-z]`},
	{Name: "Punct", Pattern: `[.\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var osisParser = participle.MustBuild[osisGrammar](
	participle.Lexer(osisLexer),
	participle.Elide("Whitespace"),
)

// ParseOSIS parses an OSIS id such as "Matt.5.3-12" against the registry.
// Book ids are matched case-insensitively after parsing.
func (l *Linker) ParseOSIS(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Reference{}, errors.NewParse("OSIS", "", 0, "empty reference")
	}

	parsed, err := osisParser.ParseString("", s)
	if err != nil {
		return Reference{}, errors.NewParse("OSIS", "", 0, fmt.Sprintf("%q: %v", s, err))
	}

	id := parsed.BookPrefix + parsed.BookName
	book, ok := l.registry.ByID(id)
	if !ok {
		return Reference{}, errors.NewNotFound("book", id)
	}

	ch := parsed.Chapter
	ref := Reference{Book: book, Chapter: ch.Number, MatchedText: s, End: len(s)}
	if ch.Number < 1 || ch.Number > book.Chapters {
		return Reference{}, errors.NewValidation("chapter",
			fmt.Sprintf("%s has chapters 1-%d, got %d", book.Name, book.Chapters, ch.Number))
	}

	if ch.Verse != nil {
		if ch.Verse.Number < 1 {
			return Reference{}, errors.NewValidation("verse", "verse numbers start at 1")
		}
		ref.VerseStart = VerseNum{Number: ch.Verse.Number, Sub: deref(ch.Verse.Sub)}
		if end := ch.Verse.End; end != nil {
			if end.Number < ch.Verse.Number {
				return Reference{}, errors.NewValidation("verse", fmt.Sprintf("range end %d precedes start %d", end.Number, ch.Verse.Number))
			}
			ref.VerseEnd = VerseNum{Number: end.Number, Sub: deref(end.Sub)}
		}
	}

	if ch.ChapterEnd != nil {
		if ch.Verse != nil {
			return Reference{}, errors.NewValidation("chapter", "a chapter range cannot name a verse")
		}
		if *ch.ChapterEnd <= ch.Number || *ch.ChapterEnd > book.Chapters {
			return Reference{}, errors.NewValidation("chapter",
				fmt.Sprintf("invalid chapter range %d-%d", ch.Number, *ch.ChapterEnd))
		}
		ref.ChapterEnd = *ch.ChapterEnd
	}
	return ref, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ParseOSIS parses an OSIS id against the default registry.
func ParseOSIS(s string) (Reference, error) {
	return defaultLinker().ParseOSIS(s)
}
