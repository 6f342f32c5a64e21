package canon

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the case-folded NFC form of s. Casers and transformers are
// stateful, so a fresh one is built per call.
func Fold(s string) string {
	return norm.NFC.String(cases.Fold().String(s))
}

// StripAccents removes combining marks from s ("éxodo" -> "exodo").
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// IsWordRune reports whether r belongs to a word token.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(unicode.Mn, r)
}

// IsDigit reports whether r is an ASCII digit. Other numeral systems never
// start a chapter or verse number.
func IsDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Tokens folds s and splits it into word tokens (letter runs) and number
// tokens (digit runs). Everything else separates tokens and is dropped, so
// "1Cor." and "1 cor" both yield ["1", "cor"].
func Tokens(s string) []string {
	s = Fold(s)
	var out []string
	var b strings.Builder
	kind := 0 // 0 none, 1 word, 2 number

	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
		kind = 0
	}

	for _, r := range s {
		switch {
		case IsWordRune(r):
			if kind != 1 {
				flush()
				kind = 1
			}
			b.WriteRune(r)
		case IsDigit(r):
			if kind != 2 {
				flush()
				kind = 2
			}
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return out
}

// Key returns the lookup key for an alias or book name.
func Key(s string) string {
	return strings.Join(Tokens(s), " ")
}
