package refs

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/santapalabra/scripture/core/canon"
)

type tokenKind uint8

const (
	wordToken tokenKind = iota + 1
	numberToken
)

// token is a maximal letter run or ASCII digit run of the scanned text.
// key is the folded form used for alias lookup.
type token struct {
	kind       tokenKind
	start, end int
	key        string
}

func tokenize(text string) []token {
	var toks []token
	var cur *token

	for i, r := range text {
		var kind tokenKind
		switch {
		case canon.IsWordRune(r):
			kind = wordToken
		case canon.IsDigit(r):
			kind = numberToken
		}
		if cur != nil && cur.kind == kind {
			cur.end = i + utf8.RuneLen(r)
			continue
		}
		if cur != nil {
			toks = append(toks, *cur)
			cur = nil
		}
		if kind != 0 {
			cur = &token{kind: kind, start: i, end: i + utf8.RuneLen(r)}
		}
	}
	if cur != nil {
		toks = append(toks, *cur)
	}

	for i := range toks {
		raw := text[toks[i].start:toks[i].end]
		if toks[i].kind == wordToken {
			toks[i].key = canon.Fold(raw)
		} else {
			toks[i].key = raw
		}
	}
	return toks
}

// trieNode indexes aliases by folded token. book is set on nodes that end
// an alias.
type trieNode struct {
	children map[string]*trieNode
	book     *canon.Book
}

func (n *trieNode) insert(keys []string, b *canon.Book) {
	node := n
	for _, k := range keys {
		next, ok := node.children[k]
		if !ok {
			next = &trieNode{children: make(map[string]*trieNode)}
			node.children[k] = next
		}
		node = next
	}
	node.book = b
}

type scanner struct {
	root *trieNode
}

func newScanner(reg *canon.Registry) *scanner {
	root := &trieNode{children: make(map[string]*trieNode)}
	reg.EachAlias(func(key string, b *canon.Book) {
		root.insert(strings.Split(key, " "), b)
	})
	return &scanner{root: root}
}

// extract returns the accepted citations of text in text order.
func (s *scanner) extract(text string) []Reference {
	cands := s.candidates(text)
	if len(cands) == 0 {
		return nil
	}
	return selectLongest(cands, protectedSpans(text))
}

// candidates walks the alias trie from every token boundary and keeps each
// alias, of any length, that is followed by a well-formed chapter/verse tail.
func (s *scanner) candidates(text string) []Reference {
	toks := tokenize(text)
	var out []Reference

	for i := range toks {
		if i > 0 && toks[i-1].end == toks[i].start {
			continue
		}
		node := s.root
		for j := i; j < len(toks); j++ {
			if j > i && !joinable(text, toks[j-1], toks[j]) {
				break
			}
			node = node.children[toks[j].key]
			if node == nil {
				break
			}
			if node.book == nil {
				continue
			}
			ref, ok := parseTail(text, toks[j].end)
			if !ok {
				continue
			}
			ref.Book = node.book
			ref.Start = toks[i].start
			ref.MatchedText = text[ref.Start:ref.End]
			out = append(out, ref)
		}
	}
	return out
}

// joinable reports whether two adjacent tokens may belong to one alias:
// separated by horizontal whitespace, or an ordinal glued to a word ("1Cor").
func joinable(text string, prev, cur token) bool {
	gap := text[prev.end:cur.start]
	if gap == "" {
		return prev.kind == numberToken
	}
	return skipSpace(text, prev.end) == cur.start
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\u00a0'
}

func skipSpace(text string, p int) int {
	for p < len(text) {
		r, size := utf8.DecodeRuneInString(text[p:])
		if !isSpace(r) {
			break
		}
		p += size
	}
	return p
}

func wordAt(text string, p int) bool {
	if p >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[p:])
	return canon.IsWordRune(r) || canon.IsDigit(r)
}

func readDigits(text string, p int) (value, n int) {
	for p+n < len(text) && canon.IsDigit(rune(text[p+n])) {
		if n < 3 {
			value = value*10 + int(text[p+n]-'0')
		}
		n++
	}
	return value, n
}

// readNumber reads a 1-3 digit positive number that is not glued to a word.
func readNumber(text string, p int) (int, int, bool) {
	v, n := readDigits(text, p)
	if n == 0 || n > 3 || v == 0 || wordAt(text, p+n) {
		return 0, p, false
	}
	return v, p + n, true
}

func subLetterAt(text string, p int) bool {
	return p < len(text) && text[p] >= 'a' && text[p] <= 'z' && !wordAt(text, p+1)
}

// readVerse reads a verse number with an optional sub-verse letter.
func readVerse(text string, p int) (VerseNum, int, bool) {
	v, n := readDigits(text, p)
	if n == 0 || n > 3 || v == 0 {
		return VerseNum{}, p, false
	}
	q := p + n
	if subLetterAt(text, q) {
		return VerseNum{Number: v, Sub: text[q : q+1]}, q + 1, true
	}
	if wordAt(text, q) {
		return VerseNum{}, p, false
	}
	return VerseNum{Number: v}, q, true
}

// rangeDash returns the width of a range dash at p, or 0.
func rangeDash(text string, p int) int {
	switch {
	case strings.HasPrefix(text[p:], "-"):
		return 1
	case strings.HasPrefix(text[p:], "–"):
		return len("–")
	}
	return 0
}

// separatorAt reports whether a chapter/verse separator sep followed by a
// digit starts at p.
func separatorAt(text string, p int, sep byte) bool {
	return p+1 < len(text) && text[p] == sep && canon.IsDigit(rune(text[p+1]))
}

// parseTail parses the chapter/verse part that must follow a book alias at
// p. It returns false when the tail is absent or malformed.
func parseTail(text string, p int) (Reference, bool) {
	var ref Reference

	dotted := false
	if p < len(text) && text[p] == '.' {
		p++
		dotted = true
	}
	q := skipSpace(text, p)
	if q == p && !dotted {
		return ref, false
	}

	chapter, p, ok := readNumber(text, q)
	if !ok {
		return ref, false
	}
	ref.Chapter = chapter

	var sep byte
	if p+1 < len(text) && (text[p] == ':' || text[p] == ',') && canon.IsDigit(rune(text[p+1])) {
		sep = text[p]
		v, next, ok := readVerse(text, p+1)
		if !ok {
			return ref, false
		}
		ref.VerseStart = v
		p = next
	}
	ref.End = p

	dash := 0
	if p < len(text) {
		dash = rangeDash(text, p)
	}
	if dash == 0 {
		return ref, true
	}
	q = p + dash

	switch {
	case q < len(text) && canon.IsDigit(rune(text[q])):
		if ref.HasVerse() {
			end, next, ok := readVerse(text, q)
			if !ok {
				return ref, false
			}
			// "1:1-2:3" ends in another chapter; only the start is linked.
			if separatorAt(text, next, sep) {
				break
			}
			ref.VerseEnd = end
			ref.End = next
			break
		}
		end, next, ok := readNumber(text, q)
		if !ok {
			return ref, false
		}
		if separatorAt(text, next, ':') || separatorAt(text, next, ',') {
			break
		}
		if end > ref.Chapter {
			ref.ChapterEnd = end
			ref.End = next
		}
	case ref.HasVerse() && subLetterAt(text, q):
		ref.VerseEnd = VerseNum{Sub: text[q : q+1]}
		ref.End = q + 1
	}
	return ref, true
}

// protectedSpans returns the byte ranges of existing markdown links and bare
// URLs. Citations inside them are left alone.
func protectedSpans(text string) [][2]int {
	var spans [][2]int

	for i := 0; i < len(text); {
		open := strings.IndexByte(text[i:], '[')
		if open < 0 {
			break
		}
		open += i
		closeIdx := strings.IndexByte(text[open+1:], ']')
		if closeIdx < 0 {
			break
		}
		closeIdx += open + 1
		if closeIdx+1 < len(text) && text[closeIdx+1] == '(' {
			if paren := strings.IndexByte(text[closeIdx+2:], ')'); paren >= 0 {
				end := closeIdx + 2 + paren + 1
				spans = append(spans, [2]int{open, end})
				i = end
				continue
			}
		}
		i = open + 1
	}

	for _, scheme := range []string{"http://", "https://"} {
		for i := 0; i < len(text); {
			idx := strings.Index(text[i:], scheme)
			if idx < 0 {
				break
			}
			start := i + idx
			end := start
			for end < len(text) {
				r, size := utf8.DecodeRuneInString(text[end:])
				if isSpace(r) || r == '\n' || r == '\r' {
					break
				}
				end += size
			}
			spans = append(spans, [2]int{start, end})
			i = end
		}
	}
	return spans
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// selectLongest ranks candidates by matched length (longest first, then
// leftmost) and accepts each one that overlaps neither an accepted citation
// nor a protected span. The result is in text order.
func selectLongest(cands []Reference, protected [][2]int) []Reference {
	sort.SliceStable(cands, func(i, j int) bool {
		li := utf8.RuneCountInString(cands[i].MatchedText)
		lj := utf8.RuneCountInString(cands[j].MatchedText)
		if li != lj {
			return li > lj
		}
		return cands[i].Start < cands[j].Start
	})

	var accepted []Reference
next:
	for _, c := range cands {
		for _, span := range protected {
			if overlaps(c.Start, c.End, span[0], span[1]) {
				continue next
			}
		}
		for _, a := range accepted {
			if overlaps(c.Start, c.End, a.Start, a.End) {
				continue next
			}
		}
		accepted = append(accepted, c)
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Start < accepted[j].Start })
	return accepted
}
