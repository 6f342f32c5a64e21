package refs

import (
	"strings"
	"sync"

	"github.com/santapalabra/scripture/core/canon"
)

// Linker extracts citations and rewrites them as markdown links. It is
// immutable after construction and safe for concurrent use.
type Linker struct {
	registry *canon.Registry
	scanner  *scanner
	urls     URLBuilder
	domains  []string
}

// Option configures a Linker.
type Option func(*Linker)

// WithURLBuilder replaces BuildURL.
func WithURLBuilder(b URLBuilder) Option {
	return func(l *Linker) {
		if b != nil {
			l.urls = b
		}
	}
}

// WithKnownDomains replaces the domains that suppress linking.
func WithKnownDomains(domains ...string) Option {
	return func(l *Linker) {
		l.domains = append([]string(nil), domains...)
	}
}

// NewLinker builds a linker over reg. The alias trie is built once here.
func NewLinker(reg *canon.Registry, opts ...Option) *Linker {
	l := &Linker{
		registry: reg,
		scanner:  newScanner(reg),
		urls:     BuildURL,
		domains:  KnownDomains,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var defaultLinker = sync.OnceValue(func() *Linker {
	return NewLinker(canon.Default())
})

// Default returns the linker over the built-in registry.
func Default() *Linker {
	return defaultLinker()
}

// Registry returns the book registry the linker resolves against.
func (l *Linker) Registry() *canon.Registry {
	return l.registry
}

// Extract returns every citation in text, in text order. Overlapping
// candidates are resolved longest first; citations inside existing links are
// skipped. The known-domain guard does not apply.
func (l *Linker) Extract(text string) []Reference {
	return l.scanner.extract(text)
}

// AlreadyLinked reports whether text mentions a known Bible site. Such a text
// is left entirely alone, even if it also holds unlinked citations.
func (l *Linker) AlreadyLinked(text string) bool {
	for _, d := range l.domains {
		if strings.Contains(text, d) {
			return true
		}
	}
	return false
}

// URL returns the link target for ref in lang.
func (l *Linker) URL(ref Reference, lang Language) string {
	return l.urls(ref, lang)
}

// Link replaces each citation in text with [matched text](url). Text
// without citations, or already linked to a known site, is returned as is.
func (l *Linker) Link(text string, lang Language) string {
	if text == "" || l.AlreadyLinked(text) {
		return text
	}
	refs := l.Extract(text)
	if len(refs) == 0 {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text) + len(refs)*64)
	prev := 0
	for _, ref := range refs {
		url := l.urls(ref, lang)
		if url == "" {
			continue
		}
		sb.WriteString(text[prev:ref.Start])
		sb.WriteByte('[')
		sb.WriteString(ref.MatchedText)
		sb.WriteString("](")
		sb.WriteString(url)
		sb.WriteByte(')')
		prev = ref.End
	}
	sb.WriteString(text[prev:])
	return sb.String()
}

// LinkDetected links text in the language d detects, or English.
func (l *Linker) LinkDetected(text string, d Detector) string {
	return l.Link(text, Resolve(d, text, English))
}

// Extract finds citations with the default linker.
func Extract(text string) []Reference {
	return defaultLinker().Extract(text)
}

// Link links text with the default linker.
func Link(text string, lang Language) string {
	return defaultLinker().Link(text, lang)
}

// LinkDetected links text with the default linker and detector d.
func LinkDetected(text string, d Detector) string {
	return defaultLinker().LinkDetected(text, d)
}

// NormalizeBookName resolves a book name with the default registry.
func NormalizeBookName(raw string) (*canon.Book, bool) {
	return canon.Default().NormalizeBookName(raw)
}
