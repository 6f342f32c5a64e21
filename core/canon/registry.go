// Package canon holds the canonical book registry: names, multilingual
// aliases and the numeric codes used by morphological corpora.
package canon

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// romanPrefixes maps ordinal book prefixes to the roman forms accepted in prose.
var romanPrefixes = map[string]string{"1": "i", "2": "ii", "3": "iii"}

// Registry indexes books by id, alias and numeric code. It is immutable after
// New returns and safe for concurrent use.
type Registry struct {
	books    []*Book
	byID     map[string]*Book
	aliases  map[string]*Book
	codes    map[Scheme]map[int]*Book
	schemes  []Scheme
	maxWords int
}

// New builds a registry and checks its invariants: unique ids and names,
// pairwise disjoint alias sets after folding, and codes unique within a
// scheme and unambiguous across schemes.
func New(books []Book) (*Registry, error) {
	r := &Registry{
		byID:    make(map[string]*Book),
		aliases: make(map[string]*Book),
		codes:   make(map[Scheme]map[int]*Book),
	}
	names := make(map[string]bool)

	for i := range books {
		b := books[i]
		if b.ID == "" || b.Name == "" {
			return nil, fmt.Errorf("book %d: id and name are required", i)
		}
		if b.Slug == "" {
			b.Slug = strings.ToLower(strings.Join(strings.Fields(b.Name), ""))
		}
		idKey := strings.ToLower(b.ID)
		if _, dup := r.byID[idKey]; dup {
			return nil, fmt.Errorf("duplicate book id %q", b.ID)
		}
		if names[b.Name] {
			return nil, fmt.Errorf("duplicate book name %q", b.Name)
		}
		names[b.Name] = true

		book := &b
		book.Aliases = dedupe(append([]string{b.Name}, b.Aliases...))
		r.books = append(r.books, book)
		r.byID[idKey] = book

		for _, alias := range book.Aliases {
			key := Key(alias)
			if key == "" {
				continue
			}
			if other, ok := r.aliases[key]; ok && other != book {
				return nil, fmt.Errorf("alias %q claimed by %s and %s", alias, other.ID, book.ID)
			}
			r.aliases[key] = book
		}

		for scheme, code := range book.Codes {
			if r.codes[scheme] == nil {
				r.codes[scheme] = make(map[int]*Book)
				r.schemes = append(r.schemes, scheme)
			}
			if other, ok := r.codes[scheme][code]; ok {
				return nil, fmt.Errorf("%s code %d claimed by %s and %s", scheme, code, other.ID, book.ID)
			}
			r.codes[scheme][code] = book
		}
	}

	sort.Slice(r.schemes, func(i, j int) bool { return r.schemes[i] < r.schemes[j] })
	for _, a := range r.schemes {
		for _, b := range r.schemes {
			if a >= b {
				continue
			}
			for code, book := range r.codes[a] {
				if other, ok := r.codes[b][code]; ok && other != book {
					return nil, fmt.Errorf("code %d is %s in %s but %s in %s", code, book.ID, a, other.ID, b)
				}
			}
		}
	}

	r.addDerivedAliases()
	for key := range r.aliases {
		if n := len(strings.Fields(key)); n > r.maxWords {
			r.maxWords = n
		}
	}
	return r, nil
}

// addDerivedAliases registers roman-ordinal ("ii cor") and accent-free
// ("exodo") spellings. A derived key is added only when no explicit alias
// owns it and no other book derives the same key.
func (r *Registry) addDerivedAliases() {
	derived := make(map[string]*Book)
	ambiguous := make(map[string]bool)

	add := func(key string, book *Book) {
		if key == "" {
			return
		}
		if _, explicit := r.aliases[key]; explicit {
			return
		}
		if other, ok := derived[key]; ok && other != book {
			ambiguous[key] = true
			return
		}
		derived[key] = book
	}

	for key, book := range r.aliases {
		add(StripAccents(key), book)
		first, rest, ok := strings.Cut(key, " ")
		if roman, isOrdinal := romanPrefixes[first]; ok && isOrdinal {
			add(roman+" "+rest, book)
			add(roman+" "+StripAccents(rest), book)
		}
	}

	for key, book := range derived {
		if !ambiguous[key] {
			r.aliases[key] = book
		}
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the built-in registry of the 73-book Catholic canon.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := New(defaultBooks)
		if err != nil {
			panic(fmt.Sprintf("canon: invalid built-in registry: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Books returns the books in canonical order.
func (r *Registry) Books() []*Book {
	out := make([]*Book, len(r.books))
	copy(out, r.books)
	return out
}

// ByID looks a book up by its OSIS id, ignoring case.
func (r *Registry) ByID(id string) (*Book, bool) {
	b, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	return b, ok
}

// ByCode looks a book up by its number in one scheme.
func (r *Registry) ByCode(scheme Scheme, code int) (*Book, bool) {
	b, ok := r.codes[scheme][code]
	return b, ok
}

// ByNumber maps a corpus book number through every scheme. New rejects
// registries where two schemes disagree on a number, so the first hit wins.
func (r *Registry) ByNumber(code int) (*Book, bool) {
	for _, scheme := range r.schemes {
		if b, ok := r.codes[scheme][code]; ok {
			return b, true
		}
	}
	return nil, false
}

// Lookup resolves an alias key exactly (see Key).
func (r *Registry) Lookup(alias string) (*Book, bool) {
	b, ok := r.aliases[Key(alias)]
	return b, ok
}

// EachAlias calls fn for every alias key, including derived spellings.
func (r *Registry) EachAlias(fn func(key string, book *Book)) {
	for key, book := range r.aliases {
		fn(key, book)
	}
}

// MaxAliasWords is the token count of the longest alias.
func (r *Registry) MaxAliasWords() int {
	return r.maxWords
}

// NormalizeBookName resolves free text to a canonical book. The input
// matches when it is an alias, or when it starts with an alias whose last
// token is followed by a number token ("john 3"). An alias that is merely a
// prefix of a longer word or phrase never matches: "1 corinthians
// university" and "marcus" are rejected.
func (r *Registry) NormalizeBookName(raw string) (*Book, bool) {
	tokens := Tokens(raw)
	if len(tokens) == 0 {
		return nil, false
	}
	if b, ok := r.aliases[strings.Join(tokens, " ")]; ok {
		return b, true
	}

	limit := min(r.maxWords, len(tokens)-1)
	for n := limit; n >= 1; n-- {
		if !IsDigit(rune(tokens[n][0])) {
			continue
		}
		if b, ok := r.aliases[strings.Join(tokens[:n], " ")]; ok {
			return b, true
		}
	}
	return nil, false
}
