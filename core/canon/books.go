package canon

// Testament groups books for display and filtering.
type Testament string

// Testament values.
const (
	OldTestament Testament = "OT"
	Deuterocanon Testament = "DC"
	NewTestament Testament = "NT"
)

// Scheme identifies a numeric book-coding convention.
type Scheme string

// Numbering schemes used by morphological corpora.
const (
	// SchemeSBLGNT numbers the New Testament 61 (Matthew) through 87 (Revelation).
	SchemeSBLGNT Scheme = "sblgnt"
	// SchemeNT numbers the New Testament 01 (Matthew) through 27 (Revelation).
	SchemeNT Scheme = "nt"
)

// Book is an immutable registry entry for one canonical book.
type Book struct {
	// ID is the OSIS book identifier and the store's book_id (e.g. "1Cor").
	ID string `json:"id"`

	// Name is the canonical English name (e.g. "1 Corinthians").
	Name string `json:"name"`

	// Slug is the path segment used by the English provider.
	Slug string `json:"slug"`

	// Abbrev is the MorphGNT file abbreviation (NT only, e.g. "1Co").
	Abbrev string `json:"abbrev,omitempty"`

	Testament Testament `json:"testament"`
	Chapters  int       `json:"chapters"`

	// Aliases are lowercase spellings across languages and abbreviation styles.
	Aliases []string `json:"aliases"`

	// Codes maps each numbering scheme to this book's number.
	Codes map[Scheme]int `json:"codes,omitempty"`
}

// Code returns the book's number in scheme, or 0 when it has none.
func (b *Book) Code(scheme Scheme) int {
	return b.Codes[scheme]
}

func nt(order int) map[Scheme]int {
	return map[Scheme]int{SchemeSBLGNT: 60 + order, SchemeNT: order}
}

// defaultBooks is the Catholic canon in canonical order.
var defaultBooks = []Book{
	// Old Testament
	{ID: "Gen", Name: "Genesis", Testament: OldTestament, Chapters: 50,
		Aliases: []string{"genesis", "gen", "ge", "gn", "génesis", "gênesis", "genesi", "genèse"}},
	{ID: "Exod", Name: "Exodus", Testament: OldTestament, Chapters: 40,
		Aliases: []string{"exodus", "exod", "ex", "éxodo", "êxodo", "esodo", "exode"}},
	{ID: "Lev", Name: "Leviticus", Testament: OldTestament, Chapters: 27,
		Aliases: []string{"leviticus", "lev", "lv", "levítico", "levitico", "lévitique"}},
	{ID: "Num", Name: "Numbers", Testament: OldTestament, Chapters: 36,
		Aliases: []string{"numbers", "num", "nu", "nm", "números", "numeri", "nombres"}},
	{ID: "Deut", Name: "Deuteronomy", Testament: OldTestament, Chapters: 34,
		Aliases: []string{"deuteronomy", "deut", "dt", "deuteronomio", "deutéronome"}},
	{ID: "Josh", Name: "Joshua", Testament: OldTestament, Chapters: 24,
		Aliases: []string{"joshua", "josh", "jos", "josué", "giosuè"}},
	{ID: "Judg", Name: "Judges", Testament: OldTestament, Chapters: 21,
		Aliases: []string{"judges", "judg", "jdg", "jg", "jueces", "giudici", "juges"}},
	{ID: "Ruth", Name: "Ruth", Testament: OldTestament, Chapters: 4,
		Aliases: []string{"ruth", "rut", "rt"}},
	{ID: "1Sam", Name: "1 Samuel", Testament: OldTestament, Chapters: 31,
		Aliases: []string{"1 samuel", "1 sam", "1 sm", "i samuel", "1 samuele"}},
	{ID: "2Sam", Name: "2 Samuel", Testament: OldTestament, Chapters: 24,
		Aliases: []string{"2 samuel", "2 sam", "2 sm", "ii samuel", "2 samuele"}},
	{ID: "1Kgs", Name: "1 Kings", Testament: OldTestament, Chapters: 22,
		Aliases: []string{"1 kings", "1 kgs", "1 ki", "i kings", "1 reyes", "1 re", "1 rois"}},
	{ID: "2Kgs", Name: "2 Kings", Testament: OldTestament, Chapters: 25,
		Aliases: []string{"2 kings", "2 kgs", "2 ki", "ii kings", "2 reyes", "2 re", "2 rois"}},
	{ID: "1Chr", Name: "1 Chronicles", Testament: OldTestament, Chapters: 29,
		Aliases: []string{"1 chronicles", "1 chron", "1 chr", "i chronicles", "1 crónicas", "1 cronache"}},
	{ID: "2Chr", Name: "2 Chronicles", Testament: OldTestament, Chapters: 36,
		Aliases: []string{"2 chronicles", "2 chron", "2 chr", "ii chronicles", "2 crónicas", "2 cronache"}},
	{ID: "Ezra", Name: "Ezra", Testament: OldTestament, Chapters: 10,
		Aliases: []string{"ezra", "ezr", "esdras", "esdra"}},
	{ID: "Neh", Name: "Nehemiah", Testament: OldTestament, Chapters: 13,
		Aliases: []string{"nehemiah", "neh", "nehemías", "neemia", "néhémie"}},
	{ID: "Tob", Name: "Tobit", Testament: Deuterocanon, Chapters: 14,
		Aliases: []string{"tobit", "tob", "tb", "tobías", "tobia", "tobie"}},
	{ID: "Jdt", Name: "Judith", Testament: Deuterocanon, Chapters: 16,
		Aliases: []string{"judith", "jdt", "judit", "giuditta"}},
	{ID: "Esth", Name: "Esther", Testament: OldTestament, Chapters: 10,
		Aliases: []string{"esther", "esth", "est", "ester"}},
	{ID: "1Macc", Name: "1 Maccabees", Testament: Deuterocanon, Chapters: 16,
		Aliases: []string{"1 maccabees", "1 macc", "1 mac", "1 macabeos", "1 maccabei"}},
	{ID: "2Macc", Name: "2 Maccabees", Testament: Deuterocanon, Chapters: 15,
		Aliases: []string{"2 maccabees", "2 macc", "2 mac", "2 macabeos", "2 maccabei"}},
	{ID: "Job", Name: "Job", Testament: OldTestament, Chapters: 42,
		Aliases: []string{"job", "jb", "giobbe"}},
	{ID: "Ps", Name: "Psalms", Testament: OldTestament, Chapters: 150,
		Aliases: []string{"psalms", "psalm", "ps", "pss", "salmo", "salmos", "salmi", "psaume", "psaumes"}},
	{ID: "Prov", Name: "Proverbs", Testament: OldTestament, Chapters: 31,
		Aliases: []string{"proverbs", "prov", "pr", "prv", "proverbios", "proverbi", "proverbes"}},
	{ID: "Eccl", Name: "Ecclesiastes", Testament: OldTestament, Chapters: 12,
		Aliases: []string{"ecclesiastes", "eccles", "eccl", "ec", "eclesiastés", "qohelet"}},
	{ID: "Song", Name: "Song of Solomon", Slug: "songofsongs", Testament: OldTestament, Chapters: 8,
		Aliases: []string{"song of solomon", "song of songs", "song", "ss", "cantar", "cantares", "cantico"}},
	{ID: "Wis", Name: "Wisdom", Testament: Deuterocanon, Chapters: 19,
		Aliases: []string{"wisdom", "wis", "ws", "sabiduría", "sapienza", "sagesse"}},
	{ID: "Sir", Name: "Sirach", Testament: Deuterocanon, Chapters: 51,
		Aliases: []string{"sirach", "sir", "eclesiástico", "siracide"}},
	{ID: "Isa", Name: "Isaiah", Testament: OldTestament, Chapters: 66,
		Aliases: []string{"isaiah", "isa", "isaías", "isaia", "isaïe"}},
	{ID: "Jer", Name: "Jeremiah", Testament: OldTestament, Chapters: 52,
		Aliases: []string{"jeremiah", "jer", "je", "jeremías", "geremia", "jérémie"}},
	{ID: "Lam", Name: "Lamentations", Testament: OldTestament, Chapters: 5,
		Aliases: []string{"lamentations", "lam", "lamentaciones", "lamentazioni"}},
	{ID: "Bar", Name: "Baruch", Testament: Deuterocanon, Chapters: 6,
		Aliases: []string{"baruch", "bar", "baruc"}},
	{ID: "Ezek", Name: "Ezekiel", Testament: OldTestament, Chapters: 48,
		Aliases: []string{"ezekiel", "ezek", "eze", "ez", "ezequiel", "ezechiele", "ézéchiel"}},
	{ID: "Dan", Name: "Daniel", Testament: OldTestament, Chapters: 14,
		Aliases: []string{"daniel", "dan", "dn", "daniele"}},
	{ID: "Hos", Name: "Hosea", Testament: OldTestament, Chapters: 14,
		Aliases: []string{"hosea", "hos", "oseas", "osea", "osée"}},
	{ID: "Joel", Name: "Joel", Testament: OldTestament, Chapters: 4,
		Aliases: []string{"joel", "joe", "jl", "gioele", "joël"}},
	{ID: "Amos", Name: "Amos", Testament: OldTestament, Chapters: 9,
		Aliases: []string{"amos", "amo", "amós"}},
	{ID: "Obad", Name: "Obadiah", Testament: OldTestament, Chapters: 1,
		Aliases: []string{"obadiah", "obad", "ob", "abdías", "abdia"}},
	{ID: "Jonah", Name: "Jonah", Testament: OldTestament, Chapters: 4,
		Aliases: []string{"jonah", "jon", "jnh", "jonás", "giona", "jonas"}},
	{ID: "Mic", Name: "Micah", Testament: OldTestament, Chapters: 7,
		Aliases: []string{"micah", "mic", "miqueas", "michea", "michée"}},
	{ID: "Nah", Name: "Nahum", Testament: OldTestament, Chapters: 3,
		Aliases: []string{"nahum", "nah", "nahúm"}},
	{ID: "Hab", Name: "Habakkuk", Testament: OldTestament, Chapters: 3,
		Aliases: []string{"habakkuk", "hab", "hb", "habacuc", "abacuc"}},
	{ID: "Zeph", Name: "Zephaniah", Testament: OldTestament, Chapters: 3,
		Aliases: []string{"zephaniah", "zeph", "zep", "sofonías", "sofonia"}},
	{ID: "Hag", Name: "Haggai", Testament: OldTestament, Chapters: 2,
		Aliases: []string{"haggai", "hag", "hg", "ageo", "aggeo", "aggée"}},
	{ID: "Zech", Name: "Zechariah", Testament: OldTestament, Chapters: 14,
		Aliases: []string{"zechariah", "zech", "zec", "zacarías", "zaccaria", "zacharie"}},
	{ID: "Mal", Name: "Malachi", Testament: OldTestament, Chapters: 3,
		Aliases: []string{"malachi", "mal", "ml", "malaquías", "malachia", "malachie"}},

	// New Testament
	{ID: "Matt", Name: "Matthew", Abbrev: "Mt", Testament: NewTestament, Chapters: 28, Codes: nt(1),
		Aliases: []string{"matthew", "matt", "mt", "mateo", "matteo", "matthieu", "mateus", "matthäus"}},
	{ID: "Mark", Name: "Mark", Abbrev: "Mk", Testament: NewTestament, Chapters: 16, Codes: nt(2),
		Aliases: []string{"mark", "mk", "mr", "marcos", "marco", "marc", "markus"}},
	{ID: "Luke", Name: "Luke", Abbrev: "Lk", Testament: NewTestament, Chapters: 24, Codes: nt(3),
		Aliases: []string{"luke", "lk", "lc", "lucas", "luca", "luc", "lukas"}},
	{ID: "John", Name: "John", Abbrev: "Jn", Testament: NewTestament, Chapters: 21, Codes: nt(4),
		Aliases: []string{"john", "jn", "jhn", "juan", "giovanni", "jean", "joão", "johannes"}},
	{ID: "Acts", Name: "Acts", Abbrev: "Ac", Testament: NewTestament, Chapters: 28, Codes: nt(5),
		Aliases: []string{"acts", "act", "ac", "hechos", "atti", "actes", "atos"}},
	{ID: "Rom", Name: "Romans", Abbrev: "Ro", Testament: NewTestament, Chapters: 16, Codes: nt(6),
		Aliases: []string{"romans", "rom", "ro", "romanos", "romani", "romains"}},
	{ID: "1Cor", Name: "1 Corinthians", Abbrev: "1Co", Testament: NewTestament, Chapters: 16, Codes: nt(7),
		Aliases: []string{"1 corinthians", "1 cor", "1 co", "i corinthians", "1 corintios", "1 corinzi", "1 corinthiens"}},
	{ID: "2Cor", Name: "2 Corinthians", Abbrev: "2Co", Testament: NewTestament, Chapters: 13, Codes: nt(8),
		Aliases: []string{"2 corinthians", "2 cor", "2 co", "ii corinthians", "2 corintios", "2 corinzi", "2 corinthiens"}},
	{ID: "Gal", Name: "Galatians", Abbrev: "Ga", Testament: NewTestament, Chapters: 6, Codes: nt(9),
		Aliases: []string{"galatians", "gal", "ga", "gálatas", "galati", "galates"}},
	{ID: "Eph", Name: "Ephesians", Abbrev: "Eph", Testament: NewTestament, Chapters: 6, Codes: nt(10),
		Aliases: []string{"ephesians", "eph", "ep", "efesios", "efesini", "éphésiens"}},
	{ID: "Phil", Name: "Philippians", Abbrev: "Php", Testament: NewTestament, Chapters: 4, Codes: nt(11),
		Aliases: []string{"philippians", "phil", "php", "filipenses", "filippesi", "philippiens"}},
	{ID: "Col", Name: "Colossians", Abbrev: "Col", Testament: NewTestament, Chapters: 4, Codes: nt(12),
		Aliases: []string{"colossians", "col", "colosenses", "colossesi", "colossiens"}},
	{ID: "1Thess", Name: "1 Thessalonians", Abbrev: "1Th", Testament: NewTestament, Chapters: 5, Codes: nt(13),
		Aliases: []string{"1 thessalonians", "1 thess", "1 th", "i thessalonians", "1 tesalonicenses", "1 tessalonicesi"}},
	{ID: "2Thess", Name: "2 Thessalonians", Abbrev: "2Th", Testament: NewTestament, Chapters: 3, Codes: nt(14),
		Aliases: []string{"2 thessalonians", "2 thess", "2 th", "ii thessalonians", "2 tesalonicenses", "2 tessalonicesi"}},
	{ID: "1Tim", Name: "1 Timothy", Abbrev: "1Ti", Testament: NewTestament, Chapters: 6, Codes: nt(15),
		Aliases: []string{"1 timothy", "1 tim", "1 ti", "i timothy", "1 timoteo", "1 timothée"}},
	{ID: "2Tim", Name: "2 Timothy", Abbrev: "2Ti", Testament: NewTestament, Chapters: 4, Codes: nt(16),
		Aliases: []string{"2 timothy", "2 tim", "2 ti", "ii timothy", "2 timoteo", "2 timothée"}},
	{ID: "Titus", Name: "Titus", Abbrev: "Tit", Testament: NewTestament, Chapters: 3, Codes: nt(17),
		Aliases: []string{"titus", "tit", "tito", "tite"}},
	{ID: "Phlm", Name: "Philemon", Abbrev: "Phm", Testament: NewTestament, Chapters: 1, Codes: nt(18),
		Aliases: []string{"philemon", "philem", "phm", "filemón", "filemone", "philémon"}},
	{ID: "Heb", Name: "Hebrews", Abbrev: "Heb", Testament: NewTestament, Chapters: 13, Codes: nt(19),
		Aliases: []string{"hebrews", "heb", "hebreos", "ebrei", "hébreux"}},
	{ID: "Jas", Name: "James", Abbrev: "Jas", Testament: NewTestament, Chapters: 5, Codes: nt(20),
		Aliases: []string{"james", "jas", "jm", "santiago", "giacomo", "jacques"}},
	{ID: "1Pet", Name: "1 Peter", Abbrev: "1Pe", Testament: NewTestament, Chapters: 5, Codes: nt(21),
		Aliases: []string{"1 peter", "1 pet", "1 pe", "i peter", "1 pedro", "1 pietro", "1 pierre"}},
	{ID: "2Pet", Name: "2 Peter", Abbrev: "2Pe", Testament: NewTestament, Chapters: 3, Codes: nt(22),
		Aliases: []string{"2 peter", "2 pet", "2 pe", "ii peter", "2 pedro", "2 pietro", "2 pierre"}},
	{ID: "1John", Name: "1 John", Abbrev: "1Jn", Testament: NewTestament, Chapters: 5, Codes: nt(23),
		Aliases: []string{"1 john", "1 jn", "1 jhn", "i john", "1 juan", "1 giovanni", "1 jean"}},
	{ID: "2John", Name: "2 John", Abbrev: "2Jn", Testament: NewTestament, Chapters: 1, Codes: nt(24),
		Aliases: []string{"2 john", "2 jn", "2 jhn", "ii john", "2 juan", "2 giovanni", "2 jean"}},
	{ID: "3John", Name: "3 John", Abbrev: "3Jn", Testament: NewTestament, Chapters: 1, Codes: nt(25),
		Aliases: []string{"3 john", "3 jn", "3 jhn", "iii john", "3 juan", "3 giovanni", "3 jean"}},
	{ID: "Jude", Name: "Jude", Abbrev: "Jud", Testament: NewTestament, Chapters: 1, Codes: nt(26),
		Aliases: []string{"jude", "jud", "judas", "giuda"}},
	{ID: "Rev", Name: "Revelation", Abbrev: "Re", Testament: NewTestament, Chapters: 22, Codes: nt(27),
		Aliases: []string{"revelation", "rev", "re", "apocalipsis", "apocalisse", "apocalypse", "apokalypse"}},
}
