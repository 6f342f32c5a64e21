package refs

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	usccbBase       = "https://bible.usccb.org/bible/"
	bibleGatewayURL = "https://www.biblegateway.com/passage/"
)

// KnownDomains are the Bible sites whose presence in a text suppresses
// linking for the whole text.
var KnownDomains = []string{"bible.usccb.org", "vatican.va", "biblegateway.com"}

// versionCodes maps each language to the translation requested from Bible
// Gateway. English links go to USCCB instead; NABRE is kept for callers that
// want a Gateway link in English.
var versionCodes = map[Language]string{
	English:    "NABRE",
	Spanish:    "RVR1995",
	Italian:    "CEI",
	French:     "BDS",
	German:     "LUT",
	Portuguese: "ARC",
	Latin:      "VULGATE",
	Greek:      "TR",
}

// VersionCode returns the Bible Gateway version for lang, defaulting to NABRE.
func VersionCode(lang Language) string {
	if v, ok := versionCodes[lang]; ok {
		return v
	}
	return versionCodes[English]
}

// URLBuilder turns a reference into a link target.
type URLBuilder func(ref Reference, lang Language) string

// BuildURL links English to USCCB's NABRE and every other language to Bible
// Gateway with that language's version. Unknown languages are treated as
// English. URLs carry numeric verses only; sub-verse letters stay in the
// link text.
func BuildURL(ref Reference, lang Language) string {
	if _, ok := versionCodes[lang]; !ok || lang == English {
		return USCCBURL(ref)
	}
	return BibleGatewayURL(ref, VersionCode(lang))
}

// USCCBURL builds https://bible.usccb.org/bible/{slug}/{chapter}?{verse}-{end}.
func USCCBURL(ref Reference) string {
	if ref.Book == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(usccbBase)
	sb.WriteString(ref.Book.Slug)
	sb.WriteByte('/')
	sb.WriteString(strconv.Itoa(ref.Chapter))
	if ref.HasVerse() {
		sb.WriteByte('?')
		sb.WriteString(strconv.Itoa(ref.VerseStart.Number))
		if end := ref.EndVerse(); end != ref.VerseStart.Number {
			sb.WriteByte('-')
			sb.WriteString(strconv.Itoa(end))
		}
	}
	return sb.String()
}

// BibleGatewayURL builds a passage search for the canonical English name,
// e.g. search=John+3%3A16&version=RVR1995.
func BibleGatewayURL(ref Reference, version string) string {
	if ref.Book == nil {
		return ""
	}
	q := url.Values{}
	q.Set("search", gatewayPassage(ref))
	q.Set("version", version)
	return bibleGatewayURL + "?" + q.Encode()
}

func gatewayPassage(ref Reference) string {
	passage := ref.Book.Name + " " + strconv.Itoa(ref.Chapter)
	switch {
	case ref.HasVerse():
		passage += ":" + strconv.Itoa(ref.VerseStart.Number)
		if end := ref.EndVerse(); end != ref.VerseStart.Number {
			passage += "-" + strconv.Itoa(end)
		}
	case ref.ChapterEnd > 0:
		passage += "-" + strconv.Itoa(ref.ChapterEnd)
	}
	return passage
}
