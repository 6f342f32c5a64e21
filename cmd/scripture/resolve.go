package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/santapalabra/scripture/core/refs"
)

// textArgs joins positional words into one text, or reads stdin when there
// are none.
func textArgs(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// language picks the rendering language from --lang, or detects it.
func language(name string, text string) (refs.Language, error) {
	if name == "" || name == "auto" {
		return refs.Resolve(refs.NewKeywordDetector(), text, refs.English), nil
	}
	lang, ok := refs.ParseLanguage(name)
	if !ok {
		return "", fmt.Errorf("unsupported language %q (supported: %s)", name, languageList())
	}
	return lang, nil
}

func languageList() string {
	var names []string
	for _, l := range refs.Languages() {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}

// LinkCmd replaces citations with Markdown links.
type LinkCmd struct {
	Text []string `arg:"" optional:"" help:"Text to link; read from stdin when omitted"`
	Lang string   `short:"l" help:"Link language (name or ISO code); detected when omitted"`
}

func (c *LinkCmd) Run(g *Globals) error {
	text, err := textArgs(c.Text)
	if err != nil {
		return err
	}
	lang, err := language(c.Lang, text)
	if err != nil {
		return err
	}
	g.printf("%s\n", strings.TrimRight(refs.Link(text, lang), "\n"))
	return nil
}

// RefsCmd lists the citations in a text.
type RefsCmd struct {
	Text []string `arg:"" optional:"" help:"Text to scan; read from stdin when omitted"`
	Lang string   `short:"l" help:"Language for the printed URLs; detected when omitted"`
	JSON bool     `name:"json" help:"Print JSON"`
}

type refOutput struct {
	OSIS        string `json:"osis"`
	Reference   string `json:"reference"`
	MatchedText string `json:"matched_text"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	URL         string `json:"url"`
}

func (c *RefsCmd) Run(g *Globals) error {
	text, err := textArgs(c.Text)
	if err != nil {
		return err
	}
	lang, err := language(c.Lang, text)
	if err != nil {
		return err
	}

	linker := refs.Default()
	found := linker.Extract(text)
	out := make([]refOutput, 0, len(found))
	for _, ref := range found {
		out = append(out, refOutput{
			OSIS:        ref.OSIS(),
			Reference:   ref.String(),
			MatchedText: ref.MatchedText,
			Start:       ref.Start,
			End:         ref.End,
			URL:         linker.URL(ref, lang),
		})
	}

	if c.JSON {
		enc := json.NewEncoder(g.out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	for _, r := range out {
		g.printf("%s\t%s\t%s\n", r.OSIS, r.MatchedText, r.URL)
	}
	return nil
}

// DetectCmd prints the language the keyword detector picks.
type DetectCmd struct {
	Text []string `arg:"" optional:"" help:"Text to inspect; read from stdin when omitted"`
}

func (c *DetectCmd) Run(g *Globals) error {
	text, err := textArgs(c.Text)
	if err != nil {
		return err
	}
	lang, ok := refs.NewKeywordDetector().Detect(text)
	if !ok {
		g.printf("unknown (links default to %s)\n", refs.English)
		return nil
	}
	g.printf("%s\n", lang)
	return nil
}
