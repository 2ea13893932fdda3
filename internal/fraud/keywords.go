package fraud

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jdkato/prose/v2"
)

// defaultKeywordPatterns are lowercase phrases matched against normalized
// listing text. They cover the common scam tells: urgency pressure,
// off-platform payment, and viewing avoidance. Overridable via config.
var defaultKeywordPatterns = []string{
	"wire transfer",
	"western union",
	"moneygram",
	"gift card",
	"crypto",
	"bitcoin",
	"pay before viewing",
	"deposit before viewing",
	"deposit upfront",
	"no viewing",
	"viewing not possible",
	"viewings not possible",
	"keys will be posted",
	"currently abroad",
	"out of the country",
	"overseas",
	"urgent",
	"act fast",
	"limited time",
	"first come first served",
	"whatsapp only",
	"contact me directly",
	"off the platform",
	"outside the platform",
	"god bless",
}

// normalizeContent strips any HTML markup from listing text and collapses
// it to a lowercase token stream so phrase patterns match regardless of
// markup, casing, or whitespace.
func normalizeContent(raw string) string {
	text := raw
	if strings.ContainsRune(raw, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
			text = doc.Text()
		}
	}

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return strings.ToLower(strings.Join(strings.Fields(text), " "))
	}

	tokens := doc.Tokens()
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		parts = append(parts, strings.ToLower(tok.Text))
	}

	return strings.Join(parts, " ")
}
