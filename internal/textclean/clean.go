package textclean

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mozillazg/go-unidecode"
)

var (
	specialChars = regexp.MustCompile(`[^\w\s.,!?-]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Clean normalizes review text: strips HTML, transliterates to ASCII,
// lowercases, drops special characters (keeping basic punctuation) and
// collapses whitespace. Returns "" for input that is empty after cleaning.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	if strings.Contains(text, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			doc.Find("script, style").Remove()
			text = doc.Text()
		}
	}

	text = unidecode.Unidecode(text)
	text = strings.ToLower(text)
	text = specialChars.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
