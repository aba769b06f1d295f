package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Handle derives the URL-safe slug used as the storefront product's stable
// lookup key: manufacturer and model lowercased, diacritics folded, runs of
// non-alphanumeric characters collapsed to a single hyphen.
func Handle(manufacturer, model string) string {
	base := strings.ToLower(strings.TrimSpace(manufacturer + " " + model))
	if folded, _, err := transform.String(diacriticFolder, base); err == nil {
		base = folded
	}

	var b strings.Builder
	b.Grow(len(base))
	pendingHyphen := false
	for _, r := range base {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
