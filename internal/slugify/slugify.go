// Package slugify derives URL slugs from display names and provides the
// small string predicates the matcher and planner share.
package slugify

import (
	"net/mail"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitize converts free text into a URL slug: accents folded to ASCII,
// lowercased, with runs of non-alphanumeric characters collapsed to single
// hyphens. Returns "" when nothing survives.
func Sanitize(text string) string {
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		folded = text
	}
	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// StripPrefix removes the namespace marker from a slug when present.
func StripPrefix(slug, prefix string) string {
	if prefix == "" {
		return slug
	}
	return strings.TrimPrefix(slug, prefix)
}

// IsEmail reports whether the value parses as a bare email address.
func IsEmail(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || !strings.Contains(value, "@") {
		return false
	}
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}

// EmailLocalPart returns the portion of an email address before the at sign,
// or the input unchanged when it contains none.
func EmailLocalPart(email string) string {
	if at := strings.IndexByte(email, '@'); at >= 0 {
		return email[:at]
	}
	return email
}
