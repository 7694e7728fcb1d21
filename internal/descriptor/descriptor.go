// Package descriptor encodes and parses the legacy audit string stored in
// DisplayGroup.Description.
//
// The value is a versionless mini-protocol that predates this engine and is
// still read by historical tooling, so the exact token order must be
// preserved: a single space-joined string of
//
//	displayName firstName lastName login id email
//
// Recovery is positional only at the edges: the embedded id is the first
// standalone run of digits in the string, and the email is the last
// whitespace-delimited token when it validates as an email address. Everything
// before the id token is treated as free-text name material.
package descriptor

import (
	"strconv"
	"strings"

	"authorfix/internal/slugify"
)

// Fields holds the values carried by a descriptor.
type Fields struct {
	DisplayName string
	FirstName   string
	LastName    string
	Login       string
	ID          int64
	Email       string
}

// Encode renders the canonical descriptor string. Empty components are
// omitted rather than padded; consumers recover id and email positionally
// from the token stream, not by index.
func Encode(f Fields) string {
	parts := make([]string, 0, 6)
	for _, part := range []string{f.DisplayName, f.FirstName, f.LastName, f.Login} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if f.ID > 0 {
		parts = append(parts, strconv.FormatInt(f.ID, 10))
	}
	if email := strings.TrimSpace(f.Email); email != "" {
		parts = append(parts, email)
	}
	return strings.Join(parts, " ")
}

// Parse recovers the embedded id, email, and free-text name from a descriptor.
// Missing components leave their zero values.
func Parse(text string) Fields {
	var f Fields
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return f
	}

	idIndex := -1
	for i, token := range tokens {
		if isDigits(token) {
			if id, err := strconv.ParseInt(token, 10, 64); err == nil {
				f.ID = id
				idIndex = i
			}
			break
		}
	}

	last := len(tokens) - 1
	if slugify.IsEmail(tokens[last]) {
		f.Email = tokens[last]
	}

	nameEnd := len(tokens)
	if idIndex >= 0 {
		nameEnd = idIndex
	} else if f.Email != "" {
		nameEnd = last
	}
	f.DisplayName = strings.Join(tokens[:nameEnd], " ")
	f.FirstName, f.LastName = SplitName(f.DisplayName)
	return f
}

// SplitName splits free-text name material into first and last tokens using
// the legacy rule: the final token is the last name, everything before it is
// the first name. Lossy for multi-word surnames; kept as documented
// best-effort behavior.
func SplitName(name string) (first, last string) {
	tokens := strings.Fields(name)
	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return tokens[0], ""
	default:
		return strings.Join(tokens[:len(tokens)-1], " "), tokens[len(tokens)-1]
	}
}

func isDigits(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
