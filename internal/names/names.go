// Package names restores diacritics that upstream sources flatten out of
// personal names, using the lead's own profile-URL slug as evidence. The
// restorer only ever rewrites a name when the slug and the current name agree
// after stripping, so an unrelated or miskeyed profile link can never corrupt
// a record.
package names

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/prospect-cli/internal/model"
)

// RestoreDiacritics returns the lead with its name fields rewritten from the
// profile-URL slug when, and only when, the diacritic-stripped slug matches
// the diacritic-stripped current full name. Slugs without diacritics, slugs
// in non-Latin scripts, and mismatching slugs leave the lead untouched.
func RestoreDiacritics(lead model.Lead) model.Lead {
	current := lead.FullName()
	if lead.ProfileURL == "" || current == "" {
		return lead
	}

	decoded := slugName(lead.ProfileURL)
	if decoded == "" || !latinOnly(decoded) {
		return lead
	}

	stripped := StripDiacritics(decoded)
	if stripped == decoded {
		// Nothing to restore; keep the original casing.
		return lead
	}
	if !strings.EqualFold(stripped, StripDiacritics(current)) {
		return lead
	}

	titled := cases.Title(language.Und).String(decoded)
	first, last := splitName(titled)
	if last == "" && lead.LastName != "" {
		// Single-token slug against a last-name-only lead.
		if lead.FirstName == "" {
			lead.LastName = first
		}
		return lead
	}
	lead.FirstName = first
	lead.LastName = last
	return lead
}

// slugName extracts the trailing path segment of a profile URL and renders it
// as a spaced name: separators become spaces and trailing numeric or hash id
// segments are dropped.
func slugName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.TrimRight(parsed.Path, "/")
	if path == "" {
		return ""
	}
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}

	tokens := strings.FieldsFunc(path, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for len(tokens) > 0 && hasDigit(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// splitName separates a spaced full name into first and last parts.
func splitName(full string) (string, string) {
	tokens := strings.Fields(full)
	if len(tokens) == 0 {
		return "", ""
	}
	if len(tokens) == 1 {
		return tokens[0], ""
	}
	return tokens[0], strings.Join(tokens[1:], " ")
}

// StripDiacritics removes combining marks: NFD decomposition, drop the marks,
// recompose. The transformer chain is built per call because it is stateful.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// latinOnly reports whether every letter in s belongs to the Latin script.
// Decoded slugs in other scripts pass through the restorer unchanged.
func latinOnly(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.Is(unicode.Latin, r) {
				return false
			}
			continue
		}
		if !unicode.IsSpace(r) && r != '\'' && r != '.' {
			return false
		}
	}
	return true
}

// hasDigit reports whether the token contains any decimal digit.
func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
