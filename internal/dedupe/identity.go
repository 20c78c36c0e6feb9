// Package dedupe computes identity keys for leads and merges duplicates, both
// within one scrape batch and across a client's campaign history. Merging is
// strictly additive: a populated field is never overwritten, later records
// only fill gaps left by earlier ones.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/names"
)

// companySuffixPattern matches trailing business entity suffixes so that
// "Acme, Inc." and "Acme Inc" hash to the same company.
var companySuffixPattern = regexp.MustCompile(`(?i)[,\s]+(inc\.?|llc\.?|ltd\.?|co\.?|corp\.?|corporation|company|gmbh|a\.?g\.?|s\.?a\.?|sarl|s\.?r\.?l\.?|b\.?v\.?|oy|ab|as|aps|kft|plc|pty|lda|sp\.?\s*z\s*o\.?\s*o\.?)\.?$`)

// Identity derives the identity key for a lead: lower-cased email when
// present, else the normalized profile URL, else a short hash of the
// normalized person and company names. Two leads with the same key are the
// same person and must never coexist in a final set.
func Identity(lead model.Lead) string {
	if email := strings.ToLower(strings.TrimSpace(lead.Email)); email != "" {
		return "email:" + email
	}
	if u := NormalizeProfileURL(lead.ProfileURL); u != "" {
		return "url:" + u
	}
	person := normPerson(lead.FullName())
	company := normCompany(lead.CompanyName)
	sum := sha256.Sum256([]byte(person + "|" + company))
	return "name:" + hex.EncodeToString(sum[:])[:16]
}

// NormalizeProfileURL canonicalizes a profile URL for identity comparison:
// lower-cased, scheme and www. stripped, query/fragment and trailing slash
// dropped.
func NormalizeProfileURL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	if u == "" {
		return ""
	}
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	if idx := strings.IndexAny(u, "?#"); idx >= 0 {
		u = u[:idx]
	}
	return strings.TrimRight(u, "/")
}

// normPerson folds a personal name for hashing: diacritics stripped,
// lower-cased, whitespace collapsed.
func normPerson(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(names.StripDiacritics(name))), " ")
}

// normCompany folds a company name for hashing, additionally dropping the
// trailing entity suffix.
func normCompany(name string) string {
	stripped := companySuffixPattern.ReplaceAllString(strings.TrimSpace(name), "")
	return normPerson(stripped)
}
