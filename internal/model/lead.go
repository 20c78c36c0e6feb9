package model

import (
	"strings"
	"time"
)

// Lead is the canonical record for one person plus their organization. Every
// field is a string and is always present: a source that does not carry a
// field yields the empty string, never a null marker. The canonical field set
// is the boundary contract for dedup, filtering, and export — adding a field
// here requires updating every source schema in the mapper registry.
type Lead struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Title           string `json:"title"`
	Email           string `json:"email"`
	EmailStatus     string `json:"email_status"`
	ProfileURL      string `json:"profile_url"`
	City            string `json:"city"`
	Country         string `json:"country"`
	CompanyName     string `json:"company_name"`
	CompanyWebsite  string `json:"company_website"`
	CompanyLinkedIn string `json:"company_linkedin"`
	CompanyPhone    string `json:"company_phone"`
	CompanyDomain   string `json:"company_domain"`
	CompanyCountry  string `json:"company_country"`
	Industry        string `json:"industry"`
	Source          string `json:"source"`

	Provenance Provenance `json:"provenance"`
}

// Provenance records where and when a Lead entered the system. It travels
// with the record but is not part of its identity and is never merged
// field-by-field.
type Provenance struct {
	CampaignID string    `json:"campaign_id,omitempty"`
	ScrapedAt  time.Time `json:"scraped_at,omitempty"`
}

// leadFieldNames lists the canonical fields in schema order. Merge and the
// mapper iterate this list so that field handling stays deterministic.
var leadFieldNames = []string{
	"first_name",
	"last_name",
	"title",
	"email",
	"email_status",
	"profile_url",
	"city",
	"country",
	"company_name",
	"company_website",
	"company_linkedin",
	"company_phone",
	"company_domain",
	"company_country",
	"industry",
	"source",
}

// FieldNames returns the canonical Lead field names in schema order.
func FieldNames() []string {
	out := make([]string, len(leadFieldNames))
	copy(out, leadFieldNames)
	return out
}

// Field returns the value of the named canonical field. Unknown names return
// the empty string.
func (l *Lead) Field(name string) string {
	switch name {
	case "first_name":
		return l.FirstName
	case "last_name":
		return l.LastName
	case "title":
		return l.Title
	case "email":
		return l.Email
	case "email_status":
		return l.EmailStatus
	case "profile_url":
		return l.ProfileURL
	case "city":
		return l.City
	case "country":
		return l.Country
	case "company_name":
		return l.CompanyName
	case "company_website":
		return l.CompanyWebsite
	case "company_linkedin":
		return l.CompanyLinkedIn
	case "company_phone":
		return l.CompanyPhone
	case "company_domain":
		return l.CompanyDomain
	case "company_country":
		return l.CompanyCountry
	case "industry":
		return l.Industry
	case "source":
		return l.Source
	}
	return ""
}

// SetField sets the named canonical field. Unknown names are ignored.
func (l *Lead) SetField(name, value string) {
	switch name {
	case "first_name":
		l.FirstName = value
	case "last_name":
		l.LastName = value
	case "title":
		l.Title = value
	case "email":
		l.Email = value
	case "email_status":
		l.EmailStatus = value
	case "profile_url":
		l.ProfileURL = value
	case "city":
		l.City = value
	case "country":
		l.Country = value
	case "company_name":
		l.CompanyName = value
	case "company_website":
		l.CompanyWebsite = value
	case "company_linkedin":
		l.CompanyLinkedIn = value
	case "company_phone":
		l.CompanyPhone = value
	case "company_domain":
		l.CompanyDomain = value
	case "company_country":
		l.CompanyCountry = value
	case "industry":
		l.Industry = value
	case "source":
		l.Source = value
	}
}

// FullName joins the name parts with a single space, tolerating either part
// being empty.
func (l *Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// PopulatedFields counts non-empty canonical fields. Used as a merge
// tie-break so the record with more signal becomes the base.
func (l *Lead) PopulatedFields() int {
	n := 0
	for _, name := range leadFieldNames {
		if l.Field(name) != "" {
			n++
		}
	}
	return n
}

// HasIdentitySignal reports whether the Lead carries at least one value an
// identity key can be derived from. Records without any are schema errors
// and are dropped at mapping time.
func (l *Lead) HasIdentitySignal() bool {
	return l.Email != "" || l.ProfileURL != "" || l.FullName() != "" || l.CompanyName != ""
}
