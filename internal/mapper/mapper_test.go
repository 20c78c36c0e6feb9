package mapper

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func TestNormalizeApollo(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"first_name":   "Jane",
		"last_name":    "Smith",
		"title":        "VP Marketing",
		"email":        "j.smith@acme.com",
		"email_status": "verified",
		"linkedin_url": "https://linkedin.com/in/jane-smith",
		"city":         "Berlin",
		"country":      "Germany",
		"organization": map[string]any{
			"name":            "Acme GmbH",
			"website_url":     "https://acme.com",
			"linkedin_url":    "https://linkedin.com/company/acme",
			"phone":           "+49 30 1234567",
			"primary_domain":  "acme.com",
			"country":         "Germany",
			"industry":        "Computer Software",
			"industry_tag_id": float64(5567),
		},
	}

	reg := NewRegistry()
	lead, err := reg.Normalize(raw, "apollo")
	require.NoError(t, err)

	assert.Equal(t, "Jane", lead.FirstName)
	assert.Equal(t, "Smith", lead.LastName)
	assert.Equal(t, "VP Marketing", lead.Title)
	assert.Equal(t, "j.smith@acme.com", lead.Email)
	assert.Equal(t, "verified", lead.EmailStatus)
	assert.Equal(t, "https://linkedin.com/in/jane-smith", lead.ProfileURL)
	assert.Equal(t, "Acme GmbH", lead.CompanyName)
	assert.Equal(t, "https://acme.com", lead.CompanyWebsite)
	assert.Equal(t, "https://linkedin.com/company/acme", lead.CompanyLinkedIn)
	assert.Equal(t, "+49 30 1234567", lead.CompanyPhone)
	assert.Equal(t, "acme.com", lead.CompanyDomain)
	assert.Equal(t, "Germany", lead.CompanyCountry)
	assert.Equal(t, "Computer Software", lead.Industry)
	assert.Equal(t, "apollo", lead.Source)
}

func TestNormalizeSalesnav(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"firstName":   "Piotr",
		"lastName":    "Kowalski",
		"jobTitle":    "Head of Growth",
		"profileUrl":  "https://linkedin.com/in/piotr-kowalski",
		"companyName": "Widgets sp. z o.o.",
		"companyUrl":  "https://linkedin.com/company/widgets",
		"location":    "Warsaw",
		"country":     "Poland",
		"industry":    "Marketing & Advertising",
	}

	reg := NewRegistry()
	lead, err := reg.Normalize(raw, "salesnav")
	require.NoError(t, err)

	assert.Equal(t, "Piotr", lead.FirstName)
	assert.Equal(t, "Kowalski", lead.LastName)
	assert.Equal(t, "Head of Growth", lead.Title)
	assert.Equal(t, "https://linkedin.com/in/piotr-kowalski", lead.ProfileURL)
	assert.Equal(t, "Widgets sp. z o.o.", lead.CompanyName)
	assert.Equal(t, "https://linkedin.com/company/widgets", lead.CompanyLinkedIn)
	assert.Equal(t, "Warsaw", lead.City)
	assert.Equal(t, "Poland", lead.Country)
	assert.Equal(t, "Marketing & Advertising", lead.Industry)
	assert.Equal(t, "salesnav", lead.Source)
	assert.Empty(t, lead.Email)
}

func TestNormalizeSnov(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"first_name":           "Ana",
		"last_name":            "Costa",
		"position":             "Operations Manager",
		"email":                "ana@exemplo.pt",
		"smtp_status":          "valid",
		"source_page":          "https://linkedin.com/in/ana-costa",
		"locality":             "Lisbon",
		"country":              "Portugal",
		"company_name":         "Exemplo Lda",
		"company_site":         "https://exemplo.pt",
		"company_phone_number": "+351 21 123 4567",
		"company_industry":     "Logistics",
	}

	reg := NewRegistry()
	lead, err := reg.Normalize(raw, "snov")
	require.NoError(t, err)

	assert.Equal(t, "Operations Manager", lead.Title)
	assert.Equal(t, "valid", lead.EmailStatus)
	assert.Equal(t, "https://linkedin.com/in/ana-costa", lead.ProfileURL)
	assert.Equal(t, "Lisbon", lead.City)
	assert.Equal(t, "https://exemplo.pt", lead.CompanyWebsite)
	assert.Equal(t, "+351 21 123 4567", lead.CompanyPhone)
	assert.Equal(t, "Logistics", lead.Industry)
	assert.Equal(t, "snov", lead.Source)
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	raws := map[string]map[string]any{
		"apollo": {
			"first_name":   "Jane",
			"last_name":    "Smith",
			"linkedin_url": "https://linkedin.com/in/jane-smith",
			"organization": map[string]any{"name": "Acme", "industry": "Software"},
		},
		"salesnav": {
			"firstName":   "Piotr",
			"lastName":    "Kowalski",
			"profileUrl":  "https://linkedin.com/in/piotr-kowalski",
			"companyName": "Widgets",
		},
		"snov": {
			"first_name":  "Ana",
			"last_name":   "Costa",
			"position":    "Ops",
			"source_page": "https://linkedin.com/in/ana-costa",
		},
	}

	reg := NewRegistry()
	for source, raw := range raws {
		t.Run(source, func(t *testing.T) {
			t.Parallel()

			once, err := reg.Normalize(raw, source)
			require.NoError(t, err)

			// Round-trip the canonical lead back into a raw map and map it
			// again: without marker keys it must decode unchanged.
			buf, err := json.Marshal(once)
			require.NoError(t, err)
			var canonical map[string]any
			require.NoError(t, json.Unmarshal(buf, &canonical))

			twice, err := reg.Normalize(canonical, source)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		})
	}
}

func TestNormalizeUnknownSource(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	_, err := reg.Normalize(map[string]any{"email": "x@y.com"}, "zoominfo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSource))
}

func TestNormalizeNoIdentity(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"organization": map[string]any{"phone": "+1 555 0100"},
	}

	reg := NewRegistry()
	_, err := reg.Normalize(raw, "apollo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoIdentity))
}

func TestNormalizeCoercesValues(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"firstName":   "  Lena  ",
		"lastName":    "Berg",
		"companyName": "Nord AS",
		"companyId":   float64(91234),
	}

	reg := NewRegistry()
	lead, err := reg.Normalize(raw, "salesnav")
	require.NoError(t, err)
	assert.Equal(t, "Lena", lead.FirstName)
}

func TestLearned(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	raw := map[string]any{
		"first_name":   "Jane",
		"linkedin_url": "https://linkedin.com/in/jane",
		"organization": map[string]any{
			"name":            "Acme",
			"industry":        "Computer Software",
			"industry_tag_id": float64(5567),
		},
	}
	m, ok := reg.Learned(raw, "apollo")
	require.True(t, ok)
	assert.Equal(t, model.LearnedMapping{ID: "5567", Name: "Computer Software"}, m)

	// Sources without identifier keys never teach mappings.
	_, ok = reg.Learned(map[string]any{"firstName": "P", "industry": "Retail"}, "salesnav")
	assert.False(t, ok)

	// Identifier without a name teaches nothing.
	_, ok = reg.Learned(map[string]any{
		"linkedin_url": "https://linkedin.com/in/x",
		"organization": map[string]any{"industry_tag_id": float64(12)},
	}, "apollo")
	assert.False(t, ok)
}

func TestRegisterCustomSource(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(Schema{
		Source:  "lusha",
		Fields:  map[string][]string{"email": {"contact_email"}, "first_name": {"fname"}},
		Markers: []string{"contact_email", "fname"},
	})

	assert.Equal(t, []string{"apollo", "lusha", "salesnav", "snov"}, reg.Sources())

	lead, err := reg.Normalize(map[string]any{"contact_email": "a@b.co", "fname": "Al"}, "lusha")
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", lead.Email)
	assert.Equal(t, "lusha", lead.Source)
}
