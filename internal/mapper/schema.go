package mapper

// Schema describes how one upstream source shapes its raw records. Fields maps
// each canonical lead field to the raw key paths that may carry it, tried in
// order; paths may be dotted to reach nested objects. Markers are top-level
// raw keys that only this source emits: a record containing none of them is
// treated as already canonical and decoded as-is, which is what makes
// normalization idempotent.
type Schema struct {
	Source  string
	Fields  map[string][]string
	Markers []string

	// IndustryIDKey and IndustryNameKey, when both set, name the raw paths
	// carrying an opaque industry identifier and its display name. Records
	// that populate both teach the industry mapping store a new pair.
	IndustryIDKey   string
	IndustryNameKey string
}

// matches reports whether the raw record carries any of the schema's marker
// keys, i.e. whether it is still source-shaped rather than canonical.
func (s Schema) matches(raw map[string]any) bool {
	for _, key := range s.Markers {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	return false
}

var apolloSchema = Schema{
	Source: "apollo",
	Fields: map[string][]string{
		"first_name":       {"first_name"},
		"last_name":        {"last_name"},
		"title":            {"title"},
		"email":            {"email"},
		"email_status":     {"email_status"},
		"profile_url":      {"linkedin_url"},
		"city":             {"city"},
		"country":          {"country"},
		"company_name":     {"organization.name"},
		"company_website":  {"organization.website_url"},
		"company_linkedin": {"organization.linkedin_url"},
		"company_phone":    {"organization.phone", "organization.sanitized_phone"},
		"company_domain":   {"organization.primary_domain"},
		"company_country":  {"organization.country"},
		"industry":         {"organization.industry"},
	},
	Markers:         []string{"organization", "linkedin_url"},
	IndustryIDKey:   "organization.industry_tag_id",
	IndustryNameKey: "organization.industry",
}

var salesnavSchema = Schema{
	Source: "salesnav",
	Fields: map[string][]string{
		"first_name":       {"firstName"},
		"last_name":        {"lastName"},
		"title":            {"jobTitle", "title"},
		"email":            {"email"},
		"profile_url":      {"profileUrl", "linkedInProfileUrl"},
		"city":             {"city", "location"},
		"country":          {"country"},
		"company_name":     {"companyName"},
		"company_website":  {"companyWebsite"},
		"company_linkedin": {"companyUrl"},
		"company_phone":    {"companyPhone"},
		"company_domain":   {"companyDomain"},
		"industry":         {"industry"},
	},
	Markers: []string{"firstName", "lastName", "profileUrl", "companyName"},
}

var snovSchema = Schema{
	Source: "snov",
	Fields: map[string][]string{
		"first_name":      {"first_name"},
		"last_name":       {"last_name"},
		"title":           {"position"},
		"email":           {"email"},
		"email_status":    {"smtp_status"},
		"profile_url":     {"source_page"},
		"city":            {"locality", "city"},
		"country":         {"country"},
		"company_name":    {"company_name"},
		"company_website": {"company_site"},
		"company_phone":   {"company_phone_number"},
		"industry":        {"company_industry"},
	},
	Markers: []string{"position", "source_page", "company_site", "smtp_status"},
}
