package translate

import (
	"context"
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
)

// apolloSizeRanges expands each upstream bucket into apollo's finer employee
// ranges. Total over upstreamSizeBuckets.
var apolloSizeRanges = map[string][]string{
	"1,10":       {"1,10"},
	"11,50":      {"11,20", "21,50"},
	"51,200":     {"51,100", "101,200"},
	"201,500":    {"201,500"},
	"501,1000":   {"501,1000"},
	"1001,5000":  {"1001,2000", "2001,5000"},
	"5001,10000": {"5001,10000"},
	"10001+":     {"10001+"},
}

// apolloSeniorities maps upstream seniority tags onto apollo's vocabulary,
// which the upstream tags were modeled on.
var apolloSeniorities = map[string]string{
	"owner":    "owner",
	"founder":  "founder",
	"c_suite":  "c_suite",
	"partner":  "partner",
	"vp":       "vp",
	"head":     "head",
	"director": "director",
	"manager":  "manager",
	"senior":   "senior",
	"entry":    "entry",
	"intern":   "intern",
}

type apolloDestination struct{}

func (apolloDestination) Name() string { return "apollo" }

// Translate builds an apollo search payload. Apollo accepts opaque industry
// tag IDs natively, so id-bearing refs pass through without touching the
// mapping store; name-only refs go out as keyword filters.
func (apolloDestination) Translate(_ context.Context, intent model.IndustryIntent, _ MappingStore) (*Payload, error) {
	p := &Payload{Destination: "apollo", Filters: map[string][]string{}}

	addFilter(p, "person_titles", dedupePreserve(intent.TitleKeywords))

	var seniorities []string
	for _, s := range intent.Seniorities {
		tag := strings.ToLower(strings.TrimSpace(s))
		if tag == "" {
			continue
		}
		mapped, ok := apolloSeniorities[tag]
		if !ok {
			return nil, &MappingGapError{Destination: "apollo", Field: "seniority", Bucket: s}
		}
		seniorities = append(seniorities, mapped)
	}
	addFilter(p, "person_seniorities", dedupePreserve(seniorities))

	var tagIDs, nameOnly []string
	for _, ref := range intent.Industries {
		switch {
		case ref.ID != "":
			tagIDs = append(tagIDs, ref.ID)
		case ref.Name != "":
			nameOnly = append(nameOnly, ref.Name)
		}
	}
	addFilter(p, "organization_industry_tag_ids", dedupePreserve(tagIDs))
	addFilter(p, "industry_keywords", dedupePreserve(nameOnly))

	addFilter(p, "person_locations", expandLocations(intent.Locations))

	var ranges []string
	for _, bucket := range intent.CompanySizes {
		b := strings.TrimSpace(bucket)
		if b == "" {
			continue
		}
		expanded, ok := apolloSizeRanges[b]
		if !ok {
			return nil, &MappingGapError{Destination: "apollo", Field: "company_size", Bucket: bucket}
		}
		ranges = append(ranges, expanded...)
	}
	addFilter(p, "organization_num_employees_ranges", dedupePreserve(ranges))

	addFilter(p, "q_keywords", dedupePreserve(intent.Keywords))

	return p, nil
}
