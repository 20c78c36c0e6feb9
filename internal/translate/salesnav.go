package translate

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
)

// salesnavHeadcounts collapses upstream buckets onto Sales Navigator's
// company headcount letter codes. Total over upstreamSizeBuckets.
var salesnavHeadcounts = map[string]string{
	"1,10":       "B",
	"11,50":      "C",
	"51,200":     "D",
	"201,500":    "E",
	"501,1000":   "F",
	"1001,5000":  "G",
	"5001,10000": "H",
	"10001+":     "I",
}

// salesnavSeniorities maps upstream seniority tags onto Sales Navigator's
// seniority levels. Several upstream tags collapse to one level; the payload
// deduplicates.
var salesnavSeniorities = map[string]string{
	"owner":    "Owner",
	"founder":  "Owner",
	"c_suite":  "CXO",
	"partner":  "Partner",
	"vp":       "VP",
	"head":     "Director",
	"director": "Director",
	"manager":  "Manager",
	"senior":   "Senior",
	"entry":    "Entry",
	"intern":   "Training",
}

type salesnavDestination struct{}

func (salesnavDestination) Name() string { return "salesnav" }

// Translate builds a Sales Navigator search payload. Sales Navigator only
// accepts industry names, so id-only refs are resolved through the mapping
// store first; any unresolved ID fails the whole translation closed before a
// single filter is emitted.
func (salesnavDestination) Translate(ctx context.Context, intent model.IndustryIntent, store MappingStore) (*Payload, error) {
	names := make([]string, 0, len(intent.Industries))
	var idOnly []string
	for _, ref := range intent.Industries {
		switch {
		case ref.Name != "":
			names = append(names, ref.Name)
		case ref.ID != "":
			idOnly = append(idOnly, ref.ID)
		}
	}

	if len(idOnly) > 0 {
		if store == nil {
			ids := dedupePreserve(idOnly)
			sort.Strings(ids)
			return nil, &UnresolvedIndustryError{Destination: "salesnav", IDs: ids}
		}
		found, missing, err := store.ResolveIndustries(ctx, dedupePreserve(idOnly))
		if err != nil {
			return nil, eris.Wrap(err, "translate: resolve industry ids")
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, &UnresolvedIndustryError{Destination: "salesnav", IDs: missing}
		}
		for _, id := range dedupePreserve(idOnly) {
			names = append(names, found[id])
		}
	}

	p := &Payload{Destination: "salesnav", Filters: map[string][]string{}}

	addFilter(p, "title_keywords", dedupePreserve(intent.TitleKeywords))

	var seniorities []string
	for _, s := range intent.Seniorities {
		tag := strings.ToLower(strings.TrimSpace(s))
		if tag == "" {
			continue
		}
		mapped, ok := salesnavSeniorities[tag]
		if !ok {
			return nil, &MappingGapError{Destination: "salesnav", Field: "seniority", Bucket: s}
		}
		seniorities = append(seniorities, mapped)
	}
	addFilter(p, "seniority_levels", dedupePreserve(seniorities))

	addFilter(p, "industries", dedupePreserve(names))
	addFilter(p, "geographies", expandLocations(intent.Locations))

	var codes []string
	for _, bucket := range intent.CompanySizes {
		b := strings.TrimSpace(bucket)
		if b == "" {
			continue
		}
		code, ok := salesnavHeadcounts[b]
		if !ok {
			return nil, &MappingGapError{Destination: "salesnav", Field: "company_size", Bucket: bucket}
		}
		codes = append(codes, code)
	}
	addFilter(p, "company_headcounts", dedupePreserve(codes))

	addFilter(p, "keywords", dedupePreserve(intent.Keywords))

	return p, nil
}
