package dedupe

import (
	"github.com/sells-group/prospect-cli/internal/model"
)

// earlier reports whether a takes provenance priority over b: earlier scrape
// time first (a zero timestamp sorts first), then source tag, then campaign
// id, then the record carrying more populated fields, then field-by-field
// comparison. The chain is a total order on distinct records, which keeps
// every collapse independent of input order.
func earlier(a, b model.Lead) bool {
	at, bt := a.Provenance.ScrapedAt, b.Provenance.ScrapedAt
	if !at.Equal(bt) {
		return at.Before(bt)
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.Provenance.CampaignID != b.Provenance.CampaignID {
		return a.Provenance.CampaignID < b.Provenance.CampaignID
	}
	ap, bp := a.PopulatedFields(), b.PopulatedFields()
	if ap != bp {
		return ap > bp
	}
	for _, f := range model.FieldNames() {
		if av, bv := a.Field(f), b.Field(f); av != bv {
			return av < bv
		}
	}
	return false
}

// Merge combines two leads sharing one identity key. The earlier-provenance
// record is the base; the base keeps every populated field and only its empty
// fields are filled from the other record. Merge never overwrites a populated
// value and is commutative. Groups larger than two are collapsed in
// provenance order (see CollapseBatch), which makes the result a function of
// the group's member set alone.
func Merge(a, b model.Lead) model.Lead {
	base, other := a, b
	if earlier(b, a) {
		base, other = b, a
	}
	for _, f := range model.FieldNames() {
		if base.Field(f) == "" {
			if v := other.Field(f); v != "" {
				base.SetField(f, v)
			}
		}
	}
	return base
}
