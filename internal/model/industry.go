package model

// Verdict is the relevance classifier's judgement for one industry label.
type Verdict string

const (
	VerdictRelevant   Verdict = "relevant"
	VerdictMaybe      Verdict = "maybe"
	VerdictIrrelevant Verdict = "irrelevant"
)

// ParseVerdict maps a classifier response token onto a Verdict. Unknown
// tokens are not verdicts; callers decide the fallback (the relevance stage
// treats them as maybe, so ambiguity favors inclusion).
func ParseVerdict(s string) (Verdict, bool) {
	switch Verdict(s) {
	case VerdictRelevant, VerdictMaybe, VerdictIrrelevant:
		return Verdict(s), true
	}
	return "", false
}

// LearnedMapping is one opaque-identifier to human-readable-name pair
// observed in a raw record whose source carries both. Ingestion appends these
// to the industry mapping store; the store is append-only, so re-learning an
// existing identifier never overwrites the first name.
type LearnedMapping struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawBatch is one scraper export: the source tag plus its records decoded to
// generic maps. The mapper owns turning these into canonical Leads.
type RawBatch struct {
	Source  string           `json:"source"`
	Records []map[string]any `json:"records"`
}
