package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// IndustryRef names one target industry, either by an opaque platform
// identifier, by a human-readable label, or both. Refs with only an ID must
// be resolved through the industry mapping store before a destination that
// needs text names can use them.
type IndustryRef struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// IndustryIntent is the structured target-audience description extracted from
// one upstream query. It is immutable once extracted for a campaign: both the
// filter pipeline and the query translator consume it as-is.
type IndustryIntent struct {
	TitleKeywords []string      `json:"title_keywords,omitempty" yaml:"title_keywords,omitempty"`
	Seniorities   []string      `json:"seniorities,omitempty" yaml:"seniorities,omitempty"`
	Industries    []IndustryRef `json:"industries,omitempty" yaml:"industries,omitempty"`
	Locations     []string      `json:"locations,omitempty" yaml:"locations,omitempty"`
	CompanySizes  []string      `json:"company_sizes,omitempty" yaml:"company_sizes,omitempty"`
	Keywords      []string      `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Signature returns a stable hex digest of the intent. Struct field order is
// fixed, so the JSON encoding is deterministic and the digest can key the
// relevance verdict cache across runs.
func (i IndustryIntent) Signature() string {
	data, err := json.Marshal(i)
	if err != nil {
		// Marshal of plain strings cannot fail; keep the signature total anyway.
		return "invalid-intent"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IndustryLabels returns the human-readable industry names present in the
// intent, skipping refs that carry only an opaque ID.
func (i IndustryIntent) IndustryLabels() []string {
	var labels []string
	for _, ref := range i.Industries {
		if ref.Name != "" {
			labels = append(labels, ref.Name)
		}
	}
	return labels
}

// UnresolvedIndustryIDs returns the opaque identifiers that have no label on
// the ref itself.
func (i IndustryIntent) UnresolvedIndustryIDs() []string {
	var ids []string
	for _, ref := range i.Industries {
		if ref.ID != "" && ref.Name == "" {
			ids = append(ids, ref.ID)
		}
	}
	return ids
}
