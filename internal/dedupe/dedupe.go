package dedupe

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
)

// MergeGroup records one collapsed identity group for the batch report.
type MergeGroup struct {
	Key     string   `json:"key"`
	Count   int      `json:"count"`
	Sources []string `json:"sources"`
}

// BatchReport summarizes one intra-batch collapse.
type BatchReport struct {
	Input  int          `json:"input"`
	Output int          `json:"output"`
	Merged int          `json:"merged"`
	Groups []MergeGroup `json:"groups,omitempty"`
}

// CampaignReport summarizes cross-campaign dedup for one campaign. RemovedBy
// attributes each removed lead to the campaign that already owned its
// identity, including the campaign itself for internal duplicates.
type CampaignReport struct {
	CampaignID string         `json:"campaign_id"`
	Baseline   bool           `json:"baseline"`
	Input      int            `json:"input"`
	Kept       int            `json:"kept"`
	Removed    int            `json:"removed"`
	RemovedBy  map[string]int `json:"removed_by,omitempty"`
}

// CollapseBatch groups leads by identity key and folds each group into one
// record. Groups keep the position of their first appearance; within a group
// the fold runs in provenance order, so the output depends only on the input
// set, never on its ordering.
func CollapseBatch(leads []model.Lead) ([]model.Lead, BatchReport) {
	groups := make(map[string][]model.Lead, len(leads))
	order := make([]string, 0, len(leads))
	for _, l := range leads {
		key := Identity(l)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], l)
	}

	report := BatchReport{Input: len(leads)}
	out := make([]model.Lead, 0, len(order))
	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		sort.SliceStable(group, func(i, j int) bool { return earlier(group[i], group[j]) })
		merged := group[0]
		for _, dup := range group[1:] {
			merged = Merge(merged, dup)
		}
		out = append(out, merged)
		report.Merged += len(group) - 1
		report.Groups = append(report.Groups, MergeGroup{
			Key:     key,
			Count:   len(group),
			Sources: groupSources(group),
		})
	}
	report.Output = len(out)
	return out, report
}

// groupSources lists the distinct source tags in a group, sorted.
func groupSources(group []model.Lead) []string {
	seen := make(map[string]bool, len(group))
	var out []string
	for _, l := range group {
		if l.Source != "" && !seen[l.Source] {
			seen[l.Source] = true
			out = append(out, l.Source)
		}
	}
	sort.Strings(out)
	return out
}

// Option configures a Deduper.
type Option func(*Deduper)

// WithCampaignOrder overrides the comparator that decides campaign processing
// order, and with it which campaign is the baseline.
func WithCampaignOrder(less func(a, b model.Campaign) bool) Option {
	return func(d *Deduper) {
		d.campaignLess = less
	}
}

// Deduper runs cross-campaign deduplication for one client.
type Deduper struct {
	campaignLess func(a, b model.Campaign) bool
}

// NewDeduper creates a Deduper with the default oldest-first campaign order.
func NewDeduper(opts ...Option) *Deduper {
	d := &Deduper{campaignLess: defaultCampaignOrder}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// defaultCampaignOrder sorts by creation time, ties broken by campaign id.
func defaultCampaignOrder(a, b model.Campaign) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// DedupeCampaigns deduplicates a client's campaigns oldest-first. The
// baseline campaign's lead set is returned unchanged and is never merged
// into; every later campaign loses the leads whose identity an earlier
// campaign already owns, and its survivors extend the known set before the
// next campaign is processed. The returned map holds each campaign's
// resulting lead set keyed by campaign id.
func (d *Deduper) DedupeCampaigns(client model.Client) (map[string][]model.Lead, []CampaignReport, error) {
	if len(client.Campaigns) == 0 {
		return map[string][]model.Lead{}, nil, nil
	}

	campaigns := make([]model.Campaign, len(client.Campaigns))
	copy(campaigns, client.Campaigns)
	sort.SliceStable(campaigns, func(i, j int) bool { return d.campaignLess(campaigns[i], campaigns[j]) })

	seen := make(map[string]bool, len(campaigns))
	for _, c := range campaigns {
		if seen[c.ID] {
			return nil, nil, eris.Errorf("dedupe: duplicate campaign id %q for client %q", c.ID, client.ID)
		}
		seen[c.ID] = true
	}

	out := make(map[string][]model.Lead, len(campaigns))
	reports := make([]CampaignReport, 0, len(campaigns))
	known := make(map[string]string)

	for i, c := range campaigns {
		report := CampaignReport{
			CampaignID: c.ID,
			Baseline:   i == 0,
			Input:      len(c.Leads),
			RemovedBy:  map[string]int{},
		}

		if i == 0 {
			kept := make([]model.Lead, len(c.Leads))
			copy(kept, c.Leads)
			for _, l := range c.Leads {
				key := Identity(l)
				if _, ok := known[key]; !ok {
					known[key] = c.ID
				}
			}
			report.Kept = len(kept)
			out[c.ID] = kept
			reports = append(reports, report)
			continue
		}

		kept := make([]model.Lead, 0, len(c.Leads))
		for _, l := range c.Leads {
			key := Identity(l)
			if owner, ok := known[key]; ok {
				report.Removed++
				report.RemovedBy[owner]++
				continue
			}
			known[key] = c.ID
			kept = append(kept, l)
		}
		report.Kept = len(kept)
		out[c.ID] = kept
		reports = append(reports, report)
	}

	return out, reports, nil
}
