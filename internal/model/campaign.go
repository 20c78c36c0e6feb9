package model

import "time"

// CampaignType tags how a campaign's leads were produced.
type CampaignType string

const (
	CampaignTypeScrape CampaignType = "scrape"
	CampaignTypeImport CampaignType = "import"
)

// Campaign is an ordered container of Leads for one client, created at scrape
// time. Campaigns are read-only inputs to the reconciliation core except for
// their lead sets. The chronologically earliest campaign of a client is the
// baseline: cross-campaign dedup never mutates it.
type Campaign struct {
	ID        string       `json:"id"`
	ClientID  string       `json:"client_id"`
	Type      CampaignType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	Leads     []Lead       `json:"leads"`
}

// Client owns zero or more campaigns. Campaign ordering by creation time
// (ties broken by campaign ID) defines the baseline and the order in which
// cross-campaign dedup is applied.
type Client struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Campaigns []Campaign `json:"campaigns"`
}
