package store

import (
	"context"
	"time"

	"github.com/sells-group/prospect-cli/internal/model"
)

// IndustryMapping is one row of the learned industry mapping table: an
// opaque source identifier bound to the human-readable name it was first
// seen with.
type IndustryMapping struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	LearnedFrom string    `json:"learned_from,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the persistence boundary for campaigns, the learned industry
// mapping table, and cached relevance verdicts. SQLiteStore backs local
// runs; PostgresStore backs shared deployments.
//
// The mapping methods match translate.MappingStore and the verdict methods
// match relevance.VerdictCache, so a Store plugs into both directly.
type Store interface {
	// Campaigns
	SaveCampaign(ctx context.Context, c *model.Campaign) error
	GetCampaign(ctx context.Context, id string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, clientID string) ([]model.Campaign, error)
	ReplaceLeads(ctx context.Context, campaignID string, leads []model.Lead) error

	// Industry mappings. The table is append-only: the first name recorded
	// for an identifier wins and later writes are ignored.
	ResolveIndustries(ctx context.Context, ids []string) (map[string]string, []string, error)
	AddIndustryMapping(ctx context.Context, id, name, learnedFrom string) error
	ImportIndustryMappings(ctx context.Context, mappings []IndustryMapping) (int, error)
	ListIndustryMappings(ctx context.Context) ([]IndustryMapping, error)

	// Verdict cache, keyed by intent signature and industry label.
	GetVerdicts(ctx context.Context, signature string, labels []string) (map[string]model.Verdict, error)
	PutVerdicts(ctx context.Context, signature string, verdicts map[string]model.Verdict) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
