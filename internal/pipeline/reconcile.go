// Package pipeline orchestrates one reconciliation run: raw records in,
// filtered canonical leads plus auditable reports out. The per-record stages
// (normalize, restore, identity keying) fan out across workers; the merge
// reduction and the filter stages run sequentially over the whole batch.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-cli/internal/dedupe"
	"github.com/sells-group/prospect-cli/internal/filter"
	"github.com/sells-group/prospect-cli/internal/mapper"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/names"
)

const defaultWorkers = 8

// History loads a client's stored campaigns for cross-campaign dedup,
// oldest first. A Store satisfies it.
type History interface {
	ListCampaigns(ctx context.Context, clientID string) ([]model.Campaign, error)
}

// MappingAppender records industry identifier/name pairs learned from raw
// records. A Store satisfies it; appends are first-write-wins.
type MappingAppender interface {
	AddIndustryMapping(ctx context.Context, id, name, learnedFrom string) error
}

// Dropped records one raw record rejected during normalization. Index is the
// record's position in the raw batch.
type Dropped struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Result is everything one reconciliation run produced: the surviving leads
// and the reports that account for every record that did not survive.
type Result struct {
	Leads   []model.Lead `json:"leads"`
	Mapped  int          `json:"mapped"`
	Dropped []Dropped    `json:"dropped,omitempty"`

	BatchReport     dedupe.BatchReport      `json:"batch_report"`
	CampaignReports []dedupe.CampaignReport `json:"campaign_reports,omitempty"`
	FilterReport    *filter.Report          `json:"filter_report,omitempty"`

	Learned []model.LearnedMapping `json:"learned,omitempty"`
}

// Options configures one ReconcileBatch run.
type Options struct {
	// ClientID and CampaignID stamp provenance and, with AgainstHistory,
	// select the stored campaigns to dedupe against.
	ClientID   string
	CampaignID string

	// AgainstHistory dedupes the batch against the client's stored campaign
	// history. The batch is treated as the newest campaign; stored campaigns
	// are never modified.
	AgainstHistory bool

	// Filter arms the filter stages. A zero config runs no stage but still
	// produces a report.
	Filter filter.Config

	// Workers bounds the per-record fan-out. Zero means defaultWorkers.
	Workers int

	// ScrapedAt is the provenance timestamp for the whole batch. Zero means
	// time.Now.
	ScrapedAt time.Time
}

// Reconciler ties the mapper, restorer, deduper, and filter pipeline
// together. History and the mapping appender are optional; without them the
// run skips cross-campaign dedup and mapping learning respectively.
type Reconciler struct {
	registry *mapper.Registry
	deduper  *dedupe.Deduper
	filters  *filter.Pipeline
	history  History
	mappings MappingAppender
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithHistory wires stored campaign history for cross-campaign dedup.
func WithHistory(h History) ReconcilerOption {
	return func(r *Reconciler) { r.history = h }
}

// WithMappingAppender wires the industry mapping store for learn-on-ingest.
func WithMappingAppender(m MappingAppender) ReconcilerOption {
	return func(r *Reconciler) { r.mappings = m }
}

// WithDeduper overrides the default deduper (campaign ordering).
func WithDeduper(d *dedupe.Deduper) ReconcilerOption {
	return func(r *Reconciler) { r.deduper = d }
}

// New creates a Reconciler around a source registry and a filter pipeline.
func New(registry *mapper.Registry, filters *filter.Pipeline, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		registry: registry,
		deduper:  dedupe.NewDeduper(),
		filters:  filters,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReconcileBatch runs the full flow for one raw batch: normalize and restore
// every record in parallel, collapse duplicates, optionally dedupe against
// the client's stored campaigns, then run the filter pipeline. Records that
// cannot be normalized are dropped with a reason; an unknown source tag fails
// the whole batch.
func (r *Reconciler) ReconcileBatch(ctx context.Context, batch *model.RawBatch, opts Options) (*Result, error) {
	if batch == nil || len(batch.Records) == 0 {
		return &Result{FilterReport: &filter.Report{}}, nil
	}

	scrapedAt := opts.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}

	mapped, dropped, learned, err := r.normalizeAll(ctx, batch, opts, scrapedAt)
	if err != nil {
		return nil, err
	}

	result := &Result{Mapped: len(mapped), Dropped: dropped, Learned: learned}

	r.recordLearned(ctx, batch.Source, learned)

	leads, batchReport := dedupe.CollapseBatch(mapped)
	result.BatchReport = batchReport

	if opts.AgainstHistory && r.history != nil {
		leads, result.CampaignReports, err = r.dedupeAgainstHistory(ctx, leads, opts, scrapedAt)
		if err != nil {
			return nil, err
		}
	}

	kept, report, err := r.filters.Run(ctx, leads, opts.Filter)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: filter")
	}
	result.Leads = kept
	result.FilterReport = report

	zap.L().Info("pipeline: batch reconciled",
		zap.String("source", batch.Source),
		zap.Int("raw", len(batch.Records)),
		zap.Int("mapped", result.Mapped),
		zap.Int("dropped", len(result.Dropped)),
		zap.Int("deduped", len(leads)),
		zap.Int("kept", len(kept)),
	)
	return result, nil
}

// normalizeAll fans the per-record map stages out across workers. Output
// order matches input order regardless of scheduling, so the rest of the run
// is deterministic.
func (r *Reconciler) normalizeAll(ctx context.Context, batch *model.RawBatch, opts Options, scrapedAt time.Time) ([]model.Lead, []Dropped, []model.LearnedMapping, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	type slot struct {
		lead    model.Lead
		learned model.LearnedMapping
		hasLead bool
		hasMap  bool
		dropped string
	}
	slots := make([]slot, len(batch.Records))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, raw := range batch.Records {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			lead, err := r.registry.Normalize(raw, batch.Source)
			switch {
			case errors.Is(err, mapper.ErrUnknownSource):
				return err
			case errors.Is(err, mapper.ErrNoIdentity):
				slots[i].dropped = eris.ToString(err, false)
				zap.L().Warn("pipeline: record dropped",
					zap.String("source", batch.Source),
					zap.Int("index", i),
					zap.Error(err),
				)
				return nil
			case err != nil:
				return eris.Wrapf(err, "pipeline: normalize record %d", i)
			}

			lead = names.RestoreDiacritics(lead)
			lead.Provenance = model.Provenance{
				CampaignID: opts.CampaignID,
				ScrapedAt:  scrapedAt,
			}
			slots[i].lead = lead
			slots[i].hasLead = true

			if lm, ok := r.registry.Learned(raw, batch.Source); ok {
				slots[i].learned = lm
				slots[i].hasMap = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	var (
		mapped  []model.Lead
		dropped []Dropped
		learned []model.LearnedMapping
		seenMap = make(map[string]bool)
	)
	for i, s := range slots {
		switch {
		case s.hasLead:
			mapped = append(mapped, s.lead)
		case s.dropped != "":
			dropped = append(dropped, Dropped{Index: i, Reason: s.dropped})
		}
		if s.hasMap && !seenMap[s.learned.ID] {
			seenMap[s.learned.ID] = true
			learned = append(learned, s.learned)
		}
	}
	return mapped, dropped, learned, nil
}

// recordLearned appends learned industry mappings to the store. The store is
// append-only, so re-learning an identifier is harmless; an append failure is
// logged and does not fail the batch.
func (r *Reconciler) recordLearned(ctx context.Context, source string, learned []model.LearnedMapping) {
	if r.mappings == nil {
		return
	}
	for _, lm := range learned {
		if err := r.mappings.AddIndustryMapping(ctx, lm.ID, lm.Name, source); err != nil {
			zap.L().Warn("pipeline: record learned mapping",
				zap.String("industry_id", lm.ID),
				zap.Error(err),
			)
		}
	}
}

// dedupeAgainstHistory treats the collapsed batch as the client's newest
// campaign and removes every lead whose identity an earlier stored campaign
// already owns. Stored campaigns are read-only here; only the batch shrinks.
func (r *Reconciler) dedupeAgainstHistory(ctx context.Context, leads []model.Lead, opts Options, scrapedAt time.Time) ([]model.Lead, []dedupe.CampaignReport, error) {
	stored, err := r.history.ListCampaigns(ctx, opts.ClientID)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "pipeline: load campaigns for client %q", opts.ClientID)
	}

	campaigns := make([]model.Campaign, 0, len(stored)+1)
	for _, c := range stored {
		if c.ID != opts.CampaignID {
			campaigns = append(campaigns, c)
		}
	}
	campaigns = append(campaigns, model.Campaign{
		ID:        opts.CampaignID,
		ClientID:  opts.ClientID,
		CreatedAt: scrapedAt,
		Leads:     leads,
	})

	sets, reports, err := r.deduper.DedupeCampaigns(model.Client{ID: opts.ClientID, Campaigns: campaigns})
	if err != nil {
		return nil, nil, err
	}
	return sets[opts.CampaignID], reports, nil
}
