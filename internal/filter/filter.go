// Package filter applies the fixed, ordered stage sequence that shrinks a
// deduplicated batch down to the final lead set. Stage order is part of the
// contract, not caller choice: cheap presence checks run first so the more
// expensive stages see an already-shrunk set. Every removal is recorded with
// a stage, a reason, and the matched value, so a reviewer can audit the
// before/after diff before committing the result.
package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Scorer classifies industry labels against an intent. The relevance stage
// consumes verdicts; any implementation error degrades that one stage to
// skipped rather than failing the pipeline.
type Scorer interface {
	Classify(ctx context.Context, intent model.IndustryIntent, labels []string) (map[string]model.Verdict, error)
}

// Config arms individual stages. A zero value for a stage's field leaves that
// stage inactive; the stage still appears in the report as skipped.
type Config struct {
	// RequireEmail arms email-presence.
	RequireEmail bool
	// PhoneCountries arms phone-country-match: leads must carry a phone
	// whose dialing prefix matches one of these countries.
	PhoneCountries []string
	// ExcludeTitles arms title-exclusion with the built-in rule set;
	// ExtraTitleRules are unioned with the built-ins.
	ExcludeTitles   bool
	ExtraTitleRules []TitleRule
	// IncludeIndustries arms industry-include as a literal whitelist. When
	// empty and an Intent is set, the stage instead classifies the batch's
	// distinct industry labels through the pipeline's scorer.
	IncludeIndustries []string
	Intent            *model.IndustryIntent
	// ExcludeIndustries arms industry-exclude.
	ExcludeIndustries []string
	// Countries arms country-match and, together with
	// ExcludeForeignDomains, the foreign-domain stage.
	Countries             []string
	ExcludeForeignDomains bool
	// RequireWebsite arms website-presence.
	RequireWebsite bool
	// CheckPhoneConsistency arms the phone/country contradiction check.
	CheckPhoneConsistency bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithScorer wires the industry relevance scorer used by industry-include
// when no literal whitelist is configured.
func WithScorer(s Scorer) Option {
	return func(p *Pipeline) {
		p.scorer = s
	}
}

// Pipeline runs the stage sequence. The zero pipeline (no scorer) is valid;
// the relevance form of industry-include then reports itself skipped.
type Pipeline struct {
	scorer Scorer
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// stageFunc applies one stage to the kept set. A true degraded return means
// the stage could not act this run (for example the classifier was
// unreachable) and passed its input through.
type stageFunc func(ctx context.Context, p *Pipeline, cfg *Config, leads []model.Lead) (kept []model.Lead, removals []Removal, note string, degraded bool)

// stages is the fixed pipeline order. Changing this order changes the
// product's behavior; it is not configurable.
var stages = []struct {
	name  string
	armed func(p *Pipeline, c *Config) bool
	run   stageFunc
}{
	{"email-presence", func(_ *Pipeline, c *Config) bool { return c.RequireEmail }, stageEmailPresence},
	{"phone-country-match", func(_ *Pipeline, c *Config) bool { return len(c.PhoneCountries) > 0 }, stagePhoneCountry},
	{"title-exclusion", func(_ *Pipeline, c *Config) bool { return c.ExcludeTitles }, stageTitleExclusion},
	{"industry-include", armedIndustryInclude, stageIndustryInclude},
	{"industry-exclude", func(_ *Pipeline, c *Config) bool { return len(c.ExcludeIndustries) > 0 }, stageIndustryExclude},
	{"country-match", func(_ *Pipeline, c *Config) bool { return len(c.Countries) > 0 }, stageCountryMatch},
	{"website-presence", func(_ *Pipeline, c *Config) bool { return c.RequireWebsite }, stageWebsitePresence},
	{"foreign-domain", func(_ *Pipeline, c *Config) bool { return c.ExcludeForeignDomains && len(c.Countries) > 0 }, stageForeignDomain},
	{"phone-consistency", func(_ *Pipeline, c *Config) bool { return c.CheckPhoneConsistency }, stagePhoneConsistency},
}

func armedIndustryInclude(p *Pipeline, c *Config) bool {
	if len(c.IncludeIndustries) > 0 {
		return true
	}
	return p.scorer != nil && c.Intent != nil
}

// Run executes the armed stages in order and returns the surviving leads
// plus the full stage report. Leads are evaluated in slice order, so the
// same input and config always produce an identical report.
func (p *Pipeline) Run(ctx context.Context, leads []model.Lead, cfg Config) ([]model.Lead, *Report, error) {
	report := &Report{Input: len(leads)}
	kept := leads

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		stageReport := StageReport{Name: s.name, In: len(kept)}
		if !s.armed(p, &cfg) {
			stageReport.Skipped = true
			stageReport.Kept = len(kept)
			report.Stages = append(report.Stages, stageReport)
			continue
		}

		out, removals, note, degraded := s.run(ctx, p, &cfg, kept)
		stageReport.Kept = len(out)
		stageReport.Removed = len(removals)
		stageReport.Removals = removals
		stageReport.Note = note
		stageReport.Skipped = degraded
		report.Stages = append(report.Stages, stageReport)

		zap.L().Debug("filter: stage applied",
			zap.String("stage", s.name),
			zap.Int("in", len(kept)),
			zap.Int("kept", len(out)),
			zap.Int("removed", len(removals)),
			zap.Bool("skipped", degraded),
		)
		kept = out
	}

	report.Output = len(kept)
	zap.L().Info("filter: pipeline complete",
		zap.Int("input", report.Input),
		zap.Int("output", report.Output),
		zap.String("summary", report.Summary()),
	)
	return kept, report, nil
}

// applyPredicate evaluates one per-lead predicate over the kept set. The
// predicate returns keep, the matched value, and the removal reason.
func applyPredicate(leads []model.Lead, keep func(model.Lead) (bool, string, string)) ([]model.Lead, []Removal) {
	kept := make([]model.Lead, 0, len(leads))
	var removals []Removal
	for _, l := range leads {
		ok, value, reason := keep(l)
		if ok {
			kept = append(kept, l)
			continue
		}
		removals = append(removals, Removal{
			Email:  l.Email,
			Name:   l.FullName(),
			Value:  value,
			Reason: reason,
		})
	}
	return kept, removals
}
