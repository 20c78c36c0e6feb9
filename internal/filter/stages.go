package filter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
)

func stageEmailPresence(_ context.Context, _ *Pipeline, _ *Config, leads []model.Lead) ([]model.Lead, []Removal, string, bool) {
	kept, removals := applyPredicate(leads, func(l model.Lead) (bool, string, string) {
		if strings.TrimSpace(l.Email) == "" {
			return false, "", "no email address"
		}
		return true, "", ""
	})
	return kept, removals, "", false
}

func stagePhoneCountry(_ context.Context, _ *Pipeline, cfg *Config, leads []model.Lead) ([]model.Lead, []Removal, string, bool) {
	dials := make([]string, 0, len(cfg.PhoneCountries))
	for _, c := range cfg.PhoneCountries {
		if dial, ok := dialPrefixFor(c); ok {
			dials = append(dials, dial)
		}
	}
	if len(dials) == 0 {
		return leads, nil, "no dial codes known for configured countries", true
	}

	kept, removals := applyPredicate(leads, func(l model.Lead) (bool, string, string) {
		phone := normalizePhone(l.CompanyPhone)
		if phone == "" {
			return false, "", "no phone number"
		}
		if !strings.HasPrefix(phone, "+") {
			return false, l.CompanyPhone, "phone has no country prefix"
		}
		for _, dial := range dials {
			if strings.HasPrefix(phone, dial) {
				return true, "", ""
			}
		}
		return false, l.CompanyPhone, "phone not in target countries"
	})
	return kept, removals, "", false
}

func stageTitleExclusion(_ context.Context, _ *Pipeline, cfg *Config, leads []model.Lead) ([]model.Lead, []Removal, string, bool) {
	rules := make([]TitleRule, 0, len(builtinTitleRules)+len(cfg.ExtraTitleRules))
	rules = append(rules, builtinTitleRules...)
	rules = append(rules, cfg.ExtraTitleRules...)

	kept, removals := applyPredicate(leads, func(l model.Lead) (bool, string, string) {
		title := strings.TrimSpace(l.Title)
		if title == "" {
			return true, "", ""
		}
		for _, rule := range rules {
			if rule.Excludes(title) {
				return false, title, "excluded title"
			}
		}
		return true, "", ""
	})
	return kept, removals, "", false
}

func stageIndustryInclude(ctx context.Context, p *Pipeline, cfg *Config, leads []model.Lead) ([]model.Lead, []Removal, string, bool) {
	if len(cfg.IncludeIndustries) > 0 {
		kept, removals := applyPredicate(leads, func(l model.Lead) (bool, string, string) {
			if strings.TrimSpace(l.Industry) == "" {
				return true, "", ""
			}
			if containsFold(cfg.IncludeIndustries, l.Industry) {
				return true, "", ""
			}
			return false, l.Industry, "industry not in whitelist"
		})
		return kept, removals, "", false
	}

	labels := distinctIndustries(leads)
	if len(labels) == 0 {
		return leads, nil, "", false
	}

	verdicts, err := p.scorer.Classify(ctx, *cfg.Intent, labels)
	if err != nil {
		zap.L().Warn("filter: industry classifier unavailable, stage skipped",
			zap.Int("labels", len(labels)),
			zap.Error(err),
		)
		return leads, nil, "classifier unavailable: " + err.Error(), true
	}

	kept, removals := applyPredicate(leads, func(l model.Lead) (bool, string, string) {
		industry := strings.TrimSpace(l.Industry)
		if industry == "" {
			return true, "", ""
		}
		if verdicts[industry] == model.VerdictIrrelevant {
			return false, industry, "industry classified irrelevant"
		}
		return true, "", ""
	})
	return kept, removals, "", false
}

func stageIndustryExclude(_ context.Context, _ *Pipeline, cfg *Config, leads []model.Lead) ([]model.Lead, []Removal, string, bool) {
	kept, removals := applyPredicate(leads, func(l model.Lead) (bool, string, string) {
		if strings.TrimSpace(l.Industry) == "" {
			return true, "", ""
		}
		if containsFold(cfg.ExcludeIndustries, l.Industry) {
			return false, l.Industry, "industry in blacklist"
		}
		return true, "", ""
	})
	return kept, removals, "", false
}

func stageCountryMatch(_ context.Context, _ *Pipeline, cfg *Config, leads []model.Lead) ([]model.Lead, []Removal, string, bool) {
	kept, removals := applyPredicate(leads, func(l model.Lead) (bool, string, string) {
		country := strings.TrimSpace(l.Country)
		if country == "" {
			country = strings.TrimSpace(l.CompanyCountry)
		}
		if country == "" {
			return true, "", ""
		}
		if containsFold(cfg.Countries, country) {
			return true, "", ""
		}
		return false, country, "country not in target list"
	})
	return kept, removals, "", false
}

func stageWebsitePresence(_ context.Context, _ *Pipeline, _ *Config, leads []model.Lead) ([]model.Lead, []Removal, string, bool) {
	kept, removals := applyPredicate(leads, func(l model.Lead) (bool, string, string) {
		if strings.TrimSpace(l.CompanyWebsite) == "" && strings.TrimSpace(l.CompanyDomain) == "" {
			return false, "", "no company website"
		}
		return true, "", ""
	})
	return kept, removals, "", false
}

func stageForeignDomain(_ context.Context, _ *Pipeline, cfg *Config, leads []model.Lead) ([]model.Lead, []Removal, string, bool) {
	kept, removals := applyPredicate(leads, func(l model.Lead) (bool, string, string) {
		domain := leadDomain(l)
		if domain == "" {
			return true, "", ""
		}
		tld := domain[strings.LastIndex(domain, ".")+1:]
		country, ok := ccTLDCountries[tld]
		if !ok {
			return true, "", ""
		}
		if containsFold(cfg.Countries, country) {
			return true, "", ""
		}
		return false, domain, fmt.Sprintf("foreign domain .%s (%s)", tld, country)
	})
	return kept, removals, "", false
}

func stagePhoneConsistency(_ context.Context, _ *Pipeline, _ *Config, leads []model.Lead) ([]model.Lead, []Removal, string, bool) {
	kept, removals := applyPredicate(leads, func(l model.Lead) (bool, string, string) {
		phone := normalizePhone(l.CompanyPhone)
		if phone == "" || !strings.HasPrefix(phone, "+") {
			return true, "", ""
		}
		country := strings.TrimSpace(l.Country)
		if country == "" {
			country = strings.TrimSpace(l.CompanyCountry)
		}
		if country == "" {
			return true, "", ""
		}
		dial, ok := dialPrefixFor(country)
		if !ok {
			return true, "", ""
		}
		if strings.HasPrefix(phone, dial) {
			return true, "", ""
		}
		return false, l.CompanyPhone, fmt.Sprintf("phone prefix contradicts %s (%s)", country, dial)
	})
	return kept, removals, "", false
}

// distinctIndustries collects the sorted set of non-empty industry labels in
// the kept set. The classifier is invoked once per distinct label set, never
// per lead.
func distinctIndustries(leads []model.Lead) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, l := range leads {
		industry := strings.TrimSpace(l.Industry)
		if industry == "" || seen[industry] {
			continue
		}
		seen[industry] = true
		labels = append(labels, industry)
	}
	sort.Strings(labels)
	return labels
}

// leadDomain returns the lead's company domain, falling back to the host of
// the company website.
func leadDomain(l model.Lead) string {
	domain := strings.ToLower(strings.TrimSpace(l.CompanyDomain))
	if domain != "" {
		return domain
	}
	site := strings.ToLower(strings.TrimSpace(l.CompanyWebsite))
	if site == "" {
		return ""
	}
	site = strings.TrimPrefix(site, "https://")
	site = strings.TrimPrefix(site, "http://")
	site = strings.TrimPrefix(site, "www.")
	if idx := strings.IndexAny(site, "/?#:"); idx >= 0 {
		site = site[:idx]
	}
	return site
}
