package filter

import (
	"regexp"

	"github.com/rotisserie/eris"
)

// defaultQualifier lists the seniority and authority terms that exempt an
// otherwise excluded title. RE2 has no negative lookahead, so the exemption
// is a second pattern checked structurally: a title is excluded only when the
// match pattern hits and the qualifier does not.
var defaultQualifier = regexp.MustCompile(`(?i)\b(director|head|chief|c[eotfm]o|vp|vice president|president|principal|lead|manager|officer|founder|owner|partner)\b`)

// TitleRule excludes titles matching Match unless UnlessQualified also
// matches. A nil UnlessQualified makes the exclusion unconditional.
type TitleRule struct {
	Match           *regexp.Regexp
	UnlessQualified *regexp.Regexp
}

// Excludes reports whether the title falls to this rule.
func (r TitleRule) Excludes(title string) bool {
	if r.Match == nil || !r.Match.MatchString(title) {
		return false
	}
	return r.UnlessQualified == nil || !r.UnlessQualified.MatchString(title)
}

// builtinTitleRules target individual-contributor and clerical roles. Every
// rule carries the default qualifier so that the same role word under an
// authority title ("Design Director", "Head of UX") still passes.
var builtinTitleRules = []TitleRule{
	{Match: regexp.MustCompile(`(?i)\bdesign(er)?\b`), UnlessQualified: defaultQualifier},
	{Match: regexp.MustCompile(`(?i)\b(ux|ui)\b`), UnlessQualified: defaultQualifier},
	{Match: regexp.MustCompile(`(?i)\b(developer|programmer|engineer)\b`), UnlessQualified: defaultQualifier},
	{Match: regexp.MustCompile(`(?i)\banalyst\b`), UnlessQualified: defaultQualifier},
	{Match: regexp.MustCompile(`(?i)\b(assistant|receptionist|secretary|clerk|intern|trainee|student)\b`), UnlessQualified: defaultQualifier},
	{Match: regexp.MustCompile(`(?i)\b(representative|agent|specialist|technician)\b`), UnlessQualified: defaultQualifier},
	{Match: regexp.MustCompile(`(?i)\b(accountant|bookkeeper|paralegal)\b`), UnlessQualified: defaultQualifier},
}

// CompileTitleRules builds extra exclusion rules from raw patterns, each
// guarded by the default qualifier. Caller-supplied rules are unioned with
// the built-in set, never substituted for it.
func CompileTitleRules(patterns []string) ([]TitleRule, error) {
	rules := make([]TitleRule, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, eris.Wrapf(err, "filter: compile title pattern %q", p)
		}
		rules = append(rules, TitleRule{Match: re, UnlessQualified: defaultQualifier})
	}
	return rules, nil
}
