package translate

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Payload is one destination's filter payload: the destination tag plus its
// filter vocabulary, ready to serialize for that destination's scraper.
type Payload struct {
	Destination string              `json:"destination"`
	Filters     map[string][]string `json:"filters"`
}

// Destination translates an intent into one scraper's filter payload.
// Implementations own their mapping tables; a value those tables do not cover
// is a MappingGapError, never a dropped filter.
type Destination interface {
	Name() string
	Translate(ctx context.Context, intent model.IndustryIntent, store MappingStore) (*Payload, error)
}

// Translator holds the destination registry and the injected mapping store.
type Translator struct {
	store        MappingStore
	destinations map[string]Destination
}

// New builds a Translator with the built-in apollo and salesnav destinations.
// store may be nil, in which case every id-only industry ref fails closed.
func New(store MappingStore) *Translator {
	t := &Translator{
		store:        store,
		destinations: make(map[string]Destination),
	}
	t.Register(apolloDestination{})
	t.Register(salesnavDestination{})
	return t
}

// Register adds or replaces a destination.
func (t *Translator) Register(d Destination) {
	t.destinations[d.Name()] = d
}

// Destinations returns the registered destination names, sorted.
func (t *Translator) Destinations() []string {
	names := make([]string, 0, len(t.destinations))
	for name := range t.destinations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Translate converts the intent into the named destination's payload. Typed
// errors (MappingGapError, UnresolvedIndustryError) pass through unwrapped so
// callers can inspect them with errors.As.
func (t *Translator) Translate(ctx context.Context, intent model.IndustryIntent, destination string) (*Payload, error) {
	dest, ok := t.destinations[strings.ToLower(strings.TrimSpace(destination))]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownDestination, "%q (registered: %s)",
			destination, strings.Join(t.Destinations(), ", "))
	}

	payload, err := dest.Translate(ctx, intent, t.store)
	if err != nil {
		return nil, err
	}

	zap.L().Info("translate: built payload",
		zap.String("destination", dest.Name()),
		zap.Int("filters", len(payload.Filters)),
	)
	return payload, nil
}

// upstreamSizeBuckets is the company-size vocabulary intents arrive with.
// Destination tables must stay total over this list.
var upstreamSizeBuckets = []string{
	"1,10", "11,50", "51,200", "201,500", "501,1000", "1001,5000", "5001,10000", "10001+",
}

// UpstreamSizeBuckets returns the supported upstream company-size vocabulary.
func UpstreamSizeBuckets() []string {
	out := make([]string, len(upstreamSizeBuckets))
	copy(out, upstreamSizeBuckets)
	return out
}

// regionAliases expands shorthand regions into country lists. Strings not in
// this table are country names and pass through untouched, so the alias
// vocabulary is total by construction.
var regionAliases = map[string][]string{
	"dach":    {"Germany", "Austria", "Switzerland"},
	"benelux": {"Belgium", "Netherlands", "Luxembourg"},
	"nordics": {"Denmark", "Finland", "Iceland", "Norway", "Sweden"},
	"baltics": {"Estonia", "Latvia", "Lithuania"},
}

func expandLocations(locations []string) []string {
	var out []string
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		if countries, ok := regionAliases[strings.ToLower(loc)]; ok {
			out = append(out, countries...)
			continue
		}
		out = append(out, loc)
	}
	return dedupePreserve(out)
}

// dedupePreserve removes duplicates keeping first-seen order.
func dedupePreserve(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	var out []string
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// addFilter sets a payload key only when there are values, keeping empty
// filter dimensions out of the payload entirely.
func addFilter(p *Payload, key string, vals []string) {
	if len(vals) > 0 {
		p.Filters[key] = vals
	}
}
