// Package mapper translates raw, source-shaped scrape records into the
// canonical lead schema. Each recognized source contributes one table-driven
// Schema; adding a source means adding a table entry, not code.
package mapper

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
)

var (
	// ErrUnknownSource marks a source tag with no registered schema. This is
	// a configuration error and is fatal for the whole batch.
	ErrUnknownSource = eris.New("mapper: unknown source tag")

	// ErrNoIdentity marks a record that yields no email, profile URL, name,
	// or company after mapping. Callers drop the record and continue.
	ErrNoIdentity = eris.New("mapper: record has no identity signal")
)

// Registry holds the known source schemas.
type Registry struct {
	schemas map[string]Schema
}

// NewRegistry returns a registry pre-loaded with the built-in source schemas.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[string]Schema)}
	for _, s := range []Schema{apolloSchema, salesnavSchema, snovSchema} {
		r.Register(s)
	}
	return r
}

// Register adds or replaces the schema for its source tag.
func (r *Registry) Register(s Schema) {
	r.schemas[s.Source] = s
}

// Sources returns the registered source tags, sorted.
func (r *Registry) Sources() []string {
	out := make([]string, 0, len(r.schemas))
	for tag := range r.schemas {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Schema returns the registered schema for a source tag.
func (r *Registry) Schema(source string) (Schema, bool) {
	s, ok := r.schemas[source]
	return s, ok
}

// Normalize maps one raw record onto the canonical lead schema. The mapping
// is pure and idempotent: a record carrying none of the schema's marker keys
// is taken to be canonical already and is decoded unchanged. An unregistered
// source returns ErrUnknownSource; a record with no identity signal at all
// returns ErrNoIdentity.
func (r *Registry) Normalize(raw map[string]any, source string) (model.Lead, error) {
	schema, ok := r.schemas[source]
	if !ok {
		return model.Lead{}, eris.Wrapf(ErrUnknownSource, "%q", source)
	}

	var lead model.Lead
	if schema.matches(raw) {
		for _, field := range model.FieldNames() {
			for _, path := range schema.Fields[field] {
				v, ok := lookup(raw, path)
				if !ok {
					continue
				}
				if s := coerce(v); s != "" {
					lead.SetField(field, s)
					break
				}
			}
		}
	} else {
		for _, field := range model.FieldNames() {
			if v, ok := raw[field]; ok {
				lead.SetField(field, coerce(v))
			}
		}
	}

	if lead.Source == "" {
		lead.Source = source
	}
	if !lead.HasIdentitySignal() {
		return model.Lead{}, eris.Wrapf(ErrNoIdentity, "source %q", source)
	}
	return lead, nil
}

// Learned extracts an (industry identifier, industry name) pair from a raw
// record when the source carries both, so ingestion can append it to the
// industry mapping store. The second return is false when the source does not
// expose identifiers or the record populates only one side.
func (r *Registry) Learned(raw map[string]any, source string) (model.LearnedMapping, bool) {
	schema, ok := r.schemas[source]
	if !ok || schema.IndustryIDKey == "" || schema.IndustryNameKey == "" {
		return model.LearnedMapping{}, false
	}
	idv, ok := lookup(raw, schema.IndustryIDKey)
	if !ok {
		return model.LearnedMapping{}, false
	}
	namev, ok := lookup(raw, schema.IndustryNameKey)
	if !ok {
		return model.LearnedMapping{}, false
	}
	id, name := coerce(idv), coerce(namev)
	if id == "" || name == "" {
		return model.LearnedMapping{}, false
	}
	return model.LearnedMapping{ID: id, Name: name}, true
}

// lookup walks a dotted path through nested string-keyed maps.
func lookup(raw map[string]any, path string) (any, bool) {
	cur := any(raw)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// coerce renders a raw JSON value as a trimmed string. Numbers keep their
// shortest decimal form so identifiers like 5567 do not grow a fraction.
func coerce(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}
