package relevance

import (
	"context"
	"sync"

	"github.com/sells-group/prospect-cli/internal/model"
)

// VerdictCache stores classifier verdicts keyed by intent signature. Keying
// by signature keeps one audience's verdicts from leaking into another: the
// same label can be on target for one campaign and noise for the next.
type VerdictCache interface {
	// GetVerdicts returns the cached verdicts for the requested labels.
	// Labels with no cached verdict are absent from the result.
	GetVerdicts(ctx context.Context, signature string, labels []string) (map[string]model.Verdict, error)

	// PutVerdicts merges verdicts into the cache under the given signature.
	PutVerdicts(ctx context.Context, signature string, verdicts map[string]model.Verdict) error
}

// MemoryCache is a process-local VerdictCache. Runs that want verdicts to
// survive across invocations use the SQLite-backed cache in internal/store.
type MemoryCache struct {
	mu       sync.RWMutex
	verdicts map[string]map[string]model.Verdict
}

// NewMemoryCache returns an empty in-memory verdict cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{verdicts: make(map[string]map[string]model.Verdict)}
}

func (m *MemoryCache) GetVerdicts(_ context.Context, signature string, labels []string) (map[string]model.Verdict, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bySig := m.verdicts[signature]
	if len(bySig) == 0 {
		return nil, nil
	}
	out := make(map[string]model.Verdict)
	for _, label := range labels {
		if v, ok := bySig[label]; ok {
			out[label] = v
		}
	}
	return out, nil
}

func (m *MemoryCache) PutVerdicts(_ context.Context, signature string, verdicts map[string]model.Verdict) error {
	if len(verdicts) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	bySig := m.verdicts[signature]
	if bySig == nil {
		bySig = make(map[string]model.Verdict, len(verdicts))
		m.verdicts[signature] = bySig
	}
	for label, v := range verdicts {
		bySig[label] = v
	}
	return nil
}
