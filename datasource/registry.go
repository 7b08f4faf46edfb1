package datasource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/spektr-org/nexus/engine"
	"github.com/spektr-org/nexus/logging"
	"github.com/spektr-org/nexus/metrics"
)

// Registry is the set of open datasources, keyed by ID.
type Registry struct {
	mu       sync.RWMutex
	sources  map[string]*Source
	settings Settings
}

// NewRegistry returns an empty registry.
func NewRegistry(settings Settings) *Registry {
	return &Registry{
		sources:  make(map[string]*Source),
		settings: settings,
	}
}

// Add opens and pings cfg, then registers it. An existing source with the
// same ID is replaced and closed.
func (r *Registry) Add(ctx context.Context, cfg Config) error {
	src, err := Open(cfg, r.settings)
	if err != nil {
		return err
	}
	if err := src.Ping(ctx); err != nil {
		_ = src.Close()
		return err
	}

	r.mu.Lock()
	old := r.sources[cfg.ID]
	r.sources[cfg.ID] = src
	n := len(r.sources)
	r.mu.Unlock()

	metrics.DatasourcesRegistered.Set(float64(n))
	if old != nil {
		_ = old.Close()
	}
	logging.Info().Str("datasource", cfg.ID).Str("type", cfg.Type).Msg("datasource registered")
	return nil
}

// Remove closes and unregisters a source.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	src, ok := r.sources[id]
	delete(r.sources, id)
	n := len(r.sources)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDatasource, id)
	}
	metrics.DatasourcesRegistered.Set(float64(n))
	return src.Close()
}

// Get returns a registered source.
func (r *Registry) Get(id string) (*Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatasource, id)
	}
	return src, nil
}

// IDs returns the registered IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Configs returns every registered config with passwords redacted, by ID.
func (r *Registry) Configs() []Config {
	ids := r.IDs()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Config, 0, len(ids))
	for _, id := range ids {
		if src, ok := r.sources[id]; ok {
			out = append(out, src.cfg.Redacted())
		}
	}
	return out
}

// Query runs SQL on the named source.
func (r *Registry) Query(ctx context.Context, id, rawSQL string) (*engine.QueryResult, error) {
	src, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return src.Query(ctx, rawSQL)
}

// Test opens cfg, pings it and closes it again without registering.
func (r *Registry) Test(ctx context.Context, cfg Config) error {
	src, err := Open(cfg, r.settings)
	if err != nil {
		return err
	}
	defer src.Close()
	return src.Ping(ctx)
}

// Close closes every source and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	sources := r.sources
	r.sources = make(map[string]*Source)
	r.mu.Unlock()

	var errs []error
	for _, src := range sources {
		if err := src.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	metrics.DatasourcesRegistered.Set(0)
	return errors.Join(errs...)
}
