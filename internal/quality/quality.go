// Package quality decides the CRF for an encode: fixed rule values, memoized
// adaptive searches, and per-profile fallbacks when search fails.
package quality

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"reelsort/internal/naming"
	"reelsort/internal/rules"
	"reelsort/internal/services"
	"reelsort/internal/services/abav1"
)

// Cache memoizes adaptive search results per process run. The key pools
// results across episodes of the same show at the same resolution, so one
// crf-search covers a whole season drop.
type Cache struct {
	mu      sync.Mutex
	entries map[string]int
}

// NewCache builds an empty memo cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]int)}
}

func cacheKey(show, resolution string, preset int) string {
	return fmt.Sprintf("%s|%s|%d", strings.ToLower(strings.TrimSpace(show)), resolution, preset)
}

// Get returns the memoized CRF for (show, resolution, preset).
func (c *Cache) Get(show, resolution string, preset int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	crf, ok := c.entries[cacheKey(show, resolution, preset)]
	return crf, ok
}

// Put records a search result.
func (c *Cache) Put(show, resolution string, preset, crf int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(show, resolution, preset)] = crf
}

// Resolver turns a rule's quality spec into a concrete CRF.
type Resolver struct {
	Searcher      abav1.Searcher
	Cache         *Cache
	Preset        int
	CRFOffset     int
	TVFallback    int
	MovieDefaults map[string]int
	Logger        *slog.Logger
}

// Resolve returns the CRF to encode file with. Fixed specs are returned
// directly. Adaptive specs consult the memo cache, then the searcher (result
// lowered by CRFOffset and cached), then the configured fallback for the
// file's kind and resolution tier. No determinable value is an error.
func (r *Resolver) Resolve(ctx context.Context, spec rules.QualitySpec, file, show, workDir string, tv bool) (int, error) {
	if !spec.Adaptive {
		if spec.CRF <= 0 {
			return 0, services.Wrap(services.ErrConfiguration, "quality", "resolve", "fixed crf must be positive", nil)
		}
		return spec.CRF, nil
	}

	resolution := naming.DetectResolution(file)
	if r.Cache != nil {
		if crf, ok := r.Cache.Get(show, resolution, r.Preset); ok {
			return crf, nil
		}
	}

	if r.Searcher != nil {
		crf, err := r.Searcher.Search(ctx, file, workDir)
		if err == nil {
			crf -= r.CRFOffset
			if crf < 1 {
				crf = 1
			}
			if r.Cache != nil {
				r.Cache.Put(show, resolution, r.Preset, crf)
			}
			return crf, nil
		}
		r.logger().Warn("adaptive crf search failed, using fallback",
			slog.String("file", file),
			slog.String("error", err.Error()))
	}

	crf := r.fallback(resolution, tv)
	if crf <= 0 {
		return 0, services.Wrap(services.ErrConfiguration, "quality", "resolve",
			fmt.Sprintf("no fallback crf for %s", resolution), nil)
	}
	return crf, nil
}

func (r *Resolver) fallback(resolution string, tv bool) int {
	if tv {
		return r.TVFallback
	}
	if crf, ok := r.MovieDefaults[resolution]; ok {
		return crf
	}
	return r.MovieDefaults["default"]
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
