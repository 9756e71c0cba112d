// Package metadata resolves show titles for unmatched episode files: a
// filename-derived guess refined through lookup services, memoized in a
// persistent cache.
package metadata

import (
	"context"
	"errors"
	"log/slog"

	"reelsort/internal/naming"
	"reelsort/internal/services"
)

// Client is one title lookup backend. Implementations return
// services.ErrNotFound on a clean miss.
type Client interface {
	Lookup(ctx context.Context, guess string) (title string, year int, err error)
}

// Resolver chains lookup clients over a persistent cache.
type Resolver struct {
	Clients []Client
	Cache   *Cache
	Logger  *slog.Logger
}

// ResolveTitle returns the canonical show title for filename. The guess is
// checked against the cache, then each client in order; the first hit is
// cached and returned. When everything misses, the cleaned guess itself is
// the title. The returned year is 0 when unknown.
func (r *Resolver) ResolveTitle(ctx context.Context, filename string) (string, int) {
	guess := GuessFromFilename(filename)
	if guess == "" {
		return "", 0
	}

	if r.Cache != nil {
		if entry, ok := r.Cache.Get(guess); ok && entry.Title != "" {
			return entry.Title, entry.Year
		}
	}

	for _, client := range r.Clients {
		title, year, err := client.Lookup(ctx, guess)
		if err == nil && title != "" {
			if r.Cache != nil {
				r.Cache.Put(guess, Entry{Title: title, Year: year})
			}
			return title, year
		}
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			r.logger().Warn("title lookup failed",
				slog.String("guess", guess),
				slog.String("error", err.Error()))
		}
	}

	return naming.CleanTitleSegment(guess), 0
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
