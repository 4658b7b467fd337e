// Package source routes item fetches to the client for each source kind.
package source

import (
	"context"
	"fmt"
	"time"

	"forum_relay/internal/domain"
)

// Fetcher returns up to limit items of one source created after since.
// A nil since means no checkpoint.
type Fetcher interface {
	FetchNew(ctx context.Context, src domain.Source, limit int, since *time.Time) ([]domain.FetchedItem, error)
}

// Mux dispatches to a Fetcher by source kind.
type Mux struct {
	fetchers map[domain.SourceKind]Fetcher
}

func NewMux() *Mux {
	return &Mux{fetchers: make(map[domain.SourceKind]Fetcher)}
}

func (m *Mux) Register(kind domain.SourceKind, f Fetcher) {
	m.fetchers[kind] = f
}

func (m *Mux) FetchNew(ctx context.Context, src domain.Source, limit int, since *time.Time) ([]domain.FetchedItem, error) {
	f, ok := m.fetchers[src.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: no client for source kind %q", domain.ErrConfig, src.Kind)
	}
	return f.FetchNew(ctx, src, limit, since)
}

// After keeps the items created strictly after since.
func After(items []domain.FetchedItem, since *time.Time) []domain.FetchedItem {
	if since == nil {
		return items
	}
	out := items[:0:0]
	for _, it := range items {
		if it.CreatedAt.After(*since) {
			out = append(out, it)
		}
	}
	return out
}
