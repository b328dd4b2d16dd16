package tle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Refresh fetches fresh TLE text, parses it and installs the resulting
// dataset in the store, writing the disk cache as a side effect. Concurrent
// refreshes are serialized through the store's fetch mutex. A cache write
// failure is logged, not fatal; the in-memory dataset is already current.
func Refresh(ctx context.Context, store *Store, fetcher *Fetcher, cache *Cache, logger *slog.Logger) (*Dataset, error) {
	store.Lock()
	defer store.Unlock()

	data, err := fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}

	sats, err := Parse(bytes.NewReader(data), logger)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if len(sats) == 0 {
		return nil, errors.New("no parseable element sets in response")
	}

	now := time.Now()
	ds := NewDataset(fetcher.SourceURL(), now, sats)
	store.Set(ds)
	store.PublishMetrics()

	if cache != nil {
		if err := cache.Write(data, now); err != nil {
			logger.Warn("TLE cache write failed", "error", err)
		}
	}

	logger.Info("TLE dataset refreshed", "source", ds.Source, "satellites", len(sats))
	return ds, nil
}
