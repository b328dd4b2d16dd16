package tle

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotor/rotorgo/internal/metrics"
)

// Store provides thread-safe access to the current element-set dataset.
type Store struct {
	dataset atomic.Pointer[Dataset]
	mu      sync.Mutex // serializes fetch operations
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current dataset, or nil if none has been loaded.
func (s *Store) Get() *Dataset {
	return s.dataset.Load()
}

// Set atomically replaces the current dataset.
func (s *Store) Set(ds *Dataset) {
	s.dataset.Store(ds)
}

// Lookup returns the element set with the given catalog number from the
// current dataset, or nil when no dataset is loaded or the object is unknown.
func (s *Store) Lookup(catalogNum int64) *Elements {
	ds := s.dataset.Load()
	if ds == nil {
		return nil
	}
	return ds.ByCatalog(catalogNum)
}

// AgeSeconds returns the age of the current dataset in seconds.
// Returns -1 if no dataset is loaded.
func (s *Store) AgeSeconds() float64 {
	ds := s.dataset.Load()
	if ds == nil {
		return -1
	}
	return time.Since(ds.FetchedAt).Seconds()
}

// PublishMetrics exports the current dataset's size and age gauges.
// Called after Set and periodically so the age gauge keeps advancing
// between refreshes.
func (s *Store) PublishMetrics() {
	ds := s.dataset.Load()
	if ds == nil {
		metrics.SetTLEDatasetCount(0)
		metrics.SetTLEDatasetAge(-1)
		return
	}
	metrics.SetTLEDatasetCount(len(ds.Satellites))
	metrics.SetTLEDatasetAge(time.Since(ds.FetchedAt).Seconds())
}

// Lock acquires the fetch mutex for serializing fetch operations.
func (s *Store) Lock() {
	s.mu.Lock()
}

// Unlock releases the fetch mutex.
func (s *Store) Unlock() {
	s.mu.Unlock()
}
