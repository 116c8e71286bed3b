package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Source is one ingested table available for merging.
type Source struct {
	ID          string
	FileName    string
	Sheet       string // empty for delimited files
	Table       *Table
	Fingerprint uint64
	UploadedAt  time.Time
	Dropped     int // rows removed by cleaning at ingestion
}

// Label returns the display name: file name, plus sheet for workbooks.
func (s *Source) Label() string {
	if s.Sheet == "" {
		return s.FileName
	}
	return fmt.Sprintf("%s [%s]", s.FileName, s.Sheet)
}

// SourceLookup resolves source identifiers to their tables.
type SourceLookup interface {
	Lookup(id string) (*Source, bool)
}

// SourceRegistry maps source identifiers to tables, in upload order.
// Safe for concurrent use.
type SourceRegistry struct {
	mu      sync.RWMutex
	sources map[string]*Source
	order   []string
}

// NewSourceRegistry returns an empty registry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{sources: make(map[string]*Source)}
}

// Add registers a source, assigning an ID when none is set.
// Content already registered under another ID is rejected with
// ErrDuplicateSource.
func (r *SourceRegistry) Add(src *Source) (*Source, error) {
	if src == nil || src.Table == nil {
		return nil, fmt.Errorf("add source: %w", ErrEmptyFile)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if src.ID == "" {
		src.ID = uuid.New().String()
	}
	if _, exists := r.sources[src.ID]; exists {
		return nil, fmt.Errorf("source already registered: %s", src.ID)
	}
	if src.Fingerprint != 0 {
		for _, existing := range r.sources {
			if existing.Fingerprint == src.Fingerprint && existing.Sheet == src.Sheet {
				return nil, fmt.Errorf("%s matches %s: %w", src.FileName, existing.Label(), ErrDuplicateSource)
			}
		}
	}
	if src.UploadedAt.IsZero() {
		src.UploadedAt = time.Now()
	}

	r.sources[src.ID] = src
	r.order = append(r.order, src.ID)
	return src, nil
}

// Lookup returns a source by ID.
func (r *SourceRegistry) Lookup(id string) (*Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.sources[id]
	return src, ok
}

// Remove deletes a source. Returns false if it was not registered.
func (r *SourceRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[id]; !ok {
		return false
	}
	delete(r.sources, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all sources in upload order.
func (r *SourceRegistry) List() []*Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Source, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.sources[id])
	}
	return result
}

// Len returns the number of registered sources.
func (r *SourceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
