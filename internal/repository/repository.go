// Package repository provides the record storage layer.
// Records live in a process-lifetime ordered list and are lost on restart.
package repository

import (
	"context"
	"sync"

	"github.com/mockapi/mockapi/internal/model"
)

// Repository provides record storage methods.
type Repository struct {
	mu      sync.RWMutex
	records []model.Record
}

// New creates an empty Repository.
func New() *Repository {
	return &Repository{
		records: make([]model.Record, 0),
	}
}

// Ping reports storage availability. The in-memory list is always ready
// unless the context is already done.
func (r *Repository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Count returns the number of stored records.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Reset drops every stored record.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make([]model.Record, 0)
}
