package repository

import (
	"context"
	"errors"
	"slices"
	"sort"

	"github.com/mockapi/mockapi/internal/model"
)

// Common errors for record repository operations.
var (
	ErrRecordNotFound = errors.New("record not found")
)

// CreateRecord appends a record to the list. The repository keeps its own
// copy.
func (r *Repository) CreateRecord(ctx context.Context, rec model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec.Clone())
	return nil
}

// GetRecordByID retrieves a copy of the first record with the given ID.
func (r *Repository) GetRecordByID(ctx context.Context, id string) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrRecordNotFound
	}
	return r.records[i].Clone(), nil
}

// ListRecords returns copies of all records ordered by createdAt, newest
// first. Records with equal createdAt keep insertion order.
func (r *Repository) ListRecords(ctx context.Context) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]model.Record, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Clone()
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt() > out[j].CreatedAt()
	})

	return out, nil
}

// UpdateRecord shallow-merges fields into the record with the given ID and
// returns a copy of the result. id and createdAt are never changed.
func (r *Repository) UpdateRecord(ctx context.Context, id string, fields map[string]any) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrRecordNotFound
	}

	r.records[i].Merge(fields)
	return r.records[i].Clone(), nil
}

// DeleteRecord removes the first record with the given ID.
func (r *Repository) DeleteRecord(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrRecordNotFound
	}

	r.records = slices.Delete(r.records, i, i+1)
	return nil
}

// indexOf returns the position of the first record with the given ID, or -1.
// Callers must hold r.mu.
func (r *Repository) indexOf(id string) int {
	for i, rec := range r.records {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}
