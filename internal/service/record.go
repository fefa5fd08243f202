// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mockapi/mockapi/internal/config"
	"github.com/mockapi/mockapi/internal/metrics"
	"github.com/mockapi/mockapi/internal/model"
	"github.com/mockapi/mockapi/internal/repository"
)

// Service errors.
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrInvalidIDFormat = errors.New("invalid record id format")
)

// EventPublisher receives record change notifications. rec is nil for
// deletions.
type EventPublisher interface {
	Publish(ctx context.Context, eventType model.EventType, recordID string, rec model.Record)
}

// RecordService handles record business logic.
type RecordService struct {
	repo      *repository.Repository
	metrics   metrics.Recorder
	publisher EventPublisher
	idFormat  string
	now       func() time.Time
}

// Option configures a RecordService.
type Option func(*RecordService)

// WithClock overrides the time source used for createdAt and IDs.
func WithClock(now func() time.Time) Option {
	return func(s *RecordService) {
		s.now = now
	}
}

// WithPublisher sends create, update and delete events to p.
func WithPublisher(p EventPublisher) Option {
	return func(s *RecordService) {
		s.publisher = p
	}
}

// NewRecordService creates a new RecordService. idFormat is one of
// config.IDFormatULID or config.IDFormatMillis.
func NewRecordService(repo *repository.Repository, idFormat string, recorder metrics.Recorder, opts ...Option) (*RecordService, error) {
	switch idFormat {
	case config.IDFormatULID, config.IDFormatMillis:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidIDFormat, idFormat)
	}

	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	s := &RecordService{
		repo:     repo,
		metrics:  recorder,
		idFormat: idFormat,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateRecord stores a new record built from caller fields. The caller's
// id and createdAt, if any, are replaced by generated values.
func (s *RecordService) CreateRecord(ctx context.Context, fields map[string]any) (model.Record, error) {
	now := s.now()
	rec := model.NewRecord(fields, s.newID(now), now.UnixMilli())

	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	s.metrics.IncRecordCreated()
	s.metrics.SetRecordCount(s.repo.Count())
	s.publish(ctx, model.EventRecordCreated, rec.ID(), rec)

	return rec, nil
}

// ImportRecord stores a record from a fixture. Unlike CreateRecord it keeps
// a non-empty string id and an integer createdAt when the fixture provides
// them, generating whichever is missing.
func (s *RecordService) ImportRecord(ctx context.Context, fields map[string]any) (model.Record, error) {
	now := s.now()
	createdAt := now.UnixMilli()
	if ms, ok := model.Millis(fields[model.FieldCreatedAt]); ok {
		createdAt = ms
	}

	id, _ := fields[model.FieldID].(string)
	if id == "" {
		id = s.newID(time.UnixMilli(createdAt))
	}

	rec := model.NewRecord(fields, id, createdAt)
	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to import record: %w", err)
	}

	s.metrics.SetRecordCount(s.repo.Count())

	return rec, nil
}

// ListRecords returns every record, newest first.
func (s *RecordService) ListRecords(ctx context.Context) ([]model.Record, error) {
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// GetRecord retrieves a record by ID.
func (s *RecordService) GetRecord(ctx context.Context, id string) (model.Record, error) {
	rec, err := s.repo.GetRecordByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

// UpdateRecord shallow-merges fields over the record with the given ID.
// id and createdAt are preserved whatever the fields contain.
func (s *RecordService) UpdateRecord(ctx context.Context, id string, fields map[string]any) (model.Record, error) {
	rec, err := s.repo.UpdateRecord(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	s.metrics.IncRecordUpdated()
	s.publish(ctx, model.EventRecordUpdated, id, rec)

	return rec, nil
}

// DeleteRecord removes the record with the given ID.
func (s *RecordService) DeleteRecord(ctx context.Context, id string) error {
	if err := s.repo.DeleteRecord(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}

	s.metrics.IncRecordDeleted()
	s.metrics.SetRecordCount(s.repo.Count())
	s.publish(ctx, model.EventRecordDeleted, id, nil)

	return nil
}

func (s *RecordService) publish(ctx context.Context, eventType model.EventType, id string, rec model.Record) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, eventType, id, rec)
}

// newID derives a record ID from the creation time.
func (s *RecordService) newID(t time.Time) string {
	millis := strconv.FormatInt(t.UnixMilli(), 10)
	if s.idFormat == config.IDFormatMillis || t.UnixMilli() < 0 {
		return millis
	}

	id, err := ulid.New(ulid.Timestamp(t), ulid.DefaultEntropy())
	if err != nil {
		// Out of ULID time range.
		return millis
	}
	return id.String()
}
