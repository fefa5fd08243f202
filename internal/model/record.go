// Package model defines domain entities for the application.
package model

import (
	"encoding/json"
	"strconv"
)

// Server-managed record fields. Callers may send them but never override them.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
)

// Record is an open-ended mapping from field name to JSON value.
// Every stored record carries FieldID (string) and FieldCreatedAt
// (integer milliseconds since the Unix epoch).
type Record map[string]any

// NewRecord builds a record from caller fields, then asserts the protected
// fields on top so the caller cannot choose them.
func NewRecord(fields map[string]any, id string, createdAt int64) Record {
	rec := make(Record, len(fields)+2)
	for k, v := range fields {
		rec[k] = v
	}
	rec.protect(id, createdAt)
	return rec
}

// ID returns the record identifier.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// CreatedAt returns the creation timestamp in milliseconds.
func (r Record) CreatedAt() int64 {
	ms, _ := Millis(r[FieldCreatedAt])
	return ms
}

// Merge shallow-merges fields over the record in place: top-level keys are
// overwritten, nested values are replaced wholesale. The protected fields
// are reasserted afterwards.
func (r Record) Merge(fields map[string]any) {
	id, createdAt := r.ID(), r.CreatedAt()
	for k, v := range fields {
		r[k] = v
	}
	r.protect(id, createdAt)
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (r Record) protect(id string, createdAt int64) {
	r[FieldID] = id
	r[FieldCreatedAt] = createdAt
}

// Millis converts a decoded JSON value into an integer millisecond
// timestamp. It accepts the integer kinds produced by the JSON and YAML
// decoders used in this module.
func Millis(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		ms, err := n.Int64()
		return ms, err == nil
	case string:
		ms, err := strconv.ParseInt(n, 10, 64)
		return ms, err == nil
	default:
		return 0, false
	}
}
