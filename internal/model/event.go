package model

// EventType names a record change delivered to webhook subscribers.
type EventType string

// Record change events.
const (
	EventRecordCreated EventType = "record.created"
	EventRecordUpdated EventType = "record.updated"
	EventRecordDeleted EventType = "record.deleted"
)

// Event is the JSON body of a webhook delivery. Record is omitted for
// deletions.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	RecordID  string    `json:"recordId"`
	Record    Record    `json:"record,omitempty"`
}
