package models

import (
	"encoding/json"
	"time"
)

// Action names the mutation an entry records.
type Action string

const (
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionBulkUpdate  Action = "bulk_update"
	ActionBulkDelete  Action = "bulk_delete"
	ActionUploadPhoto Action = "upload_photo"
)

// Entry is one append-only audit record. ShelterID is nil for bulk actions,
// whose affected ids live in Details.
type Entry struct {
	ID        int64           `json:"id"`
	ShelterID *int64          `json:"shelter_id"`
	Actor     string          `json:"actor"`
	Action    Action          `json:"action"`
	Timestamp time.Time       `json:"timestamp"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// Details is the structured payload serialised into Entry.Details.
type Details struct {
	ActorName   string   `json:"actor_name,omitempty"`
	Fields      []string `json:"fields,omitempty"`
	ShelterIDs  []int64  `json:"shelter_ids,omitempty"`
	PhotoIDs    []string `json:"photo_ids,omitempty"`
	ClientIP    string   `json:"client_ip,omitempty"`
	ClientLabel string   `json:"client,omitempty"`
	RequestID   string   `json:"request_id,omitempty"`
}

// NewEntry builds an entry with marshalled details.
func NewEntry(action Action, shelterID *int64, actor string, now time.Time, details Details) (*Entry, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	return &Entry{
		ShelterID: shelterID,
		Actor:     actor,
		Action:    action,
		Timestamp: now,
		Details:   raw,
	}, nil
}
