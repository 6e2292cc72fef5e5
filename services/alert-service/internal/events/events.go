// Package events defines the refresh request event carried on the travel.alerts.refresh topic.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// SchemaVersion is the current RefreshRequested schema.
const SchemaVersion = 1

// Content types a RefreshRequested may be encoded with.
const (
	ContentTypeProtobuf = "application/x-protobuf"
	ContentTypeJSON     = "application/json"
)

// RefreshRequested asks the worker to recompute a user's alerts.
type RefreshRequested struct {
	UserID        string    `json:"user_id"`
	RequestedAt   time.Time `json:"requested_at"`
	Reason        string    `json:"reason,omitempty"`
	SchemaVersion int       `json:"schema_version"`
}

// NewRefreshRequested creates an event stamped with the current schema version.
func NewRefreshRequested(userID, reason string, at time.Time) *RefreshRequested {
	return &RefreshRequested{
		UserID:        userID,
		RequestedAt:   at.UTC(),
		Reason:        reason,
		SchemaVersion: SchemaVersion,
	}
}

// Encode serializes e as a google.protobuf.Struct.
func Encode(e *RefreshRequested) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"user_id":        e.UserID,
		"requested_at":   e.RequestedAt.UTC().Format(time.RFC3339Nano),
		"reason":         e.Reason,
		"schema_version": e.SchemaVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh struct: %w", err)
	}
	data, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh request: %w", err)
	}
	return data, nil
}

// Decode parses a message value. JSON is accepted for producers that cannot emit protobuf;
// anything else is read as a protobuf Struct.
func Decode(contentType string, data []byte) (*RefreshRequested, error) {
	var e RefreshRequested
	if contentType == ContentTypeJSON {
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal refresh request JSON: %w", err)
		}
	} else {
		var s structpb.Struct
		if err := proto.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal refresh request protobuf: %w", err)
		}
		f := s.GetFields()
		e.UserID = f["user_id"].GetStringValue()
		e.Reason = f["reason"].GetStringValue()
		e.SchemaVersion = int(f["schema_version"].GetNumberValue())
		if ts := f["requested_at"].GetStringValue(); ts != "" {
			at, err := time.Parse(time.RFC3339Nano, ts)
			if err != nil {
				return nil, fmt.Errorf("invalid requested_at %q: %w", ts, err)
			}
			e.RequestedAt = at
		}
	}

	if e.UserID == "" {
		return nil, fmt.Errorf("refresh request is missing user_id")
	}
	return &e, nil
}
