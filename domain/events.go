package domain

import (
	"encoding/json"
	"fmt"
)

const (
	WorkspaceUpdated = "workspaceUpdated"
	WorkspaceDeleted = "workspaceDeleted"
	BoardCreated     = "boardCreated"
	BoardUpdated     = "boardUpdated"
	BoardDeleted     = "boardDeleted"
	ListCreated      = "listCreated"
	ListUpdated      = "listUpdated"
	ListDeleted      = "listDeleted"
	CardCreated      = "cardCreated"
	CardUpdated      = "cardUpdated"
	CardDeleted      = "cardDeleted"
	UserOnline       = "userOnline"
	UserOffline      = "userOffline"
	OnlineUsers      = "onlineUsers"
)

// Event is the envelope delivered by the push transport. Created and
// updated events carry the full entity in Data; deleted events carry
// just the identifier.
type Event struct {
	Type string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// EventID extracts the identifier carried by a deleted event. The push
// gateway emits the bare id as a JSON string; some callers wrap it in
// an object, so both forms are accepted.
func EventID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil && id != "" {
		return id, nil
	}
	var wrapped struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.ID != "" {
		return wrapped.ID, nil
	}
	return "", fmt.Errorf("event id: %w", ErrMalformedEvent)
}
