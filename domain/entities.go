package domain

import "time"

// Entities mirror the board service's REST payloads so that a realtime
// event body and a REST response row can feed the same upsert path.
// Identifiers are opaque strings assigned by the server; the client
// never generates them.

type Workspace struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	IsPrivate   bool      `json:"isPrivate,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Board struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Workspace   string    `json:"workspace"`
	Color       string    `json:"color,omitempty"`
	IsFavorite  bool      `json:"isFavorite,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type List struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Board     string    `json:"board"`
	Color     string    `json:"color,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Card struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	List        string     `json:"list"`
	Board       string     `json:"board"`
	Position    int        `json:"position"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssignedTo  []string   `json:"assignedTo,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	Attachments []string   `json:"attachments,omitempty"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// OnlineUser is one entry of the presence projection. WorkspaceID and
// BoardID are optional scope hints used only for read-time filtering.
type OnlineUser struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	BoardID     string `json:"boardId,omitempty"`
}
