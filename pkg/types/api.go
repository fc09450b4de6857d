package types

// CreateSessionRequest is the body of POST /design-sessions.
type CreateSessionRequest struct {
	Prompt string `json:"prompt"`
	UserID string `json:"user_id,omitempty"`
}

// CreateSessionResponse is returned after creating a design session.
type CreateSessionResponse struct {
	SessionID     string    `json:"session_id"`
	WireframeJSON Wireframe `json:"wireframe_json"`
	Version       int       `json:"version"`
}

// EditSessionRequest is the body of POST /design-sessions/{sid}/edit.
type EditSessionRequest struct {
	EditPrompt string `json:"edit_prompt"`
}

// EditSessionResponse is returned after applying an edit.
type EditSessionResponse struct {
	SessionID        string    `json:"session_id"`
	WireframeJSON    Wireframe `json:"wireframe_json"`
	Version          int       `json:"version"`
	ChangesSummary   string    `json:"changes_summary"`
	ProcessingTimeMS int       `json:"processing_time_ms"`
}

// SessionDetailsResponse is returned by GET /design-sessions/{sid}.
type SessionDetailsResponse struct {
	SessionID        string       `json:"session_id"`
	UserID           string       `json:"user_id"`
	InitialPrompt    string       `json:"initial_prompt"`
	CurrentVersion   int          `json:"current_version"`
	TotalEdits       int          `json:"total_edits"`
	Status           string       `json:"status"`
	CreatedAt        string       `json:"created_at"`
	LastActivity     string       `json:"last_activity"`
	CurrentWireframe Wireframe    `json:"current_wireframe"`
	RecentEdits      []RecentEdit `json:"recent_edits"`
}

// RecentEdit is one entry of SessionDetailsResponse.RecentEdits.
type RecentEdit struct {
	Prompt           string `json:"prompt"`
	EditType         string `json:"edit_type"`
	Timestamp        string `json:"timestamp"`
	ProcessingTimeMS int    `json:"processing_time_ms"`
}

// VersionDetail is one entry of SessionHistoryResponse.Versions.
type VersionDetail struct {
	Version       int           `json:"version"`
	CreatedAt     string        `json:"created_at"`
	Metadata      StateMetadata `json:"metadata"`
	ElementCount  int           `json:"element_count"`
	WireframeJSON Wireframe     `json:"wireframe_json"`
}

// SessionHistoryResponse is returned by GET /design-sessions/{sid}/history.
type SessionHistoryResponse struct {
	SessionID     string          `json:"session_id"`
	Versions      []VersionDetail `json:"versions"`
	TotalVersions int             `json:"total_versions"`
}

// UserSessionsResponse is returned by GET /users/{uid}/sessions.
type UserSessionsResponse struct {
	UserID     string   `json:"user_id"`
	SessionIDs []string `json:"session_ids"`
}
