// Package types provides the core data types for the design session server.
package types

import "time"

// SessionStatus is the lifecycle status of a design session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionExpired   SessionStatus = "expired"
)

// Valid reports whether s is one of the known statuses.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionActive, SessionCompleted, SessionExpired:
		return true
	}
	return false
}

// EditType is the coarse taxonomy of edits exposed on the wire.
type EditType string

const (
	EditModify EditType = "modify"
	EditAdd    EditType = "add"
	EditRemove EditType = "remove"
	EditStyle  EditType = "style"
	EditLayout EditType = "layout"
)

// Valid reports whether t is one of the known edit types.
func (t EditType) Valid() bool {
	switch t {
	case EditModify, EditAdd, EditRemove, EditStyle, EditLayout:
		return true
	}
	return false
}

// Wireframe is the opaque UI-layout document. The core never introspects it
// beyond element traversal (children/components/elements keys and element ids).
type Wireframe = map[string]any

// Session represents a design session with its metadata.
type Session struct {
	SessionID      string        `json:"session_id"`
	UserID         string        `json:"user_id"`
	InitialPrompt  string        `json:"initial_prompt"`
	CurrentVersion int           `json:"current_version"`
	CreatedAt      time.Time     `json:"created_at"`
	LastActivity   time.Time     `json:"last_activity"`
	Status         SessionStatus `json:"status"`
	TotalEdits     int           `json:"total_edits"`
}

// DesignState is one immutable versioned snapshot of a wireframe.
type DesignState struct {
	SessionID     string        `json:"session_id,omitempty"`
	Version       int           `json:"version"`
	WireframeJSON Wireframe     `json:"wireframe_json"`
	Metadata      StateMetadata `json:"metadata"`
	CreatedAt     time.Time     `json:"created_at"`
}

// StateMetadata is the per-version metadata. ContentHash, EditType,
// TargetElements, ProcessingTimeMS and Changes are always present after
// CreateVersion; Compressed and OriginalSize are set only by compaction and
// omitted when zero; Extra carries forward-compat keys.
type StateMetadata struct {
	ContentHash      string         `json:"content_hash"`
	EditType         EditType       `json:"edit_type"`
	TargetElements   []string       `json:"target_elements"`
	ProcessingTimeMS int            `json:"processing_time_ms"`
	Changes          ChangeSet      `json:"changes"`
	Compressed       bool           `json:"compressed,omitempty"`
	OriginalSize     int            `json:"original_size,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// ChangeSet describes what one edit changed.
type ChangeSet struct {
	Prompt           string   `json:"prompt,omitempty"`
	EditType         EditType `json:"edit_type,omitempty"`
	TargetElements   []string `json:"target_elements,omitempty"`
	ProcessingTimeMS int      `json:"processing_time_ms,omitempty"`
	Summary          string   `json:"summary,omitempty"`
}

// VersionMetadata is the fast-access projection of a version, used for
// listing history without loading the full document.
type VersionMetadata struct {
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	ChangesSummary   string    `json:"changes_summary"`
	EditType         EditType  `json:"edit_type"`
	TargetElements   []string  `json:"target_elements"`
	ProcessingTimeMS int       `json:"processing_time_ms"`
	ContentHash      string    `json:"content_hash"`
	Compressed       bool      `json:"compressed"`
}

// EditContext records one edit's prompt, classification and timing. The
// session keeps a bounded, newest-first list of these for reference
// resolution in later edits.
type EditContext struct {
	Prompt           string    `json:"prompt"`
	EditType         EditType  `json:"edit_type"`
	TargetElements   []string  `json:"target_elements"`
	Timestamp        time.Time `json:"timestamp"`
	ProcessingTimeMS int       `json:"processing_time_ms"`
}

// EditResult is the outcome of applying an edit to a session.
type EditResult struct {
	Success          bool      `json:"success"`
	NewVersion       int       `json:"new_version"`
	UpdatedWireframe Wireframe `json:"updated_wireframe"`
	ChangesSummary   string    `json:"changes_summary"`
	ProcessingTimeMS int       `json:"processing_time_ms"`
}

// VersionDiff describes the differences between two versions. Elements are
// keyed by id; elements without an id are invisible to the diff.
type VersionDiff struct {
	FromVersion      int                    `json:"from_version"`
	ToVersion        int                    `json:"to_version"`
	AddedElements    []map[string]any       `json:"added_elements"`
	RemovedElements  []map[string]any       `json:"removed_elements"`
	ModifiedElements []ModifiedElement      `json:"modified_elements"`
	MetadataChanges  map[string]FieldChange `json:"metadata_changes"`
	Summary          string                 `json:"summary"`
}

// ModifiedElement is one element present in both versions with differences.
type ModifiedElement struct {
	ID   string         `json:"id"`
	From map[string]any `json:"from"`
	To   map[string]any `json:"to"`
}

// FieldChange is a before/after pair for one metadata key.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// SessionMetrics aggregates analytics for a session.
type SessionMetrics struct {
	TotalEdits              int              `json:"total_edits"`
	SessionDurationMinutes  int              `json:"session_duration_minutes"`
	EditTypesDistribution   map[EditType]int `json:"edit_types_distribution"`
	AverageProcessingTimeMS float64          `json:"average_processing_time_ms"`
}

// IntegrityReport is the result of verifying every version of a session.
type IntegrityReport struct {
	SessionID         string `json:"session_id"`
	TotalVersions     int    `json:"total_versions"`
	ValidVersions     int    `json:"valid_versions"`
	InvalidVersions   int    `json:"invalid_versions"`
	CorruptedVersions []int  `json:"corrupted_versions"`
}
