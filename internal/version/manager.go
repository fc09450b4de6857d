// Package version manages immutable design versions: creation, integrity
// verification, diffs, compaction and session metrics.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/prompt2figma/designd/internal/errs"
	"github.com/prompt2figma/designd/internal/event"
	"github.com/prompt2figma/designd/internal/logging"
	"github.com/prompt2figma/designd/internal/store"
	"github.com/prompt2figma/designd/pkg/types"
)

const (
	// DefaultMaxVersions triggers compaction when a session exceeds it.
	DefaultMaxVersions = 50

	// DefaultKeepRecent is the number of versions kept uncompressed.
	DefaultKeepRecent = 10
)

// Manager enforces version monotonicity and content integrity on top of the
// state store. Safe for concurrent use across sessions.
type Manager struct {
	store       *store.Store
	maxVersions int
	keepRecent  int
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxVersions overrides the compaction trigger threshold.
func WithMaxVersions(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxVersions = n
		}
	}
}

// WithKeepRecent overrides the number of versions retained uncompressed.
func WithKeepRecent(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.keepRecent = n
		}
	}
}

// NewManager creates a version manager over the given store.
func NewManager(st *store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:       st,
		maxVersions: DefaultMaxVersions,
		keepRecent:  DefaultKeepRecent,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateVersion stores a new immutable version atop the session's current one
// and returns the new version number. The stored metadata merges extra with
// the change set, content hash and timing fields.
func (m *Manager) CreateVersion(ctx context.Context, sid string, wireframe types.Wireframe, changes types.ChangeSet, extra map[string]any) (int, error) {
	session := m.store.GetSessionMetadata(ctx, sid)
	if session == nil {
		return 0, errs.Newf(errs.KindSessionNotFound, "session %s not found", sid)
	}

	newVersion := session.CurrentVersion + 1

	contentHash, err := ContentHash(wireframe)
	if err != nil {
		return 0, errs.Wrap(errs.KindStorageFault, "failed to hash wireframe", err)
	}

	editType := changes.EditType
	if editType == "" {
		editType = types.EditModify
	}
	targets := changes.TargetElements
	if targets == nil {
		targets = []string{}
	}

	state := &types.DesignState{
		SessionID:     sid,
		Version:       newVersion,
		WireframeJSON: wireframe,
		Metadata: types.StateMetadata{
			ContentHash:      contentHash,
			EditType:         editType,
			TargetElements:   targets,
			ProcessingTimeMS: changes.ProcessingTimeMS,
			Changes:          changes,
			Extra:            extra,
		},
		CreatedAt: time.Now().UTC(),
	}

	if !m.store.StoreDesignState(ctx, sid, newVersion, state) {
		return 0, errs.Newf(errs.KindStorageFault, "failed to store design state for version %d", newVersion)
	}

	m.store.StoreVersionMetadata(ctx, sid, &types.VersionMetadata{
		Version:          newVersion,
		CreatedAt:        state.CreatedAt,
		ChangesSummary:   changes.Summary,
		EditType:         editType,
		TargetElements:   targets,
		ProcessingTimeMS: changes.ProcessingTimeMS,
		ContentHash:      contentHash,
		Compressed:       false,
	})

	m.checkAndCompress(ctx, sid)

	event.Publish(event.Event{
		Type: event.VersionCreated,
		Data: event.VersionData{SessionID: sid, Version: newVersion},
	})
	logging.Info().Str("session_id", sid).Int("version", newVersion).Msg("created version")

	return newVersion, nil
}

// GetVersionDiff computes the element-level differences between two versions.
// Returns nil when either version is missing.
func (m *Manager) GetVersionDiff(ctx context.Context, sid string, fromVersion, toVersion int) *types.VersionDiff {
	fromState := m.store.GetDesignState(ctx, sid, fromVersion)
	toState := m.store.GetDesignState(ctx, sid, toVersion)

	if fromState == nil || toState == nil {
		logging.Warn().Str("session_id", sid).Int("from", fromVersion).Int("to", toVersion).Msg("versions missing for diff")
		return nil
	}

	diff := calculateDiff(fromState, toState)
	diff.FromVersion = fromVersion
	diff.ToVersion = toVersion
	return diff
}

// calculateDiff diffs two states over wireframe_json["elements"], keyed by
// element id. Elements without an id are invisible to the diff; duplicate
// ids key last-write-wins.
func calculateDiff(fromState, toState *types.DesignState) *types.VersionDiff {
	fromLookup := elementsByID(fromState.WireframeJSON)
	toLookup := elementsByID(toState.WireframeJSON)

	diff := &types.VersionDiff{
		AddedElements:    []map[string]any{},
		RemovedElements:  []map[string]any{},
		ModifiedElements: []types.ModifiedElement{},
		MetadataChanges:  map[string]types.FieldChange{},
	}

	var addedIDs, removedIDs, commonIDs []string
	for id := range toLookup {
		if _, ok := fromLookup[id]; !ok {
			addedIDs = append(addedIDs, id)
		} else {
			commonIDs = append(commonIDs, id)
		}
	}
	for id := range fromLookup {
		if _, ok := toLookup[id]; !ok {
			removedIDs = append(removedIDs, id)
		}
	}
	sort.Strings(addedIDs)
	sort.Strings(removedIDs)
	sort.Strings(commonIDs)

	for _, id := range addedIDs {
		diff.AddedElements = append(diff.AddedElements, toLookup[id])
	}
	for _, id := range removedIDs {
		diff.RemovedElements = append(diff.RemovedElements, fromLookup[id])
	}
	for _, id := range commonIDs {
		if !reflect.DeepEqual(fromLookup[id], toLookup[id]) {
			diff.ModifiedElements = append(diff.ModifiedElements, types.ModifiedElement{
				ID:   id,
				From: fromLookup[id],
				To:   toLookup[id],
			})
		}
	}

	diff.MetadataChanges = metadataChanges(fromState.Metadata, toState.Metadata)
	diff.Summary = diffSummary(len(diff.AddedElements), len(diff.RemovedElements), len(diff.ModifiedElements))
	return diff
}

// elementsByID indexes the top-level elements array by element id.
func elementsByID(wireframe types.Wireframe) map[string]map[string]any {
	lookup := make(map[string]map[string]any)
	rawElements, ok := wireframe["elements"].([]any)
	if !ok {
		return lookup
	}
	for _, raw := range rawElements {
		elem, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, ok := elem["id"].(string)
		if !ok || id == "" {
			continue
		}
		lookup[id] = elem
	}
	return lookup
}

// metadataChanges compares the two states' metadata key by key via their
// JSON projections, emitting a before/after pair where unequal.
func metadataChanges(from, to types.StateMetadata) map[string]types.FieldChange {
	changes := make(map[string]types.FieldChange)

	fromMap := metadataAsMap(from)
	toMap := metadataAsMap(to)

	keys := make(map[string]struct{})
	for k := range fromMap {
		keys[k] = struct{}{}
	}
	for k := range toMap {
		keys[k] = struct{}{}
	}

	for k := range keys {
		if !reflect.DeepEqual(fromMap[k], toMap[k]) {
			changes[k] = types.FieldChange{From: fromMap[k], To: toMap[k]}
		}
	}
	return changes
}

func metadataAsMap(meta types.StateMetadata) map[string]any {
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func diffSummary(added, removed, modified int) string {
	var parts []string
	if added > 0 {
		parts = append(parts, fmt.Sprintf("%d elements added", added))
	}
	if removed > 0 {
		parts = append(parts, fmt.Sprintf("%d elements removed", removed))
	}
	if modified > 0 {
		parts = append(parts, fmt.Sprintf("%d elements modified", modified))
	}
	if len(parts) == 0 {
		return "No changes detected"
	}
	return strings.Join(parts, ", ")
}
