// Package session provides the session manager: the sole write-path
// coordinator over the state store and version manager.
package session

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/prompt2figma/designd/internal/errs"
	"github.com/prompt2figma/designd/internal/event"
	"github.com/prompt2figma/designd/internal/logging"
	"github.com/prompt2figma/designd/internal/store"
	"github.com/prompt2figma/designd/internal/version"
	"github.com/prompt2figma/designd/pkg/types"
)

// AnonymousUser is the user id recorded when a client supplies none.
const AnonymousUser = "anonymous"

// Manager owns the session lifecycle and the edit write path. It holds no
// mutable state and is safe for concurrent use across sessions. Two
// concurrent edits on the same session are not serialized; the product
// assumes a single active editor per session.
type Manager struct {
	store      *store.Store
	versions   *version.Manager
	sessionTTL time.Duration
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithSessionTTL overrides the idle expiration window.
func WithSessionTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.sessionTTL = ttl
		}
	}
}

// WithClock overrides the time source (for testing expiry).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a session manager over the given store and version
// manager.
func NewManager(st *store.Store, vm *version.Manager, opts ...Option) *Manager {
	m := &Manager{
		store:      st,
		versions:   vm,
		sessionTTL: st.TTL(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store exposes the underlying state store for read paths in the transport
// adapter.
func (m *Manager) Store() *store.Store {
	return m.store
}

// Versions exposes the version manager.
func (m *Manager) Versions() *version.Manager {
	return m.versions
}

// CreateSession constructs and stores a new active session. The caller is
// responsible for generating and storing version 1 via UpdateSessionState;
// a session must never be left without a v1.
func (m *Manager) CreateSession(ctx context.Context, userID, initialPrompt string) (*types.Session, error) {
	if userID == "" {
		userID = AnonymousUser
	}

	now := m.now().UTC()
	session := &types.Session{
		SessionID:      ulid.Make().String(),
		UserID:         userID,
		InitialPrompt:  initialPrompt,
		CurrentVersion: 1,
		CreatedAt:      now,
		LastActivity:   now,
		Status:         types.SessionActive,
	}

	if !m.store.CreateSession(ctx, session) {
		return nil, errs.Newf(errs.KindStorageFault, "failed to store session %s", session.SessionID)
	}

	event.Publish(event.Event{
		Type: event.SessionCreated,
		Data: event.SessionData{SessionID: session.SessionID, UserID: userID},
	})
	logging.Info().Str("session_id", session.SessionID).Str("user_id", userID).Msg("created design session")

	return session, nil
}

// GetSession returns the session, or nil when it is missing or has expired.
// An expired session is marked expired on read; a live one gets its
// last_activity bumped.
func (m *Manager) GetSession(ctx context.Context, sid string) *types.Session {
	session := m.store.GetSessionMetadata(ctx, sid)
	if session == nil {
		return nil
	}

	if m.now().UTC().Sub(session.LastActivity) > m.sessionTTL {
		logging.Info().Str("session_id", sid).Msg("session expired, marking")
		m.store.SetSessionStatus(ctx, sid, types.SessionExpired)
		event.Publish(event.Event{
			Type: event.SessionExpired,
			Data: event.SessionData{SessionID: sid, UserID: session.UserID},
		})
		return nil
	}

	m.store.UpdateSessionActivity(ctx, sid)
	return session
}

// UpdateSessionState stores an explicit design state version for an active
// session. Used by the create path to persist version 1.
func (m *Manager) UpdateSessionState(ctx context.Context, sid string, state *types.DesignState) error {
	session := m.GetSession(ctx, sid)
	if session == nil {
		return errs.Newf(errs.KindSessionNotFound, "session %s not found or expired", sid)
	}
	if session.Status != types.SessionActive {
		return errs.Newf(errs.KindSessionInactive, "cannot update inactive session %s", sid)
	}

	if state.Metadata.ContentHash == "" {
		hash, err := version.ContentHash(state.WireframeJSON)
		if err != nil {
			return errs.Wrap(errs.KindStorageFault, "failed to hash wireframe", err)
		}
		state.Metadata.ContentHash = hash
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = m.now().UTC()
	}
	if state.Metadata.TargetElements == nil {
		state.Metadata.TargetElements = []string{}
	}

	if !m.store.StoreDesignState(ctx, sid, state.Version, state) {
		return errs.Newf(errs.KindStorageFault, "failed to store design state for session %s", sid)
	}

	m.store.StoreVersionMetadata(ctx, sid, &types.VersionMetadata{
		Version:        state.Version,
		CreatedAt:      state.CreatedAt,
		ChangesSummary: state.Metadata.Changes.Summary,
		EditType:       state.Metadata.EditType,
		TargetElements: state.Metadata.TargetElements,
		ContentHash:    state.Metadata.ContentHash,
	})

	m.store.UpdateSessionActivity(ctx, sid)
	m.store.RefreshSessionTTL(ctx, sid)
	return nil
}

// ApplyEdit is the primary edit path: version the new wireframe, then append
// the edit context and bump the edit count. A context-append failure after a
// successful version store is advisory: logged, and the edit still succeeds.
func (m *Manager) ApplyEdit(ctx context.Context, sid string, wireframe types.Wireframe, changes types.ChangeSet, extra map[string]any) (*types.EditResult, error) {
	session := m.GetSession(ctx, sid)
	if session == nil {
		return nil, errs.Newf(errs.KindSessionNotFound, "session %s not found or expired", sid)
	}
	if session.Status != types.SessionActive {
		return nil, errs.Newf(errs.KindSessionInactive, "cannot edit inactive session %s", sid)
	}

	start := m.now()
	newVersion, err := m.versions.CreateVersion(ctx, sid, wireframe, changes, extra)
	if err != nil {
		return nil, err
	}
	processingTime := int(m.now().Sub(start).Milliseconds())

	editType := changes.EditType
	if editType == "" {
		editType = types.EditModify
	}
	targets := changes.TargetElements
	if targets == nil {
		targets = []string{}
	}
	entry := &types.EditContext{
		Prompt:           changes.Prompt,
		EditType:         editType,
		TargetElements:   targets,
		Timestamp:        m.now().UTC(),
		ProcessingTimeMS: processingTime,
	}

	// The version is the authoritative record; context is advisory.
	if !m.store.AddContextEntry(ctx, sid, entry) {
		logging.Warn().Str("session_id", sid).Int("version", newVersion).Msg("context append failed after version store")
	}
	if !m.store.IncrementEditCount(ctx, sid) {
		logging.Warn().Str("session_id", sid).Msg("edit count increment failed")
	}
	m.store.RefreshSessionTTL(ctx, sid)

	return &types.EditResult{
		Success:          true,
		NewVersion:       newVersion,
		UpdatedWireframe: wireframe,
		ChangesSummary:   changes.Summary,
		ProcessingTimeMS: processingTime,
	}, nil
}

// CompleteSession marks an active session completed. Completed is terminal.
func (m *Manager) CompleteSession(ctx context.Context, sid string) error {
	session := m.GetSession(ctx, sid)
	if session == nil {
		return errs.Newf(errs.KindSessionNotFound, "session %s not found or expired", sid)
	}

	if !m.store.SetSessionStatus(ctx, sid, types.SessionCompleted) {
		return errs.Newf(errs.KindStorageFault, "failed to complete session %s", sid)
	}
	m.store.UpdateSessionActivity(ctx, sid)

	event.Publish(event.Event{
		Type: event.SessionCompleted,
		Data: event.SessionData{SessionID: sid, UserID: session.UserID},
	})
	logging.Info().Str("session_id", sid).Msg("completed session")
	return nil
}

// GetSessionHistory returns every stored version ascending. Missing
// individual states are skipped.
func (m *Manager) GetSessionHistory(ctx context.Context, sid string) ([]*types.DesignState, error) {
	if m.GetSession(ctx, sid) == nil {
		return nil, errs.Newf(errs.KindSessionNotFound, "session %s not found or expired", sid)
	}

	versions := m.store.GetAllVersions(ctx, sid)
	history := make([]*types.DesignState, 0, len(versions))
	for _, v := range versions {
		if state := m.store.GetDesignState(ctx, sid, v); state != nil {
			history = append(history, state)
		}
	}
	return history, nil
}

// GetVersionDiff returns the element-level diff between two versions, or nil
// when either is missing.
func (m *Manager) GetVersionDiff(ctx context.Context, sid string, fromVersion, toVersion int) (*types.VersionDiff, error) {
	if m.GetSession(ctx, sid) == nil {
		return nil, errs.Newf(errs.KindSessionNotFound, "session %s not found or expired", sid)
	}
	return m.versions.GetVersionDiff(ctx, sid, fromVersion, toVersion), nil
}

// VerifySessionIntegrity checks the content hash of every stored version.
func (m *Manager) VerifySessionIntegrity(ctx context.Context, sid string) (*types.IntegrityReport, error) {
	if m.GetSession(ctx, sid) == nil {
		return nil, errs.Newf(errs.KindSessionNotFound, "session %s not found or expired", sid)
	}

	versions := m.store.GetAllVersions(ctx, sid)
	report := &types.IntegrityReport{
		SessionID:         sid,
		TotalVersions:     len(versions),
		CorruptedVersions: []int{},
	}
	for _, v := range versions {
		if m.versions.VerifyVersionIntegrity(ctx, sid, v) {
			report.ValidVersions++
		} else {
			report.InvalidVersions++
			report.CorruptedVersions = append(report.CorruptedVersions, v)
		}
	}
	return report, nil
}

// GetSessionMetrics aggregates session analytics. When the version manager
// has nothing, metrics are reconstructed from the session metadata and
// context list.
func (m *Manager) GetSessionMetrics(ctx context.Context, sid string) *types.SessionMetrics {
	if metrics := m.versions.CalculateSessionMetrics(ctx, sid); metrics != nil {
		return metrics
	}

	meta := m.store.GetSessionMetadata(ctx, sid)
	if meta == nil {
		return nil
	}

	history := m.store.GetContextHistory(ctx, sid, 100)
	duration := meta.LastActivity.Sub(meta.CreatedAt).Minutes()

	distribution := make(map[types.EditType]int)
	totalProcessing := 0
	for _, entry := range history {
		distribution[entry.EditType]++
		totalProcessing += entry.ProcessingTimeMS
	}
	avg := 0.0
	if len(history) > 0 {
		avg = float64(totalProcessing) / float64(len(history))
	}

	return &types.SessionMetrics{
		TotalEdits:              meta.TotalEdits,
		SessionDurationMinutes:  int(duration),
		EditTypesDistribution:   distribution,
		AverageProcessingTimeMS: avg,
	}
}

// GetUserSessions returns the ids of a user's sessions that are still
// active.
func (m *Manager) GetUserSessions(ctx context.Context, uid string) []string {
	ids := m.store.GetUserSessions(ctx, uid)

	active := make([]string, 0, len(ids))
	for _, sid := range ids {
		if session := m.GetSession(ctx, sid); session != nil && session.Status == types.SessionActive {
			active = append(active, sid)
		}
	}
	return active
}

// CompressSessionVersions compacts old versions, keeping the most recent
// keepRecent uncompressed. Returns the number compressed.
func (m *Manager) CompressSessionVersions(ctx context.Context, sid string, keepRecent int) (int, error) {
	if m.GetSession(ctx, sid) == nil {
		return 0, errs.Newf(errs.KindSessionNotFound, "session %s not found or expired", sid)
	}
	return m.versions.CompressOldVersions(ctx, sid, keepRecent), nil
}
