package version

import (
	"context"
	"sort"

	"github.com/prompt2figma/designd/internal/event"
	"github.com/prompt2figma/designd/internal/logging"
	"github.com/prompt2figma/designd/pkg/types"
)

// checkAndCompress compacts old versions once the session exceeds the
// configured maximum.
func (m *Manager) checkAndCompress(ctx context.Context, sid string) {
	versions := m.store.GetAllVersions(ctx, sid)
	if len(versions) > m.maxVersions {
		m.CompressOldVersions(ctx, sid, m.keepRecent)
	}
}

// CompressOldVersions rewrites versions older than the keepRecent newest
// into structural skeletons, preserving version numbers and creation
// timestamps. Idempotent: already-compressed versions are skipped. Returns
// the number of versions compressed.
func (m *Manager) CompressOldVersions(ctx context.Context, sid string, keepRecent int) int {
	if keepRecent <= 0 {
		keepRecent = m.keepRecent
	}

	versions := m.store.GetAllVersions(ctx, sid)
	if len(versions) <= keepRecent {
		return 0
	}

	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	toCompress := versions[keepRecent:]

	compressed := 0
	for _, v := range toCompress {
		meta := m.store.GetVersionMetadata(ctx, sid, v)
		if meta != nil && meta.Compressed {
			continue
		}

		state := m.store.GetDesignState(ctx, sid, v)
		if state == nil {
			continue
		}

		skeleton := compressState(state)
		if !m.store.RewriteDesignState(ctx, sid, v, skeleton) {
			continue
		}
		m.store.MarkVersionCompressed(ctx, sid, v)
		compressed++

		event.Publish(event.Event{
			Type: event.VersionCompressed,
			Data: event.VersionData{SessionID: sid, Version: v},
		})
		logging.Info().Str("session_id", sid).Int("version", v).Msg("compressed version")
	}

	return compressed
}

// compressState reduces a state to its structural skeleton: per element only
// {id, type, position, size}; layout is carried over, everything else is
// dropped. Creation timestamp and version number are preserved.
func compressState(state *types.DesignState) *types.DesignState {
	skeletonWireframe := types.Wireframe{
		"elements":   []any{},
		"compressed": true,
	}
	if layout, ok := state.WireframeJSON["layout"]; ok {
		skeletonWireframe["layout"] = layout
	} else {
		skeletonWireframe["layout"] = map[string]any{}
	}

	var elements []any
	if raw, ok := state.WireframeJSON["elements"].([]any); ok {
		for _, item := range raw {
			elem, ok := item.(map[string]any)
			if !ok {
				continue
			}
			skeleton := map[string]any{
				"id":       elem["id"],
				"type":     elem["type"],
				"position": elem["position"],
				"size":     elem["size"],
			}
			elements = append(elements, skeleton)
		}
	}
	if elements != nil {
		skeletonWireframe["elements"] = elements
	}

	originalSize := 0
	if canonical, err := CanonicalJSON(state.WireframeJSON); err == nil {
		originalSize = len(canonical)
	}

	metadata := state.Metadata
	metadata.Compressed = true
	metadata.OriginalSize = originalSize

	return &types.DesignState{
		SessionID:     state.SessionID,
		Version:       state.Version,
		WireframeJSON: skeletonWireframe,
		Metadata:      metadata,
		CreatedAt:     state.CreatedAt,
	}
}

// VerifyVersionIntegrity recomputes the canonical-JSON SHA-256 of a stored
// version and compares it to the recorded content hash. Compressed versions
// are reported valid without recomputation: the skeleton no longer matches
// the hash taken at storage time by construction. Versions with no stored
// hash are invalid.
func (m *Manager) VerifyVersionIntegrity(ctx context.Context, sid string, v int) bool {
	state := m.store.GetDesignState(ctx, sid, v)
	if state == nil {
		return false
	}

	if state.Metadata.Compressed {
		return true
	}

	storedHash := state.Metadata.ContentHash
	if storedHash == "" {
		logging.Warn().Str("session_id", sid).Int("version", v).Msg("no content hash stored for version")
		return false
	}

	currentHash, err := ContentHash(state.WireframeJSON)
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", v).Msg("failed to recompute content hash")
		return false
	}

	if currentHash != storedHash {
		logging.Error().
			Str("session_id", sid).
			Int("version", v).
			Str("stored", storedHash).
			Str("computed", currentHash).
			Msg("content hash mismatch")
		return false
	}
	return true
}

// CalculateSessionMetrics aggregates edit counts, duration, edit-type
// distribution and average processing time from the version projections.
// Returns nil when the session is missing.
func (m *Manager) CalculateSessionMetrics(ctx context.Context, sid string) *types.SessionMetrics {
	session := m.store.GetSessionMetadata(ctx, sid)
	if session == nil {
		return nil
	}

	versions := m.store.GetAllVersions(ctx, sid)

	totalEdits := len(versions) - 1
	if totalEdits < 0 {
		totalEdits = 0
	}
	duration := session.LastActivity.Sub(session.CreatedAt).Minutes()

	distribution := make(map[types.EditType]int)
	var processingTimes []int
	for _, v := range versions {
		if v == 1 {
			continue // initial version is not an edit
		}
		meta := m.store.GetVersionMetadata(ctx, sid, v)
		if meta == nil {
			continue
		}
		distribution[meta.EditType]++
		processingTimes = append(processingTimes, meta.ProcessingTimeMS)
	}

	avg := 0.0
	if len(processingTimes) > 0 {
		total := 0
		for _, t := range processingTimes {
			total += t
		}
		avg = float64(total) / float64(len(processingTimes))
	}

	return &types.SessionMetrics{
		TotalEdits:              totalEdits,
		SessionDurationMinutes:  int(duration),
		EditTypesDistribution:   distribution,
		AverageProcessingTimeMS: avg,
	}
}
