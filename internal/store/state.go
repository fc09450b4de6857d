package store

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prompt2figma/designd/internal/logging"
	"github.com/prompt2figma/designd/pkg/types"
)

// StoreDesignState serializes and stores a versioned design state, overwrites
// current_version in the session metadata hash, and arms the state-key TTL.
// Go's encoding/json sorts map keys, so wireframe serialization is stable.
func (s *Store) StoreDesignState(ctx context.Context, sid string, version int, state *types.DesignState) bool {
	wireframeJSON, err := json.Marshal(state.WireframeJSON)
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", version).Msg("failed to serialize wireframe")
		return false
	}
	metadataJSON, err := json.Marshal(state.Metadata)
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", version).Msg("failed to serialize state metadata")
		return false
	}

	key := stateKey(sid, version)
	fields := map[string]any{
		"wireframe_json": string(wireframeJSON),
		"metadata":       string(metadataJSON),
		"created_at":     state.CreatedAt.UTC().Format(timeLayout),
		"version":        version,
	}

	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", version).Msg("failed to store design state")
		return false
	}
	s.client.Expire(ctx, key, s.ttl)

	if err := s.client.HSet(ctx, sessionMetadataKey(sid), "current_version", version).Err(); err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", version).Msg("failed to update current version")
		return false
	}

	logging.Debug().Str("session_id", sid).Int("version", version).Msg("stored design state")
	return true
}

// RewriteDesignState overwrites an existing state key in place without
// touching current_version in the session metadata. Used by compaction.
func (s *Store) RewriteDesignState(ctx context.Context, sid string, version int, state *types.DesignState) bool {
	wireframeJSON, err := json.Marshal(state.WireframeJSON)
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", version).Msg("failed to serialize wireframe")
		return false
	}
	metadataJSON, err := json.Marshal(state.Metadata)
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", version).Msg("failed to serialize state metadata")
		return false
	}

	key := stateKey(sid, version)
	fields := map[string]any{
		"wireframe_json": string(wireframeJSON),
		"metadata":       string(metadataJSON),
		"created_at":     state.CreatedAt.UTC().Format(timeLayout),
		"version":        version,
	}
	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", version).Msg("failed to rewrite design state")
		return false
	}
	s.client.Expire(ctx, key, s.ttl)
	return true
}

// GetDesignState loads one design state. Version 0 means "current": the
// session metadata is read first to resolve it.
func (s *Store) GetDesignState(ctx context.Context, sid string, version int) *types.DesignState {
	if version == 0 {
		meta := s.GetSessionMetadata(ctx, sid)
		if meta == nil {
			return nil
		}
		version = meta.CurrentVersion
	}

	data, err := s.client.HGetAll(ctx, stateKey(sid, version)).Result()
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", version).Msg("failed to get design state")
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	state := &types.DesignState{SessionID: sid}
	if err := json.Unmarshal([]byte(data["wireframe_json"]), &state.WireframeJSON); err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", version).Msg("malformed wireframe in design state")
		return nil
	}
	if err := json.Unmarshal([]byte(data["metadata"]), &state.Metadata); err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", version).Msg("malformed metadata in design state")
		return nil
	}
	state.Version, _ = strconv.Atoi(data["version"])
	if createdAt, err := time.Parse(timeLayout, data["created_at"]); err == nil {
		state.CreatedAt = createdAt
	}

	return state
}

// GetAllVersions scans the session's state keys, extracts the trailing
// version integers and returns them sorted ascending.
func (s *Store) GetAllVersions(ctx context.Context, sid string) []int {
	var versions []int
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, statePattern(sid), 100).Result()
		if err != nil {
			logging.Error().Err(err).Str("session_id", sid).Msg("failed to scan state versions")
			return nil
		}
		for _, key := range keys {
			idx := strings.LastIndex(key, ":v")
			if idx < 0 {
				continue
			}
			v, err := strconv.Atoi(key[idx+2:])
			if err != nil {
				continue
			}
			versions = append(versions, v)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Ints(versions)
	return versions
}

// StoreVersionMetadata writes the fast-access projection for one version.
func (s *Store) StoreVersionMetadata(ctx context.Context, sid string, meta *types.VersionMetadata) bool {
	targets, err := json.Marshal(meta.TargetElements)
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", meta.Version).Msg("failed to serialize target elements")
		return false
	}

	key := versionMetadataKey(sid, meta.Version)
	fields := map[string]any{
		"version":            meta.Version,
		"created_at":         meta.CreatedAt.UTC().Format(timeLayout),
		"changes_summary":    meta.ChangesSummary,
		"edit_type":          string(meta.EditType),
		"target_elements":    string(targets),
		"processing_time_ms": meta.ProcessingTimeMS,
		"content_hash":       meta.ContentHash,
		"compressed":         strconv.FormatBool(meta.Compressed),
	}

	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", meta.Version).Msg("failed to store version metadata")
		return false
	}
	s.client.Expire(ctx, key, s.ttl)
	return true
}

// GetVersionMetadata loads the projection for one version, or nil.
func (s *Store) GetVersionMetadata(ctx context.Context, sid string, version int) *types.VersionMetadata {
	data, err := s.client.HGetAll(ctx, versionMetadataKey(sid, version)).Result()
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", version).Msg("failed to get version metadata")
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	meta := &types.VersionMetadata{
		ChangesSummary: data["changes_summary"],
		EditType:       types.EditType(data["edit_type"]),
		ContentHash:    data["content_hash"],
	}
	meta.Version, _ = strconv.Atoi(data["version"])
	meta.ProcessingTimeMS, _ = strconv.Atoi(data["processing_time_ms"])
	meta.Compressed = strings.EqualFold(data["compressed"], "true")
	if createdAt, err := time.Parse(timeLayout, data["created_at"]); err == nil {
		meta.CreatedAt = createdAt
	}
	if raw := data["target_elements"]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &meta.TargetElements)
	}

	return meta
}

// MarkVersionCompressed flips the compressed flag on a version projection.
func (s *Store) MarkVersionCompressed(ctx context.Context, sid string, version int) bool {
	if err := s.client.HSet(ctx, versionMetadataKey(sid, version), "compressed", "true").Err(); err != nil {
		logging.Error().Err(err).Str("session_id", sid).Int("version", version).Msg("failed to mark version compressed")
		return false
	}
	return true
}

// AddContextEntry prepends a context entry, trims the list to the configured
// limit and refreshes the list TTL.
func (s *Store) AddContextEntry(ctx context.Context, sid string, entry *types.EditContext) bool {
	payload, err := json.Marshal(entry)
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Msg("failed to serialize context entry")
		return false
	}

	key := contextKey(sid)
	if err := s.client.LPush(ctx, key, payload).Err(); err != nil {
		logging.Error().Err(err).Str("session_id", sid).Msg("failed to add context entry")
		return false
	}
	s.client.LTrim(ctx, key, 0, int64(s.contextLimit-1))
	s.client.Expire(ctx, key, s.ttl)
	return true
}

// GetContextHistory returns up to limit entries, newest first.
func (s *Store) GetContextHistory(ctx context.Context, sid string, limit int) []types.EditContext {
	if limit <= 0 {
		limit = s.contextLimit
	}
	raw, err := s.client.LRange(ctx, contextKey(sid), 0, int64(limit-1)).Result()
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Msg("failed to get context history")
		return nil
	}

	contexts := make([]types.EditContext, 0, len(raw))
	for _, item := range raw {
		var entry types.EditContext
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			logging.Warn().Err(err).Str("session_id", sid).Msg("skipping malformed context entry")
			continue
		}
		contexts = append(contexts, entry)
	}
	return contexts
}

// CleanupSession deletes every key belonging to a session.
func (s *Store) CleanupSession(ctx context.Context, sid string) bool {
	keys := []string{sessionMetadataKey(sid), contextKey(sid)}

	for _, pattern := range []string{statePattern(sid), versionMetadataPattern(sid)} {
		var cursor uint64
		for {
			batch, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
			if err != nil {
				logging.Error().Err(err).Str("session_id", sid).Msg("failed to scan session keys for cleanup")
				return false
			}
			keys = append(keys, batch...)
			cursor = next
			if cursor == 0 {
				break
			}
		}
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		logging.Error().Err(err).Str("session_id", sid).Msg("failed to delete session keys")
		return false
	}

	logging.Info().Str("session_id", sid).Msg("cleaned up session")
	return true
}
