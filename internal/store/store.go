// Package store provides typed accessors over the Redis keyspace for
// sessions, versioned design states, context lists and version metadata.
// It holds no business logic.
//
// Key patterns:
//
//	session:{sid}:metadata             session info and current version
//	session:{sid}:state:v{n}           versioned design states
//	session:{sid}:version_metadata:v{n} fast-access version projections
//	session:{sid}:context              context history, newest at head
//	user:{uid}:sessions                a user's session ids
//
// Every operation catches and logs storage errors, returning a falsy result
// or nil. Callers interpret absence uniformly as "not found or unavailable".
package store

import (
	"context"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/prompt2figma/designd/internal/logging"
	"github.com/prompt2figma/designd/pkg/types"
)

const (
	// DefaultTTL is the idle expiration window applied to every session key.
	DefaultTTL = 24 * time.Hour

	// DefaultContextLimit caps the per-session context list.
	DefaultContextLimit = 10

	timeLayout = time.RFC3339Nano
)

// Store is the Redis-backed state store. Safe for concurrent use.
type Store struct {
	client       redis.UniversalClient
	ttl          time.Duration
	contextLimit int
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the session TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithContextLimit overrides the context-list cap.
func WithContextLimit(limit int) Option {
	return func(s *Store) {
		if limit > 0 {
			s.contextLimit = limit
		}
	}
}

// New creates a Store around an existing Redis client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client:       client,
		ttl:          DefaultTTL,
		contextLimit: DefaultContextLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect dials the Redis URL and verifies connectivity, retrying the ping
// with exponential backoff for up to 30 seconds.
func Connect(ctx context.Context, url string, opts ...Option) (*Store, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(redisOpts)

	ping := func() error {
		return client.Ping(ctx).Err()
	}
	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(30*time.Second),
	), ctx)
	if err := backoff.Retry(ping, policy); err != nil {
		client.Close()
		return nil, err
	}

	logging.Info().Str("url", redisOpts.Addr).Msg("connected to redis state store")
	return New(client, opts...), nil
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// TTL returns the configured session TTL.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// ContextLimit returns the configured context-list cap.
func (s *Store) ContextLimit() int {
	return s.contextLimit
}

// Ping verifies the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying Redis client for tests.
func (s *Store) Client() redis.UniversalClient {
	return s.client
}

// CreateSession writes the session metadata hash and registers the session
// in the user's set, with TTL on both. Fails closed: a false return means a
// storage fault, not "already exists".
func (s *Store) CreateSession(ctx context.Context, session *types.Session) bool {
	sessionKey := sessionMetadataKey(session.SessionID)
	userKey := userSessionsKey(session.UserID)

	fields := map[string]any{
		"session_id":      session.SessionID,
		"user_id":         session.UserID,
		"initial_prompt":  session.InitialPrompt,
		"current_version": session.CurrentVersion,
		"created_at":      session.CreatedAt.UTC().Format(timeLayout),
		"last_activity":   session.LastActivity.UTC().Format(timeLayout),
		"status":          string(session.Status),
		"total_edits":     session.TotalEdits,
	}

	if err := s.client.HSet(ctx, sessionKey, fields).Err(); err != nil {
		logging.Error().Err(err).Str("session_id", session.SessionID).Msg("failed to create session")
		return false
	}
	s.client.Expire(ctx, sessionKey, s.ttl)

	if err := s.client.SAdd(ctx, userKey, session.SessionID).Err(); err != nil {
		logging.Error().Err(err).Str("user_id", session.UserID).Msg("failed to register session for user")
		return false
	}
	s.client.Expire(ctx, userKey, s.ttl)

	logging.Info().Str("session_id", session.SessionID).Str("user_id", session.UserID).Msg("created session")
	return true
}

// GetSessionMetadata returns the session record, or nil when missing or on a
// storage fault. No side effects.
func (s *Store) GetSessionMetadata(ctx context.Context, sid string) *types.Session {
	data, err := s.client.HGetAll(ctx, sessionMetadataKey(sid)).Result()
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Msg("failed to get session metadata")
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	session := &types.Session{
		SessionID:     data["session_id"],
		UserID:        data["user_id"],
		InitialPrompt: data["initial_prompt"],
		Status:        types.SessionStatus(data["status"]),
	}
	session.CurrentVersion, _ = strconv.Atoi(data["current_version"])
	session.TotalEdits, _ = strconv.Atoi(data["total_edits"])

	createdAt, err := time.Parse(timeLayout, data["created_at"])
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Msg("malformed created_at in session metadata")
		return nil
	}
	lastActivity, err := time.Parse(timeLayout, data["last_activity"])
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Msg("malformed last_activity in session metadata")
		return nil
	}
	session.CreatedAt = createdAt
	session.LastActivity = lastActivity

	return session
}

// UpdateSessionActivity overwrites last_activity with the current time.
// TTL refresh is a separate concern handled on write paths.
func (s *Store) UpdateSessionActivity(ctx context.Context, sid string) bool {
	err := s.client.HSet(ctx, sessionMetadataKey(sid), "last_activity", time.Now().UTC().Format(timeLayout)).Err()
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Msg("failed to update session activity")
		return false
	}
	return true
}

// SetSessionStatus overwrites the session status field.
func (s *Store) SetSessionStatus(ctx context.Context, sid string, status types.SessionStatus) bool {
	err := s.client.HSet(ctx, sessionMetadataKey(sid), "status", string(status)).Err()
	if err != nil {
		logging.Error().Err(err).Str("session_id", sid).Str("status", string(status)).Msg("failed to set session status")
		return false
	}
	return true
}

// IncrementEditCount atomically increments total_edits.
func (s *Store) IncrementEditCount(ctx context.Context, sid string) bool {
	if err := s.client.HIncrBy(ctx, sessionMetadataKey(sid), "total_edits", 1).Err(); err != nil {
		logging.Error().Err(err).Str("session_id", sid).Msg("failed to increment edit count")
		return false
	}
	return true
}

// RefreshSessionTTL re-arms the TTL on the session metadata key.
func (s *Store) RefreshSessionTTL(ctx context.Context, sid string) bool {
	if err := s.client.Expire(ctx, sessionMetadataKey(sid), s.ttl).Err(); err != nil {
		logging.Error().Err(err).Str("session_id", sid).Msg("failed to refresh session ttl")
		return false
	}
	return true
}

// GetUserSessions returns all session ids registered for a user.
func (s *Store) GetUserSessions(ctx context.Context, uid string) []string {
	ids, err := s.client.SMembers(ctx, userSessionsKey(uid)).Result()
	if err != nil {
		logging.Error().Err(err).Str("user_id", uid).Msg("failed to get user sessions")
		return nil
	}
	return ids
}
