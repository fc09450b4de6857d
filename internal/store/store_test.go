package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompt2figma/designd/pkg/types"
)

func setupStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, opts...), mr
}

func newTestSession(sid, uid string) *types.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &types.Session{
		SessionID:      sid,
		UserID:         uid,
		InitialPrompt:  "Create a login form",
		CurrentVersion: 1,
		CreatedAt:      now,
		LastActivity:   now,
		Status:         types.SessionActive,
	}
}

func TestCreateAndGetSession(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	sess := newTestSession("sess-1", "user-1")
	require.True(t, st.CreateSession(ctx, sess))

	got := st.GetSessionMetadata(ctx, "sess-1")
	require.NotNil(t, got)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "Create a login form", got.InitialPrompt)
	assert.Equal(t, 1, got.CurrentVersion)
	assert.Equal(t, types.SessionActive, got.Status)
	assert.Equal(t, 0, got.TotalEdits)
	assert.True(t, sess.CreatedAt.Equal(got.CreatedAt))

	ids := st.GetUserSessions(ctx, "user-1")
	assert.Equal(t, []string{"sess-1"}, ids)
}

func TestGetSessionMetadata_Missing(t *testing.T) {
	st, _ := setupStore(t)

	assert.Nil(t, st.GetSessionMetadata(context.Background(), "no-such-session"))
}

func TestSessionKeysCarryTTL(t *testing.T) {
	st, mr := setupStore(t, WithTTL(time.Hour))
	ctx := context.Background()

	require.True(t, st.CreateSession(ctx, newTestSession("sess-1", "user-1")))

	assert.Greater(t, mr.TTL("session:sess-1:metadata"), time.Duration(0))
	assert.Greater(t, mr.TTL("user:user-1:sessions"), time.Duration(0))
}

func TestUpdateSessionActivity(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	sess := newTestSession("sess-1", "user-1")
	sess.LastActivity = time.Now().UTC().Add(-time.Hour)
	require.True(t, st.CreateSession(ctx, sess))

	require.True(t, st.UpdateSessionActivity(ctx, "sess-1"))

	got := st.GetSessionMetadata(ctx, "sess-1")
	require.NotNil(t, got)
	assert.True(t, got.LastActivity.After(sess.LastActivity))
}

func TestSetSessionStatus(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	require.True(t, st.CreateSession(ctx, newTestSession("sess-1", "user-1")))
	require.True(t, st.SetSessionStatus(ctx, "sess-1", types.SessionExpired))

	got := st.GetSessionMetadata(ctx, "sess-1")
	require.NotNil(t, got)
	assert.Equal(t, types.SessionExpired, got.Status)
}

func TestIncrementEditCount(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	require.True(t, st.CreateSession(ctx, newTestSession("sess-1", "user-1")))

	for i := 0; i < 3; i++ {
		require.True(t, st.IncrementEditCount(ctx, "sess-1"))
	}

	got := st.GetSessionMetadata(ctx, "sess-1")
	require.NotNil(t, got)
	assert.Equal(t, 3, got.TotalEdits)
}

func TestStoreAndGetDesignState(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	require.True(t, st.CreateSession(ctx, newTestSession("sess-1", "user-1")))

	state := &types.DesignState{
		Version: 2,
		WireframeJSON: types.Wireframe{
			"type": "container",
			"children": []any{
				map[string]any{"type": "button", "id": "button-1"},
			},
		},
		Metadata: types.StateMetadata{
			ContentHash:    "abc123",
			EditType:       types.EditAdd,
			TargetElements: []string{"button-1"},
		},
		CreatedAt: time.Now().UTC(),
	}
	require.True(t, st.StoreDesignState(ctx, "sess-1", 2, state))

	// Storing overwrites current_version.
	meta := st.GetSessionMetadata(ctx, "sess-1")
	require.NotNil(t, meta)
	assert.Equal(t, 2, meta.CurrentVersion)

	got := st.GetDesignState(ctx, "sess-1", 2)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "container", got.WireframeJSON["type"])
	assert.Equal(t, "abc123", got.Metadata.ContentHash)
	assert.Equal(t, types.EditAdd, got.Metadata.EditType)

	// Version 0 resolves to the current version.
	current := st.GetDesignState(ctx, "sess-1", 0)
	require.NotNil(t, current)
	assert.Equal(t, 2, current.Version)
}

func TestRewriteDesignStateKeepsCurrentVersion(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	require.True(t, st.CreateSession(ctx, newTestSession("sess-1", "user-1")))
	for v := 1; v <= 3; v++ {
		state := &types.DesignState{
			Version:       v,
			WireframeJSON: types.Wireframe{"type": "container"},
			CreatedAt:     time.Now().UTC(),
		}
		require.True(t, st.StoreDesignState(ctx, "sess-1", v, state))
	}

	rewritten := &types.DesignState{
		Version:       1,
		WireframeJSON: types.Wireframe{"compressed": true},
		CreatedAt:     time.Now().UTC(),
	}
	require.True(t, st.RewriteDesignState(ctx, "sess-1", 1, rewritten))

	meta := st.GetSessionMetadata(ctx, "sess-1")
	require.NotNil(t, meta)
	assert.Equal(t, 3, meta.CurrentVersion)
}

func TestGetAllVersions(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	require.True(t, st.CreateSession(ctx, newTestSession("sess-1", "user-1")))

	for _, v := range []int{3, 1, 2, 10} {
		state := &types.DesignState{
			Version:       v,
			WireframeJSON: types.Wireframe{"type": "container"},
			CreatedAt:     time.Now().UTC(),
		}
		require.True(t, st.StoreDesignState(ctx, "sess-1", v, state))
	}

	assert.Equal(t, []int{1, 2, 3, 10}, st.GetAllVersions(ctx, "sess-1"))
}

func TestContextHistoryTrimsToLimit(t *testing.T) {
	st, _ := setupStore(t, WithContextLimit(3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := &types.EditContext{
			Prompt:         "edit",
			EditType:       types.EditModify,
			TargetElements: []string{},
			Timestamp:      time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.True(t, st.AddContextEntry(ctx, "sess-1", entry))
	}

	history := st.GetContextHistory(ctx, "sess-1", 10)
	assert.Len(t, history, 3)
}

func TestContextHistoryNewestFirst(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, prompt := range []string{"first", "second", "third"} {
		entry := &types.EditContext{
			Prompt:         prompt,
			EditType:       types.EditModify,
			TargetElements: []string{"elem-1"},
			Timestamp:      base.Add(time.Duration(i) * time.Second),
		}
		require.True(t, st.AddContextEntry(ctx, "sess-1", entry))
	}

	history := st.GetContextHistory(ctx, "sess-1", 2)
	require.Len(t, history, 2)
	assert.Equal(t, "third", history[0].Prompt)
	assert.Equal(t, "second", history[1].Prompt)
}

func TestVersionMetadataRoundtrip(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Millisecond)
	meta := &types.VersionMetadata{
		Version:          4,
		CreatedAt:        created,
		ChangesSummary:   "Applied edit: add a button",
		EditType:         types.EditAdd,
		TargetElements:   []string{"button-1"},
		ProcessingTimeMS: 42,
		ContentHash:      "deadbeef",
	}
	require.True(t, st.StoreVersionMetadata(ctx, "sess-1", meta))

	got := st.GetVersionMetadata(ctx, "sess-1", 4)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.Version)
	assert.Equal(t, "Applied edit: add a button", got.ChangesSummary)
	assert.Equal(t, types.EditAdd, got.EditType)
	assert.Equal(t, []string{"button-1"}, got.TargetElements)
	assert.Equal(t, 42, got.ProcessingTimeMS)
	assert.Equal(t, "deadbeef", got.ContentHash)
	assert.False(t, got.Compressed)

	require.True(t, st.MarkVersionCompressed(ctx, "sess-1", 4))
	got = st.GetVersionMetadata(ctx, "sess-1", 4)
	require.NotNil(t, got)
	assert.True(t, got.Compressed)
}

func TestCleanupSession(t *testing.T) {
	st, mr := setupStore(t)
	ctx := context.Background()

	require.True(t, st.CreateSession(ctx, newTestSession("sess-1", "user-1")))
	state := &types.DesignState{
		Version:       1,
		WireframeJSON: types.Wireframe{"type": "container"},
		CreatedAt:     time.Now().UTC(),
	}
	require.True(t, st.StoreDesignState(ctx, "sess-1", 1, state))
	require.True(t, st.AddContextEntry(ctx, "sess-1", &types.EditContext{Prompt: "x", EditType: types.EditModify}))

	require.True(t, st.CleanupSession(ctx, "sess-1"))

	assert.Nil(t, st.GetSessionMetadata(ctx, "sess-1"))
	assert.Nil(t, st.GetDesignState(ctx, "sess-1", 1))
	assert.False(t, mr.Exists("session:sess-1:context"))
}
