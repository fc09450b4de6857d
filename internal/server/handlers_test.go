package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/prompt2figma/designd/internal/engine"
	"github.com/prompt2figma/designd/internal/generator"
	"github.com/prompt2figma/designd/internal/session"
	"github.com/prompt2figma/designd/internal/store"
	"github.com/prompt2figma/designd/internal/version"
	"github.com/prompt2figma/designd/pkg/types"
)

// stubGenerator returns a fixed wireframe, or fails when broken.
type stubGenerator struct {
	wireframe types.Wireframe
	broken    bool
	calls     int
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (types.Wireframe, error) {
	g.calls++
	if g.broken {
		return nil, errors.New("generator unavailable")
	}
	return g.wireframe, nil
}

func setupTestServer(t *testing.T, gen generator.Generator) *Server {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	st := store.New(client)
	sessions := session.NewManager(st, version.NewManager(st))
	srv := New(DefaultConfig(), sessions, engine.New(), gen)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func TestCreateSession(t *testing.T) {
	gen := &stubGenerator{wireframe: types.Wireframe{
		"type": "container",
		"children": []any{
			map[string]any{"type": "text", "content": "title"},
		},
	}}
	srv := setupTestServer(t, gen)

	w := doJSON(t, srv, "POST", "/api/v1/design-sessions", types.CreateSessionRequest{
		Prompt: "Create a login form",
		UserID: "user-1",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := decodeBody[types.CreateSessionResponse](t, w)
	if resp.SessionID == "" {
		t.Error("Session ID should not be empty")
	}
	if resp.Version != 1 {
		t.Errorf("Expected version 1, got %d", resp.Version)
	}
	if resp.WireframeJSON["type"] != "container" {
		t.Errorf("Unexpected wireframe: %v", resp.WireframeJSON)
	}
}

func TestCreateSession_GeneratorFailureUsesPlaceholder(t *testing.T) {
	srv := setupTestServer(t, &stubGenerator{broken: true})

	w := doJSON(t, srv, "POST", "/api/v1/design-sessions", types.CreateSessionRequest{
		Prompt: "Create a dashboard",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 despite generator failure, got %d: %s", w.Code, w.Body.String())
	}

	resp := decodeBody[types.CreateSessionResponse](t, w)
	if resp.Version != 1 {
		t.Errorf("Expected version 1, got %d", resp.Version)
	}
	children, ok := resp.WireframeJSON["children"].([]any)
	if !ok || len(children) != 1 {
		t.Fatalf("Placeholder should have one child, got %v", resp.WireframeJSON)
	}
	text := children[0].(map[string]any)
	if text["content"] != "Generated from: Create a dashboard" {
		t.Errorf("Unexpected placeholder content: %v", text["content"])
	}
}

func TestCreateSession_InvalidJSON(t *testing.T) {
	srv := setupTestServer(t, &stubGenerator{})

	req := httptest.NewRequest("POST", "/api/v1/design-sessions", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

// Create plus one edit: version 2, history of 2, one context entry typed
// "add".
func TestCreateAndEdit(t *testing.T) {
	gen := &stubGenerator{wireframe: types.Wireframe{
		"type": "container",
		"children": []any{
			map[string]any{"type": "text", "content": "title"},
		},
	}}
	srv := setupTestServer(t, gen)

	created := decodeBody[types.CreateSessionResponse](t,
		doJSON(t, srv, "POST", "/api/v1/design-sessions", types.CreateSessionRequest{Prompt: "Create a login form"}))

	gen.wireframe = types.Wireframe{
		"type": "container",
		"children": []any{
			map[string]any{"type": "text", "content": "title"},
			map[string]any{"type": "button", "id": "submit-1", "text": "Submit"},
		},
	}

	w := doJSON(t, srv, "POST", fmt.Sprintf("/api/v1/design-sessions/%s/edit", created.SessionID),
		types.EditSessionRequest{EditPrompt: "add a submit button"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	edited := decodeBody[types.EditSessionResponse](t, w)
	if edited.Version != 2 {
		t.Errorf("Expected version 2, got %d", edited.Version)
	}
	if edited.ChangesSummary != "Applied edit: add a submit button" {
		t.Errorf("Unexpected summary: %q", edited.ChangesSummary)
	}

	// History has both versions.
	hw := doJSON(t, srv, "GET", fmt.Sprintf("/api/v1/design-sessions/%s/history", created.SessionID), nil)
	if hw.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", hw.Code, hw.Body.String())
	}
	history := decodeBody[types.SessionHistoryResponse](t, hw)
	if history.TotalVersions != 2 {
		t.Errorf("Expected 2 versions, got %d", history.TotalVersions)
	}
	if history.Versions[1].ElementCount != 2 {
		t.Errorf("Expected element_count 2, got %d", history.Versions[1].ElementCount)
	}

	// Details carry one context entry classified as an add.
	dw := doJSON(t, srv, "GET", "/api/v1/design-sessions/"+created.SessionID, nil)
	if dw.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", dw.Code, dw.Body.String())
	}
	details := decodeBody[types.SessionDetailsResponse](t, dw)
	if len(details.RecentEdits) != 1 {
		t.Fatalf("Expected 1 recent edit, got %d", len(details.RecentEdits))
	}
	if details.RecentEdits[0].EditType != "add" {
		t.Errorf("Expected edit_type add, got %q", details.RecentEdits[0].EditType)
	}
	if details.TotalEdits != 1 {
		t.Errorf("Expected total_edits 1, got %d", details.TotalEdits)
	}
}

func TestEditSession_NotFound(t *testing.T) {
	srv := setupTestServer(t, &stubGenerator{})

	w := doJSON(t, srv, "POST", "/api/v1/design-sessions/missing/edit",
		types.EditSessionRequest{EditPrompt: "add a button"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	resp := decodeBody[ErrorResponse](t, w)
	if resp.Detail == "" {
		t.Error("Error response should carry a detail message")
	}
}

func TestEditSession_GeneratorFailureIs500(t *testing.T) {
	gen := &stubGenerator{wireframe: types.Wireframe{"type": "container"}}
	srv := setupTestServer(t, gen)

	created := decodeBody[types.CreateSessionResponse](t,
		doJSON(t, srv, "POST", "/api/v1/design-sessions", types.CreateSessionRequest{Prompt: "x"}))

	gen.broken = true
	w := doJSON(t, srv, "POST", fmt.Sprintf("/api/v1/design-sessions/%s/edit", created.SessionID),
		types.EditSessionRequest{EditPrompt: "add a button"})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}

func TestGetSessionDetails_NotFound(t *testing.T) {
	srv := setupTestServer(t, &stubGenerator{})

	w := doJSON(t, srv, "GET", "/api/v1/design-sessions/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestCompleteSessionEndpoint(t *testing.T) {
	gen := &stubGenerator{wireframe: types.Wireframe{"type": "container"}}
	srv := setupTestServer(t, gen)

	created := decodeBody[types.CreateSessionResponse](t,
		doJSON(t, srv, "POST", "/api/v1/design-sessions", types.CreateSessionRequest{Prompt: "x"}))

	w := doJSON(t, srv, "POST", fmt.Sprintf("/api/v1/design-sessions/%s/complete", created.SessionID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Editing a completed session is rejected.
	ew := doJSON(t, srv, "POST", fmt.Sprintf("/api/v1/design-sessions/%s/edit", created.SessionID),
		types.EditSessionRequest{EditPrompt: "add a button"})
	if ew.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", ew.Code)
	}
}

func TestIntegrityEndpoint(t *testing.T) {
	gen := &stubGenerator{wireframe: types.Wireframe{"type": "container"}}
	srv := setupTestServer(t, gen)

	created := decodeBody[types.CreateSessionResponse](t,
		doJSON(t, srv, "POST", "/api/v1/design-sessions", types.CreateSessionRequest{Prompt: "x"}))

	w := doJSON(t, srv, "GET", fmt.Sprintf("/api/v1/design-sessions/%s/integrity", created.SessionID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	report := decodeBody[types.IntegrityReport](t, w)
	if report.TotalVersions != 1 || report.ValidVersions != 1 {
		t.Errorf("Unexpected report: %+v", report)
	}
}

func TestDiffEndpoint(t *testing.T) {
	gen := &stubGenerator{wireframe: types.Wireframe{
		"type":     "container",
		"elements": []any{},
	}}
	srv := setupTestServer(t, gen)

	created := decodeBody[types.CreateSessionResponse](t,
		doJSON(t, srv, "POST", "/api/v1/design-sessions", types.CreateSessionRequest{Prompt: "x"}))

	gen.wireframe = types.Wireframe{
		"type":     "container",
		"elements": []any{map[string]any{"id": "b1", "type": "button"}},
	}
	doJSON(t, srv, "POST", fmt.Sprintf("/api/v1/design-sessions/%s/edit", created.SessionID),
		types.EditSessionRequest{EditPrompt: "add a button"})

	w := doJSON(t, srv, "GET", fmt.Sprintf("/api/v1/design-sessions/%s/diff?from=1&to=2", created.SessionID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	diff := decodeBody[types.VersionDiff](t, w)
	if len(diff.AddedElements) != 1 {
		t.Errorf("Expected 1 added element, got %d", len(diff.AddedElements))
	}

	bad := doJSON(t, srv, "GET", fmt.Sprintf("/api/v1/design-sessions/%s/diff?from=0&to=x", created.SessionID), nil)
	if bad.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", bad.Code)
	}
}

func TestUserSessionsEndpoint(t *testing.T) {
	gen := &stubGenerator{wireframe: types.Wireframe{"type": "container"}}
	srv := setupTestServer(t, gen)

	created := decodeBody[types.CreateSessionResponse](t,
		doJSON(t, srv, "POST", "/api/v1/design-sessions", types.CreateSessionRequest{Prompt: "x", UserID: "user-9"}))

	w := doJSON(t, srv, "GET", "/api/v1/users/user-9/sessions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decodeBody[types.UserSessionsResponse](t, w)
	if len(resp.SessionIDs) != 1 || resp.SessionIDs[0] != created.SessionID {
		t.Errorf("Unexpected sessions: %v", resp.SessionIDs)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := setupTestServer(t, &stubGenerator{})

	w := doJSON(t, srv, "GET", "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}
