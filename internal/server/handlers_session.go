package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prompt2figma/designd/internal/event"
	"github.com/prompt2figma/designd/internal/generator"
	"github.com/prompt2figma/designd/internal/logging"
	"github.com/prompt2figma/designd/pkg/types"
)

// createSession handles POST /api/v1/design-sessions.
//
// The session is created first, then the generator produces the initial
// wireframe. A generator failure substitutes a placeholder wireframe and the
// request still succeeds: a session must never be left without a v1.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req types.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	ctx := r.Context()
	sess, err := s.sessions.CreateSession(ctx, req.UserID, req.Prompt)
	if err != nil {
		writeTypedError(w, err)
		return
	}

	wireframe, genErr := s.gen.Generate(ctx, req.Prompt)
	if genErr != nil {
		// Distinguished event so the silent substitution is observable.
		logging.Warn().
			Err(genErr).
			Str("session_id", sess.SessionID).
			Msg("wireframe generation failed, substituting placeholder")
		event.Publish(event.Event{
			Type: event.GeneratorFallback,
			Data: event.FallbackData{SessionID: sess.SessionID, Prompt: req.Prompt, Reason: genErr.Error()},
		})
		wireframe = generator.Placeholder(req.Prompt, time.Now())
	}

	initial := &types.DesignState{
		SessionID:     sess.SessionID,
		Version:       1,
		WireframeJSON: wireframe,
		Metadata: types.StateMetadata{
			EditType: types.EditModify,
			Extra: map[string]any{
				"initial": true,
				"prompt":  req.Prompt,
				"user_id": sess.UserID,
			},
		},
	}
	if err := s.sessions.UpdateSessionState(ctx, sess.SessionID, initial); err != nil {
		writeTypedError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, types.CreateSessionResponse{
		SessionID:     sess.SessionID,
		WireframeJSON: wireframe,
		Version:       1,
	})
}

// editSession handles POST /api/v1/design-sessions/{sessionID}/edit.
//
// The hot path: context engine -> generator -> version manager -> context
// append. A generator failure here surfaces as 500.
func (s *Server) editSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sessionID")

	var req types.EditSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.EditPrompt == "" {
		writeError(w, http.StatusBadRequest, "edit_prompt is required")
		return
	}

	ctx := r.Context()
	start := time.Now()

	sess := s.sessions.GetSession(ctx, sid)
	if sess == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Session %s not found or expired", sid))
		return
	}

	st := s.sessions.Store()
	currentState := st.GetDesignState(ctx, sid, 0)
	if currentState == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Design state not found for session %s", sid))
		return
	}

	history := st.GetContextHistory(ctx, sid, st.ContextLimit())
	processed := s.engine.Process(currentState, req.EditPrompt, history)

	updated, genErr := s.gen.Generate(ctx, processed.EnhancedPrompt)
	if genErr != nil {
		logging.Error().Err(genErr).Str("session_id", sid).Msg("wireframe generation failed for edit")
		writeError(w, http.StatusInternalServerError, "Wireframe generation failed")
		return
	}

	changes := types.ChangeSet{
		Prompt:         req.EditPrompt,
		EditType:       processed.EditType,
		TargetElements: processed.TargetElements,
		Summary:        fmt.Sprintf("Applied edit: %s", req.EditPrompt),
	}
	extra := map[string]any{
		"edit_prompt":         req.EditPrompt,
		"previous_version":    sess.CurrentVersion,
		"edit_intent":         string(processed.Intent),
		"confidence_score":    processed.Confidence,
		"needs_clarification": processed.NeedsClarification,
	}

	result, err := s.sessions.ApplyEdit(ctx, sid, updated, changes, extra)
	if err != nil {
		writeTypedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, types.EditSessionResponse{
		SessionID:        sid,
		WireframeJSON:    result.UpdatedWireframe,
		Version:          result.NewVersion,
		ChangesSummary:   result.ChangesSummary,
		ProcessingTimeMS: int(time.Since(start).Milliseconds()),
	})
}

// getSessionDetails handles GET /api/v1/design-sessions/{sessionID}.
func (s *Server) getSessionDetails(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sessionID")
	ctx := r.Context()

	sess := s.sessions.GetSession(ctx, sid)
	if sess == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Session %s not found or expired", sid))
		return
	}

	st := s.sessions.Store()
	currentState := st.GetDesignState(ctx, sid, 0)
	if currentState == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Design state not found for session %s", sid))
		return
	}

	contexts := st.GetContextHistory(ctx, sid, 5)
	recentEdits := make([]types.RecentEdit, 0, len(contexts))
	for _, entry := range contexts {
		recentEdits = append(recentEdits, types.RecentEdit{
			Prompt:           entry.Prompt,
			EditType:         string(entry.EditType),
			Timestamp:        entry.Timestamp.UTC().Format(time.RFC3339Nano),
			ProcessingTimeMS: entry.ProcessingTimeMS,
		})
	}

	writeJSON(w, http.StatusOK, types.SessionDetailsResponse{
		SessionID:        sid,
		UserID:           sess.UserID,
		InitialPrompt:    sess.InitialPrompt,
		CurrentVersion:   sess.CurrentVersion,
		TotalEdits:       sess.TotalEdits,
		Status:           string(sess.Status),
		CreatedAt:        sess.CreatedAt.UTC().Format(time.RFC3339Nano),
		LastActivity:     sess.LastActivity.UTC().Format(time.RFC3339Nano),
		CurrentWireframe: currentState.WireframeJSON,
		RecentEdits:      recentEdits,
	})
}

// getSessionHistory handles GET /api/v1/design-sessions/{sessionID}/history.
func (s *Server) getSessionHistory(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sessionID")

	history, err := s.sessions.GetSessionHistory(r.Context(), sid)
	if err != nil {
		writeTypedError(w, err)
		return
	}

	details := make([]types.VersionDetail, 0, len(history))
	for _, state := range history {
		details = append(details, types.VersionDetail{
			Version:       state.Version,
			CreatedAt:     state.CreatedAt.UTC().Format(time.RFC3339Nano),
			Metadata:      state.Metadata,
			ElementCount:  elementCount(state.WireframeJSON),
			WireframeJSON: state.WireframeJSON,
		})
	}

	writeJSON(w, http.StatusOK, types.SessionHistoryResponse{
		SessionID:     sid,
		Versions:      details,
		TotalVersions: len(details),
	})
}

// getVersionDiff handles GET /api/v1/design-sessions/{sessionID}/diff.
func (s *Server) getVersionDiff(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sessionID")

	from, errFrom := strconv.Atoi(r.URL.Query().Get("from"))
	to, errTo := strconv.Atoi(r.URL.Query().Get("to"))
	if errFrom != nil || errTo != nil || from < 1 || to < 1 {
		writeError(w, http.StatusBadRequest, "from and to must be positive version numbers")
		return
	}

	diff, err := s.sessions.GetVersionDiff(r.Context(), sid, from, to)
	if err != nil {
		writeTypedError(w, err)
		return
	}
	if diff == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Versions %d or %d not found", from, to))
		return
	}

	writeJSON(w, http.StatusOK, diff)
}

// completeSession handles POST /api/v1/design-sessions/{sessionID}/complete.
func (s *Server) completeSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sessionID")

	if err := s.sessions.CompleteSession(r.Context(), sid); err != nil {
		writeTypedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sid, "status": string(types.SessionCompleted)})
}

// getSessionIntegrity handles GET /api/v1/design-sessions/{sessionID}/integrity.
func (s *Server) getSessionIntegrity(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sessionID")

	report, err := s.sessions.VerifySessionIntegrity(r.Context(), sid)
	if err != nil {
		writeTypedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// getSessionMetrics handles GET /api/v1/design-sessions/{sessionID}/metrics.
func (s *Server) getSessionMetrics(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sessionID")
	ctx := r.Context()

	if s.sessions.GetSession(ctx, sid) == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Session %s not found or expired", sid))
		return
	}

	metrics := s.sessions.GetSessionMetrics(ctx, sid)
	if metrics == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No metrics available for session %s", sid))
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// getUserSessions handles GET /api/v1/users/{userID}/sessions.
func (s *Server) getUserSessions(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "userID")

	ids := s.sessions.GetUserSessions(r.Context(), uid)
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, types.UserSessionsResponse{UserID: uid, SessionIDs: ids})
}

// health handles GET /api/v1/health.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Store().Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": "unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "redis": "connected"})
}

// elementCount is the length of the wireframe's top-level children array.
func elementCount(wireframe types.Wireframe) int {
	if children, ok := wireframe["children"].([]any); ok {
		return len(children)
	}
	return 0
}
