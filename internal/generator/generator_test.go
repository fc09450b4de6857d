package generator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompt2figma/designd/pkg/types"
)

func TestTimedRejectsEmptyWireframe(t *testing.T) {
	g := WithTimeout(Func(func(ctx context.Context, prompt string) (types.Wireframe, error) {
		return types.Wireframe{}, nil
	}), time.Second)

	_, err := g.Generate(context.Background(), "anything")
	require.Error(t, err)
}

func TestTimedPropagatesErrors(t *testing.T) {
	wantErr := errors.New("model offline")
	g := WithTimeout(Func(func(ctx context.Context, prompt string) (types.Wireframe, error) {
		return nil, wantErr
	}), time.Second)

	_, err := g.Generate(context.Background(), "anything")
	assert.ErrorIs(t, err, wantErr)
}

func TestTimedCancelsSlowCalls(t *testing.T) {
	g := WithTimeout(Func(func(ctx context.Context, prompt string) (types.Wireframe, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return types.Wireframe{"type": "container"}, nil
		}
	}), 50*time.Millisecond)

	start := time.Now()
	_, err := g.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPlaceholder(t *testing.T) {
	w := Placeholder("Create a login form", time.Now())

	assert.Equal(t, "container", w["type"])
	children, ok := w["children"].([]any)
	require.True(t, ok)
	require.Len(t, children, 1)

	text := children[0].(map[string]any)
	assert.Equal(t, "text", text["type"])
	assert.Equal(t, "Generated from: Create a login form", text["content"])

	meta := w["metadata"].(map[string]any)
	assert.Equal(t, true, meta["fallback"])
}

func TestHTTPGenerator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type":"container","children":[]}`))
	}))
	defer ts.Close()

	g := NewHTTP(ts.URL)
	wireframe, err := g.Generate(context.Background(), "Create a login form")
	require.NoError(t, err)
	assert.Equal(t, "container", wireframe["type"])
}

func TestHTTPGeneratorNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	g := NewHTTP(ts.URL)
	_, err := g.Generate(context.Background(), "x")
	require.Error(t, err)
}

func TestHTTPGeneratorInvalidOutput(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not json"))
	}))
	defer ts.Close()

	g := NewHTTP(ts.URL)
	_, err := g.Generate(context.Background(), "x")
	require.Error(t, err)
}
