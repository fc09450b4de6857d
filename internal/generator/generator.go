// Package generator defines the contract for the external natural-language
// wireframe generator. The generator is an opaque collaborator: the core
// calls it synchronously with a per-call timeout and treats its output as an
// arbitrary JSON mapping.
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/prompt2figma/designd/pkg/types"
)

// DefaultTimeout bounds each generator call when WithTimeout is given no
// positive timeout.
const DefaultTimeout = 180 * time.Second

// Generator produces a wireframe document from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (types.Wireframe, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, prompt string) (types.Wireframe, error)

// Generate implements Generator.
func (f Func) Generate(ctx context.Context, prompt string) (types.Wireframe, error) {
	return f(ctx, prompt)
}

// Timed wraps a Generator with a per-call deadline and output validation:
// a nil or empty result is a generator fault, not a valid wireframe.
type Timed struct {
	inner   Generator
	timeout time.Duration
}

// WithTimeout wraps g with a per-call deadline.
func WithTimeout(g Generator, timeout time.Duration) *Timed {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Timed{inner: g, timeout: timeout}
}

// Generate calls the wrapped generator under a deadline.
func (t *Timed) Generate(ctx context.Context, prompt string) (types.Wireframe, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	wireframe, err := t.inner.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if len(wireframe) == 0 {
		return nil, fmt.Errorf("generator returned an empty wireframe")
	}
	return wireframe, nil
}

// Placeholder builds the substitute wireframe stored as version 1 when
// generation fails during session creation: a container with a single text
// element naming the original prompt.
func Placeholder(prompt string, now time.Time) types.Wireframe {
	return types.Wireframe{
		"type": "container",
		"id":   "root",
		"children": []any{
			map[string]any{
				"type":    "text",
				"id":      "placeholder",
				"content": fmt.Sprintf("Generated from: %s", prompt),
				"styles":  map[string]any{"fontSize": "16px", "color": "#333"},
			},
		},
		"metadata": map[string]any{
			"prompt":       prompt,
			"generated_at": now.UTC().Format(time.RFC3339Nano),
			"fallback":     true,
		},
	}
}
