// Package engine is the context processing engine: it classifies edit
// intents, resolves ambiguous references against the current design and
// recent edits, and rewrites edit prompts with design context for the
// external generator.
package engine

import (
	"time"

	"github.com/prompt2figma/designd/internal/logging"
	"github.com/prompt2figma/designd/pkg/types"
)

// DefaultConfidenceThreshold is the minimum confidence to skip clarification.
const DefaultConfidenceThreshold = 0.7

// ProcessedEdit is the result of processing an edit prompt with context.
type ProcessedEdit struct {
	OriginalPrompt       string         `json:"original_prompt"`
	EnhancedPrompt       string         `json:"enhanced_prompt"`
	Intent               Intent         `json:"edit_intent"`
	EditType             types.EditType `json:"edit_type"`
	TargetElements       []string       `json:"target_elements"`
	Confidence           float64        `json:"confidence_score"`
	NeedsClarification   bool           `json:"needs_clarification"`
	ClarificationOptions []string       `json:"clarification_options,omitempty"`
	Metadata             map[string]any `json:"processing_metadata,omitempty"`
}

// Engine processes edit prompts. It is CPU-only, holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	confidenceThreshold float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfidenceThreshold overrides the clarification threshold.
func WithConfidenceThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold > 0 {
			e.confidenceThreshold = threshold
		}
	}
}

// New creates a context processing engine.
func New(opts ...Option) *Engine {
	e := &Engine{confidenceThreshold: DefaultConfidenceThreshold}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process transforms (current state, edit prompt, recent contexts) into a
// ProcessedEdit. It never propagates a failure: any internal panic yields a
// fallback result asking for clarification.
func (e *Engine) Process(currentState *types.DesignState, editPrompt string, history []types.EditContext) (result *ProcessedEdit) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Any("panic", r).Str("prompt", editPrompt).Msg("context engine failure, returning fallback")
			result = e.fallback(editPrompt)
		}
	}()

	start := time.Now()

	var wireframe types.Wireframe
	if currentState != nil {
		wireframe = currentState.WireframeJSON
	}

	intent := ClassifyIntent(editPrompt)
	editType := EditTypeFor(intent)

	resolved, confidence := resolveReferences(editPrompt, wireframe, history)
	enhanced := BuildContextualPrompt(editPrompt, wireframe, history)

	needsClarification := confidence < e.confidenceThreshold
	var options []string
	if needsClarification {
		options = clarificationOptions(editPrompt, wireframe, resolved)
	}

	if resolved == nil {
		resolved = []string{}
	}

	return &ProcessedEdit{
		OriginalPrompt:       editPrompt,
		EnhancedPrompt:       enhanced,
		Intent:               intent,
		EditType:             editType,
		TargetElements:       resolved,
		Confidence:           confidence,
		NeedsClarification:   needsClarification,
		ClarificationOptions: options,
		Metadata: map[string]any{
			"processing_time_ms":   time.Since(start).Milliseconds(),
			"context_entries_used": len(history),
			"elements_in_design":   len(ExtractElements(wireframe)),
		},
	}
}

// fallback is the result returned when processing fails internally.
func (e *Engine) fallback(editPrompt string) *ProcessedEdit {
	return &ProcessedEdit{
		OriginalPrompt:       editPrompt,
		EnhancedPrompt:       editPrompt,
		Intent:               IntentUnclear,
		EditType:             types.EditModify,
		TargetElements:       []string{},
		Confidence:           0.0,
		NeedsClarification:   true,
		ClarificationOptions: []string{"Please specify which element you want to modify"},
	}
}
