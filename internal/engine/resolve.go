package engine

import (
	"regexp"
	"sort"
	"strings"

	"github.com/prompt2figma/designd/pkg/types"
)

// Confidence weights for the reference-resolution rules.
const (
	confidencePronoun       = 0.6
	confidenceSingleMatch   = 0.9
	confidenceMultipleMatch = 0.6
	confidenceNotInDesign   = 0.3
	confidenceInferred      = 0.4
)

var (
	pronounPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(it|that|this)\b`),
		regexp.MustCompile(`\b(them|those|these)\b`),
	}
	elementRefPatterns = []*regexp.Regexp{
		regexp.MustCompile(`the\s+(\w+)`),
		regexp.MustCompile(`that\s+(\w+)`),
		regexp.MustCompile(`this\s+(\w+)`),
	}
)

// elementTypes is the closed vocabulary of known element types.
var elementTypes = map[string]struct{}{
	"button": {}, "btn": {}, "link": {}, "header": {}, "title": {},
	"text": {}, "input": {}, "field": {}, "image": {}, "img": {},
	"icon": {}, "menu": {}, "nav": {}, "navigation": {}, "sidebar": {},
	"footer": {}, "card": {}, "container": {}, "box": {}, "div": {},
	"section": {}, "form": {}, "table": {}, "list": {},
}

// resolveReferences maps the prompt's contextual references to concrete
// element ids, returning the resolved ids and an overall confidence: the
// arithmetic mean of the per-rule confidences that fired, or 0.0.
func resolveReferences(prompt string, wireframe types.Wireframe, history []types.EditContext) ([]string, float64) {
	lower := strings.ToLower(prompt)
	var resolved []string
	var scores []float64

	designElements := ExtractElements(wireframe)

	// Pronouns resolve against the most recent edit targets.
	hasPronoun := false
	for _, pattern := range pronounPatterns {
		if pattern.MatchString(lower) {
			hasPronoun = true
			break
		}
	}
	if hasPronoun {
		if recent := recentTargetElements(history); len(recent) > 0 {
			resolved = append(resolved, recent[0])
			scores = append(scores, confidencePronoun)
		}
	}

	// Explicit element-type references ("the button") resolve against the
	// current design.
	var refs []string
	for _, pattern := range elementRefPatterns {
		for _, match := range pattern.FindAllStringSubmatch(lower, -1) {
			refs = append(refs, match[1])
		}
	}

	for _, ref := range refs {
		if _, known := elementTypes[ref]; !known {
			continue
		}

		var matching []map[string]any
		for _, elem := range designElements {
			if strings.Contains(strings.ToLower(elementString(elem, "type")), ref) ||
				strings.Contains(strings.ToLower(elementString(elem, "id")), ref) ||
				strings.Contains(strings.ToLower(elementString(elem, "class")), ref) {
				matching = append(matching, elem)
			}
		}

		switch {
		case len(matching) == 1:
			resolved = append(resolved, elementIDOrType(matching[0], ref))
			scores = append(scores, confidenceSingleMatch)
		case len(matching) > 1:
			for _, elem := range matching {
				resolved = append(resolved, elementIDOrType(elem, ref))
			}
			scores = append(scores, confidenceMultipleMatch)
		default:
			// Mentioned but absent from the design.
			resolved = append(resolved, ref)
			scores = append(scores, confidenceNotInDesign)
		}
	}

	// No explicit reference: infer the most recent target from history.
	if len(resolved) == 0 && len(history) > 0 {
		if recent := recentTargetElements(history); len(recent) > 0 {
			resolved = append(resolved, recent[0])
			scores = append(scores, confidenceInferred)
		}
	}

	if len(scores) == 0 {
		return resolved, 0.0
	}
	total := 0.0
	for _, s := range scores {
		total += s
	}
	return resolved, total / float64(len(scores))
}

// recentTargetElements flattens target elements from the three most recent
// contexts, newest first, deduplicated preserving order.
func recentTargetElements(history []types.EditContext) []string {
	sorted := make([]types.EditContext, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	seen := make(map[string]struct{})
	var out []string
	limit := 3
	if len(sorted) < limit {
		limit = len(sorted)
	}
	for _, ctx := range sorted[:limit] {
		for _, elem := range ctx.TargetElements {
			if _, dup := seen[elem]; dup {
				continue
			}
			seen[elem] = struct{}{}
			out = append(out, elem)
		}
	}
	return out
}

func elementIDOrType(elem map[string]any, fallback string) string {
	if id := elementString(elem, "id"); id != "" {
		return id
	}
	return fallback
}
