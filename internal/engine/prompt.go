package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prompt2figma/designd/pkg/types"
)

const (
	maxPromptElements = 5
	maxPromptChanges  = 3

	closingInstruction = `Please apply the requested change to the design, taking into account the current elements and recent modifications. If the request refers to "it", "that", or "the [element]", use the context above to identify the correct target element.`
)

// BuildContextualPrompt assembles the enhanced prompt handed to the external
// generator: design context header, element summaries, recent changes, the
// user request, and a closing resolution instruction. Sections with no
// content are elided.
func BuildContextualPrompt(basePrompt string, wireframe types.Wireframe, recentChanges []types.EditContext) string {
	var b strings.Builder

	b.WriteString("Current Design Context:")

	elements := ExtractElements(wireframe)
	if len(elements) > 0 {
		b.WriteString("\nElements in design:")
		limit := maxPromptElements
		if len(elements) < limit {
			limit = len(elements)
		}
		for _, elem := range elements[:limit] {
			elemType := elementString(elem, "type")
			if elemType == "" {
				elemType = "element"
			}
			line := "\n- " + elemType
			if id := elementString(elem, "id"); id != "" {
				line += fmt.Sprintf(" (id: %s)", id)
			}
			text := elementString(elem, "text")
			if text == "" {
				text = elementString(elem, "label")
			}
			if text != "" {
				line += fmt.Sprintf(": '%s'", text)
			}
			b.WriteString(line)
		}
	}

	if len(recentChanges) > 0 {
		b.WriteString("\n\nRecent Changes:")
		limit := maxPromptChanges
		if len(recentChanges) < limit {
			limit = len(recentChanges)
		}
		for i, change := range recentChanges[:limit] {
			b.WriteString(fmt.Sprintf("\n%d. %s (type: %s)", i+1, change.Prompt, change.EditType))
		}
	}

	b.WriteString("\n\nUser Request: ")
	b.WriteString(basePrompt)
	b.WriteString("\n\n")
	b.WriteString(closingInstruction)

	return b.String()
}

// clarificationOptions builds the clarification prompts shown when
// confidence falls below the threshold.
func clarificationOptions(prompt string, wireframe types.Wireframe, resolved []string) []string {
	var options []string

	if len(resolved) > 1 {
		options = append(options, fmt.Sprintf("Which element do you want to modify: %s?", strings.Join(resolved, ", ")))
	} else if len(resolved) == 0 {
		elements := ExtractElements(wireframe)
		if len(elements) > 0 {
			seen := make(map[string]struct{})
			var elementKinds []string
			limit := maxPromptElements
			if len(elements) < limit {
				limit = len(elements)
			}
			for _, elem := range elements[:limit] {
				kind := elementString(elem, "type")
				if kind == "" {
					kind = "element"
				}
				if _, dup := seen[kind]; dup {
					continue
				}
				seen[kind] = struct{}{}
				elementKinds = append(elementKinds, kind)
			}
			sort.Strings(elementKinds)
			options = append(options, fmt.Sprintf("Which element do you want to modify? Available: %s", strings.Join(elementKinds, ", ")))
		} else {
			options = append(options, "Please specify which element you want to modify.")
		}
	}

	if ClassifyIntent(prompt) == IntentUnclear {
		options = append(options, "What would you like to do? (add, remove, modify, change style, etc.)")
	}

	if len(options) == 0 {
		options = append(options, "Please provide more specific details about what you want to change.")
	}
	return options
}
