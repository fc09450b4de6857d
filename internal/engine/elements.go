package engine

import "github.com/prompt2figma/designd/pkg/types"

// childKeys are the keys the element walk follows into nested structures.
var childKeys = []string{"children", "components", "elements"}

// elementKeys mark a mapping as a UI element when at least one is present.
var elementKeys = []string{"type", "component", "element"}

// ExtractElements walks a wireframe depth-first and returns every mapping
// that looks like a UI element, in discovery order.
func ExtractElements(wireframe types.Wireframe) []map[string]any {
	var elements []map[string]any

	var walk func(node any)
	walk = func(node any) {
		switch v := node.(type) {
		case map[string]any:
			for _, key := range elementKeys {
				if _, ok := v[key]; ok {
					elements = append(elements, v)
					break
				}
			}
			for _, key := range childKeys {
				child, ok := v[key]
				if !ok {
					continue
				}
				if list, ok := child.([]any); ok {
					for _, item := range list {
						walk(item)
					}
				} else {
					walk(child)
				}
			}
		case []any:
			for _, item := range v {
				walk(item)
			}
		}
	}

	walk(wireframe)
	return elements
}

// elementString returns a string field of an element, or "".
func elementString(elem map[string]any, key string) string {
	if v, ok := elem[key].(string); ok {
		return v
	}
	return ""
}
