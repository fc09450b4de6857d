package engine

import (
	"regexp"
	"strings"

	"github.com/prompt2figma/designd/pkg/types"
)

// Intent is the fine-grained classification of an edit prompt.
type Intent string

const (
	IntentModifyElement  Intent = "modify_element"
	IntentAddElement     Intent = "add_element"
	IntentRemoveElement  Intent = "remove_element"
	IntentChangeStyle    Intent = "change_style"
	IntentChangeLayout   Intent = "change_layout"
	IntentChangeColor    Intent = "change_color"
	IntentChangeSize     Intent = "change_size"
	IntentChangePosition Intent = "change_position"
	IntentChangeText     Intent = "change_text"
	IntentUnclear        Intent = "unclear"
)

// intentPatterns pairs an intent with its compiled patterns. Order is
// precedence: the first matching pattern wins.
type intentPatterns struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// compiled once at package init and shared across requests.
var classifierPatterns = buildIntentPatterns()

func buildIntentPatterns() []intentPatterns {
	compile := func(exprs ...string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, len(exprs))
		for _, expr := range exprs {
			out = append(out, regexp.MustCompile(expr))
		}
		return out
	}

	return []intentPatterns{
		{IntentAddElement, compile(
			`add\s+(?:a\s+)?(\w+)`,
			`create\s+(?:a\s+)?(\w+)`,
			`insert\s+(?:a\s+)?(\w+)`,
			`put\s+(?:a\s+)?(\w+)`,
			`include\s+(?:a\s+)?(\w+)`,
		)},
		{IntentRemoveElement, compile(
			`remove\s+(?:the\s+)?(\w+)`,
			`delete\s+(?:the\s+)?(\w+)`,
			`take\s+(?:away|out)\s+(?:the\s+)?(\w+)`,
			`get\s+rid\s+of\s+(?:the\s+)?(\w+)`,
		)},
		{IntentChangeColor, compile(
			`(?:change|set)\s+(?:the\s+)?(?:color|colour)\s+(?:to\s+)?(\w+)`,
			`(?:color|colour)\s+(?:it\s+)?(\w+)`,
			`make\s+(?:it\s+)?(?:color|colour|red|blue|green|yellow|purple|orange|black|white|gray|grey)`,
			`turn\s+(?:it\s+)?(?:red|blue|green|yellow|purple|orange|black|white|gray|grey)`,
		)},
		{IntentChangeSize, compile(
			`make\s+(?:it\s+)?(bigger|larger|smaller|tiny|huge|large|small)`,
			`(?:increase|decrease)\s+(?:the\s+)?size`,
			`resize\s+(?:it\s+)?(?:to\s+)?(\w+)`,
		)},
		{IntentChangePosition, compile(
			`move\s+(?:it\s+)?(?:to\s+)?(?:the\s+)?(left|right|top|bottom|center|centre)`,
			`position\s+(?:it\s+)?(?:at\s+)?(?:the\s+)?(left|right|top|bottom|center|centre)`,
			`align\s+(?:it\s+)?(?:to\s+)?(?:the\s+)?(left|right|center|centre)`,
		)},
		{IntentChangeText, compile(
			`(?:change|update|set)\s+(?:the\s+)?text\s+to\s+["']([^"']+)["']`,
			`make\s+(?:it\s+)?say\s+["']([^"']+)["']`,
			`update\s+(?:the\s+)?(?:label|title|heading)\s+to\s+["']([^"']+)["']`,
		)},
		{IntentChangeStyle, compile(
			`style\s+(?:it\s+)?(?:as\s+)?(\w+)`,
			`make\s+(?:it\s+)?(?:look\s+)?(?:more\s+)?(modern|elegant|simple|clean|fancy|professional|casual)`,
			`apply\s+(\w+)\s+style`,
		)},
	}
}

// ClassifyIntent extracts the primary intent from an edit prompt. The prompt
// is matched case-insensitively: regex patterns first in fixed precedence,
// then keyword fallbacks from most to least specific.
func ClassifyIntent(prompt string) Intent {
	lower := strings.ToLower(strings.TrimSpace(prompt))

	for _, group := range classifierPatterns {
		for _, pattern := range group.patterns {
			if pattern.MatchString(lower) {
				return group.intent
			}
		}
	}

	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case containsAny("bigger", "smaller", "large", "small", "tiny", "huge") || strings.Contains(lower, "size"):
		return IntentChangeSize
	case (containsAny("say", "text", "label", "title") && strings.Contains(prompt, `"`)) ||
		(strings.Contains(lower, "text") && strings.Contains(lower, "to")):
		return IntentChangeText
	case containsAny("move", "position", "align"):
		return IntentChangePosition
	case containsAny("color", "colour"):
		return IntentChangeColor
	case containsAny("add", "create", "insert", "new"):
		return IntentAddElement
	case containsAny("remove", "delete", "hide"):
		return IntentRemoveElement
	case containsAny("style", "look", "appearance"):
		return IntentChangeStyle
	}

	return IntentUnclear
}

// EditTypeFor maps an intent onto the coarse wire-level edit taxonomy.
func EditTypeFor(intent Intent) types.EditType {
	switch intent {
	case IntentAddElement:
		return types.EditAdd
	case IntentRemoveElement:
		return types.EditRemove
	case IntentChangeStyle, IntentChangeColor, IntentChangeSize:
		return types.EditStyle
	case IntentChangePosition, IntentChangeLayout:
		return types.EditLayout
	case IntentModifyElement, IntentChangeText, IntentUnclear:
		return types.EditModify
	}
	return types.EditModify
}
