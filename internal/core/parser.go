// ABOUTME: Parse extracts labeled ReAct fields from free-form model text
// ABOUTME: Scans right to left so few-shot exemplars never shadow the live response
package core

import "strings"

// fieldLabels in declaration order; parsing walks them in reverse
var fieldLabels = []string{"Thought", "Action", "Observation", "Answer"}

// Parse returns the latest Thought, Action, Observation and Answer values
// keyed by lowercase label. Without an "Answer:" anchor the map is empty.
func Parse(text string) map[string]string {
	return ParseAfter(text, 0)
}

// ParseAfter is Parse but ignores labels that start before byte offset from.
// An ignored label does not shrink the search window. Used to skip prompt
// text when parsing prompt+response.
func ParseAfter(text string, from int) map[string]string {
	fields := make(map[string]string)

	anchor := strings.LastIndex(text, "Answer:")
	if anchor < 0 {
		return fields
	}

	window := text
	for i := len(fieldLabels) - 1; i >= 0; i-- {
		marker := fieldLabels[i] + ":"
		pos := strings.LastIndex(window, marker)
		if pos < 0 {
			continue
		}
		if pos < from {
			continue
		}
		fields[strings.ToLower(fieldLabels[i])] = lineValue(window[pos+len(marker):])
		window = window[:pos]
	}

	return fields
}

// lineValue returns the trimmed text up to the first newline
func lineValue(s string) string {
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[:nl]
	}
	return strings.TrimSpace(s)
}
