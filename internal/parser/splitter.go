package parser

import "strings"

// SplitFields splits the inner text of a record literal into its top-level
// fields. Commas nested inside braces or double-quoted strings never split.
// The text after the last comma is always returned as the final field, even
// when it is empty, so the result has exactly one more element than the
// number of top-level commas.
func SplitFields(text string) []string {
	fields := splitRaw(text)
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// splitRaw is SplitFields without trimming: joining its result with ","
// reproduces the input exactly.
func splitRaw(text string) []string {
	var fields []string
	start := 0
	depth := 0
	inString := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == '\\':
			i++ // next character is literal
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
		case ch == ',' && depth == 0:
			fields = append(fields, text[start:i])
			start = i + 1
		}
	}

	return append(fields, text[start:])
}

// Depth returns the maximum brace nesting reached in text, ignoring braces
// inside strings. "5" has depth 0, "{5}" depth 1, "{{1,2},{3}}" depth 2.
func Depth(text string) int {
	depth, deepest := 0, 0
	inString := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == '\\':
			i++
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
			deepest = max(deepest, depth)
		case ch == '}':
			depth--
		}
	}
	return deepest
}

// Balance returns the brace depth left at the end of text: zero for balanced
// input, positive when braces remain open.
func Balance(text string) int {
	depth := 0
	inString := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == '\\':
			i++
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
		}
	}
	return depth
}

// IsTable reports whether a trimmed field value is a table literal.
func IsTable(field string) bool {
	return strings.HasPrefix(field, "{") && strings.HasSuffix(field, "}")
}

// Inner returns the text between the outer braces of a table literal.
func Inner(field string) string {
	if !IsTable(field) || len(field) < 2 {
		return field
	}
	return strings.TrimSpace(field[1 : len(field)-1])
}

// Elements splits a table literal into its trimmed top-level entries.
// An empty table yields no entries and a trailing separator is ignored.
func Elements(field string) []string {
	inner := Inner(field)
	if inner == "" {
		return nil
	}
	elems := SplitFields(inner)
	if n := len(elems); n > 1 && elems[n-1] == "" {
		elems = elems[:n-1]
	}
	return elems
}
