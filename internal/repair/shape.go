package repair

import (
	"regexp"
	"strings"

	"questdb/internal/parser"
)

// Shape is the observed form of a field value.
type Shape int

const (
	ShapeNil Shape = iota
	ShapeInt
	ShapeString
	ShapeTable
	// ShapeLiteral covers other bare literals: floats, booleans, identifiers.
	ShapeLiteral
	// ShapeMalformed is an empty field or text with unbalanced braces.
	ShapeMalformed
)

var intPattern = regexp.MustCompile(`^-?\d+$`)

var keyPattern = regexp.MustCompile(`^\[\s*(-?\d+)\s*\]\s*=`)

// ShapeOf classifies a trimmed field value.
func ShapeOf(v string) Shape {
	switch {
	case v == "nil":
		return ShapeNil
	case v == "":
		return ShapeMalformed
	case parser.Balance(v) != 0:
		return ShapeMalformed
	case parser.IsTable(v):
		return ShapeTable
	case strings.HasPrefix(v, "{") || strings.HasSuffix(v, "}"):
		return ShapeMalformed
	case strings.HasPrefix(v, `"`) || strings.HasPrefix(v, "'"):
		return ShapeString
	case intPattern.MatchString(v):
		return ShapeInt
	default:
		return ShapeLiteral
	}
}

// IsScalar reports whether a shape is a bare value.
func (s Shape) IsScalar() bool {
	return s == ShapeInt || s == ShapeString || s == ShapeLiteral
}

// wrappedInt unwraps `{5}` or `{{5}}` to `5`. It fails for anything but a
// single integer inside one or more single-element tables.
func wrappedInt(v string) (string, bool) {
	if !parser.IsTable(v) {
		return "", false
	}
	for parser.IsTable(v) {
		elems := parser.Elements(v)
		if len(elems) != 1 {
			return "", false
		}
		v = elems[0]
	}
	return v, intPattern.MatchString(v)
}

// singleWrapped reports whether a table holds exactly one inner table and
// nothing else, as in `{{1,2}}`.
func singleWrapped(v string) bool {
	elems := parser.Elements(v)
	return len(elems) == 1 && parser.IsTable(elems[0])
}

// tableKey returns the numeric key of a `[k] = ...` table entry.
func tableKey(entry string) (string, bool) {
	m := keyPattern.FindStringSubmatch(entry)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// keyed reports whether any top-level entry of a table has an explicit key.
func keyed(v string) bool {
	for _, e := range parser.Elements(v) {
		if _, ok := tableKey(e); ok {
			return true
		}
	}
	return false
}
