package issue

import (
	"fmt"
	"strings"
)

// Kind classifies a finding.
type Kind int

const (
	// Structural covers file-level shape: tables, braces, separators, prefixes.
	Structural Kind = iota
	// Schema covers a field that does not match its slot.
	Schema
	// DuplicateID is a record key defined more than once.
	DuplicateID
	// AmbiguousRelocation is a heuristic move or clear of a field value.
	AmbiguousRelocation
)

func (k Kind) String() string {
	switch k {
	case Structural:
		return "StructuralIssue"
	case Schema:
		return "SchemaIssue"
	case DuplicateID:
		return "DuplicateIdIssue"
	case AmbiguousRelocation:
		return "AmbiguousRelocationIssue"
	default:
		return fmt.Sprintf("Issue(%d)", int(k))
	}
}

// Issue is a single finding tied to a record and line.
type Issue struct {
	Kind Kind
	// RecordID is zero for file-level findings.
	RecordID int
	// Line is the 1-based source line, zero when unknown.
	Line    int
	Field   string
	Message string
	// Fixed is set when the finding was repaired in the output.
	Fixed bool
}

func (i Issue) String() string {
	var b strings.Builder
	if i.Line > 0 {
		fmt.Fprintf(&b, "Line %d: ", i.Line)
	}
	if i.RecordID != 0 {
		fmt.Fprintf(&b, "[%d] ", i.RecordID)
	}
	if i.Field != "" {
		b.WriteString(i.Field)
		b.WriteString(": ")
	}
	b.WriteString(i.Message)
	if i.Fixed {
		b.WriteString(" (fixed)")
	}
	return b.String()
}

// CountByKind tallies issues per kind.
func CountByKind(issues []Issue) map[Kind]int {
	counts := make(map[Kind]int)
	for _, i := range issues {
		counts[i.Kind]++
	}
	return counts
}

// Unfixed returns the issues that were not repaired.
func Unfixed(issues []Issue) []Issue {
	var out []Issue
	for _, i := range issues {
		if !i.Fixed {
			out = append(out, i)
		}
	}
	return out
}
