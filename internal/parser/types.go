package parser

import (
	"strings"
)

// Record is one `[id] = {...}` entry found inside a database table.
type Record struct {
	// ID is the numeric key between the square brackets.
	ID int
	// Prefix is a table name written before the key, as in
	// `epochQuestData[12] = {`. Empty for well-formed records.
	Prefix string
	// Head is the text from the start of the line up to and including the
	// opening brace of the record literal.
	Head string
	// FieldText is the raw text between the record's outer braces. Lines of
	// multi-line records are joined with "\n" and stripped of comments.
	FieldText string
	// Trailer is the text after the closing brace: separator and comment.
	Trailer string
	// Line and EndLine are the 1-based first and last source lines.
	Line    int
	EndLine int
	// Closed is false when the closing brace was never found.
	Closed bool
}

// Fields returns the record's top-level fields. A trailing comma before the
// closing brace does not produce an extra empty field.
func (r Record) Fields() []string {
	fields := SplitFields(r.FieldText)
	if n := len(fields); n > 1 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	return fields
}

// Terminated reports whether the record is followed by a separator.
func (r Record) Terminated() bool {
	t := strings.TrimSpace(r.Trailer)
	return strings.HasPrefix(t, ",") || strings.HasPrefix(t, ";")
}

// MultiLine reports whether the record spans more than one source line.
func (r Record) MultiLine() bool {
	return r.EndLine > r.Line
}

// Indent returns the leading whitespace of the record's first line.
func (r Record) Indent() string {
	return r.Head[:len(r.Head)-len(strings.TrimLeft(r.Head, " \t"))]
}

// Render formats the record on a single line with the given fields, keeping
// its head and trailer.
func (r Record) Render(fields []string) string {
	return r.Head + strings.Join(fields, ",") + "}" + r.Trailer
}

// WithoutPrefix returns a copy of the record whose head no longer carries a
// table-name prefix.
func (r Record) WithoutPrefix() Record {
	if r.Prefix == "" {
		return r
	}
	r.Head = strings.Replace(r.Head, r.Prefix+"[", "[", 1)
	r.Prefix = ""
	return r
}

// WithTerminator returns a copy of the record with a comma inserted right
// after its closing brace.
func (r Record) WithTerminator() Record {
	if r.Terminated() {
		return r
	}
	r.Trailer = "," + r.Trailer
	return r
}

// LocateOptions controls how records are found in a file.
type LocateOptions struct {
	// Table is the expected table name. Empty accepts any `<name> = {` line.
	Table string
	// RequireTable disables the fallback that treats a file with no table
	// marker at all as one big table.
	RequireTable bool
}
