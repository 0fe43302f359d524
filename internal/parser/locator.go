package parser

import (
	"iter"
	"regexp"
	"strconv"
	"strings"
)

// recordStartPattern matches `[id] = {` with an optional table-name prefix.
var recordStartPattern = regexp.MustCompile(`^(\s*)([A-Za-z_][A-Za-z0-9_.]*)?\[(\d+)\]\s*=\s*\{`)

// tableOpenPattern matches a line that opens a table: `name = {` or
// `local name = {`, optionally followed by a comment.
var tableOpenPattern = regexp.MustCompile(`^\s*(?:local\s+)?([A-Za-z_][A-Za-z0-9_.]*)\s*=\s*\{\s*(?:--.*)?$`)

// Lua block comments: --[[ ... ]] and --[=[ ... ]=].
var luaMultilineCommentOpen = regexp.MustCompile(`^\s*--\[=*\[`)
var luaMultilineCommentClose = regexp.MustCompile(`\]=*\]`)

// RecordStart reports whether line begins a record and returns its id and
// table-name prefix.
func RecordStart(line string) (id int, prefix string, ok bool) {
	m := recordStartPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	id, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, "", false
	}
	return id, m[2], true
}

// TableOpen reports whether line opens a table and returns the table name.
func TableOpen(line string) (string, bool) {
	if _, _, ok := RecordStart(line); ok {
		return "", false
	}
	m := tableOpenPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsTableClose reports whether line is a standalone closing brace.
func IsTableClose(line string) bool {
	return strings.TrimSpace(stripComment(line)) == "}"
}

// IsComment reports whether line holds only a comment.
func IsComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "--")
}

// TableBounds returns the 0-based indexes of the opening and closing marker
// lines of the named table (any table when name is empty), or -1 for a
// marker that is missing. Record bodies are skipped while looking for the
// close marker.
func TableBounds(lines []string, name string) (open, close int) {
	open, close = -1, -1
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if open < 0 {
			if n, ok := TableOpen(line); ok && (name == "" || n == name) {
				open = i
			}
			continue
		}
		if IsComment(line) {
			continue
		}
		if IsTableClose(line) {
			return open, i
		}
		if _, next, ok := scanRecord(lines, i); ok {
			i = next - 1
		}
	}
	return open, close
}

// Locate returns every record found inside the target table, in file order.
func Locate(lines []string, opts LocateOptions) []Record {
	var records []Record
	for r := range Records(lines, opts) {
		records = append(records, r)
	}
	return records
}

// Records yields the records found inside the target table. Each call to the
// returned sequence scans the lines from the start.
func Records(lines []string, opts LocateOptions) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		inTable := !opts.RequireTable && !hasTableMarker(lines, opts.Table)
		whole := inTable
		inBlockComment := false

		for i := 0; i < len(lines); i++ {
			line := lines[i]

			if inBlockComment {
				if luaMultilineCommentClose.MatchString(line) {
					inBlockComment = false
				}
				continue
			}
			if luaMultilineCommentOpen.MatchString(line) {
				if !luaMultilineCommentClose.MatchString(line) {
					inBlockComment = true
				}
				continue
			}
			if IsComment(line) {
				continue
			}

			if !inTable {
				if name, ok := TableOpen(line); ok && (opts.Table == "" || name == opts.Table) {
					inTable = true
				}
				continue
			}
			if !whole && IsTableClose(line) {
				inTable = false
				continue
			}

			rec, next, ok := scanRecord(lines, i)
			if !ok {
				continue
			}
			if !yield(rec) {
				return
			}
			i = next - 1
		}
	}
}

// hasTableMarker reports whether any line opens the named table.
func hasTableMarker(lines []string, name string) bool {
	for _, line := range lines {
		if n, ok := TableOpen(line); ok && (name == "" || n == name) {
			return true
		}
	}
	return false
}

// scanRecord reads the record starting at lines[i]. It returns the record and
// the index of the first line after it.
func scanRecord(lines []string, i int) (Record, int, bool) {
	line := lines[i]
	m := recordStartPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return Record{}, i + 1, false
	}
	id, err := strconv.Atoi(line[m[6]:m[7]])
	if err != nil {
		return Record{}, i + 1, false
	}

	rec := Record{
		ID:   id,
		Head: line[:m[1]],
		Line: i + 1,
	}
	if m[4] >= 0 {
		rec.Prefix = line[m[4]:m[5]]
	}
	indent := m[3] - m[2]

	sc := braceScanner{depth: 1}
	rest := line[m[1]:]
	closeAt, codeEnd := sc.feed(rest)
	if closeAt >= 0 {
		rec.FieldText = rest[:closeAt]
		rec.Trailer = rest[closeAt+1:]
		rec.EndLine = i + 1
		rec.Closed = true
		return rec, i + 1, true
	}

	var text strings.Builder
	text.WriteString(rest[:codeEnd])
	j := i + 1
	for ; j < len(lines); j++ {
		next := lines[j]
		if startsRecordAt(next, indent, sc.depth) {
			break
		}
		trial := sc
		closeAt, codeEnd = trial.feed(next)
		if closeAt < 0 && IsTableClose(next) {
			break
		}
		sc = trial
		text.WriteByte('\n')
		if closeAt >= 0 {
			text.WriteString(next[:closeAt])
			rec.Trailer = next[closeAt+1:]
			rec.Closed = true
			j++
			break
		}
		text.WriteString(next[:codeEnd])
	}

	rec.FieldText = text.String()
	rec.EndLine = j
	return rec, j, true
}

// startsRecordAt reports whether line starts a new record while the current
// one, opened at indent, is at brace depth. At the record's top level any key
// indented no deeper than indent starts a record. Inside a nested table, such
// as a spawn table, a key line only starts a record when it is aligned with
// the record and closes on the same line; anything else is a nested entry.
func startsRecordAt(line string, indent, depth int) bool {
	m := recordStartPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return false
	}
	lineIndent := m[3] - m[2]
	if depth <= 1 {
		return lineIndent <= indent
	}
	if lineIndent != indent {
		return false
	}
	sc := braceScanner{depth: 1}
	closeAt, _ := sc.feed(line[m[1]:])
	return closeAt >= 0
}

// braceScanner tracks brace depth across lines, skipping strings and
// trailing comments.
type braceScanner struct {
	depth    int
	inString bool
	escaped  bool
}

// feed advances the scanner over one line. It returns the index of the brace
// that brings the depth back to zero (or -1) and the index where a trailing
// comment starts (or len(line)).
func (s *braceScanner) feed(line string) (closeAt, codeEnd int) {
	s.escaped = false
	s.inString = false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if s.escaped {
			s.escaped = false
			continue
		}
		switch {
		case ch == '\\':
			s.escaped = true
		case ch == '"':
			s.inString = !s.inString
		case s.inString:
		case ch == '-' && i+1 < len(line) && line[i+1] == '-':
			return -1, i
		case ch == '{':
			s.depth++
		case ch == '}':
			s.depth--
			if s.depth == 0 {
				return i, len(line)
			}
		}
	}
	return -1, len(line)
}

// stripComment removes a trailing `--` comment that is not inside a string.
func stripComment(line string) string {
	idx := strings.Index(line, "--")
	for idx >= 0 {
		if !isInsideString(line, idx) {
			return line[:idx]
		}
		next := strings.Index(line[idx+2:], "--")
		if next < 0 {
			break
		}
		idx += next + 2
	}
	return line
}

// isInsideString checks if position idx is inside a string literal.
func isInsideString(line string, idx int) bool {
	inDouble := false
	inSingle := false
	for i := 0; i < idx; i++ {
		ch := line[i]
		if ch == '\\' {
			i++ // skip escaped char
			continue
		}
		if ch == '"' && !inSingle {
			inDouble = !inDouble
		}
		if ch == '\'' && !inDouble {
			inSingle = !inSingle
		}
	}
	return inDouble || inSingle
}
