package validate

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"questdb/internal/issue"
	"questdb/internal/luacheck"
	"questdb/internal/parser"
	"questdb/internal/repair"
	"questdb/internal/schema"

	"github.com/rs/zerolog/log"
)

// DefaultAssignment is the prefix of the line that exports a table to the
// addon, as in `QuestieDB._epochQuestData = epochQuestData`.
const DefaultAssignment = "QuestieDB._"

// Options configures a validation pass.
type Options struct {
	Schema *schema.Schema
	Policy schema.Policy
	// Table is the expected table name; defaults to the schema's table.
	Table string
	// RequireTable reports a missing table marker instead of treating the
	// whole file as the table.
	RequireTable bool
	// Assignment is the external assignment prefix to look for. Empty skips
	// the check.
	Assignment string
	// LoadCheck parses the file as Lua and reports failures.
	LoadCheck bool
}

func (o Options) table() string {
	if o.Table != "" {
		return o.Table
	}
	return o.Schema.Table
}

func (o Options) locate() parser.LocateOptions {
	return parser.LocateOptions{Table: o.table(), RequireTable: o.RequireTable}
}

// BraceCount holds raw whole-file brace counts.
type BraceCount struct {
	Open  int
	Close int
}

// Report collects every finding of one file.
type Report struct {
	Path    string
	Kind    schema.Kind
	Label   string
	Records int
	// DuplicateIDs maps each repeated id to every line defining it.
	DuplicateIDs map[int][]int
	// BraceImbalance is set when the open and close counts differ.
	BraceImbalance *BraceCount
	// MissingTerminators lists lines of records lacking a trailing comma.
	MissingTerminators []int
	// WrongPrefixLines lists lines of records written as `table[id] = {`.
	WrongPrefixLines []int
	TableIssues      []issue.Issue
	RecordIssues     []issue.Issue
	// LuaEntries is the entry count seen by the Lua VM, -1 when not loaded.
	LuaEntries int
}

// Issues flattens the report into individual findings.
func (r *Report) Issues() []issue.Issue {
	var out []issue.Issue
	out = append(out, r.TableIssues...)

	if r.BraceImbalance != nil {
		out = append(out, issue.Issue{
			Kind:    issue.Structural,
			Message: fmt.Sprintf("unbalanced braces: %d open, %d close", r.BraceImbalance.Open, r.BraceImbalance.Close),
		})
	}

	for _, id := range r.DuplicateIDSorted() {
		lines := r.DuplicateIDs[id]
		out = append(out, issue.Issue{
			Kind:     issue.DuplicateID,
			RecordID: id,
			Line:     lines[0],
			Message:  fmt.Sprintf("defined %d times (lines %s)", len(lines), joinInts(lines)),
		})
	}

	for _, line := range r.MissingTerminators {
		out = append(out, issue.Issue{Kind: issue.Structural, Line: line, Message: "missing comma after record"})
	}
	for _, line := range r.WrongPrefixLines {
		out = append(out, issue.Issue{Kind: issue.Structural, Line: line, Message: "record has a table-name prefix"})
	}

	return append(out, r.RecordIssues...)
}

// Unresolved returns the findings that were not repaired.
func (r *Report) Unresolved() []issue.Issue {
	return issue.Unfixed(r.Issues())
}

// Clean reports whether the file has no findings at all.
func (r *Report) Clean() bool {
	return len(r.Issues()) == 0
}

// DuplicateIDSorted returns the repeated ids in ascending order.
func (r *Report) DuplicateIDSorted() []int {
	ids := make([]int, 0, len(r.DuplicateIDs))
	for id := range r.DuplicateIDs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ValidateFile reads and checks a database file without modifying it.
func ValidateFile(path string, opts Options) (*Report, error) {
	f, err := parser.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ValidateLines(path, f.Lines, opts)
}

// ValidateLines checks in-memory file content.
func ValidateLines(path string, lines []string, opts Options) (*Report, error) {
	report, _, err := run(path, lines, opts, false)
	return report, err
}

// Fix checks the content and returns the repaired lines alongside the report
// of what was found. The input slice is not modified.
func Fix(path string, lines []string, opts Options) (*Report, []string, error) {
	report, edits, err := run(path, lines, opts, true)
	if err != nil {
		return nil, nil, err
	}
	f := &parser.File{Path: path, Lines: lines}
	return report, f.Apply(edits).Lines, nil
}

func run(path string, lines []string, opts Options, fix bool) (*Report, []parser.Edit, error) {
	if opts.Schema == nil {
		return nil, nil, fmt.Errorf("validate %s: no schema", path)
	}

	ctx, err := repair.NewContext(opts.Schema, opts.Policy, fix)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{
		Path:         path,
		Kind:         opts.Schema.Kind,
		Label:        opts.Schema.Label,
		DuplicateIDs: make(map[int][]int),
		LuaEntries:   -1,
	}

	report.TableIssues = checkTable(lines, opts)

	braces := countBraces(lines)
	if braces.Open != braces.Close {
		report.BraceImbalance = &braces
	}

	records := parser.Locate(lines, opts.locate())
	report.Records = len(records)

	var edits []parser.Edit
	for idx, rec := range records {
		if first, dup := ctx.Seen(rec.ID, rec.Line); dup {
			if len(report.DuplicateIDs[rec.ID]) == 0 {
				report.DuplicateIDs[rec.ID] = []int{first}
			}
			report.DuplicateIDs[rec.ID] = append(report.DuplicateIDs[rec.ID], rec.Line)
		}

		if rec.Prefix != "" {
			report.WrongPrefixLines = append(report.WrongPrefixLines, rec.Line)
		}
		missingComma := rec.Closed && idx < len(records)-1 && !rec.Terminated()
		if missingComma {
			report.MissingTerminators = append(report.MissingTerminators, rec.Line)
		}

		if !rec.Closed {
			ctx.Issues = append(ctx.Issues, issue.Issue{
				Kind:     issue.Structural,
				RecordID: rec.ID,
				Line:     rec.Line,
				Message:  fmt.Sprintf("record is never closed (lines %d-%d)", rec.Line, rec.EndLine),
			})
			continue
		}

		original := rec.Fields()
		_, repaired := ctx.CheckAndRepair(rec.ID, original, rec.Line)
		if !fix {
			continue
		}

		switch {
		case repaired != nil && !slices.Equal(repaired, original):
			out := rec.WithoutPrefix()
			if missingComma {
				out = out.WithTerminator()
			}
			edits = append(edits, parser.Edit{Line: rec.Line, EndLine: rec.EndLine, Lines: []string{out.Render(repaired)}})
		case rec.Prefix != "" || missingComma:
			edits = append(edits, structuralEdit(lines, rec, missingComma))
		}
	}

	report.RecordIssues = ctx.Issues

	if opts.LoadCheck {
		loadCheck(report, lines, opts)
	}

	log.Debug().
		Str("path", path).
		Int("records", report.Records).
		Int("issues", len(report.Issues())).
		Msg("Validated file")

	return report, edits, nil
}

// structuralEdit fixes a record's prefix and separator in place, keeping its
// original line layout.
func structuralEdit(lines []string, rec parser.Record, addComma bool) parser.Edit {
	block := slices.Clone(lines[rec.Line-1 : rec.EndLine])
	if rec.Prefix != "" {
		block[0] = strings.Replace(block[0], rec.Prefix+"[", "[", 1)
	}
	if addComma {
		last := block[len(block)-1]
		cut := len(last) - len(rec.Trailer)
		block[len(block)-1] = last[:cut] + "," + last[cut:]
	}
	return parser.Edit{Line: rec.Line, EndLine: rec.EndLine, Lines: block}
}

func checkTable(lines []string, opts Options) []issue.Issue {
	table := opts.table()
	open, close := parser.TableBounds(lines, table)

	var issues []issue.Issue
	if open < 0 {
		if opts.RequireTable {
			issues = append(issues, issue.Issue{Kind: issue.Structural, Message: fmt.Sprintf("table %s is never opened", table)})
		}
		return issues
	}

	if close < 0 {
		issues = append(issues, issue.Issue{
			Kind:    issue.Structural,
			Line:    open + 1,
			Message: fmt.Sprintf("table %s is never closed", table),
		})
	} else {
		for i := close + 1; i < len(lines); i++ {
			if parser.IsComment(lines[i]) {
				continue
			}
			if id, _, ok := parser.RecordStart(lines[i]); ok {
				issues = append(issues, issue.Issue{
					Kind:     issue.Structural,
					RecordID: id,
					Line:     i + 1,
					Message:  fmt.Sprintf("record after the table close on line %d", close+1),
				})
			}
		}
	}

	if opts.Assignment != "" {
		want := opts.Assignment + table
		found := false
		for _, line := range lines {
			if strings.Contains(line, want) && !parser.IsComment(line) {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, issue.Issue{Kind: issue.Structural, Message: fmt.Sprintf("missing assignment %s = %s", want, table)})
		}
	}

	return issues
}

func countBraces(lines []string) BraceCount {
	var c BraceCount
	for _, line := range lines {
		c.Open += strings.Count(line, "{")
		c.Close += strings.Count(line, "}")
	}
	return c
}

func loadCheck(report *Report, lines []string, opts Options) {
	src := []byte(strings.Join(lines, "\n") + "\n")
	if err := luacheck.Parse(report.Path, src); err != nil {
		report.TableIssues = append(report.TableIssues, issue.Issue{
			Kind:    issue.Structural,
			Message: fmt.Sprintf("file will fail to load: %v", err),
		})
		return
	}

	res, err := luacheck.Load(report.Path, src, opts.table())
	if err != nil {
		log.Warn().Err(err).Str("path", report.Path).Msg("Lua execution check skipped")
		return
	}
	if res.Found {
		report.LuaEntries = res.Entries
	}
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
