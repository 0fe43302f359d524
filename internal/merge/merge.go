package merge

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"questdb/internal/luacheck"
	"questdb/internal/parser"

	"github.com/rs/zerolog/log"
)

// Suffixes of the files written next to the primary database.
const (
	MergedSuffix = "_MERGED"
	ReportSuffix = "_merge_report"
)

// Policy decides which record names are placeholders.
type Policy struct {
	placeholders []*regexp.Regexp
}

// NewPolicy compiles placeholder name patterns.
func NewPolicy(patterns []string) (Policy, error) {
	var p Policy
	for _, pat := range patterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return p, fmt.Errorf("compile placeholder pattern %q: %w", pat, err)
		}
		p.placeholders = append(p.placeholders, re)
	}
	return p, nil
}

// IsPlaceholder reports whether name is a stand-in rather than real data.
// An empty name counts as a placeholder.
func (p Policy) IsPlaceholder(name string) bool {
	if strings.TrimSpace(name) == "" {
		return true
	}
	for _, re := range p.placeholders {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Action is the outcome for one secondary record.
type Action string

const (
	ActionAdded            Action = "added"
	ActionUpdated          Action = "updated-placeholder"
	ActionUnchanged        Action = "unchanged"
	ActionConflict         Action = "conflict"
	ActionSkippedDuplicate Action = "skipped-duplicate"
)

// Decision records what happened to one secondary record.
type Decision struct {
	ID            int
	Action        Action
	PrimaryName   string
	SecondaryName string
	// ExistingID is the primary id already using the name of a skipped
	// duplicate.
	ExistingID int
}

// Report summarises a merge.
type Report struct {
	PrimaryPath    string
	SecondaryPath  string
	PrimaryCount   int
	SecondaryCount int
	MergedCount    int
	Decisions      []Decision
}

// Filter returns the decisions with the given action, in id order.
func (r *Report) Filter(a Action) []Decision {
	var out []Decision
	for _, d := range r.Decisions {
		if d.Action == a {
			out = append(out, d)
		}
	}
	return out
}

// Count returns how many decisions had the given action.
func (r *Report) Count(a Action) int {
	return len(r.Filter(a))
}

// Merge folds secondary into primary. Records only in secondary are added
// unless their name already belongs to another primary id. Shared ids are
// updated only when the primary record is a placeholder and the secondary
// one is not; a real primary record is never replaced. Neither input is
// modified.
func Merge(primary, secondary *Collection, policy Policy) (*Collection, *Report) {
	merged := primary.clone()
	report := &Report{
		PrimaryPath:    primary.Path,
		SecondaryPath:  secondary.Path,
		PrimaryCount:   primary.Len(),
		SecondaryCount: secondary.Len(),
	}

	byName := make(map[string]int, primary.Len())
	for _, id := range primary.IDs() {
		key := nameKey(primary.Entries[id].Name)
		if _, taken := byName[key]; key != "" && !taken {
			byName[key] = id
		}
	}

	for _, id := range secondary.IDs() {
		s := secondary.Entries[id]
		d := Decision{ID: id, SecondaryName: s.Name}

		p, inPrimary := primary.Entries[id]
		if !inPrimary {
			if other, taken := byName[nameKey(s.Name)]; taken && other != id {
				d.Action = ActionSkippedDuplicate
				d.ExistingID = other
				d.PrimaryName = primary.Entries[other].Name
			} else {
				d.Action = ActionAdded
				cp := *s
				merged.Entries[id] = &cp
			}
			report.Decisions = append(report.Decisions, d)
			continue
		}

		d.PrimaryName = p.Name
		switch {
		case policy.IsPlaceholder(p.Name) && !policy.IsPlaceholder(s.Name):
			d.Action = ActionUpdated
			cp := *s
			merged.Entries[id] = &cp
		case strings.EqualFold(p.Name, s.Name):
			d.Action = ActionUnchanged
		default:
			d.Action = ActionConflict
		}
		report.Decisions = append(report.Decisions, d)
	}

	report.MergedCount = merged.Len()
	return merged, report
}

// ReportPath returns where the text report for a merge into primary goes.
func ReportPath(primary string) string {
	return strings.TrimSuffix(primary, filepath.Ext(primary)) + ReportSuffix + ".txt"
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Result is the outcome of MergeFiles.
type Result struct {
	Merged     *Collection
	Report     *Report
	OutputPath string
	// LoadError is set when the merged output does not parse as Lua.
	LoadError error
}

// MergeFiles merges two database files and writes `<primary>_MERGED.lua`
// next to the primary. Inputs are never modified.
func MergeFiles(primaryPath, secondaryPath string, opts parser.LocateOptions, policy Policy) (*Result, error) {
	primary, err := Load(primaryPath, opts)
	if err != nil {
		return nil, fmt.Errorf("load primary: %w", err)
	}
	secondary, err := Load(secondaryPath, opts)
	if err != nil {
		return nil, fmt.Errorf("load secondary: %w", err)
	}

	merged, report := Merge(primary, secondary, policy)

	outPath := parser.SiblingPath(primaryPath, MergedSuffix)
	out := &parser.File{Path: outPath, Lines: merged.Lines()}
	if err := out.Write(outPath); err != nil {
		return nil, fmt.Errorf("write merged file: %w", err)
	}

	res := &Result{Merged: merged, Report: report, OutputPath: outPath}
	if err := luacheck.Parse(outPath, out.Bytes()); err != nil {
		res.LoadError = err
		log.Error().Err(err).Str("path", outPath).Msg("Merged file will fail to load")
	}

	log.Info().
		Str("output", outPath).
		Int("added", report.Count(ActionAdded)).
		Int("updated", report.Count(ActionUpdated)).
		Int("conflicts", report.Count(ActionConflict)).
		Int("skipped", report.Count(ActionSkippedDuplicate)).
		Msg("Merge complete")

	return res, nil
}
