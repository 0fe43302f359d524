// Package report prints human-readable results to the console and to report
// files.
package report

import (
	"fmt"
	"io"
	"strings"

	"questdb/internal/compare"
	"questdb/internal/graph"
	"questdb/internal/issue"
	"questdb/internal/merge"
	"questdb/internal/store"
	"questdb/internal/validate"
)

// SampleSize is how many entries of a group are shown before truncating.
const SampleSize = 10

var kinds = []issue.Kind{issue.Structural, issue.DuplicateID, issue.Schema, issue.AmbiguousRelocation}

// Validation prints one file's findings grouped by kind. With all set no
// group is truncated.
func Validation(w io.Writer, r *validate.Report, all bool) {
	fmt.Fprintf(w, "%s database: %s\n", r.Label, r.Path)
	fmt.Fprintf(w, "  Records: %d\n", r.Records)
	if r.LuaEntries >= 0 {
		fmt.Fprintf(w, "  Lua entries: %d\n", r.LuaEntries)
	}

	issues := r.Issues()
	if len(issues) == 0 {
		fmt.Fprintln(w, "  No issues found")
		fmt.Fprintln(w)
		return
	}

	groups := make(map[issue.Kind][]string)
	for _, is := range issues {
		groups[is.Kind] = append(groups[is.Kind], is.String())
	}
	for _, k := range kinds {
		if len(groups[k]) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n  %s (%d):\n", k, len(groups[k]))
		sample(w, groups[k], all)
	}

	fixed := len(issues) - len(issue.Unfixed(issues))
	fmt.Fprintf(w, "\n  Total: %d issues", len(issues))
	if fixed > 0 {
		fmt.Fprintf(w, ", %d fixed", fixed)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

func sample(w io.Writer, lines []string, all bool) {
	n := len(lines)
	if !all && n > SampleSize {
		n = SampleSize
	}
	for _, l := range lines[:n] {
		fmt.Fprintf(w, "    %s\n", l)
	}
	if n < len(lines) {
		fmt.Fprintf(w, "    ... and %d more\n", len(lines)-n)
	}
}

// Fix prints the outcome of a repair run.
func Fix(w io.Writer, res *validate.FixResult, all bool) {
	Validation(w, res.Report, all)
	fmt.Fprintf(w, "Wrote %s (%d records rewritten)\n", res.OutputPath, res.Changed)
	if res.Remaining.Clean() {
		fmt.Fprintln(w, "Output validates clean")
		return
	}
	fmt.Fprintf(w, "%d issues remain in the output:\n", len(res.Remaining.Issues()))
	var lines []string
	for _, is := range res.Remaining.Issues() {
		lines = append(lines, is.String())
	}
	sample(w, lines, all)
}

// Merge prints every merge decision. The same text is written to the merge
// report file.
func Merge(w io.Writer, r *merge.Report) {
	fmt.Fprintln(w, "Merge Report")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "Primary:   %s (%d records)\n", r.PrimaryPath, r.PrimaryCount)
	fmt.Fprintf(w, "Secondary: %s (%d records)\n", r.SecondaryPath, r.SecondaryCount)
	fmt.Fprintf(w, "Merged:    %d records\n\n", r.MergedCount)

	fmt.Fprintf(w, "Added: %d\n", r.Count(merge.ActionAdded))
	fmt.Fprintf(w, "Updated placeholders: %d\n", r.Count(merge.ActionUpdated))
	fmt.Fprintf(w, "Unchanged: %d\n", r.Count(merge.ActionUnchanged))
	fmt.Fprintf(w, "Conflicts (primary kept): %d\n", r.Count(merge.ActionConflict))
	fmt.Fprintf(w, "Skipped as duplicates: %d\n", r.Count(merge.ActionSkippedDuplicate))

	section := func(title string, a merge.Action, line func(merge.Decision) string) {
		ds := r.Filter(a)
		if len(ds) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s:\n%s\n", title, strings.Repeat("-", 30))
		for _, d := range ds {
			fmt.Fprintln(w, line(d))
		}
	}
	section("Added", merge.ActionAdded, func(d merge.Decision) string {
		return fmt.Sprintf("%d: %s", d.ID, d.SecondaryName)
	})
	section("Updated placeholders", merge.ActionUpdated, func(d merge.Decision) string {
		return fmt.Sprintf("%d: %s -> %s", d.ID, d.PrimaryName, d.SecondaryName)
	})
	section("Conflicts", merge.ActionConflict, func(d merge.Decision) string {
		return fmt.Sprintf("%d: kept %q, secondary has %q", d.ID, d.PrimaryName, d.SecondaryName)
	})
	section("Skipped duplicates", merge.ActionSkippedDuplicate, func(d merge.Decision) string {
		return fmt.Sprintf("%d: %q already exists as %d", d.ID, d.SecondaryName, d.ExistingID)
	})
}

// Dedupe prints the changes of a dedupe run.
func Dedupe(w io.Writer, path, output string, changes []validate.DedupeChange) {
	if len(changes) == 0 {
		fmt.Fprintf(w, "%s: no duplicate ids\n", path)
		return
	}
	fmt.Fprintf(w, "%s: %d duplicate definitions\n", path, len(changes))
	for _, c := range changes {
		if c.NewID != 0 {
			fmt.Fprintf(w, "  Line %d: [%d] %s -> reassigned to [%d]\n", c.Line, c.ID, c.Name, c.NewID)
		} else {
			fmt.Fprintf(w, "  Line %d: [%d] %s -> removed\n", c.Line, c.ID, c.Name)
		}
	}
	fmt.Fprintf(w, "Wrote %s\n", output)
}

// Compare prints the difference between two versions of a file.
func Compare(w io.Writer, res *compare.Result, all bool) {
	stats := func(label, path string, s compare.Stats) {
		fmt.Fprintf(w, "%-4s %s: %d records (%d placeholders, %d real)\n", label, path, s.Total, s.Placeholders, s.Real)
	}
	stats("Old", res.OldPath, res.Old)
	stats("New", res.NewPath, res.New)

	ids := func(title string, list []int) {
		if len(list) == 0 {
			return
		}
		lines := make([]string, len(list))
		for i, id := range list {
			lines[i] = fmt.Sprintf("%d", id)
		}
		fmt.Fprintf(w, "\n  %s (%d):\n", title, len(list))
		sample(w, lines, all)
	}
	renames := func(title string, list []compare.Rename) {
		if len(list) == 0 {
			return
		}
		lines := make([]string, len(list))
		for i, r := range list {
			lines[i] = fmt.Sprintf("%d: %s -> %s", r.ID, r.Old, r.New)
		}
		fmt.Fprintf(w, "\n  %s (%d):\n", title, len(list))
		sample(w, lines, all)
	}

	ids("Added", res.Added)
	ids("Removed", res.Removed)
	renames("Placeholders filled", res.Filled)
	renames("Renamed", res.Renamed)
	if !res.Changed() {
		fmt.Fprintln(w, "  No record changes")
	}
}

// Xref prints cross-reference problems between the quest and NPC files.
func Xref(w io.Writer, r *graph.Relations, problems []graph.Problem, all bool) {
	fmt.Fprintf(w, "Quests: %d, NPCs: %d, links: %d\n", len(r.Quests), len(r.NPCs), len(r.Links()))
	if len(problems) == 0 {
		fmt.Fprintln(w, "  No cross-reference problems")
		return
	}

	groups := make(map[graph.ProblemKind][]string)
	for _, p := range problems {
		groups[p.Kind] = append(groups[p.Kind], p.String())
	}
	for _, k := range []graph.ProblemKind{graph.MissingNPC, graph.MissingQuest, graph.OneSided} {
		if len(groups[k]) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n  %s (%d):\n", k, len(groups[k]))
		sample(w, groups[k], all)
	}
}

// Runs prints recorded audit runs.
func Runs(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "#%d %s %-8s %s records=%d issues=%d unresolved=%d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Command, r.Path, r.Records, r.Issues, r.Unresolved)
	}
}
