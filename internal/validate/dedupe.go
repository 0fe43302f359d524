package validate

import (
	"fmt"
	"slices"
	"strings"

	"questdb/internal/parser"
	"questdb/internal/textutil"

	"github.com/rs/zerolog/log"
)

// DedupedSuffix is inserted before the extension of deduplicated output.
const DedupedSuffix = "_DEDUPED"

// DedupeChange records what happened to one repeated record.
type DedupeChange struct {
	ID int
	// NewID is the reassigned id, zero when the record was removed.
	NewID int
	Line  int
	Name  string
}

// Dedupe keeps the first definition of every id. Later definitions are
// removed, or given fresh ids counting up from reassignFrom when it is
// positive. Ids already used in the file are never handed out.
func Dedupe(lines []string, opts parser.LocateOptions, reassignFrom int) ([]string, []DedupeChange) {
	records := parser.Locate(lines, opts)

	used := make(map[int]bool, len(records))
	for _, rec := range records {
		used[rec.ID] = true
	}

	seen := make(map[int]bool, len(records))
	next := reassignFrom
	var edits []parser.Edit
	var changes []DedupeChange

	for _, rec := range records {
		if !seen[rec.ID] {
			seen[rec.ID] = true
			continue
		}

		change := DedupeChange{ID: rec.ID, Line: rec.Line}
		if fields := rec.Fields(); len(fields) > 0 {
			change.Name = textutil.Unquote(fields[0])
		}

		if reassignFrom <= 0 {
			edits = append(edits, parser.Edit{Line: rec.Line, EndLine: rec.EndLine})
			changes = append(changes, change)
			continue
		}

		for used[next] {
			next++
		}
		used[next] = true
		change.NewID = next

		block := slices.Clone(lines[rec.Line-1 : rec.EndLine])
		block[0] = renumber(rec, next) + block[0][len(rec.Head):]
		edits = append(edits, parser.Edit{Line: rec.Line, EndLine: rec.EndLine, Lines: block})
		changes = append(changes, change)
	}

	f := &parser.File{Lines: lines}
	return f.Apply(edits).Lines, changes
}

// renumber returns the record head with its key replaced by id.
func renumber(rec parser.Record, id int) string {
	return strings.Replace(rec.Head, fmt.Sprintf("[%d]", rec.ID), fmt.Sprintf("[%d]", id), 1)
}

// DedupeFile deduplicates a database file into a sibling `_DEDUPED` file.
// Nothing is written when the file has no repeated ids.
func DedupeFile(path string, opts Options, reassignFrom int) (string, []DedupeChange, error) {
	f, err := parser.ReadFile(path)
	if err != nil {
		return "", nil, err
	}

	lines, changes := Dedupe(f.Lines, opts.locate(), reassignFrom)
	if len(changes) == 0 {
		return "", nil, nil
	}

	outPath := parser.SiblingPath(path, DedupedSuffix)
	out := &parser.File{Path: outPath, Lines: lines}
	if err := out.Write(outPath); err != nil {
		return "", nil, fmt.Errorf("write deduplicated file: %w", err)
	}

	log.Info().Str("path", path).Str("output", outPath).Int("changes", len(changes)).Msg("Wrote deduplicated file")
	return outPath, changes, nil
}
