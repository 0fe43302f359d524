package validate

import (
	"fmt"

	"questdb/internal/parser"

	"github.com/rs/zerolog/log"
)

// FixedSuffix is inserted before the extension of repaired output files.
const FixedSuffix = "_FIXED"

// FixResult describes a repair run over one file.
type FixResult struct {
	// Report holds what was found in the input, with repaired findings
	// marked as fixed.
	Report *Report
	// Remaining is the validation of the written output.
	Remaining  *Report
	OutputPath string
	// Changed counts the rewritten records.
	Changed int
}

// FixFile repairs a database file into a sibling `_FIXED` file, never in
// place, then re-validates the output with the Lua load check enabled.
func FixFile(path string, opts Options) (*FixResult, error) {
	f, err := parser.ReadFile(path)
	if err != nil {
		return nil, err
	}

	report, edits, err := run(path, f.Lines, opts, true)
	if err != nil {
		return nil, err
	}

	out := f.Apply(edits)
	outPath := parser.SiblingPath(path, FixedSuffix)
	if err := out.Write(outPath); err != nil {
		return nil, fmt.Errorf("write fixed file: %w", err)
	}

	checkOpts := opts
	checkOpts.LoadCheck = true
	remaining, _, err := run(outPath, out.Lines, checkOpts, false)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("path", path).
		Str("output", outPath).
		Int("changed", len(edits)).
		Int("remaining", len(remaining.Issues())).
		Msg("Wrote fixed file")

	return &FixResult{
		Report:     report,
		Remaining:  remaining,
		OutputPath: outPath,
		Changed:    len(edits),
	}, nil
}
