package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"questdb/internal/compare"
	"questdb/internal/merge"
	"questdb/internal/report"
	"questdb/internal/store"
	"questdb/internal/textutil"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) mergeCmd() *cobra.Command {
	var audit bool
	cmd := &cobra.Command{
		Use:   "merge <primary> <secondary>",
		Short: "Merge a contributed database into the primary one",
		Long: `Writes <primary>_MERGED.lua and <primary>_merge_report.txt next to the
primary file. Records only in the secondary file are added unless their name
already exists under another id. Placeholder records in the primary are
replaced by real secondary records; real primary records are never replaced.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMerge(cmd, args[0], args[1], audit)
		},
	}
	cmd.Flags().BoolVar(&audit, "audit", false, "Record the merge decisions in the audit database")
	return cmd
}

func (a *app) runMerge(cmd *cobra.Command, primary, secondary string, audit bool) error {
	kind, err := a.kindOf(primary)
	if err != nil {
		return err
	}
	policy, err := a.mergePolicy()
	if err != nil {
		return err
	}

	res, err := merge.MergeFiles(primary, secondary, a.locate(kind), policy)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	report.Merge(&buf, res.Report)
	reportPath := merge.ReportPath(primary)
	if err := os.WriteFile(reportPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write merge report: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %s\nWrote %s\n", res.OutputPath, reportPath)

	if audit {
		if err := a.auditMerge(cmd, primary, string(kind), res); err != nil {
			log.Warn().Err(err).Msg("Failed to record merge audit")
		}
	}

	if res.LoadError != nil {
		return fmt.Errorf("merged output does not load: %v: %w", res.LoadError, ErrIssuesFound)
	}
	if n := res.Report.Count(merge.ActionConflict); n > 0 {
		return fmt.Errorf("%d conflicts left for review: %w", n, ErrIssuesFound)
	}
	return nil
}

func (a *app) auditMerge(cmd *cobra.Command, primary, kind string, res *merge.Result) error {
	ctx := cmd.Context()
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := os.ReadFile(primary)
	if err != nil {
		return err
	}

	run := store.Run{
		Command:    "merge",
		Path:       primary,
		Kind:       kind,
		InputHash:  textutil.HashBytes(data),
		Records:    res.Report.MergedCount,
		Issues:     res.Report.Count(merge.ActionConflict),
		Unresolved: res.Report.Count(merge.ActionConflict),
		OutputPath: res.OutputPath,
	}
	id, err := s.RecordRun(ctx, run, nil)
	if err != nil {
		return err
	}
	return s.RecordDecisions(ctx, id, res.Report.Decisions)
}

func (a *app) compareCmd() *cobra.Command {
	var gitRef string
	cmd := &cobra.Command{
		Use:   "compare <old> <new> | compare --git-ref <ref> <path>",
		Short: "Summarise record changes between two versions of a database",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var oldPath, newPath string
			switch {
			case gitRef != "" && len(args) == 1:
				newPath = args[0]
			case gitRef == "" && len(args) == 2:
				oldPath, newPath = args[0], args[1]
			default:
				return errors.New("compare takes two files, or one file with --git-ref")
			}

			kind, err := a.kindOf(newPath)
			if err != nil {
				return err
			}
			policy, err := a.mergePolicy()
			if err != nil {
				return err
			}
			opts := a.locate(kind)

			var old *merge.Collection
			if gitRef != "" {
				old, err = compare.LoadRevision(ctx, gitRef, newPath, opts)
			} else {
				old, err = merge.Load(oldPath, opts)
			}
			if err != nil {
				return err
			}
			cur, err := merge.Load(newPath, opts)
			if err != nil {
				return err
			}

			report.Compare(cmd.OutOrStdout(), compare.Compare(old, cur, policy), a.all)
			return nil
		},
	}
	cmd.Flags().StringVar(&gitRef, "git-ref", "", "Compare the file against its content at this git revision")
	return cmd
}
