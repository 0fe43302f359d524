package cli

import (
	"context"
	"fmt"
	"os"

	"questdb/internal/filewalker"
	"questdb/internal/report"
	"questdb/internal/store"
	"questdb/internal/textutil"
	"questdb/internal/validate"
	"questdb/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type checkFlags struct {
	fix          bool
	loadCheck    bool
	requireTable bool
	audit        bool
}

func (a *app) validateCmd() *cobra.Command {
	var f checkFlags
	cmd := &cobra.Command{
		Use:   "validate [path...]",
		Short: "Check database files for structural, duplicate and schema problems",
		Long: `Checks each file (directories are searched for .lua files) and prints a
report grouped by problem kind. Without arguments the configured quest and NPC
databases are checked. With --fix a repaired copy is written next to each input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd, a.databasePaths(args), f)
		},
	}
	cmd.Flags().BoolVar(&f.fix, "fix", false, "Write a repaired _FIXED copy of each file")
	addCheckFlags(cmd, &f)
	return cmd
}

func (a *app) fixCmd() *cobra.Command {
	f := checkFlags{fix: true}
	cmd := &cobra.Command{
		Use:   "fix [path...]",
		Short: "Repair database files into _FIXED copies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd, a.databasePaths(args), f)
		},
	}
	addCheckFlags(cmd, &f)
	return cmd
}

func addCheckFlags(cmd *cobra.Command, f *checkFlags) {
	cmd.Flags().BoolVar(&f.loadCheck, "load-check", false, "Also load each file with a Lua parser")
	cmd.Flags().BoolVar(&f.requireTable, "require-table", false, "Report files without a table open marker")
	cmd.Flags().BoolVar(&f.audit, "audit", false, "Record the run in the audit database")
}

type checkOutcome struct {
	report *validate.Report
	fixed  *validate.FixResult
}

func (a *app) runCheck(cmd *cobra.Command, paths []string, f checkFlags) error {
	ctx := cmd.Context()

	policy, err := a.policy()
	if err != nil {
		return err
	}
	kind, err := a.kindFlag()
	if err != nil {
		return err
	}
	entries, err := filewalker.Discover(paths, kind)
	if err != nil {
		return err
	}

	var auditor *store.Store
	if f.audit {
		auditor, err = a.openStore(ctx)
		if err != nil {
			return err
		}
		defer auditor.Close()
	}

	pool := worker.NewPool(a.cfg.WorkerCount, func(ctx context.Context, e filewalker.FileEntry) (checkOutcome, error) {
		opts, err := a.options(e.Kind, policy)
		if err != nil {
			return checkOutcome{}, err
		}
		opts.LoadCheck = f.loadCheck
		opts.RequireTable = f.requireTable

		if f.fix {
			res, err := validate.FixFile(e.Path, opts)
			return checkOutcome{fixed: res}, err
		}
		r, err := validate.ValidateFile(e.Path, opts)
		return checkOutcome{report: r}, err
	})

	out := cmd.OutOrStdout()
	unresolved := 0
	var firstErr error

	for _, task := range pool.Execute(ctx, entries) {
		switch {
		case task.Skipped:
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", task.Input.Path, context.Cause(ctx))
			}
			continue
		case task.Err != nil:
			if firstErr == nil {
				firstErr = task.Err
			}
			continue
		}

		if f.fix {
			res := task.Result.fixed
			report.Fix(out, res, a.all)
			unresolved += len(res.Remaining.Unresolved())
			a.audit(ctx, auditor, "fix", task.Input, res.Report, res.OutputPath)
			continue
		}

		r := task.Result.report
		report.Validation(out, r, a.all)
		unresolved += len(r.Unresolved())
		a.audit(ctx, auditor, "validate", task.Input, r, "")
	}

	if firstErr != nil {
		return firstErr
	}
	if unresolved > 0 {
		return fmt.Errorf("%d findings need attention: %w", unresolved, ErrIssuesFound)
	}
	return nil
}

// audit records a run when an audit store is open. Failures are logged and
// never fail the command.
func (a *app) audit(ctx context.Context, s *store.Store, command string, e filewalker.FileEntry, r *validate.Report, output string) {
	if s == nil {
		return
	}

	data, err := os.ReadFile(e.Path)
	if err != nil {
		log.Warn().Err(err).Str("path", e.Path).Msg("Skipping audit record")
		return
	}

	run := store.Run{
		Command:    command,
		Path:       e.Path,
		Kind:       string(e.Kind),
		InputHash:  textutil.HashBytes(data),
		Records:    r.Records,
		Issues:     len(r.Issues()),
		Unresolved: len(r.Unresolved()),
		OutputPath: output,
	}
	id, err := s.RecordRun(ctx, run, r.Issues())
	if err != nil {
		log.Warn().Err(err).Str("path", e.Path).Msg("Failed to record audit run")
		return
	}
	log.Debug().Int64("run", id).Str("path", e.Path).Msg("Recorded audit run")
}

func (a *app) dedupeCmd() *cobra.Command {
	var reassignFrom int
	cmd := &cobra.Command{
		Use:   "dedupe [path]",
		Short: "Drop or renumber repeated record ids into a _DEDUPED copy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.QuestDBPath
			if len(args) == 1 {
				path = args[0]
			}

			kind, err := a.kindOf(path)
			if err != nil {
				return err
			}
			policy, err := a.policy()
			if err != nil {
				return err
			}
			opts, err := a.options(kind, policy)
			if err != nil {
				return err
			}

			output, changes, err := validate.DedupeFile(path, opts, reassignFrom)
			if err != nil {
				return err
			}
			report.Dedupe(cmd.OutOrStdout(), path, output, changes)
			return nil
		},
	}
	cmd.Flags().IntVar(&reassignFrom, "reassign-from", 0, "Give repeated records fresh ids from this value instead of dropping them")
	return cmd
}
