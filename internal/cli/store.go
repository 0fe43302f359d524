package cli

import (
	"errors"

	"questdb/internal/report"
	"questdb/internal/store"

	"github.com/spf13/cobra"
)

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the audit database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			return store.Migrate(cmd.Context(), a.cfg.DatabaseURL)
		},
	}
}

func (a *app) runsCmd() *cobra.Command {
	var (
		path  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded validate, fix and merge runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.RecentRuns(ctx, path, limit)
			if err != nil {
				return err
			}
			report.Runs(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Only show runs against this file")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}
