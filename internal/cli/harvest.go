package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"questdb/internal/harvest"
	"questdb/internal/merge"
	"questdb/internal/schema"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) harvestCmd() *cobra.Command {
	var repo, outDir string
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Turn quest submissions from GitHub issues into database additions",
		Long: `Reads every issue of the configured repository, extracts quest and NPC
data from submissions and writes quest additions, NPC additions and a
processing report into the output directory. Quests and NPCs are checked
against the configured databases so only new data is emitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			policy, err := a.mergePolicy()
			if err != nil {
				return err
			}
			quests := a.loadOptional(a.cfg.QuestDBPath, schema.KindQuest)
			npcs := a.loadOptional(a.cfg.NPCDBPath, schema.KindNPC)

			issues, err := harvest.NewClient(repo, a.cfg.GitHubToken).Issues(ctx)
			if err != nil {
				return err
			}

			batch := harvest.Process(issues, harvest.KnownFrom(quests, npcs, policy))
			paths, err := harvest.WriteFiles(outDir, batch, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %d issues: %d quests, %d NPC additions, %d duplicates\n",
				batch.Scanned, len(batch.Quests), len(batch.NPCs), len(batch.Duplicates))
			for _, p := range paths {
				fmt.Fprintf(out, "Wrote %s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&repo, "repo", a.cfg.GitHubRepo, "GitHub repository (owner/name) to read issues from")
	cmd.Flags().StringVar(&outDir, "out", a.cfg.HarvestDir, "Directory for the generated files")
	return cmd
}

// loadOptional loads a database, returning nil when the file does not exist.
func (a *app) loadOptional(path string, kind schema.Kind) *merge.Collection {
	c, err := merge.Load(path, a.locate(kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", path).Msg("Database not found, treating every record as new")
		} else {
			log.Warn().Err(err).Str("path", path).Msg("Could not load database, treating every record as new")
		}
		return nil
	}
	return c
}
