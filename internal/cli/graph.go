package cli

import (
	"fmt"
	"strconv"

	"questdb/internal/graph"
	"questdb/internal/merge"
	"questdb/internal/report"
	"questdb/internal/schema"

	"github.com/spf13/cobra"
)

// loadPair loads the quest and NPC databases named by args, or the
// configured ones.
func (a *app) loadPair(args []string) (*merge.Collection, *merge.Collection, error) {
	questPath, npcPath := a.cfg.QuestDBPath, a.cfg.NPCDBPath
	if len(args) == 2 {
		questPath, npcPath = args[0], args[1]
	}

	quests, err := merge.Load(questPath, a.locate(schema.KindQuest))
	if err != nil {
		return nil, nil, fmt.Errorf("load quests: %w", err)
	}
	npcs, err := merge.Load(npcPath, a.locate(schema.KindNPC))
	if err != nil {
		return nil, nil, fmt.Errorf("load NPCs: %w", err)
	}
	return quests, npcs, nil
}

func (a *app) xrefCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "xref [quest-db npc-db]",
		Short: "Cross-check quest givers and turn-ins against the NPC database",
		Args:  pairArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			quests, npcs, err := a.loadPair(args)
			if err != nil {
				return err
			}

			relations := graph.Extract(quests, npcs)
			problems := relations.Check()
			report.Xref(cmd.OutOrStdout(), relations, problems, a.all)

			if len(problems) > 0 {
				return fmt.Errorf("%d cross-reference problems: %w", len(problems), ErrIssuesFound)
			}
			return nil
		},
	}
}

func (a *app) exportGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-graph [quest-db npc-db]",
		Short: "Export quest and NPC relations to Neo4j",
		Args:  pairArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			quests, npcs, err := a.loadPair(args)
			if err != nil {
				return err
			}

			driver, err := a.openGraph(ctx)
			if err != nil {
				return err
			}
			defer driver.Close(ctx)

			builder := graph.NewGraphBuilder(driver)
			if err := builder.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure graph schema: %w", err)
			}

			stats, err := builder.Export(ctx, graph.Extract(quests, npcs))
			if err != nil {
				return err
			}

			counts, err := graph.NewGraphQuerier(driver).Counts(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %d quests, %d NPCs, %d links (%d failed)\n", stats.Quests, stats.NPCs, stats.Links, stats.Failed)
			fmt.Fprintf(out, "Graph now holds %d quests, %d NPCs, %d links\n", counts["quests"], counts["npcs"], counts["links"])

			if stats.Failed > 0 {
				return fmt.Errorf("%d graph writes failed: %w", stats.Failed, ErrIssuesFound)
			}
			return nil
		},
	}
}

func (a *app) npcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "npc <id>",
		Short: "List the quests an NPC starts or ends, from the exported graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid NPC id %q", args[0])
			}

			driver, err := a.openGraph(ctx)
			if err != nil {
				return err
			}
			defer driver.Close(ctx)

			res, err := graph.NewGraphQuerier(driver).NPCQuests(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d %s\n", res.ID, res.Name)
			for _, q := range res.Quests {
				fmt.Fprintf(out, "  %-6s %d %s\n", q.Rel, q.ID, q.Name)
			}
			return nil
		},
	}
}

// pairArgs accepts no arguments or a quest and NPC path.
func pairArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 2 {
		return fmt.Errorf("accepts 0 or 2 arg(s), received %d", len(args))
	}
	return nil
}
