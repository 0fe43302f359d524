// Package graph extracts quest/NPC relations and mirrors them into Neo4j.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// GraphBuilder upserts quest and NPC nodes and their links.
type GraphBuilder struct {
	driver neo4j.DriverWithContext
}

// NewGraphBuilder creates a new graph builder.
func NewGraphBuilder(driver neo4j.DriverWithContext) *GraphBuilder {
	return &GraphBuilder{driver: driver}
}

// EnsureSchema creates uniqueness constraints on the node ids.
func (gb *GraphBuilder) EnsureSchema(ctx context.Context) error {
	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (q:Quest) REQUIRE q.id IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (n:NPC) REQUIRE n.id IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// ExportStats counts what an export wrote.
type ExportStats struct {
	Quests int
	NPCs   int
	Links  int
	Failed int
}

// Export upserts every node and link of r. Links whose endpoints are
// missing are created against stub nodes so broken references stay visible.
func (gb *GraphBuilder) Export(ctx context.Context, r *Relations) (ExportStats, error) {
	var stats ExportStats

	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	for id, name := range r.Quests {
		_, err := session.Run(ctx, `
			MERGE (q:Quest {id: $id})
			SET q.name = $name
		`, map[string]any{"id": id, "name": name})
		if err != nil {
			return stats, fmt.Errorf("upsert quest %d: %w", id, err)
		}
		stats.Quests++
	}

	log.Info().Int("quests", stats.Quests).Msg("Exported quest nodes")

	for id, name := range r.NPCs {
		_, err := session.Run(ctx, `
			MERGE (n:NPC {id: $id})
			SET n.name = $name
		`, map[string]any{"id": id, "name": name})
		if err != nil {
			return stats, fmt.Errorf("upsert npc %d: %w", id, err)
		}
		stats.NPCs++
	}

	log.Info().Int("npcs", stats.NPCs).Msg("Exported NPC nodes")

	for _, l := range r.Links() {
		// Relationship types cannot be parameters; RelType is a closed set.
		_, err := session.Run(ctx, fmt.Sprintf(`
			MERGE (n:NPC {id: $npc})
			MERGE (q:Quest {id: $quest})
			MERGE (n)-[:%s]->(q)
		`, l.Rel), map[string]any{
			"npc":   l.NPC,
			"quest": l.Quest,
		})
		if err != nil {
			stats.Failed++
			log.Warn().Err(err).
				Int("npc", l.NPC).
				Int("quest", l.Quest).
				Str("rel", string(l.Rel)).
				Msg("Failed to create relationship")
			continue
		}
		stats.Links++
	}

	log.Info().Int("links", stats.Links).Int("failed", stats.Failed).Msg("Exported relationships")
	return stats, nil
}
