package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// QuestRef is a quest linked to an NPC in the graph.
type QuestRef struct {
	ID   int64
	Name string
	Rel  string
}

// NPCResult holds an NPC and its quests as stored in the graph.
type NPCResult struct {
	ID     int64
	Name   string
	Quests []QuestRef
}

// GraphQuerier reads exported relations back from Neo4j.
type GraphQuerier struct {
	driver neo4j.DriverWithContext
}

// NewGraphQuerier creates a new graph querier.
func NewGraphQuerier(driver neo4j.DriverWithContext) *GraphQuerier {
	return &GraphQuerier{driver: driver}
}

// NPCQuests returns the quests an NPC starts or ends.
func (gq *GraphQuerier) NPCQuests(ctx context.Context, npcID int) (*NPCResult, error) {
	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (n:NPC {id: $id})
		OPTIONAL MATCH (n)-[r]->(q:Quest)
		RETURN n.name AS npc_name, q.id AS quest_id, q.name AS quest_name, type(r) AS rel_type
		ORDER BY q.id
	`, map[string]any{"id": npcID})
	if err != nil {
		return nil, fmt.Errorf("query npc %d: %w", npcID, err)
	}

	var out *NPCResult
	for result.Next(ctx) {
		record := result.Record()
		if out == nil {
			name, _ := record.Get("npc_name")
			out = &NPCResult{ID: int64(npcID), Name: stringOf(name)}
		}

		qid, _ := record.Get("quest_id")
		id, ok := qid.(int64)
		if !ok {
			continue
		}
		qname, _ := record.Get("quest_name")
		rel, _ := record.Get("rel_type")
		out.Quests = append(out.Quests, QuestRef{ID: id, Name: stringOf(qname), Rel: stringOf(rel)})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read npc %d: %w", npcID, err)
	}
	if out == nil {
		return nil, fmt.Errorf("npc %d not in graph", npcID)
	}

	log.Debug().Int("npc", npcID).Int("quests", len(out.Quests)).Msg("Graph query complete")
	return out, nil
}

// Counts returns the number of nodes per label and of relationships.
func (gq *GraphQuerier) Counts(ctx context.Context) (map[string]int64, error) {
	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (q:Quest) WITH count(q) AS quests
		MATCH (n:NPC) WITH quests, count(n) AS npcs
		OPTIONAL MATCH (:NPC)-[r]->(:Quest)
		RETURN quests, npcs, count(r) AS links
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("count graph: %w", err)
	}

	counts := make(map[string]int64)
	if result.Next(ctx) {
		record := result.Record()
		for _, key := range []string{"quests", "npcs", "links"} {
			v, _ := record.Get(key)
			n, _ := v.(int64)
			counts[key] = n
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("count graph: %w", err)
	}

	log.Info().Int64("quests", counts["quests"]).Int64("npcs", counts["npcs"]).Int64("links", counts["links"]).Msg("Graph totals")
	return counts, nil
}

func stringOf(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
