package store

import (
	"context"
	"os"
	"testing"

	"questdb/internal/issue"
	"questdb/internal/merge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueRows(t *testing.T) {
	t.Parallel()

	rows := issueRows(7, []issue.Issue{
		{Kind: issue.Schema, RecordID: 12, Line: 3, Field: "startedBy", Message: "unwrapped", Fixed: true},
		{Kind: issue.Structural, Message: "braces"},
	})
	assert.Equal(t, [][]any{
		{int64(7), "SchemaIssue", 12, 3, "startedBy", "unwrapped", true},
		{int64(7), "StructuralIssue", 0, 0, "", "braces", false},
	}, rows)
}

func TestDecisionRows(t *testing.T) {
	t.Parallel()

	rows := decisionRows(2, []merge.Decision{
		{ID: 4, Action: merge.ActionSkippedDuplicate, SecondaryName: "Wolves", PrimaryName: "wolves", ExistingID: 1},
	})
	assert.Equal(t, [][]any{{int64(2), 4, "skipped-duplicate", "wolves", "Wolves", 1}}, rows)
}

// TestStoreRoundTrip runs against a live database named by
// QUESTDB_TEST_DATABASE_URL.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("QUESTDB_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("QUESTDB_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, dsn))

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	path := "round-trip-" + t.Name() + ".lua"
	id, err := s.RecordRun(ctx, Run{Command: "validate", Path: path, Records: 2, Issues: 1, Unresolved: 1},
		[]issue.Issue{{Kind: issue.DuplicateID, RecordID: 5, Line: 9, Message: "dup"}})
	require.NoError(t, err)
	require.NoError(t, s.RecordDecisions(ctx, id, []merge.Decision{{ID: 5, Action: merge.ActionAdded}}))

	runs, err := s.RecentRuns(ctx, path, 5)
	require.NoError(t, err)
	require.NotEmpty(t, runs)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "validate", runs[0].Command)
	assert.Equal(t, 1, runs[0].Unresolved)
}
