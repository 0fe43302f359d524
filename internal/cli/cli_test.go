package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"questdb/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importLine = `local QuestieDB = QuestieLoader:ImportModule("QuestieDB")`

func record(id, size int, name string, set map[int]string) string {
	fields := make([]string, size)
	for i := range fields {
		fields[i] = "nil"
	}
	fields[0] = fmt.Sprintf("%q", name)
	for i, v := range set {
		fields[i] = v
	}
	return fmt.Sprintf("  [%d] = {%s},", id, strings.Join(fields, ","))
}

func questFile(t *testing.T, dir, name string, records ...string) string {
	t.Helper()
	lines := append([]string{importLine, "epochQuestData = {"}, records...)
	lines = append(lines, "}", "QuestieDB._epochQuestData = epochQuestData")
	return writeLines(t, filepath.Join(dir, name), lines)
}

func npcFile(t *testing.T, dir, name string, records ...string) string {
	t.Helper()
	lines := append([]string{importLine, "epochNpcData = {"}, records...)
	lines = append(lines, "}", "QuestieDB._epochNpcData = epochNpcData")
	return writeLines(t, filepath.Join(dir, name), lines)
}

func writeLines(t *testing.T, path string, lines []string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		QuestDBPath: filepath.Join(dir, "epochQuestDB.lua"),
		NPCDBPath:   filepath.Join(dir, "epochNpcDB.lua"),
		QuestTable:  "epochQuestData",
		NPCTable:    "epochNpcData",
		WorkerCount: 2,
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(cfg)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidateCleanFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := questFile(t, dir, "epochQuestDB.lua",
		record(1, 30, "Wolves", nil),
		record(2, 30, "Bears", nil),
	)

	out, err := run(t, testConfig(dir), "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Records: 2")
	assert.Contains(t, out, "No issues found")
}

func TestValidateReportsIssues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := questFile(t, dir, "epochQuestDB.lua",
		record(1, 30, "Wolves", nil),
		record(1, 30, "Wolves again", nil),
	)

	out, err := run(t, testConfig(dir), "validate", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIssuesFound)
	assert.Equal(t, exitIssues, exitCode(err))
	assert.Contains(t, out, "defined 2 times")
}

func TestValidateDefaultsToConfiguredDatabases(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(dir)
	questFile(t, dir, "epochQuestDB.lua", record(1, 30, "Wolves", nil))

	_, err := run(t, cfg, "validate")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIssuesFound)
	assert.Equal(t, exitFatal, exitCode(err))
	assert.Contains(t, err.Error(), "epochNpcDB.lua")
}

func TestFixWritesSibling(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := questFile(t, dir, "epochQuestDB.lua",
		"  epochQuestData"+strings.TrimPrefix(record(1, 30, "Prefixed", nil), "  "),
		strings.TrimSuffix(record(2, 30, "No comma", nil), ","),
		record(3, 30, "Last", nil),
	)

	out, err := run(t, testConfig(dir), "fix", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Output validates clean")

	fixed, err := os.ReadFile(filepath.Join(dir, "epochQuestDB_FIXED.lua"))
	require.NoError(t, err)
	assert.NotContains(t, string(fixed), "epochQuestData[1]")
	assert.Contains(t, string(fixed), `[2] = {"No comma"`)
}

func TestUnknownKind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := questFile(t, dir, "q.lua", record(1, 30, "Wolves", nil))

	_, err := run(t, testConfig(dir), "validate", "--kind", "item", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown kind "item"`)
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := questFile(t, dir, "epochQuestDB.lua",
		record(1, 30, "Wolves", nil),
		record(1, 30, "Wolves again", nil),
	)

	out, err := run(t, testConfig(dir), "dedupe", path, "--reassign-from", "500")
	require.NoError(t, err)
	assert.Contains(t, out, "reassigned to [500]")
	assert.FileExists(t, filepath.Join(dir, "epochQuestDB_DEDUPED.lua"))
}

func TestMergeWritesOutputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	primary := questFile(t, dir, "epochQuestDB.lua",
		record(1, 30, "Wolves", nil),
		record(2, 30, "[Epoch] Quest 2", nil),
	)
	secondary := questFile(t, dir, "contrib.lua",
		record(2, 30, "Bears", nil),
		record(3, 30, "Boars", nil),
	)

	out, err := run(t, testConfig(dir), "merge", primary, secondary)
	require.NoError(t, err)
	assert.Contains(t, out, "Updated placeholders: 1")
	assert.Contains(t, out, "Added: 1")

	saved, err := os.ReadFile(filepath.Join(dir, "epochQuestDB_merge_report.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, string(saved)))
	assert.FileExists(t, filepath.Join(dir, "epochQuestDB_MERGED.lua"))
}

func TestMergeConflictsExitWithIssues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	primary := questFile(t, dir, "epochQuestDB.lua", record(7, 30, "Quest A", nil))
	secondary := questFile(t, dir, "contrib.lua", record(7, 30, "Quest B", nil))

	out, err := run(t, testConfig(dir), "merge", primary, secondary)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIssuesFound)
	assert.Equal(t, exitIssues, exitCode(err))
	assert.Contains(t, out, "Conflicts (primary kept): 1")
	assert.FileExists(t, filepath.Join(dir, "epochQuestDB_MERGED.lua"))
}

func TestCompareFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	old := questFile(t, dir, "old.lua", record(1, 30, "[Epoch] Quest 1", nil))
	cur := questFile(t, dir, "new.lua",
		record(1, 30, "Wolves", nil),
		record(2, 30, "Bears", nil),
	)

	out, err := run(t, testConfig(dir), "compare", old, cur)
	require.NoError(t, err)
	assert.Contains(t, out, "Added (1)")
	assert.Contains(t, out, "Placeholders filled (1)")

	_, err = run(t, testConfig(dir), "compare", old)
	require.Error(t, err)
}

func TestXref(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	quests := questFile(t, dir, "epochQuestDB.lua",
		record(100, 30, "Wolves", map[int]string{1: "{{1}}", 2: "{{7}}"}),
	)
	npcs := npcFile(t, dir, "epochNpcDB.lua",
		record(1, 15, "Bob", map[int]string{9: "{100}"}),
	)

	out, err := run(t, testConfig(dir), "xref", quests, npcs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIssuesFound)
	assert.Contains(t, out, "missing-npc")

	_, err = run(t, testConfig(dir), "xref", quests)
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exitClean, exitCode(nil))
	assert.Equal(t, exitIssues, exitCode(fmt.Errorf("3 findings: %w", ErrIssuesFound)))
	assert.Equal(t, exitFatal, exitCode(errors.New("boom")))
}
