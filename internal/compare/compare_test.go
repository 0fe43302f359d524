package compare

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"questdb/internal/merge"
	"questdb/internal/parser"
	"questdb/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var opts = parser.LocateOptions{Table: "epochQuestData"}

func collection(path string, records ...string) *merge.Collection {
	lines := append([]string{"epochQuestData = {"}, records...)
	lines = append(lines, "}")
	return merge.FromLines(path, lines, opts)
}

func policy(t *testing.T) merge.Policy {
	t.Helper()
	p, err := merge.NewPolicy(schema.DefaultPolicy().Placeholders)
	require.NoError(t, err)
	return p
}

func TestCompare(t *testing.T) {
	t.Parallel()

	old := collection("old.lua",
		`  [1] = {"Wolves"},`,
		`  [2] = {"[Epoch] Quest 2"},`,
		`  [3] = {"Gone"},`,
		`  [4] = {"Bears"},`,
	)
	cur := collection("new.lua",
		`  [1] = {"wolves"},`,
		`  [2] = {"The Real Two"},`,
		`  [4] = {"Big Bears"},`,
		`  [5] = {"[Placeholder] Five"},`,
	)

	res := Compare(old, cur, policy(t))
	assert.Equal(t, Stats{Total: 4, Placeholders: 1, Real: 3}, res.Old)
	assert.Equal(t, Stats{Total: 4, Placeholders: 1, Real: 3}, res.New)
	assert.Equal(t, []int{5}, res.Added)
	assert.Equal(t, []int{3}, res.Removed)
	assert.Equal(t, []Rename{{ID: 2, Old: "[Epoch] Quest 2", New: "The Real Two"}}, res.Filled)
	assert.Equal(t, []Rename{{ID: 4, Old: "Bears", New: "Big Bears"}}, res.Renamed)
	assert.True(t, res.Changed())

	same := Compare(old, old, policy(t))
	assert.False(t, same.Changed())
}

func TestLoadRevisionFromGit(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-c", "user.name=t", "-c", "user.email=t@example.com"}, args...)...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	path := filepath.Join(dir, "quests.lua")
	require.NoError(t, os.WriteFile(path, []byte("epochQuestData = {\n  [1] = {\"Old\"},\n}\n"), 0o644))
	git("init", "-q")
	git("add", "quests.lua")
	git("commit", "-q", "-m", "first")
	require.NoError(t, os.WriteFile(path, []byte("epochQuestData = {\n  [1] = {\"New\"},\n  [2] = {\"Two\"},\n}\n"), 0o644))

	c, err := LoadRevision(context.Background(), "HEAD", path, opts)
	require.NoError(t, err)
	assert.Equal(t, path+"@HEAD", c.Path)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "Old", c.Entries[1].Name)

	_, err = LoadRevision(context.Background(), "no-such-ref", path, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git show no-such-ref")
}
