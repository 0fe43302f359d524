package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"QUEST_DB_PATH", "WORKER_COUNT", "LOG_LEVEL", "GITHUB_REPO"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, DefaultQuestDBPath, cfg.QuestDBPath)
	assert.Equal(t, 1, cfg.WorkerCount)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "trav346/Questie", cfg.GitHubRepo)
	assert.Equal(t, "epochQuestData", cfg.QuestTable)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("QUEST_DB_PATH", "q.lua")
	t.Setenv("WORKER_COUNT", "4")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()
	assert.Equal(t, "q.lua", cfg.QuestDBPath)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)

	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("LOG_LEVEL", "loud")
	cfg = Load()
	assert.Equal(t, 1, cfg.WorkerCount)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}
