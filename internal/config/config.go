package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Default database locations relative to the addon root.
const (
	DefaultQuestDBPath = "Database/Epoch/epochQuestDB.lua"
	DefaultNPCDBPath   = "Database/Epoch/epochNpcDB.lua"
)

type Config struct {
	QuestDBPath   string
	NPCDBPath     string
	QuestTable    string
	NPCTable      string
	PolicyFile    string
	WorkerCount   int
	DatabaseURL   string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	GitHubRepo    string
	GitHubToken   string
	HarvestDir    string
	LogLevel      zerolog.Level
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		QuestDBPath:   getEnv("QUEST_DB_PATH", DefaultQuestDBPath),
		NPCDBPath:     getEnv("NPC_DB_PATH", DefaultNPCDBPath),
		QuestTable:    getEnv("QUEST_TABLE", "epochQuestData"),
		NPCTable:      getEnv("NPC_TABLE", "epochNpcData"),
		PolicyFile:    getEnv("POLICY_FILE", ""),
		WorkerCount:   getEnvInt("WORKER_COUNT", 1),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", "password"),
		GitHubRepo:    getEnv("GITHUB_REPO", "trav346/Questie"),
		GitHubToken:   getEnv("GITHUB_TOKEN", ""),
		HarvestDir:    getEnv("HARVEST_DIR", "processed_submissions"),
		LogLevel:      getEnvLevel("LOG_LEVEL", zerolog.InfoLevel),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvLevel(key string, fallback zerolog.Level) zerolog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(v))
	if err != nil {
		return fallback
	}
	return lvl
}
