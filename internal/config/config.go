package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//a single agent turn is bounded by this, tool rounds included
	LLMCallTimeout = 30 * time.Second
	//rounds of tool-calling the agent host loop allows before forcing an answer
	MaxToolRounds = 4

	//llm + embeddings
	GeminiModelName               = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel          = "gemini-embedding-001"
	OpenAIModelName               = "gpt-4o-mini"
	OpenAIEmbeddingModel          = "text-embedding-3-small"
	EmbeddingOutputDimensionality = int32(1536)
	ModelTemperature              = float32(0.2)

	//ingestion defaults
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
	DefaultTopK         = 3
	DefaultMaxTurns     = 10

	//data layout: documents + catalog + local index all live under DataDir
	DefaultDataDir = "./data"

	//vectorDB
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false
	QdrantPoolSize         = 1
	QdrantCollection       = "knowledge-chunks"
	QdrantKeepAliveTimeout = 30 * time.Second

	//redis
	RedisAddr           = "127.0.0.1:6379"
	RedisMemoryStoreTTL = 24 * time.Hour

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second
)

// Settings is everything the wiring in main needs. Values come from
// environment variables with the package constants as fallbacks, so a bare
// `go run` against local services works without any env set up.
type Settings struct {
	ListenAddr string
	MCPAddr    string //empty disables the MCP surface

	DataDir      string
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	MaxTurns     int

	GeminiAPIKey     string
	GeminiModel      string
	EmbeddingModel   string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIEmbedModel string

	QdrantHost string //empty falls back to the local on-disk index
	QdrantPort int

	RedisAddr string
}

func Load() Settings {
	return Settings{
		ListenAddr:       envString("LISTEN_ADDR", ServerListenAddr),
		MCPAddr:          envString("MCP_LISTEN_ADDR", ""),
		DataDir:          envString("DATA_DIR", DefaultDataDir),
		ChunkSize:        envInt("CHUNK_SIZE", DefaultChunkSize),
		ChunkOverlap:     envInt("CHUNK_OVERLAP", DefaultChunkOverlap),
		TopK:             envInt("RETRIEVAL_TOP_K", DefaultTopK),
		MaxTurns:         envInt("MAX_HISTORY_TURNS", DefaultMaxTurns),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      envString("GEMINI_MODEL", GeminiModelName),
		EmbeddingModel:   envString("EMBEDDING_MODEL", GoogleEmbeddingModel),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      envString("OPENAI_MODEL", OpenAIModelName),
		OpenAIEmbedModel: envString("OPENAI_EMBEDDING_MODEL", OpenAIEmbeddingModel),
		QdrantHost:       os.Getenv("QDRANT_HOST"),
		QdrantPort:       envInt("QDRANT_PORT", QdrantGrpcPort),
		RedisAddr:        envString("REDIS_ADDR", RedisAddr),
	}
}

func envString(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
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
