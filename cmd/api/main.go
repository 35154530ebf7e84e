// @title           Knowledge QA API
// @version         1.0
// @description     Document ingestion and retrieval-augmented chat over uploaded documents.
// @termsOfService  http://swagger.io/terms/

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/jxin/knowledgeqa/internal/catalog"
	"github.com/jxin/knowledgeqa/internal/chat"
	"github.com/jxin/knowledgeqa/internal/config"
	"github.com/jxin/knowledgeqa/internal/embedding"
	"github.com/jxin/knowledgeqa/internal/embedding/google"
	"github.com/jxin/knowledgeqa/internal/embedding/openaiembed"
	"github.com/jxin/knowledgeqa/internal/handlers"
	"github.com/jxin/knowledgeqa/internal/ingest"
	"github.com/jxin/knowledgeqa/internal/llm"
	"github.com/jxin/knowledgeqa/internal/llm/gemini"
	"github.com/jxin/knowledgeqa/internal/llm/openaichat"
	"github.com/jxin/knowledgeqa/internal/mcpserver"
	"github.com/jxin/knowledgeqa/internal/memory"
	"github.com/jxin/knowledgeqa/internal/reader"
	"github.com/jxin/knowledgeqa/internal/retrieval"
	"github.com/jxin/knowledgeqa/internal/server"
	"github.com/jxin/knowledgeqa/internal/splitter"
	"github.com/jxin/knowledgeqa/internal/vectorindex"
	"github.com/jxin/knowledgeqa/internal/vectorindex/local"
	"github.com/jxin/knowledgeqa/internal/vectorindex/qdrantindex"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

var listenAddr string

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	_ = godotenv.Load()
	settings := config.Load()
	flag.StringVar(&listenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//embedding provider, Gemini first and OpenAI as the alternative
	var embedder embedding.Embedder
	var err error
	switch {
	case settings.GeminiAPIKey != "":
		embedder, err = google.New(serviceContext, settings.EmbeddingModel, settings.GeminiAPIKey)
	case settings.OpenAIAPIKey != "":
		embedder = openaiembed.New(settings.OpenAIEmbedModel, settings.OpenAIAPIKey)
	default:
		logger.Error("No embedding provider configured, set GEMINI_API_KEY or OPENAI_API_KEY")
		return
	}
	if err != nil {
		logger.Error("Embedding provider failed to initialize", "error", err)
		return
	}

	//vector index, Qdrant when a host is configured and the local on-disk
	//index otherwise
	var index vectorindex.Index
	if settings.QdrantHost != "" {
		index, err = qdrantindex.New(serviceContext, settings.QdrantHost, settings.QdrantPort, config.QdrantCollection, embedder)
	} else {
		index, err = local.New(filepath.Join(settings.DataDir, "index"), embedder)
	}
	if err != nil {
		logger.Error("Vector index failed to initialize", "error", err)
		return
	}

	catalogStore, err := catalog.New(settings.DataDir)
	if err != nil {
		logger.Error("Document catalog failed to initialize", "error", err)
		return
	}

	ingestService, err := ingest.NewService(
		reader.New(),
		splitter.New(settings.ChunkSize, settings.ChunkOverlap),
		index,
		catalogStore,
		filepath.Join(settings.DataDir, "documents"),
	)
	if err != nil {
		logger.Error("Ingestion service failed to initialize", "error", err)
		return
	}

	var provider llm.Provider
	if settings.GeminiAPIKey != "" {
		provider, err = gemini.New(serviceContext, settings.GeminiModel, settings.GeminiAPIKey)
		if err != nil {
			logger.Error("LLM provider failed to initialize", "error", err)
			return
		}
	} else {
		provider = openaichat.New(settings.OpenAIModel, settings.OpenAIAPIKey)
	}

	//session memory, Redis when reachable and in-memory otherwise
	newMemory := func(sessionId string) memory.Store {
		return memory.NewInMemStore(settings.MaxTurns)
	}
	redisClient := redis.NewClient(&redis.Options{Addr: settings.RedisAddr})
	if pingErr := redisClient.Ping(serviceContext).Err(); pingErr == nil {
		logger.Info("Using Redis session history", "addr", settings.RedisAddr)
		newMemory = func(sessionId string) memory.Store {
			return memory.NewRedisStore(redisClient, sessionId, settings.MaxTurns)
		}
	} else {
		logger.Warn("Redis is offline, session history is in-memory only", "error", pingErr)
	}

	tool := retrieval.NewTool(index, settings.TopK)
	chatService := chat.NewService(provider, tool, newMemory)
	handler := handlers.New(ingestService, chatService)

	if settings.MCPAddr != "" {
		go func() {
			if err := mcpserver.NewServer(tool).RunHTTP(serviceContext, settings.MCPAddr); err != nil {
				logger.Error("MCP server stopped", "error", err)
			}
		}()
	}

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, handler)

	<-stopExecution
	logger.Info("Server stopped")
}
