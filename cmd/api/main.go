package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/data/store"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/chatModel"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/handlers"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/middleware"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/docstore"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/embedding"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/embedding/googleEmbedding"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/embedding/openaiEmbedding"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/ingest"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/llm/hfrouter"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/server"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
)

var listenAddr string

func main() {

	//.env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	settings, err := config.Load()
	if err != nil {
		logger.Error("Failed to load settings", "error", err)
		return
	}

	flag.StringVar(&listenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	embedder := buildEmbedder(serviceContext, settings, logger)
	if embedder == nil {
		logger.Error("Embedding service failed to initialize. Shutting down.")
		return
	}

	builder := buildIndexBuilder(serviceContext, settings, logger)
	if builder == nil {
		logger.Error("Vector backend failed to initialize. Shutting down.")
		return
	}

	llmProvider := hfrouter.NewClient(settings.CompletionAPIURL, settings.HuggingFaceToken, settings.CompletionModel)

	messageStore := buildMessageStore(serviceContext, settings, logger)
	answerCache := buildAnswerCache(serviceContext, settings, logger)

	docStore := docstore.NewStore()
	pipeline := ingest.NewPipeline(embedder, builder, docStore, settings.AllowedExtensions)
	ragService := rag.NewService(pipeline, docStore, embedder, llmProvider, messageStore, answerCache)

	ragHandler := handlers.NewRagHandler(ragService)
	chain := middleware.NewChain(settings)

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
	go server.CreateServer(listenAddr, chain, ragHandler)

	<-stopExecution
	logger.Info("Server stopped")
}

func buildEmbedder(ctx context.Context, settings config.Settings, logger *logger_i.Logger) embedding.Embedder {
	switch settings.EmbeddingProvider {
	case "google":
		return googleEmbedding.GetGoogleEmbeddingClient(ctx, settings.GoogleEmbeddingModel, settings.GoogleAPIKey)
	case "openai":
		return openaiEmbedding.GetOpenAIEmbeddingClient(settings.OpenAIEmbeddingModel, settings.OpenAIAPIKey)
	default:
		logger.Error("Unknown embedding provider", "provider", settings.EmbeddingProvider)
		return nil
	}
}

func buildIndexBuilder(ctx context.Context, settings config.Settings, logger *logger_i.Logger) docstore.Builder {
	switch settings.VectorBackend {
	case "qdrant":
		return docstore.GetQdrantBuilder(ctx, settings.QdrantHost, settings.QdrantPort)
	case "memory":
		return docstore.NewMemoryBuilder()
	default:
		logger.Error("Unknown vector backend", "backend", settings.VectorBackend)
		return nil
	}
}

func buildMessageStore(ctx context.Context, settings config.Settings, logger *logger_i.Logger) chatModel.MessageStore {
	var (
		messageStore chatModel.MessageStore
		err          error
	)
	if strings.HasPrefix(settings.DatabaseURL, "postgres://") || strings.HasPrefix(settings.DatabaseURL, "postgresql://") {
		messageStore, err = store.NewPostgresMessageStore(ctx, settings.DatabaseURL)
	} else {
		messageStore, err = store.NewSqliteMessageStore(ctx, settings.DatabaseURL)
	}
	if err != nil {
		logger.Error("Message store is offline, falling back to in-memory", "error", err)
		return store.InitMessageStore()
	}
	return messageStore
}

func buildAnswerCache(ctx context.Context, settings config.Settings, logger *logger_i.Logger) chatModel.AnswerCache {
	if settings.RedisAddr != "" {
		if cache := store.GetRedisAnswerCache(ctx, settings.RedisAddr); cache != nil {
			return cache
		}
		logger.Error("Redis answer cache is offline, falling back to in-memory")
	}
	return store.InitAnswerCache()
}
