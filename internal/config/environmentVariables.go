package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"
	USER_ID_KEY    = "userId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//chunking - matches the splitter parameters the frontend was tuned against
	ChunkSize      = 1000
	ChunkOverlap   = 100
	RetrievalTopK  = 4
	EmbedBatchSize = 100

	EmbeddingOutputDimensionality int32 = 1536

	//streaming relay
	//flush the token buffer on whitespace, on this length, or on trailing punctuation
	FlushMaxBufferLen = 20
	FlushPunctuation  = ".!?:;,)}]\"'"
	StreamTokenDelay  = 50 * time.Millisecond

	//serverTimeouts
	ReadTimeout = 5 * time.Second
	//WriteTimeout must outlive the longest token stream, not just a single JSON response
	WriteTimeout           = 5 * time.Minute
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//outbound completion calls carried no timeout upstream; bounding them is a
	//deliberate deviation for resource safety
	LLMRequestTimeout = 2 * time.Minute

	//uploads
	MaxUploadSize = 10 << 20 //10mb
	TempUploadDir = "temporary_data"

	//vectorDB (only used when the qdrant backend is selected)
	QdrantUseTLS           = false
	QdrantPoolSize         = 1
	QdrantKeepAliveTimeout = 30 * time.Second
	DocCollectionPrefix    = "doc-"

	//http connection pooling for the completion client
	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//answer cache
	AnswerCacheTTL = 24 * time.Hour

	//redis timeouts
	RedisReadTimeout  = 30 * time.Second
	RedisWriteTimeout = 30 * time.Second
	RedisPassword     = ""
)
