package rag

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/adapter/utils"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/chatModel"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/metrics"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/docstore"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/embedding"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/ingest"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/llm"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
)

// ErrDocNotFound means the referenced document id was never ingested (or the
// process restarted since). The caller turns this into a 404; any user message
// already persisted for the turn stays persisted.
var ErrDocNotFound = errors.New("Document not found")

type StreamEventType string

const (
	StreamUserMessage       StreamEventType = "user_message"
	StreamAIMessageStart    StreamEventType = "ai_message_start"
	StreamToken             StreamEventType = "token"
	StreamAIMessageComplete StreamEventType = "ai_message_complete"
)

type StreamEvent struct {
	Type      StreamEventType
	Message   chatModel.ChatMessage //user_message and ai_message_complete
	Id        string                //ai_message_start
	Timestamp time.Time             //ai_message_start
	Token     string                //token
}

// Service is the public contract; handlers never see the wired dependencies.
type Service interface {
	IngestDocument(ctx context.Context, filename string, payload io.Reader) (string, error)
	AskDocument(ctx context.Context, docId string, question string) (string, error)
	Chat(ctx context.Context, userId string, docId string, question string) (chatModel.ChatMessage, chatModel.ChatMessage, error)
	ChatStream(ctx context.Context, userId string, docId string, question string) (<-chan StreamEvent, error)
	Messages(ctx context.Context, userId string) ([]chatModel.ChatMessage, error)
}

type service struct {
	pipeline    *ingest.Pipeline
	docStore    *docstore.Store
	embedder    embedding.Embedder
	llmProvider llm.Provider
	messages    chatModel.MessageStore
	cache       chatModel.AnswerCache
	logger      *logger_i.Logger
}

// NewService constructor. cache may be nil; caching is best-effort.
func NewService(pipeline *ingest.Pipeline, store *docstore.Store, em embedding.Embedder, provider llm.Provider, messages chatModel.MessageStore, cache chatModel.AnswerCache) Service {
	return &service{
		pipeline:    pipeline,
		docStore:    store,
		embedder:    em,
		llmProvider: provider,
		messages:    messages,
		cache:       cache,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) IngestDocument(ctx context.Context, filename string, payload io.Reader) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()
	return s.pipeline.IngestUpload(ctx, filename, payload)
}

// AskDocument answers a one-shot question over an uploaded document. Nothing
// is persisted on this path.
func (s *service) AskDocument(ctx context.Context, docId string, question string) (string, error) {
	contextText, err := s.resolveContext(ctx, docId, question)
	if errors.Is(err, ErrDocNotFound) {
		return "", err
	}
	return s.generateAnswer(ctx, docId, contextText, question, err), nil
}

// Chat runs one blocking question-answer turn: persist the user message,
// resolve context, generate, persist the assistant message. The sequence
// never branches back; a missing document aborts after step one with the user
// message kept (no compensating rollback).
func (s *service) Chat(ctx context.Context, userId string, docId string, question string) (chatModel.ChatMessage, chatModel.ChatMessage, error) {
	start := time.Now()
	defer func() { metrics.CaptureTurnMetrics("blocking", time.Since(start)) }()

	userMsg := newMessage(userId, question, true, docId)
	if err := s.messages.SaveMessage(ctx, userMsg); err != nil {
		return chatModel.ChatMessage{}, chatModel.ChatMessage{}, err
	}

	var contextText string
	var resolveErr error
	if docId != "" {
		contextText, resolveErr = s.resolveContext(ctx, docId, question)
		if errors.Is(resolveErr, ErrDocNotFound) {
			return chatModel.ChatMessage{}, chatModel.ChatMessage{}, resolveErr
		}
	}

	answer := s.generateAnswer(ctx, docId, contextText, question, resolveErr)

	aiMsg := newMessage(userId, answer, false, docId)
	if err := s.messages.SaveMessage(ctx, aiMsg); err != nil {
		return chatModel.ChatMessage{}, chatModel.ChatMessage{}, err
	}
	return userMsg, aiMsg, nil
}

// ChatStream is the streaming variant. Context resolution happens before any
// frame goes out so a missing document can still 404. If the consumer's
// context is cancelled mid-relay the upstream stream is abandoned and the
// partial answer is NOT persisted.
func (s *service) ChatStream(ctx context.Context, userId string, docId string, question string) (<-chan StreamEvent, error) {
	start := time.Now()

	userMsg := newMessage(userId, question, true, docId)
	if err := s.messages.SaveMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	var contextText string
	var resolveErr error
	if docId != "" {
		contextText, resolveErr = s.resolveContext(ctx, docId, question)
		if errors.Is(resolveErr, ErrDocNotFound) {
			return nil, resolveErr
		}
	}

	events := make(chan StreamEvent, 8)
	metrics.IncrementActiveStreamCount()

	go func() {
		defer close(events)
		defer metrics.DecrementActiveStreamCount()
		defer func() { metrics.CaptureTurnMetrics("streaming", time.Since(start)) }()

		send := func(ev StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(StreamEvent{Type: StreamUserMessage, Message: userMsg}) {
			return
		}
		if !send(StreamEvent{Type: StreamAIMessageStart, Id: utils.GetNewUUID(), Timestamp: time.Now()}) {
			return
		}

		var tokens <-chan string
		if resolveErr != nil {
			// retrieval failed after the document was found; degrade to a
			// single in-band error fragment like an upstream failure would
			c := make(chan string, 1)
			c <- llm.FallbackText(resolveErr)
			close(c)
			tokens = c
		} else {
			tokens = s.executeStreamStep(ctx, contextText, question)
		}

		var fullResponse strings.Builder
		for token := range tokens {
			fullResponse.WriteString(token)
			if !send(StreamEvent{Type: StreamToken, Token: token}) {
				return
			}
			// pacing delay smooths perceived delivery on the frontend
			select {
			case <-time.After(config.StreamTokenDelay):
			case <-ctx.Done():
				return
			}
		}
		if ctx.Err() != nil {
			return
		}

		// stored as streamed, without the cleanup pass, so LaTeX survives
		aiMsg := newMessage(userId, fullResponse.String(), false, docId)
		if err := s.messages.SaveMessage(ctx, aiMsg); err != nil {
			s.logger.Error("Failed to persist streamed answer", "error", err)
		}
		send(StreamEvent{Type: StreamAIMessageComplete, Message: aiMsg})
	}()

	return events, nil
}

func (s *service) Messages(ctx context.Context, userId string) ([]chatModel.ChatMessage, error) {
	return s.messages.ListByUser(ctx, userId)
}

func newMessage(userId string, content string, isUser bool, docId string) chatModel.ChatMessage {
	return chatModel.ChatMessage{
		Id:        utils.GetNewUUID(),
		UserId:    userId,
		Content:   content,
		IsUser:    isUser,
		Timestamp: time.Now(),
		DocId:     docId,
	}
}
