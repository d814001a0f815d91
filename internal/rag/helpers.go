package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/metrics"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/docstore"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/llm"
)

// resolveContext looks the document up, embeds the question and returns the
// top matches joined by blank lines. ErrDocNotFound is the only error the
// caller is expected to branch on.
func (s *service) resolveContext(ctx context.Context, docId string, question string) (string, error) {
	idx, ok := s.docStore.Get(docId)
	if !ok {
		return "", ErrDocNotFound
	}

	vector, err := s.executeEmbeddingStep(ctx, question)
	if err != nil {
		return "", err
	}

	matches, err := s.executeSearchStep(ctx, idx, vector)
	if err != nil {
		return "", err
	}
	return strings.Join(matches, "\n\n"), nil
}

// generateAnswer produces the answer text for the non-streaming paths.
// Failures never escape: they degrade to the legacy error text, which the
// caller persists like a genuine reply.
func (s *service) generateAnswer(ctx context.Context, docId string, contextText string, question string, resolveErr error) string {
	if resolveErr != nil {
		s.logger.Error("Context resolution failed", "error", resolveErr)
		return llm.CleanOutput(llm.FallbackText(resolveErr))
	}

	key := cacheKey(docId, question)
	if s.cache != nil {
		if answer, found := s.executeCacheCheckStep(ctx, key); found {
			metrics.IncrementAnswerCacheHits()
			return answer
		}
	}

	answer, err := s.executeCompletionStep(ctx, contextText, question)
	if err != nil {
		s.logger.Error("Completion failed", "error", err)
		return llm.CleanOutput(llm.FallbackText(err))
	}
	answer = llm.CleanOutput(answer)

	if s.cache != nil {
		go func() {
			if err := s.cache.SaveAnswer(context.Background(), key, answer); err != nil {
				s.logger.Error("Failed to save to cache", "error", err)
			}
		}()
	}
	return answer
}

func (s *service) executeEmbeddingStep(ctx context.Context, question string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()
	return s.embedder.GetEmbedding(ctx, question)
}

func (s *service) executeSearchStep(ctx context.Context, idx docstore.Index, vector []float32) ([]string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()
	return idx.Search(ctx, vector, config.RetrievalTopK)
}

func (s *service) executeCacheCheckStep(ctx context.Context, key string) (string, bool) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()
	return s.cache.GetAnswer(ctx, key)
}

func (s *service) executeCompletionStep(ctx context.Context, contextText string, question string) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()
	return s.llmProvider.Complete(ctx, contextText, question)
}

func (s *service) executeStreamStep(ctx context.Context, contextText string, question string) <-chan string {
	return s.llmProvider.Stream(ctx, contextText, question)
}

func cacheKey(docId string, question string) string {
	sum := sha256.Sum256([]byte(docId + "\x00" + question))
	return "answer:" + hex.EncodeToString(sum[:])
}
