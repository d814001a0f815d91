package docstore

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/commonModels"
)

// MemoryBuilder builds in-process indexes. This is the default backend: the
// whole document store is lost on restart, which is the accepted contract.
type MemoryBuilder struct{}

func NewMemoryBuilder() *MemoryBuilder {
	return &MemoryBuilder{}
}

func (b *MemoryBuilder) Build(ctx context.Context, docId string, chunks []commonModels.DocChunk, vectors [][]float32) (Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Chunk
	}
	return &memoryIndex{chunks: texts, vectors: vectors}, nil
}

type memoryIndex struct {
	chunks  []string
	vectors [][]float32
}

func (idx *memoryIndex) Search(ctx context.Context, vector []float32, topK int) ([]string, error) {
	type scored struct {
		chunk string
		score float64
	}

	results := make([]scored, 0, len(idx.chunks))
	for i, chunk := range idx.chunks {
		results = append(results, scored{
			chunk: chunk,
			score: cosineSimilarity(vector, idx.vectors[i]),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	//no relevance cutoff: the top matches come back even when they score low
	matches := make([]string, len(results))
	for i, r := range results {
		matches[i] = r.chunk
	}
	return matches, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
