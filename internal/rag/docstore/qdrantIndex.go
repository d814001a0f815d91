package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/commonModels"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

// Optional backend: one qdrant collection per document. The registry stays
// in-process either way, so the lookup semantics seen by retrieval do not
// change with the backend.

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)

type qdrantBuilder struct {
	client *qdrant.Client
}

func GetQdrantBuilder(ctx context.Context, host string, port int) Builder {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		client, err := qdrant.NewClient(&qdrant.Config{
			Host:     host,
			Port:     port,
			UseTLS:   config.QdrantUseTLS,
			PoolSize: uint(config.QdrantPoolSize),
		})
		if err != nil {
			logger.Error("could not instantiate: ", "error:", err)
			return
		}
		qdrantInstance = client
		go closeQdrant(ctx, qdrantInstance)
	})

	if qdrantInstance == nil {
		return nil
	}
	return &qdrantBuilder{client: qdrantInstance}
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
}

func (b *qdrantBuilder) Build(ctx context.Context, docId string, chunks []commonModels.DocChunk, vectors [][]float32) (Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	collection := config.DocCollectionPrefix + docId
	if err := createCollection(ctx, b.client, collection); err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":       chunk.Chunk,
				"page_num":      chunk.PageNum,
				"chunk_order":   chunk.ChunkPageOrder,
				"source_doc_id": chunk.Doc.Id,
				"doc_name":      chunk.Doc.Name,
				"ingested_at":   chunk.Doc.LastIngestTimestamp.Unix(),
			}),
		}
	}

	_, err := b.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant upsert failed: %w", err)
	}

	return &qdrantIndex{client: b.client, collection: collection}, nil
}

type qdrantIndex struct {
	client     *qdrant.Client
	collection string
}

func (idx *qdrantIndex) Search(ctx context.Context, vector []float32, topK int) ([]string, error) {
	result, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	var matches []string
	for _, hit := range result {
		matches = append(matches, hit.Payload["content"].GetStringValue())
	}
	return matches, nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}
