package openaiEmbedding

import (
	"context"
	"errors"
	"sync"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/embedding"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	api   openai.Client
	model string
}

func GetOpenAIEmbeddingClient(modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		if apikey == "" {
			logger.Error("OpenAI API key is empty")
			return
		}
		embeddingClient = &client{
			api:   openai.NewClient(option.WithAPIKey(apikey)),
			model: modelName,
		}
		logger.Info("OpenAI embedding client created")
	})

	if embeddingClient == nil {
		return nil
	}
	return embeddingClient
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.doCall(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	return c.doCall(ctx, chunks)
}

func (c *client) doCall(ctx context.Context, input []string) ([][]float32, error) {
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: input},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		logger.Error("Error getting embeddings from OpenAI", "error", err)
		return nil, err
	}

	vectors := make([][]float32, 0, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}
