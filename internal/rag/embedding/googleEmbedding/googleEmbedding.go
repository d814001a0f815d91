package googleEmbedding

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/embedding"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = config.EmbeddingOutputDimensionality

type client struct {
	genAi *genai.Client
	model string
}

func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		newGoogleEmbedder(ctx, modelName, apikey)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return &client{genAi: embeddingClient.genAi, model: embeddingClient.model}
}

func newGoogleEmbedder(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Google embedding client:", "error", err)
	}
	if c != nil {
		embeddingClient = &client{
			genAi: c,
			model: modelName,
		}
		logger.Info("Google embedding client created", "model", modelName)
		go closeClient(ctx, embeddingClient)
	}
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Closing Google embedding client")
	embeddingClient.genAi = nil
	embeddingClient.model = ""
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	result, err := c.doCall(ctx, genai.Text(query))
	if err != nil {
		logger.Error("Error getting embedding from Google", "error", err)
		return nil, err
	}
	if len(result.Embeddings) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	result, err := c.doCall(ctx, getContent(chunks))
	if err != nil {
		if doRetry(err, logger) {
			time.Sleep(5 * time.Second)
			result, err = c.doCall(ctx, getContent(chunks))
		}
		if err != nil {
			logger.Error("Error getting batch embeddings from Google", "error", err)
			return nil, err
		}
	}

	var vectors [][]float32
	for _, r := range result.Embeddings {
		vectors = append(vectors, r.Values)
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: "RETRIEVAL_DOCUMENT"})
}

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))
	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

func doRetry(err error, log *logger_i.Logger) bool {
	if s, ok := status.FromError(err); ok {
		if s.Code() == codes.ResourceExhausted {
			log.Error("Rate limit hit!", "error", err)
			return true
		}
	}
	return false
}
