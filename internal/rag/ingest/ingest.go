package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/adapter/utils"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/commonModels"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/metrics"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/docstore"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/embedding"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
)

// Validation failures; the handler maps these to 400, everything else to 500.
// The strings are the wire messages the frontend already knows.
var (
	ErrUnsupportedType = errors.New("Only PDF files are supported")
	ErrNoContent       = errors.New("No content found in PDF")
	ErrNoChunks        = errors.New("Failed to process PDF content")
)

var logger *logger_i.Logger

type rawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// Pipeline stages an upload to disk, extracts and splits its text, embeds the
// chunks and registers the built index in the document store.
type Pipeline struct {
	embedder embedding.Embedder
	builder  docstore.Builder
	store    *docstore.Store
	allowed  map[string]bool
}

func NewPipeline(e embedding.Embedder, b docstore.Builder, s *docstore.Store, allowedExtensions string) *Pipeline {
	logger = logger_i.NewLogger("Document Ingestion")

	allowed := make(map[string]bool)
	for _, ext := range strings.Split(allowedExtensions, ",") {
		ext = strings.TrimSpace(strings.ToLower(ext))
		if ext == "" {
			continue
		}
		allowed["."+strings.TrimPrefix(ext, ".")] = true
	}

	return &Pipeline{
		embedder: e,
		builder:  b,
		store:    s,
		allowed:  allowed,
	}
}

// IngestUpload runs the whole pipeline for one uploaded file and returns the
// fresh document id. The temporary on-disk copy is removed on every exit path.
func (p *Pipeline) IngestUpload(ctx context.Context, filename string, payload io.Reader) (string, error) {
	if !p.allowed[strings.ToLower(filepath.Ext(filename))] {
		return "", ErrUnsupportedType
	}

	tmpPath, err := stageTempFile(filename, payload)
	if err != nil {
		return "", fmt.Errorf("staging upload: %w", err)
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil {
			logger.Error("Error removing temp file", "error", err)
		}
	}()

	docType := getDocType(tmpPath)
	if docType == commonModels.ERR {
		return "", ErrUnsupportedType
	}

	pages, err := extractText(tmpPath, docType)
	if err != nil {
		return "", fmt.Errorf("extracting document content: %w", err)
	}
	if !hasContent(pages) {
		return "", ErrNoContent
	}

	docId := utils.GetNewUUID()
	doc := commonModels.Document{
		Id:                  docId,
		Name:                filename,
		LastIngestTimestamp: time.Now(),
		ContentType:         docType,
	}

	chunks := PrepareChunks(pages, doc)
	logger.Debug("Processing document", "filename", filename, "pages", len(pages), "chunks", len(chunks))
	if len(chunks) == 0 {
		return "", ErrNoChunks
	}

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return "", err
	}

	idx, err := p.builder.Build(ctx, docId, chunks, vectors)
	if err != nil {
		return "", fmt.Errorf("building index: %w", err)
	}

	p.store.Save(docId, idx)
	metrics.IncrementDocumentsIngested()
	return docId, nil
}

func (p *Pipeline) embedChunks(ctx context.Context, chunks []commonModels.DocChunk) ([][]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("batch_embedding", time.Since(start)) }()

	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += config.EmbedBatchSize {
		end := i + config.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			texts = append(texts, c.Chunk)
		}

		batch, err := p.embedder.BatchEmbedding(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedding batch returned %d vectors for %d chunks", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func hasContent(pages []rawPage) bool {
	for _, page := range pages {
		if strings.TrimSpace(page.Content) != "" {
			return true
		}
	}
	return false
}

func stageTempFile(originalName string, payload io.Reader) (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", err
	}

	targetDir := filepath.Join(root, config.TempUploadDir)
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", err
	}

	tmpPath := filepath.Join(targetDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(originalName)))
	destination, err := os.Create(tmpPath)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(destination, payload); err != nil {
		destination.Close()
		os.Remove(tmpPath)
		return "", err
	}

	if err := destination.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}
