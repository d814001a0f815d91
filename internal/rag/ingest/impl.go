package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/adapter/utils"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/commonModels"
)

//splitter

func splitTextIntoChunks(text string, limit int, overlap int) []string {
	var chunks []string

	// If text is already small enough, just return it
	if len(text) <= limit {
		return []string{text}
	}

	// Separators ordered from "best" to "worst" for semantic meaning
	separators := []string{"\n\n", "\n", ". ", " ", ""}

	var splitChar string
	found := false
	for _, s := range separators {
		if strings.Contains(text, s) {
			splitChar = s
			found = true
			break
		}
	}

	if !found {
		// Hard cut if no separator found (rare)
		return []string{text[:limit]}
	}

	parts := strings.Split(text, splitChar)
	var currentChunk strings.Builder

	for _, part := range parts {
		// If adding the part exceeds the limit
		if currentChunk.Len()+len(part)+len(splitChar) > limit {
			if currentChunk.Len() > 0 {
				chunks = append(chunks, currentChunk.String())
			}

			// Handle overlap: start the next chunk with the end of the previous one
			overlapContent := ""
			if currentChunk.Len() > overlap {
				overlapContent = currentChunk.String()[currentChunk.Len()-overlap:]
			}

			currentChunk.Reset()
			currentChunk.WriteString(overlapContent)
		}

		if currentChunk.Len() > 0 && splitChar != "" {
			currentChunk.WriteString(splitChar)
		}
		currentChunk.WriteString(part)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}

func getDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".txt", ".rtf":
		return commonModels.DOCX
	default:
		return commonModels.ERR
	}
}

func extractText(path string, contentType commonModels.DocType) ([]rawPage, error) {
	switch contentType {
	case commonModels.PDF:
		return extractPDF(path)
	case commonModels.DOCX:
		return extractdocxTxtRtf(path)
	default:
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
}

func PrepareChunks(pages []rawPage, doc commonModels.Document) []commonModels.DocChunk {
	var allChunks []commonModels.DocChunk

	for _, page := range pages {
		stringChunks := splitTextIntoChunks(page.Content, config.ChunkSize, config.ChunkOverlap)

		for i, text := range stringChunks {
			if strings.TrimSpace(text) == "" {
				continue
			}
			allChunks = append(allChunks, commonModels.DocChunk{
				Doc:            doc,
				ChunkId:        utils.GetNewUUID(),
				Chunk:          text,
				PageNum:        page.Number,
				ChunkPageOrder: i,
			})
		}
	}

	return allChunks
}
