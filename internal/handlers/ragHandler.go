package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/adapter"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/api"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/ingest"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
)

type RagHandler struct {
	service rag.Service
	logger  *logger_i.Logger
}

func NewRagHandler(service rag.Service) *RagHandler {
	return &RagHandler{
		service: service,
		logger:  logger_i.NewLogger("RAG Handler"),
	}
}

// UploadDoc handles POST /rag/upload-doc. Multipart upload, pdf only.
func (h *RagHandler) UploadDoc(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With("traceId", r.Context().Value(config.TRACE_ID_KEY))

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		log.Warn("missing or oversized upload", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "A file upload is required")
		return
	}
	defer file.Close()

	docId, err := h.service.IngestDocument(r.Context(), header.Filename, file)
	if err != nil {
		if isValidationError(err) {
			log.Warn("rejected upload", "filename", header.Filename, "error", err)
			WriteErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("ingestion failed", "filename", header.Filename, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("Error processing PDF: %s", err))
		return
	}

	writeJsonResponse(w, http.StatusOK, api.UploadResponse{
		DocId:   docId,
		Message: "PDF uploaded and processed successfully",
	})
}

func isValidationError(err error) bool {
	return errors.Is(err, ingest.ErrUnsupportedType) ||
		errors.Is(err, ingest.ErrNoContent) ||
		errors.Is(err, ingest.ErrNoChunks)
}

// AskDoc handles POST /rag/ask-doc. One-shot question over an uploaded doc,
// no message persistence.
func (h *RagHandler) AskDoc(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With("traceId", r.Context().Value(config.TRACE_ID_KEY))

	question, docId, ok := parseQuestionForm(w, r)
	if !ok {
		return
	}
	if docId == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "doc_id is required")
		return
	}

	answer, err := h.service.AskDocument(r.Context(), docId, question)
	if err != nil {
		if errors.Is(err, rag.ErrDocNotFound) {
			WriteErrorResponse(w, http.StatusNotFound, "Document not found. Please upload and chunk the PDF first.")
			return
		}
		log.Error("ask-doc failed", "docId", docId, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJsonResponse(w, http.StatusOK, api.AnswerResponse{Answer: answer})
}

// Chat handles POST /rag/chat, the blocking turn.
func (h *RagHandler) Chat(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With("traceId", r.Context().Value(config.TRACE_ID_KEY))

	question, docId, ok := parseQuestionForm(w, r)
	if !ok {
		return
	}
	userId := resolveUserId(r)

	userMsg, aiMsg, err := h.service.Chat(r.Context(), userId, docId, question)
	if err != nil {
		if errors.Is(err, rag.ErrDocNotFound) {
			WriteErrorResponse(w, http.StatusNotFound, "Document not found")
			return
		}
		log.Error("chat turn failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJsonResponse(w, http.StatusOK, api.ChatResponse{
		UserMessage: adapter.ToMessagePayload(userMsg),
		AIMessage:   adapter.ToMessagePayload(aiMsg),
	})
}

// ChatStream handles POST /rag/chat/stream. The response is a text/plain
// event stream of `data: <json>` frames closed by `data: [DONE]`.
func (h *RagHandler) ChatStream(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With("traceId", r.Context().Value(config.TRACE_ID_KEY))

	question, docId, ok := parseQuestionForm(w, r)
	if !ok {
		return
	}
	userId := resolveUserId(r)

	events, err := h.service.ChatStream(r.Context(), userId, docId, question)
	if err != nil {
		if errors.Is(err, rag.ErrDocNotFound) {
			WriteErrorResponse(w, http.StatusNotFound, "Document not found")
			return
		}
		log.Error("chat stream failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		log.Error("response writer does not support flushing")
		WriteErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	for event := range events {
		writeStreamFrame(w, toStreamFrame(event), log)
		flusher.Flush()
	}

	if r.Context().Err() != nil {
		// client went away mid-stream, nothing left to send
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", api.StreamDoneSentinel)
	flusher.Flush()
}

// Messages handles GET /chat/messages for the authenticated caller.
func (h *RagHandler) Messages(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With("traceId", r.Context().Value(config.TRACE_ID_KEY))
	userId := resolveUserId(r)

	messages, err := h.service.Messages(r.Context(), userId)
	if err != nil {
		log.Error("listing messages failed", "userId", userId, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToMessagePayloads(messages))
}

func parseQuestionForm(w http.ResponseWriter, r *http.Request) (question string, docId string, ok bool) {
	if err := r.ParseForm(); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Malformed form body")
		return "", "", false
	}
	question = r.PostFormValue("question")
	if question == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "question is required")
		return "", "", false
	}
	return question, r.PostFormValue("doc_id"), true
}

func resolveUserId(r *http.Request) string {
	if userId, found := r.Context().Value(config.USER_ID_KEY).(string); found {
		return userId
	}
	return ""
}

func toStreamFrame(event rag.StreamEvent) api.StreamFrame {
	switch event.Type {
	case rag.StreamUserMessage:
		return api.StreamFrame{Type: api.StreamTypeUserMessage, Data: adapter.ToMessagePayload(event.Message)}
	case rag.StreamAIMessageStart:
		return api.StreamFrame{Type: api.StreamTypeAIMessageStart, Data: api.StreamStartData{
			Id:        event.Id,
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		}}
	case rag.StreamToken:
		return api.StreamFrame{Type: api.StreamTypeToken, Data: api.StreamTokenData{Content: event.Token}}
	default:
		return api.StreamFrame{Type: api.StreamTypeAIMessageComplete, Data: api.StreamCompleteData{
			Id:        event.Message.Id,
			Content:   event.Message.Content,
			Timestamp: event.Message.Timestamp.UTC().Format(time.RFC3339),
		}}
	}
}

func writeStreamFrame(w http.ResponseWriter, frame api.StreamFrame, log *logger_i.Logger) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Error("error marshalling stream frame", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
