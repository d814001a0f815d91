package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/api"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/chatModel"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/ingest"
)

// --- Mock service ---

type mockService struct {
	OnIngest     func(ctx context.Context, filename string, payload io.Reader) (string, error)
	OnAsk        func(ctx context.Context, docId string, question string) (string, error)
	OnChat       func(ctx context.Context, userId string, docId string, question string) (chatModel.ChatMessage, chatModel.ChatMessage, error)
	OnChatStream func(ctx context.Context, userId string, docId string, question string) (<-chan rag.StreamEvent, error)
	OnMessages   func(ctx context.Context, userId string) ([]chatModel.ChatMessage, error)
}

func (m *mockService) IngestDocument(ctx context.Context, filename string, payload io.Reader) (string, error) {
	return m.OnIngest(ctx, filename, payload)
}

func (m *mockService) AskDocument(ctx context.Context, docId string, question string) (string, error) {
	return m.OnAsk(ctx, docId, question)
}

func (m *mockService) Chat(ctx context.Context, userId string, docId string, question string) (chatModel.ChatMessage, chatModel.ChatMessage, error) {
	return m.OnChat(ctx, userId, docId, question)
}

func (m *mockService) ChatStream(ctx context.Context, userId string, docId string, question string) (<-chan rag.StreamEvent, error) {
	return m.OnChatStream(ctx, userId, docId, question)
}

func (m *mockService) Messages(ctx context.Context, userId string) ([]chatModel.ChatMessage, error) {
	return m.OnMessages(ctx, userId)
}

// --- Helpers ---

func multipartUpload(t *testing.T, filename string, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	part.Write([]byte(content))
	writer.Close()
	return body, writer.FormDataContentType()
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return resp.Error
}

// --- Tests ---

func TestUploadDoc(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		ingestErr   error
		wantStatus  int
		wantError   string
		wantDocId   string
	}{
		{
			name:       "Success",
			filename:   "book.pdf",
			wantStatus: http.StatusOK,
			wantDocId:  "fresh-doc-id",
		},
		{
			name:       "Wrong_Extension",
			filename:   "book.exe",
			ingestErr:  ingest.ErrUnsupportedType,
			wantStatus: http.StatusBadRequest,
			wantError:  "Only PDF files are supported",
		},
		{
			name:       "Empty_Content",
			filename:   "blank.pdf",
			ingestErr:  ingest.ErrNoContent,
			wantStatus: http.StatusBadRequest,
			wantError:  "No content found in PDF",
		},
		{
			name:       "Processing_Failure",
			filename:   "book.pdf",
			ingestErr:  io.ErrUnexpectedEOF,
			wantStatus: http.StatusInternalServerError,
			wantError:  "Error processing PDF: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRagHandler(&mockService{
				OnIngest: func(ctx context.Context, filename string, payload io.Reader) (string, error) {
					if tt.ingestErr != nil {
						return "", tt.ingestErr
					}
					return "fresh-doc-id", nil
				},
			})

			body, contentType := multipartUpload(t, tt.filename, "%PDF-1.4 fake")
			req := httptest.NewRequest(http.MethodPost, "/rag/upload-doc", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			h.UploadDoc(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantError != "" {
				if got := decodeError(t, rec); got != tt.wantError {
					t.Errorf("error = %q; want %q", got, tt.wantError)
				}
				return
			}

			var resp api.UploadResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if resp.DocId != tt.wantDocId {
				t.Errorf("doc_id = %q; want %q", resp.DocId, tt.wantDocId)
			}
			if resp.Message != "PDF uploaded and processed successfully" {
				t.Errorf("message = %q", resp.Message)
			}
		})
	}
}

func TestAskDoc_NotFound(t *testing.T) {
	h := NewRagHandler(&mockService{
		OnAsk: func(ctx context.Context, docId string, question string) (string, error) {
			return "", rag.ErrDocNotFound
		},
	})

	rec := httptest.NewRecorder()
	h.AskDoc(rec, formRequest("/rag/ask-doc", url.Values{"question": {"q"}, "doc_id": {"ghost"}}))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", rec.Code)
	}
	if got := decodeError(t, rec); got != "Document not found. Please upload and chunk the PDF first." {
		t.Errorf("error = %q", got)
	}
}

func TestAskDoc_MissingFields(t *testing.T) {
	h := NewRagHandler(&mockService{
		OnAsk: func(ctx context.Context, docId string, question string) (string, error) {
			t.Fatal("service must not be called")
			return "", nil
		},
	})

	t.Run("No_Question", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.AskDoc(rec, formRequest("/rag/ask-doc", url.Values{"doc_id": {"d"}}))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want 400", rec.Code)
		}
	})

	t.Run("No_DocId", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.AskDoc(rec, formRequest("/rag/ask-doc", url.Values{"question": {"q"}}))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want 400", rec.Code)
		}
	})
}

func TestChat_ResponseShape(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)
	h := NewRagHandler(&mockService{
		OnChat: func(ctx context.Context, userId string, docId string, question string) (chatModel.ChatMessage, chatModel.ChatMessage, error) {
			user := chatModel.ChatMessage{Id: "u1", UserId: userId, Content: question, IsUser: true, Timestamp: now, DocId: docId}
			ai := chatModel.ChatMessage{Id: "a1", UserId: userId, Content: "the answer", IsUser: false, Timestamp: now.Add(time.Second), DocId: docId}
			return user, ai, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Chat(rec, formRequest("/rag/chat", url.Values{"question": {"why?"}, "doc_id": {"doc-9"}}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}

	var resp api.ChatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.UserMessage.Content != "why?" || !resp.UserMessage.IsUser {
		t.Errorf("user_message = %+v", resp.UserMessage)
	}
	if resp.AIMessage.Content != "the answer" || resp.AIMessage.IsUser {
		t.Errorf("ai_message = %+v", resp.AIMessage)
	}
	if resp.UserMessage.DocId == nil || *resp.UserMessage.DocId != "doc-9" {
		t.Errorf("doc_id not echoed: %v", resp.UserMessage.DocId)
	}
	if resp.UserMessage.Timestamp != "2026-02-01T10:30:00Z" {
		t.Errorf("timestamp = %q", resp.UserMessage.Timestamp)
	}
}

func TestChat_UnknownDocument(t *testing.T) {
	h := NewRagHandler(&mockService{
		OnChat: func(ctx context.Context, userId string, docId string, question string) (chatModel.ChatMessage, chatModel.ChatMessage, error) {
			return chatModel.ChatMessage{}, chatModel.ChatMessage{}, rag.ErrDocNotFound
		},
	})

	rec := httptest.NewRecorder()
	h.Chat(rec, formRequest("/rag/chat", url.Values{"question": {"q"}, "doc_id": {"ghost"}}))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", rec.Code)
	}
	if got := decodeError(t, rec); got != "Document not found" {
		t.Errorf("error = %q", got)
	}
}

func TestChatStream_WireFormat(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)
	h := NewRagHandler(&mockService{
		OnChatStream: func(ctx context.Context, userId string, docId string, question string) (<-chan rag.StreamEvent, error) {
			events := make(chan rag.StreamEvent, 5)
			events <- rag.StreamEvent{Type: rag.StreamUserMessage, Message: chatModel.ChatMessage{Id: "u1", Content: question, IsUser: true, Timestamp: now}}
			events <- rag.StreamEvent{Type: rag.StreamAIMessageStart, Id: "ephemeral", Timestamp: now}
			events <- rag.StreamEvent{Type: rag.StreamToken, Token: "Hello "}
			events <- rag.StreamEvent{Type: rag.StreamToken, Token: "world"}
			events <- rag.StreamEvent{Type: rag.StreamAIMessageComplete, Message: chatModel.ChatMessage{Id: "a1", Content: "Hello world", Timestamp: now}}
			close(events)
			return events, nil
		},
	})

	rec := httptest.NewRecorder()
	h.ChatStream(rec, formRequest("/rag/chat/stream", url.Values{"question": {"greet"}}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q; want text/plain", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	if len(lines) != 6 {
		t.Fatalf("got %d frames: %q", len(lines), lines)
	}
	if lines[5] != "data: [DONE]" {
		t.Errorf("terminal frame = %q", lines[5])
	}

	var types []string
	var tokens []string
	for _, line := range lines[:5] {
		payload := strings.TrimPrefix(line, "data: ")
		var frame struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			t.Fatalf("frame %q not json: %v", line, err)
		}
		types = append(types, frame.Type)
		if frame.Type == "token" {
			var data api.StreamTokenData
			json.Unmarshal(frame.Data, &data)
			tokens = append(tokens, data.Content)
		}
	}

	wantTypes := []string{"user_message", "ai_message_start", "token", "token", "ai_message_complete"}
	for i := range wantTypes {
		if types[i] != wantTypes[i] {
			t.Fatalf("frame types = %v; want %v", types, wantTypes)
		}
	}
	if strings.Join(tokens, "") != "Hello world" {
		t.Errorf("tokens = %q", tokens)
	}
}

func TestMessages_ReturnsOrderedList(t *testing.T) {
	now := time.Now().UTC()
	h := NewRagHandler(&mockService{
		OnMessages: func(ctx context.Context, userId string) ([]chatModel.ChatMessage, error) {
			return []chatModel.ChatMessage{
				{Id: "m1", Content: "hi", IsUser: true, Timestamp: now},
				{Id: "m2", Content: "hello", IsUser: false, Timestamp: now.Add(time.Second)},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/chat/messages", nil)
	rec := httptest.NewRecorder()
	h.Messages(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}

	var payloads []api.MessagePayload
	if err := json.NewDecoder(rec.Body).Decode(&payloads); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payloads) != 2 || payloads[0].Id != "m1" || payloads[1].Id != "m2" {
		t.Errorf("payloads = %+v", payloads)
	}
	if payloads[0].DocId != nil {
		t.Errorf("doc_id should be null for doc-less turns, got %v", *payloads[0].DocId)
	}
}
