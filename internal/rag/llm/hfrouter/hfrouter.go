// Package hfrouter implements the completion Provider against an
// OpenAI-compatible chat/completions endpoint (the HuggingFace router in
// production).
package hfrouter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/customHttpClient"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/rag/llm"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
)

type Client struct {
	apiURL string
	token  string
	model  string

	//completeClient carries the bounded deadline; streamClient leaves the
	//deadline to the caller's context so long streams are not cut off
	completeClient *http.Client
	streamClient   *http.Client
	logger         *logger_i.Logger
}

func NewClient(apiURL string, token string, model string) *Client {
	return &Client{
		apiURL:         apiURL,
		token:          token,
		model:          model,
		completeClient: customHttpClient.NewPooledClient(config.LLMRequestTimeout),
		streamClient:   customHttpClient.NewPooledClient(0),
		logger:         logger_i.NewLogger("hfrouter"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func buildPrompt(contextText string, question string) string {
	return fmt.Sprintf("You are a helpful assistant. Use the following context to answer the question:\n\n%s\n\nQuestion: %s", contextText, question)
}

func (c *Client) newRequest(ctx context.Context, contextText string, question string, stream bool) (*http.Request, error) {
	payload := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: buildPrompt(contextText, question)}},
		Stream:   stream,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

func (c *Client) Complete(ctx context.Context, contextText string, question string) (string, error) {
	req, err := c.newRequest(ctx, contextText, question, false)
	if err != nil {
		return "", err
	}

	resp, err := c.completeClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling completion endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Completion endpoint failure", "status", resp.StatusCode)
		return "", &llm.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		c.logger.Error("Unexpected completion response shape", "error", err)
		return "", &llm.MalformedError{Body: string(body)}
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) Stream(ctx context.Context, contextText string, question string) <-chan string {
	ch := make(chan string, 100)

	req, err := c.newRequest(ctx, contextText, question, true)
	if err != nil {
		ch <- llm.FallbackText(err)
		close(ch)
		return ch
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		ch <- llm.FallbackText(err)
		close(ch)
		return ch
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		ch <- llm.FallbackText(&llm.UpstreamError{Status: resp.StatusCode, Body: string(body)})
		close(ch)
		return ch
	}

	go c.relay(ctx, resp.Body, ch)
	return ch
}

// relay reads SSE frames, buffers deltas and forwards flushed fragments.
// Malformed frames are skipped; a broken connection becomes one error item.
func (c *Client) relay(ctx context.Context, body io.ReadCloser, ch chan<- string) {
	defer close(ch)
	defer body.Close()

	var buf tokenBuffer
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue //malformed fragments are not fatal
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		token := chunk.Choices[0].Delta.Content
		if token == "" {
			continue
		}

		if out, flushed := buf.Push(token); flushed {
			select {
			case ch <- out:
			case <-ctx.Done():
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case ch <- llm.FallbackText(err):
		case <-ctx.Done():
		}
		return
	}

	if rest := buf.Flush(); rest != "" {
		select {
		case ch <- rest:
		case <-ctx.Done():
		}
	}
}
