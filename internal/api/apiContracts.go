package api

// MessagePayload is the wire shape of one chat message. DocId serializes as
// null when the turn had no document attached.
type MessagePayload struct {
	Id        string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Content   string  `json:"content"`
	IsUser    bool    `json:"is_user"`
	Timestamp string  `json:"timestamp" example:"2025-07-15T22:37:15Z"`
	DocId     *string `json:"doc_id"`
}

type ChatResponse struct {
	UserMessage MessagePayload `json:"user_message"`
	AIMessage   MessagePayload `json:"ai_message"`
}

type UploadResponse struct {
	DocId   string `json:"doc_id"`
	Message string `json:"message"`
}

type AnswerResponse struct {
	Answer string `json:"answer"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Stream frames. Each frame goes out as `data: <json>\n\n`; the terminal
// sentinel `data: [DONE]` is written raw by the handler, not as a frame.
type StreamFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const (
	StreamTypeUserMessage       = "user_message"
	StreamTypeAIMessageStart    = "ai_message_start"
	StreamTypeToken             = "token"
	StreamTypeAIMessageComplete = "ai_message_complete"

	StreamDoneSentinel = "[DONE]"
)

type StreamStartData struct {
	Id        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

type StreamTokenData struct {
	Content string `json:"content"`
}

// The complete frame carries the persisted assistant message without the
// is_user and doc_id fields the user_message frame has. Frontend contract.
type StreamCompleteData struct {
	Id        string `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}
