package adapter

import (
	"time"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/api"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/chatModel"
)

// ToMessagePayload maps a stored chat message onto its wire representation.
func ToMessagePayload(msg chatModel.ChatMessage) api.MessagePayload {
	payload := api.MessagePayload{
		Id:        msg.Id,
		Content:   msg.Content,
		IsUser:    msg.IsUser,
		Timestamp: msg.Timestamp.UTC().Format(time.RFC3339),
	}
	if msg.DocId != "" {
		docId := msg.DocId
		payload.DocId = &docId
	}
	return payload
}

func ToMessagePayloads(msgs []chatModel.ChatMessage) []api.MessagePayload {
	payloads := make([]api.MessagePayload, 0, len(msgs))
	for _, msg := range msgs {
		payloads = append(payloads, ToMessagePayload(msg))
	}
	return payloads
}
