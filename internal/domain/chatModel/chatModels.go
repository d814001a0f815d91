package chatModel

import (
	"context"
	"time"
)

// ChatMessage is one turn of a conversation. Rows are append-only; once
// persisted a message is never updated.
type ChatMessage struct {
	Id        string    `json:"id"`
	UserId    string    `json:"user_id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
	DocId     string    `json:"doc_id,omitempty"` //empty = no document attached
}

type MessageStore interface {
	SaveMessage(ctx context.Context, msg ChatMessage) error
	ListByUser(ctx context.Context, userId string) ([]ChatMessage, error)
}

// AnswerCache is an optional exact-match cache for non-streaming answers.
// A miss is always silent.
type AnswerCache interface {
	GetAnswer(ctx context.Context, key string) (string, bool)
	SaveAnswer(ctx context.Context, key string, answer string) error
}
