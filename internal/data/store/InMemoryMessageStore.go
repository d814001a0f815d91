package store

import (
	"context"
	"sort"
	"sync"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/chatModel"
)

// InMemoryMessageStore keeps chat turns in process memory. Used by tests and
// as a last-resort fallback when no database can be opened.
type InMemoryMessageStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]chatModel.ChatMessage
}

func InitMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]chatModel.ChatMessage),
	}
}

func (store *InMemoryMessageStore) SaveMessage(ctx context.Context, msg chatModel.ChatMessage) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[msg.UserId] = append(store.chatMap[msg.UserId], msg)
	return nil
}

func (store *InMemoryMessageStore) ListByUser(ctx context.Context, userId string) ([]chatModel.ChatMessage, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	messages := make([]chatModel.ChatMessage, len(store.chatMap[userId]))
	copy(messages, store.chatMap[userId])
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages, nil
}
