package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/data/redisStore"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/data/store"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/chatModel"
)

func testMessage(id string, userId string, content string, isUser bool, ts time.Time, docId string) chatModel.ChatMessage {
	return chatModel.ChatMessage{
		Id:        id,
		UserId:    userId,
		Content:   content,
		IsUser:    isUser,
		Timestamp: ts,
		DocId:     docId,
	}
}

func TestSqliteMessageStore(t *testing.T) {
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	s, err := store.NewSqliteMessageStore(ctx, filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// saved out of order on purpose; reads must come back by timestamp
	messages := []chatModel.ChatMessage{
		testMessage("m2", "user-1", "the answer", false, base.Add(time.Second), "doc-1"),
		testMessage("m1", "user-1", "a question", true, base, "doc-1"),
		testMessage("m3", "user-2", "unrelated", true, base, ""),
	}
	for _, msg := range messages {
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage(%s) failed: %v", msg.Id, err)
		}
	}

	t.Run("ListByUser_Ordered", func(t *testing.T) {
		got, err := s.ListByUser(ctx, "user-1")
		if err != nil {
			t.Fatalf("ListByUser failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d messages; want 2", len(got))
		}
		if got[0].Id != "m1" || got[1].Id != "m2" {
			t.Errorf("order = [%s %s]; want [m1 m2]", got[0].Id, got[1].Id)
		}
		if got[0].Content != "a question" || !got[0].IsUser {
			t.Errorf("row mismatch: %+v", got[0])
		}
		if got[1].DocId != "doc-1" {
			t.Errorf("doc_id = %q; want doc-1", got[1].DocId)
		}
	})

	t.Run("Null_DocId_Roundtrip", func(t *testing.T) {
		got, err := s.ListByUser(ctx, "user-2")
		if err != nil {
			t.Fatalf("ListByUser failed: %v", err)
		}
		if len(got) != 1 || got[0].DocId != "" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("Unknown_User_Empty", func(t *testing.T) {
		got, err := s.ListByUser(ctx, "nobody")
		if err != nil {
			t.Fatalf("ListByUser failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %d messages; want 0", len(got))
		}
	})
}

func TestRedisAnswerCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := store.NewRedisAnswerCacheFromStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

	t.Run("Miss_Then_Hit", func(t *testing.T) {
		if _, found := cache.GetAnswer(ctx, "answer:abc"); found {
			t.Fatal("expected a miss on the empty cache")
		}

		if err := cache.SaveAnswer(ctx, "answer:abc", "forty-two"); err != nil {
			t.Fatalf("SaveAnswer failed: %v", err)
		}

		answer, found := cache.GetAnswer(ctx, "answer:abc")
		if !found || answer != "forty-two" {
			t.Errorf("GetAnswer = (%q, %v)", answer, found)
		}
	})

	t.Run("Entry_Expires", func(t *testing.T) {
		if err := cache.SaveAnswer(ctx, "answer:ttl", "stale soon"); err != nil {
			t.Fatalf("SaveAnswer failed: %v", err)
		}

		mr.FastForward(config.AnswerCacheTTL + time.Minute)

		if _, found := cache.GetAnswer(ctx, "answer:ttl"); found {
			t.Error("entry survived past its TTL")
		}
	})
}

func TestInMemoryAnswerCache(t *testing.T) {
	cache := store.InitAnswerCache()
	ctx := context.Background()

	if _, found := cache.GetAnswer(ctx, "k"); found {
		t.Fatal("expected a miss on the empty cache")
	}
	if err := cache.SaveAnswer(ctx, "k", "v"); err != nil {
		t.Fatalf("SaveAnswer failed: %v", err)
	}
	if answer, found := cache.GetAnswer(ctx, "k"); !found || answer != "v" {
		t.Errorf("GetAnswer = (%q, %v)", answer, found)
	}
}
