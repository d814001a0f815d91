package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/chatModel"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id        TEXT PRIMARY KEY,
	user_id   TEXT NOT NULL,
	content   TEXT NOT NULL,
	is_user   BOOLEAN NOT NULL,
	timestamp DATETIME NOT NULL,
	doc_id    TEXT
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_user ON chat_messages (user_id, timestamp);
`

// SqliteMessageStore persists chat turns in a local SQLite file. It is the
// default message log when no DATABASE_URL with a postgres scheme is set.
type SqliteMessageStore struct {
	db     *sql.DB
	logger *logger_i.Logger
}

func NewSqliteMessageStore(ctx context.Context, path string) (*SqliteMessageStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}

	s := &SqliteMessageStore{
		db:     db,
		logger: logger_i.NewLogger("SqliteMessageStore"),
	}
	go s.closeOnDone(ctx)
	s.logger.Info("sqlite message store ready", "path", path)
	return s, nil
}

func (s *SqliteMessageStore) closeOnDone(ctx context.Context) {
	<-ctx.Done()
	if err := s.db.Close(); err != nil {
		s.logger.Error("error closing sqlite db", "error", err)
	}
}

func (s *SqliteMessageStore) SaveMessage(ctx context.Context, msg chatModel.ChatMessage) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "messageId", msg.Id)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, user_id, content, is_user, timestamp, doc_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.Id, msg.UserId, msg.Content, msg.IsUser, msg.Timestamp.UTC(), nullableDocId(msg.DocId))
	if err != nil {
		log.Error("error saving message", "error", err)
		return err
	}
	log.Debug("Saved message successfully")
	return nil
}

func (s *SqliteMessageStore) ListByUser(ctx context.Context, userId string) ([]chatModel.ChatMessage, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "userId", userId)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, content, is_user, timestamp, doc_id
		 FROM chat_messages WHERE user_id = ? ORDER BY timestamp ASC`, userId)
	if err != nil {
		log.Error("error listing messages", "error", err)
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]chatModel.ChatMessage, error) {
	messages := make([]chatModel.ChatMessage, 0)
	for rows.Next() {
		var (
			msg   chatModel.ChatMessage
			ts    time.Time
			docId sql.NullString
		)
		if err := rows.Scan(&msg.Id, &msg.UserId, &msg.Content, &msg.IsUser, &ts, &docId); err != nil {
			return nil, err
		}
		msg.Timestamp = ts
		msg.DocId = docId.String
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func nullableDocId(docId string) sql.NullString {
	return sql.NullString{String: docId, Valid: docId != ""}
}
