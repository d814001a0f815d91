package store

import (
	"context"
	"database/sql"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/chatModel"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id        TEXT PRIMARY KEY,
	user_id   TEXT NOT NULL,
	content   TEXT NOT NULL,
	is_user   BOOLEAN NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL,
	doc_id    TEXT
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_user ON chat_messages (user_id, timestamp);
`

// PostgresMessageStore is the message log used when DATABASE_URL points at a
// postgres server. Same table shape as the SQLite store.
type PostgresMessageStore struct {
	db     *sql.DB
	logger *logger_i.Logger
}

func NewPostgresMessageStore(ctx context.Context, dsn string) (*PostgresMessageStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(config.MaxIdleConns)
	db.SetMaxIdleConns(config.MaxIdleConnsPerHost)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, err
	}

	s := &PostgresMessageStore{
		db:     db,
		logger: logger_i.NewLogger("PostgresMessageStore"),
	}
	go s.closeOnDone(ctx)
	s.logger.Info("postgres message store ready")
	return s, nil
}

func (s *PostgresMessageStore) closeOnDone(ctx context.Context) {
	<-ctx.Done()
	if err := s.db.Close(); err != nil {
		s.logger.Error("error closing postgres pool", "error", err)
	}
}

func (s *PostgresMessageStore) SaveMessage(ctx context.Context, msg chatModel.ChatMessage) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "messageId", msg.Id)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, user_id, content, is_user, timestamp, doc_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.Id, msg.UserId, msg.Content, msg.IsUser, msg.Timestamp.UTC(), nullableDocId(msg.DocId))
	if err != nil {
		log.Error("error saving message", "error", err)
		return err
	}
	log.Debug("Saved message successfully")
	return nil
}

func (s *PostgresMessageStore) ListByUser(ctx context.Context, userId string) ([]chatModel.ChatMessage, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "userId", userId)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, content, is_user, timestamp, doc_id
		 FROM chat_messages WHERE user_id = $1 ORDER BY timestamp ASC`, userId)
	if err != nil {
		log.Error("error listing messages", "error", err)
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}
