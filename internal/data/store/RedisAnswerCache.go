package store

import (
	"context"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/data/redisStore"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
)

// RedisAnswerCache stores non-streaming answers keyed by document and
// question, with a TTL. Cache failures are logged and swallowed; the caller
// always gets an answer from the model on a miss.
type RedisAnswerCache struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisAnswerCache(ctx context.Context, addr string) *RedisAnswerCache {
	rs := redisStore.GetRedisStore(ctx, addr)
	if rs == nil {
		return nil
	}
	return &RedisAnswerCache{
		store:  rs,
		logger: logger_i.NewLogger("AnswerCache"),
	}
}

// NewRedisAnswerCacheFromStore exists for tests backed by miniredis.
func NewRedisAnswerCacheFromStore(rs *redisStore.Store) *RedisAnswerCache {
	return &RedisAnswerCache{
		store:  rs,
		logger: logger_i.NewLogger("AnswerCache"),
	}
}

func (c *RedisAnswerCache) GetAnswer(ctx context.Context, key string) (string, bool) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	answer, err := c.store.Get(ctx, key)
	if c.store.IsNil(err) {
		return "", false
	} else if err != nil {
		log.Error("error reading answer cache", "error", err)
		return "", false
	}
	return answer, true
}

func (c *RedisAnswerCache) SaveAnswer(ctx context.Context, key string, answer string) error {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	err := c.store.Set(ctx, key, answer, config.AnswerCacheTTL)
	if err != nil {
		log.Error("error saving answer to cache", "error", err)
	}
	return err
}
