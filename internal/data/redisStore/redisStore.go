package redisStore

import (
	"context"
	"sync"
	"time"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var (
	instances = make(map[string]*Store)
	mu        sync.RWMutex
	logger    *logger_i.Logger
	once      sync.Once
)

type Store struct {
	client *redis.Client
	addr   string
}

// GetRedisStore returns a shared client for addr, dialing it on first use.
// Returns nil when Redis is unreachable so callers can fall back to the
// in-memory cache.
func GetRedisStore(ctx context.Context, addr string) *Store {

	mu.RLock()
	instance, exists := instances[addr]
	mu.RUnlock()

	if exists {
		return instance
	}

	mu.Lock()
	defer mu.Unlock()

	if instance, exists = instances[addr]; exists {
		return instance
	}
	return createNewStore(ctx, addr)

}

func initLogger() {
	if logger == nil {
		logger = logger_i.NewLogger("Redis Store")
	}
}

func closeRedisStores(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Redis Stores")
	mu.Lock()
	defer mu.Unlock()
	for _, store := range instances {
		err := store.client.Close()
		if err != nil {
			logger.Error("Error closing redis client", "error", err)
		}
	}
	logger.Info("Redis Store Closed successfully")
}

func createNewStore(ctx context.Context, addr string) *Store {
	newClient := redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              config.RedisPassword,
		ContextTimeoutEnabled: true,
		ReadTimeout:           config.RedisReadTimeout,
		WriteTimeout:          config.RedisWriteTimeout,
	})

	initLogger()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := newClient.Ping(pingCtx).Err(); err != nil {
		logger.Error("Redis is offline: ", "error", err.Error())
		return nil
	}

	logger.Info("Redis client init successfully", "addr", addr)

	newStore := &Store{
		client: newClient,
		addr:   addr,
	}

	instances[addr] = newStore
	once.Do(func() {
		go closeRedisStores(ctx)
	})
	return newStore

}

// NewTestStore wraps an existing client, for tests backed by miniredis.
func NewTestStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}
