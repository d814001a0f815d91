package customHttpClient

import (
	"net/http"
	"time"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
)

var pooledTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewPooledClient returns a client sharing the process-wide connection pool.
// A zero timeout disables the overall deadline; streaming callers rely on
// context cancellation instead.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: pooledTransport,
		Timeout:   timeout,
	}
}
