package middleware

import (
	"net/http"
	"strconv"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/metrics"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// Chain carries the per-deployment pieces the middleware needs. Wrap gives
// trace injection, rate limiting and metrics; WrapAuthenticated adds the
// bearer-token check and resolves the caller's user id into the context.
type Chain struct {
	authToken     string
	defaultUserId string
}

func NewChain(settings config.Settings) *Chain {
	return &Chain{
		authToken:     settings.AuthToken,
		defaultUserId: settings.DefaultUserID,
	}
}

func (c *Chain) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return c.wrap(next, false)
}

func (c *Chain) WrapAuthenticated(next http.HandlerFunc) http.HandlerFunc {
	return c.wrap(next, true)
}

func (c *Chain) wrap(next http.HandlerFunc, requireAuth bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200} //metrics
		re := c.processRequest(requestResponseStruct{req: r, writer: rec}, requireAuth)

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
		} else {
			next(rec, re.req)
		}

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

func (c *Chain) processRequest(re requestResponseStruct, requireAuth bool) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Info("New request received", "path", re.req.URL.Path)

	re = injectTrace(re)
	re = rateLimiter(re)
	if re.badRequest.isBadRequest {
		return re
	}
	if requireAuth {
		re = c.authenticate(re)
	}
	return re
}
