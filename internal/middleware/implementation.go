package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/adapter/utils"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/handlers"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
)

func injectTrace(re requestResponseStruct) requestResponseStruct {
	re.logger.Debug("Injecting trace middleware")
	req := re.req
	if req == nil {
		re.badRequest.httpCode = http.StatusBadRequest
		re.badRequest.errorMessage = "request is empty"
		re.badRequest.isBadRequest = true
		return re
	}
	trace := req.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With("traceId", trace)
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, trace)
	req.Header.Set(`X-Trace-Id`, trace)
	re.req = req.WithContext(ctx)

	re.logger.Debug("trace middleware injected")
	return re
}

func (c *Chain) authenticate(re requestResponseStruct) requestResponseStruct {
	re.logger.Debug("Authenticating request")

	if !isValidBearerToken(re.req.Header.Get("Authorization"), c.authToken, re.logger) {
		re.badRequest.isBadRequest = true
		re.badRequest.errorMessage = "Unauthorized"
		re.badRequest.httpCode = http.StatusUnauthorized
		return re
	}

	// single-tenant deployments run with the default user; multi-user callers
	// pass their id explicitly
	userId := re.req.Header.Get("X-User-Id")
	if userId == "" {
		userId = c.defaultUserId
	}
	ctx := context.WithValue(re.req.Context(), config.USER_ID_KEY, userId)
	re.req = re.req.WithContext(ctx)

	re.logger.Debug("Authorized", "userId", userId)
	return re
}

func isValidBearerToken(authHeader string, expected string, log *logger_i.Logger) bool {
	if authHeader == "" {
		log.Error("Empty authorization header")
		return false
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		log.Error("No Bearer header")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(authHeader, "Bearer ")), []byte(expected)) != 1 {
		log.Error("Invalid authorization header")
		return false
	}

	return true
}

func rateLimiter(re requestResponseStruct) requestResponseStruct {
	re.logger.Debug("Rate limiter middleware")
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !limiterInstance.GetLimiter(ip).Allow() {
		re.logger.Error("Too many requests", "Rate Limiter exceeded", ip)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "Rate limit exceeded. Slow down bruh",
		}
		return re
	}
	re.logger.Debug("Rate limiter middleware authorized")
	return re
}

func handleBadRequest(re requestResponseStruct) {
	re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage, "IP", re.req.RemoteAddr)
	handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, re.badRequest.errorMessage)
}
