package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
)

func testChain() *Chain {
	return NewChain(config.Settings{
		AuthToken:     "sekrit",
		DefaultUserID: "default-user",
	})
}

func newRequest(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/chat/messages", nil)
	req.RemoteAddr = addr
	return req
}

func TestWrapAuthenticated(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		userHeader string
		wantStatus int
		wantUserId string
	}{
		{
			name:       "Valid_Token_Default_User",
			authHeader: "Bearer sekrit",
			wantStatus: http.StatusOK,
			wantUserId: "default-user",
		},
		{
			name:       "Valid_Token_Explicit_User",
			authHeader: "Bearer sekrit",
			userHeader: "user-42",
			wantStatus: http.StatusOK,
			wantUserId: "user-42",
		},
		{
			name:       "Missing_Header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Wrong_Scheme",
			authHeader: "Basic sekrit",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Wrong_Token",
			authHeader: "Bearer guess",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserId string
			handler := testChain().WrapAuthenticated(func(w http.ResponseWriter, r *http.Request) {
				gotUserId, _ = r.Context().Value(config.USER_ID_KEY).(string)
				w.WriteHeader(http.StatusOK)
			})

			// distinct client addresses keep the rate limiter out of the way
			req := newRequest(fmt.Sprintf("10.0.0.%d:1234", i+1))
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.userHeader != "" {
				req.Header.Set("X-User-Id", tt.userHeader)
			}

			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantUserId != "" && gotUserId != tt.wantUserId {
				t.Errorf("user id in context = %q; want %q", gotUserId, tt.wantUserId)
			}
		})
	}
}

func TestWrap_InjectsTraceId(t *testing.T) {
	var gotTrace string
	handler := testChain().Wrap(func(w http.ResponseWriter, r *http.Request) {
		gotTrace, _ = r.Context().Value(config.TRACE_ID_KEY).(string)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Propagates_Existing_Header", func(t *testing.T) {
		req := newRequest("10.0.1.1:1234")
		req.Header.Set("X-Trace-Id", "trace-abc")
		handler(httptest.NewRecorder(), req)
		if gotTrace != "trace-abc" {
			t.Errorf("traceId = %q; want trace-abc", gotTrace)
		}
	})

	t.Run("Generates_When_Absent", func(t *testing.T) {
		handler(httptest.NewRecorder(), newRequest("10.0.1.2:1234"))
		if gotTrace == "" {
			t.Error("no traceId generated")
		}
	})
}

func TestWrap_RateLimitsPerIP(t *testing.T) {
	handler := testChain().Wrap(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	limited := false
	for i := 0; i < config.BURST_RATE_LIMIT_PER_SECOND+2; i++ {
		rec := httptest.NewRecorder()
		handler(rec, newRequest("10.9.9.9:1234"))
		if rec.Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	if !limited {
		t.Error("burst never hit the rate limit")
	}

	// a different address is unaffected
	rec := httptest.NewRecorder()
	handler(rec, newRequest("10.9.9.10:1234"))
	if rec.Code != http.StatusOK {
		t.Errorf("unrelated client got status %d", rec.Code)
	}
}
