package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"expenses/internal/log"
)

func TestMiddlewareTagsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := NewMiddleware(logger, func(*http.Request) string { return "10.0.0.1" })

	var seenID string
	var seenLogger *slog.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		seenLogger = log.FromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expense/list/?page=9", nil))

	assert.True(t, strings.HasPrefix(seenID, "req_"))
	assert.Equal(t, seenID, rec.Header().Get(HeaderRequestID))
	assert.NotSame(t, slog.Default(), seenLogger)

	out := buf.String()
	assert.Contains(t, out, "HTTP request started")
	assert.Contains(t, out, "level=WARN msg=\"HTTP request completed\"")
	assert.Contains(t, out, "status_code=404")
	assert.Contains(t, out, "client_ip=10.0.0.1")
	assert.Contains(t, out, "request_id="+seenID)

	assert.Equal(t, Metrics{TotalRequests: 1}, m.Metrics())
}

func TestGenerateRequestIDIsUnique(t *testing.T) {
	assert.NotEqual(t, GenerateRequestID(), GenerateRequestID())
	assert.Empty(t, RequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestMiddlewareReusesIncomingRequestID(t *testing.T) {
	m := NewMiddleware(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	tests := []struct {
		incoming string
		reused   bool
	}{
		{"abc-123_DEF", true},
		{"", false},
		{"has space", false},
		{strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/category/create/", nil)
		req.Header.Set(HeaderRequestID, tt.incoming)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		got := rec.Header().Get(HeaderRequestID)
		if tt.reused {
			assert.Equal(t, tt.incoming, got)
		} else {
			assert.True(t, strings.HasPrefix(got, "req_"), tt.incoming)
		}
	}
	assert.Equal(t, Metrics{TotalRequests: 4, ServerErrors: 4}, m.Metrics())
}
