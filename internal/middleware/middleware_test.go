package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/rideledger/internal/apperr"
	"github.com/hongminglow/rideledger/internal/auth"
	"github.com/hongminglow/rideledger/internal/logging"
	"github.com/hongminglow/rideledger/internal/models"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSAllowedOrigin(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS([]string{"*"})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodOptions, "/transactions", nil)
	req.Header.Set("Origin", "https://any.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Format: "json", Output: &buf})

	var seen *logging.Logger
	h := RequestLogger(log, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health?x=1", nil))

	id := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	require.NotNil(t, seen)
	assert.Equal(t, logging.ComponentHTTP, seen.Component())

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, id, record[logging.FieldRequestID])
	assert.Equal(t, "WARN", record["level"])
	assert.EqualValues(t, http.StatusTeapot, record[logging.FieldStatusCode])
	assert.Equal(t, "/health", record[logging.FieldPath])
}

func TestRequestLoggerKeepsValidIncomingID(t *testing.T) {
	const incoming = "9b2f4f3e-4a3c-4e55-9d7a-1f2b3c4d5e6f"
	h := RequestLogger(logging.Discard(), nil)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\nforged")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid\nforged", rec.Header().Get(RequestIDHeader))
}

func TestRecoverReturns500(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestClientIP(t *testing.T) {
	ips, err := NewIPResolver([]string{"10.0.0.0/8", "192.0.2.10"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", ips.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ips.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "garbage")
	req.Header.Set("X-Real-IP", "203.0.113.4")
	assert.Equal(t, "203.0.113.4", ips.ClientIP(req))

	req.RemoteAddr = "192.0.2.10:80"
	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "203.0.113.4", ips.ClientIP(req), "bare IP entries are trusted")
}

func TestClientIPIgnoresForwardedFromUntrustedPeer(t *testing.T) {
	ips, err := NewIPResolver([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.20:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "198.51.100.20", ips.ClientIP(req))

	var none *IPResolver
	assert.Equal(t, "198.51.100.20", none.ClientIP(req))
}

func TestNewIPResolverRejectsInvalidEntries(t *testing.T) {
	_, err := NewIPResolver([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = NewIPResolver([]string{"proxy.internal"})
	assert.Error(t, err)
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(2, nil)
	l.now = func() time.Time { return now }

	allowed, _ := l.Allow("a")
	assert.True(t, allowed)
	allowed, _ = l.Allow("a")
	assert.True(t, allowed)
	allowed, retry := l.Allow("a")
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retry)

	allowed, _ = l.Allow("b")
	assert.True(t, allowed, "clients are counted separately")

	now = now.Add(time.Minute)
	allowed, _ = l.Allow("a")
	assert.True(t, allowed, "a new window starts after a minute")
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(5, nil)
	l.now = func() time.Time { return now }
	l.Allow("a")

	now = now.Add(staleClientAge + time.Second)
	l.Allow("b")
	l.evict()

	assert.NotContains(t, l.clients, "a")
	assert.Contains(t, l.clients, "b")
}

func TestRateLimiterRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewRateLimiter(1, nil).Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	h := NewRateLimiter(1, nil).Middleware(okHandler)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	assert.Equal(t, http.StatusOK, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiterKeysOnPeerWhenForwardedIsSpoofed(t *testing.T) {
	ips, err := NewIPResolver([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	h := NewRateLimiter(1, ips).Middleware(okHandler)

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "198.51.100.20:4000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.3"))
}

type resolverFunc func(ctx context.Context, token string) (models.User, error)

func (f resolverFunc) Resolve(ctx context.Context, token string) (models.User, error) {
	return f(ctx, token)
}

func TestAuthenticate(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, token string) (models.User, error) {
		switch token {
		case "good":
			return models.User{ID: 7, IsActive: true}, nil
		case "inactive":
			return models.User{}, apperr.New(apperr.KindInactive, "inactive user")
		}
		return models.User{}, apperr.Unauthorized("could not validate credentials")
	})

	var got models.User
	h := Authenticate(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusForbidden},
		{"wrong scheme", "Basic abc", http.StatusForbidden},
		{"empty token", "Bearer ", http.StatusForbidden},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"inactive user", "Bearer inactive", http.StatusBadRequest},
		{"valid", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
	assert.EqualValues(t, 7, got.ID)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	Chain(okHandler, mw("outer"), mw("inner")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}
