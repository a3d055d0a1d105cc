package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"sortabletree/internal/auth"
	"sortabletree/internal/domain"
	"sortabletree/internal/httputil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct{ token string }

func (s stubVerifier) VerifyToken(token string) (*auth.Claims, error) {
	if token != s.token {
		return nil, domain.ErrUnauthorized
	}
	c := &auth.Claims{}
	c.Subject = "editor-1"
	return c, nil
}

func (stubVerifier) Close() error { return nil }

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestAuth(t *testing.T) {
	var subject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = httputil.GetSubject(r)
		w.WriteHeader(http.StatusNoContent)
	})
	h := Auth(stubVerifier{token: "good"}, discard)(next)

	tests := []struct {
		name   string
		method string
		header string
		want   int
	}{
		{"read without token", http.MethodGet, "", http.StatusNoContent},
		{"write without token", http.MethodPost, "", http.StatusUnauthorized},
		{"write with bad token", http.MethodDelete, "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", http.MethodPost, "Basic good", http.StatusUnauthorized},
		{"write with token", http.MethodPatch, "Bearer good", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/api/nodes/1", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
	assert.Equal(t, "editor-1", subject)
}

func TestAuth_NilVerifierPassesThrough(t *testing.T) {
	h := Auth(nil, discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/nodes", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.RequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	incoming := uuid.NewString()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, incoming, seen)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "not a uuid")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.NotEqual(t, "not a uuid", seen)
}

func TestRecovery(t *testing.T) {
	h := Recovery(discard)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
