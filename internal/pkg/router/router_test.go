package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/jwt"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuthorizer map[string]bool

func (s staticAuthorizer) IsPrivileged(_ context.Context, subjectID string) (bool, error) {
	return s[subjectID], nil
}

func newTestRouter(t *testing.T) (*Router, jwt.JWT) {
	t.Helper()

	j, err := jwt.NewHS512(jwt.Config{
		Secret:    bytes.Repeat([]byte("s"), 64),
		Issuer:    "ktvs",
		Audiences: []string{"ktvs"},
		TTL:       time.Minute,
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	r := NewRouter(Config{
		UUID:            uid.NewUUID(),
		JWT:             j,
		Instrument:      instrument.NewNoop(),
		Authorizer:      staticAuthorizer{"root": true},
		PublicEndpoints: map[string][]string{http.MethodPost: {"/open", "/slow", "/hook"}},
	})

	r.POST("/open", func(*Request) (any, error) {
		return nil, goerror.NewBusinessWithFields("Quota exceeded", goerror.CodeQuotaExceeded, "limit", "100", "used", "100")
	})
	r.POST("/slow", func(*Request) (any, error) {
		return nil, goerror.NewServer(context.DeadlineExceeded)
	})
	r.GET("/me", func(req *Request) (any, error) {
		return map[string]string{"subject_id": req.SubjectID()}, nil
	})
	r.GET("/admin", func(*Request) (any, error) {
		return map[string]string{"ok": "yes"}, nil
	}, r.Privileged())

	return r, j
}

func do(t *testing.T, h http.Handler, method, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestRouter_PublicEndpointAndErrorFields(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, body := do(t, r, http.MethodPost, "/open", "")
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "Quota exceeded", body["message"])
	assert.Equal(t, map[string]any{"limit": "100", "used": "100"}, body["error"])
	assert.NotEmpty(t, rec.Header().Get(HeaderCorrelationID))
}

func TestRouter_Authentication(t *testing.T) {
	r, j := newTestRouter(t)

	rec, _ := do(t, r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := j.Generate("alice", "pwd", "otp")
	require.NoError(t, err)

	rec, body := do(t, r, http.MethodGet, "/me", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"subject_id": "alice"}, body["data"])
}

func TestRouter_Privileged(t *testing.T) {
	r, j := newTestRouter(t)

	alice, err := j.Generate("alice")
	require.NoError(t, err)
	root, err := j.Generate("root")
	require.NoError(t, err)

	rec, _ := do(t, r, http.MethodGet, "/admin", alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = do(t, r, http.MethodGet, "/admin", root)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_TimeoutIsRetryable(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, body := do(t, r, http.MethodPost, "/slow", "")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "Request timed out, please retry", body["message"])
}

func TestSharedSecret(t *testing.T) {
	r, _ := newTestRouter(t)
	r.POST("/hook", func(*Request) (any, error) {
		return map[string]string{"ok": "yes"}, nil
	}, SharedSecret("X-Hook-Secret", []byte("hunter2")))

	send := func(secret string) int {
		req := httptest.NewRequest(http.MethodPost, "/hook", nil)
		if secret != "" {
			req.Header.Set("X-Hook-Secret", secret)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, send(""))
	assert.Equal(t, http.StatusUnauthorized, send("hunter3"))
	assert.Equal(t, http.StatusOK, send("hunter2"))
}

func TestRouter_ErrorCodeAndCorrelationEcho(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/open", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ERROR_CODE_QUOTA_EXCEEDED", body["code"])
	assert.Equal(t, "req-42", rec.Header().Get(HeaderCorrelationID))
}

func TestRouter_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, body := do(t, r, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "endpoint not found", body["message"])
}

func TestRouter_Maintenance(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
app:
  maintenance:
    endpoints: "POST /open"
    retry_after_seconds: 120
`))
	require.NoError(t, err)

	r := NewRouter(Config{Config: cfg, UUID: uid.NewUUID(), Instrument: instrument.NewNoop(),
		PublicEndpoints: map[string][]string{http.MethodPost: {"/open"}, http.MethodGet: {"/open"}}})
	r.POST("/open", func(*Request) (any, error) { return map[string]string{"ok": "yes"}, nil })
	r.GET("/open", func(*Request) (any, error) { return map[string]string{"ok": "yes"}, nil })

	rec, _ := do(t, r, http.MethodPost, "/open", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "120", rec.Header().Get("Retry-After"))

	rec, _ = do(t, r, http.MethodGet, "/open", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequest_DecodeBody(t *testing.T) {
	type payload struct {
		Content string `json:"content"`
	}
	decode := func(body string) error {
		req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))}
		var p payload
		return req.DecodeBody(&p)
	}

	assert.NoError(t, decode(`{"content":"https://example.com"}`))
	assert.True(t, goerror.IsCode(decode(``), goerror.CodeInvalidFormat))
	assert.True(t, goerror.IsCode(decode(`{"content":"a","extra":1}`), goerror.CodeInvalidFormat))
	assert.True(t, goerror.IsCode(decode(`{"content":"a"}{}`), goerror.CodeInvalidFormat))
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", realIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", realIP(req))
}
