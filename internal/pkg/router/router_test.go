package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/titipyuk/internal/pkg/config"
	"github.com/shandysiswandi/titipyuk/internal/pkg/goerror"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

type created struct {
	OK bool `json:"ok"`
}

func (created) StatusCode() int { return http.StatusCreated }
func (created) Message() string { return "Kode verifikasi diproses" }

func newTestRouter(t *testing.T, yaml string, fallback http.Handler) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	r := NewRouter(Config{Config: cfg, UUID: staticID("cid-1"), Instrument: instrument.NewNoop(), Fallback: fallback})
	r.POST("/api/auth/request-otp", func(*Request) (any, error) { return created{OK: true}, nil })
	r.POST("/api/auth/verify-otp", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("Kode salah", goerror.CodeInvalidFormat)
	})
	r.GET("/api/boom", func(*Request) (any, error) { panic("handler bug") })
	r.GET("/api/raw", func(*Request) (any, error) { return nil, errors.New("unmapped") })
	return r
}

func serve(h http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouterEnvelope(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "app:\n  env: test\n", nil)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		want       map[string]any
	}{
		{
			name:       "success honors status and message",
			method:     http.MethodPost,
			path:       "/api/auth/request-otp",
			wantStatus: http.StatusCreated,
			want:       map[string]any{"message": "Kode verifikasi diproses", "data": map[string]any{"ok": true}},
		},
		{
			name:       "business error",
			method:     http.MethodPost,
			path:       "/api/auth/verify-otp",
			wantStatus: http.StatusBadRequest,
			want:       map[string]any{"message": "Kode salah"},
		},
		{
			name:       "unmapped error",
			method:     http.MethodGet,
			path:       "/api/raw",
			wantStatus: http.StatusInternalServerError,
			want:       map[string]any{"message": "Internal server error"},
		},
		{
			name:       "panic is recovered",
			method:     http.MethodGet,
			path:       "/api/boom",
			wantStatus: http.StatusInternalServerError,
			want:       map[string]any{"message": "Internal server error"},
		},
		{
			name:       "not found",
			method:     http.MethodGet,
			path:       "/nope",
			wantStatus: http.StatusNotFound,
			want:       map[string]any{"message": "endpoint not found"},
		},
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			path:       "/api/auth/verify-otp",
			wantStatus: http.StatusMethodNotAllowed,
			want:       map[string]any{"message": "method not allowed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(r, tt.method, tt.path, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec))
		})
	}
}

func TestRouterCorrelationID(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "app:\n  env: test\n", nil)

	rec := serve(r, http.MethodPost, "/api/auth/request-otp", nil)
	assert.Equal(t, "cid-1", rec.Header().Get(HeaderCorrelationID))

	rec = serve(r, http.MethodPost, "/api/auth/request-otp", http.Header{HeaderRequestID: {"from-proxy"}})
	assert.Equal(t, "from-proxy", rec.Header().Get(HeaderCorrelationID))

	rec = serve(r, http.MethodPost, "/api/auth/request-otp", http.Header{"x-request-id": {"lowercase-key"}})
	assert.Equal(t, "lowercase-key", rec.Header().Get(HeaderCorrelationID))

	rec = serve(r, http.MethodPost, "/api/auth/request-otp", http.Header{HeaderCorrelationID: {"bad\r\nheader"}})
	assert.Equal(t, "cid-1", rec.Header().Get(HeaderCorrelationID))
}

func TestRouterMaintenance(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: /api/auth/request-otp\n", nil)

	rec := serve(r, http.MethodPost, "/api/auth/request-otp", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(r, http.MethodPost, "/api/auth/verify-otp", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouterFallback(t *testing.T) {
	t.Parallel()

	ui := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(r.URL.Path))
	})
	r := newTestRouter(t, "app:\n  env: test\n", ui)

	rec := serve(r, http.MethodGet, "/dashboard/", nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "/dashboard/", rec.Body.String())

	rec = serve(r, http.MethodPost, "/api/auth/request-otp", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))

	req.Header.Set("X-Real-IP", "not-an-ip")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
