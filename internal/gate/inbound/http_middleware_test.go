package inbound

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/titipyuk/internal/gate/entity"
	"github.com/shandysiswandi/titipyuk/internal/gate/usecase"
)

type fakeUsecase struct {
	out *usecase.EvaluateOutput
	err error
	got usecase.EvaluateInput
}

func (f *fakeUsecase) Evaluate(_ context.Context, in usecase.EvaluateInput) (*usecase.EvaluateOutput, error) {
	f.got = in
	return f.out, f.err
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestMiddleware_Redirect(t *testing.T) {
	f := &fakeUsecase{out: &usecase.EvaluateOutput{
		Decision: entity.DecisionRedirectLogin,
		Location: "/login?redirectTo=%2Fbooking",
	}}

	req := httptest.NewRequest(http.MethodGet, "/booking?x=1", nil)
	req.AddCookie(&http.Cookie{Name: "titipyuk_session", Value: "tok"})
	rec := httptest.NewRecorder()

	NewMiddleware(f, "titipyuk_session")(okHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirectTo=%2Fbooking", rec.Header().Get("Location"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, usecase.EvaluateInput{Method: "GET", Path: "/booking", RawQuery: "x=1", Token: "tok"}, f.got)
}

func TestMiddleware_Allow(t *testing.T) {
	f := &fakeUsecase{out: &usecase.EvaluateOutput{Decision: entity.DecisionAllow}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()

	NewMiddleware(f, "titipyuk_session")(okHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "abc", f.got.Token)
}

func TestMiddleware_Error(t *testing.T) {
	f := &fakeUsecase{err: errors.New("boom")}

	rec := httptest.NewRecorder()
	NewMiddleware(f, "titipyuk_session")(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}

func TestSessionToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, sessionToken(req, "s"))

	req.Header.Set("Authorization", "Basic Zm9v")
	assert.Empty(t, sessionToken(req, "s"))

	req.Header.Set("Authorization", "bearer  xyz ")
	assert.Equal(t, "xyz", sessionToken(req, "s"))

	req.AddCookie(&http.Cookie{Name: "s", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", sessionToken(req, "s"))
}
