package inbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shandysiswandi/titipyuk/internal/gate/entity"
	"github.com/shandysiswandi/titipyuk/internal/gate/usecase"
)

type uc interface {
	Evaluate(ctx context.Context, in usecase.EvaluateInput) (*usecase.EvaluateOutput, error)
}

// NewMiddleware evaluates every request before it reaches next. Redirect
// decisions answer 302 with the computed location; allowed requests pass
// through unchanged.
func NewMiddleware(uc uc, sessionCookie string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out, err := uc.Evaluate(r.Context(), usecase.EvaluateInput{
				Method:   r.Method,
				Path:     r.URL.Path,
				RawQuery: r.URL.RawQuery,
				Token:    sessionToken(r, sessionCookie),
			})
			if err != nil {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "Internal server error"})
				return
			}

			if out.Decision == entity.DecisionAllow {
				next.ServeHTTP(w, r)
				return
			}

			slog.DebugContext(r.Context(), "gate redirect", "path", r.URL.Path, "decision", out.Decision.String())
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, out.Location, http.StatusFound)
		})
	}
}

// sessionToken reads the session cookie, falling back to a bearer token.
func sessionToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}

	return ""
}
