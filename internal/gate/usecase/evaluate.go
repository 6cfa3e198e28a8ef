package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/shandysiswandi/titipyuk/internal/gate/entity"
	"github.com/shandysiswandi/titipyuk/internal/pkg/goerror"
)

const paramRedirectTo = "redirectTo"

type EvaluateInput struct {
	Method   string
	Path     string
	RawQuery string
	Token    string
}

type EvaluateOutput struct {
	Decision entity.Decision
	Class    entity.PathClass
	// Location is set for every redirect decision.
	Location string
	// Principal is the validated session owner, nil when unauthenticated.
	Principal *entity.Principal
}

func (s *Usecase) Evaluate(ctx context.Context, in EvaluateInput) (*EvaluateOutput, error) {
	ctx, span := s.startSpan(ctx, "Evaluate")
	defer span.End()

	if in.Method != http.MethodGet && in.Method != http.MethodHead {
		return &EvaluateOutput{Decision: entity.DecisionAllow}, nil
	}

	class, err := s.classifier.Classify(ctx, in.Path)
	if err != nil {
		slog.ErrorContext(ctx, "failed to classify path", "path", in.Path, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &EvaluateOutput{Decision: entity.DecisionAllow, Class: class}
	defer func() {
		s.decisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("decision", out.Decision.String()),
			attribute.String("class", class.String()),
		))
	}()

	if class == entity.PathClassPublic {
		return out, nil
	}

	out.Principal = s.resolvePrincipal(ctx, in.Token)
	verified := out.Principal != nil && out.Principal.Verified(s.mode)

	switch class {
	case entity.PathClassProtected:
		// the query string rides along so a deep link survives the login round trip
		target := in.Path
		if in.RawQuery != "" {
			target += "?" + in.RawQuery
		}

		switch {
		case out.Principal == nil:
			out.Decision = entity.DecisionRedirectLogin
			out.Location = s.loginPath + "?" + url.Values{paramRedirectTo: {target}}.Encode()
		case !verified:
			out.Decision = entity.DecisionRedirectVerify
			out.Location = s.verifyPath + "?" + url.Values{
				"needVerify":    {"1"},
				"email":         {out.Principal.Email},
				paramRedirectTo: {target},
			}.Encode()
		}

	case entity.PathClassAuthEntry:
		if verified {
			out.Decision = entity.DecisionRedirectAway
			out.Location = s.awayTarget(ctx, in.RawQuery)
		}
	}

	return out, nil
}

// resolvePrincipal validates the session token and re-reads its owner. Any
// failure yields nil, which the policy treats as unauthenticated.
func (s *Usecase) resolvePrincipal(ctx context.Context, token string) *entity.Principal {
	if token == "" {
		return nil
	}

	clm, err := s.jwt.Verify(token)
	if err != nil {
		slog.DebugContext(ctx, "session token rejected", "error", err)
		return nil
	}

	p, err := s.repoDB.GetPrincipalByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "session for unknown principal", "user_id", clm.UserID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get principal by id", "user_id", clm.UserID, "error", err)
		return nil
	}

	if !strings.EqualFold(p.Email, clm.UserEmail) {
		slog.WarnContext(ctx, "session email does not match principal", "user_id", clm.UserID)
		return nil
	}

	return p
}

// awayTarget honors a safe redirectTo, except one that points back at an
// auth-entry page.
func (s *Usecase) awayTarget(ctx context.Context, rawQuery string) string {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return s.landingPath
	}

	target := SanitizeRedirect(q.Get(paramRedirectTo), s.landingPath)
	if target == s.landingPath {
		return target
	}

	u, err := url.Parse(target)
	if err != nil {
		return s.landingPath
	}
	if class, err := s.classifier.Classify(ctx, u.Path); err != nil || class == entity.PathClassAuthEntry {
		return s.landingPath
	}

	return target
}
