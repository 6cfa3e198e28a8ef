package usecase

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/shandysiswandi/titipyuk/internal/pkg/goerror"
	"github.com/shandysiswandi/titipyuk/internal/pkg/mail"
	"github.com/shandysiswandi/titipyuk/internal/verification/entity"
)

const (
	sendErrNotConfigured = "mail transport not configured"
	sendErrTimeout       = "email dispatch timed out"
	sendErrFailed        = "email dispatch failed"
)

type RequestCodeInput struct {
	Email string
}

type RequestCodeOutput struct {
	AlreadyVerified bool
	Delivered       bool
	SendError       string
	DevCode         string
}

func (s *Usecase) RequestCode(ctx context.Context, in RequestCodeInput) (*RequestCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestCode")
	defer span.End()

	const op = entity.OperationRequestCode

	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, entity.FailureMissingInput.Err(op, nil)
	}

	principal, err := s.repoDB.GetPrincipalByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "code requested for unregistered email", "email", email)
		return nil, entity.FailureUnknownPrincipal.Err(op, nil)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get principal by email", "email", email, "error", err)
		return nil, entity.FailurePersistenceError.Err(op, err)
	}

	if principal.EmailVerified {
		return &RequestCodeOutput{AlreadyVerified: true}, nil
	}

	now := s.clock.Now()

	last, err := s.repoDB.GetLatestTokenByEmail(ctx, email)
	switch {
	case err == nil:
		if elapsed := now.Sub(last.CreatedAt); elapsed < s.resendInterval() {
			slog.WarnContext(ctx, "code requested inside resend window", "email", email, "elapsed", elapsed.String())
			return nil, entity.FailureRateLimited.Err(op, nil)
		}
	case !errors.Is(err, goerror.ErrNotFound):
		slog.ErrorContext(ctx, "failed to repo get latest token by email", "email", email, "error", err)
		return nil, entity.FailurePersistenceError.Err(op, err)
	}

	code, err := s.code.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "error", err)
		return nil, entity.FailureEntropyUnavailable.Err(op, err)
	}

	digest, err := s.hasher.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash verification code", "error", err)
		return nil, entity.FailureHashingFailed.Err(op, err)
	}

	ttl := s.codeTTL()
	token := entity.OTPToken{
		ID:          s.uid.Generate(),
		UserID:      principal.ID,
		Email:       email,
		CodeHash:    string(digest),
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
		MaxAttempts: s.maxAttempts(),
	}

	if err := s.repoDB.CreateToken(ctx, token); err != nil {
		slog.ErrorContext(ctx, "failed to repo create token", "email", email, "error", err)
		return nil, entity.FailurePersistenceError.Err(op, err)
	}

	out := &RequestCodeOutput{}
	out.Delivered, out.SendError = s.dispatch(ctx, CodeMail{
		Email:     email,
		Code:      code,
		ExpiresAt: token.ExpiresAt,
		TTL:       ttl,
	})
	if s.exposeDevCode {
		out.DevCode = code
	}

	s.issuedCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("delivered", out.Delivered)))

	if err := s.repoMessaging.PublishCodeIssued(ctx, entity.IssuedCode{
		UserID:    principal.ID,
		Email:     email,
		ExpiresAt: token.ExpiresAt,
		Delivered: out.Delivered,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish code issued", "user_id", principal.ID, "error", err)
	}

	return out, nil
}

// dispatch sends the code on a context detached from the caller, so an
// aborted request neither cuts the send short nor undoes the issued token.
// Any failure degrades to delivered=false.
func (s *Usecase) dispatch(ctx context.Context, msg CodeMail) (bool, string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.dispatchTimeout())
	defer cancel()

	err := s.repoMail.SendCode(dctx, msg)
	switch {
	case err == nil:
		return true, ""
	case errors.Is(err, mail.ErrNotConfigured):
		slog.WarnContext(ctx, "mail transport not configured, skipping verification email", "email", msg.Email)
		return false, sendErrNotConfigured
	case errors.Is(err, context.DeadlineExceeded):
		slog.WarnContext(ctx, "verification email timed out", "email", msg.Email, "error", err)
		return false, sendErrTimeout
	default:
		slog.WarnContext(ctx, "failed to send verification email", "email", msg.Email, "error", err)
		return false, sendErrFailed
	}
}
