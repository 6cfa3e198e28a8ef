package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/titipyuk/internal/pkg/goerror"
	"github.com/shandysiswandi/titipyuk/internal/verification/entity"
)

type VerifyCodeInput struct {
	Email string
	Code  string
}

type VerifyCodeOutput struct {
	AlreadyVerified bool
	Verified        bool
}

func (s *Usecase) VerifyCode(ctx context.Context, in VerifyCodeInput) (*VerifyCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyCode")
	defer span.End()

	const op = entity.OperationVerifyCode

	email := normalizeEmail(in.Email)
	code := strings.TrimSpace(in.Code)
	if email == "" || code == "" {
		return nil, entity.FailureMissingInput.Err(op, nil)
	}

	principal, err := s.repoDB.GetPrincipalByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "code verification for unregistered email", "email", email)
		return nil, entity.FailureUnknownPrincipal.Err(op, nil)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get principal by email", "email", email, "error", err)
		return nil, entity.FailurePersistenceError.Err(op, err)
	}

	if principal.EmailVerified {
		return &VerifyCodeOutput{AlreadyVerified: true}, nil
	}

	now := s.clock.Now()

	tokens, err := s.repoDB.GetActiveTokensByEmail(ctx, email, now, activeTokenLookupLimit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get active tokens by email", "email", email, "error", err)
		return nil, entity.FailurePersistenceError.Err(op, err)
	}
	if len(tokens) == 0 {
		return nil, entity.FailureNoActiveCode.Err(op, nil)
	}

	token := tokens[0]
	if token.IsExhausted() {
		slog.WarnContext(ctx, "verification attempts exhausted", "token_id", token.ID, "attempts", token.Attempts)
		return nil, entity.FailureTooManyAttempts.Err(op, nil)
	}

	match, err := s.hasher.Compare([]byte(token.CodeHash), code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compare verification code", "token_id", token.ID, "error", err)
		return nil, entity.FailureHashingFailed.Err(op, err)
	}

	if !match {
		return nil, s.recordMismatch(ctx, token)
	}

	err = s.repoDB.MarkTokenUsedAndVerify(ctx, token.ID, principal.ID, now)
	if errors.Is(err, goerror.ErrConflict) {
		return s.resolveConcurrentUse(ctx, email, token.ID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark token used and verify", "token_id", token.ID, "user_id", principal.ID, "error", err)
		return nil, entity.FailurePersistenceError.Err(op, err)
	}

	s.verifiedCounter.Add(ctx, 1)

	if err := s.repoMessaging.PublishEmailVerified(ctx, entity.VerifiedEmail{
		UserID:     principal.ID,
		Email:      email,
		VerifiedAt: now,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish email verified", "user_id", principal.ID, "error", err)
	}

	return &VerifyCodeOutput{Verified: true}, nil
}

// recordMismatch counts a wrong guess. The increment only applies while the
// token still has attempts left, so a guess that loses the race against the
// last allowed one is reported as exhausted.
func (s *Usecase) recordMismatch(ctx context.Context, token entity.OTPToken) error {
	const op = entity.OperationVerifyCode

	attempts, err := s.repoDB.IncrementAttempts(ctx, token.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "verification token exhausted or consumed during compare", "token_id", token.ID)
		return entity.FailureTooManyAttempts.Err(op, nil)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo increment attempts", "token_id", token.ID, "error", err)
		return entity.FailurePersistenceError.Err(op, err)
	}

	slog.InfoContext(ctx, "verification code mismatch", "token_id", token.ID, "attempts", attempts, "max_attempts", token.MaxAttempts)
	return entity.FailureCodeMismatch.Err(op, nil)
}

// resolveConcurrentUse handles a token consumed by a parallel request between
// lookup and commit. If that request verified the principal the caller sees
// the same outcome as a repeat call.
func (s *Usecase) resolveConcurrentUse(ctx context.Context, email string, tokenID int64) (*VerifyCodeOutput, error) {
	const op = entity.OperationVerifyCode

	slog.WarnContext(ctx, "verification token consumed concurrently", "token_id", tokenID)

	principal, err := s.repoDB.GetPrincipalByEmail(ctx, email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get principal by email", "email", email, "error", err)
		return nil, entity.FailurePersistenceError.Err(op, err)
	}
	if principal.EmailVerified {
		return &VerifyCodeOutput{AlreadyVerified: true}, nil
	}

	return nil, entity.FailureNoActiveCode.Err(op, nil)
}
