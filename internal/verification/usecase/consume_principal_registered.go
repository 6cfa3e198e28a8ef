package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/titipyuk/internal/pkg/goerror"
)

type ConsumePrincipalRegisteredInput struct {
	UserID int64  `validate:"required,gt=0"`
	Email  string `validate:"required,email"`
}

// ConsumePrincipalRegistered sends the first code after sign-up. Outcomes the
// sender cannot fix by redelivery (bad payload, rate limit, unknown email) are
// logged and acked; only server failures are returned for a retry.
func (s *Usecase) ConsumePrincipalRegistered(ctx context.Context, in ConsumePrincipalRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePrincipalRegistered")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid principal registered payload", "user_id", in.UserID, "error", err)
		return nil
	}

	out, err := s.RequestCode(ctx, RequestCodeInput{Email: in.Email})
	if err != nil {
		var gerr *goerror.Error
		if errors.As(err, &gerr) && gerr.Type() != goerror.TypeServer {
			slog.WarnContext(ctx, "first verification code not issued", "user_id", in.UserID, "reason", gerr.Msg())
			return nil
		}
		return err
	}

	if out.AlreadyVerified {
		slog.InfoContext(ctx, "principal already verified, no code issued", "user_id", in.UserID)
		return nil
	}

	slog.InfoContext(ctx, "first verification code issued", "user_id", in.UserID, "delivered", out.Delivered)
	return nil
}
