package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/titipyuk/internal/pkg/goerror"
	"github.com/shandysiswandi/titipyuk/internal/pkg/idempotency"
	"github.com/shandysiswandi/titipyuk/internal/pkg/router"
	"github.com/shandysiswandi/titipyuk/internal/verification/usecase"
)

const headerIdempotencyKey = "Idempotency-Key"

type HTTPEndpoint struct {
	uc   uc
	idem idempotency.Idempotency
}

// RequestCode issues a verification code and emails it.
// @Summary Request verification code
// @Description Issues a 6 digit code for a registered, unverified email. Limited to one request per 60 seconds per email.
// @Tags Verification
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Deduplicates client retries"
// @Param request body RequestCodeRequest true "Request code payload"
// @Success 200 {object} router.successResponse{data=RequestCodeResponse} "Code issued or already verified"
// @Failure 400 {object} router.errorResponse "Missing email or unregistered user"
// @Failure 409 {object} router.errorResponse "Duplicate request in progress"
// @Failure 429 {object} router.errorResponse "Resend window not elapsed"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/request-otp [post]
func (h *HTTPEndpoint) RequestCode(r *router.Request) (any, error) {
	var req RequestCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	run := func(ctx context.Context) (RequestCodeResponse, error) {
		out, err := h.uc.RequestCode(ctx, usecase.RequestCodeInput{Email: req.Email})
		if err != nil {
			return RequestCodeResponse{}, err
		}

		if out.AlreadyVerified {
			return RequestCodeResponse{OK: true, AlreadyVerified: true}, nil
		}

		delivered := out.Delivered
		return RequestCodeResponse{
			OK:        true,
			Delivered: &delivered,
			SendError: out.SendError,
			DevCode:   out.DevCode,
		}, nil
	}

	key := r.GetHeader(headerIdempotencyKey)
	if h.idem == nil || key == "" {
		return run(r.Context())
	}

	return idempotent(r.Context(), h.idem, "request-otp:"+strings.ToLower(strings.TrimSpace(req.Email))+":"+key, run)
}

// VerifyCode checks a code and marks the email verified.
// @Summary Verify email code
// @Description Verifies the newest active code. Five wrong guesses exhaust the code.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body VerifyCodeRequest true "Verify code payload"
// @Success 200 {object} router.successResponse{data=VerifyCodeResponse} "Verified or already verified"
// @Failure 400 {object} router.errorResponse "Missing input, unknown user, expired or wrong code"
// @Failure 429 {object} router.errorResponse "Attempts exhausted"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/verify-otp [post]
func (h *HTTPEndpoint) VerifyCode(r *router.Request) (any, error) {
	var req VerifyCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.VerifyCode(r.Context(), usecase.VerifyCodeInput{
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyCodeResponse{OK: true, AlreadyVerified: out.AlreadyVerified, Verified: out.Verified}, nil
}

// idempotent runs fn once per key; a finished duplicate replays the stored
// response. When the tracker itself is unavailable fn runs unguarded.
func idempotent[T any](ctx context.Context, idem idempotency.Idempotency, key string, fn func(context.Context) (T, error)) (any, error) {
	var (
		ran   bool
		fresh T
		fnErr error
	)

	res, err := idem.Exec(ctx, key, func(ctx context.Context) ([]byte, error) {
		ran = true
		fresh, fnErr = fn(ctx)
		if fnErr != nil {
			return nil, fnErr
		}
		return json.Marshal(fresh)
	})
	switch {
	case ran && fnErr != nil:
		return nil, fnErr
	case ran && err != nil:
		// fn succeeded but the result could not be stored.
		slog.WarnContext(ctx, "failed to store idempotent response", "key", key, "error", err)
		return fresh, nil
	case ran:
		return fresh, nil
	case errors.Is(err, idempotency.ErrInProgress):
		return nil, goerror.NewBusiness("Request is already being processed", goerror.CodeConflict)
	case err != nil:
		slog.WarnContext(ctx, "idempotency tracker unavailable, running unguarded", "key", key, "error", err)
		return fn(ctx)
	}

	var out T
	if err := json.Unmarshal(res.Response, &out); err != nil {
		slog.ErrorContext(ctx, "failed to decode replayed response", "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return out, nil
}
