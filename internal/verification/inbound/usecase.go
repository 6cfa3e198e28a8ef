package inbound

import (
	"context"

	"github.com/shandysiswandi/titipyuk/internal/verification/usecase"
)

type ucConsumer interface {
	ConsumePrincipalRegistered(ctx context.Context, in usecase.ConsumePrincipalRegisteredInput) error
}

type uc interface {
	ucConsumer

	RequestCode(ctx context.Context, in usecase.RequestCodeInput) (*usecase.RequestCodeOutput, error)
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) (*usecase.VerifyCodeOutput, error)
}
