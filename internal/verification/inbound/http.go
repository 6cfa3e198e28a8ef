package inbound

import (
	"github.com/shandysiswandi/titipyuk/internal/pkg/idempotency"
	"github.com/shandysiswandi/titipyuk/internal/pkg/router"
)

// RegisterHTTPEndpoint mounts the code endpoints. idem may be nil, in which
// case Idempotency-Key headers are ignored.
func RegisterHTTPEndpoint(r *router.Router, uc uc, idem idempotency.Idempotency) {
	end := &HTTPEndpoint{uc: uc, idem: idem}

	r.POST("/api/auth/request-otp", end.RequestCode)
	r.POST("/api/auth/verify-otp", end.VerifyCode)

	r.POST("/auth/request-otp", end.RequestCode)
	r.POST("/auth/verify-otp", end.VerifyCode)
}
