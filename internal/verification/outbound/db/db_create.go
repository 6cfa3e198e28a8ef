package db

import (
	"context"

	"github.com/shandysiswandi/titipyuk/internal/verification/entity"
)

func (s *DB) CreateToken(ctx context.Context, token entity.OTPToken) (err error) {
	ctx, span := s.startSpan(ctx, "CreateToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`insert into email_otp_tokens (id, user_id, email, code_hash, created_at, expires_at, attempts, max_attempts)
		values ($1, $2, $3, $4, $5, $6, 0, $7)`,
		token.ID, token.UserID, token.Email, token.CodeHash, token.CreatedAt, token.ExpiresAt, token.MaxAttempts,
	)
	err = s.mapError(err)
	return err
}
