package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shandysiswandi/titipyuk/internal/verification/entity"
)

const tokenColumns = `id, coalesce(user_id, 0), email, code_hash, created_at, expires_at, attempts, max_attempts, used_at`

func (s *DB) GetPrincipalByEmail(ctx context.Context, email string) (_ *entity.Principal, err error) {
	ctx, span := s.startSpan(ctx, "GetPrincipalByEmail")
	defer func() { s.endSpan(span, err) }()

	var p entity.Principal
	err = s.conn.QueryRow(ctx,
		`select id, email, email_verified, email_confirmed_at from profiles where email = $1`,
		email,
	).Scan(&p.ID, &p.Email, &p.EmailVerified, &p.EmailConfirmedAt)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &p, nil
}

func (s *DB) GetLatestTokenByEmail(ctx context.Context, email string) (_ *entity.OTPToken, err error) {
	ctx, span := s.startSpan(ctx, "GetLatestTokenByEmail")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx,
		`select `+tokenColumns+` from email_otp_tokens where email = $1 order by created_at desc, id desc limit 1`,
		email,
	)

	t, err := scanToken(row)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &t, nil
}

func (s *DB) GetActiveTokensByEmail(ctx context.Context, email string, now time.Time, limit int) (_ []entity.OTPToken, err error) {
	ctx, span := s.startSpan(ctx, "GetActiveTokensByEmail")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`select `+tokenColumns+` from email_otp_tokens
		where email = $1 and used_at is null and expires_at > $2
		order by created_at desc, id desc limit $3`,
		email, now, limit,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	tokens, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (entity.OTPToken, error) {
		return scanToken(r)
	})
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return tokens, nil
}

func scanToken(row pgx.Row) (entity.OTPToken, error) {
	var t entity.OTPToken
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Email,
		&t.CodeHash,
		&t.CreatedAt,
		&t.ExpiresAt,
		&t.Attempts,
		&t.MaxAttempts,
		&t.UsedAt,
	)
	return t, err
}
