package db

import (
	"context"
)

// IncrementAttempts bumps the counter in one conditional statement. A token
// that is already exhausted or used yields goerror.ErrNotFound.
func (s *DB) IncrementAttempts(ctx context.Context, tokenID int64) (_ int32, err error) {
	ctx, span := s.startSpan(ctx, "IncrementAttempts")
	defer func() { s.endSpan(span, err) }()

	var attempts int32
	err = s.conn.QueryRow(ctx,
		`update email_otp_tokens set attempts = attempts + 1
		where id = $1 and attempts < max_attempts and used_at is null
		returning attempts`,
		tokenID,
	).Scan(&attempts)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return attempts, nil
}
