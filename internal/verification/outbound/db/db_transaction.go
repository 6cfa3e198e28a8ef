package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shandysiswandi/titipyuk/internal/pkg/goerror"
)

// MarkTokenUsedAndVerify consumes the token and flags the principal verified
// in one transaction. A token consumed by someone else first rolls the whole
// unit back with goerror.ErrConflict.
func (s *DB) MarkTokenUsedAndVerify(ctx context.Context, tokenID, principalID int64, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkTokenUsedAndVerify")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx,
		`update email_otp_tokens set used_at = $2 where id = $1 and used_at is null`,
		tokenID, now,
	)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrConflict
		return err
	}

	tag, err = tx.Exec(ctx,
		`update profiles set email_verified = true, updated_at = $2 where id = $1`,
		principalID, now,
	)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		err = s.mapError(err)
		return err
	}

	return nil
}
