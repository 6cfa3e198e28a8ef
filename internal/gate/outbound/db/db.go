package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"

	"github.com/shandysiswandi/titipyuk/internal/gate/entity"
	"github.com/shandysiswandi/titipyuk/internal/pkg/goerror"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) GetPrincipalByID(ctx context.Context, id int64) (*entity.Principal, error) {
	ctx, span := s.ins.Tracer("gate.outbound.db").Start(ctx, "GetPrincipalByID")
	defer span.End()

	var p entity.Principal
	err := s.conn.QueryRow(ctx,
		`select id, email, email_verified, email_confirmed_at from profiles where id = $1`,
		id,
	).Scan(&p.ID, &p.Email, &p.EmailVerified, &p.EmailConfirmedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &p, nil
}
