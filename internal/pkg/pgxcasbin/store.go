package pgxcasbin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
)

const (
	defaultTableName = "casbin_rule"
	fieldCount       = 6
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Commander defines the pgx operations required by the adapter store.
// Both *pgxpool.Pool and pgx.Tx satisfy it.
type Commander interface {
	Begin(context.Context) (pgx.Tx, error)
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type store struct {
	db    Commander
	table string

	columns   string
	insertSQL string
	deleteSQL string
}

func newStore(db Commander, table string) (*store, error) {
	table = lo.SnakeCase(table)
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentity, table)
	}

	cols := lo.Times(fieldCount, func(i int) string { return "v" + strconv.Itoa(i) })
	binds := lo.Times(fieldCount, func(i int) string { return "$" + strconv.Itoa(i+2) })
	matches := lo.Times(fieldCount, func(i int) string { return cols[i] + " = $" + strconv.Itoa(i+2) })

	columns := strings.Join(cols, ", ")
	return &store{
		db:      db,
		table:   table,
		columns: columns,
		insertSQL: fmt.Sprintf("insert into %s (ptype, %s) values ($1, %s) on conflict (ptype, %s) do nothing",
			table, columns, strings.Join(binds, ", "), columns),
		deleteSQL: fmt.Sprintf("delete from %s where ptype = $1 and %s", table, strings.Join(matches, " and ")),
	}, nil
}

func (s *store) selectWhere(ctx context.Context, ptype string, startIdx int, values ...string) ([][]string, error) {
	if len(values) > fieldCount-startIdx {
		return nil, fmt.Errorf("%w: %d > %d", ErrArgsTooLong, len(values), fieldCount-startIdx)
	}

	query := fmt.Sprintf("select ptype, %s from %s", s.columns, s.table)
	conds, args := s.conditions(ptype, startIdx, values)
	if len(conds) > 0 {
		query += " where " + strings.Join(conds, " and ")
	}
	query += " order by id"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrSelectRules, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		line := make([]*string, fieldCount+1)
		dest := lo.Map(line, func(_ *string, i int) any { return &line[i] })
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Join(ErrSelectRules, err)
		}
		out = append(out, trimTrailingEmpty(lo.Map(line, func(v *string, _ int) string { return lo.FromPtr(v) })))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrSelectRules, err)
	}
	return out, nil
}

func (s *store) conditions(ptype string, startIdx int, values []string) ([]string, []any) {
	var conds []string
	var args []any
	if ptype != "" {
		conds = append(conds, "ptype = $1")
		args = append(args, ptype)
	}
	for i, v := range values {
		if v == "" {
			continue
		}
		args = append(args, v)
		conds = append(conds, "v"+strconv.Itoa(i+startIdx)+" = $"+strconv.Itoa(len(args)))
	}
	return conds, args
}

func (s *store) insert(ctx context.Context, ptype string, rules ...[]string) error {
	return s.batch(ctx, s.db, s.insertSQL, ptype, rules, ErrInsertRule)
}

func (s *store) delete(ctx context.Context, ptype string, rules ...[]string) error {
	return s.batch(ctx, s.db, s.deleteSQL, ptype, rules, ErrDeleteRule)
}

func (s *store) deleteWhere(ctx context.Context, ptype string, startIdx int, values ...string) error {
	if ptype == "" {
		return ErrEmptyPtype
	}
	if len(values) > fieldCount-startIdx {
		return fmt.Errorf("%w: %d > %d", ErrArgsTooLong, len(values), fieldCount-startIdx)
	}

	conds, args := s.conditions(ptype, startIdx, values)
	query := fmt.Sprintf("delete from %s where %s", s.table, strings.Join(conds, " and "))
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return errors.Join(ErrDeleteRule, err)
	}
	return nil
}

// replaceAll swaps the whole rule set in one transaction.
func (s *store) replaceAll(ctx context.Context, lines [][]string) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.Join(ErrReplaceRules, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "delete from "+s.table); err != nil {
		return errors.Join(ErrReplaceRules, err)
	}

	byType := lo.GroupBy(lines, func(line []string) string { return line[0] })
	for ptype, group := range byType {
		rules := lo.Map(group, func(line []string, _ int) []string { return line[1:] })
		if err = s.batch(ctx, tx, s.insertSQL, ptype, rules, ErrReplaceRules); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.Join(ErrReplaceRules, err)
	}
	return nil
}

func (s *store) batch(ctx context.Context, db Commander, query, ptype string, rules [][]string, kind error) error {
	if len(rules) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, rule := range rules {
		args, err := ruleArgs(ptype, rule)
		if err != nil {
			return err
		}
		b.Queue(query, args...)
	}

	br := db.SendBatch(ctx, b)
	for range b.Len() {
		if _, err := br.Exec(); err != nil {
			return errors.Join(kind, ErrBatchExec, err, br.Close())
		}
	}
	if err := br.Close(); err != nil {
		return errors.Join(kind, ErrBatchExec, err)
	}
	return nil
}

func ruleArgs(ptype string, rule []string) ([]any, error) {
	if len(rule) > fieldCount {
		return nil, fmt.Errorf("%w: %d > %d", ErrRuleTooLong, len(rule), fieldCount)
	}
	padded := make([]string, fieldCount)
	copy(padded, rule)
	return lo.ToAnySlice(append([]string{ptype}, padded...)), nil
}

func trimTrailingEmpty(rule []string) []string {
	last := len(rule) - 1
	for last >= 0 && rule[last] == "" {
		last--
	}
	return rule[:last+1]
}
