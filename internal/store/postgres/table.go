package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-api/internal/core"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// table runs the CRUD statements shared by every entity. Entity-specific
// pieces come from the descriptor fields.
type table[T any] struct {
	q      querier
	log    logrus.FieldLogger
	now    func() time.Time
	name   string
	entity string

	columns []any
	// filters are the columns List accepts in Filter.Where.
	filters map[string]bool
	order   []exp.OrderedExpression

	scan   func(row pgx.Row) (*T, error)
	id     func(v *T) uuid.UUID
	record func(v *T) goqu.Record
}

func (t *table[T]) selectByID(id uuid.UUID) *goqu.SelectDataset {
	return dialect.From(t.name).Prepared(true).
		Select(t.columns...).
		Where(goqu.C("id").Eq(id))
}

func (t *table[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return t.queryOne(ctx, "get", t.selectByID(id))
}

func (t *table[T]) GetForUpdate(ctx context.Context, id uuid.UUID) (*T, error) {
	return t.queryOne(ctx, "get_for_update", t.selectByID(id).ForUpdate(exp.Wait))
}

func (t *table[T]) Create(ctx context.Context, v *T) error {
	now := t.now().UTC()
	rec := t.record(v)
	rec["id"] = t.id(v)
	rec["created_at"] = now
	rec["updated_at"] = now

	ds := dialect.Insert(t.name).Prepared(true).Rows(rec).Returning(t.columns...)
	got, err := t.queryOne(ctx, "create", ds)
	if err != nil {
		return err
	}
	*v = *got
	return nil
}

func (t *table[T]) Update(ctx context.Context, v *T) error {
	rec := t.record(v)
	rec["updated_at"] = t.now().UTC()

	ds := dialect.Update(t.name).Prepared(true).
		Set(rec).
		Where(goqu.C("id").Eq(t.id(v))).
		Returning(t.columns...)
	got, err := t.queryOne(ctx, "update", ds)
	if err != nil {
		return err
	}
	*v = *got
	return nil
}

func (t *table[T]) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := dialect.Delete(t.name).Prepared(true).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", t.name, err)
	}
	tag, err := t.q.Exec(ctx, query, args...)
	if err != nil {
		return t.fail("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound(t.entity)
	}
	return nil
}

func (t *table[T]) List(ctx context.Context, f core.Filter) ([]T, error) {
	ds, err := t.filtered(dialect.From(t.name).Prepared(true).Select(t.columns...), f)
	if err != nil {
		return nil, err
	}
	return t.queryMany(ctx, "list", ds.Order(t.order...))
}

// filtered applies Where, Limit and Offset, rejecting columns not in t.filters.
func (t *table[T]) filtered(ds *goqu.SelectDataset, f core.Filter) (*goqu.SelectDataset, error) {
	for col, val := range f.Where {
		if !t.filters[col] {
			return nil, core.KindErrorf(core.ErrValidation, "unknown filter %q", col)
		}
		ds = ds.Where(goqu.C(col).Eq(val))
	}
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}
	return ds, nil
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (t *table[T]) queryOne(ctx context.Context, op string, ds sqlBuilder) (*T, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", op, t.name, err)
	}
	v, err := t.scan(t.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, t.fail(op, err)
	}
	return v, nil
}

func (t *table[T]) queryMany(ctx context.Context, op string, ds sqlBuilder) ([]T, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", op, t.name, err)
	}
	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, t.fail(op, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := t.scan(rows)
		if err != nil {
			return nil, t.fail(op, err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, t.fail(op, err)
	}
	return out, nil
}

// fail translates err and logs it when it does not map onto a known kind.
func (t *table[T]) fail(op string, err error) error {
	translated := translate(err, t.entity)
	if !isKnownKind(translated) {
		logError(t.log, t.name+"_"+op+"_failed", err, logrus.Fields{"table": t.name})
		return fmt.Errorf("%s %s: %w", op, t.name, err)
	}
	return translated
}

// execReturning runs a conditional UPDATE ... RETURNING col and scans the single
// value. ok is false when no row matched.
func (t *table[T]) execReturning(ctx context.Context, op string, ds *goqu.UpdateDataset, dest any) (bool, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return false, fmt.Errorf("build %s %s: %w", op, t.name, err)
	}
	if err := t.q.QueryRow(ctx, query, args...).Scan(dest); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, t.fail(op, err)
	}
	return true, nil
}

func nullable[V any](p *V) any {
	if p == nil {
		return nil
	}
	return *p
}
