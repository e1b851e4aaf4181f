package postgres

import (
	"context"
	"time"

	"library-api/internal/core"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

const booksTable = "books"

func newBookTable(q querier, log logrus.FieldLogger) *table[core.Book] {
	return &table[core.Book]{
		q:      q,
		log:    log,
		now:    time.Now,
		name:   booksTable,
		entity: core.EntityBook,
		columns: []any{
			"id", "title", "description", "publication_date", "authors",
			"counter", "genre", "author_id", "created_at", "updated_at",
		},
		filters: map[string]bool{"author_id": true, "genre": true, "title": true},
		order:   []exp.OrderedExpression{goqu.C("title").Asc(), goqu.C("id").Asc()},
		scan: func(row pgx.Row) (*core.Book, error) {
			var b core.Book
			if err := row.Scan(
				&b.ID, &b.Title, &b.Description, &b.PublicationDate, &b.Authors,
				&b.Counter, &b.Genre, &b.AuthorID, &b.CreatedAt, &b.UpdatedAt,
			); err != nil {
				return nil, err
			}
			return &b, nil
		},
		id: func(b *core.Book) uuid.UUID { return b.ID },
		record: func(b *core.Book) goqu.Record {
			return goqu.Record{
				"title":            b.Title,
				"description":      nullable(b.Description),
				"publication_date": b.PublicationDate,
				"authors":          b.Authors,
				"counter":          b.Counter,
				"genre":            nullable(b.Genre),
				"author_id":        b.AuthorID,
			}
		},
	}
}

type bookRepo struct {
	*table[core.Book]
}

// TakeCopy decrements counter with a guarded UPDATE, so two transactions can
// never both take the last copy even without a prior row lock.
func (r *bookRepo) TakeCopy(ctx context.Context, id uuid.UUID) (int, error) {
	ds := dialect.Update(booksTable).Prepared(true).
		Set(goqu.Record{
			"counter":    goqu.L("counter - 1"),
			"updated_at": r.now().UTC(),
		}).
		Where(goqu.C("id").Eq(id), goqu.C("counter").Gt(0)).
		Returning("counter")

	var counter int
	ok, err := r.execReturning(ctx, "take_copy", ds, &counter)
	if err != nil {
		return 0, err
	}
	if !ok {
		if _, err := r.Get(ctx, id); err != nil {
			return 0, err
		}
		return 0, core.ErrUnavailable
	}
	return counter, nil
}

func (r *bookRepo) PutBackCopy(ctx context.Context, id uuid.UUID) (int, error) {
	ds := dialect.Update(booksTable).Prepared(true).
		Set(goqu.Record{
			"counter":    goqu.L("counter + 1"),
			"updated_at": r.now().UTC(),
		}).
		Where(goqu.C("id").Eq(id)).
		Returning("counter")

	var counter int
	ok, err := r.execReturning(ctx, "put_back_copy", ds, &counter)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, core.NotFound(core.EntityBook)
	}
	return counter, nil
}
