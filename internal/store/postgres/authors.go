package postgres

import (
	"time"

	"library-api/internal/core"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

func newAuthorTable(q querier, log logrus.FieldLogger) *table[core.Author] {
	return &table[core.Author]{
		q:       q,
		log:     log,
		now:     time.Now,
		name:    "authors",
		entity:  core.EntityAuthor,
		columns: []any{"id", "name", "biography", "birth_date", "created_at", "updated_at"},
		filters: map[string]bool{"name": true},
		order:   []exp.OrderedExpression{goqu.C("name").Asc(), goqu.C("id").Asc()},
		scan: func(row pgx.Row) (*core.Author, error) {
			var a core.Author
			if err := row.Scan(&a.ID, &a.Name, &a.Biography, &a.BirthDate, &a.CreatedAt, &a.UpdatedAt); err != nil {
				return nil, err
			}
			return &a, nil
		},
		id: func(a *core.Author) uuid.UUID { return a.ID },
		record: func(a *core.Author) goqu.Record {
			return goqu.Record{
				"name":       a.Name,
				"biography":  a.Biography,
				"birth_date": a.BirthDate,
			}
		},
	}
}

type authorRepo struct {
	*table[core.Author]
}
