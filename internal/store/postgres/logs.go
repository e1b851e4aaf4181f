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

func newLogTable(q querier, log logrus.FieldLogger) *table[core.LogEntry] {
	return &table[core.LogEntry]{
		q:       q,
		log:     log,
		now:     time.Now,
		name:    "logs",
		entity:  "LogEntry",
		columns: []any{"id", "event_type", "description", "timestamp", "created_at", "updated_at"},
		filters: map[string]bool{"event_type": true},
		order:   []exp.OrderedExpression{goqu.C("timestamp").Desc(), goqu.C("id").Asc()},
		scan: func(row pgx.Row) (*core.LogEntry, error) {
			var e core.LogEntry
			if err := row.Scan(&e.ID, &e.EventType, &e.Description, &e.Timestamp, &e.CreatedAt, &e.UpdatedAt); err != nil {
				return nil, err
			}
			return &e, nil
		},
		id: func(e *core.LogEntry) uuid.UUID { return e.ID },
		record: func(e *core.LogEntry) goqu.Record {
			return goqu.Record{
				"event_type":  e.EventType,
				"description": e.Description,
				"timestamp":   e.Timestamp,
			}
		},
	}
}

// logRepo exposes only Append and List of the shared table.
type logRepo struct {
	table *table[core.LogEntry]
}

func (r *logRepo) Append(ctx context.Context, entry *core.LogEntry) error {
	return r.table.Create(ctx, entry)
}

func (r *logRepo) List(ctx context.Context, f core.Filter) ([]core.LogEntry, error) {
	return r.table.List(ctx, f)
}
