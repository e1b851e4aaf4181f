package postgres

import (
	"context"
	"fmt"
	"time"

	"library-api/internal/core"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

const issuesTable = "issued_books"

func newIssueTable(q querier, log logrus.FieldLogger) *table[core.Issue] {
	return &table[core.Issue]{
		q:       q,
		log:     log,
		now:     time.Now,
		name:    issuesTable,
		entity:  core.EntityIssue,
		columns: []any{"id", "book_id", "user_id", "issue_date", "return_date", "returned", "created_at", "updated_at"},
		filters: map[string]bool{"book_id": true, "user_id": true, "returned": true},
		order:   []exp.OrderedExpression{goqu.C("issue_date").Desc(), goqu.C("created_at").Desc(), goqu.C("id").Asc()},
		scan: func(row pgx.Row) (*core.Issue, error) {
			var i core.Issue
			if err := row.Scan(&i.ID, &i.BookID, &i.UserID, &i.IssueDate, &i.ReturnDate, &i.Returned, &i.CreatedAt, &i.UpdatedAt); err != nil {
				return nil, err
			}
			return &i, nil
		},
		id: func(i *core.Issue) uuid.UUID { return i.ID },
		record: func(i *core.Issue) goqu.Record {
			return goqu.Record{
				"book_id":     i.BookID,
				"user_id":     i.UserID,
				"issue_date":  i.IssueDate,
				"return_date": i.ReturnDate,
				"returned":    i.Returned,
			}
		},
	}
}

type issueRepo struct {
	*table[core.Issue]
}

func (r *issueRepo) MarkReturned(ctx context.Context, id uuid.UUID) error {
	ds := dialect.Update(issuesTable).Prepared(true).
		Set(goqu.Record{
			"returned":   true,
			"updated_at": r.now().UTC(),
		}).
		Where(goqu.C("id").Eq(id), goqu.C("returned").IsFalse()).
		Returning("returned")

	var returned bool
	ok, err := r.execReturning(ctx, "mark_returned", ds, &returned)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return core.ErrAlreadyReturned
	}
	return nil
}

func (r *issueRepo) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	query, args, err := dialect.From(issuesTable).Prepared(true).
		Select(goqu.COUNT("*")).
		Where(goqu.C("user_id").Eq(userID), goqu.C("returned").IsFalse()).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count_active %s: %w", issuesTable, err)
	}
	var n int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, r.fail("count_active", err)
	}
	return n, nil
}

func (r *issueRepo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]core.Issue, error) {
	return r.List(ctx, core.Filter{}.Eq("user_id", userID).Eq("returned", false))
}
