package postgres

import (
	"errors"
	"testing"

	"library-api/internal/core"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_SelectForUpdateSQL(t *testing.T) {
	books := newBookTable(nil, nil)

	query, args, err := books.selectByID(uuid.New()).ForUpdate(exp.Wait).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, query, `FROM "books"`)
	assert.Contains(t, query, `"id" = $1`)
	assert.Contains(t, query, "FOR UPDATE")
	assert.Len(t, args, 1)
}

func TestTable_FilteredRejectsUnknownColumn(t *testing.T) {
	users := newUserTable(nil, nil)

	_, err := users.filtered(dialect.From(usersTable), core.Filter{}.Eq("password_hash", "x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestTable_FilteredAppliesPaging(t *testing.T) {
	issues := newIssueTable(nil, nil)

	ds, err := issues.filtered(
		dialect.From(issuesTable).Prepared(true).Select(issues.columns...),
		core.Filter{Limit: 10, Offset: 20}.Eq("user_id", uuid.New()),
	)
	require.NoError(t, err)

	query, args, err := ds.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, query, `"user_id" = $1`)
	assert.Contains(t, query, "LIMIT")
	assert.Contains(t, query, "OFFSET")
	assert.NotEmpty(t, args)
}

func TestTakeCopySQL_GuardsCounter(t *testing.T) {
	query, _, err := dialect.Update(booksTable).Prepared(true).
		Set(goqu.Record{"counter": goqu.L("counter - 1")}).
		Where(goqu.C("id").Eq(uuid.New()), goqu.C("counter").Gt(0)).
		Returning("counter").
		ToSQL()
	require.NoError(t, err)
	assert.Contains(t, query, `"counter"=counter - 1`)
	assert.Contains(t, query, `"counter" > $`)
	assert.Contains(t, query, `RETURNING "counter"`)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"no rows", pgx.ErrNoRows, core.ErrNotFound, "Book not found"},
		{"duplicate email", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, core.ErrConflict, "user with this email already exists"},
		{"missing author", &pgconn.PgError{Code: "23503", ConstraintName: "books_author_id_fkey"}, core.ErrIntegrity, "author does not exist"},
		{"negative counter", &pgconn.PgError{Code: "23514", ConstraintName: "books_counter_check"}, core.ErrValidation, "check constraint books_counter_check violated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err, core.EntityBook)
			assert.True(t, errors.Is(got, tt.kind))
			assert.Equal(t, tt.msg, core.PublicMessage(got))
		})
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other, core.EntityBook))
}
