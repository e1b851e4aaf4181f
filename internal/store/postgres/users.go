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

const usersTable = "users"

func newUserTable(q querier, log logrus.FieldLogger) *table[core.User] {
	return &table[core.User]{
		q:       q,
		log:     log,
		now:     time.Now,
		name:    usersTable,
		entity:  core.EntityUser,
		columns: []any{"id", "email", "username", "password_hash", "role", "books_count", "created_at", "updated_at"},
		filters: map[string]bool{"role": true, "email": true, "username": true},
		order:   []exp.OrderedExpression{goqu.C("created_at").Asc(), goqu.C("id").Asc()},
		scan:    scanUser,
		id:      func(u *core.User) uuid.UUID { return u.ID },
		record: func(u *core.User) goqu.Record {
			return goqu.Record{
				"email":         u.Email,
				"username":      u.Username,
				"password_hash": u.PasswordHash,
				"role":          string(u.Role),
			}
		},
	}
}

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &role, &u.BooksCount, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = core.Role(role)
	return &u, nil
}

// userRepo never writes books_count through Update; AdjustBooksCount owns it.
type userRepo struct {
	*table[core.User]
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	ds := dialect.From(usersTable).Prepared(true).
		Select(r.columns...).
		Where(goqu.C("email").Eq(email))
	return r.queryOne(ctx, "get_by_email", ds)
}

func (r *userRepo) AdjustBooksCount(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	ds := dialect.Update(usersTable).Prepared(true).
		Set(goqu.Record{
			"books_count": goqu.L("GREATEST(books_count + ?, 0)", delta),
			"updated_at":  r.now().UTC(),
		}).
		Where(goqu.C("id").Eq(id)).
		Returning("books_count")

	var count int
	ok, err := r.execReturning(ctx, "adjust_books_count", ds, &count)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, core.NotFound(core.EntityUser)
	}
	return count, nil
}
