// Package postgres implements core.Store on PostgreSQL with pgx. Statements are
// built with goqu and run as prepared queries.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"library-api/internal/core"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

var dialect = goqu.Dialect("postgres")

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	log  logrus.FieldLogger
}

func New(pool *pgxpool.Pool, log logrus.FieldLogger) *Store {
	return &Store{pool: pool, log: log}
}

func (s *Store) Repos() core.Repos {
	return newRepos(s.pool, s.log)
}

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken through
// GetForUpdate are held until it ends.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx core.Repos) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logError(s.log, "tx_begin_failed", err, nil)
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, newRepos(tx, s.log)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		logError(s.log, "tx_commit_failed", err, nil)
		return translate(err, "")
	}
	return nil
}

type repos struct {
	users   *userRepo
	authors *authorRepo
	books   *bookRepo
	issues  *issueRepo
	logs    *logRepo
}

func newRepos(q querier, log logrus.FieldLogger) *repos {
	return &repos{
		users:   &userRepo{table: newUserTable(q, log)},
		authors: &authorRepo{table: newAuthorTable(q, log)},
		books:   &bookRepo{table: newBookTable(q, log)},
		issues:  &issueRepo{table: newIssueTable(q, log)},
		logs:    &logRepo{table: newLogTable(q, log)},
	}
}

func (r *repos) Users() core.UserRepository     { return r.users }
func (r *repos) Authors() core.AuthorRepository { return r.authors }
func (r *repos) Books() core.BookRepository     { return r.books }
func (r *repos) Issues() core.IssueRepository   { return r.issues }
func (r *repos) Logs() core.LogRepository       { return r.logs }

// translate maps driver errors onto core error kinds. entity names the record
// a missing row refers to.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return core.NotFound(entity)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		switch pgErr.ConstraintName {
		case "users_email_key":
			return core.KindErrorf(core.ErrConflict, "user with this email already exists")
		case "users_username_key":
			return core.KindErrorf(core.ErrConflict, "user with this username already exists")
		}
		return core.KindErrorf(core.ErrConflict, "record already exists")
	case "23503":
		switch pgErr.ConstraintName {
		case "books_author_id_fkey":
			return core.KindErrorf(core.ErrIntegrity, "author does not exist")
		case "issued_books_book_id_fkey":
			return core.KindErrorf(core.ErrIntegrity, "book does not exist")
		case "issued_books_user_id_fkey":
			return core.KindErrorf(core.ErrIntegrity, "user does not exist")
		}
		return core.KindErrorf(core.ErrIntegrity, "referenced record does not exist")
	case "23514":
		return core.KindErrorf(core.ErrValidation, "check constraint %s violated", pgErr.ConstraintName)
	}
	return err
}

func isKnownKind(err error) bool {
	return core.PublicMessage(err) != ""
}

func logError(log logrus.FieldLogger, event string, err error, fields logrus.Fields) {
	if log == nil || err == nil {
		return
	}
	entry := log.WithFields(logrus.Fields{
		"event": event,
		"layer": "postgres",
		"error": err.Error(),
	})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error("store operation failed")
}
