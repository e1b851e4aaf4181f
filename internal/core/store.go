package core

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows a List call. Where holds column equality conditions; adapters
// reject columns they do not know with ErrValidation.
type Filter struct {
	Where  map[string]any
	Limit  int
	Offset int
}

// Eq returns a copy of f with column = value added.
func (f Filter) Eq(column string, value any) Filter {
	where := make(map[string]any, len(f.Where)+1)
	for k, v := range f.Where {
		where[k] = v
	}
	where[column] = value
	f.Where = where
	return f
}

// Repository is the typed record store for one entity.
// GetForUpdate additionally locks the row until the surrounding transaction ends;
// outside a transaction it behaves like Get.
type Repository[T any] interface {
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*T, error)
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter) ([]T, error)
}

type UserRepository interface {
	Repository[User]
	GetByEmail(ctx context.Context, email string) (*User, error)
	// AdjustBooksCount adds delta to books_count, never going below zero, and
	// returns the stored value.
	AdjustBooksCount(ctx context.Context, id uuid.UUID, delta int) (int, error)
}

type AuthorRepository interface {
	Repository[Author]
}

type BookRepository interface {
	Repository[Book]
	// TakeCopy decrements counter only if it is positive. It returns ErrUnavailable
	// when no copy is left.
	TakeCopy(ctx context.Context, id uuid.UUID) (int, error)
	// PutBackCopy increments counter.
	PutBackCopy(ctx context.Context, id uuid.UUID) (int, error)
}

type IssueRepository interface {
	Repository[Issue]
	// MarkReturned sets returned = true only if it is still false. It returns
	// ErrAlreadyReturned otherwise.
	MarkReturned(ctx context.Context, id uuid.UUID) error
	CountActiveByUser(ctx context.Context, userID uuid.UUID) (int, error)
	// ListActiveByUser returns the user's un-returned issues.
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]Issue, error)
}

// LogRepository is append-only.
type LogRepository interface {
	Append(ctx context.Context, entry *LogEntry) error
	List(ctx context.Context, f Filter) ([]LogEntry, error)
}

// Repos groups the repositories bound to one connection or transaction.
type Repos interface {
	Users() UserRepository
	Authors() AuthorRepository
	Books() BookRepository
	Issues() IssueRepository
	Logs() LogRepository
}

// Store hands out repositories. WithinTx runs fn against repositories bound to a
// single transaction: it commits when fn returns nil and rolls back otherwise.
type Store interface {
	Repos() Repos
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repos) error) error
}
