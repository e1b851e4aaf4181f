package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"library-api/internal/core"
	"library-api/internal/logger"
	"library-api/internal/store/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeTokens issues the subject id itself as the token.
type fakeTokens struct{}

func (fakeTokens) Issue(subject uuid.UUID) (string, time.Time, error) {
	return "tok-" + subject.String(), time.Now().Add(time.Hour), nil
}

func (fakeTokens) Verify(token string) (uuid.UUID, error) {
	if len(token) < 4 || token[:4] != "tok-" {
		return uuid.Nil, errors.New("bad token")
	}
	return uuid.Parse(token[4:])
}

// plainHasher prefixes the password instead of hashing it.
type plainHasher struct{}

func (plainHasher) Hash(plain string) ([]byte, error) { return []byte("hashed:" + plain), nil }

func (plainHasher) Verify(plain string, hash []byte) bool { return string(hash) == "hashed:"+plain }

type recordedEvent struct {
	Type        string
	Description string
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (a *recordingAuditor) Record(eventType, description string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, recordedEvent{Type: eventType, Description: description})
}

func (a *recordingAuditor) types() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Type)
	}
	return out
}

type env struct {
	ctx     context.Context
	store   *memory.Store
	audit   *recordingAuditor
	loans   *core.LoanService
	users   *core.UserService
	authors *core.AuthorService
	books   *core.BookService
	auth    *core.AuthService
	logs    *core.AuditService

	admin  *core.User
	reader *core.User
	author *core.Author
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	audit := &recordingAuditor{}
	e := &env{
		ctx:     context.Background(),
		store:   store,
		audit:   audit,
		loans:   core.NewLoanService(store, audit, logger.Discard()),
		users:   core.NewUserService(store, plainHasher{}, audit),
		authors: core.NewAuthorService(store, audit),
		books:   core.NewBookService(store, audit),
		auth:    core.NewAuthService(store, plainHasher{}, fakeTokens{}),
		logs:    core.NewAuditService(store),
	}

	var err error
	e.admin, err = e.users.CreateAdmin(e.ctx, core.RegisterInput{Email: "admin@example.com", Username: "admin", Password: "admin-password"})
	require.NoError(t, err)
	e.reader, err = e.users.Register(e.ctx, core.RegisterInput{Email: "reader@example.com", Username: "reader", Password: "reader-password"})
	require.NoError(t, err)
	e.author, err = e.authors.Create(e.ctx, e.admin, core.AuthorInput{
		Name:      "Stanislaw Lem",
		Biography: "Polish writer",
		BirthDate: time.Date(1921, 9, 12, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return e
}

func (e *env) newBook(t *testing.T, counter int) *core.Book {
	t.Helper()
	b, err := e.books.Create(e.ctx, e.admin, core.BookInput{
		Title:           "Solaris " + uuid.NewString()[:8],
		PublicationDate: time.Date(1961, 1, 1, 0, 0, 0, 0, time.UTC),
		Authors:         "Stanislaw Lem",
		Counter:         counter,
		AuthorID:        e.author.ID,
	})
	require.NoError(t, err)
	return b
}

func (e *env) newReader(t *testing.T, name string) *core.User {
	t.Helper()
	u, err := e.users.Register(e.ctx, core.RegisterInput{Email: name + "@example.com", Username: name, Password: "long-enough"})
	require.NoError(t, err)
	return u
}

func (e *env) counter(t *testing.T, bookID uuid.UUID) int {
	t.Helper()
	b, err := e.store.Repos().Books().Get(e.ctx, bookID)
	require.NoError(t, err)
	return b.Counter
}

func (e *env) booksCount(t *testing.T, userID uuid.UUID) int {
	t.Helper()
	u, err := e.store.Repos().Users().Get(e.ctx, userID)
	require.NoError(t, err)
	return u.BooksCount
}

func (e *env) activeIssues(t *testing.T, userID uuid.UUID) int {
	t.Helper()
	n, err := e.store.Repos().Issues().CountActiveByUser(e.ctx, userID)
	require.NoError(t, err)
	return n
}
