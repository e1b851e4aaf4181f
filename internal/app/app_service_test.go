package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"library-api/internal/app"
	"library-api/internal/auth"
	"library-api/internal/core"
	"library-api/internal/logger"
	"library-api/internal/store/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type nopAuditor struct{}

func (nopAuditor) Record(string, string) {}

func newService(t *testing.T) (app.ApplicationService, *core.User) {
	t.Helper()
	svc := app.NewAppService(app.Deps{
		Store:  memory.New(),
		Tokens: auth.NewJWTService("app-test-secret-0123456789", time.Hour),
		Hasher: auth.NewBcryptHasher(bcrypt.MinCost),
		Audit:  nopAuditor{},
		Log:    logger.Discard(),
	})
	admin, err := svc.CreateAdmin(context.Background(), app.RegisterRequest{Email: "root@example.com", Username: "root", Password: "root-password"})
	require.NoError(t, err)
	require.NotEmpty(t, admin.Token.AccessToken)
	return svc, admin.User
}

func TestCreateAdmin_TokenAuthenticates(t *testing.T) {
	ctx := context.Background()
	svc, admin := newService(t)

	tok, err := svc.IssueToken(ctx, "root@example.com", "root-password")
	require.NoError(t, err)

	actor, err := svc.Authenticate(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, actor.ID)
	assert.True(t, actor.Role.IsAdmin())

	verified, err := svc.VerifyToken(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, verified.UserID)
}

func TestIssueBook_DefaultsToActor(t *testing.T) {
	ctx := context.Background()
	svc, admin := newService(t)

	reader, err := svc.Register(ctx, app.RegisterRequest{Email: "r@example.com", Username: "r", Password: "reader-password"})
	require.NoError(t, err)

	author, err := svc.CreateAuthor(ctx, admin, app.CreateAuthorRequest{Name: "Borges", Biography: "Argentine", BirthDate: "1899-08-24"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(1899, 8, 24, 0, 0, 0, 0, time.UTC), author.Author.BirthDate)

	book, err := svc.CreateBook(ctx, admin, app.CreateBookRequest{
		Title: "Ficciones", PublicationDate: "1944-01-01", Authors: "Borges", Counter: 2, AuthorID: author.Author.ID.String(),
	})
	require.NoError(t, err)

	issued, err := svc.IssueBook(ctx, reader.User, app.IssueBookRequest{BookID: book.Book.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, reader.User.ID, issued.Issue.UserID)
	assert.Equal(t, issued.Issue.IssueDate.AddDate(0, 0, core.DefaultLoanDays), issued.Issue.ReturnDate)

	returned, err := svc.ReturnBook(ctx, reader.User, issued.Issue.ID.String())
	require.NoError(t, err)
	assert.True(t, returned.Issue.Returned)
}

func TestParsing_Validation(t *testing.T) {
	ctx := context.Background()
	svc, admin := newService(t)

	_, err := svc.GetBook(ctx, admin, "not-a-uuid")
	assert.True(t, errors.Is(err, core.ErrValidation))
	assert.Equal(t, "book_id must be a valid UUID", core.PublicMessage(err))

	_, err = svc.CreateAuthor(ctx, admin, app.CreateAuthorRequest{Name: "x", Biography: "y", BirthDate: "24/08/1899"})
	assert.True(t, errors.Is(err, core.ErrValidation))

	_, err = svc.ListBooks(ctx, admin, app.ListBooksRequest{Page: app.Page{Limit: app.MaxPageLimit + 1}})
	assert.True(t, errors.Is(err, core.ErrValidation))

	_, err = svc.ListIssues(ctx, admin, app.ListIssuesRequest{UserID: "nope"})
	assert.True(t, errors.Is(err, core.ErrValidation))

	_, err = svc.IssueBook(ctx, nil, app.IssueBookRequest{BookID: uuid.NewString()})
	assert.True(t, errors.Is(err, core.ErrUnauthenticated))
}

func TestHealth(t *testing.T) {
	svc, _ := newService(t)
	assert.NoError(t, svc.Health(context.Background()))

	down := app.NewAppService(app.Deps{
		Store: memory.New(),
		Ping:  func(context.Context) error { return errors.New("connection refused") },
	})
	assert.Error(t, down.Health(context.Background()))
}
