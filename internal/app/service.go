package app

import (
	"context"

	"library-api/internal/core"
)

// ApplicationService is the single interface the web adapter and the operator
// CLI call. Every method except Register, IssueToken, VerifyToken, Authenticate,
// CreateAdmin, MintToken and Health takes the acting user resolved by Authenticate.
type ApplicationService interface {
	// Health reports whether the backing store is reachable.
	Health(ctx context.Context) error

	// Authenticate resolves a bearer token to the acting user.
	Authenticate(ctx context.Context, token string) (*core.User, error)

	// IssueToken exchanges email and password for a bearer token.
	IssueToken(ctx context.Context, email, password string) (*core.Token, error)

	// VerifyToken returns the subject of a valid token without loading the user.
	VerifyToken(ctx context.Context, token string) (*VerifyResult, error)

	// MintToken issues a token for an existing user without a password check.
	// It is reachable from the operator CLI only.
	MintToken(ctx context.Context, userID string) (*core.Token, error)

	// Register creates a reader account.
	Register(ctx context.Context, req RegisterRequest) (*UserResult, error)

	// CreateAdmin creates an admin account and returns a token for it.
	CreateAdmin(ctx context.Context, req RegisterRequest) (*AdminResult, error)

	GetMe(ctx context.Context, actor *core.User) (*UserResult, error)
	UpdateMe(ctx context.Context, actor *core.User, req UpdateMeRequest) (*UserResult, error)
	DeleteMe(ctx context.Context, actor *core.User) error

	// ListUsers returns reader accounts. Admin only.
	ListUsers(ctx context.Context, actor *core.User, page Page) (*UserListResult, error)

	CreateAuthor(ctx context.Context, actor *core.User, req CreateAuthorRequest) (*AuthorResult, error)
	GetAuthor(ctx context.Context, actor *core.User, id string) (*AuthorResult, error)
	ListAuthors(ctx context.Context, actor *core.User, page Page) (*AuthorListResult, error)
	UpdateAuthor(ctx context.Context, actor *core.User, id string, req UpdateAuthorRequest) (*AuthorResult, error)
	DeleteAuthor(ctx context.Context, actor *core.User, id string) error

	CreateBook(ctx context.Context, actor *core.User, req CreateBookRequest) (*BookResult, error)
	GetBook(ctx context.Context, actor *core.User, id string) (*BookResult, error)
	ListBooks(ctx context.Context, actor *core.User, req ListBooksRequest) (*BookListResult, error)
	UpdateBook(ctx context.Context, actor *core.User, id string, req UpdateBookRequest) (*BookResult, error)
	DeleteBook(ctx context.Context, actor *core.User, id string) error

	// IssueBook lends one copy of a book. An empty UserID means the actor.
	IssueBook(ctx context.Context, actor *core.User, req IssueBookRequest) (*IssueResult, error)

	// ReturnBook closes an open issue and puts the copy back.
	ReturnBook(ctx context.Context, actor *core.User, issueID string) (*IssueResult, error)

	GetIssue(ctx context.Context, actor *core.User, id string) (*IssueResult, error)
	ListIssues(ctx context.Context, actor *core.User, req ListIssuesRequest) (*IssueListResult, error)

	// ListLogs returns audit entries, newest first. Admin only.
	ListLogs(ctx context.Context, actor *core.User, req ListLogsRequest) (*LogListResult, error)
}
