package app

import (
	"library-api/internal/core"

	"github.com/google/uuid"
)

// UserResult is returned by account operations.
type UserResult struct {
	User *core.User `json:"user"`
}

// AdminResult is returned by CreateAdmin.
type AdminResult struct {
	User  *core.User  `json:"user"`
	Token *core.Token `json:"token"`
}

type UserListResult struct {
	Users []core.User `json:"users"`
}

type VerifyResult struct {
	UserID uuid.UUID `json:"user_id"`
}

type AuthorResult struct {
	Author *core.Author `json:"author"`
}

type AuthorListResult struct {
	Authors []core.Author `json:"authors"`
}

type BookResult struct {
	Book *core.Book `json:"book"`
}

type BookListResult struct {
	Books []core.Book `json:"books"`
}

// IssueResult is returned by IssueBook, ReturnBook and GetIssue.
type IssueResult struct {
	Issue *core.Issue `json:"issue"`
}

type IssueListResult struct {
	Issues []core.Issue `json:"issues"`
}

type LogListResult struct {
	Logs []core.LogEntry `json:"logs"`
}
