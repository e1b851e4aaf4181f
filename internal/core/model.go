package core

import (
	"time"

	"github.com/google/uuid"
)

// Role is the permission level of a user. Only the two values below exist.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleReader Role = "reader"
)

// ParseRole converts a stored role string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleReader:
		return Role(s), nil
	}
	return "", validationf("unknown role %q", s)
}

// CanRead reports whether the role may use reader-level operations (loans, catalog reads).
func (r Role) CanRead() bool { return r == RoleAdmin || r == RoleReader }

// IsAdmin reports whether the role may manage the catalog and other users.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// User is a registered library account.
// BooksCount is the number of un-returned issues the user holds; only the loan
// workflow changes it.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	Role         Role      `json:"role"`
	BooksCount   int       `json:"books_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Author struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Biography string    `json:"biography"`
	BirthDate time.Time `json:"birth_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Book is a catalog title. Counter is the number of copies currently on the shelf;
// Authors is a free-text display string independent of AuthorID.
type Book struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	PublicationDate time.Time `json:"publication_date"`
	Authors         string    `json:"authors"`
	Counter         int       `json:"counter"`
	Genre           *string   `json:"genre,omitempty"`
	AuthorID        uuid.UUID `json:"author_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Issue is a loan of one copy of a book to one user.
// Returned flips from false to true exactly once.
type Issue struct {
	ID         uuid.UUID `json:"id"`
	BookID     uuid.UUID `json:"book_id"`
	UserID     uuid.UUID `json:"user_id"`
	IssueDate  time.Time `json:"issue_date"`
	ReturnDate time.Time `json:"return_date"`
	Returned   bool      `json:"returned"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LogEntry is one append-only audit record.
type LogEntry struct {
	ID          uuid.UUID `json:"id"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Audit event types.
const (
	EventIssue      = "ISSUE"
	EventReturn     = "RETURN"
	EventCreate     = "CREATE"
	EventUpdate     = "UPDATE"
	EventDelete     = "DELETE"
	EventNewUser    = "NEW USER"
	EventListUsers  = "GET ALL USER"
	EventDeleteUser = "DELETE USER"
)

// dateOnly truncates t to midnight UTC, the granularity of DATE columns.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
