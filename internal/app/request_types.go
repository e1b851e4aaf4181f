package app

// Page bounds a list call. Limit 0 means DefaultPageLimit.
type Page struct {
	Limit  int
	Offset int
}

// RegisterRequest is the input for creating an account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateMeRequest changes the caller's own account. Nil fields are left as they are.
type UpdateMeRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// CreateAuthorRequest is the input for creating an author. BirthDate is YYYY-MM-DD.
type CreateAuthorRequest struct {
	Name      string `json:"name"`
	Biography string `json:"biography"`
	BirthDate string `json:"birth_date"`
}

type UpdateAuthorRequest struct {
	Name      *string `json:"name"`
	Biography *string `json:"biography"`
	BirthDate *string `json:"birth_date"`
}

// CreateBookRequest is the input for creating a book. PublicationDate is YYYY-MM-DD.
type CreateBookRequest struct {
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	PublicationDate string  `json:"publication_date"`
	Authors         string  `json:"authors"`
	Counter         int     `json:"counter"`
	Genre           *string `json:"genre"`
	AuthorID        string  `json:"author_id"`
}

type UpdateBookRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	PublicationDate *string `json:"publication_date"`
	Authors         *string `json:"authors"`
	Counter         *int    `json:"counter"`
	Genre           *string `json:"genre"`
	AuthorID        *string `json:"author_id"`
}

type ListBooksRequest struct {
	AuthorID string
	Genre    string
	Page
}

// IssueBookRequest lends BookID to UserID for Days days. Empty UserID means the
// actor; Days 0 means the default loan period.
type IssueBookRequest struct {
	BookID string
	UserID string
	Days   int
}

type ListIssuesRequest struct {
	UserID   string
	Returned *bool
	Page
}

type ListLogsRequest struct {
	EventType string
	Page
}
