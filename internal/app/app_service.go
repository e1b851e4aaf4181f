package app

import (
	"context"
	"strings"
	"time"

	"library-api/internal/core"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500

	dateLayout = "2006-01-02"
)

// Hasher hashes new passwords and verifies presented ones.
type Hasher interface {
	core.PasswordHasher
	core.CredentialVerifier
}

// Deps are the collaborators NewAppService wires together.
type Deps struct {
	Store  core.Store
	Tokens core.TokenService
	Hasher Hasher
	Audit  core.Auditor
	Log    logrus.FieldLogger
	// Ping checks the backing store. Nil means always healthy.
	Ping func(ctx context.Context) error
}

type appService struct {
	store    core.Store
	ping     func(ctx context.Context) error
	identity *core.IdentityResolver
	auth     *core.AuthService
	users    *core.UserService
	authors  *core.AuthorService
	books    *core.BookService
	loans    *core.LoanService
	logs     *core.AuditService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(d Deps) ApplicationService {
	return &appService{
		store:    d.Store,
		ping:     d.Ping,
		identity: core.NewIdentityResolver(d.Tokens, d.Store),
		auth:     core.NewAuthService(d.Store, d.Hasher, d.Tokens),
		users:    core.NewUserService(d.Store, d.Hasher, d.Audit),
		authors:  core.NewAuthorService(d.Store, d.Audit),
		books:    core.NewBookService(d.Store, d.Audit),
		loans:    core.NewLoanService(d.Store, d.Audit, d.Log),
		logs:     core.NewAuditService(d.Store),
	}
}

func (s *appService) Health(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *appService) Authenticate(ctx context.Context, token string) (*core.User, error) {
	return s.identity.Resolve(ctx, token)
}

func (s *appService) IssueToken(ctx context.Context, email, password string) (*core.Token, error) {
	return s.auth.IssueToken(ctx, email, password)
}

func (s *appService) VerifyToken(_ context.Context, token string) (*VerifyResult, error) {
	subject, err := s.auth.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{UserID: subject}, nil
}

func (s *appService) MintToken(ctx context.Context, userID string) (*core.Token, error) {
	id, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Repos().Users().Get(ctx, id); err != nil {
		return nil, err
	}
	return s.auth.TokenFor(id)
}

func (s *appService) Register(ctx context.Context, req RegisterRequest) (*UserResult, error) {
	user, err := s.users.Register(ctx, core.RegisterInput(req))
	if err != nil {
		return nil, err
	}
	return &UserResult{User: user}, nil
}

func (s *appService) CreateAdmin(ctx context.Context, req RegisterRequest) (*AdminResult, error) {
	user, err := s.users.CreateAdmin(ctx, core.RegisterInput(req))
	if err != nil {
		return nil, err
	}
	token, err := s.auth.TokenFor(user.ID)
	if err != nil {
		return nil, err
	}
	return &AdminResult{User: user, Token: token}, nil
}

func (s *appService) GetMe(ctx context.Context, actor *core.User) (*UserResult, error) {
	user, err := s.users.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &UserResult{User: user}, nil
}

func (s *appService) UpdateMe(ctx context.Context, actor *core.User, req UpdateMeRequest) (*UserResult, error) {
	user, err := s.users.UpdateMe(ctx, actor, core.UpdateUserInput(req))
	if err != nil {
		return nil, err
	}
	return &UserResult{User: user}, nil
}

func (s *appService) DeleteMe(ctx context.Context, actor *core.User) error {
	return s.users.DeleteMe(ctx, actor)
}

func (s *appService) ListUsers(ctx context.Context, actor *core.User, page Page) (*UserListResult, error) {
	page, err := normalizePage(page)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListReaders(ctx, actor, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return &UserListResult{Users: users}, nil
}

func (s *appService) CreateAuthor(ctx context.Context, actor *core.User, req CreateAuthorRequest) (*AuthorResult, error) {
	birth, err := parseDate("birth_date", req.BirthDate)
	if err != nil {
		return nil, err
	}
	author, err := s.authors.Create(ctx, actor, core.AuthorInput{
		Name:      req.Name,
		Biography: req.Biography,
		BirthDate: birth,
	})
	if err != nil {
		return nil, err
	}
	return &AuthorResult{Author: author}, nil
}

func (s *appService) GetAuthor(ctx context.Context, actor *core.User, id string) (*AuthorResult, error) {
	authorID, err := parseID("author_id", id)
	if err != nil {
		return nil, err
	}
	author, err := s.authors.Get(ctx, actor, authorID)
	if err != nil {
		return nil, err
	}
	return &AuthorResult{Author: author}, nil
}

func (s *appService) ListAuthors(ctx context.Context, actor *core.User, page Page) (*AuthorListResult, error) {
	page, err := normalizePage(page)
	if err != nil {
		return nil, err
	}
	authors, err := s.authors.List(ctx, actor, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return &AuthorListResult{Authors: authors}, nil
}

func (s *appService) UpdateAuthor(ctx context.Context, actor *core.User, id string, req UpdateAuthorRequest) (*AuthorResult, error) {
	authorID, err := parseID("author_id", id)
	if err != nil {
		return nil, err
	}
	patch := core.AuthorPatch{Name: req.Name, Biography: req.Biography}
	if req.BirthDate != nil {
		birth, err := parseDate("birth_date", *req.BirthDate)
		if err != nil {
			return nil, err
		}
		patch.BirthDate = &birth
	}
	author, err := s.authors.Update(ctx, actor, authorID, patch)
	if err != nil {
		return nil, err
	}
	return &AuthorResult{Author: author}, nil
}

func (s *appService) DeleteAuthor(ctx context.Context, actor *core.User, id string) error {
	authorID, err := parseID("author_id", id)
	if err != nil {
		return err
	}
	return s.authors.Delete(ctx, actor, authorID)
}

func (s *appService) CreateBook(ctx context.Context, actor *core.User, req CreateBookRequest) (*BookResult, error) {
	published, err := parseDate("publication_date", req.PublicationDate)
	if err != nil {
		return nil, err
	}
	authorID, err := parseID("author_id", req.AuthorID)
	if err != nil {
		return nil, err
	}
	book, err := s.books.Create(ctx, actor, core.BookInput{
		Title:           req.Title,
		Description:     req.Description,
		PublicationDate: published,
		Authors:         req.Authors,
		Counter:         req.Counter,
		Genre:           req.Genre,
		AuthorID:        authorID,
	})
	if err != nil {
		return nil, err
	}
	return &BookResult{Book: book}, nil
}

func (s *appService) GetBook(ctx context.Context, actor *core.User, id string) (*BookResult, error) {
	bookID, err := parseID("book_id", id)
	if err != nil {
		return nil, err
	}
	book, err := s.books.Get(ctx, actor, bookID)
	if err != nil {
		return nil, err
	}
	return &BookResult{Book: book}, nil
}

func (s *appService) ListBooks(ctx context.Context, actor *core.User, req ListBooksRequest) (*BookListResult, error) {
	page, err := normalizePage(req.Page)
	if err != nil {
		return nil, err
	}
	q := core.BookQuery{Genre: req.Genre, Limit: page.Limit, Offset: page.Offset}
	if req.AuthorID != "" {
		authorID, err := parseID("author_id", req.AuthorID)
		if err != nil {
			return nil, err
		}
		q.AuthorID = &authorID
	}
	books, err := s.books.List(ctx, actor, q)
	if err != nil {
		return nil, err
	}
	return &BookListResult{Books: books}, nil
}

func (s *appService) UpdateBook(ctx context.Context, actor *core.User, id string, req UpdateBookRequest) (*BookResult, error) {
	bookID, err := parseID("book_id", id)
	if err != nil {
		return nil, err
	}
	patch := core.BookPatch{
		Title:       req.Title,
		Description: req.Description,
		Authors:     req.Authors,
		Counter:     req.Counter,
		Genre:       req.Genre,
	}
	if req.PublicationDate != nil {
		published, err := parseDate("publication_date", *req.PublicationDate)
		if err != nil {
			return nil, err
		}
		patch.PublicationDate = &published
	}
	if req.AuthorID != nil {
		authorID, err := parseID("author_id", *req.AuthorID)
		if err != nil {
			return nil, err
		}
		patch.AuthorID = &authorID
	}
	book, err := s.books.Update(ctx, actor, bookID, patch)
	if err != nil {
		return nil, err
	}
	return &BookResult{Book: book}, nil
}

func (s *appService) DeleteBook(ctx context.Context, actor *core.User, id string) error {
	bookID, err := parseID("book_id", id)
	if err != nil {
		return err
	}
	return s.books.Delete(ctx, actor, bookID)
}

func (s *appService) IssueBook(ctx context.Context, actor *core.User, req IssueBookRequest) (*IssueResult, error) {
	if actor == nil {
		return nil, core.KindErrorf(core.ErrUnauthenticated, "authentication required")
	}
	bookID, err := parseID("book_id", req.BookID)
	if err != nil {
		return nil, err
	}
	userID := actor.ID
	if req.UserID != "" {
		if userID, err = parseID("user_id", req.UserID); err != nil {
			return nil, err
		}
	}
	issue, err := s.loans.Issue(ctx, actor, core.IssueRequest{BookID: bookID, UserID: userID, Days: req.Days})
	if err != nil {
		return nil, err
	}
	return &IssueResult{Issue: issue}, nil
}

func (s *appService) ReturnBook(ctx context.Context, actor *core.User, issueID string) (*IssueResult, error) {
	id, err := parseID("issue_id", issueID)
	if err != nil {
		return nil, err
	}
	issue, err := s.loans.Return(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &IssueResult{Issue: issue}, nil
}

func (s *appService) GetIssue(ctx context.Context, actor *core.User, id string) (*IssueResult, error) {
	issueID, err := parseID("issue_id", id)
	if err != nil {
		return nil, err
	}
	issue, err := s.loans.GetIssue(ctx, actor, issueID)
	if err != nil {
		return nil, err
	}
	return &IssueResult{Issue: issue}, nil
}

func (s *appService) ListIssues(ctx context.Context, actor *core.User, req ListIssuesRequest) (*IssueListResult, error) {
	page, err := normalizePage(req.Page)
	if err != nil {
		return nil, err
	}
	q := core.IssueQuery{Returned: req.Returned, Limit: page.Limit, Offset: page.Offset}
	if req.UserID != "" {
		userID, err := parseID("user_id", req.UserID)
		if err != nil {
			return nil, err
		}
		q.UserID = &userID
	}
	issues, err := s.loans.ListIssues(ctx, actor, q)
	if err != nil {
		return nil, err
	}
	return &IssueListResult{Issues: issues}, nil
}

func (s *appService) ListLogs(ctx context.Context, actor *core.User, req ListLogsRequest) (*LogListResult, error) {
	page, err := normalizePage(req.Page)
	if err != nil {
		return nil, err
	}
	logs, err := s.logs.List(ctx, actor, strings.ToUpper(strings.TrimSpace(req.EventType)), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return &LogListResult{Logs: logs}, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, core.KindErrorf(core.ErrValidation, "%s must be a valid UUID", field)
	}
	return id, nil
}

// parseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, core.KindErrorf(core.ErrValidation, "%s is required", field)
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, core.KindErrorf(core.ErrValidation, "%s must be a date in %s format", field, dateLayout)
}

func normalizePage(p Page) (Page, error) {
	if p.Limit < 0 || p.Offset < 0 {
		return p, core.KindErrorf(core.ErrValidation, "limit and offset must not be negative")
	}
	if p.Limit == 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		return p, core.KindErrorf(core.ErrValidation, "limit must be at most %d", MaxPageLimit)
	}
	return p, nil
}
