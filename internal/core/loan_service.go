package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// MaxActiveLoans is the most un-returned issues a user may hold.
	MaxActiveLoans  = 5
	DefaultLoanDays = 14
	MaxLoanDays     = 365
)

// IssueRequest asks for one copy of BookID to be lent to UserID for Days days.
// Days == 0 means DefaultLoanDays.
type IssueRequest struct {
	BookID uuid.UUID
	UserID uuid.UUID
	Days   int
}

// IssueQuery filters ListIssues. Nil fields are not applied.
type IssueQuery struct {
	UserID   *uuid.UUID
	Returned *bool
	Limit    int
	Offset   int
}

// LoanService runs the issue/return workflow. Every operation touches User,
// Book and Issue rows inside one store transaction; the audit event is
// recorded only after that transaction commits.
type LoanService struct {
	store Store
	audit Auditor
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewLoanService(store Store, audit Auditor, log logrus.FieldLogger) *LoanService {
	return &LoanService{store: store, audit: audit, log: log, now: time.Now}
}

// Issue lends a copy of a book to a user.
//
// Every workflow takes row locks in the same order: books, then issue rows,
// then users. Issue, Return and the catalog deletes cannot deadlock on each other.
func (s *LoanService) Issue(ctx context.Context, actor *User, req IssueRequest) (*Issue, error) {
	if _, err := RequireReader(actor); err != nil {
		return nil, err
	}

	days := req.Days
	if days == 0 {
		days = DefaultLoanDays
	}
	if days < 1 || days > MaxLoanDays {
		return nil, validationf("days must be between 1 and %d, got %d", MaxLoanDays, days)
	}
	if req.BookID == uuid.Nil {
		return nil, validationf("book_id is required")
	}
	if req.UserID == uuid.Nil {
		return nil, validationf("user_id is required")
	}

	var issue *Issue
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		book, err := tx.Books().GetForUpdate(ctx, req.BookID)
		if err != nil {
			return err
		}
		user, err := tx.Users().GetForUpdate(ctx, req.UserID)
		if err != nil {
			return err
		}
		if user.BooksCount >= MaxActiveLoans {
			return KindErrorf(ErrLoanLimitExceeded, "user has already issued %d books", MaxActiveLoans)
		}
		if book.Counter <= 0 {
			return KindErrorf(ErrUnavailable, "book %q is not available", book.Title)
		}

		if _, err := tx.Books().TakeCopy(ctx, book.ID); err != nil {
			return err
		}
		if _, err := tx.Users().AdjustBooksCount(ctx, user.ID, 1); err != nil {
			return err
		}

		issueDate := dateOnly(s.now())
		issue = &Issue{
			ID:         uuid.New(),
			BookID:     book.ID,
			UserID:     user.ID,
			IssueDate:  issueDate,
			ReturnDate: issueDate.AddDate(0, 0, days),
			Returned:   false,
		}
		return tx.Issues().Create(ctx, issue)
	})
	if err != nil {
		return nil, fmt.Errorf("issue book %s: %w", req.BookID, err)
	}

	s.audit.Record(EventIssue, fmt.Sprintf("Book %s issued to user %s", issue.BookID, issue.UserID))
	return issue, nil
}

// Return closes an open issue and puts the copy back on the shelf.
func (s *LoanService) Return(ctx context.Context, actor *User, issueID uuid.UUID) (*Issue, error) {
	if _, err := RequireReader(actor); err != nil {
		return nil, err
	}
	if issueID == uuid.Nil {
		return nil, validationf("issue_id is required")
	}

	// The book id is needed before any lock is taken; it never changes.
	peek, err := s.store.Repos().Issues().Get(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("return issue %s: %w", issueID, err)
	}

	var issue *Issue
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		if _, err := tx.Books().GetForUpdate(ctx, peek.BookID); err != nil {
			return err
		}
		current, err := tx.Issues().GetForUpdate(ctx, issueID)
		if err != nil {
			return err
		}
		if current.Returned {
			return KindErrorf(ErrAlreadyReturned, "book is already returned")
		}
		user, err := tx.Users().GetForUpdate(ctx, current.UserID)
		if err != nil {
			return err
		}

		if _, err := tx.Books().PutBackCopy(ctx, current.BookID); err != nil {
			return err
		}
		if err := tx.Issues().MarkReturned(ctx, current.ID); err != nil {
			return err
		}
		if user.BooksCount <= 0 {
			s.log.WithFields(logrus.Fields{
				"user_id":  user.ID,
				"issue_id": current.ID,
			}).Warn("books_count already zero on return, keeping it at zero")
		}
		if _, err := tx.Users().AdjustBooksCount(ctx, user.ID, -1); err != nil {
			return err
		}

		current.Returned = true
		issue = current
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("return issue %s: %w", issueID, err)
	}

	s.audit.Record(EventReturn, fmt.Sprintf("Book %s returned by user %s", issue.BookID, issue.UserID))
	return issue, nil
}

// GetIssue returns one issue. Readers may only see their own.
func (s *LoanService) GetIssue(ctx context.Context, actor *User, id uuid.UUID) (*Issue, error) {
	if _, err := RequireReader(actor); err != nil {
		return nil, err
	}
	issue, err := s.store.Repos().Issues().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsAdmin() && issue.UserID != actor.ID {
		return nil, forbiddenf("issue belongs to another user")
	}
	return issue, nil
}

// ListIssues lists issues. Readers are limited to their own; admins may filter by any user.
func (s *LoanService) ListIssues(ctx context.Context, actor *User, q IssueQuery) ([]Issue, error) {
	if _, err := RequireReader(actor); err != nil {
		return nil, err
	}

	f := Filter{Limit: q.Limit, Offset: q.Offset}
	switch {
	case q.UserID != nil:
		if !actor.Role.IsAdmin() && *q.UserID != actor.ID {
			return nil, forbiddenf("readers may only list their own issues")
		}
		f = f.Eq("user_id", *q.UserID)
	case !actor.Role.IsAdmin():
		f = f.Eq("user_id", actor.ID)
	}
	if q.Returned != nil {
		f = f.Eq("returned", *q.Returned)
	}
	return s.store.Repos().Issues().List(ctx, f)
}
