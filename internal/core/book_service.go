package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BookInput creates a book. Description and Genre are optional.
type BookInput struct {
	Title           string
	Description     *string
	PublicationDate time.Time
	Authors         string
	Counter         int
	Genre           *string
	AuthorID        uuid.UUID
}

// BookPatch updates a book. Nil fields are left as they are.
type BookPatch struct {
	Title           *string
	Description     *string
	PublicationDate *time.Time
	Authors         *string
	Counter         *int
	Genre           *string
	AuthorID        *uuid.UUID
}

// BookQuery filters List.
type BookQuery struct {
	AuthorID *uuid.UUID
	Genre    string
	Limit    int
	Offset   int
}

// BookService manages the catalog. Writes need an admin, reads a reader.
type BookService struct {
	store Store
	audit Auditor
}

func NewBookService(store Store, audit Auditor) *BookService {
	return &BookService{store: store, audit: audit}
}

func (s *BookService) Create(ctx context.Context, actor *User, in BookInput) (*Book, error) {
	if _, err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	book := &Book{
		ID:              uuid.New(),
		Title:           strings.TrimSpace(in.Title),
		Description:     trimOptional(in.Description),
		PublicationDate: dateOnly(in.PublicationDate),
		Authors:         strings.TrimSpace(in.Authors),
		Counter:         in.Counter,
		Genre:           trimOptional(in.Genre),
		AuthorID:        in.AuthorID,
	}
	if in.PublicationDate.IsZero() {
		return nil, validationf("publication_date is required")
	}
	if err := validateBook(book); err != nil {
		return nil, err
	}
	if err := s.store.Repos().Books().Create(ctx, book); err != nil {
		return nil, err
	}
	s.audit.Record(EventCreate, fmt.Sprintf("User %s added new book %s which have id %s", actor.ID, book.Title, book.ID))
	return book, nil
}

func (s *BookService) Get(ctx context.Context, actor *User, id uuid.UUID) (*Book, error) {
	if _, err := RequireReader(actor); err != nil {
		return nil, err
	}
	return s.store.Repos().Books().Get(ctx, id)
}

func (s *BookService) List(ctx context.Context, actor *User, q BookQuery) ([]Book, error) {
	if _, err := RequireReader(actor); err != nil {
		return nil, err
	}
	f := Filter{Limit: q.Limit, Offset: q.Offset}
	if q.AuthorID != nil {
		f = f.Eq("author_id", *q.AuthorID)
	}
	if g := strings.TrimSpace(q.Genre); g != "" {
		f = f.Eq("genre", g)
	}
	return s.store.Repos().Books().List(ctx, f)
}

// Update edits catalog data. Counter is the number of copies on the shelf; an
// admin changes it to add or write off copies, never below zero.
func (s *BookService) Update(ctx context.Context, actor *User, id uuid.UUID, patch BookPatch) (*Book, error) {
	if _, err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	var updated *Book
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		book, err := tx.Books().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			book.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			book.Description = trimOptional(patch.Description)
		}
		if patch.PublicationDate != nil {
			if patch.PublicationDate.IsZero() {
				return validationf("publication_date is required")
			}
			book.PublicationDate = dateOnly(*patch.PublicationDate)
		}
		if patch.Authors != nil {
			book.Authors = strings.TrimSpace(*patch.Authors)
		}
		if patch.Counter != nil {
			book.Counter = *patch.Counter
		}
		if patch.Genre != nil {
			book.Genre = trimOptional(patch.Genre)
		}
		if patch.AuthorID != nil {
			book.AuthorID = *patch.AuthorID
		}
		if err := validateBook(book); err != nil {
			return err
		}
		if err := tx.Books().Update(ctx, book); err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(EventUpdate, fmt.Sprintf("User %s update book %s which have id %s", actor.ID, updated.Title, updated.ID))
	return updated, nil
}

// Delete removes a book and its issues. Holders of open issues get their
// books_count reduced in the same transaction.
func (s *BookService) Delete(ctx context.Context, actor *User, id uuid.UUID) error {
	if _, err := RequireAdmin(actor); err != nil {
		return err
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		if _, err := tx.Books().GetForUpdate(ctx, id); err != nil {
			return err
		}
		if err := releaseOpenIssues(ctx, tx, []uuid.UUID{id}); err != nil {
			return err
		}
		return tx.Books().Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	s.audit.Record(EventDelete, fmt.Sprintf("User %s delete book %s", actor.ID, id))
	return nil
}

// lockBooks locks the given books in id order and returns those that still
// exist. Row locks are always taken books first, then issues, then users.
func lockBooks(ctx context.Context, tx Repos, ids []uuid.UUID) ([]*Book, error) {
	sorted := append([]uuid.UUID(nil), ids...)
	slices.SortFunc(sorted, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	sorted = slices.Compact(sorted)

	books := make([]*Book, 0, len(sorted))
	for _, id := range sorted {
		book, err := tx.Books().GetForUpdate(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// releaseOpenIssues decrements books_count for every holder of an open issue
// on bookIDs. The books must already be locked by tx: while they are, no issue
// on them can be opened or returned, so the open set read here is final.
// Holders are updated in id order.
func releaseOpenIssues(ctx context.Context, tx Repos, bookIDs []uuid.UUID) error {
	held := make(map[uuid.UUID]int)
	for _, bookID := range bookIDs {
		open, err := tx.Issues().List(ctx, Filter{}.Eq("book_id", bookID).Eq("returned", false))
		if err != nil {
			return err
		}
		for _, issue := range open {
			held[issue.UserID]++
		}
	}

	holders := make([]uuid.UUID, 0, len(held))
	for id := range held {
		holders = append(holders, id)
	}
	slices.SortFunc(holders, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	for _, userID := range holders {
		if _, err := tx.Users().AdjustBooksCount(ctx, userID, -held[userID]); err != nil {
			return err
		}
	}
	return nil
}

func validateBook(b *Book) error {
	if b.Title == "" {
		return validationf("title is required")
	}
	if b.Authors == "" {
		return validationf("authors is required")
	}
	if b.Counter < 0 {
		return validationf("counter must not be negative, got %d", b.Counter)
	}
	if b.AuthorID == uuid.Nil {
		return validationf("author_id is required")
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
