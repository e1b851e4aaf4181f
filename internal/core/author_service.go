package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuthorInput creates an author. All fields are required.
type AuthorInput struct {
	Name      string
	Biography string
	BirthDate time.Time
}

// AuthorPatch updates an author. Nil fields are left as they are.
type AuthorPatch struct {
	Name      *string
	Biography *string
	BirthDate *time.Time
}

// AuthorService manages authors. Writes need an admin, reads a reader.
type AuthorService struct {
	store Store
	audit Auditor
}

func NewAuthorService(store Store, audit Auditor) *AuthorService {
	return &AuthorService{store: store, audit: audit}
}

func (s *AuthorService) Create(ctx context.Context, actor *User, in AuthorInput) (*Author, error) {
	if _, err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	author := &Author{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(in.Name),
		Biography: strings.TrimSpace(in.Biography),
		BirthDate: dateOnly(in.BirthDate),
	}
	if err := validateAuthor(author, in.BirthDate.IsZero()); err != nil {
		return nil, err
	}
	if err := s.store.Repos().Authors().Create(ctx, author); err != nil {
		return nil, err
	}
	s.audit.Record(EventCreate, fmt.Sprintf("User %s added new author %s who have id %s", actor.ID, author.Name, author.ID))
	return author, nil
}

func (s *AuthorService) Get(ctx context.Context, actor *User, id uuid.UUID) (*Author, error) {
	if _, err := RequireReader(actor); err != nil {
		return nil, err
	}
	return s.store.Repos().Authors().Get(ctx, id)
}

func (s *AuthorService) List(ctx context.Context, actor *User, limit, offset int) ([]Author, error) {
	if _, err := RequireReader(actor); err != nil {
		return nil, err
	}
	return s.store.Repos().Authors().List(ctx, Filter{Limit: limit, Offset: offset})
}

func (s *AuthorService) Update(ctx context.Context, actor *User, id uuid.UUID, patch AuthorPatch) (*Author, error) {
	if _, err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	var updated *Author
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		author, err := tx.Authors().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			author.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Biography != nil {
			author.Biography = strings.TrimSpace(*patch.Biography)
		}
		if patch.BirthDate != nil {
			author.BirthDate = dateOnly(*patch.BirthDate)
		}
		if err := validateAuthor(author, patch.BirthDate != nil && patch.BirthDate.IsZero()); err != nil {
			return err
		}
		if err := tx.Authors().Update(ctx, author); err != nil {
			return err
		}
		updated = author
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(EventUpdate, fmt.Sprintf("User %s update info for author %s who have id %s", actor.ID, updated.Name, updated.ID))
	return updated, nil
}

// Delete removes an author together with their books and those books' issues.
// Holders of open issues on those books get their books_count reduced in the
// same transaction.
func (s *AuthorService) Delete(ctx context.Context, actor *User, id uuid.UUID) error {
	if _, err := RequireAdmin(actor); err != nil {
		return err
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		// The author lock keeps new books from referencing it until commit.
		if _, err := tx.Authors().GetForUpdate(ctx, id); err != nil {
			return err
		}
		listed, err := tx.Books().List(ctx, Filter{}.Eq("author_id", id))
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(listed))
		for _, book := range listed {
			ids = append(ids, book.ID)
		}
		locked, err := lockBooks(ctx, tx, ids)
		if err != nil {
			return err
		}
		// A book moved to another author before its lock was granted is not cascaded.
		owned := make([]uuid.UUID, 0, len(locked))
		for _, book := range locked {
			if book.AuthorID == id {
				owned = append(owned, book.ID)
			}
		}
		if err := releaseOpenIssues(ctx, tx, owned); err != nil {
			return err
		}
		return tx.Authors().Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete author %s: %w", id, err)
	}
	s.audit.Record(EventDelete, fmt.Sprintf("User %s delete author %s", actor.ID, id))
	return nil
}

func validateAuthor(a *Author, missingBirthDate bool) error {
	if a.Name == "" {
		return validationf("name is required")
	}
	if a.Biography == "" {
		return validationf("biography is required")
	}
	if missingBirthDate {
		return validationf("birth_date is required")
	}
	return nil
}
