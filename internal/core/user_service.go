package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

const (
	minPasswordLength = 8
	// maxPasswordLength is the most bytes bcrypt accepts.
	maxPasswordLength = 72
)

// RegisterInput is the payload of a new account.
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// UpdateUserInput changes the caller's own account. Nil fields are left as they are.
type UpdateUserInput struct {
	Email    *string
	Username *string
	Password *string
}

// UserService manages accounts. Role and books_count are never writable here.
type UserService struct {
	store  Store
	hasher PasswordHasher
	audit  Auditor
}

func NewUserService(store Store, hasher PasswordHasher, audit Auditor) *UserService {
	return &UserService{store: store, hasher: hasher, audit: audit}
}

// Register creates a reader account. It is the only unauthenticated write.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*User, error) {
	user, err := s.create(ctx, in, RoleReader)
	if err != nil {
		return nil, err
	}
	s.audit.Record(EventNewUser, fmt.Sprintf("User %s registered as %s", user.ID, user.Username))
	return user, nil
}

// CreateAdmin creates an admin account. It is reachable from the operator CLI only.
func (s *UserService) CreateAdmin(ctx context.Context, in RegisterInput) (*User, error) {
	user, err := s.create(ctx, in, RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.audit.Record(EventNewUser, fmt.Sprintf("Admin %s created as %s", user.ID, user.Username))
	return user, nil
}

func (s *UserService) create(ctx context.Context, in RegisterInput, role Role) (*User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	username, err := normalizeUsername(in.Username)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	users := s.store.Repos().Users()
	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil, KindErrorf(ErrConflict, "user with this email already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	taken, err := users.List(ctx, Filter{Limit: 1}.Eq("username", username))
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, KindErrorf(ErrConflict, "user with this username already exists")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Me returns the acting user.
func (s *UserService) Me(ctx context.Context, actor *User) (*User, error) {
	if _, err := RequireReader(actor); err != nil {
		return nil, err
	}
	return s.store.Repos().Users().Get(ctx, actor.ID)
}

// UpdateMe applies a partial update to the acting user's own account.
func (s *UserService) UpdateMe(ctx context.Context, actor *User, in UpdateUserInput) (*User, error) {
	if _, err := RequireReader(actor); err != nil {
		return nil, err
	}

	var updated *User
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		user, err := tx.Users().GetForUpdate(ctx, actor.ID)
		if err != nil {
			return err
		}
		if in.Email != nil {
			email, err := normalizeEmail(*in.Email)
			if err != nil {
				return err
			}
			user.Email = email
		}
		if in.Username != nil {
			username, err := normalizeUsername(*in.Username)
			if err != nil {
				return err
			}
			user.Username = username
		}
		if in.Password != nil {
			if err := validatePassword(*in.Password); err != nil {
				return err
			}
			hash, err := s.hasher.Hash(*in.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			user.PasswordHash = hash
		}
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(EventUpdate, fmt.Sprintf("User %s updated own account", updated.ID))
	return updated, nil
}

// DeleteMe removes the acting user's account. Issue rows go with it; copies the
// user still held are put back on the shelf first so book counters stay whole.
func (s *UserService) DeleteMe(ctx context.Context, actor *User) error {
	if _, err := RequireReader(actor); err != nil {
		return err
	}

	var released int
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		listed, err := tx.Issues().ListActiveByUser(ctx, actor.ID)
		if err != nil {
			return err
		}
		bookIDs := make([]uuid.UUID, 0, len(listed))
		for _, issue := range listed {
			bookIDs = append(bookIDs, issue.BookID)
		}
		locked, err := lockBooks(ctx, tx, bookIDs)
		if err != nil {
			return err
		}
		isLocked := make(map[uuid.UUID]bool, len(locked))
		for _, book := range locked {
			isLocked[book.ID] = true
		}

		if _, err := tx.Users().GetForUpdate(ctx, actor.ID); err != nil {
			return err
		}
		active, err := tx.Issues().ListActiveByUser(ctx, actor.ID)
		if err != nil {
			return err
		}
		for _, issue := range active {
			if !isLocked[issue.BookID] {
				return KindErrorf(ErrConflict, "loans changed while deleting the account, try again")
			}
		}
		for _, issue := range active {
			if _, err := tx.Books().PutBackCopy(ctx, issue.BookID); err != nil {
				return err
			}
		}
		released = len(active)
		return tx.Users().Delete(ctx, actor.ID)
	})
	if err != nil {
		return fmt.Errorf("delete user %s: %w", actor.ID, err)
	}

	s.audit.Record(EventDeleteUser, fmt.Sprintf("User %s deleted own account, %d held copies released", actor.ID, released))
	return nil
}

// ListReaders returns all non-admin users.
func (s *UserService) ListReaders(ctx context.Context, actor *User, limit, offset int) ([]User, error) {
	if _, err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.store.Repos().Users().List(ctx, Filter{Limit: limit, Offset: offset}.Eq("role", string(RoleReader)))
	if err != nil {
		return nil, err
	}
	s.audit.Record(EventListUsers, fmt.Sprintf("User %s listed all users", actor.ID))
	return users, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", validationf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", validationf("email %q is not a valid address", raw)
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return validationf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return validationf("password must be at most %d bytes", maxPasswordLength)
	}
	return nil
}

func normalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return "", validationf("username is required")
	}
	if len(username) > 64 {
		return "", validationf("username must be at most 64 characters")
	}
	return username, nil
}
