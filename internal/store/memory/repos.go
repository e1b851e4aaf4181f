package memory

import (
	"context"

	"library-api/internal/core"

	"github.com/google/uuid"
)

type userRepo struct{ *repos }

func userFields(u core.User) map[string]any {
	return map[string]any{"role": string(u.Role), "email": u.Email, "username": u.Username}
}

func (r *userRepo) Get(_ context.Context, id uuid.UUID) (*core.User, error) {
	var out *core.User
	err := r.read(func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return core.NotFound(core.EntityUser)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*core.User, error) {
	return r.Get(ctx, id)
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*core.User, error) {
	var out *core.User
	err := r.read(func(d *data) error {
		for _, u := range d.users {
			if u.Email == email {
				out = &u
				return nil
			}
		}
		return core.NotFound(core.EntityUser)
	})
	return out, err
}

func (r *userRepo) Create(_ context.Context, u *core.User) error {
	return r.write(func(d *data) error {
		if _, ok := d.users[u.ID]; ok {
			return core.KindErrorf(core.ErrConflict, "record already exists")
		}
		if err := checkUnique(d, u); err != nil {
			return err
		}
		now := r.now()
		u.CreatedAt, u.UpdatedAt = now, now
		d.users[u.ID] = *u
		return nil
	})
}

// Update writes everything but books_count, which only AdjustBooksCount changes.
func (r *userRepo) Update(_ context.Context, u *core.User) error {
	return r.write(func(d *data) error {
		cur, ok := d.users[u.ID]
		if !ok {
			return core.NotFound(core.EntityUser)
		}
		if err := checkUnique(d, u); err != nil {
			return err
		}
		cur.Email = u.Email
		cur.Username = u.Username
		cur.PasswordHash = u.PasswordHash
		cur.Role = u.Role
		cur.UpdatedAt = r.now()
		d.users[u.ID] = cur
		*u = cur
		return nil
	})
}

func (r *userRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.write(func(d *data) error {
		if _, ok := d.users[id]; !ok {
			return core.NotFound(core.EntityUser)
		}
		delete(d.users, id)
		for iid, issue := range d.issues {
			if issue.UserID == id {
				delete(d.issues, iid)
			}
		}
		return nil
	})
}

func (r *userRepo) List(_ context.Context, f core.Filter) ([]core.User, error) {
	var out []core.User
	err := r.read(func(d *data) error {
		out = make([]core.User, 0, len(d.users))
		for _, u := range d.users {
			ok, err := match(f, userFields(u))
			if err != nil {
				return err
			}
			if ok {
				out = append(out, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortBy(out, func(a, b core.User) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return page(out, f), nil
}

func (r *userRepo) AdjustBooksCount(_ context.Context, id uuid.UUID, delta int) (int, error) {
	var count int
	err := r.write(func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return core.NotFound(core.EntityUser)
		}
		u.BooksCount = max(u.BooksCount+delta, 0)
		u.UpdatedAt = r.now()
		d.users[id] = u
		count = u.BooksCount
		return nil
	})
	return count, err
}

func checkUnique(d *data, u *core.User) error {
	for id, other := range d.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return core.KindErrorf(core.ErrConflict, "user with this email already exists")
		}
		if other.Username == u.Username {
			return core.KindErrorf(core.ErrConflict, "user with this username already exists")
		}
	}
	return nil
}

type authorRepo struct{ *repos }

func (r *authorRepo) Get(_ context.Context, id uuid.UUID) (*core.Author, error) {
	var out *core.Author
	err := r.read(func(d *data) error {
		a, ok := d.authors[id]
		if !ok {
			return core.NotFound(core.EntityAuthor)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *authorRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*core.Author, error) {
	return r.Get(ctx, id)
}

func (r *authorRepo) Create(_ context.Context, a *core.Author) error {
	return r.write(func(d *data) error {
		if _, ok := d.authors[a.ID]; ok {
			return core.KindErrorf(core.ErrConflict, "record already exists")
		}
		now := r.now()
		a.CreatedAt, a.UpdatedAt = now, now
		d.authors[a.ID] = *a
		return nil
	})
}

func (r *authorRepo) Update(_ context.Context, a *core.Author) error {
	return r.write(func(d *data) error {
		cur, ok := d.authors[a.ID]
		if !ok {
			return core.NotFound(core.EntityAuthor)
		}
		a.CreatedAt = cur.CreatedAt
		a.UpdatedAt = r.now()
		d.authors[a.ID] = *a
		return nil
	})
}

// Delete cascades to the author's books and their issues.
func (r *authorRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.write(func(d *data) error {
		if _, ok := d.authors[id]; !ok {
			return core.NotFound(core.EntityAuthor)
		}
		delete(d.authors, id)
		for bid, b := range d.books {
			if b.AuthorID == id {
				deleteBook(d, bid)
			}
		}
		return nil
	})
}

func (r *authorRepo) List(_ context.Context, f core.Filter) ([]core.Author, error) {
	var out []core.Author
	err := r.read(func(d *data) error {
		out = make([]core.Author, 0, len(d.authors))
		for _, a := range d.authors {
			ok, err := match(f, map[string]any{"name": a.Name})
			if err != nil {
				return err
			}
			if ok {
				out = append(out, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortBy(out, func(a, b core.Author) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID.String() < b.ID.String()
	})
	return page(out, f), nil
}
