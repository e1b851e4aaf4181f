package memory

import (
	"context"

	"library-api/internal/core"

	"github.com/google/uuid"
)

type bookRepo struct{ *repos }

func bookFields(b core.Book) map[string]any {
	return map[string]any{"author_id": b.AuthorID, "genre": b.Genre, "title": b.Title}
}

func checkBook(d *data, b *core.Book) error {
	if b.Counter < 0 {
		return core.KindErrorf(core.ErrValidation, "check constraint books_counter_check violated")
	}
	if _, ok := d.authors[b.AuthorID]; !ok {
		return core.KindErrorf(core.ErrIntegrity, "author does not exist")
	}
	return nil
}

func deleteBook(d *data, id uuid.UUID) {
	delete(d.books, id)
	for iid, issue := range d.issues {
		if issue.BookID == id {
			delete(d.issues, iid)
		}
	}
}

func (r *bookRepo) Get(_ context.Context, id uuid.UUID) (*core.Book, error) {
	var out *core.Book
	err := r.read(func(d *data) error {
		b, ok := d.books[id]
		if !ok {
			return core.NotFound(core.EntityBook)
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *bookRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*core.Book, error) {
	return r.Get(ctx, id)
}

func (r *bookRepo) Create(_ context.Context, b *core.Book) error {
	return r.write(func(d *data) error {
		if _, ok := d.books[b.ID]; ok {
			return core.KindErrorf(core.ErrConflict, "record already exists")
		}
		if err := checkBook(d, b); err != nil {
			return err
		}
		now := r.now()
		b.CreatedAt, b.UpdatedAt = now, now
		d.books[b.ID] = *b
		return nil
	})
}

func (r *bookRepo) Update(_ context.Context, b *core.Book) error {
	return r.write(func(d *data) error {
		cur, ok := d.books[b.ID]
		if !ok {
			return core.NotFound(core.EntityBook)
		}
		if err := checkBook(d, b); err != nil {
			return err
		}
		b.CreatedAt = cur.CreatedAt
		b.UpdatedAt = r.now()
		d.books[b.ID] = *b
		return nil
	})
}

func (r *bookRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.write(func(d *data) error {
		if _, ok := d.books[id]; !ok {
			return core.NotFound(core.EntityBook)
		}
		deleteBook(d, id)
		return nil
	})
}

func (r *bookRepo) List(_ context.Context, f core.Filter) ([]core.Book, error) {
	var out []core.Book
	err := r.read(func(d *data) error {
		out = make([]core.Book, 0, len(d.books))
		for _, b := range d.books {
			ok, err := match(f, bookFields(b))
			if err != nil {
				return err
			}
			if ok {
				out = append(out, b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortBy(out, func(a, b core.Book) bool {
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID.String() < b.ID.String()
	})
	return page(out, f), nil
}

func (r *bookRepo) TakeCopy(_ context.Context, id uuid.UUID) (int, error) {
	return r.adjustCounter(id, -1)
}

func (r *bookRepo) PutBackCopy(_ context.Context, id uuid.UUID) (int, error) {
	return r.adjustCounter(id, 1)
}

func (r *bookRepo) adjustCounter(id uuid.UUID, delta int) (int, error) {
	var counter int
	err := r.write(func(d *data) error {
		b, ok := d.books[id]
		if !ok {
			return core.NotFound(core.EntityBook)
		}
		if b.Counter+delta < 0 {
			return core.ErrUnavailable
		}
		b.Counter += delta
		b.UpdatedAt = r.now()
		d.books[id] = b
		counter = b.Counter
		return nil
	})
	return counter, err
}
