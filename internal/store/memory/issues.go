package memory

import (
	"context"

	"library-api/internal/core"

	"github.com/google/uuid"
)

type issueRepo struct{ *repos }

func issueFields(i core.Issue) map[string]any {
	return map[string]any{"book_id": i.BookID, "user_id": i.UserID, "returned": i.Returned}
}

func (r *issueRepo) Get(_ context.Context, id uuid.UUID) (*core.Issue, error) {
	var out *core.Issue
	err := r.read(func(d *data) error {
		i, ok := d.issues[id]
		if !ok {
			return core.NotFound(core.EntityIssue)
		}
		out = &i
		return nil
	})
	return out, err
}

func (r *issueRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*core.Issue, error) {
	return r.Get(ctx, id)
}

func (r *issueRepo) Create(_ context.Context, i *core.Issue) error {
	return r.write(func(d *data) error {
		if _, ok := d.issues[i.ID]; ok {
			return core.KindErrorf(core.ErrConflict, "record already exists")
		}
		if _, ok := d.books[i.BookID]; !ok {
			return core.KindErrorf(core.ErrIntegrity, "book does not exist")
		}
		if _, ok := d.users[i.UserID]; !ok {
			return core.KindErrorf(core.ErrIntegrity, "user does not exist")
		}
		now := r.now()
		i.CreatedAt, i.UpdatedAt = now, now
		d.issues[i.ID] = *i
		return nil
	})
}

func (r *issueRepo) Update(_ context.Context, i *core.Issue) error {
	return r.write(func(d *data) error {
		cur, ok := d.issues[i.ID]
		if !ok {
			return core.NotFound(core.EntityIssue)
		}
		i.CreatedAt = cur.CreatedAt
		i.UpdatedAt = r.now()
		d.issues[i.ID] = *i
		return nil
	})
}

func (r *issueRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.write(func(d *data) error {
		if _, ok := d.issues[id]; !ok {
			return core.NotFound(core.EntityIssue)
		}
		delete(d.issues, id)
		return nil
	})
}

func (r *issueRepo) List(_ context.Context, f core.Filter) ([]core.Issue, error) {
	var out []core.Issue
	err := r.read(func(d *data) error {
		out = make([]core.Issue, 0)
		for _, i := range d.issues {
			ok, err := match(f, issueFields(i))
			if err != nil {
				return err
			}
			if ok {
				out = append(out, i)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortBy(out, func(a, b core.Issue) bool {
		if !a.IssueDate.Equal(b.IssueDate) {
			return a.IssueDate.After(b.IssueDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return page(out, f), nil
}

func (r *issueRepo) MarkReturned(_ context.Context, id uuid.UUID) error {
	return r.write(func(d *data) error {
		i, ok := d.issues[id]
		if !ok {
			return core.NotFound(core.EntityIssue)
		}
		if i.Returned {
			return core.ErrAlreadyReturned
		}
		i.Returned = true
		i.UpdatedAt = r.now()
		d.issues[id] = i
		return nil
	})
}

func (r *issueRepo) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	active, err := r.ListActiveByUser(ctx, userID)
	return len(active), err
}

func (r *issueRepo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]core.Issue, error) {
	return r.List(ctx, core.Filter{}.Eq("user_id", userID).Eq("returned", false))
}

type logRepo struct{ *repos }

func (r *logRepo) Append(_ context.Context, e *core.LogEntry) error {
	return r.write(func(d *data) error {
		now := r.now()
		e.CreatedAt, e.UpdatedAt = now, now
		d.logs = append(d.logs, *e)
		return nil
	})
}

// List returns entries newest first.
func (r *logRepo) List(_ context.Context, f core.Filter) ([]core.LogEntry, error) {
	var out []core.LogEntry
	err := r.read(func(d *data) error {
		out = make([]core.LogEntry, 0, len(d.logs))
		for i := len(d.logs) - 1; i >= 0; i-- {
			e := d.logs[i]
			ok, err := match(f, map[string]any{"event_type": e.EventType})
			if err != nil {
				return err
			}
			if ok {
				out = append(out, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page(out, f), nil
}
