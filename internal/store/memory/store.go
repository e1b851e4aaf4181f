// Package memory implements core.Store in process. Transactions are serialized:
// WithinTx works on a copy of the data and swaps it in on success.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"library-api/internal/core"

	"github.com/google/uuid"
)

type data struct {
	users   map[uuid.UUID]core.User
	authors map[uuid.UUID]core.Author
	books   map[uuid.UUID]core.Book
	issues  map[uuid.UUID]core.Issue
	logs    []core.LogEntry
}

func newData() *data {
	return &data{
		users:   make(map[uuid.UUID]core.User),
		authors: make(map[uuid.UUID]core.Author),
		books:   make(map[uuid.UUID]core.Book),
		issues:  make(map[uuid.UUID]core.Issue),
	}
}

func (d *data) clone() *data {
	c := &data{
		users:   make(map[uuid.UUID]core.User, len(d.users)),
		authors: make(map[uuid.UUID]core.Author, len(d.authors)),
		books:   make(map[uuid.UUID]core.Book, len(d.books)),
		issues:  make(map[uuid.UUID]core.Issue, len(d.issues)),
		logs:    append([]core.LogEntry(nil), d.logs...),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.authors {
		c.authors[k] = v
	}
	for k, v := range d.books {
		c.books[k] = v
	}
	for k, v := range d.issues {
		c.issues[k] = v
	}
	return c
}

type Store struct {
	// txMu serializes transactions for their whole duration.
	txMu sync.Mutex
	// mu guards the data pointer and the maps behind it.
	mu   sync.RWMutex
	data *data
	now  func() time.Time
}

func New() *Store {
	return &Store{data: newData(), now: time.Now}
}

// Repos returns repositories that operate on the committed data directly. Each
// write through them runs as its own transaction.
func (s *Store) Repos() core.Repos {
	return &repos{store: s, lock: &s.mu, autocommit: true, data: func() *data { return s.data }}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx core.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	work := s.data.clone()
	s.mu.RUnlock()

	// The working copy is private to this transaction; its lock only
	// guards against the callback fanning out.
	var txMu sync.RWMutex
	tx := &repos{store: s, lock: &txMu, data: func() *data { return work }}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = work
	s.mu.Unlock()
	return nil
}

type repos struct {
	store      *Store
	lock       *sync.RWMutex
	autocommit bool
	data       func() *data
}

func (r *repos) read(fn func(d *data) error) error {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return fn(r.data())
}

func (r *repos) write(fn func(d *data) error) error {
	if r.autocommit {
		r.store.txMu.Lock()
		defer r.store.txMu.Unlock()
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return fn(r.data())
}

func (r *repos) Users() core.UserRepository     { return &userRepo{r} }
func (r *repos) Authors() core.AuthorRepository { return &authorRepo{r} }
func (r *repos) Books() core.BookRepository     { return &bookRepo{r} }
func (r *repos) Issues() core.IssueRepository   { return &issueRepo{r} }
func (r *repos) Logs() core.LogRepository       { return &logRepo{r} }

func (r *repos) now() time.Time { return r.store.now().UTC() }

// page applies offset and limit to an already ordered slice.
func page[T any](items []T, f core.Filter) []T {
	if f.Offset > 0 {
		if f.Offset >= len(items) {
			return []T{}
		}
		items = items[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(items) {
		items = items[:f.Limit]
	}
	return items
}

// match checks f.Where against the fields a record exposes. It fails with
// ErrValidation for a column the record does not expose.
func match(f core.Filter, fields map[string]any) (bool, error) {
	for col, want := range f.Where {
		got, ok := fields[col]
		if !ok {
			return false, core.KindErrorf(core.ErrValidation, "unknown filter %q", col)
		}
		if !equal(got, want) {
			return false, nil
		}
	}
	return true, nil
}

func equal(got, want any) bool {
	switch g := got.(type) {
	case *string:
		if g == nil {
			return want == nil
		}
		return equal(*g, want)
	case uuid.UUID:
		switch w := want.(type) {
		case uuid.UUID:
			return g == w
		case string:
			return g.String() == strings.ToLower(w)
		}
		return false
	}
	return got == want
}

func sortBy[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
