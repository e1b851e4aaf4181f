package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"library-api/internal/core"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBook(t *testing.T, s *Store, counter int) (*core.Author, *core.Book) {
	t.Helper()
	ctx := context.Background()
	author := &core.Author{ID: uuid.New(), Name: "Italo Calvino", Biography: "Writer", BirthDate: time.Date(1923, 10, 15, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, s.Repos().Authors().Create(ctx, author))
	book := &core.Book{ID: uuid.New(), Title: "Invisible Cities", Authors: "Italo Calvino", Counter: counter, AuthorID: author.ID}
	require.NoError(t, s.Repos().Books().Create(ctx, book))
	return author, book
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, book := seedBook(t, s, 2)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx core.Repos) error {
		if _, err := tx.Books().TakeCopy(ctx, book.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Repos().Books().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Counter)
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, book := seedBook(t, s, 2)

	err := s.WithinTx(ctx, func(ctx context.Context, tx core.Repos) error {
		_, err := tx.Books().TakeCopy(ctx, book.ID)
		return err
	})
	require.NoError(t, err)

	got, err := s.Repos().Books().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Counter)
}

func TestBooks_TakeCopyNeverGoesNegative(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, book := seedBook(t, s, 1)

	_, err := s.Repos().Books().TakeCopy(ctx, book.ID)
	require.NoError(t, err)
	_, err = s.Repos().Books().TakeCopy(ctx, book.ID)
	assert.ErrorIs(t, err, core.ErrUnavailable)

	_, err = s.Repos().Books().TakeCopy(ctx, uuid.New())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBooks_CreateChecksAuthorAndCounter(t *testing.T) {
	s := New()
	ctx := context.Background()
	author, _ := seedBook(t, s, 1)

	err := s.Repos().Books().Create(ctx, &core.Book{ID: uuid.New(), Title: "x", Authors: "x", AuthorID: uuid.New()})
	assert.ErrorIs(t, err, core.ErrIntegrity)

	err = s.Repos().Books().Create(ctx, &core.Book{ID: uuid.New(), Title: "x", Authors: "x", Counter: -1, AuthorID: author.ID})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestUsers_EmailUniqueAndCountClamped(t *testing.T) {
	s := New()
	ctx := context.Background()
	users := s.Repos().Users()

	u := &core.User{ID: uuid.New(), Email: "a@example.com", Username: "a", Role: core.RoleReader}
	require.NoError(t, users.Create(ctx, u))
	err := users.Create(ctx, &core.User{ID: uuid.New(), Email: "a@example.com", Username: "b", Role: core.RoleReader})
	assert.ErrorIs(t, err, core.ErrConflict)

	n, err := users.AdjustBooksCount(ctx, u.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = users.AdjustBooksCount(ctx, u.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	u.Username = "renamed"
	require.NoError(t, users.Update(ctx, u))
	assert.Equal(t, 2, u.BooksCount, "update keeps books_count")
}

func TestDelete_Cascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	author, book := seedBook(t, s, 1)
	user := &core.User{ID: uuid.New(), Email: "r@example.com", Username: "r", Role: core.RoleReader}
	require.NoError(t, s.Repos().Users().Create(ctx, user))
	issue := &core.Issue{ID: uuid.New(), BookID: book.ID, UserID: user.ID}
	require.NoError(t, s.Repos().Issues().Create(ctx, issue))

	require.NoError(t, s.Repos().Authors().Delete(ctx, author.ID))

	_, err := s.Repos().Books().Get(ctx, book.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.Repos().Issues().Get(ctx, issue.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestIssues_FilterAndMarkReturned(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, book := seedBook(t, s, 3)
	user := &core.User{ID: uuid.New(), Email: "r@example.com", Username: "r", Role: core.RoleReader}
	require.NoError(t, s.Repos().Users().Create(ctx, user))

	issues := s.Repos().Issues()
	first := &core.Issue{ID: uuid.New(), BookID: book.ID, UserID: user.ID}
	second := &core.Issue{ID: uuid.New(), BookID: book.ID, UserID: user.ID}
	require.NoError(t, issues.Create(ctx, first))
	require.NoError(t, issues.Create(ctx, second))

	require.NoError(t, issues.MarkReturned(ctx, first.ID))
	assert.ErrorIs(t, issues.MarkReturned(ctx, first.ID), core.ErrAlreadyReturned)

	active, err := issues.CountActiveByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	_, err = issues.List(ctx, core.Filter{}.Eq("issue_date", time.Now()))
	assert.ErrorIs(t, err, core.ErrValidation)

	page, err := issues.List(ctx, core.Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestLogs_NewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	logs := s.Repos().Logs()

	require.NoError(t, logs.Append(ctx, &core.LogEntry{ID: uuid.New(), EventType: core.EventCreate, Description: "one"}))
	require.NoError(t, logs.Append(ctx, &core.LogEntry{ID: uuid.New(), EventType: core.EventIssue, Description: "two"}))
	require.NoError(t, logs.Append(ctx, &core.LogEntry{ID: uuid.New(), EventType: core.EventCreate, Description: "three"}))

	all, err := logs.List(ctx, core.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "three", all[0].Description)

	creates, err := logs.List(ctx, core.Filter{}.Eq("event_type", core.EventCreate))
	require.NoError(t, err)
	assert.Len(t, creates, 2)
}

func TestAutocommitWritesSurviveConcurrentTransactions(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, book := seedBook(t, s, 100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.WithinTx(ctx, func(ctx context.Context, tx core.Repos) error {
				_, err := tx.Books().TakeCopy(ctx, book.ID)
				return err
			})
		}()
		go func() {
			defer wg.Done()
			_ = s.Repos().Logs().Append(ctx, &core.LogEntry{ID: uuid.New(), EventType: core.EventIssue})
		}()
	}
	wg.Wait()

	got, err := s.Repos().Books().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, got.Counter)

	logs, err := s.Repos().Logs().List(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Len(t, logs, 20)
}
