package core_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"library-api/internal/core"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthor_CRUD(t *testing.T) {
	e := newEnv(t)

	_, err := e.authors.Create(e.ctx, e.reader, core.AuthorInput{Name: "x", Biography: "y", BirthDate: time.Now()})
	assert.True(t, errors.Is(err, core.ErrForbidden))

	_, err = e.authors.Create(e.ctx, e.admin, core.AuthorInput{Name: "x", Biography: "y"})
	assert.True(t, errors.Is(err, core.ErrValidation))

	got, err := e.authors.Get(e.ctx, e.reader, e.author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stanislaw Lem", got.Name)

	bio := "Author of Solaris"
	updated, err := e.authors.Update(e.ctx, e.admin, e.author.ID, core.AuthorPatch{Biography: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Biography)
	assert.Equal(t, "Stanislaw Lem", updated.Name)

	list, err := e.authors.List(e.ctx, e.reader, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = e.authors.Get(e.ctx, e.reader, uuid.New())
	assert.Equal(t, "Author not found", core.PublicMessage(err))
}

func TestAuthor_DeleteReleasesHolders(t *testing.T) {
	e := newEnv(t)
	book := e.newBook(t, 2)
	_, err := e.loans.Issue(e.ctx, e.reader, core.IssueRequest{BookID: book.ID, UserID: e.reader.ID})
	require.NoError(t, err)
	require.Equal(t, 1, e.booksCount(t, e.reader.ID))

	require.NoError(t, e.authors.Delete(e.ctx, e.admin, e.author.ID))

	assert.Equal(t, 0, e.booksCount(t, e.reader.ID))
	assert.Equal(t, 0, e.activeIssues(t, e.reader.ID))
	_, err = e.books.Get(e.ctx, e.reader, book.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.Contains(t, e.audit.types(), core.EventDelete)
}

func TestAuthor_DeleteReleasesOnlyOpenLoans(t *testing.T) {
	e := newEnv(t)
	first := e.newBook(t, 3)
	second := e.newBook(t, 1)

	var issues []*core.Issue
	for _, b := range []*core.Book{first, first, second} {
		issue, err := e.loans.Issue(e.ctx, e.reader, core.IssueRequest{BookID: b.ID, UserID: e.reader.ID})
		require.NoError(t, err)
		issues = append(issues, issue)
	}
	_, err := e.loans.Return(e.ctx, e.reader, issues[0].ID)
	require.NoError(t, err)

	otherAuthor, err := e.authors.Create(e.ctx, e.admin, core.AuthorInput{
		Name: "Arkady Strugatsky", Biography: "Russian writer", BirthDate: time.Date(1925, 8, 28, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	kept, err := e.books.Create(e.ctx, e.admin, core.BookInput{
		Title: "Roadside Picnic", PublicationDate: time.Date(1972, 1, 1, 0, 0, 0, 0, time.UTC),
		Authors: "Strugatsky", Counter: 1, AuthorID: otherAuthor.ID,
	})
	require.NoError(t, err)
	_, err = e.loans.Issue(e.ctx, e.reader, core.IssueRequest{BookID: kept.ID, UserID: e.reader.ID})
	require.NoError(t, err)
	require.Equal(t, 3, e.booksCount(t, e.reader.ID))

	require.NoError(t, e.authors.Delete(e.ctx, e.admin, e.author.ID))

	assert.Equal(t, 1, e.booksCount(t, e.reader.ID))
	assert.Equal(t, 1, e.activeIssues(t, e.reader.ID))
	assert.Equal(t, 0, e.counter(t, kept.ID))
}

func TestBook_CreateAndValidate(t *testing.T) {
	e := newEnv(t)

	_, err := e.books.Create(e.ctx, e.admin, core.BookInput{
		Title: "Orphan", Authors: "Nobody", PublicationDate: time.Now(), AuthorID: uuid.New(),
	})
	assert.True(t, errors.Is(err, core.ErrIntegrity))
	assert.Equal(t, "author does not exist", core.PublicMessage(err))

	_, err = e.books.Create(e.ctx, e.admin, core.BookInput{
		Title: "Negative", Authors: "Lem", PublicationDate: time.Now(), Counter: -1, AuthorID: e.author.ID,
	})
	assert.True(t, errors.Is(err, core.ErrValidation))

	_, err = e.books.Create(e.ctx, e.reader, core.BookInput{
		Title: "Nope", Authors: "Lem", PublicationDate: time.Now(), AuthorID: e.author.ID,
	})
	assert.True(t, errors.Is(err, core.ErrForbidden))
}

func TestBook_ListFilters(t *testing.T) {
	e := newEnv(t)
	scifi := "sci-fi"
	_, err := e.books.Create(e.ctx, e.admin, core.BookInput{
		Title: "Fiasco", Authors: "Lem", PublicationDate: time.Now(), Counter: 1, Genre: &scifi, AuthorID: e.author.ID,
	})
	require.NoError(t, err)
	e.newBook(t, 1)

	all, err := e.books.List(e.ctx, e.reader, core.BookQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	genre, err := e.books.List(e.ctx, e.reader, core.BookQuery{Genre: "sci-fi"})
	require.NoError(t, err)
	require.Len(t, genre, 1)
	assert.Equal(t, "Fiasco", genre[0].Title)

	other := uuid.New()
	none, err := e.books.List(e.ctx, e.reader, core.BookQuery{AuthorID: &other})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBook_Update(t *testing.T) {
	e := newEnv(t)
	book := e.newBook(t, 1)

	counter := 7
	title := "Solaris (2nd ed.)"
	got, err := e.books.Update(e.ctx, e.admin, book.ID, core.BookPatch{Counter: &counter, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 7, got.Counter)
	assert.Equal(t, title, got.Title)

	negative := -2
	_, err = e.books.Update(e.ctx, e.admin, book.ID, core.BookPatch{Counter: &negative})
	assert.True(t, errors.Is(err, core.ErrValidation))
	assert.Equal(t, 7, e.counter(t, book.ID))
}

func TestBook_DeleteReleasesHolders(t *testing.T) {
	e := newEnv(t)
	book := e.newBook(t, 3)
	other := e.newReader(t, "other")
	for _, u := range []*core.User{e.reader, other} {
		_, err := e.loans.Issue(e.ctx, u, core.IssueRequest{BookID: book.ID, UserID: u.ID})
		require.NoError(t, err)
	}

	require.NoError(t, e.books.Delete(e.ctx, e.admin, book.ID))

	assert.Equal(t, 0, e.booksCount(t, e.reader.ID))
	assert.Equal(t, 0, e.booksCount(t, other.ID))

	err := e.books.Delete(e.ctx, e.admin, book.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestBook_DeleteRacingReturn(t *testing.T) {
	e := newEnv(t)
	book := e.newBook(t, 2)
	keep := e.newBook(t, 1)

	loan, err := e.loans.Issue(e.ctx, e.reader, core.IssueRequest{BookID: book.ID, UserID: e.reader.ID})
	require.NoError(t, err)
	_, err = e.loans.Issue(e.ctx, e.reader, core.IssueRequest{BookID: keep.ID, UserID: e.reader.ID})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, e.books.Delete(e.ctx, e.admin, book.ID))
	}()
	go func() {
		defer wg.Done()
		// Either order is fine; a return after the delete finds nothing to return.
		_, err := e.loans.Return(e.ctx, e.reader, loan.ID)
		if err != nil {
			assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
		}
	}()
	wg.Wait()

	assert.Equal(t, 1, e.booksCount(t, e.reader.ID))
	assert.Equal(t, e.activeIssues(t, e.reader.ID), e.booksCount(t, e.reader.ID))
}
