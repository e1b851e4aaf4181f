package core_test

import (
	"context"
	"errors"
	"testing"

	"library-api/internal/core"
	"library-api/internal/logger"
	"library-api/internal/store/memory"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogger_WritesEntries(t *testing.T) {
	store := memory.New()
	a := core.NewAuditLogger(store.Repos().Logs(), logger.Discard(), 16)

	a.Record(core.EventIssue, "Book 1 issued to user 2")
	a.Record(core.EventReturn, "Book 1 returned by user 2")
	a.Close()

	entries, err := store.Repos().Logs().List(context.Background(), core.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, core.EventReturn, entries[0].EventType)
	assert.False(t, entries[0].Timestamp.IsZero())
}

type failingLogs struct{}

func (failingLogs) Append(context.Context, *core.LogEntry) error { return errors.New("disk full") }

func (failingLogs) List(context.Context, core.Filter) ([]core.LogEntry, error) { return nil, nil }

func TestAuditLogger_WriteFailureIsLoggedNotSurfaced(t *testing.T) {
	log, hook := test.NewNullLogger()
	a := core.NewAuditLogger(failingLogs{}, log, 4)

	a.Record(core.EventCreate, "something")
	a.Close()

	require.NotEmpty(t, hook.AllEntries())
	last := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, last.Level)
	assert.Equal(t, "audit_append_failed", last.Data["event"])
}

type blockingLogs struct {
	release chan struct{}
}

func (b blockingLogs) Append(context.Context, *core.LogEntry) error {
	<-b.release
	return nil
}

func (blockingLogs) List(context.Context, core.Filter) ([]core.LogEntry, error) { return nil, nil }

func TestAuditLogger_FullQueueDrops(t *testing.T) {
	log, hook := test.NewNullLogger()
	logs := blockingLogs{release: make(chan struct{})}
	a := core.NewAuditLogger(logs, log, 1)

	// The writer may hold one entry and the queue one more; the rest must drop
	// without blocking.
	for i := 0; i < 10; i++ {
		a.Record(core.EventIssue, "x")
	}
	close(logs.release)
	a.Close()

	dropped := 0
	for _, e := range hook.AllEntries() {
		if e.Message == "audit queue full, entry dropped" {
			dropped++
		}
	}
	assert.GreaterOrEqual(t, dropped, 8)

	a.Record(core.EventIssue, "after close")
	assert.Equal(t, "audit logger closed, entry dropped", hook.LastEntry().Message)
}

func TestAuditService_List(t *testing.T) {
	e := newEnv(t)
	logs := e.store.Repos().Logs()
	require.NoError(t, logs.Append(e.ctx, &core.LogEntry{EventType: core.EventCreate, Description: "a"}))
	require.NoError(t, logs.Append(e.ctx, &core.LogEntry{EventType: core.EventIssue, Description: "b"}))

	got, err := e.logs.List(e.ctx, e.admin, core.EventIssue, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Description)

	_, err = e.logs.List(e.ctx, e.reader, "", 0, 0)
	assert.True(t, errors.Is(err, core.ErrForbidden))
}
