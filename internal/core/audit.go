package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const auditWriteTimeout = 5 * time.Second

// Auditor records audit events. Implementations must not block the caller on
// storage and must never report failure back to it.
type Auditor interface {
	Record(eventType, description string)
}

// AuditLogger is an Auditor that queues entries and appends them to the log
// table from a single background goroutine, outside any business transaction.
// A full queue or a failed write is logged and the entry is dropped.
type AuditLogger struct {
	logs LogRepository
	log  logrus.FieldLogger
	now  func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan LogEntry
	done   chan struct{}
}

// NewAuditLogger starts the writer goroutine. Call Close to drain it.
func NewAuditLogger(logs LogRepository, log logrus.FieldLogger, buffer int) *AuditLogger {
	if buffer <= 0 {
		buffer = 256
	}
	a := &AuditLogger{
		logs:  logs,
		log:   log,
		now:   time.Now,
		queue: make(chan LogEntry, buffer),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AuditLogger) Record(eventType, description string) {
	entry := LogEntry{
		ID:          uuid.New(),
		EventType:   eventType,
		Description: description,
		Timestamp:   a.now().UTC(),
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.log.WithField("event_type", eventType).Warn("audit logger closed, entry dropped")
		return
	}
	select {
	case a.queue <- entry:
	default:
		a.log.WithFields(logrus.Fields{
			"event_type":  eventType,
			"description": description,
		}).Error("audit queue full, entry dropped")
	}
}

// Close stops accepting entries and blocks until queued ones are written.
func (a *AuditLogger) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	<-a.done
}

func (a *AuditLogger) run() {
	defer close(a.done)
	for entry := range a.queue {
		a.write(entry)
	}
}

func (a *AuditLogger) write(entry LogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	if err := a.logs.Append(ctx, &entry); err != nil {
		a.log.WithFields(logrus.Fields{
			"event":      "audit_append_failed",
			"layer":      "core",
			"event_type": entry.EventType,
			"error":      err.Error(),
		}).Error("audit entry not written")
	}
}

// AuditService exposes the audit log to admins.
type AuditService struct {
	store Store
}

func NewAuditService(store Store) *AuditService {
	return &AuditService{store: store}
}

// List returns audit entries, newest first, optionally filtered by event type.
func (s *AuditService) List(ctx context.Context, actor *User, eventType string, limit, offset int) ([]LogEntry, error) {
	if _, err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	f := Filter{Limit: limit, Offset: offset}
	if eventType != "" {
		f = f.Eq("event_type", eventType)
	}
	return s.store.Repos().Logs().List(ctx, f)
}
