package service

import (
	"context"
	"sync"

	"money-transfer/internal/core/domain"

	"github.com/rs/zerolog"
)

const defaultAuditQueueSize = 256

// auditItem is either an entry to write or a flush marker.
type auditItem struct {
	entry   *domain.AuditLog
	flushed chan struct{}
}

// AuditServiceImpl writes audit entries to a dedicated logger off the
// request path. A single worker drains a bounded queue in arrival order.
type AuditServiceImpl struct {
	log   zerolog.Logger
	queue chan auditItem
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAuditService creates a new audit service and starts its worker.
// Entries are tagged with component=audit.
func NewAuditService(log zerolog.Logger) *AuditServiceImpl {
	return newAuditService(log, defaultAuditQueueSize)
}

func newAuditService(log zerolog.Logger, queueSize int) *AuditServiceImpl {
	s := &AuditServiceImpl{
		log:   log.With().Str("component", "audit").Logger(),
		queue: make(chan auditItem, queueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Log enqueues an audit entry. When the queue is full it waits for room
// until ctx is done, then drops the entry with a warning.
func (s *AuditServiceImpl) Log(ctx context.Context, entry *domain.AuditLog) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped(entry, "audit service closed")
		return
	}

	select {
	case s.queue <- auditItem{entry: entry}:
	case <-ctx.Done():
		s.dropped(entry, "audit queue full")
	}
}

// Flush blocks until every entry logged so far has been written.
func (s *AuditServiceImpl) Flush() {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		<-s.done
		return
	}
	flushed := make(chan struct{})
	s.queue <- auditItem{flushed: flushed}
	s.mu.RUnlock()
	<-flushed
}

// Close writes the queued entries and stops the worker. Entries logged
// after Close are dropped.
func (s *AuditServiceImpl) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *AuditServiceImpl) run() {
	defer close(s.done)
	for item := range s.queue {
		if item.flushed != nil {
			close(item.flushed)
			continue
		}
		s.write(item.entry)
	}
}

func (s *AuditServiceImpl) write(entry *domain.AuditLog) {
	s.log.Info().
		Str("audit_id", entry.ID.String()).
		Str("request_id", entry.RequestID).
		Str("action", string(entry.Action)).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Str("ip", entry.IPAddress).
		RawJSON("details", detailsJSON(entry.Details)).
		Time("at", entry.CreatedAt).
		Msg("audit")
}

func (s *AuditServiceImpl) dropped(entry *domain.AuditLog, reason string) {
	s.log.Warn().
		Str("audit_id", entry.ID.String()).
		Str("action", string(entry.Action)).
		Msg(reason + ", entry dropped")
}

func detailsJSON(details string) []byte {
	if details == "" {
		return []byte("{}")
	}
	return []byte(details)
}
