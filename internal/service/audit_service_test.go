package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"money-transfer/internal/core/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_Log_WritesEntry(t *testing.T) {
	var buf bytes.Buffer
	svc := NewAuditService(zerolog.New(&buf))
	t.Cleanup(svc.Close)

	svc.Log(context.Background(), &domain.AuditLog{
		ID:           uuid.New(),
		RequestID:    "req-1",
		Action:       domain.AuditActionSettleTransfer,
		ResourceType: "transfer",
		ResourceID:   "3",
		Details:      `{"status":200}`,
		IPAddress:    "127.0.0.1",
		CreatedAt:    time.Now(),
	})
	svc.Flush()

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, "audit", line["component"])
	assert.Equal(t, "SETTLE_TRANSFER", line["action"])
	assert.Equal(t, "3", line["resource_id"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, map[string]any{"status": float64(200)}, line["details"])
}

func TestAuditService_Log_EmptyDetails(t *testing.T) {
	var buf bytes.Buffer
	svc := NewAuditService(zerolog.New(&buf))
	t.Cleanup(svc.Close)

	svc.Log(context.Background(), &domain.AuditLog{
		ID:           uuid.New(),
		Action:       domain.AuditActionDeleteAccount,
		ResourceType: "account",
		CreatedAt:    time.Now(),
	})
	svc.Flush()

	assert.Contains(t, buf.String(), `"details":{}`)
}

// gateWriter blocks audit lines until released; other lines pass through.
type gateWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGateWriter() *gateWriter {
	return &gateWriter{entered: make(chan struct{}), release: make(chan struct{})}
}

func (w *gateWriter) Write(p []byte) (int, error) {
	if strings.Contains(string(p), `"message":"audit"`) {
		w.once.Do(func() { close(w.entered) })
		<-w.release
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *gateWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func auditEntry(resourceID string) *domain.AuditLog {
	return &domain.AuditLog{
		ID:           uuid.New(),
		Action:       domain.AuditActionCreateTransfer,
		ResourceType: "transfer",
		ResourceID:   resourceID,
		CreatedAt:    time.Now(),
	}
}

func TestAuditService_WritesInArrivalOrder(t *testing.T) {
	var buf bytes.Buffer
	svc := NewAuditService(zerolog.New(&buf))
	t.Cleanup(svc.Close)

	const n = 50
	for i := 0; i < n; i++ {
		svc.Log(context.Background(), auditEntry(strconv.Itoa(i)))
	}
	svc.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, n)
	for i, l := range lines {
		var line map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &line))
		assert.Equal(t, strconv.Itoa(i), line["resource_id"])
	}
}

func TestAuditService_FullQueueDropsAfterContextDone(t *testing.T) {
	w := newGateWriter()
	svc := newAuditService(zerolog.New(w), 1)

	svc.Log(context.Background(), auditEntry("1"))
	<-w.entered // worker is stuck writing entry 1
	svc.Log(context.Background(), auditEntry("2"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	svc.Log(ctx, auditEntry("3"))
	assert.Contains(t, w.String(), "audit queue full, entry dropped")

	close(w.release)
	svc.Close()

	out := w.String()
	assert.Contains(t, out, `"resource_id":"1"`)
	assert.Contains(t, out, `"resource_id":"2"`)
	assert.NotContains(t, out, `"resource_id":"3"`)
}

func TestAuditService_LogAfterClose(t *testing.T) {
	var buf bytes.Buffer
	svc := NewAuditService(zerolog.New(&buf))

	svc.Log(context.Background(), auditEntry("1"))
	svc.Close()
	svc.Close()

	svc.Log(context.Background(), auditEntry("2"))
	svc.Flush()

	assert.Contains(t, buf.String(), `"resource_id":"1"`)
	assert.NotContains(t, buf.String(), `"resource_id":"2"`)
	assert.Contains(t, buf.String(), "audit service closed, entry dropped")
}
