package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profiled/internal/audit"
	"profiled/pkg/domain"
)

type capturingPublisher struct {
	mu        sync.Mutex
	published []audit.Entry
	err       error
}

func (p *capturingPublisher) Publish(ctx context.Context, entry audit.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, entry)
	return p.err
}

func (p *capturingPublisher) Close() {}

func (p *capturingPublisher) entries() []audit.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]audit.Entry, len(p.published))
	copy(out, p.published)
	return out
}

func testEntry() audit.Entry {
	userID := domain.NewUserID()
	return audit.Entry{
		ID:        domain.NewAuditLogID(),
		UserID:    userID,
		Action:    audit.ActionUpdate,
		Changes:   domain.ChangeSet{"name": {Old: "Ann", New: "Anna"}},
		ChangedBy: userID,
		Timestamp: time.Now(),
	}
}

func runWorker(t *testing.T, inbox chan audit.Entry, pub Publisher) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w := NewWorker(inbox, pub, slog.New(slog.NewTextHandler(io.Discard, nil)))
	go func() {
		defer close(done)
		err := w.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not stop after cancel")
		}
	}
}

func TestWorker_PublishesQueuedEntries(t *testing.T) {
	inbox := make(chan audit.Entry, 4)
	pub := &capturingPublisher{}
	stop := runWorker(t, inbox, pub)

	want := testEntry()
	inbox <- want

	require.Eventually(t, func() bool {
		return len(pub.entries()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, want.ID, pub.entries()[0].ID)

	stop()
}

func TestWorker_DrainsBufferedEntriesOnShutdown(t *testing.T) {
	inbox := make(chan audit.Entry, 4)
	pub := &capturingPublisher{}

	// Buffer entries before the worker ever runs, then cancel immediately:
	// everything already queued still goes out.
	for i := 0; i < 3; i++ {
		inbox <- testEntry()
	}
	stop := runWorker(t, inbox, pub)
	stop()

	assert.Len(t, pub.entries(), 3)
}

func TestWorker_PublishFailureDoesNotStopTheLoop(t *testing.T) {
	inbox := make(chan audit.Entry, 4)
	pub := &capturingPublisher{err: errors.New("broker unreachable")}
	stop := runWorker(t, inbox, pub)

	inbox <- testEntry()
	inbox <- testEntry()

	require.Eventually(t, func() bool {
		return len(pub.entries()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	stop()
}
