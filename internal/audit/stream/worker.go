package stream

import (
	"context"
	"log/slog"
	"time"

	"profiled/internal/audit"
)

// publishTimeout bounds a single broker round-trip so a slow broker can't
// back the inbox up forever.
const publishTimeout = 5 * time.Second

// Worker drains committed audit entries from the recorder's stream channel
// and hands them to the publisher. Publish failures are logged and the entry
// dropped; durability lives in the audit store, not here.
type Worker struct {
	inbox  <-chan audit.Entry
	pub    Publisher
	logger *slog.Logger
}

func NewWorker(inbox <-chan audit.Entry, pub Publisher, logger *slog.Logger) *Worker {
	return &Worker{inbox: inbox, pub: pub, logger: logger}
}

// Run consumes until ctx is cancelled, then drains whatever is already
// buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case entry := <-w.inbox:
			w.publish(ctx, entry)
		}
	}
}

func (w *Worker) publish(ctx context.Context, entry audit.Entry) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := w.pub.Publish(pubCtx, entry); err != nil {
		w.logger.Warn("audit stream publish failed",
			"entry_id", entry.ID.String(),
			"error", err,
		)
	}
}

func (w *Worker) drain() {
	for {
		select {
		case entry := <-w.inbox:
			w.publish(context.Background(), entry)
		default:
			return
		}
	}
}
