package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"profiled/internal/platform/metrics"
	"profiled/internal/platform/middleware"
	"profiled/pkg/domain"
)

// Recorder persists audit entries and serves the audit trail. Record runs
// inside the caller's transaction; the optional stream fan-out happens only
// after the caller commits, via Announce.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	stream  chan<- Entry
}

type Option func(*Recorder)

// WithStream enables best-effort after-commit fan-out of committed entries.
func WithStream(ch chan<- Entry) Option {
	return func(r *Recorder) {
		r.stream = ch
	}
}

func NewRecorder(store Store, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Recorder {
	r := &Recorder{store: store, logger: logger, metrics: m}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists one entry inside the caller's active transaction. Request
// provenance (client IP, user agent) is filled from context when the caller
// left it empty. An error here must abort the enclosing transaction: profile
// changes and audit entries commit or roll back together.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if len(entry.Changes) == 0 {
		return fmt.Errorf("refusing to record entry with empty change set")
	}
	if entry.ID.IsNil() {
		entry.ID = domain.NewAuditLogID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.IPAddress == "" {
		entry.IPAddress = middleware.GetClientIP(ctx)
	}
	if entry.UserAgent == "" {
		entry.UserAgent = middleware.GetUserAgent(ctx)
	}
	entry.Client = describeClient(entry.UserAgent)

	if err := r.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Announce reports an entry as committed. Call only after the enclosing
// transaction committed; the stream send is non-blocking and entries are
// dropped when the worker falls behind (durability lives in the store).
func (r *Recorder) Announce(entry Entry) {
	r.metrics.AuditEntriesRecorded.Inc()
	if r.stream == nil {
		return
	}
	select {
	case r.stream <- entry:
	default:
		r.metrics.AuditStreamDropped.Inc()
		r.logger.Warn("audit stream full, entry dropped",
			"entry_id", entry.ID.String(),
			"action", string(entry.Action),
		)
	}
}

// List returns one page of the user's audit trail with page metadata.
func (r *Recorder) List(ctx context.Context, userID domain.UserID, params ListParams) (*Page, error) {
	entries, total, err := r.store.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}

	totalPages := (total + params.Limit - 1) / params.Limit
	return &Page{
		Entries: entries,
		Pagination: Pagination{
			CurrentPage: params.Page,
			TotalPages:  totalPages,
			TotalCount:  total,
			HasNextPage: params.Page < totalPages,
			HasPrevPage: params.Page > 1,
		},
	}, nil
}

// RunRetention periodically deletes entries older than maxAge. Sweep
// failures are logged and retried next tick; they never affect requests.
// Returns when ctx is cancelled.
func (r *Recorder) RunRetention(ctx context.Context, interval, maxAge time.Duration) error {
	if maxAge <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			deleted, err := r.store.DeleteOlderThan(ctx, time.Now().Add(-maxAge))
			if err != nil {
				r.logger.ErrorContext(ctx, "audit retention sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				r.logger.InfoContext(ctx, "audit retention sweep", "deleted", deleted)
			}
		}
	}
}

// describeClient condenses a raw User-Agent into "Browser Version (OS)".
func describeClient(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(name)
	if version != "" {
		b.WriteString(" " + version)
	}
	if os := ua.OS(); os != "" {
		b.WriteString(" (" + os + ")")
	}
	return b.String()
}
