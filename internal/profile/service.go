package profile

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"profiled/internal/audit"
	"profiled/internal/platform/metrics"
	"profiled/internal/ratelimit"
	"profiled/pkg/domain"
	dErrors "profiled/pkg/domain-errors"
	"profiled/pkg/platform/sentinel"
)

// TxRunner provides the transactional boundary for mutating operations. The
// Postgres implementation wraps a SQL transaction; the in-memory one a
// coarse lock.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Limiter enforces the per-user update cooldown.
type Limiter interface {
	Check(ctx context.Context, userID domain.UserID) ratelimit.Result
	MarkUpdated(ctx context.Context, userID domain.UserID)
}

// Auditor records and serves the audit trail.
type Auditor interface {
	Record(ctx context.Context, entry audit.Entry) error
	Announce(entry audit.Entry)
	List(ctx context.Context, userID domain.UserID, params audit.ListParams) (*audit.Page, error)
}

// Service composes the profile pipeline: rate-limit check, validation, then
// the atomic apply-update plus audit entry inside one transaction.
type Service struct {
	store   Store
	auditor Auditor
	limiter Limiter
	runner  TxRunner
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, auditor Auditor, limiter Limiter, runner TxRunner,
	m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		auditor: auditor,
		limiter: limiter,
		runner:  runner,
		metrics: m,
		logger:  logger,
	}
}

// GetProfile returns the caller's active profile.
func (s *Service) GetProfile(ctx context.Context, userID domain.UserID) (*User, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return u, nil
}

// UpdateProfile applies a partial update with a diff-based audit entry.
// pictureRef points at an already-staged upload; the handler removes the
// staged file when this returns an error.
func (s *Service) UpdateProfile(ctx context.Context, userID domain.UserID, req UpdateRequest, pictureRef *string) (*User, error) {
	if result := s.limiter.Check(ctx, userID); !result.Allowed {
		s.metrics.RateLimitRejections.Inc()
		return nil, &ratelimit.Error{NextAllowed: result.NextAllowed}
	}

	upd, err := ValidateUpdate(req)
	if err != nil {
		return nil, err
	}
	upd.ProfilePicture = pictureRef

	if upd.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeNoChanges, "no changes detected")
	}

	var (
		updated *User
		entry   audit.Entry
	)
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		u, changes, err := s.store.ApplyUpdate(ctx, userID, upd)
		if err != nil {
			return mapStoreError(err)
		}

		entry = audit.Entry{
			UserID:    userID,
			Action:    audit.ActionUpdate,
			Changes:   changes,
			ChangedBy: userID,
		}
		if err := s.auditor.Record(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit entry")
		}

		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.limiter.MarkUpdated(ctx, userID)
	s.metrics.ProfileUpdates.Inc()
	s.auditor.Announce(entry)
	return updated, nil
}

// DeleteProfile soft-deletes the caller's profile with an audit entry.
// Delete is a one-shot transition: an already-deleted profile is NotFound.
func (s *Service) DeleteProfile(ctx context.Context, userID domain.UserID) error {
	var entry audit.Entry
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.SoftDelete(ctx, userID); err != nil {
			return mapStoreError(err)
		}

		entry = audit.Entry{
			UserID:    userID,
			Action:    audit.ActionDelete,
			Changes:   domain.ChangeSet{"isDeleted": {Old: false, New: true}},
			ChangedBy: userID,
		}
		if err := s.auditor.Record(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit entry")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.ProfileDeletes.Inc()
	s.auditor.Announce(entry)
	return nil
}

// ListAuditLogs returns one page of the caller's audit trail.
func (s *Service) ListAuditLogs(ctx context.Context, userID domain.UserID, params audit.ListParams) (*audit.Page, error) {
	page, err := s.auditor.List(ctx, userID, params)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch audit logs")
	}
	return page, nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "email already exists")
	case errors.Is(err, sentinel.ErrNoChanges):
		return dErrors.New(dErrors.CodeNoChanges, "no changes detected")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
}

// MutexTxRunner serializes mutating operations for the in-memory backend.
// Good enough for tests and demos; real deployments use the SQL TxRunner.
type MutexTxRunner struct {
	mu sync.Mutex
}

func (r *MutexTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}
