// Package ratelimit enforces the per-user profile-update cooldown.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"profiled/internal/platform/redis"
	"profiled/pkg/domain"
)

// LastUpdateSource reports a user's last successful profile update time.
// The profile store is the source of truth; Redis only accelerates it.
type LastUpdateSource interface {
	LastProfileUpdate(ctx context.Context, id domain.UserID) (time.Time, error)
}

// Result is the outcome of a cooldown check. NextAllowed is meaningful only
// when Allowed is false.
type Result struct {
	Allowed     bool
	NextAllowed time.Time
}

// Error reports a rejected update together with when the next one is
// allowed. The transport layer maps it to 429.
type Error struct {
	NextAllowed time.Time
}

func (e *Error) Error() string {
	return fmt.Sprintf("profile updated too recently, next allowed at %s", e.NextAllowed.Format(time.RFC3339))
}

// Checker applies a fixed cooldown between a user's profile updates.
//
// The check fails open: if neither the cache nor the store can answer, the
// request proceeds and the error is logged. Transient storage failures must
// never block legitimate updates.
type Checker struct {
	source   LastUpdateSource
	cache    *redis.Client // nil when Redis is not configured
	cooldown time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewChecker(source LastUpdateSource, cache *redis.Client, cooldown time.Duration, logger *slog.Logger) *Checker {
	return &Checker{
		source:   source,
		cache:    cache,
		cooldown: cooldown,
		logger:   logger,
		now:      time.Now,
	}
}

// Check reports whether userID may update their profile now.
func (c *Checker) Check(ctx context.Context, userID domain.UserID) Result {
	now := c.now()

	// Fast path: a live cooldown key means a recent update, no store hit
	// needed. Cache misses and cache errors both fall through to the store.
	if c.cache != nil {
		ttl, err := c.cache.TTL(ctx, cooldownKey(userID)).Result()
		if err != nil {
			c.logger.WarnContext(ctx, "cooldown cache lookup failed", "error", err)
		} else if ttl > 0 {
			return Result{NextAllowed: now.Add(ttl)}
		}
	}

	last, err := c.source.LastProfileUpdate(ctx, userID)
	if err != nil {
		c.logger.WarnContext(ctx, "cooldown source lookup failed, allowing request",
			"user_id", userID.String(),
			"error", err,
		)
		return Result{Allowed: true}
	}
	if last.IsZero() || now.Sub(last) >= c.cooldown {
		return Result{Allowed: true}
	}
	return Result{NextAllowed: last.Add(c.cooldown)}
}

// MarkUpdated arms the cooldown cache after a successful update.
// Best-effort: the store's last_profile_update column backs it up.
func (c *Checker) MarkUpdated(ctx context.Context, userID domain.UserID) {
	if c.cache == nil {
		return
	}
	err := c.cache.Set(ctx, cooldownKey(userID), c.now().Format(time.RFC3339), c.cooldown).Err()
	if err != nil {
		c.logger.WarnContext(ctx, "cooldown cache set failed", "error", err)
	}
}

func cooldownKey(userID domain.UserID) string {
	return "profiled:cooldown:" + userID.String()
}
