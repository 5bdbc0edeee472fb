package profile

import (
	"context"
	"strings"
	"sync"
	"time"

	"profiled/pkg/domain"
	"profiled/pkg/platform/sentinel"
)

// InMemory is a map-backed Store for tests and demo configurations. A single
// mutex guards the map; combined with the MutexTxRunner this gives the same
// serialization guarantees the Postgres backend gets from row locks.
type InMemory struct {
	mu    sync.RWMutex
	users map[domain.UserID]User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[domain.UserID]User)}
}

func (s *InMemory) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if !existing.IsDeleted && strings.EqualFold(existing.Email, u.Email) {
			return sentinel.ErrAlreadyUsed
		}
	}

	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.users[u.ID] = *u
	return nil
}

func (s *InMemory) GetByID(ctx context.Context, id domain.UserID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.IsDeleted {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

func (s *InMemory) ApplyUpdate(ctx context.Context, id domain.UserID, upd Update) (*User, domain.ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[id]
	if !ok || current.IsDeleted {
		return nil, nil, sentinel.ErrNotFound
	}

	if upd.Email != nil && *upd.Email != current.Email {
		for otherID, other := range s.users {
			if otherID != id && !other.IsDeleted && strings.EqualFold(other.Email, *upd.Email) {
				return nil, nil, sentinel.ErrAlreadyUsed
			}
		}
	}

	changes := computeDiff(&current, upd)
	if len(changes) == 0 {
		return nil, nil, sentinel.ErrNoChanges
	}

	upd.applyTo(&current)
	now := time.Now()
	current.LastProfileUpdate = now
	current.UpdatedAt = now
	s.users[id] = current

	return &current, changes, nil
}

func (s *InMemory) SoftDelete(ctx context.Context, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.IsDeleted {
		return sentinel.ErrNotFound
	}
	u.IsDeleted = true
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

func (s *InMemory) LastProfileUpdate(ctx context.Context, id domain.UserID) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.IsDeleted {
		return time.Time{}, sentinel.ErrNotFound
	}
	return u.LastProfileUpdate, nil
}
