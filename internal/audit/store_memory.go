package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"profiled/pkg/domain"
)

// InMemory is a slice-backed Store for tests and demo configurations.
type InMemory struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemory) ListByUser(ctx context.Context, userID domain.UserID, params ListParams) ([]Entry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entry
	for _, e := range s.entries {
		if e.UserID == userID {
			matched = append(matched, e)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		var less bool
		switch params.SortBy {
		case SortByAction:
			less = matched[i].Action < matched[j].Action
		default:
			less = matched[i].Timestamp.Before(matched[j].Timestamp)
		}
		if params.Order == OrderDesc {
			return !less && !equalByField(matched[i], matched[j], params.SortBy)
		}
		return less
	})

	total := len(matched)
	start := (params.Page - 1) * params.Limit
	if start >= total {
		return nil, total, nil
	}
	end := start + params.Limit
	if end > total {
		end = total
	}
	page := make([]Entry, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

func (s *InMemory) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	var deleted int64
	for _, e := range s.entries {
		if e.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return deleted, nil
}

func equalByField(a, b Entry, field SortField) bool {
	if field == SortByAction {
		return a.Action == b.Action
	}
	return a.Timestamp.Equal(b.Timestamp)
}
