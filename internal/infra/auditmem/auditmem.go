package auditmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"draftd/internal/domain"

	"github.com/google/uuid"
)

// Store is the in-memory audit backend used in development and tests. It
// honors the same append-only, newest-first contract as the Postgres store.
type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	entries []domain.AuditEntry
}

func New() *Store {
	return NewWithClock(nil)
}

func NewWithClock(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now}
}

func (s *Store) Append(_ context.Context, entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) Find(_ context.Context, query domain.AuditQuery) ([]domain.AuditEntry, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = domain.DefaultAuditQueryLimit
	}
	if limit > domain.MaxAuditQueryLimit {
		limit = domain.MaxAuditQueryLimit
	}

	s.mu.Lock()
	matched := make([]domain.AuditEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if query.TenantID != "" && entry.TenantID != query.TenantID {
			continue
		}
		if query.UserID != "" && entry.UserID != query.UserID {
			continue
		}
		if query.Action != "" && entry.Action != query.Action {
			continue
		}
		if !query.From.IsZero() && entry.CreatedAt.Before(query.From) {
			continue
		}
		if !query.To.IsZero() && entry.CreatedAt.After(query.To) {
			continue
		}
		matched = append(matched, entry)
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Len reports the number of stored entries, for tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ domain.AuditStore = (*Store)(nil)
