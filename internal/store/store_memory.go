package store

import (
	"context"
	"sort"
	"sync"

	"orgtrust/internal/domain"
)

// InMemoryStore keeps profiles in a map. Used by tests and by deployments
// that only need the HTTP read surface without durable persistence.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[domain.OrgID]domain.Profile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[domain.OrgID]domain.Profile)}
}

func (s *InMemoryStore) Upsert(_ context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.OrgID] = *profile
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.OrgID) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &profile, nil
}

func (s *InMemoryStore) ListIdentifiers(_ context.Context, filter Filter) ([]domain.OrgID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]domain.OrgID, 0, len(s.profiles))
	for id, profile := range s.profiles {
		if filter == FilterInvalid && profile.IsJSONValid {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}
