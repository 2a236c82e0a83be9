package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/tonasket-wiki/directory-cli/internal/model"
	"github.com/tonasket-wiki/directory-cli/internal/normalize"
)

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu          sync.RWMutex
	businesses  map[string]model.Business
	submissions map[string]model.Submission
	snapshots   map[string]model.Snapshot
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		businesses:  map[string]model.Business{},
		submissions: map[string]model.Submission{},
		snapshots:   map[string]model.Snapshot{},
	}
}

func (s *MemoryStore) CreateBusiness(_ context.Context, b *model.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.businesses[b.ID]; ok {
		return eris.Errorf("memory: business %s already exists", b.ID)
	}
	s.businesses[b.ID] = *b
	return nil
}

func (s *MemoryStore) UpdateBusiness(_ context.Context, b *model.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.businesses[b.ID]; !ok {
		return eris.Errorf("memory: business %s not found", b.ID)
	}
	s.businesses[b.ID] = *b
	return nil
}

func (s *MemoryStore) GetBusiness(_ context.Context, id string) (*model.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.businesses[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (s *MemoryStore) FindByNameKey(_ context.Context, nameKey string) (*model.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.businesses {
		if b.NameKey == nameKey {
			return &b, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindByAddressAndPhone(_ context.Context, addressKey, phone string) (*model.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.businesses {
		if b.AddressKey == addressKey && b.Phone == phone {
			return &b, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListBusinessesByZip(_ context.Context, zip string, limit int) ([]model.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Business
	for _, b := range s.businesses {
		if normalize.Zip(b.Address) == zip {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CreateSubmission(_ context.Context, sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[sub.ID]; ok {
		return eris.Errorf("memory: submission %s already exists", sub.ID)
	}
	s.submissions[sub.ID] = *sub
	return nil
}

func (s *MemoryStore) UpdateSubmission(_ context.Context, sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[sub.ID]; !ok {
		return eris.Errorf("memory: submission %s not found", sub.ID)
	}
	s.submissions[sub.ID] = *sub
	return nil
}

func (s *MemoryStore) GetSubmission(_ context.Context, id string) (*model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.submissions[id]; ok {
		return &sub, nil
	}
	return nil, nil
}

func (s *MemoryStore) ListSubmissions(_ context.Context, filter SubmissionFilter) ([]model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Submission
	for _, sub := range s.submissions {
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, paramKey string) (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap, ok := s.snapshots[paramKey]; ok {
		return &snap, nil
	}
	return nil, nil
}

func (s *MemoryStore) SetSnapshot(_ context.Context, paramKey string, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[paramKey] = *snap
	return nil
}

func (s *MemoryStore) Migrate(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
