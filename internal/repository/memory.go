package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"staybook/internal/flow"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryFlowRepository keeps flows in process. Entries are stored as JSON so callers
// never share a *flow.Flow with the store.
type MemoryFlowRepository struct {
	mu    sync.Mutex
	flows map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryFlowRepository(ttl time.Duration) *MemoryFlowRepository {
	return &MemoryFlowRepository{
		flows: make(map[string]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (r *MemoryFlowRepository) GetFlow(ctx context.Context, flowID string) (*flow.Flow, error) {
	r.mu.Lock()
	entry, ok := r.flows[flowID]
	if ok && r.expired(entry) {
		delete(r.flows, flowID)
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return nil, nil
	}
	var f flow.Flow
	if err := json.Unmarshal(entry.data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *MemoryFlowRepository) SaveFlow(ctx context.Context, f *flow.Flow) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	entry := memoryEntry{data: data}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}

	r.mu.Lock()
	r.flows[f.ID] = entry
	r.mu.Unlock()
	return nil
}

func (r *MemoryFlowRepository) DeleteFlow(ctx context.Context, flowID string) error {
	r.mu.Lock()
	delete(r.flows, flowID)
	r.mu.Unlock()
	return nil
}

// Sweep drops abandoned flows and returns how many were removed.
func (r *MemoryFlowRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, entry := range r.flows {
		if r.expired(entry) {
			delete(r.flows, id)
			removed++
		}
	}
	return removed
}

func (r *MemoryFlowRepository) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt)
}

type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) GetToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemoryTokenStore) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) ClearToken(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
