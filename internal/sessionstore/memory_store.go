package sessionstore

import (
	"context"
	"fmt"
	"sync"

	"storyboarder/internal/workflow"
)

// MemoryStore keeps snapshots in process.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]workflow.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]workflow.Snapshot)}
}

func (s *MemoryStore) Save(_ context.Context, snap workflow.Snapshot) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id := normalizeID(snap.ID)
	if id == "" {
		return fmt.Errorf("session_id is required")
	}
	snap.Project = snap.Project.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	// Snapshots from concurrent operations may arrive out of order.
	if cur, ok := s.byID[id]; ok && cur.Version > snap.Version {
		return nil
	}
	s.byID[id] = snap
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (workflow.Snapshot, error) {
	if s == nil {
		return workflow.Snapshot{}, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.byID[normalizeID(sessionID)]
	if !ok {
		return workflow.Snapshot{}, ErrNotFound
	}
	snap.Project = snap.Project.Clone()
	return snap, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	delete(s.byID, normalizeID(sessionID))
	s.mu.Unlock()
	return nil
}
