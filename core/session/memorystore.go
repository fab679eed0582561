package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store and VariableStore backed by mutex-
// guarded maps. It exists for tests and prototyping; production systems use
// one of the database adapters.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Row
	vars     map[string]map[string]string
	owners   map[string]int64
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Row),
		vars:     make(map[string]map[string]string),
		owners:   make(map[string]int64),
	}
}

func (s *MemoryStore) FetchByID(_ context.Context, id string) (Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.sessions[id]
	if !ok {
		return Row{}, ErrRowNotFound
	}
	return row, nil
}

func (s *MemoryStore) GetLastActive(_ context.Context, id string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.sessions[id]
	if !ok {
		return time.Time{}, ErrRowNotFound
	}
	return row.ActiveAt, nil
}

func (s *MemoryStore) UpdateLastActive(_ context.Context, id string, ts time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.sessions[id]
	if !ok {
		return 0, nil
	}
	row.ActiveAt = ts
	s.sessions[id] = row
	return 1, nil
}

func (s *MemoryStore) UpsertSession(_ context.Context, row Row) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[row.ID] = row
	s.owners[row.ID] = row.UserID
	return 1, nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, id string) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.sessions[id]
	if !ok {
		return Row{}, ErrRowNotFound
	}
	delete(s.sessions, id)
	delete(s.owners, id)
	delete(s.vars, id)
	return row, nil
}

func (s *MemoryStore) DeleteSessionsByUser(_ context.Context, userID int64) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted []Row
	for id, row := range s.sessions {
		if row.UserID == userID {
			deleted = append(deleted, row)
			delete(s.sessions, id)
			delete(s.owners, id)
			delete(s.vars, id)
		}
	}
	return deleted, nil
}

func (s *MemoryStore) GetVariable(_ context.Context, sessionID, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.vars[sessionID][name]
	if !ok {
		return "", ErrVariableNotFound
	}
	return val, nil
}

func (s *MemoryStore) SetVariable(_ context.Context, sessionID, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vars[sessionID] == nil {
		s.vars[sessionID] = make(map[string]string)
	}
	s.vars[sessionID][name] = value
	return nil
}

func (s *MemoryStore) DeleteVariable(_ context.Context, sessionID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.vars[sessionID], name)
	return nil
}

func (s *MemoryStore) DeleteVariablesBySession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.vars, sessionID)
	return nil
}

func (s *MemoryStore) DeleteVariablesByUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, owner := range s.owners {
		if owner == userID {
			delete(s.vars, id)
		}
	}
	return nil
}
