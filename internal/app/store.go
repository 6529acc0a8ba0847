package app

import (
	"fmt"
	"sync"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

// StateStore owns the in-memory archive state and keeps it in step with the repository.
// Every change goes through MutateAndPersist, so the repository never lags behind
// what workers have observed.
type StateStore struct {
	repo  domain.StateRepository
	state domain.State
	mu    sync.Mutex
}

// NewStateStore loads the current state from repo
func NewStateStore(repo domain.StateRepository) (*StateStore, error) {
	state, err := repo.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	if state == nil {
		state = make(domain.State)
	}
	return &StateStore{repo: repo, state: state}, nil
}

// MutateAndPersist applies mutate to a copy of the state, saves the copy and
// only then makes it current. onCommit runs after a successful save while the
// lock is still held. If mutate or the save fails the current state is unchanged.
func (s *StateStore) MutateAndPersist(mutate func(domain.State) error, onCommit func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := mutate(next); err != nil {
		return err
	}

	if err := s.repo.Save(next); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	s.state = next

	if onCommit != nil {
		onCommit()
	}
	return nil
}

// View runs fn against the current state under the lock. fn must not retain it.
func (s *StateStore) View(fn func(domain.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// Snapshot returns a deep copy of the current state
func (s *StateStore) Snapshot() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}
