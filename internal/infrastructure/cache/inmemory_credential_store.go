package cache

import (
	"context"
	"sync"
	"time"

	"github.com/quotedesk/backend/internal/domain/access"
	"github.com/quotedesk/backend/internal/domain/shared"
)

// InMemoryCredentialStore implements access.CredentialStore using a map.
// Suitable for single-instance deployments and testing.
type InMemoryCredentialStore struct {
	mu        sync.Mutex
	entries   map[string]*access.Credential
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCredentialStore creates an in-memory credential store.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	store := &InMemoryCredentialStore{
		entries:  make(map[string]*access.Credential),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Put stores a pending credential
func (s *InMemoryCredentialStore) Put(ctx context.Context, cred *access.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.entries[cred.Token]; exists && !existing.IsExpired(time.Now()) {
		return shared.ErrConflict
	}

	copied := *cred
	s.entries[cred.Token] = &copied
	return nil
}

// Consume atomically fetches and removes a credential by token
func (s *InMemoryCredentialStore) Consume(ctx context.Context, token string) (*access.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, exists := s.entries[token]
	if !exists {
		return nil, shared.ErrNotFound
	}
	delete(s.entries, token)

	if cred.IsExpired(time.Now()) {
		return nil, shared.ErrNotFound
	}

	copied := *cred
	return &copied, nil
}

// Len returns the number of stored credentials, expired ones included
func (s *InMemoryCredentialStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the cleanup goroutine
func (s *InMemoryCredentialStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}

func (s *InMemoryCredentialStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopChan:
			return
		}
	}
}

func (s *InMemoryCredentialStore) removeExpired() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for token, cred := range s.entries {
		if cred.IsExpired(now) {
			delete(s.entries, token)
		}
	}
}

var _ access.CredentialStore = (*InMemoryCredentialStore)(nil)
