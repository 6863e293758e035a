package auth

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store with the same atomicity guarantees as the
// Postgres implementation. It backs handler and service tests and local runs
// without a database.
type MemoryStore struct {
	mu          sync.Mutex
	users       map[string]*User
	byEmail     map[string]string
	refresh     map[string]*RefreshToken
	activations map[string]*ActivationToken
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore initialises an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]*User),
		byEmail:     make(map[string]string),
		refresh:     make(map[string]*RefreshToken),
		activations: make(map[string]*ActivationToken),
	}
}

func (m *MemoryStore) Users(context.Context) UserStore                 { return (*memoryUsers)(m) }
func (m *MemoryStore) RefreshTokens(context.Context) RefreshTokenStore { return (*memoryRefresh)(m) }
func (m *MemoryStore) Activations(context.Context) ActivationStore     { return (*memoryActivations)(m) }

type memoryUsers MemoryStore

func (m *memoryUsers) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[u.Email]; exists {
		return ErrEmailTaken
	}
	now := time.Now().UTC()
	cp := *u
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.users[cp.ID] = &cp
	m.byEmail[cp.Email] = cp.ID
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (m *memoryUsers) Find(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *memoryUsers) MarkActivated(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	if !u.Activated {
		u.Activated = true
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}

type memoryRefresh MemoryStore

func (m *memoryRefresh) Create(_ context.Context, tok *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tok
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.refresh[cp.ID] = &cp
	return nil
}

func (m *memoryRefresh) Find(_ context.Context, id string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.refresh[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tok
	return &cp, nil
}

func (m *memoryRefresh) MarkRevoked(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.refresh[id]
	if !ok {
		return ErrNotFound
	}
	if tok.Revoked {
		return ErrTokenRevoked
	}
	tok.Revoked = true
	return nil
}

func (m *memoryRefresh) RevokeAllForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tok := range m.refresh {
		if tok.UserID == userID {
			tok.Revoked = true
		}
	}
	return nil
}

type memoryActivations MemoryStore

func (m *memoryActivations) Create(_ context.Context, tok *ActivationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tok
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.activations[cp.ID] = &cp
	return nil
}

func (m *memoryActivations) FindByHash(_ context.Context, tokenHash string) (*ActivationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tok := range m.activations {
		if tok.TokenHash == tokenHash {
			cp := *tok
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryActivations) Consume(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.activations[id]
	if !ok {
		return ErrNotFound
	}
	if tok.ConsumedAt != nil {
		return ErrInvalidToken
	}
	now := time.Now().UTC()
	tok.ConsumedAt = &now
	return nil
}
