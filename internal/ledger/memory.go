package ledger

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of Store. Each repository is
// thread-safe using sync.RWMutex; id counters are owned by the store and
// start at 1. Atomic runs fn directly — the engine serializes writers, so
// a write section is never observed half-applied.
type MemoryStore struct {
	participants *memoryParticipantRepository
	tokens       *memoryTokenRepository
	transfers    *memoryTransferRepository
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		participants: &memoryParticipantRepository{records: make(map[Address]*Participant)},
		tokens:       &memoryTokenRepository{records: make(map[TokenID]*Token)},
		transfers:    &memoryTransferRepository{records: make(map[TransferID]*Transfer)},
	}
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// Participants returns the participant repository.
func (s *MemoryStore) Participants() ParticipantRepository { return s.participants }

// Tokens returns the token repository.
func (s *MemoryStore) Tokens() TokenRepository { return s.tokens }

// Transfers returns the transfer repository.
func (s *MemoryStore) Transfers() TransferRepository { return s.transfers }

// Atomic runs fn against the store itself. Atomicity with respect to
// readers comes from the engine holding its write lock around the call.
func (s *MemoryStore) Atomic(fn func(Store) error) error {
	return fn(s)
}

// Close releases nothing; it exists to satisfy Store.
func (s *MemoryStore) Close() error { return nil }

// Reset clears all state from the store. Useful for test setup/teardown.
func (s *MemoryStore) Reset() {
	s.participants.reset()
	s.tokens.reset()
	s.transfers.reset()
}

// ===========================================================================
// memoryParticipantRepository
// ===========================================================================

type memoryParticipantRepository struct {
	mu      sync.RWMutex
	records map[Address]*Participant
}

func (r *memoryParticipantRepository) Get(addr Address) (*Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.records[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrParticipantNotFound, addr)
	}
	return p.Clone(), nil
}

func (r *memoryParticipantRepository) Save(p *Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[p.Address] = p.Clone()
	return nil
}

func (r *memoryParticipantRepository) List(filter ListFilter) ([]*Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Participant, 0, len(r.records))
	for _, p := range r.records {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		result = append(result, p.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].RegisteredAt.Equal(result[j].RegisteredAt) {
			return result[i].RegisteredAt.Before(result[j].RegisteredAt)
		}
		return result[i].Address < result[j].Address
	})
	return result, nil
}

func (r *memoryParticipantRepository) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[Address]*Participant)
}

// ===========================================================================
// memoryTokenRepository
// ===========================================================================

type memoryTokenRepository struct {
	mu      sync.RWMutex
	records map[TokenID]*Token
	nextID  TokenID
}

func (r *memoryTokenRepository) Get(id TokenID) (*Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTokenNotFound, id)
	}
	return t.Clone(), nil
}

func (r *memoryTokenRepository) Save(t *Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == 0 {
		r.nextID++
		t.ID = r.nextID
	}
	r.records[t.ID] = t.Clone()
	return nil
}

func (r *memoryTokenRepository) OwnedBy(addr Address) ([]TokenID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]TokenID, 0)
	for id, t := range r.records {
		if t.Owner == addr {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *memoryTokenRepository) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[TokenID]*Token)
	r.nextID = 0
}

// ===========================================================================
// memoryTransferRepository
// ===========================================================================

type memoryTransferRepository struct {
	mu      sync.RWMutex
	records map[TransferID]*Transfer
	nextID  TransferID
}

func (r *memoryTransferRepository) Get(id TransferID) (*Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTransferNotFound, id)
	}
	return t.Clone(), nil
}

func (r *memoryTransferRepository) Save(t *Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == 0 {
		r.nextID++
		t.ID = r.nextID
	}
	r.records[t.ID] = t.Clone()
	return nil
}

func (r *memoryTransferRepository) PendingForToken(tokenID TokenID) (*Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.records {
		if t.TokenID == tokenID && t.Status == TransferPending {
			return t.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: no pending transfer for token %d", ErrTransferNotFound, tokenID)
}

func (r *memoryTransferRepository) PendingFor(addr Address) ([]TransferID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]TransferID, 0)
	for id, t := range r.records {
		if t.To == addr && t.Status == TransferPending {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *memoryTransferRepository) For(addr Address) ([]TransferID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]TransferID, 0)
	for id, t := range r.records {
		if t.From == addr || t.To == addr {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *memoryTransferRepository) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[TransferID]*Transfer)
	r.nextID = 0
}
