package ledger

// ParticipantRepository provides aggregate access for Participant records.
// Implementations must be safe for concurrent use.
type ParticipantRepository interface {
	// Get retrieves a participant by address.
	// Returns ErrParticipantNotFound if the address has no record.
	Get(addr Address) (*Participant, error)

	// Save persists a participant. Creates new or updates existing.
	Save(p *Participant) error

	// List returns participants matching the filter, ordered by
	// registration time, then address for equal timestamps.
	List(filter ListFilter) ([]*Participant, error)
}

// ListFilter narrows participant listings.
type ListFilter struct {
	// Status keeps only participants in the given state when non-nil.
	Status *Status
}

// TokenRepository provides aggregate access for Token records.
// Implementations must be safe for concurrent use.
type TokenRepository interface {
	// Get retrieves a token by id.
	// Returns ErrTokenNotFound if the id does not exist.
	Get(id TokenID) (*Token, error)

	// Save persists a token. A zero ID means insert: the repository
	// assigns the next sequential id and sets it on the record. A
	// non-zero ID updates the existing row (only Owner ever changes).
	Save(t *Token) error

	// OwnedBy returns the ids of all tokens currently owned by addr,
	// ascending by id.
	OwnedBy(addr Address) ([]TokenID, error)
}

// TransferRepository provides aggregate access for Transfer records.
// Implementations must be safe for concurrent use.
type TransferRepository interface {
	// Get retrieves a transfer by id.
	// Returns ErrTransferNotFound if the id does not exist.
	Get(id TransferID) (*Transfer, error)

	// Save persists a transfer. A zero ID means insert: the repository
	// assigns the next sequential id and sets it on the record. A
	// non-zero ID updates the existing row (only Status ever changes).
	Save(t *Transfer) error

	// PendingForToken returns the pending transfer for a token.
	// Returns ErrTransferNotFound when the token has none. At most one
	// can exist at any instant.
	PendingForToken(tokenID TokenID) (*Transfer, error)

	// PendingFor returns the ids of all pending transfers addressed to
	// addr, ascending by id.
	PendingFor(addr Address) ([]TransferID, error)

	// For returns the ids of all transfers where addr is sender or
	// recipient, ascending by id.
	For(addr Address) ([]TransferID, error)
}

// Store bundles the three repositories behind one atomicity boundary.
//
// Atomic runs fn against a store view whose writes commit together or not
// at all; the engine routes every multi-record mutation (accepting a
// transfer changes both the transfer's status and the token's owner)
// through it. Implementations back it with a database transaction or, for
// the in-memory store, rely on the engine's write serialization.
type Store interface {
	Participants() ParticipantRepository
	Tokens() TokenRepository
	Transfers() TransferRepository

	Atomic(fn func(Store) error) error

	Close() error
}
