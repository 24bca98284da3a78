package ledger

// EventKind names a ledger notification. Wire names follow the original
// system's event vocabulary.
type EventKind string

const (
	EventParticipantRegistered    EventKind = "ParticipantRegistered"
	EventParticipantStatusChanged EventKind = "ParticipantStatusChanged"
	EventTokenMinted              EventKind = "TokenMinted"
	EventTransferCreated          EventKind = "TransferCreated"
	EventTransferStatusChanged    EventKind = "TransferStatusChanged"
	EventTokenOwnerChanged        EventKind = "TokenOwnerChanged"
)

// Event is a notification emitted after a successful state change.
// Exactly one payload field is non-nil, matching Kind. Consumers may
// ignore any events they don't need.
type Event struct {
	Kind EventKind

	ParticipantRegistered    *ParticipantRegistered
	ParticipantStatusChanged *ParticipantStatusChanged
	TokenMinted              *TokenMinted
	TransferCreated          *TransferCreated
	TransferStatusChanged    *TransferStatusChanged
	TokenOwnerChanged        *TokenOwnerChanged
}

// ParticipantRegistered announces a new pending registration.
type ParticipantRegistered struct {
	Address Address `json:"address"`
	Role    Role    `json:"role"`
	Name    string  `json:"name"`
}

// ParticipantStatusChanged announces an approval decision.
type ParticipantStatusChanged struct {
	Address Address `json:"address"`
	Status  Status  `json:"status"`
}

// TokenMinted announces a new token in the provenance graph.
type TokenMinted struct {
	TokenID TokenID   `json:"token_id"`
	Owner   Address   `json:"owner"`
	Kind    TokenKind `json:"kind"`
	Name    string    `json:"name"`
}

// TransferCreated announces a new pending custody transfer.
type TransferCreated struct {
	TransferID TransferID `json:"transfer_id"`
	TokenID    TokenID    `json:"token_id"`
	From       Address    `json:"from"`
	To         Address    `json:"to"`
}

// TransferStatusChanged announces a transfer reaching a terminal state.
type TransferStatusChanged struct {
	TransferID TransferID     `json:"transfer_id"`
	Status     TransferStatus `json:"status"`
}

// TokenOwnerChanged announces a custody change. It is emitted exactly
// once, atomically with the accepting TransferStatusChanged.
type TokenOwnerChanged struct {
	TokenID TokenID `json:"token_id"`
	From    Address `json:"from"`
	To      Address `json:"to"`
}
