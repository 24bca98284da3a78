package ledger

import "time"

// TransferID identifies a custody transfer. IDs are assigned by the store
// as a monotonically increasing sequence starting at 1.
type TransferID uint64

// TransferStatus is the transfer state machine:
// Pending -> Accepted | Rejected, terminal either way.
// Wire values match the original contract encoding.
type TransferStatus uint8

const (
	TransferPending  TransferStatus = 0
	TransferAccepted TransferStatus = 1
	TransferRejected TransferStatus = 2
)

// String returns the status name.
func (s TransferStatus) String() string {
	switch s {
	case TransferPending:
		return "pending"
	case TransferAccepted:
		return "accepted"
	case TransferRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal returns true once the transfer can no longer change.
func (s TransferStatus) Terminal() bool {
	return s == TransferAccepted || s == TransferRejected
}

// Transfer is one custody handover offer for a token. From must equal the
// token's owner at creation time; To decides the outcome. While a transfer
// is pending no other pending transfer may exist for the same token.
type Transfer struct {
	ID        TransferID
	TokenID   TokenID
	From      Address
	To        Address
	Status    TransferStatus
	Message   string
	CreatedAt time.Time
}

// NewTransfer creates a pending transfer record. The ID is zero until the
// store assigns one.
func NewTransfer(tokenID TokenID, from, to Address, message string) *Transfer {
	return &Transfer{
		TokenID:   tokenID,
		From:      from,
		To:        to,
		Status:    TransferPending,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// Pending returns true while the transfer awaits a decision.
func (t *Transfer) Pending() bool {
	return t.Status == TransferPending
}

// Clone returns a copy of the transfer.
func (t *Transfer) Clone() *Transfer {
	c := *t
	return &c
}
