// Package ledger provides the domain layer of the provenance ledger:
// participants and their approval lifecycle, the immutable token graph,
// custody transfers, the repository contracts, and the in-memory store.
//
// Entities are plain records. The stores own the canonical copies; every
// read returns a clone, so callers never hold live references into a store.
package ledger

import "time"

// Participant is one registered party in the supply chain.
// The address is unique and immutable. The role is fixed at registration;
// only the status changes afterwards, and only once (Pending -> Approved
// or Pending -> Rejected).
type Participant struct {
	Address      Address
	Role         Role
	Status       Status
	Name         string
	Metadata     string
	RegisteredAt time.Time
}

// NewParticipant creates a pending registration record.
func NewParticipant(addr Address, role Role, name, metadata string) *Participant {
	return &Participant{
		Address:      addr,
		Role:         role,
		Status:       StatusPending,
		Name:         name,
		Metadata:     metadata,
		RegisteredAt: time.Now(),
	}
}

// Approved returns true if the participant has been approved.
func (p *Participant) Approved() bool {
	return p.Status == StatusApproved
}

// IsAdmin returns true for an approved Admin participant.
func (p *Participant) IsAdmin() bool {
	return p.Role == RoleAdmin && p.Status == StatusApproved
}

// Clone returns a copy of the participant.
func (p *Participant) Clone() *Participant {
	c := *p
	return &c
}
