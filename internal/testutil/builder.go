// Package testutil provides a fluent builder for seeding ledger stores
// with test data. The builder writes records directly through the store,
// bypassing engine validation, so tests can stand up an arbitrary ledger
// state in a few lines.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

// Builder accumulates test data and inserts it in dependency order:
// participants first, then tokens, then transfers.
type Builder struct {
	t            *testing.T
	store        ledger.Store
	participants []participantData
	tokens       []tokenData
	transfers    []transferData
	ids          map[string]ledger.TokenID
}

// NewBuilder creates a builder for the given store.
func NewBuilder(t *testing.T, store ledger.Store) *Builder {
	t.Helper()
	return &Builder{t: t, store: store, ids: make(map[string]ledger.TokenID)}
}

// WithParticipant adds a participant with optional configuration.
// Participants default to pending.
func (b *Builder) WithParticipant(addr ledger.Address, role ledger.Role, opts ...ParticipantOption) *Builder {
	p := defaultParticipant(addr, role)
	for _, opt := range opts {
		opt(&p)
	}
	b.participants = append(b.participants, p)
	return b
}

// WithRawMaterial adds a raw material token. The name doubles as the
// handle for TokenID lookups and parent references.
func (b *Builder) WithRawMaterial(name string, owner ledger.Address, opts ...TokenOption) *Builder {
	tok := defaultToken(name, owner, ledger.KindRawMaterial)
	for _, opt := range opts {
		opt(&tok)
	}
	b.tokens = append(b.tokens, tok)
	return b
}

// WithProduct adds a product token composed from previously declared
// tokens, referenced by name in the given order.
func (b *Builder) WithProduct(name string, owner ledger.Address, parents []string, opts ...TokenOption) *Builder {
	tok := defaultToken(name, owner, ledger.KindProduct)
	tok.parents = parents
	for _, opt := range opts {
		opt(&tok)
	}
	b.tokens = append(b.tokens, tok)
	return b
}

// WithPendingTransfer adds an undecided custody offer for a declared token.
func (b *Builder) WithPendingTransfer(token string, from, to ledger.Address, opts ...TransferOption) *Builder {
	return b.withTransfer(token, from, to, ledger.TransferPending, opts)
}

// WithAcceptedTransfer adds an accepted transfer and hands the token's
// custody to the recipient, matching what accepting does in production.
func (b *Builder) WithAcceptedTransfer(token string, from, to ledger.Address, opts ...TransferOption) *Builder {
	return b.withTransfer(token, from, to, ledger.TransferAccepted, opts)
}

// WithRejectedTransfer adds a rejected transfer; custody stays put.
func (b *Builder) WithRejectedTransfer(token string, from, to ledger.Address, opts ...TransferOption) *Builder {
	return b.withTransfer(token, from, to, ledger.TransferRejected, opts)
}

func (b *Builder) withTransfer(token string, from, to ledger.Address, status ledger.TransferStatus, opts []TransferOption) *Builder {
	tr := transferData{token: token, from: from, to: to, status: status}
	for _, opt := range opts {
		opt(&tr)
	}
	b.transfers = append(b.transfers, tr)
	return b
}

// Build inserts all accumulated data atomically. Fails the test on any
// store error or dangling parent/token reference.
func (b *Builder) Build() *Builder {
	b.t.Helper()

	err := b.store.Atomic(func(s ledger.Store) error {
		for _, p := range b.participants {
			record := ledger.NewParticipant(p.addr, p.role, p.name, p.metadata)
			record.Status = p.status
			if err := s.Participants().Save(record); err != nil {
				return err
			}
		}

		for _, tok := range b.tokens {
			parents := make([]ledger.TokenID, 0, len(tok.parents))
			for _, name := range tok.parents {
				id, ok := b.ids[name]
				require.True(b.t, ok, "token %q references undeclared parent %q", tok.name, name)
				parents = append(parents, id)
			}
			record := ledger.NewToken(tok.owner, tok.kind, tok.name, tok.description, tok.metadata, parents)
			if err := s.Tokens().Save(record); err != nil {
				return err
			}
			b.ids[tok.name] = record.ID
		}

		for _, tr := range b.transfers {
			id, ok := b.ids[tr.token]
			require.True(b.t, ok, "transfer references undeclared token %q", tr.token)

			record := ledger.NewTransfer(id, tr.from, tr.to, tr.message)
			record.Status = tr.status
			if err := s.Transfers().Save(record); err != nil {
				return err
			}

			if tr.status == ledger.TransferAccepted {
				tok, err := s.Tokens().Get(id)
				if err != nil {
					return err
				}
				tok.Owner = tr.to
				if err := s.Tokens().Save(tok); err != nil {
					return err
				}
			}
		}
		return nil
	})
	require.NoError(b.t, err, "seeding ledger store")
	return b
}

// TokenID returns the store-assigned id for a declared token name.
// Only valid after Build.
func (b *Builder) TokenID(name string) ledger.TokenID {
	b.t.Helper()
	id, ok := b.ids[name]
	require.True(b.t, ok, "unknown token %q (did Build run?)", name)
	return id
}
