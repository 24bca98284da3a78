package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
	"github.com/jcmxo/98-pfm-traza-2025/internal/log"
)

// Mint creates a token owned by its creator. Raw materials are minted by
// Producers (or an Admin, for corrective records) and never have parents;
// products are minted by Factories and fold in parent tokens the creator
// currently owns. The ownership rule over parents is what keeps the graph
// acyclic: a token can only reference tokens that already exist.
func (e *Engine) Mint(ctx context.Context, caller ledger.Address, kind ledger.TokenKind, name, description, metadata string, parents []ledger.TokenID) (*ledger.Token, error) {
	_, span := e.tracer.Start(ctx, "ledger.mint")
	defer span.End()
	span.SetAttributes(
		attribute.String("token.owner", string(caller)),
		attribute.String("token.kind", kind.String()),
		attribute.Int("token.parents", len(parents)),
	)

	e.mu.Lock()
	defer e.mu.Unlock()

	var tok *ledger.Token
	err := e.store.Atomic(func(s ledger.Store) error {
		creator, err := s.Participants().Get(caller)
		if err != nil || !creator.Approved() {
			return fmt.Errorf("%w: %s", ledger.ErrNotApproved, caller)
		}

		switch kind {
		case ledger.KindRawMaterial:
			if len(parents) > 0 {
				return fmt.Errorf("%w: got %d", ledger.ErrUnexpectedParents, len(parents))
			}
			if creator.Role != ledger.RoleProducer && creator.Role != ledger.RoleAdmin {
				return fmt.Errorf("%w: %s cannot mint raw materials", ledger.ErrRoleNotPermitted, creator.Role)
			}
		case ledger.KindProduct:
			if len(parents) == 0 {
				return ledger.ErrMissingParents
			}
			if creator.Role != ledger.RoleFactory {
				return fmt.Errorf("%w: %s cannot mint products", ledger.ErrRoleNotPermitted, creator.Role)
			}
			for _, pid := range parents {
				parent, err := s.Tokens().Get(pid)
				if err != nil {
					return fmt.Errorf("%w: parent %d", ledger.ErrTokenNotFound, pid)
				}
				if parent.Owner != caller {
					return fmt.Errorf("%w: parent %d", ledger.ErrParentNotOwned, pid)
				}
			}
		default:
			return fmt.Errorf("unknown token kind %d", kind)
		}

		tok = ledger.NewToken(caller, kind, name, description, metadata, parents)
		return s.Tokens().Save(tok)
	})
	if err != nil {
		return nil, err
	}

	log.Info(log.CatLedger, "token minted", "id", tok.ID, "owner", caller, "kind", kind)
	e.publish(ledger.Event{
		Kind: ledger.EventTokenMinted,
		TokenMinted: &ledger.TokenMinted{
			TokenID: tok.ID,
			Owner:   tok.Owner,
			Kind:    tok.Kind,
			Name:    tok.Name,
		},
	})

	return tok, nil
}

// Token returns the token record for id.
func (e *Engine) Token(ctx context.Context, id ledger.TokenID) (*ledger.Token, error) {
	_, span := e.tracer.Start(ctx, "ledger.get_token")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.store.Tokens().Get(id)
}

// TokensOwnedBy returns the ids of tokens currently owned by addr,
// ascending by id.
func (e *Engine) TokensOwnedBy(ctx context.Context, addr ledger.Address) ([]ledger.TokenID, error) {
	_, span := e.tracer.Start(ctx, "ledger.tokens_owned_by")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.store.Tokens().OwnedBy(addr)
}
