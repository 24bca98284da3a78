package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
	"github.com/jcmxo/98-pfm-traza-2025/internal/log"
)

// CreateTransfer offers custody of a token to another participant. Only
// the current owner may offer, at most one pending transfer may exist per
// token, the recipient must be approved, and the recipient's role must be
// the next one in the production chain (Admin senders are exempt).
func (e *Engine) CreateTransfer(ctx context.Context, caller ledger.Address, tokenID ledger.TokenID, to ledger.Address, message string) (*ledger.Transfer, error) {
	_, span := e.tracer.Start(ctx, "ledger.create_transfer")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("token.id", int64(tokenID)),
		attribute.String("transfer.from", string(caller)),
		attribute.String("transfer.to", string(to)),
	)

	e.mu.Lock()
	defer e.mu.Unlock()

	var tr *ledger.Transfer
	err := e.store.Atomic(func(s ledger.Store) error {
		tok, err := s.Tokens().Get(tokenID)
		if err != nil {
			return err
		}
		if tok.Owner != caller {
			return fmt.Errorf("%w: token %d", ledger.ErrNotOwner, tokenID)
		}

		if pending, err := s.Transfers().PendingForToken(tokenID); err == nil {
			return fmt.Errorf("%w: transfer %d", ledger.ErrTransferAlreadyPending, pending.ID)
		} else if !errors.Is(err, ledger.ErrTransferNotFound) {
			return err
		}

		recipient, err := s.Participants().Get(to)
		if err != nil || !recipient.Approved() {
			return fmt.Errorf("%w: %s", ledger.ErrRecipientNotEligible, to)
		}

		sender, err := s.Participants().Get(caller)
		if err != nil {
			return err
		}
		if !ledger.CanTransferTo(sender.Role, recipient.Role) {
			return fmt.Errorf("%w: %s cannot transfer to %s", ledger.ErrRoleNotPermitted, sender.Role, recipient.Role)
		}

		tr = ledger.NewTransfer(tokenID, caller, to, message)
		return s.Transfers().Save(tr)
	})
	if err != nil {
		return nil, err
	}

	log.Info(log.CatLedger, "transfer created", "id", tr.ID, "token", tokenID, "from", caller, "to", to)
	e.publish(ledger.Event{
		Kind: ledger.EventTransferCreated,
		TransferCreated: &ledger.TransferCreated{
			TransferID: tr.ID,
			TokenID:    tr.TokenID,
			From:       tr.From,
			To:         tr.To,
		},
	})

	return tr, nil
}

// Accept finalizes a pending transfer and hands custody over. The status
// change and the ownership change commit together or not at all.
func (e *Engine) Accept(ctx context.Context, caller ledger.Address, transferID ledger.TransferID) (*ledger.Transfer, error) {
	_, span := e.tracer.Start(ctx, "ledger.accept_transfer")
	defer span.End()
	span.SetAttributes(attribute.Int64("transfer.id", int64(transferID)))

	e.mu.Lock()
	defer e.mu.Unlock()

	tr, err := e.finalize(caller, transferID, ledger.TransferAccepted)
	if err != nil {
		return nil, err
	}

	log.Info(log.CatLedger, "transfer accepted", "id", tr.ID, "token", tr.TokenID, "owner", tr.To)
	e.publish(
		ledger.Event{
			Kind: ledger.EventTransferStatusChanged,
			TransferStatusChanged: &ledger.TransferStatusChanged{
				TransferID: tr.ID,
				Status:     tr.Status,
			},
		},
		ledger.Event{
			Kind: ledger.EventTokenOwnerChanged,
			TokenOwnerChanged: &ledger.TokenOwnerChanged{
				TokenID: tr.TokenID,
				From:    tr.From,
				To:      tr.To,
			},
		},
	)

	return tr, nil
}

// Reject finalizes a pending transfer without moving custody.
func (e *Engine) Reject(ctx context.Context, caller ledger.Address, transferID ledger.TransferID) (*ledger.Transfer, error) {
	_, span := e.tracer.Start(ctx, "ledger.reject_transfer")
	defer span.End()
	span.SetAttributes(attribute.Int64("transfer.id", int64(transferID)))

	e.mu.Lock()
	defer e.mu.Unlock()

	tr, err := e.finalize(caller, transferID, ledger.TransferRejected)
	if err != nil {
		return nil, err
	}

	log.Info(log.CatLedger, "transfer rejected", "id", tr.ID, "token", tr.TokenID)
	e.publish(ledger.Event{
		Kind: ledger.EventTransferStatusChanged,
		TransferStatusChanged: &ledger.TransferStatusChanged{
			TransferID: tr.ID,
			Status:     tr.Status,
		},
	})

	return tr, nil
}

// finalize applies the terminal decision for a transfer. Callers hold the
// write lock. On acceptance the token's owner moves in the same atomic
// commit as the status change.
func (e *Engine) finalize(caller ledger.Address, transferID ledger.TransferID, decision ledger.TransferStatus) (*ledger.Transfer, error) {
	var tr *ledger.Transfer
	err := e.store.Atomic(func(s ledger.Store) error {
		var err error
		tr, err = s.Transfers().Get(transferID)
		if err != nil {
			return err
		}
		if !tr.Pending() {
			return fmt.Errorf("%w: transfer %d is %s", ledger.ErrTransferNotPending, transferID, tr.Status)
		}
		if tr.To != caller {
			return fmt.Errorf("%w: transfer %d", ledger.ErrNotRecipient, transferID)
		}

		tr.Status = decision
		if err := s.Transfers().Save(tr); err != nil {
			return err
		}

		if decision == ledger.TransferAccepted {
			tok, err := s.Tokens().Get(tr.TokenID)
			if err != nil {
				return err
			}
			tok.Owner = tr.To
			return s.Tokens().Save(tok)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// Transfer returns the transfer record for id.
func (e *Engine) Transfer(ctx context.Context, id ledger.TransferID) (*ledger.Transfer, error) {
	_, span := e.tracer.Start(ctx, "ledger.get_transfer")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.store.Transfers().Get(id)
}

// PendingTransfersFor returns the ids of pending transfers addressed to
// addr, ascending by id.
func (e *Engine) PendingTransfersFor(ctx context.Context, addr ledger.Address) ([]ledger.TransferID, error) {
	_, span := e.tracer.Start(ctx, "ledger.pending_transfers_for")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.store.Transfers().PendingFor(addr)
}

// TransfersFor returns the ids of all transfers where addr is sender or
// recipient, ascending by id.
func (e *Engine) TransfersFor(ctx context.Context, addr ledger.Address) ([]ledger.TransferID, error) {
	_, span := e.tracer.Start(ctx, "ledger.transfers_for")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.store.Transfers().For(addr)
}
