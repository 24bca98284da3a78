package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
	"github.com/jcmxo/98-pfm-traza-2025/internal/log"
)

// Register creates a pending registration for caller with the requested
// role. Admin and None cannot be self-registered.
func (e *Engine) Register(ctx context.Context, caller ledger.Address, role ledger.Role, name, metadata string) (*ledger.Participant, error) {
	_, span := e.tracer.Start(ctx, "ledger.register")
	defer span.End()
	span.SetAttributes(
		attribute.String("participant.address", string(caller)),
		attribute.String("participant.role", role.String()),
	)

	if caller.IsZero() {
		return nil, fmt.Errorf("%w: empty address", ledger.ErrInvalidAddress)
	}
	if !role.Registrable() {
		return nil, fmt.Errorf("%w: %s", ledger.ErrInvalidRole, role)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var p *ledger.Participant
	err := e.store.Atomic(func(s ledger.Store) error {
		if _, err := s.Participants().Get(caller); err == nil {
			return fmt.Errorf("%w: %s", ledger.ErrAlreadyRegistered, caller)
		} else if !errors.Is(err, ledger.ErrParticipantNotFound) {
			return err
		}

		p = ledger.NewParticipant(caller, role, name, metadata)
		return s.Participants().Save(p)
	})
	if err != nil {
		return nil, err
	}

	log.Info(log.CatLedger, "participant registered", "address", caller, "role", role)
	e.publish(ledger.Event{
		Kind: ledger.EventParticipantRegistered,
		ParticipantRegistered: &ledger.ParticipantRegistered{
			Address: p.Address,
			Role:    p.Role,
			Name:    p.Name,
		},
	})

	return p, nil
}

// SetApproval finalizes a pending registration. Only an approved Admin
// may call it, and a decision is terminal.
func (e *Engine) SetApproval(ctx context.Context, caller, target ledger.Address, approve bool) (*ledger.Participant, error) {
	_, span := e.tracer.Start(ctx, "ledger.set_approval")
	defer span.End()
	span.SetAttributes(
		attribute.String("participant.address", string(target)),
		attribute.Bool("participant.approve", approve),
	)

	e.mu.Lock()
	defer e.mu.Unlock()

	var p *ledger.Participant
	err := e.store.Atomic(func(s ledger.Store) error {
		admin, err := s.Participants().Get(caller)
		if err != nil || !admin.IsAdmin() {
			return fmt.Errorf("%w: %s", ledger.ErrUnauthorized, caller)
		}

		p, err = s.Participants().Get(target)
		if err != nil {
			return err
		}
		if p.Status.Terminal() {
			return fmt.Errorf("%w: %s is %s", ledger.ErrAlreadyFinalized, target, p.Status)
		}

		if approve {
			p.Status = ledger.StatusApproved
		} else {
			p.Status = ledger.StatusRejected
		}
		return s.Participants().Save(p)
	})
	if err != nil {
		return nil, err
	}

	log.Info(log.CatLedger, "participant status changed", "address", target, "status", p.Status)
	e.publish(ledger.Event{
		Kind: ledger.EventParticipantStatusChanged,
		ParticipantStatusChanged: &ledger.ParticipantStatusChanged{
			Address: p.Address,
			Status:  p.Status,
		},
	})

	return p, nil
}

// ProvisionAdmin creates an approved Admin participant directly. Admins
// are provisioned out-of-band, never through self-registration.
func (e *Engine) ProvisionAdmin(ctx context.Context, addr ledger.Address, name string) (*ledger.Participant, error) {
	_, span := e.tracer.Start(ctx, "ledger.provision_admin")
	defer span.End()
	span.SetAttributes(attribute.String("participant.address", string(addr)))

	if addr.IsZero() {
		return nil, fmt.Errorf("%w: empty address", ledger.ErrInvalidAddress)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var p *ledger.Participant
	err := e.store.Atomic(func(s ledger.Store) error {
		if _, err := s.Participants().Get(addr); err == nil {
			return fmt.Errorf("%w: %s", ledger.ErrAlreadyRegistered, addr)
		} else if !errors.Is(err, ledger.ErrParticipantNotFound) {
			return err
		}

		p = ledger.NewParticipant(addr, ledger.RoleAdmin, name, "")
		p.Status = ledger.StatusApproved
		return s.Participants().Save(p)
	})
	if err != nil {
		return nil, err
	}

	log.Info(log.CatLedger, "admin provisioned", "address", addr)
	e.publish(
		ledger.Event{
			Kind: ledger.EventParticipantRegistered,
			ParticipantRegistered: &ledger.ParticipantRegistered{
				Address: p.Address,
				Role:    p.Role,
				Name:    p.Name,
			},
		},
		ledger.Event{
			Kind: ledger.EventParticipantStatusChanged,
			ParticipantStatusChanged: &ledger.ParticipantStatusChanged{
				Address: p.Address,
				Status:  p.Status,
			},
		},
	)

	return p, nil
}

// Participant returns the registration record for addr.
func (e *Engine) Participant(ctx context.Context, addr ledger.Address) (*ledger.Participant, error) {
	_, span := e.tracer.Start(ctx, "ledger.get_participant")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.store.Participants().Get(addr)
}

// Participants lists registrations matching the filter.
func (e *Engine) Participants(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Participant, error) {
	_, span := e.tracer.Start(ctx, "ledger.list_participants")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.store.Participants().List(filter)
}
