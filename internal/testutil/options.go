package testutil

import "github.com/jcmxo/98-pfm-traza-2025/internal/ledger"

// participantData holds all data for a participant to be inserted.
type participantData struct {
	addr     ledger.Address
	role     ledger.Role
	status   ledger.Status
	name     string
	metadata string
}

func defaultParticipant(addr ledger.Address, role ledger.Role) participantData {
	return participantData{
		addr:   addr,
		role:   role,
		status: ledger.StatusPending,
		name:   string(addr), // Default name is the address
	}
}

// ParticipantOption configures a participant during builder setup.
type ParticipantOption func(*participantData)

// Approved marks the participant approved.
func Approved() ParticipantOption {
	return func(p *participantData) { p.status = ledger.StatusApproved }
}

// Rejected marks the participant rejected.
func Rejected() ParticipantOption {
	return func(p *participantData) { p.status = ledger.StatusRejected }
}

// Named sets the participant display name.
func Named(name string) ParticipantOption {
	return func(p *participantData) { p.name = name }
}

// ParticipantMetadata sets the participant metadata blob.
func ParticipantMetadata(meta string) ParticipantOption {
	return func(p *participantData) { p.metadata = meta }
}

// tokenData holds all data for a token to be inserted.
type tokenData struct {
	name        string
	owner       ledger.Address
	kind        ledger.TokenKind
	description string
	metadata    string
	parents     []string
}

func defaultToken(name string, owner ledger.Address, kind ledger.TokenKind) tokenData {
	return tokenData{name: name, owner: owner, kind: kind}
}

// TokenOption configures a token during builder setup.
type TokenOption func(*tokenData)

// Description sets the token description.
func Description(desc string) TokenOption {
	return func(t *tokenData) { t.description = desc }
}

// Metadata sets the token metadata blob.
func Metadata(meta string) TokenOption {
	return func(t *tokenData) { t.metadata = meta }
}

// transferData holds all data for a transfer to be inserted.
type transferData struct {
	token   string
	from    ledger.Address
	to      ledger.Address
	status  ledger.TransferStatus
	message string
}

// TransferOption configures a transfer during builder setup.
type TransferOption func(*transferData)

// Message sets the transfer message.
func Message(msg string) TransferOption {
	return func(t *transferData) { t.message = msg }
}
