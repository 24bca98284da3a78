package sqlite

import (
	"time"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

// ParticipantModel represents the database row for the participants table.
// Time values are stored as Unix timestamps.
type ParticipantModel struct {
	Address      string
	Role         int
	Status       int
	Name         string
	Metadata     string
	RegisteredAt int64
}

func toParticipantModel(p *ledger.Participant) *ParticipantModel {
	return &ParticipantModel{
		Address:      string(p.Address),
		Role:         int(p.Role),
		Status:       int(p.Status),
		Name:         p.Name,
		Metadata:     p.Metadata,
		RegisteredAt: p.RegisteredAt.Unix(),
	}
}

func (m *ParticipantModel) toDomain() *ledger.Participant {
	return &ledger.Participant{
		Address:      ledger.Address(m.Address),
		Role:         ledger.Role(m.Role), // #nosec G115 -- values come from the closed enum
		Status:       ledger.Status(m.Status),
		Name:         m.Name,
		Metadata:     m.Metadata,
		RegisteredAt: time.Unix(m.RegisteredAt, 0),
	}
}

// TokenModel represents the database row for the tokens table. Parents
// live in the token_parents table and are loaded separately.
type TokenModel struct {
	ID          int64
	Owner       string
	Kind        int
	Name        string
	Description string
	Metadata    string
	CreatedAt   int64
}

func toTokenModel(t *ledger.Token) *TokenModel {
	return &TokenModel{
		ID:          int64(t.ID),
		Owner:       string(t.Owner),
		Kind:        int(t.Kind),
		Name:        t.Name,
		Description: t.Description,
		Metadata:    t.Metadata,
		CreatedAt:   t.CreatedAt.Unix(),
	}
}

func (m *TokenModel) toDomain(parents []ledger.TokenID) *ledger.Token {
	return &ledger.Token{
		ID:          ledger.TokenID(m.ID),
		Owner:       ledger.Address(m.Owner),
		Kind:        ledger.TokenKind(m.Kind), // #nosec G115
		Name:        m.Name,
		Description: m.Description,
		Metadata:    m.Metadata,
		Parents:     parents,
		CreatedAt:   time.Unix(m.CreatedAt, 0),
	}
}

// TransferModel represents the database row for the transfers table.
type TransferModel struct {
	ID          int64
	TokenID     int64
	FromAddress string
	ToAddress   string
	Status      int
	Message     string
	CreatedAt   int64
}

func toTransferModel(t *ledger.Transfer) *TransferModel {
	return &TransferModel{
		ID:          int64(t.ID),
		TokenID:     int64(t.TokenID),
		FromAddress: string(t.From),
		ToAddress:   string(t.To),
		Status:      int(t.Status),
		Message:     t.Message,
		CreatedAt:   t.CreatedAt.Unix(),
	}
}

func (m *TransferModel) toDomain() *ledger.Transfer {
	return &ledger.Transfer{
		ID:        ledger.TransferID(m.ID),
		TokenID:   ledger.TokenID(m.TokenID),
		From:      ledger.Address(m.FromAddress),
		To:        ledger.Address(m.ToAddress),
		Status:    ledger.TransferStatus(m.Status), // #nosec G115
		Message:   m.Message,
		CreatedAt: time.Unix(m.CreatedAt, 0),
	}
}
