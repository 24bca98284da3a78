package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

// participantColumns is the list of columns to select for participant queries.
const participantColumns = `address, role, status, name, metadata, registered_at`

// participantRepository implements ledger.ParticipantRepository using SQLite.
type participantRepository struct {
	q querier
}

var _ ledger.ParticipantRepository = (*participantRepository)(nil)

func scanParticipant(scanner interface{ Scan(...any) error }) (*ParticipantModel, error) {
	var model ParticipantModel
	err := scanner.Scan(
		&model.Address, &model.Role, &model.Status,
		&model.Name, &model.Metadata, &model.RegisteredAt,
	)
	return &model, err
}

// Get retrieves a participant by address.
func (r *participantRepository) Get(addr ledger.Address) (*ledger.Participant, error) {
	row := r.q.QueryRow(
		`SELECT `+participantColumns+` FROM participants WHERE address = ?`,
		string(addr),
	)
	model, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrParticipantNotFound, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return model.toDomain(), nil
}

// Save persists a participant. The address is the primary key; a conflict
// updates the mutable columns (in practice only status ever changes).
func (r *participantRepository) Save(p *ledger.Participant) error {
	model := toParticipantModel(p)
	_, err := r.q.Exec(
		`INSERT INTO participants (address, role, status, name, metadata, registered_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET status = excluded.status`,
		model.Address, model.Role, model.Status, model.Name, model.Metadata, model.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save participant: %w", err)
	}
	return nil
}

// List retrieves participants matching the filter, ordered by registration
// time then address.
func (r *participantRepository) List(filter ledger.ListFilter) ([]*ledger.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants`
	var args []any

	if filter.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, int(*filter.Status))
	}
	query += ` ORDER BY registered_at ASC, address ASC`

	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var participants []*ledger.Participant
	for rows.Next() {
		model, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}

	return participants, nil
}
