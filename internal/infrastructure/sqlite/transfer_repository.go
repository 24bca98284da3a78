package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

// transferColumns is the list of columns to select for transfer queries.
const transferColumns = `id, token_id, from_address, to_address, status, message, created_at`

// transferRepository implements ledger.TransferRepository using SQLite.
type transferRepository struct {
	q querier
}

var _ ledger.TransferRepository = (*transferRepository)(nil)

func scanTransfer(scanner interface{ Scan(...any) error }) (*TransferModel, error) {
	var model TransferModel
	err := scanner.Scan(
		&model.ID, &model.TokenID, &model.FromAddress, &model.ToAddress,
		&model.Status, &model.Message, &model.CreatedAt,
	)
	return &model, err
}

// Get retrieves a transfer by id.
func (r *transferRepository) Get(id ledger.TransferID) (*ledger.Transfer, error) {
	row := r.q.QueryRow(
		`SELECT `+transferColumns+` FROM transfers WHERE id = ?`,
		int64(id),
	)
	model, err := scanTransfer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ledger.ErrTransferNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return model.toDomain(), nil
}

// Save persists a transfer. For new transfers (ID == 0), inserts a row
// and sets the assigned id. For existing transfers, updates the status
// only; everything else is immutable.
func (r *transferRepository) Save(t *ledger.Transfer) error {
	model := toTransferModel(t)

	if t.ID == 0 {
		result, err := r.q.Exec(
			`INSERT INTO transfers (token_id, from_address, to_address, status, message, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			model.TokenID, model.FromAddress, model.ToAddress, model.Status, model.Message, model.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transfer: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		t.ID = ledger.TransferID(id)
		return nil
	}

	_, err := r.q.Exec(
		`UPDATE transfers SET status = ? WHERE id = ?`,
		model.Status, model.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transfer: %w", err)
	}
	return nil
}

// PendingForToken retrieves the pending transfer for a token, if any.
func (r *transferRepository) PendingForToken(tokenID ledger.TokenID) (*ledger.Transfer, error) {
	row := r.q.QueryRow(
		`SELECT `+transferColumns+` FROM transfers WHERE token_id = ? AND status = ?`,
		int64(tokenID), int(ledger.TransferPending),
	)
	model, err := scanTransfer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no pending transfer for token %d", ledger.ErrTransferNotFound, tokenID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending transfer: %w", err)
	}
	return model.toDomain(), nil
}

// PendingFor retrieves the ids of pending transfers addressed to addr,
// ascending by id.
func (r *transferRepository) PendingFor(addr ledger.Address) ([]ledger.TransferID, error) {
	return r.listIDs(
		`SELECT id FROM transfers WHERE to_address = ? AND status = ? ORDER BY id ASC`,
		string(addr), int(ledger.TransferPending),
	)
}

// For retrieves the ids of all transfers where addr is sender or
// recipient, ascending by id.
func (r *transferRepository) For(addr ledger.Address) ([]ledger.TransferID, error) {
	return r.listIDs(
		`SELECT id FROM transfers WHERE from_address = ? OR to_address = ? ORDER BY id ASC`,
		string(addr), string(addr),
	)
}

func (r *transferRepository) listIDs(query string, args ...any) ([]ledger.TransferID, error) {
	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []ledger.TransferID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan transfer id: %w", err)
		}
		ids = append(ids, ledger.TransferID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfer rows: %w", err)
	}
	return ids, nil
}
