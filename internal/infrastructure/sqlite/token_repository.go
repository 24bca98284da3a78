package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

// tokenColumns is the list of columns to select for token queries.
const tokenColumns = `id, owner, kind, name, description, metadata, created_at`

// tokenRepository implements ledger.TokenRepository using SQLite.
type tokenRepository struct {
	q querier
}

var _ ledger.TokenRepository = (*tokenRepository)(nil)

func scanToken(scanner interface{ Scan(...any) error }) (*TokenModel, error) {
	var model TokenModel
	err := scanner.Scan(
		&model.ID, &model.Owner, &model.Kind,
		&model.Name, &model.Description, &model.Metadata, &model.CreatedAt,
	)
	return &model, err
}

// Get retrieves a token by id, including its parent edges in creation
// order.
func (r *tokenRepository) Get(id ledger.TokenID) (*ledger.Token, error) {
	row := r.q.QueryRow(
		`SELECT `+tokenColumns+` FROM tokens WHERE id = ?`,
		int64(id),
	)
	model, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ledger.ErrTokenNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	parents, err := r.parents(id)
	if err != nil {
		return nil, err
	}
	return model.toDomain(parents), nil
}

func (r *tokenRepository) parents(id ledger.TokenID) ([]ledger.TokenID, error) {
	rows, err := r.q.Query(
		`SELECT parent_id FROM token_parents WHERE token_id = ? ORDER BY position ASC`,
		int64(id),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load token parents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var parents []ledger.TokenID
	for rows.Next() {
		var pid int64
		if err := rows.Scan(&pid); err != nil {
			return nil, fmt.Errorf("failed to scan parent row: %w", err)
		}
		parents = append(parents, ledger.TokenID(pid))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parent rows: %w", err)
	}
	return parents, nil
}

// Save persists a token. For new tokens (ID == 0), inserts a row plus its
// parent edges and sets the assigned id. For existing tokens, updates the
// owner only; everything else is immutable.
func (r *tokenRepository) Save(t *ledger.Token) error {
	model := toTokenModel(t)

	if t.ID == 0 {
		result, err := r.q.Exec(
			`INSERT INTO tokens (owner, kind, name, description, metadata, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			model.Owner, model.Kind, model.Name, model.Description, model.Metadata, model.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert token: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		t.ID = ledger.TokenID(id)

		for pos, pid := range t.Parents {
			_, err := r.q.Exec(
				`INSERT INTO token_parents (token_id, parent_id, position) VALUES (?, ?, ?)`,
				id, int64(pid), pos,
			)
			if err != nil {
				return fmt.Errorf("failed to insert token parent: %w", err)
			}
		}
		return nil
	}

	_, err := r.q.Exec(
		`UPDATE tokens SET owner = ? WHERE id = ?`,
		model.Owner, model.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update token: %w", err)
	}
	return nil
}

// OwnedBy retrieves the ids of tokens owned by addr, ascending by id.
func (r *tokenRepository) OwnedBy(addr ledger.Address) ([]ledger.TokenID, error) {
	rows, err := r.q.Query(
		`SELECT id FROM tokens WHERE owner = ? ORDER BY id ASC`,
		string(addr),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned tokens: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []ledger.TokenID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan token id: %w", err)
		}
		ids = append(ids, ledger.TokenID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating token rows: %w", err)
	}
	return ids, nil
}
