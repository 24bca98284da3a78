package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx,
// so repositories can run against either.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store implements ledger.Store over SQLite. Atomic runs its callback
// inside a database transaction.
type Store struct {
	db *DB
	// tx is non-nil for the transactional view handed to Atomic callbacks.
	tx *sql.Tx

	participants *participantRepository
	tokens       *tokenRepository
	transfers    *transferRepository
}

var _ ledger.Store = (*Store)(nil)

// NewStore creates a ledger store over an open database.
func NewStore(db *DB) *Store {
	return newStoreView(db, nil)
}

func newStoreView(db *DB, tx *sql.Tx) *Store {
	var q querier = db.conn
	if tx != nil {
		q = tx
	}
	return &Store{
		db:           db,
		tx:           tx,
		participants: &participantRepository{q: q},
		tokens:       &tokenRepository{q: q},
		transfers:    &transferRepository{q: q},
	}
}

func (s *Store) Participants() ledger.ParticipantRepository { return s.participants }
func (s *Store) Tokens() ledger.TokenRepository             { return s.tokens }
func (s *Store) Transfers() ledger.TransferRepository       { return s.transfers }

// Atomic runs fn inside a transaction. A nested call reuses the open
// transaction rather than starting a second one.
func (s *Store) Atomic(fn func(ledger.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	view := newStoreView(s.db, tx)
	if err := fn(view); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
