package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fasttrack/internal/domain"
	"fasttrack/internal/repository"
)

// DBTX is the subset of database/sql the repositories use. Both *sql.DB and
// *sql.Tx satisfy it, which is what lets WithTx rebind every repository to a
// single transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements repository.Store on sqlite.
type Store struct {
	db *sql.DB // nil when already bound to a transaction
	q  DBTX
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Users() repository.UserRepository { return &UserRepository{db: s.q} }
func (s *Store) Profiles() repository.ProfileRepository {
	return &ProfileRepository{db: s.q}
}
func (s *Store) Settings() repository.SettingsRepository {
	return &SettingsRepository{db: s.q}
}
func (s *Store) CurrentSessions() repository.CurrentSessionRepository {
	return &CurrentSessionRepository{db: s.q}
}
func (s *Store) HistorySessions() repository.HistorySessionRepository {
	return &HistorySessionRepository{db: s.q}
}
func (s *Store) AuthState() repository.AuthStateRepository {
	return &AuthStateRepository{db: s.q}
}

// WithTx begins a transaction, runs fn with a Store bound to it, and commits
// on success or rolls back on error/panic. Panics are rethrown. Calls nested
// inside an open transaction join it.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) (err error) {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w: %w", domain.ErrStore, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("commit tx: %w: %w", domain.ErrStore, commitErr)
		}
	}()

	err = fn(&Store{q: tx})
	return err
}

// wrapErr maps engine errors onto the domain taxonomy. The sqlite driver has
// no typed constraint error, so unique violations are recognized by message,
// same as the other error paths in this package.
func wrapErr(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case strings.Contains(strings.ToLower(err.Error()), "unique"):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateKey)
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
	}
}

var _ repository.Store = (*Store)(nil)
