package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// TxStarter is a DBTX that can open transactions.
type TxStarter interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store hands out repositories bound either to the pool or to a transaction.
type Store struct {
	db TxStarter
}

// NewStore wraps a pool.
func NewStore(db TxStarter) *Store {
	return &Store{db: db}
}

// Employees returns a repository outside of any transaction.
func (s *Store) Employees() EmployeeRepository {
	return NewEmployeeRepository(s.db)
}

// Positions returns a repository outside of any transaction.
func (s *Store) Positions() PositionRepository {
	return NewPositionRepository(s.db)
}

// TxRepos are the repositories bound to one transaction.
type TxRepos struct {
	Employees EmployeeRepository
	Positions PositionRepository
}

// InTx runs fn in a transaction. The transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(employees EmployeeRepository) error) error {
	return RunInTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(NewEmployeeRepository(tx))
	})
}

// InRosterTx is InTx with both repositories, for writes spanning positions and employees.
func (s *Store) InRosterTx(ctx context.Context, fn func(repos TxRepos) error) error {
	return RunInTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(TxRepos{Employees: NewEmployeeRepository(tx), Positions: NewPositionRepository(tx)})
	})
}

// RunInTx begins a transaction on db, commits it when fn returns nil and rolls it back otherwise.
func RunInTx(ctx context.Context, db TxStarter, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	// a failed commit leaves the transaction rolled back
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
