package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// Database bundles the entity repositories over one handle. The root
// Database wraps *sql.DB; Transaction yields a child Database whose
// repositories are bound to the transaction, so transactional state is
// carried by an explicit value rather than by mutating repositories.
type Database struct {
	db    *sql.DB
	tx    *sql.Tx
	depth int

	Users     *UserRepository
	Passwords *PasswordRepository
	Sessions  *SessionRepository
	Tokens    *TokenRepository
}

// NewDatabase creates the root repository bundle.
func NewDatabase(db *sql.DB) *Database {
	d := &Database{db: db}
	d.bind(db)
	return d
}

func (d *Database) bind(q Querier) {
	d.Users = NewUserRepository(q)
	d.Passwords = NewPasswordRepository(q)
	d.Sessions = NewSessionRepository(q)
	d.Tokens = NewTokenRepository(q)
}

// Transaction runs fn inside a database transaction and commits when fn
// returns nil, rolling back otherwise. Called on an already-transactional
// Database it opens a savepoint instead, so nested service operations
// compose: an inner failure unwinds to the savepoint without aborting the
// caller's transaction.
func (d *Database) Transaction(ctx context.Context, fn func(tx *Database) error) error {
	if d.tx != nil {
		return d.savepoint(ctx, fn)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	child := &Database{db: d.db, tx: tx}
	child.bind(tx)

	if err := fn(child); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (d *Database) savepoint(ctx context.Context, fn func(tx *Database) error) error {
	name := "sp_" + strconv.Itoa(d.depth+1)

	if _, err := d.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	child := &Database{db: d.db, tx: d.tx, depth: d.depth + 1}
	child.bind(d.tx)

	if err := fn(child); err != nil {
		if _, rbErr := d.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("rollback to savepoint failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if _, err := d.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}
