package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"PinCurator/internal/domain"
	"PinCurator/internal/ports"
)

const ledgerTable = "posted_products"

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The ledger is written from a single process; one connection avoids
	// SQLITE_BUSY under concurrent approvals.
	db.SetMaxOpenConns(1)
	return db, nil
}

// SQLiteLedger persists published product ids into SQLite.
type SQLiteLedger struct {
	db *sql.DB
}

var _ ports.Ledger = (*SQLiteLedger)(nil)

// NewSQLiteLedger wires a sql.DB implementation.
func NewSQLiteLedger(db *sql.DB) *SQLiteLedger {
	return &SQLiteLedger{db: db}
}

// Init creates the ledger table if it does not exist.
func (l *SQLiteLedger) Init(ctx context.Context) error {
	if l.db == nil {
		return nil
	}

	query := `CREATE TABLE IF NOT EXISTS ` + ledgerTable + ` (
                  product_id TEXT PRIMARY KEY,
                  post_date TIMESTAMP,
                  pin_id TEXT)`

	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create ledger table: %w", err)
	}
	return nil
}

// Exists reports whether the product id has already been published.
func (l *SQLiteLedger) Exists(ctx context.Context, productID string) (bool, error) {
	if l.db == nil {
		return false, nil
	}

	query, args, err := sq.Select("1").
		From(ledgerTable).
		Where(sq.Eq{"product_id": productID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = l.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return true, nil
}

// Record inserts a ledger entry. The primary key enforces the uniqueness
// invariant: a second insert for the same product id fails with
// domain.ErrDuplicateKey and never overwrites the original entry.
func (l *SQLiteLedger) Record(ctx context.Context, entry domain.LedgerEntry) error {
	if l.db == nil {
		return fmt.Errorf("ledger database is not configured")
	}

	query, args, err := sq.Insert(ledgerTable).
		Columns("product_id", "post_date", "pin_id").
		Values(entry.ProductID, entry.PostedAt.UTC(), entry.PinRef).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, entry.ProductID)
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// Count returns the number of recorded entries.
func (l *SQLiteLedger) Count(ctx context.Context) (int64, error) {
	if l.db == nil {
		return 0, nil
	}

	query, args, err := sq.Select("COUNT(*)").From(ledgerTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int64
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
