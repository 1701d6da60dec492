// Package store persists canonical transactions in PostgreSQL. The contract
// with the rest of the pipeline is deliberately small: insert-or-ignore by
// id, and update category/ml_assigned by id — both safe to repeat.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lib/pq"

	"github.com/yurifrl/txnclass/pkg/models"
)

// PersistenceError wraps a store write failure. A batch that fails rolls
// back as a unit; the table is never left half-updated for a run.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store is the PostgreSQL-backed transaction store.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// New opens the database, configures the pool and verifies the connection.
func New(connStr string, logger *log.Logger) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the transactions table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id          TEXT PRIMARY KEY,
			date        DATE NOT NULL,
			trans_date  DATE NOT NULL,
			vendor      TEXT NOT NULL,
			location    TEXT NOT NULL DEFAULT '',
			amount      DOUBLE PRECISION NOT NULL,
			account     TEXT NOT NULL,
			category    TEXT,
			ml_assigned BOOLEAN NOT NULL DEFAULT FALSE
		)`)
	if err != nil {
		return &PersistenceError{Op: "ensure schema", Err: err}
	}
	return nil
}

// InsertBatch writes a parsed batch in one SQL transaction using
// insert-or-ignore by id, so re-importing the same export is a no-op.
// Returns how many rows were actually new.
func (s *Store) InsertBatch(ctx context.Context, txs []*models.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &PersistenceError{Op: "begin batch", Err: err}
	}
	defer dbTx.Rollback()

	const query = `
		INSERT INTO transactions (id, date, trans_date, vendor, location, amount, account, category, ml_assigned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	inserted := 0
	for _, tx := range txs {
		res, err := dbTx.ExecContext(ctx, query,
			tx.ID, tx.Date, tx.TransDate, tx.Vendor, tx.Location,
			tx.Amount, tx.Account, categoryValue(tx.Category), tx.MLAssigned,
		)
		if err != nil {
			return 0, &PersistenceError{Op: "insert transaction", Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, &PersistenceError{Op: "insert transaction", Err: err}
		}
		inserted += int(n)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, &PersistenceError{Op: "commit batch", Err: err}
	}

	s.logger.Info("persisted batch", "rows", len(txs), "inserted", inserted)
	return inserted, nil
}

// ExistingIDs reports which of the given ids are already stored.
func (s *Store) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM transactions WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query existing ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// All returns the full transaction history, oldest trans_date first.
func (s *Store) All(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, trans_date, vendor, location, amount, account, category, ml_assigned
		FROM transactions
		ORDER BY trans_date, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var category sql.NullString

		if err := rows.Scan(
			&tx.ID, &tx.Date, &tx.TransDate, &tx.Vendor, &tx.Location,
			&tx.Amount, &tx.Account, &category, &tx.MLAssigned,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if category.Valid && category.String != "" {
			tx.Category = &category.String
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// UpdateCategories writes classifier output back, one SQL transaction for
// the whole run. Only rows that are still uncategorized are touched, so a
// manual or rule-assigned category can never be overwritten.
func (s *Store) UpdateCategories(ctx context.Context, categories map[string]string) (int, error) {
	if len(categories) == 0 {
		return 0, nil
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &PersistenceError{Op: "begin category update", Err: err}
	}
	defer dbTx.Rollback()

	const query = `
		UPDATE transactions
		SET category = $2, ml_assigned = TRUE
		WHERE id = $1 AND category IS NULL`

	updated := 0
	for id, category := range categories {
		res, err := dbTx.ExecContext(ctx, query, id, category)
		if err != nil {
			return 0, &PersistenceError{Op: "update category", Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, &PersistenceError{Op: "update category", Err: err}
		}
		updated += int(n)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, &PersistenceError{Op: "commit category update", Err: err}
	}

	s.logger.Info("updated categories", "requested", len(categories), "updated", updated)
	return updated, nil
}

func categoryValue(category *string) any {
	if category == nil || *category == "" {
		return nil
	}
	return *category
}
