/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements budget.Store plus the CRUD surface for profiles,
  categories, and budget items. In production the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  profiles:      Budget workspaces (explicit per-profile currency)
  categories:    Item grouping, one optional level of nesting
  budget_items:  Recurring rules
  transactions:  Materialized occurrences (the ledger)

UNIQUENESS ENFORCEMENT:
  idx_unique_item_date enforces the core dedup invariant: at most one
  transaction per (item_id, date). The engine pre-filters duplicates,
  so under serialized reconciliation this index never fires; under
  concurrent reconciliation of the same scope it is the backstop, and
  violations surface as budget.ErrDuplicateTransaction.

ORPHAN PRESERVATION:
  Deleting a budget item does NOT cascade to its transactions. They
  remain valid historical records referencing the item id; the
  presentation layer shows them as uncategorized. Do not "fix" this
  into a cascading delete.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := budget.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - budget/store.go: Interface definition
  - budget/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Profiles (budget workspaces)
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		created_at TEXT NOT NULL
	);

	-- Categories
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		parent_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_categories_profile
		ON categories(profile_id);

	-- Budget items (recurring rules)
	CREATE TABLE IF NOT EXISTS budget_items (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL,
		category_id TEXT,
		name TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		frequency TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_profile
		ON budget_items(profile_id);

	-- Transactions (materialized occurrences)
	-- Intentionally NO foreign key to budget_items: transactions must
	-- survive deletion of the item that produced them.
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		profile_id TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		snapshot_amount TEXT NOT NULL,
		snapshot_name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: the reconciliation dedup invariant.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_item_date
		ON transactions(item_id, date);

	-- Month-view queries (hot path)
	CREATE INDEX IF NOT EXISTS idx_transactions_profile_date
		ON transactions(profile_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTION STORE (budget.Store interface)
// =============================================================================

// ItemsByProfile returns the profile's full rule set.
func (s *Store) ItemsByProfile(ctx context.Context, profileID budget.ProfileID) ([]budget.BudgetItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, profile_id, category_id, name, description, amount, frequency, start_date, end_date
		FROM budget_items
		WHERE profile_id = ?
		ORDER BY created_at ASC, id ASC
	`

	return s.queryItems(ctx, query, profileID)
}

// TransactionsForMonth returns the profile's transactions dated within
// the given month, ordered by date then insertion.
func (s *Store) TransactionsForMonth(ctx context.Context, profileID budget.ProfileID, year int, month time.Month) ([]budget.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, item_id, profile_id, date, status, snapshot_amount, snapshot_name
		FROM transactions
		WHERE profile_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, created_at ASC, id ASC
	`

	return s.queryTransactions(ctx, query, profileID,
		budget.MonthStart(year, month).String(), budget.MonthEnd(year, month).String())
}

// AddTransaction inserts a new transaction. A unique-index violation on
// (item_id, date) is reported as budget.ErrDuplicateTransaction.
func (s *Store) AddTransaction(ctx context.Context, tx budget.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO transactions (id, item_id, profile_id, date, status, snapshot_amount, snapshot_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		tx.ID,
		tx.ItemID,
		tx.ProfileID,
		tx.Date.String(),
		tx.Status,
		tx.SnapshotAmount.String(),
		tx.SnapshotName,
		time.Now().UTC().Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return budget.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to add transaction: %w", err)
	}

	return nil
}

// PutTransaction replaces a transaction by id (full record).
func (s *Store) PutTransaction(ctx context.Context, tx budget.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE transactions
		SET item_id = ?, profile_id = ?, date = ?, status = ?, snapshot_amount = ?, snapshot_name = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		tx.ItemID, tx.ProfileID, tx.Date.String(), tx.Status,
		tx.SnapshotAmount.String(), tx.SnapshotName, tx.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return budget.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return budget.ErrTransactionNotFound
	}
	return nil
}

// GetTransaction returns a transaction by id.
func (s *Store) GetTransaction(ctx context.Context, id budget.TransactionID) (budget.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, item_id, profile_id, date, status, snapshot_amount, snapshot_name
		FROM transactions
		WHERE id = ?
	`

	txs, err := s.queryTransactions(ctx, query, id)
	if err != nil {
		return budget.Transaction{}, err
	}
	if len(txs) == 0 {
		return budget.Transaction{}, budget.ErrTransactionNotFound
	}
	return txs[0], nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]budget.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []budget.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (budget.Transaction, error) {
	var (
		tx             budget.Transaction
		date           string
		snapshotAmount string
	)

	err := rows.Scan(&tx.ID, &tx.ItemID, &tx.ProfileID, &date, &tx.Status, &snapshotAmount, &tx.SnapshotName)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Date, err = budget.ParseDate(date)
	if err != nil {
		return tx, err
	}
	tx.SnapshotAmount, err = decimal.NewFromString(snapshotAmount)
	if err != nil {
		return tx, fmt.Errorf("failed to parse stored amount %q: %w", snapshotAmount, err)
	}

	return tx, nil
}

// =============================================================================
// BUDGET ITEM STORE
// =============================================================================

// SaveItem inserts or replaces a budget item.
func (s *Store) SaveItem(ctx context.Context, item budget.BudgetItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var endDate *string
	if item.EndDate != nil {
		d := item.EndDate.String()
		endDate = &d
	}

	query := `
		INSERT INTO budget_items (id, profile_id, category_id, name, description, amount, frequency, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			name = excluded.name,
			description = excluded.description,
			amount = excluded.amount,
			frequency = excluded.frequency,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		item.ID, item.ProfileID, item.CategoryID, item.Name, item.Description,
		item.Amount.String(), item.Frequency, item.StartDate.String(), endDate,
		now, now,
	)
	return err
}

// GetItem retrieves a budget item by id.
func (s *Store) GetItem(ctx context.Context, id budget.ItemID) (budget.BudgetItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, profile_id, category_id, name, description, amount, frequency, start_date, end_date
		FROM budget_items
		WHERE id = ?
	`

	items, err := s.queryItems(ctx, query, id)
	if err != nil {
		return budget.BudgetItem{}, err
	}
	if len(items) == 0 {
		return budget.BudgetItem{}, budget.ErrItemNotFound
	}
	return items[0], nil
}

// DeleteItem removes a budget item. Its transactions are intentionally
// left untouched (orphan preservation).
func (s *Store) DeleteItem(ctx context.Context, id budget.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM budget_items WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return budget.ErrItemNotFound
	}
	return nil
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]budget.BudgetItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []budget.BudgetItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(rows *sql.Rows) (budget.BudgetItem, error) {
	var (
		item        budget.BudgetItem
		categoryID  sql.NullString
		description sql.NullString
		amount      string
		frequency   string
		startDate   string
		endDate     sql.NullString
	)

	err := rows.Scan(&item.ID, &item.ProfileID, &categoryID, &item.Name,
		&description, &amount, &frequency, &startDate, &endDate)
	if err != nil {
		return item, fmt.Errorf("failed to scan item: %w", err)
	}

	item.CategoryID = budget.CategoryID(categoryID.String)
	item.Description = description.String

	item.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return item, fmt.Errorf("failed to parse stored amount %q: %w", amount, err)
	}
	item.Frequency, err = budget.ParseFrequency(frequency)
	if err != nil {
		return item, err
	}
	item.StartDate, err = budget.ParseDate(startDate)
	if err != nil {
		return item, err
	}
	if endDate.Valid {
		d, err := budget.ParseDate(endDate.String)
		if err != nil {
			return item, err
		}
		item.EndDate = &d
	}

	return item, nil
}

// =============================================================================
// PROFILE STORE
// =============================================================================

// SaveProfile inserts or replaces a profile.
func (s *Store) SaveProfile(ctx context.Context, p budget.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO profiles (id, name, currency, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			currency = excluded.currency
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Currency, time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetProfile retrieves a profile by id.
func (s *Store) GetProfile(ctx context.Context, id budget.ProfileID) (budget.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p budget.Profile
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, currency FROM profiles WHERE id = ?", id,
	).Scan(&p.ID, &p.Name, &p.Currency)

	if err == sql.ErrNoRows {
		return budget.Profile{}, budget.ErrProfileNotFound
	}
	if err != nil {
		return budget.Profile{}, err
	}
	return p, nil
}

// ListProfiles returns all profiles.
func (s *Store) ListProfiles(ctx context.Context) ([]budget.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, currency FROM profiles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []budget.Profile
	for rows.Next() {
		var p budget.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Currency); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// DeleteProfile removes a profile. Items and transactions under it are
// not cascaded; callers decide what to do with them.
func (s *Store) DeleteProfile(ctx context.Context, id budget.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return budget.ErrProfileNotFound
	}
	return nil
}

// =============================================================================
// CATEGORY STORE
// =============================================================================

// SaveCategory inserts or replaces a category.
func (s *Store) SaveCategory(ctx context.Context, c budget.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parentID *string
	if c.ParentID != nil {
		p := string(*c.ParentID)
		parentID = &p
	}

	query := `
		INSERT INTO categories (id, profile_id, name, description, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			parent_id = excluded.parent_id
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.ProfileID, c.Name, c.Description, parentID,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// ListCategories returns all categories for a profile.
func (s *Store) ListCategories(ctx context.Context, profileID budget.ProfileID) ([]budget.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, profile_id, name, description, parent_id FROM categories WHERE profile_id = ? ORDER BY name",
		profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []budget.Category
	for rows.Next() {
		var (
			c           budget.Category
			description sql.NullString
			parentID    sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.ProfileID, &c.Name, &description, &parentID); err != nil {
			return nil, err
		}
		c.Description = description.String
		if parentID.Valid {
			p := budget.CategoryID(parentID.String)
			c.ParentID = &p
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// DeleteCategory removes a category. Items referencing it keep their
// category id and are shown as uncategorized by the presentation layer.
func (s *Store) DeleteCategory(ctx context.Context, id budget.CategoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return budget.ErrCategoryNotFound
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"transactions", "budget_items", "categories", "profiles"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
