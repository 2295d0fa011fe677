/*
store.go - Persistence interface consumed by the engine

PURPOSE:
  Defines the boundary between the reconciliation engine and the
  database. The engine only needs five operations; everything else a
  store offers (item CRUD, profiles, categories) is a concrete-store
  concern outside this interface.

UNIQUENESS CONTRACT:
  AddTransaction MAY enforce the (ItemID, Date) uniqueness invariant
  and return ErrDuplicateTransaction on violation. The engine
  pre-filters duplicates itself, so a store without enforcement is
  still correct under serialized reconciliation; an enforcing store is
  the backstop against concurrent reconciliation of the same scope.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite (enforcing, unique index)
  - budget/store: In-memory for testing/dev (enforcing)

SEE ALSO:
  - engine.go: The only consumer of this interface
*/
package budget

import (
	"context"
	"time"
)

// Store handles persistence of budget items and transactions.
type Store interface {
	// ItemsByProfile returns the profile's full rule set. Deleted items
	// are simply absent.
	ItemsByProfile(ctx context.Context, profileID ProfileID) ([]BudgetItem, error)

	// TransactionsForMonth returns all transactions already persisted
	// for the profile whose date falls within the given month.
	TransactionsForMonth(ctx context.Context, profileID ProfileID, year int, month time.Month) ([]Transaction, error)

	// AddTransaction persists a new transaction. Returns
	// ErrDuplicateTransaction if the store enforces (ItemID, Date)
	// uniqueness and the pair already exists.
	AddTransaction(ctx context.Context, tx Transaction) error

	// PutTransaction replaces a transaction by id (full record).
	// Returns ErrTransactionNotFound if the id does not exist.
	PutTransaction(ctx context.Context, tx Transaction) error

	// GetTransaction returns a transaction by id, or
	// ErrTransactionNotFound.
	GetTransaction(ctx context.Context, id TransactionID) (Transaction, error)
}
