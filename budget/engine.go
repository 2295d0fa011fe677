/*
engine.go - Reconciliation engine and transaction mutators

PURPOSE:
  Merges freshly computed occurrences with the persistent ledger so
  that previously materialized, possibly user-edited transactions are
  never overwritten or duplicated, while newly due occurrences are
  inserted exactly once. Correctness here silently affects real money
  totals shown to the user.

GUARANTEES:
  - Idempotent: reconciling the same (profile, month) twice with an
    unchanged rule set creates nothing on the second pass.
  - Dedup invariant: no two transactions share an (ItemID, Date) pair.
  - Orphan preservation: deleting an item never touches its already
    materialized transactions. This is policy, not a bug - they are
    historical records.
  - Snapshot isolation: editing an item's amount or name after
    transactions exist does not rewrite them.

CONCURRENCY:
  Reconciliation for one (profile, year, month) scope is serialized
  inside the engine; concurrent callers of the same scope queue up and
  the second pass becomes a no-op. Rules are evaluated sequentially
  within a pass - their writes are keyed distinctly, so order cannot
  affect correctness. Writes are committed incrementally; an abandoned
  caller does not roll back entries already persisted.

FREQUENCY CHANGES:
  Changing an item's cadence after transactions exist does not
  retroactively regenerate past months. Existing transactions keep
  their dates; future reconciliations follow the new cadence.

SEE ALSO:
  - occurrence.go: Date expansion per rule
  - store.go: Persistence boundary
*/
package budget

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine reconciles budget items against the transaction ledger and
// applies user edits to individual transactions.
type Engine struct {
	store Store

	// newID supplies globally unique transaction ids. Injectable so
	// tests can use deterministic ids.
	newID func() string

	// Per-(profile, year, month) serialization of reconciliation.
	mu     sync.Mutex
	scopes map[scopeKey]*sync.Mutex
}

type scopeKey struct {
	ProfileID ProfileID
	Year      int
	Month     time.Month
}

// occurrenceKey is the dedup key enforced by reconciliation.
type occurrenceKey struct {
	ItemID ItemID
	Date   string
}

func NewEngine(store Store) *Engine {
	return &Engine{
		store:  store,
		newID:  uuid.NewString,
		scopes: make(map[scopeKey]*sync.Mutex),
	}
}

// WithIDGenerator overrides the transaction id source. For tests.
func (e *Engine) WithIDGenerator(gen func() string) *Engine {
	e.newID = gen
	return e
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// ReconcileMonth materializes all due occurrences for the profile and
// month, persisting only the entries that do not exist yet, and returns
// the full reconciled ledger for the month sorted by date ascending
// (ties keep creation order). Safe to call repeatedly: after the first
// pass, subsequent passes with an unchanged rule set are no-ops.
func (e *Engine) ReconcileMonth(ctx context.Context, profileID ProfileID, year int, month time.Month) ([]Transaction, error) {
	lock := e.scopeLock(scopeKey{ProfileID: profileID, Year: year, Month: month})
	lock.Lock()
	defer lock.Unlock()

	items, err := e.store.ItemsByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load items for profile %s: %w", profileID, err)
	}

	existing, err := e.store.TransactionsForMonth(ctx, profileID, year, month)
	if err != nil {
		return nil, fmt.Errorf("load transactions for %s %d-%02d: %w", profileID, year, month, err)
	}

	seen := make(map[occurrenceKey]struct{}, len(existing))
	for _, tx := range existing {
		seen[occurrenceKey{ItemID: tx.ItemID, Date: tx.Date.String()}] = struct{}{}
	}

	result := existing

	for _, item := range items {
		occurrences, err := OccurrencesInMonth(item, year, month)
		if err != nil {
			return nil, fmt.Errorf("expand item %s: %w", item.ID, err)
		}

		for _, date := range occurrences {
			key := occurrenceKey{ItemID: item.ID, Date: date.String()}
			if _, ok := seen[key]; ok {
				continue
			}

			tx := Transaction{
				ID:             TransactionID(e.newID()),
				ItemID:         item.ID,
				ProfileID:      profileID,
				Date:           date,
				Status:         StatusPending,
				SnapshotAmount: item.Amount,
				SnapshotName:   item.Name,
			}

			if err := e.store.AddTransaction(ctx, tx); err != nil {
				// Another reconciliation of this scope won the race at
				// the store's unique index: the occurrence is already
				// materialized, which is the outcome we wanted.
				if errors.Is(err, ErrDuplicateTransaction) {
					continue
				}
				return nil, fmt.Errorf("persist transaction for item %s on %s: %w", item.ID, date, err)
			}

			seen[key] = struct{}{}
			result = append(result, tx)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (e *Engine) scopeLock(key scopeKey) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.scopes[key]
	if !ok {
		lock = &sync.Mutex{}
		e.scopes[key] = lock
	}
	return lock
}

// =============================================================================
// TRANSACTION MUTATORS
// =============================================================================

// ToggleStatus flips a transaction between pending and paid and
// persists it. No validation beyond existence of the transaction.
func (e *Engine) ToggleStatus(ctx context.Context, id TransactionID) (Transaction, error) {
	tx, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, err
	}

	tx.Status = tx.Status.Toggled()
	if err := e.store.PutTransaction(ctx, tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// SetAmount overwrites a transaction's snapshot amount. The owning
// budget item is never touched. Negative amounts are rejected with
// ErrInvalidAmount and the transaction is left unchanged.
func (e *Engine) SetAmount(ctx context.Context, id TransactionID, amount decimal.Decimal) (Transaction, error) {
	if amount.IsNegative() {
		return Transaction{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	tx, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, err
	}

	tx.SnapshotAmount = amount
	if err := e.store.PutTransaction(ctx, tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}
