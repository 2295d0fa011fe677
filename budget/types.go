/*
Package budget provides the core recurrence and reconciliation engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  recurring financial obligations. A BudgetItem defines a recurring rule
  (rent, salary, subscription); the engine expands rules into concrete
  dated Transactions for any requested calendar month and merges them
  with the persistent ledger without losing or duplicating user edits.

KEY CONCEPTS IN THIS FILE (types.go):
  - Frequency: Closed enum of supported cadences (no custom intervals)
  - BudgetItem: A recurring rule with amount, cadence, validity window
  - Transaction: A materialized occurrence with its own status/amount
  - Profile/Category: Ownership and grouping records

DESIGN PRINCIPLES:
  1. Snapshots: Transactions copy the rule's amount/name at creation.
     Later rule edits never rewrite history.
  2. Precision: Uses decimal.Decimal to avoid floating-point errors.
  3. Type Safety: Strong typing for IDs prevents mixing item/profile IDs.
  4. Explicit time: (year, month) is threaded through every call; there
     is no ambient "current month" cursor.

SEE ALSO:
  - calendar.go: Date type and month arithmetic
  - occurrence.go: Rule expansion for a target month
  - engine.go: Reconciliation and ledger-entry mutators
*/
package budget

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProfileID string
type CategoryID string
type ItemID string
type TransactionID string

// =============================================================================
// FREQUENCY - Closed cadence enum
// =============================================================================

// Frequency is the cadence of a budget item. The set is closed: every
// consumer switches exhaustively over these six values and treats
// anything else as a hard error rather than a silent no-op.
type Frequency string

const (
	FreqOneTime   Frequency = "one_time"
	FreqWeekly    Frequency = "weekly"
	FreqBiWeekly  Frequency = "bi_weekly"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
	FreqYearly    Frequency = "yearly"
)

// Frequencies lists all valid cadences, in display order.
func Frequencies() []Frequency {
	return []Frequency{FreqOneTime, FreqWeekly, FreqBiWeekly, FreqMonthly, FreqQuarterly, FreqYearly}
}

// ParseFrequency validates a wire/storage string against the closed set.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
	}
	return f, nil
}

func (f Frequency) Valid() bool {
	switch f {
	case FreqOneTime, FreqWeekly, FreqBiWeekly, FreqMonthly, FreqQuarterly, FreqYearly:
		return true
	}
	return false
}

// =============================================================================
// TRANSACTION STATUS
// =============================================================================

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Toggled returns the opposite status.
func (s Status) Toggled() Status {
	if s == StatusPaid {
		return StatusPending
	}
	return StatusPaid
}

// =============================================================================
// PROFILE - Owner of items and transactions
// =============================================================================

// Profile is an isolated budget workspace. Currency is explicit
// per-profile configuration; nothing in the engine reads an ambient
// currency setting.
type Profile struct {
	ID       ProfileID
	Name     string
	Currency string // ISO 4217 code, presentation concern only
}

// =============================================================================
// CATEGORY - Grouping for budget items
// =============================================================================

// Category groups budget items for presentation. ParentID allows one
// level of nesting; nil means top-level.
type Category struct {
	ID          CategoryID
	ProfileID   ProfileID
	Name        string
	Description string
	ParentID    *CategoryID
}

// =============================================================================
// BUDGET ITEM - A recurring rule
// =============================================================================

// BudgetItem is a recurring obligation definition. StartDate is always
// set (inclusive); EndDate, when present, is inclusive and >= StartDate.
//
// Items are edited only through explicit CRUD; the reconciliation
// engine treats them as read-only input.
type BudgetItem struct {
	ID          ItemID
	ProfileID   ProfileID
	CategoryID  CategoryID
	Name        string
	Description string
	Amount      decimal.Decimal
	Frequency   Frequency
	StartDate   Date
	EndDate     *Date
}

// Validate checks structural invariants. Storage and API layers call
// this before persisting an item.
func (it BudgetItem) Validate() error {
	if it.Name == "" {
		return fmt.Errorf("%w: item name is empty", ErrInvalidItem)
	}
	if !it.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFrequency, it.Frequency)
	}
	if it.Amount.IsNegative() {
		return fmt.Errorf("%w: item amount is negative", ErrInvalidAmount)
	}
	if it.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidItem)
	}
	if it.EndDate != nil && it.EndDate.Before(it.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidItem)
	}
	return nil
}

// =============================================================================
// TRANSACTION - A materialized occurrence
// =============================================================================

// Transaction is one dated, persisted occurrence of a budget item.
//
// SnapshotAmount/SnapshotName are copied from the item at creation and
// are never rewritten when the item changes: transactions are
// historical records, not live views. ItemID is a weak reference - the
// item may be deleted while its transactions remain (orphan
// preservation is intentional).
//
// INVARIANT: at most one Transaction exists per (ItemID, Date). The
// engine dedups on that key and the store enforces it as a backstop.
type Transaction struct {
	ID             TransactionID
	ItemID         ItemID
	ProfileID      ProfileID
	Date           Date
	Status         Status
	SnapshotAmount decimal.Decimal
	SnapshotName   string
}
