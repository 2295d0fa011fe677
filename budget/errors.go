/*
errors.go - Centralized error types for the budget engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is(); the API layer maps categories to
  HTTP status codes via the helpers at the bottom.

ERROR CATEGORIES:
  1. Validation errors - Bad input (amounts, frequencies, item shape)
  2. Not-found errors - Referenced records the store no longer has
  3. Store errors - Uniqueness violations surfaced by persistence

SEE ALSO:
  - engine.go: Returns these from reconciliation and mutators
  - store/sqlite: Maps SQLite constraint failures onto these
*/
package budget

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when a snapshot amount override is
	// negative or not parseable as a number. The transaction is left
	// unchanged.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidItem is returned when a budget item fails structural
	// validation (missing name, end date before start date, ...).
	ErrInvalidItem = errors.New("invalid budget item")

	// ErrUnknownFrequency is returned for a cadence outside the closed
	// Frequency set. This is a programming/data error, never a no-op.
	ErrUnknownFrequency = errors.New("unknown frequency")

	// ErrTransactionNotFound is returned when a mutator is given a
	// transaction id the store no longer has.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrItemNotFound is returned when a referenced budget item doesn't exist.
	ErrItemNotFound = errors.New("budget item not found")

	// ErrProfileNotFound is returned when a referenced profile doesn't exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrCategoryNotFound is returned when a referenced category doesn't exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrDuplicateTransaction is returned by stores that enforce the
	// (item, date) uniqueness invariant when an insert would violate it.
	// The engine pre-filters duplicates, so seeing this means another
	// reconciliation materialized the occurrence first - the engine
	// treats it as already done, not as a failure.
	ErrDuplicateTransaction = errors.New("transaction already exists for item and date")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidItem) ||
		errors.Is(err, ErrUnknownFrequency)
}
