/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

CONVENTIONS:
  - Dates travel as YYYY-MM-DD strings
  - Amounts travel as decimal strings ("1234.56"), never floats
  - Months are 1-12 on the wire (time.Month internally)

VALIDATION:
  Struct tags are checked with go-playground/validator in handlers;
  semantic validation (dates, amounts, frequency) happens after
  decoding because it needs domain parsing.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// PROFILE TYPES
// =============================================================================

// ProfileDTO represents a profile in API responses.
type ProfileDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// CreateProfileRequest is the request to create a profile.
type CreateProfileRequest struct {
	Name     string `json:"name" validate:"required"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

// =============================================================================
// CATEGORY TYPES
// =============================================================================

// CategoryDTO represents a category in API responses.
type CategoryDTO struct {
	ID          string  `json:"id"`
	ProfileID   string  `json:"profile_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
}

// CreateCategoryRequest is the request to create a category.
type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	ParentID    *string `json:"parent_id,omitempty"`
}

// =============================================================================
// BUDGET ITEM TYPES
// =============================================================================

// ItemDTO represents a budget item in API responses.
type ItemDTO struct {
	ID          string  `json:"id"`
	ProfileID   string  `json:"profile_id"`
	CategoryID  string  `json:"category_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Amount      string  `json:"amount"`
	Frequency   string  `json:"frequency"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date,omitempty"`
}

// SaveItemRequest is the request to create or update a budget item.
type SaveItemRequest struct {
	CategoryID  string  `json:"category_id"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Amount      string  `json:"amount" validate:"required"`
	Frequency   string  `json:"frequency" validate:"required"`
	StartDate   string  `json:"start_date" validate:"required"`
	EndDate     *string `json:"end_date,omitempty"`
}

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

// TransactionDTO represents a materialized occurrence in API responses.
type TransactionDTO struct {
	ID             string `json:"id"`
	ItemID         string `json:"item_id"`
	ProfileID      string `json:"profile_id"`
	Date           string `json:"date"`
	Status         string `json:"status"`
	SnapshotAmount string `json:"snapshot_amount"`
	SnapshotName   string `json:"snapshot_name"`
}

// MonthDTO is the reconciled ledger for one (profile, year, month).
// Totals are computed over the returned transactions so the UI never
// sums decimal strings itself.
type MonthDTO struct {
	ProfileID    string           `json:"profile_id"`
	Year         int              `json:"year"`
	Month        int              `json:"month"`
	Currency     string           `json:"currency"`
	Total        string           `json:"total"`
	PaidTotal    string           `json:"paid_total"`
	PendingTotal string           `json:"pending_total"`
	Transactions []TransactionDTO `json:"transactions"`
}

// SetAmountRequest overrides a transaction's snapshot amount.
type SetAmountRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// OccurrencesDTO is the occurrence preview for one item and month.
type OccurrencesDTO struct {
	ItemID string   `json:"item_id"`
	Year   int      `json:"year"`
	Month  int      `json:"month"`
	Dates  []string `json:"dates"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toProfileDTO(p budget.Profile) ProfileDTO {
	return ProfileDTO{ID: string(p.ID), Name: p.Name, Currency: p.Currency}
}

func toCategoryDTO(c budget.Category) CategoryDTO {
	dto := CategoryDTO{
		ID:          string(c.ID),
		ProfileID:   string(c.ProfileID),
		Name:        c.Name,
		Description: c.Description,
	}
	if c.ParentID != nil {
		p := string(*c.ParentID)
		dto.ParentID = &p
	}
	return dto
}

func toItemDTO(item budget.BudgetItem) ItemDTO {
	dto := ItemDTO{
		ID:          string(item.ID),
		ProfileID:   string(item.ProfileID),
		CategoryID:  string(item.CategoryID),
		Name:        item.Name,
		Description: item.Description,
		Amount:      item.Amount.String(),
		Frequency:   string(item.Frequency),
		StartDate:   item.StartDate.String(),
	}
	if item.EndDate != nil {
		d := item.EndDate.String()
		dto.EndDate = &d
	}
	return dto
}

func toTransactionDTO(tx budget.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:             string(tx.ID),
		ItemID:         string(tx.ItemID),
		ProfileID:      string(tx.ProfileID),
		Date:           tx.Date.String(),
		Status:         string(tx.Status),
		SnapshotAmount: tx.SnapshotAmount.String(),
		SnapshotName:   tx.SnapshotName,
	}
}
