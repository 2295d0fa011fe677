/*
handlers.go - HTTP API handlers for the budget engine

PURPOSE:
  Exposes the recurrence and reconciliation engine via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Profiles:
    GET    /api/profiles                   List profiles
    POST   /api/profiles                   Create profile
    GET    /api/profiles/{id}              Get profile
    DELETE /api/profiles/{id}              Delete profile

  Categories:
    GET    /api/profiles/{id}/categories   List categories
    POST   /api/profiles/{id}/categories   Create category
    DELETE /api/categories/{id}            Delete category

  Budget items:
    GET    /api/profiles/{id}/items        List items
    POST   /api/profiles/{id}/items        Create item
    GET    /api/items/{id}                 Get item
    PUT    /api/items/{id}                 Update item
    DELETE /api/items/{id}                 Delete item (transactions survive)
    GET    /api/items/{id}/occurrences     Occurrence preview for a month

  Ledger:
    GET    /api/profiles/{id}/months/{year}/{month}  Reconcile + return month
    POST   /api/transactions/{id}/toggle             Flip pending/paid
    PUT    /api/transactions/{id}/amount             Override snapshot amount

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid amounts/dates/frequencies
  - 404: Missing profile/item/transaction
  - 409: Duplicate transaction (store uniqueness backstop)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *budget.Engine

	validate *validator.Validate

	// newID supplies ids for profiles/categories/items created via the
	// API. The engine carries its own generator for transactions.
	newID func() string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Engine:   budget.NewEngine(store),
		validate: validator.New(),
		newID:    uuid.NewString,
	}
}

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

// ListProfiles returns all profiles.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Store.ListProfiles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles", err)
		return
	}

	dtos := make([]ProfileDTO, len(profiles))
	for i, p := range profiles {
		dtos[i] = toProfileDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProfile creates a new profile.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	p := budget.Profile{
		ID:       budget.ProfileID(h.newID()),
		Name:     req.Name,
		Currency: currency,
	}

	if err := h.Store.SaveProfile(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileDTO(p))
}

// GetProfile returns a single profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProfile(r.Context(), budget.ProfileID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

// DeleteProfile removes a profile.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteProfile(r.Context(), budget.ProfileID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, "Failed to delete profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// ListCategories returns a profile's categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.ListCategories(r.Context(), budget.ProfileID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}

	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCategory creates a category under a profile.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	c := budget.Category{
		ID:          budget.CategoryID(h.newID()),
		ProfileID:   budget.ProfileID(chi.URLParam(r, "id")),
		Name:        req.Name,
		Description: req.Description,
	}
	if req.ParentID != nil {
		p := budget.CategoryID(*req.ParentID)
		c.ParentID = &p
	}

	if err := h.Store.SaveCategory(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(c))
}

// DeleteCategory removes a category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCategory(r.Context(), budget.CategoryID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, "Failed to delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BUDGET ITEM HANDLERS
// =============================================================================

// ListItems returns a profile's budget items.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ItemsByProfile(r.Context(), budget.ProfileID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateItem creates a budget item under a profile.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req SaveItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, ok := h.itemFromRequest(w, req, budget.ItemID(h.newID()), budget.ProfileID(chi.URLParam(r, "id")))
	if !ok {
		return
	}

	if err := h.Store.SaveItem(r.Context(), item); err != nil {
		writeDomainError(w, "Failed to create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(item))
}

// GetItem returns a single budget item.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Store.GetItem(r.Context(), budget.ItemID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(item))
}

// UpdateItem replaces an existing budget item. Already materialized
// transactions keep their snapshots; only future reconciliations see
// the new values.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := budget.ItemID(chi.URLParam(r, "id"))

	existing, err := h.Store.GetItem(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get item", err)
		return
	}

	var req SaveItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, ok := h.itemFromRequest(w, req, id, existing.ProfileID)
	if !ok {
		return
	}

	if err := h.Store.SaveItem(r.Context(), item); err != nil {
		writeDomainError(w, "Failed to update item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(item))
}

// DeleteItem removes a budget item. Its transactions survive as
// orphans by design.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteItem(r.Context(), budget.ItemID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, "Failed to delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ItemOccurrences previews the dates an item is due in a month, without
// materializing anything.
func (h *Handler) ItemOccurrences(w http.ResponseWriter, r *http.Request) {
	item, err := h.Store.GetItem(r.Context(), budget.ItemID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get item", err)
		return
	}

	year, month, ok := parseYearMonth(w, r.URL.Query().Get("year"), r.URL.Query().Get("month"))
	if !ok {
		return
	}

	dates, err := budget.OccurrencesInMonth(item, year, month)
	if err != nil {
		writeDomainError(w, "Failed to compute occurrences", err)
		return
	}

	dto := OccurrencesDTO{
		ItemID: string(item.ID),
		Year:   year,
		Month:  int(month),
		Dates:  make([]string, len(dates)),
	}
	for i, d := range dates {
		dto.Dates[i] = d.String()
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) itemFromRequest(w http.ResponseWriter, req SaveItemRequest, id budget.ItemID, profileID budget.ProfileID) (budget.BudgetItem, bool) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid amount (must be a non-negative number)", budget.ErrInvalidAmount)
		return budget.BudgetItem{}, false
	}

	frequency, err := budget.ParseFrequency(req.Frequency)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid frequency", err)
		return budget.BudgetItem{}, false
	}

	startDate, err := budget.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return budget.BudgetItem{}, false
	}

	item := budget.BudgetItem{
		ID:          id,
		ProfileID:   profileID,
		CategoryID:  budget.CategoryID(req.CategoryID),
		Name:        req.Name,
		Description: req.Description,
		Amount:      amount,
		Frequency:   frequency,
		StartDate:   startDate,
	}

	if req.EndDate != nil && *req.EndDate != "" {
		endDate, err := budget.ParseDate(*req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date", err)
			return budget.BudgetItem{}, false
		}
		item.EndDate = &endDate
	}

	if err := item.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item", err)
		return budget.BudgetItem{}, false
	}
	return item, true
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// GetMonth reconciles and returns the ledger for one (profile, year,
// month). Reconciliation is idempotent, so this is safe as a GET: the
// first view of a month materializes its due occurrences, subsequent
// views just read them back.
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	profileID := budget.ProfileID(chi.URLParam(r, "id"))

	profile, err := h.Store.GetProfile(r.Context(), profileID)
	if err != nil {
		writeDomainError(w, "Failed to get profile", err)
		return
	}

	year, month, ok := parseYearMonth(w, chi.URLParam(r, "year"), chi.URLParam(r, "month"))
	if !ok {
		return
	}

	txs, err := h.Engine.ReconcileMonth(r.Context(), profileID, year, month)
	if err != nil {
		writeDomainError(w, "Failed to reconcile month", err)
		return
	}

	dto := MonthDTO{
		ProfileID:    string(profileID),
		Year:         year,
		Month:        int(month),
		Currency:     profile.Currency,
		Transactions: make([]TransactionDTO, len(txs)),
	}

	total, paid := decimal.Zero, decimal.Zero
	for i, tx := range txs {
		dto.Transactions[i] = toTransactionDTO(tx)
		total = total.Add(tx.SnapshotAmount)
		if tx.Status == budget.StatusPaid {
			paid = paid.Add(tx.SnapshotAmount)
		}
	}
	dto.Total = total.String()
	dto.PaidTotal = paid.String()
	dto.PendingTotal = total.Sub(paid).String()

	writeJSON(w, http.StatusOK, dto)
}

// ToggleTransaction flips a transaction between pending and paid.
func (h *Handler) ToggleTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Engine.ToggleStatus(r.Context(), budget.TransactionID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to toggle transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// SetTransactionAmount overrides a transaction's snapshot amount. The
// owning budget item is never changed.
func (h *Handler) SetTransactionAmount(w http.ResponseWriter, r *http.Request) {
	var req SetAmountRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount (must be a non-negative number)", budget.ErrInvalidAmount)
		return
	}

	tx, err := h.Engine.SetAmount(r.Context(), budget.TransactionID(chi.URLParam(r, "id")), amount)
	if err != nil {
		writeDomainError(w, "Failed to set transaction amount", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// =============================================================================
// HELPERS
// =============================================================================

// decode unmarshals and validates a request body. Writes a 400 and
// returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func parseYearMonth(w http.ResponseWriter, yearStr, monthStr string) (int, time.Month, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1 || year > 9999 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return 0, 0, false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "Invalid month (use 1-12)", err)
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// writeDomainError maps domain error categories onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, msg string, err error) {
	switch {
	case budget.IsNotFound(err):
		writeError(w, http.StatusNotFound, msg, err)
	case budget.IsClientError(err):
		writeError(w, http.StatusBadRequest, msg, err)
	case errors.Is(err, budget.ErrDuplicateTransaction):
		writeError(w, http.StatusConflict, msg, err)
	default:
		writeError(w, http.StatusInternalServerError, msg, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	writeJSON(w, status, map[string]string{
		"error":  msg,
		"detail": detail,
	})
	if status >= http.StatusInternalServerError {
		log.Printf("%s: %v", msg, err)
	}
}
