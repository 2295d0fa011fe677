package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustDate(t *testing.T, s string) budget.Date {
	t.Helper()
	d, err := budget.ParseDate(s)
	require.NoError(t, err)
	return d
}

func testItem(t *testing.T, id string, start string) budget.BudgetItem {
	t.Helper()
	return budget.BudgetItem{
		ID:        budget.ItemID(id),
		ProfileID: "profile-1",
		Name:      "Rent",
		Amount:    decimal.NewFromInt(1500),
		Frequency: budget.FreqMonthly,
		StartDate: mustDate(t, start),
	}
}

func testTx(t *testing.T, id, itemID, date string) budget.Transaction {
	t.Helper()
	return budget.Transaction{
		ID:             budget.TransactionID(id),
		ItemID:         budget.ItemID(itemID),
		ProfileID:      "profile-1",
		Date:           mustDate(t, date),
		Status:         budget.StatusPending,
		SnapshotAmount: decimal.NewFromInt(1500),
		SnapshotName:   "Rent",
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestAddTransaction_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := testTx(t, "tx-1", "rent", "2024-03-01")
	tx.SnapshotAmount = decimal.RequireFromString("1500.50")
	require.NoError(t, s.AddTransaction(ctx, tx))

	got, err := s.GetTransaction(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, tx.ItemID, got.ItemID)
	assert.Equal(t, tx.ProfileID, got.ProfileID)
	assert.Equal(t, "2024-03-01", got.Date.String())
	assert.Equal(t, budget.StatusPending, got.Status)
	assert.True(t, got.SnapshotAmount.Equal(decimal.RequireFromString("1500.50")))
	assert.Equal(t, "Rent", got.SnapshotName)
}

func TestAddTransaction_DuplicateItemDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// GIVEN a transaction on (rent, 2024-03-01)
	require.NoError(t, s.AddTransaction(ctx, testTx(t, "tx-1", "rent", "2024-03-01")))

	// WHEN inserting a different transaction on the same (item, date)
	err := s.AddTransaction(ctx, testTx(t, "tx-2", "rent", "2024-03-01"))

	// THEN the unique index rejects it as a duplicate
	assert.ErrorIs(t, err, budget.ErrDuplicateTransaction)

	// Same item on a different date is fine
	require.NoError(t, s.AddTransaction(ctx, testTx(t, "tx-3", "rent", "2024-04-01")))
	// Different item on the same date is fine
	require.NoError(t, s.AddTransaction(ctx, testTx(t, "tx-4", "gym", "2024-03-01")))
}

func TestTransactionsForMonth_Boundaries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// GIVEN transactions on both edges of March plus one outside
	require.NoError(t, s.AddTransaction(ctx, testTx(t, "tx-feb", "a", "2024-02-29")))
	require.NoError(t, s.AddTransaction(ctx, testTx(t, "tx-first", "b", "2024-03-01")))
	require.NoError(t, s.AddTransaction(ctx, testTx(t, "tx-last", "c", "2024-03-31")))
	require.NoError(t, s.AddTransaction(ctx, testTx(t, "tx-apr", "d", "2024-04-01")))

	// WHEN querying March
	txs, err := s.TransactionsForMonth(ctx, "profile-1", 2024, time.March)
	require.NoError(t, err)

	// THEN both inclusive boundaries are in, neighbors are out
	require.Len(t, txs, 2)
	assert.Equal(t, budget.TransactionID("tx-first"), txs[0].ID)
	assert.Equal(t, budget.TransactionID("tx-last"), txs[1].ID)
}

func TestTransactionsForMonth_FiltersByProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mine := testTx(t, "tx-mine", "a", "2024-03-10")
	require.NoError(t, s.AddTransaction(ctx, mine))

	other := testTx(t, "tx-other", "b", "2024-03-10")
	other.ProfileID = "profile-2"
	require.NoError(t, s.AddTransaction(ctx, other))

	txs, err := s.TransactionsForMonth(ctx, "profile-1", 2024, time.March)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, budget.TransactionID("tx-mine"), txs[0].ID)
}

func TestPutTransaction_UpdatesStatusAndAmount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := testTx(t, "tx-1", "rent", "2024-03-01")
	require.NoError(t, s.AddTransaction(ctx, tx))

	tx.Status = budget.StatusPaid
	tx.SnapshotAmount = decimal.NewFromInt(1600)
	require.NoError(t, s.PutTransaction(ctx, tx))

	got, err := s.GetTransaction(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, budget.StatusPaid, got.Status)
	assert.True(t, got.SnapshotAmount.Equal(decimal.NewFromInt(1600)))
}

func TestPutTransaction_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.PutTransaction(context.Background(), testTx(t, "ghost", "rent", "2024-03-01"))
	assert.ErrorIs(t, err, budget.ErrTransactionNotFound)
}

func TestGetTransaction_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTransaction(context.Background(), "ghost")
	assert.ErrorIs(t, err, budget.ErrTransactionNotFound)
	assert.True(t, budget.IsNotFound(err))
}

// =============================================================================
// BUDGET ITEMS
// =============================================================================

func TestSaveItem_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	it := testItem(t, "rent", "2024-01-31")
	it.Description = "Monthly rent"
	end := mustDate(t, "2024-12-31")
	it.EndDate = &end
	require.NoError(t, s.SaveItem(ctx, it))

	got, err := s.GetItem(ctx, "rent")
	require.NoError(t, err)
	assert.Equal(t, it.Name, got.Name)
	assert.Equal(t, it.Description, got.Description)
	assert.Equal(t, budget.FreqMonthly, got.Frequency)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, "2024-01-31", got.StartDate.String())
	require.NotNil(t, got.EndDate)
	assert.Equal(t, "2024-12-31", got.EndDate.String())
}

func TestSaveItem_ValidatesBeforePersisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bad := testItem(t, "bad", "2024-01-01")
	bad.Frequency = "sometimes"

	err := s.SaveItem(ctx, bad)
	assert.ErrorIs(t, err, budget.ErrUnknownFrequency)

	_, err = s.GetItem(ctx, "bad")
	assert.ErrorIs(t, err, budget.ErrItemNotFound)
}

func TestSaveItem_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	it := testItem(t, "rent", "2024-01-01")
	require.NoError(t, s.SaveItem(ctx, it))

	it.Amount = decimal.NewFromInt(1600)
	it.Name = "Rent (new lease)"
	require.NoError(t, s.SaveItem(ctx, it))

	got, err := s.GetItem(ctx, "rent")
	require.NoError(t, err)
	assert.Equal(t, "Rent (new lease)", got.Name)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(1600)))

	items, err := s.ItemsByProfile(ctx, "profile-1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDeleteItem_PreservesTransactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// GIVEN an item with a materialized transaction
	require.NoError(t, s.SaveItem(ctx, testItem(t, "rent", "2024-01-01")))
	require.NoError(t, s.AddTransaction(ctx, testTx(t, "tx-1", "rent", "2024-03-01")))

	// WHEN the item is deleted
	require.NoError(t, s.DeleteItem(ctx, "rent"))

	// THEN the item is gone but its transaction remains
	_, err := s.GetItem(ctx, "rent")
	assert.ErrorIs(t, err, budget.ErrItemNotFound)

	got, err := s.GetTransaction(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, budget.ItemID("rent"), got.ItemID)
}

func TestDeleteItem_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.DeleteItem(context.Background(), "ghost")
	assert.ErrorIs(t, err, budget.ErrItemNotFound)
}

// =============================================================================
// PROFILES AND CATEGORIES
// =============================================================================

func TestProfiles_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveProfile(ctx, budget.Profile{ID: "p1", Name: "Personal", Currency: "USD"}))
	require.NoError(t, s.SaveProfile(ctx, budget.Profile{ID: "p2", Name: "Business", Currency: "EUR"}))

	got, err := s.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Personal", got.Name)
	assert.Equal(t, "USD", got.Currency)

	// Sorted by name
	all, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Business", all[0].Name)
	assert.Equal(t, "Personal", all[1].Name)

	require.NoError(t, s.DeleteProfile(ctx, "p2"))
	_, err = s.GetProfile(ctx, "p2")
	assert.ErrorIs(t, err, budget.ErrProfileNotFound)

	err = s.DeleteProfile(ctx, "p2")
	assert.ErrorIs(t, err, budget.ErrProfileNotFound)
}

func TestCategories_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	housing := budget.Category{ID: "c1", ProfileID: "p1", Name: "Housing", Description: "Rent and utilities"}
	require.NoError(t, s.SaveCategory(ctx, housing))

	parent := budget.CategoryID("c1")
	utilities := budget.Category{ID: "c2", ProfileID: "p1", Name: "Utilities", ParentID: &parent}
	require.NoError(t, s.SaveCategory(ctx, utilities))

	cats, err := s.ListCategories(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Housing", cats[0].Name)
	assert.Nil(t, cats[0].ParentID)
	require.NotNil(t, cats[1].ParentID)
	assert.Equal(t, budget.CategoryID("c1"), *cats[1].ParentID)

	// Other profiles see nothing
	cats, err = s.ListCategories(ctx, "p2")
	require.NoError(t, err)
	assert.Empty(t, cats)

	require.NoError(t, s.DeleteCategory(ctx, "c2"))
	err = s.DeleteCategory(ctx, "c2")
	assert.ErrorIs(t, err, budget.ErrCategoryNotFound)
}

// =============================================================================
// ENGINE INTEGRATION
// =============================================================================

func TestEngine_ReconcilesAgainstSQLite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveProfile(ctx, budget.Profile{ID: "profile-1", Name: "Personal", Currency: "USD"}))
	require.NoError(t, s.SaveItem(ctx, testItem(t, "rent", "2024-01-31")))

	engine := budget.NewEngine(s)

	// First pass materializes, second pass is a no-op
	first, err := engine.ReconcileMonth(ctx, "profile-1", 2024, time.February)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "2024-02-29", first[0].Date.String())

	second, err := engine.ReconcileMonth(ctx, "profile-1", 2024, time.February)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}
