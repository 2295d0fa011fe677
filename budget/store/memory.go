// Package store provides budget.Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	items        map[budget.ItemID]budget.BudgetItem
	itemOrder    []budget.ItemID
	transactions map[budget.TransactionID]budget.Transaction
	txOrder      []budget.TransactionID
	byOccurrence map[occKey]budget.TransactionID
}

type occKey struct {
	ItemID budget.ItemID
	Date   string
}

func NewMemory() *Memory {
	return &Memory{
		items:        make(map[budget.ItemID]budget.BudgetItem),
		transactions: make(map[budget.TransactionID]budget.Transaction),
		byOccurrence: make(map[occKey]budget.TransactionID),
	}
}

// =============================================================================
// ITEM ACCESS (seeding surface for tests/dev)
// =============================================================================

// SaveItem inserts or replaces a budget item.
func (m *Memory) SaveItem(_ context.Context, item budget.BudgetItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.ID]; !ok {
		m.itemOrder = append(m.itemOrder, item.ID)
	}
	m.items[item.ID] = item
	return nil
}

// DeleteItem removes a budget item. Its transactions are left in place
// (orphan preservation).
func (m *Memory) DeleteItem(_ context.Context, id budget.ItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return budget.ErrItemNotFound
	}
	delete(m.items, id)
	for i, existing := range m.itemOrder {
		if existing == id {
			m.itemOrder = append(m.itemOrder[:i], m.itemOrder[i+1:]...)
			break
		}
	}
	return nil
}

// =============================================================================
// budget.Store IMPLEMENTATION
// =============================================================================

func (m *Memory) ItemsByProfile(_ context.Context, profileID budget.ProfileID) ([]budget.BudgetItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []budget.BudgetItem
	for _, id := range m.itemOrder {
		if item := m.items[id]; item.ProfileID == profileID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (m *Memory) TransactionsForMonth(_ context.Context, profileID budget.ProfileID, year int, month time.Month) ([]budget.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := budget.MonthStart(year, month)
	end := budget.MonthEnd(year, month)

	var result []budget.Transaction
	for _, id := range m.txOrder {
		tx := m.transactions[id]
		if tx.ProfileID != profileID {
			continue
		}
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		result = append(result, tx)
	}
	return result, nil
}

func (m *Memory) AddTransaction(_ context.Context, tx budget.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := occKey{ItemID: tx.ItemID, Date: tx.Date.String()}
	if _, ok := m.byOccurrence[key]; ok {
		return budget.ErrDuplicateTransaction
	}

	m.transactions[tx.ID] = tx
	m.txOrder = append(m.txOrder, tx.ID)
	m.byOccurrence[key] = tx.ID
	return nil
}

func (m *Memory) PutTransaction(_ context.Context, tx budget.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[tx.ID]; !ok {
		return budget.ErrTransactionNotFound
	}
	m.transactions[tx.ID] = tx
	return nil
}

func (m *Memory) GetTransaction(_ context.Context, id budget.TransactionID) (budget.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactions[id]
	if !ok {
		return budget.Transaction{}, budget.ErrTransactionNotFound
	}
	return tx, nil
}
